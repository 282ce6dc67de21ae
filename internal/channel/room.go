package channel

import (
	"sync"

	"github.com/google/uuid"
)

// Room is a named broadcast group. Its mutex serializes joins, leaves and
// broadcasts, which is what keeps history replay ahead of live traffic.
type Room struct {
	name string

	mu          sync.Mutex
	subscribers []*Subscriber
	history     *history
}

func newRoom(name string, historyLimit int) *Room {
	return &Room{
		name:    name,
		history: newHistory(historyLimit),
	}
}

func (r *Room) indexOf(id uuid.UUID) int {
	for i, s := range r.subscribers {
		if s.ID() == id {
			return i
		}
	}
	return -1
}

// join replays history into sub and registers it. Callers hold r.mu.
func (r *Room) join(sub *Subscriber) (replayed int, joined bool) {
	if r.indexOf(sub.ID()) >= 0 {
		return 0, false
	}

	r.history.each(func(m Message) {
		if err := sub.Send(m.Replay()); err == nil {
			replayed++
		}
	})
	if sub.Closed() {
		return replayed, false
	}

	r.subscribers = append(r.subscribers, sub)
	return replayed, true
}

// leave removes the subscriber with id. Callers hold r.mu.
func (r *Room) leave(id uuid.UUID) bool {
	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	copy(r.subscribers[i:], r.subscribers[i+1:])
	r.subscribers[len(r.subscribers)-1] = nil
	r.subscribers = r.subscribers[:len(r.subscribers)-1]
	return true
}

// dropped describes a subscriber removed during fan-out.
type dropped struct {
	id  uuid.UUID
	err error
}

// fanOut enqueues line onto every subscriber and removes those whose queue
// refused it. Callers hold r.mu.
func (r *Room) fanOut(line string) (delivered int, gone []dropped) {
	kept := r.subscribers[:0]
	for _, s := range r.subscribers {
		if err := s.Send(line); err != nil {
			gone = append(gone, dropped{id: s.ID(), err: err})
			continue
		}
		kept = append(kept, s)
		delivered++
	}
	for i := len(kept); i < len(r.subscribers); i++ {
		r.subscribers[i] = nil
	}
	r.subscribers = kept
	return delivered, gone
}
