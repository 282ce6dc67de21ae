package channel

import (
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Tyrowin/roomchat/internal/metrics"
)

// Options configures a Manager.
type Options struct {
	// HistoryEnabled keeps the last HistoryLimit messages of every room and
	// replays them to joining subscribers.
	HistoryEnabled bool
	HistoryLimit   int

	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// Clock stamps accepted messages. Defaults to time.Now.
	Clock func() time.Time
}

// Manager is the registry of rooms. It is safe for concurrent use.
//
// The registry lock only guards the name → room map; each room carries its
// own lock, so operations on different rooms do not contend. A room lock is
// never held while the registry lock is acquired.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	historyLimit int
	log          *zap.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewManager returns an empty registry.
func NewManager(opts Options) *Manager {
	limit := 0
	if opts.HistoryEnabled {
		limit = opts.HistoryLimit
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	return &Manager{
		rooms:        make(map[string]*Room),
		historyLimit: limit,
		log:          log,
		metrics:      opts.Metrics,
		now:          now,
	}
}

func (m *Manager) room(name string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[name]
}

// EnsureRoom creates the room if it does not exist yet.
func (m *Manager) EnsureRoom(name string) {
	if m.room(name) != nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[name]; ok {
		return
	}
	m.rooms[name] = newRoom(name, m.historyLimit)
	m.metrics.RoomCreated()
	m.log.Info("room created", zap.String("room", name), zap.Int("rooms", len(m.rooms)))
}

// Join registers sub in the room and replays the room's history to it before
// any later broadcast can reach its queue. It returns false when the room
// does not exist, sub is already a member, or sub's queue is closed.
func (m *Manager) Join(name string, sub *Subscriber) bool {
	r := m.room(name)
	if r == nil {
		return false
	}

	r.mu.Lock()
	replayed, joined := r.join(sub)
	members := len(r.subscribers)
	r.mu.Unlock()

	m.metrics.HistoryReplayed(replayed)
	if joined {
		m.log.Debug("subscriber joined",
			zap.String("room", name),
			zap.Stringer("subscriber", sub.ID()),
			zap.Int("replayed", replayed),
			zap.Int("members", members))
	}
	return joined
}

// Leave removes sub from the room. Missing rooms and non-members are ignored.
func (m *Manager) Leave(name string, sub *Subscriber) bool {
	r := m.room(name)
	if r == nil {
		return false
	}

	r.mu.Lock()
	left := r.leave(sub.ID())
	members := len(r.subscribers)
	r.mu.Unlock()

	if left {
		m.log.Debug("subscriber left",
			zap.String("room", name),
			zap.Stringer("subscriber", sub.ID()),
			zap.Int("members", members))
	}
	return left
}

// Broadcast stamps a message, stores it in the room's history and enqueues
// it onto every member's queue. Members whose queue refuses the message are
// dropped from the room. It returns the number of queues reached; a missing
// room yields 0.
func (m *Manager) Broadcast(name, sender, content string) int {
	r := m.room(name)
	if r == nil {
		return 0
	}

	r.mu.Lock()
	msg := Message{Sender: sender, Content: content, Timestamp: m.now()}
	r.history.push(msg)
	delivered, gone := r.fanOut(msg.Live())
	r.mu.Unlock()

	m.metrics.MessageBroadcast(delivered)
	for _, d := range gone {
		reason := metrics.ReasonClosed
		if errors.Is(d.err, ErrQueueFull) {
			reason = metrics.ReasonOverflow
		}
		m.metrics.SubscriberDropped(reason)
		m.log.Info("subscriber dropped from room",
			zap.String("room", name),
			zap.Stringer("subscriber", d.id),
			zap.String("reason", reason))
	}
	return delivered
}

// ListRoomNames returns a sorted snapshot of every room name.
func (m *Manager) ListRoomNames() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.rooms))
	for name := range m.rooms {
		names = append(names, name)
	}
	m.mu.RUnlock()

	sort.Strings(names)
	return names
}

// RoomCount returns the number of rooms in the registry.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Members returns how many subscribers are in the room, or -1 if it does not exist.
func (m *Manager) Members(name string) int {
	r := m.room(name)
	if r == nil {
		return -1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}

// IsMember reports whether sub is registered in the room.
func (m *Manager) IsMember(name string, sub *Subscriber) bool {
	r := m.room(name)
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indexOf(sub.ID()) >= 0
}

// History returns a copy of the room's stored messages, oldest first.
func (m *Manager) History(name string) []Message {
	r := m.room(name)
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.history.snapshot()
}
