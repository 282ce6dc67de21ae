package channel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrSubscriberClosed is returned by Send once the queue has been closed.
	ErrSubscriberClosed = errors.New("channel: subscriber queue closed")
	// ErrQueueFull is returned by Send when the queue overflowed and the
	// subscriber was disconnected as a result.
	ErrQueueFull = errors.New("channel: subscriber queue full")
)

// OverflowPolicy decides what Send does when a subscriber's queue is full.
type OverflowPolicy int

const (
	// DropOldest evicts the oldest queued message to make room.
	DropOldest OverflowPolicy = iota
	// Disconnect closes the queue, which ends the owning connection.
	Disconnect
)

func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "drop_oldest"
	case Disconnect:
		return "disconnect"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

// ParseOverflowPolicy maps a configuration value onto a policy.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "drop_oldest":
		return DropOldest, nil
	case "disconnect":
		return Disconnect, nil
	default:
		return DropOldest, fmt.Errorf("channel: unknown overflow policy %q", s)
	}
}

// Subscriber is the per-connection handle registered into rooms: an opaque
// ID plus a bounded FIFO outbound queue. The owning connection drains
// Messages; rooms only ever call Send.
type Subscriber struct {
	id     uuid.UUID
	policy OverflowPolicy

	mu      sync.Mutex
	queue   chan string
	closed  bool
	evicted uint64
}

// NewSubscriber creates a handle with a fresh ID and a queue holding up to
// size messages. A non-positive size is treated as 1.
func NewSubscriber(size int, policy OverflowPolicy) *Subscriber {
	if size <= 0 {
		size = 1
	}
	return &Subscriber{
		id:     uuid.New(),
		policy: policy,
		queue:  make(chan string, size),
	}
}

// ID returns the identity used for room membership.
func (s *Subscriber) ID() uuid.UUID {
	return s.id
}

// Messages returns the receive side of the queue. It is closed by Close.
func (s *Subscriber) Messages() <-chan string {
	return s.queue
}

// Send enqueues msg without blocking. It fails with ErrSubscriberClosed after
// Close, and with ErrQueueFull when the queue overflowed under Disconnect.
func (s *Subscriber) Send(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSubscriberClosed
	}

	select {
	case s.queue <- msg:
		return nil
	default:
	}

	if s.policy == Disconnect {
		s.closed = true
		close(s.queue)
		return ErrQueueFull
	}

	// Only Send enqueues and it holds mu, so one eviction always frees a slot.
	select {
	case <-s.queue:
		s.evicted++
	default:
	}
	s.queue <- msg
	return nil
}

// Close closes the queue. It reports whether this call performed the close.
func (s *Subscriber) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.closed = true
	close(s.queue)
	return true
}

// Closed reports whether the queue no longer accepts messages.
func (s *Subscriber) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Evicted returns how many queued messages DropOldest has discarded.
func (s *Subscriber) Evicted() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evicted
}
