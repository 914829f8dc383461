package app

import (
	"sync"

	"github.com/google/uuid"

	"github.com/altazietsman/lexi-meter/internal/domain"
	"github.com/altazietsman/lexi-meter/internal/metrics"
)

// Channel is the outbound endpoint for one participant connection. The
// registry owns the handle for the lifetime of the connection; consumers only
// drain Events.
type Channel struct {
	id            string
	participantID string

	mu     sync.Mutex
	closed bool
	events chan domain.Event
}

// NewChannel builds an unregistered channel handle with a bounded buffer.
func NewChannel(participantID string, buffer int) *Channel {
	if buffer <= 0 {
		buffer = 16
	}
	return &Channel{
		id:            uuid.NewString(),
		participantID: participantID,
		events:        make(chan domain.Event, buffer),
	}
}

func (c *Channel) ID() string            { return c.id }
func (c *Channel) ParticipantID() string { return c.participantID }

// Events is drained by the connection's writer loop. It is closed when the
// channel leaves its session.
func (c *Channel) Events() <-chan domain.Event { return c.events }

// trySend delivers without blocking. A full buffer or a closed channel counts
// as a failed send; the caller treats the connection as dead.
func (c *Channel) trySend(ev domain.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

func (c *Channel) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}

// Registry tracks the set of live channels per quiz. All mutations funnel
// through its synchronized operations; the maps are never handed out.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]map[*Channel]struct{}
	member   map[*Channel]string
	onEmpty  func(quizID string)
}

// NewRegistry builds a registry. onEmpty, if non-nil, fires after the last
// channel for a quiz leaves.
func NewRegistry(onEmpty func(quizID string)) *Registry {
	return &Registry{
		channels: make(map[string]map[*Channel]struct{}),
		member:   make(map[*Channel]string),
		onEmpty:  onEmpty,
	}
}

// Join registers a channel for a quiz. A handle can be registered at most
// once over its lifetime.
func (r *Registry) Join(quizID string, ch *Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.member[ch]; ok {
		return domain.ErrAlreadyJoined
	}
	set, ok := r.channels[quizID]
	if !ok {
		set = make(map[*Channel]struct{})
		r.channels[quizID] = set
	}
	set[ch] = struct{}{}
	r.member[ch] = quizID
	metrics.ConnectedChannels.Inc()
	return nil
}

// Leave removes and closes a channel. It is a no-op when the channel is
// already gone, so disconnect races are tolerated. Reports whether the
// channel was actually removed.
func (r *Registry) Leave(quizID string, ch *Channel) bool {
	r.mu.Lock()
	set, ok := r.channels[quizID]
	if !ok {
		r.mu.Unlock()
		return false
	}
	if _, ok := set[ch]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(set, ch)
	delete(r.member, ch)
	empty := len(set) == 0
	if empty {
		delete(r.channels, quizID)
	}
	r.mu.Unlock()

	ch.close()
	metrics.ConnectedChannels.Dec()
	if empty && r.onEmpty != nil {
		r.onEmpty(quizID)
	}
	return true
}

// Channels returns a point-in-time copy of the quiz's channel set.
func (r *Registry) Channels(quizID string) []*Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.channels[quizID]
	out := make([]*Channel, 0, len(set))
	for ch := range set {
		out = append(out, ch)
	}
	return out
}

// Count reports how many channels are registered for a quiz.
func (r *Registry) Count(quizID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[quizID])
}

// RemoveAll unregisters and closes every channel for a quiz without firing
// the empty signal; used for session teardown.
func (r *Registry) RemoveAll(quizID string) []*Channel {
	r.mu.Lock()
	set := r.channels[quizID]
	delete(r.channels, quizID)
	out := make([]*Channel, 0, len(set))
	for ch := range set {
		delete(r.member, ch)
		out = append(out, ch)
	}
	r.mu.Unlock()

	for _, ch := range out {
		ch.close()
		metrics.ConnectedChannels.Dec()
	}
	return out
}
