package pubsub

import (
	"context"
	"encoding/json"
	"sync"

	pkglog "github.com/forfuturefoundation2024-hash/AIVEX/pkg/log"
)

// eventBuffer is the per-subscription queue between transport and consumer.
const eventBuffer = 64

// subscription is one running consumer goroutine. done closes after the
// goroutine released its transport resources and closed its event channel.
type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func newSubscription(ctx context.Context) (context.Context, *subscription) {
	subCtx, cancel := context.WithCancel(ctx)
	return subCtx, &subscription{cancel: cancel, done: make(chan struct{})}
}

func (s *subscription) stop() {
	s.cancel()
	<-s.done
}

// subscriptionSet holds at most one subscription per channel.
type subscriptionSet struct {
	mu   sync.Mutex
	subs map[string]*subscription
}

// replace installs sub for channel, stopping any previous one.
func (s *subscriptionSet) replace(channel string, sub *subscription) {
	s.mu.Lock()
	prev := s.subs[channel]
	if s.subs == nil {
		s.subs = make(map[string]*subscription)
	}
	s.subs[channel] = sub
	s.mu.Unlock()

	if prev != nil {
		prev.stop()
	}
}

func (s *subscriptionSet) remove(channel string) {
	s.mu.Lock()
	sub := s.subs[channel]
	delete(s.subs, channel)
	s.mu.Unlock()

	if sub != nil {
		sub.stop()
	}
}

func (s *subscriptionSet) stopAll() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
}

// forward decodes payload and queues it on out without blocking; a lagging
// consumer loses the event. It returns false once ctx is done.
func forward(ctx context.Context, out chan<- *Event, channel string, payload []byte) bool {
	l := pkglog.L()

	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		l.Warn().Err(err).Str(pkglog.FieldChannel, channel).Msg("dropping undecodable bus event")
		return ctx.Err() == nil
	}

	select {
	case out <- &evt:
		return true
	case <-ctx.Done():
		return false
	default:
		l.Warn().
			Str(pkglog.FieldChannel, channel).
			Str("event_type", evt.Type).
			Msg("bus consumer lagging, event dropped")
		return true
	}
}
