package pkgmgr

import (
	"context"
	"sync"

	"github.com/zjrosen/mlagent/internal/log"
)

// Handler processes one event to completion.
type Handler interface {
	Handle(ctx context.Context, ev LifecycleEvent)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev LifecycleEvent)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, ev LifecycleEvent) { f(ctx, ev) }

// Subscription delivers the events of a Source to a Handler, one at a time.
// It owns the source and closes it on Close.
type Subscription struct {
	src       Source
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Subscribe starts delivering events from src to h. Delivery stops when ctx
// is cancelled, the source closes, or Close is called. An event already being
// handled always runs to completion.
func Subscribe(ctx context.Context, src Source, h Handler) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		src:    src,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx, h)
	return s
}

func (s *Subscription) run(ctx context.Context, h Handler) {
	defer close(s.done)
	handleCtx := context.WithoutCancel(ctx)
	events := s.src.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				log.Debug(log.CatPkg, "Event source closed")
				return
			}
			h.Handle(handleCtx, ev)
		case <-ctx.Done():
			return
		}
	}
}

// Done is closed once delivery has stopped.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close stops delivery, closes the source and waits for the in-flight event.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.closeErr = s.src.Close()
		<-s.done
	})
	return s.closeErr
}
