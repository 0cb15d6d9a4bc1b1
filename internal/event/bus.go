package event

import (
	"container/list"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
)

// Handler reacts to a published signal.
type Handler func(Signal) error

// subscription is one registry entry.
type subscription struct {
	id      string
	handler Handler
}

// Stats contains bus counters.
type Stats struct {
	Subscribers   int
	Published     uint64
	Delivered     uint64
	HandlerErrors uint64
	HandlerPanics uint64
}

// Bus broadcasts signals to registered subscribers.
//
// Bus is safe for concurrent use. Handlers run on the publishing goroutine
// without any bus lock held, so they may subscribe or unsubscribe.
type Bus struct {
	mu    sync.RWMutex
	order *list.List
	byID  map[string]*list.Element
	log   logr.Logger

	published     atomic.Uint64
	delivered     atomic.Uint64
	handlerErrors atomic.Uint64
	handlerPanics atomic.Uint64
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used to report handler failures.
func WithLogger(log logr.Logger) BusOption {
	return func(b *Bus) {
		b.log = log
	}
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		order: list.New(),
		byID:  make(map[string]*list.Element),
		log:   logr.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler under id. Subscribing an id again replaces
// its handler and keeps its position.
func (b *Bus) Subscribe(id string, handler Handler) error {
	if id == "" {
		return ErrInvalidSubscription
	}
	if handler == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if el, ok := b.byID[id]; ok {
		el.Value.(*subscription).handler = handler
		return nil
	}
	b.byID[id] = b.order.PushBack(&subscription{id: id, handler: handler})
	return nil
}

// Unsubscribe removes the subscriber registered under id and reports
// whether it existed.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	el, ok := b.byID[id]
	if !ok {
		return false
	}
	b.order.Remove(el)
	delete(b.byID, id)
	return true
}

// Has reports whether id is subscribed.
func (b *Bus) Has(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.byID[id]
	return ok
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.order.Len()
}

// Clear removes every subscriber.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.order.Init()
	clear(b.byID)
}

// Publish invokes every handler with sig in registration order. Handlers
// subscribed during the publish are not invoked for this signal; handlers
// unsubscribed during the publish are skipped if not yet reached.
//
// Every handler runs even if earlier ones fail. The returned error joins
// each HandlerError and PanicError.
func (b *Bus) Publish(sig Signal) error {
	b.published.Add(1)

	b.mu.RLock()
	subs := make([]*subscription, 0, b.order.Len())
	for el := b.order.Front(); el != nil; el = el.Next() {
		subs = append(subs, el.Value.(*subscription))
	}
	b.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if !b.Has(sub.id) {
			continue
		}
		if err := b.deliver(sub, sig); err != nil {
			b.log.Error(err, "Invalidation handler failed", "subscriber", sub.id, "signal", sig.String())
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *Bus) deliver(sub *subscription, sig Signal) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			err = &PanicError{
				SubscriptionID: sub.id,
				Signal:         sig,
				Value:          r,
				Stack:          string(debug.Stack()),
			}
		}
	}()

	b.delivered.Add(1)
	if herr := sub.handler(sig); herr != nil {
		b.handlerErrors.Add(1)
		return &HandlerError{SubscriptionID: sub.id, Signal: sig, Err: herr}
	}
	return nil
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Subscribers:   b.Len(),
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		HandlerErrors: b.handlerErrors.Load(),
		HandlerPanics: b.handlerPanics.Load(),
	}
}
