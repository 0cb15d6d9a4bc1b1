// Package event provides the invalidation bus that tells debugger views
// their cached data is stale.
//
// The bus is a keyed registry: each subscriber registers under an identity
// handle, at most once, and receives every published Signal synchronously
// in registration order. A Signal is a set of reasons; the engine publishes
// one per batch. Removal is O(1) and does not disturb the order of
// the remaining subscribers.
//
// A failing or panicking handler never prevents later handlers from
// running; failures are collected and returned from Publish.
//
//	bus := event.NewBus()
//	bus.Subscribe("threads", func(sig event.Signal) error {
//	    if sig.Has(event.SignalStopped | event.SignalThreadSelected) {
//	        refreshThreads()
//	    }
//	    return nil
//	})
//	bus.Publish(event.SignalStopped)
package event
