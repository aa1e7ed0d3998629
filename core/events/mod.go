// Package events provides a fan-out notifier for transaction-executed
// events, so that more than one debug-time subscriber (a logger, a test
// assertion, a metrics exporter) can observe the same txexec.Executor
// without the executor itself knowing how many are listening.
//
// Documentation Last Review: 08.10.2020
//
package events

import (
	"sync"

	"go.chainforge.dev/executor/core/txexec"
)

// Observer watches transaction-executed events.
type Observer interface {
	NotifyCallback(event txexec.TransactionExecutedEvent)
}

// Observable provides primitives to add and remove observers and to notify
// them of new events.
type Observable interface {
	// Add adds the observer to the list of observers that will be notified of
	// new events.
	Add(observer Observer)

	// Remove removes the observer from the list thus stopping it from
	// receiving new events.
	Remove(observer Observer)

	// Notify notifies the observers of a new event.
	Notify(event txexec.TransactionExecutedEvent)
}

// Watcher is an implementation of the Observable interface. It also
// implements txexec.EventSink directly, so it can be passed straight into
// txexec.New as the sink.
//
// - implements events.Observable
// - implements txexec.EventSink
type Watcher struct {
	sync.RWMutex

	observers map[Observer]struct{}
}

// NewWatcher creates a new empty watcher.
func NewWatcher() *Watcher {
	return &Watcher{
		observers: make(map[Observer]struct{}),
	}
}

// Add implements events.Observable.
func (w *Watcher) Add(observer Observer) {
	w.Lock()
	w.observers[observer] = struct{}{}
	w.Unlock()
}

// Remove implements events.Observable.
func (w *Watcher) Remove(observer Observer) {
	w.Lock()
	delete(w.observers, observer)
	w.Unlock()
}

// Notify implements events.Observable and txexec.EventSink's Publish. It
// notifies the whole list of observers, one after another.
func (w *Watcher) Notify(event txexec.TransactionExecutedEvent) {
	w.RLock()
	defer w.RUnlock()

	for o := range w.observers {
		o.NotifyCallback(event)
	}
}

// Publish implements txexec.EventSink.
func (w *Watcher) Publish(event txexec.TransactionExecutedEvent) {
	w.Notify(event)
}
