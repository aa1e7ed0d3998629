package events

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.chainforge.dev/executor/core/trace"
	"go.chainforge.dev/executor/core/txexec"
)

type fakeObserver struct {
	ch chan txexec.TransactionExecutedEvent
}

func (o fakeObserver) NotifyCallback(evt txexec.TransactionExecutedEvent) {
	o.ch <- evt
}

func newFakeObserver() fakeObserver {
	return fakeObserver{
		ch: make(chan txexec.TransactionExecutedEvent, 1),
	}
}

func TestWatcher_Add(t *testing.T) {
	watcher := NewWatcher()

	watcher.Add(fakeObserver{ch: make(chan txexec.TransactionExecutedEvent)})
	require.Len(t, watcher.observers, 1)

	obs := fakeObserver{ch: make(chan txexec.TransactionExecutedEvent)}
	watcher.Add(obs)
	require.Len(t, watcher.observers, 2)

	watcher.Add(obs)
	require.Len(t, watcher.observers, 2)
}

func TestWatcher_Remove(t *testing.T) {
	watcher := NewWatcher()
	watcher.observers[newFakeObserver()] = struct{}{}

	obs := newFakeObserver()
	watcher.observers[obs] = struct{}{}
	require.Len(t, watcher.observers, 2)

	watcher.Remove(obs)
	require.Len(t, watcher.observers, 1)

	watcher.Remove(obs)
	require.Len(t, watcher.observers, 1)
}

func TestWatcher_Notify(t *testing.T) {
	watcher := NewWatcher()

	obs := newFakeObserver()
	watcher.observers[obs] = struct{}{}

	watcher.Notify(txexec.TransactionExecutedEvent{Trace: &trace.Trace{}})
	evt := <-obs.ch
	require.NotNil(t, evt.Trace)
}

func TestWatcher_PublishSatisfiesEventSink(t *testing.T) {
	watcher := NewWatcher()
	obs := newFakeObserver()
	watcher.Add(obs)

	var sink txexec.EventSink = watcher
	sink.Publish(txexec.TransactionExecutedEvent{Trace: &trace.Trace{}})

	evt := <-obs.ch
	require.NotNil(t, evt.Trace)
}
