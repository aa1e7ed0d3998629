// Package txexec implements the single-transaction executor: it runs one
// transaction, possibly nested, through the VM, orchestrating pre/post
// plugins at depth 0 and recursing into inline transactions at depth >= 1.
//
// Documentation Last Review: 08.10.2020
//
package txexec

import (
	"context"
	"time"

	"go.chainforge.dev/executor/core/chain"
	"go.chainforge.dev/executor/core/execution"
	"go.chainforge.dev/executor/core/plugin"
	"go.chainforge.dev/executor/core/trace"
	"go.chainforge.dev/executor/core/txn"
	"golang.org/x/xerrors"
)

// TransactionExecutedEvent is published to the EventSink, in debug builds
// only, once a transaction trace is complete.
type TransactionExecutedEvent struct {
	Trace *trace.Trace
}

// EventSink is the optional, debug-only collaborator that the executor
// notifies once a trace is complete.
type EventSink interface {
	Publish(event TransactionExecutedEvent)
}

// Request is the input to Execute.
type Request struct {
	// Depth is the call depth: 0 for a top-level transaction, >=1 for an
	// inline transaction emitted by a contract.
	Depth int

	// ChainContext carries the previous block position and the tiered state
	// cache this execution, and its plugins and inline calls, read and write
	// through.
	ChainContext chain.Context

	// Transaction is the transaction to execute.
	Transaction txn.Transaction

	// BlockTime is the timestamp of the block under construction.
	BlockTime time.Time

	// Origin is the identity inline transactions must be attributed to. When
	// empty, the transaction's own sender is used; pre/post and inline
	// transactions are given the caller's origin, at any depth.
	Origin txn.Address

	// Cancelable controls whether cooperative cancellation is honored at
	// entry to this call. Its zero value is false, which skips the entry
	// check; the batch, inline and plugin call sites all set it to true.
	Cancelable bool
}

// Executor runs one transaction, recursively, through the VM.
//
// - implements the single-transaction executor of the batch layer
type Executor struct {
	vm          execution.Service
	prePlugins  []plugin.PrePlugin
	postPlugins []plugin.PostPlugin
	sink        EventSink
	debug       bool
}

// New creates an Executor. Pre/post plugins are deduplicated by type,
// preserving first-seen order, as required by the plugin-uniqueness
// invariant. sink may be nil; debug controls whether TransactionExecutedEvent
// is published.
func New(vm execution.Service, prePlugins []plugin.PrePlugin, postPlugins []plugin.PostPlugin, sink EventSink, debug bool) *Executor {
	return &Executor{
		vm:          vm,
		prePlugins:  plugin.DedupPre(prePlugins),
		postPlugins: plugin.DedupPost(postPlugins),
		sink:        sink,
		debug:       debug,
	}
}

// Execute runs transaction req.Transaction and returns its complete trace.
// A non-nil error means an unexpected VM or plugin failure that the caller
// (ultimately the batch executor) must surface; expected failures (pre/post
// failure, missing contract, cancellation) are reflected in the returned
// trace's ExecutionStatus instead.
func (e *Executor) Execute(ctx context.Context, req Request) (*trace.Trace, error) {
	if req.Cancelable && canceled(ctx) {
		t := trace.New(req.Transaction.GetID())
		t.ExecutionStatus = trace.Canceled

		return t, nil
	}

	internalCache := req.ChainContext.Cache.Child()
	internalChainCtx := req.ChainContext.WithStateCache(internalCache)

	txCtx := trace.NewContext(internalChainCtx, req.Transaction, req.BlockTime, req.Depth, req.Origin)

	defer e.publish(txCtx.Trace)

	executive, err := e.vm.GetExecutive(internalChainCtx, req.Transaction.GetTo())
	if err != nil {
		if xerrors.Is(err, execution.ErrExecutiveNotFound) {
			txCtx.Trace.ExecutionStatus = trace.ContractError
			txCtx.Trace.AppendError("Invalid contract address.\n")

			return txCtx.Trace, nil
		}

		txCtx.Trace.ExecutionStatus = trace.SystemError
		txCtx.Trace.AppendError(err.Error())

		return txCtx.Trace, xerrors.Errorf("failed to get executive: %v", err)
	}

	defer e.vm.PutExecutive(req.Transaction.GetTo(), executive)

	if req.Depth == 0 {
		ok, err := e.runPrePlugins(ctx, executive, req.ChainContext, internalChainCtx, txCtx, internalCache)
		if err != nil {
			txCtx.Trace.ExecutionStatus = trace.SystemError
			txCtx.Trace.AppendError(err.Error())

			return txCtx.Trace, err
		}

		if !ok {
			txCtx.Trace.ExecutionStatus = trace.Prefailed

			return txCtx.Trace, nil
		}
	}

	if err := executive.Apply(txCtx); err != nil {
		txCtx.Trace.ExecutionStatus = trace.ContractError
		txCtx.Trace.AppendError(err.Error())

		return txCtx.Trace, xerrors.Errorf("vm apply failed: %v", err)
	}

	if txCtx.Trace.ExecutionStatus == trace.Executed {
		if err := e.runInline(ctx, internalCache, internalChainCtx, txCtx); err != nil {
			txCtx.Trace.ExecutionStatus = trace.SystemError
			txCtx.Trace.AppendError(err.Error())

			return txCtx.Trace, err
		}
	}

	if req.Depth == 0 {
		ok, err := e.runPostPlugins(ctx, executive, req.ChainContext, &internalChainCtx, &internalCache, txCtx)
		if err != nil {
			txCtx.Trace.ExecutionStatus = trace.SystemError
			txCtx.Trace.AppendError(err.Error())

			return txCtx.Trace, err
		}

		if !ok {
			txCtx.Trace.ExecutionStatus = trace.Postfailed

			return txCtx.Trace, nil
		}
	}

	return txCtx.Trace, nil
}

func (e *Executor) publish(t *trace.Trace) {
	if e.debug && e.sink != nil {
		e.sink.Publish(TransactionExecutedEvent{Trace: t})
	}
}

func canceled(ctx context.Context) bool {
	if ctx == nil {
		return false
	}

	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
