// Package batch implements the batch executor: it drives a shared,
// group-level tiered state cache across an ordered list of transactions,
// promoting or discarding each transaction's state delta and assembling the
// final return-sets.
//
// Documentation Last Review: 08.10.2020
//
package batch

import (
	"context"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/rs/xid"
	"go.chainforge.dev/executor"
	"go.chainforge.dev/executor/core/chain"
	"go.chainforge.dev/executor/core/result"
	"go.chainforge.dev/executor/core/store"
	"go.chainforge.dev/executor/core/store/tiered"
	"go.chainforge.dev/executor/core/trace"
	"go.chainforge.dev/executor/core/txexec"
	"go.chainforge.dev/executor/core/txn"
	"go.chainforge.dev/executor/metrics"
	"go.chainforge.dev/executor/tracing"
	"golang.org/x/xerrors"
)

// Header carries the position and timestamp of the block under
// construction.
type Header struct {
	PreviousBlockHash []byte
	Height            int64
	Time              time.Time
}

// Request is the input to a batch run.
type Request struct {
	Header Header

	// PartialState, when non-nil, seeds the group cache's base layer. A nil
	// map means the batch starts from an empty state (a fresh chain).
	PartialState map[string][]byte

	Transactions []txn.Transaction
}

// Store is the external transaction result store collaborator: it persists
// the return-sets produced by a batch run alongside the block header they
// belong to.
type Store interface {
	AddTransactionResults(ctx context.Context, header Header, returnSets []result.ReturnSet) error
}

// Executor drives a batch of transactions sequentially against a shared
// group cache.
//
// - implements the batch executor
type Executor struct {
	tx     *txexec.Executor
	store  Store
	tracer opentracing.Tracer
}

// New creates a batch Executor. store may be nil, in which case results are
// not persisted anywhere (useful for dry runs and tests).
func New(tx *txexec.Executor, store Store) *Executor {
	return &Executor{tx: tx, store: store}
}

// WithTracer returns a copy of the Executor that emits an opentracing span
// for every batch run and one child span per transaction.
func (e *Executor) WithTracer(tracer opentracing.Tracer) *Executor {
	cp := *e
	cp.tracer = tracer

	return &cp
}

// mapReadable adapts a plain key/value map to store.Readable so that a
// partial block state set can seed the group cache's base layer.
type mapReadable map[string][]byte

func (m mapReadable) Get(key []byte) ([]byte, error) {
	v, ok := m[string(key)]
	if !ok {
		return nil, nil
	}

	return v, nil
}

// Execute runs every transaction in req.Transactions, in order, against a
// group cache seeded from req.PartialState. It stops early, without an
// error, if ctx is canceled between transactions or if a transaction's trace
// cannot be promoted (tryPromote returned false). Malformed transactions
// (missing From or To) are logged and skipped rather than aborting the
// batch, a deliberate deviation documented alongside the rest of this
// module's design decisions.
//
// throwException does not change whether a transaction-level failure is
// promoted, discarded, or stops the batch; it only controls how verbosely
// tryPromote logs the trace's accumulated error.
func (e *Executor) Execute(ctx context.Context, req Request, throwException bool) ([]result.ReturnSet, error) {
	var base store.Readable
	if req.PartialState != nil {
		base = mapReadable(req.PartialState)
	}

	groupCache := tiered.New(base)
	groupChainCtx := chain.New(req.Header.PreviousBlockHash, req.Header.Height-1, groupCache)

	if e.tracer != nil {
		var span opentracing.Span
		span, ctx = tracing.StartBatchSpan(ctx, e.tracer, req.Header.Height)
		defer span.Finish()
	}

	// runID correlates every log line emitted by this batch run, the way a
	// correlation id ties together the log lines of one RPC call.
	runID := xid.New()
	log := executor.Logger.With().Stringer("batchRun", runID).Logger()

	var returnSets []result.ReturnSet
	defer func() { metrics.BatchTransactions.Observe(float64(len(returnSets))) }()

	for _, tx := range req.Transactions {
		select {
		case <-ctx.Done():
			log.Info().Msg("batch canceled, stopping before next transaction")
			return e.finish(ctx, req.Header, returnSets)
		default:
		}

		if err := txn.Validate(tx); err != nil {
			log.Warn().Err(err).Msg("skipping malformed transaction")
			continue
		}

		txCtx := ctx
		var txSpan opentracing.Span

		if e.tracer != nil {
			txSpan, txCtx = tracing.StartTransactionSpan(ctx, e.tracer, txn.Address(tx.GetID()).String(), 0)
		}

		tr, err := e.tx.Execute(txCtx, txexec.Request{
			Depth:        0,
			ChainContext: groupChainCtx,
			Transaction:  tx,
			BlockTime:    req.Header.Time,
			Cancelable:   true,
		})

		if txSpan != nil {
			txSpan.Finish()
		}

		if err != nil {
			return nil, xerrors.Errorf("failed to execute transaction: %v", err)
		}

		if !tryPromote(groupCache, tr, throwException) {
			break
		}

		rs := result.Synthesize(tr)
		metrics.Observe(rs.Status.String())
		returnSets = append(returnSets, rs)
	}

	return e.finish(ctx, req.Header, returnSets)
}

func (e *Executor) finish(ctx context.Context, header Header, returnSets []result.ReturnSet) ([]result.ReturnSet, error) {
	if e.store != nil {
		if err := e.store.AddTransactionResults(ctx, header, returnSets); err != nil {
			return nil, xerrors.Errorf("failed to persist transaction results: %v", err)
		}
	}

	return returnSets, nil
}

// tryPromote decides whether a completed trace's state sets are merged into
// the group cache:
//   - a fully successful trace is flattened in full and merged;
//   - a canceled trace (at any level of its pre/inline/post subtree)
//     contributes nothing, and the batch stops;
//   - any other failure still promotes the successful pre/post effects
//     (e.g. an already-charged fee) while discarding the failed VM body.
//
// The trace's accumulated error is logged unconditionally before returning,
// even along the successful path, matching the diagnostic habit of the
// system this executor is modeled on. throwException controls only how
// verbose that log entry is: it does not change whether the trace is
// promoted, discarded, or stops the batch.
func tryPromote(groupCache *tiered.Cache, t *trace.Trace, throwException bool) bool {
	if t == nil {
		return false
	}

	if t.IsSuccessful() {
		groupCache.Update(trace.Flatten(t)...)
	} else {
		if trace.IsCanceled(t) {
			metrics.CanceledTransactions.Inc()
			return false
		}

		groupCache.Update(trace.FlattenPromotable(t)...)
		trace.SurfaceUpError(t)
	}

	if t.Error != "" {
		event := executor.Logger.Debug()
		if throwException {
			event = executor.Logger.Warn().Str("error", t.Error)
		}

		event.Str("transactionId", txn.Address(t.TransactionID).String()).
			Msg("transaction trace carries an error")
	}

	return true
}
