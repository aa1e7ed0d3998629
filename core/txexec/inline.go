package txexec

import (
	"context"

	"go.chainforge.dev/executor"
	"go.chainforge.dev/executor/core/chain"
	"go.chainforge.dev/executor/core/store/tiered"
	"go.chainforge.dev/executor/core/trace"
	"go.chainforge.dev/executor/metrics"
)

// runInline merges the transaction's own state set into the internal cache
// so that inline calls observe the parent's writes, then runs the inline
// transactions the VM emitted, in order, at depth+1 and under the same
// origin. Execution stops at the first inline failure; the remaining inline
// transactions are not run and the parent trace becomes unsuccessful by
// virtue of the failed child.
func (e *Executor) runInline(ctx context.Context, internalCache *tiered.Cache, internalChainCtx chain.Context, txCtx *trace.Context) error {
	internalCache.Update(txCtx.Trace.StateSet)

	for _, inlineTx := range txCtx.Trace.InlineTransactions {
		metrics.InlineDepth.Observe(float64(txCtx.CallDepth + 1))

		inlineTrace, err := e.Execute(ctx, Request{
			Depth:        txCtx.CallDepth + 1,
			ChainContext: internalChainCtx,
			Transaction:  inlineTx,
			BlockTime:    txCtx.BlockTime,
			Origin:       txCtx.Origin,
			Cancelable:   true,
		})
		if err != nil {
			return err
		}

		if inlineTrace == nil {
			break
		}

		txCtx.Trace.InlineTraces = append(txCtx.Trace.InlineTraces, inlineTrace)

		if !inlineTrace.IsSuccessful() {
			executor.Logger.Warn().
				Str("method", inlineTx.GetMethod()).
				Str("error", inlineTrace.Error).
				Msg("inline transaction failed, skipping remaining inline transactions")

			break
		}

		internalCache.Update(trace.Flatten(inlineTrace)...)
	}

	return nil
}
