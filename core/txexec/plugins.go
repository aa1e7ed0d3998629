package txexec

import (
	"context"

	"go.chainforge.dev/executor/core/chain"
	"go.chainforge.dev/executor/core/execution"
	"go.chainforge.dev/executor/core/plugin"
	"go.chainforge.dev/executor/core/store/tiered"
	"go.chainforge.dev/executor/core/trace"
	"golang.org/x/xerrors"
)

// runPrePlugins executes the pre-transactions of every registered pre-plugin
// against the current internal chain context, in order. It returns false as
// soon as one pre-transaction is unsuccessful, or if the decoded transaction
// fee reports a failed charge.
func (e *Executor) runPrePlugins(
	ctx context.Context,
	executive execution.Executive,
	callerChainCtx chain.Context,
	internalChainCtx chain.Context,
	txCtx *trace.Context,
	internalCache *tiered.Cache,
) (bool, error) {
	descriptors := executive.Descriptors()

	for _, p := range e.prePlugins {
		preTxs, err := p.GetPreTransactions(descriptors, txCtx)
		if err != nil {
			return false, xerrors.Errorf("failed to get pre-transactions: %v", err)
		}

		for _, preTx := range preTxs {
			preTrace, err := e.Execute(ctx, Request{
				Depth:        0,
				ChainContext: internalChainCtx,
				Transaction:  preTx,
				BlockTime:    txCtx.BlockTime,
				Origin:       txCtx.Origin,
				Cancelable:   true,
			})
			if err != nil {
				return false, xerrors.Errorf("failed to execute pre-transaction: %v", err)
			}

			txCtx.Trace.PreTransactions = append(txCtx.Trace.PreTransactions, preTx)
			txCtx.Trace.PreTraces = append(txCtx.Trace.PreTraces, preTrace)

			var (
				fee      plugin.TransactionFee
				feeKnown bool
			)

			if preTx.GetMethod() == plugin.ChargeTransactionFeesMethod {
				if decoded, decErr := plugin.DecodeTransactionFee(preTrace.ReturnValue); decErr == nil {
					txCtx.Trace.TransactionFee = preTrace.ReturnValue
					fee, feeKnown = decoded, true
				}
			}

			if !preTrace.IsSuccessful() {
				return false, nil
			}

			sets := trace.Flatten(preTrace)
			internalCache.Update(sets...)

			// Two-level propagation: if the caller's own cache is itself an
			// overlay (not the group root), the fee-charge effect must also
			// be visible to it, so that it survives even if this
			// transaction's VM body later fails.
			if callerChainCtx.Cache.HasParent() {
				callerChainCtx.Cache.Update(sets...)
			}

			if feeKnown && fee.IsFailedToCharge {
				preTrace.ExecutionStatus = trace.Executed

				return false, nil
			}
		}
	}

	return true, nil
}

// runPostPlugins executes the post-transactions of every registered
// post-plugin. If the top-level trace is not successful at this point, the
// internal cache is rebuilt fresh from the caller's cache and re-layered with
// only the successful pre-trace effects, so that post-plugins never see the
// failed VM body's writes.
func (e *Executor) runPostPlugins(
	ctx context.Context,
	executive execution.Executive,
	callerChainCtx chain.Context,
	internalChainCtx *chain.Context,
	internalCache **tiered.Cache,
	txCtx *trace.Context,
) (bool, error) {
	if !txCtx.Trace.IsSuccessful() {
		fresh := callerChainCtx.Cache.Child()

		for _, pre := range txCtx.Trace.PreTraces {
			if pre.IsSuccessful() {
				fresh.Update(trace.Flatten(pre)...)
			}
		}

		*internalCache = fresh
		*internalChainCtx = callerChainCtx.WithStateCache(fresh)
		txCtx.StateCache = fresh
	}

	descriptors := executive.Descriptors()

	for _, p := range e.postPlugins {
		postTxs, err := p.GetPostTransactions(descriptors, txCtx)
		if err != nil {
			return false, xerrors.Errorf("failed to get post-transactions: %v", err)
		}

		for _, postTx := range postTxs {
			postTrace, err := e.Execute(ctx, Request{
				Depth:        0,
				ChainContext: *internalChainCtx,
				Transaction:  postTx,
				BlockTime:    txCtx.BlockTime,
				Origin:       txCtx.Origin,
				Cancelable:   true,
			})
			if err != nil {
				return false, xerrors.Errorf("failed to execute post-transaction: %v", err)
			}

			txCtx.Trace.PostTransactions = append(txCtx.Trace.PostTransactions, postTx)
			txCtx.Trace.PostTraces = append(txCtx.Trace.PostTraces, postTrace)

			if postTx.GetMethod() == plugin.ChargeResourceTokenMethod {
				if decoded, decErr := plugin.DecodeConsumedResourceTokens(postTrace.ReturnValue); decErr == nil {
					txCtx.Trace.ConsumedResourceTokens = plugin.EncodeConsumedResourceTokens(decoded)
				}
			}

			if !postTrace.IsSuccessful() {
				return false, nil
			}

			(*internalCache).Update(trace.Flatten(postTrace)...)
		}
	}

	return true, nil
}
