// Package plugin defines the pre/post plugin collaborator contract: a
// component that, given a contract's descriptors and the current transaction
// context, produces synthetic transactions to run immediately before or
// after the main transaction (fee charging, resource-token accounting).
package plugin

import (
	"reflect"

	"go.chainforge.dev/executor/core/execution"
	"go.chainforge.dev/executor/core/trace"
	"go.chainforge.dev/executor/core/txn"
)

const (
	// ChargeTransactionFeesMethod is the synthetic pre-transaction method
	// name that the executor specially recognizes to decode a TransactionFee
	// out of its return value.
	ChargeTransactionFeesMethod = "ChargeTransactionFees"

	// ChargeResourceTokenMethod is the synthetic post-transaction method name
	// that the executor specially recognizes to decode a
	// ConsumedResourceTokens out of its return value.
	ChargeResourceTokenMethod = "ChargeResourceToken"
)

// PrePlugin produces the synthetic transactions that must run before the VM
// body, e.g. fee charging.
type PrePlugin interface {
	GetPreTransactions(descriptors execution.Descriptors, txCtx *trace.Context) ([]txn.Transaction, error)
}

// PostPlugin produces the synthetic transactions that must run after the VM
// body, e.g. resource-token accounting.
type PostPlugin interface {
	GetPostTransactions(descriptors execution.Descriptors, txCtx *trace.Context) ([]txn.Transaction, error)
}

// DedupPre keeps the first-seen instance of each distinct PrePlugin type, in
// input order, as required by the plugin-uniqueness invariant.
func DedupPre(plugins []PrePlugin) []PrePlugin {
	seen := make(map[reflect.Type]struct{})
	out := make([]PrePlugin, 0, len(plugins))

	for _, p := range plugins {
		t := reflect.TypeOf(p)
		if _, ok := seen[t]; ok {
			continue
		}

		seen[t] = struct{}{}
		out = append(out, p)
	}

	return out
}

// DedupPost keeps the first-seen instance of each distinct PostPlugin type,
// in input order.
func DedupPost(plugins []PostPlugin) []PostPlugin {
	seen := make(map[reflect.Type]struct{})
	out := make([]PostPlugin, 0, len(plugins))

	for _, p := range plugins {
		t := reflect.TypeOf(p)
		if _, ok := seen[t]; ok {
			continue
		}

		seen[t] = struct{}{}
		out = append(out, p)
	}

	return out
}
