// Package execution defines the VM collaborator contract: the primitives the
// single-transaction executor uses to look up, run and return a smart
// contract executive. The VM itself — the thing that actually runs contract
// code — is out of scope for this module; only the contract it must satisfy
// is defined here.
package execution

import (
	"go.chainforge.dev/executor/core/chain"
	"go.chainforge.dev/executor/core/trace"
	"go.chainforge.dev/executor/core/txn"
	"golang.org/x/xerrors"
)

// ErrExecutiveNotFound is returned by Service.GetExecutive when the
// transaction's recipient does not resolve to a registered contract. The
// single-transaction executor does not treat this as a fatal error: it
// records a ContractError trace instead of raising.
var ErrExecutiveNotFound = xerrors.New("registration not found: no executive for this contract address")

// Descriptors describes a contract's ABI. It is opaque to the executor and is
// only ever forwarded to the pre/post plugins.
type Descriptors interface{}

// Executive is a VM instance bound to a specific contract address, borrowed
// from the VM's pool for the duration of one transaction (or sub-call).
type Executive interface {
	// Apply runs the transaction carried by txCtx.Transaction against
	// txCtx.StateCache, populating txCtx.Trace with the resulting state set,
	// return value, inline transactions and a terminal status.
	Apply(txCtx *trace.Context) error

	// Descriptors returns the ABI description of the bound contract, passed
	// through to pre/post plugins unchanged.
	Descriptors() Descriptors
}

// Service is the VM collaborator: it resolves a contract address to a
// borrowed Executive and reclaims it once the executor is done.
type Service interface {
	// GetExecutive resolves the contract bound to the given address. It
	// returns ErrExecutiveNotFound if no contract is registered there.
	GetExecutive(cc chain.Context, contractAddress txn.Address) (Executive, error)

	// PutExecutive returns a borrowed executive to the pool. It must be
	// called exactly once per successful GetExecutive, on every exit path
	// including exceptions.
	PutExecutive(contractAddress txn.Address, executive Executive)
}
