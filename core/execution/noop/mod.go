// Package noop provides a minimal VM collaborator that applies every
// transaction as a trivial success, echoing its payload back as the return
// value. It exists so that cmd/batchrun, and anyone exercising the batch and
// single-transaction executors without a real smart-contract VM, has a
// concrete execution.Service to wire in; it performs no contract logic of
// its own.
package noop

import (
	"go.chainforge.dev/executor/core/chain"
	"go.chainforge.dev/executor/core/execution"
	"go.chainforge.dev/executor/core/trace"
	"go.chainforge.dev/executor/core/txn"
)

// Service is an execution.Service that resolves every address to the same
// no-op executive.
//
// - implements execution.Service
type Service struct {
	executive executive
}

// New creates a no-op VM service.
func New() *Service {
	return &Service{}
}

// GetExecutive implements execution.Service. It never fails: every address
// resolves to the same stateless executive.
func (s *Service) GetExecutive(cc chain.Context, contractAddress txn.Address) (execution.Executive, error) {
	return s.executive, nil
}

// PutExecutive implements execution.Service. There is no pool to return
// anything to.
func (s *Service) PutExecutive(contractAddress txn.Address, e execution.Executive) {}

type executive struct{}

// Apply implements execution.Executive. It writes nothing, emits no inline
// transactions, and echoes the transaction's payload as the return value.
func (executive) Apply(txCtx *trace.Context) error {
	txCtx.Trace.ReturnValue = txCtx.Transaction.GetPayload()
	txCtx.Trace.ExecutionStatus = trace.Executed

	return nil
}

// Descriptors implements execution.Executive. The no-op executive has no
// ABI to describe.
func (executive) Descriptors() execution.Descriptors {
	return nil
}
