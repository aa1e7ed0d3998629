// Package trace defines the per-transaction context and trace that the
// single-transaction executor builds and mutates while running a
// transaction, possibly recursively.
package trace

import (
	"time"

	"go.chainforge.dev/executor/core/chain"
	"go.chainforge.dev/executor/core/store/tiered"
	"go.chainforge.dev/executor/core/txn"
)

// ExecutionStatus classifies the terminal state of one node of a trace tree.
type ExecutionStatus int

const (
	// Undefined is the zero value: the transaction was never run.
	Undefined ExecutionStatus = iota
	// Prefailed means a pre-plugin transaction failed before the VM body ran.
	Prefailed
	// Executed means the VM body ran and completed without error. Combined
	// with all-successful inline traces, this is the success state
	// recognized by Trace.IsSuccessful.
	Executed
	// Postfailed means a post-plugin transaction failed after the VM body.
	Postfailed
	// Canceled means cooperative cancellation was observed at entry to this
	// node, so it never ran. A parent of a canceled node keeps its own
	// status; IsCanceled reports cancellation anywhere in the subtree.
	Canceled
	// ContractError means the VM raised an unexpected error, or the
	// recipient could not be resolved to a registered contract.
	ContractError
	// SystemError means an unexpected internal failure occurred outside the
	// VM's control.
	SystemError
)

// String implements fmt.Stringer.
func (s ExecutionStatus) String() string {
	switch s {
	case Undefined:
		return "undefined"
	case Prefailed:
		return "prefailed"
	case Executed:
		return "executed"
	case Postfailed:
		return "postfailed"
	case Canceled:
		return "canceled"
	case ContractError:
		return "contract-error"
	case SystemError:
		return "system-error"
	default:
		return "unknown"
	}
}

// Trace is the complete record of what happened when one transaction
// executed, including pre/inline/post sub-activity. It is constructed at the
// start of single-transaction execution and mutated only by the executor that
// owns it; it is frozen once returned to the batch layer.
type Trace struct {
	TransactionID   []byte
	ExecutionStatus ExecutionStatus
	ReturnValue     []byte
	// Bloom and Logs are populated by the VM during Apply, alongside
	// ReturnValue, and are only meaningful once the trace is successful.
	Bloom    []byte
	Logs     [][]byte
	Error    string
	StateSet tiered.StateSet

	PreTraces    []*Trace
	InlineTraces []*Trace
	PostTraces   []*Trace

	PreTransactions    []txn.Transaction
	InlineTransactions []txn.Transaction
	PostTransactions   []txn.Transaction

	TransactionFee         []byte
	ConsumedResourceTokens []byte
}

// New creates an empty trace for the given transaction identifier.
func New(transactionID []byte) *Trace {
	return &Trace{
		TransactionID: transactionID,
		StateSet:      tiered.NewStateSet(),
	}
}

// AppendError accumulates an error message onto the trace, matching the
// source's habit of concatenating rather than replacing.
func (t *Trace) AppendError(msg string) {
	t.Error += msg
}

// IsSuccessful reports whether this trace, and every inline trace it spawned,
// completed in the Executed state. A failed inline transaction makes its
// parent unsuccessful even though the parent's own status stays Executed.
func (t *Trace) IsSuccessful() bool {
	if t.ExecutionStatus != Executed {
		return false
	}

	for _, inline := range t.InlineTraces {
		if !inline.IsSuccessful() {
			return false
		}
	}

	return true
}

// IsCanceled reports whether this trace, or any node in its pre/inline/post
// subtree, carries the Canceled status.
func IsCanceled(t *Trace) bool {
	if t == nil {
		return false
	}

	if t.ExecutionStatus == Canceled {
		return true
	}

	for _, children := range [][]*Trace{t.PreTraces, t.InlineTraces, t.PostTraces} {
		for _, child := range children {
			if IsCanceled(child) {
				return true
			}
		}
	}

	return false
}

// SurfaceUpError lifts the deepest non-empty error message found in the trace
// tree onto the top-level trace's Error field, if the top-level trace does not
// already carry one. Pre-traces are visited before inline traces, which are
// visited before post-traces, matching execution order.
func SurfaceUpError(t *Trace) {
	if t == nil || t.Error != "" {
		return
	}

	if msg, ok := deepestError(t); ok {
		t.Error = msg
	}
}

func deepestError(t *Trace) (string, bool) {
	for _, children := range [][]*Trace{t.PreTraces, t.InlineTraces, t.PostTraces} {
		for _, child := range children {
			if msg, ok := deepestError(child); ok {
				return msg, true
			}
		}
	}

	if t.Error != "" {
		return t.Error, true
	}

	return "", false
}

// Context is the per-transaction mutable working context built by the
// single-transaction executor: it carries the chain position, the caller's
// origin identity and the tiered cache the current execution (and its
// plugins, and its inline calls) read and write through.
type Context struct {
	PreviousBlockHash []byte
	BlockHeight       int64
	BlockTime         time.Time
	CallDepth         int
	StateCache        *tiered.Cache
	Origin            txn.Address
	Transaction       txn.Transaction
	Trace             *Trace
}

// NewContext builds a transaction context per the single-transaction executor
// preamble: the block height is one past the chain context's previous block,
// and the origin is inheritedOrigin when it is non-empty, whatever the depth;
// otherwise it defaults to the transaction's own sender.
func NewContext(cc chain.Context, tx txn.Transaction, blockTime time.Time, depth int, inheritedOrigin txn.Address) *Context {
	origin := inheritedOrigin
	if origin.IsZero() {
		origin = tx.GetFrom()
	}

	return &Context{
		PreviousBlockHash: cc.PreviousBlockHash,
		BlockHeight:       cc.PreviousBlockHeight + 1,
		BlockTime:         blockTime,
		CallDepth:         depth,
		StateCache:        cc.Cache,
		Origin:            origin,
		Transaction:       tx,
		Trace:             New(tx.GetID()),
	}
}
