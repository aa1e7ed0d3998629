// Package result classifies a completed transaction trace and synthesizes the
// return set that the batch executor persists and hands back to callers.
package result

import (
	"go.chainforge.dev/executor/core/trace"
)

// Status is the final, externally visible classification of a transaction,
// derived from its trace's execution status and success.
type Status int

const (
	// Unexecutable means the trace's ExecutionStatus stayed Undefined, e.g.
	// the VM returned from Apply without setting a status.
	Unexecutable Status = iota
	// PreFailed means a pre-plugin transaction (commonly fee charging) failed
	// before the transaction's own VM body ran.
	PreFailed
	// Mined means the transaction, and everything it called inline, executed
	// successfully.
	Mined
	// Failed covers every other terminal state: a contract error, a failed
	// inline call, a post-plugin failure, a system error, or cancellation.
	Failed
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Unexecutable:
		return "unexecutable"
	case PreFailed:
		return "prefailed"
	case Mined:
		return "mined"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Classify derives the Status of a completed trace.
func Classify(t *trace.Trace) Status {
	switch t.ExecutionStatus {
	case trace.Undefined:
		return Unexecutable
	case trace.Prefailed:
		return PreFailed
	}

	if t.IsSuccessful() {
		return Mined
	}

	return Failed
}

// ReturnSet is the synthesized, promotable outcome of one transaction: the
// classified status plus the state changes, deletes and accesses folded from
// its trace tree. StateChanges and StateDeletes are mutually exclusive by
// key, matching the invariant the underlying state sets already carry.
type ReturnSet struct {
	TransactionID []byte
	Status        Status

	Bloom       []byte
	ReturnValue []byte
	Logs        [][]byte

	StateChanges  map[string][]byte
	StateDeletes  map[string]struct{}
	StateAccesses map[string][]byte

	TransactionFee         []byte
	ConsumedResourceTokens []byte
}

// Synthesize builds the ReturnSet for a completed trace. A Mined trace folds
// its entire tree (pre, own body, inline, post); every other status folds
// only the successful pre/post effects via trace.FlattenPromotable, since the
// transaction's own body and inline sub-tree must not be promoted. Reads are
// always recorded from the full tree: an observed read is informational
// regardless of whether the write it read alongside was ultimately promoted.
func Synthesize(t *trace.Trace) ReturnSet {
	status := Classify(t)

	rs := ReturnSet{
		TransactionID: t.TransactionID,
		Status:        status,
		StateChanges:  make(map[string][]byte),
		StateDeletes:  make(map[string]struct{}),
		StateAccesses: make(map[string][]byte),
	}

	sets := trace.FlattenPromotable(t)
	if status == Mined {
		sets = trace.Flatten(t)
		rs.Bloom = t.Bloom
		rs.ReturnValue = t.ReturnValue
		rs.Logs = t.Logs
		rs.TransactionFee = t.TransactionFee
		rs.ConsumedResourceTokens = t.ConsumedResourceTokens
	}

	for _, ss := range sets {
		for k, v := range ss.Writes {
			rs.StateChanges[k] = v
			delete(rs.StateDeletes, k)
		}

		for k := range ss.Deletes {
			rs.StateDeletes[k] = struct{}{}
			delete(rs.StateChanges, k)
		}
	}

	for _, ss := range trace.Flatten(t) {
		for k, v := range ss.Reads {
			rs.StateAccesses[k] = v
		}
	}

	return rs
}
