package trace

import "go.chainforge.dev/executor/core/store/tiered"

// Flatten walks the trace tree in execution order — pre-traces, the trace's
// own state set, inline traces, post-traces — and returns the ordered
// sequence of state sets. It is used both to replay a fully successful
// transaction into the group cache and, node by node, to replay an
// individually successful sub-trace.
func Flatten(t *Trace) []tiered.StateSet {
	if t == nil {
		return nil
	}

	var out []tiered.StateSet

	for _, pre := range t.PreTraces {
		out = append(out, Flatten(pre)...)
	}

	out = append(out, t.StateSet)

	for _, inline := range t.InlineTraces {
		out = append(out, Flatten(inline)...)
	}

	for _, post := range t.PostTraces {
		out = append(out, Flatten(post)...)
	}

	return out
}

// FlattenPromotable returns only the state sets of the pre-traces and
// post-traces that are individually successful, discarding the trace's own
// body and its inline sub-tree entirely. It is used when a transaction as a
// whole failed but partial pre/post effects (e.g. an already-charged fee)
// must still be promoted.
func FlattenPromotable(t *Trace) []tiered.StateSet {
	if t == nil {
		return nil
	}

	var out []tiered.StateSet

	for _, pre := range t.PreTraces {
		if pre.IsSuccessful() {
			out = append(out, Flatten(pre)...)
		}
	}

	for _, post := range t.PostTraces {
		if post.IsSuccessful() {
			out = append(out, Flatten(post)...)
		}
	}

	return out
}
