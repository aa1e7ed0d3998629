package plugin

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.chainforge.dev/executor/core/execution"
	"go.chainforge.dev/executor/core/trace"
	"go.chainforge.dev/executor/core/txn"
)

type pluginA struct{ tag string }

func (p pluginA) GetPreTransactions(d execution.Descriptors, txCtx *trace.Context) ([]txn.Transaction, error) {
	return nil, nil
}

type pluginB struct{}

func (p pluginB) GetPreTransactions(d execution.Descriptors, txCtx *trace.Context) ([]txn.Transaction, error) {
	return nil, nil
}

func TestDedupPre_KeepsFirstSeenPerType(t *testing.T) {
	in := []PrePlugin{pluginA{tag: "first"}, pluginB{}, pluginA{tag: "second"}}

	out := DedupPre(in)

	require.Len(t, out, 2)
	require.Equal(t, "first", out[0].(pluginA).tag)
}

type postPluginA struct{}

func (p postPluginA) GetPostTransactions(d execution.Descriptors, txCtx *trace.Context) ([]txn.Transaction, error) {
	return nil, nil
}

func TestDedupPost_KeepsFirstSeenPerType(t *testing.T) {
	in := []PostPlugin{postPluginA{}, postPluginA{}}

	out := DedupPost(in)

	require.Len(t, out, 1)
}
