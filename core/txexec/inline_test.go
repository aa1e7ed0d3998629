package txexec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.chainforge.dev/executor/core/txn"
)

func TestExecute_InlineInheritsRootOrigin(t *testing.T) {
	to := txn.Address([]byte("contract"))
	inlineAddr := txn.Address([]byte("inline-target"))
	grandchildAddr := txn.Address([]byte("grandchild-target"))

	inlineTx := txn.New(to, inlineAddr, "I1", nil)
	grandchildTx := txn.New(inlineAddr, grandchildAddr, "I2", nil)

	var grandchildOrigin txn.Address

	vm := &fakeVM{executives: map[string]*fakeExecutive{
		to.String():             {inline: []txn.Transaction{inlineTx}},
		inlineAddr.String():     {inline: []txn.Transaction{grandchildTx}},
		grandchildAddr.String(): {writes: map[string][]byte{"k": []byte("v")}, observedOrigin: &grandchildOrigin},
	}}

	e := New(vm, nil, nil, nil, false)
	from := txn.Address([]byte("alice"))
	tx := txn.New(from, to, "M", nil)

	tr, err := e.Execute(context.Background(), Request{
		ChainContext: newChainCtx(),
		Transaction:  tx,
		BlockTime:    time.Now(),
	})

	require.NoError(t, err)
	require.True(t, tr.IsSuccessful())

	require.Len(t, tr.InlineTraces, 1)
	grandchildTrace := tr.InlineTraces[0].InlineTraces[0]
	require.True(t, grandchildTrace.IsSuccessful())

	// The grandchild inline call must see the root transaction's sender as
	// its origin, not its immediate parent's address.
	require.Equal(t, from, grandchildOrigin)
}
