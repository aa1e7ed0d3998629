package txexec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"go.chainforge.dev/executor/core/chain"
	"go.chainforge.dev/executor/core/execution"
	"go.chainforge.dev/executor/core/plugin"
	"go.chainforge.dev/executor/core/store/tiered"
	"go.chainforge.dev/executor/core/trace"
	"go.chainforge.dev/executor/core/txn"
)

type fakeExecutive struct {
	writes         map[string][]byte
	returnValue    []byte
	fail           bool
	inline         []txn.Transaction
	observedOrigin *txn.Address
}

func (e *fakeExecutive) Apply(txCtx *trace.Context) error {
	if e.observedOrigin != nil {
		*e.observedOrigin = txCtx.Origin
	}

	if e.fail {
		return xerrors.New("boom")
	}

	for k, v := range e.writes {
		txCtx.Trace.StateSet.SetWrite([]byte(k), v)
	}

	txCtx.Trace.ReturnValue = e.returnValue
	txCtx.Trace.ExecutionStatus = trace.Executed
	txCtx.Trace.InlineTransactions = e.inline

	return nil
}

func (e *fakeExecutive) Descriptors() execution.Descriptors { return nil }

type fakeVM struct {
	executives map[string]*fakeExecutive
	returned   []txn.Address
}

func (vm *fakeVM) GetExecutive(cc chain.Context, addr txn.Address) (execution.Executive, error) {
	ex, ok := vm.executives[addr.String()]
	if !ok {
		return nil, execution.ErrExecutiveNotFound
	}

	return ex, nil
}

func (vm *fakeVM) PutExecutive(addr txn.Address, ex execution.Executive) {
	vm.returned = append(vm.returned, addr)
}

func newChainCtx() chain.Context {
	return chain.New([]byte("prev"), 10, tiered.New(nil))
}

func TestExecute_HappyPath(t *testing.T) {
	to := txn.Address([]byte("contract"))
	from := txn.Address([]byte("alice"))

	vm := &fakeVM{executives: map[string]*fakeExecutive{
		to.String(): {writes: map[string][]byte{"k": []byte("v")}, returnValue: []byte("ret")},
	}}

	e := New(vm, nil, nil, nil, false)
	tx := txn.New(from, to, "M", nil)

	tr, err := e.Execute(context.Background(), Request{
		ChainContext: newChainCtx(),
		Transaction:  tx,
		BlockTime:    time.Now(),
		Cancelable:   true,
	})

	require.NoError(t, err)
	require.True(t, tr.IsSuccessful())
	require.Equal(t, []byte("ret"), tr.ReturnValue)
	require.Len(t, vm.returned, 1)
}

func TestExecute_ContractNotFound(t *testing.T) {
	vm := &fakeVM{executives: map[string]*fakeExecutive{}}
	e := New(vm, nil, nil, nil, false)

	tx := txn.New(txn.Address([]byte("alice")), txn.Address([]byte("nowhere")), "M", nil)

	tr, err := e.Execute(context.Background(), Request{
		ChainContext: newChainCtx(),
		Transaction:  tx,
		BlockTime:    time.Now(),
	})

	require.NoError(t, err)
	require.Equal(t, trace.ContractError, tr.ExecutionStatus)
}

func TestExecute_VMApplyErrorReturnsErrorAndContractError(t *testing.T) {
	to := txn.Address([]byte("contract"))
	vm := &fakeVM{executives: map[string]*fakeExecutive{
		to.String(): {fail: true},
	}}
	e := New(vm, nil, nil, nil, false)

	tx := txn.New(txn.Address([]byte("alice")), to, "M", nil)

	tr, err := e.Execute(context.Background(), Request{
		ChainContext: newChainCtx(),
		Transaction:  tx,
		BlockTime:    time.Now(),
	})

	require.Error(t, err)
	require.Equal(t, trace.ContractError, tr.ExecutionStatus)
}

func TestExecute_CanceledAtEntry(t *testing.T) {
	vm := &fakeVM{executives: map[string]*fakeExecutive{}}
	e := New(vm, nil, nil, nil, false)

	tx := txn.New(txn.Address([]byte("alice")), txn.Address([]byte("bob")), "M", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr, err := e.Execute(ctx, Request{
		ChainContext: newChainCtx(),
		Transaction:  tx,
		BlockTime:    time.Now(),
		Cancelable:   true,
	})

	require.NoError(t, err)
	require.Equal(t, trace.Canceled, tr.ExecutionStatus)
}

func TestExecute_InlineFailureStopsRemaining(t *testing.T) {
	to := txn.Address([]byte("contract"))
	inlineOK := txn.Address([]byte("inline-ok"))
	inlineFail := txn.Address([]byte("inline-fail"))
	inlineNever := txn.Address([]byte("inline-never"))

	i1 := txn.New(to, inlineOK, "I1", nil)
	_ = i1
	i2 := txn.New(to, inlineFail, "I2", nil)
	i3 := txn.New(to, inlineNever, "I3", nil)

	vm := &fakeVM{executives: map[string]*fakeExecutive{
		to.String():         {writes: map[string][]byte{"root": []byte("v")}, inline: []txn.Transaction{i2, i3}},
		inlineOK.String():   {writes: map[string][]byte{"ok": []byte("v")}},
		inlineFail.String(): {fail: true},
		inlineNever.String(): {writes: map[string][]byte{"never": []byte("v")}},
	}}

	e := New(vm, nil, nil, nil, false)
	tx := txn.New(txn.Address([]byte("alice")), to, "M", nil)

	tr, err := e.Execute(context.Background(), Request{
		ChainContext: newChainCtx(),
		Transaction:  tx,
		BlockTime:    time.Now(),
	})

	require.NoError(t, err)
	require.False(t, tr.IsSuccessful())
	require.Len(t, tr.InlineTraces, 1)
	require.Equal(t, i2.GetID(), tr.InlineTraces[0].TransactionID)
}

type feeFailPlugin struct{ to txn.Address }

func (p feeFailPlugin) GetPreTransactions(d execution.Descriptors, txCtx *trace.Context) ([]txn.Transaction, error) {
	return []txn.Transaction{txn.New(txCtx.Transaction.GetFrom(), p.to, plugin.ChargeTransactionFeesMethod, nil)}, nil
}

func TestExecute_PreStageFeeChargeFailurePrefails(t *testing.T) {
	to := txn.Address([]byte("contract"))
	feeAddr := txn.Address([]byte("fee-charger"))

	failedFee := plugin.EncodeTransactionFee(plugin.TransactionFee{IsFailedToCharge: true})

	vm := &fakeVM{executives: map[string]*fakeExecutive{
		to.String():      {writes: map[string][]byte{"body": []byte("v")}},
		feeAddr.String(): {returnValue: failedFee},
	}}

	e := New(vm, []plugin.PrePlugin{feeFailPlugin{to: feeAddr}}, nil, nil, false)
	tx := txn.New(txn.Address([]byte("alice")), to, "M", nil)

	tr, err := e.Execute(context.Background(), Request{
		ChainContext: newChainCtx(),
		Transaction:  tx,
		BlockTime:    time.Now(),
	})

	require.NoError(t, err)
	require.Equal(t, trace.Prefailed, tr.ExecutionStatus)
	require.Len(t, tr.PreTraces, 1)
	require.Equal(t, trace.Executed, tr.PreTraces[0].ExecutionStatus)
}

func TestExecute_TwoLevelCachePropagation(t *testing.T) {
	to := txn.Address([]byte("contract"))
	feeAddr := txn.Address([]byte("fee-charger"))

	okFee := plugin.EncodeTransactionFee(plugin.TransactionFee{Amount: 10, IsFailedToCharge: false})

	vm := &fakeVM{executives: map[string]*fakeExecutive{
		to.String():      {fail: true},
		feeAddr.String(): {writes: map[string][]byte{"fee": []byte("10")}, returnValue: okFee},
	}}

	e := New(vm, []plugin.PrePlugin{feeFailPlugin{to: feeAddr}}, nil, nil, false)
	tx := txn.New(txn.Address([]byte("alice")), to, "M", nil)

	root := tiered.New(nil)
	grandparent := root.Child()

	_, err := e.Execute(context.Background(), Request{
		ChainContext: chain.New([]byte("prev"), 10, grandparent),
		Transaction:  tx,
		BlockTime:    time.Now(),
	})

	require.Error(t, err)

	v, status := grandparent.Get([]byte("fee"))
	require.Equal(t, tiered.Present, status)
	require.Equal(t, []byte("10"), v)
}

func TestNew_DedupsPlugins(t *testing.T) {
	vm := &fakeVM{executives: map[string]*fakeExecutive{}}
	feeAddr := txn.Address([]byte("fee"))

	e := New(vm, []plugin.PrePlugin{feeFailPlugin{to: feeAddr}, feeFailPlugin{to: feeAddr}}, nil, nil, false)

	require.Len(t, e.prePlugins, 1)
}
