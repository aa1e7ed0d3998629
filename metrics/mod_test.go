package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.chainforge.dev/executor"
)

func TestObserve_Mined(t *testing.T) {
	before := testutil.ToFloat64(MinedTransactions)

	Observe("mined")

	require.Equal(t, before+1, testutil.ToFloat64(MinedTransactions))
}

func TestObserve_Failed(t *testing.T) {
	before := testutil.ToFloat64(FailedTransactions)

	Observe("failed")
	Observe("prefailed")

	require.Equal(t, before+2, testutil.ToFloat64(FailedTransactions))
}

func TestPromCollectors_Registered(t *testing.T) {
	require.NotEmpty(t, executor.PromCollectors)
}
