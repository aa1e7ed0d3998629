package execution

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestErrExecutiveNotFound_Is(t *testing.T) {
	wrapped := xerrors.Errorf("lookup failed: %w", ErrExecutiveNotFound)
	require.True(t, xerrors.Is(wrapped, ErrExecutiveNotFound))
}
