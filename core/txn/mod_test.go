package txn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddress_IsZero(t *testing.T) {
	var a Address
	require.True(t, a.IsZero())

	a = Address([]byte("x"))
	require.False(t, a.IsZero())
}

func TestNew_ComputesStableID(t *testing.T) {
	tx1 := New(Address([]byte("a")), Address([]byte("b")), "M", []byte("payload"))
	tx2 := New(Address([]byte("a")), Address([]byte("b")), "M", []byte("payload"))

	require.NotEmpty(t, tx1.GetID())
	require.Equal(t, tx1.GetID(), tx2.GetID())
}

func TestNew_DifferentPayloadsDifferentID(t *testing.T) {
	tx1 := New(Address([]byte("a")), Address([]byte("b")), "M", []byte("p1"))
	tx2 := New(Address([]byte("a")), Address([]byte("b")), "M", []byte("p2"))

	require.NotEqual(t, tx1.GetID(), tx2.GetID())
}

func TestValidate_MissingFrom(t *testing.T) {
	tx := New(nil, Address([]byte("b")), "M", nil)
	require.ErrorIs(t, Validate(tx), ErrMalformedTransaction)
}

func TestValidate_MissingTo(t *testing.T) {
	tx := New(Address([]byte("a")), nil, "M", nil)
	require.ErrorIs(t, Validate(tx), ErrMalformedTransaction)
}

func TestValidate_OK(t *testing.T) {
	tx := New(Address([]byte("a")), Address([]byte("b")), "M", nil)
	require.NoError(t, Validate(tx))
}
