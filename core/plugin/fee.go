package plugin

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// TransactionFee is the decoded return value of a ChargeTransactionFees
// pre-transaction. The executor attaches it to the parent trace and, if
// IsFailedToCharge is set, treats the pre-stage as having failed even though
// the charge transaction itself ran (see core/txexec).
type TransactionFee struct {
	Amount           uint64
	IsFailedToCharge bool
}

// EncodeTransactionFee serializes a TransactionFee as a 9-byte message:
// a uint64 amount followed by a one-byte failure flag. The wire format is a
// private detail between the fee plugin and the executor; no external
// collaborator needs to parse it, so there is no case for a general-purpose
// codec here.
func EncodeTransactionFee(fee TransactionFee) []byte {
	buf := make([]byte, 9)
	binary.BigEndian.PutUint64(buf[:8], fee.Amount)

	if fee.IsFailedToCharge {
		buf[8] = 1
	}

	return buf
}

// DecodeTransactionFee parses the return value of a ChargeTransactionFees
// pre-transaction.
func DecodeTransactionFee(raw []byte) (TransactionFee, error) {
	if len(raw) != 9 {
		return TransactionFee{}, xerrors.Errorf("invalid transaction fee message: expected 9 bytes, got %d", len(raw))
	}

	return TransactionFee{
		Amount:           binary.BigEndian.Uint64(raw[:8]),
		IsFailedToCharge: raw[8] == 1,
	}, nil
}

// ConsumedResourceTokens is the decoded return value of a
// ChargeResourceToken post-transaction.
type ConsumedResourceTokens struct {
	CPU     uint64
	Storage uint64
	Network uint64
}

// EncodeConsumedResourceTokens serializes a ConsumedResourceTokens as three
// consecutive big-endian uint64 values.
func EncodeConsumedResourceTokens(tokens ConsumedResourceTokens) []byte {
	buf := make([]byte, 24)
	binary.BigEndian.PutUint64(buf[0:8], tokens.CPU)
	binary.BigEndian.PutUint64(buf[8:16], tokens.Storage)
	binary.BigEndian.PutUint64(buf[16:24], tokens.Network)

	return buf
}

// DecodeConsumedResourceTokens parses the return value of a
// ChargeResourceToken post-transaction.
func DecodeConsumedResourceTokens(raw []byte) (ConsumedResourceTokens, error) {
	if len(raw) != 24 {
		return ConsumedResourceTokens{}, xerrors.Errorf("invalid resource token message: expected 24 bytes, got %d", len(raw))
	}

	return ConsumedResourceTokens{
		CPU:     binary.BigEndian.Uint64(raw[0:8]),
		Storage: binary.BigEndian.Uint64(raw[8:16]),
		Network: binary.BigEndian.Uint64(raw[16:24]),
	}, nil
}
