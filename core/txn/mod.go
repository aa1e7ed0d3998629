// Package txn defines the transaction abstraction consumed by the executor.
//
// A transaction is opaque to the executor except for its sender, recipient,
// method name, payload and content-addressed identifier. Both the sender and
// the recipient must be present; a transaction missing either is malformed.
//
// Documentation Last Review: 08.10.2020
//
package txn

import (
	"encoding/hex"

	"go.chainforge.dev/executor/crypto"
	"golang.org/x/xerrors"
)

// ErrMalformedTransaction is returned when a transaction is missing its
// sender or its recipient.
var ErrMalformedTransaction = xerrors.New("malformed transaction: missing from or to")

var hashFactory = crypto.NewHashFactory(crypto.Sha256)

// Address identifies a sender or a recipient. It is treated as an opaque byte
// string by the executor.
type Address []byte

// String implements fmt.Stringer.
func (a Address) String() string {
	return hex.EncodeToString(a)
}

// IsZero reports whether the address carries no bytes.
func (a Address) IsZero() bool {
	return len(a) == 0
}

// Transaction is what triggers a smart contract execution. The executor never
// interprets From, To, Method or Payload beyond what is documented here; it
// only forwards them to the VM and the plugins.
type Transaction interface {
	// GetID returns the content-addressed identifier of the transaction.
	GetID() []byte

	// GetFrom returns the sender of the transaction.
	GetFrom() Address

	// GetTo returns the recipient of the transaction, i.e. the contract
	// address that the VM will look up an executive for.
	GetTo() Address

	// GetMethod returns the method name the recipient should run.
	GetMethod() string

	// GetPayload returns the raw argument bytes passed to the method.
	GetPayload() []byte
}

// transaction is the default, concrete implementation of Transaction.
//
// - implements txn.Transaction
type transaction struct {
	id      []byte
	from    Address
	to      Address
	method  string
	payload []byte
}

// New creates a transaction and computes its content-addressed identifier.
// It does not validate From/To presence; callers that need the malformed-input
// check should call Validate.
func New(from, to Address, method string, payload []byte) Transaction {
	tx := transaction{
		from:    from,
		to:      to,
		method:  method,
		payload: payload,
	}

	tx.id = hash(tx)

	return tx
}

func (t transaction) GetID() []byte {
	return t.id
}

func (t transaction) GetFrom() Address {
	return t.from
}

func (t transaction) GetTo() Address {
	return t.to
}

func (t transaction) GetMethod() string {
	return t.method
}

func (t transaction) GetPayload() []byte {
	return t.payload
}

// Validate returns ErrMalformedTransaction if the sender or the recipient is
// missing, as required by the data model: "both From and To must be present;
// otherwise the executor rejects the transaction".
func Validate(tx Transaction) error {
	if tx.GetFrom().IsZero() || tx.GetTo().IsZero() {
		return ErrMalformedTransaction
	}

	return nil
}

func hash(tx transaction) []byte {
	h := hashFactory.New()

	h.Write(tx.from)
	h.Write(tx.to)
	h.Write([]byte(tx.method))
	h.Write(tx.payload)

	return h.Sum(nil)
}
