// Package resultstore provides a bbolt-backed implementation of the
// transaction result store collaborator that the batch executor persists its
// synthesized return-sets through.
//
// Documentation Last Review: 08.10.2020
//
package resultstore

import (
	"context"
	"encoding/binary"
	"encoding/json"

	"go.chainforge.dev/executor"
	"go.chainforge.dev/executor/core/batch"
	"go.chainforge.dev/executor/core/result"
	"go.chainforge.dev/executor/core/store/kv"
	"golang.org/x/xerrors"
)

var bucketName = []byte("transaction-results")

// record is the on-disk shape of one persisted return-set. There is no
// wire-format requirement on this collaborator, so the encoding is plain
// JSON.
type record struct {
	Height                 int64
	Status                 result.Status
	Bloom                  []byte
	ReturnValue            []byte
	Logs                   [][]byte
	StateChanges           map[string][]byte
	StateDeletes           []string
	StateAccesses          map[string][]byte
	TransactionFee         []byte
	ConsumedResourceTokens []byte
}

// Store persists batch.Executor results in a bbolt-backed key/value
// database, keyed by block height and transaction identifier.
//
// - implements batch.Store
type Store struct {
	db kv.DB
}

// NewStore wraps an already-opened kv.DB as a result store.
func NewStore(db kv.DB) *Store {
	return &Store{db: db}
}

// AddTransactionResults implements batch.Store. It stores one record per
// return-set, under a key combining the block height and the transaction
// identifier so that a later lookup can scan all results for a given block.
func (s *Store) AddTransactionResults(ctx context.Context, header batch.Header, returnSets []result.ReturnSet) error {
	return s.db.Update(bucketName, func(b kv.Bucket) error {
		for _, rs := range returnSets {
			rec := record{
				Height:                 header.Height,
				Status:                 rs.Status,
				Bloom:                  rs.Bloom,
				ReturnValue:            rs.ReturnValue,
				Logs:                   rs.Logs,
				StateChanges:           rs.StateChanges,
				StateAccesses:          rs.StateAccesses,
				TransactionFee:         rs.TransactionFee,
				ConsumedResourceTokens: rs.ConsumedResourceTokens,
			}

			for k := range rs.StateDeletes {
				rec.StateDeletes = append(rec.StateDeletes, k)
			}

			raw, err := json.Marshal(rec)
			if err != nil {
				return xerrors.Errorf("failed to marshal return set: %v", err)
			}

			if err := b.Set(resultKey(header.Height, rs.TransactionID), raw); err != nil {
				return xerrors.Errorf("failed to store return set: %v", err)
			}

			executor.Logger.Debug().
				Int64("height", header.Height).
				Str("status", rs.Status.String()).
				Msg("persisted transaction result")
		}

		return nil
	})
}

// GetResult looks up a single previously persisted return-set by block
// height and transaction identifier. It returns nil with no error if no such
// record exists.
func (s *Store) GetResult(height int64, transactionID []byte) (*result.ReturnSet, error) {
	var rec *record

	// A View transaction errors if the bucket was never created, which is
	// the normal state before the first AddTransactionResults call; Update
	// creates it on demand and performs no write here, so a lookup before
	// any results have been persisted resolves to "not found" rather than
	// an error.
	err := s.db.Update(bucketName, func(b kv.Bucket) error {
		raw := b.Get(resultKey(height, transactionID))
		if raw == nil {
			return nil
		}

		var r record

		if err := json.Unmarshal(raw, &r); err != nil {
			return xerrors.Errorf("failed to unmarshal return set: %v", err)
		}

		rec = &r

		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to read return set: %v", err)
	}

	if rec == nil {
		return nil, nil
	}

	rs := &result.ReturnSet{
		TransactionID:          transactionID,
		Status:                 rec.Status,
		Bloom:                  rec.Bloom,
		ReturnValue:            rec.ReturnValue,
		Logs:                   rec.Logs,
		StateChanges:           rec.StateChanges,
		StateDeletes:           make(map[string]struct{}),
		StateAccesses:          rec.StateAccesses,
		TransactionFee:         rec.TransactionFee,
		ConsumedResourceTokens: rec.ConsumedResourceTokens,
	}

	for _, k := range rec.StateDeletes {
		rs.StateDeletes[k] = struct{}{}
	}

	return rs, nil
}

// GetResultsForHeight returns every return-set persisted for a block
// height, in key order, i.e. sorted by transaction identifier bytes rather
// than in the order they were stored. It scans the bucket by the
// height-prefixed key rather than looking up transaction ids one at a
// time, since resultKey groups every record for a height under a common
// prefix.
func (s *Store) GetResultsForHeight(height int64) ([]result.ReturnSet, error) {
	var results []result.ReturnSet

	err := s.db.Update(bucketName, func(b kv.Bucket) error {
		return b.Scan(heightPrefix(height), func(k, v []byte) error {
			var r record

			if err := json.Unmarshal(v, &r); err != nil {
				return xerrors.Errorf("failed to unmarshal return set: %v", err)
			}

			transactionID := make([]byte, len(k)-8)
			copy(transactionID, k[8:])

			rs := result.ReturnSet{
				TransactionID:          transactionID,
				Status:                 r.Status,
				Bloom:                  r.Bloom,
				ReturnValue:            r.ReturnValue,
				Logs:                   r.Logs,
				StateChanges:           r.StateChanges,
				StateDeletes:           make(map[string]struct{}),
				StateAccesses:          r.StateAccesses,
				TransactionFee:         r.TransactionFee,
				ConsumedResourceTokens: r.ConsumedResourceTokens,
			}

			for _, k := range r.StateDeletes {
				rs.StateDeletes[k] = struct{}{}
			}

			results = append(results, rs)

			return nil
		})
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to scan return sets: %v", err)
	}

	return results, nil
}

func resultKey(height int64, transactionID []byte) []byte {
	buf := make([]byte, 8+len(transactionID))
	copy(buf, heightPrefix(height))
	copy(buf[8:], transactionID)

	return buf
}

func heightPrefix(height int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(height))

	return buf
}
