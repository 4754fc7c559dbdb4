// Package state is the executor's durable settlement journal. The
// in-memory dedup window dies with the process; the journal is what keeps
// a restarted executor from paying for an intent it already settled while
// the chain is still catching up to the first submission.
package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// executedRetention bounds how long settlement marks are kept. Marks older
// than this refer to intents that expired long ago.
const executedRetention = 7 * 24 * time.Hour

var executedPrefix = []byte("executed/")

// Store is a pebble-backed journal of settled intent ids.
type Store struct {
	db *pebble.DB
}

// Open opens or creates the journal under dir and prunes stale marks.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("state: open %s: %w", dir, err)
	}
	s := &Store{db: db}
	if err := s.pruneExecuted(time.Now().Add(-executedRetention)); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// MarkExecuted durably records that this executor settled the intent. The
// write is synced: losing it could mean paying for the same intent twice.
func (s *Store) MarkExecuted(intentID string, at time.Time) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(at.UnixMilli()))
	return s.db.Set(executedKey(intentID), buf[:], pebble.Sync)
}

// WasExecuted reports whether a settlement for the intent was recorded.
func (s *Store) WasExecuted(intentID string) (bool, error) {
	_, closer, err := s.db.Get(executedKey(intentID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	closer.Close()
	return true, nil
}

// pruneExecuted deletes settlement marks recorded before the cutoff.
func (s *Store) pruneExecuted(cutoff time.Time) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: executedPrefix,
		UpperBound: append(append([]byte{}, executedPrefix...), 0xff),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	cutoffMs := uint64(cutoff.UnixMilli())
	batch := s.db.NewBatch()
	defer batch.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		val := iter.Value()
		if len(val) == 8 && binary.BigEndian.Uint64(val) >= cutoffMs {
			continue
		}
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		if err := batch.Delete(key, nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

func executedKey(intentID string) []byte {
	return append(append([]byte{}, executedPrefix...), intentID...)
}
