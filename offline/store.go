// Package offline is the durable holding area for observations that could not
// reach the backend. Each observation is one badger record keyed by its
// generated id, so concurrent appends and sync deletions never touch the same
// entry; the single-blob read-modify-write of earlier builds is gone.
package offline

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/kafaat/sahool-scouting/config"
	"github.com/kafaat/sahool-scouting/domain"
)

const keyPrefix = "obs/"

// Store persists offline observations in an embedded badger database.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

// Open opens (or creates) the offline store. InMemory mode is for tests.
func Open(cfg config.OfflineConfig, logger *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Dir).WithLogger(nil)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Put appends a marked copy of the observation. Storage failure is logged as
// a warning and swallowed: losing the offline copy must not break the field
// workflow that already has the record in hand.
func (s *Store) Put(obs *domain.Observation) {
	marked := *obs
	marked.Offline = true
	now := time.Now().UTC()
	marked.CachedAt = &now

	payload, err := json.Marshal(&marked)
	if err != nil {
		s.logger.Warn("offline store: marshal failed", zap.String("observation_id", obs.ID), zap.Error(err))
		return
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+marked.ID), payload)
	})
	if err != nil {
		s.logger.Warn("offline store: write failed", zap.String("observation_id", obs.ID), zap.Error(err))
	}
}

// List returns every cached observation. A record that fails to decode is
// skipped, never fatal.
func (s *Store) List() []domain.Observation {
	return s.scan(func(*domain.Observation) bool { return true })
}

// ListBySession returns the cached observations belonging to one session.
func (s *Store) ListBySession(sessionID string) []domain.Observation {
	return s.scan(func(o *domain.Observation) bool { return o.SessionID == sessionID })
}

func (s *Store) scan(keep func(*domain.Observation) bool) []domain.Observation {
	out := []domain.Observation{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var obs domain.Observation
				if err := json.Unmarshal(val, &obs); err != nil {
					s.logger.Warn("offline store: skipping corrupt record",
						zap.ByteString("key", item.KeyCopy(nil)), zap.Error(err))
					return nil
				}
				if keep(&obs) {
					out = append(out, obs)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("offline store: scan failed", zap.Error(err))
		return []domain.Observation{}
	}
	return out
}

// Delete removes one cached observation after a successful resubmit.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + id))
	})
}

// Len reports the number of cached observations.
func (s *Store) Len() int {
	n := 0
	_ = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n
}
