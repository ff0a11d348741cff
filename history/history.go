// Package history persists recognized phrases across sessions so the
// surface can offer them for reinsertion.
package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/rowdy-raedon/V2T/internal/types"
)

const (
	keyPrefix          = "phrase/"
	defaultRecentLimit = 50
)

// Store is a badger-backed phrase log. Keys order phrases by timestamp,
// and entries carry a TTL so the log trims itself to the configured
// retention window.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens or creates the history database in dir. A retention of zero
// keeps phrases forever.
func Open(dir string, retention time.Duration) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(slogAdapter{slog.Default()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	return &Store{db: db, ttl: retention}, nil
}

// Append stores one recognized phrase.
func (s *Store) Append(p types.Phrase) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode phrase: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(phraseKey(p), data)
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("store phrase: %w", err)
	}
	return nil
}

// Recent returns up to limit phrases, newest first. A limit of zero or
// less uses a default.
func (s *Store) Recent(limit int) ([]types.Phrase, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	var phrases []types.Phrase
	err := s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Reverse = true
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		// Position past every phrase key, then walk backwards.
		it.Seek(append(prefix, 0xff))
		for ; it.ValidForPrefix(prefix) && len(phrases) < limit; it.Next() {
			var p types.Phrase
			err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &p)
			})
			if err != nil {
				return err
			}
			phrases = append(phrases, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return phrases, nil
}

// Clear removes every stored phrase.
func (s *Store) Clear() error {
	if err := s.db.DropPrefix([]byte(keyPrefix)); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Close reclaims space from expired entries and closes the database.
func (s *Store) Close() error {
	for s.db.RunValueLogGC(0.5) == nil {
	}
	return s.db.Close()
}

// phraseKey builds a lexicographically time-ordered key.
func phraseKey(p types.Phrase) []byte {
	return fmt.Appendf(nil, "%s%020d/%s", keyPrefix, p.Timestamp, p.ID)
}

// slogAdapter routes badger's logger onto slog. Infof maps to Debug;
// badger reports routine compaction detail at info.
type slogAdapter struct {
	l *slog.Logger
}

func (a slogAdapter) Errorf(format string, args ...interface{}) {
	a.l.Error("badger: " + sprintfTrim(format, args...))
}

func (a slogAdapter) Warningf(format string, args ...interface{}) {
	a.l.Warn("badger: " + sprintfTrim(format, args...))
}

func (a slogAdapter) Infof(format string, args ...interface{}) {
	a.l.Debug("badger: " + sprintfTrim(format, args...))
}

func (a slogAdapter) Debugf(format string, args ...interface{}) {
	a.l.Debug("badger: " + sprintfTrim(format, args...))
}

func sprintfTrim(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
