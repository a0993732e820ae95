// Package memstore implements repository.Store on an in-memory badger
// database. It backs the service when PostgreSQL is unreachable at startup
// and is the store used by service tests.
package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/GandharvMahajan/AutoExamChecker/internal/repository"
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// maxTxnRetries bounds how often a conflicting transaction is replayed.
const maxTxnRetries = 16

// Store is a badger-backed repository.Store.
type Store struct {
	db       *badger.DB
	accounts *accountRepo
	exams    *examRepo
	sessions *sessionRepo
	stats    *statsRepo
}

// Open creates an empty in-memory store.
func Open(log zerolog.Logger) (*Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(badgerLogger{log: log.With().Str("component", "badger").Logger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	s := &Store{db: db}
	s.accounts = &accountRepo{s: s}
	s.exams = &examRepo{s: s}
	s.sessions = &sessionRepo{s: s}
	s.stats = &statsRepo{s: s}
	return s, nil
}

func (s *Store) Accounts() repository.AccountRepository { return s.accounts }
func (s *Store) Exams() repository.ExamRepository       { return s.exams }
func (s *Store) Sessions() repository.SessionRepository { return s.sessions }
func (s *Store) Stats() repository.StatsRepository      { return s.stats }
func (s *Store) Mode() string                           { return repository.ModeMemory }

// Ping reports whether the database is still open.
func (s *Store) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("memory store closed")
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// update runs fn in a read-write transaction, replaying it when a concurrent
// transaction touched the same keys.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) || attempt == maxTxnRetries {
			return err
		}
	}
}

func (s *Store) view(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(fn)
}

func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return repository.ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func putJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), data)
}

// scanPrefix decodes every value under prefix with decode.
func scanPrefix(txn *badger.Txn, prefix string, decode func(val []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		if err := it.Item().Value(decode); err != nil {
			return err
		}
	}
	return nil
}

// nextID allocates the next value of a named sequence inside txn.
func nextID(txn *badger.Txn, name string) (int, error) {
	key := []byte("seq:" + name)
	current := 0
	item, err := txn.Get(key)
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
	case err != nil:
		return 0, err
	default:
		if err := item.Value(func(val []byte) error {
			current, err = strconv.Atoi(string(val))
			return err
		}); err != nil {
			return 0, err
		}
	}
	current++
	return current, txn.Set(key, []byte(strconv.Itoa(current)))
}

func accountKey(id int) string           { return fmt.Sprintf("account:%010d", id) }
func accountEmailKey(email string) string { return "account_email:" + email }
func examKey(id int) string              { return fmt.Sprintf("exam:%010d", id) }
func sessionKey(accountID, examID int) string {
	return fmt.Sprintf("session:%010d:%010d", accountID, examID)
}
func sessionAccountPrefix(accountID int) string { return fmt.Sprintf("session:%010d:", accountID) }
func purchaseKey(checkoutSessionID string) string {
	return "purchase:" + checkoutSessionID
}

// badgerLogger routes badger's internal logging through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.log.Error().Msgf(f, v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.log.Warn().Msgf(f, v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.log.Debug().Msgf(f, v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.log.Trace().Msgf(f, v...) }
