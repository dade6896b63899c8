package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/skytecs/hermes/internal/shift"
)

var sessionKey = []byte("cashier_session")

// Store keeps the current cashier session in a badger database so it
// survives restarts. Only one process may hold the directory at a time.
type Store struct {
	db *badger.DB
}

func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).
		WithSyncWrites(true).
		WithValueLogFileSize(1 << 20).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	return New(db), nil
}

func New(db *badger.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(_ context.Context) (*shift.CashierSession, error) {
	var data []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey)
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, shift.ErrSessionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read cashier session: %w", err)
	}

	var session shift.CashierSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode cashier session: %w", err)
	}

	return &session, nil
}

func (s *Store) Save(_ context.Context, session *shift.CashierSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal cashier session: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey, data)
	})
	if err != nil {
		return fmt.Errorf("failed to store cashier session: %w", err)
	}

	return nil
}

func (s *Store) Delete(_ context.Context) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey)
	})
	if err != nil {
		return fmt.Errorf("failed to delete cashier session: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
