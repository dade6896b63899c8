package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skytecs/hermes/internal/shift"
	"github.com/skytecs/hermes/internal/shift/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)

	s := store.New(db)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx)
	assert.ErrorIs(t, err, shift.ErrSessionNotFound)

	session := &shift.CashierSession{
		SessionID:    uuid.New(),
		CashierID:    7,
		CashierName:  "Ivanova",
		CashierVATIN: "771234567890",
		SessionStart: time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC),
	}
	require.NoError(t, s.Save(ctx, session))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.SessionID, got.SessionID)
	assert.Equal(t, 7, got.CashierID)
	assert.Equal(t, "Ivanova", got.CashierName)
	assert.Equal(t, "771234567890", got.CashierVATIN)
	assert.True(t, session.SessionStart.Equal(got.SessionStart))

	replacement := &shift.CashierSession{SessionID: uuid.New(), CashierID: 3, CashierName: "Petrov"}
	require.NoError(t, s.Save(ctx, replacement))

	got, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CashierID)

	require.NoError(t, s.Delete(ctx))

	_, err = s.Get(ctx)
	assert.ErrorIs(t, err, shift.ErrSessionNotFound)
}

func TestStore_DeleteMissing(t *testing.T) {
	s := newStore(t)

	assert.NoError(t, s.Delete(context.Background()))
}

func TestStore_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := store.Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, &shift.CashierSession{SessionID: uuid.New(), CashierID: 7, CashierName: "Ivanova"}))
	require.NoError(t, s.Close())

	s, err = store.Open(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ivanova", got.CashierName)
}
