package shift

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/skytecs/hermes/internal/device"
)

// CashierSession is the locally remembered owner of the open shift. The
// device keeps the shift itself but not who opened it.
type CashierSession struct {
	SessionID    uuid.UUID `json:"sessionId"`
	CashierID    int       `json:"cashierId"`
	CashierName  string    `json:"cashierName"`
	CashierVATIN string    `json:"cashierVatin,omitempty"`
	SessionStart time.Time `json:"sessionStart"`
}

func (s *CashierSession) Operator() device.Operator {
	return device.Operator{Name: s.CashierName, VATIN: s.CashierVATIN}
}

//go:generate mockgen -source=session.go -destination=store_mock.go -package=shift
type SessionStore interface {
	// Get returns ErrSessionNotFound when nothing is stored.
	Get(ctx context.Context) (*CashierSession, error)
	Save(ctx context.Context, s *CashierSession) error
	// Delete is a no-op when nothing is stored.
	Delete(ctx context.Context) error
}
