// Package shift reconciles the shift state reported by the device with the
// cashier session persisted locally. Every gated operation re-reads both.
package shift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skytecs/hermes/internal/device"
)

type Machine struct {
	store  SessionStore
	now    func() time.Time
	logger *zap.Logger
}

func NewMachine(store SessionStore, logger *zap.Logger) *Machine {
	return &Machine{
		store:  store,
		now:    time.Now,
		logger: logger.Named("shift"),
	}
}

type OpenParams struct {
	CashierID    int
	CashierName  string
	CashierVATIN string
}

// Open opens a shift for the cashier. The session is stored before the
// device is asked to open, and removed again if the device refuses.
func (m *Machine) Open(ctx context.Context, conn *device.Conn, params OpenParams) (*CashierSession, *device.Result, error) {
	state, err := conn.ShiftState(ctx)
	if err != nil {
		return nil, nil, err
	}

	switch state {
	case device.ShiftClosed:
	case device.ShiftExpired:
		return nil, nil, ErrShiftExpired
	case device.ShiftOpened:
		current, err := m.current(ctx)
		if err != nil {
			return nil, nil, err
		}

		return nil, nil, &AlreadyOpenError{Current: current, SameCashier: current.CashierID == params.CashierID}
	default:
		return nil, nil, fmt.Errorf("unexpected shift state %q", state)
	}

	session := &CashierSession{
		SessionID:    uuid.New(),
		CashierID:    params.CashierID,
		CashierName:  params.CashierName,
		CashierVATIN: params.CashierVATIN,
		SessionStart: m.now(),
	}

	if err := m.store.Save(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("saving cashier session: %w", err)
	}

	res, err := conn.Execute(ctx, device.OperatorTask{Type: device.TaskOpenShift, Operator: session.Operator()})
	if err != nil {
		if derr := m.store.Delete(ctx); derr != nil {
			m.logger.Error("failed to roll back cashier session", zap.Error(derr))
		}

		return nil, nil, err
	}

	m.logger.Info("shift opened",
		zap.Int("cashier_id", session.CashierID),
		zap.String("cashier", session.CashierName),
		zap.Stringer("session_id", session.SessionID),
	)

	return session, res, nil
}

// Close prints the Z-report. A shift the device already reports closed is
// treated as closed and only the local session is cleared.
func (m *Machine) Close(ctx context.Context, conn *device.Conn) (res *device.Result, alreadyClosed bool, err error) {
	state, err := conn.ShiftState(ctx)
	if err != nil {
		return nil, false, err
	}

	if state == device.ShiftClosed {
		if err := m.store.Delete(ctx); err != nil {
			return nil, false, fmt.Errorf("clearing cashier session: %w", err)
		}

		return nil, true, nil
	}

	session, err := m.current(ctx)
	if err != nil {
		return nil, false, err
	}

	res, err = conn.Execute(ctx, device.OperatorTask{Type: device.TaskCloseShift, Operator: session.Operator()})
	if err != nil {
		return nil, false, err
	}

	if err := m.store.Delete(ctx); err != nil {
		return nil, false, fmt.Errorf("clearing cashier session: %w", err)
	}

	m.logger.Info("shift closed", zap.Int("cashier_id", session.CashierID), zap.String("cashier", session.CashierName))

	return res, false, nil
}

// RequireOpenOperator returns the cashier of the open shift.
func (m *Machine) RequireOpenOperator(ctx context.Context, conn *device.Conn) (*CashierSession, error) {
	state, err := conn.ShiftState(ctx)
	if err != nil {
		return nil, err
	}

	switch state {
	case device.ShiftOpened:
		return m.current(ctx)
	case device.ShiftClosed:
		return nil, ErrShiftClosed
	case device.ShiftExpired:
		return nil, ErrShiftExpired
	}

	return nil, fmt.Errorf("unexpected shift state %q", state)
}

func (m *Machine) current(ctx context.Context) (*CashierSession, error) {
	s, err := m.store.Get(ctx)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrSessionRecordMissing
	}

	if err != nil {
		return nil, fmt.Errorf("reading cashier session: %w", err)
	}

	return s, nil
}
