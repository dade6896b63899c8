package shift

import (
	"errors"
	"fmt"
)

var (
	ErrShiftClosed          = errors.New("shift is closed")
	ErrShiftAlreadyOpen     = errors.New("shift is already open")
	ErrShiftExpired         = errors.New("shift has lasted more than 24 hours, print a Z-report first")
	ErrSessionRecordMissing = errors.New("shift is open on the device but no cashier session is stored")

	ErrSessionNotFound = errors.New("cashier session not found")
)

// AlreadyOpenError reports who holds the open shift.
type AlreadyOpenError struct {
	Current     *CashierSession
	SameCashier bool
}

func (e *AlreadyOpenError) Error() string {
	if e.SameCashier {
		return fmt.Sprintf("%s by this cashier since %s", ErrShiftAlreadyOpen, e.Current.SessionStart.Format("2006-01-02 15:04"))
	}

	return fmt.Sprintf("%s by another cashier: %s (id %d)", ErrShiftAlreadyOpen, e.Current.CashierName, e.Current.CashierID)
}

func (e *AlreadyOpenError) Unwrap() error {
	return ErrShiftAlreadyOpen
}
