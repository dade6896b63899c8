package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/skytecs/hermes/internal/command"
)

var (
	ErrNotFound      = errors.New("operation not found")
	ErrRemoteFetch   = errors.New("failed to fetch operation")
	ErrRemoteConfirm = errors.New("failed to confirm operation")
	ErrRemoteReport  = errors.New("failed to report operation error")
)

// Operation is the local record of a clinic operation. ConfirmedAt stays
// nil until the clinic has acknowledged the result.
type Operation struct {
	ID                int64      `json:"id"`
	RemoteOperationID int64      `json:"remoteOperationId"`
	Method            string     `json:"method"`
	ReceivedAt        time.Time  `json:"receivedAt"`
	ConfirmedAt       *time.Time `json:"confirmedAt"`
	LastError         *string    `json:"lastError"`
}

// Notification is what the clinic publishes on the bus. The id arrives as
// operationId or remoteOperationId; operationId wins when both are set.
type Notification struct {
	Method      string `json:"method"`
	OperationID int64  `json:"operationId"`
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	var wire struct {
		Method            string `json:"method"`
		OperationID       int64  `json:"operationId"`
		RemoteOperationID int64  `json:"remoteOperationId"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	n.Method = wire.Method
	n.OperationID = wire.OperationID

	if n.OperationID == 0 {
		n.OperationID = wire.RemoteOperationID
	}

	return nil
}

type ListFilter struct {
	UnconfirmedOnly bool
	Limit           int
}

// RemoteError is a non-success answer of the clinic API.
type RemoteError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: clinic api returned %s", e.Op, e.Status)
	}

	return fmt.Sprintf("%s: clinic api returned %s: %s", e.Op, e.Status, e.Body)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

//go:generate mockgen -source=ledger.go -destination=ledger_mock.go -package=ledger
type Repository interface {
	// Create stores op and sets its ID.
	Create(ctx context.Context, op *Operation) error
	// FindConfirmed returns ErrNotFound unless a confirmed row exists.
	FindConfirmed(ctx context.Context, remoteOperationID int64) (*Operation, error)
	MarkConfirmed(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, message string) error
	List(ctx context.Context, filter ListFilter) ([]*Operation, error)
}

type Remote interface {
	FetchOperation(ctx context.Context, operationID int64) (json.RawMessage, error)
	ConfirmOperation(ctx context.Context, operationID int64) error
	ReportError(ctx context.Context, operationID int64, message string) error
}

type Executor interface {
	Execute(ctx context.Context, cmd command.Command) (any, error)
}
