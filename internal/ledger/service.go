// Package ledger processes clinic operations delivered over the bus. The
// bus delivers at least once, so every operation is recorded locally and
// confirmed back to the clinic only after it has been executed.
//
// A crash after execution and before confirmation leaves the row
// unconfirmed; the redelivered operation is executed again. Deduplication
// of physical prints is up to the clinic. A redelivered operation that is
// already confirmed locally is confirmed to the clinic once more and not
// executed.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/skytecs/hermes/internal/command"
)

type Service struct {
	repo     Repository
	remote   Remote
	executor Executor
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(repo Repository, remote Remote, executor Executor, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		remote:   remote,
		executor: executor,
		now:      time.Now,
		logger:   logger.Named("ledger"),
	}
}

// HandleMessage is the bus handler. Only a malformed notification is
// returned as an error; processing failures are reported to the clinic.
func (s *Service) HandleMessage(ctx context.Context, data json.RawMessage) error {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding notification: %w", err)
	}

	if n.Method == "" || n.OperationID == 0 {
		return fmt.Errorf("notification has no method or operation id: %s", data)
	}

	s.Handle(ctx, n)

	return nil
}

// Handle never fails: errors are logged and sent to the clinic.
func (s *Service) Handle(ctx context.Context, n Notification) {
	logger := s.logger.With(zap.Int64("operation_id", n.OperationID), zap.String("method", n.Method))

	err := s.process(ctx, n, logger)
	if err == nil {
		return
	}

	logger.Error("operation failed", zap.Error(err))

	if rerr := s.remote.ReportError(ctx, n.OperationID, err.Error()); rerr != nil {
		logger.Error("failed to report operation error", zap.Error(rerr))
	}
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Operation, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) process(ctx context.Context, n Notification, logger *zap.Logger) error {
	done, err := s.repo.FindConfirmed(ctx, n.OperationID)
	switch {
	case err == nil:
		logger.Info("operation already confirmed, skipping", zap.Timep("confirmed_at", done.ConfirmedAt))

		// The clinic redelivers only what it has not seen confirmed.
		if err := s.remote.ConfirmOperation(ctx, n.OperationID); err != nil {
			logger.Warn("failed to confirm operation again", zap.Error(err))
		}

		return nil
	case !errors.Is(err, ErrNotFound):
		return fmt.Errorf("looking up operation: %w", err)
	}

	op := &Operation{
		RemoteOperationID: n.OperationID,
		Method:            n.Method,
		ReceivedAt:        s.now(),
	}
	if err := s.repo.Create(ctx, op); err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}

	if err := s.execute(ctx, n); err != nil {
		s.markFailed(ctx, op, err, logger)
		return err
	}

	if err := s.remote.ConfirmOperation(ctx, n.OperationID); err != nil {
		s.markFailed(ctx, op, err, logger)
		return err
	}

	// The clinic has the result; a local write failure is not its error.
	if err := s.repo.MarkConfirmed(ctx, op.ID, s.now()); err != nil {
		logger.Error("failed to record confirmation", zap.Error(err))
		return nil
	}

	logger.Info("operation confirmed")

	return nil
}

func (s *Service) execute(ctx context.Context, n Notification) error {
	method := command.Method(n.Method)
	if !method.Known() {
		return &command.UnknownMethodError{Method: n.Method}
	}

	payload, err := s.remote.FetchOperation(ctx, n.OperationID)
	if err != nil {
		return err
	}

	cmd, err := command.Decode(method, payload)
	if err != nil {
		return err
	}

	if _, err := s.executor.Execute(ctx, cmd); err != nil {
		return err
	}

	return nil
}

func (s *Service) markFailed(ctx context.Context, op *Operation, cause error, logger *zap.Logger) {
	if err := s.repo.MarkFailed(ctx, op.ID, cause.Error()); err != nil {
		logger.Error("failed to record operation error", zap.Error(err))
	}
}
