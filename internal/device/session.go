package device

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Session serializes access to a single physical device. Every logical
// operation runs inside Do, which opens the device, hands out a Conn that is
// valid only for that call and always closes the device afterwards.
type Session struct {
	mu     sync.Mutex
	driver Driver
	logger *zap.Logger
}

func NewSession(driver Driver, logger *zap.Logger) *Session {
	return &Session{
		driver: driver,
		logger: logger.Named("device"),
	}
}

func (s *Session) Do(ctx context.Context, fn func(ctx context.Context, conn *Conn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.driver.Open(ctx); err != nil {
		return fmt.Errorf("opening device: %w", classifyOpen(err))
	}

	conn := &Conn{driver: s.driver, logger: s.logger}

	defer func() {
		conn.released = true

		if err := s.driver.Close(); err != nil {
			s.logger.Warn("closing device", zap.Error(err))
		}
	}()

	return fn(ctx, conn)
}

// Conn is the device handle owned by one Session.Do call.
type Conn struct {
	driver   Driver
	logger   *zap.Logger
	released bool
}

// Status queries the device. The answer is never cached.
func (c *Conn) Status(ctx context.Context) (*Status, error) {
	if c.released {
		return nil, ErrReleased
	}

	st, err := c.driver.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying device status: %w", err)
	}

	return st, nil
}

func (c *Conn) ShiftState(ctx context.Context) (ShiftState, error) {
	st, err := c.Status(ctx)
	if err != nil {
		return "", err
	}

	return st.Shift, nil
}

// FFDVersion returns the fiscal data format version the device works in.
func (c *Conn) FFDVersion(ctx context.Context) (string, error) {
	return c.QueryParam(ctx, ParamFFDVersion)
}

func (c *Conn) QueryParam(ctx context.Context, param Param) (string, error) {
	if c.released {
		return "", ErrReleased
	}

	v, err := c.driver.QueryParam(ctx, param)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", param, err)
	}

	return v, nil
}

// Execute submits a task to the device. Device faults are returned as *Fault
// and are never retried.
func (c *Conn) Execute(ctx context.Context, task Task) (*Result, error) {
	if c.released {
		return nil, ErrReleased
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("encoding %s task: %w", task.TaskType(), err)
	}

	c.logger.Debug("executing task", zap.String("type", task.TaskType()), zap.ByteString("task", payload))

	raw, err := c.driver.ExecuteJSON(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("executing %s: %w", task.TaskType(), err)
	}

	res := &Result{Raw: raw}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, res); err != nil {
			return nil, fmt.Errorf("decoding %s result: %w", task.TaskType(), err)
		}
	}

	return res, nil
}
