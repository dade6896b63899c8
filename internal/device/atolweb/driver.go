// Package atolweb drives an Atol fiscal register through the vendor's
// fptr10 web server, which queues JSON tasks and reports their results.
package atolweb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skytecs/hermes/internal/device"
)

const requestsPath = "/api/v2/requests"

// Task result states reported by the web server.
const (
	statusWait       = "wait"
	statusInProgress = "inProgress"
	statusReady      = "ready"
	statusError      = "error"
)

type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("atol web server error: %s", e.Status)
	}

	return fmt.Sprintf("atol web server error: %s: %s", e.Status, e.Body)
}

type Driver struct {
	http         *resty.Client
	timeout      time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
}

func New(baseURL string, timeout, pollInterval time.Duration, logger *zap.Logger) *Driver {
	// Tasks are never resent: a repeated sell task is a second fiscal document.
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second).
		SetRetryCount(0)

	return &Driver{
		http:         httpClient,
		timeout:      timeout,
		pollInterval: pollInterval,
		logger:       logger.Named("atolweb"),
	}
}

// Open checks that the web server answers and the register responds.
func (d *Driver) Open(ctx context.Context) error {
	_, err := d.run(ctx, []byte(`{"type":"`+device.TaskGetDeviceStatus+`"}`))
	return err
}

// Close is a no-op: the web server owns the port.
func (d *Driver) Close() error {
	return nil
}

func (d *Driver) Status(ctx context.Context) (*device.Status, error) {
	raw, err := d.run(ctx, []byte(`{"type":"`+device.TaskGetShiftStatus+`"}`))
	if err != nil {
		return nil, err
	}

	var res struct {
		ShiftStatus device.Status `json:"shiftStatus"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decoding shift status: %w", err)
	}

	switch res.ShiftStatus.Shift {
	case device.ShiftClosed, device.ShiftOpened, device.ShiftExpired:
	default:
		return nil, fmt.Errorf("unknown shift state %q", res.ShiftStatus.Shift)
	}

	return &res.ShiftStatus, nil
}

func (d *Driver) QueryParam(ctx context.Context, param device.Param) (string, error) {
	raw, err := d.run(ctx, []byte(`{"type":"`+device.TaskGetDeviceInfo+`"}`))
	if err != nil {
		return "", err
	}

	var res struct {
		DeviceInfo map[string]any `json:"deviceInfo"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", fmt.Errorf("decoding device info: %w", err)
	}

	v, ok := res.DeviceInfo[string(param)]
	if !ok {
		return "", &device.Fault{Code: device.CodeInvalidParam, Description: fmt.Sprintf("device info has no %q", param)}
	}

	switch val := v.(type) {
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	}

	return fmt.Sprint(v), nil
}

func (d *Driver) ExecuteJSON(ctx context.Context, task []byte) ([]byte, error) {
	return d.run(ctx, task)
}

type taskRequest struct {
	UUID    string            `json:"uuid"`
	Request []json.RawMessage `json:"request"`
}

type taskState struct {
	Results []struct {
		Status           string          `json:"status"`
		ErrorCode        int             `json:"errorCode"`
		ErrorDescription string          `json:"errorDescription"`
		Result           json.RawMessage `json:"result"`
	} `json:"results"`
}

// run queues a single task and polls until the web server reports a final state.
func (d *Driver) run(ctx context.Context, task []byte) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	id := uuid.NewString()

	resp, err := d.http.R().
		SetContext(ctx).
		SetBody(taskRequest{UUID: id, Request: []json.RawMessage{task}}).
		Post(requestsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", device.ErrUnavailable, err)
	}

	if resp.IsError() {
		return nil, apiErrorFromResponse(resp)
	}

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		var state taskState

		resp, err := d.http.R().
			SetContext(ctx).
			SetResult(&state).
			Get(requestsPath + "/" + id)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", device.ErrUnavailable, err)
		}

		if resp.IsError() {
			return nil, apiErrorFromResponse(resp)
		}

		if len(state.Results) > 0 {
			r := state.Results[0]

			switch r.Status {
			case statusReady:
				return r.Result, nil
			case statusError:
				return nil, &device.Fault{Code: r.ErrorCode, Description: r.ErrorDescription}
			case statusWait, statusInProgress:
			default:
				return nil, &device.Fault{
					Code:        r.ErrorCode,
					Description: strings.TrimSpace(fmt.Sprintf("task %s %s", r.Status, r.ErrorDescription)),
				}
			}
		}

		d.logger.Debug("task pending", zap.String("uuid", id))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for task %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

func apiErrorFromResponse(resp *resty.Response) error {
	return &APIError{
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Body:       strings.TrimSpace(resp.String()),
	}
}
