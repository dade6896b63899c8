// Package remote is the client of the clinic operation API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/skytecs/hermes/internal/ledger"
)

const (
	operationPath = "/api/operation"
	confirmPath   = "/api/confirmOperation"
	reportPath    = "/api/reportError"
)

type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func New(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	if token != "" {
		httpClient.SetAuthToken(token)
	}

	return &Client{
		http:   httpClient,
		logger: logger.Named("clinic"),
	}
}

type confirmRequest struct {
	OperationID int64 `json:"OperationId"`
}

type reportRequest struct {
	OperationID  int64  `json:"OperationId"`
	ErrorMessage string `json:"ErrorMessage"`
}

// FetchOperation returns the raw command payload of the operation.
func (c *Client) FetchOperation(ctx context.Context, operationID int64) (json.RawMessage, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("operationId", strconv.FormatInt(operationID, 10)).
		Get(operationPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ledger.ErrRemoteFetch, err)
	}

	if !resp.IsSuccess() {
		return nil, remoteError("fetch operation", resp, ledger.ErrRemoteFetch)
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: operation %d has an empty payload", ledger.ErrRemoteFetch, operationID)
	}

	c.logger.Debug("operation fetched", zap.Int64("operation_id", operationID), zap.ByteString("payload", body))

	return json.RawMessage(body), nil
}

func (c *Client) ConfirmOperation(ctx context.Context, operationID int64) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(confirmRequest{OperationID: operationID}).
		Post(confirmPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ledger.ErrRemoteConfirm, err)
	}

	if !resp.IsSuccess() {
		return remoteError("confirm operation", resp, ledger.ErrRemoteConfirm)
	}

	return nil
}

func (c *Client) ReportError(ctx context.Context, operationID int64, message string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(reportRequest{OperationID: operationID, ErrorMessage: message}).
		Post(reportPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ledger.ErrRemoteReport, err)
	}

	if !resp.IsSuccess() {
		return remoteError("report error", resp, ledger.ErrRemoteReport)
	}

	return nil
}

func remoteError(op string, resp *resty.Response, kind error) error {
	return &ledger.RemoteError{
		Op:         op,
		StatusCode: resp.StatusCode(),
		Status:     resp.Status(),
		Body:       strings.TrimSpace(resp.String()),
		Err:        kind,
	}
}
