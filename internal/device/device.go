package device

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ShiftState is the shift state as reported by the device.
type ShiftState string

const (
	ShiftClosed  ShiftState = "closed"
	ShiftOpened  ShiftState = "opened"
	ShiftExpired ShiftState = "expired"
)

// Param names a device property readable through QueryParam.
type Param string

const (
	ParamFFDVersion   Param = "ffdVersion"
	ParamModelName    Param = "modelName"
	ParamSerialNumber Param = "serial"
)

// Status is the device status snapshot used for shift reconciliation.
type Status struct {
	Shift       ShiftState `json:"state"`
	ShiftNumber int        `json:"number"`
}

//go:generate mockgen -source=device.go -destination=driver_mock.go -package=device
type Driver interface {
	Open(ctx context.Context) error
	Close() error
	Status(ctx context.Context) (*Status, error)
	ExecuteJSON(ctx context.Context, task []byte) ([]byte, error)
	QueryParam(ctx context.Context, param Param) (string, error)
}

// Task is a JSON device command. TaskType is the value of its "type" field.
type Task interface {
	TaskType() string
}

// Operator identifies the cashier a document is registered under.
type Operator struct {
	Name  string `json:"name"`
	VATIN string `json:"vatin,omitempty"`
}

// FiscalParams is the registration data the device returns for a fiscal document.
type FiscalParams struct {
	Total                  decimal.Decimal `json:"total"`
	FiscalDocumentNumber   int             `json:"fiscalDocumentNumber"`
	FiscalDocumentSign     string          `json:"fiscalDocumentSign"`
	FiscalDocumentDateTime string          `json:"fiscalDocumentDateTime"`
	FiscalReceiptNumber    int             `json:"fiscalReceiptNumber,omitempty"`
	ShiftNumber            int             `json:"shiftNumber"`
	ReceiptsCount          int             `json:"receiptsCount,omitempty"`
	FnNumber               string          `json:"fnNumber"`
	RegistrationNumber     string          `json:"registrationNumber"`
	FnsURL                 string          `json:"fnsUrl"`
}

// Result is the decoded answer to an executed task.
type Result struct {
	FiscalParams *FiscalParams   `json:"fiscalParams,omitempty"`
	Raw          json.RawMessage `json:"-"`
}
