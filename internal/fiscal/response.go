package fiscal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/skytecs/hermes/internal/device"
	"github.com/skytecs/hermes/internal/receipt"
)

type OpenSessionRequest struct {
	CashierID    int
	CashierName  string
	CashierVATIN string
}

type OpenSessionResponse struct {
	SessionID    uuid.UUID            `json:"sessionId"`
	CashierID    int                  `json:"cashierId"`
	CashierName  string               `json:"cashierName"`
	SessionStart time.Time            `json:"sessionStart"`
	FiscalParams *device.FiscalParams `json:"fiscalParams,omitempty"`
}

// ReceiptData is the registration of one sub-receipt.
type ReceiptData struct {
	ContractItemIDs []int64              `json:"contractItemIds"`
	TaxationType    receipt.TaxationType `json:"taxationType"`
	FiscalParams    *device.FiscalParams `json:"fiscalParams"`
}

type ReceiptResponse struct {
	Data []ReceiptData `json:"data"`
}

// PartialReceiptError is returned with the sub-receipts that were
// fiscalized before the device rejected the next one.
type PartialReceiptError struct {
	Printed []ReceiptData
	Err     error
}

func (e *PartialReceiptError) Error() string {
	docs := make([]string, 0, len(e.Printed))
	for _, d := range e.Printed {
		docs = append(docs, fmt.Sprintf("document %d (%s)", d.FiscalParams.FiscalDocumentNumber, d.TaxationType))
	}

	return fmt.Sprintf("%s; already printed: %s", e.Err, strings.Join(docs, ", "))
}

func (e *PartialReceiptError) Unwrap() error {
	return e.Err
}

type CorrectionResponse struct {
	FiscalParams *device.FiscalParams `json:"fiscalParams"`
}

type ZReportResponse struct {
	AlreadyClosed bool                 `json:"alreadyClosed"`
	FiscalParams  *device.FiscalParams `json:"fiscalParams,omitempty"`
}

type ConnectionStatus struct {
	Shift       device.ShiftState `json:"shift"`
	ShiftNumber int               `json:"shiftNumber"`
	Model       string            `json:"model"`
	Serial      string            `json:"serial"`
	FFDVersion  string            `json:"ffdVersion"`
}
