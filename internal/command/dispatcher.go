package command

import (
	"context"

	"github.com/skytecs/hermes/internal/fiscal"
	"github.com/skytecs/hermes/internal/receipt"
)

//go:generate mockgen -source=dispatcher.go -destination=dispatcher_mock.go -package=command
type Fiscal interface {
	OpenSession(ctx context.Context, req fiscal.OpenSessionRequest) (*fiscal.OpenSessionResponse, error)
	PrintReceipt(ctx context.Context, r receipt.Receipt) (*fiscal.ReceiptResponse, error)
	PrintRefund(ctx context.Context, r receipt.Receipt) (*fiscal.ReceiptResponse, error)
	PrintCorrection(ctx context.Context, c receipt.Correction) (*fiscal.CorrectionResponse, error)
	XReport(ctx context.Context) error
	ZReport(ctx context.Context) (*fiscal.ZReportResponse, error)
}

type LabelPrinter interface {
	Print(ctx context.Context, labels string) error
}

// Dispatcher routes a decoded command to the component that executes it.
type Dispatcher struct {
	fiscal Fiscal
	labels LabelPrinter
}

func NewDispatcher(f Fiscal, labels LabelPrinter) *Dispatcher {
	return &Dispatcher{fiscal: f, labels: labels}
}

func (d *Dispatcher) Execute(ctx context.Context, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case OpenSession:
		return d.fiscal.OpenSession(ctx, fiscal.OpenSessionRequest{
			CashierID:    c.CashierID,
			CashierName:  c.CashierName,
			CashierVATIN: c.CashierVATIN,
		})
	case PrintReceipt:
		return d.fiscal.PrintReceipt(ctx, c.Receipt)
	case PrintRefund:
		return d.fiscal.PrintRefund(ctx, c.Receipt)
	case PrintCorrection:
		return d.fiscal.PrintCorrection(ctx, c.Correction)
	case XReport:
		return nil, d.fiscal.XReport(ctx)
	case ZReport:
		return d.fiscal.ZReport(ctx)
	case PrintLabels:
		return nil, d.labels.Print(ctx, c.Labels)
	}

	return nil, &UnknownMethodError{Method: string(cmd.Method())}
}
