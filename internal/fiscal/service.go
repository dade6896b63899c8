// Package fiscal exposes the cashbox operations. Each operation runs in a
// single device session and reconciles the shift state before printing.
package fiscal

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/skytecs/hermes/internal/device"
	"github.com/skytecs/hermes/internal/receipt"
	"github.com/skytecs/hermes/internal/shift"
)

type Service struct {
	session *device.Session
	shifts  *shift.Machine
	logger  *zap.Logger
}

func NewService(session *device.Session, shifts *shift.Machine, logger *zap.Logger) *Service {
	return &Service{
		session: session,
		shifts:  shifts,
		logger:  logger.Named("fiscal"),
	}
}

func (s *Service) OpenSession(ctx context.Context, req OpenSessionRequest) (*OpenSessionResponse, error) {
	if strings.TrimSpace(req.CashierName) == "" {
		return nil, fmt.Errorf("%w: cashier name is required", receipt.ErrValidation)
	}

	var resp *OpenSessionResponse

	err := s.session.Do(ctx, func(ctx context.Context, conn *device.Conn) error {
		session, res, err := s.shifts.Open(ctx, conn, shift.OpenParams{
			CashierID:    req.CashierID,
			CashierName:  req.CashierName,
			CashierVATIN: req.CashierVATIN,
		})
		if err != nil {
			return err
		}

		resp = &OpenSessionResponse{
			SessionID:    session.SessionID,
			CashierID:    session.CashierID,
			CashierName:  session.CashierName,
			SessionStart: session.SessionStart,
			FiscalParams: res.FiscalParams,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// ZReport closes the shift. Closing an already closed shift succeeds.
func (s *Service) ZReport(ctx context.Context) (*ZReportResponse, error) {
	var resp *ZReportResponse

	err := s.session.Do(ctx, func(ctx context.Context, conn *device.Conn) error {
		res, alreadyClosed, err := s.shifts.Close(ctx, conn)
		if err != nil {
			return err
		}

		resp = &ZReportResponse{AlreadyClosed: alreadyClosed}
		if res != nil {
			resp.FiscalParams = res.FiscalParams
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (s *Service) XReport(ctx context.Context) error {
	return s.session.Do(ctx, func(ctx context.Context, conn *device.Conn) error {
		cashier, err := s.shifts.RequireOpenOperator(ctx, conn)
		if err != nil {
			return err
		}

		_, err = conn.Execute(ctx, device.OperatorTask{Type: device.TaskReportX, Operator: cashier.Operator()})
		return err
	})
}

func (s *Service) PrintReceipt(ctx context.Context, r receipt.Receipt) (*ReceiptResponse, error) {
	return s.print(ctx, r, receipt.KindSell)
}

func (s *Service) PrintRefund(ctx context.Context, r receipt.Receipt) (*ReceiptResponse, error) {
	return s.print(ctx, r, receipt.KindRefund)
}

// print stops at the first sub-receipt the device rejects. Sub-receipts
// printed before it stay fiscalized and are returned along with a
// *PartialReceiptError.
func (s *Service) print(ctx context.Context, r receipt.Receipt, kind receipt.Kind) (*ReceiptResponse, error) {
	subs, err := receipt.Compose(r, kind)
	if err != nil {
		return nil, err
	}

	resp := &ReceiptResponse{Data: make([]ReceiptData, 0, len(subs))}

	err = s.session.Do(ctx, func(ctx context.Context, conn *device.Conn) error {
		cashier, err := s.shifts.RequireOpenOperator(ctx, conn)
		if err != nil {
			return err
		}

		for i, sub := range subs {
			sub.Operator = cashier.Operator()

			res, err := conn.Execute(ctx, sub)
			if err != nil {
				return fmt.Errorf("sub-receipt %d of %d (%s): %w", i+1, len(subs), sub.TaxationType, err)
			}

			params := res.FiscalParams
			if params == nil {
				params = &device.FiscalParams{Total: sub.Total()}
			}

			resp.Data = append(resp.Data, ReceiptData{
				ContractItemIDs: sub.ContractItemIDs,
				TaxationType:    sub.TaxationType,
				FiscalParams:    params,
			})

			s.logger.Info("receipt printed",
				zap.String("type", sub.Type),
				zap.String("taxation", string(sub.TaxationType)),
				zap.Stringer("total", sub.Total()),
				zap.Int("document", params.FiscalDocumentNumber),
			)
		}

		return nil
	})
	if err != nil {
		if len(resp.Data) > 0 {
			return resp, &PartialReceiptError{Printed: resp.Data, Err: err}
		}

		return nil, err
	}

	return resp, nil
}

func (s *Service) PrintCorrection(ctx context.Context, c receipt.Correction) (*CorrectionResponse, error) {
	var resp *CorrectionResponse

	err := s.session.Do(ctx, func(ctx context.Context, conn *device.Conn) error {
		cashier, err := s.shifts.RequireOpenOperator(ctx, conn)
		if err != nil {
			return err
		}

		version, err := conn.FFDVersion(ctx)
		if err != nil {
			return err
		}

		task, err := receipt.ComposeCorrection(c, version)
		if err != nil {
			return err
		}

		task.Operator = cashier.Operator()

		res, err := conn.Execute(ctx, task)
		if err != nil {
			return err
		}

		resp = &CorrectionResponse{FiscalParams: res.FiscalParams}

		s.logger.Info("correction printed", zap.Stringer("sum", c.Sum), zap.String("ffd", version))

		return nil
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// CheckConnection opens the device and reads its status.
func (s *Service) CheckConnection(ctx context.Context) (*ConnectionStatus, error) {
	var status *ConnectionStatus

	err := s.session.Do(ctx, func(ctx context.Context, conn *device.Conn) error {
		st, err := conn.Status(ctx)
		if err != nil {
			return err
		}

		model, err := conn.QueryParam(ctx, device.ParamModelName)
		if err != nil {
			return err
		}

		serial, err := conn.QueryParam(ctx, device.ParamSerialNumber)
		if err != nil {
			return err
		}

		version, err := conn.FFDVersion(ctx)
		if err != nil {
			return err
		}

		status = &ConnectionStatus{
			Shift:       st.Shift,
			ShiftNumber: st.ShiftNumber,
			Model:       model,
			Serial:      serial,
			FFDVersion:  version,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return status, nil
}
