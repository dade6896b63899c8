// Package command defines the commands the clinic can send over the bus.
// Each method name maps to exactly one command type.
package command

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/skytecs/hermes/internal/receipt"
)

type Method string

const (
	MethodOpenSession Method = "openSession"
	MethodReceipt     Method = "receipt"
	MethodRefund      Method = "refund"
	MethodCorrection  Method = "correction"
	MethodXReport     Method = "xReport"
	MethodZReport     Method = "zReport"
	MethodPrintLabels Method = "printLabels"
)

var ErrUnknownMethod = errors.New("unknown method")

type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownMethod, e.Method)
}

func (e *UnknownMethodError) Unwrap() error {
	return ErrUnknownMethod
}

// Command is implemented by the command types in this package only.
type Command interface {
	Method() Method
	command()
}

type OpenSession struct {
	CashierID    int    `json:"cashierId"`
	CashierName  string `json:"cashierName"`
	CashierVATIN string `json:"cashierVatin"`
}

type PrintReceipt struct {
	Receipt receipt.Receipt
}

type PrintRefund struct {
	Receipt receipt.Receipt
}

type PrintCorrection struct {
	Correction receipt.Correction
}

type XReport struct{}

type ZReport struct{}

type PrintLabels struct {
	Labels string `json:"labels"`
}

func (OpenSession) Method() Method     { return MethodOpenSession }
func (PrintReceipt) Method() Method    { return MethodReceipt }
func (PrintRefund) Method() Method     { return MethodRefund }
func (PrintCorrection) Method() Method { return MethodCorrection }
func (XReport) Method() Method         { return MethodXReport }
func (ZReport) Method() Method         { return MethodZReport }
func (PrintLabels) Method() Method     { return MethodPrintLabels }

func (OpenSession) command()     {}
func (PrintReceipt) command()    {}
func (PrintRefund) command()     {}
func (PrintCorrection) command() {}
func (XReport) command()         {}
func (ZReport) command()         {}
func (PrintLabels) command()     {}

// Known reports whether m names a command.
func (m Method) Known() bool {
	switch m {
	case MethodOpenSession, MethodReceipt, MethodRefund, MethodCorrection,
		MethodXReport, MethodZReport, MethodPrintLabels:
		return true
	}

	return false
}

// Decode builds the command for method from the payload fetched from the
// clinic. Report commands ignore the payload.
func Decode(method Method, payload []byte) (Command, error) {
	switch method {
	case MethodOpenSession:
		var c OpenSession
		if err := unmarshal(method, payload, &c); err != nil {
			return nil, err
		}

		return c, nil

	case MethodReceipt:
		var r receipt.Receipt
		if err := unmarshal(method, payload, &r); err != nil {
			return nil, err
		}

		return PrintReceipt{Receipt: r}, nil

	case MethodRefund:
		var r receipt.Receipt
		if err := unmarshal(method, payload, &r); err != nil {
			return nil, err
		}

		return PrintRefund{Receipt: r}, nil

	case MethodCorrection:
		var c receipt.Correction
		if err := unmarshal(method, payload, &c); err != nil {
			return nil, err
		}

		return PrintCorrection{Correction: c}, nil

	case MethodXReport:
		return XReport{}, nil

	case MethodZReport:
		return ZReport{}, nil

	case MethodPrintLabels:
		var c PrintLabels
		if err := unmarshal(method, payload, &c); err != nil {
			return nil, err
		}

		return c, nil
	}

	return nil, &UnknownMethodError{Method: string(method)}
}

func unmarshal(method Method, payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: decoding %s payload: %w", receipt.ErrValidation, method, err)
	}

	return nil
}
