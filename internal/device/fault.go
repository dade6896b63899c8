package device

import (
	"errors"
	"fmt"
)

// ErrUnavailable means the device could not be reached at all.
var ErrUnavailable = errors.New("device unavailable")

// ErrReleased is returned by a Conn used after its session ended.
var ErrReleased = errors.New("device connection already released")

// Fault is an error reported by the device or its driver. The code and
// description are kept verbatim for cross-referencing vendor documentation.
type Fault struct {
	Code        int
	Description string
}

func (f *Fault) Error() string {
	desc := f.Description
	if desc == "" {
		desc = DescribeCode(f.Code)
	}

	return fmt.Sprintf("device fault %d: %s", f.Code, desc)
}

// Unavailable reports whether the fault means the transport is down rather
// than the device refusing a command.
func (f *Fault) Unavailable() bool {
	switch f.Code {
	case CodeConnectionDisabled, CodeNoConnection, CodePortBusy, CodePortNotAvailable:
		return true
	}

	return false
}

// Atol fptr10 error codes.
const (
	CodeConnectionDisabled    = 1
	CodeNoConnection          = 2
	CodePortBusy              = 3
	CodePortNotAvailable      = 4
	CodeIncorrectData         = 5
	CodeInternal              = 6
	CodeNoRequiredParam       = 8
	CodeNotSupported          = 11
	CodeInvalidMode           = 12
	CodeInvalidParam          = 13
	CodeUnknown               = 15
	CodeInvalidSum            = 16
	CodeInvalidQuantity       = 17
	CodeNoPaper               = 44
	CodeCoverOpened           = 45
	CodePrinterFault          = 46
	CodeMechanicalFault       = 47
	CodeBusy                  = 55
	CodeInvalidPaymentType    = 60
	CodeNotFullyPaid          = 66
	CodeShiftExpired          = 68
	CodeJournalBusy           = 72
	CodeDeniedInClosedShift   = 73
	CodeNoCash                = 80
	CodeDeniedInOpenedReceipt = 82
	CodeDeniedInOpenedShift   = 83
	CodePrinterOverheat       = 114
	CodeFNExchange            = 115
	CodeFNShiftExpired        = 141
	CodeInvalidTaxationType   = 143
	CodeInvalidTaxType        = 144
	CodeNoActiveOperator      = 172
	CodeInvalidFFDVersion     = 190
)

var codeDescriptions = map[int]string{
	CodeConnectionDisabled:    "connection disabled",
	CodeNoConnection:          "no connection to the device",
	CodePortBusy:              "port is busy",
	CodePortNotAvailable:      "port is not available",
	CodeIncorrectData:         "incorrect data from the device",
	CodeInternal:              "internal driver error",
	CodeNoRequiredParam:       "required parameter is missing",
	CodeNotSupported:          "not supported by the device",
	CodeInvalidMode:           "invalid device mode",
	CodeInvalidParam:          "invalid parameter value",
	CodeUnknown:               "unknown device error",
	CodeInvalidSum:            "invalid sum",
	CodeInvalidQuantity:       "invalid quantity",
	CodeNoPaper:               "out of paper",
	CodeCoverOpened:           "cover is open",
	CodePrinterFault:          "printer fault",
	CodeMechanicalFault:       "mechanical fault",
	CodeBusy:                  "device is busy",
	CodeInvalidPaymentType:    "invalid payment type",
	CodeNotFullyPaid:          "receipt is not fully paid",
	CodeShiftExpired:          "shift exceeded 24 hours",
	CodeJournalBusy:           "journal is busy",
	CodeDeniedInClosedShift:   "denied while the shift is closed",
	CodeNoCash:                "not enough cash in the drawer",
	CodeDeniedInOpenedReceipt: "denied while a receipt is open",
	CodeDeniedInOpenedShift:   "denied while the shift is open",
	CodePrinterOverheat:       "printer overheated",
	CodeFNExchange:            "fiscal storage exchange error",
	CodeFNShiftExpired:        "fiscal storage shift exceeded 24 hours",
	CodeInvalidTaxationType:   "invalid taxation type",
	CodeInvalidTaxType:        "invalid VAT type",
	CodeNoActiveOperator:      "no active operator",
	CodeInvalidFFDVersion:     "invalid fiscal data format version",
}

// DescribeCode returns a readable description for a known device error code.
func DescribeCode(code int) string {
	if d, ok := codeDescriptions[code]; ok {
		return d
	}

	return "unrecognized error"
}

// classifyOpen maps an Open failure onto ErrUnavailable where the transport
// itself is down, keeping any Fault reachable through errors.As.
func classifyOpen(err error) error {
	var f *Fault
	if errors.As(err, &f) {
		if f.Unavailable() {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}

		return err
	}

	if errors.Is(err, ErrUnavailable) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
