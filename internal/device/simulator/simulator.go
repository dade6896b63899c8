// Package simulator provides an in-memory fiscal device. It follows the same
// shift rules as real hardware and is used for local runs and end-to-end tests.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skytecs/hermes/internal/device"
)

type Device struct {
	mu sync.Mutex

	connected   bool
	unavailable bool
	fail        *device.Fault
	failAfter   int

	shift         device.ShiftState
	shiftNumber   int
	docNumber     int
	receiptNumber int
	receipts      int
	ffdVersion    string

	tasks []json.RawMessage
}

func New(ffdVersion string) *Device {
	return &Device{
		shift:      device.ShiftClosed,
		ffdVersion: ffdVersion,
	}
}

func (d *Device) Open(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.unavailable {
		return &device.Fault{Code: device.CodeNoConnection}
	}

	d.connected = true

	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.connected = false

	return nil
}

func (d *Device) Status(context.Context) (*device.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil, &device.Fault{Code: device.CodeConnectionDisabled}
	}

	return &device.Status{Shift: d.shift, ShiftNumber: d.shiftNumber}, nil
}

func (d *Device) QueryParam(_ context.Context, param device.Param) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return "", &device.Fault{Code: device.CodeConnectionDisabled}
	}

	switch param {
	case device.ParamFFDVersion:
		return d.ffdVersion, nil
	case device.ParamModelName:
		return "Simulator", nil
	case device.ParamSerialNumber:
		return "00000000000001", nil
	}

	return "", &device.Fault{Code: device.CodeInvalidParam, Description: fmt.Sprintf("unknown parameter %q", param)}
}

type taskEnvelope struct {
	Type     string `json:"type"`
	Payments []struct {
		Sum decimal.Decimal `json:"sum"`
	} `json:"payments"`
}

func (d *Device) ExecuteJSON(_ context.Context, task []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil, &device.Fault{Code: device.CodeConnectionDisabled}
	}

	d.tasks = append(d.tasks, append(json.RawMessage(nil), task...))

	if f := d.fail; f != nil {
		if d.failAfter == 0 {
			d.fail = nil
			return nil, f
		}

		d.failAfter--
	}

	var env taskEnvelope
	if err := json.Unmarshal(task, &env); err != nil {
		return nil, &device.Fault{Code: device.CodeIncorrectData, Description: err.Error()}
	}

	switch env.Type {
	case device.TaskOpenShift:
		if err := d.requireShift(device.ShiftClosed); err != nil {
			return nil, err
		}

		d.shift = device.ShiftOpened
		d.shiftNumber++
		d.receipts = 0

		return d.fiscalResult(decimal.Zero)

	case device.TaskCloseShift:
		if d.shift == device.ShiftClosed {
			return nil, &device.Fault{Code: device.CodeDeniedInClosedShift}
		}

		d.shift = device.ShiftClosed

		return d.fiscalResult(decimal.Zero)

	case device.TaskReportX:
		if err := d.requireShift(device.ShiftOpened); err != nil {
			return nil, err
		}

		return []byte(`{}`), nil

	case device.TaskSell, device.TaskSellReturn, device.TaskSellCorrection:
		if err := d.requireShift(device.ShiftOpened); err != nil {
			return nil, err
		}

		total := decimal.Zero
		for _, p := range env.Payments {
			total = total.Add(p.Sum)
		}

		d.receiptNumber++
		d.receipts++

		return d.fiscalResult(total)

	case device.TaskGetDeviceStatus:
		return []byte(`{"deviceStatus":{"blocked":false}}`), nil
	}

	return nil, &device.Fault{Code: device.CodeNotSupported, Description: fmt.Sprintf("unsupported task %q", env.Type)}
}

func (d *Device) requireShift(want device.ShiftState) error {
	if d.shift == want {
		return nil
	}

	switch d.shift {
	case device.ShiftExpired:
		return &device.Fault{Code: device.CodeShiftExpired}
	case device.ShiftOpened:
		return &device.Fault{Code: device.CodeDeniedInOpenedShift}
	}

	return &device.Fault{Code: device.CodeDeniedInClosedShift}
}

func (d *Device) fiscalResult(total decimal.Decimal) ([]byte, error) {
	d.docNumber++

	params := device.FiscalParams{
		Total:                  total,
		FiscalDocumentNumber:   d.docNumber,
		FiscalDocumentSign:     fmt.Sprintf("%010d", 3000000000+d.docNumber),
		FiscalDocumentDateTime: time.Now().Format("2006-01-02T15:04:05"),
		FiscalReceiptNumber:    d.receiptNumber,
		ShiftNumber:            d.shiftNumber,
		ReceiptsCount:          d.receipts,
		FnNumber:               "9999078900004312",
		RegistrationNumber:     "0000000001002233",
		FnsURL:                 "www.nalog.ru",
	}

	return json.Marshal(map[string]device.FiscalParams{"fiscalParams": params})
}

// SetShift forces the shift state, for example to simulate auto-expiry.
func (d *Device) SetShift(state device.ShiftState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.shift = state
}

// SetUnavailable makes subsequent Open calls fail as if the port were gone.
func (d *Device) SetUnavailable(v bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.unavailable = v
}

// FailNext makes the next executed task fail with f.
func (d *Device) FailNext(f *device.Fault) {
	d.FailAfter(0, f)
}

// FailAfter lets n tasks run and fails the one after them with f.
func (d *Device) FailAfter(n int, f *device.Fault) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.fail = f
	d.failAfter = n
}

// Tasks returns every task passed to ExecuteJSON, in order.
func (d *Device) Tasks() []json.RawMessage {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]json.RawMessage, len(d.tasks))
	copy(out, d.tasks)

	return out
}

// TaskTypes returns the "type" of every executed task, in order.
func (d *Device) TaskTypes() []string {
	tasks := d.Tasks()
	types := make([]string, 0, len(tasks))

	for _, t := range tasks {
		var env taskEnvelope
		_ = json.Unmarshal(t, &env)
		types = append(types, env.Type)
	}

	return types
}
