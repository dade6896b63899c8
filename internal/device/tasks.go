package device

// Command task types understood by the device.
const (
	TaskOpenShift       = "openShift"
	TaskCloseShift      = "closeShift"
	TaskReportX         = "reportX"
	TaskSell            = "sell"
	TaskSellReturn      = "sellReturn"
	TaskSellCorrection  = "sellCorrection"
	TaskGetShiftStatus  = "getShiftStatus"
	TaskGetDeviceInfo   = "getDeviceInfo"
	TaskGetDeviceStatus = "getDeviceStatus"
)

// OperatorTask is a command that carries nothing but the operator, such as
// opening or closing a shift and printing an X-report.
type OperatorTask struct {
	Type     string   `json:"type"`
	Operator Operator `json:"operator"`
}

func (t OperatorTask) TaskType() string { return t.Type }

// QueryTask is a parameterless query.
type QueryTask struct {
	Type string `json:"type"`
}

func (t QueryTask) TaskType() string { return t.Type }
