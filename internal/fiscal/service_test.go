package fiscal_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skytecs/hermes/internal/device"
	"github.com/skytecs/hermes/internal/device/simulator"
	"github.com/skytecs/hermes/internal/fiscal"
	"github.com/skytecs/hermes/internal/receipt"
	"github.com/skytecs/hermes/internal/shift"
	"github.com/skytecs/hermes/internal/shift/store"
)

type fixture struct {
	sim     *simulator.Device
	store   *store.Store
	service *fiscal.Service
}

func newFixture(t *testing.T, ffdVersion string) *fixture {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)

	st := store.New(db)
	t.Cleanup(func() { _ = st.Close() })

	sim := simulator.New(ffdVersion)
	logger := zap.NewNop()

	return &fixture{
		sim:     sim,
		store:   st,
		service: fiscal.NewService(device.NewSession(sim, logger), shift.NewMachine(st, logger), logger),
	}
}

// openShift puts the device and the store into an opened shift for Ivanova.
func (f *fixture) openShift(t *testing.T) {
	t.Helper()

	f.sim.SetShift(device.ShiftOpened)
	require.NoError(t, f.store.Save(context.Background(), &shift.CashierSession{
		SessionID:    uuid.New(),
		CashierID:    7,
		CashierName:  "Ivanova",
		SessionStart: time.Now(),
	}))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type deviceTask struct {
	Type         string `json:"type"`
	TaxationType string `json:"taxationType"`
	Operator     struct {
		Name string `json:"name"`
	} `json:"operator"`
	Items []struct {
		Name string `json:"name"`
		Tax  struct {
			Type string `json:"type"`
		} `json:"tax"`
	} `json:"items"`
	Payments []struct {
		Type string  `json:"type"`
		Sum  float64 `json:"sum"`
	} `json:"payments"`
}

func decodeTask(t *testing.T, raw json.RawMessage) deviceTask {
	t.Helper()

	var task deviceTask
	require.NoError(t, json.Unmarshal(raw, &task))

	return task
}

func TestService_EndToEnd(t *testing.T) {
	f := newFixture(t, "1.05")
	ctx := context.Background()

	opened, err := f.service.OpenSession(ctx, fiscal.OpenSessionRequest{CashierID: 7, CashierName: "Ivanova"})
	require.NoError(t, err)
	assert.Equal(t, 7, opened.CashierID)
	require.NotNil(t, opened.FiscalParams)
	assert.Equal(t, 1, opened.FiscalParams.ShiftNumber)

	resp, err := f.service.PrintReceipt(ctx, receipt.Receipt{Items: []receipt.Item{
		{ContractItemIDs: []int64{101}, Description: "Consultation", UnitPrice: dec("100.00"), Quantity: dec("1"), VatType: receipt.Vat18, TaxationType: receipt.TaxationOSN},
		{ContractItemIDs: []int64{102}, Description: "Dressing", UnitPrice: dec("50.00"), Quantity: dec("2"), VatType: receipt.VatNone, TaxationType: receipt.TaxationOSN},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, []int64{101, 102}, resp.Data[0].ContractItemIDs)
	assert.True(t, resp.Data[0].FiscalParams.Total.Equal(dec("200")))

	tasks := f.sim.Tasks()
	require.Len(t, tasks, 2)

	sell := decodeTask(t, tasks[1])
	assert.Equal(t, "sell", sell.Type)
	assert.Equal(t, "osn", sell.TaxationType)
	assert.Equal(t, "Ivanova", sell.Operator.Name)
	require.Len(t, sell.Payments, 1)
	assert.Equal(t, "cash", sell.Payments[0].Type)
	assert.InDelta(t, 200.00, sell.Payments[0].Sum, 0.001)
	require.Len(t, sell.Items, 2)
	assert.Equal(t, "vat18", sell.Items[0].Tax.Type)
	assert.Equal(t, "none", sell.Items[1].Tax.Type)

	_, err = f.service.PrintRefund(ctx, receipt.Receipt{IsPaidByCard: true, Items: []receipt.Item{
		{Description: "Dressing", UnitPrice: dec("50.00"), Quantity: dec("1"), TaxationType: receipt.TaxationOSN},
	}})
	require.NoError(t, err)

	correction, err := f.service.PrintCorrection(ctx, receipt.Correction{Sum: dec("300"), TaxationType: receipt.TaxationUSNIncome})
	require.NoError(t, err)
	require.NotNil(t, correction.FiscalParams)

	require.NoError(t, f.service.XReport(ctx))

	z, err := f.service.ZReport(ctx)
	require.NoError(t, err)
	assert.False(t, z.AlreadyClosed)
	require.NotNil(t, z.FiscalParams)
	assert.Equal(t, 3, z.FiscalParams.ReceiptsCount)

	_, err = f.store.Get(ctx)
	assert.ErrorIs(t, err, shift.ErrSessionNotFound)

	z, err = f.service.ZReport(ctx)
	require.NoError(t, err)
	assert.True(t, z.AlreadyClosed)

	assert.Equal(t, []string{
		device.TaskOpenShift,
		device.TaskSell,
		device.TaskSellReturn,
		device.TaskSellCorrection,
		device.TaskReportX,
		device.TaskCloseShift,
	}, f.sim.TaskTypes())
}

func TestService_ExpiredShiftBlocksPrinting(t *testing.T) {
	r := receipt.Receipt{Items: []receipt.Item{
		{Description: "Consultation", UnitPrice: dec("1000"), Quantity: dec("1"), TaxationType: receipt.TaxationOSN},
	}}

	ops := map[string]func(ctx context.Context, s *fiscal.Service) error{
		"receipt": func(ctx context.Context, s *fiscal.Service) error {
			_, err := s.PrintReceipt(ctx, r)
			return err
		},
		"refund": func(ctx context.Context, s *fiscal.Service) error {
			_, err := s.PrintRefund(ctx, r)
			return err
		},
		"correction": func(ctx context.Context, s *fiscal.Service) error {
			_, err := s.PrintCorrection(ctx, receipt.Correction{Sum: dec("10"), TaxationType: receipt.TaxationOSN})
			return err
		},
		"openSession": func(ctx context.Context, s *fiscal.Service) error {
			_, err := s.OpenSession(ctx, fiscal.OpenSessionRequest{CashierID: 7, CashierName: "Ivanova"})
			return err
		},
		"xReport": func(ctx context.Context, s *fiscal.Service) error {
			return s.XReport(ctx)
		},
	}

	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, "1.05")
			f.openShift(t)
			f.sim.SetShift(device.ShiftExpired)

			err := op(context.Background(), f.service)
			assert.ErrorIs(t, err, shift.ErrShiftExpired)
			assert.Empty(t, f.sim.Tasks())
		})
	}
}

func TestService_ClosedShiftBlocksPrinting(t *testing.T) {
	f := newFixture(t, "1.05")

	_, err := f.service.PrintReceipt(context.Background(), receipt.Receipt{Items: []receipt.Item{
		{Description: "Consultation", UnitPrice: dec("1000"), Quantity: dec("1"), TaxationType: receipt.TaxationOSN},
	}})
	assert.ErrorIs(t, err, shift.ErrShiftClosed)
	assert.Empty(t, f.sim.Tasks())
}

func TestService_PrintCorrectionVersionGate(t *testing.T) {
	c := receipt.Correction{
		Sum:                  dec("1500"),
		VatType:              receipt.Vat20,
		TaxationType:         receipt.TaxationOSN,
		CorrectionBaseName:   "Act",
		CorrectionBaseDate:   receipt.NewDate(2026, time.October, 1),
		CorrectionBaseNumber: "12",
	}

	t.Run("NewFormatRequiresCorrectionType", func(t *testing.T) {
		f := newFixture(t, "1.1")
		f.openShift(t)

		_, err := f.service.PrintCorrection(context.Background(), c)
		assert.ErrorIs(t, err, receipt.ErrIncompleteCorrectionMetadata)
		assert.ErrorContains(t, err, "correctionType")
		assert.Empty(t, f.sim.Tasks())
	})

	t.Run("OldFormatOmitsMetadata", func(t *testing.T) {
		f := newFixture(t, "1.0")
		f.openShift(t)

		_, err := f.service.PrintCorrection(context.Background(), c)
		require.NoError(t, err)

		tasks := f.sim.Tasks()
		require.Len(t, tasks, 1)

		var sent map[string]any
		require.NoError(t, json.Unmarshal(tasks[0], &sent))
		assert.Equal(t, "sellCorrection", sent["type"])
		assert.NotContains(t, sent, "correctionType")
		assert.NotContains(t, sent, "correctionBaseName")
		assert.NotContains(t, sent, "correctionBaseDate")
		assert.NotContains(t, sent, "correctionBaseNumber")
	})
}

func TestService_SplitsReceiptByTaxation(t *testing.T) {
	f := newFixture(t, "1.05")
	f.openShift(t)

	resp, err := f.service.PrintReceipt(context.Background(), receipt.Receipt{Items: []receipt.Item{
		{ContractItemIDs: []int64{1}, Description: "Consultation", UnitPrice: dec("1000"), Quantity: dec("1"), TaxationType: receipt.TaxationPatent},
		{ContractItemIDs: []int64{2}, Description: "Vitamins", UnitPrice: dec("250"), Quantity: dec("2"), VatType: receipt.Vat10, TaxationType: receipt.TaxationOSN},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)

	assert.Equal(t, receipt.TaxationPatent, resp.Data[0].TaxationType)
	assert.Equal(t, []int64{1}, resp.Data[0].ContractItemIDs)
	assert.True(t, resp.Data[0].FiscalParams.Total.Equal(dec("1000")))

	assert.Equal(t, receipt.TaxationOSN, resp.Data[1].TaxationType)
	assert.Equal(t, []int64{2}, resp.Data[1].ContractItemIDs)
	assert.True(t, resp.Data[1].FiscalParams.Total.Equal(dec("500")))

	assert.Equal(t, []string{device.TaskSell, device.TaskSell}, f.sim.TaskTypes())
}

func TestService_SubReceiptFailureStops(t *testing.T) {
	f := newFixture(t, "1.05")
	f.openShift(t)
	f.sim.FailNext(&device.Fault{Code: device.CodeNoPaper})

	resp, err := f.service.PrintReceipt(context.Background(), receipt.Receipt{Items: []receipt.Item{
		{Description: "Consultation", UnitPrice: dec("1000"), Quantity: dec("1"), TaxationType: receipt.TaxationPatent},
		{Description: "Vitamins", UnitPrice: dec("250"), Quantity: dec("2"), TaxationType: receipt.TaxationOSN},
	}})

	var fault *device.Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, device.CodeNoPaper, fault.Code)
	assert.ErrorContains(t, err, "sub-receipt 1 of 2 (patent)")
	assert.Nil(t, resp)
	assert.Len(t, f.sim.Tasks(), 1)
}

func TestService_PartialReceiptKeepsPrintedDocuments(t *testing.T) {
	f := newFixture(t, "1.05")
	f.openShift(t)
	f.sim.FailAfter(1, &device.Fault{Code: device.CodeNoPaper})

	resp, err := f.service.PrintReceipt(context.Background(), receipt.Receipt{Items: []receipt.Item{
		{ContractItemIDs: []int64{1}, Description: "Consultation", UnitPrice: dec("1000"), Quantity: dec("1"), TaxationType: receipt.TaxationPatent},
		{ContractItemIDs: []int64{2}, Description: "Vitamins", UnitPrice: dec("250"), Quantity: dec("2"), TaxationType: receipt.TaxationOSN},
	}})

	var partial *fiscal.PartialReceiptError
	require.ErrorAs(t, err, &partial)

	var fault *device.Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, device.CodeNoPaper, fault.Code)
	assert.ErrorContains(t, err, "sub-receipt 2 of 2 (osn)")

	require.NotNil(t, resp)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, []int64{1}, resp.Data[0].ContractItemIDs)
	assert.Equal(t, receipt.TaxationPatent, resp.Data[0].TaxationType)
	require.NotNil(t, resp.Data[0].FiscalParams)
	assert.Equal(t, resp.Data, partial.Printed)

	doc := resp.Data[0].FiscalParams.FiscalDocumentNumber
	assert.ErrorContains(t, err, fmt.Sprintf("already printed: document %d (patent)", doc))
	assert.Len(t, f.sim.Tasks(), 2)
}

func TestService_ValidationBeforeDevice(t *testing.T) {
	f := newFixture(t, "1.05")
	f.sim.SetUnavailable(true)

	_, err := f.service.PrintReceipt(context.Background(), receipt.Receipt{Items: []receipt.Item{
		{Description: "Consultation", UnitPrice: dec("1000"), Quantity: dec("1")},
	}})
	assert.ErrorIs(t, err, receipt.ErrMissingTaxationType)

	_, err = f.service.OpenSession(context.Background(), fiscal.OpenSessionRequest{CashierID: 7})
	assert.ErrorIs(t, err, receipt.ErrValidation)
}

func TestService_CheckConnection(t *testing.T) {
	f := newFixture(t, "1.05")
	f.openShift(t)

	status, err := f.service.CheckConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, device.ShiftOpened, status.Shift)
	assert.Equal(t, "Simulator", status.Model)
	assert.Equal(t, "1.05", status.FFDVersion)

	f.sim.SetUnavailable(true)

	_, err = f.service.CheckConnection(context.Background())
	assert.ErrorIs(t, err, device.ErrUnavailable)
}
