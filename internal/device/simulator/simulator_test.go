package simulator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skytecs/hermes/internal/device"
	"github.com/skytecs/hermes/internal/device/simulator"
)

func TestDevice_ShiftCycle(t *testing.T) {
	sim := simulator.New("1.05")
	s := device.NewSession(sim, zap.NewNop())
	ctx := context.Background()

	err := s.Do(ctx, func(ctx context.Context, conn *device.Conn) error {
		state, err := conn.ShiftState(ctx)
		require.NoError(t, err)
		assert.Equal(t, device.ShiftClosed, state)

		res, err := conn.Execute(ctx, device.OperatorTask{Type: device.TaskOpenShift, Operator: device.Operator{Name: "Ivanova"}})
		require.NoError(t, err)
		require.NotNil(t, res.FiscalParams)
		assert.Equal(t, 1, res.FiscalParams.ShiftNumber)

		_, err = conn.Execute(ctx, device.OperatorTask{Type: device.TaskOpenShift})

		var fault *device.Fault
		require.ErrorAs(t, err, &fault)
		assert.Equal(t, device.CodeDeniedInOpenedShift, fault.Code)

		_, err = conn.Execute(ctx, device.OperatorTask{Type: device.TaskCloseShift})
		require.NoError(t, err)

		version, err := conn.FFDVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, "1.05", version)

		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{device.TaskOpenShift, device.TaskOpenShift, device.TaskCloseShift}, sim.TaskTypes())
}

func TestDevice_Unavailable(t *testing.T) {
	sim := simulator.New("1.05")
	sim.SetUnavailable(true)

	err := device.NewSession(sim, zap.NewNop()).Do(context.Background(), func(context.Context, *device.Conn) error {
		return nil
	})
	assert.ErrorIs(t, err, device.ErrUnavailable)
}

func TestDevice_FailNext(t *testing.T) {
	sim := simulator.New("1.05")
	sim.SetShift(device.ShiftOpened)
	sim.FailNext(&device.Fault{Code: device.CodeNoPaper})

	err := device.NewSession(sim, zap.NewNop()).Do(context.Background(), func(ctx context.Context, conn *device.Conn) error {
		_, err := conn.Execute(ctx, device.OperatorTask{Type: device.TaskReportX})
		return err
	})

	var fault *device.Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, device.CodeNoPaper, fault.Code)
}

func TestDevice_FailAfter(t *testing.T) {
	sim := simulator.New("1.05")
	sim.SetShift(device.ShiftOpened)
	sim.FailAfter(1, &device.Fault{Code: device.CodeNoPaper})

	var first, second, third error

	err := device.NewSession(sim, zap.NewNop()).Do(context.Background(), func(ctx context.Context, conn *device.Conn) error {
		_, first = conn.Execute(ctx, device.OperatorTask{Type: device.TaskReportX})
		_, second = conn.Execute(ctx, device.OperatorTask{Type: device.TaskReportX})
		_, third = conn.Execute(ctx, device.OperatorTask{Type: device.TaskReportX})
		return nil
	})
	require.NoError(t, err)

	assert.NoError(t, first)

	var fault *device.Fault
	require.ErrorAs(t, second, &fault)
	assert.Equal(t, device.CodeNoPaper, fault.Code)

	assert.NoError(t, third)
}
