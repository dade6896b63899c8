package ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/skytecs/hermes/internal/command"
	"github.com/skytecs/hermes/internal/ledger"
)

type mocks struct {
	repo     *ledger.MockRepository
	remote   *ledger.MockRemote
	executor *ledger.MockExecutor
}

const operationID int64 = 42

var receiptPayload = json.RawMessage(`{"items":[{"description":"Consultation","price":200,"quantity":1,"unitPrice":200,"taxationType":"osn","taxType":"none"}]}`)

// created makes Create assign the row id and hands the stored row to check.
func created(m mocks, id int64, check func(op *ledger.Operation)) *gomock.Call {
	return m.repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, op *ledger.Operation) error {
			op.ID = id
			if check != nil {
				check(op)
			}
			return nil
		})
}

func TestService_Handle(t *testing.T) {
	type args struct {
		n ledger.Notification
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m mocks)
	}

	receiptNote := ledger.Notification{Method: "receipt", OperationID: operationID}

	tests := []testCase{
		{
			name: "Success",
			args: args{n: receiptNote},
			setupMock: func(m mocks) {
				m.repo.EXPECT().FindConfirmed(gomock.Any(), operationID).Return(nil, ledger.ErrNotFound)
				created(m, 7, func(op *ledger.Operation) {
					assert.Equal(t, operationID, op.RemoteOperationID)
					assert.Equal(t, "receipt", op.Method)
					assert.False(t, op.ReceivedAt.IsZero())
					assert.Nil(t, op.ConfirmedAt)
				})
				m.remote.EXPECT().FetchOperation(gomock.Any(), operationID).Return(receiptPayload, nil)
				m.executor.EXPECT().
					Execute(gomock.Any(), gomock.AssignableToTypeOf(command.PrintReceipt{})).
					DoAndReturn(func(_ context.Context, cmd command.Command) (any, error) {
						r := cmd.(command.PrintReceipt).Receipt
						require.Len(t, r.Items, 1)
						assert.Equal(t, "Consultation", r.Items[0].Description)
						return nil, nil
					})
				m.remote.EXPECT().ConfirmOperation(gomock.Any(), operationID).Return(nil)
				m.repo.EXPECT().MarkConfirmed(gomock.Any(), int64(7), gomock.Any()).Return(nil)
			},
		},
		{
			name: "AlreadyConfirmed",
			args: args{n: receiptNote},
			setupMock: func(m mocks) {
				at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
				m.repo.EXPECT().
					FindConfirmed(gomock.Any(), operationID).
					Return(&ledger.Operation{ID: 3, RemoteOperationID: operationID, ConfirmedAt: &at}, nil)
				m.remote.EXPECT().ConfirmOperation(gomock.Any(), operationID).Return(nil)
			},
		},
		{
			name: "AlreadyConfirmedConfirmFailureIsNotReported",
			args: args{n: receiptNote},
			setupMock: func(m mocks) {
				at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
				m.repo.EXPECT().
					FindConfirmed(gomock.Any(), operationID).
					Return(&ledger.Operation{ID: 3, RemoteOperationID: operationID, ConfirmedAt: &at}, nil)
				m.remote.EXPECT().ConfirmOperation(gomock.Any(), operationID).Return(ledger.ErrRemoteConfirm)
			},
		},
		{
			name: "UnconfirmedRedeliveryExecutesAgain",
			args: args{n: ledger.Notification{Method: "xReport", OperationID: operationID}},
			setupMock: func(m mocks) {
				m.repo.EXPECT().FindConfirmed(gomock.Any(), operationID).Return(nil, ledger.ErrNotFound)
				created(m, 8, nil)
				m.remote.EXPECT().FetchOperation(gomock.Any(), operationID).Return(json.RawMessage(`{}`), nil)
				m.executor.EXPECT().Execute(gomock.Any(), command.XReport{}).Return(nil, nil)
				m.remote.EXPECT().ConfirmOperation(gomock.Any(), operationID).Return(nil)
				m.repo.EXPECT().MarkConfirmed(gomock.Any(), int64(8), gomock.Any()).Return(nil)
			},
		},
		{
			name: "LookupError",
			args: args{n: receiptNote},
			setupMock: func(m mocks) {
				m.repo.EXPECT().FindConfirmed(gomock.Any(), operationID).Return(nil, errors.New("db error"))
				m.remote.EXPECT().ReportError(gomock.Any(), operationID, gomock.Any()).Return(nil)
			},
		},
		{
			name: "UnknownMethod",
			args: args{n: ledger.Notification{Method: "refundAll", OperationID: operationID}},
			setupMock: func(m mocks) {
				m.repo.EXPECT().FindConfirmed(gomock.Any(), operationID).Return(nil, ledger.ErrNotFound)
				created(m, 9, nil)
				m.repo.EXPECT().MarkFailed(gomock.Any(), int64(9), `unknown method "refundAll"`).Return(nil)
				m.remote.EXPECT().ReportError(gomock.Any(), operationID, `unknown method "refundAll"`).Return(nil)
			},
		},
		{
			name: "FetchError",
			args: args{n: receiptNote},
			setupMock: func(m mocks) {
				m.repo.EXPECT().FindConfirmed(gomock.Any(), operationID).Return(nil, ledger.ErrNotFound)
				created(m, 10, nil)
				m.remote.EXPECT().FetchOperation(gomock.Any(), operationID).Return(nil, ledger.ErrRemoteFetch)
				m.repo.EXPECT().MarkFailed(gomock.Any(), int64(10), ledger.ErrRemoteFetch.Error()).Return(nil)
				m.remote.EXPECT().ReportError(gomock.Any(), operationID, ledger.ErrRemoteFetch.Error()).Return(nil)
			},
		},
		{
			name: "MalformedPayload",
			args: args{n: receiptNote},
			setupMock: func(m mocks) {
				m.repo.EXPECT().FindConfirmed(gomock.Any(), operationID).Return(nil, ledger.ErrNotFound)
				created(m, 11, nil)
				m.remote.EXPECT().FetchOperation(gomock.Any(), operationID).Return(json.RawMessage(`{"items":`), nil)
				m.repo.EXPECT().MarkFailed(gomock.Any(), int64(11), gomock.Any()).Return(nil)
				m.remote.EXPECT().ReportError(gomock.Any(), operationID, gomock.Any()).Return(nil)
			},
		},
		{
			name: "ExecuteError",
			args: args{n: receiptNote},
			setupMock: func(m mocks) {
				m.repo.EXPECT().FindConfirmed(gomock.Any(), operationID).Return(nil, ledger.ErrNotFound)
				created(m, 12, nil)
				m.remote.EXPECT().FetchOperation(gomock.Any(), operationID).Return(receiptPayload, nil)
				m.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, errors.New("shift is expired"))
				m.repo.EXPECT().MarkFailed(gomock.Any(), int64(12), "shift is expired").Return(nil)
				m.remote.EXPECT().ReportError(gomock.Any(), operationID, "shift is expired").Return(nil)
			},
		},
		{
			name: "ConfirmRejectedLeavesRowUnconfirmed",
			args: args{n: receiptNote},
			setupMock: func(m mocks) {
				confirmErr := &ledger.RemoteError{
					Op:         "confirm operation",
					StatusCode: 500,
					Status:     "500 Internal Server Error",
					Err:        ledger.ErrRemoteConfirm,
				}

				m.repo.EXPECT().FindConfirmed(gomock.Any(), operationID).Return(nil, ledger.ErrNotFound)
				created(m, 13, nil)
				m.remote.EXPECT().FetchOperation(gomock.Any(), operationID).Return(receiptPayload, nil)
				m.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, nil)
				m.remote.EXPECT().ConfirmOperation(gomock.Any(), operationID).Return(confirmErr)
				m.repo.EXPECT().MarkFailed(gomock.Any(), int64(13), confirmErr.Error()).Return(nil)
				m.remote.EXPECT().ReportError(gomock.Any(), operationID, confirmErr.Error()).Return(nil)
			},
		},
		{
			name: "MarkConfirmedFailureDoesNotReport",
			args: args{n: receiptNote},
			setupMock: func(m mocks) {
				m.repo.EXPECT().FindConfirmed(gomock.Any(), operationID).Return(nil, ledger.ErrNotFound)
				created(m, 15, nil)
				m.remote.EXPECT().FetchOperation(gomock.Any(), operationID).Return(receiptPayload, nil)
				m.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, nil)
				m.remote.EXPECT().ConfirmOperation(gomock.Any(), operationID).Return(nil)
				m.repo.EXPECT().MarkConfirmed(gomock.Any(), int64(15), gomock.Any()).Return(errors.New("db down"))
			},
		},
		{
			name: "ReportFailureIsSwallowed",
			args: args{n: receiptNote},
			setupMock: func(m mocks) {
				m.repo.EXPECT().FindConfirmed(gomock.Any(), operationID).Return(nil, ledger.ErrNotFound)
				created(m, 14, nil)
				m.remote.EXPECT().FetchOperation(gomock.Any(), operationID).Return(receiptPayload, nil)
				m.executor.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(nil, errors.New("device unavailable"))
				m.repo.EXPECT().MarkFailed(gomock.Any(), int64(14), gomock.Any()).Return(errors.New("db error"))
				m.remote.EXPECT().ReportError(gomock.Any(), operationID, gomock.Any()).Return(ledger.ErrRemoteReport)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := mocks{
				repo:     ledger.NewMockRepository(ctrl),
				remote:   ledger.NewMockRemote(ctrl),
				executor: ledger.NewMockExecutor(ctrl),
			}
			if tt.setupMock != nil {
				tt.setupMock(m)
			}

			svc := ledger.NewService(m.repo, m.remote, m.executor, zap.NewNop())
			svc.Handle(context.Background(), tt.args.n)
		})
	}
}

func TestService_HandleMessage(t *testing.T) {
	type testCase struct {
		name      string
		data      string
		setupMock func(m mocks)
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Dispatched",
			data: `{"method":"zReport","operationId":5}`,
			setupMock: func(m mocks) {
				m.repo.EXPECT().FindConfirmed(gomock.Any(), int64(5)).Return(nil, ledger.ErrNotFound)
				created(m, 1, nil)
				m.remote.EXPECT().FetchOperation(gomock.Any(), int64(5)).Return(json.RawMessage(`{}`), nil)
				m.executor.EXPECT().Execute(gomock.Any(), command.ZReport{}).Return(nil, nil)
				m.remote.EXPECT().ConfirmOperation(gomock.Any(), int64(5)).Return(nil)
				m.repo.EXPECT().MarkConfirmed(gomock.Any(), int64(1), gomock.Any()).Return(nil)
			},
		},
		{
			name: "RemoteOperationIDField",
			data: `{"method":"xReport","remoteOperationId":6}`,
			setupMock: func(m mocks) {
				m.repo.EXPECT().FindConfirmed(gomock.Any(), int64(6)).Return(nil, ledger.ErrNotFound)
				created(m, 2, func(op *ledger.Operation) {
					assert.Equal(t, int64(6), op.RemoteOperationID)
				})
				m.remote.EXPECT().FetchOperation(gomock.Any(), int64(6)).Return(json.RawMessage(`{}`), nil)
				m.executor.EXPECT().Execute(gomock.Any(), command.XReport{}).Return(nil, nil)
				m.remote.EXPECT().ConfirmOperation(gomock.Any(), int64(6)).Return(nil)
				m.repo.EXPECT().MarkConfirmed(gomock.Any(), int64(2), gomock.Any()).Return(nil)
			},
		},
		{
			name:    "NotJSON",
			data:    `hello`,
			wantErr: true,
		},
		{
			name:    "NoOperationID",
			data:    `{"method":"receipt"}`,
			wantErr: true,
		},
		{
			name:    "NoMethod",
			data:    `{"operationId":5}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			m := mocks{
				repo:     ledger.NewMockRepository(ctrl),
				remote:   ledger.NewMockRemote(ctrl),
				executor: ledger.NewMockExecutor(ctrl),
			}
			if tt.setupMock != nil {
				tt.setupMock(m)
			}

			svc := ledger.NewService(m.repo, m.remote, m.executor, zap.NewNop())
			err := svc.HandleMessage(context.Background(), json.RawMessage(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	filter := ledger.ListFilter{UnconfirmedOnly: true, Limit: 10}
	want := []*ledger.Operation{{ID: 1, RemoteOperationID: 42, Method: "receipt"}}

	repo.EXPECT().List(gomock.Any(), filter).Return(want, nil)

	svc := ledger.NewService(repo, ledger.NewMockRemote(ctrl), ledger.NewMockExecutor(ctrl), zap.NewNop())
	got, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
