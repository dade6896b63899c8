package fiscal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/skytecs/hermes/internal/fiscal"
	"github.com/skytecs/hermes/internal/ledger"
	"github.com/skytecs/hermes/internal/receipt"
)

const defaultOperationsLimit = 100

type Handler struct {
	svc        *fiscal.Service
	operations *ledger.Service
	logger     *zap.Logger
}

func NewHandler(svc *fiscal.Service, operations *ledger.Service, logger *zap.Logger) *Handler {
	return &Handler{
		svc:        svc,
		operations: operations,
		logger:     logger.Named("http"),
	}
}

// Routes mirrors the bus methods. Parameterless operations accept any verb.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/receipt", h.receipt)
	r.Post("/refund", h.refund)
	r.Post("/correction", h.correction)
	r.HandleFunc("/opensession/{cashierId}", h.openSession)
	r.HandleFunc("/zreport", h.zReport)
	r.HandleFunc("/xreport", h.xReport)
	r.HandleFunc("/check", h.check)
	r.Get("/operations", h.listOperations)
}

func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	var req receipt.Receipt
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.svc.PrintReceipt(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, resp)
}

func (h *Handler) refund(w http.ResponseWriter, r *http.Request) {
	var req receipt.Receipt
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.svc.PrintRefund(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, resp)
}

func (h *Handler) correction(w http.ResponseWriter, r *http.Request) {
	var req receipt.Correction
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.svc.PrintCorrection(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, resp)
}

func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	cashierID, err := strconv.Atoi(chi.URLParam(r, "cashierId"))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: invalid cashier id %q", receipt.ErrValidation, chi.URLParam(r, "cashierId")))
		return
	}

	resp, err := h.svc.OpenSession(r.Context(), fiscal.OpenSessionRequest{
		CashierID:    cashierID,
		CashierName:  r.URL.Query().Get("name"),
		CashierVATIN: r.URL.Query().Get("vatin"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, resp)
}

func (h *Handler) zReport(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.ZReport(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, resp)
}

func (h *Handler) xReport(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.XReport(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.CheckConnection(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, resp)
}

func (h *Handler) listOperations(w http.ResponseWriter, r *http.Request) {
	filter := ledger.ListFilter{Limit: defaultOperationsLimit}

	if s := r.URL.Query().Get("unconfirmed"); s != "" {
		if v, err := strconv.ParseBool(s); err == nil {
			filter.UnconfirmedOnly = v
		}
	}

	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			filter.Limit = v
		}
	}

	ops, err := h.operations.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if ops == nil {
		ops = []*ledger.Operation{}
	}

	h.respond(w, ops)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decoding request: %w", receipt.ErrValidation, err)
	}

	return nil
}

func (h *Handler) respond(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// fail answers 500 with the error text for every failure.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
