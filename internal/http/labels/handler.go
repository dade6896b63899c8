package labels

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/skytecs/hermes/internal/encoding"
	"github.com/skytecs/hermes/internal/labels"
	"github.com/skytecs/hermes/internal/receipt"
)

const maxBodySize = 1 << 20

type Handler struct {
	printer *labels.Printer
	logger  *zap.Logger
}

func NewHandler(printer *labels.Printer, logger *zap.Logger) *Handler {
	return &Handler{
		printer: printer,
		logger:  logger.Named("http"),
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/printLabels", h.print)
}

type printRequest struct {
	Labels string `json:"labels"`
}

func (h *Handler) print(w http.ResponseWriter, r *http.Request) {
	text, err := readLabels(http.MaxBytesReader(w, r.Body, maxBodySize), r.Header.Get("Content-Type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.printer.Print(r.Context(), text); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// readLabels accepts {"labels": "..."} or the label program itself in any
// charset NewUTF8Reader recognizes.
func readLabels(body io.Reader, contentType string) (string, error) {
	if mediaType, _, _ := mime.ParseMediaType(contentType); mediaType == "application/json" {
		var req printRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return "", fmt.Errorf("%w: decoding request: %w", receipt.ErrValidation, err)
		}

		return req.Labels, nil
	}

	rd, err := encoding.NewUTF8Reader(body)
	if err != nil {
		return "", fmt.Errorf("reading labels: %w", err)
	}

	data, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("reading labels: %w", err)
	}

	return string(data), nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
