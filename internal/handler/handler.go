// Package handler exposes the batch console to the presentation layer as a
// small JSON API.
package handler

import (
	"io"
	"net/http"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/vending-console/internal/domain/batch"
	"github.com/xenking/vending-console/internal/domain/catalog"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Handler serves the batch console API. The engine and its session are
// single-operator, so every request runs under one mutex.
type Handler struct {
	mu     sync.Mutex
	engine *batch.Engine
}

// NewHandler constructs a Handler over the given engine.
func NewHandler(engine *batch.Engine) *Handler {
	return &Handler{engine: engine}
}

// Register mounts the console routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/batch", h.GetSnapshot)
	mux.HandleFunc("POST /api/batch/toggle", h.ToggleBatchMode)
	mux.HandleFunc("PUT /api/batch/filter", h.SetFilter)
	mux.HandleFunc("PUT /api/batch/selection", h.SetSelection)
	mux.HandleFunc("POST /api/batch/select-all", h.ToggleSelectAll)
	mux.HandleFunc("POST /api/batch/price", h.ApplyPrice)
	mux.HandleFunc("POST /api/batch/retry", h.RetryFailures)
	mux.HandleFunc("POST /api/batch/sale-status", h.ApplySaleStatus)
	mux.HandleFunc("GET /api/items", h.ListVisibleItems)
	mux.HandleFunc("PUT /api/settings/pricing", h.ApplySettings)
}

func (h *Handler) session() *batch.Session {
	return h.engine.Session()
}

// readBody returns a decoder over the request body.
func readBody(r *http.Request) (*jx.Decoder, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return jx.DecodeBytes(data), nil
}

// writeJSON encodes a response body with fn.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// badRequestError marks malformed request bodies.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }

func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error {
	return &badRequestError{err: err}
}

// writeError maps domain errors to HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		msg = "internal error"
	}
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

func errorStatus(err error) int {
	var (
		parseErr    *batch.ParseError
		currencyErr *batch.UnsupportedCurrencyError
		reqErr      *badRequestError
	)
	switch {
	case errors.As(err, &reqErr),
		errors.As(err, &parseErr),
		errors.As(err, &currencyErr),
		errors.Is(err, batch.ErrPriceOrder),
		errors.Is(err, batch.ErrEmptyPriceInput),
		errors.Is(err, batch.ErrTaxRateRange):
		return http.StatusBadRequest
	case errors.Is(err, batch.ErrInactive):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrItemNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
