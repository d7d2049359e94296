package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/catalog"
	"github.com/MMMiaotl/IngRenoQuote/internal/domain/quote"
	"github.com/MMMiaotl/IngRenoQuote/internal/infra/metrics"
	"github.com/MMMiaotl/IngRenoQuote/internal/infra/notify"
	"github.com/MMMiaotl/IngRenoQuote/internal/render"
)

// History хранит историю смет (Postgres). nil означает, что история выключена.
type History interface {
	Save(ctx context.Context, q quote.Quote) error
	Get(ctx context.Context, id string) (*quote.Quote, error)
	List(ctx context.Context, limit int) ([]quote.Summary, error)
}

// Exporter кодирует прайс в xlsx для скачивания.
type Exporter interface {
	Export(rows []catalog.Row) ([]byte, error)
}

type Deps struct {
	Log      *slog.Logger
	Store    *catalog.Store
	Exporter Exporter
	PDF      render.PDFRenderer
	History  History
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

type Handler struct {
	log      *slog.Logger
	store    *catalog.Store
	exporter Exporter
	pdf      render.PDFRenderer
	history  History
	notify   notify.Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		log:      d.Log,
		store:    d.Store,
		exporter: d.Exporter,
		pdf:      d.PDF,
		history:  d.History,
		notify:   d.Notifier,
		metrics:  d.Metrics,
		now:      d.Now,
	}
	if h.notify == nil {
		h.notify = notify.Nop{}
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Register вешает все маршруты API на mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/prices", h.prices)
	mux.HandleFunc("GET /api/categories", h.categories)
	mux.HandleFunc("GET /api/subcategories/{category}", h.subCategories)
	mux.HandleFunc("GET /api/items/{category}", h.items)
	mux.HandleFunc("GET /api/items/{category}/{subcategory}", h.items)
	mux.HandleFunc("GET /api/packages/{category}/{subcategory}", h.pkg)

	mux.HandleFunc("POST /api/calculate", h.calculate)
	mux.HandleFunc("POST /api/generate-pdf", h.generatePDF)
	mux.HandleFunc("POST /api/quote-html", h.quoteHTML)
	mux.HandleFunc("GET /api/quotes", h.listQuotes)
	mux.HandleFunc("GET /api/quotes/{id}", h.getQuote)

	mux.HandleFunc("GET /api/admin/prices", h.adminList)
	mux.HandleFunc("POST /api/admin/prices", h.adminAdd)
	mux.HandleFunc("PUT /api/admin/prices", h.adminReplace)
	mux.HandleFunc("PUT /api/admin/prices/{index}", h.adminUpdate)
	mux.HandleFunc("DELETE /api/admin/prices/{index}", h.adminDelete)
	mux.HandleFunc("POST /api/admin/save-excel", h.adminSave)
	mux.HandleFunc("GET /api/admin/export-excel", h.adminExport)
	mux.HandleFunc("POST /api/admin/reload", h.adminReload)
	mux.HandleFunc("GET /api/admin/stats", h.adminStats)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	body := errorBody{Error: msg}
	if err != nil {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}

// fail переводит доменные ошибки в HTTP-статусы.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *catalog.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, "validation failed", err)
	case errors.Is(err, quote.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "invalid quantity", err)
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "item not found", err)
	case errors.Is(err, catalog.ErrHierarchyUnavailable):
		writeError(w, http.StatusConflict, "catalog loaded without categories, fix the price file and reload", err)
	case errors.Is(err, render.ErrRender):
		h.log.Error("render failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to generate document", err)
	default:
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return false
	}
	return true
}
