package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/quote"
	"github.com/MMMiaotl/IngRenoQuote/internal/render"
	"github.com/google/uuid"
)

type calculateRequest struct {
	Items       []quote.Line      `json:"items"`
	ProjectInfo quote.ProjectInfo `json:"projectInfo"`
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if !decode(w, r, &req) {
		return
	}
	q, err := quote.Calculate(h.store.Rows(), req.Items, req.ProjectInfo, h.now)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.metrics.Quotes.Inc()
	total, _ := q.TotalAmount.Float64()
	h.metrics.QuoteTotal.Observe(total)

	if h.history != nil {
		if err := h.history.Save(r.Context(), q); err != nil {
			h.log.Error("save quote history", "quote_id", q.ID, "err", err)
		}
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *Handler) generatePDF(w http.ResponseWriter, r *http.Request) {
	var q quote.Quote
	if !decode(w, r, &q) {
		return
	}
	pdf, err := h.pdf.PDF(r.Context(), q)
	if err != nil {
		h.metrics.Renders.WithLabelValues("pdf", "error").Inc()
		h.fail(w, r, err)
		return
	}
	h.metrics.Renders.WithLabelValues("pdf", "ok").Inc()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="quote.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	_, _ = w.Write(pdf)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 10*time.Second)
	defer cancel()
	h.notify.QuotePDF(ctx, q, pdf)
}

func (h *Handler) quoteHTML(w http.ResponseWriter, r *http.Request) {
	var q quote.Quote
	if !decode(w, r, &q) {
		return
	}
	html, err := render.HTML(q)
	if err != nil {
		h.metrics.Renders.WithLabelValues("html", "error").Inc()
		h.fail(w, r, err)
		return
	}
	h.metrics.Renders.WithLabelValues("html", "ok").Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(html)
}

func (h *Handler) listQuotes(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "quote history is disabled", nil)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := h.history.List(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []quote.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getQuote(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "quote history is disabled", nil)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid quote id", err)
		return
	}
	q, err := h.history.Get(r.Context(), id.String())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if q == nil {
		writeError(w, http.StatusNotFound, "quote not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, q)
}
