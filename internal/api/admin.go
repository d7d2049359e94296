package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/catalog"
)

type mutationResponse struct {
	Message string      `json:"message"`
	Data    catalog.Row `json:"data"`
}

type saveResponse struct {
	Message      string `json:"message"`
	Path         string `json:"path"`
	FallbackFile string `json:"fallbackFile,omitempty"`
	BackupPath   string `json:"backupPath,omitempty"`
	Rows         int    `json:"rows"`
}

func (h *Handler) adminList(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	if snap.Kind == catalog.SourceFlat {
		if snap.Flat == nil {
			snap.Flat = []catalog.FlatRecord{}
		}
		writeJSON(w, http.StatusOK, snap.Flat)
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, h.store.Search(catalog.Filter{
		Query:       q.Get("q"),
		Category:    q.Get("category"),
		SubCategory: q.Get("subCategory"),
	}))
}

func (h *Handler) adminAdd(w http.ResponseWriter, r *http.Request) {
	var in catalog.Input
	if !decode(w, r, &in) {
		return
	}
	row, err := in.Row()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	added, err := h.store.Add(row)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.metrics.CatalogRows.Set(float64(len(h.store.Rows())))
	writeJSON(w, http.StatusCreated, mutationResponse{Message: "Item added", Data: added})
}

func (h *Handler) adminUpdate(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	var in catalog.Input
	if !decode(w, r, &in) {
		return
	}
	row, err := in.Row()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	updated, err := h.store.Update(index, row)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Message: "Item updated", Data: updated})
}

func (h *Handler) adminDelete(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	deleted, err := h.store.Delete(index)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.metrics.CatalogRows.Set(float64(len(h.store.Rows())))
	writeJSON(w, http.StatusOK, mutationResponse{Message: "Item deleted", Data: deleted})
}

// adminReplace заменяет прайс целиком и сразу сохраняет его.
// Если запись не удалась, в памяти возвращается прежний прайс.
func (h *Handler) adminReplace(w http.ResponseWriter, r *http.Request) {
	var inputs []catalog.Input
	if !decode(w, r, &inputs) {
		return
	}
	rows := make([]catalog.Row, 0, len(inputs))
	for i, in := range inputs {
		row, err := in.Row()
		if err != nil {
			h.fail(w, r, fmt.Errorf("row %d: %w", i, err))
			return
		}
		rows = append(rows, row)
	}

	prev := h.store.Snapshot()
	if err := h.store.Replace(rows); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.store.Save(r.Context())
	if err != nil {
		h.store.Restore(prev)
		h.saveFailed(w, r, err)
		return
	}
	h.saved(w, r, res)
}

func (h *Handler) adminSave(w http.ResponseWriter, r *http.Request) {
	res, err := h.store.Save(r.Context())
	if err != nil {
		h.saveFailed(w, r, err)
		return
	}
	h.saved(w, r, res)
}

func (h *Handler) saveFailed(w http.ResponseWriter, r *http.Request, err error) {
	h.metrics.Saves.WithLabelValues("error").Inc()
	h.fail(w, r, err)
}

func (h *Handler) saved(w http.ResponseWriter, r *http.Request, res catalog.SaveResult) {
	rows := len(h.store.Rows())
	h.metrics.CatalogRows.Set(float64(rows))
	resp := saveResponse{Path: res.Path, BackupPath: res.BackupPath, Rows: rows}
	if res.Fallback {
		h.metrics.Saves.WithLabelValues("fallback").Inc()
		h.notify.FallbackSave(r.Context(), res)
		resp.Message = "Price file is locked, changes were saved to a separate file"
		resp.FallbackFile = res.Path
	} else {
		h.metrics.Saves.WithLabelValues("ok").Inc()
		resp.Message = "Price file saved"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) adminExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.exporter.Export(h.store.Rows())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	name := fmt.Sprintf("price_data_%s.xlsx", h.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (h *Handler) adminReload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	src, err := h.store.Load(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.metrics.CatalogRows.Set(float64(len(src.Rows)))
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Price file reloaded",
		"source":       src.Kind.String(),
		"rows":         len(src.Rows),
		"flatRecords":  len(src.Flat),
		"reason":       src.Reason,
		"hierarchical": src.Kind == catalog.SourceStructured,
		"tookMs":       time.Since(start).Milliseconds(),
	})
}

func (h *Handler) adminStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Stats())
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid index", err)
		return 0, false
	}
	return index, true
}
