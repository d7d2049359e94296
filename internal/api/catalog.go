package api

import (
	"net/http"

	"github.com/MMMiaotl/IngRenoQuote/internal/domain/catalog"
)

// prices отдаёт позиции; если файл разобран без иерархии: плоские записи.
func (h *Handler) prices(w http.ResponseWriter, _ *http.Request) {
	snap := h.store.Snapshot()
	if snap.Kind == catalog.SourceFlat {
		if snap.Flat == nil {
			snap.Flat = []catalog.FlatRecord{}
		}
		writeJSON(w, http.StatusOK, snap.Flat)
		return
	}
	if snap.Rows == nil {
		snap.Rows = []catalog.Row{}
	}
	writeJSON(w, http.StatusOK, snap.Rows)
}

func (h *Handler) categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Categories())
}

func (h *Handler) subCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.SubCategories(r.PathValue("category")))
}

// items отдаёт всю категорию или, если задан {subcategory}, только её.
func (h *Handler) items(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Items(r.PathValue("category"), r.PathValue("subcategory")))
}

func (h *Handler) pkg(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Package(r.PathValue("category"), r.PathValue("subcategory")))
}
