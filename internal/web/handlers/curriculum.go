package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pflegedidaktik/gpa-adaptiv/internal/curriculum"
)

// ListLernfelder returns the curriculum catalog.
func (h *Handlers) ListLernfelder(w http.ResponseWriter, r *http.Request) {
	lfs := curriculum.Lernfelder()
	out := make([]map[string]any, 0, len(lfs))
	for _, lf := range lfs {
		out = append(out, map[string]any{
			"code":  lf.Code,
			"title": lf.Title,
			"areas": lf.Areas,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"lernfelder": out,
		"levels":     curriculum.LevelLabel,
	})
}

// GetLernfeld returns one Lernfeld with its areas.
func (h *Handlers) GetLernfeld(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "lf")
	lf, ok := curriculum.Get(code)
	if !ok {
		h.jsonError(w, "unknown lernfeld", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, lf)
}
