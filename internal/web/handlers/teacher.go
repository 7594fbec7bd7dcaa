package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/pflegedidaktik/gpa-adaptiv/internal/bank"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/curriculum"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/database"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/web/sse"
)

// maxImportBytes bounds teacher item uploads.
const maxImportBytes = 4 << 20

// DiagOverview returns the latest completed diagnostic per student and area
// for one Lernfeld.
func (h *Handlers) DiagOverview(w http.ResponseWriter, r *http.Request) {
	lf := chi.URLParam(r, "lf")
	if _, ok := curriculum.Get(lf); !ok {
		h.jsonError(w, "unknown lernfeld", http.StatusNotFound)
		return
	}

	rows, err := h.db.DiagOverview(lf)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get diagnostic overview")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"lf": lf, "rows": rows})
}

// PracticeStats returns practice attempt aggregates for one Lernfeld.
func (h *Handlers) PracticeStats(w http.ResponseWriter, r *http.Request) {
	lf := chi.URLParam(r, "lf")
	if _, ok := curriculum.Get(lf); !ok {
		h.jsonError(w, "unknown lernfeld", http.StatusNotFound)
		return
	}

	rows, err := h.db.PracticeStats(lf)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get practice stats")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"lf": lf, "rows": rows})
}

// ListItems returns authored items for a Lernfeld, including answers. Teacher
// only; students never see this surface.
func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	lf := chi.URLParam(r, "lf")
	if _, ok := curriculum.Get(lf); !ok {
		h.jsonError(w, "unknown lernfeld", http.StatusNotFound)
		return
	}
	area := r.URL.Query().Get("area")
	if area != "" && !curriculum.ValidArea(lf, area) {
		h.jsonError(w, "unknown area", http.StatusNotFound)
		return
	}

	items, err := h.db.ListItems(lf, area)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list items")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"lf": lf, "items": items})
}

// ImportItems replaces all API-sourced items with an uploaded items JSON
// document. The bank is rebuilt from the database afterwards.
func (h *Handlers) ImportItems(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes+1))
	if err != nil {
		h.jsonError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxImportBytes {
		h.jsonError(w, "items document too large", http.StatusRequestEntityTooLarge)
		return
	}

	items, err := bank.ParseItems(body)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.db.ReplaceItemsBySource(database.ItemSourceAPI, items); err != nil {
		log.Error().Err(err).Msg("Failed to store imported items")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.ReloadBank(); err != nil {
		log.Error().Err(err).Msg("Failed to reload bank after import")
		h.jsonError(w, "items stored but bank reload failed", http.StatusInternalServerError)
		return
	}

	log.Info().Int("count", len(items)).Msg("Imported items via API")
	h.writeJSON(w, http.StatusOK, map[string]any{
		"imported":   len(items),
		"bank_items": h.bank.Count(),
	})
}

// ReloadBank rebuilds the in-memory index from the database and announces it.
func (h *Handlers) ReloadBank() error {
	items, err := h.db.ListEnabledItems()
	if err != nil {
		return err
	}
	h.bank.Replace(items)

	for _, source := range []string{database.ItemSourceSeed, database.ItemSourceFile, database.ItemSourceAPI} {
		if n, err := h.db.CountItemsBySource(source); err == nil {
			h.metrics.SetBankItems(source, n)
		}
	}

	h.broker.Broadcast(sse.Event{
		Type: sse.EventBankReloaded,
		Data: map[string]any{"count": h.bank.Count()},
	})
	return nil
}

// GetSettings returns all settings (teacher only).
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.db.GetAllSettings()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get settings")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, settings)
}

// UpdateSettings stores submitted settings. Only known keys are accepted.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if !h.decodeJSON(w, r, &req) {
		return
	}

	for key, value := range req {
		if _, known := database.DefaultSettings[key]; !known {
			h.jsonError(w, "unknown setting: "+key, http.StatusBadRequest)
			return
		}
		if err := h.db.SetSetting(key, value); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to set setting")
			h.jsonError(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	h.jsonSuccess(w, "settings updated")
}
