// Package handlers implements the HTTP JSON API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pflegedidaktik/gpa-adaptiv/internal/auth"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/bank"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/config"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/database"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/metrics"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/web/sse"
)

// VersionInfo holds application version information
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Handlers contains all HTTP handlers
type Handlers struct {
	db          *database.DB
	authService *auth.Service
	bank        *bank.Bank
	broker      *sse.Broker
	metrics     *metrics.Metrics
	loader      *config.Loader
	versionInfo VersionInfo
	isDev       bool
}

// New creates a new Handlers instance
func New(db *database.DB, authService *auth.Service, itemBank *bank.Bank, broker *sse.Broker, m *metrics.Metrics, loader *config.Loader, isDev bool) *Handlers {
	return &Handlers{
		db:          db,
		authService: authService,
		bank:        itemBank,
		broker:      broker,
		metrics:     m,
		loader:      loader,
		isDev:       isDev,
	}
}

// SetVersionInfo sets the application version information
func (h *Handlers) SetVersionInfo(version, commit, date string) {
	h.versionInfo = VersionInfo{Version: version, Commit: commit, Date: date}
}

// writeJSON sends a JSON response with the given status
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// decodeJSON parses the request body into v. Errors are reported to the
// client as a 400.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// jsonError sends a JSON error response
func (h *Handlers) jsonError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// jsonSuccess sends a JSON success response
func (h *Handlers) jsonSuccess(w http.ResponseWriter, message string) {
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": message})
}

// applyCookieSecurity sets Secure/SameSite defaults based on environment.
func (h *Handlers) applyCookieSecurity(c *http.Cookie) {
	if h.isDev {
		if c.SameSite == 0 {
			c.SameSite = http.SameSiteLaxMode
		}
		return
	}
	c.Secure = true
	if c.SameSite == 0 {
		c.SameSite = http.SameSiteStrictMode
	}
}

// Health reports service liveness and bank size.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(); err != nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"error":  "database unreachable",
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"bank_items": h.bank.Count(),
		"version":    h.versionInfo.Version,
	})
}
