package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/pflegedidaktik/gpa-adaptiv/internal/adaptive"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/curriculum"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/web/sse"
)

// Student codes are short pseudonyms, no real names.
var studentCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{2,32}$`)

type registerStudentRequest struct {
	Code string `json:"code"`
}

// RegisterStudent creates the student record if it does not exist yet.
// Registration is idempotent so students can re-enter their code freely.
func (h *Handlers) RegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	code := strings.TrimSpace(req.Code)
	if !studentCodePattern.MatchString(code) {
		h.jsonError(w, "code must be 2-32 letters, digits, - or _", http.StatusBadRequest)
		return
	}

	existing, err := h.db.GetStudent(code)
	if err != nil {
		log.Error().Err(err).Msg("Failed to look up student")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	student, err := h.db.EnsureStudent(code)
	if err != nil {
		log.Error().Err(err).Msg("Failed to register student")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if existing == nil {
		h.broker.Broadcast(sse.Event{
			Type: sse.EventStudentRegistered,
			Data: map[string]any{"code": code},
		})
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"code":    student.Code,
		"created": existing == nil,
	})
}

// StudentRecommendations returns the per-area practice levels for one
// student in a Lernfeld, derived from the latest diagnostic results.
func (h *Handlers) StudentRecommendations(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	lf := chi.URLParam(r, "lf")

	if _, ok := curriculum.Get(lf); !ok {
		h.jsonError(w, "unknown lernfeld", http.StatusNotFound)
		return
	}
	student, err := h.db.GetStudent(code)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get student")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if student == nil {
		h.jsonError(w, "unknown student code", http.StatusNotFound)
		return
	}

	recs, err := adaptive.Recommend(h.db, code, lf)
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute recommendations")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"student_code":    code,
		"lf":              lf,
		"recommendations": recs,
	})
}

// ListStudents returns all registered student codes (teacher only).
func (h *Handlers) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.db.ListStudents()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list students")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"students": students})
}
