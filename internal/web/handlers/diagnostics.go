package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pflegedidaktik/gpa-adaptiv/internal/adaptive"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/bank"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/curriculum"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/database"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/web/sse"
)

type openDiagnosticRequest struct {
	StudentCode string `json:"student_code"`
	LF          string `json:"lf"`
	Area        string `json:"area"`
}

// OpenDiagnostic starts a diagnostic round: picks the level from the latest
// result, samples items and returns them without answers. Grading happens
// server-side on submit.
func (h *Handlers) OpenDiagnostic(w http.ResponseWriter, r *http.Request) {
	var req openDiagnosticRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if !curriculum.ValidArea(req.LF, req.Area) {
		h.jsonError(w, "unknown lernfeld or area", http.StatusNotFound)
		return
	}
	student, err := h.db.GetStudent(req.StudentCode)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get student")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if student == nil {
		h.jsonError(w, "unknown student code", http.StatusNotFound)
		return
	}

	level, err := adaptive.RecommendedLevel(h.db, req.StudentCode, req.LF, req.Area)
	if err != nil {
		log.Error().Err(err).Msg("Failed to determine level")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	n := h.loader.Int("diagnostic.items_per_round", 2)
	items := h.bank.Pick(req.LF, req.Area, level, n)
	if len(items) == 0 {
		// Nothing authored for this area yet. No attempt is opened.
		h.writeJSON(w, http.StatusOK, map[string]any{
			"lf":          req.LF,
			"area":        req.Area,
			"area_label":  curriculum.AreaLabel(req.LF, req.Area),
			"level":       level,
			"level_label": curriculum.LevelLabel[level],
			"items":       []bank.PublicItem{},
		})
		return
	}

	attempt := &database.DiagAttemptRecord{
		PublicID:    uuid.NewString(),
		StudentCode: req.StudentCode,
		LF:          req.LF,
		Area:        req.Area,
		Level:       level,
	}
	public := make([]bank.PublicItem, 0, len(items))
	for _, it := range items {
		attempt.ItemIDs = append(attempt.ItemIDs, it.ID)
		public = append(public, it.Public())
	}

	if err := h.db.CreateDiagAttempt(attempt); err != nil {
		log.Error().Err(err).Msg("Failed to create diagnostic attempt")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.broker.Broadcast(sse.Event{
		Type: sse.EventDiagnosticOpened,
		Data: map[string]any{
			"attempt_id":   attempt.PublicID,
			"student_code": attempt.StudentCode,
			"lf":           attempt.LF,
			"area":         attempt.Area,
			"level":        attempt.Level,
		},
	})

	h.writeJSON(w, http.StatusOK, map[string]any{
		"attempt_id":  attempt.PublicID,
		"lf":          attempt.LF,
		"area":        attempt.Area,
		"area_label":  curriculum.AreaLabel(attempt.LF, attempt.Area),
		"level":       attempt.Level,
		"level_label": curriculum.LevelLabel[attempt.Level],
		"items":       public,
	})
}

// GetDiagnostic returns the state of a diagnostic attempt.
func (h *Handlers) GetDiagnostic(w http.ResponseWriter, r *http.Request) {
	attempt, ok := h.loadAttempt(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, attempt)
}

type submitDiagnosticRequest struct {
	// Responses are keyed by item position, matching the served order.
	Responses []bank.Response `json:"responses"`
}

// SubmitDiagnostic grades a pending attempt. Attempts are single-use; a
// second submit gets a 409.
func (h *Handlers) SubmitDiagnostic(w http.ResponseWriter, r *http.Request) {
	attempt, ok := h.loadAttempt(w, r)
	if !ok {
		return
	}
	if attempt.Status != database.DiagStatusPending {
		h.jsonError(w, "attempt already completed", http.StatusConflict)
		return
	}

	var req submitDiagnosticRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Responses) != len(attempt.ItemIDs) {
		h.jsonError(w, "response count does not match served items", http.StatusBadRequest)
		return
	}

	var score, maxScore float64
	results := make([]bank.Result, 0, len(attempt.ItemIDs))
	for i, itemID := range attempt.ItemIDs {
		it := h.bank.Get(itemID)
		if it == nil {
			// Bank was reloaded and the item vanished; skip rather than fail
			// the whole attempt.
			log.Warn().Int64("item_id", itemID).Msg("Served item no longer in bank")
			results = append(results, bank.Result{})
			continue
		}
		res, err := bank.Grade(it, req.Responses[i])
		if err != nil {
			h.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		score += res.Score
		maxScore += res.Max
		results = append(results, res)
		h.metrics.ItemGraded(string(it.Type), res.Correct)
	}

	if err := h.db.CompleteDiagAttempt(attempt.ID, score, maxScore); err != nil {
		log.Error().Err(err).Msg("Failed to complete diagnostic attempt")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.metrics.DiagnosticCompleted()

	nextLevel := attempt.Level
	if maxScore > 0 {
		ratio := score / maxScore
		nextLevel = adaptive.ChooseLevel(&ratio)
	}

	h.broker.Broadcast(sse.Event{
		Type: sse.EventDiagnosticCompleted,
		Data: map[string]any{
			"attempt_id":   attempt.PublicID,
			"student_code": attempt.StudentCode,
			"lf":           attempt.LF,
			"area":         attempt.Area,
			"score":        score,
			"max_score":    maxScore,
		},
	})

	h.writeJSON(w, http.StatusOK, map[string]any{
		"attempt_id":       attempt.PublicID,
		"score":            score,
		"max_score":        maxScore,
		"results":          results,
		"next_level":       nextLevel,
		"next_level_label": curriculum.LevelLabel[nextLevel],
	})
}

func (h *Handlers) loadAttempt(w http.ResponseWriter, r *http.Request) (*database.DiagAttemptRecord, bool) {
	publicID := chi.URLParam(r, "id")
	attempt, err := h.db.GetDiagAttempt(publicID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get diagnostic attempt")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return nil, false
	}
	if attempt == nil {
		h.jsonError(w, "unknown attempt", http.StatusNotFound)
		return nil, false
	}
	return attempt, true
}
