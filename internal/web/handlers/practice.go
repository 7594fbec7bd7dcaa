package handlers

import (
	"math/rand/v2"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pflegedidaktik/gpa-adaptiv/internal/adaptive"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/bank"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/curriculum"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/database"
	"github.com/pflegedidaktik/gpa-adaptiv/internal/web/sse"
)

type practiceItemsRequest struct {
	StudentCode string `json:"student_code"`
	LF          string `json:"lf"`
	Area        string `json:"area"`
	// Level overrides the recommendation when within range; 0 keeps it.
	Level int `json:"level,omitempty"`
}

// PracticeItems returns a practice bundle, answers stripped. With an area it
// holds items from that area at the recommended (or requested) level; without
// one it is a shuffled mix of one item per area of the Lernfeld, each at the
// area's own recommended level.
func (h *Handlers) PracticeItems(w http.ResponseWriter, r *http.Request) {
	var req practiceItemsRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Area == "" {
		h.practiceMix(w, req)
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

	level := req.Level
	if !curriculum.ValidLevel(level) {
		level, err = adaptive.RecommendedLevel(h.db, req.StudentCode, req.LF, req.Area)
		if err != nil {
			log.Error().Err(err).Msg("Failed to determine level")
			h.jsonError(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	// An area without authored items yields an empty bundle.
	n := h.loader.Int("practice.items_per_area", 3)
	items := h.bank.Pick(req.LF, req.Area, level, n)

	public := make([]bank.PublicItem, 0, len(items))
	for _, it := range items {
		public = append(public, it.Public())
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"lf":          req.LF,
		"area":        req.Area,
		"area_label":  curriculum.AreaLabel(req.LF, req.Area),
		"level":       level,
		"level_label": curriculum.LevelLabel[level],
		"items":       public,
	})
}

// practiceMix picks one item per area of the Lernfeld, each at the student's
// recommended level for that area, and shuffles the bundle.
func (h *Handlers) practiceMix(w http.ResponseWriter, req practiceItemsRequest) {
	if _, ok := curriculum.Get(req.LF); !ok {
		h.jsonError(w, "unknown lernfeld", http.StatusNotFound)
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

	recs, err := adaptive.Recommend(h.db, req.StudentCode, req.LF)
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute recommendations")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	public := make([]bank.PublicItem, 0, len(recs))
	for _, rec := range recs {
		for _, it := range h.bank.Pick(req.LF, rec.Area, rec.Level, 1) {
			public = append(public, it.Public())
		}
	}
	rand.Shuffle(len(public), func(i, j int) {
		public[i], public[j] = public[j], public[i]
	})

	h.writeJSON(w, http.StatusOK, map[string]any{
		"lf":    req.LF,
		"mix":   true,
		"items": public,
	})
}

type submitPracticeRequest struct {
	StudentCode string `json:"student_code"`
	ItemID      int64  `json:"item_id"`
	// Level is the level the round was served at; 0 falls back to the
	// area's current recommendation.
	Level    int           `json:"level,omitempty"`
	Response bank.Response `json:"response"`
}

// SubmitPractice grades one practice answer, logs it and returns the result
// with feedback. Practice answers are graded immediately, item by item.
func (h *Handlers) SubmitPractice(w http.ResponseWriter, r *http.Request) {
	var req submitPracticeRequest
	if !h.decodeJSON(w, r, &req) {
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

	it := h.bank.Get(req.ItemID)
	if it == nil {
		h.jsonError(w, "unknown item", http.StatusNotFound)
		return
	}

	result, err := bank.Grade(it, req.Response)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// The attempt is logged at the round's level, not the item's. Level
	// fallback may have served an item from a neighboring pool.
	level := req.Level
	if !curriculum.ValidLevel(level) {
		level, err = adaptive.RecommendedLevel(h.db, req.StudentCode, it.LF, it.Area)
		if err != nil {
			log.Error().Err(err).Msg("Failed to determine level")
			h.jsonError(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	attempt := &database.PracticeAttemptRecord{
		StudentCode: req.StudentCode,
		LF:          it.LF,
		Area:        it.Area,
		Level:       level,
		QType:       string(it.Type),
		Correct:     result.Correct,
		Score:       result.Score,
	}
	if err := h.db.LogPracticeAttempt(attempt); err != nil {
		log.Error().Err(err).Msg("Failed to log practice attempt")
		h.jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.metrics.ItemGraded(string(it.Type), result.Correct)
	h.metrics.PracticeLogged()

	h.broker.Broadcast(sse.Event{
		Type: sse.EventPracticeAnswered,
		Data: map[string]any{
			"student_code": req.StudentCode,
			"lf":           it.LF,
			"area":         it.Area,
			"qtype":        string(it.Type),
			"correct":      result.Correct,
		},
	})

	h.writeJSON(w, http.StatusOK, result)
}
