// Package adaptive maps diagnostic results to difficulty levels.
package adaptive

import "github.com/pflegedidaktik/gpa-adaptiv/internal/curriculum"

// DefaultLevel is where students start before any diagnostic result exists.
const DefaultLevel = 2

// Thresholds for stepping the level up or down from a diagnostic ratio.
const (
	stepUpRatio   = 0.8
	stepDownRatio = 0.4
)

// ChooseLevel returns the level for the next diagnostic or practice round.
// prevRatio is the latest diagnostic score/max ratio, nil when the student
// has no usable result yet.
func ChooseLevel(prevRatio *float64) int {
	if prevRatio == nil {
		return DefaultLevel
	}
	if *prevRatio >= stepUpRatio {
		return 3
	}
	if *prevRatio <= stepDownRatio {
		return 1
	}
	return DefaultLevel
}

// RatioSource provides the latest diagnostic ratio per student and area.
// A nil ratio means no completed diagnostic (or one with max score 0).
type RatioSource interface {
	LatestDiagRatio(studentCode, lf, area string) (*float64, error)
}

// Recommendation is the suggested practice level for one area.
type Recommendation struct {
	Area       string   `json:"area"`
	Label      string   `json:"label"`
	Level      int      `json:"level"`
	LevelLabel string   `json:"level_label"`
	Ratio      *float64 `json:"ratio,omitempty"`
}

// Recommend computes per-area practice levels for a Lernfeld from the
// student's latest diagnostic results.
func Recommend(src RatioSource, studentCode, lf string) ([]Recommendation, error) {
	areas := curriculum.Areas(lf)
	recs := make([]Recommendation, 0, len(areas))
	for _, a := range areas {
		ratio, err := src.LatestDiagRatio(studentCode, lf, a.Key)
		if err != nil {
			return nil, err
		}
		level := ChooseLevel(ratio)
		recs = append(recs, Recommendation{
			Area:       a.Key,
			Label:      a.Label,
			Level:      level,
			LevelLabel: curriculum.LevelLabel[level],
			Ratio:      ratio,
		})
	}
	return recs, nil
}

// RecommendedLevel returns the level for one area, or DefaultLevel when the
// lookup fails to find a usable result.
func RecommendedLevel(src RatioSource, studentCode, lf, area string) (int, error) {
	ratio, err := src.LatestDiagRatio(studentCode, lf, area)
	if err != nil {
		return 0, err
	}
	return ChooseLevel(ratio), nil
}
