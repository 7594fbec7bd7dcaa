package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Diagnostic attempt states.
const (
	DiagStatusPending   = "pending"
	DiagStatusCompleted = "completed"
)

// DiagAttemptRecord is one diagnostic round for a student and area.
// ItemIDs are the served items; score/max are filled on completion.
type DiagAttemptRecord struct {
	ID          int64      `json:"-"`
	PublicID    string     `json:"id"`
	StudentCode string     `json:"student_code"`
	LF          string     `json:"lf"`
	Area        string     `json:"area"`
	Level       int        `json:"level"`
	ItemIDs     []int64    `json:"item_ids"`
	Status      string     `json:"status"`
	Score       float64    `json:"score"`
	MaxScore    float64    `json:"max_score"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// PracticeAttemptRecord is one graded practice answer.
type PracticeAttemptRecord struct {
	ID          int64     `json:"id"`
	StudentCode string    `json:"student_code"`
	LF          string    `json:"lf"`
	Area        string    `json:"area"`
	Level       int       `json:"level"`
	QType       string    `json:"qtype"`
	Correct     bool      `json:"correct"`
	Score       float64   `json:"score"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateDiagAttempt inserts a pending diagnostic attempt.
func (db *DB) CreateDiagAttempt(a *DiagAttemptRecord) error {
	itemIDs, err := json.Marshal(a.ItemIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal item ids: %w", err)
	}

	now := time.Now()
	result, err := db.Exec(`
		INSERT INTO diag_attempts (public_id, student_code, lf, area, level, item_ids, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.PublicID, a.StudentCode, a.LF, a.Area, a.Level, string(itemIDs), DiagStatusPending, now)
	if err != nil {
		return fmt.Errorf("failed to create diagnostic attempt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get attempt id: %w", err)
	}
	a.ID = id
	a.Status = DiagStatusPending
	a.CreatedAt = now
	return nil
}

// GetDiagAttempt retrieves a diagnostic attempt by its public ID.
func (db *DB) GetDiagAttempt(publicID string) (*DiagAttemptRecord, error) {
	a := &DiagAttemptRecord{}
	var itemIDs string
	var completedAt sql.NullTime
	err := db.QueryRow(`
		SELECT id, public_id, student_code, lf, area, level, item_ids, status, score, max_score, created_at, completed_at
		FROM diag_attempts WHERE public_id = ?
	`, publicID).Scan(&a.ID, &a.PublicID, &a.StudentCode, &a.LF, &a.Area, &a.Level,
		&itemIDs, &a.Status, &a.Score, &a.MaxScore, &a.CreatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get diagnostic attempt: %w", err)
	}
	if err := json.Unmarshal([]byte(itemIDs), &a.ItemIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item ids: %w", err)
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return a, nil
}

// CompleteDiagAttempt stores the graded total and marks the attempt done.
func (db *DB) CompleteDiagAttempt(id int64, score, maxScore float64) error {
	_, err := db.Exec(`
		UPDATE diag_attempts SET status = ?, score = ?, max_score = ?, completed_at = ?
		WHERE id = ?
	`, DiagStatusCompleted, score, maxScore, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to complete diagnostic attempt: %w", err)
	}
	return nil
}

// LatestDiagRatio returns the latest completed diagnostic score ratio for a
// student and area. Nil when none exists or the max score is zero.
func (db *DB) LatestDiagRatio(studentCode, lf, area string) (*float64, error) {
	var score, maxScore float64
	err := db.QueryRow(`
		SELECT score, max_score FROM diag_attempts
		WHERE student_code = ? AND lf = ? AND area = ? AND status = ?
		ORDER BY id DESC LIMIT 1
	`, studentCode, lf, area, DiagStatusCompleted).Scan(&score, &maxScore)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest diagnostic: %w", err)
	}
	if maxScore == 0 {
		return nil, nil
	}
	ratio := score / maxScore
	return &ratio, nil
}

// DiagOverviewRow is the teacher view: the latest completed diagnostic per
// student and area within one Lernfeld.
type DiagOverviewRow struct {
	StudentCode string    `json:"student_code"`
	Area        string    `json:"area"`
	Level       int       `json:"level"`
	Score       float64   `json:"score"`
	MaxScore    float64   `json:"max_score"`
	CompletedAt time.Time `json:"completed_at"`
}

// DiagOverview returns the latest completed diagnostic per student × area
// for a Lernfeld.
func (db *DB) DiagOverview(lf string) ([]DiagOverviewRow, error) {
	rows, err := db.Query(`
		SELECT d.student_code, d.area, d.level, d.score, d.max_score, d.completed_at
		FROM diag_attempts d
		JOIN (
			SELECT student_code, area, MAX(id) AS max_id
			FROM diag_attempts
			WHERE lf = ? AND status = ?
			GROUP BY student_code, area
		) latest ON latest.max_id = d.id
		ORDER BY d.student_code, d.area
	`, lf, DiagStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to get diagnostic overview: %w", err)
	}
	defer rows.Close()

	var result []DiagOverviewRow
	for rows.Next() {
		var r DiagOverviewRow
		if err := rows.Scan(&r.StudentCode, &r.Area, &r.Level, &r.Score, &r.MaxScore, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan overview row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// LogPracticeAttempt inserts one graded practice answer.
func (db *DB) LogPracticeAttempt(a *PracticeAttemptRecord) error {
	now := time.Now()
	result, err := db.Exec(`
		INSERT INTO practice_attempts (student_code, lf, area, level, qtype, correct, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.StudentCode, a.LF, a.Area, a.Level, a.QType, boolToInt(a.Correct), a.Score, now)
	if err != nil {
		return fmt.Errorf("failed to log practice attempt: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get practice attempt id: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	return nil
}

// PracticeStatsRow aggregates practice activity by area and item type.
type PracticeStatsRow struct {
	Area     string `json:"area"`
	QType    string `json:"qtype"`
	Attempts int    `json:"attempts"`
	Correct  int    `json:"correct"`
}

// PracticeStats aggregates practice attempts for a Lernfeld, most active
// pools first.
func (db *DB) PracticeStats(lf string) ([]PracticeStatsRow, error) {
	rows, err := db.Query(`
		SELECT area, qtype, COUNT(*) AS attempts, SUM(correct) AS correct
		FROM practice_attempts
		WHERE lf = ?
		GROUP BY area, qtype
		ORDER BY attempts DESC
		LIMIT 50
	`, lf)
	if err != nil {
		return nil, fmt.Errorf("failed to get practice stats: %w", err)
	}
	defer rows.Close()

	var result []PracticeStatsRow
	for rows.Next() {
		var r PracticeStatsRow
		if err := rows.Scan(&r.Area, &r.QType, &r.Attempts, &r.Correct); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
