package database

import (
	"fmt"
	"time"
)

// DeleteExpiredSessions removes sessions past their expiry.
func (db *DB) DeleteExpiredSessions() (int64, error) {
	result, err := db.Exec("DELETE FROM sessions WHERE expires_at < ?", time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return n, nil
}

// PruneAttempts deletes diagnostic and practice attempts older than the
// retention window. days <= 0 disables pruning.
func (db *DB) PruneAttempts(days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	var total int64
	result, err := db.Exec("DELETE FROM diag_attempts WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune diagnostic attempts: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil {
		total += n
	}

	result, err = db.Exec("DELETE FROM practice_attempts WHERE created_at < ?", cutoff)
	if err != nil {
		return total, fmt.Errorf("failed to prune practice attempts: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil {
		total += n
	}

	return total, nil
}
