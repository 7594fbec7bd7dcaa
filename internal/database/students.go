package database

import (
	"database/sql"
	"fmt"
	"time"
)

// StudentRecord represents a student identified by a self-chosen code.
type StudentRecord struct {
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// EnsureStudent creates the student if it does not exist and returns it.
func (db *DB) EnsureStudent(code string) (*StudentRecord, error) {
	existing, err := db.GetStudent(code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	_, err = db.Exec(`
		INSERT INTO students (code, created_at) VALUES (?, ?)
		ON CONFLICT(code) DO NOTHING
	`, code, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	return &StudentRecord{Code: code, CreatedAt: now}, nil
}

// GetStudent retrieves a student by code.
func (db *DB) GetStudent(code string) (*StudentRecord, error) {
	student := &StudentRecord{}
	err := db.QueryRow(`
		SELECT code, created_at FROM students WHERE code = ?
	`, code).Scan(&student.Code, &student.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return student, nil
}

// ListStudents returns all students ordered by code.
func (db *DB) ListStudents() ([]StudentRecord, error) {
	rows, err := db.Query("SELECT code, created_at FROM students ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []StudentRecord
	for rows.Next() {
		var s StudentRecord
		if err := rows.Scan(&s.Code, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}
