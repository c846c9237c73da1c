package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jwchung/hagwon/internal/model"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrDuplicateAttempt is returned when an attempt insert collides with the
// unique index on (student, category, target, logical_date). The in-process
// gate check is advisory; this constraint is the authoritative guard against
// concurrent double submissions, and callers surface it with the same
// "already submitted today" message.
var ErrDuplicateAttempt = errors.New("attempt already exists for this student, category, and day")

// ErrKeyInUse is returned when editing an answer key that graded attempts
// already reference. Re-grading history against an edited key would silently
// change past scores, so keys freeze once the first attempt lands.
var ErrKeyInUse = errors.New("answer key is referenced by graded attempts")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS answer_keys (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		target_id INTEGER NOT NULL DEFAULT 0,
		answers TEXT NOT NULL,
		bonus_indices TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL,
		UNIQUE(category, target_id)
	);

	CREATE TABLE IF NOT EXISTS submission_attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id INTEGER NOT NULL,
		category TEXT NOT NULL,
		target_id INTEGER NOT NULL DEFAULT 0,
		key_id INTEGER NOT NULL,
		answers TEXT NOT NULL,
		logical_date TEXT NOT NULL,
		submitted_at DATETIME NOT NULL,
		score INTEGER NOT NULL,
		correct_count INTEGER NOT NULL,
		details TEXT NOT NULL,
		FOREIGN KEY (key_id) REFERENCES answer_keys(id),
		UNIQUE(student_id, category, target_id, logical_date)
	);

	CREATE TABLE IF NOT EXISTS assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id INTEGER NOT NULL,
		category TEXT NOT NULL,
		assigned_date TEXT NOT NULL,
		UNIQUE(student_id, category, assigned_date)
	);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(b), nil
}

// HasAttempt reports whether a graded attempt exists for the given
// student/category/target/logical-day combination. Satisfies the gate's
// AttemptChecker.
func (s *Store) HasAttempt(studentID int64, category model.Category, targetID int64, logicalDate string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM submission_attempts
		 WHERE student_id = ? AND category = ? AND target_id = ? AND logical_date = ?`,
		studentID, category, targetID, logicalDate,
	).Scan(&count)
	return count > 0, err
}

// CreateAttempt persists a graded submission attempt. A collision with the
// uniqueness index returns ErrDuplicateAttempt.
func (s *Store) CreateAttempt(a model.SubmissionAttempt) (int64, error) {
	answers, err := encodeJSON(a.Answers)
	if err != nil {
		return 0, err
	}
	details, err := encodeJSON(a.Details)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO submission_attempts
		 (student_id, category, target_id, key_id, answers, logical_date, submitted_at, score, correct_count, details)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.StudentID, a.Category, a.TargetID, a.KeyID, answers, a.LogicalDate, a.SubmittedAt,
		a.Score, a.CorrectCount, details,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateAttempt
		}
		return 0, err
	}
	return res.LastInsertId()
}

// GetAttempt returns an attempt by ID, or nil if not found.
func (s *Store) GetAttempt(id int64) (*model.SubmissionAttempt, error) {
	var a model.SubmissionAttempt
	var answers, details string
	err := s.db.QueryRow(
		`SELECT id, student_id, category, target_id, key_id, answers, logical_date, submitted_at, score, correct_count, details
		 FROM submission_attempts WHERE id = ?`, id,
	).Scan(&a.ID, &a.StudentID, &a.Category, &a.TargetID, &a.KeyID, &answers, &a.LogicalDate,
		&a.SubmittedAt, &a.Score, &a.CorrectCount, &details)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return nil, fmt.Errorf("decode answers for attempt %d: %w", id, err)
	}
	if err := json.Unmarshal([]byte(details), &a.Details); err != nil {
		return nil, fmt.Errorf("decode details for attempt %d: %w", id, err)
	}
	return &a, nil
}

// DeleteAttempt removes an attempt. Attempts are never mutated after
// grading; administrative removal is the only write-back.
func (s *Store) DeleteAttempt(id int64) error {
	_, err := s.db.Exec(`DELETE FROM submission_attempts WHERE id = ?`, id)
	return err
}

// RecentResults returns up to limit graded results for a student in a
// category, oldest first, so callers can feed them straight into trend and
// weak-point aggregation. Rows with undecodable detail JSON are skipped.
func (s *Store) RecentResults(studentID int64, category model.Category, limit int) ([]model.GradedResult, error) {
	rows, err := s.db.Query(
		`SELECT score, correct_count, details FROM submission_attempts
		 WHERE student_id = ? AND category = ?
		 ORDER BY id DESC LIMIT ?`,
		studentID, category, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	count := category.QuestionCount()
	var results []model.GradedResult
	for rows.Next() {
		var r model.GradedResult
		var details string
		if err := rows.Scan(&r.Score, &r.CorrectCount, &details); err != nil {
			return nil, err
		}
		r.QuestionCount = count
		if err := json.Unmarshal([]byte(details), &r.Details); err != nil {
			// Analytics tolerate partially malformed history.
			continue
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returned newest first; reverse into chronological order.
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

// SubmittedDates returns the distinct logical dates with an attempt for the
// student and category inside [from, to], ascending.
func (s *Store) SubmittedDates(studentID int64, category model.Category, from, to string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT logical_date FROM submission_attempts
		 WHERE student_id = ? AND category = ? AND logical_date >= ? AND logical_date <= ?
		 ORDER BY logical_date`,
		studentID, category, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// AttemptCount returns the total number of stored attempts.
func (s *Store) AttemptCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM submission_attempts`).Scan(&count)
	return count, err
}
