package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwchung/hagwon/internal/model"
)

// CreateAnswerKey inserts a new answer key. Validation is the caller's
// responsibility; the store only persists.
func (s *Store) CreateAnswerKey(k model.AnswerKey) (int64, error) {
	answers, err := encodeJSON(k.Answers)
	if err != nil {
		return 0, err
	}
	bonus, err := encodeJSON(k.BonusIndices)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO answer_keys (category, target_id, answers, bonus_indices, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		k.Category, k.TargetID, answers, bonus, time.Now(),
	)
	if err != nil {
		slog.Error("failed to create answer key", "category", k.Category, "target_id", k.TargetID, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created answer key", "id", id, "category", k.Category, "target_id", k.TargetID)
	return id, nil
}

func scanKey(row *sql.Row) (*model.AnswerKey, error) {
	var k model.AnswerKey
	var answers, bonus string
	err := row.Scan(&k.ID, &k.Category, &k.TargetID, &answers, &bonus, &k.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &k.Answers); err != nil {
		return nil, fmt.Errorf("decode answers for key %d: %w", k.ID, err)
	}
	if err := json.Unmarshal([]byte(bonus), &k.BonusIndices); err != nil {
		return nil, fmt.Errorf("decode bonus indices for key %d: %w", k.ID, err)
	}
	return &k, nil
}

// GetAnswerKey returns the key for a category/target pair, or nil if no key
// has been authored yet.
func (s *Store) GetAnswerKey(category model.Category, targetID int64) (*model.AnswerKey, error) {
	row := s.db.QueryRow(
		`SELECT id, category, target_id, answers, bonus_indices, created_at
		 FROM answer_keys WHERE category = ? AND target_id = ?`,
		category, targetID,
	)
	return scanKey(row)
}

// GetAnswerKeyByID returns a key by ID, or nil if not found.
func (s *Store) GetAnswerKeyByID(id int64) (*model.AnswerKey, error) {
	row := s.db.QueryRow(
		`SELECT id, category, target_id, answers, bonus_indices, created_at
		 FROM answer_keys WHERE id = ?`, id,
	)
	return scanKey(row)
}

// KeyAttemptCount returns how many graded attempts reference a key.
func (s *Store) KeyAttemptCount(keyID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM submission_attempts WHERE key_id = ?`, keyID,
	).Scan(&count)
	return count, err
}

// UpdateAnswerKey replaces the answers and weights of an existing key.
// Keys freeze once any attempt references them: editing would silently
// re-score history, so the update is rejected with ErrKeyInUse instead.
func (s *Store) UpdateAnswerKey(k model.AnswerKey) error {
	count, err := s.KeyAttemptCount(k.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrKeyInUse
	}

	answers, err := encodeJSON(k.Answers)
	if err != nil {
		return err
	}
	bonus, err := encodeJSON(k.BonusIndices)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(
		`UPDATE answer_keys SET answers = ?, bonus_indices = ? WHERE id = ?`,
		answers, bonus, k.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	slog.Info("updated answer key", "id", k.ID)
	return nil
}

// KeyCount returns the number of authored answer keys.
func (s *Store) KeyCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM answer_keys`).Scan(&count)
	return count, err
}
