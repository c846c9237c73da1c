package store

import "github.com/jwchung/hagwon/internal/model"

// AddAssignment records that homework of the given category was assigned to
// a student for a logical date. Re-recording the same assignment is a no-op.
func (s *Store) AddAssignment(studentID int64, category model.Category, date string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO assignments (student_id, category, assigned_date) VALUES (?, ?, ?)`,
		studentID, category, date,
	)
	return err
}

// AssignmentDates returns the logical dates homework was assigned for the
// student and category inside [from, to], ascending. These are the
// completion-rate denominators.
func (s *Store) AssignmentDates(studentID int64, category model.Category, from, to string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT assigned_date FROM assignments
		 WHERE student_id = ? AND category = ? AND assigned_date >= ? AND assigned_date <= ?
		 ORDER BY assigned_date`,
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
