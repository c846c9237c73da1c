package store

import (
	"fmt"

	"github.com/jwchung/hagwon/internal/analytics"
	"github.com/jwchung/hagwon/internal/model"
)

// historyLimit caps how much submission history feeds trend and weak-point
// aggregation.
const historyLimit = 30

// BuildStudentReport assembles the completion, trend, and weak-point report
// for one student and category over [from, to].
func (s *Store) BuildStudentReport(studentID int64, category model.Category, from, to string) (*model.StudentReport, error) {
	expected, err := s.AssignmentDates(studentID, category, from, to)
	if err != nil {
		return nil, fmt.Errorf("assignment dates: %w", err)
	}
	submitted, err := s.SubmittedDates(studentID, category, from, to)
	if err != nil {
		return nil, fmt.Errorf("submitted dates: %w", err)
	}
	results, err := s.RecentResults(studentID, category, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("recent results: %w", err)
	}

	scores := make([]int, 0, len(results))
	for _, r := range results {
		scores = append(scores, r.Score)
	}

	return &model.StudentReport{
		StudentID:    studentID,
		Category:     category,
		From:         from,
		To:           to,
		Compliance:   analytics.CompletionRate(expected, submitted),
		Trend:        analytics.ScoreTrend(scores),
		RecentScores: scores,
		WeakPoints: analytics.WeakPoints(results, category.QuestionCount(),
			analytics.MinAttempts, analytics.TopN),
	}, nil
}
