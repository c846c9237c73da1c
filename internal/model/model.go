package model

import (
	"fmt"
	"time"
)

// Answer choice range. 0 is the "no answer" sentinel stored for questions the
// student left blank; it never matches any key entry.
const (
	NoAnswer  = 0
	ChoiceMin = 1
	ChoiceMax = 5
)

// Weighted-category point values. Mock exams mix 2-point and 3-point
// questions so a well-formed key sums to exactly 100.
const (
	BasePoints  = 2
	BonusPoints = 3
)

// Category identifies an assessment type. Each category carries its fixed
// question count and scoring rule as data.
type Category string

const (
	// CategoryListening is the short listening set.
	CategoryListening Category = "listening"
	// CategoryVocabQuest is the vocabulary quest; attempts are keyed per quest.
	CategoryVocabQuest Category = "vocab_quest"
	// CategoryEasyProblems is the easy-problem set.
	CategoryEasyProblems Category = "easy_problems"
	// CategoryMockExam is the full mock exam with 2/3-point weighting.
	CategoryMockExam Category = "mock_exam"
)

// Categories lists all valid categories in display order.
var Categories = []Category{
	CategoryListening,
	CategoryVocabQuest,
	CategoryEasyProblems,
	CategoryMockExam,
}

// ParseCategory converts a string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Valid reports whether the category is one of the known assessment types.
func (c Category) Valid() bool {
	switch c {
	case CategoryListening, CategoryVocabQuest, CategoryEasyProblems, CategoryMockExam:
		return true
	}
	return false
}

// QuestionCount returns the fixed number of questions for the category.
func (c Category) QuestionCount() int {
	switch c {
	case CategoryListening:
		return 17
	case CategoryVocabQuest:
		return 27
	case CategoryEasyProblems:
		return 10
	case CategoryMockExam:
		return 45
	}
	return 0
}

// Weighted reports whether the category uses per-question point weights
// rather than uniform percentage scoring.
func (c Category) Weighted() bool {
	return c == CategoryMockExam
}

// RequiresTarget reports whether attempts in this category must be
// disambiguated by a target (quest) ID on top of the logical date.
func (c Category) RequiresTarget() bool {
	return c == CategoryVocabQuest
}

// AnswerKey holds the reference answers for one assessment instance.
// BonusIndices are 1-based question numbers worth BonusPoints instead of
// BasePoints; only meaningful for weighted categories.
type AnswerKey struct {
	ID           int64     `json:"id"`
	Category     Category  `json:"category"`
	TargetID     int64     `json:"target_id"`
	Answers      []int     `json:"answers"`
	BonusIndices []int     `json:"bonus_indices,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks the key against its category: length, choice range, bonus
// index sanity, and for weighted categories that the configured points sum
// to exactly 100.
func (k AnswerKey) Validate() error {
	if !k.Category.Valid() {
		return fmt.Errorf("unknown category %q", k.Category)
	}
	want := k.Category.QuestionCount()
	if len(k.Answers) != want {
		return fmt.Errorf("category %s requires %d answers, got %d", k.Category, want, len(k.Answers))
	}
	for i, a := range k.Answers {
		if a < ChoiceMin || a > ChoiceMax {
			return fmt.Errorf("answer %d out of range: %d", i+1, a)
		}
	}
	if !k.Category.Weighted() {
		if len(k.BonusIndices) > 0 {
			return fmt.Errorf("category %s does not use point weights", k.Category)
		}
		return nil
	}
	seen := make(map[int]bool, len(k.BonusIndices))
	for _, n := range k.BonusIndices {
		if n < 1 || n > want {
			return fmt.Errorf("bonus index %d out of range 1..%d", n, want)
		}
		if seen[n] {
			return fmt.Errorf("duplicate bonus index %d", n)
		}
		seen[n] = true
	}
	total := len(k.BonusIndices)*BonusPoints + (want-len(k.BonusIndices))*BasePoints
	if total != 100 {
		return fmt.Errorf("configured points sum to %d, want 100", total)
	}
	return nil
}

// PointsFor returns the point value of the 1-based question number under
// this key's weighting.
func (k AnswerKey) PointsFor(number int) int {
	for _, n := range k.BonusIndices {
		if n == number {
			return BonusPoints
		}
	}
	return BasePoints
}

// SubmissionAttempt is one graded homework submission. The logical date is
// stamped at creation time; the store enforces uniqueness on
// (student, category, target, logical_date).
type SubmissionAttempt struct {
	ID           int64            `json:"id"`
	StudentID    int64            `json:"student_id"`
	Category     Category         `json:"category"`
	TargetID     int64            `json:"target_id"`
	KeyID        int64            `json:"key_id"`
	Answers      []int            `json:"answers"`
	LogicalDate  string           `json:"logical_date"`
	SubmittedAt  time.Time        `json:"submitted_at"`
	Score        int              `json:"score"`
	CorrectCount int              `json:"correct_count"`
	Details      []QuestionDetail `json:"details"`
}

// QuestionDetail is the per-question grading outcome, in question order.
type QuestionDetail struct {
	Number    int  `json:"number"`
	Chosen    int  `json:"chosen"`
	Correct   int  `json:"correct"`
	IsCorrect bool `json:"is_correct"`
}

// GradedResult is the full outcome of grading one answer vector. It is a
// pure function of (answers, key) and is never the source of truth.
type GradedResult struct {
	Score         int              `json:"score"`
	CorrectCount  int              `json:"correct_count"`
	QuestionCount int              `json:"question_count"`
	Details       []QuestionDetail `json:"details"`
}

// WeakPoint is a question number with an elevated historical wrong rate.
type WeakPoint struct {
	Number    int `json:"number"`
	Attempts  int `json:"attempts"`
	Wrong     int `json:"wrong"`
	WrongRate int `json:"wrong_rate"`
}

// Trend is a coarse direction of recent scores vs the prior window.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Compliance is a completion-rate summary over a date range.
// Rate is 100 when Total is zero: no homework assigned means full compliance.
type Compliance struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Rate      int `json:"rate"`
}
