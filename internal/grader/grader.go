// Package grader scores multiple-choice answer vectors against an answer key.
//
// Grading is a pure function of (answers, key): the same inputs always
// produce an identical GradedResult, with per-question details in question
// order. Errors here are configuration errors (length mismatches, malformed
// keys), never user-facing rejections.
package grader

import (
	"fmt"
	"math"

	"github.com/jwchung/hagwon/internal/model"
)

// Grade scores an answer vector against the key. The vector length must
// equal the key length, which must match the key's category question count.
// Unanswered questions (model.NoAnswer) always grade as incorrect.
func Grade(answers []int, key model.AnswerKey) (model.GradedResult, error) {
	if !key.Category.Valid() {
		return model.GradedResult{}, fmt.Errorf("unknown category %q", key.Category)
	}
	count := key.Category.QuestionCount()
	if len(key.Answers) != count {
		return model.GradedResult{}, fmt.Errorf("key length %d does not match category %s question count %d",
			len(key.Answers), key.Category, count)
	}
	if len(answers) != count {
		return model.GradedResult{}, fmt.Errorf("answer vector length %d does not match key length %d",
			len(answers), count)
	}

	result := model.GradedResult{
		QuestionCount: count,
		Details:       make([]model.QuestionDetail, 0, count),
	}

	points := 0
	for i, chosen := range answers {
		number := i + 1
		correct := key.Answers[i]
		isCorrect := chosen != model.NoAnswer && chosen == correct
		if isCorrect {
			result.CorrectCount++
			if key.Category.Weighted() {
				points += key.PointsFor(number)
			}
		}
		result.Details = append(result.Details, model.QuestionDetail{
			Number:    number,
			Chosen:    chosen,
			Correct:   correct,
			IsCorrect: isCorrect,
		})
	}

	if key.Category.Weighted() {
		result.Score = points
	} else {
		// Uniform categories score as a percentage with a single final
		// rounding step.
		result.Score = int(math.Round(float64(result.CorrectCount) / float64(count) * 100))
	}
	return result, nil
}
