// Package gate decides whether a new homework submission may be accepted.
//
// The gate is a read-only decision layer: deadline check plus
// one-submission-per-logical-day check against prior attempts. It never
// writes; the caller creates the attempt afterward, and the store's
// uniqueness constraint remains the authoritative guard against concurrent
// duplicates.
package gate

import (
	"fmt"
	"time"

	"github.com/jwchung/hagwon/internal/clock"
	"github.com/jwchung/hagwon/internal/model"
)

// Reason identifies why a submission was rejected. Rejections are expected
// outcomes of normal usage and are returned as values, never as errors.
type Reason string

const (
	ReasonDeadlinePassed   Reason = "deadline_passed"
	ReasonAlreadySubmitted Reason = "already_submitted"
)

// Decision is the outcome of a gate check. LogicalDate and Deadline are
// populated whether or not the submission is allowed, so callers can show
// the active homework window either way.
type Decision struct {
	Allowed     bool      `json:"allowed"`
	Reason      Reason    `json:"reason,omitempty"`
	LogicalDate string    `json:"logical_date"`
	Deadline    time.Time `json:"deadline"`
}

// AttemptChecker reports whether a graded attempt already exists for the
// given student/category/target/logical-day combination.
type AttemptChecker interface {
	HasAttempt(studentID int64, category model.Category, targetID int64, logicalDate string) (bool, error)
}

// Gate bundles the clock and prior-attempt lookup used for decisions.
type Gate struct {
	Clock    clock.Clock
	Attempts AttemptChecker
}

// CanSubmit decides whether a submission at the given instant may be
// accepted. For categories that do not key attempts by target, the target ID
// is ignored. Errors are lookup failures only; rejections come back as a
// Decision with Allowed false.
func (g Gate) CanSubmit(studentID int64, category model.Category, targetID int64, now time.Time) (Decision, error) {
	if !category.Valid() {
		return Decision{}, fmt.Errorf("unknown category %q", category)
	}

	logicalDate := g.Clock.LogicalDate(now)
	deadline, err := g.Clock.Deadline(logicalDate)
	if err != nil {
		return Decision{}, fmt.Errorf("deadline for %q: %w", logicalDate, err)
	}
	decision := Decision{LogicalDate: logicalDate, Deadline: deadline}

	// The logical date was just derived from now, so this only trips on
	// clock skew between computation and check.
	if !g.Clock.IsBeforeDeadline(logicalDate, now) {
		decision.Reason = ReasonDeadlinePassed
		return decision, nil
	}

	if !category.RequiresTarget() {
		targetID = 0
	}
	exists, err := g.Attempts.HasAttempt(studentID, category, targetID, logicalDate)
	if err != nil {
		return Decision{}, fmt.Errorf("check prior attempt: %w", err)
	}
	if exists {
		decision.Reason = ReasonAlreadySubmitted
		return decision, nil
	}

	decision.Allowed = true
	return decision, nil
}
