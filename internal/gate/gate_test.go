package gate

import (
	"errors"
	"testing"
	"time"

	"github.com/jwchung/hagwon/internal/clock"
	"github.com/jwchung/hagwon/internal/model"
)

type attemptKey struct {
	studentID   int64
	category    model.Category
	targetID    int64
	logicalDate string
}

// memChecker is an in-memory AttemptChecker for gate tests.
type memChecker struct {
	attempts map[attemptKey]bool
	err      error
}

func (m *memChecker) HasAttempt(studentID int64, category model.Category, targetID int64, logicalDate string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.attempts[attemptKey{studentID, category, targetID, logicalDate}], nil
}

func (m *memChecker) add(studentID int64, category model.Category, targetID int64, logicalDate string) {
	if m.attempts == nil {
		m.attempts = make(map[attemptKey]bool)
	}
	m.attempts[attemptKey{studentID, category, targetID, logicalDate}] = true
}

func newGate(checker AttemptChecker) Gate {
	return Gate{Clock: clock.Default(), Attempts: checker}
}

func TestCanSubmitFirstAttempt(t *testing.T) {
	g := newGate(&memChecker{})
	kst := time.FixedZone("UTC+9", 9*3600)
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, kst)

	d, err := g.CanSubmit(1, model.CategoryListening, 0, now)
	if err != nil {
		t.Fatalf("CanSubmit: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("expected allowed, got reason %q", d.Reason)
	}
	if d.LogicalDate != "2025-03-10" {
		t.Errorf("expected logical date 2025-03-10, got %q", d.LogicalDate)
	}
	want := time.Date(2025, 3, 11, 3, 0, 0, 0, kst)
	if !d.Deadline.Equal(want) {
		t.Errorf("expected deadline %v, got %v", want, d.Deadline)
	}
}

func TestCanSubmitRejectsSecondAttemptSameDay(t *testing.T) {
	checker := &memChecker{}
	checker.add(1, model.CategoryListening, 0, "2025-03-10")
	g := newGate(checker)
	kst := time.FixedZone("UTC+9", 9*3600)

	// Same logical day, even across midnight.
	for _, now := range []time.Time{
		time.Date(2025, 3, 10, 23, 0, 0, 0, kst),
		time.Date(2025, 3, 11, 1, 30, 0, 0, kst),
	} {
		d, err := g.CanSubmit(1, model.CategoryListening, 0, now)
		if err != nil {
			t.Fatalf("CanSubmit(%v): %v", now, err)
		}
		if d.Allowed {
			t.Errorf("expected rejection at %v", now)
		}
		if d.Reason != ReasonAlreadySubmitted {
			t.Errorf("expected reason already_submitted, got %q", d.Reason)
		}
	}

	// Next logical day is allowed again.
	d, err := g.CanSubmit(1, model.CategoryListening, 0, time.Date(2025, 3, 11, 9, 0, 0, 0, kst))
	if err != nil {
		t.Fatalf("CanSubmit next day: %v", err)
	}
	if !d.Allowed {
		t.Errorf("expected next-day submission allowed, got reason %q", d.Reason)
	}
}

func TestCanSubmitIndependentPerStudentAndCategory(t *testing.T) {
	checker := &memChecker{}
	checker.add(1, model.CategoryListening, 0, "2025-03-10")
	g := newGate(checker)
	kst := time.FixedZone("UTC+9", 9*3600)
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, kst)

	// Different student, same category and day.
	if d, err := g.CanSubmit(2, model.CategoryListening, 0, now); err != nil || !d.Allowed {
		t.Errorf("other student blocked: allowed=%v err=%v", d.Allowed, err)
	}
	// Same student, different category.
	if d, err := g.CanSubmit(1, model.CategoryEasyProblems, 0, now); err != nil || !d.Allowed {
		t.Errorf("other category blocked: allowed=%v err=%v", d.Allowed, err)
	}
}

func TestCanSubmitVocabQuestKeyedByTarget(t *testing.T) {
	checker := &memChecker{}
	checker.add(1, model.CategoryVocabQuest, 7, "2025-03-10")
	g := newGate(checker)
	kst := time.FixedZone("UTC+9", 9*3600)
	now := time.Date(2025, 3, 10, 20, 0, 0, 0, kst)

	d, err := g.CanSubmit(1, model.CategoryVocabQuest, 7, now)
	if err != nil {
		t.Fatalf("CanSubmit: %v", err)
	}
	if d.Allowed {
		t.Error("expected rejection for same quest")
	}

	// A different quest the same day is a separate submission.
	d, err = g.CanSubmit(1, model.CategoryVocabQuest, 8, now)
	if err != nil {
		t.Fatalf("CanSubmit other quest: %v", err)
	}
	if !d.Allowed {
		t.Errorf("expected other quest allowed, got reason %q", d.Reason)
	}
}

func TestCanSubmitIgnoresTargetForNonQuestCategories(t *testing.T) {
	checker := &memChecker{}
	checker.add(1, model.CategoryListening, 0, "2025-03-10")
	g := newGate(checker)
	kst := time.FixedZone("UTC+9", 9*3600)

	// A stray target ID must not open a second daily slot.
	d, err := g.CanSubmit(1, model.CategoryListening, 42, time.Date(2025, 3, 10, 20, 0, 0, 0, kst))
	if err != nil {
		t.Fatalf("CanSubmit: %v", err)
	}
	if d.Allowed {
		t.Error("expected rejection despite non-zero target ID")
	}
}

func TestCanSubmitUnknownCategory(t *testing.T) {
	g := newGate(&memChecker{})
	if _, err := g.CanSubmit(1, "essay", 0, time.Now()); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestCanSubmitLookupError(t *testing.T) {
	g := newGate(&memChecker{err: errors.New("db down")})
	if _, err := g.CanSubmit(1, model.CategoryListening, 0, time.Now()); err == nil {
		t.Error("expected lookup error to propagate")
	}
}
