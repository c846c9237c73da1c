package model

import "testing"

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, err := ParseCategory(string(c))
		if err != nil {
			t.Errorf("ParseCategory(%q): %v", c, err)
		}
		if got != c {
			t.Errorf("ParseCategory(%q) = %q", c, got)
		}
	}
	if _, err := ParseCategory("essay"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestCategoryTable(t *testing.T) {
	tests := []struct {
		category Category
		count    int
		weighted bool
		target   bool
	}{
		{CategoryListening, 17, false, false},
		{CategoryVocabQuest, 27, false, true},
		{CategoryEasyProblems, 10, false, false},
		{CategoryMockExam, 45, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			if got := tt.category.QuestionCount(); got != tt.count {
				t.Errorf("QuestionCount = %d, want %d", got, tt.count)
			}
			if got := tt.category.Weighted(); got != tt.weighted {
				t.Errorf("Weighted = %v, want %v", got, tt.weighted)
			}
			if got := tt.category.RequiresTarget(); got != tt.target {
				t.Errorf("RequiresTarget = %v, want %v", got, tt.target)
			}
		})
	}
}

func validMockKey() AnswerKey {
	answers := make([]int, 45)
	for i := range answers {
		answers[i] = 1
	}
	bonus := make([]int, 10)
	for i := range bonus {
		bonus[i] = i + 1
	}
	return AnswerKey{Category: CategoryMockExam, Answers: answers, BonusIndices: bonus}
}

func TestAnswerKeyValidate(t *testing.T) {
	good := validMockKey()
	if err := good.Validate(); err != nil {
		t.Errorf("valid mock key rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*AnswerKey)
	}{
		{"unknown category", func(k *AnswerKey) { k.Category = "essay" }},
		{"wrong length", func(k *AnswerKey) { k.Answers = k.Answers[:44] }},
		{"choice out of range", func(k *AnswerKey) { k.Answers[0] = 6 }},
		{"no-answer sentinel not a valid key entry", func(k *AnswerKey) { k.Answers[0] = 0 }},
		{"bonus index out of range", func(k *AnswerKey) { k.BonusIndices[0] = 46 }},
		{"duplicate bonus index", func(k *AnswerKey) { k.BonusIndices[1] = k.BonusIndices[0] }},
		{"weights do not sum to 100", func(k *AnswerKey) { k.BonusIndices = k.BonusIndices[:9] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := validMockKey()
			tt.mutate(&k)
			if err := k.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}

	// Uniform categories reject point weights entirely.
	uniform := AnswerKey{
		Category:     CategoryEasyProblems,
		Answers:      []int{1, 2, 3, 4, 5, 1, 2, 3, 4, 5},
		BonusIndices: []int{1},
	}
	if err := uniform.Validate(); err == nil {
		t.Error("expected error for weights on a uniform category")
	}
	uniform.BonusIndices = nil
	if err := uniform.Validate(); err != nil {
		t.Errorf("valid uniform key rejected: %v", err)
	}
}

func TestPointsFor(t *testing.T) {
	k := validMockKey()
	if got := k.PointsFor(1); got != BonusPoints {
		t.Errorf("PointsFor(1) = %d, want %d", got, BonusPoints)
	}
	if got := k.PointsFor(45); got != BasePoints {
		t.Errorf("PointsFor(45) = %d, want %d", got, BasePoints)
	}
}

func TestSheetSegmentsCoverEveryQuestion(t *testing.T) {
	for _, c := range Categories {
		total := 0
		prevEnd := 0
		for _, seg := range c.SheetSegments() {
			if seg.Start <= prevEnd {
				t.Errorf("%s: segment %+v overlaps or is unordered", c, seg)
			}
			total += seg.End - seg.Start + 1
			prevEnd = seg.End
		}
		if total != c.QuestionCount() {
			t.Errorf("%s: segments cover %d questions, want %d", c, total, c.QuestionCount())
		}
	}
}

func TestQuestionAt(t *testing.T) {
	tests := []struct {
		category Category
		position int
		want     int
	}{
		{CategoryListening, 1, 1},
		{CategoryListening, 17, 17},
		{CategoryMockExam, 17, 17},
		{CategoryMockExam, 18, 18},
		{CategoryMockExam, 45, 45},
	}
	for _, tt := range tests {
		got, err := tt.category.QuestionAt(tt.position)
		if err != nil {
			t.Errorf("QuestionAt(%s, %d): %v", tt.category, tt.position, err)
			continue
		}
		if got != tt.want {
			t.Errorf("QuestionAt(%s, %d) = %d, want %d", tt.category, tt.position, got, tt.want)
		}
	}

	if _, err := CategoryListening.QuestionAt(0); err == nil {
		t.Error("expected error for position 0")
	}
	if _, err := CategoryListening.QuestionAt(18); err == nil {
		t.Error("expected error for position past the sheet")
	}
}
