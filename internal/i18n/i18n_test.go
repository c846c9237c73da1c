package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "RejectAlreadySubmitted")
	if got != "You have already submitted this homework today." {
		t.Errorf("T(RejectAlreadySubmitted) = %q", got)
	}

	got = T(ctx, "RejectDeadlinePassed")
	if got != "The submission deadline for today's homework has passed." {
		t.Errorf("T(RejectDeadlinePassed) = %q", got)
	}
}

func TestTranslateKorean(t *testing.T) {
	ctx := initLang(t, "ko")

	got := T(ctx, "RejectAlreadySubmitted")
	if got != "오늘 숙제는 이미 제출했습니다." {
		t.Errorf("T(RejectAlreadySubmitted) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "SubmitBy", map[string]any{"Deadline": "03:00"})
	if got != "Submit by 03:00." {
		t.Errorf("Td(SubmitBy) = %q", got)
	}
}

func TestAcceptLanguageOverridesFallback(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	loc := NewLocalizer("ko", "en")
	ctx := WithLocalizer(context.Background(), loc)
	got := T(ctx, "RejectAlreadySubmitted")
	if got != "오늘 숙제는 이미 제출했습니다." {
		t.Errorf("T with ko preference = %q, want korean message", got)
	}

	loc = NewLocalizer("", "en")
	ctx = WithLocalizer(context.Background(), loc)
	got = T(ctx, "RejectAlreadySubmitted")
	if got != "You have already submitted this homework today." {
		t.Errorf("T with empty preference = %q, want english fallback", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want fallback to ID", got)
	}
}
