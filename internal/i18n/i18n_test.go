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
	return WithLocalizer(context.Background(), NewLocalizer(lang))
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NoneOfTheAbove"); got != "None of the above" {
		t.Errorf("expected 'None of the above', got %q", got)
	}
	if got := T(ctx, "AnswerKey"); got != "KEY" {
		t.Errorf("expected 'KEY', got %q", got)
	}
}

func TestTranslateRussian(t *testing.T) {
	ctx := initLang(t, "ru")

	if got := T(ctx, "NoneOfTheAbove"); got != "Ничего из перечисленного" {
		t.Errorf("expected Russian 'None of the above', got %q", got)
	}
	if got := T(ctx, "AnswerKey"); got != "ОТВЕТЫ" {
		t.Errorf("expected 'ОТВЕТЫ', got %q", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	if got := Tp(ctx, "QuestionsAssembled", 1); got != "1 question assembled." {
		t.Errorf("expected singular form, got %q", got)
	}
	if got := Tp(ctx, "QuestionsAssembled", 5); got != "5 questions assembled." {
		t.Errorf("expected plural form, got %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	// Missing keys fall back to the message ID.
	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("expected message ID fallback, got %q", got)
	}
}

func TestContextFallback(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := T(context.Background(), "AnswerKey"); got != "KEY" {
		t.Errorf("expected default localizer to give 'KEY', got %q", got)
	}
}

func TestInitBadLanguage(t *testing.T) {
	if err := Init("not a language!"); err == nil {
		t.Error("expected error for malformed language tag")
	}
}
