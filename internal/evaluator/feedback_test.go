package evaluator

import (
	"testing"
)

func TestBuildFeedbackCannedSets(t *testing.T) {
	tests := []struct {
		locale string
		class  verdictClass
		want   string
	}{
		{"uz", classCorrect, "✅ To'g'ri!"},
		{"uz", classNear, "🔵 Juda yaqin!"},
		{"uz", classWrong, "❌ Noto'g'ri."},
		{"uz", classEmpty, "Javob kiritilmadi."},
		{"en", classCorrect, "✅ Correct!"},
		{"en", classWrong, "❌ Incorrect."},
		// Unknown locale falls back to the platform default.
		{"fr", classCorrect, "✅ To'g'ri!"},
		{"", classWrong, "❌ Noto'g'ri."},
	}

	for _, tt := range tests {
		fb := buildFeedback(feedbackInput{class: tt.class, locale: tt.locale})
		if fb.General != tt.want {
			t.Errorf("buildFeedback(%q, %d).General = %q, want %q", tt.locale, tt.class, fb.General, tt.want)
		}
	}
}

func TestBuildFeedbackExplanationPassthrough(t *testing.T) {
	expl := "chunki to'rt juft son"
	fb := buildFeedback(feedbackInput{class: classWrong, locale: "uz", explanation: &expl})
	if fb.Explanation == nil || *fb.Explanation != expl {
		t.Errorf("explanation = %v, want %q", fb.Explanation, expl)
	}

	empty := ""
	fb = buildFeedback(feedbackInput{class: classWrong, locale: "uz", explanation: &empty})
	if fb.Explanation != nil {
		t.Error("empty explanation should be omitted")
	}
}

func TestBuildFeedbackSuggestionsOnlyForNonCorrect(t *testing.T) {
	if fb := buildFeedback(feedbackInput{class: classCorrect, locale: "uz"}); len(fb.Suggestions) != 0 {
		t.Errorf("correct verdict should carry no suggestions, got %v", fb.Suggestions)
	}
	if fb := buildFeedback(feedbackInput{class: classWrong, locale: "uz"}); len(fb.Suggestions) == 0 {
		t.Error("wrong verdict should carry a suggestion")
	}
}
