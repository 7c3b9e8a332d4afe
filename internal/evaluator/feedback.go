package evaluator

import (
	"github.com/tilhona/backend/internal/models"
)

// verdictClass selects the canned feedback set for a graded answer.
type verdictClass int

const (
	classCorrect verdictClass = iota
	classNear
	classWrong
	classEmpty
)

// DefaultLocale is the platform's target language. Feedback falls back to
// it when a request carries no locale or an unknown one.
const DefaultLocale = "uz"

type cannedText struct {
	general     string
	suggestions []string
}

var feedbackMessages = map[string]map[verdictClass]cannedText{
	"uz": {
		classCorrect: {general: "✅ To'g'ri!"},
		classNear: {
			general:     "🔵 Juda yaqin!",
			suggestions: []string{"Imloni tekshirib ko'ring"},
		},
		classWrong: {
			general:     "❌ Noto'g'ri.",
			suggestions: []string{"Yana bir bor urinib ko'ring"},
		},
		classEmpty: {
			general:     "Javob kiritilmadi.",
			suggestions: []string{"Avval javob yozing"},
		},
	},
	"en": {
		classCorrect: {general: "✅ Correct!"},
		classNear: {
			general:     "🔵 Very close!",
			suggestions: []string{"Check your spelling"},
		},
		classWrong: {
			general:     "❌ Incorrect.",
			suggestions: []string{"Try once more"},
		},
		classEmpty: {
			general:     "No answer provided.",
			suggestions: []string{"Write an answer first"},
		},
	},
}

// correctAnswerLabel is the key under which the expected answer appears in
// Feedback.Specific on a wrong verdict.
func correctAnswerLabel(locale string) string {
	if locale == "en" {
		return "Correct answer"
	}
	return "To'g'ri javob"
}

// EmptyAnswerFeedback is the record attached when a graded slot was never
// answered. Session grading uses it for blank responses.
func EmptyAnswerFeedback(locale string) models.Feedback {
	return buildFeedback(feedbackInput{class: classEmpty, locale: locale})
}

// feedbackInput collects everything the builder assembles into a Feedback.
type feedbackInput struct {
	class       verdictClass
	locale      string
	explanation *string
	specific    map[string]interface{}
	audio       map[string]interface{}
}

// buildFeedback assembles the structured feedback record. It never fails
// the grading call: any panic during assembly degrades to a minimal record.
func buildFeedback(in feedbackInput) (fb models.Feedback) {
	defer func() {
		if r := recover(); r != nil {
			fb = models.Feedback{General: "unavailable"}
		}
	}()

	locale := in.locale
	if _, ok := feedbackMessages[locale]; !ok {
		locale = DefaultLocale
	}
	canned := feedbackMessages[locale][in.class]

	fb = models.Feedback{
		General:     canned.general,
		Suggestions: canned.suggestions,
	}
	if len(in.specific) > 0 {
		fb.Specific = in.specific
	}
	if len(in.audio) > 0 {
		fb.AudioFeedback = in.audio
	}
	if in.explanation != nil && *in.explanation != "" {
		fb.Explanation = in.explanation
	}
	return fb
}
