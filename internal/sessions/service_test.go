package sessions

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/tilhona/backend/internal/evaluator"
	"github.com/tilhona/backend/internal/models"
)

func TestTotalScore(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   float64
	}{
		{"no responses", nil, 0},
		{"all correct", []float64{1.0, 1.0, 1.0}, 100},
		{"two of three", []float64{1.0, 1.0, 0.0}, 66.67},
		{"partial credit", []float64{0.5, 0.75}, 62.5},
		{"single zero", []float64{0.0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TotalScore(tt.scores); got != tt.want {
				t.Errorf("TotalScore(%v) = %v, want %v", tt.scores, got, tt.want)
			}
		})
	}
}

func TestGradeResponse(t *testing.T) {
	svc := NewService(nil, evaluator.New(nil, nil))
	grade := svc.gradeResponse(context.Background(), "")

	exercise := func(kind models.ExerciseKind, correct string) *models.Exercise {
		return &models.Exercise{
			ID:            1,
			Kind:          kind,
			Question:      "Translate: kitob",
			CorrectAnswer: json.RawMessage(correct),
		}
	}

	t.Run("correct answer", func(t *testing.T) {
		ok, score, fb := grade(exercise(models.KindShortAnswer, `"book"`), json.RawMessage(`"book"`), nil)
		if !ok || score != 1.0 {
			t.Errorf("got (%v, %v), want (true, 1.0)", ok, score)
		}
		if fb.General != "✅ To'g'ri!" {
			t.Errorf("feedback = %q", fb.General)
		}
	})

	t.Run("wrong answer", func(t *testing.T) {
		ok, score, _ := grade(exercise(models.KindShortAnswer, `"book"`), json.RawMessage(`"table"`), nil)
		if ok || score != 0 {
			t.Errorf("got (%v, %v), want (false, 0)", ok, score)
		}
	})

	t.Run("blank response scores zero", func(t *testing.T) {
		ok, score, fb := grade(exercise(models.KindShortAnswer, `"book"`), nil, nil)
		if ok || score != 0 {
			t.Errorf("got (%v, %v), want (false, 0)", ok, score)
		}
		if fb.General != "Javob kiritilmadi." {
			t.Errorf("feedback = %q", fb.General)
		}
	})

	t.Run("malformed answer does not panic", func(t *testing.T) {
		ok, score, fb := grade(exercise(models.KindMatching, `{"a":"b"}`), json.RawMessage(`"not a map"`), nil)
		if ok || score != 0 {
			t.Errorf("got (%v, %v), want (false, 0)", ok, score)
		}
		if fb.General == "" {
			t.Error("expected non-empty feedback on grading failure")
		}
	})

	t.Run("broken correct answer recorded not fatal", func(t *testing.T) {
		ok, score, fb := grade(exercise(models.KindShortAnswer, `{"bad":`), json.RawMessage(`"book"`), nil)
		if ok || score != 0 {
			t.Errorf("got (%v, %v), want (false, 0)", ok, score)
		}
		if fb.General != "evaluation failed" {
			t.Errorf("feedback = %q", fb.General)
		}
	})
}

// trackingRecognizer counts transcription calls so tests can assert the
// recognizer is never reached for blank slots.
type trackingRecognizer struct {
	text  string
	calls int
}

func (r *trackingRecognizer) Transcribe(ctx context.Context, audioRef, locale string) (*evaluator.Transcript, error) {
	r.calls++
	return &evaluator.Transcript{Text: r.text, Confidence: 0.98}, nil
}

func TestGradeResponseBlankSlotWithPromptAudio(t *testing.T) {
	// The exercise's audio_ref is the listening prompt. A slot with no
	// submitted answer must grade as empty even with a recognizer wired in;
	// transcribing the prompt would hand out a perfect score for silence.
	recognizer := &trackingRecognizer{text: "salomlar yaxshimisiz"}
	svc := NewService(nil, evaluator.New(recognizer, nil))
	grade := svc.gradeResponse(context.Background(), "")

	prompt := "audio/listening/14.mp3"
	ex := &models.Exercise{
		ID:            14,
		Kind:          models.KindListening,
		Question:      "Eshitganingizni yozing",
		CorrectAnswer: json.RawMessage(`"salomlar yaxshimisiz"`),
		AudioRef:      &prompt,
	}

	ok, score, fb := grade(ex, nil, nil)
	if ok || score != 0 {
		t.Errorf("blank slot graded (%v, %v), want (false, 0)", ok, score)
	}
	if fb.General != "Javob kiritilmadi." {
		t.Errorf("feedback = %q, want empty-answer feedback", fb.General)
	}
	if recognizer.calls != 0 {
		t.Errorf("recognizer called %d times for a blank slot", recognizer.calls)
	}

	t.Run("dictation slot", func(t *testing.T) {
		ex.Kind = models.KindDictation
		ok, score, _ := grade(ex, nil, nil)
		if ok || score != 0 {
			t.Errorf("blank dictation slot graded (%v, %v), want (false, 0)", ok, score)
		}
		if recognizer.calls != 0 {
			t.Error("recognizer reached for blank dictation slot")
		}
	})
}

func TestGradeResponseLocale(t *testing.T) {
	svc := NewService(nil, evaluator.New(nil, nil))
	grade := svc.gradeResponse(context.Background(), "en")

	ex := &models.Exercise{
		ID:            3,
		Kind:          models.KindShortAnswer,
		Question:      "Translate: kitob",
		CorrectAnswer: json.RawMessage(`"book"`),
	}

	_, _, fb := grade(ex, json.RawMessage(`"book"`), nil)
	if fb.General != "✅ Correct!" {
		t.Errorf("feedback = %q, want English correct message", fb.General)
	}

	_, _, fb = grade(ex, nil, nil)
	if fb.General != "No answer provided." {
		t.Errorf("feedback = %q, want English empty-answer message", fb.General)
	}
}

func TestStartValidation(t *testing.T) {
	svc := NewService(nil, evaluator.New(nil, nil))

	if _, err := svc.Start(context.Background(), 1, models.StartSessionRequest{
		Kind:          "marathon",
		ExerciseSetID: 1,
	}); err == nil {
		t.Error("expected error for unknown session kind")
	} else {
		var invalid *models.InvalidInputError
		if !asInvalid(err, &invalid) {
			t.Errorf("expected InvalidInputError, got %T", err)
		}
	}

	limit := -30
	if _, err := svc.Start(context.Background(), 1, models.StartSessionRequest{
		Kind:             models.SessionLessonQuiz,
		ExerciseSetID:    1,
		TimeLimitSeconds: &limit,
	}); err == nil {
		t.Error("expected error for negative time limit")
	}
}

func asInvalid(err error, target **models.InvalidInputError) bool {
	e, ok := err.(*models.InvalidInputError)
	if ok {
		*target = e
	}
	return ok
}
