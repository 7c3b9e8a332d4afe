package evaluator

import (
	"context"

	"github.com/tilhona/backend/internal/models"
)

// Transcript is what a SpeechRecognizer produces from an audio reference.
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// PronunciationScore holds the acoustic assessment of a spoken answer.
// Accuracy and Fluency are in [0,1].
type PronunciationScore struct {
	Accuracy  float64            `json:"accuracy"`
	Fluency   float64            `json:"fluency"`
	WordLevel map[string]float64 `json:"word_level,omitempty"`
}

// SpeechRecognizer transcribes recorded audio. Implementations live outside
// the core; the evaluator only ever sees this interface.
type SpeechRecognizer interface {
	Transcribe(ctx context.Context, audioRef, locale string) (*Transcript, error)
}

// PronunciationScorer assesses a spoken answer against reference text.
type PronunciationScorer interface {
	Score(ctx context.Context, audioRef, referenceText, locale string) (*PronunciationScore, error)
}

// NoopRecognizer is the default recognizer when no speech backend is
// configured. Every call reports the capability as unavailable.
type NoopRecognizer struct{}

func (NoopRecognizer) Transcribe(ctx context.Context, audioRef, locale string) (*Transcript, error) {
	return nil, models.ErrCapabilityUnavailable
}

// NoopScorer is the default pronunciation scorer when no speech backend is
// configured.
type NoopScorer struct{}

func (NoopScorer) Score(ctx context.Context, audioRef, referenceText, locale string) (*PronunciationScore, error) {
	return nil, models.ErrCapabilityUnavailable
}
