package models

import (
	"encoding/json"
	"time"
)

type ExerciseKind string

const (
	KindMultipleChoice ExerciseKind = "multiple_choice"
	KindTrueFalse      ExerciseKind = "true_false"
	KindFillInBlank    ExerciseKind = "fill_in_blank"
	KindMatching       ExerciseKind = "matching"
	KindShortAnswer    ExerciseKind = "short_answer"
	KindEssay          ExerciseKind = "essay"
	KindListening      ExerciseKind = "listening"
	KindSpeaking       ExerciseKind = "speaking"
	KindTranslation    ExerciseKind = "translation"
	KindDictation      ExerciseKind = "dictation"
)

var ValidKinds = map[ExerciseKind]bool{
	KindMultipleChoice: true,
	KindTrueFalse:      true,
	KindFillInBlank:    true,
	KindMatching:       true,
	KindShortAnswer:    true,
	KindEssay:          true,
	KindListening:      true,
	KindSpeaking:       true,
	KindTranslation:    true,
	KindDictation:      true,
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var ValidDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

// Exercise is the immutable definition the evaluator grades against.
// CorrectAnswer and Options keep their JSONB storage representation; the
// evaluator parses them into tagged values at entry.
type Exercise struct {
	ID            int64           `json:"id"`
	Kind          ExerciseKind    `json:"kind"`
	Question      string          `json:"question"`
	CorrectAnswer json.RawMessage `json:"-"`
	Options       json.RawMessage `json:"options,omitempty"`
	Explanation   *string         `json:"explanation,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	AudioRef      *string         `json:"audio_ref,omitempty"`
	Difficulty    Difficulty      `json:"difficulty"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ExerciseSet is an ordered collection of exercises a test session is
// composed from.
type ExerciseSet struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

type ExerciseSetItem struct {
	SetID      int64 `json:"set_id"`
	ExerciseID int64 `json:"exercise_id"`
	Position   int   `json:"position"`
	Points     int   `json:"points"`
	Required   bool  `json:"required"`
}

// ── API Request/Response Types ────────────────────────────

type ExerciseListRequest struct {
	Kind       *ExerciseKind
	Difficulty *Difficulty
	Tag        *string
	Page       int
	PageSize   int
}

type ExerciseListResponse struct {
	Exercises []Exercise `json:"exercises"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
}

type CheckAnswerRequest struct {
	Answer     json.RawMessage `json:"answer"`
	AudioURL   *string         `json:"audio_url,omitempty"`
	Language   string          `json:"language,omitempty"`
	TimeSpent  *float64        `json:"time_spent,omitempty"`
	AttemptKey string          `json:"attempt_key,omitempty"`
}

type CheckAnswerResponse struct {
	IsCorrect   bool     `json:"is_correct"`
	Score       float64  `json:"score"`
	Feedback    Feedback `json:"feedback"`
	Explanation *string  `json:"explanation,omitempty"`
	AttemptID   int64    `json:"attempt_id"`
}
