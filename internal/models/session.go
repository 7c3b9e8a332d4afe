package models

import (
	"encoding/json"
	"time"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

// Terminal reports whether the session reached a state that forbids further
// mutation.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

type SessionKind string

const (
	SessionPlacement  SessionKind = "placement"
	SessionLevelTest  SessionKind = "level_test"
	SessionLessonQuiz SessionKind = "lesson_quiz"
)

var ValidSessionKinds = map[SessionKind]bool{
	SessionPlacement:  true,
	SessionLevelTest:  true,
	SessionLessonQuiz: true,
}

type TestSession struct {
	ID               int64         `json:"id"`
	UserID           int64         `json:"user_id"`
	Kind             SessionKind   `json:"kind"`
	Status           SessionStatus `json:"status"`
	StartedAt        time.Time     `json:"started_at"`
	EndedAt          *time.Time    `json:"ended_at,omitempty"`
	TotalScore       *float64      `json:"total_score,omitempty"`
	TimeLimitSeconds *int          `json:"time_limit_seconds,omitempty"`
}

// Expired reports whether the session's optional time limit has elapsed.
func (s *TestSession) Expired(now time.Time) bool {
	if s.TimeLimitSeconds == nil {
		return false
	}
	deadline := s.StartedAt.Add(time.Duration(*s.TimeLimitSeconds) * time.Second)
	return now.After(deadline)
}

// TestResponse is one slot of a session. Created blank when the session is
// composed, mutated by submissions while the session is in progress, and
// graded exactly once when the session terminates.
type TestResponse struct {
	ID         int64           `json:"id"`
	SessionID  int64           `json:"session_id"`
	ExerciseID int64           `json:"exercise_id"`
	UserAnswer json.RawMessage `json:"user_answer,omitempty"`
	IsCorrect  *bool           `json:"is_correct,omitempty"`
	Score      *float64        `json:"score,omitempty"`
	Feedback   *Feedback       `json:"feedback,omitempty"`
	TimeSpent  *float64        `json:"time_spent,omitempty"`
}

// ── API Request/Response Types ────────────────────────────

type StartSessionRequest struct {
	Kind             SessionKind `json:"kind"`
	ExerciseSetID    int64       `json:"exercise_set_id"`
	TimeLimitSeconds *int        `json:"time_limit_seconds,omitempty"`
}

// SubmitSessionRequest carries the optional grading locale; an absent body
// means the default feedback language.
type SubmitSessionRequest struct {
	Language string `json:"language,omitempty"`
}

type SubmitResponseRequest struct {
	ExerciseID int64           `json:"exercise_id"`
	Answer     json.RawMessage `json:"answer"`
	TimeSpent  *float64        `json:"time_spent,omitempty"`
}

type SessionDetail struct {
	Session   TestSession    `json:"session"`
	Responses []TestResponse `json:"responses"`
}
