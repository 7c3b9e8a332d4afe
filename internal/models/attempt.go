package models

import (
	"encoding/json"
	"time"
)

// Attempt is the append-only record of one graded answer. AttemptKey is
// unique per user and gives the write at-most-once semantics: a retried
// request with the same key returns the original row instead of inserting
// again.
type Attempt struct {
	ID         int64           `json:"id"`
	AttemptKey string          `json:"attempt_key"`
	UserID     int64           `json:"user_id"`
	ExerciseID int64           `json:"exercise_id"`
	UserAnswer json.RawMessage `json:"user_answer"`
	IsCorrect  bool            `json:"is_correct"`
	Score      float64         `json:"score"`
	Feedback   Feedback        `json:"feedback"`
	TimeSpent  *float64        `json:"time_spent,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

type AttemptListResponse struct {
	Attempts []Attempt `json:"attempts"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}
