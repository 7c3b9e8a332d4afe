package models

// Feedback is the structured record attached to every verdict. It is stored
// as JSONB on attempts and test responses.
type Feedback struct {
	General       string                 `json:"general"`
	Specific      map[string]interface{} `json:"specific,omitempty"`
	Suggestions   []string               `json:"suggestions,omitempty"`
	AudioFeedback map[string]interface{} `json:"audio_feedback,omitempty"`
	Explanation   *string                `json:"explanation,omitempty"`
}

// MatchItemResult is the per-key verdict for matching exercises, keyed into
// Feedback.Specific.
type MatchItemResult struct {
	Status   string `json:"status"` // "correct" or "incorrect"
	Expected string `json:"expected,omitempty"`
	Got      string `json:"got,omitempty"`
}

// Verdict is what the evaluator returns: correctness, a score in [0,1],
// and the assembled feedback.
type Verdict struct {
	IsCorrect bool     `json:"is_correct"`
	Score     float64  `json:"score"`
	Feedback  Feedback `json:"feedback"`
}
