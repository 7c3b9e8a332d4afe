package models

import "time"

// Skill areas exercise kinds map into.
const (
	SkillVocabulary = "vocabulary"
	SkillGrammar    = "grammar"
	SkillSpeaking   = "speaking"
	SkillListening  = "listening"
)

// UserProgress is the per-user aggregate row. Counters are monotone and
// skill scores live in [0,100]; concurrent writers serialize on the row lock.
type UserProgress struct {
	UserID             int64     `json:"user_id"`
	ExercisesCompleted int       `json:"exercises_completed"`
	VocabularyScore    int       `json:"vocabulary_score"`
	GrammarScore       int       `json:"grammar_score"`
	SpeakingScore      int       `json:"speaking_score"`
	ListeningScore     int       `json:"listening_score"`
	LastUpdated        time.Time `json:"last_updated"`
}

// SkillScore returns the current score for a named skill area.
func (p *UserProgress) SkillScore(area string) int {
	switch area {
	case SkillVocabulary:
		return p.VocabularyScore
	case SkillGrammar:
		return p.GrammarScore
	case SkillSpeaking:
		return p.SpeakingScore
	case SkillListening:
		return p.ListeningScore
	}
	return 0
}

// SetSkillScore overwrites the score for a named skill area.
func (p *UserProgress) SetSkillScore(area string, score int) {
	switch area {
	case SkillVocabulary:
		p.VocabularyScore = score
	case SkillGrammar:
		p.GrammarScore = score
	case SkillSpeaking:
		p.SpeakingScore = score
	case SkillListening:
		p.ListeningScore = score
	}
}
