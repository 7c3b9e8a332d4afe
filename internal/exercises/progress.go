package exercises

import (
	"math"

	"github.com/tilhona/backend/internal/models"
)

// SkillAreas maps an exercise kind to the aggregate skill areas its verdict
// feeds. Choice-style kinds only move the completion counter.
func SkillAreas(kind models.ExerciseKind) []string {
	switch kind {
	case models.KindListening, models.KindDictation:
		return []string{models.SkillListening}
	case models.KindSpeaking:
		return []string{models.SkillSpeaking}
	case models.KindFillInBlank, models.KindShortAnswer, models.KindEssay, models.KindTranslation:
		return []string{models.SkillGrammar, models.SkillVocabulary}
	}
	return nil
}

// ApplyVerdict folds one graded attempt into the aggregate row. Counters
// only ever grow and skill scores only ever rise, so re-applying an already
// applied verdict can inflate the counter — callers guard with the attempt
// key before reaching here.
func ApplyVerdict(p *models.UserProgress, kind models.ExerciseKind, verdict models.Verdict) {
	if verdict.IsCorrect {
		p.ExercisesCompleted++
	}

	score := int(math.Round(verdict.Score * 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	for _, area := range SkillAreas(kind) {
		if score > p.SkillScore(area) {
			p.SetSkillScore(area, score)
		}
	}
}
