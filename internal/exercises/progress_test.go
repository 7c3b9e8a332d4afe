package exercises

import (
	"testing"

	"github.com/tilhona/backend/internal/models"
)

func TestSkillAreas(t *testing.T) {
	tests := []struct {
		kind models.ExerciseKind
		want []string
	}{
		{models.KindListening, []string{models.SkillListening}},
		{models.KindDictation, []string{models.SkillListening}},
		{models.KindSpeaking, []string{models.SkillSpeaking}},
		{models.KindTranslation, []string{models.SkillGrammar, models.SkillVocabulary}},
		{models.KindFillInBlank, []string{models.SkillGrammar, models.SkillVocabulary}},
		{models.KindShortAnswer, []string{models.SkillGrammar, models.SkillVocabulary}},
		{models.KindEssay, []string{models.SkillGrammar, models.SkillVocabulary}},
		{models.KindMultipleChoice, nil},
		{models.KindTrueFalse, nil},
		{models.KindMatching, nil},
	}

	for _, tt := range tests {
		got := SkillAreas(tt.kind)
		if len(got) != len(tt.want) {
			t.Errorf("SkillAreas(%s) = %v, want %v", tt.kind, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("SkillAreas(%s) = %v, want %v", tt.kind, got, tt.want)
			}
		}
	}
}

func TestApplyVerdictCountsOnlyCorrect(t *testing.T) {
	p := &models.UserProgress{UserID: 1}

	ApplyVerdict(p, models.KindMultipleChoice, models.Verdict{IsCorrect: true, Score: 1})
	if p.ExercisesCompleted != 1 {
		t.Errorf("completed = %d, want 1", p.ExercisesCompleted)
	}

	ApplyVerdict(p, models.KindMultipleChoice, models.Verdict{IsCorrect: false, Score: 0})
	if p.ExercisesCompleted != 1 {
		t.Errorf("wrong answer must not move the counter: %d", p.ExercisesCompleted)
	}
}

func TestApplyVerdictSkillScoreIsMonotoneMax(t *testing.T) {
	p := &models.UserProgress{UserID: 1}

	ApplyVerdict(p, models.KindListening, models.Verdict{IsCorrect: true, Score: 0.8})
	if p.ListeningScore != 80 {
		t.Errorf("listening = %d, want 80", p.ListeningScore)
	}

	// A worse later score never lowers the aggregate.
	ApplyVerdict(p, models.KindListening, models.Verdict{IsCorrect: true, Score: 0.7})
	if p.ListeningScore != 80 {
		t.Errorf("listening dropped to %d", p.ListeningScore)
	}

	ApplyVerdict(p, models.KindListening, models.Verdict{IsCorrect: true, Score: 0.95})
	if p.ListeningScore != 95 {
		t.Errorf("listening = %d, want 95", p.ListeningScore)
	}

	// Choice kinds leave every skill untouched.
	ApplyVerdict(p, models.KindTrueFalse, models.Verdict{IsCorrect: true, Score: 1})
	if p.VocabularyScore != 0 || p.GrammarScore != 0 || p.SpeakingScore != 0 {
		t.Errorf("choice kind moved a skill score: %+v", p)
	}
}

func TestApplyVerdictGrammarAndVocabularyTogether(t *testing.T) {
	p := &models.UserProgress{UserID: 1}

	ApplyVerdict(p, models.KindTranslation, models.Verdict{IsCorrect: true, Score: 0.76})
	if p.GrammarScore != 76 || p.VocabularyScore != 76 {
		t.Errorf("grammar=%d vocabulary=%d, want 76/76", p.GrammarScore, p.VocabularyScore)
	}
}

func TestApplyVerdictScoreBounds(t *testing.T) {
	p := &models.UserProgress{UserID: 1}

	ApplyVerdict(p, models.KindSpeaking, models.Verdict{IsCorrect: true, Score: 1.0})
	if p.SpeakingScore != 100 {
		t.Errorf("speaking = %d, want 100", p.SpeakingScore)
	}

	ApplyVerdict(p, models.KindSpeaking, models.Verdict{IsCorrect: true, Score: 2.5})
	if p.SpeakingScore != 100 {
		t.Errorf("speaking exceeded bound: %d", p.SpeakingScore)
	}
}
