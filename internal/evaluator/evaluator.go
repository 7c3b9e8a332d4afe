// Package evaluator grades user answers against exercise definitions. The
// evaluator itself is pure: apart from calls to the injected speech
// capabilities it performs no I/O, so identical inputs always produce
// identical verdicts.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/tilhona/backend/internal/models"
	"github.com/tilhona/backend/internal/textnorm"
)

// shortAnswerThreshold accepts near-misses on short answers and essays.
const shortAnswerThreshold = 0.8

// listeningCap bounds the score of a non-exact listening answer.
const listeningCap = 0.9

// dictationWeight scales character accuracy into the dictation score.
const dictationWeight = 0.8

type Evaluator struct {
	recognizer SpeechRecognizer
	scorer     PronunciationScorer
}

// New builds an evaluator. Nil capabilities degrade to no-op
// implementations that report CapabilityUnavailable when reached.
func New(recognizer SpeechRecognizer, scorer PronunciationScorer) *Evaluator {
	if recognizer == nil {
		recognizer = NoopRecognizer{}
	}
	if scorer == nil {
		scorer = NoopScorer{}
	}
	return &Evaluator{recognizer: recognizer, scorer: scorer}
}

// Evaluate dispatches on the exercise kind and returns the verdict.
// InvalidInputError and ErrCapabilityUnavailable pass through untouched so
// the caller can refuse to record an attempt; any other failure comes back
// as an EvaluationError alongside a failed verdict.
func (e *Evaluator) Evaluate(ctx context.Context, ex *models.Exercise, ans models.Answer, audioRef *string, locale string) (models.Verdict, error) {
	if locale == "" {
		locale = DefaultLocale
	}

	correct, err := models.ParseCorrectAnswer(ex.Kind, ex.CorrectAnswer)
	if err != nil {
		return failedVerdict(fmt.Errorf("exercise %d: %w", ex.ID, err))
	}

	var verdict models.Verdict
	switch ex.Kind {
	case models.KindMultipleChoice:
		verdict, err = e.evaluateMultipleChoice(ex, ans, correct, locale)
	case models.KindTrueFalse:
		verdict, err = e.evaluateTrueFalse(ex, ans, correct, locale)
	case models.KindFillInBlank:
		verdict, err = e.evaluateFillInBlank(ex, ans, correct, locale)
	case models.KindMatching:
		verdict, err = e.evaluateMatching(ex, ans, correct, locale)
	case models.KindShortAnswer, models.KindEssay:
		verdict, err = e.evaluateShortAnswer(ex, ans, correct, locale)
	case models.KindListening:
		verdict, err = e.evaluateListening(ctx, ex, ans, correct, audioRef, locale)
	case models.KindSpeaking:
		verdict, err = e.evaluateSpeaking(ctx, ex, ans, correct, audioRef, locale)
	case models.KindTranslation:
		verdict, err = e.evaluateTranslation(ex, ans, correct, locale)
	case models.KindDictation:
		verdict, err = e.evaluateDictation(ctx, ex, ans, correct, audioRef, locale)
	default:
		return failedVerdict(fmt.Errorf("unknown exercise kind %q", ex.Kind))
	}

	if err != nil {
		var invalid *models.InvalidInputError
		if errors.As(err, &invalid) || errors.Is(err, models.ErrCapabilityUnavailable) {
			return models.Verdict{}, err
		}
		return failedVerdict(err)
	}
	return verdict, nil
}

// failedVerdict is the fixed response for unexpected internal errors. The
// error travels alongside it so the API layer can map to a 500; the attempt
// is never recorded in that case.
func failedVerdict(err error) (models.Verdict, error) {
	return models.Verdict{
		IsCorrect: false,
		Score:     0,
		Feedback:  models.Feedback{General: "evaluation failed"},
	}, &models.EvaluationError{Err: err}
}

// ── Per-kind rules ──────────────────────────────────────

func (e *Evaluator) evaluateMultipleChoice(ex *models.Exercise, ans models.Answer, correct models.CorrectAnswer, locale string) (models.Verdict, error) {
	if ans.Key == nil {
		return models.Verdict{}, &models.InvalidInputError{Reason: "an option key is required"}
	}

	opts, err := models.ParseOptions(ex.Options)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("exercise %d options: %w", ex.ID, err)
	}
	if opts != nil && !opts.Has(*ans.Key) {
		return models.Verdict{}, &models.InvalidInputError{Reason: fmt.Sprintf("option %q does not exist", *ans.Key)}
	}

	if *ans.Key == correct.Key {
		return correctVerdict(ex, locale), nil
	}
	return wrongVerdict(ex, locale, map[string]interface{}{
		correctAnswerLabel(locale): opts.Text(correct.Key),
	}), nil
}

func (e *Evaluator) evaluateTrueFalse(ex *models.Exercise, ans models.Answer, correct models.CorrectAnswer, locale string) (models.Verdict, error) {
	if ans.Bool == nil {
		return models.Verdict{}, &models.InvalidInputError{Reason: "a boolean answer is required"}
	}
	if *ans.Bool == correct.Bool {
		return correctVerdict(ex, locale), nil
	}
	return wrongVerdict(ex, locale, nil), nil
}

func (e *Evaluator) evaluateFillInBlank(ex *models.Exercise, ans models.Answer, correct models.CorrectAnswer, locale string) (models.Verdict, error) {
	text := textOf(ans)
	if textnorm.Normalize(text, locale) == "" {
		return emptyVerdict(ex, locale), nil
	}

	got := textnorm.Normalize(text, locale)
	near := false
	for _, accepted := range correct.Texts {
		want := textnorm.Normalize(accepted, locale)
		if got == want {
			return correctVerdict(ex, locale), nil
		}
		if textnorm.Similarity(got, want) >= textnorm.NearExactThreshold {
			near = true
		}
	}
	if near {
		return nearVerdict(ex, locale, 1.0, nil), nil
	}
	return wrongVerdict(ex, locale, map[string]interface{}{
		correctAnswerLabel(locale): correct.Texts[0],
	}), nil
}

func (e *Evaluator) evaluateMatching(ex *models.Exercise, ans models.Answer, correct models.CorrectAnswer, locale string) (models.Verdict, error) {
	if ans.Pairs == nil {
		return models.Verdict{}, &models.InvalidInputError{Reason: "a map of pairs is required"}
	}

	keys := make([]string, 0, len(correct.Pairs))
	for k := range correct.Pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	specific := make(map[string]interface{}, len(keys))
	matched := 0
	for _, k := range keys {
		want := textnorm.Normalize(correct.Pairs[k], locale)
		got := textnorm.Normalize(ans.Pairs[k], locale)
		// Extra user keys are ignored; a missing key counts as wrong.
		if got != "" && textnorm.Similarity(got, want) >= textnorm.NearExactThreshold {
			matched++
			specific[k] = models.MatchItemResult{Status: "correct"}
			continue
		}
		specific[k] = models.MatchItemResult{
			Status:   "incorrect",
			Expected: correct.Pairs[k],
			Got:      ans.Pairs[k],
		}
	}

	score := float64(matched) / float64(len(keys))
	if matched == len(keys) {
		v := correctVerdict(ex, locale)
		v.Feedback.Specific = specific
		return v, nil
	}

	class := classWrong
	if score > 0 {
		class = classNear
	}
	return models.Verdict{
		IsCorrect: false,
		Score:     score,
		Feedback: buildFeedback(feedbackInput{
			class:       class,
			locale:      locale,
			explanation: ex.Explanation,
			specific:    specific,
		}),
	}, nil
}

func (e *Evaluator) evaluateShortAnswer(ex *models.Exercise, ans models.Answer, correct models.CorrectAnswer, locale string) (models.Verdict, error) {
	text := textOf(ans)
	got := textnorm.Normalize(text, locale)
	if got == "" {
		return emptyVerdict(ex, locale), nil
	}

	near := false
	for _, accepted := range correct.Texts {
		want := textnorm.Normalize(accepted, locale)
		if got == want {
			return correctVerdict(ex, locale), nil
		}
		if textnorm.Similarity(got, want) >= shortAnswerThreshold {
			near = true
		}
	}
	if near {
		return nearVerdict(ex, locale, 1.0, nil), nil
	}
	return wrongVerdict(ex, locale, map[string]interface{}{
		correctAnswerLabel(locale): correct.Texts[0],
	}), nil
}

func (e *Evaluator) evaluateListening(ctx context.Context, ex *models.Exercise, ans models.Answer, correct models.CorrectAnswer, audioRef *string, locale string) (models.Verdict, error) {
	text, err := e.transcriptText(ctx, ans, audioRef, locale)
	if err != nil {
		return models.Verdict{}, err
	}

	got := textnorm.Normalize(text, locale)
	if got == "" {
		return emptyVerdict(ex, locale), nil
	}

	bestSim, bestOverlap := 0.0, 0.0
	for _, accepted := range correct.Texts {
		want := textnorm.Normalize(accepted, locale)
		if sim := textnorm.Similarity(got, want); sim > bestSim {
			bestSim = sim
		}
		if ov := textnorm.WordOverlap(got, want); ov > bestOverlap {
			bestOverlap = ov
		}
	}

	if bestSim >= textnorm.NearExactThreshold {
		return correctVerdict(ex, locale), nil
	}

	// Non-exact answers are capped below a full score even when the word
	// overlap is perfect.
	score := math.Min(bestOverlap, listeningCap)
	if bestOverlap >= textnorm.CloseThreshold {
		return nearVerdict(ex, locale, score, nil), nil
	}
	v := wrongVerdict(ex, locale, map[string]interface{}{
		correctAnswerLabel(locale): correct.Texts[0],
	})
	v.Score = score
	return v, nil
}

func (e *Evaluator) evaluateSpeaking(ctx context.Context, ex *models.Exercise, ans models.Answer, correct models.CorrectAnswer, audioRef *string, locale string) (models.Verdict, error) {
	if audioRef == nil || *audioRef == "" {
		return models.Verdict{}, &models.InvalidInputError{Reason: "audio is required for speaking exercises"}
	}

	reference := correct.Texts[0]
	ps, err := e.scorer.Score(ctx, *audioRef, reference, locale)
	if err != nil {
		return models.Verdict{}, err
	}

	text, err := e.transcriptText(ctx, ans, audioRef, locale)
	if err != nil {
		return models.Verdict{}, err
	}

	sim := textnorm.Similarity(
		textnorm.Normalize(text, locale),
		textnorm.Normalize(reference, locale),
	)
	score := clamp01(0.6*ps.Accuracy + 0.4*ps.Fluency)
	isCorrect := sim >= textnorm.NearExactThreshold

	audio := map[string]interface{}{
		"accuracy":   ps.Accuracy,
		"fluency":    ps.Fluency,
		"transcript": text,
	}
	if len(ps.WordLevel) > 0 {
		audio["word_level"] = ps.WordLevel
	}

	class := classWrong
	if isCorrect {
		class = classCorrect
	}
	return models.Verdict{
		IsCorrect: isCorrect,
		Score:     score,
		Feedback: buildFeedback(feedbackInput{
			class:       class,
			locale:      locale,
			explanation: ex.Explanation,
			audio:       audio,
		}),
	}, nil
}

func (e *Evaluator) evaluateTranslation(ex *models.Exercise, ans models.Answer, correct models.CorrectAnswer, locale string) (models.Verdict, error) {
	text := textOf(ans)
	got := textnorm.Normalize(text, locale)
	if got == "" {
		return emptyVerdict(ex, locale), nil
	}

	bestSim, bestOverlap := 0.0, 0.0
	for _, accepted := range correct.Texts {
		want := textnorm.Normalize(accepted, locale)
		if sim := textnorm.Similarity(got, want); sim > bestSim {
			bestSim = sim
		}
		if ov := textnorm.WordOverlap(got, want); ov > bestOverlap {
			bestOverlap = ov
		}
	}

	if bestSim >= textnorm.NearExactThreshold {
		return correctVerdict(ex, locale), nil
	}

	// Edit-distance similarity stands in for accuracy, word overlap for
	// fluency of the rendered translation.
	score := clamp01(0.6*bestSim + 0.4*bestOverlap)
	if bestOverlap >= textnorm.CloseThreshold {
		return nearVerdict(ex, locale, score, nil), nil
	}
	v := wrongVerdict(ex, locale, map[string]interface{}{
		correctAnswerLabel(locale): correct.Texts[0],
	})
	v.Score = score
	return v, nil
}

func (e *Evaluator) evaluateDictation(ctx context.Context, ex *models.Exercise, ans models.Answer, correct models.CorrectAnswer, audioRef *string, locale string) (models.Verdict, error) {
	if ans.Text == nil && (audioRef == nil || *audioRef == "") {
		return models.Verdict{}, &models.InvalidInputError{Reason: "text or audio is required for dictation"}
	}

	text, err := e.transcriptText(ctx, ans, audioRef, locale)
	if err != nil {
		return models.Verdict{}, err
	}

	got := textnorm.Normalize(text, locale)
	if got == "" {
		return emptyVerdict(ex, locale), nil
	}

	bestAcc := 0.0
	for _, accepted := range correct.Texts {
		want := textnorm.Normalize(accepted, locale)
		if got == want {
			return correctVerdict(ex, locale), nil
		}
		maxLen := len([]rune(got))
		if l := len([]rune(want)); l > maxLen {
			maxLen = l
		}
		acc := 1 - float64(textnorm.EditDistance(got, want))/float64(maxLen)
		if acc > bestAcc {
			bestAcc = acc
		}
	}

	score := clamp01(dictationWeight * bestAcc)
	specific := map[string]interface{}{"character_accuracy": bestAcc}
	if bestAcc >= textnorm.NearExactThreshold {
		return nearVerdict(ex, locale, score, specific), nil
	}
	v := wrongVerdict(ex, locale, map[string]interface{}{
		correctAnswerLabel(locale): correct.Texts[0],
	})
	v.Score = score
	return v, nil
}

// ── Shared helpers ──────────────────────────────────────

// transcriptText resolves the text being graded for audio-capable kinds:
// the user's own transcript when supplied, otherwise a recognizer pass over
// the audio.
func (e *Evaluator) transcriptText(ctx context.Context, ans models.Answer, audioRef *string, locale string) (string, error) {
	if ans.Text != nil {
		return *ans.Text, nil
	}
	if audioRef == nil || *audioRef == "" {
		return "", &models.InvalidInputError{Reason: "text or audio is required"}
	}
	tr, err := e.recognizer.Transcribe(ctx, *audioRef, locale)
	if err != nil {
		return "", err
	}
	return tr.Text, nil
}

func textOf(ans models.Answer) string {
	if ans.Text == nil {
		return ""
	}
	return *ans.Text
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func correctVerdict(ex *models.Exercise, locale string) models.Verdict {
	return models.Verdict{
		IsCorrect: true,
		Score:     1.0,
		Feedback: buildFeedback(feedbackInput{
			class:       classCorrect,
			locale:      locale,
			explanation: ex.Explanation,
		}),
	}
}

// nearVerdict marks an accepted near-miss: still correct, with feedback
// telling the user how close they were.
func nearVerdict(ex *models.Exercise, locale string, score float64, specific map[string]interface{}) models.Verdict {
	return models.Verdict{
		IsCorrect: true,
		Score:     score,
		Feedback: buildFeedback(feedbackInput{
			class:       classNear,
			locale:      locale,
			explanation: ex.Explanation,
			specific:    specific,
		}),
	}
}

func wrongVerdict(ex *models.Exercise, locale string, specific map[string]interface{}) models.Verdict {
	return models.Verdict{
		IsCorrect: false,
		Score:     0,
		Feedback: buildFeedback(feedbackInput{
			class:       classWrong,
			locale:      locale,
			explanation: ex.Explanation,
			specific:    specific,
		}),
	}
}

func emptyVerdict(ex *models.Exercise, locale string) models.Verdict {
	return models.Verdict{
		IsCorrect: false,
		Score:     0,
		Feedback: buildFeedback(feedbackInput{
			class:       classEmpty,
			locale:      locale,
			explanation: ex.Explanation,
		}),
	}
}
