package sessions

import (
	"context"
	"encoding/json"
	"log"
	"math"

	"github.com/tilhona/backend/internal/evaluator"
	"github.com/tilhona/backend/internal/models"
)

type Service struct {
	store     *Store
	evaluator *evaluator.Evaluator
}

func NewService(store *Store, eval *evaluator.Evaluator) *Service {
	return &Service{store: store, evaluator: eval}
}

// Start composes a new session from an exercise set.
func (s *Service) Start(ctx context.Context, userID int64, req models.StartSessionRequest) (*models.SessionDetail, error) {
	if !models.ValidSessionKinds[req.Kind] {
		return nil, &models.InvalidInputError{Reason: "invalid session kind"}
	}
	if req.TimeLimitSeconds != nil && *req.TimeLimitSeconds <= 0 {
		return nil, &models.InvalidInputError{Reason: "time limit must be positive"}
	}

	exerciseIDs, err := s.store.SetExerciseIDs(ctx, req.ExerciseSetID)
	if err != nil {
		return nil, err
	}
	if len(exerciseIDs) == 0 {
		return nil, &models.InvalidInputError{Reason: "exercise set not found or empty"}
	}

	return s.store.CreateSession(ctx, userID, req.Kind, req.TimeLimitSeconds, exerciseIDs)
}

func (s *Service) Get(ctx context.Context, sessionID, userID int64) (*models.SessionDetail, error) {
	return s.store.GetSessionDetail(ctx, sessionID, userID)
}

func (s *Service) SubmitResponse(ctx context.Context, sessionID, userID int64, req models.SubmitResponseRequest) (*models.TestResponse, error) {
	if req.ExerciseID == 0 {
		return nil, &models.InvalidInputError{Reason: "exercise_id is required"}
	}
	return s.store.SubmitResponse(ctx, sessionID, userID, req)
}

// Grade terminates the session, scoring every response through the shared
// evaluator. A response that cannot be evaluated is recorded as incorrect
// with score zero rather than failing the session.
func (s *Service) Grade(ctx context.Context, sessionID, userID int64, locale string) (*models.SessionDetail, error) {
	return s.store.GradeSession(ctx, sessionID, userID, s.gradeResponse(ctx, locale))
}

func (s *Service) Abandon(ctx context.Context, sessionID, userID int64) (*models.SessionDetail, error) {
	return s.store.AbandonSession(ctx, sessionID, userID)
}

func (s *Service) gradeResponse(ctx context.Context, locale string) GradeFunc {
	return func(ex *models.Exercise, rawAnswer json.RawMessage, timeSpent *float64) (bool, float64, models.Feedback) {
		// A slot with no submitted answer is empty even when the exercise
		// carries prompt audio; that clip is the question, not the answer.
		if len(rawAnswer) == 0 {
			return false, 0, evaluator.EmptyAnswerFeedback(locale)
		}

		ans, err := models.ParseAnswer(ex.Kind, rawAnswer)
		if err != nil {
			log.Printf("WARN: session grading: exercise %d: %v", ex.ID, err)
			return false, 0, models.Feedback{General: "evaluation failed"}
		}

		// Responses arrive as text through submit-response; there is no
		// answer-audio channel in sessions.
		verdict, err := s.evaluator.Evaluate(ctx, ex, ans, nil, locale)
		if err != nil {
			log.Printf("WARN: session grading: exercise %d: %v", ex.ID, err)
			if verdict.Feedback.General == "" {
				verdict.Feedback = models.Feedback{General: "evaluation failed"}
			}
			return false, 0, verdict.Feedback
		}
		return verdict.IsCorrect, verdict.Score, verdict.Feedback
	}
}

// TotalScore aggregates per-response scores in [0,1] into a session total on
// a 0 to 100 scale, rounded to two decimals.
func TotalScore(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, score := range scores {
		sum += score
	}
	return math.Round(sum/float64(len(scores))*100*100) / 100
}
