package exercises

import (
	"context"
	"fmt"

	"github.com/google/uuid"

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

// CheckAnswer grades one answer end to end: load the definition, parse the
// tagged answer, evaluate, then record the attempt and progress update in
// one transaction. Invalid input, missing capabilities, and evaluation
// failures all surface before anything is written.
func (s *Service) CheckAnswer(ctx context.Context, userID, exerciseID int64, req models.CheckAnswerRequest) (*models.CheckAnswerResponse, error) {
	ex, err := s.store.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	ans, err := models.ParseAnswer(ex.Kind, req.Answer)
	if err != nil {
		return nil, err
	}

	// ex.AudioRef is the prompt clip the user listens to, never their
	// answer; only audio submitted with the request counts as the answer.
	verdict, err := s.evaluator.Evaluate(ctx, ex, ans, req.AudioURL, req.Language)
	if err != nil {
		return nil, err
	}

	attemptKey := req.AttemptKey
	if attemptKey == "" {
		attemptKey = uuid.NewString()
	}

	attempt := &models.Attempt{
		AttemptKey: attemptKey,
		UserID:     userID,
		ExerciseID: exerciseID,
		UserAnswer: req.Answer,
		IsCorrect:  verdict.IsCorrect,
		Score:      verdict.Score,
		Feedback:   verdict.Feedback,
		TimeSpent:  req.TimeSpent,
	}
	recorded, err := s.store.RecordAttempt(ctx, attempt, ex.Kind)
	if err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	return &models.CheckAnswerResponse{
		IsCorrect:   recorded.IsCorrect,
		Score:       recorded.Score,
		Feedback:    recorded.Feedback,
		Explanation: ex.Explanation,
		AttemptID:   recorded.ID,
	}, nil
}

func (s *Service) GetExercise(ctx context.Context, id int64) (*models.Exercise, error) {
	return s.store.GetExercise(ctx, id)
}

func (s *Service) ListExercises(ctx context.Context, req models.ExerciseListRequest) (*models.ExerciseListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 50 {
		req.PageSize = 50
	}

	exercises, total, err := s.store.ListExercises(ctx, req)
	if err != nil {
		return nil, err
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	return &models.ExerciseListResponse{
		Exercises: exercises,
		Total:     total,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}, nil
}

func (s *Service) ListAttempts(ctx context.Context, userID int64, exerciseID *int64, page, pageSize int) (*models.AttemptListResponse, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}

	attempts, total, err := s.store.ListAttempts(ctx, userID, exerciseID, page, pageSize)
	if err != nil {
		return nil, err
	}
	if attempts == nil {
		attempts = []models.Attempt{}
	}
	return &models.AttemptListResponse{
		Attempts: attempts,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (s *Service) GetProgress(ctx context.Context, userID int64) (*models.UserProgress, error) {
	return s.store.GetOrCreateProgress(ctx, userID)
}
