package exercises

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/tilhona/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const exerciseColumns = `id, kind, question, correct_answer, options, explanation,
	        tags, audio_ref, difficulty, active, created_at`

func scanExercise(row interface {
	Scan(dest ...interface{}) error
}) (*models.Exercise, error) {
	var ex models.Exercise
	var correctAnswer, options []byte
	var tags pq.StringArray
	err := row.Scan(&ex.ID, &ex.Kind, &ex.Question, &correctAnswer, &options,
		&ex.Explanation, &tags, &ex.AudioRef, &ex.Difficulty, &ex.Active, &ex.CreatedAt)
	if err != nil {
		return nil, err
	}
	ex.CorrectAnswer = correctAnswer
	ex.Options = options
	ex.Tags = tags
	return &ex, nil
}

// GetExercise loads an active exercise definition. Missing and inactive
// exercises are indistinguishable to callers.
func (s *Store) GetExercise(ctx context.Context, id int64) (*models.Exercise, error) {
	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM exercises WHERE id = $1`, exerciseColumns), id)
	ex, err := scanExercise(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrExerciseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exercise: %w", err)
	}
	if !ex.Active {
		return nil, models.ErrExerciseNotFound
	}
	return ex, nil
}

func (s *Store) ListExercises(ctx context.Context, req models.ExerciseListRequest) ([]models.Exercise, int, error) {
	where := `active = TRUE`
	args := []interface{}{}
	argN := 1

	if req.Kind != nil {
		where += fmt.Sprintf(` AND kind = $%d`, argN)
		args = append(args, *req.Kind)
		argN++
	}
	if req.Difficulty != nil {
		where += fmt.Sprintf(` AND difficulty = $%d`, argN)
		args = append(args, *req.Difficulty)
		argN++
	}
	if req.Tag != nil {
		where += fmt.Sprintf(` AND $%d = ANY(tags)`, argN)
		args = append(args, *req.Tag)
		argN++
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exercises WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count exercises: %w", err)
	}

	args = append(args, req.PageSize, (req.Page-1)*req.PageSize)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT %s FROM exercises WHERE %s ORDER BY id LIMIT $%d OFFSET $%d`,
		exerciseColumns, where, argN, argN+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var exercises []models.Exercise
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan exercise: %w", err)
		}
		exercises = append(exercises, *ex)
	}
	return exercises, total, rows.Err()
}

// ── Attempt + Progress Writer ────────────────────────────

// RecordAttempt persists one attempt and folds its verdict into the user's
// progress row within a single transaction. The attempt key is unique per
// user, making the write at-most-once: a replayed key returns the caller's
// original attempt and leaves progress untouched. Another user presenting
// the same key gets their own fresh attempt. The progress row is locked FOR UPDATE so
// concurrent attempts by the same user serialize without lost counter
// updates.
func (s *Store) RecordAttempt(ctx context.Context, a *models.Attempt, kind models.ExerciseKind) (*models.Attempt, error) {
	feedbackJSON, err := json.Marshal(a.Feedback)
	if err != nil {
		return nil, fmt.Errorf("marshal feedback: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO exercise_attempts
		   (attempt_key, user_id, exercise_id, user_answer, is_correct, score, feedback, time_spent_seconds)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, attempt_key) DO NOTHING
		 RETURNING id, created_at`,
		a.AttemptKey, a.UserID, a.ExerciseID, nullJSON(a.UserAnswer),
		a.IsCorrect, a.Score, feedbackJSON, a.TimeSpent,
	).Scan(&a.ID, &a.CreatedAt)
	if err == sql.ErrNoRows {
		// Replayed attempt key: the original write already updated progress.
		return s.getAttemptByKey(ctx, a.UserID, a.AttemptKey)
	}
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_progress (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		a.UserID,
	); err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}

	var p models.UserProgress
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, exercises_completed, vocabulary_score, grammar_score,
		        speaking_score, listening_score, last_updated
		 FROM user_progress WHERE user_id = $1 FOR UPDATE`,
		a.UserID,
	).Scan(&p.UserID, &p.ExercisesCompleted, &p.VocabularyScore, &p.GrammarScore,
		&p.SpeakingScore, &p.ListeningScore, &p.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("lock progress: %w", err)
	}

	ApplyVerdict(&p, kind, models.Verdict{IsCorrect: a.IsCorrect, Score: a.Score})

	if _, err := tx.ExecContext(ctx,
		`UPDATE user_progress
		 SET exercises_completed = $2, vocabulary_score = $3, grammar_score = $4,
		     speaking_score = $5, listening_score = $6, last_updated = NOW()
		 WHERE user_id = $1`,
		p.UserID, p.ExercisesCompleted, p.VocabularyScore, p.GrammarScore,
		p.SpeakingScore, p.ListeningScore,
	); err != nil {
		return nil, fmt.Errorf("update progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit attempt: %w", err)
	}
	return a, nil
}

func (s *Store) getAttemptByKey(ctx context.Context, userID int64, key string) (*models.Attempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, attempt_key, user_id, exercise_id, user_answer, is_correct,
		        score, feedback, time_spent_seconds, created_at
		 FROM exercise_attempts WHERE user_id = $1 AND attempt_key = $2`, userID, key)
	return scanAttempt(row)
}

func scanAttempt(row interface {
	Scan(dest ...interface{}) error
}) (*models.Attempt, error) {
	var a models.Attempt
	var userAnswer, feedback []byte
	err := row.Scan(&a.ID, &a.AttemptKey, &a.UserID, &a.ExerciseID, &userAnswer,
		&a.IsCorrect, &a.Score, &feedback, &a.TimeSpent, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan attempt: %w", err)
	}
	a.UserAnswer = userAnswer
	if len(feedback) > 0 {
		if err := json.Unmarshal(feedback, &a.Feedback); err != nil {
			return nil, fmt.Errorf("decode feedback: %w", err)
		}
	}
	return &a, nil
}

func (s *Store) ListAttempts(ctx context.Context, userID int64, exerciseID *int64, page, pageSize int) ([]models.Attempt, int, error) {
	where := `user_id = $1`
	args := []interface{}{userID}
	if exerciseID != nil {
		where += ` AND exercise_id = $2`
		args = append(args, *exerciseID)
	}

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exercise_attempts WHERE `+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count attempts: %w", err)
	}

	argN := len(args) + 1
	args = append(args, pageSize, (page-1)*pageSize)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, attempt_key, user_id, exercise_id, user_answer, is_correct,
		        score, feedback, time_spent_seconds, created_at
		 FROM exercise_attempts WHERE %s
		 ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, argN, argN+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []models.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, 0, err
		}
		attempts = append(attempts, *a)
	}
	return attempts, total, rows.Err()
}

// ── Progress Reads ───────────────────────────────────────

func (s *Store) GetOrCreateProgress(ctx context.Context, userID int64) (*models.UserProgress, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_progress (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}

	var p models.UserProgress
	err = s.db.QueryRowContext(ctx,
		`SELECT user_id, exercises_completed, vocabulary_score, grammar_score,
		        speaking_score, listening_score, last_updated
		 FROM user_progress WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.ExercisesCompleted, &p.VocabularyScore, &p.GrammarScore,
		&p.SpeakingScore, &p.ListeningScore, &p.LastUpdated)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return &p, nil
}

// nullJSON maps an absent raw value to SQL NULL instead of invalid empty
// JSON.
func nullJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
