package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/tilhona/backend/internal/models"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// GradeFunc evaluates one session response. It must not fail the session:
// evaluation problems come back as an incorrect zero-score verdict.
type GradeFunc func(ex *models.Exercise, answer json.RawMessage, timeSpent *float64) (bool, float64, models.Feedback)

// SetExerciseIDs returns the active exercises of a set in position order.
func (s *Store) SetExerciseIDs(ctx context.Context, setID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.exercise_id
		 FROM exercise_set_items i
		 JOIN exercises e ON e.id = i.exercise_id AND e.active
		 WHERE i.set_id = $1
		 ORDER BY i.position`,
		setID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying set items: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning set item: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateSession opens a new in-progress session and seeds one blank response
// per exercise, in set order.
func (s *Store) CreateSession(ctx context.Context, userID int64, kind models.SessionKind, timeLimit *int, exerciseIDs []int64) (*models.SessionDetail, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var session models.TestSession
	err = tx.QueryRowContext(ctx,
		`INSERT INTO test_sessions (user_id, kind, status, started_at, time_limit_seconds)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, user_id, kind, status, started_at, time_limit_seconds`,
		userID, kind, models.SessionInProgress, time.Now(), timeLimit,
	).Scan(&session.ID, &session.UserID, &session.Kind, &session.Status, &session.StartedAt, &session.TimeLimitSeconds)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}

	responses := make([]models.TestResponse, 0, len(exerciseIDs))
	for _, exerciseID := range exerciseIDs {
		var resp models.TestResponse
		err = tx.QueryRowContext(ctx,
			`INSERT INTO test_responses (session_id, exercise_id)
			 VALUES ($1, $2)
			 RETURNING id, session_id, exercise_id`,
			session.ID, exerciseID,
		).Scan(&resp.ID, &resp.SessionID, &resp.ExerciseID)
		if err != nil {
			return nil, fmt.Errorf("inserting response slot: %w", err)
		}
		responses = append(responses, resp)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing session: %w", err)
	}
	return &models.SessionDetail{Session: session, Responses: responses}, nil
}

// GetSessionDetail returns a session and its responses in ascending id order.
func (s *Store) GetSessionDetail(ctx context.Context, sessionID, userID int64) (*models.SessionDetail, error) {
	var session models.TestSession
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, kind, status, started_at, ended_at, total_score, time_limit_seconds
		 FROM test_sessions WHERE id = $1`,
		sessionID,
	).Scan(&session.ID, &session.UserID, &session.Kind, &session.Status,
		&session.StartedAt, &session.EndedAt, &session.TotalScore, &session.TimeLimitSeconds)
	if err == sql.ErrNoRows {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	if session.UserID != userID {
		return nil, models.ErrSessionForbidden
	}

	responses, err := s.listResponses(ctx, s.db, sessionID)
	if err != nil {
		return nil, err
	}
	return &models.SessionDetail{Session: session, Responses: responses}, nil
}

// SubmitResponse upserts the answer for one slot of an in-progress session.
// Touching an expired session abandons it first.
func (s *Store) SubmitResponse(ctx context.Context, sessionID, userID int64, req models.SubmitResponseRequest) (*models.TestResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	session, err := lockSession(ctx, tx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, models.ErrSessionTerminal
	}
	if session.Expired(time.Now()) {
		if err := terminate(ctx, tx, sessionID, models.SessionAbandoned, nil); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing abandon: %w", err)
		}
		return nil, models.ErrSessionTerminal
	}

	var resp models.TestResponse
	var feedbackRaw []byte
	err = tx.QueryRowContext(ctx,
		`UPDATE test_responses
		 SET user_answer = $1, time_spent = $2
		 WHERE session_id = $3 AND exercise_id = $4
		 RETURNING id, session_id, exercise_id, user_answer, is_correct, score, feedback, time_spent`,
		nullJSON(req.Answer), req.TimeSpent, sessionID, req.ExerciseID,
	).Scan(&resp.ID, &resp.SessionID, &resp.ExerciseID, &resp.UserAnswer,
		&resp.IsCorrect, &resp.Score, &feedbackRaw, &resp.TimeSpent)
	if err == sql.ErrNoRows {
		return nil, &models.InvalidInputError{Reason: "exercise is not part of this session"}
	}
	if err != nil {
		return nil, fmt.Errorf("updating response: %w", err)
	}
	if len(feedbackRaw) > 0 {
		resp.Feedback = &models.Feedback{}
		if err := json.Unmarshal(feedbackRaw, resp.Feedback); err != nil {
			return nil, fmt.Errorf("decoding feedback: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing response: %w", err)
	}
	return &resp, nil
}

// GradeSession grades every response and completes the session, all inside
// one transaction under a session row lock. Calling it on a terminal session
// is a no-op that returns the stored result.
func (s *Store) GradeSession(ctx context.Context, sessionID, userID int64, grade GradeFunc) (*models.SessionDetail, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	session, err := lockSession(ctx, tx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing no-op grade: %w", err)
		}
		return s.GetSessionDetail(ctx, sessionID, userID)
	}
	if session.Expired(time.Now()) {
		if err := terminate(ctx, tx, sessionID, models.SessionAbandoned, nil); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing abandon: %w", err)
		}
		return s.GetSessionDetail(ctx, sessionID, userID)
	}

	pending, err := loadPending(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, 0, len(pending))
	for i := range pending {
		p := &pending[i]
		isCorrect, score, feedback := grade(&p.exercise, p.response.UserAnswer, p.response.TimeSpent)
		feedbackJSON, err := json.Marshal(feedback)
		if err != nil {
			return nil, fmt.Errorf("encoding feedback: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE test_responses SET is_correct = $1, score = $2, feedback = $3 WHERE id = $4`,
			isCorrect, score, feedbackJSON, p.response.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("writing graded response: %w", err)
		}
		scores = append(scores, score)
	}

	total := TotalScore(scores)
	if err := terminate(ctx, tx, sessionID, models.SessionCompleted, &total); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing grade: %w", err)
	}
	return s.GetSessionDetail(ctx, sessionID, userID)
}

// AbandonSession explicitly abandons an in-progress session. Re-abandoning is
// a no-op; abandoning a completed session is rejected.
func (s *Store) AbandonSession(ctx context.Context, sessionID, userID int64) (*models.SessionDetail, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	session, err := lockSession(ctx, tx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	switch session.Status {
	case models.SessionAbandoned:
		return s.GetSessionDetail(ctx, sessionID, userID)
	case models.SessionCompleted:
		return nil, models.ErrSessionTerminal
	}

	if err := terminate(ctx, tx, sessionID, models.SessionAbandoned, nil); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing abandon: %w", err)
	}
	return s.GetSessionDetail(ctx, sessionID, userID)
}

// ── Internals ────────────────────────────────────────────

func lockSession(ctx context.Context, tx *sql.Tx, sessionID, userID int64) (*models.TestSession, error) {
	var session models.TestSession
	err := tx.QueryRowContext(ctx,
		`SELECT id, user_id, kind, status, started_at, ended_at, total_score, time_limit_seconds
		 FROM test_sessions WHERE id = $1
		 FOR UPDATE`,
		sessionID,
	).Scan(&session.ID, &session.UserID, &session.Kind, &session.Status,
		&session.StartedAt, &session.EndedAt, &session.TotalScore, &session.TimeLimitSeconds)
	if err == sql.ErrNoRows {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("locking session: %w", err)
	}
	if session.UserID != userID {
		return nil, models.ErrSessionForbidden
	}
	return &session, nil
}

func terminate(ctx context.Context, tx *sql.Tx, sessionID int64, status models.SessionStatus, totalScore *float64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE test_sessions SET status = $1, ended_at = $2, total_score = $3 WHERE id = $4`,
		status, time.Now(), totalScore, sessionID,
	)
	if err != nil {
		return fmt.Errorf("terminating session: %w", err)
	}
	return nil
}

type pendingResponse struct {
	response models.TestResponse
	exercise models.Exercise
}

// loadPending pulls a session's responses joined with their exercises, in
// ascending response id so grading order is deterministic.
func loadPending(ctx context.Context, tx *sql.Tx, sessionID int64) ([]pendingResponse, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT r.id, r.session_id, r.exercise_id, r.user_answer, r.time_spent,
		        e.id, e.kind, e.question, e.correct_answer, e.options, e.explanation,
		        e.tags, e.audio_ref, e.difficulty, e.active, e.created_at
		 FROM test_responses r
		 JOIN exercises e ON e.id = r.exercise_id
		 WHERE r.session_id = $1
		 ORDER BY r.id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying responses: %w", err)
	}
	defer rows.Close()

	var pending []pendingResponse
	for rows.Next() {
		var p pendingResponse
		var tags pq.StringArray
		err := rows.Scan(
			&p.response.ID, &p.response.SessionID, &p.response.ExerciseID,
			&p.response.UserAnswer, &p.response.TimeSpent,
			&p.exercise.ID, &p.exercise.Kind, &p.exercise.Question,
			&p.exercise.CorrectAnswer, &p.exercise.Options, &p.exercise.Explanation,
			&tags, &p.exercise.AudioRef, &p.exercise.Difficulty,
			&p.exercise.Active, &p.exercise.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning response: %w", err)
		}
		p.exercise.Tags = tags
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (s *Store) listResponses(ctx context.Context, q queryer, sessionID int64) ([]models.TestResponse, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, session_id, exercise_id, user_answer, is_correct, score, feedback, time_spent
		 FROM test_responses
		 WHERE session_id = $1
		 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying responses: %w", err)
	}
	defer rows.Close()

	var responses []models.TestResponse
	for rows.Next() {
		var resp models.TestResponse
		var feedbackRaw []byte
		err := rows.Scan(&resp.ID, &resp.SessionID, &resp.ExerciseID, &resp.UserAnswer,
			&resp.IsCorrect, &resp.Score, &feedbackRaw, &resp.TimeSpent)
		if err != nil {
			return nil, fmt.Errorf("scanning response: %w", err)
		}
		if len(feedbackRaw) > 0 {
			resp.Feedback = &models.Feedback{}
			if err := json.Unmarshal(feedbackRaw, resp.Feedback); err != nil {
				return nil, fmt.Errorf("decoding feedback: %w", err)
			}
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

func nullJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
