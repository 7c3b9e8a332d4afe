package exercises

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tilhona/backend/internal/models"
)

var attemptColumns = []string{
	"id", "attempt_key", "user_id", "exercise_id", "user_answer",
	"is_correct", "score", "feedback", "time_spent_seconds", "created_at",
}

func TestRecordAttemptReplayScopedToUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewStore(db)

	// The insert conflicts on (user_id, attempt_key), so the replay lookup
	// must filter by both; a key alone could belong to another user.
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO exercise_attempts`).
		WithArgs("key-abc", int64(7), int64(3), []byte(`"b"`), true, 1.0, sqlmock.AnyArg(), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))
	mock.ExpectQuery(`SELECT (.+) FROM exercise_attempts WHERE user_id = \$1 AND attempt_key = \$2`).
		WithArgs(int64(7), "key-abc").
		WillReturnRows(sqlmock.NewRows(attemptColumns).AddRow(
			int64(41), "key-abc", int64(7), int64(3), []byte(`"b"`),
			true, 1.0, []byte(`{"general":"✅ To'g'ri!"}`), nil, time.Now(),
		))
	mock.ExpectRollback()

	attempt := &models.Attempt{
		AttemptKey: "key-abc",
		UserID:     7,
		ExerciseID: 3,
		UserAnswer: json.RawMessage(`"b"`),
		IsCorrect:  true,
		Score:      1.0,
		Feedback:   models.Feedback{General: "✅ To'g'ri!"},
	}
	recorded, err := store.RecordAttempt(context.Background(), attempt, models.KindMultipleChoice)
	if err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}
	if recorded.ID != 41 || recorded.UserID != 7 {
		t.Errorf("replay returned attempt id=%d user=%d, want id=41 user=7", recorded.ID, recorded.UserID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
