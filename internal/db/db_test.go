package db

import (
	"os"
	"testing"
	"time"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping database tests")
	}
	database, err := Connect(dsn)
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if err := database.Migrate(); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		// Clean up test data
		database.conn.Exec("DELETE FROM attempt_events")
		database.conn.Exec("DELETE FROM training_sessions")
		database.conn.Exec("DELETE FROM user_progress")
		database.conn.Exec("DELETE FROM user_profiles")
		database.Close()
	})
	return database
}

func TestConnect(t *testing.T) {
	database := getTestDB(t)
	if err := database.Ping(); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestMigrate(t *testing.T) {
	database := getTestDB(t)

	// Verify tables exist by querying them
	tables := []string{"user_profiles", "user_progress", "training_sessions", "attempt_events"}
	for _, table := range tables {
		var exists bool
		err := database.conn.QueryRow(`
			SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)
		`, table).Scan(&exists)
		if err != nil {
			t.Errorf("checking table %s: %v", table, err)
		}
		if !exists {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestUpsertUserProfile(t *testing.T) {
	database := getTestDB(t)

	id := "550e8400-e29b-41d4-a716-446655440000"
	err := database.UpsertUserProfile(id, "Alice", "#ff0000")
	if err != nil {
		t.Fatalf("UpsertUserProfile() error: %v", err)
	}

	// Upsert again with different data
	err = database.UpsertUserProfile(id, "Alice Updated", "#00ff00")
	if err != nil {
		t.Fatalf("UpsertUserProfile() update error: %v", err)
	}

	p, err := database.GetUserProfile(id)
	if err != nil {
		t.Fatalf("GetUserProfile() error: %v", err)
	}
	if p.Username != "Alice Updated" {
		t.Errorf("username = %q, want %q", p.Username, "Alice Updated")
	}
	if p.Color != "#00ff00" {
		t.Errorf("color = %q, want %q", p.Color, "#00ff00")
	}
}

func TestGetUserProfile_NotFound(t *testing.T) {
	database := getTestDB(t)

	_, err := database.GetUserProfile("00000000-0000-0000-0000-000000000000")
	if err == nil {
		t.Error("GetUserProfile() should return error for nonexistent user")
	}
}

func TestRecordTrainingSession(t *testing.T) {
	database := getTestDB(t)

	userID := "550e8400-e29b-41d4-a716-446655440001"
	database.UpsertUserProfile(userID, "Bob", "#aabbcc")

	err := database.RecordTrainingSession(userID, 15, 20, 95, time.Now())
	if err != nil {
		t.Fatalf("RecordTrainingSession() error: %v", err)
	}

	sessions, err := database.GetRecentSessions(userID, 10)
	if err != nil {
		t.Fatalf("GetRecentSessions() error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("session count = %d, want 1", len(sessions))
	}
	if sessions[0].Score != 15 || sessions[0].Attempts != 20 {
		t.Errorf("session = %d/%d, want 15/20", sessions[0].Score, sessions[0].Attempts)
	}
}

func TestGetRecentSessions_Order(t *testing.T) {
	database := getTestDB(t)

	userID := "550e8400-e29b-41d4-a716-446655440002"
	database.UpsertUserProfile(userID, "Carol", "#aabbcc")

	now := time.Now()
	database.RecordTrainingSession(userID, 5, 20, 60, now.Add(-2*time.Hour))
	database.RecordTrainingSession(userID, 18, 20, 70, now)
	database.RecordTrainingSession(userID, 12, 20, 80, now.Add(-time.Hour))

	sessions, err := database.GetRecentSessions(userID, 2)
	if err != nil {
		t.Fatalf("GetRecentSessions() error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("session count = %d, want 2", len(sessions))
	}
	if sessions[0].Score != 18 || sessions[1].Score != 12 {
		t.Errorf("sessions out of order: got scores %d, %d", sessions[0].Score, sessions[1].Score)
	}
}

func TestUpdateAggregateProgress(t *testing.T) {
	database := getTestDB(t)

	userID := "550e8400-e29b-41d4-a716-446655440003"
	database.UpsertUserProfile(userID, "Dave", "#aabbcc")

	if err := database.UpdateAggregateProgress(userID, 60, 14, 20); err != nil {
		t.Fatalf("UpdateAggregateProgress() error: %v", err)
	}
	if err := database.UpdateAggregateProgress(userID, 30, 6, 10); err != nil {
		t.Fatalf("UpdateAggregateProgress() second error: %v", err)
	}

	var correct, attempts, seconds, streak int
	err := database.conn.QueryRow(`
		SELECT total_correct, total_attempts, training_time_seconds, daily_streak
		FROM user_progress WHERE user_id = $1
	`, userID).Scan(&correct, &attempts, &seconds, &streak)
	if err != nil {
		t.Fatalf("reading progress: %v", err)
	}
	if correct != 20 || attempts != 30 || seconds != 90 {
		t.Errorf("totals = %d/%d/%ds, want 20/30/90s", correct, attempts, seconds)
	}
	// Two sessions on the same day leave the streak at 1.
	if streak != 1 {
		t.Errorf("daily_streak = %d, want 1", streak)
	}
}

func TestUpdateAggregateProgress_StreakExtends(t *testing.T) {
	database := getTestDB(t)

	userID := "550e8400-e29b-41d4-a716-446655440004"
	database.UpsertUserProfile(userID, "Erin", "#aabbcc")

	database.UpdateAggregateProgress(userID, 60, 10, 10)
	// Backdate the last training day to yesterday
	database.conn.Exec(`
		UPDATE user_progress SET last_training_date = CURRENT_DATE - 1 WHERE user_id = $1
	`, userID)
	database.UpdateAggregateProgress(userID, 60, 10, 10)

	var streak int
	database.conn.QueryRow(`
		SELECT daily_streak FROM user_progress WHERE user_id = $1
	`, userID).Scan(&streak)
	if streak != 2 {
		t.Errorf("daily_streak = %d, want 2", streak)
	}
}

func TestRecordAttempt(t *testing.T) {
	database := getTestDB(t)

	userID := "550e8400-e29b-41d4-a716-446655440005"
	database.UpsertUserProfile(userID, "Frank", "#aabbcc")

	err := database.RecordAttempt(AttemptEvent{
		UserID:     userID,
		Square:     "e4",
		Correct:    true,
		Mode:       "squareToCoordinate",
		AnsweredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("RecordAttempt() error: %v", err)
	}
}

func TestBatchRecordAttempts(t *testing.T) {
	database := getTestDB(t)

	userID := "550e8400-e29b-41d4-a716-446655440006"
	database.UpsertUserProfile(userID, "Grace", "#aabbcc")

	now := time.Now()
	events := []AttemptEvent{
		{UserID: userID, Square: "a1", Correct: true, Mode: "squareToCoordinate", AnsweredAt: now},
		{UserID: userID, Square: "d4", Correct: false, Mode: "squareToCoordinate", AnsweredAt: now},
		{UserID: userID, Square: "h8", Correct: true, Mode: "coordinateToSquare", AnsweredAt: now},
	}

	err := database.BatchRecordAttempts(events)
	if err != nil {
		t.Fatalf("BatchRecordAttempts() error: %v", err)
	}

	var count int
	database.conn.QueryRow("SELECT COUNT(*) FROM attempt_events WHERE user_id = $1", userID).Scan(&count)
	if count != 3 {
		t.Errorf("attempt count = %d, want 3", count)
	}
}
