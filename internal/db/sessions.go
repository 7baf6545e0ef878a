package db

import (
	"fmt"
	"time"
)

type TrainingSession struct {
	ID              string
	UserID          string
	Score           int
	Attempts        int
	DurationSeconds int
	CompletedAt     time.Time
}

func (d *DB) RecordTrainingSession(userID string, score, attempts, durationSeconds int, ts time.Time) error {
	_, err := d.conn.Exec(`
		INSERT INTO training_sessions (user_id, score, attempts, duration_seconds, completed_at)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, score, attempts, durationSeconds, ts)
	if err != nil {
		return fmt.Errorf("recording training session: %w", err)
	}
	return nil
}

func (d *DB) GetRecentSessions(userID string, limit int) ([]TrainingSession, error) {
	rows, err := d.conn.Query(`
		SELECT id, user_id, score, attempts, duration_seconds, completed_at
		FROM training_sessions
		WHERE user_id = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("getting recent sessions: %w", err)
	}
	defer rows.Close()

	var sessions []TrainingSession
	for rows.Next() {
		var s TrainingSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Score, &s.Attempts, &s.DurationSeconds, &s.CompletedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// UpdateAggregateProgress folds one finished session into the user's running
// totals. The daily streak is recomputed server-side: same day keeps it,
// consecutive days extend it, anything else starts over at 1.
func (d *DB) UpdateAggregateProgress(userID string, trainingTimeDelta, correctDelta, attemptsDelta int) error {
	_, err := d.conn.Exec(`
		INSERT INTO user_progress (user_id, total_correct, total_attempts, training_time_seconds, daily_streak, last_training_date)
		VALUES ($1, $2, $3, $4, 1, CURRENT_DATE)
		ON CONFLICT (user_id) DO UPDATE SET
			total_correct         = user_progress.total_correct + $2,
			total_attempts        = user_progress.total_attempts + $3,
			training_time_seconds = user_progress.training_time_seconds + $4,
			daily_streak = CASE
				WHEN user_progress.last_training_date = CURRENT_DATE THEN user_progress.daily_streak
				WHEN user_progress.last_training_date = CURRENT_DATE - 1 THEN user_progress.daily_streak + 1
				ELSE 1
			END,
			last_training_date = CURRENT_DATE,
			updated_at         = now()
	`, userID, correctDelta, attemptsDelta, trainingTimeDelta)
	if err != nil {
		return fmt.Errorf("updating aggregate progress: %w", err)
	}
	return nil
}
