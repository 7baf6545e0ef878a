package reports

import (
	"fmt"

	"squarevision/internal/db"
)

type Queries struct {
	DB *db.DB
}

func NewQueries(database *db.DB) *Queries {
	return &Queries{DB: database}
}

func (q *Queries) GetProgressStats(userID string) (*ProgressStats, error) {
	stats := &ProgressStats{UserID: userID}

	err := q.DB.QueryRow(`SELECT username, color FROM user_profiles WHERE id = $1`, userID).
		Scan(&stats.Username, &stats.Color)
	if err != nil {
		return nil, fmt.Errorf("getting user profile: %w", err)
	}

	err = q.DB.QueryRow(`
		SELECT total_correct, total_attempts, training_time_seconds, daily_streak, last_training_date
		FROM user_progress
		WHERE user_id = $1
	`, userID).Scan(&stats.TotalCorrect, &stats.TotalAttempts, &stats.TrainingTime, &stats.DailyStreak, &stats.LastTrainingDate)
	if err != nil {
		// No progress row yet means a fresh account, not an error.
		stats.TotalCorrect = 0
		stats.TotalAttempts = 0
	}

	err = q.DB.QueryRow(`
		SELECT COUNT(*), COALESCE(MAX(score), 0)
		FROM training_sessions
		WHERE user_id = $1
	`, userID).Scan(&stats.SessionsPlayed, &stats.BestScore)
	if err != nil {
		return nil, fmt.Errorf("getting session stats: %w", err)
	}

	if stats.TotalAttempts > 0 {
		stats.OverallAccuracy = float64(stats.TotalCorrect) / float64(stats.TotalAttempts) * 100
	}

	return stats, nil
}

// GetHardestSquares returns the user's weakest squares by recorded accuracy,
// worst first. Squares with fewer than minAttempts answers are skipped so one
// unlucky miss doesn't dominate the list.
func (q *Queries) GetHardestSquares(userID string, minAttempts, limit int) ([]SquareAccuracy, error) {
	rows, err := q.DB.Query(`
		SELECT
			square,
			COUNT(*) FILTER (WHERE correct) as correct,
			COUNT(*) as attempts
		FROM attempt_events
		WHERE user_id = $1
		GROUP BY square
		HAVING COUNT(*) >= $2
		ORDER BY COUNT(*) FILTER (WHERE correct)::float / COUNT(*) ASC, square
		LIMIT $3
	`, userID, minAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("getting hardest squares: %w", err)
	}
	defer rows.Close()

	var out []SquareAccuracy
	for rows.Next() {
		var s SquareAccuracy
		if err := rows.Scan(&s.Square, &s.Correct, &s.Attempts); err != nil {
			return nil, err
		}
		if s.Attempts > 0 {
			s.Accuracy = float64(s.Correct) / float64(s.Attempts) * 100
		}
		out = append(out, s)
	}
	return out, nil
}

func (q *Queries) GetGlobalLeaderboard(category string, limit int) ([]GlobalLeaderboardEntry, error) {
	var query string
	switch category {
	case "score":
		query = `
			SELECT p.id, p.username, p.color, COALESCE(MAX(ts.score), 0) as value
			FROM user_profiles p
			JOIN training_sessions ts ON ts.user_id = p.id
			GROUP BY p.id, p.username, p.color
			ORDER BY value DESC
			LIMIT $1`
	case "streak":
		query = `
			SELECT p.id, p.username, p.color, up.daily_streak as value
			FROM user_profiles p
			JOIN user_progress up ON up.user_id = p.id
			ORDER BY value DESC
			LIMIT $1`
	case "accuracy":
		query = `
			SELECT p.id, p.username, p.color,
				COALESCE(ROUND(up.total_correct::numeric / NULLIF(up.total_attempts, 0) * 100)::int, 0) as value
			FROM user_profiles p
			JOIN user_progress up ON up.user_id = p.id
			WHERE up.total_attempts >= 20
			ORDER BY value DESC
			LIMIT $1`
	case "time":
		query = `
			SELECT p.id, p.username, p.color, up.training_time_seconds as value
			FROM user_profiles p
			JOIN user_progress up ON up.user_id = p.id
			ORDER BY value DESC
			LIMIT $1`
	default:
		return nil, fmt.Errorf("unknown leaderboard category: %s", category)
	}

	rows, err := q.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("getting leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []GlobalLeaderboardEntry
	rank := 1
	for rows.Next() {
		var e GlobalLeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Color, &e.Value); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		entries = append(entries, e)
	}
	return entries, nil
}
