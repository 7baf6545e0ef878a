package reports

import "time"

type ProgressStats struct {
	UserID           string
	Username         string
	Color            string
	TotalCorrect     int
	TotalAttempts    int
	OverallAccuracy  float64 // percentage
	TrainingTime     int     // seconds
	DailyStreak      int
	LastTrainingDate *time.Time
	SessionsPlayed   int
	BestScore        int
}

type SquareAccuracy struct {
	Square   string
	Correct  int
	Attempts int
	Accuracy float64 // percentage
}

type GlobalLeaderboardEntry struct {
	UserID   string
	Username string
	Color    string
	Value    int
	Rank     int
}
