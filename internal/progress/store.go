package progress

import (
	"sort"
	"sync"
	"time"

	"squarevision/internal/board"
)

const (
	dateLayout     = "2006-01-02"
	leaderboardCap = 100
)

// SquareStat tracks correct/attempt counters for one square. Entries are
// created lazily on first attempt; correct never exceeds attempts.
type SquareStat struct {
	Correct  int `json:"correct"`
	Attempts int `json:"attempts"`
}

// SessionStats tracks counters for the current training session only.
type SessionStats struct {
	StartTime      time.Time `json:"startTime"`
	CorrectAnswers int       `json:"correctAnswers"`
	TotalAttempts  int       `json:"totalAttempts"`
}

// Achievement is an earned achievement. Once awarded its EarnedAt never
// changes and the entry is never removed except by a full reset.
type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// LeaderboardEntry is one submitted score.
type LeaderboardEntry struct {
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is a deep copy of the store's state, safe to inspect without
// holding the store's lock. The achievement evaluator runs against a pair of
// these.
type Snapshot struct {
	SquareStats  map[board.Square]SquareStat
	Session      SessionStats
	DailyStreak  int
	LastPlayed   string
	Achievements map[string]Achievement
	Leaderboard  []LeaderboardEntry
}

// Accuracy mirrors Store.Accuracy for snapshot consumers.
func (s Snapshot) Accuracy(sq board.Square) float64 {
	return accuracy(s.SquareStats[sq])
}

// Store owns all durable training progress: per-square stats, the current
// session counters, the daily streak, earned achievements and the local
// leaderboard. All mutation goes through its reducer methods.
type Store struct {
	mu           sync.Mutex
	squareStats  map[board.Square]SquareStat
	session      SessionStats
	dailyStreak  int
	lastPlayed   string // dateLayout, "" when never played
	achievements map[string]Achievement
	leaderboard  []LeaderboardEntry
}

func NewStore() *Store {
	return &Store{
		squareStats:  make(map[board.Square]SquareStat),
		achievements: make(map[string]Achievement),
	}
}

// StartSession resets the session counters for a fresh run.
func (s *Store) StartSession(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = SessionStats{StartTime: now}
}

// RecordAttempt applies one judged answer: bumps the square's counters and the
// session counters. Callers must invoke it exactly once per submitted answer.
func (s *Store) RecordAttempt(sq board.Square, correct bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stat := s.squareStats[sq]
	stat.Attempts++
	if correct {
		stat.Correct++
	}
	s.squareStats[sq] = stat

	s.session.TotalAttempts++
	if correct {
		s.session.CorrectAnswers++
	}
}

func accuracy(stat SquareStat) float64 {
	if stat.Attempts == 0 {
		return 0
	}
	return float64(stat.Correct) / float64(stat.Attempts) * 100
}

// Accuracy returns the square's accuracy percentage in [0,100]. Squares with
// no attempts report 0, not "unknown".
func (s *Store) Accuracy(sq board.Square) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return accuracy(s.squareStats[sq])
}

// LevelProgress is the mean accuracy across squares with recorded attempts,
// or 0 when nothing has been attempted yet.
func (s *Store) LevelProgress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.squareStats) == 0 {
		return 0
	}
	var total float64
	for _, stat := range s.squareStats {
		total += accuracy(stat)
	}
	return total / float64(len(s.squareStats))
}

// UpdateStreak applies a play on the given day. The streak increments only
// when the previous play was exactly the calendar day before; any other gap
// resets it to 1. A second call on the same calendar day is a no-op, so
// replays within a day cannot inflate the streak.
func (s *Store) UpdateStreak(today time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := today.Format(dateLayout)
	if s.lastPlayed == day {
		return s.dailyStreak
	}
	yesterday := today.AddDate(0, 0, -1).Format(dateLayout)
	if s.lastPlayed == yesterday {
		s.dailyStreak++
	} else {
		s.dailyStreak = 1
	}
	s.lastPlayed = day
	return s.dailyStreak
}

func (s *Store) DailyStreak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dailyStreak
}

// Award records an achievement if its id is not already present. Returns true
// when the achievement was newly earned.
func (s *Store) Award(a Achievement, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, earned := s.achievements[a.ID]; earned {
		return false
	}
	a.EarnedAt = now
	s.achievements[a.ID] = a
	return true
}

func (s *Store) HasAchievement(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, earned := s.achievements[id]
	return earned
}

// RecentAchievements returns up to n achievements, most recently earned first.
func (s *Store) RecentAchievements(n int) []Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]Achievement, 0, len(s.achievements))
	for _, a := range s.achievements {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].EarnedAt.After(list[j].EarnedAt)
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}

// AddLeaderboardEntry appends a score, re-sorts descending (stable on ties)
// and truncates to the top 100.
func (s *Store) AddLeaderboardEntry(username string, score int, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaderboard = append(s.leaderboard, LeaderboardEntry{
		Username:  username,
		Score:     score,
		Timestamp: now,
	})
	sort.SliceStable(s.leaderboard, func(i, j int) bool {
		return s.leaderboard[i].Score > s.leaderboard[j].Score
	})
	if len(s.leaderboard) > leaderboardCap {
		s.leaderboard = s.leaderboard[:leaderboardCap]
	}
}

// TopScores returns up to n leaderboard entries, highest score first.
func (s *Store) TopScores(n int) []LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	top := s.leaderboard
	if len(top) > n {
		top = top[:n]
	}
	out := make([]LeaderboardEntry, len(top))
	copy(out, top)
	return out
}

func (s *Store) Session() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// ResetAll clears every durable field back to its initial empty value. Only an
// explicit user-initiated reset should call this.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.squareStats = make(map[board.Square]SquareStat)
	s.session = SessionStats{}
	s.dailyStreak = 0
	s.lastPlayed = ""
	s.achievements = make(map[string]Achievement)
	s.leaderboard = nil
}

// Snapshot deep-copies the store state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[board.Square]SquareStat, len(s.squareStats))
	for sq, stat := range s.squareStats {
		stats[sq] = stat
	}
	earned := make(map[string]Achievement, len(s.achievements))
	for id, a := range s.achievements {
		earned[id] = a
	}
	lb := make([]LeaderboardEntry, len(s.leaderboard))
	copy(lb, s.leaderboard)

	return Snapshot{
		SquareStats:  stats,
		Session:      s.session,
		DailyStreak:  s.dailyStreak,
		LastPlayed:   s.lastPlayed,
		Achievements: earned,
		Leaderboard:  lb,
	}
}
