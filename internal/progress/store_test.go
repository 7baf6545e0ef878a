package progress

import (
	"testing"
	"time"
)

func TestRecordAttempt_FirstMiss(t *testing.T) {
	s := NewStore()
	s.RecordAttempt("e4", false)

	snap := s.Snapshot()
	stat := snap.SquareStats["e4"]
	if stat.Correct != 0 || stat.Attempts != 1 {
		t.Errorf("squareStats[e4] = %+v, want {0 1}", stat)
	}
	if got := s.Accuracy("e4"); got != 0 {
		t.Errorf("Accuracy(e4) = %v, want 0", got)
	}
}

func TestRecordAttempt_SessionCounters(t *testing.T) {
	s := NewStore()
	s.StartSession(time.Now())
	s.RecordAttempt("a1", true)
	s.RecordAttempt("a2", false)
	s.RecordAttempt("a1", true)

	sess := s.Session()
	if sess.TotalAttempts != 3 {
		t.Errorf("TotalAttempts = %d, want 3", sess.TotalAttempts)
	}
	if sess.CorrectAnswers != 2 {
		t.Errorf("CorrectAnswers = %d, want 2", sess.CorrectAnswers)
	}
}

func TestRecordAttempt_CorrectNeverExceedsAttempts(t *testing.T) {
	s := NewStore()
	s.StartSession(time.Now())
	for i := 0; i < 50; i++ {
		s.RecordAttempt("d4", i%3 == 0)
	}
	snap := s.Snapshot()
	stat := snap.SquareStats["d4"]
	if stat.Correct > stat.Attempts {
		t.Errorf("correct %d exceeds attempts %d", stat.Correct, stat.Attempts)
	}
	if snap.Session.CorrectAnswers > snap.Session.TotalAttempts {
		t.Error("session correct exceeds session attempts")
	}
}

func TestAccuracy_Bounds(t *testing.T) {
	s := NewStore()
	if got := s.Accuracy("b7"); got != 0 {
		t.Errorf("Accuracy of untouched square = %v, want 0", got)
	}
	s.RecordAttempt("b7", true)
	s.RecordAttempt("b7", true)
	if got := s.Accuracy("b7"); got != 100 {
		t.Errorf("Accuracy = %v, want 100", got)
	}
	s.RecordAttempt("b7", false)
	got := s.Accuracy("b7")
	if got < 0 || got > 100 {
		t.Errorf("Accuracy = %v, out of [0,100]", got)
	}
	if got < 66.6 || got > 66.7 {
		t.Errorf("Accuracy = %v, want ~66.67", got)
	}
}

func TestLevelProgress(t *testing.T) {
	s := NewStore()
	if got := s.LevelProgress(); got != 0 {
		t.Errorf("LevelProgress on empty store = %v, want 0", got)
	}
	s.RecordAttempt("a1", true)  // 100%
	s.RecordAttempt("a2", false) // 0%
	if got := s.LevelProgress(); got != 50 {
		t.Errorf("LevelProgress = %v, want 50", got)
	}
}

func TestStartSession_Resets(t *testing.T) {
	s := NewStore()
	s.StartSession(time.Now())
	s.RecordAttempt("c3", true)

	start := time.Now()
	s.StartSession(start)
	sess := s.Session()
	if sess.TotalAttempts != 0 || sess.CorrectAnswers != 0 {
		t.Errorf("session after restart = %+v, want zero counters", sess)
	}
	if !sess.StartTime.Equal(start) {
		t.Errorf("StartTime = %v, want %v", sess.StartTime, start)
	}
}

func TestUpdateStreak_Consecutive(t *testing.T) {
	s := NewStore()
	day1 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	if got := s.UpdateStreak(day1); got != 1 {
		t.Errorf("first play streak = %d, want 1", got)
	}
	if got := s.UpdateStreak(day1.AddDate(0, 0, 1)); got != 2 {
		t.Errorf("next-day streak = %d, want 2", got)
	}
	if got := s.UpdateStreak(day1.AddDate(0, 0, 2)); got != 3 {
		t.Errorf("third-day streak = %d, want 3", got)
	}
}

func TestUpdateStreak_GapResets(t *testing.T) {
	s := NewStore()
	day1 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s.UpdateStreak(day1)
	s.UpdateStreak(day1.AddDate(0, 0, 1))

	if got := s.UpdateStreak(day1.AddDate(0, 0, 4)); got != 1 {
		t.Errorf("streak after gap = %d, want 1", got)
	}
}

func TestUpdateStreak_SameDayIdempotent(t *testing.T) {
	s := NewStore()
	day1 := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s.UpdateStreak(day1)
	s.UpdateStreak(day1.AddDate(0, 0, 1))

	// Replaying later the same day must not inflate the streak.
	if got := s.UpdateStreak(day1.AddDate(0, 0, 1).Add(6 * time.Hour)); got != 2 {
		t.Errorf("same-day replay streak = %d, want 2", got)
	}
}

func TestUpdateStreak_MonthBoundary(t *testing.T) {
	s := NewStore()
	s.UpdateStreak(time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC))
	if got := s.UpdateStreak(time.Date(2025, 2, 1, 1, 0, 0, 0, time.UTC)); got != 2 {
		t.Errorf("streak across month boundary = %d, want 2", got)
	}
}

func TestAward_AppendOnly(t *testing.T) {
	s := NewStore()
	first := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	if !s.Award(Achievement{ID: "first_correct", Title: "First Steps"}, first) {
		t.Fatal("first Award should report newly earned")
	}
	if s.Award(Achievement{ID: "first_correct", Title: "First Steps"}, first.Add(time.Hour)) {
		t.Error("second Award of same id should be a no-op")
	}

	snap := s.Snapshot()
	a, earned := snap.Achievements["first_correct"]
	if !earned {
		t.Fatal("achievement missing from snapshot")
	}
	if !a.EarnedAt.Equal(first) {
		t.Errorf("EarnedAt = %v, want original %v", a.EarnedAt, first)
	}
}

func TestRecentAchievements(t *testing.T) {
	s := NewStore()
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s.Award(Achievement{ID: "a"}, base)
	s.Award(Achievement{ID: "b"}, base.Add(time.Minute))
	s.Award(Achievement{ID: "c"}, base.Add(2*time.Minute))

	recent := s.RecentAchievements(2)
	if len(recent) != 2 {
		t.Fatalf("got %d achievements, want 2", len(recent))
	}
	if recent[0].ID != "c" || recent[1].ID != "b" {
		t.Errorf("recent order = [%s %s], want [c b]", recent[0].ID, recent[1].ID)
	}
}

func TestLeaderboard_SortedAndCapped(t *testing.T) {
	s := NewStore()
	now := time.Now()
	for i := 0; i <= 100; i++ {
		s.AddLeaderboardEntry("user", i, now)
	}

	top := s.TopScores(200)
	if len(top) != 100 {
		t.Fatalf("leaderboard has %d entries, want 100", len(top))
	}
	if top[0].Score != 100 {
		t.Errorf("top score = %d, want 100", top[0].Score)
	}
	// Lowest original score (0) must have been evicted.
	if top[len(top)-1].Score != 1 {
		t.Errorf("lowest kept score = %d, want 1", top[len(top)-1].Score)
	}
	for i := 1; i < len(top); i++ {
		if top[i].Score > top[i-1].Score {
			t.Fatalf("leaderboard not sorted descending at %d", i)
		}
	}
}

func TestLeaderboard_StableTies(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.AddLeaderboardEntry("first", 50, now)
	s.AddLeaderboardEntry("second", 50, now.Add(time.Second))

	top := s.TopScores(10)
	if top[0].Username != "first" || top[1].Username != "second" {
		t.Errorf("tie order = [%s %s], want insertion order", top[0].Username, top[1].Username)
	}
}

func TestResetAll(t *testing.T) {
	s := NewStore()
	s.StartSession(time.Now())
	s.RecordAttempt("e4", true)
	s.UpdateStreak(time.Now())
	s.Award(Achievement{ID: "first_correct"}, time.Now())
	s.AddLeaderboardEntry("user", 10, time.Now())

	s.ResetAll()

	snap := s.Snapshot()
	if len(snap.SquareStats) != 0 {
		t.Error("square stats not cleared")
	}
	if snap.DailyStreak != 0 || snap.LastPlayed != "" {
		t.Error("streak not cleared")
	}
	if len(snap.Achievements) != 0 {
		t.Error("achievements not cleared")
	}
	if len(snap.Leaderboard) != 0 {
		t.Error("leaderboard not cleared")
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := NewStore()
	s.RecordAttempt("e4", true)
	snap := s.Snapshot()
	snap.SquareStats["e4"] = SquareStat{Correct: 99, Attempts: 99}

	if got := s.Snapshot().SquareStats["e4"]; got.Correct != 1 {
		t.Errorf("mutating a snapshot leaked into the store: %+v", got)
	}
}
