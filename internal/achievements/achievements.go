package achievements

import (
	"time"

	"squarevision/internal/board"
	"squarevision/internal/progress"
)

const (
	FirstCorrect = "first_correct"
	SpeedDemon   = "speed_demon"
	PerfectRound = "perfect_round"
	StreakMaster = "streak_master"
	SquareMaster = "square_master"
)

// All maps achievement ids to their display definitions. EarnedAt is unset
// until the progress store awards them.
var All = map[string]progress.Achievement{
	FirstCorrect: {ID: FirstCorrect, Title: "First Steps", Description: "Get your first correct answer", Icon: "🎯"},
	SpeedDemon:   {ID: SpeedDemon, Title: "Speed Demon", Description: "Complete 10 correct answers in under 30 seconds", Icon: "⚡"},
	PerfectRound: {ID: PerfectRound, Title: "Perfect Round", Description: "Complete a training session with 100% accuracy", Icon: "⭐"},
	StreakMaster: {ID: StreakMaster, Title: "Streak Master", Description: "Maintain a 7-day training streak", Icon: "🔥"},
	SquareMaster: {ID: SquareMaster, Title: "Square Master", Description: "Achieve 90% accuracy on all squares", Icon: "👑"},
}

// Evaluate inspects the store state before and after a mutation and returns
// the achievements that newly unlock. It never re-fires an id already present
// in the current achievement set.
func Evaluate(prev, cur progress.Snapshot, now time.Time) []progress.Achievement {
	var earned []progress.Achievement

	award := func(id string, condition bool) {
		if !condition {
			return
		}
		if _, have := cur.Achievements[id]; have {
			return
		}
		earned = append(earned, All[id])
	}

	// First Steps: any correct answer ever recorded.
	award(FirstCorrect, anyCorrect(cur))

	// Speed Demon: the 10th correct answer of the session lands within 30
	// seconds of session start.
	award(SpeedDemon,
		prev.Session.CorrectAnswers < 10 &&
			cur.Session.CorrectAnswers >= 10 &&
			!cur.Session.StartTime.IsZero() &&
			now.Sub(cur.Session.StartTime) < 30*time.Second)

	// Perfect Round: at least 10 attempts, all of them correct. Checked after
	// every attempt, not only at session end.
	award(PerfectRound,
		cur.Session.TotalAttempts >= 10 &&
			cur.Session.CorrectAnswers == cur.Session.TotalAttempts)

	// Streak Master: 7 consecutive play days.
	award(StreakMaster, cur.DailyStreak >= 7)

	// Square Master: every one of the 64 squares attempted, each at 90%+.
	award(SquareMaster, allSquaresMastered(cur))

	return earned
}

func anyCorrect(snap progress.Snapshot) bool {
	for _, stat := range snap.SquareStats {
		if stat.Correct > 0 {
			return true
		}
	}
	return false
}

func allSquaresMastered(snap progress.Snapshot) bool {
	for _, sq := range board.AllSquares() {
		stat, attempted := snap.SquareStats[sq]
		if !attempted || stat.Attempts == 0 {
			return false
		}
		if snap.Accuracy(sq) < 90 {
			return false
		}
	}
	return true
}
