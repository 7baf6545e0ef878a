package rounds

import "squarevision/internal/board"

// Verdict is the result of judging one submitted answer.
type Verdict struct {
	Correct bool
	Target  board.Square
}

// JudgeText compares a typed coordinate against the target. Comparison is
// case-insensitive; malformed input is simply incorrect, never an error.
func JudgeText(target board.Square, submission string) Verdict {
	sq, err := board.Parse(submission)
	if err != nil {
		return Verdict{Correct: false, Target: target}
	}
	return Verdict{Correct: sq == target, Target: target}
}

// JudgeClick compares a clicked square token against the target.
func JudgeClick(target, submitted board.Square) Verdict {
	return Verdict{Correct: submitted == target, Target: target}
}

// JudgeSet requires set equality: same size and every submitted square present
// in the expected set. There is no partial credit.
func JudgeSet(expected, submitted []board.Square) bool {
	if len(submitted) != len(expected) {
		return false
	}
	want := make(map[board.Square]bool, len(expected))
	for _, s := range expected {
		want[s] = true
	}
	seen := make(map[board.Square]bool, len(submitted))
	for _, s := range submitted {
		if !want[s] || seen[s] {
			return false
		}
		seen[s] = true
	}
	return len(seen) == len(want)
}
