package rounds

import "squarevision/internal/board"

// QuestionType distinguishes single-square from multi-square quiz questions.
type QuestionType string

const (
	FindSquare       = QuestionType("find_square")
	FindPattern      = QuestionType("find_pattern")
	RelativePosition = QuestionType("relative_position")
	ThemedSquares    = QuestionType("themed_squares")
)

// Question is one entry of the interactive quiz. Single-square questions set
// Answer; multi-square questions set Answers and are judged as a set.
type Question struct {
	Type        QuestionType
	Title       string
	Prompt      string
	Answer      board.Square
	Answers     []board.Square
	Description string
	Hint        string
}

// MultiSquare reports whether the question's answer is a set of squares.
func (q Question) MultiSquare() bool {
	return q.Type != FindSquare
}

// Judge checks a submitted selection against the question's answer.
func (q Question) Judge(submitted []board.Square) bool {
	if !q.MultiSquare() {
		return len(submitted) == 1 && submitted[0] == q.Answer
	}
	return JudgeSet(q.Answers, submitted)
}

// Questions is the built-in quiz bank: two basic find-square questions,
// themed pattern questions, and relative-position questions.
var Questions = []Question{
	{
		Type:        FindSquare,
		Prompt:      "Find the square e4",
		Answer:      "e4",
		Description: "The key central square",
		Hint:        "e4 is in the center of the board. 'e' is the fifth file from the left, and '4' is the fourth rank from the bottom.",
	},
	{
		Type:        FindSquare,
		Prompt:      "Locate the square f6",
		Answer:      "f6",
		Description: "An important square for king safety",
		Hint:        "'f' is the sixth file from the left, and '6' is the sixth rank from the bottom. This square is often important for protecting the castled king.",
	},
	{
		Type:        FindPattern,
		Title:       "Dragon's Path",
		Prompt:      "Click all squares along the Dragon's diagonal path",
		Answers:     []board.Square{"a1", "b2", "c3", "d4", "e5", "f6", "g7", "h8"},
		Description: "The dragon soars from a1 to h8",
		Hint:        "Think of a dragon breathing fire diagonally across the board, starting from the bottom-left corner (a1) and moving up one square at a time.",
	},
	{
		Type:        FindPattern,
		Title:       "Eagle's Wings",
		Prompt:      "Find the squares that form the Eagle's wings",
		Answers:     []board.Square{"c1", "f1", "b2", "g2", "a3", "h3"},
		Description: "The eagle spreads its wings across the bottom ranks",
		Hint:        "Picture an eagle with spread wings: the wing tips are at a3 and h3, the middle joints at b2 and g2, and the shoulders at c1 and f1.",
	},
	{
		Type:        ThemedSquares,
		Title:       "Zodiac Center",
		Prompt:      "Click the squares forming the Zodiac cross in the center",
		Answers:     []board.Square{"d4", "e4", "f4", "d5", "e5", "f5", "d6", "e6", "f6"},
		Description: "The cosmic cross where energies meet",
		Hint:        "Visualize a 3x3 square in the center of the board. It starts at d4 and extends to f6, forming a perfect square of cosmic energy.",
	},
	{
		Type:        RelativePosition,
		Prompt:      "Click the square that is a Knight's move from e4",
		Answers:     []board.Square{"f6", "d6", "c5", "c3", "d2", "f2", "g3", "g5"},
		Description: "Think of an L-shape movement",
		Hint:        "A knight moves in an L-shape: 2 squares in one direction and then 1 square perpendicular to that. From e4, think of all possible L-shapes you can make.",
	},
	{
		Type:        RelativePosition,
		Prompt:      "Click all squares diagonally adjacent to d5",
		Answers:     []board.Square{"c6", "e6", "c4", "e4"},
		Description: "Find all squares one step diagonally from the target",
		Hint:        "From d5, look for squares that are one step away diagonally in all four directions (like a bishop's move).",
	},
}
