package board

// Pattern is a named group of squares used by the visual pattern study mode.
type Pattern struct {
	ID          int
	Title       string
	Squares     []Square
	Description string
	Tip         string
}

var Patterns = []Pattern{
	{
		ID:          1,
		Title:       "The Center Squares",
		Squares:     []Square{"d4", "d5", "e4", "e5"},
		Description: "The central squares are the heart of the chess board. They form a 2x2 square in the middle.",
		Tip:         "Remember: d4, d5, e4, e5 form a perfect square in the center.",
	},
	{
		ID:          2,
		Title:       "The First Rank",
		Squares:     []Square{"a1", "b1", "c1", "d1", "e1", "f1", "g1", "h1"},
		Description: "The first rank is where White's pieces start. From left to right: a1 to h1.",
		Tip:         "Think of it as reading from left to right, just like reading a book.",
	},
	{
		ID:          3,
		Title:       "The Diagonal Pattern",
		Squares:     []Square{"a1", "b2", "c3", "d4", "e5", "f6", "g7", "h8"},
		Description: "The main diagonal runs from a1 to h8.",
		Tip:         "Notice how both numbers increase by 1 as you move diagonally.",
	},
}
