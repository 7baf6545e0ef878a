package rounds

import (
	"errors"
	"math/rand"

	"squarevision/internal/board"
)

// ErrEmptyFocus is returned when a focus area filters the catalog down to
// nothing, so no target can be generated.
var ErrEmptyFocus = errors.New("focus area matches no squares")

// NextTarget picks a uniform-random square from the focus subset. Repeats of
// the previous target are possible.
func NextTarget(focus board.FocusArea) (board.Square, error) {
	subset := board.Filter(focus)
	if len(subset) == 0 {
		return "", ErrEmptyFocus
	}
	return subset[rand.Intn(len(subset))], nil
}
