package board

import (
	"fmt"
	"strings"
)

// Square is a board coordinate in canonical "{file}{rank}" form, e.g. "e4".
type Square string

const (
	Files = "abcdefgh"
	Ranks = "12345678"
)

func (s Square) File() byte { return s[0] }
func (s Square) Rank() byte { return s[1] }

func (s Square) String() string { return string(s) }

var all []Square

func init() {
	all = make([]Square, 0, 64)
	for _, rank := range Ranks {
		for _, file := range Files {
			all = append(all, Square(string(file)+string(rank)))
		}
	}
}

// AllSquares returns the 64 squares ordered rank 1..8, file a..h within rank.
// Callers must not mutate the returned slice.
func AllSquares() []Square {
	return all
}

// Parse canonicalizes a coordinate string. Input is case-insensitive and may
// carry surrounding whitespace. Anything that is not a valid coordinate is an
// error.
func Parse(s string) (Square, error) {
	c := strings.ToLower(strings.TrimSpace(s))
	if len(c) != 2 {
		return "", fmt.Errorf("invalid square %q", s)
	}
	if !strings.ContainsRune(Files, rune(c[0])) || !strings.ContainsRune(Ranks, rune(c[1])) {
		return "", fmt.Errorf("invalid square %q", s)
	}
	return Square(c), nil
}

func IsCorner(s Square) bool {
	return (s.File() == 'a' || s.File() == 'h') && (s.Rank() == '1' || s.Rank() == '8')
}

func IsCenter(s Square) bool {
	return (s.File() == 'd' || s.File() == 'e') && (s.Rank() == '4' || s.Rank() == '5')
}

// IsMainDiagonal reports whether s lies on a1-h8 or a8-h1.
func IsMainDiagonal(s Square) bool {
	f := int(s.File() - 'a')
	r := int(s.Rank() - '1')
	return f == r || f+r == 7
}

func IsEdge(s Square) bool {
	return s.File() == 'a' || s.File() == 'h' || s.Rank() == '1' || s.Rank() == '8'
}

// FocusArea names a subset filter over the catalog.
type FocusArea string

const (
	FocusAll       = FocusArea("all")
	FocusCenter    = FocusArea("center")
	FocusCorners   = FocusArea("corners")
	FocusDiagonals = FocusArea("diagonals")
	FocusEdges     = FocusArea("edges")
)

// FocusAreas lists the supported focus areas in display order.
var FocusAreas = []FocusArea{FocusAll, FocusCenter, FocusCorners, FocusDiagonals, FocusEdges}

func (f FocusArea) Valid() bool {
	switch f {
	case FocusAll, FocusCenter, FocusCorners, FocusDiagonals, FocusEdges:
		return true
	}
	return false
}

// Filter returns the squares belonging to the focus area, in catalog order.
// Unknown focus areas yield an empty slice; the round generator treats that
// as a configuration error.
func Filter(focus FocusArea) []Square {
	var pred func(Square) bool
	switch focus {
	case FocusAll:
		return all
	case FocusCenter:
		pred = IsCenter
	case FocusCorners:
		pred = IsCorner
	case FocusDiagonals:
		pred = IsMainDiagonal
	case FocusEdges:
		pred = IsEdge
	default:
		return nil
	}

	subset := make([]Square, 0, 28)
	for _, s := range all {
		if pred(s) {
			subset = append(subset, s)
		}
	}
	return subset
}
