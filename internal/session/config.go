package session

import (
	"fmt"
	"time"

	"squarevision/internal/board"
	"squarevision/internal/progress"
)

// Mode selects the question style of a training session.
type Mode string

const (
	ModeSquareToCoordinate = Mode("squareToCoordinate")
	ModeCoordinateToSquare = Mode("coordinateToSquare")
	ModeTimed              = Mode("timed")
	ModeBlindfold          = Mode("blindfold")
)

// Modes lists the supported training modes in display order.
var Modes = []Mode{ModeSquareToCoordinate, ModeCoordinateToSquare, ModeTimed, ModeBlindfold}

func (m Mode) Valid() bool {
	switch m {
	case ModeSquareToCoordinate, ModeCoordinateToSquare, ModeTimed, ModeBlindfold:
		return true
	}
	return false
}

// timed reports whether the mode ends on a countdown instead of an attempt cap.
func (m Mode) timed() bool { return m == ModeTimed }

// texted reports whether answers arrive as typed coordinates rather than
// clicked squares.
func (m Mode) texted() bool { return m == ModeSquareToCoordinate }

// flips reports whether the board perspective may flip between rounds. Only
// square-click modes flip; a typed-coordinate round keeps its orientation.
func (m Mode) flips() bool { return !m.texted() }

type Perspective string

const (
	PerspectiveWhite = Perspective("white")
	PerspectiveBlack = Perspective("black")
)

func (p Perspective) Flip() Perspective {
	if p == PerspectiveWhite {
		return PerspectiveBlack
	}
	return PerspectiveWhite
}

// Config is the full training session configuration. The trainer owns the
// live copy; scoring logic never mutates it.
type Config struct {
	Mode             Mode
	Focus            board.FocusArea
	Perspective      Perspective
	ShowCoordinates  bool
	SoundEnabled     bool
	TimeLimitSeconds int
	AttemptCap       int
	FeedbackDelay    time.Duration
	FlipChance       float64 // probability of flipping perspective between rounds; square-click modes only
}

func DefaultConfig() Config {
	return Config{
		Mode:             ModeSquareToCoordinate,
		Focus:            board.FocusAll,
		Perspective:      PerspectiveWhite,
		ShowCoordinates:  true,
		SoundEnabled:     true,
		TimeLimitSeconds: 60,
		AttemptCap:       20,
		FeedbackDelay:    time.Second,
		FlipChance:       0.3,
	}
}

// Validate rejects configurations a session cannot start from.
func (c Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if !c.Focus.Valid() {
		return fmt.Errorf("invalid focus area %q", c.Focus)
	}
	if c.Mode.timed() && c.TimeLimitSeconds <= 0 {
		return fmt.Errorf("timed mode requires a positive time limit, got %d", c.TimeLimitSeconds)
	}
	if !c.Mode.timed() && c.AttemptCap <= 0 {
		return fmt.Errorf("attempt cap must be positive, got %d", c.AttemptCap)
	}
	return nil
}

// Settings extracts the durable slice of the configuration for persistence.
func (c Config) Settings() progress.Settings {
	show, sound := c.ShowCoordinates, c.SoundEnabled
	return progress.Settings{
		Mode:             string(c.Mode),
		Focus:            string(c.Focus),
		Perspective:      string(c.Perspective),
		ShowCoordinates:  &show,
		SoundEnabled:     &sound,
		TimeLimitSeconds: c.TimeLimitSeconds,
	}
}

// ApplySettings overlays persisted settings onto the config, keeping defaults
// for anything absent or invalid.
func (c Config) ApplySettings(s progress.Settings) Config {
	if m := Mode(s.Mode); m.Valid() {
		c.Mode = m
	}
	if f := board.FocusArea(s.Focus); f.Valid() {
		c.Focus = f
	}
	if p := Perspective(s.Perspective); p == PerspectiveWhite || p == PerspectiveBlack {
		c.Perspective = p
	}
	if s.ShowCoordinates != nil {
		c.ShowCoordinates = *s.ShowCoordinates
	}
	if s.SoundEnabled != nil {
		c.SoundEnabled = *s.SoundEnabled
	}
	if s.TimeLimitSeconds > 0 {
		c.TimeLimitSeconds = s.TimeLimitSeconds
	}
	return c
}
