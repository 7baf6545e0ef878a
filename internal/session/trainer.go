package session

import (
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"squarevision/internal/achievements"
	"squarevision/internal/board"
	"squarevision/internal/events"
	"squarevision/internal/progress"
	"squarevision/internal/rounds"
)

// State is the trainer's lifecycle phase.
type State string

const (
	StateIdle     = State("idle")
	StateRunning  = State("running")
	StateFinished = State("finished")
)

var (
	ErrNotIdle      = errors.New("session already started")
	ErrNotRunning   = errors.New("no session running")
	ErrNotFinished  = errors.New("session not finished")
	ErrRoundPending = errors.New("answer already submitted for this round")
)

const initialSecondsPerSquare = 5.0

// Recorder is the persistence adapter contract the trainer flushes session
// results through. Failures are logged and never block or reverse local state.
type Recorder interface {
	RecordTrainingSession(userID string, score, attempts, durationSeconds int, ts time.Time) error
	UpdateAggregateProgress(userID string, trainingTimeDelta, correctDelta, attemptsDelta int) error
}

// View is a render-safe snapshot of the trainer.
type View struct {
	State       State
	Mode        Mode
	Focus       board.FocusArea
	Target      board.Square
	Feedback    string
	Orientation Perspective
	TimeLeft    int
	Score       int
	Attempts    int
	AttemptCap  int
	Streak      int
	BestStreak  int
	Unlocked    []progress.Achievement
}

// Trainer drives one user's training session: it generates targets, judges
// answers, feeds results into the progress store, evaluates achievements and
// decides when the session ends.
type Trainer struct {
	mu          sync.Mutex
	cfg         Config
	state       State
	userID      string
	target      board.Square
	orientation Perspective
	feedback    string
	awaiting    bool // feedback linger; further submissions are ignored
	timeLeft    int
	perSquare   float64 // seconds allowed per target in timed mode
	squareLeft  float64
	streak      int
	bestStreak  int
	unlocked    []progress.Achievement
	startedAt   time.Time
	torn        bool
	advance     *time.Timer
	stopTick    chan struct{}
	recorder    Recorder // nil when no persistence configured

	Progress *progress.Store
	Events   *events.Bus
}

// New builds an idle trainer. userID may be empty for anonymous play;
// recorder may be nil.
func New(userID string, cfg Config, store *progress.Store, bus *events.Bus, rec Recorder) *Trainer {
	return &Trainer{
		cfg:         cfg,
		state:       StateIdle,
		userID:      userID,
		orientation: cfg.Perspective,
		recorder:    rec,
		Progress:    store,
		Events:      bus,
	}
}

func (t *Trainer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Trainer) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg
}

// SetConfig replaces the session configuration. Rejected while a session is
// running so scoring never races a settings change.
func (t *Trainer) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateRunning {
		return ErrNotIdle
	}
	t.cfg = cfg
	t.orientation = cfg.Perspective
	return nil
}

// Start begins a session: resets session counters, applies the daily streak,
// generates the first target and, in timed mode, arms the countdown.
func (t *Trainer) Start(now time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.torn {
		return ErrNotRunning
	}
	if t.state == StateRunning {
		return ErrNotIdle
	}
	if err := t.cfg.Validate(); err != nil {
		return err
	}
	target, err := rounds.NextTarget(t.cfg.Focus)
	if err != nil {
		return err
	}

	t.Progress.StartSession(now)

	prev := t.Progress.Snapshot()
	t.Progress.UpdateStreak(now)
	t.awardLocked(prev, now)

	t.state = StateRunning
	t.target = target
	t.orientation = t.cfg.Perspective
	t.feedback = ""
	t.awaiting = false
	t.unlocked = nil
	t.startedAt = now
	t.streak = 0
	t.bestStreak = 0
	t.perSquare = initialSecondsPerSquare
	t.squareLeft = t.perSquare

	if t.cfg.Mode.timed() {
		t.timeLeft = t.cfg.TimeLimitSeconds
		t.stopTick = make(chan struct{})
		go t.tickLoop(t.stopTick)
	} else {
		t.timeLeft = 0
	}

	t.announce(StateRunning)
	return nil
}

// Submit judges one answer and applies it. The round's result is recorded
// exactly once: while feedback lingers, further submissions return
// ErrRoundPending and mutate nothing.
func (t *Trainer) Submit(answer string, now time.Time) (rounds.Verdict, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		return rounds.Verdict{}, ErrNotRunning
	}
	if t.awaiting {
		return rounds.Verdict{}, ErrRoundPending
	}

	var verdict rounds.Verdict
	if t.cfg.Mode.texted() {
		verdict = rounds.JudgeText(t.target, answer)
	} else {
		sq, err := board.Parse(answer)
		if err != nil {
			verdict = rounds.Verdict{Correct: false, Target: t.target}
		} else {
			verdict = rounds.JudgeClick(t.target, sq)
		}
	}

	prev := t.Progress.Snapshot()
	t.Progress.RecordAttempt(t.target, verdict.Correct)
	t.awardLocked(prev, now)

	if verdict.Correct {
		t.feedback = "Correct! Well done!"
		t.streak++
		if t.streak > t.bestStreak {
			t.bestStreak = t.streak
		}
		// Shrink the per-target window as the player heats up.
		if t.cfg.Mode.timed() && t.streak%5 == 0 {
			t.perSquare = max(1, t.perSquare-0.5)
		}
	} else {
		t.feedback = "That was " + string(verdict.Target)
		t.streak = 0
	}

	sess := t.Progress.Session()
	if !t.cfg.Mode.timed() && sess.TotalAttempts >= t.cfg.AttemptCap {
		t.finishLocked(now)
		return verdict, nil
	}

	t.awaiting = true
	t.advance = time.AfterFunc(t.cfg.FeedbackDelay, t.advanceRound)
	return verdict, nil
}

// awardLocked evaluates achievements against the pre-mutation snapshot and
// records anything newly earned.
func (t *Trainer) awardLocked(prev progress.Snapshot, now time.Time) {
	for _, a := range achievements.Evaluate(prev, t.Progress.Snapshot(), now) {
		if t.Progress.Award(a, now) {
			t.unlocked = append(t.unlocked, a)
		}
	}
}

// advanceRound runs after the feedback linger: it generates the next target
// and may flip the board perspective.
func (t *Trainer) advanceRound() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.torn || t.state != StateRunning {
		return
	}
	target, err := rounds.NextTarget(t.cfg.Focus)
	if err != nil {
		// Focus cannot empty out mid-session; keep the current target.
		log.Printf("[Session] next target: %v\n", err)
		return
	}
	t.target = target
	t.feedback = ""
	t.awaiting = false
	t.squareLeft = t.perSquare
	if t.cfg.Mode.flips() && t.cfg.FlipChance > 0 && rand.Float64() < t.cfg.FlipChance {
		t.orientation = t.orientation.Flip()
	}
}

func (t *Trainer) tickLoop(stop chan struct{}) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

func (t *Trainer) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		return
	}
	t.timeLeft--
	select {
	case t.Events.Ticks <- events.TickEvent{TimeLeft: t.timeLeft}:
	default:
		// No listener; ticks are disposable.
	}
	if t.timeLeft <= 0 {
		t.finishLocked(time.Now())
		return
	}

	// Per-target countdown: an expired target breaks the streak and moves on.
	if !t.awaiting {
		t.squareLeft--
		if t.squareLeft <= 0 {
			t.streak = 0
			if target, err := rounds.NextTarget(t.cfg.Focus); err == nil {
				t.target = target
			}
			t.squareLeft = t.perSquare
		}
	}
}

// finishLocked transitions to finished, cancels timers and flushes results to
// the persistence adapter. A flush failure leaves local state intact.
func (t *Trainer) finishLocked(now time.Time) {
	t.state = StateFinished
	t.awaiting = false
	t.stopTimersLocked()

	t.announce(StateFinished)

	if t.recorder == nil || t.userID == "" {
		return
	}
	sess := t.Progress.Session()
	duration := int(now.Sub(t.startedAt).Seconds())
	userID := t.userID
	rec := t.recorder
	go func() {
		if err := rec.RecordTrainingSession(userID, sess.CorrectAnswers, sess.TotalAttempts, duration, now); err != nil {
			log.Printf("[Session] RecordTrainingSession error: %v\n", err)
		}
		if err := rec.UpdateAggregateProgress(userID, duration, sess.CorrectAnswers, sess.TotalAttempts); err != nil {
			log.Printf("[Session] UpdateAggregateProgress error: %v\n", err)
		}
	}()
}

// Reset re-arms a finished session back to idle with the same configuration.
func (t *Trainer) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateFinished {
		return ErrNotFinished
	}
	t.state = StateIdle
	t.target = ""
	t.feedback = ""
	t.awaiting = false
	t.timeLeft = 0
	t.orientation = t.cfg.Perspective
	t.announce(StateIdle)
	return nil
}

// Teardown cancels all pending timers. Nothing mutates the trainer after it
// returns; used when the owning context goes away mid-session.
func (t *Trainer) Teardown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.torn = true
	t.stopTimersLocked()
}

func (t *Trainer) stopTimersLocked() {
	if t.advance != nil {
		t.advance.Stop()
		t.advance = nil
	}
	if t.stopTick != nil {
		close(t.stopTick)
		t.stopTick = nil
	}
}

func (t *Trainer) announce(s State) {
	select {
	case t.Events.StateChanges <- events.StateChangeEvent{State: string(s)}:
	default:
		log.Println("[Session] state change channel full, dropping event")
	}
}

// View snapshots the trainer for rendering.
func (t *Trainer) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	sess := t.Progress.Session()
	unlocked := make([]progress.Achievement, len(t.unlocked))
	copy(unlocked, t.unlocked)
	return View{
		State:       t.state,
		Mode:        t.cfg.Mode,
		Focus:       t.cfg.Focus,
		Target:      t.target,
		Feedback:    t.feedback,
		Orientation: t.orientation,
		TimeLeft:    t.timeLeft,
		Score:       sess.CorrectAnswers,
		Attempts:    sess.TotalAttempts,
		AttemptCap:  t.cfg.AttemptCap,
		Streak:      t.streak,
		BestStreak:  t.bestStreak,
		Unlocked:    unlocked,
	}
}
