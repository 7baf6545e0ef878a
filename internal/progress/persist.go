package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"squarevision/internal/board"
)

// SchemaVersion is bumped whenever PersistedState changes shape.
const SchemaVersion = 1

// Settings is the durable slice of the training configuration, persisted
// alongside progress. Transient per-round state is never written. The boolean
// toggles are pointers so an absent field reads as "keep the default" rather
// than false.
type Settings struct {
	Mode             string `json:"mode"`
	Focus            string `json:"focusArea"`
	Perspective      string `json:"perspective"`
	ShowCoordinates  *bool  `json:"showCoordinates,omitempty"`
	SoundEnabled     *bool  `json:"soundEnabled,omitempty"`
	TimeLimitSeconds int    `json:"timeLimitSeconds"`
}

// PersistedState is the on-disk schema: one serialized object under a single
// storage namespace, versioned for future migration.
type PersistedState struct {
	SchemaVersion int                         `json:"schemaVersion"`
	Settings      Settings                    `json:"settings"`
	SquareStats   map[board.Square]SquareStat `json:"squareStats"`
	DailyStreak   int                         `json:"dailyStreak"`
	LastPlayed    string                      `json:"lastPlayedDate,omitempty"`
	Achievements  map[string]Achievement      `json:"achievements"`
	Leaderboard   []LeaderboardEntry          `json:"leaderboard"`
}

// Encode serializes state with the current schema version.
func Encode(state PersistedState) ([]byte, error) {
	state.SchemaVersion = SchemaVersion
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding progress state: %w", err)
	}
	return data, nil
}

// Decode parses a serialized state and rejects versions it does not know.
func Decode(data []byte) (PersistedState, error) {
	var state PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return PersistedState{}, fmt.Errorf("decoding progress state: %w", err)
	}
	if state.SchemaVersion != SchemaVersion {
		return PersistedState{}, fmt.Errorf("unsupported progress schema version %d", state.SchemaVersion)
	}
	if state.SquareStats == nil {
		state.SquareStats = make(map[board.Square]SquareStat)
	}
	if state.Achievements == nil {
		state.Achievements = make(map[string]Achievement)
	}
	return state, nil
}

// Export captures the store's durable fields for persistence. Session
// counters are deliberately excluded.
func (s *Store) Export(settings Settings) PersistedState {
	snap := s.Snapshot()
	return PersistedState{
		SchemaVersion: SchemaVersion,
		Settings:      settings,
		SquareStats:   snap.SquareStats,
		DailyStreak:   snap.DailyStreak,
		LastPlayed:    snap.LastPlayed,
		Achievements:  snap.Achievements,
		Leaderboard:   snap.Leaderboard,
	}
}

// Restore replaces the store's durable fields with a previously persisted
// state. The live session counters are left untouched.
func (s *Store) Restore(state PersistedState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.squareStats = make(map[board.Square]SquareStat, len(state.SquareStats))
	for sq, stat := range state.SquareStats {
		s.squareStats[sq] = stat
	}
	s.dailyStreak = state.DailyStreak
	s.lastPlayed = state.LastPlayed
	s.achievements = make(map[string]Achievement, len(state.Achievements))
	for id, a := range state.Achievements {
		s.achievements[id] = a
	}
	s.leaderboard = append([]LeaderboardEntry(nil), state.Leaderboard...)
}

// FileStore persists one PersistedState as a JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	os.MkdirAll(filepath.Dir(path), 0o755)
	return &FileStore{path: path}
}

// Load reads the persisted state. A missing file yields an empty state and no
// error; a corrupt or unknown-version file is an error.
func (f *FileStore) Load() (PersistedState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return PersistedState{SchemaVersion: SchemaVersion}, nil
		}
		return PersistedState{}, fmt.Errorf("reading progress file: %w", err)
	}
	return Decode(data)
}

// Quarantine moves an unreadable progress file aside, keeping the bytes for
// manual inspection while letting a fresh state take its place.
func (f *FileStore) Quarantine() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Rename(f.path, f.path+".bad"); err != nil {
		return fmt.Errorf("quarantining progress file: %w", err)
	}
	return nil
}

func (f *FileStore) Save(state PersistedState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("writing progress file: %w", err)
	}
	return nil
}
