package session

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"squarevision/internal/broadcast"
	"squarevision/internal/events"
	"squarevision/internal/progress"
	"squarevision/internal/wshub"
)

const staleTTL = 1 * time.Hour

// Session bundles one user's live trainer with its progress store, event
// fanout and durable file.
type Session struct {
	UserID      string
	Trainer     *Trainer
	Progress    *progress.Store
	Broadcaster *broadcast.Broadcaster
	Hub         *wshub.Hub
	CreatedAt   time.Time

	file     *progress.FileStore // nil when no data dir configured
	lastSeen time.Time           // guarded by the owning store's mutex
}

// SaveProgress writes the durable progress state to disk. A nil file store is
// a no-op: purely in-memory play is allowed.
func (s *Session) SaveProgress() error {
	if s.file == nil {
		return nil
	}
	return s.file.Save(s.Progress.Export(s.Trainer.Config().Settings()))
}

// Store owns the live sessions, one per user context. Stale sessions are torn
// down and persisted in the background.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	dataDir  string // "" disables file persistence
	defaults Config
	recorder Recorder // nil when no database configured
}

func NewStore(dataDir string, defaults Config, rec Recorder) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		dataDir:  dataDir,
		defaults: defaults,
		recorder: rec,
	}
	go s.sweepStale()
	return s
}

// Get returns the user's live session, or nil.
func (s *Store) Get(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.sessions[userID]
	if sess != nil {
		sess.lastSeen = time.Now()
	}
	return sess
}

// GetOrCreate returns the user's live session, building one (and restoring
// any persisted progress) on first sight. An unreadable progress file is
// moved aside and play starts from a fresh state; storage trouble never
// blocks a session.
func (s *Store) GetOrCreate(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, exists := s.sessions[userID]; exists {
		sess.lastSeen = time.Now()
		return sess
	}

	store := progress.NewStore()
	cfg := s.defaults

	var file *progress.FileStore
	if s.dataDir != "" {
		file = progress.NewFileStore(filepath.Join(s.dataDir, userID+".json"))
		state, err := file.Load()
		if err != nil {
			log.Printf("[Sessions] progress for %s unreadable, starting fresh: %v\n", userID, err)
			if err := file.Quarantine(); err != nil {
				log.Printf("[Sessions] %v\n", err)
			}
			state = progress.PersistedState{SchemaVersion: progress.SchemaVersion}
		}
		store.Restore(state)
		cfg = cfg.ApplySettings(state.Settings)
	}

	bus := events.NewBus()
	now := time.Now()
	sess := &Session{
		UserID:      userID,
		Trainer:     New(userID, cfg, store, bus, s.recorder),
		Progress:    store,
		Broadcaster: broadcast.NewBroadcaster(bus),
		Hub:         wshub.NewHub(),
		CreatedAt:   now,
		file:        file,
		lastSeen:    now,
	}
	s.sessions[userID] = sess
	return sess
}

// Delete tears the session down, persisting progress first.
func (s *Store) Delete(userID string) {
	s.mu.Lock()
	sess := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if sess == nil {
		return
	}
	sess.Trainer.Teardown()
	if err := sess.SaveProgress(); err != nil {
		log.Printf("[Sessions] save on delete: %v\n", err)
	}
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) sweepStale() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		s.mu.Lock()
		now := time.Now()
		var stale []*Session
		for id, sess := range s.sessions {
			if now.Sub(sess.lastSeen) > staleTTL {
				stale = append(stale, sess)
				delete(s.sessions, id)
			}
		}
		s.mu.Unlock()

		for _, sess := range stale {
			sess.Trainer.Teardown()
			if err := sess.SaveProgress(); err != nil {
				log.Printf("[Sessions] save on sweep: %v\n", err)
			}
		}
	}
}
