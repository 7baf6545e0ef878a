package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"squarevision/internal/achievements"
	"squarevision/internal/board"
	"squarevision/internal/db"
	"squarevision/internal/progress"
	"squarevision/internal/reports"
	"squarevision/internal/rounds"
	"squarevision/internal/session"
	"squarevision/internal/utility"
)

type Server struct {
	Sessions      *session.Store
	Tmpl          *template.Template
	DB            *db.DB               // nil if no database configured
	AttemptBuffer chan db.AttemptEvent // nil if no database configured
	Metrics       *Metrics
}

// ensureUserID resolves the user from the user_id cookie, minting a fresh
// identity on first visit.
func (s *Server) ensureUserID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie("user_id"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     "user_id",
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})

	if s.DB != nil {
		if err := s.DB.UpsertUserProfile(id, s.username(r), utility.RandomColorHex()); err != nil {
			log.Printf("[DB] UpsertUserProfile error: %v\n", err)
		}
	}
	return id
}

func (s *Server) username(r *http.Request) string {
	if cookie, err := r.Cookie("user_name"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return "Anonymous"
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) *session.Session {
	return s.Sessions.GetOrCreate(s.ensureUserID(w, r))
}

// unlockedSince returns the achievements earned past mark. A concurrent Start
// on another connection may have shrunk the slice; the mark is clamped so a
// stale one never slices out of range.
func unlockedSince(all []progress.Achievement, mark int) []progress.Achievement {
	if mark > len(all) {
		mark = len(all)
	}
	return all[mark:]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println(err)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.ensureUserID(w, r)
	data := map[string]string{"Username": s.username(r)}
	if err := s.Tmpl.ExecuteTemplate(w, "home", data); err != nil {
		log.Println(err)
		http.Error(w, "Error rendering home page", http.StatusInternalServerError)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "user_name",
		Value:    name,
		Path:     "/",
		HttpOnly: true,
	})

	id := s.ensureUserID(w, r)
	if s.DB != nil {
		if err := s.DB.UpsertUserProfile(id, name, utility.RandomColorHex()); err != nil {
			log.Printf("[DB] UpsertUserProfile error: %v\n", err)
		}
	}

	http.Redirect(w, r, "/train", http.StatusSeeOther)
}

// boardCell is one square of the rendered grid.
type boardCell struct {
	Square board.Square
	Light  bool
	Target bool
}

// boardRows lays the grid out for the given perspective, top row first.
func boardRows(target board.Square, orientation session.Perspective) [][]boardCell {
	rows := make([][]boardCell, 0, 8)
	for ri := 7; ri >= 0; ri-- {
		row := make([]boardCell, 0, 8)
		for fi := 0; fi < 8; fi++ {
			f, r := fi, ri
			if orientation == session.PerspectiveBlack {
				f, r = 7-fi, 7-ri
			}
			sq := board.Square(string(board.Files[f]) + string(board.Ranks[r]))
			row = append(row, boardCell{
				Square: sq,
				Light:  (f+r)%2 == 1,
				Target: sq == target,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

type trainData struct {
	Username string
	View     session.View
	Config   session.Config
	Modes    []session.Mode
	Focuses  []board.FocusArea
	Rows     [][]boardCell
	ShowMark bool // highlight the target on the grid (coordinate-naming modes)
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)

	view := sess.Trainer.View()
	cfg := sess.Trainer.Config()
	data := trainData{
		Username: s.username(r),
		View:     view,
		Config:   cfg,
		Modes:    session.Modes,
		Focuses:  board.FocusAreas,
		Rows:     boardRows(view.Target, view.Orientation),
		ShowMark: cfg.Mode != session.ModeCoordinateToSquare,
	}
	if err := s.Tmpl.ExecuteTemplate(w, "train", data); err != nil {
		log.Println(err)
		http.Error(w, "Error rendering train page", http.StatusInternalServerError)
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)

	if err := sess.Trainer.Start(time.Now()); err != nil {
		if err == session.ErrNotIdle {
			http.Redirect(w, r, "/train", http.StatusSeeOther)
			return
		}
		log.Printf("[Session] start error: %v\n", err)
		http.Error(w, "Cannot start session: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.Metrics.SessionsStarted.Inc()
	sess.Hub.Broadcast(viewMessage("stateChange", sess.Trainer.View()))
	http.Redirect(w, r, "/train", http.StatusSeeOther)
}

type answerResponse struct {
	Correct  bool   `json:"correct"`
	Target   string `json:"target"`
	Feedback string `json:"feedback"`
	Score    int    `json:"score"`
	Attempts int    `json:"attempts"`
	State    string `json:"state"`
	Unlocked []progress.Achievement `json:"unlocked,omitempty"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	answer := r.FormValue("answer")
	now := time.Now()
	prevUnlocked := len(sess.Trainer.View().Unlocked)

	verdict, err := sess.Trainer.Submit(answer, now)
	if err != nil {
		switch err {
		case session.ErrRoundPending, session.ErrNotRunning:
			// Duplicate or late submission; report current state, mutate nothing.
			view := sess.Trainer.View()
			writeJSON(w, answerResponse{
				Feedback: view.Feedback,
				Score:    view.Score,
				Attempts: view.Attempts,
				State:    string(view.State),
			})
		default:
			log.Printf("[Session] answer error: %v\n", err)
			http.Error(w, "Error submitting answer", http.StatusInternalServerError)
		}
		return
	}

	s.Metrics.countAnswer(verdict.Correct)
	view := sess.Trainer.View()
	unlocked := unlockedSince(view.Unlocked, prevUnlocked)
	for _, a := range unlocked {
		s.Metrics.AchievementsEarned.WithLabelValues(a.ID).Inc()
	}

	s.recordAttempt(sess, verdict, now)
	sess.Hub.Broadcast(answerMessage(verdict, view))

	writeJSON(w, answerResponse{
		Correct:  verdict.Correct,
		Target:   string(verdict.Target),
		Feedback: view.Feedback,
		Score:    view.Score,
		Attempts: view.Attempts,
		State:    string(view.State),
		Unlocked: unlocked,
	})
}

// recordAttempt queues the attempt for the database batch writer.
func (s *Server) recordAttempt(sess *session.Session, verdict rounds.Verdict, now time.Time) {
	if s.AttemptBuffer == nil {
		return
	}
	select {
	case s.AttemptBuffer <- db.AttemptEvent{
		UserID:     sess.UserID,
		Square:     string(verdict.Target),
		Correct:    verdict.Correct,
		Mode:       string(sess.Trainer.Config().Mode),
		AnsweredAt: now,
	}:
	default:
		log.Println("[DB] Attempt buffer full, dropping event")
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	writeJSON(w, sess.Trainer.View())
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)

	if err := sess.Trainer.Reset(); err != nil {
		http.Redirect(w, r, "/train", http.StatusSeeOther)
		return
	}
	if err := sess.SaveProgress(); err != nil {
		log.Printf("[Progress] save error: %v\n", err)
	}
	sess.Hub.Broadcast(viewMessage("stateChange", sess.Trainer.View()))
	http.Redirect(w, r, "/train", http.StatusSeeOther)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	cfg := sess.Trainer.Config()
	if v := r.FormValue("mode"); v != "" {
		cfg.Mode = session.Mode(v)
	}
	if v := r.FormValue("focus"); v != "" {
		cfg.Focus = board.FocusArea(v)
	}
	if v := r.FormValue("perspective"); v != "" {
		cfg.Perspective = session.Perspective(v)
	}
	cfg.ShowCoordinates = r.FormValue("show_coordinates") == "on"
	cfg.SoundEnabled = r.FormValue("sound") == "on"
	if v := r.FormValue("time_limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeLimitSeconds = n
		}
	}

	if err := sess.Trainer.SetConfig(cfg); err != nil {
		http.Error(w, "Invalid settings: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.SaveProgress(); err != nil {
		log.Printf("[Progress] save error: %v\n", err)
	}
	http.Redirect(w, r, "/train", http.StatusSeeOther)
}

type progressData struct {
	Username     string
	Snapshot     progress.Snapshot
	Level        float64
	Recent       []progress.Achievement
	Locked       []progress.Achievement
	Stats        *reports.ProgressStats
	Hardest      []reports.SquareAccuracy
	WeakSquares  []squareRow
	TotalPlayed  int
}

type squareRow struct {
	Square   board.Square
	Correct  int
	Attempts int
	Accuracy float64
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)

	snap := sess.Progress.Snapshot()
	data := progressData{
		Username: s.username(r),
		Snapshot: snap,
		Level:    sess.Progress.LevelProgress(),
		Recent:   sess.Progress.RecentAchievements(5),
		Locked:   lockedAchievements(snap),
	}
	for sq, st := range snap.SquareStats {
		data.TotalPlayed += st.Attempts
		if st.Attempts >= 3 && sess.Progress.Accuracy(sq) < 75 {
			data.WeakSquares = append(data.WeakSquares, squareRow{
				Square:   sq,
				Correct:  st.Correct,
				Attempts: st.Attempts,
				Accuracy: sess.Progress.Accuracy(sq),
			})
		}
	}

	if s.DB != nil {
		q := reports.NewQueries(s.DB)
		if stats, err := q.GetProgressStats(sess.UserID); err == nil {
			data.Stats = stats
		}
		if hardest, err := q.GetHardestSquares(sess.UserID, 3, 10); err == nil {
			data.Hardest = hardest
		}
	}

	if err := s.Tmpl.ExecuteTemplate(w, "progress", data); err != nil {
		log.Println(err)
		http.Error(w, "Error rendering progress page", http.StatusInternalServerError)
	}
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)

	sess.Progress.ResetAll()
	if err := sess.SaveProgress(); err != nil {
		log.Printf("[Progress] save error: %v\n", err)
	}
	http.Redirect(w, r, "/progress", http.StatusSeeOther)
}

type leaderboardData struct {
	Username  string
	Local     []progress.LeaderboardEntry
	Global    []reports.GlobalLeaderboardEntry
	Category  string
	CanSubmit bool
	Score     int
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)

	if r.Method == http.MethodPost {
		s.handleLeaderboardSubmit(w, r, sess)
		return
	}

	view := sess.Trainer.View()
	data := leaderboardData{
		Username:  s.username(r),
		Local:     sess.Progress.TopScores(10),
		Category:  "score",
		CanSubmit: view.State == session.StateFinished,
		Score:     view.Score,
	}

	if s.DB != nil {
		category := r.URL.Query().Get("cat")
		if category == "" {
			category = "score"
		}
		data.Category = category
		entries, err := reports.NewQueries(s.DB).GetGlobalLeaderboard(category, 10)
		if err != nil {
			log.Printf("[Reports] leaderboard error: %v\n", err)
		}
		data.Global = entries
	}

	if err := s.Tmpl.ExecuteTemplate(w, "leaderboard", data); err != nil {
		log.Println(err)
		http.Error(w, "Error rendering leaderboard", http.StatusInternalServerError)
	}
}

func (s *Server) handleLeaderboardSubmit(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	view := sess.Trainer.View()
	if view.State != session.StateFinished {
		http.Error(w, "No finished session to submit", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = s.username(r)
	}
	sess.Progress.AddLeaderboardEntry(name, view.Score, time.Now())
	if err := sess.SaveProgress(); err != nil {
		log.Printf("[Progress] save error: %v\n", err)
	}
	http.Redirect(w, r, "/leaderboard", http.StatusSeeOther)
}

type quizData struct {
	Username  string
	Index     int
	Number    int // 1-based, for display
	PrevIndex int
	NextIndex int
	HasNext   bool
	Total     int
	Question  rounds.Question
	Checked   bool
	Correct   bool
	Answer    string
	Reveal    string
}

func newQuizData(username string, idx int) quizData {
	return quizData{
		Username:  username,
		Index:     idx,
		Number:    idx + 1,
		PrevIndex: idx - 1,
		NextIndex: idx + 1,
		HasNext:   idx+1 < len(rounds.Questions),
		Total:     len(rounds.Questions),
		Question:  rounds.Questions[idx],
	}
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	s.ensureUserID(w, r)

	idx := 0
	if v := r.URL.Query().Get("q"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n < len(rounds.Questions) {
			idx = n
		}
	}

	data := newQuizData(s.username(r), idx)
	if err := s.Tmpl.ExecuteTemplate(w, "quiz", data); err != nil {
		log.Println(err)
		http.Error(w, "Error rendering quiz", http.StatusInternalServerError)
	}
}

func (s *Server) handleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	s.ensureUserID(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	idx, err := strconv.Atoi(r.FormValue("index"))
	if err != nil || idx < 0 || idx >= len(rounds.Questions) {
		http.Error(w, "Invalid question", http.StatusBadRequest)
		return
	}
	q := rounds.Questions[idx]

	raw := r.FormValue("answer")
	var squares []board.Square
	for _, tok := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		sq, err := board.Parse(tok)
		if err != nil {
			continue
		}
		squares = append(squares, sq)
	}

	data := newQuizData(s.username(r), idx)
	data.Checked = true
	data.Correct = q.Judge(squares)
	data.Answer = raw
	data.Reveal = quizReveal(q)
	if err := s.Tmpl.ExecuteTemplate(w, "quiz", data); err != nil {
		log.Println(err)
		http.Error(w, "Error rendering quiz", http.StatusInternalServerError)
	}
}

func quizReveal(q rounds.Question) string {
	if q.MultiSquare() {
		parts := make([]string, 0, len(q.Answers))
		for _, sq := range q.Answers {
			parts = append(parts, string(sq))
		}
		return strings.Join(parts, ", ")
	}
	return string(q.Answer)
}

type patternsData struct {
	Username string
	Patterns []board.Pattern
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	s.ensureUserID(w, r)
	data := patternsData{
		Username: s.username(r),
		Patterns: board.Patterns,
	}
	if err := s.Tmpl.ExecuteTemplate(w, "patterns", data); err != nil {
		log.Println(err)
		http.Error(w, "Error rendering patterns", http.StatusInternalServerError)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	msgChan := sess.Broadcaster.Subscribe()
	defer sess.Broadcaster.Unsubscribe(msgChan)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-msgChan:
			fmt.Fprintf(w, "event: %s\n", msg.Event)
			for _, line := range strings.Split(msg.Msg, "\n") {
				fmt.Fprintf(w, "data: %s\n", line)
			}
			fmt.Fprint(w, "\n")
			flusher.Flush()
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			status = "db_error"
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"%s","error":"%s"}`, status, err.Error())
			return
		}
	}
	fmt.Fprintf(w, `{"status":"%s"}`, status)
}

var achievementOrder = []string{
	achievements.FirstCorrect,
	achievements.SpeedDemon,
	achievements.PerfectRound,
	achievements.StreakMaster,
	achievements.SquareMaster,
}

// lockedAchievements lists the definitions the user has not earned yet.
func lockedAchievements(snap progress.Snapshot) []progress.Achievement {
	earned := make(map[string]bool, len(snap.Achievements))
	for _, a := range snap.Achievements {
		earned[a.ID] = true
	}
	var locked []progress.Achievement
	for _, id := range achievementOrder {
		if !earned[id] {
			locked = append(locked, achievements.All[id])
		}
	}
	return locked
}
