package server

import (
	"fmt"
	"log"
	"net/http"
	"text/template"
	"time"

	"squarevision/internal/config"
	"squarevision/internal/db"
	"squarevision/internal/session"
)

func Run() error {
	appCfg := config.Load()

	defaults := session.DefaultConfig()
	defaults.AttemptCap = appCfg.AttemptCap
	defaults.TimeLimitSeconds = appCfg.TimeLimit

	funcMap := template.FuncMap{
		"inc": func(i int) int { return i + 1 },
	}
	tmpl := template.Must(template.New("").Funcs(funcMap).ParseFiles(
		"templates/home.html",
		"templates/train.html",
		"templates/progress.html",
		"templates/leaderboard.html",
		"templates/quiz.html",
		"templates/patterns.html",
	))

	srv := &Server{
		Tmpl: tmpl,
	}

	// Optional database connection
	var recorder session.Recorder
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without database)\n", err)
		} else {
			if err := database.Migrate(); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			srv.DB = database
			srv.AttemptBuffer = make(chan db.AttemptEvent, 1000)
			go attemptBatchWriter(database, srv.AttemptBuffer)
			recorder = database
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without database")
	}

	srv.Sessions = session.NewStore(appCfg.DataDir, defaults, recorder)
	srv.Metrics = NewMetrics(func() float64 { return float64(srv.Sessions.Count()) })

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleHome)
	mux.HandleFunc("/register", srv.handleRegister)
	mux.HandleFunc("/train", srv.handleTrain)
	mux.HandleFunc("/train/start", srv.handleStart)
	mux.HandleFunc("/train/answer", srv.handleAnswer)
	mux.HandleFunc("/train/state", srv.handleState)
	mux.HandleFunc("/train/reset", srv.handleResetSession)
	mux.HandleFunc("/settings", srv.handleSettings)
	mux.HandleFunc("/progress", srv.handleProgress)
	mux.HandleFunc("/progress/reset", srv.handleResetProgress)
	mux.HandleFunc("/leaderboard", srv.handleLeaderboard)
	mux.HandleFunc("/quiz", srv.handleQuiz)
	mux.HandleFunc("/quiz/answer", srv.handleQuizAnswer)
	mux.HandleFunc("/patterns", srv.handlePatterns)
	mux.HandleFunc("/events", srv.handleEvents)
	mux.HandleFunc("/ws", srv.handleWS)
	mux.HandleFunc("/health", srv.handleHealth)
	mux.Handle("/metrics", srv.Metrics.Handler())
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	addr := "0.0.0.0:" + appCfg.Port
	fmt.Printf("Server listening on http://localhost:%s\n", appCfg.Port)
	return http.ListenAndServe(addr, mux)
}

func attemptBatchWriter(database *db.DB, buffer chan db.AttemptEvent) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	batch := make([]db.AttemptEvent, 0, 50)

	for {
		select {
		case ev := <-buffer:
			batch = append(batch, ev)
			if len(batch) >= 50 {
				if err := database.BatchRecordAttempts(batch); err != nil {
					log.Printf("[DB] BatchRecordAttempts error: %v\n", err)
				}
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				if err := database.BatchRecordAttempts(batch); err != nil {
					log.Printf("[DB] BatchRecordAttempts error: %v\n", err)
				}
				batch = batch[:0]
			}
		}
	}
}
