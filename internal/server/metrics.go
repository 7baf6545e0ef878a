package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted    prometheus.Counter
	AnswersTotal       *prometheus.CounterVec
	AchievementsEarned *prometheus.CounterVec
	ActiveSessions     prometheus.GaugeFunc
}

func NewMetrics(activeSessions func() float64) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "squarevision_sessions_started_total",
			Help: "Training sessions started.",
		}),
		AnswersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "squarevision_answers_total",
			Help: "Answers submitted, by outcome.",
		}, []string{"outcome"}),
		AchievementsEarned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "squarevision_achievements_earned_total",
			Help: "Achievements unlocked, by achievement id.",
		}, []string{"id"}),
		ActiveSessions: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "squarevision_active_sessions",
			Help: "Live training sessions in memory.",
		}, activeSessions),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.SessionsStarted,
		m.AnswersTotal,
		m.AchievementsEarned,
		m.ActiveSessions,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) countAnswer(correct bool) {
	outcome := "incorrect"
	if correct {
		outcome = "correct"
	}
	m.AnswersTotal.WithLabelValues(outcome).Inc()
}
