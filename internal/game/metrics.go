package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "twentyq_games_started_total",
		Help: "Total number of games started.",
	})
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twentyq_turns_total",
			Help: "Dialogue turns by kind and status.",
		},
		[]string{"kind", "status"},
	)
	guessOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twentyq_guess_outcomes_total",
			Help: "Guesses confirmed or rejected by players.",
		},
		[]string{"outcome"},
	)
	duplicateRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twentyq_duplicate_retries_total",
			Help: "Regenerations caused by repeated questions, by result.",
		},
		[]string{"result"},
	)
	questionsPerGame = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "twentyq_questions_per_game",
		Help:    "Number of questions asked before a confirmed guess.",
		Buckets: prometheus.LinearBuckets(5, 5, 8), // 5, 10, ..., 40
	})
)
