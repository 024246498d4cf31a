package learning

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var recordsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "twentyq_learning_records_total",
		Help: "Guess records handled by the learning recorder, by outcome and status.",
	},
	[]string{"outcome", "status"},
)
