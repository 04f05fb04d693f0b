package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meshmon_polls_total",
			Help: "Poll ticks by result (ok or source_error)",
		},
		[]string{"result"},
	)

	parseSkipsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshmon_parse_skips_total",
			Help: "Originator table lines discarded as malformed",
		},
	)

	logErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshmon_log_errors_total",
			Help: "Failed metric-log appends",
		},
	)

	predictionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshmon_predictions_total",
			Help: "Neighbors scored by the classifier",
		},
	)

	actionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "meshmon_actions_total",
			Help: "Action intents recorded for neighbors above the failure threshold",
		},
	)

	neighborsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "meshmon_neighbors",
			Help: "Neighbors seen in the latest successful poll",
		},
	)
)
