package service

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "moviequiz"

// Question sources
const (
	sourceNew        = "new"
	sourcePending    = "pending"
	sourceResurfaced = "resurfaced"
	sourceSession    = "session"
)

// Metrics holds the Prometheus collectors of the quiz services
type Metrics struct {
	QuestionsIssued     *prometheus.CounterVec
	Answers             *prometheus.CounterVec
	ToursGenerated      *prometheus.CounterVec
	TourGenerationTime  *prometheus.HistogramVec
	PoolCacheRequests   *prometheus.CounterVec
	CandidatePoolSize   prometheus.Histogram
	RequestDuration     *prometheus.HistogramVec
	ActiveSessionsGauge prometheus.Gauge
}

// NewMetrics registers the collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QuestionsIssued: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "questions",
				Name:      "issued_total",
				Help:      "Questions handed to players by source",
			},
			[]string{"source", "question_type"},
		),
		Answers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "questions",
				Name:      "answers_total",
				Help:      "Recorded answers by scope and verdict",
			},
			[]string{"scope", "correct"},
		),
		ToursGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "tours",
				Name:      "generated_total",
				Help:      "Tour generation attempts by type and result",
			},
			[]string{"tour_type", "result"},
		),
		TourGenerationTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "tours",
				Name:      "generation_duration_seconds",
				Help:      "Time spent generating a tour",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tour_type"},
		),
		PoolCacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "pool_cache",
				Name:      "requests_total",
				Help:      "Candidate pool cache lookups by result",
			},
			[]string{"result"},
		),
		CandidatePoolSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "questions",
				Name:      "candidate_pool_size",
				Help:      "Number of eligible movies per loaded pool",
				Buckets:   prometheus.ExponentialBuckets(10, 4, 7),
			},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		ActiveSessionsGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "sessions",
				Name:      "connected_players",
				Help:      "Players connected to multiplayer sessions",
			},
		),
	}
}

func (m *Metrics) questionIssued(source string, questionType string) {
	if m == nil {
		return
	}
	m.QuestionsIssued.WithLabelValues(source, questionType).Inc()
}

func (m *Metrics) answerRecorded(scope string, correct bool) {
	if m == nil {
		return
	}
	m.Answers.WithLabelValues(scope, strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) poolCacheResult(result string) {
	if m == nil {
		return
	}
	m.PoolCacheRequests.WithLabelValues(result).Inc()
}
