package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Session metrics
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gametrack_sessions_started_total",
			Help: "Total game sessions opened by the tracker",
		},
		[]string{"game"},
	)

	SessionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gametrack_sessions_completed_total",
			Help: "Total game sessions ended and handed to persistence",
		},
		[]string{"game", "concurrent"},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gametrack_active_sessions",
			Help: "Number of currently active game sessions",
		},
	)

	// Budget metrics
	UsageMinutesConsumed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gametrack_usage_minutes_consumed_total",
			Help: "Total gaming minutes recorded from completed sessions",
		},
	)

	BudgetRemainingMinutes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gametrack_budget_remaining_minutes",
			Help: "Remaining minutes in the current budget snapshot",
		},
	)

	// Loop metrics
	TicksSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gametrack_ticks_skipped_total",
			Help: "Monitor ticks skipped due to lock contention",
		},
	)

	PersistErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gametrack_persist_errors_total",
			Help: "Session records dropped because a storage write failed",
		},
	)

	SnapshotErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gametrack_snapshot_errors_total",
			Help: "Process snapshot failures",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsStarted,
		SessionsCompleted,
		ActiveSessions,
		UsageMinutesConsumed,
		BudgetRemainingMinutes,
		TicksSkipped,
		PersistErrors,
		SnapshotErrors,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server *http.Server
	logger zerolog.Logger
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
