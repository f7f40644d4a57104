package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hypertd/hyperhook/internal/domain"
	"github.com/hypertd/hyperhook/internal/usecase"
)

// Config is the server-side slice of the app configuration.
type Config struct {
	Port               int
	MaxPayloadBytes    int64
	WebhookSecret      string
	APIToken           string
	IPWhitelistEnabled bool
	TrustForwardedFor  bool
	WebhookIPs         []string
}

// PriceSource exposes the live mid price snapshot for the status endpoint.
type PriceSource interface {
	Snapshot() (map[string]float64, time.Time)
}

type Server struct {
	router  *http.ServeMux
	server  *http.Server
	cfg     Config
	alerts  *usecase.AlertService
	audit   domain.AuditRepository
	prices  PriceSource
	logger  *zap.Logger
	started time.Time
}

func NewServer(
	cfg Config,
	alerts *usecase.AlertService,
	audit domain.AuditRepository,
	prices PriceSource,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:  http.NewServeMux(),
		cfg:     cfg,
		alerts:  alerts,
		audit:   audit,
		prices:  prices,
		logger:  logger,
		started: time.Now(),
	}
	s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.requestLogging(s.router),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	// Webhook
	s.router.HandleFunc("POST /webhook", s.handleWebhook)

	// Health and status
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /status", s.handleStatus)

	// Audit trail
	s.router.HandleFunc("GET /api/orders", s.requireAPIToken(s.handleListOrders))
	s.router.HandleFunc("GET /api/failures", s.requireAPIToken(s.handleListFailures))
	s.router.HandleFunc("GET /api/stats", s.requireAPIToken(s.handleStats))

	// Metrics
	s.router.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
