package web

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hypertd/hyperhook/internal/domain"
)

type errorResponse struct {
	Status    string `json:"status"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r.Context())

	if s.cfg.IPWhitelistEnabled && !s.clientAllowed(r) {
		s.logger.Warn("Webhook from non-whitelisted address",
			zap.String("request_id", requestID),
			zap.String("remote_addr", r.RemoteAddr),
		)
		s.rejectWebhook(w, http.StatusForbidden, "source address not allowed", requestID)
		return
	}

	if ct := r.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		s.rejectWebhook(w, http.StatusUnsupportedMediaType, "content type must be application/json", requestID)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxPayloadBytes))
	if err != nil {
		s.rejectWebhook(w, http.StatusRequestEntityTooLarge, "payload too large", requestID)
		return
	}

	var alert domain.Alert
	if err := json.Unmarshal(body, &alert); err != nil {
		s.logger.Warn("Unparseable webhook payload",
			zap.String("request_id", requestID),
			zap.ByteString("body", body),
			zap.Error(err),
		)
		s.rejectWebhook(w, http.StatusUnprocessableEntity, "invalid JSON payload", requestID)
		return
	}
	if err := alert.Validate(); err != nil {
		s.rejectWebhook(w, http.StatusUnprocessableEntity, err.Error(), requestID)
		return
	}

	if s.cfg.WebhookSecret != "" {
		if subtle.ConstantTimeCompare([]byte(alert.General.Secret), []byte(s.cfg.WebhookSecret)) != 1 {
			s.logger.Warn("Webhook secret mismatch", zap.String("request_id", requestID))
			s.rejectWebhook(w, http.StatusUnauthorized, "invalid secret", requestID)
			return
		}
	}

	result, err := s.alerts.HandleAlert(r.Context(), requestID, &alert)
	if err != nil {
		status := errorStatusCode(err)
		webhookRequests.WithLabelValues(strconv.Itoa(status)).Inc()
		s.logger.Error("Webhook processing failed",
			zap.String("request_id", requestID),
			zap.Int("status", status),
			zap.Error(err),
		)
		s.writeError(w, status, err.Error(), requestID)
		return
	}

	webhookRequests.WithLabelValues("200").Inc()
	ordersProcessed.WithLabelValues(result.Signal, result.Status).Inc()
	s.writeJSON(w, http.StatusOK, result)
}

// errorStatusCode maps the error taxonomy onto HTTP: bad input is the
// caller's fault, venue rejections are a bad gateway, transport trouble
// means we are temporarily unable to serve.
func errorStatusCode(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsNetwork(err):
		return http.StatusServiceUnavailable
	case domain.IsAPI(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// clientAllowed checks the source address against the whitelist. The
// X-Forwarded-For chain is only trusted when the daemon is explicitly
// configured as sitting behind a proxy.
func (s *Server) clientAllowed(r *http.Request) bool {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	if s.cfg.TrustForwardedFor {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			ip = strings.TrimSpace(strings.Split(fwd, ",")[0])
		}
	}
	for _, allowed := range s.cfg.WebhookIPs {
		if ip == allowed {
			return true
		}
	}
	return false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	}
	if s.prices != nil {
		mids, updated := s.prices.Snapshot()
		status["mids"] = mids
		if !updated.IsZero() {
			status["mids_updated"] = updated.UTC().Format(time.RFC3339)
		}
	}
	s.writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.OrderFilter{
		Limit:  intQuery(q.Get("limit")),
		Offset: intQuery(q.Get("offset")),
		Symbol: strings.ToUpper(q.Get("symbol")),
		Status: strings.ToUpper(q.Get("status")),
		Side:   strings.ToUpper(q.Get("side")),
	}
	orders, err := s.audit.ListOrders(r.Context(), filter)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list orders", "")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "count": len(orders)})
}

func (s *Server) handleListFailures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.FailureFilter{
		Limit:     intQuery(q.Get("limit")),
		Offset:    intQuery(q.Get("offset")),
		ErrorType: q.Get("error_type"),
	}
	failures, err := s.audit.ListFailures(r.Context(), filter)
	if err != nil {
		s.logger.Error("Failed to list failures", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list failures", "")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"failures": failures, "count": len(failures)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.audit.Statistics(r.Context())
	if err != nil {
		s.logger.Error("Failed to compute stats", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to compute stats", "")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// requireAPIToken guards the audit endpoints with a bearer token. An empty
// configured token locks the endpoints entirely rather than leaving them open.
func (s *Server) requireAPIToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if s.cfg.APIToken == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.APIToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "invalid or missing API token", "")
			return
		}
		next(w, r)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg, requestID string) {
	s.writeJSON(w, status, errorResponse{Status: "error", Error: msg, RequestID: requestID})
}

// rejectWebhook counts a rejected webhook call before writing the error, so
// the request counter covers every exit of the handler.
func (s *Server) rejectWebhook(w http.ResponseWriter, status int, msg, requestID string) {
	webhookRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	s.writeError(w, status, msg, requestID)
}

func intQuery(raw string) int {
	v, _ := strconv.Atoi(raw)
	return v
}
