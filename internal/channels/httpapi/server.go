package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pantheonlabs/hermes/internal/relay"
)

// Server exposes the JSON notification API. It accepts email requests for
// synchronous delivery; discord-channel requests are acknowledged but skipped
// since the bot adapter owns that surface.
type Server struct {
	router  *relay.Router
	host    string
	port    int
	limiter *ipLimiter

	httpServer *http.Server
}

// NewServer builds the HTTP channel. rpm <= 0 disables rate limiting.
func NewServer(router *relay.Router, host string, port, rpm int) *Server {
	return &Server{
		router:  router,
		host:    host,
		port:    port,
		limiter: newIPLimiter(rpm, 5),
	}
}

func (s *Server) buildMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/notify", s.handleNotify)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.buildMux(),
	}

	slog.Info("http channel starting", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http channel: %w", err)
	}
	return nil
}

type notifyRequest struct {
	Channel   string   `json:"channel"`
	Recipient string   `json:"recipient"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	Sender    string   `json:"sender,omitempty"`
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if !s.limiter.allow(clientIP(r)) {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		return
	}

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	switch req.Channel {
	case "email":
	case "discord":
		// Outbound discord pushes are not served here; the bot adapter is
		// conversational only. Acknowledged so callers need no special case.
		res := relay.Skipped("discord channel is inbound-only")
		writeJSON(w, http.StatusOK, map[string]string{"status": string(res.Status), "reason": res.Reason})
		return
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown channel %q", req.Channel)})
		return
	}

	recipients := req.To
	if len(recipients) == 0 && req.Recipient != "" {
		recipients = []string{req.Recipient}
	}
	if len(recipients) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "recipient required"})
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "subject required"})
		return
	}

	msg := relay.InboundMessage{
		Channel:        relay.ChannelEmail,
		SenderIdentity: req.Sender,
		Recipients:     recipients,
		Subject:        req.Subject,
		Body:           req.Body,
	}
	if err := msg.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	res := s.router.Route(r.Context(), msg)
	if !res.OK() {
		slog.Error("notify dispatch failed", "reason", res.Reason)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "reason": res.Reason})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message_id": res.MessageID})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
