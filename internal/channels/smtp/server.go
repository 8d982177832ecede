package smtp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gosmtp "github.com/emersion/go-smtp"

	"github.com/pantheonlabs/hermes/internal/relay"
)

// Server accepts inbound SMTP and relays each message through the router.
type Server struct {
	backend *Backend
	srv     *gosmtp.Server
}

// NewServer configures the SMTP listener. Every accepted message is relayed
// once per RCPT TO recipient.
func NewServer(router *relay.Router, host string, port int, domain string) *Server {
	backend := &Backend{router: router}
	srv := gosmtp.NewServer(backend)
	srv.Addr = fmt.Sprintf("%s:%d", host, port)
	srv.Domain = domain
	srv.ReadTimeout = 60 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.MaxMessageBytes = 25 * 1024 * 1024
	srv.MaxRecipients = 50
	srv.AllowInsecureAuth = true

	return &Server{backend: backend, srv: srv}
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	slog.Info("smtp channel starting", "addr", s.srv.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	if err := s.srv.ListenAndServe(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("smtp channel: %w", err)
	}
	return nil
}
