package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pantheonlabs/hermes/internal/agent"
	"github.com/pantheonlabs/hermes/internal/channels/discord"
	"github.com/pantheonlabs/hermes/internal/channels/httpapi"
	smtpchannel "github.com/pantheonlabs/hermes/internal/channels/smtp"
	"github.com/pantheonlabs/hermes/internal/config"
	"github.com/pantheonlabs/hermes/internal/mailer"
	"github.com/pantheonlabs/hermes/internal/persona"
	"github.com/pantheonlabs/hermes/internal/relay"
	"github.com/pantheonlabs/hermes/internal/store"
	"github.com/pantheonlabs/hermes/internal/vault"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the relay with all enabled channels",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	if lvl := os.Getenv("HERMES_LOG_LEVEL"); lvl == "debug" {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	v, err := vault.New(cfg.Vault.Root)
	if err != nil {
		slog.Error("vault unavailable", "error", err)
		os.Exit(1)
	}

	mode := persona.ModeRescan
	if cfg.Vault.PersonaMode == "startup" {
		mode = persona.ModeStartup
	}
	catalog := persona.NewCatalog(v.Path(cfg.Vault.PersonaDir), mode)
	if mode == persona.ModeStartup {
		watcher, err := persona.NewWatcher(catalog)
		if err != nil {
			slog.Warn("persona watcher unavailable", "error", err)
		} else {
			watcher.Start(ctx)
			defer watcher.Stop()
		}
	}

	var tokenStore agent.TokenStore
	if cfg.Sessions.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Sessions.Path), 0o755); err != nil {
			slog.Warn("session store unavailable, tokens will not persist", "error", err)
		} else if s, err := store.OpenSessions(cfg.Sessions.Path); err != nil {
			slog.Warn("session store unavailable, tokens will not persist", "error", err)
		} else {
			tokenStore = s
			defer s.Close()
		}
	}
	table := agent.NewTable(tokenStore)

	runner := &agent.ProcessRunner{
		Binary:          cfg.Agent.Binary,
		AutoApproveFlag: "--yolo",
		PromptFlag:      "-p",
		ResumeFlag:      "--resume",
		ExtraArgs:       cfg.Agent.ExtraArgs,
		WorkDir:         v.Root,
		Timeout:         cfg.AgentTimeout(),
	}
	orchestrator := agent.NewOrchestrator(runner, table, cfg.Vault.PersonaDir, v.Path(cfg.Vault.SystemFile), slog.Default())

	dispatcher, err := mailer.New(ctx, mailer.Config{
		Region:          cfg.Mail.Region,
		AccessKeyID:     cfg.Mail.AccessKeyID,
		SecretAccessKey: cfg.Mail.SecretAccessKey,
		Sender:          cfg.Mail.Sender,
	}, slog.Default())
	if err != nil {
		slog.Error("mail dispatcher unavailable", "error", err)
		os.Exit(1)
	}

	router := relay.NewRouter(dispatcher, orchestrator, catalog,
		cfg.Mail.Sender, cfg.Agent.DefaultPersona, cfg.Agent.MaxChunkLen)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.HTTP.Enabled {
		srv := httpapi.NewServer(router, cfg.HTTP.Host, cfg.HTTP.Port, cfg.HTTP.RateLimitRPM)
		g.Go(func() error { return srv.Start(gctx) })
	}
	if cfg.SMTP.Enabled {
		srv := smtpchannel.NewServer(router, cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Domain)
		g.Go(func() error { return srv.Start(gctx) })
	}
	if cfg.Discord.Enabled {
		bot, err := discord.New(cfg.Discord.Token, router, v)
		if err != nil {
			slog.Error("discord bot unavailable", "error", err)
			os.Exit(1)
		}
		g.Go(func() error { return bot.Start(gctx) })
	}

	slog.Info("hermes started",
		"http", cfg.HTTP.Enabled,
		"smtp", cfg.SMTP.Enabled,
		"discord", cfg.Discord.Enabled,
		"personas", len(catalog.Personas()),
	)

	if err := g.Wait(); err != nil {
		slog.Error("relay stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("hermes stopped")
}
