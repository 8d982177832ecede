package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/titanous/json5"
)

// Config is the root configuration for the relay.
type Config struct {
	Vault    VaultConfig    `json:"vault"`
	HTTP     HTTPConfig     `json:"http"`
	SMTP     SMTPConfig     `json:"smtp"`
	Discord  DiscordConfig  `json:"discord"`
	Mail     MailConfig     `json:"mail"`
	Agent    AgentConfig    `json:"agent"`
	Sessions SessionsConfig `json:"sessions"`
	LogLevel string         `json:"log_level"`
}

// VaultConfig locates the shared agent workspace.
type VaultConfig struct {
	Root        string `json:"root"`
	PersonaDir  string `json:"persona_dir"`  // relative to root
	SystemFile  string `json:"system_file"`  // relative to root
	PersonaMode string `json:"persona_mode"` // "rescan" or "startup"
}

// HTTPConfig controls the JSON notification API.
type HTTPConfig struct {
	Enabled      bool   `json:"enabled"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	RateLimitRPM int    `json:"rate_limit_rpm"`
}

// SMTPConfig controls the inbound SMTP listener.
type SMTPConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Domain  string `json:"domain"`
}

// DiscordConfig controls the conversational bot.
type DiscordConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
}

// MailConfig controls outbound mail via SES.
type MailConfig struct {
	Region          string `json:"region"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Sender          string `json:"sender"`
}

// AgentConfig controls the agent subprocess.
type AgentConfig struct {
	Binary         string   `json:"binary"`
	ExtraArgs      []string `json:"extra_args"`
	TimeoutSeconds int      `json:"timeout_seconds"`
	DefaultPersona string   `json:"default_persona"`
	MaxChunkLen    int      `json:"max_chunk_len"`
}

// SessionsConfig controls resume-token persistence.
type SessionsConfig struct {
	Path string `json:"path"` // sqlite file, empty = in-memory only
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Vault: VaultConfig{
			Root:        "~/.hermes/vault",
			PersonaDir:  "Atlas/Meta/Agents",
			SystemFile:  "Atlas/Meta/Agents/Hermes.md",
			PersonaMode: "rescan",
		},
		HTTP: HTTPConfig{
			Enabled:      true,
			Host:         "0.0.0.0",
			Port:         8000,
			RateLimitRPM: 60,
		},
		SMTP: SMTPConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    1025,
			Domain:  "localhost",
		},
		Mail: MailConfig{
			Region: "us-east-1",
		},
		Agent: AgentConfig{
			Binary:         "gemini",
			TimeoutSeconds: 300,
			DefaultPersona: "Zeus",
			MaxChunkLen:    2000,
		},
		Sessions: SessionsConfig{
			Path: "~/.hermes/sessions.db",
		},
		LogLevel: "info",
	}
}

// Load reads config from a JSON5 file, then overlays env vars. A missing
// file is not an error; env-only deployments are supported.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			cfg.expandPaths()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.expandPaths()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config. Env vars take
// precedence over file values; secrets additionally resolve through the
// secret chain.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envStr("HERMES_VAULT_ROOT", &c.Vault.Root)
	envStr("HERMES_HTTP_HOST", &c.HTTP.Host)
	envStr("HERMES_SMTP_DOMAIN", &c.SMTP.Domain)
	envStr("HERMES_AWS_REGION", &c.Mail.Region)
	envStr("HERMES_MAIL_SENDER", &c.Mail.Sender)
	envStr("HERMES_AGENT_BINARY", &c.Agent.Binary)
	envStr("HERMES_DEFAULT_PERSONA", &c.Agent.DefaultPersona)
	envStr("HERMES_SESSIONS_PATH", &c.Sessions.Path)
	envStr("HERMES_LOG_LEVEL", &c.LogLevel)

	if v := GetSecret("HERMES_DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := GetSecret("HERMES_AWS_ACCESS_KEY_ID"); v != "" {
		c.Mail.AccessKeyID = v
	}
	if v := GetSecret("HERMES_AWS_SECRET_ACCESS_KEY"); v != "" {
		c.Mail.SecretAccessKey = v
	}

	// Credentials via env imply the channel is wanted.
	if c.Discord.Token != "" {
		c.Discord.Enabled = true
	}
}

func (c *Config) expandPaths() {
	c.Vault.Root = expandHome(c.Vault.Root)
	c.Sessions.Path = expandHome(c.Sessions.Path)
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// AgentTimeout returns the configured process deadline.
func (c *Config) AgentTimeout() time.Duration {
	if c.Agent.TimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Agent.TimeoutSeconds) * time.Second
}
