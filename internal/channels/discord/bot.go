package discord

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/pantheonlabs/hermes/internal/relay"
	"github.com/pantheonlabs/hermes/internal/vault"
)

// seenReaction is added to a message the bot has accepted for processing.
const seenReaction = "👁️"

// maxAttachmentBytes bounds a single attachment download.
const maxAttachmentBytes = 25 * 1024 * 1024

// Bot is the Discord ingress channel. Every accepted message becomes one
// agent-channel relay dispatch; replies are threaded back per chunk.
type Bot struct {
	session   *discordgo.Session
	router    *relay.Router
	vault     *vault.Vault
	botUserID string // populated on start

	httpClient *http.Client
}

// New creates the bot from a token. The gateway connection is not opened
// until Start.
func New(token string, router *relay.Router, v *vault.Vault) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Bot{
		session:    session,
		router:     router,
		vault:      v,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Start resolves the bot's own identity, opens the gateway connection and
// blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	slog.Info("starting discord bot")

	// Identity must be known before any event can arrive; self-filtering and
	// mention gating depend on it.
	user, err := b.session.User("@me")
	if err != nil {
		return fmt.Errorf("fetch discord bot identity: %w", err)
	}
	b.botUserID = user.ID

	b.session.AddHandler(b.handleMessage)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	slog.Info("discord bot connected", "username", user.Username, "id", user.ID)

	<-ctx.Done()
	slog.Info("stopping discord bot")
	return b.session.Close()
}

func (b *Bot) handleMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == b.botUserID || m.Author.Bot {
		return
	}

	isDM := m.GuildID == ""
	if !isDM && !b.isMentioned(m) {
		return
	}

	content := strings.TrimSpace(stripSelfMentions(m.Content, b.botUserID))
	content = b.stageAttachments(m, content)
	if content == "" {
		return
	}

	// Best-effort acknowledgement; failures never block the conversation.
	if err := b.session.MessageReactionAdd(m.ChannelID, m.ID, seenReaction); err != nil {
		slog.Debug("reaction failed", "error", err)
	}
	b.session.ChannelTyping(m.ChannelID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	msg := relay.InboundMessage{
		Channel:        relay.ChannelAgent,
		SenderIdentity: m.Author.ID,
		Body:           content,
	}

	res := b.router.Route(ctx, msg)
	if !res.OK() {
		slog.Error("discord dispatch failed", "user_id", m.Author.ID, "reason", res.Reason)
		b.reply(m, fmt.Sprintf("⚠️ %s", res.Reason))
		return
	}
	for _, chunk := range res.Chunks {
		b.reply(m, chunk)
	}
}

// stripSelfMentions removes mention tokens addressing the bot itself, in both
// the plain and nickname forms. Mentions of other users stay in the body.
func stripSelfMentions(content, botID string) string {
	if botID == "" {
		return content
	}
	content = strings.ReplaceAll(content, "<@"+botID+">", "")
	return strings.ReplaceAll(content, "<@!"+botID+">", "")
}

// isMentioned reports whether the bot is @mentioned in a guild message.
func (b *Bot) isMentioned(m *discordgo.MessageCreate) bool {
	for _, u := range m.Mentions {
		if u.ID == b.botUserID {
			return true
		}
	}
	return false
}

// stageAttachments downloads message attachments into the vault and appends
// a file note per attachment so the agent can read them by path. Download
// failures are logged and skipped.
func (b *Bot) stageAttachments(m *discordgo.MessageCreate, content string) string {
	for _, att := range m.Attachments {
		data, err := b.download(att.URL)
		if err != nil {
			slog.Warn("attachment download failed", "filename", att.Filename, "error", err)
			continue
		}
		rel, err := b.vault.StageAttachment(att.Filename, data)
		if err != nil {
			slog.Warn("attachment staging failed", "filename", att.Filename, "error", err)
			continue
		}
		if content != "" {
			content += "\n"
		}
		content += fmt.Sprintf("[attached file: %s]", rel)
	}
	return content
}

func (b *Bot) download(url string) ([]byte, error) {
	resp, err := b.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes))
}

func (b *Bot) reply(m *discordgo.MessageCreate, content string) {
	_, err := b.session.ChannelMessageSendReply(m.ChannelID, content, m.Reference())
	if err != nil {
		slog.Error("discord reply failed", "channel_id", m.ChannelID, "error", err)
	}
}
