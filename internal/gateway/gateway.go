// Package gateway adapts the Discord gateway to the bot's internal
// components via discordgo.
//
// The [Gateway] owns the discordgo session and is the only package that
// imports discordgo. It feeds voice-state events through the presence
// classifier into the notification engine, dispatches slash-command
// interactions to the command surface, and satisfies the directory,
// presence-scanner, messenger, and announcement-channel interfaces the
// internal packages consume.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lookoutbot/lookout/internal/command"
	"github.com/lookoutbot/lookout/internal/config"
	"github.com/lookoutbot/lookout/internal/countdown"
	"github.com/lookoutbot/lookout/internal/follow"
	"github.com/lookoutbot/lookout/internal/notify"
	"github.com/lookoutbot/lookout/internal/target"
)

// ///////////////////////////////////////////////
// Gateway
// ///////////////////////////////////////////////

// Gateway wraps the discordgo session and wires events to the bot's core.
type Gateway struct {
	session  *discordgo.Session
	engine   *notify.Engine
	commands *command.Handler
	// cfg holds the live configuration; the config watcher swaps it on
	// reload, so event handlers always read the current ignore globs.
	cfg atomic.Pointer[config.Config]
	log *slog.Logger
}

// New creates a Gateway and wires the resolver, fan-out engine, and command
// surface around it. The session is not opened yet; call [Gateway.Open].
func New(token string, store *follow.Store, cfg *config.Config, log *slog.Logger) (*Gateway, error) {
	if log == nil {
		log = slog.Default()
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers

	g := &Gateway{
		session: session,
		log:     log,
	}
	g.cfg.Store(cfg)

	resolver := target.NewResolver(g)
	g.engine = notify.NewEngine(store, g, g, cfg.LookupTimeout(), log)
	g.commands = command.NewHandler(resolver, store, g, log)

	session.AddHandler(g.onReady)
	session.AddHandler(g.onVoiceStateUpdate)
	session.AddHandler(g.onInteraction)

	return g, nil
}

// Open connects to the gateway and registers the slash commands once the
// session identity is known.
func (g *Gateway) Open(ctx context.Context) error {
	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open gateway connection: %w", err)
	}
	if err := g.registerCommands(ctx); err != nil {
		g.session.Close()
		return err
	}
	return nil
}

// Close disconnects from the gateway.
func (g *Gateway) Close() error {
	return g.session.Close()
}

// SelfID returns the bot's own user ID. Valid only after [Gateway.Open].
func (g *Gateway) SelfID() string {
	return g.session.State.User.ID
}

// UpdateConfig swaps the live configuration after a hot reload.
func (g *Gateway) UpdateConfig(cfg *config.Config) {
	g.cfg.Store(cfg)
}

// lookupTimeout returns the configured per-lookup deadline.
func (g *Gateway) lookupTimeout() time.Duration {
	return g.cfg.Load().LookupTimeout()
}

// onReady logs the connected identity.
func (g *Gateway) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	g.log.Info("gateway ready", "user", r.User.Username, "guilds", len(r.Guilds))
}

// ///////////////////////////////////////////////
// target.Directory
// ///////////////////////////////////////////////

// Channel looks a channel up by ID, preferring the local state cache and
// falling back to the REST API.
func (g *Gateway) Channel(ctx context.Context, id string) (*target.ChannelInfo, error) {
	ch, err := g.session.State.Channel(id)
	if err != nil {
		ch, err = g.session.Channel(id, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("channel lookup %s: %w", id, err)
		}
	}
	return &target.ChannelInfo{
		ID:      ch.ID,
		Name:    ch.Name,
		GuildID: ch.GuildID,
		Voice:   isVoice(ch.Type),
	}, nil
}

// User looks a user account up by ID via the REST API.
func (g *Gateway) User(ctx context.Context, id string) (*target.UserInfo, error) {
	u, err := g.session.User(id, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("user lookup %s: %w", id, err)
	}
	return &target.UserInfo{
		ID:       u.ID,
		Username: u.Username,
		Bot:      u.Bot,
	}, nil
}

// isVoice reports whether a channel type can hold a voice presence.
func isVoice(t discordgo.ChannelType) bool {
	return t == discordgo.ChannelTypeGuildVoice || t == discordgo.ChannelTypeGuildStageVoice
}

// ///////////////////////////////////////////////
// notify.PresenceScanner
// ///////////////////////////////////////////////

// InChannel scans every guild the bot is a member of for userID's current
// voice state. A failed lookup in one guild counts as "not present there"
// and the scan continues; the whole scan never aborts on partial failure.
func (g *Gateway) InChannel(_ context.Context, userID, channelID string) (bool, error) {
	for _, guild := range g.session.State.Guilds {
		vs, err := g.session.State.VoiceState(guild.ID, userID)
		if err != nil || vs == nil {
			continue
		}
		if vs.ChannelID == channelID {
			return true, nil
		}
	}
	return false, nil
}

// ///////////////////////////////////////////////
// notify.Messenger
// ///////////////////////////////////////////////

// DirectMessage opens (or reuses) the DM channel with userID and sends text.
func (g *Gateway) DirectMessage(ctx context.Context, userID, text string) error {
	dm, err := g.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open DM channel with %s: %w", userID, err)
	}
	if _, err := g.session.ChannelMessageSend(dm.ID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send DM to %s: %w", userID, err)
	}
	return nil
}

// ///////////////////////////////////////////////
// countdown.Channel
// ///////////////////////////////////////////////

// announceChannel adapts one Discord channel to the countdown announcer.
type announceChannel struct {
	session *discordgo.Session
	id      string
}

// AnnounceChannel returns a [countdown.Channel] bound to channelID.
func (g *Gateway) AnnounceChannel(channelID string) countdown.Channel {
	return &announceChannel{session: g.session, id: channelID}
}

// Recent fetches the channel's most recent messages, newest first.
func (c *announceChannel) Recent(ctx context.Context, limit int) ([]countdown.Message, error) {
	msgs, err := c.session.ChannelMessages(c.id, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetch messages in %s: %w", c.id, err)
	}

	out := make([]countdown.Message, 0, len(msgs))
	for _, m := range msgs {
		var author string
		if m.Author != nil {
			author = m.Author.ID
		}
		out = append(out, countdown.Message{
			ID:        m.ID,
			AuthorID:  author,
			Content:   m.Content,
			CreatedAt: m.Timestamp,
		})
	}
	return out, nil
}

// Send posts content to the channel.
func (c *announceChannel) Send(ctx context.Context, content string) error {
	if _, err := c.session.ChannelMessageSend(c.id, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send message to %s: %w", c.id, err)
	}
	return nil
}

// Delete removes a message from the channel.
func (c *announceChannel) Delete(ctx context.Context, messageID string) error {
	if err := c.session.ChannelMessageDelete(c.id, messageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete message %s: %w", messageID, err)
	}
	return nil
}
