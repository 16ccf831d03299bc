package gateway

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/lookoutbot/lookout/internal/presence"
)

// ///////////////////////////////////////////////
// Slash Commands
// ///////////////////////////////////////////////

// targetOption is the shared option name for follow and unfollow.
const targetOption = "user-or-channel"

// commandDefs declares the bot's slash commands, registered globally.
var commandDefs = []*discordgo.ApplicationCommand{
	{
		Name:        "follow",
		Description: "Get a DM when a user or voice channel becomes active",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        targetOption,
				Description: "Mention or ID of a user or voice channel",
				Required:    true,
			},
		},
	},
	{
		Name:        "unfollow",
		Description: "Stop following a user or voice channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        targetOption,
				Description: "Mention or ID of the followed target",
				Required:    true,
			},
		},
	},
	{
		Name:        "following",
		Description: "List the users and voice channels you follow",
	},
}

// registerCommands registers the slash commands under the bot's application.
func (g *Gateway) registerCommands(_ context.Context) error {
	appID := g.session.State.User.ID
	for _, def := range commandDefs {
		if _, err := g.session.ApplicationCommandCreate(appID, "", def); err != nil {
			return fmt.Errorf("register command /%s: %w", def.Name, err)
		}
	}
	g.log.Info("slash commands registered", "count", len(commandDefs))
	return nil
}

// ///////////////////////////////////////////////
// Interaction Dispatch
// ///////////////////////////////////////////////

// onInteraction routes slash-command invocations to the command surface and
// replies ephemerally, so responses are visible only to the invoking user.
func (g *Gateway) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	userID := invokerID(i)
	if userID == "" {
		g.log.Warn("interaction without an invoking user")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*g.lookupTimeout())
	defer cancel()

	data := i.ApplicationCommandData()
	var reply string
	switch data.Name {
	case "follow":
		reply = g.commands.Follow(ctx, optionValue(data, targetOption), userID)
	case "unfollow":
		reply = g.commands.Unfollow(ctx, optionValue(data, targetOption), userID)
	case "following":
		reply = g.commands.Following(ctx, userID)
	default:
		g.log.Warn("unknown command", "name", data.Name)
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: reply,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		g.log.Warn("failed to respond to interaction", "command", data.Name, "error", err)
	}
}

// invokerID extracts the invoking user's ID, whether the command arrived
// from a guild (Member) or a DM (User).
func invokerID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// optionValue returns the string value of the named command option.
func optionValue(data discordgo.ApplicationCommandInteractionData, name string) string {
	for _, opt := range data.Options {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

// ///////////////////////////////////////////////
// Voice-State Dispatch
// ///////////////////////////////////////////////

// onVoiceStateUpdate classifies each voice-state transition and fans out
// notifications for arrivals. Two target identities are notified per
// arrival: the destination channel and the moving user, each with its own
// follower set.
func (g *Gateway) onVoiceStateUpdate(_ *discordgo.Session, e *discordgo.VoiceStateUpdate) {
	var prev presence.Snapshot
	if e.BeforeUpdate != nil {
		prev.ChannelID = e.BeforeUpdate.ChannelID
	}
	cur := presence.Snapshot{ChannelID: e.ChannelID}

	ev := presence.Classify(prev, cur)
	switch {
	case ev.Kind == presence.Leave:
		g.log.Debug("voice leave", "user", e.UserID, "channel", ev.ChannelID)
		return
	case !ev.Kind.Notifiable():
		return
	}

	channelName := g.channelDisplayName(ev.ChannelID)
	if g.cfg.Load().NotifyIgnored(channelName) {
		g.log.Debug("channel matches notify ignore pattern, suppressing fan-out",
			"channel", channelName)
		return
	}

	userName := g.userDisplayName(e.UserID)
	message := fmt.Sprintf("🔊 **%s** joined **%s**.", userName, channelName)

	g.log.Debug("voice arrival", "kind", ev.Kind.String(), "user", e.UserID, "channel", ev.ChannelID)

	// The fan-out context carries no overall deadline: the engine bounds each
	// per-follower scan and delivery individually, and a shared deadline
	// would fail every remaining follower at once on a large set.
	ctx := context.Background()

	// Followers of the destination channel...
	g.engine.Notify(ctx, ev.ChannelID, message, e.UserID, ev.ChannelID)
	// ...and followers of the user who arrived.
	g.engine.Notify(ctx, e.UserID, message, e.UserID, ev.ChannelID)
}

// channelDisplayName resolves a channel name for notification text under a
// single lookup deadline, with a generic fallback when the lookup fails.
func (g *Gateway) channelDisplayName(id string) string {
	ctx, cancel := context.WithTimeout(context.Background(), g.lookupTimeout())
	defer cancel()

	ch, err := g.Channel(ctx, id)
	if err != nil {
		g.log.Debug("channel name lookup failed", "channel", id, "error", err)
		return "a voice channel"
	}
	return ch.Name
}

// userDisplayName resolves a username for notification text under a single
// lookup deadline, with a generic fallback when the lookup fails.
func (g *Gateway) userDisplayName(id string) string {
	ctx, cancel := context.WithTimeout(context.Background(), g.lookupTimeout())
	defer cancel()

	u, err := g.User(ctx, id)
	if err != nil {
		g.log.Debug("username lookup failed", "user", id, "error", err)
		return "Someone"
	}
	return u.Username
}
