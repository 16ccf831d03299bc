// Package command implements the follow, unfollow, and following commands.
//
// Handlers translate raw command input into resolver and store calls and
// produce the reply text. Delivering the reply (always ephemeral) is the
// gateway's job. Any user may run any command; there is no authorization.
package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lookoutbot/lookout/internal/target"
)

// ///////////////////////////////////////////////
// Collaborator Interfaces
// ///////////////////////////////////////////////

// Store is the slice of the follow store the command surface needs.
type Store interface {
	Add(targetID, followerID string) bool
	Remove(targetID, followerID string) bool
	TargetsFollowedBy(followerID string) []string
}

// ///////////////////////////////////////////////
// Handler
// ///////////////////////////////////////////////

// Handler executes the three follow commands.
type Handler struct {
	resolver *target.Resolver
	store    Store
	// dir is used by Following for best-effort display-name resolution.
	dir target.Directory
	log *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(resolver *target.Resolver, store Store, dir target.Directory, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{resolver: resolver, store: store, dir: dir, log: log}
}

// ///////////////////////////////////////////////
// Follow
// ///////////////////////////////////////////////

// Follow resolves raw input with full validation and records the relation.
// The reply distinguishes a new follow from an existing one.
func (h *Handler) Follow(ctx context.Context, raw, userID string) string {
	desc, err := h.resolver.Resolve(ctx, raw, userID)
	if err != nil {
		return validationReply(err)
	}

	if !h.store.Add(desc.ID, userID) {
		return fmt.Sprintf("You're already following **%s**.", desc.DisplayName)
	}

	h.log.Info("follow added", "target", desc.ID, "kind", desc.Kind.String(), "follower", userID)
	if desc.Kind == target.KindChannel {
		return fmt.Sprintf("Now following **%s**. You'll get a DM when someone joins it.", desc.DisplayName)
	}
	return fmt.Sprintf("Now following **%s**. You'll get a DM when they join a voice channel.", desc.DisplayName)
}

// ///////////////////////////////////////////////
// Unfollow
// ///////////////////////////////////////////////

// Unfollow removes a relation. Resolution is relaxed — syntax only, no
// existence probe — because the target may have been deleted since it was
// followed. An unknown relation mutates nothing.
func (h *Handler) Unfollow(ctx context.Context, raw, userID string) string {
	id, err := target.ExtractID(raw)
	if err != nil {
		return validationReply(err)
	}

	if !h.store.Remove(id, userID) {
		return "You're not following that. Use `/following` to see what you follow."
	}

	h.log.Info("follow removed", "target", id, "follower", userID)
	name := h.bestEffortName(ctx, id)
	return fmt.Sprintf("Unfollowed **%s**.", name)
}

// ///////////////////////////////////////////////
// Following
// ///////////////////////////////////////////////

// Following lists everything userID follows, partitioned into voice
// channels, users, and targets that no longer resolve. Name resolution is
// best effort per target.
func (h *Handler) Following(ctx context.Context, userID string) string {
	targets := h.store.TargetsFollowedBy(userID)
	if len(targets) == 0 {
		return "You're not following anything yet. Try `/follow` with a user or voice channel."
	}

	var channels, users, unknown []string
	for _, id := range targets {
		if ch, err := h.dir.Channel(ctx, id); err == nil && ch != nil {
			channels = append(channels, fmt.Sprintf("**%s**", ch.Name))
			continue
		}
		if u, err := h.dir.User(ctx, id); err == nil && u != nil {
			users = append(users, fmt.Sprintf("**%s**", u.Username))
			continue
		}
		unknown = append(unknown, fmt.Sprintf("`%s`", id))
	}

	var b strings.Builder
	b.WriteString("You're following:\n")
	writeGroup(&b, "Voice channels", channels)
	writeGroup(&b, "Users", users)
	writeGroup(&b, "Unknown or deleted", unknown)
	return strings.TrimRight(b.String(), "\n")
}

// writeGroup appends one display group, omitting empty groups.
func writeGroup(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(items, ", "))
}

// bestEffortName resolves a display name for an unfollowed target: channel
// first, then user, then the raw ID.
func (h *Handler) bestEffortName(ctx context.Context, id string) string {
	if ch, err := h.dir.Channel(ctx, id); err == nil && ch != nil {
		return ch.Name
	}
	if u, err := h.dir.User(ctx, id); err == nil && u != nil {
		return u.Username
	}
	return id
}

// ///////////////////////////////////////////////
// Validation Replies
// ///////////////////////////////////////////////

// validationReply maps a resolver error to actionable user text. Validation
// errors are user-caused and never logged as faults.
func validationReply(err error) string {
	switch {
	case errors.Is(err, target.ErrInvalidFormat):
		return "That doesn't look right. Use a mention (like `@name` or `#channel`) or a raw 17-19 digit ID."
	case errors.Is(err, target.ErrNotVoiceChannel):
		return "That channel isn't a voice channel. Only voice channels and users can be followed."
	case errors.Is(err, target.ErrBotNotFollowable):
		return "Bots can't be followed."
	case errors.Is(err, target.ErrSelfFollow):
		return "You can't follow yourself."
	case errors.Is(err, target.ErrTargetNotFound):
		return "I couldn't find a channel or user with that ID. I tried both lookups."
	default:
		return "Something went wrong handling that command. Please try again."
	}
}
