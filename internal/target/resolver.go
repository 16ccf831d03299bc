// Package target resolves raw user input into validated follow targets.
//
// Input arrives as free-form text from the follow/unfollow commands: a user
// mention (<@ID> or <@!ID>), a channel mention (<#ID>), or a bare snowflake.
// Resolution probes the platform directory to decide whether the ID names a
// voice channel or a human user, and rejects everything else with a typed
// validation error the command surface can render.
package target

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ///////////////////////////////////////////////
// Validation Errors
// ///////////////////////////////////////////////

// Validation errors are user-caused and reported back to the invoking user;
// they are never logged as system faults. Match with [errors.Is].
var (
	// ErrInvalidFormat means the input is neither a mention nor a 17-19
	// digit snowflake.
	ErrInvalidFormat = errors.New("not a valid mention or ID")
	// ErrNotVoiceChannel means the ID resolved to a channel that cannot
	// hold a voice presence (text, category, forum).
	ErrNotVoiceChannel = errors.New("channel is not a voice channel")
	// ErrBotNotFollowable means the ID resolved to a bot account.
	ErrBotNotFollowable = errors.New("bots cannot be followed")
	// ErrSelfFollow means the requester tried to follow themself.
	ErrSelfFollow = errors.New("cannot follow yourself")
	// ErrTargetNotFound means neither the channel nor the user lookup
	// produced a result.
	ErrTargetNotFound = errors.New("no channel or user with that ID")
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Kind discriminates the two followable entity kinds.
type Kind int

const (
	// KindChannel is a voice channel target.
	KindChannel Kind = iota
	// KindUser is a human user target.
	KindUser
)

// String returns the display name for a target kind.
func (k Kind) String() string {
	if k == KindChannel {
		return "channel"
	}
	return "user"
}

// Descriptor is the resolved, typed output of validation. It is ephemeral:
// recomputed per command and per notification, never persisted, because
// display names change.
type Descriptor struct {
	// Kind distinguishes voice channel from user targets.
	Kind Kind
	// ID is the platform snowflake for the target.
	ID string
	// DisplayName is the channel name or username at resolution time.
	DisplayName string
	// GuildID is the owning guild for channel targets; empty for users.
	GuildID string
}

// ChannelInfo is the directory's view of a channel.
type ChannelInfo struct {
	ID      string
	Name    string
	GuildID string
	// Voice reports whether the channel can hold a voice presence.
	Voice bool
}

// UserInfo is the directory's view of a user account.
type UserInfo struct {
	ID       string
	Username string
	Bot      bool
}

// Directory abstracts the platform lookups the resolver needs. Lookups are
// read-only probes; any error (not found, inaccessible, timeout) simply moves
// resolution to the next step.
type Directory interface {
	// Channel looks up a channel by ID.
	Channel(ctx context.Context, id string) (*ChannelInfo, error)
	// User looks up a user account by ID.
	User(ctx context.Context, id string) (*UserInfo, error)
}

// ///////////////////////////////////////////////
// ID Extraction
// ///////////////////////////////////////////////

// mentionRegex captures the snowflake inside user (<@ID>, <@!ID>) and
// channel (<#ID>) mention syntax.
var mentionRegex = regexp.MustCompile(`^<(?:@!?|#)(\d+)>$`)

// snowflakeRegex is the syntactic ID check: Discord snowflakes are 17-19
// decimal digits for any realistically aged entity.
var snowflakeRegex = regexp.MustCompile(`^\d{17,19}$`)

// ExtractID performs the syntax-only half of resolution: it unwraps mention
// syntax and validates the snowflake shape, without any directory lookup.
// The unfollow path uses this alone, since an unfollow target may no longer
// exist in the directory.
func ExtractID(raw string) (string, error) {
	id := raw
	if m := mentionRegex.FindStringSubmatch(raw); m != nil {
		id = m[1]
	}
	if !snowflakeRegex.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}
	return id, nil
}

// ///////////////////////////////////////////////
// Resolver
// ///////////////////////////////////////////////

// Resolver validates raw input against the platform directory.
type Resolver struct {
	dir Directory
}

// NewResolver creates a Resolver backed by the given directory.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve turns raw input into a typed target descriptor, or a validation
// error. Resolution is channel-first: the ID is probed as a channel, and only
// if that lookup fails is it probed as a user. This order is safe because the
// platform draws channel and user snowflakes from one unique ID space; if
// that guarantee ever changed, channel-first precedence would need revisiting.
func (r *Resolver) Resolve(ctx context.Context, raw, requesterID string) (*Descriptor, error) {
	id, err := ExtractID(raw)
	if err != nil {
		return nil, err
	}

	if ch, chErr := r.dir.Channel(ctx, id); chErr == nil && ch != nil {
		if !ch.Voice {
			return nil, fmt.Errorf("%w: %s", ErrNotVoiceChannel, ch.Name)
		}
		return &Descriptor{
			Kind:        KindChannel,
			ID:          ch.ID,
			DisplayName: ch.Name,
			GuildID:     ch.GuildID,
		}, nil
	}

	if u, uErr := r.dir.User(ctx, id); uErr == nil && u != nil {
		if u.Bot {
			return nil, fmt.Errorf("%w: %s", ErrBotNotFollowable, u.Username)
		}
		if u.ID == requesterID {
			return nil, ErrSelfFollow
		}
		return &Descriptor{
			Kind:        KindUser,
			ID:          u.ID,
			DisplayName: u.Username,
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, id)
}

// IsValidationError reports whether err belongs to the user-caused validation
// taxonomy, as opposed to a system fault.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrNotVoiceChannel) ||
		errors.Is(err, ErrBotNotFollowable) ||
		errors.Is(err, ErrSelfFollow) ||
		errors.Is(err, ErrTargetNotFound)
}
