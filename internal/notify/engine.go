// Package notify implements the follower notification fan-out engine.
//
// Given a target identity and a presence event, the engine computes the
// follower set, applies suppression rules, and delivers one direct message
// per follower. Delivery is at-most-once and best effort: individual
// failures are counted, logged, and never stop the remaining followers.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// ///////////////////////////////////////////////
// Collaborator Interfaces
// ///////////////////////////////////////////////

// FollowerSource yields the follower set for a target.
// *follow.Store satisfies this.
type FollowerSource interface {
	FollowersOf(targetID string) []string
}

// PresenceScanner answers whether a user currently occupies a channel,
// scanning across every guild the bot belongs to.
type PresenceScanner interface {
	// InChannel reports whether userID's current voice presence places
	// them in channelID. Implementations scan guild by guild and treat a
	// failed per-guild lookup as "not present there", continuing the scan.
	InChannel(ctx context.Context, userID, channelID string) (bool, error)
}

// Messenger delivers direct messages.
type Messenger interface {
	DirectMessage(ctx context.Context, userID, text string) error
}

// ///////////////////////////////////////////////
// Engine
// ///////////////////////////////////////////////

// Report tallies one fan-out for observability.
type Report struct {
	// Sent is the number of DMs delivered without error.
	Sent int
	// Skipped counts followers excluded by a suppression rule.
	Skipped int
	// Failed counts delivery attempts that errored. Failures are not
	// retried and are never surfaced to the user who triggered the event.
	Failed int
}

// Engine fans notifications out to followers.
type Engine struct {
	followers FollowerSource
	scanner   PresenceScanner
	messenger Messenger
	// lookupTimeout bounds each presence scan and each DM send so a hung
	// external call cannot stall the remaining followers.
	lookupTimeout time.Duration
	log           *slog.Logger
}

// NewEngine creates an Engine. A zero lookupTimeout disables per-call
// deadlines; callers normally pass the configured notify timeout.
func NewEngine(followers FollowerSource, scanner PresenceScanner, messenger Messenger, lookupTimeout time.Duration, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		followers:     followers,
		scanner:       scanner,
		messenger:     messenger,
		lookupTimeout: lookupTimeout,
		log:           log,
	}
}

// Notify delivers message to every follower of targetID, in store order.
//
// Suppression rules, per follower:
//   - self-exclusion: the user whose movement triggered the event is never
//     notified about it, however the relation came to exist;
//   - co-presence: when destChannelID is known and the follower is already
//     in it, the notification is withheld. The presence scan is best effort;
//     a scan failure means "presence unknown" and the DM is sent anyway,
//     preferring a redundant notification over a silently dropped one.
//
// An empty follower set performs zero delivery attempts.
func (e *Engine) Notify(ctx context.Context, targetID, message, movingUserID, destChannelID string) Report {
	var rep Report

	followers := e.followers.FollowersOf(targetID)
	if len(followers) == 0 {
		return rep
	}

	for _, followerID := range followers {
		if followerID == movingUserID {
			rep.Skipped++
			continue
		}

		if destChannelID != "" && e.alreadyThere(ctx, followerID, destChannelID) {
			e.log.Debug("suppressing co-present follower", "follower", followerID, "channel", destChannelID)
			rep.Skipped++
			continue
		}

		if err := e.deliver(ctx, followerID, message); err != nil {
			e.log.Warn("notification delivery failed", "follower", followerID, "error", err)
			rep.Failed++
			continue
		}
		rep.Sent++
	}

	e.log.Info("fan-out complete",
		"target", targetID,
		"sent", rep.Sent,
		"skipped", rep.Skipped,
		"failed", rep.Failed,
	)
	return rep
}

// alreadyThere runs the co-presence scan with a bounded deadline. Errors
// default to false so suppression never eats a notification.
func (e *Engine) alreadyThere(ctx context.Context, userID, channelID string) bool {
	ctx, cancel := e.bound(ctx)
	defer cancel()

	present, err := e.scanner.InChannel(ctx, userID, channelID)
	if err != nil {
		e.log.Debug("presence scan failed, treating as not present", "user", userID, "error", err)
		return false
	}
	return present
}

// deliver sends one DM with a bounded deadline.
func (e *Engine) deliver(ctx context.Context, userID, text string) error {
	ctx, cancel := e.bound(ctx)
	defer cancel()
	return e.messenger.DirectMessage(ctx, userID, text)
}

// bound applies the per-lookup timeout, when configured.
func (e *Engine) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.lookupTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.lookupTimeout)
}
