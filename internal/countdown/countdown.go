// Package countdown implements the daily countdown announcer.
//
// Once per day, at a configured hour UTC, the announcer posts the number of
// days remaining until a target date to one channel. Each run deletes the
// previous countdown message first and refuses to post twice in one day, so
// the channel always carries at most one current countdown. Every failure in
// a run is logged and non-fatal; the next scheduled run simply tries again.
package countdown

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ///////////////////////////////////////////////
// Channel Interface
// ///////////////////////////////////////////////

// Message is the announcer's view of a posted channel message.
type Message struct {
	ID        string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// Channel abstracts the announcement channel. Recent returns messages newest
// first, at most limit of them.
type Channel interface {
	Recent(ctx context.Context, limit int) ([]Message, error)
	Send(ctx context.Context, content string) error
	Delete(ctx context.Context, messageID string) error
}

// ///////////////////////////////////////////////
// Announcer
// ///////////////////////////////////////////////

// Fetch limits for the duplicate-post guard and the cleanup scan. The guard
// only needs today's messages; cleanup looks further back in case the bot
// was down for a few days.
const (
	guardFetchLimit   = 10
	cleanupFetchLimit = 50
)

// Announcer posts the daily countdown message.
type Announcer struct {
	ch Channel
	// selfID is the bot's own user ID, used to recognize its messages.
	selfID string
	// target is the date counted down to, at UTC midnight.
	target time.Time
	// dateLabel is the target date as shown in messages ("May 26, 2026").
	dateLabel string

	// mu guards style, which the config watcher can change at runtime.
	mu    sync.Mutex
	style string

	// now is the clock, replaceable in tests.
	now func() time.Time
	log *slog.Logger
}

// New creates an Announcer for the given channel and target date.
func New(ch Channel, selfID string, target time.Time, style string, log *slog.Logger) *Announcer {
	if log == nil {
		log = slog.Default()
	}
	return &Announcer{
		ch:        ch,
		selfID:    selfID,
		target:    target,
		dateLabel: target.Format("January 2, 2006"),
		style:     style,
		now:       time.Now,
		log:       log,
	}
}

// SetStyle changes the renderer style for subsequent runs.
func (a *Announcer) SetStyle(style string) {
	a.mu.Lock()
	a.style = style
	a.mu.Unlock()
}

// Start schedules a daily run at the given hour UTC and fires one immediate
// run so the countdown is current when the bot starts. The returned cron
// scheduler should be stopped on shutdown.
func (a *Announcer) Start(ctx context.Context, hourUTC int) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	spec := fmt.Sprintf("0 %d * * *", hourUTC)
	if _, err := c.AddFunc(spec, func() { a.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("schedule countdown: %w", err)
	}

	a.Run(ctx)
	c.Start()
	a.log.Info("daily countdown scheduled", "hour_utc", hourUTC)
	return c, nil
}

// Run executes one countdown post: duplicate guard, previous-message
// cleanup, then the post itself.
func (a *Announcer) Run(ctx context.Context) {
	posted, err := a.postedToday(ctx)
	if err != nil {
		// Assume nothing was posted and carry on. The worst case is a
		// duplicate message; the alternative is a silent daily gap whenever
		// the history fetch hiccups.
		a.log.Warn("countdown duplicate check failed, posting anyway", "error", err)
	}
	if posted {
		a.log.Debug("countdown already posted today, skipping")
		return
	}

	a.deletePrevious(ctx)

	days := DaysRemaining(a.now(), a.target)
	content := a.compose(days)
	if err := a.ch.Send(ctx, content); err != nil {
		a.log.Error("failed to send countdown message", "error", err)
		return
	}
	a.log.Info("countdown posted", "days", days)
}

// postedToday reports whether a countdown message from this bot already
// exists today (UTC midnight cutoff), checking the channel's most recent
// messages.
func (a *Announcer) postedToday(ctx context.Context) (bool, error) {
	msgs, err := a.ch.Recent(ctx, guardFetchLimit)
	if err != nil {
		return false, fmt.Errorf("fetch recent messages: %w", err)
	}

	midnight := a.now().UTC().Truncate(24 * time.Hour)
	for _, m := range msgs {
		if m.AuthorID == a.selfID && isCountdown(m.Content) && !m.CreatedAt.Before(midnight) {
			return true, nil
		}
	}
	return false, nil
}

// deletePrevious finds the bot's most recent countdown message and deletes
// it. Both the scan and the delete are best effort; the run continues
// regardless.
func (a *Announcer) deletePrevious(ctx context.Context) {
	msgs, err := a.ch.Recent(ctx, cleanupFetchLimit)
	if err != nil {
		a.log.Warn("could not scan for previous countdown message", "error", err)
		return
	}

	for _, m := range msgs {
		if m.AuthorID != a.selfID || !isCountdown(m.Content) {
			continue
		}
		if err := a.ch.Delete(ctx, m.ID); err != nil {
			a.log.Warn("could not delete previous countdown message", "id", m.ID, "error", err)
		} else {
			a.log.Debug("previous countdown message deleted", "id", m.ID)
		}
		return
	}
}

// compose builds the full message content for a day count: mood line plus
// rendered glyph art for non-plain styles.
func (a *Announcer) compose(days int) string {
	a.mu.Lock()
	style := a.style
	a.mu.Unlock()

	var mood string
	switch {
	case days > 0:
		mood = fmt.Sprintf("🗓️ **Countdown Update**: %s left until %s!", pluralDays(days), a.dateLabel)
	case days == 0:
		mood = fmt.Sprintf("🎉 **Today is the day!** %s has arrived!", a.dateLabel)
	default:
		mood = fmt.Sprintf("📆 %s was %s ago.", a.dateLabel, pluralDays(-days))
	}

	art := Render(abs(days), style)
	if art == "" {
		return mood
	}
	return mood + "\n" + art
}

// ///////////////////////////////////////////////
// Day Math
// ///////////////////////////////////////////////

// DaysRemaining returns the number of days from now until target, rounded
// up. Positive means the date is ahead, zero means today, negative means it
// has passed.
func DaysRemaining(now, target time.Time) int {
	diff := target.Sub(now)
	return int(math.Ceil(diff.Hours() / 24))
}

// isCountdown recognizes the bot's own countdown messages by their marker
// phrases, matching all three moods.
func isCountdown(content string) bool {
	return strings.Contains(content, "Countdown Update") ||
		strings.Contains(content, "Today is the day") ||
		(strings.Contains(content, "was") && strings.Contains(content, "day"))
}

// pluralDays formats a positive day count with the right plural.
func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
