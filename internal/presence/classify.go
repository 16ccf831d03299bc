// Package presence classifies voice-state transitions into notification events.
//
// The gateway delivers a pair of snapshots per transition: the user's voice
// state before and after the change. Only arrivals are notification-worthy;
// departures are logged and dropped.
package presence

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Snapshot is one side of a voice-state transition: the channel a user
// occupied at that instant, or empty when they were in none.
type Snapshot struct {
	// ChannelID is the occupied voice channel, or "" when not in voice.
	ChannelID string
}

// Kind is the classified transition type.
type Kind int

const (
	// NoOp is a transition that changes nothing notification-relevant
	// (mute, deafen, stream toggles, or no prior state at all).
	NoOp Kind = iota
	// Join is an arrival into a channel from no channel.
	Join
	// Move is an arrival into a different channel. For notification
	// purposes it is a Join into the destination; the origin channel
	// produces nothing.
	Move
	// Leave is a departure to no channel. Logged only, never notified.
	Leave
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Join:
		return "join"
	case Move:
		return "move"
	case Leave:
		return "leave"
	default:
		return "noop"
	}
}

// Notifiable reports whether this kind triggers follower notification.
func (k Kind) Notifiable() bool {
	return k == Join || k == Move
}

// Event is a classified transition. ChannelID is the destination channel for
// Join/Move and the departed channel for Leave.
type Event struct {
	Kind      Kind
	ChannelID string
}

// ///////////////////////////////////////////////
// Classification
// ///////////////////////////////////////////////

// Classify maps a (previous, current) snapshot pair to an Event.
func Classify(prev, cur Snapshot) Event {
	switch {
	case prev.ChannelID == "" && cur.ChannelID != "":
		return Event{Kind: Join, ChannelID: cur.ChannelID}
	case prev.ChannelID != "" && cur.ChannelID != "" && prev.ChannelID != cur.ChannelID:
		return Event{Kind: Move, ChannelID: cur.ChannelID}
	case prev.ChannelID != "" && cur.ChannelID == "":
		return Event{Kind: Leave, ChannelID: prev.ChannelID}
	default:
		return Event{Kind: NoOp}
	}
}
