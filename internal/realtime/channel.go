// Package realtime provides the channel fabric for live portal updates:
// channel naming, a WebSocket hub with per-channel authorization, and a
// Redis bridge that relays events between instances.
package realtime

import (
	"strings"

	"github.com/google/uuid"
)

// Channel name prefixes. Private channels require a caller-specific grant;
// presence channels additionally carry subscriber metadata.
const (
	privatePrefix  = "private-"
	presencePrefix = "presence-"
)

// ConversationChannel returns the private channel all participants of a
// conversation subscribe to for live message updates.
func ConversationChannel(conversationID uuid.UUID) string {
	return privatePrefix + "conversation-" + conversationID.String()
}

// UserChannel returns a user's personal channel. Only the user themselves may
// subscribe; it carries notifications for conversations they are not
// currently viewing and delivery/read receipts for messages they sent.
func UserChannel(userID uuid.UUID) string {
	return privatePrefix + "user-" + userID.String()
}

// PresenceChannel returns the presence channel of a conversation, used for
// online indicators.
func PresenceChannel(conversationID uuid.UUID) string {
	return presencePrefix + "conversation-" + conversationID.String()
}

// IsPrivate reports whether name belongs to the private channel class.
func IsPrivate(name string) bool {
	return strings.HasPrefix(name, privatePrefix)
}

// IsPresence reports whether name belongs to the presence channel class.
func IsPresence(name string) bool {
	return strings.HasPrefix(name, presencePrefix)
}

// ParseUserChannel extracts the owning user id from a private user channel
// name. The second return value is false when name is not a user channel.
func ParseUserChannel(name string) (uuid.UUID, bool) {
	raw, ok := strings.CutPrefix(name, privatePrefix+"user-")
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ParseConversationChannel extracts the conversation id from a private
// conversation channel name.
func ParseConversationChannel(name string) (uuid.UUID, bool) {
	raw, ok := strings.CutPrefix(name, privatePrefix+"conversation-")
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// ParsePresenceChannel extracts the conversation id from a presence channel
// name.
func ParsePresenceChannel(name string) (uuid.UUID, bool) {
	raw, ok := strings.CutPrefix(name, presencePrefix+"conversation-")
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
