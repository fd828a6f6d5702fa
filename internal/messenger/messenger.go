package messenger

import "context"

// MessageID uniquely identifies a message within a messenger platform.
type MessageID string

// Messenger abstracts posting to a chat platform (Discord, Slack, etc.).
// Implementations handle platform-specific API calls; the interface is
// platform-agnostic.
type Messenger interface {
	// SendMessage posts a text message to a channel and returns its
	// platform message ID.
	SendMessage(ctx context.Context, channelID, text string) (MessageID, error)

	// SendNotification sends a direct/ephemeral notification to a user by
	// their external platform ID.
	SendNotification(ctx context.Context, userExternalID, text string) error

	// Platform returns the messenger platform identifier (e.g. "discord").
	Platform() string
}
