package discord

import (
	"context"
	"fmt"

	"github.com/wardenhq/warden/internal/messenger"
)

// DiscordAPI abstracts the subset of the Discord client used by
// DiscordMessenger. This allows testing without real HTTP calls.
type DiscordAPI interface {
	ChannelMessageSend(channelID, content string) (messageID string, err error)
	UserChannelCreate(userID string) (channelID string, err error)
}

// DiscordMessenger implements messenger.Messenger for Discord.
type DiscordMessenger struct {
	api DiscordAPI
}

// Compile-time interface check.
var _ messenger.Messenger = (*DiscordMessenger)(nil) //nolint:gochecknoglobals // compile-time check

// NewDiscordMessenger creates a DiscordMessenger with the given API client.
func NewDiscordMessenger(api DiscordAPI) *DiscordMessenger {
	return &DiscordMessenger{api: api}
}

// SendMessage posts a text message to a Discord channel and returns the message ID.
func (m *DiscordMessenger) SendMessage(_ context.Context, channelID, text string) (messenger.MessageID, error) {
	msgID, err := m.api.ChannelMessageSend(channelID, text)
	if err != nil {
		return "", fmt.Errorf("discord.DiscordMessenger.SendMessage: %w", err)
	}

	return messenger.MessageID(msgID), nil
}

// SendNotification sends a direct message to a Discord user.
// It first opens a DM channel, then sends the message.
func (m *DiscordMessenger) SendNotification(_ context.Context, userExternalID, text string) error {
	dmChannelID, err := m.api.UserChannelCreate(userExternalID)
	if err != nil {
		return fmt.Errorf("discord.DiscordMessenger.SendNotification: %w", err)
	}

	_, err = m.api.ChannelMessageSend(dmChannelID, text)
	if err != nil {
		return fmt.Errorf("discord.DiscordMessenger.SendNotification: %w", err)
	}

	return nil
}

// Platform returns the messenger platform identifier.
func (m *DiscordMessenger) Platform() string {
	return "discord"
}
