package discord

import (
	"context"
	"fmt"

	"github.com/wardenhq/warden/internal/platform"
)

// DiscordAPI abstracts the subset of the Discord client used by Actions.
// This allows testing without real HTTP calls.
type DiscordAPI interface {
	GuildMemberKick(guildID, userID, reason string) error
	GuildBanCreate(guildID, userID, reason string) error
	GuildMemberRoleAdd(guildID, userID, roleID string) error
	GuildMemberRoleRemove(guildID, userID, roleID string) error
}

// Actions implements platform.Actions for a Discord guild. The chat
// restriction is modeled as a dedicated role, matching the usual
// muted-role setup.
type Actions struct {
	api               DiscordAPI
	guildID           string
	restrictionRoleID string
}

// Compile-time interface check.
var _ platform.Actions = (*Actions)(nil) //nolint:gochecknoglobals // compile-time check

// NewActions creates a Discord Actions adapter for one guild.
func NewActions(api DiscordAPI, guildID, restrictionRoleID string) *Actions {
	return &Actions{
		api:               api,
		guildID:           guildID,
		restrictionRoleID: restrictionRoleID,
	}
}

// RemoveMember kicks the member from the guild.
func (a *Actions) RemoveMember(_ context.Context, externalID, reason string) error {
	if err := a.api.GuildMemberKick(a.guildID, externalID, reason); err != nil {
		return fmt.Errorf("discord.Actions.RemoveMember: %w", err)
	}

	return nil
}

// AssignRestrictionRole grants the restriction role to the member.
func (a *Actions) AssignRestrictionRole(_ context.Context, externalID, _ string) error {
	if err := a.api.GuildMemberRoleAdd(a.guildID, externalID, a.restrictionRoleID); err != nil {
		return fmt.Errorf("discord.Actions.AssignRestrictionRole: %w", err)
	}

	return nil
}

// ClearRestrictionRole removes the restriction role from the member.
func (a *Actions) ClearRestrictionRole(_ context.Context, externalID string) error {
	if err := a.api.GuildMemberRoleRemove(a.guildID, externalID, a.restrictionRoleID); err != nil {
		return fmt.Errorf("discord.Actions.ClearRestrictionRole: %w", err)
	}

	return nil
}

// ExcludeMember bans the member from the guild.
func (a *Actions) ExcludeMember(_ context.Context, externalID, reason string) error {
	if err := a.api.GuildBanCreate(a.guildID, externalID, reason); err != nil {
		return fmt.Errorf("discord.Actions.ExcludeMember: %w", err)
	}

	return nil
}
