package discord_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/platform/discord"
)

type fakeDiscordAPI struct {
	kicks       []string
	bans        []string
	rolesAdded  []string
	rolesPulled []string
	failWith    error
}

func (f *fakeDiscordAPI) GuildMemberKick(_, userID, _ string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.kicks = append(f.kicks, userID)
	return nil
}

func (f *fakeDiscordAPI) GuildBanCreate(_, userID, _ string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.bans = append(f.bans, userID)
	return nil
}

func (f *fakeDiscordAPI) GuildMemberRoleAdd(_, userID, roleID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.rolesAdded = append(f.rolesAdded, userID+":"+roleID)
	return nil
}

func (f *fakeDiscordAPI) GuildMemberRoleRemove(_, userID, roleID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.rolesPulled = append(f.rolesPulled, userID+":"+roleID)
	return nil
}

func TestActions_HappyPath(t *testing.T) {
	t.Parallel()

	api := &fakeDiscordAPI{}
	actions := discord.NewActions(api, "guild-1", "role-muted")
	ctx := context.Background()

	require.NoError(t, actions.RemoveMember(ctx, "1001", "spam"))
	require.NoError(t, actions.ExcludeMember(ctx, "1002", "abuse"))
	require.NoError(t, actions.AssignRestrictionRole(ctx, "1003", "spam"))
	require.NoError(t, actions.ClearRestrictionRole(ctx, "1003"))

	assert.Equal(t, []string{"1001"}, api.kicks)
	assert.Equal(t, []string{"1002"}, api.bans)
	assert.Equal(t, []string{"1003:role-muted"}, api.rolesAdded)
	assert.Equal(t, []string{"1003:role-muted"}, api.rolesPulled)
}

func TestActions_PropagatesAPIError(t *testing.T) {
	t.Parallel()

	apiErr := errors.New("missing permissions")
	api := &fakeDiscordAPI{failWith: apiErr}
	actions := discord.NewActions(api, "guild-1", "role-muted")
	ctx := context.Background()

	assert.ErrorIs(t, actions.RemoveMember(ctx, "1001", "spam"), apiErr)
	assert.ErrorIs(t, actions.ExcludeMember(ctx, "1001", "spam"), apiErr)
	assert.ErrorIs(t, actions.AssignRestrictionRole(ctx, "1001", "spam"), apiErr)
	assert.ErrorIs(t, actions.ClearRestrictionRole(ctx, "1001"), apiErr)
}
