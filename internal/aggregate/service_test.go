package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/domain"
	"github.com/wardenhq/warden/internal/store/memory"
)

type fixture struct {
	store *memory.Store
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	return &fixture{
		store: store,
		svc:   NewService(store.Members(), store.Events()),
	}
}

func (f *fixture) addMember(t *testing.T, id, name string, seenAt time.Time) {
	t.Helper()
	_, err := f.store.Members().UpsertOnEntry(context.Background(), id, name, seenAt)
	require.NoError(t, err)
}

func (f *fixture) addEvent(t *testing.T, kind domain.EventKind, target, actor string, at time.Time) int64 {
	t.Helper()
	seq, err := f.store.Events().Append(context.Background(), &domain.ModerationEvent{
		Kind:      kind,
		TargetID:  target,
		ActorID:   actor,
		CreatedAt: at,
	})
	require.NoError(t, err)
	return seq
}

func TestService_MemberSnapshot(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	f.addMember(t, "1001", "Drifter", now.Add(-time.Hour))
	f.addEvent(t, domain.EventChatRestrictionApplied, "1001", "op-1", now.Add(-30*time.Minute))
	f.addEvent(t, domain.EventChatRestrictionLifted, "1001", "op-1", now.Add(-20*time.Minute))
	f.addEvent(t, domain.EventChatRestrictionApplied, "1001", "op-2", now.Add(-10*time.Minute))

	snap, err := f.svc.MemberSnapshot(ctx, "1001")
	require.NoError(t, err)

	assert.Equal(t, "1001", snap.Identity.ExternalID)
	assert.Equal(t, domain.StatusChatRestricted, snap.Status)
	require.Len(t, snap.History, 3)

	// History is in sequence order and the status equals its fold.
	for i := 1; i < len(snap.History); i++ {
		assert.Greater(t, snap.History[i].Seq, snap.History[i-1].Seq)
	}
	assert.Equal(t, domain.DeriveStatus(snap.History), snap.Status)
}

func TestService_MemberSnapshot_UnknownMember(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.MemberSnapshot(context.Background(), "nobody")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_RecentActivity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	f.addMember(t, "1001", "Drifter", now)
	for range 5 {
		f.addEvent(t, domain.EventConcernReported, "1001", "guest-1", now)
	}

	events, err := f.svc.RecentActivity(ctx, 3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	// Most recent first.
	assert.Equal(t, int64(5), events[0].Seq)
	assert.Equal(t, int64(3), events[2].Seq)
}

func TestService_RecentActivity_LimitBounds(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	f.addMember(t, "1001", "Drifter", now)
	f.addEvent(t, domain.EventConcernReported, "1001", "guest-1", now)

	for _, limit := range []int{0, -7, MaxActivityLimit + 1} {
		events, err := f.svc.RecentActivity(ctx, limit)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	}
}

func TestService_CountsOverview(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Inside the 24h window: one new member, restricted.
	f.addMember(t, "1001", "Drifter", now.Add(-time.Hour))
	f.addEvent(t, domain.EventChatRestrictionApplied, "1001", "op-1", now.Add(-time.Hour))

	// Excluded long ago; the exclusion still counts toward statuses but
	// not toward the windowed event count.
	f.addMember(t, "2001", "GrimReaper", now.Add(-72*time.Hour))
	f.addEvent(t, domain.EventPermanentExclusion, "2001", "op-1", now.Add(-72*time.Hour))

	f.addEvent(t, domain.EventConcernReported, "1001", "guest-1", now.Add(-30*time.Minute))

	o, err := f.svc.CountsOverview(ctx, 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, int64(1), o.Statuses.ChatRestricted)
	assert.Equal(t, int64(1), o.Statuses.Excluded)
	assert.Equal(t, int64(2), o.EventsInWindow)
	assert.Equal(t, int64(1), o.EventsByKind[domain.EventChatRestrictionApplied])
	assert.Equal(t, int64(1), o.EventsByKind[domain.EventConcernReported])
	assert.Zero(t, o.EventsByKind[domain.EventPermanentExclusion])
	assert.Equal(t, int64(1), o.NewMembers)
	assert.Equal(t, 24, o.WindowHours)
}

func TestService_CountsOverview_DefaultWindow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	o, err := f.svc.CountsOverview(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 24, o.WindowHours)
}
