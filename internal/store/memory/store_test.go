package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/domain"
	"github.com/wardenhq/warden/internal/store/memory"
)

func TestMemberRepo_UpsertOnEntry(t *testing.T) {
	t.Parallel()

	repo := memory.NewMemberRepo()
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	m, err := repo.UpsertOnEntry(ctx, "1001", "alice", t0)
	require.NoError(t, err)
	assert.Equal(t, t0, m.FirstSeenAt)
	require.Len(t, m.DisplayNames, 1)

	// Re-entry under the same name appends nothing.
	m, err = repo.UpsertOnEntry(ctx, "1001", "alice", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, m.DisplayNames, 1)
	assert.Equal(t, t0, m.FirstSeenAt)
	assert.Equal(t, t0.Add(time.Hour), m.LastSeenAt)

	// A new name is appended, prior names retained.
	m, err = repo.UpsertOnEntry(ctx, "1001", "alyce", t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, m.DisplayNames, 2)
	assert.Equal(t, "alyce", m.LatestName())

	_, err = repo.Get(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEventRepo_AppendAssignsIncreasingSeq(t *testing.T) {
	t.Parallel()

	repo := memory.NewEventRepo()
	ctx := context.Background()

	var last int64
	for range 5 {
		seq, err := repo.Append(ctx, &domain.ModerationEvent{
			Kind:      domain.EventConcernReported,
			TargetID:  "1001",
			CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
		assert.Greater(t, seq, last)
		last = seq
	}

	events, err := repo.ListByTarget(ctx, "1001")
	require.NoError(t, err)
	require.Len(t, events, 5)
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Seq, events[i-1].Seq)
	}
}

func TestEventRepo_ListRecentNewestFirst(t *testing.T) {
	t.Parallel()

	repo := memory.NewEventRepo()
	ctx := context.Background()

	for _, target := range []string{"a", "b", "c", "d"} {
		_, err := repo.Append(ctx, &domain.ModerationEvent{
			Kind:      domain.EventTemporaryRemoval,
			TargetID:  target,
			CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	recent, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "d", recent[0].TargetID)
	assert.Equal(t, "c", recent[1].TargetID)

	// A limit beyond the log size returns everything.
	all, err := repo.ListRecent(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestEventRepo_CountStatuses(t *testing.T) {
	t.Parallel()

	repo := memory.NewEventRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	append := func(kind domain.EventKind, target string) {
		t.Helper()
		_, err := repo.Append(ctx, &domain.ModerationEvent{Kind: kind, TargetID: target, CreatedAt: now})
		require.NoError(t, err)
	}

	// a: restricted. b: restricted then lifted. c: restricted then excluded.
	append(domain.EventChatRestrictionApplied, "a")
	append(domain.EventChatRestrictionApplied, "b")
	append(domain.EventChatRestrictionLifted, "b")
	append(domain.EventChatRestrictionApplied, "c")
	append(domain.EventPermanentExclusion, "c")

	counts, err := repo.CountStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.ChatRestricted)
	assert.Equal(t, int64(1), counts.Excluded)
}
