package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/aggregate"
	v1 "github.com/wardenhq/warden/internal/api/v1"
	"github.com/wardenhq/warden/internal/domain"
)

func TestGetMemberSnapshot(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	agg := &mockAggregator{
		snapshotFn: func(_ context.Context, externalID string) (*aggregate.Snapshot, error) {
			if externalID != "1001" {
				return nil, domain.ErrNotFound
			}
			history := []*domain.ModerationEvent{
				{Seq: 1, Kind: domain.EventChatRestrictionApplied, TargetID: "1001", ActorID: "mod", CreatedAt: now},
			}
			return &aggregate.Snapshot{
				Identity: &domain.MemberIdentity{
					ExternalID:   "1001",
					DisplayNames: []domain.NameRecord{{Name: "grim", FirstSeenAt: now}},
					FirstSeenAt:  now,
					LastSeenAt:   now,
				},
				Status:  domain.DeriveStatus(history),
				History: history,
			}, nil
		},
	}

	_, api := humatest.New(t)
	v1.RegisterMemberRoutes(api, agg)

	t.Run("known member", func(t *testing.T) {
		resp := api.Get("/members/1001/snapshot")
		require.Equal(t, http.StatusOK, resp.Code)

		var snap aggregate.Snapshot
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &snap))
		require.NotNil(t, snap.Identity)
		assert.Equal(t, "1001", snap.Identity.ExternalID)
		assert.Equal(t, domain.StatusChatRestricted, snap.Status)
		require.Len(t, snap.History, 1)
		assert.Equal(t, domain.EventChatRestrictionApplied, snap.History[0].Kind)
	})

	t.Run("unknown member", func(t *testing.T) {
		resp := api.Get("/members/9999/snapshot")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
