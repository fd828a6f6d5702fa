package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/wardenhq/warden/internal/api/v1"
	"github.com/wardenhq/warden/internal/domain"
)

func TestListRecentActivity(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var gotLimit int
	agg := &mockAggregator{
		activityFn: func(_ context.Context, limit int) ([]*domain.ModerationEvent, error) {
			gotLimit = limit
			return []*domain.ModerationEvent{
				{Seq: 2, Kind: domain.EventConcernReported, TargetID: "1002", ActorID: "1003", Reason: "spam", CreatedAt: now},
				{Seq: 1, Kind: domain.EventTemporaryRemoval, TargetID: "1001", ActorID: "mod", CreatedAt: now.Add(-time.Minute)},
			}, nil
		},
	}

	_, api := humatest.New(t)
	v1.RegisterActivityRoutes(api, agg)

	t.Run("default limit", func(t *testing.T) {
		resp := api.Get("/activity")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, 50, gotLimit)

		var body struct {
			Events []*domain.ModerationEvent `json:"events"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Len(t, body.Events, 2)
		assert.Equal(t, int64(2), body.Events[0].Seq)
	})

	t.Run("explicit limit", func(t *testing.T) {
		resp := api.Get("/activity?limit=10")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, 10, gotLimit)
	})

	t.Run("limit above cap rejected by schema", func(t *testing.T) {
		resp := api.Get("/activity?limit=1000")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

func TestListRecentActivity_StorageError(t *testing.T) {
	t.Parallel()

	agg := &mockAggregator{
		activityFn: func(_ context.Context, _ int) ([]*domain.ModerationEvent, error) {
			return nil, errors.New("connection refused")
		},
	}

	_, api := humatest.New(t)
	v1.RegisterActivityRoutes(api, agg)

	resp := api.Get("/activity")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
