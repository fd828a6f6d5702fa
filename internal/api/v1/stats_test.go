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

func TestGetStatsOverview(t *testing.T) {
	t.Parallel()

	var gotWindow time.Duration
	agg := &mockAggregator{
		overviewFn: func(_ context.Context, window time.Duration) (*aggregate.Overview, error) {
			gotWindow = window
			return &aggregate.Overview{
				Statuses:       domain.StatusCounts{ChatRestricted: 3, Excluded: 7},
				EventsInWindow: 12,
				EventsByKind: map[domain.EventKind]int64{
					domain.EventConcernReported: 5,
				},
				NewMembers:  4,
				Window:      window,
				WindowHours: int(window / time.Hour),
			}, nil
		},
	}

	_, api := humatest.New(t)
	v1.RegisterStatsRoutes(api, agg)

	t.Run("default window", func(t *testing.T) {
		resp := api.Get("/stats")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, 24*time.Hour, gotWindow)

		var overview aggregate.Overview
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &overview))
		assert.Equal(t, int64(3), overview.Statuses.ChatRestricted)
		assert.Equal(t, int64(7), overview.Statuses.Excluded)
		assert.Equal(t, int64(12), overview.EventsInWindow)
		assert.Equal(t, 24, overview.WindowHours)
	})

	t.Run("custom window", func(t *testing.T) {
		resp := api.Get("/stats?window_hours=72")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, 72*time.Hour, gotWindow)
	})

	t.Run("window above cap rejected by schema", func(t *testing.T) {
		resp := api.Get("/stats?window_hours=10000")
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}
