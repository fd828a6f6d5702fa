package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/wardenhq/warden/internal/aggregate"
)

type GetStatsInput struct {
	WindowHours int `query:"window_hours" default:"24" minimum:"1" maximum:"720" doc:"Size of the counting window in hours"`
}

type GetStatsOutput struct {
	Body *aggregate.Overview
}

func RegisterStatsRoutes(api huma.API, agg Aggregator) {
	huma.Register(api, huma.Operation{
		OperationID: "get-stats-overview",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Get status counts and windowed event totals",
		Tags:        []string{"Stats"},
	}, func(ctx context.Context, input *GetStatsInput) (*GetStatsOutput, error) {
		overview, err := agg.CountsOverview(ctx, time.Duration(input.WindowHours)*time.Hour)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to compute stats overview", err)
		}

		return &GetStatsOutput{Body: overview}, nil
	})
}
