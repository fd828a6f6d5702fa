package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/wardenhq/warden/internal/domain"
)

type ListActivityInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum number of events to return"`
}

type ListActivityOutput struct {
	Body struct {
		Events []*domain.ModerationEvent `json:"events"`
	}
}

func RegisterActivityRoutes(api huma.API, agg Aggregator) {
	huma.Register(api, huma.Operation{
		OperationID: "list-recent-activity",
		Method:      http.MethodGet,
		Path:        "/activity",
		Summary:     "List the most recent moderation events, newest first",
		Tags:        []string{"Activity"},
	}, func(ctx context.Context, input *ListActivityInput) (*ListActivityOutput, error) {
		events, err := agg.RecentActivity(ctx, input.Limit)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list recent activity", err)
		}

		out := &ListActivityOutput{}
		out.Body.Events = events
		return out, nil
	})
}
