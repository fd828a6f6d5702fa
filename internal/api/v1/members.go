package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/wardenhq/warden/internal/aggregate"
	"github.com/wardenhq/warden/internal/domain"
)

type GetMemberSnapshotInput struct {
	ExternalID string `path:"externalID" doc:"Platform member ID"`
}

type GetMemberSnapshotOutput struct {
	Body *aggregate.Snapshot
}

func RegisterMemberRoutes(api huma.API, agg Aggregator) {
	huma.Register(api, huma.Operation{
		OperationID: "get-member-snapshot",
		Method:      http.MethodGet,
		Path:        "/members/{externalID}/snapshot",
		Summary:     "Get a member's identity, derived status, and full history",
		Tags:        []string{"Members"},
	}, func(ctx context.Context, input *GetMemberSnapshotInput) (*GetMemberSnapshotOutput, error) {
		snap, err := agg.MemberSnapshot(ctx, input.ExternalID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("member not found")
			}
			return nil, huma.Error500InternalServerError("failed to load member snapshot", err)
		}

		return &GetMemberSnapshotOutput{Body: snap}, nil
	})
}
