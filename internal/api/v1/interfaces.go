package v1

import (
	"context"
	"time"

	"github.com/wardenhq/warden/internal/aggregate"
	"github.com/wardenhq/warden/internal/auth"
	"github.com/wardenhq/warden/internal/domain"
)

// AuthService abstracts operator authentication for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Login(ctx context.Context, name, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// Aggregator abstracts the read-side queries for handler testing.
// *aggregate.Service satisfies this interface.
type Aggregator interface {
	MemberSnapshot(ctx context.Context, externalID string) (*aggregate.Snapshot, error)
	RecentActivity(ctx context.Context, limit int) ([]*domain.ModerationEvent, error)
	CountsOverview(ctx context.Context, window time.Duration) (*aggregate.Overview, error)
}

// AtmosphereClient abstracts the text generation backend for handler testing.
// *atmosphere.Client satisfies this interface.
type AtmosphereClient interface {
	Generate(ctx context.Context, topic string) (string, error)
}
