package v1_test

import (
	"context"
	"time"

	"github.com/wardenhq/warden/internal/aggregate"
	"github.com/wardenhq/warden/internal/auth"
	"github.com/wardenhq/warden/internal/domain"
)

// Mocks with overridable function fields keep the handler tests free of
// storage and service wiring.

type mockAuthService struct {
	loginFn   func(ctx context.Context, name, password string) (*auth.TokenPair, error)
	refreshFn func(ctx context.Context, refreshToken string) (string, error)
}

func (m *mockAuthService) Login(ctx context.Context, name, password string) (*auth.TokenPair, error) {
	return m.loginFn(ctx, name, password)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return m.refreshFn(ctx, refreshToken)
}

type mockAggregator struct {
	snapshotFn func(ctx context.Context, externalID string) (*aggregate.Snapshot, error)
	activityFn func(ctx context.Context, limit int) ([]*domain.ModerationEvent, error)
	overviewFn func(ctx context.Context, window time.Duration) (*aggregate.Overview, error)
}

func (m *mockAggregator) MemberSnapshot(ctx context.Context, externalID string) (*aggregate.Snapshot, error) {
	return m.snapshotFn(ctx, externalID)
}

func (m *mockAggregator) RecentActivity(ctx context.Context, limit int) ([]*domain.ModerationEvent, error) {
	return m.activityFn(ctx, limit)
}

func (m *mockAggregator) CountsOverview(ctx context.Context, window time.Duration) (*aggregate.Overview, error) {
	return m.overviewFn(ctx, window)
}

type mockAtmosphere struct {
	generateFn func(ctx context.Context, topic string) (string, error)
}

func (m *mockAtmosphere) Generate(ctx context.Context, topic string) (string, error) {
	return m.generateFn(ctx, topic)
}
