// Package aggregate serves the read side of the moderation pipeline:
// per-member snapshots, the recent activity feed, and dashboard counts.
// Everything here is derived from the identity store and audit log at
// read time. Status is always computed by folding the member's events,
// so a snapshot can never pair an appended event with a stale status.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/wardenhq/warden/internal/domain"
)

const (
	// DefaultActivityLimit applies when a feed request gives no limit.
	DefaultActivityLimit = 50
	// MaxActivityLimit caps a single feed request.
	MaxActivityLimit = 500
)

// Snapshot is the operator view of one member: identity, derived status,
// and the member's complete event history in sequence order.
type Snapshot struct {
	Identity *domain.MemberIdentity    `json:"identity"`
	Status   domain.RestrictionStatus  `json:"status"`
	History  []*domain.ModerationEvent `json:"history"`
}

// Overview is the dashboard's aggregate counts.
type Overview struct {
	Statuses       domain.StatusCounts        `json:"statuses"`
	EventsInWindow int64                      `json:"events_in_window"`
	EventsByKind   map[domain.EventKind]int64 `json:"events_by_kind"`
	NewMembers     int64                      `json:"new_members"`
	Window         time.Duration              `json:"-"`
	WindowHours    int                        `json:"window_hours"`
}

// Service is the read-only aggregation layer.
type Service struct {
	members domain.MemberRepository
	events  domain.EventRepository
}

func NewService(members domain.MemberRepository, events domain.EventRepository) *Service {
	return &Service{members: members, events: events}
}

// MemberSnapshot returns the consistent view of one member. The status is
// folded from the history returned in the same snapshot, so the two can
// never disagree.
func (s *Service) MemberSnapshot(ctx context.Context, externalID string) (*Snapshot, error) {
	m, err := s.members.Get(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("aggregate.Service.MemberSnapshot: %w", err)
	}

	history, err := s.events.ListByTarget(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("aggregate.Service.MemberSnapshot: %w", err)
	}

	return &Snapshot{
		Identity: m,
		Status:   domain.DeriveStatus(history),
		History:  history,
	}, nil
}

// RecentActivity returns the latest events across all members, most
// recent first. A non-positive limit falls back to the default; requests
// above the cap are clamped.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]*domain.ModerationEvent, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}

	events, err := s.events.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("aggregate.Service.RecentActivity: %w", err)
	}

	return events, nil
}

// CountsOverview computes the dashboard numbers for the given trailing
// window. A non-positive window defaults to 24 hours.
func (s *Service) CountsOverview(ctx context.Context, window time.Duration) (*Overview, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	cutoff := time.Now().UTC().Add(-window)

	statuses, err := s.events.CountStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate.Service.CountsOverview: %w", err)
	}

	total, err := s.events.CountSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("aggregate.Service.CountsOverview: %w", err)
	}

	byKind, err := s.events.CountByKindSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("aggregate.Service.CountsOverview: %w", err)
	}

	newMembers, err := s.members.CountFirstSeenSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("aggregate.Service.CountsOverview: %w", err)
	}

	return &Overview{
		Statuses:       statuses,
		EventsInWindow: total,
		EventsByKind:   byKind,
		NewMembers:     newMembers,
		Window:         window,
		WindowHours:    int(window / time.Hour),
	}, nil
}
