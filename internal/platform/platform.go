// Package platform defines the boundary to the chat platform: the action
// API the moderation pipeline invokes, and the entry events the gateway
// delivers. The gateway connection itself lives outside this service.
package platform

import (
	"context"
	"time"
)

// EntryEvent is delivered by the platform gateway when a member joins.
type EntryEvent struct {
	ExternalID  string
	DisplayName string
	Timestamp   time.Time
}

// Actions is the platform's side-effect API. Every call returns an error on
// failure; the caller treats failure or timeout as ActionFailed and records
// no audit event for the attempted action.
type Actions interface {
	// RemoveMember ejects the member from the community (point-in-time,
	// no standing effect).
	RemoveMember(ctx context.Context, externalID, reason string) error

	// AssignRestrictionRole places the member under the chat restriction.
	AssignRestrictionRole(ctx context.Context, externalID, reason string) error

	// ClearRestrictionRole lifts the chat restriction.
	ClearRestrictionRole(ctx context.Context, externalID string) error

	// ExcludeMember permanently excludes the member.
	ExcludeMember(ctx context.Context, externalID, reason string) error
}
