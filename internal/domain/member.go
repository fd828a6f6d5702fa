package domain

import (
	"context"
	"time"
)

// RestrictionStatus is a member's current standing, always derived by
// replaying that member's audit-log events in sequence order. It is never
// stored as an independent field, so it cannot diverge from the log.
type RestrictionStatus string

const (
	StatusClear          RestrictionStatus = "clear"
	StatusChatRestricted RestrictionStatus = "chat_restricted"
	StatusExcluded       RestrictionStatus = "excluded"
)

// Apply returns the status after the given event kind. Exclusion is
// monotone: once excluded, no kind moves the member back. Temporary
// removal, concern reports, and evasion flags carry no standing effect.
func (s RestrictionStatus) Apply(kind EventKind) RestrictionStatus {
	if s == StatusExcluded {
		return StatusExcluded
	}

	switch kind {
	case EventChatRestrictionApplied:
		return StatusChatRestricted
	case EventChatRestrictionLifted:
		return StatusClear
	case EventPermanentExclusion:
		return StatusExcluded
	default:
		return s
	}
}

// DeriveStatus folds an ordered event sequence into the member's current
// status. The fold is deterministic and idempotent: replaying the same
// sequence always yields the same result.
func DeriveStatus(events []*ModerationEvent) RestrictionStatus {
	status := StatusClear
	for _, e := range events {
		status = status.Apply(e.Kind)
	}
	return status
}

// NameRecord is one observed display name with the time it was first seen.
type NameRecord struct {
	Name        string    `json:"name"`
	FirstSeenAt time.Time `json:"first_seen_at"`
}

// MemberIdentity is the persistent record for a stable external member
// identifier. Created on first entry, mutated by entry events (appending
// display names) and never deleted. Records are retained after permanent
// exclusion to support future evasion correlation.
type MemberIdentity struct {
	ExternalID   string       `json:"external_id"`
	DisplayNames []NameRecord `json:"display_names"` // ordered by first-seen time
	FirstSeenAt  time.Time    `json:"first_seen_at"`
	LastSeenAt   time.Time    `json:"last_seen_at"`
}

// LatestName returns the most recently observed display name, or "" for a
// record with no observed names.
func (m *MemberIdentity) LatestName() string {
	if len(m.DisplayNames) == 0 {
		return ""
	}
	return m.DisplayNames[len(m.DisplayNames)-1].Name
}

// MemberRepository is the identity store.
type MemberRepository interface {
	// UpsertOnEntry creates the identity on first contact or, for a known
	// identity, appends the display name if it changed and advances the
	// most-recent-entry timestamp. Returns the post-update identity.
	UpsertOnEntry(ctx context.Context, externalID, displayName string, seenAt time.Time) (*MemberIdentity, error)

	// Get returns the identity for an external ID, or ErrNotFound.
	Get(ctx context.Context, externalID string) (*MemberIdentity, error)

	// CountFirstSeenSince counts identities first seen after the cutoff.
	CountFirstSeenSince(ctx context.Context, since time.Time) (int64, error)
}
