package domain

import (
	"context"
	"time"
)

// EventKind identifies the type of a moderation event.
type EventKind string

const (
	EventTemporaryRemoval       EventKind = "temporary_removal"
	EventChatRestrictionApplied EventKind = "chat_restriction_applied"
	EventChatRestrictionLifted  EventKind = "chat_restriction_lifted"
	EventPermanentExclusion     EventKind = "permanent_exclusion"
	EventConcernReported        EventKind = "concern_reported"
	EventEvasionFlagged         EventKind = "evasion_flagged"
)

// MaxReasonLen bounds the free-text reason attached to an event.
const MaxReasonLen = 512

// ModerationEvent is a single entry in the append-only audit log.
// Once appended it is never updated or deleted; corrections are modeled
// as new events (lifting a restriction is its own event, not an edit).
type ModerationEvent struct {
	// Seq is assigned by the audit log at append time and defines the
	// total order of events. Strictly increasing, never reused, even
	// across process restarts.
	Seq       int64     `json:"seq"`
	Kind      EventKind `json:"kind"`
	TargetID  string    `json:"target_id"`
	ActorID   string    `json:"actor_id,omitempty"` // empty for system-generated events
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// System reports whether the event was generated without a human actor.
func (e *ModerationEvent) System() bool {
	return e.ActorID == ""
}

// StatusCounts holds the number of members currently in each
// non-clear derived status.
type StatusCounts struct {
	ChatRestricted int64 `json:"chat_restricted"`
	Excluded       int64 `json:"excluded"`
}

// EventRepository is the append-only audit log. Append must not return
// success unless the event is durably recorded; the returned sequence
// number doubles as the durability acknowledgment.
type EventRepository interface {
	Append(ctx context.Context, e *ModerationEvent) (int64, error)
	ListByTarget(ctx context.Context, targetID string) ([]*ModerationEvent, error)
	ListRecent(ctx context.Context, limit int) ([]*ModerationEvent, error)
	TargetsWithKind(ctx context.Context, kind EventKind) ([]string, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByKindSince(ctx context.Context, since time.Time) (map[EventKind]int64, error)
	CountStatuses(ctx context.Context) (StatusCounts, error)
}
