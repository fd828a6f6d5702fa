// Package alert delivers staff notifications for moderation events.
// Delivery is best-effort from the pipeline's perspective: the audit record
// is the source of truth, and sink failures never fail the originating
// operation.
package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wardenhq/warden/internal/domain"
	"github.com/wardenhq/warden/internal/messenger"
)

// Alert is the notification payload forwarded to the staff channel.
type Alert struct {
	Kind      domain.EventKind
	TargetID  string
	ActorID   string // empty for system-generated alerts
	Reason    string
	CreatedAt time.Time
}

// Sink receives alerts. Implementations must be safe for concurrent use.
type Sink interface {
	Deliver(ctx context.Context, a Alert) error
}

// headlines maps event kinds to the staff-channel headline.
var headlines = map[domain.EventKind]string{
	domain.EventTemporaryRemoval:       "Temporary removal",
	domain.EventChatRestrictionApplied: "Chat restriction applied",
	domain.EventChatRestrictionLifted:  "Chat restriction lifted",
	domain.EventPermanentExclusion:     "Permanent exclusion",
	domain.EventConcernReported:        "Concern reported",
	domain.EventEvasionFlagged:         "Possible ban evasion",
}

// ChannelNotifier posts alerts to a fixed staff channel through a Messenger.
type ChannelNotifier struct {
	msgr      messenger.Messenger
	channelID string
}

// Compile-time interface check.
var _ Sink = (*ChannelNotifier)(nil) //nolint:gochecknoglobals // compile-time check

// NewChannelNotifier creates a ChannelNotifier for the given channel.
func NewChannelNotifier(msgr messenger.Messenger, channelID string) *ChannelNotifier {
	return &ChannelNotifier{msgr: msgr, channelID: channelID}
}

// Deliver formats the alert and posts it to the staff channel.
func (n *ChannelNotifier) Deliver(ctx context.Context, a Alert) error {
	if _, err := n.msgr.SendMessage(ctx, n.channelID, Format(a)); err != nil {
		return fmt.Errorf("alert.ChannelNotifier.Deliver: %w", err)
	}

	return nil
}

// Format renders an alert as staff-channel text.
func Format(a Alert) string {
	headline, ok := headlines[a.Kind]
	if !ok {
		headline = string(a.Kind)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] member %s", headline, a.TargetID)
	if a.ActorID != "" {
		fmt.Fprintf(&b, " (by %s)", a.ActorID)
	}
	if a.Reason != "" {
		fmt.Fprintf(&b, ", reason: %s", a.Reason)
	}
	fmt.Fprintf(&b, " at %s", a.CreatedAt.UTC().Format(time.RFC3339))

	return b.String()
}

// Multi fans an alert out to several sinks. Each sink failure is logged;
// the first error is returned so callers can observe it, but partial
// delivery does not stop the remaining sinks.
type Multi []Sink

// Compile-time interface check.
var _ Sink = (Multi)(nil) //nolint:gochecknoglobals // compile-time check

func (m Multi) Deliver(ctx context.Context, a Alert) error {
	var first error
	for _, s := range m {
		if err := s.Deliver(ctx, a); err != nil {
			log.Warn().Err(err).Str("kind", string(a.Kind)).Msg("alert sink delivery failed")
			if first == nil {
				first = err
			}
		}
	}

	return first
}
