// Package evasion correlates community entries against previously
// excluded identities and raises advisory flags. It never restricts
// anyone on its own: strong evidence becomes an audit-log entry plus a
// staff alert, weak evidence becomes an alert only, and the decision to
// act always stays with a human operator.
package evasion

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wardenhq/warden/internal/alert"
	"github.com/wardenhq/warden/internal/domain"
	"github.com/wardenhq/warden/internal/platform"
)

// Flagger records a system-generated evasion flag in the audit log.
// *moderation.Service satisfies it.
type Flagger interface {
	RecordEvasionFlag(ctx context.Context, target, evidence string) error
}

// Detector processes entry events: it registers the identity, then
// screens it against every identity with a permanent exclusion on
// record.
type Detector struct {
	members domain.MemberRepository
	events  domain.EventRepository
	policy  MatchPolicy
	flagger Flagger
	alerts  alert.Sink
}

func NewDetector(members domain.MemberRepository, events domain.EventRepository, flagger Flagger, alerts alert.Sink, opts ...DetectorOption) *Detector {
	d := &Detector{
		members: members,
		events:  events,
		policy:  NewNamePolicy(),
		flagger: flagger,
		alerts:  alerts,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type DetectorOption func(*Detector)

// WithPolicy replaces the default name-matching policy.
func WithPolicy(p MatchPolicy) DetectorOption {
	return func(d *Detector) { d.policy = p }
}

// OnEntry handles one community entry. The identity upsert must
// succeed; screening failures after that point are logged and swallowed
// so a flaky audit-log read never blocks someone joining.
func (d *Detector) OnEntry(ctx context.Context, e platform.EntryEvent) (*domain.MemberIdentity, error) {
	seenAt := e.Timestamp
	if seenAt.IsZero() {
		seenAt = time.Now().UTC()
	}

	m, err := d.members.UpsertOnEntry(ctx, e.ExternalID, e.DisplayName, seenAt)
	if err != nil {
		return nil, fmt.Errorf("evasion.Detector.OnEntry: %w", err)
	}

	if err := d.screen(ctx, m); err != nil {
		log.Warn().Err(err).Str("member", m.ExternalID).Msg("evasion screening failed")
	}

	return m, nil
}

// screen compares the candidate against all excluded identities and
// acts on the strongest evidence found.
func (d *Detector) screen(ctx context.Context, candidate *domain.MemberIdentity) error {
	excludedIDs, err := d.events.TargetsWithKind(ctx, domain.EventPermanentExclusion)
	if err != nil {
		return fmt.Errorf("evasion.Detector.screen: %w", err)
	}

	best := EvidenceNone
	detail := ""

	for _, id := range excludedIDs {
		prior, err := d.members.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("evasion.Detector.screen: %w", err)
		}

		ev, desc := d.policy.Assess(candidate, prior)
		if ev > best {
			best, detail = ev, desc
		}
		if best == EvidenceStrong {
			break
		}
	}

	switch best {
	case EvidenceStrong:
		if err := d.flagger.RecordEvasionFlag(ctx, candidate.ExternalID, detail); err != nil {
			return fmt.Errorf("evasion.Detector.screen: %w", err)
		}
		d.notify(ctx, candidate.ExternalID, "likely returning excluded member: "+detail)
	case EvidenceWeak:
		d.notify(ctx, candidate.ExternalID, "low confidence: "+detail)
	case EvidenceNone:
	}

	return nil
}

// notify posts an evasion alert. Best effort: the entry has already been
// recorded either way.
func (d *Detector) notify(ctx context.Context, target, detail string) {
	a := alert.Alert{
		Kind:      domain.EventEvasionFlagged,
		TargetID:  target,
		Reason:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.alerts.Deliver(ctx, a); err != nil {
		log.Warn().Err(err).Str("member", target).Msg("evasion alert delivery failed")
	}
}
