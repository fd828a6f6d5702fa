// Package moderation implements the state machine that applies
// administrative actions to members. Every mutating operation is
// serialized per target member: the section is held from status
// validation through the append's durability acknowledgment, so no two
// events for the same member are ever in flight concurrently. Operations
// on distinct members proceed fully in parallel.
package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/wardenhq/warden/internal/alert"
	"github.com/wardenhq/warden/internal/domain"
	"github.com/wardenhq/warden/internal/metrics"
	"github.com/wardenhq/warden/internal/platform"
	redisstore "github.com/wardenhq/warden/internal/store/redis"
)

// DefaultActionTimeout bounds the external platform call made inside the
// per-member section. On timeout the section is released and the operation
// reported as failed rather than blocking indefinitely.
const DefaultActionTimeout = 10 * time.Second

// Publisher fans appended events out to the live operator feed.
// Delivery is best-effort; the audit log remains the source of truth.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Service applies administrative actions, writing the identity store and
// audit log under per-member serialization.
type Service struct {
	members       domain.MemberRepository
	events        domain.EventRepository
	actions       platform.Actions
	alerts        alert.Sink
	publisher     Publisher // may be nil
	metrics       *metrics.Metrics
	actionTimeout time.Duration

	locks *keyedLocks

	// statusCache holds fold results as a performance optimization only.
	// It is invalidated on every append for the member; the log stays the
	// single source of truth.
	statusMu    sync.RWMutex
	statusCache map[string]domain.RestrictionStatus
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithPublisher attaches a live-feed publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithActionTimeout overrides the bound on external platform calls.
func WithActionTimeout(d time.Duration) Option {
	return func(s *Service) { s.actionTimeout = d }
}

// NewService creates the moderation state machine.
func NewService(members domain.MemberRepository, events domain.EventRepository, actions platform.Actions, alerts alert.Sink, opts ...Option) *Service {
	s := &Service{
		members:       members,
		events:        events,
		actions:       actions,
		alerts:        alerts,
		actionTimeout: DefaultActionTimeout,
		locks:         newKeyedLocks(),
		statusCache:   make(map[string]domain.RestrictionStatus),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the member's current derived status. ErrNotFound for an
// identity the store has never seen. The member's section is held for the
// read as well: the fold and its cache store must not interleave with a
// concurrent append's invalidation.
func (s *Service) Status(ctx context.Context, target string) (domain.RestrictionStatus, error) {
	s.locks.Lock(target)
	defer s.locks.Unlock(target)

	if _, err := s.members.Get(ctx, target); err != nil {
		return "", fmt.Errorf("moderation.Service.Status: %w", err)
	}

	status, err := s.derivedStatus(ctx, target)
	if err != nil {
		return "", fmt.Errorf("moderation.Service.Status: %w", err)
	}

	return status, nil
}

// ApplyTemporaryRemoval ejects the member from the platform and logs a
// temporary_removal event. The action is valid from any non-excluded
// status and has no standing status effect. The event is appended only
// after the platform removal succeeds, so the log never records an action
// that did not actually take effect.
func (s *Service) ApplyTemporaryRemoval(ctx context.Context, actor, target, reason string) error {
	s.locks.Lock(target)
	defer s.locks.Unlock(target)

	status, err := s.validateTarget(ctx, target)
	if err != nil {
		return fmt.Errorf("moderation.Service.ApplyTemporaryRemoval: %w", err)
	}
	if status == domain.StatusExcluded {
		return fmt.Errorf("moderation.Service.ApplyTemporaryRemoval: member %s is excluded: %w", target, domain.ErrInvalidTransition)
	}

	reason = boundReason(reason)

	if err = s.platformCall(ctx, func(callCtx context.Context) error {
		return s.actions.RemoveMember(callCtx, target, reason)
	}); err != nil {
		return fmt.Errorf("moderation.Service.ApplyTemporaryRemoval: %w", err)
	}

	e := newEvent(domain.EventTemporaryRemoval, target, actor, reason)
	if _, err = s.append(ctx, e); err != nil {
		// Side effect succeeded but the append did not: surface explicitly
		// so the operator retries rather than losing the record.
		return fmt.Errorf("moderation.Service.ApplyTemporaryRemoval: removal done but not recorded, retry required: %w", err)
	}

	s.notify(ctx, e)

	return nil
}

// ApplyChatRestriction moves the member to chat_restricted. A member
// already chat-restricted is a no-op: the current status is returned and
// no second event is logged.
func (s *Service) ApplyChatRestriction(ctx context.Context, actor, target, reason string) (domain.RestrictionStatus, error) {
	s.locks.Lock(target)
	defer s.locks.Unlock(target)

	status, err := s.validateTarget(ctx, target)
	if err != nil {
		return "", fmt.Errorf("moderation.Service.ApplyChatRestriction: %w", err)
	}

	switch status {
	case domain.StatusChatRestricted:
		return status, nil
	case domain.StatusExcluded:
		return "", fmt.Errorf("moderation.Service.ApplyChatRestriction: member %s is excluded: %w", target, domain.ErrInvalidTransition)
	case domain.StatusClear:
	}

	reason = boundReason(reason)

	if err = s.platformCall(ctx, func(callCtx context.Context) error {
		return s.actions.AssignRestrictionRole(callCtx, target, reason)
	}); err != nil {
		return "", fmt.Errorf("moderation.Service.ApplyChatRestriction: %w", err)
	}

	if _, err = s.append(ctx, newEvent(domain.EventChatRestrictionApplied, target, actor, reason)); err != nil {
		return "", fmt.Errorf("moderation.Service.ApplyChatRestriction: restriction set but not recorded, retry required: %w", err)
	}

	return domain.StatusChatRestricted, nil
}

// LiftChatRestriction returns the member to clear. Fails with
// ErrInvalidTransition unless the member is currently chat-restricted.
func (s *Service) LiftChatRestriction(ctx context.Context, actor, target string) (domain.RestrictionStatus, error) {
	s.locks.Lock(target)
	defer s.locks.Unlock(target)

	status, err := s.validateTarget(ctx, target)
	if err != nil {
		return "", fmt.Errorf("moderation.Service.LiftChatRestriction: %w", err)
	}
	if status != domain.StatusChatRestricted {
		return "", fmt.Errorf("moderation.Service.LiftChatRestriction: member %s is %s: %w", target, status, domain.ErrInvalidTransition)
	}

	if err = s.platformCall(ctx, func(callCtx context.Context) error {
		return s.actions.ClearRestrictionRole(callCtx, target)
	}); err != nil {
		return "", fmt.Errorf("moderation.Service.LiftChatRestriction: %w", err)
	}

	if _, err = s.append(ctx, newEvent(domain.EventChatRestrictionLifted, target, actor, "")); err != nil {
		return "", fmt.Errorf("moderation.Service.LiftChatRestriction: restriction cleared but not recorded, retry required: %w", err)
	}

	return domain.StatusClear, nil
}

// ApplyPermanentExclusion moves the member to excluded, overriding any
// chat restriction. Already-excluded members are a no-op. Irreversible.
func (s *Service) ApplyPermanentExclusion(ctx context.Context, actor, target, reason string) (domain.RestrictionStatus, error) {
	s.locks.Lock(target)
	defer s.locks.Unlock(target)

	status, err := s.validateTarget(ctx, target)
	if err != nil {
		return "", fmt.Errorf("moderation.Service.ApplyPermanentExclusion: %w", err)
	}
	if status == domain.StatusExcluded {
		return status, nil
	}

	reason = boundReason(reason)

	if err = s.platformCall(ctx, func(callCtx context.Context) error {
		return s.actions.ExcludeMember(callCtx, target, reason)
	}); err != nil {
		return "", fmt.Errorf("moderation.Service.ApplyPermanentExclusion: %w", err)
	}

	e := newEvent(domain.EventPermanentExclusion, target, actor, reason)
	if _, err = s.append(ctx, e); err != nil {
		return "", fmt.Errorf("moderation.Service.ApplyPermanentExclusion: exclusion done but not recorded, retry required: %w", err)
	}

	s.notify(ctx, e)

	return domain.StatusExcluded, nil
}

// RecordEvasionFlag appends a system-generated evasion_flagged event.
// Advisory only: it never changes the member's status, and no platform
// action is taken. The human decision comes through the other operations.
func (s *Service) RecordEvasionFlag(ctx context.Context, target, evidence string) error {
	s.locks.Lock(target)
	defer s.locks.Unlock(target)

	if _, err := s.members.Get(ctx, target); err != nil {
		return fmt.Errorf("moderation.Service.RecordEvasionFlag: %w", err)
	}

	e := newEvent(domain.EventEvasionFlagged, target, "", boundReason(evidence))
	if _, err := s.append(ctx, e); err != nil {
		return fmt.Errorf("moderation.Service.RecordEvasionFlag: %w", err)
	}

	if s.metrics != nil {
		s.metrics.EvasionFlags.Inc()
	}

	return nil
}

// RecordConcern appends a concern_reported event on behalf of a reporting
// member. Non-restrictive: the target's status is unaffected. Alerting is
// the intake layer's responsibility.
func (s *Service) RecordConcern(ctx context.Context, reporter, target, reason string) (int64, error) {
	s.locks.Lock(target)
	defer s.locks.Unlock(target)

	if _, err := s.members.Get(ctx, target); err != nil {
		return 0, fmt.Errorf("moderation.Service.RecordConcern: %w", err)
	}

	e := newEvent(domain.EventConcernReported, target, reporter, boundReason(reason))
	seq, err := s.append(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("moderation.Service.RecordConcern: %w", err)
	}

	return seq, nil
}

// validateTarget checks the member exists and returns its derived status.
func (s *Service) validateTarget(ctx context.Context, target string) (domain.RestrictionStatus, error) {
	if _, err := s.members.Get(ctx, target); err != nil {
		return "", err
	}
	return s.derivedStatus(ctx, target)
}

// derivedStatus folds the member's log, consulting the cache first. The
// caller must hold the member's section: an unserialized fold could store
// a pre-append result after that append's invalidation, and the stale
// entry would then drive the next transition.
func (s *Service) derivedStatus(ctx context.Context, target string) (domain.RestrictionStatus, error) {
	s.statusMu.RLock()
	cached, ok := s.statusCache[target]
	s.statusMu.RUnlock()
	if ok {
		return cached, nil
	}

	events, err := s.events.ListByTarget(ctx, target)
	if err != nil {
		return "", err
	}
	status := domain.DeriveStatus(events)

	s.statusMu.Lock()
	s.statusCache[target] = status
	s.statusMu.Unlock()

	return status, nil
}

// platformCall runs an external side effect under the action timeout.
// Failure or timeout maps to ErrActionFailed with the cause preserved.
func (s *Service) platformCall(ctx context.Context, call func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.actionTimeout)
	defer cancel()

	if err := call(callCtx); err != nil {
		return errors.Join(domain.ErrActionFailed, err)
	}

	return nil
}

// append writes the event, invalidates the member's cached fold, counts
// it, and publishes it to the live feed.
func (s *Service) append(ctx context.Context, e *domain.ModerationEvent) (int64, error) {
	seq, err := s.events.Append(ctx, e)
	if err != nil {
		return 0, err
	}

	s.statusMu.Lock()
	delete(s.statusCache, e.TargetID)
	s.statusMu.Unlock()

	if s.metrics != nil {
		s.metrics.EventsAppended.WithLabelValues(string(e.Kind)).Inc()
	}

	s.publishActivity(ctx, e)

	return seq, nil
}

func (s *Service) publishActivity(ctx context.Context, e *domain.ModerationEvent) {
	if s.publisher == nil {
		return
	}

	payload, err := json.Marshal(e)
	if err != nil {
		log.Warn().Err(err).Int64("seq", e.Seq).Msg("activity feed: marshal event")
		return
	}

	if err := s.publisher.Publish(ctx, redisstore.ActivityChannel(), payload); err != nil {
		log.Warn().Err(err).Int64("seq", e.Seq).Msg("activity feed: publish")
	}
	if err := s.publisher.Publish(ctx, redisstore.MemberChannel(e.TargetID), payload); err != nil {
		log.Warn().Err(err).Int64("seq", e.Seq).Msg("activity feed: publish member channel")
	}
}

// notify forwards the event to the staff alert sink. Best-effort: sink
// failures are logged by the sink and never fail the operation.
func (s *Service) notify(ctx context.Context, e *domain.ModerationEvent) {
	if s.alerts == nil {
		return
	}

	if err := s.alerts.Deliver(ctx, alert.Alert{
		Kind:      e.Kind,
		TargetID:  e.TargetID,
		ActorID:   e.ActorID,
		Reason:    e.Reason,
		CreatedAt: e.CreatedAt,
	}); err != nil {
		log.Warn().Err(err).Str("kind", string(e.Kind)).Msg("alert delivery failed")
	}
}

func newEvent(kind domain.EventKind, target, actor, reason string) *domain.ModerationEvent {
	return &domain.ModerationEvent{
		Kind:      kind,
		TargetID:  target,
		ActorID:   actor,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
}

// boundReason truncates over-long reason text on a rune boundary.
func boundReason(reason string) string {
	if len(reason) <= domain.MaxReasonLen {
		return reason
	}

	cut := domain.MaxReasonLen
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}
