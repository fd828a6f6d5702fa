// Package intake accepts member-submitted concern reports. A report is
// recorded in the audit log as a non-restrictive event and forwarded to
// the staff alert sink; the audit record is the source of truth and sink
// delivery is best-effort.
package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wardenhq/warden/internal/alert"
	"github.com/wardenhq/warden/internal/domain"
)

// ErrEmptyReason rejects reports with no usable reason text.
var ErrEmptyReason = errors.New("intake: reason must not be empty")

// Recorder appends the concern event under the same per-member
// serialization as every other mutating operation. *moderation.Service
// satisfies it.
type Recorder interface {
	RecordConcern(ctx context.Context, reporter, target, reason string) (int64, error)
}

// Report is the acknowledgment returned to the reporter.
type Report struct {
	Reference  string    `json:"reference"`
	Seq        int64     `json:"seq"`
	TargetID   string    `json:"target_id"`
	ReporterID string    `json:"reporter_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notifier delivers the acknowledgment back to the reporter as a direct
// message. messenger.Messenger satisfies it.
type Notifier interface {
	SendNotification(ctx context.Context, userExternalID, text string) error
}

// Service validates and records concern reports.
type Service struct {
	members  domain.MemberRepository
	recorder Recorder
	alerts   alert.Sink
	notifier Notifier // may be nil
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithReporterNotifier enables the acknowledgment message to the reporter.
func WithReporterNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func NewService(members domain.MemberRepository, recorder Recorder, alerts alert.Sink, opts ...Option) *Service {
	s := &Service{members: members, recorder: recorder, alerts: alerts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReportConcern records a concern about the target member. A target the
// identity store has never seen is registered first: a report can name a
// platform identifier before any entry event has been observed for it.
// The staff alert carries a reference the reporter can quote back.
func (s *Service) ReportConcern(ctx context.Context, reporter, target, reason string) (*Report, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}

	if _, err := s.members.Get(ctx, target); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("intake.Service.ReportConcern: %w", err)
		}
		if _, err = s.members.UpsertOnEntry(ctx, target, "", time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("intake.Service.ReportConcern: %w", err)
		}
	}

	seq, err := s.recorder.RecordConcern(ctx, reporter, target, reason)
	if err != nil {
		return nil, fmt.Errorf("intake.Service.ReportConcern: %w", err)
	}

	r := &Report{
		Reference:  uuid.NewString(),
		Seq:        seq,
		TargetID:   target,
		ReporterID: reporter,
		CreatedAt:  time.Now().UTC(),
	}

	// Best effort: a sink failure never fails the intake.
	a := alert.Alert{
		Kind:      domain.EventConcernReported,
		TargetID:  target,
		ActorID:   reporter,
		Reason:    fmt.Sprintf("%s (ref %s)", reason, r.Reference),
		CreatedAt: r.CreatedAt,
	}
	if err := s.alerts.Deliver(ctx, a); err != nil {
		log.Warn().Err(err).Str("reference", r.Reference).Msg("concern alert delivery failed")
	}

	// The acknowledgment is best-effort too: the report stands even when
	// the reporter's DMs are closed.
	if s.notifier != nil {
		text := fmt.Sprintf("Thanks for the report. Staff have been alerted. Reference: %s", r.Reference)
		if err := s.notifier.SendNotification(ctx, reporter, text); err != nil {
			log.Warn().Err(err).Str("reference", r.Reference).Msg("reporter acknowledgment failed")
		}
	}

	return r, nil
}
