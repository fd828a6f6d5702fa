package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wardenhq/warden/internal/aggregate"
	"github.com/wardenhq/warden/internal/domain"
	"github.com/wardenhq/warden/internal/intake"
	"github.com/wardenhq/warden/internal/metrics"
)

// Moderator is the slice of the moderation state machine the dispatcher
// drives. *moderation.Service satisfies it.
type Moderator interface {
	ApplyTemporaryRemoval(ctx context.Context, actor, target, reason string) error
	ApplyChatRestriction(ctx context.Context, actor, target, reason string) (domain.RestrictionStatus, error)
	LiftChatRestriction(ctx context.Context, actor, target string) (domain.RestrictionStatus, error)
	ApplyPermanentExclusion(ctx context.Context, actor, target, reason string) (domain.RestrictionStatus, error)
}

// Reporter accepts concern reports. *intake.Service satisfies it.
type Reporter interface {
	ReportConcern(ctx context.Context, reporter, target, reason string) (*intake.Report, error)
}

// SnapshotReader serves member lookups. *aggregate.Service satisfies it.
type SnapshotReader interface {
	MemberSnapshot(ctx context.Context, externalID string) (*aggregate.Snapshot, error)
}

// Actor is the invoking member, with the role check already resolved by
// the gateway.
type Actor struct {
	ID    string
	Staff bool
}

// Dispatcher routes parsed commands into the pipeline and renders every
// outcome, success or rejection, as text for the invoking operator.
type Dispatcher struct {
	mod     Moderator
	intake  Reporter
	reader  SnapshotReader
	metrics *metrics.Metrics // may be nil
}

func NewDispatcher(mod Moderator, reporter Reporter, reader SnapshotReader, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{mod: mod, intake: reporter, reader: reader, metrics: m}
}

// staffOnly lists the commands gated on the staff role. Reporting and
// lookups are open to every member.
var staffOnly = map[Name]bool{
	CmdKick:   true,
	CmdBan:    true,
	CmdMute:   true,
	CmdUnmute: true,
	CmdWhois:  false,
	CmdReport: false,
}

// Dispatch executes one raw chat message. The returned string is always
// operator-visible text; err is non-nil only for ErrNotCommand, which
// the gateway uses to ignore ordinary chat.
func (d *Dispatcher) Dispatch(ctx context.Context, actor Actor, content string) (string, error) {
	cmd, err := Parse(content)
	if err != nil {
		if errors.Is(err, ErrNotCommand) {
			return "", err
		}
		return d.reject("malformed", rejectionText(err)), nil
	}

	if staffOnly[cmd.Name] && !actor.Staff {
		return d.reject("unauthorized", "You are not permitted to use this command."), nil
	}

	out, err := d.execute(ctx, actor, cmd)
	if err != nil {
		log.Warn().Err(err).Str("command", string(cmd.Name)).Str("actor", actor.ID).Str("target", cmd.Target).Msg("command rejected")
		return d.reject(rejectionReason(err), rejectionText(err)), nil
	}

	return out, nil
}

func (d *Dispatcher) execute(ctx context.Context, actor Actor, cmd *Command) (string, error) {
	switch cmd.Name {
	case CmdKick:
		if err := d.mod.ApplyTemporaryRemoval(ctx, actor.ID, cmd.Target, cmd.Reason); err != nil {
			return "", err
		}
		return fmt.Sprintf("Member %s removed.", cmd.Target), nil

	case CmdBan:
		if _, err := d.mod.ApplyPermanentExclusion(ctx, actor.ID, cmd.Target, cmd.Reason); err != nil {
			return "", err
		}
		return fmt.Sprintf("Member %s permanently excluded.", cmd.Target), nil

	case CmdMute:
		if _, err := d.mod.ApplyChatRestriction(ctx, actor.ID, cmd.Target, cmd.Reason); err != nil {
			return "", err
		}
		return fmt.Sprintf("Member %s chat-restricted.", cmd.Target), nil

	case CmdUnmute:
		if _, err := d.mod.LiftChatRestriction(ctx, actor.ID, cmd.Target); err != nil {
			return "", err
		}
		return fmt.Sprintf("Chat restriction lifted for member %s.", cmd.Target), nil

	case CmdReport:
		r, err := d.intake.ReportConcern(ctx, actor.ID, cmd.Target, cmd.Reason)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Report received, reference %s. Staff have been notified.", r.Reference), nil

	case CmdWhois:
		snap, err := d.reader.MemberSnapshot(ctx, cmd.Target)
		if err != nil {
			return "", err
		}
		return formatSnapshot(snap), nil

	default:
		return "", ErrUnknownCommand
	}
}

// reject counts and returns the rejection text.
func (d *Dispatcher) reject(reason, text string) string {
	if d.metrics != nil {
		d.metrics.RejectedCommands.WithLabelValues(reason).Inc()
	}
	return text
}

// rejectionReason maps an error to the metric label for the rejection.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrActionFailed):
		return "action_failed"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, intake.ErrEmptyReason):
		return "malformed"
	default:
		return "internal"
	}
}

// rejectionText maps an error to the specific operator-visible reason.
// Every rejection says what was wrong, never a generic failure.
func rejectionText(err error) string {
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return "Unknown command."
	case errors.Is(err, ErrMissingTarget):
		return "Specify a target member, e.g. !mute @member reason."
	case errors.Is(err, domain.ErrNotFound):
		return "No record of that member."
	case errors.Is(err, domain.ErrInvalidTransition):
		return "That action is not valid for the member's current status."
	case errors.Is(err, domain.ErrActionFailed):
		return "The platform action failed; nothing was recorded. Try again."
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "Storage is unavailable; the action was not recorded. Try again."
	case errors.Is(err, intake.ErrEmptyReason):
		return "A report needs a reason."
	default:
		return "Internal error; the action may not have been recorded."
	}
}

// formatSnapshot renders the !whois reply.
func formatSnapshot(s *aggregate.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Member %s", s.Identity.ExternalID)
	if name := s.Identity.LatestName(); name != "" {
		fmt.Fprintf(&b, " (%s)", name)
	}
	fmt.Fprintf(&b, "\nStatus: %s", s.Status)
	fmt.Fprintf(&b, "\nFirst seen: %s", s.Identity.FirstSeenAt.UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "\nEvents on record: %d", len(s.History))

	if len(s.Identity.DisplayNames) > 1 {
		names := make([]string, 0, len(s.Identity.DisplayNames))
		for _, n := range s.Identity.DisplayNames {
			names = append(names, n.Name)
		}
		fmt.Fprintf(&b, "\nKnown names: %s", strings.Join(names, ", "))
	}

	return b.String()
}
