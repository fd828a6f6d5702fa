package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardenhq/warden/internal/domain"
)

type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

// Append persists the event and returns its assigned sequence number. The
// row is durable once the INSERT commits, so a returned seq is a durability
// acknowledgment.
func (r *EventRepo) Append(ctx context.Context, e *domain.ModerationEvent) (int64, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO moderation_events (kind, target_id, actor_id, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING seq`,
		e.Kind, e.TargetID, nilIfEmpty(e.ActorID), e.Reason, e.CreatedAt,
	).Scan(&e.Seq)
	if err != nil {
		return 0, storageErr("eventRepo.Append", err)
	}

	return e.Seq, nil
}

func (r *EventRepo) ListByTarget(ctx context.Context, targetID string) ([]*domain.ModerationEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT seq, kind, target_id, actor_id, reason, created_at
		 FROM moderation_events WHERE target_id = $1
		 ORDER BY seq`,
		targetID,
	)
	if err != nil {
		return nil, storageErr("eventRepo.ListByTarget", err)
	}
	defer rows.Close()

	return scanEvents(rows, "eventRepo.ListByTarget")
}

func (r *EventRepo) ListRecent(ctx context.Context, limit int) ([]*domain.ModerationEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT seq, kind, target_id, actor_id, reason, created_at
		 FROM moderation_events
		 ORDER BY seq DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, storageErr("eventRepo.ListRecent", err)
	}
	defer rows.Close()

	return scanEvents(rows, "eventRepo.ListRecent")
}

func (r *EventRepo) TargetsWithKind(ctx context.Context, kind domain.EventKind) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT target_id FROM moderation_events WHERE kind = $1`,
		kind,
	)
	if err != nil {
		return nil, storageErr("eventRepo.TargetsWithKind", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, storageErr("eventRepo.TargetsWithKind: scan", err)
		}
		targets = append(targets, id)
	}
	if err = rows.Err(); err != nil {
		return nil, storageErr("eventRepo.TargetsWithKind: rows", err)
	}

	return targets, nil
}

func (r *EventRepo) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64

	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM moderation_events WHERE created_at > $1`,
		since,
	).Scan(&n)
	if err != nil {
		return 0, storageErr("eventRepo.CountSince", err)
	}

	return n, nil
}

func (r *EventRepo) CountByKindSince(ctx context.Context, since time.Time) (map[domain.EventKind]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT kind, count(*) FROM moderation_events
		 WHERE created_at > $1 GROUP BY kind`,
		since,
	)
	if err != nil {
		return nil, storageErr("eventRepo.CountByKindSince", err)
	}
	defer rows.Close()

	counts := make(map[domain.EventKind]int64)
	for rows.Next() {
		var kind domain.EventKind
		var n int64
		if err = rows.Scan(&kind, &n); err != nil {
			return nil, storageErr("eventRepo.CountByKindSince: scan", err)
		}
		counts[kind] = n
	}
	if err = rows.Err(); err != nil {
		return nil, storageErr("eventRepo.CountByKindSince: rows", err)
	}

	return counts, nil
}

// CountStatuses folds the log per target in SQL: a target is excluded if a
// permanent_exclusion event exists, and chat-restricted if the latest of its
// apply/lift events is an apply and it is not excluded. This mirrors
// domain.DeriveStatus so the counts can never diverge from replay.
func (r *EventRepo) CountStatuses(ctx context.Context) (domain.StatusCounts, error) {
	var counts domain.StatusCounts

	err := r.pool.QueryRow(ctx,
		`SELECT
		     count(*) FILTER (WHERE excluded),
		     count(*) FILTER (WHERE NOT excluded AND last_chat = 'chat_restriction_applied')
		 FROM (
		     SELECT target_id,
		            bool_or(kind = 'permanent_exclusion') AS excluded,
		            (array_agg(kind ORDER BY seq DESC)
		                 FILTER (WHERE kind IN ('chat_restriction_applied', 'chat_restriction_lifted')))[1] AS last_chat
		     FROM moderation_events
		     GROUP BY target_id
		 ) folded`,
	).Scan(&counts.Excluded, &counts.ChatRestricted)
	if err != nil {
		return domain.StatusCounts{}, storageErr("eventRepo.CountStatuses", err)
	}

	return counts, nil
}

func scanEvents(rows pgx.Rows, caller string) ([]*domain.ModerationEvent, error) {
	var events []*domain.ModerationEvent
	for rows.Next() {
		var e domain.ModerationEvent
		var actorID *string

		if err := rows.Scan(&e.Seq, &e.Kind, &e.TargetID, &actorID, &e.Reason, &e.CreatedAt); err != nil {
			return nil, storageErr(caller+": scan", err)
		}
		e.ActorID = derefStr(actorID)
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(caller+": rows", err)
	}

	return events, nil
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
