package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardenhq/warden/internal/domain"
)

type MemberRepo struct {
	pool *pgxpool.Pool
}

func NewMemberRepo(pool *pgxpool.Pool) *MemberRepo {
	return &MemberRepo{pool: pool}
}

func (r *MemberRepo) UpsertOnEntry(ctx context.Context, externalID, displayName string, seenAt time.Time) (*domain.MemberIdentity, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, storageErr("memberRepo.UpsertOnEntry: begin", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var namesJSON []byte
	m := domain.MemberIdentity{ExternalID: externalID}

	err = tx.QueryRow(ctx,
		`SELECT display_names, first_seen_at, last_seen_at
		 FROM members WHERE external_id = $1 FOR UPDATE`,
		externalID,
	).Scan(&namesJSON, &m.FirstSeenAt, &m.LastSeenAt)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// First contact: create the identity.
		m.FirstSeenAt = seenAt
		m.LastSeenAt = seenAt
		m.DisplayNames = []domain.NameRecord{{Name: displayName, FirstSeenAt: seenAt}}

		namesJSON, err = json.Marshal(m.DisplayNames)
		if err != nil {
			return nil, fmt.Errorf("memberRepo.UpsertOnEntry: marshal names: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO members (external_id, display_names, first_seen_at, last_seen_at)
			 VALUES ($1, $2, $3, $4)`,
			externalID, namesJSON, seenAt, seenAt,
		)
		if err != nil {
			return nil, storageErr("memberRepo.UpsertOnEntry: insert", err)
		}

	case err != nil:
		return nil, storageErr("memberRepo.UpsertOnEntry: select", err)

	default:
		if err = json.Unmarshal(namesJSON, &m.DisplayNames); err != nil {
			return nil, fmt.Errorf("memberRepo.UpsertOnEntry: unmarshal names: %w", err)
		}

		if !knownName(m.DisplayNames, displayName) {
			m.DisplayNames = append(m.DisplayNames, domain.NameRecord{Name: displayName, FirstSeenAt: seenAt})
		}
		if seenAt.After(m.LastSeenAt) {
			m.LastSeenAt = seenAt
		}

		namesJSON, err = json.Marshal(m.DisplayNames)
		if err != nil {
			return nil, fmt.Errorf("memberRepo.UpsertOnEntry: marshal names: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE members SET display_names = $2, last_seen_at = $3 WHERE external_id = $1`,
			externalID, namesJSON, m.LastSeenAt,
		)
		if err != nil {
			return nil, storageErr("memberRepo.UpsertOnEntry: update", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, storageErr("memberRepo.UpsertOnEntry: commit", err)
	}

	return &m, nil
}

func (r *MemberRepo) Get(ctx context.Context, externalID string) (*domain.MemberIdentity, error) {
	var namesJSON []byte
	m := domain.MemberIdentity{ExternalID: externalID}

	err := r.pool.QueryRow(ctx,
		`SELECT display_names, first_seen_at, last_seen_at
		 FROM members WHERE external_id = $1`,
		externalID,
	).Scan(&namesJSON, &m.FirstSeenAt, &m.LastSeenAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("memberRepo.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("memberRepo.Get", err)
	}

	if err = json.Unmarshal(namesJSON, &m.DisplayNames); err != nil {
		return nil, fmt.Errorf("memberRepo.Get: unmarshal names: %w", err)
	}

	return &m, nil
}

func (r *MemberRepo) CountFirstSeenSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64

	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM members WHERE first_seen_at > $1`,
		since,
	).Scan(&n)
	if err != nil {
		return 0, storageErr("memberRepo.CountFirstSeenSince", err)
	}

	return n, nil
}

func knownName(names []domain.NameRecord, name string) bool {
	for _, n := range names {
		if n.Name == name {
			return true
		}
	}
	return false
}

// storageErr marks a backend failure with domain.ErrStorageUnavailable while
// keeping the driver error in the chain.
func storageErr(caller string, err error) error {
	return fmt.Errorf("%s: %w", caller, errors.Join(domain.ErrStorageUnavailable, err))
}
