// Package memory provides an in-process implementation of the identity
// store and audit log. It backs the dev storage driver and package tests;
// it offers the same ordering guarantees as the Postgres store but no
// durability across restarts.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/wardenhq/warden/internal/domain"
)

type Store struct {
	members *MemberRepo
	events  *EventRepo
}

func New() *Store {
	return &Store{
		members: NewMemberRepo(),
		events:  NewEventRepo(),
	}
}

func (s *Store) Members() domain.MemberRepository { return s.members }
func (s *Store) Events() domain.EventRepository   { return s.events }

type MemberRepo struct {
	mu      sync.RWMutex
	members map[string]*domain.MemberIdentity
}

func NewMemberRepo() *MemberRepo {
	return &MemberRepo{members: make(map[string]*domain.MemberIdentity)}
}

func (r *MemberRepo) UpsertOnEntry(_ context.Context, externalID, displayName string, seenAt time.Time) (*domain.MemberIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[externalID]
	if !ok {
		m = &domain.MemberIdentity{
			ExternalID:   externalID,
			DisplayNames: []domain.NameRecord{{Name: displayName, FirstSeenAt: seenAt}},
			FirstSeenAt:  seenAt,
			LastSeenAt:   seenAt,
		}
		r.members[externalID] = m
		return cloneMember(m), nil
	}

	if !knownName(m.DisplayNames, displayName) {
		m.DisplayNames = append(m.DisplayNames, domain.NameRecord{Name: displayName, FirstSeenAt: seenAt})
	}
	if seenAt.After(m.LastSeenAt) {
		m.LastSeenAt = seenAt
	}

	return cloneMember(m), nil
}

func (r *MemberRepo) Get(_ context.Context, externalID string) (*domain.MemberIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[externalID]
	if !ok {
		return nil, fmt.Errorf("memory.MemberRepo.Get: %w", domain.ErrNotFound)
	}

	return cloneMember(m), nil
}

func (r *MemberRepo) CountFirstSeenSince(_ context.Context, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, m := range r.members {
		if m.FirstSeenAt.After(since) {
			n++
		}
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

func cloneMember(m *domain.MemberIdentity) *domain.MemberIdentity {
	out := *m
	out.DisplayNames = append([]domain.NameRecord(nil), m.DisplayNames...)
	return &out
}

type EventRepo struct {
	mu      sync.RWMutex
	nextSeq int64
	events  []*domain.ModerationEvent
}

func NewEventRepo() *EventRepo {
	return &EventRepo{nextSeq: 1}
}

func (r *EventRepo) Append(_ context.Context, e *domain.ModerationEvent) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *e
	stored.Seq = r.nextSeq
	r.nextSeq++
	r.events = append(r.events, &stored)

	e.Seq = stored.Seq
	return stored.Seq, nil
}

func (r *EventRepo) ListByTarget(_ context.Context, targetID string) ([]*domain.ModerationEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.ModerationEvent
	for _, e := range r.events {
		if e.TargetID == targetID {
			copied := *e
			out = append(out, &copied)
		}
	}

	return out, nil
}

func (r *EventRepo) ListRecent(_ context.Context, limit int) ([]*domain.ModerationEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.events)
	if limit > n {
		limit = n
	}

	out := make([]*domain.ModerationEvent, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		copied := *r.events[i]
		out = append(out, &copied)
	}

	return out, nil
}

func (r *EventRepo) TargetsWithKind(_ context.Context, kind domain.EventKind) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, e := range r.events {
		if e.Kind == kind {
			seen[e.TargetID] = struct{}{}
		}
	}

	targets := make([]string, 0, len(seen))
	for id := range seen {
		targets = append(targets, id)
	}
	sort.Strings(targets)

	return targets, nil
}

func (r *EventRepo) CountSince(_ context.Context, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, e := range r.events {
		if e.CreatedAt.After(since) {
			n++
		}
	}

	return n, nil
}

func (r *EventRepo) CountByKindSince(_ context.Context, since time.Time) (map[domain.EventKind]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[domain.EventKind]int64)
	for _, e := range r.events {
		if e.CreatedAt.After(since) {
			counts[e.Kind]++
		}
	}

	return counts, nil
}

func (r *EventRepo) CountStatuses(_ context.Context) (domain.StatusCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byTarget := make(map[string]domain.RestrictionStatus)
	for _, e := range r.events {
		cur, ok := byTarget[e.TargetID]
		if !ok {
			cur = domain.StatusClear
		}
		byTarget[e.TargetID] = cur.Apply(e.Kind)
	}

	var counts domain.StatusCounts
	for _, status := range byTarget {
		switch status {
		case domain.StatusChatRestricted:
			counts.ChatRestricted++
		case domain.StatusExcluded:
			counts.Excluded++
		}
	}

	return counts, nil
}
