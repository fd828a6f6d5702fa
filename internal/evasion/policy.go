package evasion

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/wardenhq/warden/internal/domain"
)

// Evidence classifies how strongly a new entry correlates with a
// previously excluded identity.
type Evidence int

const (
	EvidenceNone Evidence = iota
	EvidenceWeak
	EvidenceStrong
)

func (e Evidence) String() string {
	switch e {
	case EvidenceStrong:
		return "strong"
	case EvidenceWeak:
		return "weak"
	default:
		return "none"
	}
}

// MatchPolicy scores a candidate entry against one excluded identity.
// It is deliberately pluggable so the matching heuristic can be tuned
// without touching the state machine: false positives must never
// auto-restrict, so the policy only ever produces advisory evidence.
type MatchPolicy interface {
	// Assess returns the evidence strength and a human-readable
	// description of the matched signal (empty for EvidenceNone).
	Assess(candidate, excluded *domain.MemberIdentity) (Evidence, string)
}

// NamePolicy is the default heuristic. Signals, strongest first:
//
//   - identical external identifier (the platform reports the same
//     account rejoining): strong
//   - current display name equal, after normalization, to any name the
//     excluded identity was ever seen under: strong
//   - normalized names within edit distance 2, or one containing the
//     other (both at least MinNameLength runes): weak
//
// Normalization lowercases and drops everything but letters and digits,
// which defeats the usual "same name, extra underscores" rename.
type NamePolicy struct {
	// MaxEditDistance is the largest edit distance still scored weak.
	MaxEditDistance int
	// MinNameLength guards the fuzzy signals: very short names collide
	// by chance too often to mean anything.
	MinNameLength int
}

var _ MatchPolicy = (*NamePolicy)(nil)

// NewNamePolicy returns the policy with default thresholds.
func NewNamePolicy() *NamePolicy {
	return &NamePolicy{MaxEditDistance: 2, MinNameLength: 4}
}

func (p *NamePolicy) Assess(candidate, excluded *domain.MemberIdentity) (Evidence, string) {
	if candidate.ExternalID == excluded.ExternalID {
		return EvidenceStrong, fmt.Sprintf("same platform identifier as excluded member %s", excluded.ExternalID)
	}

	name := normalizeName(candidate.LatestName())
	if name == "" {
		return EvidenceNone, ""
	}

	best := EvidenceNone
	detail := ""

	for _, prior := range excluded.DisplayNames {
		priorName := normalizeName(prior.Name)
		if priorName == "" {
			continue
		}

		if name == priorName {
			return EvidenceStrong, fmt.Sprintf("display name %q matches excluded member %s", candidate.LatestName(), excluded.ExternalID)
		}

		if best == EvidenceNone && p.nearMatch(name, priorName) {
			best = EvidenceWeak
			detail = fmt.Sprintf("display name %q resembles %q used by excluded member %s", candidate.LatestName(), prior.Name, excluded.ExternalID)
		}
	}

	return best, detail
}

func (p *NamePolicy) nearMatch(a, b string) bool {
	if len([]rune(a)) < p.MinNameLength || len([]rune(b)) < p.MinNameLength {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	return editDistance(a, b) <= p.MaxEditDistance
}

func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// editDistance computes the Levenshtein distance between two strings.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}

	return prev[len(rb)]
}
