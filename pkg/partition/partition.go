// Package partition splits the active participants of a round into k
// disjoint groups with low cross-group synergy, delegating the balanced
// min-cut to a pluggable Oracle.
package partition

import (
	"errors"
	"fmt"
	"sort"

	"github.com/absmach/shapley/pkg/coalition"
)

var (
	// ErrContractViolation means an assignment or partition does not cover
	// the active set exactly once. It is never recoverable.
	ErrContractViolation = errors.New("partition contract violation")
	ErrInvalidPartCount  = errors.New("number of partitions must be positive")
	ErrOracleUnavailable = errors.New("partitioning oracle unavailable")
	ErrNoParticipants    = errors.New("no active participants to partition")
)

// Partition is an ordered list of pairwise disjoint groups whose union is the
// active participant set.
type Partition []coalition.Coalition

// Union returns the set covered by all groups.
func (p Partition) Union() coalition.Coalition {
	var u coalition.Coalition
	for _, g := range p {
		u = u.Union(g)
	}

	return u
}

// GroupOf returns the index of the group containing id, or -1.
func (p Partition) GroupOf(id coalition.ParticipantID) int {
	for i, g := range p {
		if g.Contains(id) {
			return i
		}
	}

	return -1
}

// Validate checks disjointness, non-empty groups and exact coverage of active.
func (p Partition) Validate(active coalition.Coalition) error {
	var seen coalition.Coalition
	for i, g := range p {
		if g.IsEmpty() {
			return fmt.Errorf("%w: group %d is empty", ErrContractViolation, i)
		}
		if !seen.Intersect(g).IsEmpty() {
			return fmt.Errorf("%w: group %d overlaps {%s}", ErrContractViolation, i, seen.Intersect(g))
		}
		seen = seen.Union(g)
	}
	if seen != active {
		return fmt.Errorf("%w: groups cover {%s}, active set is {%s}", ErrContractViolation, seen, active)
	}

	return nil
}

// Members lists every group as a slice of participant ids.
func (p Partition) Members() [][]coalition.ParticipantID {
	out := make([][]coalition.ParticipantID, len(p))
	for i, g := range p {
		out[i] = g.Members()
	}

	return out
}

// FromAssignment groups participants by their assigned part. Groups are
// ordered by part index; unused part indices produce no group. Every node must
// be assigned exactly once and no foreign participant may appear.
func FromAssignment(nodes []coalition.ParticipantID, assignment map[coalition.ParticipantID]int) (Partition, error) {
	if len(assignment) != len(nodes) {
		return nil, fmt.Errorf("%w: %d assignments for %d participants", ErrContractViolation, len(assignment), len(nodes))
	}

	groups := make(map[int]coalition.Coalition)
	for _, n := range nodes {
		part, ok := assignment[n]
		if !ok {
			return nil, fmt.Errorf("%w: participant %d unassigned", ErrContractViolation, n)
		}
		if part < 0 {
			return nil, fmt.Errorf("%w: participant %d assigned to part %d", ErrContractViolation, n, part)
		}
		groups[part] = groups[part].Add(n)
	}

	parts := make([]int, 0, len(groups))
	for part := range groups {
		parts = append(parts, part)
	}
	sort.Ints(parts)

	p := make(Partition, len(parts))
	for i, part := range parts {
		p[i] = groups[part]
	}

	return p, nil
}
