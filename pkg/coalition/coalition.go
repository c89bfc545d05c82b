// Package coalition provides the fixed-width bitmask representation of a
// participant subset used as the canonical key throughout attribution.
package coalition

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// MaxParticipants is the width of the bitmask.
const MaxParticipants = 64

var (
	ErrParticipantOutOfRange = errors.New("participant id out of range")
	ErrMalformedKey          = errors.New("malformed coalition key")
)

// ParticipantID identifies one coalition member for the lifetime of a round.
type ParticipantID int

// Coalition is an immutable set of participants. Bit i is set iff participant
// i is present, so two coalitions are equal iff their masks are equal.
type Coalition uint64

// Empty is the coalition with no members.
const Empty Coalition = 0

func New(ids ...ParticipantID) (Coalition, error) {
	var c Coalition
	for _, id := range ids {
		if id < 0 || id >= MaxParticipants {
			return Empty, fmt.Errorf("%w: %d", ErrParticipantOutOfRange, id)
		}
		c |= 1 << uint(id)
	}

	return c, nil
}

// Of is New for ids known to be valid. It panics on out of range ids.
func Of(ids ...ParticipantID) Coalition {
	c, err := New(ids...)
	if err != nil {
		panic(err)
	}

	return c
}

// Full returns the coalition {0, ..., n-1}.
func Full(n int) (Coalition, error) {
	if n < 0 || n > MaxParticipants {
		return Empty, fmt.Errorf("%w: %d", ErrParticipantOutOfRange, n)
	}
	if n == MaxParticipants {
		return ^Empty, nil
	}

	return Coalition(uint64(1)<<uint(n) - 1), nil
}

func (c Coalition) Contains(id ParticipantID) bool {
	if id < 0 || id >= MaxParticipants {
		return false
	}

	return c&(1<<uint(id)) != 0
}

func (c Coalition) Add(id ParticipantID) Coalition {
	if id < 0 || id >= MaxParticipants {
		return c
	}

	return c | 1<<uint(id)
}

func (c Coalition) Remove(id ParticipantID) Coalition {
	if id < 0 || id >= MaxParticipants {
		return c
	}

	return c &^ (1 << uint(id))
}

func (c Coalition) Union(o Coalition) Coalition { return c | o }

func (c Coalition) Intersect(o Coalition) Coalition { return c & o }

func (c Coalition) Difference(o Coalition) Coalition { return c &^ o }

func (c Coalition) IsEmpty() bool { return c == Empty }

// IsSubsetOf reports whether every member of c is in o.
func (c Coalition) IsSubsetOf(o Coalition) bool { return c&^o == 0 }

func (c Coalition) Size() int { return bits.OnesCount64(uint64(c)) }

// Key returns the bitmask used as cache and storage key.
func (c Coalition) Key() uint64 { return uint64(c) }

// Members lists participants in ascending order.
func (c Coalition) Members() []ParticipantID {
	members := make([]ParticipantID, 0, c.Size())
	for m := uint64(c); m != 0; m &= m - 1 {
		members = append(members, ParticipantID(bits.TrailingZeros64(m)))
	}

	return members
}

// Expand maps the low bits of index onto the members of c: the j-th member
// (ascending) is included iff bit j of index is set. Indices in
// [0, 2^|c|) enumerate every subset of c exactly once.
func (c Coalition) Expand(index uint64) Coalition {
	var out Coalition
	j := 0
	for m := uint64(c); m != 0 && index>>uint(j) != 0; m &= m - 1 {
		if index&(1<<uint(j)) != 0 {
			out |= Coalition(m & -m)
		}
		j++
	}

	return out
}

// Select builds the subset of members picked by the given positions.
func Select(members []ParticipantID, positions []int) Coalition {
	var out Coalition
	for _, p := range positions {
		out = out.Add(members[p])
	}

	return out
}

// String renders the coalition as a comma separated member list, the same
// form Parse accepts. The empty coalition renders as "".
func (c Coalition) String() string {
	members := c.Members()
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = strconv.Itoa(int(m))
	}

	return strings.Join(parts, ",")
}

// Parse reads a comma separated member list such as "0,2,5".
func Parse(s string) (Coalition, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	if strings.TrimSpace(s) == "" {
		return Empty, nil
	}

	var c Coalition
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Empty, fmt.Errorf("%w: %q", ErrMalformedKey, s)
		}
		if id < 0 || id >= MaxParticipants {
			return Empty, fmt.Errorf("%w: %d", ErrParticipantOutOfRange, id)
		}
		c = c.Add(ParticipantID(id))
	}

	return c, nil
}

func (c Coalition) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Coalition) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = parsed

	return nil
}
