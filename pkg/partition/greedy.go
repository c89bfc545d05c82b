package partition

import (
	"context"
	"math/rand"

	"github.com/absmach/shapley/pkg/coalition"
)

const (
	defaultMaxMoves = 10000
	// defaultSeed is used when callers pass seed 0 so the default run is
	// still reproducible.
	defaultSeed int64 = 1
)

var _ Oracle = (*Greedy)(nil)

// Greedy approximates the balanced min-cut contract with first-improvement
// local search. It starts from a balanced assignment (seeded shuffle, then
// round robin) and repeatedly applies the first single move or pairwise swap
// that lowers the cut while keeping every part size within
// [floor(n/k), ceil(n/k)]. It stops at a local optimum or after MaxMoves
// applied moves, a swap counting as one. Every move strictly lowers the cut.
//
// Complexity: O(n^2 k) per scan for n nodes, O(n^2) extra space.
type Greedy struct {
	MaxMoves int
	Seed     int64
}

func NewGreedy(seed int64) *Greedy {
	return &Greedy{MaxMoves: defaultMaxMoves, Seed: seed}
}

func (g *Greedy) Partition(ctx context.Context, nodes []coalition.ParticipantID, edges []Edge, k int) (map[coalition.ParticipantID]int, error) {
	n := len(nodes)
	if k <= 0 {
		return nil, ErrInvalidPartCount
	}
	if n == 0 {
		return nil, ErrNoParticipants
	}
	k = min(k, n)

	index := make(map[coalition.ParticipantID]int, n)
	for i, node := range nodes {
		index[node] = i
	}

	w := make([][]int64, n)
	for i := range w {
		w[i] = make([]int64, n)
	}
	for _, e := range edges {
		u, okU := index[e.U]
		v, okV := index[e.V]
		if !okU || !okV || u == v {
			continue
		}
		w[u][v] += e.Weight
		w[v][u] += e.Weight
	}

	seed := g.Seed
	if seed == 0 {
		seed = defaultSeed
	}
	rng := rand.New(rand.NewSource(seed))

	part := make([]int, n)
	size := make([]int, k)
	for pos, i := range rng.Perm(n) {
		part[i] = pos % k
		size[pos%k]++
	}
	lo, hi := n/k, (n+k-1)/k

	// conn[i][p] is the total weight between node i and the members of part p.
	conn := make([][]int64, n)
	for i := range conn {
		conn[i] = make([]int64, k)
		for j := range n {
			if j != i {
				conn[i][part[j]] += w[i][j]
			}
		}
	}

	move := func(i, to int) {
		from := part[i]
		for x := range n {
			if x == i {
				continue
			}
			conn[x][from] -= w[x][i]
			conn[x][to] += w[x][i]
		}
		size[from]--
		size[to]++
		part[i] = to
	}

	moves := g.MaxMoves
	if moves <= 0 {
		moves = defaultMaxMoves
	}

	for range moves {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !g.improve(n, k, lo, hi, w, part, size, conn, move) {
			break
		}
	}

	assignment := make(map[coalition.ParticipantID]int, n)
	for i, node := range nodes {
		assignment[node] = part[i]
	}

	return assignment, nil
}

// improve applies the first improving move or swap found and reports whether
// one was applied.
func (g *Greedy) improve(n, k, lo, hi int, w [][]int64, part, size []int, conn [][]int64, move func(i, to int)) bool {
	for i := range n {
		a := part[i]
		for b := range k {
			if b == a {
				continue
			}
			gainI := conn[i][b] - conn[i][a]

			if size[a]-1 >= lo && size[b]+1 <= hi && gainI > 0 {
				move(i, b)

				return true
			}

			for j := range n {
				if part[j] != b {
					continue
				}
				gainJ := conn[j][a] - conn[j][b]
				if gainI+gainJ-2*w[i][j] > 0 {
					move(i, b)
					move(j, a)

					return true
				}
			}
		}
	}

	return false
}
