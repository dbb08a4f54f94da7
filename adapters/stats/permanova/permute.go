package permanova

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat/combin"
)

// permuter yields sample relabellings: either a seeded stream of random
// (within-block) shuffles, or the exhaustive enumeration of every distinct
// ordering when the design admits no more of them than were requested.
type permuter struct {
	n          int
	blocks     [][]int // sample indices per block, deterministic block order
	exhaustive bool
	count      int // draws to produce

	// sampled mode
	rng *rand.Rand

	// exhaustive mode: per-block orderings and an odometer over them
	perBlock [][][]int
	odo      []int
	done     bool

	buf []int
}

func newPermuter(n int, opts Options) (*permuter, error) {
	p := &permuter{n: n, buf: make([]int, n)}

	if opts.Strata == nil {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		p.blocks = [][]int{idx}
	} else {
		byBlock := make(map[int][]int)
		for i, b := range opts.Strata {
			byBlock[b] = append(byBlock[b], i)
		}
		keys := make([]int, 0, len(byBlock))
		for k := range byBlock {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		for _, k := range keys {
			p.blocks = append(p.blocks, byBlock[k])
		}
	}

	// distinct orderings = product of per-block factorials; stop counting
	// once past the requested permutations, resampling takes over there
	distinct := 1
	for _, b := range p.blocks {
		for k := 2; k <= len(b); k++ {
			distinct *= k
			if distinct > opts.Permutations {
				break
			}
		}
		if distinct > opts.Permutations {
			break
		}
	}

	if distinct <= opts.Permutations {
		p.exhaustive = true
		p.count = distinct
		p.perBlock = make([][][]int, len(p.blocks))
		for bi, b := range p.blocks {
			p.perBlock[bi] = combin.Permutations(len(b), len(b))
		}
		p.odo = make([]int, len(p.blocks))
	} else {
		p.count = opts.Permutations
		p.rng = rand.New(rand.NewSource(opts.Seed))
	}
	return p, nil
}

// next returns the following relabelling, or ok=false when the stream is
// exhausted. The returned slice is reused between calls.
func (p *permuter) next() ([]int, bool) {
	if p.exhaustive {
		return p.nextExhaustive()
	}
	if p.count == 0 {
		return nil, false
	}
	p.count--
	for i := range p.buf {
		p.buf[i] = i
	}
	for _, b := range p.blocks {
		p.rng.Shuffle(len(b), func(x, y int) {
			p.buf[b[x]], p.buf[b[y]] = p.buf[b[y]], p.buf[b[x]]
		})
	}
	return p.buf, true
}

func (p *permuter) nextExhaustive() ([]int, bool) {
	if p.done {
		return nil, false
	}
	for bi, b := range p.blocks {
		ord := p.perBlock[bi][p.odo[bi]]
		for k, o := range ord {
			p.buf[b[k]] = b[o]
		}
	}
	// advance the odometer
	for bi := len(p.odo) - 1; ; bi-- {
		if bi < 0 {
			p.done = true
			break
		}
		p.odo[bi]++
		if p.odo[bi] < len(p.perBlock[bi]) {
			break
		}
		p.odo[bi] = 0
	}
	return p.buf, true
}
