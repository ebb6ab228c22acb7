package trace

import (
	"fmt"
	"math/rand"
)

// Generate returns a random but well-formed trace of n operations with
// request sizes in [0, maxSize], followed by a release of every block still
// live. The same seed always yields the same trace.
func Generate(seed int64, n, maxSize int) *Trace {
	rng := rand.New(rand.NewSource(seed))
	t := &Trace{
		Comments: []string{fmt.Sprintf("generated seed=%d ops=%d max=%d", seed, n, maxSize)},
		Ops:      make([]Op, 0, n+n/2),
	}

	var live []int
	nextID := 0
	size := func() int {
		// Mostly small requests with an occasional large one.
		if rng.Intn(8) == 0 {
			return rng.Intn(maxSize + 1)
		}
		return rng.Intn(min(maxSize, 256) + 1)
	}

	for range n {
		switch r := rng.Intn(10); {
		case len(live) == 0 || r < 5:
			t.Ops = append(t.Ops, Op{Kind: Reserve, ID: nextID, Size: size()})
			live = append(live, nextID)
			nextID++
		case r < 8:
			i := rng.Intn(len(live))
			t.Ops = append(t.Ops, Op{Kind: Release, ID: live[i]})
			live[i] = live[len(live)-1]
			live = live[:len(live)-1]
		default:
			t.Ops = append(t.Ops, Op{Kind: Resize, ID: live[rng.Intn(len(live))], Size: size()})
		}
	}
	for _, id := range live {
		t.Ops = append(t.Ops, Op{Kind: Release, ID: id})
	}
	return t
}
