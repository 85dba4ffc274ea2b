package duplicates

import (
	"cmp"
	"slices"

	pq "github.com/emirpasic/gods/queues/priorityqueue"
)

// selector applies the fragment cap. Unranked it keeps the first N in
// scan order; ranked it keeps the N highest lines×similarity in a bounded
// min-heap.
type selector struct {
	limit  int
	ranked bool
	first  []Fragment
	heap   *pq.Queue
	seq    int
}

type rankedFragment struct {
	fragment Fragment
	value    float64
	seq      int
}

// byValue orders the heap so the weakest fragment is on top. Among equal
// values the later-found fragment is weaker.
func byValue(a, b interface{}) int {
	x, y := a.(rankedFragment), b.(rankedFragment)
	if c := cmp.Compare(x.value, y.value); c != 0 {
		return c
	}
	return cmp.Compare(y.seq, x.seq)
}

func newSelector(cfg Config) *selector {
	s := &selector{limit: cfg.MaxFragments, ranked: cfg.Ranked}
	if s.ranked {
		s.heap = pq.NewWith(byValue)
	}
	return s
}

func (s *selector) add(f Fragment) {
	if !s.ranked {
		if len(s.first) < s.limit {
			s.first = append(s.first, f)
		}
		return
	}

	s.heap.Enqueue(rankedFragment{fragment: f, value: float64(f.Lines) * f.Similarity, seq: s.seq})
	s.seq++
	if s.heap.Size() > s.limit {
		s.heap.Dequeue()
	}
}

// result returns the kept fragments, never nil. Ranked output is highest
// value first, ties in scan order.
func (s *selector) result() []Fragment {
	if !s.ranked {
		if s.first == nil {
			return []Fragment{}
		}
		return s.first
	}

	kept := make([]rankedFragment, 0, s.heap.Size())
	for _, v := range s.heap.Values() {
		kept = append(kept, v.(rankedFragment))
	}
	slices.SortFunc(kept, func(a, b rankedFragment) int {
		return -byValue(a, b)
	})

	out := make([]Fragment, len(kept))
	for i, k := range kept {
		out[i] = k.fragment
	}
	return out
}
