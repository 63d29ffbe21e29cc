package merge

import (
	"cmp"
	"slices"

	"github.com/matzehuels/regionsync/pkg/region"
)

// Edge is a directed region adjacency aggregated from cross-region links.
type Edge struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Weight int      `json:"weight"` // number of links
	Links  []string `json:"links"`  // sorted
}

// Ordering is a topological arrangement of regions into columns.
type Ordering struct {
	// Columns groups regions by topological column, each sorted by ID.
	Columns [][]string `json:"columns"`

	// Column maps each region to its column index.
	Column map[string]int `json:"column"`

	// Edges holds the accepted ordering constraints.
	Edges []Edge `json:"edges"`

	// Excluded holds the edges rejected because they would close a cycle.
	// Their links remain cross-region links; they just do not constrain
	// the ordering.
	Excluded []Edge `json:"excluded,omitempty"`
}

// OrderRegions builds the region adjacency graph of the cross-region links
// and arranges the regions into topological columns.
//
// # Algorithm
//
// Edges are added one at a time, heaviest first (ties by From, then To). An
// edge u->v is rejected when v already reaches u through accepted edges, so
// the accepted graph stays acyclic and the heaviest constraints win. Columns
// are then assigned by longest path with Kahn's algorithm: regions without
// accepted inbound edges sit in column 0, every other region one column past
// its deepest predecessor.
//
// For links A->B, B->C and C->A of equal weight, C->A is the one excluded.
//
// # Performance
//
// Each insertion runs one reachability search, so the total cost is
// O(E·(V+E)) for V regions and E region pairs.
func OrderRegions(regions []string, cross []region.CrossLink) Ordering {
	type pair struct{ from, to string }
	agg := make(map[pair]*Edge)
	for _, cl := range cross {
		if cl.SourceRegion == cl.TargetRegion {
			continue
		}
		k := pair{cl.SourceRegion, cl.TargetRegion}
		e, ok := agg[k]
		if !ok {
			e = &Edge{From: k.from, To: k.to}
			agg[k] = e
		}
		e.Weight++
		e.Links = append(e.Links, cl.ID)
	}
	edges := make([]Edge, 0, len(agg))
	for _, e := range agg {
		slices.Sort(e.Links)
		edges = append(edges, *e)
	}
	slices.SortFunc(edges, func(a, b Edge) int {
		if a.Weight != b.Weight {
			return b.Weight - a.Weight
		}
		if c := cmp.Compare(a.From, b.From); c != 0 {
			return c
		}
		return cmp.Compare(a.To, b.To)
	})

	all := slices.Clone(regions)
	for _, e := range edges {
		all = append(all, e.From, e.To)
	}
	slices.Sort(all)
	all = slices.Compact(all)

	out := Ordering{Column: make(map[string]int, len(all))}
	succ := make(map[string][]string)
	for _, e := range edges {
		if reaches(succ, e.To, e.From) {
			out.Excluded = append(out.Excluded, e)
			continue
		}
		succ[e.From] = append(succ[e.From], e.To)
		out.Edges = append(out.Edges, e)
	}

	inDegree := make(map[string]int, len(all))
	for _, e := range out.Edges {
		inDegree[e.To]++
	}
	queue := make([]string, 0, len(all))
	for _, r := range all {
		if inDegree[r] == 0 {
			queue = append(queue, r)
		}
	}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		next := slices.Clone(succ[curr])
		slices.Sort(next)
		for _, child := range next {
			if col := out.Column[curr] + 1; col > out.Column[child] {
				out.Column[child] = col
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	for _, r := range all {
		c := out.Column[r]
		for len(out.Columns) <= c {
			out.Columns = append(out.Columns, nil)
		}
		out.Columns[c] = append(out.Columns[c], r)
	}
	return out
}

// reaches reports whether to is reachable from from.
func reaches(succ map[string][]string, from, to string) bool {
	if from == to {
		return true
	}
	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, m := range succ[n] {
			if m == to {
				return true
			}
			if !seen[m] {
				seen[m] = true
				stack = append(stack, m)
			}
		}
	}
	return false
}
