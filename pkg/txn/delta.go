package txn

import (
	"maps"
	"slices"
	"time"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
)

// Delta summarizes the changes of one finished transaction. All lists are
// sorted.
type Delta struct {
	ID       string    `json:"id" bson:"_id"`
	LayoutID string    `json:"layout_id" bson:"layout_id"`
	Label    string    `json:"label" bson:"label"`
	Started  time.Time `json:"started" bson:"started"`
	Finished time.Time `json:"finished" bson:"finished"`

	AddedNodes   []string `json:"added_nodes,omitempty" bson:"added_nodes,omitempty"`
	RemovedNodes []string `json:"removed_nodes,omitempty" bson:"removed_nodes,omitempty"`
	MovedNodes   []string `json:"moved_nodes,omitempty" bson:"moved_nodes,omitempty"`

	AddedLinks    []string `json:"added_links,omitempty" bson:"added_links,omitempty"`
	RemovedLinks  []string `json:"removed_links,omitempty" bson:"removed_links,omitempty"`
	ReroutedLinks []string `json:"rerouted_links,omitempty" bson:"rerouted_links,omitempty"`

	// Recolored lists the sources whose tree color changed.
	Recolored []string `json:"recolored,omitempty" bson:"recolored,omitempty"`

	// Groups lists the regions whose group properties changed.
	Groups []string `json:"groups,omitempty" bson:"groups,omitempty"`
}

// Empty reports whether the transaction changed nothing.
func (d Delta) Empty() bool {
	return len(d.AddedNodes)+len(d.RemovedNodes)+len(d.MovedNodes)+
		len(d.AddedLinks)+len(d.RemovedLinks)+len(d.ReroutedLinks)+
		len(d.Recolored)+len(d.Groups) == 0
}

// Diff compares two states of a layout.
func Diff(before, after *layout.Layout) Delta {
	var d Delta
	d.AddedNodes, d.RemovedNodes, d.MovedNodes = diffKeys(before.Nodes, after.Nodes, func(a, b *layout.NodeProps) bool {
		return *a == *b
	})

	beforeLinks, afterLinks := paths(before), paths(after)
	d.AddedLinks, d.RemovedLinks, d.ReroutedLinks = diffKeys(beforeLinks, afterLinks, func(a, b []geom.Point) bool {
		return slices.EqualFunc(a, b, geom.Point.Eq)
	})

	for _, src := range after.Sources() {
		if t, ok := before.Trees[src]; ok && t.Color != after.Trees[src].Color {
			d.Recolored = append(d.Recolored, src)
		}
	}

	added, removed, changed := diffKeys(before.Groups, after.Groups, func(a, b *layout.GroupProps) bool {
		return a.Layer == b.Layer && a.Color == b.Color && hintEq(a.Hint, b.Hint)
	})
	d.Groups = slices.Sorted(slices.Values(slices.Concat(added, removed, changed)))
	return d
}

// diffKeys returns the keys only in after, only in before, and in both with
// different values.
func diffKeys[V any](before, after map[string]V, eq func(a, b V) bool) (added, removed, changed []string) {
	for _, k := range slices.Sorted(maps.Keys(after)) {
		b, ok := before[k]
		switch {
		case !ok:
			added = append(added, k)
		case !eq(b, after[k]):
			changed = append(changed, k)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(before)) {
		if _, ok := after[k]; !ok {
			removed = append(removed, k)
		}
	}
	return added, removed, changed
}

func paths(l *layout.Layout) map[string][]geom.Point {
	out := make(map[string][]geom.Point)
	for _, t := range l.Trees {
		for _, link := range t.Links() {
			if p, err := t.Path(link); err == nil {
				out[link] = p
			}
		}
	}
	return out
}

func hintEq(a, b *geom.Point) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Eq(*b)
}
