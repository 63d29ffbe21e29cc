package merge

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/regionsync/pkg/geom"
	"github.com/matzehuels/regionsync/pkg/layout"
	"github.com/matzehuels/regionsync/pkg/region"
)

// MergeAll splices translated region parts into a copy of master.
//
// Each part is moved by its delta, then its node properties replace the
// master's and its link trees are spliced in: when the master tree of the
// same source still starts at the part's launch point, the part's links are
// re-pathed inside the master tree and the master's other links of that
// source survive; otherwise the part tree replaces it and the master's other
// links of that source are dropped for recovery or routing. Group layers are
// renumbered so no two regions share one, keeping the order given by (old
// layer, region ID). When sliced is non-empty, the sliced overlay modules
// are rebuilt from their owned and unclaimed pieces.
//
// master is never modified.
func MergeAll(master *layout.Layout, parts map[string]*layout.Layout, deltas map[string]geom.Vector, sliced *region.ModuleSliceInfo) (*layout.Layout, error) {
	out := master.Clone()
	for _, rid := range sortedKeys(parts) {
		part := parts[rid].Clone()
		part.Translate(deltas[rid])

		maps.Copy(out.Nodes, part.Nodes)
		for _, src := range part.Sources() {
			if err := splice(out, part.Trees[src]); err != nil {
				return nil, fmt.Errorf("merge region %s: %w", rid, err)
			}
		}
		maps.Copy(out.Groups, part.Groups)
	}
	renumberLayers(out.Groups)

	if sliced != nil && !sliced.Empty() {
		for id, o := range region.Rebuild(*sliced, deltas) {
			dst, ok := out.Overlays[id]
			if !ok {
				out.Overlays[id] = o
				continue
			}
			maps.Copy(dst.Modules, o.Modules)
		}
	}
	return out, nil
}

// splice moves the links of t into l.
func splice(l *layout.Layout, t *layout.LinkTree) error {
	cur, ok := l.Trees[t.Source]
	if !ok || !cur.Start.Eq(t.Start) {
		for _, link := range t.Links() {
			l.RemoveLink(link)
		}
		l.Trees[t.Source] = t
		return nil
	}
	color := cur.Color
	if t.Color != "" {
		color = t.Color
	}
	for _, link := range t.Links() {
		path, err := t.Path(link)
		if err != nil {
			return err
		}
		l.RemoveLink(link)
		if err := l.Tree(t.Source).SetPath(link, path); err != nil {
			return fmt.Errorf("splice %s: %w", link, err)
		}
	}
	l.Tree(t.Source).Color = color
	return nil
}

// renumberLayers makes group layers unique and strictly increasing in (old
// layer, ID) order, never lowering a layer.
func renumberLayers(groups map[string]*layout.GroupProps) {
	ids := slices.SortedFunc(maps.Keys(groups), func(a, b string) int {
		if c := cmp.Compare(groups[a].Layer, groups[b].Layer); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	prev := 0
	for i, id := range ids {
		g := groups[id]
		if i > 0 && g.Layer <= prev {
			g.Layer = prev + 1
		}
		prev = g.Layer
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
