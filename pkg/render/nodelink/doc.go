// Package nodelink renders the region graph of a placement as a node-link
// diagram.
//
// # Overview
//
// The placement engine arranges regions into topological columns from the
// links between them (see [merge.OrderRegions]). When a placement looks
// wrong, the quickest diagnosis is to look at that graph: which regions were
// ordered before which, how many links each edge carries, and which edges
// were dropped to break cycles.
//
// # Usage
//
// Convert an ordering to DOT format, then render to SVG:
//
//	o := merge.OrderRegions(regions, cross)
//	dot := nodelink.ToDOT(o, nodelink.Options{Excluded: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: region labels carry their column, edge labels their link IDs
//   - Excluded: edges rejected by the ordering are drawn dashed in red
//
// # DOT Format
//
// The [ToDOT] output is plain Graphviz source and can also be rendered with
// the dot command line tool. Columns become rank=same groups laid out left
// to right.
//
// [merge.OrderRegions]: github.com/matzehuels/regionsync/pkg/merge.OrderRegions
package nodelink
