// Package render groups the diagnostic renderers of regionsync.
//
// Rendering the synchronized diagram itself is the host application's job;
// the renderers here draw the intermediate structures the core computes, so
// a placement or routing decision can be inspected outside the host.
//
// The [nodelink] subpackage renders the region graph used for placement as
// a Graphviz diagram:
//
//	dot := nodelink.ToDOT(ordering, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/regionsync/pkg/render/nodelink
package render
