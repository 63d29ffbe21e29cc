package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/regionsync/pkg/merge"
)

// Options configures region graph rendering.
type Options struct {
	// Detailed adds the column index to region labels and the link IDs to
	// edge labels. When false, only region IDs and link counts are shown.
	Detailed bool `json:"detailed,omitempty"`

	// Excluded draws the edges rejected by the ordering as dashed red
	// arrows.
	Excluded bool `json:"excluded,omitempty"`
}

// ToDOT converts a region ordering to Graphviz DOT format. Regions of one
// column share a rank, so the drawing reads left to right in column order.
// The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(o merge.Ordering, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph regions {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for col, ids := range o.Columns {
		quoted := make([]string, len(ids))
		for i, id := range ids {
			quoted[i] = strconv.Quote(id)
		}
		fmt.Fprintf(&buf, "  { rank=same; %s; }\n", strings.Join(quoted, "; "))
		for _, id := range ids {
			fmt.Fprintf(&buf, "  %q [label=%q];\n", id, fmtLabel(id, col, opts.Detailed))
		}
	}

	buf.WriteString("\n")
	for _, e := range o.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(fmtAttrs(e, opts.Detailed, false), ", "))
	}
	if opts.Excluded {
		for _, e := range o.Excluded {
			fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(fmtAttrs(e, opts.Detailed, true), ", "))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(id string, col int, detailed bool) string {
	if !detailed {
		return id
	}
	return fmt.Sprintf("%s\ncolumn: %d", id, col)
}

func fmtAttrs(e merge.Edge, detailed, excluded bool) []string {
	label := strconv.Itoa(e.Weight)
	if detailed {
		label = strings.Join(e.Links, "\n")
	}
	attrs := []string{fmt.Sprintf("label=%q", label), fmt.Sprintf("penwidth=%d", min(e.Weight, 6))}
	if excluded {
		attrs = append(attrs, "style=dashed", "color=red", "constraint=false")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the drawing starts at the origin
// and scales with its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
