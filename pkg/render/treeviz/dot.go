package treeviz

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mangalayout/pkg/panel"
)

// Options configures tree rendering.
type Options struct {
	// Detailed adds the split axis, vertex count, area and contents to
	// the node labels. When false only the panel name is shown.
	Detailed bool
}

// ToDOT converts the panel tree of pg to Graphviz DOT source.
func ToDOT(pg *panel.Page, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	pg.Walk(func(p *panel.Panel) bool {
		attrs := fmtAttrs(p, fmtLabel(p, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", p.Name, strings.Join(attrs, ", "))
		return true
	})

	buf.WriteString("\n")
	pg.Walk(func(p *panel.Panel) bool {
		for _, c := range pg.Children(p.ID) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", p.Name, c.Name)
		}
		return true
	})

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(p *panel.Panel, detailed bool) string {
	if !detailed {
		return p.Name
	}

	var parts []string
	if !p.IsLeaf() {
		parts = append(parts, "split: "+axisName(p.Orientation))
	}
	parts = append(parts,
		fmt.Sprintf("vertices: %d", len(p.Polygon)),
		fmt.Sprintf("area: %.0f", p.Area()))
	if p.IsLeaf() {
		parts = append(parts, fmt.Sprintf("objects: %d", len(p.Objects)), fmt.Sprintf("bubbles: %d", len(p.Bubbles)))
	}
	return p.Name + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(p *panel.Panel, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case !p.IsLeaf():
		return attrs
	case p.Suppressed:
		return append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=grey40")
	case p.Circular:
		attrs = append(attrs, "shape=ellipse", "style=filled")
	case p.Sliced || p.NonRect:
		attrs = append(attrs, "shape=parallelogram", "style=filled")
	}
	return append(attrs, "fillcolor=lightyellow")
}

func axisName(o panel.Orientation) string {
	switch o {
	case panel.Horizontal:
		return "bands"
	case panel.Vertical:
		return "strips"
	}
	return "none"
}

// RenderSVG renders DOT source to SVG using Graphviz.
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

// RenderPage renders the tree of pg straight to SVG.
func RenderPage(ctx context.Context, pg *panel.Page, opts Options) ([]byte, error) {
	return RenderSVG(ctx, ToDOT(pg, opts))
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the root svg tag so the drawing scales from
// the origin.
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

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
