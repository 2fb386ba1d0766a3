// Package treeviz draws the panel hierarchy of a page as a Graphviz graph.
//
// Every panel becomes a node and every split an edge from parent to child.
// Leaves are filled; circular leaves are drawn as ellipses, sliced and
// non-rectangular leaves get a diagonal shape, and suppressed leaves are
// dashed and grey.
//
//	dot := treeviz.ToDOT(page, treeviz.Options{Detailed: true})
//	svg, err := treeviz.RenderSVG(ctx, dot)
//
// The DOT source can also be saved and processed with external Graphviz
// tools. SVG rendering runs in process through
// [github.com/goccy/go-graphviz].
package treeviz
