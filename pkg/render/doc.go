// Package render groups the visual outputs derived from page records.
//
// # Wireframe Previews
//
// The [preview] subpackage draws a page as a PNG: panel outlines, removed
// panels hatched, character boxes in blue and speech bubbles in red. It
// does not composite artwork; that is the job of the downstream renderer.
//
//	png, err := preview.PNG(pg, preview.Options{Scale: 0.5, Labels: true})
//
// # Panel Trees
//
// The [treeviz] subpackage renders the panel hierarchy as a Graphviz
// diagram, one node per panel with edges from parent to child.
//
//	dot := treeviz.ToDOT(pg, treeviz.Options{Detailed: true})
//	svg, err := treeviz.RenderSVG(ctx, dot)
package render
