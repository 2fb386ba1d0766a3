// Package geom provides the 2D primitives used to lay out comic pages.
//
// Points and bounding boxes are the [github.com/jbeda/geom] types. A [Polygon]
// is an ordered list of vertices with an implicit closing edge; panels that
// have not been distorted are exactly four corners in clockwise screen order
// (top-left, top-right, bottom-right, bottom-left), where y grows downwards.
//
// # Regions
//
// [NewRegion] rasterizes a polygon and erodes the result with a rectangle
// proportional to the polygon's own size. The surviving pixels form the
// drawable region from which placement points are sampled:
//
//	r, err := geom.NewRegion(poly, 800, 1200)
//	if err != nil {
//	    return err
//	}
//	x, y, err := r.Sample(rng)
//
// # Offsetting
//
// [Offset] shrinks (negative delta) or grows a polygon with the Clipper
// offsetting algorithm using round joins. A result that is not exactly one
// polygon of positive area is reported as a geometry error so callers can
// keep the original outline.
package geom
