// Package layout builds the initial panel tree of a page.
//
// # Primitives
//
// Three splitting primitives cut a four-cornered panel along an axis:
//
//   - [SplitEqual]: n children of equal extent
//   - [SplitWeighted]: n children with given shares of the extent
//   - [SplitTwo]: two children divided at a fractional shift
//
// With axis [panel.Horizontal] the children are bands stacked top to bottom;
// with [panel.Vertical] they are strips from left to right. The parent
// records the axis in its Orientation. Children always tile the parent:
// neighbouring children share their boundary vertices exactly and the last
// child ends on the parent edge.
//
// # Recipes
//
// Mixed pages with one to eight panels are built from a fixed catalogue of
// [Recipe] values, listed by [Recipes]. Most are [Rows] compositions: a first
// split of the page, followed by sub splits of chosen children along the
// other axis. A few recipes ([DivideTwice], [QuarterSplit],
// [GrandchildSplit]) recurse one level deeper. Pages of a single orientation
// use [Strips] with three to five panels, and counts above eight fall back
// to a [Grid] whose panel count is approximate.
//
// # Randomness
//
// Every draw comes from the *rand.Rand handed to [Generator.Generate]. For a
// fixed seed, config and request the resulting tree is identical.
//
//	gen := layout.NewGenerator(&cfg.Generation, logger)
//	pg, err := gen.Generate(rand.New(rand.NewPCG(1, 2)), layout.Request{Count: 4, Recipe: "eq"})
package layout
