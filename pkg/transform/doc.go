// Package transform distorts the panel tree of a laid out page.
//
// The [Engine] offers one method per transform:
//
//   - [Engine.Slice]: cut a large rectangular leaf in two, either through
//     its middle along a skewed or zig-zag line or across one corner
//   - [Engine.BoxPanels]: tilt the inner edges of three siblings into a
//     trapezoid or rhombus
//   - [Engine.Wobble]: tilt every boundary between the page's children
//   - [Engine.Circular]: mark rectangular leaf children of the page as circular
//   - [Engine.Shrink]: offset every leaf inwards
//   - [Engine.Remove]: suppress a few trailing leaves
//
// [Engine.Apply] combines the first four the way a page generator does:
// it slices, or box transforms and wobbles, or marks circles.
//
// # Shared boundaries
//
// Box and wobble move an edge that two siblings share. The move is carried
// into every descendant with a vertex on that edge, so the tree still tiles
// the page afterwards.
//
// # Failure
//
// Every edit is checked: the polygons it touched must have positive area
// and must not self-intersect. An edit that fails the check is rolled back
// and reported through [Engine.OnSkip]; the page stays as it was before
// that edit. Shrink instead keeps the old outline of any leaf whose offset
// degenerates.
package transform
