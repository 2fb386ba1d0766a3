// Package panel defines the tree that describes a comic page.
//
// A [Page] owns an arena of [Panel] nodes addressed by [ID]. The root (ID 0)
// covers the whole page; every other panel records its parent and the
// ordered IDs of its children. Only leaf panels are rendered and populated
// with [PlacedObject] and [SpeechBubble] values.
//
// Panels are named hierarchically: the root carries the page name and the
// i-th child of a panel named "p" is "p-i".
//
// # Geometry
//
// Each panel caches its bounding box and area. Code that edits
// [Panel.Polygon] directly must call [Panel.Refresh] (or [Page.Refresh])
// before anything reads the cached values:
//
//	p.Polygon[1].X -= 12
//	p.Refresh()
//	area := p.Area()
//
// # Leaves
//
// [Page.Leaves] returns the rendered leaves depth-first, left to right. The
// result is memoised until the tree changes shape; suppressed panels (see
// [Page.Suppress]) are dropped from it.
package panel
