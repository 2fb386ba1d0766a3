// Package placement fills the leaf panels of a laid out page with panel
// backgrounds, foreground objects and speech bubbles.
//
// Every leaf gets a drawable region: the panel's interior eroded by a fifth
// of its height and width, so sampled centres stay clear of the borders.
// [Engine.Populate] then, per leaf:
//
//  1. draws a panel background, kept with PanelBackgroundChance
//  2. spawns up to MaxObjects objects, at most one when the panel has no
//     background; each may carry one attached bubble
//  3. spawns up to MaxBubbles unattached bubbles, at most one without a
//     background
//
// Placement is rejection sampling without retries: a candidate whose box
// overlaps one already accepted in the panel, or which resizes below the
// minimum size, is dropped. Pages can therefore hold fewer items than the
// maximums allow.
//
// Sizes are target areas. The rendered size of an item keeps the aspect
// ratio of its artwork, after stretch, and scales it to that area; see
// [panel.PlacedObject.Resized].
package placement
