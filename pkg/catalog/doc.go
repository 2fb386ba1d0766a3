// Package catalog loads the artwork, text and font catalogues a generation
// run draws from, and probes artwork sizes.
//
// A catalogue is configured as two directories and three CSV files:
//
//   - backgrounds and foregrounds: directories of images, listed sorted by
//     name with hidden files skipped
//   - texts: a CSV with a header; the English column is required, every
//     column is kept on each record
//   - bubbles: a CSV with imagename, label and orientation columns, where
//     label is a JSON list of writing areas
//   - fonts: a headerless CSV of path,flag rows; only rows flagged True are
//     used
//
// [Load] fails with CATALOGUE_EMPTY when any of the five comes back empty.
//
// [Prober] decodes only image headers and keeps the result in a
// [cache.Cache], keyed on path, size and modification time:
//
//	c := cache.Tiered{cache.NewMemoryCache(cache.DefaultMemoryExpiration, cache.DefaultCleanupInterval), fileCache}
//	w, h, err := catalog.NewProber(c, nil, logger).Size(ctx, path)
package catalog
