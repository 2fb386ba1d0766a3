// Package pkg provides the libraries behind mangalayout, a procedural
// generator of comic and manga page layouts.
//
// # Overview
//
// A page is a tree of panels: the root covers the page, inner panels are
// split into bands or strips, and leaves carry characters and speech
// bubbles. The tree is written out as a JSON metadata record that a
// separate renderer turns into an image. The pkg directory is organized as:
//
//  1. [panel], [geom] - Page trees and polygon geometry
//  2. [layout], [transform], [placement] - The generation stages
//  3. [pipeline] - Orchestration of one page and concurrent batches
//  4. [catalog], [config] - Artwork catalogues and tunables
//  5. [io], [store], [cache] - Records, page stores and caches
//  6. [annotate], [render] - COCO annotations, previews and tree diagrams
//  7. [server] - HTTP access to a page store
//
// # Architecture
//
// The data flow for one page:
//
//	config + catalogues + seed
//	         ↓
//	    [layout] (page type, panel count, recipe, splits)
//	         ↓
//	    [transform] (slices, boxes, wobble, circles, shrink)
//	         ↓
//	    [placement] (backgrounds, characters, speech bubbles)
//	         ↓
//	    [io] JSON record → [store]
//
// # Quick Start
//
//	cfg, _ := config.Load("mangalayout.toml")
//	cat, _ := catalog.Load(cfg.Catalog)
//	prober := catalog.NewProber(nil, nil, logger)
//
//	gen := pipeline.NewGenerator(&cfg.Generation, cat, prober, logger)
//	rng := rand.New(rand.NewPCG(1, 2))
//	pg, err := gen.Generate(ctx, rng, layout.Request{})
//
//	pageio.ExportJSON(pg, "out/metadata")
package pkg
