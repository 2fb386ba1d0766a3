// Package io reads and writes page records as JSON.
//
// A page record is everything a renderer or annotator needs to draw a page
// without drawing any random numbers of its own: the panel tree with its
// outlines and flags, and every object and bubble with its transforms
// already resolved.
//
// # Format
//
// Keys follow the dataset's existing metadata files, so records written here
// can be rendered by the same downstream tools:
//
//	{
//	  "name": "3f0c…",
//	  "num_panels": 3,
//	  "page_type": "vh",
//	  "page_size": [800, 1200],
//	  "background": "#ffffff",
//	  "transform_noise": 12,
//	  "transform_rotation": 0,
//	  "speech_bubbles": [],
//	  "children": [
//	    {
//	      "name": "3f0c…-0",
//	      "coordinates": [[0, 0], [800, 0], [800, 400], [0, 400], [0, 0]],
//	      "orientation": "",
//	      "non_rect": false, "circular": false, "sliced": false, "no_render": false,
//	      "image": "backgrounds/12.jpg",
//	      "panel_objects": [...],
//	      "speech_bubbles": [...],
//	      "children": []
//	    }
//	  ]
//	}
//
// Coordinates are written closed, with the first vertex repeated, and the
// repetition is dropped on read. A page's own split orientation is written
// under "orientation" when set.
//
// # Round trip
//
// [ReadJSON] of [WriteJSON] output rebuilds an identical tree: the same
// names, coordinates, flags and ordered objects and bubbles. Use
// [ExportJSON] and [ImportJSON] for files, and [Marshal] and [Unmarshal]
// for byte slices such as store values.
package io
