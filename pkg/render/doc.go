// Package render exports a package hierarchy for viewing outside the
// terminal.
//
// # Formats
//
//   - DOT: [ToDOT] writes a Graphviz digraph, one box per node
//   - SVG: [RenderSVG] lays out DOT with the embedded Graphviz library
//   - PDF/PNG: [Convert] runs rsvg-convert over the SVG
//   - JSON/YAML: [ToJSON] and [ToYAML] serialize the node tree
//
//	dot := render.ToDOT(root, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//	pdf, err := render.Convert(ctx, svg, render.FormatPDF, render.Options{})
//
// Node styles follow the tree kinds: datasets are folders, files are plain
// boxes, cycle links are dashed and broken links are drawn in red.
package render
