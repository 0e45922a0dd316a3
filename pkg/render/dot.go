package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/crateview/pkg/tree"
)

// Options configures export.
type Options struct {
	// Detailed adds the identifier and kind below each label.
	Detailed bool
	// MaxDepth limits the exported depth; 0 means unlimited.
	MaxDepth int
	// RankDir is the Graphviz layout direction; default "LR".
	RankDir string
	// Scale zooms PNG output; 0 means 1.
	Scale float64
	// Background is a CSS color painted behind PNG output.
	Background string
}

// ToDOT converts a hierarchy to Graphviz DOT format.
// Nodes are keyed by their path from the root, so an entity listed under two
// parents appears twice, exactly as in the tree.
func ToDOT(root *tree.Node, opts Options) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	if root != nil {
		var edges []string
		writeNode(&buf, &edges, root, "n0", 0, opts)
		buf.WriteString("\n")
		for _, e := range edges {
			buf.WriteString(e)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeNode(buf *bytes.Buffer, edges *[]string, n *tree.Node, key string, depth int, opts Options) {
	fmt.Fprintf(buf, "  %q [%s];\n", key, strings.Join(fmtAttrs(n, fmtLabel(n, opts.Detailed)), ", "))
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		return
	}
	for i, c := range n.Children {
		childKey := key + "." + strconv.Itoa(i)
		writeNode(buf, edges, c, childKey, depth+1, opts)
		*edges = append(*edges, fmt.Sprintf("  %q -> %q;\n", key, childKey))
	}
}

func fmtLabel(n *tree.Node, detailed bool) string {
	if !detailed || n.ID == n.Name {
		return n.Name
	}
	return n.Name + "\n" + n.ID + "\n" + string(n.Kind)
}

func fmtAttrs(n *tree.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Kind {
	case tree.KindDataset:
		attrs = append(attrs, "shape=folder", "fillcolor=\"#eef4ff\"")
	case tree.KindLink:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case tree.KindBrokenLink:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "color=red", "fontcolor=red")
	}
	if n.Nested {
		attrs = append(attrs, "penwidth=2", "color=\"#3b6fd8\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [Convert].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
