package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/crateview/pkg/render"
	"github.com/matzehuels/crateview/pkg/tree"
)

// Export formats.
const (
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatPDF  = render.FormatPDF
	formatPNG  = render.FormatPNG
	formatJSON = "json"
	formatYAML = "yaml"
)

var validFormats = []string{formatDOT, formatSVG, formatPDF, formatPNG, formatJSON, formatYAML}

type exportOpts struct {
	output     string
	formats    []string
	detailed   bool
	depth      int
	rankdir    string
	scale      float64
	background string
}

func (c *CLI) exportCommand() *cobra.Command {
	var formatsStr string
	opts := exportOpts{rankdir: "LR", scale: 2}

	cmd := &cobra.Command{
		Use:   "export <locator> [nested-reference...]",
		Short: "Write the package hierarchy as a diagram or data file",
		Long: `Export the hierarchy as Graphviz DOT, SVG, PDF, PNG, JSON or YAML.

Several formats may be given separated by commas; each is written to
<output>.<format>. With a single text format and -o -, the result goes to
stdout. PDF and PNG require rsvg-convert (librsvg).`,
		Example: `  crateview export ./survey -f svg
  crateview export ./survey -f dot,json -o out/survey --depth 3
  crateview export ./survey -f yaml -o -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			if opts.output == "-" && (len(opts.formats) != 1 || !isTextFormat(opts.formats[0])) {
				return fmt.Errorf("-o - needs exactly one of dot, svg, json or yaml")
			}

			nav, err := c.openPackage(cmd.Context(), args[0], args[1:]...)
			if err != nil {
				return err
			}
			if opts.output == "" {
				opts.output = slug(nav.Nav().Name)
			}
			return runExport(cmd.Context(), cmd.OutOrStdout(), nav.Tree(), &opts)
		},
	}

	cmd.Flags().StringVarP(&formatsStr, "format", "f", formatSVG, "output formats: dot, svg, pdf, png, json, yaml (comma-separated)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path, or - for stdout (default: package name)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "add identifiers and kinds to diagram labels")
	cmd.Flags().IntVarP(&opts.depth, "depth", "d", 0, "maximum depth to export (0 = unlimited)")
	cmd.Flags().StringVar(&opts.rankdir, "rankdir", opts.rankdir, "Graphviz layout direction: LR, TB, RL, BT")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG resolution scale")
	cmd.Flags().StringVar(&opts.background, "background", "", "PNG background color, e.g. white (default: transparent)")
	return cmd
}

func runExport(ctx context.Context, stdout io.Writer, root *tree.Node, opts *exportOpts) error {
	logger := loggerFromContext(ctx)
	base := basePath(opts.output)

	for _, format := range opts.formats {
		prog := newProgress(logger)
		data, err := exportTree(ctx, root, format, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}

		if opts.output == "-" {
			_, err := stdout.Write(data)
			return err
		}

		path := base + "." + format
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		prog.done("Generated "+path, "bytes", len(data))
		printFile(path)
	}
	return nil
}

// exportTree renders root in one format.
func exportTree(ctx context.Context, root *tree.Node, format string, opts *exportOpts) ([]byte, error) {
	ropts := render.Options{
		Detailed:   opts.detailed,
		MaxDepth:   opts.depth,
		RankDir:    opts.rankdir,
		Scale:      opts.scale,
		Background: opts.background,
	}

	switch format {
	case formatJSON:
		return render.ToJSON(root, ropts)
	case formatYAML:
		return render.ToYAML(root, ropts)
	}

	dot := render.ToDOT(root, ropts)
	if format == formatDOT {
		return []byte(dot), nil
	}
	svg, err := render.RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	if format == formatSVG {
		return svg, nil
	}
	return render.Convert(ctx, svg, format, ropts)
}

// parseFormats splits a comma-separated format list, dropping blanks and
// repeats.
func parseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return []string{formatSVG}
	}
	return out
}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if !slices.Contains(validFormats, f) {
			return fmt.Errorf("invalid format: %s (must be one of %s)", f, strings.Join(validFormats, ", "))
		}
	}
	return nil
}

func isTextFormat(f string) bool {
	return f == formatDOT || f == formatSVG || f == formatJSON || f == formatYAML
}

// basePath strips a known format extension from output.
func basePath(output string) string {
	ext := filepath.Ext(output)
	if slices.Contains(validFormats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slug turns a package name into a file name.
func slug(name string) string {
	s := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if s == "" {
		return "package"
	}
	return s
}
