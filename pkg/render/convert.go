package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Raster formats produced by [Convert].
const (
	FormatPDF = "pdf"
	FormatPNG = "png"
)

const rsvgBinary = "rsvg-convert"

// Convert turns rendered SVG into PDF or PNG with librsvg's rsvg-convert.
// Options.Scale zooms PNG output and Options.Background fills the otherwise
// transparent canvas; both are ignored for PDF.
func Convert(ctx context.Context, svg []byte, format string, opts Options) ([]byte, error) {
	args, err := rsvgArgs(format, opts)
	if err != nil {
		return nil, err
	}
	bin, err := exec.LookPath(rsvgBinary)
	if err != nil {
		return nil, fmt.Errorf("%s export needs %s (apt install librsvg2-bin, brew install librsvg)", format, rsvgBinary)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = bytes.NewReader(svg)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", rsvgBinary, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", rsvgBinary, err)
	}
	return out.Bytes(), nil
}

func rsvgArgs(format string, opts Options) ([]string, error) {
	switch format {
	case FormatPDF:
		return []string{"-f", FormatPDF}, nil
	case FormatPNG:
		args := []string{"-f", FormatPNG}
		if opts.Scale > 0 && opts.Scale != 1 {
			args = append(args, "-z", strconv.FormatFloat(opts.Scale, 'f', -1, 64))
		}
		if opts.Background != "" {
			args = append(args, "-b", opts.Background)
		}
		return args, nil
	default:
		return nil, fmt.Errorf("cannot convert SVG to %q", format)
	}
}
