package report

import (
	"io"

	"stray/internal/core/errors"
	"stray/internal/engine/analysis"
)

// Renderer writes one analysis report to w in a specific output format.
type Renderer interface {
	Render(w io.Writer, rep *analysis.Report) error
}

// For returns the renderer for a format name validated by the config layer.
func For(format string) (Renderer, error) {
	switch format {
	case "text":
		return &TextRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "tsv":
		return &TSVRenderer{}, nil
	default:
		return nil, errors.Newf(errors.CodeValidation, "unsupported output format %q", format)
	}
}
