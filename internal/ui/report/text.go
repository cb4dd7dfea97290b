package report

import (
	"bufio"
	"fmt"
	"io"

	"stray/internal/engine/analysis"
	"stray/internal/engine/resolver"
)

// TextRenderer writes a human-readable summary. Unused and unresolved
// imports are the headline; used imports only appear with -verbose style
// formats (json, tsv).
type TextRenderer struct {
	// ShowUsed includes resolved-and-used imports in the listing.
	ShowUsed bool
}

func (r *TextRenderer) Render(w io.Writer, rep *analysis.Report) error {
	bw := bufio.NewWriter(w)

	for _, file := range rep.Files {
		printed := false
		for _, v := range file.Verdicts {
			if !r.ShowUsed && v.Status == resolver.StatusResolved && v.Used {
				continue
			}
			if !printed {
				fmt.Fprintf(bw, "%s (module %s)\n", file.Path, file.Module)
				printed = true
			}
			fmt.Fprintf(bw, "  %s\n", verdictLine(v))
		}
		if printed {
			fmt.Fprintln(bw)
		}
	}

	for _, d := range rep.Diagnostics {
		switch d.Kind {
		case analysis.DiagParseError:
			fmt.Fprintf(bw, "parse error: %s: %s\n", d.Path, d.Message)
		case analysis.DiagDuplicateDeclaration:
			fmt.Fprintf(bw, "duplicate declaration: %s in module %s (%s)\n", d.Name, d.Module, d.Message)
		}
	}
	if len(rep.Diagnostics) > 0 {
		fmt.Fprintln(bw)
	}

	fmt.Fprintf(bw, "%d imports, %d unused, %d unresolved, %d parse errors\n",
		rep.ImportCount(), rep.UnusedCount(), rep.UnresolvedCount(), rep.ParseErrorCount())

	return bw.Flush()
}

func verdictLine(v analysis.ImportVerdict) string {
	state := "unused"
	if v.Status != resolver.StatusResolved {
		state = v.Status.String()
	} else if v.Used {
		state = fmt.Sprintf("used (%d refs)", len(v.Refs))
	}

	target := v.Target
	if v.Wildcard {
		target += " (wildcard)"
	}
	if v.FromWildcard {
		return fmt.Sprintf("%-24s %s  via wildcard %s (line %d)", v.LocalName, state, target, v.Location.Line)
	}
	return fmt.Sprintf("%-24s %s  from %s (line %d)", v.LocalName, state, target, v.Location.Line)
}
