package report

import (
	"encoding/json"
	"io"

	"stray/internal/engine/analysis"
	"stray/internal/engine/parser"
)

// JSONRenderer emits the full report as a single JSON document. Field
// order and file order are stable across runs.
type JSONRenderer struct{}

type jsonReport struct {
	Files       []jsonFile       `json:"files"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
	Summary     jsonSummary      `json:"summary"`
}

type jsonFile struct {
	Path    string        `json:"path"`
	Module  string        `json:"module"`
	Imports []jsonVerdict `json:"imports"`
}

type jsonVerdict struct {
	LocalName    string    `json:"local_name"`
	Target       string    `json:"target"`
	Wildcard     bool      `json:"wildcard,omitempty"`
	FromWildcard bool      `json:"from_wildcard,omitempty"`
	ReExport     bool      `json:"re_export,omitempty"`
	Status       string    `json:"status"`
	Used         bool      `json:"used"`
	Line         int       `json:"line"`
	Refs         []jsonLoc `json:"refs,omitempty"`
}

type jsonLoc struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type jsonDiagnostic struct {
	Kind    string `json:"kind"`
	Path    string `json:"path,omitempty"`
	Module  string `json:"module,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message"`
}

type jsonSummary struct {
	Imports     int `json:"imports"`
	Unused      int `json:"unused"`
	Unresolved  int `json:"unresolved"`
	ParseErrors int `json:"parse_errors"`
}

func (r *JSONRenderer) Render(w io.Writer, rep *analysis.Report) error {
	out := jsonReport{
		Files:       make([]jsonFile, 0, len(rep.Files)),
		Diagnostics: make([]jsonDiagnostic, 0, len(rep.Diagnostics)),
		Summary: jsonSummary{
			Imports:     rep.ImportCount(),
			Unused:      rep.UnusedCount(),
			Unresolved:  rep.UnresolvedCount(),
			ParseErrors: rep.ParseErrorCount(),
		},
	}

	for _, file := range rep.Files {
		jf := jsonFile{Path: file.Path, Module: file.Module, Imports: make([]jsonVerdict, 0, len(file.Verdicts))}
		for _, v := range file.Verdicts {
			jf.Imports = append(jf.Imports, jsonVerdict{
				LocalName:    v.LocalName,
				Target:       v.Target,
				Wildcard:     v.Wildcard,
				FromWildcard: v.FromWildcard,
				ReExport:     v.ReExport,
				Status:       v.Status.String(),
				Used:         v.Used,
				Line:         v.Location.Line,
				Refs:         jsonLocs(v.Refs),
			})
		}
		out.Files = append(out.Files, jf)
	}

	for _, d := range rep.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, jsonDiagnostic{
			Kind:    d.Kind.String(),
			Path:    d.Path,
			Module:  d.Module,
			Name:    d.Name,
			Message: d.Message,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func jsonLocs(locs []parser.Location) []jsonLoc {
	if len(locs) == 0 {
		return nil
	}
	out := make([]jsonLoc, len(locs))
	for i, l := range locs {
		out[i] = jsonLoc{Line: l.Line, Column: l.Column}
	}
	return out
}
