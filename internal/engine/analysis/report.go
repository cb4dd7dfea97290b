package analysis

import (
	"stray/internal/engine/parser"
	"stray/internal/engine/resolver"
)

type DiagnosticKind int

const (
	DiagParseError DiagnosticKind = iota
	DiagDuplicateDeclaration
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagParseError:
		return "ParseError"
	case DiagDuplicateDeclaration:
		return "DuplicateDeclaration"
	default:
		return "Unknown"
	}
}

// Diagnostic is a non-fatal problem surfaced alongside the report: a file
// that failed to parse, or a module with colliding public declarations.
type Diagnostic struct {
	Kind      DiagnosticKind
	Path      string
	Module    string
	Name      string
	Message   string
	Locations []parser.Location
}

func (d Diagnostic) less(other Diagnostic) bool {
	if d.Kind != other.Kind {
		return d.Kind < other.Kind
	}
	if d.Path != other.Path {
		return d.Path < other.Path
	}
	if d.Module != other.Module {
		return d.Module < other.Module
	}
	return d.Name < other.Name
}

// ImportVerdict is the flattened, renderer-facing form of one classified
// import binding.
type ImportVerdict struct {
	LocalName    string
	Target       string
	Wildcard     bool
	FromWildcard bool
	ReExport     bool
	Status       resolver.Status
	Used         bool
	Refs         []parser.Location
	Location     parser.Location
}

type FileReport struct {
	Path     string
	Module   string
	Verdicts []ImportVerdict
}

// Report is the complete analysis output. Files are ordered by path and
// verdicts by source position, so identical input yields byte-identical
// rendered output.
type Report struct {
	Files       []FileReport
	Diagnostics []Diagnostic
}

func newImportVerdict(v resolver.UsageVerdict) ImportVerdict {
	return ImportVerdict{
		LocalName:    v.Import.Name,
		Target:       v.Import.Binding.TargetPath,
		Wildcard:     v.Import.Binding.Wildcard,
		FromWildcard: v.Import.FromWildcard,
		ReExport:     v.Import.Binding.ReExport,
		Status:       v.Import.Resolution.Status,
		Used:         v.Used,
		Refs:         v.Refs,
		Location:     v.Import.Binding.Location,
	}
}

// UnusedCount returns how many resolved bindings carry no usage.
func (r *Report) UnusedCount() int {
	n := 0
	for _, f := range r.Files {
		for _, v := range f.Verdicts {
			if v.Status == resolver.StatusResolved && !v.Used {
				n++
			}
		}
	}
	return n
}

// UnresolvedCount returns how many bindings failed resolution.
func (r *Report) UnresolvedCount() int {
	n := 0
	for _, f := range r.Files {
		for _, v := range f.Verdicts {
			if v.Status != resolver.StatusResolved {
				n++
			}
		}
	}
	return n
}

// ImportCount returns the total number of verdicts.
func (r *Report) ImportCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Verdicts)
	}
	return n
}

// ModuleCount returns how many distinct modules the analyzed files map to.
func (r *Report) ModuleCount() int {
	seen := make(map[string]bool, len(r.Files))
	for _, f := range r.Files {
		seen[f.Module] = true
	}
	return len(seen)
}

// ParseErrorCount returns the number of files that failed to parse.
func (r *Report) ParseErrorCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == DiagParseError {
			n++
		}
	}
	return n
}
