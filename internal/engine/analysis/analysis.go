package analysis

import (
	"context"
	"runtime"
	"sort"
	"time"

	"stray/internal/core/errors"
	"stray/internal/engine/graph"
	"stray/internal/engine/parser"
	"stray/internal/engine/resolver"
	"stray/internal/shared/observability"

	"golang.org/x/sync/errgroup"
)

// FileInput is one unit of work supplied by the discovery component. The
// core never reads the filesystem itself.
type FileInput struct {
	Path       string
	ModulePath string
	Source     []byte
}

type Runner struct {
	parser  *parser.Parser
	workers int
}

func NewRunner() *Runner {
	return &Runner{
		parser:  parser.NewParser(),
		workers: runtime.NumCPU(),
	}
}

// Run executes the full pipeline: parallel parse, then sequential graph
// build, resolution and usage tracking over the immutable results.
//
// Per-file and per-import failures are recorded in the report's
// diagnostics; only an internal invariant violation (corrupt scope graph)
// is returned as an error.
func (r *Runner) Run(ctx context.Context, inputs []FileInput) (*Report, error) {
	ctx, span := observability.Tracer.Start(ctx, "analysis.Run")
	defer span.End()

	files, diags, err := r.parseAll(ctx, inputs)
	if err != nil {
		return nil, err
	}

	stage := time.Now()
	g, dups := graph.Build(files)
	observability.AnalysisDuration.WithLabelValues("graph").Observe(time.Since(stage).Seconds())
	for _, d := range dups {
		diags = append(diags, Diagnostic{
			Kind:      DiagDuplicateDeclaration,
			Module:    d.Module,
			Name:      d.Name,
			Message:   "duplicate public declaration, first occurrence wins",
			Locations: []parser.Location{d.First, d.Second},
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stage = time.Now()
	res := resolver.New(g)
	report := &Report{Diagnostics: diags}
	importCount := 0
	unusedCount := 0

	for _, file := range files {
		resolved := res.ResolveFile(file)
		verdicts, err := resolver.TrackUsage(file, resolved)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "usage tracking failed")
		}

		fr := FileReport{Path: file.Path, Module: file.ModulePath}
		for _, v := range verdicts {
			importCount++
			if v.Import.Resolution.Status == resolver.StatusResolved && !v.Used {
				unusedCount++
			}
			fr.Verdicts = append(fr.Verdicts, newImportVerdict(v))
		}
		report.Files = append(report.Files, fr)
	}
	observability.AnalysisDuration.WithLabelValues("resolve").Observe(time.Since(stage).Seconds())

	observability.ImportsTotal.Set(float64(importCount))
	observability.UnusedImportsTotal.Set(float64(unusedCount))

	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Path < report.Files[j].Path })
	sort.Slice(report.Diagnostics, func(i, j int) bool { return report.Diagnostics[i].less(report.Diagnostics[j]) })
	return report, nil
}

// parseAll fans out one task per file and joins before anything downstream
// runs. Each task owns its input and writes only its own result slot, so
// no locking is needed across the barrier.
func (r *Runner) parseAll(ctx context.Context, inputs []FileInput) ([]*parser.SourceFile, []Diagnostic, error) {
	stage := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues("parse").Observe(time.Since(stage).Seconds())
	}()

	type slot struct {
		file *parser.SourceFile
		err  error
	}
	results := make([]slot, len(inputs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.workers)
	for i, in := range inputs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			file, err := r.parser.ParseFile(parser.FileInfo{Path: in.Path, ModulePath: in.ModulePath}, in.Source)
			results[i] = slot{file: file, err: err}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	files := make([]*parser.SourceFile, 0, len(inputs))
	var diags []Diagnostic
	for i, res := range results {
		if res.err != nil {
			observability.ParseFailuresTotal.Inc()
			diags = append(diags, Diagnostic{
				Kind:    DiagParseError,
				Path:    inputs[i].Path,
				Module:  inputs[i].ModulePath,
				Message: res.err.Error(),
			})
			continue
		}
		files = append(files, res.file)
	}
	return files, diags, nil
}
