package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"stray/internal/engine/analysis"
	"stray/internal/engine/parser"
	"stray/internal/shared/util"

	"github.com/gobwas/glob"
)

// Options controls project traversal. Exclude patterns match base names,
// mirroring common ignore semantics (".git", "target", "*.gen.rs"). An
// empty Languages list means every supported dialect.
type Options struct {
	Root         string
	ExcludeDirs  []string
	ExcludeFiles []string
	Languages    []string
}

// Discover walks the project root and returns the inputs the analysis
// core consumes. All filesystem policy lives here; the core never sees a
// path it has to read.
func Discover(opts Options) ([]analysis.FileInput, error) {
	dirGlobs, err := compileGlobs(opts.ExcludeDirs)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude dir pattern: %w", err)
	}
	fileGlobs, err := compileGlobs(opts.ExcludeFiles)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude file pattern: %w", err)
	}

	root := opts.Root
	if root == "" {
		root = "."
	}

	var inputs []analysis.FileInput
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		base := filepath.Base(path)
		if d.IsDir() {
			for _, g := range dirGlobs {
				if g.Match(base) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		lang := parser.DetectLanguage(path)
		if lang == "" || !languageEnabled(opts.Languages, string(lang)) {
			return nil
		}
		for _, g := range fileGlobs {
			if g.Match(base) {
				return nil
			}
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		inputs = append(inputs, analysis.FileInput{
			Path:       path,
			ModulePath: ModulePathFor(rel),
			Source:     content,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Path < inputs[j].Path })
	return inputs, nil
}

// ModulePathFor derives the logical module path from a project-relative
// file path. Rust files join directories with "::" ("utils/database.rs" →
// "utils::database"; "utils/mod.rs" → "utils"), and the crate roots
// "main.rs" and "lib.rs" name the enclosing module itself, so at the top
// level they map to the empty crate-root path the extractor resolves
// "crate::" against. Python files join with "." and "__init__.py" names
// the containing package.
func ModulePathFor(rel string) string {
	rel = filepath.ToSlash(rel)
	ext := filepath.Ext(rel)
	segs := strings.Split(strings.TrimSuffix(rel, ext), "/")
	if len(segs) == 0 {
		return ""
	}

	switch ext {
	case ".rs":
		switch segs[len(segs)-1] {
		case "mod", "main", "lib":
			segs = segs[:len(segs)-1]
		}
		return strings.Join(segs, "::")
	case ".py":
		if segs[len(segs)-1] == "__init__" {
			segs = segs[:len(segs)-1]
		}
		return strings.Join(segs, ".")
	}
	return strings.Join(segs, "/")
}

func languageEnabled(enabled []string, lang string) bool {
	if len(enabled) == 0 {
		return true
	}
	for _, e := range enabled {
		if e == lang {
			return true
		}
	}
	return false
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(util.NormalizePatternPath(p))
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}
