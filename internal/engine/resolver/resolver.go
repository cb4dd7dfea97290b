package resolver

import (
	"fmt"
	"maps"
	"strings"

	"stray/internal/engine/graph"
	"stray/internal/engine/parser"
	"stray/internal/shared/observability"
	"stray/internal/shared/util"
)

// Status is the outcome of resolving one import binding. Resolution
// failures are data, not errors: they are reported per-import and never
// abort the run.
type Status int

const (
	StatusResolved Status = iota
	StatusModuleNotFound
	StatusSymbolNotFound
	StatusNotVisible
	StatusCyclicImport
	StatusAmbiguous
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "Resolved"
	case StatusModuleNotFound:
		return "ModuleNotFound"
	case StatusSymbolNotFound:
		return "SymbolNotFound"
	case StatusNotVisible:
		return "NotVisible"
	case StatusCyclicImport:
		return "CyclicImport"
	case StatusAmbiguous:
		return "Ambiguous"
	default:
		return "Unknown"
	}
}

type Resolution struct {
	Status Status
	// Module and Decl identify the final target after re-export chasing.
	// For a whole-module reference Decl is zero and IsModuleRef is set.
	Module      string
	Decl        graph.DeclKey
	IsModuleRef bool
	Detail      string
}

// ResolvedImport pairs a binding with its resolution. Wildcard bindings
// expand to one ResolvedImport per public name of the target module; Name
// carries the expanded name and FromWildcard marks its origin.
type ResolvedImport struct {
	Binding      parser.ImportBinding
	Name         string
	FromWildcard bool
	Resolution   Resolution
}

// maxReExportDepth bounds re-export chasing. Chains this deep are either
// cyclic or pathological; both surface as CyclicImport.
const maxReExportDepth = 64

type Resolver struct {
	graph *graph.Graph
}

func New(g *graph.Graph) *Resolver {
	return &Resolver{graph: g}
}

// ResolveFile resolves every import binding of one file, preserving
// binding source order. Wildcard expansions follow their wildcard binding
// in lexicographic name order.
func (r *Resolver) ResolveFile(file *parser.SourceFile) []ResolvedImport {
	// Explicit bindings beat wildcard-introduced names, but only where
	// both are in force: a binding suppresses a wildcard's name when the
	// wildcard's scope can see the binding.
	explicit := make([]parser.ImportBinding, 0, len(file.Imports))
	for _, imp := range file.Imports {
		if !imp.Wildcard {
			explicit = append(explicit, imp)
		}
	}
	explicitAt := func(name string, scope int) bool {
		for _, imp := range explicit {
			if imp.LocalName != name {
				continue
			}
			within, err := file.Scopes.Within(scope, imp.ScopeID)
			if err == nil && within {
				return true
			}
		}
		return false
	}

	// Names supplied by more than one wildcard are ambiguous.
	wildcardHits := make(map[string]int)
	for _, imp := range file.Imports {
		if !imp.Wildcard {
			continue
		}
		if _, ok := r.graph.Module(imp.TargetPath); ok {
			for _, name := range r.surfaceNames(imp.TargetPath, make(map[string]bool), 0) {
				if !explicitAt(name, imp.ScopeID) {
					wildcardHits[name]++
				}
			}
		}
	}

	out := make([]ResolvedImport, 0, len(file.Imports))
	for _, imp := range file.Imports {
		if imp.Wildcard {
			out = append(out, r.expandWildcard(file, imp, explicitAt, wildcardHits)...)
			continue
		}
		res := r.resolvePath(file.ModulePath, imp.TargetPath)
		r.countFailure(res.Status)
		out = append(out, ResolvedImport{
			Binding:    imp,
			Name:       imp.LocalName,
			Resolution: res,
		})
	}
	return out
}

func (r *Resolver) expandWildcard(file *parser.SourceFile, imp parser.ImportBinding, explicitAt func(string, int) bool, wildcardHits map[string]int) []ResolvedImport {
	if _, ok := r.graph.Module(imp.TargetPath); !ok {
		res := Resolution{
			Status: StatusModuleNotFound,
			Detail: fmt.Sprintf("module %s not found", imp.TargetPath),
		}
		r.countFailure(res.Status)
		return []ResolvedImport{{Binding: imp, Name: imp.LocalName, Resolution: res}}
	}

	out := make([]ResolvedImport, 0, 8)
	for _, name := range r.surfaceNames(imp.TargetPath, make(map[string]bool), 0) {
		if explicitAt(name, imp.ScopeID) {
			continue
		}
		var res Resolution
		if wildcardHits[name] > 1 {
			res = Resolution{
				Status: StatusAmbiguous,
				Detail: fmt.Sprintf("name %s is supplied by multiple wildcard imports", name),
			}
		} else {
			res = r.resolveIn(file.ModulePath, imp.TargetPath, name, make(map[string]bool), 0)
		}
		r.countFailure(res.Status)
		out = append(out, ResolvedImport{
			Binding:      imp,
			Name:         name,
			FromWildcard: true,
			Resolution:   res,
		})
	}
	return out
}

// resolvePath resolves a full target path from the importing module.
func (r *Resolver) resolvePath(fromModule, path string) Resolution {
	return r.resolveTarget(fromModule, path, make(map[string]bool), 0)
}

// resolveTarget resolves a target path from the viewpoint of fromModule.
// A path that names a module resolves to the module itself; a
// separator-free path that does not can only name a declaration in the
// crate root, which carries the empty module path. Everything else looks
// up the trailing segment as a symbol in the module named by the prefix.
func (r *Resolver) resolveTarget(fromModule, path string, visited map[string]bool, depth int) Resolution {
	if _, ok := r.graph.Module(path); ok {
		return Resolution{Status: StatusResolved, Module: path, IsModuleRef: true}
	}

	modPath, symbol := splitTarget(path)
	if symbol == "" {
		if _, ok := r.graph.Module(""); ok {
			return r.resolveIn(fromModule, "", path, visited, depth)
		}
		return Resolution{
			Status: StatusModuleNotFound,
			Detail: fmt.Sprintf("module %s not found", path),
		}
	}
	return r.resolveIn(fromModule, modPath, symbol, visited, depth)
}

// resolveIn looks up symbol in the module at modPath, chasing re-exports.
func (r *Resolver) resolveIn(fromModule, modPath, symbol string, visited map[string]bool, depth int) Resolution {
	if depth > maxReExportDepth {
		return Resolution{
			Status: StatusCyclicImport,
			Detail: fmt.Sprintf("re-export chain for %s exceeds depth %d", symbol, maxReExportDepth),
		}
	}

	key := modPath + "\x00" + symbol
	if visited[key] {
		return Resolution{
			Status: StatusCyclicImport,
			Detail: fmt.Sprintf("re-export cycle through %s", joinTarget(modPath, symbol)),
		}
	}
	visited[key] = true

	mod, ok := r.graph.Module(modPath)
	if !ok {
		return Resolution{
			Status: StatusModuleNotFound,
			Detail: fmt.Sprintf("module %s not found", modPath),
		}
	}

	entry, ok := mod.Lookup(symbol)
	if !ok {
		return r.resolveThroughWildcards(mod, modPath, symbol, visited, depth)
	}

	if !entry.Public && !sameOrDescendantModule(fromModule, modPath) {
		return Resolution{
			Status: StatusNotVisible,
			Detail: fmt.Sprintf("%s is private to module %s", symbol, modPath),
		}
	}

	switch entry.Kind {
	case graph.EntryDecl:
		return Resolution{Status: StatusResolved, Module: modPath, Decl: entry.Decl}
	default:
		// A re-exported binding resolves from the re-exporting module's
		// point of view.
		return r.resolveTarget(modPath, entry.Binding.TargetPath, visited, depth+1)
	}
}

// resolveThroughWildcards tries a module's wildcard re-exports for a name
// missing from its explicit surface. Exactly one supplying target
// resolves the name; several make it ambiguous. Branches that fail do not
// leak: a private hit behind a wildcard stays SymbolNotFound, because a
// wildcard re-export forwards public names only.
func (r *Resolver) resolveThroughWildcards(mod *graph.Module, modPath, symbol string, visited map[string]bool, depth int) Resolution {
	var (
		hit    Resolution
		hits   int
		cyclic *Resolution
	)
	for _, imp := range mod.WildcardReExports() {
		// Each branch gets its own trail so one branch's path does not
		// read as a cycle in the next.
		res := r.resolveIn(modPath, imp.TargetPath, symbol, maps.Clone(visited), depth+1)
		switch res.Status {
		case StatusResolved:
			hits++
			hit = res
		case StatusCyclicImport:
			cyclic = &res
		}
	}
	if hits > 1 {
		return Resolution{
			Status: StatusAmbiguous,
			Detail: fmt.Sprintf("name %s reaches %s through multiple wildcard re-exports", symbol, modPath),
		}
	}
	if hits == 1 {
		return hit
	}
	if cyclic != nil {
		return *cyclic
	}
	return Resolution{
		Status: StatusSymbolNotFound,
		Detail: fmt.Sprintf("module %s has no symbol %s", modPath, symbol),
	}
}

// surfaceNames returns every public name importable from modPath in
// sorted order, including names arriving through wildcard re-exports.
func (r *Resolver) surfaceNames(modPath string, seen map[string]bool, depth int) []string {
	if depth > maxReExportDepth || seen[modPath] {
		return nil
	}
	seen[modPath] = true

	mod, ok := r.graph.Module(modPath)
	if !ok {
		return nil
	}
	names := make(map[string]bool)
	for _, name := range mod.PublicNames() {
		names[name] = true
	}
	for _, imp := range mod.WildcardReExports() {
		for _, name := range r.surfaceNames(imp.TargetPath, seen, depth+1) {
			names[name] = true
		}
	}
	return util.SortedStringKeys(names)
}

func (r *Resolver) countFailure(s Status) {
	if s == StatusResolved {
		return
	}
	observability.ResolutionFailuresTotal.WithLabelValues(s.String()).Inc()
}

// sameOrDescendantModule reports whether from is owner or nested inside
// owner, which is the only place a private declaration is visible.
func sameOrDescendantModule(from, owner string) bool {
	fromSegs := util.SplitPath(from)
	ownerSegs := util.SplitPath(owner)
	if len(ownerSegs) > len(fromSegs) {
		return false
	}
	for i, seg := range ownerSegs {
		if fromSegs[i] != seg {
			return false
		}
	}
	return true
}

// splitTarget separates a target path into module prefix and trailing
// symbol. A separator-free path has no module prefix; resolveTarget
// treats it as a crate-root symbol.
func splitTarget(path string) (modPath, symbol string) {
	if idx := strings.LastIndex(path, "::"); idx >= 0 {
		return path[:idx], path[idx+2:]
	}
	if idx := strings.LastIndex(path, "."); idx >= 0 {
		return path[:idx], path[idx+1:]
	}
	return "", ""
}

func joinTarget(modPath, symbol string) string {
	if strings.Contains(modPath, "::") || !strings.Contains(modPath, ".") {
		return modPath + "::" + symbol
	}
	return modPath + "." + symbol
}
