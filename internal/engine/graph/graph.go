package graph

import (
	"sort"

	"stray/internal/engine/parser"
	"stray/internal/shared/observability"
	"stray/internal/shared/util"
)

// DeclKey addresses a declaration without holding a pointer across module
// boundaries: modules reference each other's declarations by key only, so
// the finished graph is an acyclic value structure safe for shared reads.
type DeclKey struct {
	Module string
	Index  int
}

type EntryKind int

const (
	// EntryDecl is an original declaration owned by the module.
	EntryDecl EntryKind = iota
	// EntryReExport is an import binding that is part of the module's
	// public surface; resolution must chase it further.
	EntryReExport
)

// SurfaceEntry is one name on a module's symbol table.
type SurfaceEntry struct {
	Name     string
	Kind     EntryKind
	Public   bool
	Decl     DeclKey              // valid when Kind == EntryDecl
	Binding  parser.ImportBinding // valid when Kind == EntryReExport
	Location parser.Location
}

// DuplicateDecl is a warning: two public declarations in one module share a
// name. The first is canonical; analysis continues.
type DuplicateDecl struct {
	Module string
	Name   string
	First  parser.Location
	Second parser.Location
}

// Module merges every SourceFile mapped to the same module path.
type Module struct {
	Path  string
	Files []string

	decls           []parser.Declaration
	surface         map[string]SurfaceEntry
	wildcardExports []parser.ImportBinding
}

type Graph struct {
	modules map[string]*Module
	files   map[string]*parser.SourceFile // by file path
}

// Build groups parsed files into modules and assembles each module's
// symbol table. Files are processed in path order so repeated runs over
// the same input produce identical graphs.
func Build(files []*parser.SourceFile) (*Graph, []DuplicateDecl) {
	ordered := make([]*parser.SourceFile, len(files))
	copy(ordered, files)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Path < ordered[j].Path })

	g := &Graph{
		modules: make(map[string]*Module, len(ordered)),
		files:   make(map[string]*parser.SourceFile, len(ordered)),
	}
	var dups []DuplicateDecl

	for _, file := range ordered {
		g.files[file.Path] = file

		mod, ok := g.modules[file.ModulePath]
		if !ok {
			mod = &Module{
				Path:    file.ModulePath,
				surface: make(map[string]SurfaceEntry),
			}
			g.modules[file.ModulePath] = mod
		}
		mod.Files = append(mod.Files, file.Path)

		// Module-scope declarations join the symbol table; nested ones
		// only matter for shadowing and stay with their file.
		for _, decl := range file.Decls {
			if decl.ScopeID != 0 {
				continue
			}
			key := DeclKey{Module: mod.Path, Index: len(mod.decls)}
			mod.decls = append(mod.decls, decl)

			entry := SurfaceEntry{
				Name:     decl.Name,
				Kind:     EntryDecl,
				Public:   decl.Public,
				Decl:     key,
				Location: decl.Location,
			}
			existing, taken := mod.surface[decl.Name]
			if !taken {
				mod.surface[decl.Name] = entry
				continue
			}
			if existing.Public && decl.Public {
				dups = append(dups, DuplicateDecl{
					Module: mod.Path,
					Name:   decl.Name,
					First:  existing.Location,
					Second: decl.Location,
				})
				continue // first public wins
			}
			// A public declaration outranks a private entry holding the
			// same name, so privacy never hides part of the surface.
			if !existing.Public && decl.Public {
				mod.surface[decl.Name] = entry
			}
		}

		// Re-exported bindings extend the public surface. Wildcard
		// re-exports are kept aside: their names are only known once the
		// whole graph exists, so the resolver expands them on demand.
		for _, imp := range file.Imports {
			if !imp.ReExport || imp.ScopeID != 0 {
				continue
			}
			if imp.Wildcard {
				mod.wildcardExports = append(mod.wildcardExports, imp)
				continue
			}
			existing, taken := mod.surface[imp.LocalName]
			if taken {
				if existing.Public {
					dups = append(dups, DuplicateDecl{
						Module: mod.Path,
						Name:   imp.LocalName,
						First:  existing.Location,
						Second: imp.Location,
					})
					continue
				}
				// public re-export outranks a private declaration
			}
			mod.surface[imp.LocalName] = SurfaceEntry{
				Name:     imp.LocalName,
				Kind:     EntryReExport,
				Public:   true,
				Binding:  imp,
				Location: imp.Location,
			}
		}
	}

	observability.ModulesTotal.Set(float64(len(g.modules)))
	return g, dups
}

func (g *Graph) Module(path string) (*Module, bool) {
	mod, ok := g.modules[path]
	return mod, ok
}

func (g *Graph) File(path string) (*parser.SourceFile, bool) {
	f, ok := g.files[path]
	return f, ok
}

func (g *Graph) ModulePaths() []string {
	paths := make([]string, 0, len(g.modules))
	for p := range g.modules {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Lookup finds a name on the module's symbol table, public or private;
// the resolver decides whether a private hit is visible to the importer.
func (m *Module) Lookup(name string) (SurfaceEntry, bool) {
	entry, ok := m.surface[name]
	return entry, ok
}

// PublicNames returns the module's public surface in sorted order. Used
// for wildcard expansion, where deterministic ordering keeps reports
// stable.
func (m *Module) PublicNames() []string {
	names := make([]string, 0, len(m.surface))
	for _, name := range util.SortedStringKeys(m.surface) {
		if m.surface[name].Public {
			names = append(names, name)
		}
	}
	return names
}

// WildcardReExports returns the module's re-exported wildcard bindings.
// Their names join the surface only at resolution time, when the target
// modules are known.
func (m *Module) WildcardReExports() []parser.ImportBinding {
	return m.wildcardExports
}

// Decl resolves a DeclKey issued by this graph.
func (g *Graph) Decl(key DeclKey) (parser.Declaration, bool) {
	mod, ok := g.modules[key.Module]
	if !ok || key.Index < 0 || key.Index >= len(mod.decls) {
		return parser.Declaration{}, false
	}
	return mod.decls[key.Index], true
}
