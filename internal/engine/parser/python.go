package parser

import (
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PythonExtractor builds SourceFiles from tree-sitter-python trees.
//
// Python has no visibility keyword; a leading underscore marks a
// declaration private. Top-level imports in an `__init__` package file are
// treated as re-exports, which is how package surfaces are conventionally
// assembled.
type PythonExtractor struct{}

func NewPythonExtractor() *PythonExtractor { return &PythonExtractor{} }

func (e *PythonExtractor) Extract(root *sitter.Node, source []byte, info FileInfo) (*SourceFile, error) {
	file := &SourceFile{
		Path:       info.Path,
		ModulePath: info.ModulePath,
		Scopes:     NewScopeTable(),
	}
	w := &pyWalker{
		file:      file,
		source:    source,
		isPackage: filepath.Base(info.Path) == "__init__.py",
	}
	w.walkChildren(root, 0)
	return file, nil
}

type pyWalker struct {
	file      *SourceFile
	source    []byte
	isPackage bool
}

func (w *pyWalker) walkChildren(node *sitter.Node, scope int) {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil {
			w.walk(child, scope)
		}
	}
}

func (w *pyWalker) walk(node *sitter.Node, scope int) {
	switch node.Kind() {
	case "import_statement":
		w.extractImport(node, scope)

	case "import_from_statement":
		w.extractFromImport(node, scope)

	case "function_definition":
		w.extractFunction(node, scope)

	case "class_definition":
		w.extractClass(node, scope)

	case "decorated_definition":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child != nil && child.Kind() == "decorator" {
				// decorator expressions are ordinary references
				w.walkChildren(child, scope)
			}
		}
		if def := node.ChildByFieldName("definition"); def != nil {
			w.walk(def, scope)
		}

	case "assignment", "augmented_assignment":
		if left := node.ChildByFieldName("left"); left != nil {
			w.bindAssignTarget(left, scope)
		}
		if typ := node.ChildByFieldName("type"); typ != nil {
			w.walk(typ, scope)
		}
		if right := node.ChildByFieldName("right"); right != nil {
			w.walk(right, scope)
		}

	case "lambda":
		inner := w.file.Scopes.Push(scope, ScopeFunction)
		if params := node.ChildByFieldName("parameters"); params != nil {
			w.bindParameters(params, inner)
		}
		if body := node.ChildByFieldName("body"); body != nil {
			w.walk(body, inner)
		}

	case "for_statement":
		if left := node.ChildByFieldName("left"); left != nil {
			w.bindAssignTarget(left, scope)
		}
		if right := node.ChildByFieldName("right"); right != nil {
			w.walk(right, scope)
		}
		if body := node.ChildByFieldName("body"); body != nil {
			w.walk(body, scope)
		}

	case "attribute":
		// only the base object can resolve against local bindings
		if obj := node.ChildByFieldName("object"); obj != nil {
			w.walk(obj, scope)
		}

	case "keyword_argument":
		if val := node.ChildByFieldName("value"); val != nil {
			w.walk(val, scope)
		}

	case "identifier":
		w.emitRef(nodeText(node, w.source), node, scope)

	case "string", "comment", "integer", "float":
		// nothing referencable inside

	default:
		w.walkChildren(node, scope)
	}
}

func (w *pyWalker) extractFunction(node *sitter.Node, scope int) {
	name := nodeText(node.ChildByFieldName("name"), w.source)
	if name != "" {
		w.file.Decls = append(w.file.Decls, Declaration{
			Name:     name,
			Kind:     KindFunction,
			Public:   pyIsPublic(name),
			ScopeID:  scope,
			Location: nodeLocation(node, w.file.Path),
		})
		w.file.Scopes.Bind(scope, name)
	}

	inner := w.file.Scopes.Push(scope, ScopeFunction)
	if params := node.ChildByFieldName("parameters"); params != nil {
		w.bindParameters(params, inner)
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		w.walk(ret, inner)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		w.walk(body, inner)
	}
}

func (w *pyWalker) extractClass(node *sitter.Node, scope int) {
	name := nodeText(node.ChildByFieldName("name"), w.source)
	if name != "" {
		w.file.Decls = append(w.file.Decls, Declaration{
			Name:     name,
			Kind:     KindClass,
			Public:   pyIsPublic(name),
			ScopeID:  scope,
			Location: nodeLocation(node, w.file.Path),
		})
		w.file.Scopes.Bind(scope, name)
	}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		w.walkChildren(supers, scope)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		w.walk(body, w.file.Scopes.Push(scope, ScopeClass))
	}
}

// extractImport handles `import a.b` / `import a.b as x`. Without an alias
// the bound local name is the leading segment, which is what later
// attribute access goes through.
func (w *pyWalker) extractImport(node *sitter.Node, scope int) {
	loc := nodeLocation(node, w.file.Path)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			target := nodeText(child, w.source)
			if target == "" {
				continue
			}
			w.addImport(strings.Split(target, ".")[0], target, false, scope, loc)
		case "aliased_import":
			target := nodeText(child.ChildByFieldName("name"), w.source)
			alias := nodeText(child.ChildByFieldName("alias"), w.source)
			if target == "" || alias == "" {
				continue
			}
			w.addImport(alias, target, false, scope, loc)
		}
	}
}

// extractFromImport handles `from m import a, b as c` including relative
// modules and `from m import *`.
func (w *pyWalker) extractFromImport(node *sitter.Node, scope int) {
	loc := nodeLocation(node, w.file.Path)

	moduleNode := node.ChildByFieldName("module_name")
	base := w.resolveModuleRef(moduleNode)
	if base == "" && moduleNode == nil {
		return
	}

	sawImportKeyword := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.Kind() == "import" {
			sawImportKeyword = true
			continue
		}
		if !sawImportKeyword {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			name := nodeText(child, w.source)
			if name == "" {
				continue
			}
			w.addImport(name, joinPyPath(base, name), false, scope, loc)
		case "aliased_import":
			name := nodeText(child.ChildByFieldName("name"), w.source)
			alias := nodeText(child.ChildByFieldName("alias"), w.source)
			if name == "" || alias == "" {
				continue
			}
			w.addImport(alias, joinPyPath(base, name), false, scope, loc)
		case "wildcard_import":
			w.file.Imports = append(w.file.Imports, ImportBinding{
				LocalName:  "*",
				TargetPath: base,
				Wildcard:   true,
				ReExport:   w.isReExportScope(scope),
				ScopeID:    scope,
				Location:   loc,
			})
		}
	}
}

// resolveModuleRef normalizes the `from` target, translating relative
// prefixes against the current module path.
func (w *pyWalker) resolveModuleRef(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	if node.Kind() == "dotted_name" {
		return nodeText(node, w.source)
	}
	if node.Kind() != "relative_import" {
		return nodeText(node, w.source)
	}

	dots := 0
	rest := ""
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "import_prefix":
			dots = len(nodeText(child, w.source))
		case "dotted_name":
			rest = nodeText(child, w.source)
		}
	}

	parts := strings.Split(w.file.ModulePath, ".")
	if w.file.ModulePath == "" {
		parts = nil
	}
	// One dot targets the containing package; __init__ files are the
	// package, plain modules live one level inside it.
	if !w.isPackage && len(parts) > 0 {
		parts = parts[:len(parts)-1]
	}
	for d := 1; d < dots && len(parts) > 0; d++ {
		parts = parts[:len(parts)-1]
	}
	return joinPyPath(strings.Join(parts, "."), rest)
}

func (w *pyWalker) addImport(local, target string, wildcard bool, scope int, loc Location) {
	w.file.Imports = append(w.file.Imports, ImportBinding{
		LocalName:  local,
		TargetPath: target,
		Wildcard:   wildcard,
		ReExport:   w.isReExportScope(scope),
		ScopeID:    scope,
		Location:   loc,
	})
	w.file.Scopes.Bind(scope, local)
}

func (w *pyWalker) isReExportScope(scope int) bool {
	return w.isPackage && scope == 0
}

func (w *pyWalker) bindParameters(params *sitter.Node, scope int) {
	for i := uint(0); i < params.ChildCount(); i++ {
		child := params.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier":
			w.file.Scopes.Bind(scope, nodeText(child, w.source))
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			if name := child.ChildByFieldName("name"); name != nil {
				w.file.Scopes.Bind(scope, nodeText(name, w.source))
			} else {
				for j := uint(0); j < child.ChildCount(); j++ {
					sub := child.Child(j)
					if sub != nil && sub.Kind() == "identifier" {
						w.file.Scopes.Bind(scope, nodeText(sub, w.source))
						break
					}
				}
			}
			if typ := child.ChildByFieldName("type"); typ != nil {
				w.walk(typ, scope)
			}
			if val := child.ChildByFieldName("value"); val != nil {
				w.walk(val, scope)
			}
		case "list_splat_pattern", "dictionary_splat_pattern":
			for j := uint(0); j < child.ChildCount(); j++ {
				sub := child.Child(j)
				if sub != nil && sub.Kind() == "identifier" {
					w.file.Scopes.Bind(scope, nodeText(sub, w.source))
				}
			}
		}
	}
}

// bindAssignTarget binds assignment targets; module-scope targets also
// become variable declarations.
func (w *pyWalker) bindAssignTarget(node *sitter.Node, scope int) {
	switch node.Kind() {
	case "identifier":
		name := nodeText(node, w.source)
		if name == "" {
			return
		}
		if scope == 0 {
			w.file.Decls = append(w.file.Decls, Declaration{
				Name:     name,
				Kind:     KindVariable,
				Public:   pyIsPublic(name),
				ScopeID:  scope,
				Location: nodeLocation(node, w.file.Path),
			})
		}
		w.file.Scopes.Bind(scope, name)
	case "pattern_list", "tuple_pattern", "list_pattern":
		for i := uint(0); i < node.ChildCount(); i++ {
			if child := node.Child(i); child != nil {
				w.bindAssignTarget(child, scope)
			}
		}
	default:
		// attribute / subscript targets read their base as an expression
		w.walk(node, scope)
	}
}

func (w *pyWalker) emitRef(name string, node *sitter.Node, scope int) {
	if name == "" {
		return
	}
	w.file.Refs = append(w.file.Refs, Reference{
		Name:     name,
		ScopeID:  scope,
		Location: nodeLocation(node, w.file.Path),
	})
}

func pyIsPublic(name string) bool {
	return !strings.HasPrefix(name, "_")
}

func joinPyPath(base, rest string) string {
	if base == "" {
		return rest
	}
	if rest == "" {
		return base
	}
	return base + "." + rest
}
