package parser

import (
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// RustExtractor builds SourceFiles from tree-sitter-rust syntax trees.
//
// Paths are normalized to crate-relative form: a leading "crate::" is
// stripped, "self::" and "super::" are rewritten against the declaring
// module. Inside a use declaration only the leading module segment is
// emitted as a reference (a use path goes through that module binding);
// the bound name itself never is, so an import cannot count as its own
// usage.
type RustExtractor struct{}

func NewRustExtractor() *RustExtractor { return &RustExtractor{} }

func (e *RustExtractor) Extract(root *sitter.Node, source []byte, info FileInfo) (*SourceFile, error) {
	file := &SourceFile{
		Path:       info.Path,
		ModulePath: info.ModulePath,
		Scopes:     NewScopeTable(),
	}
	w := &rustWalker{
		file:    file,
		source:  source,
		selfMod: rustSelfBase(info),
	}
	w.walkChildren(root, 0)
	return file, nil
}

// rustSelfBase is the module path that `self::` and `mod name;` resolve
// against. Crate-root files (main.rs, lib.rs) resolve against the crate
// root; every other file resolves against its own module path.
func rustSelfBase(info FileInfo) string {
	switch filepath.Base(info.Path) {
	case "main.rs", "lib.rs":
		return ""
	}
	return info.ModulePath
}

type rustWalker struct {
	file    *SourceFile
	source  []byte
	selfMod string
}

func (w *rustWalker) walkChildren(node *sitter.Node, scope int) {
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil {
			w.walk(child, scope)
		}
	}
}

func (w *rustWalker) walk(node *sitter.Node, scope int) {
	switch node.Kind() {
	case "use_declaration":
		w.extractUse(node, scope)

	case "mod_item":
		w.extractMod(node, scope)

	case "function_item":
		w.extractFunction(node, scope)

	case "struct_item":
		w.extractItem(node, scope, KindStruct, "body")
	case "enum_item":
		w.extractItem(node, scope, KindEnum, "body")
	case "union_item":
		w.extractItem(node, scope, KindStruct, "body")
	case "const_item":
		w.extractItem(node, scope, KindConst, "type", "value")
	case "static_item":
		w.extractItem(node, scope, KindStatic, "type", "value")
	case "type_item":
		w.extractItem(node, scope, KindTypeAlias, "type")
	case "trait_item":
		w.extractItem(node, scope, KindTrait, "body")

	case "impl_item":
		// impl blocks are anonymous; their type expressions are references
		// and their items live in a nested scope.
		if typ := node.ChildByFieldName("type"); typ != nil {
			w.walk(typ, scope)
		}
		if tr := node.ChildByFieldName("trait"); tr != nil {
			w.walk(tr, scope)
		}
		if body := node.ChildByFieldName("body"); body != nil {
			w.walkChildren(body, w.file.Scopes.Push(scope, ScopeBlock))
		}

	case "let_declaration":
		if pat := node.ChildByFieldName("pattern"); pat != nil {
			w.bindPattern(pat, scope)
		}
		if typ := node.ChildByFieldName("type"); typ != nil {
			w.walk(typ, scope)
		}
		if val := node.ChildByFieldName("value"); val != nil {
			w.walk(val, scope)
		}

	case "closure_expression":
		inner := w.file.Scopes.Push(scope, ScopeFunction)
		if params := node.ChildByFieldName("parameters"); params != nil {
			w.bindPattern(params, inner)
		}
		if body := node.ChildByFieldName("body"); body != nil {
			w.walk(body, inner)
		}

	case "block":
		w.walkChildren(node, w.file.Scopes.Push(scope, ScopeBlock))

	case "scoped_identifier", "scoped_type_identifier":
		w.emitPathRef(node, scope)

	case "identifier", "type_identifier", "shorthand_field_identifier":
		w.emitRef(nodeText(node, w.source), node, scope)

	case "line_comment", "block_comment", "string_literal", "raw_string_literal", "char_literal":
		// nothing referencable inside

	default:
		w.walkChildren(node, scope)
	}
}

func (w *rustWalker) extractFunction(node *sitter.Node, scope int) {
	name := nodeText(node.ChildByFieldName("name"), w.source)
	if name != "" {
		w.file.Decls = append(w.file.Decls, Declaration{
			Name:     name,
			Kind:     KindFunction,
			Public:   rustIsPublic(node, w.source),
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
		// The body block shares the function scope; parameters must be
		// visible to shadowing checks inside it.
		w.walkChildren(body, inner)
	}
}

func (w *rustWalker) extractItem(node *sitter.Node, scope int, kind DeclKind, walkFields ...string) {
	name := nodeText(node.ChildByFieldName("name"), w.source)
	if name != "" {
		w.file.Decls = append(w.file.Decls, Declaration{
			Name:     name,
			Kind:     kind,
			Public:   rustIsPublic(node, w.source),
			ScopeID:  scope,
			Location: nodeLocation(node, w.file.Path),
		})
		w.file.Scopes.Bind(scope, name)
	}
	for _, field := range walkFields {
		if child := node.ChildByFieldName(field); child != nil {
			w.walk(child, scope)
		}
	}
}

// extractMod handles both `mod name;` (loads a sibling file: submodule
// declaration plus a module-reference binding tracked for usage) and
// `mod name { ... }` (inline module).
func (w *rustWalker) extractMod(node *sitter.Node, scope int) {
	name := nodeText(node.ChildByFieldName("name"), w.source)
	if name == "" {
		return
	}
	public := rustIsPublic(node, w.source)

	w.file.Decls = append(w.file.Decls, Declaration{
		Name:     name,
		Kind:     KindSubModule,
		Public:   public,
		ScopeID:  scope,
		Location: nodeLocation(node, w.file.Path),
	})
	w.file.Scopes.Bind(scope, name)

	body := node.ChildByFieldName("body")
	if body == nil {
		w.file.Imports = append(w.file.Imports, ImportBinding{
			LocalName:  name,
			TargetPath: joinRustPath(w.selfMod, name),
			ReExport:   public,
			ScopeID:    scope,
			Location:   nodeLocation(node, w.file.Path),
		})
		return
	}
	w.walkChildren(body, w.file.Scopes.Push(scope, ScopeModule))
}

func (w *rustWalker) extractUse(node *sitter.Node, scope int) {
	reexport := rustIsPublic(node, w.source)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "visibility_modifier", "use", ";":
			continue
		}
		// A multi-segment use path reaches its target through the module
		// named by the head segment, so a `mod` binding of that name is
		// in use.
		if head := useTreeHead(child, w.source); head != "" {
			switch head {
			case "crate", "self", "super":
			default:
				w.emitRef(head, child, scope)
			}
		}
		w.extractUseTree(child, "", reexport, scope)
	}
}

// useTreeHead returns the leading segment of a use tree's path, or "" for
// single-segment trees, which have no module prefix to go through.
func useTreeHead(node *sitter.Node, source []byte) string {
	switch node.Kind() {
	case "scoped_identifier", "use_wildcard":
		segs := splitRustPath(nodeText(node, source))
		if len(segs) > 1 {
			return segs[0]
		}
	case "scoped_use_list":
		segs := splitRustPath(nodeText(node.ChildByFieldName("path"), source))
		if len(segs) > 0 {
			return segs[0]
		}
	case "use_as_clause":
		segs := splitRustPath(nodeText(node.ChildByFieldName("path"), source))
		if len(segs) > 1 {
			return segs[0]
		}
	}
	return ""
}

// extractUseTree recursively flattens a use tree into individual bindings.
func (w *rustWalker) extractUseTree(node *sitter.Node, prefix string, reexport bool, scope int) {
	loc := nodeLocation(node, w.file.Path)

	switch node.Kind() {
	case "identifier", "scoped_identifier":
		full := w.normalizePath(joinRustPath(prefix, nodeText(node, w.source)))
		if full == "" {
			return
		}
		w.addUseBinding(lastSegment(full), full, false, reexport, scope, loc)

	case "self":
		// `use a::{self, b}` binds the module a itself.
		if prefix == "" {
			return
		}
		full := w.normalizePath(prefix)
		w.addUseBinding(lastSegment(full), full, false, reexport, scope, loc)

	case "use_as_clause":
		path := node.ChildByFieldName("path")
		alias := node.ChildByFieldName("alias")
		full := w.normalizePath(joinRustPath(prefix, nodeText(path, w.source)))
		local := nodeText(alias, w.source)
		if full == "" || local == "" {
			return
		}
		w.addUseBinding(local, full, false, reexport, scope, loc)

	case "use_list":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "{", "}", ",":
				continue
			}
			w.extractUseTree(child, prefix, reexport, scope)
		}

	case "scoped_use_list":
		path := nodeText(node.ChildByFieldName("path"), w.source)
		if list := node.ChildByFieldName("list"); list != nil {
			w.extractUseTree(list, joinRustPath(prefix, path), reexport, scope)
		}

	case "use_wildcard":
		var target string
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child == nil || child.Kind() == "*" || child.Kind() == "::" {
				continue
			}
			target = nodeText(child, w.source)
		}
		full := w.normalizePath(joinRustPath(prefix, target))
		if full == "" {
			return
		}
		w.file.Imports = append(w.file.Imports, ImportBinding{
			LocalName:  "*",
			TargetPath: full,
			Wildcard:   true,
			ReExport:   reexport,
			ScopeID:    scope,
			Location:   loc,
		})
	}
}

func (w *rustWalker) addUseBinding(local, target string, wildcard, reexport bool, scope int, loc Location) {
	w.file.Imports = append(w.file.Imports, ImportBinding{
		LocalName:  local,
		TargetPath: target,
		Wildcard:   wildcard,
		ReExport:   reexport,
		ScopeID:    scope,
		Location:   loc,
	})
	w.file.Scopes.Bind(scope, local)
}

// bindParameters registers every pattern identifier of a parameter list.
func (w *rustWalker) bindParameters(params *sitter.Node, scope int) {
	for i := uint(0); i < params.ChildCount(); i++ {
		child := params.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "parameter":
			if pat := child.ChildByFieldName("pattern"); pat != nil {
				w.bindPattern(pat, scope)
			}
			if typ := child.ChildByFieldName("type"); typ != nil {
				w.walk(typ, scope)
			}
		case "self_parameter":
			w.file.Scopes.Bind(scope, "self")
		}
	}
}

// bindPattern binds all identifiers inside a (possibly destructuring)
// pattern without emitting them as references.
func (w *rustWalker) bindPattern(pat *sitter.Node, scope int) {
	if pat == nil {
		return
	}
	if pat.Kind() == "identifier" {
		w.file.Scopes.Bind(scope, nodeText(pat, w.source))
		return
	}
	for i := uint(0); i < pat.ChildCount(); i++ {
		w.bindPattern(pat.Child(i), scope)
	}
}

// emitPathRef emits the leading plain segment of a path reference, since
// that is the name a use binding would have introduced. Paths anchored at
// crate/self/super bypass local bindings and emit nothing.
func (w *rustWalker) emitPathRef(node *sitter.Node, scope int) {
	text := nodeText(node, w.source)
	segs := splitRustPath(text)
	if len(segs) == 0 {
		return
	}
	switch segs[0] {
	case "crate", "self", "super":
		return
	}
	w.emitRef(segs[0], node, scope)
}

func (w *rustWalker) emitRef(name string, node *sitter.Node, scope int) {
	if name == "" || name == "_" {
		return
	}
	w.file.Refs = append(w.file.Refs, Reference{
		Name:     name,
		ScopeID:  scope,
		Location: nodeLocation(node, w.file.Path),
	})
}

// normalizePath rewrites crate/self/super anchors into crate-relative form.
func (w *rustWalker) normalizePath(path string) string {
	segs := splitRustPath(path)
	if len(segs) == 0 {
		return ""
	}
	switch segs[0] {
	case "crate":
		segs = segs[1:]
	case "self":
		segs = append(splitRustPath(w.selfMod), segs[1:]...)
	case "super":
		parent := splitRustPath(w.selfMod)
		if len(parent) > 0 {
			parent = parent[:len(parent)-1]
		}
		segs = append(parent, segs[1:]...)
	}
	return strings.Join(segs, "::")
}

func rustIsPublic(node *sitter.Node, source []byte) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == "visibility_modifier" {
			return strings.HasPrefix(nodeText(child, source), "pub")
		}
	}
	return false
}

func joinRustPath(prefix, rest string) string {
	rest = strings.TrimSpace(rest)
	if prefix == "" {
		return rest
	}
	if rest == "" {
		return prefix
	}
	return prefix + "::" + rest
}

func splitRustPath(path string) []string {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	parts := strings.Split(path, "::")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func lastSegment(path string) string {
	segs := splitRustPath(path)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}
