package parser

import (
	"testing"
)

func parseRust(t *testing.T, path, modulePath, code string) *SourceFile {
	t.Helper()
	p := NewParser()
	file, err := p.ParseFile(FileInfo{Path: path, ModulePath: modulePath}, []byte(code))
	if err != nil {
		t.Fatal(err)
	}
	return file
}

func findImport(t *testing.T, file *SourceFile, local string) ImportBinding {
	t.Helper()
	for _, imp := range file.Imports {
		if imp.LocalName == local {
			return imp
		}
	}
	t.Fatalf("no import binding for %q; have %+v", local, file.Imports)
	return ImportBinding{}
}

func findDecl(file *SourceFile, name string) (Declaration, bool) {
	for _, d := range file.Decls {
		if d.Name == name {
			return d, true
		}
	}
	return Declaration{}, false
}

func countRefs(file *SourceFile, name string) int {
	n := 0
	for _, r := range file.Refs {
		if r.Name == name {
			n++
		}
	}
	return n
}

func TestRustUseExtraction(t *testing.T) {
	code := `
use utils::helpers::format_data;
use utils::database::{connect_db, disconnect_db as drop_db};
use std::collections::*;
pub use helper::format_data as fmt;
mod helper;

fn main() {
    let x = format_data();
    drop_db(x);
}
`
	file := parseRust(t, "main.rs", "", code)

	if file.Language != LangRust {
		t.Errorf("Expected rust, got %s", file.Language)
	}

	imp := findImport(t, file, "format_data")
	if imp.TargetPath != "utils::helpers::format_data" {
		t.Errorf("format_data target = %q", imp.TargetPath)
	}
	if imp.ReExport {
		t.Error("plain use must not be a re-export")
	}

	imp = findImport(t, file, "connect_db")
	if imp.TargetPath != "utils::database::connect_db" {
		t.Errorf("connect_db target = %q", imp.TargetPath)
	}

	imp = findImport(t, file, "drop_db")
	if imp.TargetPath != "utils::database::disconnect_db" {
		t.Errorf("aliased target = %q", imp.TargetPath)
	}

	imp = findImport(t, file, "*")
	if !imp.Wildcard || imp.TargetPath != "std::collections" {
		t.Errorf("wildcard binding = %+v", imp)
	}

	imp = findImport(t, file, "fmt")
	if !imp.ReExport {
		t.Error("pub use must be a re-export")
	}
	if imp.TargetPath != "helper::format_data" {
		t.Errorf("fmt target = %q", imp.TargetPath)
	}

	// `mod helper;` is both a declaration and a module-reference binding.
	imp = findImport(t, file, "helper")
	if imp.TargetPath != "helper" {
		t.Errorf("mod binding target = %q", imp.TargetPath)
	}
	decl, ok := findDecl(file, "helper")
	if !ok || decl.Kind != KindSubModule {
		t.Errorf("Expected submodule declaration for helper, got %+v", decl)
	}

	if countRefs(file, "format_data") == 0 {
		t.Error("call to format_data must produce a reference")
	}
	if countRefs(file, "drop_db") == 0 {
		t.Error("call to drop_db must produce a reference")
	}
}

func TestRustUsePathCountsAsModuleUse(t *testing.T) {
	code := `
mod utils;
use utils::helpers::format_data;

fn main() {
    format_data();
}
`
	file := parseRust(t, "main.rs", "", code)

	// The use path goes through the utils module binding.
	if countRefs(file, "utils") == 0 {
		t.Error("use path head must count as a reference to mod utils")
	}
	// But a use never references its own bound name.
	for _, r := range file.Refs {
		if r.Name == "format_data" && r.ScopeID == 0 {
			t.Error("use declaration must not reference its own binding")
		}
	}
}

func TestRustPathAnchors(t *testing.T) {
	code := `
use crate::db::connect;
use self::inner::thing;
use super::database::open;
`
	file := parseRust(t, "utils/helpers.rs", "utils::helpers", code)

	if imp := findImport(t, file, "connect"); imp.TargetPath != "db::connect" {
		t.Errorf("crate path target = %q", imp.TargetPath)
	}
	if imp := findImport(t, file, "thing"); imp.TargetPath != "utils::helpers::inner::thing" {
		t.Errorf("self path target = %q", imp.TargetPath)
	}
	if imp := findImport(t, file, "open"); imp.TargetPath != "utils::database::open" {
		t.Errorf("super path target = %q", imp.TargetPath)
	}

	// Anchored heads are not local names and must not become references.
	for _, name := range []string{"crate", "self", "super"} {
		if countRefs(file, name) != 0 {
			t.Errorf("anchor %q leaked as a reference", name)
		}
	}
}

func TestRustCrateRootSelf(t *testing.T) {
	// In main.rs, `mod name;` and `self::` resolve against the crate root.
	code := `
mod helper;
use self::helper::format_data;
`
	file := parseRust(t, "main.rs", "", code)

	if imp := findImport(t, file, "helper"); imp.TargetPath != "helper" {
		t.Errorf("crate-root mod target = %q", imp.TargetPath)
	}
	if imp := findImport(t, file, "format_data"); imp.TargetPath != "helper::format_data" {
		t.Errorf("crate-root self path target = %q", imp.TargetPath)
	}
}

func TestRustDeclarationsAndVisibility(t *testing.T) {
	code := `
pub fn format_data() -> String { String::new() }
fn internal_helper() {}
pub struct Conn { url: String }
pub(crate) enum Mode { A, B }
const LIMIT: usize = 4;
pub trait Store {}
`
	file := parseRust(t, "utils/helpers.rs", "utils::helpers", code)

	cases := []struct {
		name   string
		kind   DeclKind
		public bool
	}{
		{"format_data", KindFunction, true},
		{"internal_helper", KindFunction, false},
		{"Conn", KindStruct, true},
		{"Mode", KindEnum, true},
		{"LIMIT", KindConst, false},
		{"Store", KindTrait, true},
	}
	for _, c := range cases {
		decl, ok := findDecl(file, c.name)
		if !ok {
			t.Errorf("missing declaration %q", c.name)
			continue
		}
		if decl.Kind != c.kind {
			t.Errorf("%s: kind = %v, want %v", c.name, decl.Kind, c.kind)
		}
		if decl.Public != c.public {
			t.Errorf("%s: public = %v, want %v", c.name, decl.Public, c.public)
		}
	}
}

func TestRustScopesAndShadowing(t *testing.T) {
	code := `
use utils::conn;

fn outer(conn: u32) -> u32 {
    conn + 1
}

fn other() -> u32 {
    conn()
}
`
	file := parseRust(t, "main.rs", "", code)

	binding := findImport(t, file, "conn")
	if binding.ScopeID != 0 {
		t.Fatalf("top-level use bound in scope %d", binding.ScopeID)
	}

	var shadowedRef, freeRef *Reference
	for i, r := range file.Refs {
		if r.Name != "conn" || r.ScopeID == 0 {
			continue
		}
		shadowed, err := file.Scopes.ShadowedBetween("conn", r.ScopeID, 0)
		if err != nil {
			t.Fatal(err)
		}
		if shadowed {
			shadowedRef = &file.Refs[i]
		} else {
			freeRef = &file.Refs[i]
		}
	}
	if shadowedRef == nil {
		t.Error("the conn parameter must shadow the import inside outer")
	}
	if freeRef == nil {
		t.Error("the call in other must reach the import unshadowed")
	}
}

func TestRustInlineModule(t *testing.T) {
	code := `
mod inner {
    pub fn ping() {}
}
`
	file := parseRust(t, "lib.rs", "", code)

	decl, ok := findDecl(file, "inner")
	if !ok || decl.Kind != KindSubModule {
		t.Fatalf("missing inline module declaration")
	}
	// Inline modules have a body; no sibling-file binding is created.
	for _, imp := range file.Imports {
		if imp.LocalName == "inner" {
			t.Error("inline module must not produce an import binding")
		}
	}
	ping, ok := findDecl(file, "ping")
	if !ok {
		t.Fatal("missing nested fn declaration")
	}
	if ping.ScopeID == 0 {
		t.Error("nested fn must live in the inline module scope, not the file scope")
	}
}
