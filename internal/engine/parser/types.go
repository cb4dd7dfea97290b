package parser

import (
	"time"
)

type Language string

const (
	LangRust   Language = "rust"
	LangPython Language = "python"
)

// SourceFile is the parsed form of one input file. It is immutable once
// ParseFile returns; every later stage reads it, none mutates it.
type SourceFile struct {
	Path       string
	ModulePath string // logical module path ("utils::helpers", "utils.helpers")
	Language   Language
	Scopes     *ScopeTable
	Imports    []ImportBinding // in source order
	Decls      []Declaration
	Refs       []Reference
	ParsedAt   time.Time
}

// ImportBinding maps a local name to a target path in another module.
// TargetPath is the full normalized path; the resolver decides how to split
// it into module prefix and symbol.
type ImportBinding struct {
	LocalName  string
	TargetPath string
	Wildcard   bool // binds the whole public surface of TargetPath
	ReExport   bool // publicly visible from the importing module
	ScopeID    int
	Location   Location
}

type Declaration struct {
	Name     string
	Kind     DeclKind
	Public   bool
	ScopeID  int
	Location Location
}

// Reference is one identifier occurrence. Path references ("helper::f",
// "pkg.attr") are emitted as their leading segment, since that is the name
// an import binding would have introduced.
type Reference struct {
	Name     string
	ScopeID  int
	Location Location
}

type DeclKind int

const (
	KindFunction DeclKind = iota
	KindStruct
	KindEnum
	KindConst
	KindStatic
	KindTypeAlias
	KindTrait
	KindClass
	KindVariable
	KindSubModule
)

func (k DeclKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindConst:
		return "const"
	case KindStatic:
		return "static"
	case KindTypeAlias:
		return "type"
	case KindTrait:
		return "trait"
	case KindClass:
		return "class"
	case KindVariable:
		return "variable"
	case KindSubModule:
		return "module"
	default:
		return "unknown"
	}
}

type Location struct {
	File   string
	Line   int
	Column int
}

// FileInfo identifies one input to the parser. The discovery component
// derives ModulePath from the project layout; the core never touches the
// filesystem.
type FileInfo struct {
	Path       string
	ModulePath string
}
