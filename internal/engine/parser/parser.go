package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"stray/internal/core/errors"
	"stray/internal/shared/observability"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

// Extractor turns a parsed syntax tree into a SourceFile.
type Extractor interface {
	Extract(root *sitter.Node, source []byte, info FileInfo) (*SourceFile, error)
}

type Parser struct {
	pools      map[Language]*ParserPool
	extractors map[Language]Extractor
}

// NewParser binds the statically linked grammars and their extractors.
func NewParser() *Parser {
	rust := sitter.NewLanguage(tree_sitter_rust.Language())
	python := sitter.NewLanguage(tree_sitter_python.Language())

	return &Parser{
		pools: map[Language]*ParserPool{
			LangRust:   NewParserPool(rust),
			LangPython: NewParserPool(python),
		},
		extractors: map[Language]Extractor{
			LangRust:   NewRustExtractor(),
			LangPython: NewPythonExtractor(),
		},
	}
}

// DetectLanguage maps a file path to a supported language, or "".
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rs":
		return LangRust
	case ".py":
		return LangPython
	}
	return ""
}

func (p *Parser) IsSupportedPath(path string) bool {
	return DetectLanguage(path) != ""
}

// ParseFile parses one file into an immutable SourceFile. Failures are
// per-file: callers record them as diagnostics and continue with the rest
// of the project.
func (p *Parser) ParseFile(info FileInfo, content []byte) (*SourceFile, error) {
	lang := DetectLanguage(info.Path)
	if lang == "" {
		return nil, errors.AddContext(errors.New(errors.CodeNotSupported, "unsupported language"), errors.CtxPath, info.Path)
	}

	start := time.Now()
	defer func() {
		observability.ParsingDuration.WithLabelValues(string(lang)).Observe(time.Since(start).Seconds())
	}()

	pool := p.pools[lang]
	sp := pool.Get()
	defer pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeParse, "parse produced no tree"), errors.CtxPath, info.Path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		loc := firstErrorLocation(root)
		return nil, errors.AddContext(errors.Newf(errors.CodeParse, "malformed source near line %d", loc), errors.CtxPath, info.Path)
	}

	extractor := p.extractors[lang]
	if extractor == nil {
		return nil, errors.New(errors.CodeInternal, fmt.Sprintf("no extractor for: %s", lang))
	}

	file, err := extractor.Extract(root, content, info)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParse, "extraction failed")
	}
	file.Language = lang
	file.ParsedAt = time.Now()
	return file, nil
}

// firstErrorLocation finds the line of the first ERROR or MISSING node so
// parse diagnostics point somewhere useful.
func firstErrorLocation(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	if node.IsError() || node.IsMissing() {
		return int(node.StartPosition().Row) + 1
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && child.HasError() {
			return firstErrorLocation(child)
		}
	}
	return int(node.StartPosition().Row) + 1
}

// nodeText returns the source bytes spanned by a node as a trimmed string.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start >= end || end > uint(len(source)) {
		return ""
	}
	return strings.TrimSpace(string(source[start:end]))
}

func nodeLocation(node *sitter.Node, path string) Location {
	return Location{
		File:   path,
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}
