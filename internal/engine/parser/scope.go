package parser

import (
	"stray/internal/core/errors"
)

type ScopeKind int

const (
	ScopeModule ScopeKind = iota
	ScopeFunction
	ScopeBlock
	ScopeClass
)

// ScopeTable is an arena of lexical scopes. Scope 0 is always the module
// scope. Cross-references into the table use plain integer ids, never
// pointers, so a finished table can be shared read-only across stages.
type ScopeTable struct {
	parents []int
	kinds   []ScopeKind
	bound   []map[string]bool
}

// NewScopeTable creates a table holding only the module scope.
func NewScopeTable() *ScopeTable {
	return &ScopeTable{
		parents: []int{-1},
		kinds:   []ScopeKind{ScopeModule},
		bound:   []map[string]bool{nil},
	}
}

// Push appends a child scope of parent and returns its id.
func (t *ScopeTable) Push(parent int, kind ScopeKind) int {
	id := len(t.parents)
	t.parents = append(t.parents, parent)
	t.kinds = append(t.kinds, kind)
	t.bound = append(t.bound, nil)
	return id
}

// Bind records a name introduced directly in scope id (declaration, import,
// parameter, local binding). Used for shadowing checks.
func (t *ScopeTable) Bind(id int, name string) {
	if id < 0 || id >= len(t.bound) || name == "" {
		return
	}
	if t.bound[id] == nil {
		t.bound[id] = make(map[string]bool, 4)
	}
	t.bound[id][name] = true
}

func (t *ScopeTable) Binds(id int, name string) bool {
	if id < 0 || id >= len(t.bound) {
		return false
	}
	return t.bound[id][name]
}

func (t *ScopeTable) Kind(id int) ScopeKind {
	if id < 0 || id >= len(t.kinds) {
		return ScopeModule
	}
	return t.kinds[id]
}

func (t *ScopeTable) Len() int {
	return len(t.parents)
}

// Parent returns the parent scope id, or an invariant error for a corrupt
// id. Scope 0 has parent -1.
func (t *ScopeTable) Parent(id int) (int, error) {
	if id < 0 || id >= len(t.parents) {
		return -1, errors.Newf(errors.CodeInternal, "scope %d does not exist", id)
	}
	return t.parents[id], nil
}

// Within reports whether scope id equals ancestor or is nested inside it.
func (t *ScopeTable) Within(id, ancestor int) (bool, error) {
	for id >= 0 {
		if id == ancestor {
			return true, nil
		}
		parent, err := t.Parent(id)
		if err != nil {
			return false, err
		}
		id = parent
	}
	return false, nil
}

// ShadowedBetween reports whether name is re-introduced by any scope on the
// chain from id (inclusive) up to, but excluding, ancestor. A binding in
// ancestor itself never shadows itself.
func (t *ScopeTable) ShadowedBetween(name string, id, ancestor int) (bool, error) {
	for id >= 0 && id != ancestor {
		if t.Binds(id, name) {
			return true, nil
		}
		parent, err := t.Parent(id)
		if err != nil {
			return false, err
		}
		id = parent
	}
	return false, nil
}
