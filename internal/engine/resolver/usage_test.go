package resolver

import (
	"testing"

	"stray/internal/engine/parser"
)

func resolvedImport(name string, scope int) ResolvedImport {
	return ResolvedImport{
		Binding: parser.ImportBinding{
			LocalName: name,
			ScopeID:   scope,
		},
		Name:       name,
		Resolution: Resolution{Status: StatusResolved},
	}
}

func TestTrackUsageBasic(t *testing.T) {
	file := srcFile("main.rs", "")
	fn := file.Scopes.Push(0, parser.ScopeFunction)
	file.Refs = []parser.Reference{
		{Name: "format_data", ScopeID: fn, Location: parser.Location{Line: 8}},
	}

	verdicts, err := TrackUsage(file, []ResolvedImport{
		resolvedImport("format_data", 0),
		resolvedImport("process_data", 0),
	})
	if err != nil {
		t.Fatal(err)
	}

	if !verdicts[0].Used {
		t.Error("format_data is referenced in a nested scope and must be used")
	}
	if len(verdicts[0].Refs) != 1 || verdicts[0].Refs[0].Line != 8 {
		t.Errorf("justifying refs = %+v", verdicts[0].Refs)
	}
	if verdicts[1].Used {
		t.Error("process_data has no references and must be unused")
	}
}

func TestTrackUsageShadowingIsolation(t *testing.T) {
	file := srcFile("main.py", "main")
	fresh := file.Scopes.Push(0, parser.ScopeFunction)
	stale := file.Scopes.Push(0, parser.ScopeFunction)
	file.Scopes.Bind(fresh, "conn") // parameter shadows the import

	file.Refs = []parser.Reference{
		{Name: "conn", ScopeID: fresh, Location: parser.Location{Line: 4}},
	}

	verdicts, err := TrackUsage(file, []ResolvedImport{resolvedImport("conn", 0)})
	if err != nil {
		t.Fatal(err)
	}
	if verdicts[0].Used {
		t.Error("a shadowed reference must not count toward the outer import")
	}

	// The same reference outside the shadowing scope does count.
	file.Refs = append(file.Refs, parser.Reference{Name: "conn", ScopeID: stale, Location: parser.Location{Line: 9}})
	verdicts, err = TrackUsage(file, []ResolvedImport{resolvedImport("conn", 0)})
	if err != nil {
		t.Fatal(err)
	}
	if !verdicts[0].Used {
		t.Error("the unshadowed reference must count")
	}
	if len(verdicts[0].Refs) != 1 || verdicts[0].Refs[0].Line != 9 {
		t.Errorf("justifying refs = %+v", verdicts[0].Refs)
	}
}

func TestTrackUsageSiblingScopeDoesNotCount(t *testing.T) {
	file := srcFile("main.py", "main")
	fnA := file.Scopes.Push(0, parser.ScopeFunction)
	fnB := file.Scopes.Push(0, parser.ScopeFunction)

	// Binding lives inside fnA; a same-named reference in fnB is unrelated.
	file.Refs = []parser.Reference{
		{Name: "helper", ScopeID: fnB},
	}

	verdicts, err := TrackUsage(file, []ResolvedImport{resolvedImport("helper", fnA)})
	if err != nil {
		t.Fatal(err)
	}
	if verdicts[0].Used {
		t.Error("a reference in a sibling scope must not count")
	}
}

func TestTrackUsageUnresolvedStaysDistinct(t *testing.T) {
	file := srcFile("main.py", "main")
	file.Refs = []parser.Reference{
		{Name: "ghost", ScopeID: 0},
	}

	ri := resolvedImport("ghost", 0)
	ri.Resolution = Resolution{Status: StatusModuleNotFound}

	verdicts, err := TrackUsage(file, []ResolvedImport{ri})
	if err != nil {
		t.Fatal(err)
	}
	if verdicts[0].Used {
		t.Error("an unresolved import is broken, never used")
	}
	if len(verdicts[0].Refs) != 0 {
		t.Error("unresolved imports collect no justifying references")
	}
	if verdicts[0].Import.Resolution.Status != StatusModuleNotFound {
		t.Error("the failure status must survive usage tracking")
	}
}

func TestTrackUsageWildcardName(t *testing.T) {
	file := srcFile("main.py", "main")
	file.Refs = []parser.Reference{
		{Name: "alpha", ScopeID: 0},
	}

	alpha := ResolvedImport{
		Binding:      parser.ImportBinding{LocalName: "*", Wildcard: true, ScopeID: 0},
		Name:         "alpha",
		FromWildcard: true,
		Resolution:   Resolution{Status: StatusResolved},
	}
	beta := alpha
	beta.Name = "beta"

	verdicts, err := TrackUsage(file, []ResolvedImport{alpha, beta})
	if err != nil {
		t.Fatal(err)
	}
	if !verdicts[0].Used {
		t.Error("wildcard-expanded alpha is referenced and must be used")
	}
	if verdicts[1].Used {
		t.Error("wildcard-expanded beta is unreferenced and must be unused")
	}
}

func TestTrackUsageForwardReference(t *testing.T) {
	// Textual order is irrelevant: a reference on line 1 can satisfy a
	// binding introduced on line 10 of the same scope chain.
	file := srcFile("main.py", "main")
	file.Refs = []parser.Reference{
		{Name: "late", ScopeID: 0, Location: parser.Location{Line: 1}},
	}

	ri := resolvedImport("late", 0)
	ri.Binding.Location = parser.Location{Line: 10}

	verdicts, err := TrackUsage(file, []ResolvedImport{ri})
	if err != nil {
		t.Fatal(err)
	}
	if !verdicts[0].Used {
		t.Error("forward references within the scope are legal")
	}
}

func TestTrackUsageCorruptScopeIsFatal(t *testing.T) {
	file := srcFile("main.py", "main")
	file.Refs = []parser.Reference{
		{Name: "x", ScopeID: 42}, // no such scope
	}

	_, err := TrackUsage(file, []ResolvedImport{resolvedImport("x", 0)})
	if err == nil {
		t.Fatal("a corrupt scope id must poison the analysis")
	}
}
