package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"stray/internal/engine/analysis"
	"stray/internal/engine/parser"
	"stray/internal/engine/resolver"
)

func sampleReport() *analysis.Report {
	return &analysis.Report{
		Files: []analysis.FileReport{
			{
				Path:   "main.rs",
				Module: "main",
				Verdicts: []analysis.ImportVerdict{
					{
						LocalName: "format_data",
						Target:    "utils::helpers::format_data",
						Status:    resolver.StatusResolved,
						Used:      true,
						Refs:      []parser.Location{{File: "main.rs", Line: 8, Column: 15}},
						Location:  parser.Location{File: "main.rs", Line: 2, Column: 1},
					},
					{
						LocalName: "process_data",
						Target:    "utils::helpers::process_data",
						Status:    resolver.StatusResolved,
						Used:      false,
						Location:  parser.Location{File: "main.rs", Line: 3, Column: 1},
					},
					{
						LocalName: "ghost",
						Target:    "nowhere::ghost",
						Status:    resolver.StatusModuleNotFound,
						Location:  parser.Location{File: "main.rs", Line: 4, Column: 1},
					},
				},
			},
		},
		Diagnostics: []analysis.Diagnostic{
			{Kind: analysis.DiagParseError, Path: "broken.rs", Message: "malformed source near line 3"},
		},
	}
}

func TestForSelectsRenderer(t *testing.T) {
	for _, format := range []string{"text", "json", "tsv"} {
		if _, err := For(format); err != nil {
			t.Errorf("For(%q) failed: %v", format, err)
		}
	}
	if _, err := For("yaml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextRenderer{}).Render(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	// Used imports are omitted by default; problems are listed.
	if strings.Contains(out, "format_data") {
		t.Error("used import listed without ShowUsed")
	}
	if !strings.Contains(out, "process_data") {
		t.Error("unused import missing from output")
	}
	if !strings.Contains(out, "ModuleNotFound") {
		t.Error("resolution failure status missing from output")
	}
	if !strings.Contains(out, "broken.rs") {
		t.Error("parse diagnostic missing from output")
	}
	if !strings.Contains(out, "3 imports, 1 unused, 1 unresolved, 1 parse errors") {
		t.Errorf("summary line missing:\n%s", out)
	}

	buf.Reset()
	if err := (&TextRenderer{ShowUsed: true}).Render(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "format_data") {
		t.Error("ShowUsed must list used imports")
	}
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONRenderer{}).Render(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Files []struct {
			Path    string `json:"path"`
			Imports []struct {
				LocalName string `json:"local_name"`
				Status    string `json:"status"`
				Used      bool   `json:"used"`
			} `json:"imports"`
		} `json:"files"`
		Summary struct {
			Imports    int `json:"imports"`
			Unused     int `json:"unused"`
			Unresolved int `json:"unresolved"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}

	if len(decoded.Files) != 1 || decoded.Files[0].Path != "main.rs" {
		t.Fatalf("files = %+v", decoded.Files)
	}
	imports := decoded.Files[0].Imports
	if len(imports) != 3 {
		t.Fatalf("Expected 3 imports, got %d", len(imports))
	}
	if imports[0].Status != "Resolved" || !imports[0].Used {
		t.Errorf("first import = %+v", imports[0])
	}
	if imports[2].Status != "ModuleNotFound" {
		t.Errorf("third import = %+v", imports[2])
	}
	if decoded.Summary.Imports != 3 || decoded.Summary.Unused != 1 || decoded.Summary.Unresolved != 1 {
		t.Errorf("summary = %+v", decoded.Summary)
	}
}

func TestTSVRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TSVRenderer{}).Render(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected header + 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "path\tmodule\tlocal_name") {
		t.Errorf("header = %q", lines[0])
	}

	row := strings.Split(lines[1], "\t")
	if len(row) != 8 {
		t.Fatalf("Expected 8 columns, got %d", len(row))
	}
	if row[2] != "format_data" || row[4] != "Resolved" || row[5] != "true" {
		t.Errorf("row = %v", row)
	}
}

func TestRenderingIsDeterministic(t *testing.T) {
	for _, r := range []Renderer{&TextRenderer{}, &JSONRenderer{}, &TSVRenderer{}} {
		var a, b bytes.Buffer
		if err := r.Render(&a, sampleReport()); err != nil {
			t.Fatal(err)
		}
		if err := r.Render(&b, sampleReport()); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a.Bytes(), b.Bytes()) {
			t.Errorf("%T output diverged across identical inputs", r)
		}
	}
}
