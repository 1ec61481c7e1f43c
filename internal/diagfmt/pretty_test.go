package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"lumen/internal/diag"
	"lumen/internal/source"
)

func fixtureBag() (*diag.Bag, *source.FileSet, source.FileID) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("fixture.lm", []byte("fn take(x: &str) -> &str\n"))
	bag := diag.NewBag(8)
	d := diag.NewError(diag.ElabMissingLifetime, source.Span{File: file, Start: 20, End: 24},
		"missing lifetime specifier on return type")
	d.Notes = append(d.Notes, diag.Note{
		Span: source.Span{File: file, Start: 11, End: 15},
		Msg:  "the signature has one reference input",
	})
	d.Fixes = append(d.Fixes, diag.Fix{Title: "name the lifetime: `&'a str`"})
	bag.Add(d)
	return bag, fs, file
}

func TestPrettyHeaderAndUnderline(t *testing.T) {
	bag, fs, _ := fixtureBag()
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true, ShowFixes: true})

	out := buf.String()
	if !strings.Contains(out, "fixture.lm:1:21: ERROR ELB1200: missing lifetime specifier") {
		t.Fatalf("header line missing or wrong:\n%s", out)
	}
	if !strings.Contains(out, "^~~~") {
		t.Fatalf("span underline missing:\n%s", out)
	}
	if !strings.Contains(out, "note: the signature has one reference input (fixture.lm:1:12)") {
		t.Fatalf("note line missing:\n%s", out)
	}
	if !strings.Contains(out, "help: name the lifetime") {
		t.Fatalf("fix line missing:\n%s", out)
	}
}

func TestPrettyUnderlineAlignment(t *testing.T) {
	bag, fs, _ := fixtureBag()
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})

	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected source line and marker, got:\n%s", buf.String())
	}
	src, mark := lines[1], lines[2]
	caret := strings.IndexByte(mark, '^')
	if caret < 0 {
		t.Fatalf("no caret in %q", mark)
	}
	if !strings.HasPrefix(src[caret:], "&str") {
		t.Fatalf("caret at %d does not point at the span: %q", caret, src)
	}
}

func TestJSONOutput(t *testing.T) {
	bag, fs, _ := fixtureBag()
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true, IncludeFixes: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Code != "ELB1200" || d.Severity != "ERROR" {
		t.Fatalf("unexpected code/severity: %q %q", d.Code, d.Severity)
	}
	if d.Location.StartLine != 1 || d.Location.StartCol != 21 {
		t.Fatalf("unexpected location: %+v", d.Location)
	}
	if len(d.Notes) != 1 || len(d.Fixes) != 1 {
		t.Fatalf("notes/fixes not carried: %+v", d)
	}
}

func TestJSONMaxTruncates(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.AddVirtual("fixture.lm", []byte("x\n"))
	bag := diag.NewBag(8)
	for n := 0; n < 3; n++ {
		bag.Add(diag.NewError(diag.ElabInternal, source.Span{File: file}, "boom"))
	}

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{Max: 2}); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 2 {
		t.Fatalf("Max not honored: %d", out.Count)
	}
}
