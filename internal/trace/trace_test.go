package trace

import (
	"bytes"
	"strings"
	"testing"
)

func TestStreamTracerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)

	phase := Begin(tr, ScopePhase, "resolve", 0)
	item := Begin(tr, ScopeItem, "item-f", phase.ID())
	item.End("")
	phase.End("done")

	out := buf.String()
	if !strings.Contains(out, "resolve") {
		t.Fatalf("phase span must be emitted at LevelPhase:\n%s", out)
	}
	if strings.Contains(out, "item-f") {
		t.Fatalf("item span must be filtered at LevelPhase:\n%s", out)
	}
}

func TestSpanBeginEndPairing(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatText)

	sp := Begin(tr, ScopeDriver, "run", 0)
	sp.End("3 items")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected begin and end lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "→ run") {
		t.Fatalf("begin line wrong: %q", lines[0])
	}
	if !strings.Contains(lines[1], "← run") || !strings.Contains(lines[1], "3 items") {
		t.Fatalf("end line wrong: %q", lines[1])
	}
}

func TestNopTracerSpansAreSafe(t *testing.T) {
	sp := Begin(Nop, ScopeDriver, "run", 0)
	if d := sp.End("ignored"); d != 0 {
		t.Fatalf("nop span must not measure time")
	}
	if sp.ID() != 0 {
		t.Fatalf("nop span must not allocate an ID")
	}
	Point(nil, ScopeNode, 0, "noop", "")
}

func TestParseLevelRejectsUnknown(t *testing.T) {
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("unknown level must error")
	}
	lvl, err := ParseLevel("item")
	if err != nil || lvl != LevelItem {
		t.Fatalf("ParseLevel(item) = %v, %v", lvl, err)
	}
}

func TestFormatTextSortsExtras(t *testing.T) {
	ev := Event{Seq: 1, Kind: KindPoint, Name: "p", Extra: map[string]string{"b": "2", "a": "1"}}
	out := string(formatText(ev))
	if !strings.Contains(out, "{a=1, b=2}") {
		t.Fatalf("extras must sort by key: %q", out)
	}
}
