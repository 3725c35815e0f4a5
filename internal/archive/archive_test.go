package archive

import (
	"strings"
	"testing"
)

func TestScaffold_TopLevelActivity(t *testing.T) {
	data := string(Scaffold("piano"))
	if !strings.Contains(data, "# piano") {
		t.Errorf("missing title:\n%s", data)
	}
	if !strings.Contains(data, SubActivitiesHeading) || !strings.Contains(data, Placeholder) {
		t.Errorf("missing sub-activities scaffold:\n%s", data)
	}
	if strings.Contains(data, "**Parent**") {
		t.Errorf("top-level file must not declare a parent:\n%s", data)
	}
}

func TestScaffold_SubKeyDeclaresParent(t *testing.T) {
	data := string(Scaffold("piano.c"))
	if !strings.Contains(data, "**Parent**: [[piano]]") {
		t.Errorf("missing parent declaration:\n%s", data)
	}
	if strings.Contains(data, Placeholder) {
		t.Errorf("sub-key file should not carry the placeholder:\n%s", data)
	}
}

func TestScaffold_Project(t *testing.T) {
	data := string(Scaffold("P.website-redesign"))
	if !strings.Contains(data, "tags: [project]") {
		t.Errorf("project frontmatter missing:\n%s", data)
	}
	if strings.Contains(data, Placeholder) || strings.Contains(data, "**Parent**") {
		t.Errorf("projects are flat:\n%s", data)
	}
}

func TestAppendEntry_NewSectionAndDedup(t *testing.T) {
	data := Scaffold("piano")
	data = AppendEntry(data, "2026-08-30", "45min Bach")
	if !HasEntry(data, "2026-08-30", "45min Bach") {
		t.Fatalf("entry not found after append:\n%s", data)
	}
	if HasEntry(data, "2026-08-31", "45min Bach") {
		t.Error("entry must be scoped to its date section")
	}
	if HasEntry(data, "2026-08-30", "45min bach") {
		t.Error("dedup must be byte-exact")
	}
}

func TestAppendEntry_PreservesOrderWithinDay(t *testing.T) {
	data := Scaffold("w")
	data = AppendEntry(data, "2026-08-30", "40min reservoir")
	data = AppendEntry(data, "2026-08-30", "30min park")
	text := string(data)
	if strings.Index(text, "40min reservoir") > strings.Index(text, "30min park") {
		t.Errorf("entry order not preserved:\n%s", text)
	}
	if got := strings.Count(text, "## 2026-08-30"); got != 1 {
		t.Errorf("date heading count = %d, want 1", got)
	}
}

func TestAppendEntry_MultipleDates(t *testing.T) {
	data := Scaffold("piano")
	data = AppendEntry(data, "2026-08-29", "10min scales")
	data = AppendEntry(data, "2026-08-30", "45min Bach")
	data = AppendEntry(data, "2026-08-29", "20min sight-reading")

	entries := Entries(data)
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3 (%+v)", len(entries), entries)
	}
	if entries[0].Date != "2026-08-29" || entries[1].Date != "2026-08-29" {
		t.Errorf("entries landed in wrong section: %+v", entries)
	}
	if entries[1].Line != "20min sight-reading" {
		t.Errorf("late append must extend the existing section: %+v", entries[1])
	}
}

func TestEntries_IgnoresSubActivitiesList(t *testing.T) {
	data := []byte("# piano\n\n## Sub-activities\n\n- [[piano.c]]\n\n## 2026-08-30\n\n- 45min Bach\n")
	entries := Entries(data)
	if len(entries) != 1 || entries[0].Line != "45min Bach" {
		t.Errorf("entries = %+v, want only the dated line", entries)
	}
}

func TestParent(t *testing.T) {
	if got := Parent(Scaffold("piano.c")); got != "piano" {
		t.Errorf("Parent = %q, want piano", got)
	}
	if got := Parent(Scaffold("piano")); got != "" {
		t.Errorf("Parent = %q, want empty", got)
	}
}

func TestExpandChildren(t *testing.T) {
	data := Scaffold("piano")
	out, changed := ExpandChildren(data, []string{"piano.jazz", "piano.c"})
	if !changed {
		t.Fatal("expected expansion")
	}
	text := string(out)
	if strings.Contains(text, Placeholder) {
		t.Errorf("placeholder survived expansion:\n%s", text)
	}
	if strings.Index(text, "[[piano.c]]") > strings.Index(text, "[[piano.jazz]]") {
		t.Errorf("children not sorted:\n%s", text)
	}

	// Second run is a no-op: the marker is gone.
	again, changed := ExpandChildren(out, []string{"piano.c"})
	if changed || string(again) != text {
		t.Error("expansion must be idempotent")
	}
}

func TestExpandChildren_NoChildrenLeavesMarker(t *testing.T) {
	data := Scaffold("piano")
	out, changed := ExpandChildren(data, nil)
	if changed || string(out) != string(data) {
		t.Error("file without children must be untouched")
	}
}
