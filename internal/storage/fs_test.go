package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestFS(t *testing.T) (*FS, string) {
	t.Helper()
	root := t.TempDir()
	f, err := NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return f, root
}

func TestFS_WriteReadRoundTrip(t *testing.T) {
	f, _ := newTestFS(t)
	content := []byte("## 2026-08-30\n\n- 45min Bach\n")
	if err := f.Write("activities/piano.md", content); err != nil {
		t.Fatal(err)
	}
	got, err := f.Read("activities/piano.md")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Errorf("read back %q", got)
	}
}

func TestFS_ListFiltersByExtension(t *testing.T) {
	f, root := newTestFS(t)
	if err := f.Write("a.md", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := f.Write("b.txt", []byte("y")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "c.db"), []byte("z"), 0o644); err != nil {
		t.Fatal(err)
	}
	metas, err := f.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Errorf("len(metas) = %d, want 2 (%+v)", len(metas), metas)
	}
	for _, m := range metas {
		if m.Checksum == "" {
			t.Errorf("missing checksum for %s", m.Path)
		}
	}
}

func TestFS_RejectsTraversal(t *testing.T) {
	f, _ := newTestFS(t)
	if _, err := f.Read("../outside.md"); err == nil {
		t.Error("expected traversal rejection")
	}
	if err := f.Write("/abs/path.md", []byte("x")); err == nil {
		t.Error("expected absolute path rejection")
	}
}

func TestFS_WriteLeavesNoTempFiles(t *testing.T) {
	f, root := newTestFS(t)
	if err := f.Write("sub/note.md", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(filepath.Join(root, "sub"))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".dagaz-tmp-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFS_Delete(t *testing.T) {
	f, _ := newTestFS(t)
	if err := f.Write("gone.md", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := f.Delete("gone.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Read("gone.md"); err == nil {
		t.Error("expected read failure after delete")
	}
}

func TestFS_ListMissingDirIsEmpty(t *testing.T) {
	f, _ := newTestFS(t)
	metas, err := f.List("projects")
	if err != nil {
		t.Fatalf("listing a dir that does not exist yet should not fail: %v", err)
	}
	if len(metas) != 0 {
		t.Errorf("got %d entries, want none", len(metas))
	}
}
