package artifact

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLayoutPath(t *testing.T) {
	l := Layout{Root: "/cache", Name: "mindustry"}
	m := MappingIdentity{Name: "official", Version: "1"}

	tests := []struct {
		kind Kind
		want string
	}{
		{KindClient, "/cache/mindustry-7.0-client.jar"},
		{KindServer, "/cache/mindustry-7.0-server.jar"},
		{KindMerged, "/cache/mindustry-7.0-merged.jar"},
		{KindIntermediary, "/cache/mindustry-7.0-intermediary-official-1.jar"},
		{KindMapped, "/cache/7.0-mapped-official-1/mindustry-7.0-mapped-official-1.jar"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := l.Path(tt.kind, "7.0", m)
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("Path(%s) = %s, want %s", tt.kind, got, tt.want)
			}
		})
	}
}

func TestLayoutPathDeterministic(t *testing.T) {
	l := Layout{Root: t.TempDir(), Name: "mindustry"}
	m := MappingIdentity{Name: "official", Version: "1"}

	for _, kind := range []Kind{KindClient, KindServer, KindMerged, KindMapped, KindIntermediary} {
		if l.Path(kind, "7.0", m) != l.Path(kind, "7.0", m) {
			t.Errorf("Path(%s) should be deterministic", kind)
		}
	}
}

func TestLayoutPathMappingIdentity(t *testing.T) {
	l := Layout{Root: "/cache", Name: "mindustry"}
	m1 := MappingIdentity{Name: "official", Version: "1"}
	m2 := MappingIdentity{Name: "official", Version: "2"}

	for _, kind := range []Kind{KindClient, KindServer, KindMerged} {
		if l.Path(kind, "7.0", m1) != l.Path(kind, "7.0", m2) {
			t.Errorf("Path(%s) must not depend on mapping identity", kind)
		}
	}
	for _, kind := range []Kind{KindMapped, KindIntermediary} {
		if l.Path(kind, "7.0", m1) == l.Path(kind, "7.0", m2) {
			t.Errorf("Path(%s) must differ across mapping identities", kind)
		}
	}
}

func TestVersionString(t *testing.T) {
	got := VersionString("7.0", KindMapped, MappingIdentity{Name: "official", Version: "2"})
	if got != "7.0-mapped-official-2" {
		t.Errorf("VersionString() = %s", got)
	}
}

func TestKindRemapped(t *testing.T) {
	if KindMerged.Remapped() || KindClient.Remapped() {
		t.Error("raw and merged kinds are not remapped")
	}
	if !KindMapped.Remapped() || !KindIntermediary.Remapped() {
		t.Error("mapped and intermediary kinds are remapped")
	}
}

func TestResolve(t *testing.T) {
	l := Layout{Root: "/cache", Name: "mindustry"}
	set := l.Resolve("7.0", MappingIdentity{Name: "official", Version: "1"})

	all := set.All()
	if len(all) != 5 {
		t.Fatalf("All() returned %d handles", len(all))
	}
	wantKinds := []Kind{KindClient, KindServer, KindMerged, KindMapped, KindIntermediary}
	for i, h := range all {
		if h.Kind != wantKinds[i] {
			t.Errorf("handle %d kind = %s, want %s", i, h.Kind, wantKinds[i])
		}
	}
	if set.Named.Dir() != filepath.FromSlash("/cache/7.0-mapped-official-1") {
		t.Errorf("Named.Dir() = %s", set.Named.Dir())
	}
}

func TestHandleExistsAndDelete(t *testing.T) {
	dir := t.TempDir()
	h := Handle{Kind: KindMerged, Path: filepath.Join(dir, "a.jar")}

	if h.Exists() {
		t.Fatal("handle should not exist yet")
	}
	if err := h.Delete(); err != nil {
		t.Fatalf("Delete() on missing file: %v", err)
	}

	if err := os.WriteFile(h.Path, []byte("jar"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !h.Exists() {
		t.Fatal("handle should exist")
	}
	if err := h.Delete(); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if h.Exists() {
		t.Fatal("handle should be gone")
	}
}

func TestHandleExistsIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	h := Handle{Kind: KindMapped, Path: filepath.Join(dir, "jar")}
	if err := os.MkdirAll(h.Path, 0o755); err != nil {
		t.Fatal(err)
	}
	if h.Exists() {
		t.Error("a directory is not an artifact")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.jar")

	err := WriteFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("payload"))
		return err
	})
	if err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Errorf("content = %q", data)
	}
}

func TestWriteFileFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jar")
	boom := errors.New("boom")

	err := WriteFile(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WriteFile() error = %v, want boom", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty dir, found %d entries", len(entries))
	}
}

func TestWriteFileKeepsPreviousOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jar")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	_ = WriteFile(path, func(w io.Writer) error { return errors.New("boom") })

	data, _ := os.ReadFile(path)
	if string(data) != "old" {
		t.Errorf("previous file should survive, got %q", data)
	}
}
