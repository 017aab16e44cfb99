package input

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func paths(as []Artifact) []string {
	var out []string
	for _, a := range as {
		out = append(out, filepath.ToSlash(a.Path))
	}
	return out
}

func TestHandler_ReadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n\nfunc main() {}\n")
	writeFile(t, filepath.Join(dir, "pkg", "Foo.java"), "class Foo {}\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "hello\n")

	h := NewHandler(nil, nil, nil)
	artifacts, err := h.Read([]string{
		filepath.Join(dir, "pkg", "Foo.java"),
		filepath.Join(dir, "main.go"),
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "main.go"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d: %v", len(artifacts), paths(artifacts))
	}
	if artifacts[0].Path != filepath.Join(dir, "main.go") || artifacts[0].Language != "go" {
		t.Errorf("unexpected first artifact: %s (%s)", artifacts[0].Path, artifacts[0].Language)
	}
	if string(artifacts[0].Content) != "package main\n\nfunc main() {}\n" {
		t.Errorf("unexpected content: %q", artifacts[0].Content)
	}
	if artifacts[1].Language != "java" {
		t.Errorf("expected java, got %s", artifacts[1].Language)
	}
}

func TestHandler_ReadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "A.java"), "class A {}\n")
	writeFile(t, filepath.Join(dir, "build", "B.java"), "class B {}\n")
	writeFile(t, filepath.Join(dir, ".git", "C.java"), "class C {}\n")
	writeFile(t, filepath.Join(dir, "src", "d.py"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "src", "bad.java"), string([]byte{0xff, 0xfe}))

	h := NewHandler([]string{"**/*.java"}, []string{"**/build/**"}, nil)
	artifacts, err := h.Read([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	got := paths(artifacts)
	want := filepath.ToSlash(filepath.Join(dir, "src", "A.java"))
	if len(got) != 1 || got[0] != want {
		t.Fatalf("expected [%s], got %v", want, got)
	}
}

func TestHandler_ExplicitFileBypassesInclude(t *testing.T) {
	dir := t.TempDir()
	py := filepath.Join(dir, "script.py")
	writeFile(t, py, "x = 1\n")

	h := NewHandler([]string{"**/*.java"}, []string{"**/gen/**"}, nil)
	artifacts, err := h.Read([]string{py})
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("expected explicit file to be read, got %d artifacts", len(artifacts))
	}

	gen := filepath.Join(dir, "gen", "G.java")
	writeFile(t, gen, "class G {}\n")
	artifacts, err = h.Read([]string{gen})
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 0 {
		t.Fatalf("expected excluded file to be skipped, got %v", paths(artifacts))
	}
}

func TestHandler_MissingPath(t *testing.T) {
	h := NewHandler(nil, nil, nil)
	if _, err := h.Read([]string{"/nonexistent/file.java"}); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestChangedPaths(t *testing.T) {
	diff := "diff --git a/main.go b/main.go\nindex 1234567..abcdefg 100644\n--- a/main.go\n+++ b/main.go\n@@ -1,3 +1,5 @@\n package main\n" +
		"diff --git a/old.go b/old.go\ndeleted file mode 100644\n--- a/old.go\n+++ /dev/null\n" +
		"diff --git a/src/A.java b/src/A.java\n--- a/src/A.java\n+++ b/src/A.java\n"
	got := ChangedPaths(diff)
	if len(got) != 2 || got[0] != "main.go" || got[1] != "src/A.java" {
		t.Errorf("unexpected paths %v", got)
	}
}
