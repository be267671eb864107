package internal

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func TestIsArchive(t *testing.T) {
	exts := []string{".zip", ".tar", ".gz", ".bz2", ".xz", ".rar", ".7z", ".zst"}
	for _, e := range exts {
		if !IsArchive("x" + e) {
			t.Errorf("expected archive for %s", e)
		}
	}
	if IsArchive("file.txt") {
		t.Errorf("txt is not archive")
	}
}

func TestOSLister(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	ents, err := osLister{}.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(ents) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(ents))
	}
	kinds := map[string]bool{}
	for _, e := range ents {
		kinds[e.Name()] = e.IsDir()
	}
	if !kinds["sub"] || kinds["a.txt"] {
		t.Fatalf("wrong entry kinds: %v", kinds)
	}

	if _, err := (osLister{}).ReadDir(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func writeZip(t *testing.T, path string, names []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, n := range names {
		w, err := zw.Create(n)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte("content of " + n)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWalkArchive_Zip(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "a.zip")
	writeZip(t, zipPath, []string{"x/one.txt", "two.log", "noext"})

	opts := ScanOptions{Root: dir, FileTypes: []string{"txt"}}
	opts.Prepare()

	var inner []string
	err := WalkArchive(context.Background(), zipPath, &opts, func(p string) {
		inner = append(inner, p)
	})
	if err != nil {
		t.Fatalf("WalkArchive: %v", err)
	}
	if len(inner) != 1 || inner[0] != "x/one.txt" {
		t.Fatalf("expected only x/one.txt, got %v", inner)
	}
}

func TestWalkArchive_OpenError(t *testing.T) {
	opts := ScanOptions{Root: "/r"}
	opts.Prepare()
	if err := WalkArchive(context.Background(), "/does/not/exist.zip", &opts, func(string) {}); err == nil {
		t.Fatal("expected error for missing archive")
	}
}

// End-to-end against a real temp tree, including archive descent.
func TestScan_RealFilesystem(t *testing.T) {
	root := t.TempDir()
	mustWrite := func(rel string) {
		p := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("alpha/one.txt")
	mustWrite("alpha/deep/two.txt")
	mustWrite("beta/three.log")
	mustWrite("top.txt")
	writeZip(t, filepath.Join(root, "alpha", "bundle.zip"), []string{"in/four.txt"})

	outPath := filepath.Join(t.TempDir(), "out.csv")
	sink, err := NewSink(outPath, EncodingUTF8)
	if err != nil {
		t.Fatal(err)
	}
	opts := ScanOptions{Root: root, Archives: true, Threads: 4}
	if err := opts.Validate(); err != nil {
		t.Fatal(err)
	}
	opts.Prepare()

	var stats ScanStats
	if err := NewScanner().Scan(context.Background(), opts, sink, &stats); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if lines[0] != "File Path" {
		t.Fatalf("missing header, got %q", lines[0])
	}
	got := lines[1:]
	sort.Strings(got)
	want := []string{
		filepath.Join(root, "alpha", "bundle.zip") + "::in/four.txt",
		filepath.Join(root, "alpha", "deep", "two.txt"),
		filepath.Join(root, "alpha", "one.txt"),
		filepath.Join(root, "beta", "three.log"),
		filepath.Join(root, "top.txt"),
	}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if int(stats.FilesMatched.Load()) != len(want) {
		t.Fatalf("counter %d != %d lines", stats.FilesMatched.Load(), len(want))
	}
}
