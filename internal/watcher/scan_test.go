package watcher

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestRegexScanner(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.go":      "package main\n// AI! fix the off-by-one here\nfunc main() {}\n",
		"script.py":    "x = 1  # AI! rename this variable\n",
		"schema.sql":   "-- AI! add an index on user_id\nSELECT 1;\n",
		"clean.go":     "package clean\n// a normal comment\n",
		"plain.txt": "AI! outside any comment marker\n",
	})

	result, err := (&RegexScanner{}).Scan([]string{dir}, "AI!")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if !result.Metadata.StopWordFound {
		t.Fatal("expected stop word to be found")
	}
	if len(result.Comments) != 3 {
		t.Fatalf("expected 3 comments, got %d: %+v", len(result.Comments), result.Comments)
	}
	if result.Metadata.FilesScanned != 5 {
		t.Errorf("expected 5 files scanned, got %d", result.Metadata.FilesScanned)
	}

	byFile := make(map[string]Comment)
	for _, c := range result.Comments {
		byFile[filepath.Base(c.File)] = c
	}
	if c, ok := byFile["main.go"]; !ok || c.Line != 2 {
		t.Errorf("main.go comment wrong: %+v", c)
	}
	if _, ok := byFile["plain.txt"]; ok {
		t.Error("stop word outside a comment marker must not match")
	}
}

func TestRegexScanner_NoStopWord(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.go": "package a\n// nothing to see\n",
	})

	result, err := (&RegexScanner{}).Scan([]string{dir}, "AI!")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if result.Metadata.StopWordFound {
		t.Error("found a stop word that isn't there")
	}
	if len(result.Comments) != 0 {
		t.Errorf("expected no comments, got %+v", result.Comments)
	}
}

func TestRegexScanner_SkipsIgnoredDirs(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.go":                       "// AI! real\n",
		".git/config":                "# AI! inside git\n",
		"node_modules/pkg/index.js":  "// AI! inside node_modules\n",
		"vendor/dep/dep.go":          "// AI! inside vendor\n",
		".loom/comments.json":        "// AI! loom state\n",
	})

	result, err := (&RegexScanner{}).Scan([]string{dir}, "AI!")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(result.Comments) != 1 {
		t.Fatalf("expected 1 comment, got %d: %+v", len(result.Comments), result.Comments)
	}
	if filepath.Base(result.Comments[0].File) != "a.go" {
		t.Errorf("wrong file matched: %s", result.Comments[0].File)
	}
}

func TestRegexScanner_SingleFilePath(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"only.go":  "// AI! here\n",
		"other.go": "// AI! not scanned\n",
	})

	result, err := (&RegexScanner{}).Scan([]string{filepath.Join(dir, "only.go")}, "AI!")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if result.Metadata.FilesScanned != 1 || len(result.Comments) != 1 {
		t.Errorf("expected exactly the named file scanned: %+v", result.Metadata)
	}
}

func TestRegexScanner_MissingPath(t *testing.T) {
	if _, err := (&RegexScanner{}).Scan([]string{filepath.Join(t.TempDir(), "absent")}, "AI!"); err == nil {
		t.Fatal("expected error for missing path")
	}
}
