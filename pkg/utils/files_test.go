package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !FileExists(file) {
		t.Error("FileExists false for existing file")
	}
	if FileExists(dir) {
		t.Error("FileExists true for directory")
	}
	if FileExists(filepath.Join(dir, "missing")) {
		t.Error("FileExists true for missing path")
	}
}

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	os.WriteFile(file, []byte("x"), 0o644)

	if !DirExists(dir) {
		t.Error("DirExists false for directory")
	}
	if DirExists(file) {
		t.Error("DirExists true for file")
	}
}
