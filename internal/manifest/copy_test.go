package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyImages(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "assets", "Images")
	dst := filepath.Join(root, "images")
	writeFile(t, filepath.Join(src, "a.jpg"), "a")
	writeFile(t, filepath.Join(src, "b.WEBP"), "b")
	writeFile(t, filepath.Join(src, "readme.md"), "skip")
	if err := os.MkdirAll(filepath.Join(src, "nested.png"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	n, err := CopyImages(src, dst, nil)
	if err != nil {
		t.Fatalf("CopyImages: %v", err)
	}
	if n != 2 {
		t.Fatalf("copied %d files", n)
	}
	data, err := os.ReadFile(filepath.Join(dst, "b.WEBP"))
	if err != nil || string(data) != "b" {
		t.Fatalf("b.WEBP: %q %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dst, "readme.md")); !os.IsNotExist(err) {
		t.Fatal("non-image copied")
	}
}

func TestCopyImagesMissingSource(t *testing.T) {
	root := t.TempDir()
	if _, err := CopyImages(filepath.Join(root, "nope"), filepath.Join(root, "images"), nil); err == nil {
		t.Fatal("expected error")
	}
}
