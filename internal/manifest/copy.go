package manifest

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// CopyImages copies every image file in srcDir into dstDir, creating dstDir
// if needed. A file that fails to copy is logged and skipped. It returns how
// many files were copied.
func CopyImages(srcDir, dstDir string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return 0, fmt.Errorf("create %s: %w", dstDir, err)
	}
	items, err := os.ReadDir(srcDir)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", srcDir, err)
	}

	copied := 0
	for _, it := range items {
		if it.IsDir() || !IsImage(it.Name()) {
			continue
		}
		if err := copyFile(filepath.Join(srcDir, it.Name()), filepath.Join(dstDir, it.Name())); err != nil {
			logger.Error("failed to copy", "file", it.Name(), "error", err)
			continue
		}
		copied++
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
