// Package copier mirrors extension source paths onto the dist directory,
// gated by the change-detector.
package copier

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"extforge/internal/changedetect"

	"golang.org/x/sync/errgroup"
)

// batchSize is the directory-walk chunk size: max(4, logical CPU count).
func batchSize() int {
	if n := runtime.NumCPU(); n > 4 {
		return n
	}
	return 4
}

// filteredSuffixes mirrors the watch-router's noise filter so editor temp
// files and VCS directories are never mirrored into dist/ either.
var filteredSuffixes = []string{".tmp", ".swp", "~"}

func isFiltered(path string) bool {
	for _, suf := range filteredSuffixes {
		if strings.HasSuffix(path, suf) {
			return true
		}
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".git" {
			return true
		}
	}
	return false
}

// CopyFile runs the per-file copy decision: if src is stale relative to
// dst, it ensures dst's parent directory exists and atomically replaces
// dst. Returns whether a copy was actually performed.
func CopyFile(d *changedetect.Detector, src, dst string) (bool, error) {
	stale, err := d.IsStale(src, dst)
	if err != nil {
		return false, err
	}
	if !stale {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return false, fmt.Errorf("mkdir %s: %w", filepath.Dir(dst), err)
	}

	if err := atomicCopy(src, dst); err != nil {
		return false, fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	return true, nil
}

// atomicCopy writes to a temp file in dst's directory and renames it over
// dst, so readers never observe a partially written file.
func atomicCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".copy-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	info, err := in.Stat()
	if err == nil {
		_ = os.Chmod(tmpName, info.Mode())
	}

	return os.Rename(tmpName, dst)
}

// CopyPath mirrors src onto dst, using the change-detector to skip
// unchanged files. If src is a regular file, it runs the single-file
// pipeline. If src is a directory, it walks it and copies every regular
// file that survives the noise filter, running up to batchSize() files
// concurrently per batch. Returns true ("changes applied") iff at least
// one file was actually copied.
func CopyPath(d *changedetect.Detector, src, dst string) (bool, error) {
	info, err := os.Stat(src)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", src, err)
	}

	if !info.IsDir() {
		return CopyFile(d, src, dst)
	}

	return copyDir(d, src, dst)
}

func copyDir(d *changedetect.Detector, srcDir, dstDir string) (bool, error) {
	var files []string
	err := filepath.WalkDir(srcDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if isFiltered(path) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		fi, err := entry.Info()
		if err != nil {
			return err
		}
		if !fi.Mode().IsRegular() {
			// Symlinks and special files are skipped.
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("walk %s: %w", srcDir, err)
	}

	anyCopied := false
	size := batchSize()
	for start := 0; start < len(files); start += size {
		end := start + size
		if end > len(files) {
			end = len(files)
		}
		batch := files[start:end]

		var g errgroup.Group
		results := make([]bool, len(batch))
		for i, srcPath := range batch {
			i, srcPath := i, srcPath
			rel, relErr := filepath.Rel(srcDir, srcPath)
			if relErr != nil {
				return false, fmt.Errorf("relativize %s: %w", srcPath, relErr)
			}
			dstPath := filepath.Join(dstDir, rel)
			g.Go(func() error {
				copied, err := CopyFile(d, srcPath, dstPath)
				results[i] = copied
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return false, err
		}
		for _, c := range results {
			anyCopied = anyCopied || c
		}
	}

	return anyCopied, nil
}
