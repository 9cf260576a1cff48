package copier_test

import (
	"os"
	"path/filepath"
	"testing"

	"extforge/internal/changedetect"
	"extforge/internal/copier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestCopyFile_CopiesStaleFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "out", "dst.txt")
	writeFile(t, src, "payload")

	d := changedetect.New()
	copied, err := copier.CopyFile(d, src, dst)
	require.NoError(t, err)
	assert.True(t, copied)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

func TestCopyFile_SkipsFreshFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	writeFile(t, src, "same")
	writeFile(t, dst, "same")

	d := changedetect.New()
	copied, err := copier.CopyFile(d, src, dst)
	require.NoError(t, err)
	assert.False(t, copied)
}

func TestCopyPath_DirectoryMirrorsAllFiles(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "assets")
	dstDir := filepath.Join(dir, "dist", "assets")

	writeFile(t, filepath.Join(srcDir, "icon.png"), "binary-ish")
	writeFile(t, filepath.Join(srcDir, "nested", "style.css"), "body{}")

	d := changedetect.New()
	changed, err := copier.CopyPath(d, srcDir, dstDir)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := os.ReadFile(filepath.Join(dstDir, "nested", "style.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(got))
}

func TestCopyPath_SecondRunReportsNoChanges(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "assets")
	dstDir := filepath.Join(dir, "dist", "assets")
	writeFile(t, filepath.Join(srcDir, "icon.png"), "binary-ish")

	d := changedetect.New()
	_, err := copier.CopyPath(d, srcDir, dstDir)
	require.NoError(t, err)

	changed, err := copier.CopyPath(d, srcDir, dstDir)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCopyPath_SkipsFilteredFiles(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "assets")
	dstDir := filepath.Join(dir, "dist", "assets")

	writeFile(t, filepath.Join(srcDir, "icon.png"), "kept")
	writeFile(t, filepath.Join(srcDir, "icon.png.swp"), "ignored")
	writeFile(t, filepath.Join(srcDir, ".git", "HEAD"), "ignored")

	d := changedetect.New()
	_, err := copier.CopyPath(d, srcDir, dstDir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dstDir, "icon.png.swp"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dstDir, ".git"))
	assert.True(t, os.IsNotExist(err))
}
