package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveFile(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "source.txt")
	dst := filepath.Join(tempDir, "destination.txt")

	content := "Hello, World!"
	require.NoError(t, os.WriteFile(src, []byte(content), FileModeDefault))

	require.NoError(t, Move(src, dst))

	moved, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, content, string(moved))

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err), "source must be gone after the move")
}

func TestMoveCreatesDestinationDir(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "source.txt")
	dst := filepath.Join(tempDir, "nested", "dir", "destination.txt")

	require.NoError(t, os.WriteFile(src, []byte("payload"), FileModeDefault))

	require.NoError(t, Move(src, dst))

	moved, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(moved))
}

func TestMoveMissingSource(t *testing.T) {
	tempDir := t.TempDir()

	err := Move(filepath.Join(tempDir, "missing.txt"), filepath.Join(tempDir, "destination.txt"))
	require.Error(t, err)
}

func TestMoveEmptyPaths(t *testing.T) {
	require.Error(t, Move("", "somewhere"))
	require.Error(t, Move("somewhere", ""))
}

func TestEnsureFileDir(t *testing.T) {
	tempDir := t.TempDir()
	file := filepath.Join(tempDir, "a", "b", "c.txt")

	require.NoError(t, EnsureFileDir(file))

	info, err := os.Stat(filepath.Join(tempDir, "a", "b"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestEnsureDirExisting(t *testing.T) {
	tempDir := t.TempDir()

	require.NoError(t, EnsureDir(tempDir))
}
