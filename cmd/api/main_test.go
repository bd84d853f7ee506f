package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	original := version
	version = "1.2.3"
	defer func() { version = original }()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "botgpt version 1.2.3")
}

func TestChunkCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("a", 1200)), 0o644))

	out, err := execute(t, "chunk", path, "--size", "500", "--overlap", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "--- chunk 0 [0, 500) 500 chars")
	assert.Contains(t, out, "--- chunk 1 [450, 950) 500 chars")
	assert.Contains(t, out, "--- chunk 2 [900, 1200) 300 chars")
	assert.Contains(t, out, "3 chunks")
}

func TestChunkCmd_Errors(t *testing.T) {
	_, err := execute(t, "chunk")
	require.Error(t, err)

	_, err = execute(t, "chunk", filepath.Join(t.TempDir(), "missing.txt"), "--size", "500", "--overlap", "50")
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0o644))
	_, err = execute(t, "chunk", path, "--size", "10", "--overlap", "10")
	require.Error(t, err)
}
