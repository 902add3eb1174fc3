package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"JPEG_REDIM_IMAGE_TYPE", "JPEG_REDIM_SCAN", "JPEG_REDIM_VERIFY", "JPEG_REDIM_JSON", "JPEG_REDIM_QUIET",
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())

	require.Equal(t, Config{ImageType: "jpg", Scan: scanBytes}, loadConfig())
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("JPEG_REDIM_IMAGE_TYPE", "png")
	t.Setenv("JPEG_REDIM_SCAN", "segments")
	t.Setenv("JPEG_REDIM_VERIFY", "true")
	t.Setenv("JPEG_REDIM_JSON", "1")
	t.Setenv("JPEG_REDIM_QUIET", "not-a-bool")
	t.Chdir(t.TempDir())

	require.Equal(t, Config{
		ImageType: "png",
		Scan:      scanSegments,
		Verify:    true,
		JSON:      true,
	}, loadConfig())
}

func TestLoadConfigDotEnv(t *testing.T) {
	t.Setenv("JPEG_REDIM_IMAGE_TYPE", "")
	t.Setenv("JPEG_REDIM_SCAN", "bytes")
	// Restored on cleanup; unset so .env can fill it in.
	t.Setenv("JPEG_REDIM_QUIET", "")
	require.NoError(t, os.Unsetenv("JPEG_REDIM_QUIET"))
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("JPEG_REDIM_SCAN=segments\nJPEG_REDIM_QUIET=true\n"), 0644))
	t.Chdir(dir)

	cfg := loadConfig()
	require.Equal(t, scanBytes, cfg.Scan)
	require.True(t, cfg.Quiet)
}
