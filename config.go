package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the defaults that flags start from.
type Config struct {
	ImageType string
	Scan      string
	Verify    bool
	JSON      bool
	Quiet     bool
}

const (
	scanBytes    = "bytes"
	scanSegments = "segments"
)

// loadConfig reads .env (if any) and the JPEG_REDIM_* environment. Values
// already set in the environment are not overridden by .env.
func loadConfig() Config {
	_ = godotenv.Load(".env")

	return Config{
		ImageType: envString("JPEG_REDIM_IMAGE_TYPE", "jpg"),
		Scan:      envString("JPEG_REDIM_SCAN", scanBytes),
		Verify:    envBool("JPEG_REDIM_VERIFY"),
		JSON:      envBool("JPEG_REDIM_JSON"),
		Quiet:     envBool("JPEG_REDIM_QUIET"),
	}
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return b
}
