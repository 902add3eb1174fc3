package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const modifiedSuffix = "_modified"

// outputPath returns explicit when set, otherwise <stem>_modified<ext>
// beside the input.
func outputPath(input, explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir, base := filepath.Split(input)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		// Dotfiles such as ".jpg" have no extension, only a stem.
		stem, ext = base, ""
	}
	return dir + stem + modifiedSuffix + ext
}

// opError tags an I/O failure with the pipeline stage it happened in.
type opError struct {
	Op  string
	Err error
}

func (e *opError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *opError) Unwrap() error { return e.Err }

const (
	opOpen   = "open"
	opRead   = "read"
	opLocate = "locate"
	opPatch  = "patch"
	opCreate = "create"
	opWrite  = "write"
)

func readImage(src string) ([]byte, os.FileInfo, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, nil, &opError{opOpen, err}
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, nil, &opError{opRead, err}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, nil, &opError{opRead, err}
	}
	return data, info, nil
}

// writeImage writes data beside dst under a temporary name and renames it
// into place, so a failed write never leaves a partial dst behind. The
// temporary file shares dst's directory, so the rename never crosses devices.
func writeImage(dst string, data []byte, mkdir bool) error {
	if mkdir {
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return &opError{opCreate, err}
		}
	}

	tempPath := dst + ".tmp_" + uuid.NewString()
	out, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return &opError{opCreate, err}
	}
	defer os.Remove(tempPath)

	if _, err := out.Write(data); err != nil {
		out.Close()
		return &opError{opWrite, err}
	}
	if err := out.Close(); err != nil {
		return &opError{opWrite, err}
	}
	if err := os.Rename(tempPath, dst); err != nil {
		return &opError{opWrite, err}
	}
	return nil
}

// keepMode gives dst the permission bits of the source file.
func keepMode(dst string, mode os.FileMode) error {
	return os.Chmod(dst, mode.Perm())
}
