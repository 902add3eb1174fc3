package main

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrMarkerNotFound = errors.New("SOF0 marker not found")
	ErrTruncated      = errors.New("truncated JPEG data")
	ErrNotJPEG        = errors.New("missing SOI marker")
)

// Offsets inside a SOF0 segment, counted from the 0xFF of the marker:
// marker[2] + length[2] + precision[1], then height[2] and width[2].
const (
	sofHeightOffset = 5
	sofWidthOffset  = sofHeightOffset + 2
	sofMinSize      = sofWidthOffset + 2
)

var sof0Marker = []byte{0xFF, 0xC0}

// Dimensions holds the optional overrides. A nil field keeps the value
// already stored in the frame header.
type Dimensions struct {
	Height *uint16
	Width  *uint16
}

// Frame describes a patched SOF0 header.
type Frame struct {
	Position     int
	HeightBefore uint16
	WidthBefore  uint16
	Height       uint16
	Width        uint16
}

func (f Frame) Changed() bool {
	return f.Height != f.HeightBefore || f.Width != f.WidthBefore
}

// findSequence returns the index of the first window of haystack equal to
// needle, or -1.
func findSequence(haystack, needle []byte) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// locateSOF0 finds the first FF C0 pair anywhere in buf.
func locateSOF0(buf []byte) (int, error) {
	pos := findSequence(buf, sof0Marker)
	if pos < 0 {
		return 0, ErrMarkerNotFound
	}
	return pos, nil
}

// locateSOF0Segments walks the marker segments from SOI and returns the
// position of the SOF0 marker. Entropy-coded data is never searched.
func locateSOF0Segments(buf []byte) (int, error) {
	if len(buf) < 2 {
		return 0, ErrTruncated
	}
	if buf[0] != 0xFF || buf[1] != 0xD8 {
		return 0, ErrNotJPEG
	}
	for i := 2; i < len(buf); {
		if buf[i] != 0xFF {
			return 0, fmt.Errorf("expected marker at offset %d, got 0x%02X: %w", i, buf[i], ErrNotJPEG)
		}
		// Fill bytes.
		start := i
		for i < len(buf) && buf[i] == 0xFF {
			i++
		}
		if i >= len(buf) {
			return 0, ErrTruncated
		}
		marker := buf[i]
		markerPos := i - 1
		i++

		switch {
		case marker == 0xC0:
			return markerPos, nil
		case marker == 0xDA || marker == 0xD9: // SOS or EOI
			return 0, ErrMarkerNotFound
		case marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7):
			continue // standalone TEM/RSTn
		case marker == 0x00:
			return 0, fmt.Errorf("invalid marker 0 at offset %d: %w", start, ErrNotJPEG)
		}

		if i+2 > len(buf) {
			return 0, ErrTruncated
		}
		length := int(binary.BigEndian.Uint16(buf[i : i+2]))
		if length < 2 || i+length > len(buf) {
			return 0, ErrTruncated
		}
		i += length
	}
	return 0, ErrTruncated
}

// patchDimensions overwrites the height and width fields of the SOF0 header
// that starts at pos. Fields without an override are written back unchanged.
func patchDimensions(buf []byte, pos int, dims Dimensions) (Frame, error) {
	if pos < 0 || pos+sofMinSize > len(buf) {
		return Frame{}, fmt.Errorf("SOF0 header at offset %d needs %d bytes, file has %d: %w",
			pos, sofMinSize, len(buf)-pos, ErrTruncated)
	}
	hi := pos + sofHeightOffset
	wi := pos + sofWidthOffset

	f := Frame{
		Position:     pos,
		HeightBefore: binary.BigEndian.Uint16(buf[hi : hi+2]),
		WidthBefore:  binary.BigEndian.Uint16(buf[wi : wi+2]),
	}
	f.Height, f.Width = f.HeightBefore, f.WidthBefore
	if dims.Height != nil {
		f.Height = *dims.Height
	}
	if dims.Width != nil {
		f.Width = *dims.Width
	}

	binary.BigEndian.PutUint16(buf[hi:hi+2], f.Height)
	binary.BigEndian.PutUint16(buf[wi:wi+2], f.Width)
	return f, nil
}
