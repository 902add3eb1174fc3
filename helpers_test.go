package main

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeSegment(marker byte, payload []byte) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, marker})
	var length [2]byte
	// The length field counts itself.
	binary.BigEndian.PutUint16(length[:], uint16(2+len(payload)))
	b.Write(length[:])
	b.Write(payload)
	return b.Bytes()
}

// makeSOF0 builds a single-component baseline frame header.
func makeSOF0(height, width uint16) []byte {
	payload := []byte{8, 0, 0, 0, 0, 1, 1, 0x11, 0}
	binary.BigEndian.PutUint16(payload[1:3], height)
	binary.BigEndian.PutUint16(payload[3:5], width)
	return makeSegment(0xC0, payload)
}

func makeSOS(scan []byte) []byte {
	seg := makeSegment(0xDA, []byte{0x01, 0x01, 0x00, 0x00, 0x3F, 0x00})
	return append(seg, scan...)
}

func makeJPEG(segments ...[]byte) []byte {
	var b bytes.Buffer
	b.Write([]byte{0xFF, 0xD8})
	for _, segment := range segments {
		b.Write(segment)
	}
	b.Write([]byte{0xFF, 0xD9})
	return b.Bytes()
}

// encodeJPEG returns a real baseline JPEG of the given size.
func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / width), uint8(y * 255 / height), 128, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func u16(v uint16) *uint16 {
	return &v
}
