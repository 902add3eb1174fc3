package main

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"github.com/gen2brain/jpegli"
	"github.com/jasonmoo/go-butteraugli"
	"golang.org/x/image/draw"
)

// Verification is reported, never enforced.
type Verification struct {
	HeaderWidth  int     `json:"header_width"`
	HeaderHeight int     `json:"header_height"`
	HeaderMatch  bool    `json:"header_match"`
	Decoded      bool    `json:"decoded"`
	Butteraugli  float64 `json:"butteraugli,omitempty"`
	Err          string  `json:"error,omitempty"`
}

func decodeConfig(data []byte) (image.Config, error) {
	cfg, err := jpegli.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		return cfg, nil
	}
	return jpeg.DecodeConfig(bytes.NewReader(data))
}

func decodeImage(data []byte) (image.Image, error) {
	img, err := jpegli.Decode(bytes.NewReader(data))
	if err == nil && img != nil {
		return img, nil
	}
	return jpeg.Decode(bytes.NewReader(data))
}

// verifyPatch reads the patched header back and, when both buffers decode,
// measures the perceptual distance between them.
func verifyPatch(original, patched []byte, f Frame) Verification {
	var v Verification

	cfg, err := decodeConfig(patched)
	if err != nil {
		v.Err = fmt.Sprintf("reading patched header: %v", err)
		return v
	}
	v.HeaderWidth, v.HeaderHeight = cfg.Width, cfg.Height
	v.HeaderMatch = cfg.Width == int(f.Width) && cfg.Height == int(f.Height)

	srcImg, err := decodeImage(original)
	if err != nil {
		v.Err = fmt.Sprintf("decoding original: %v", err)
		return v
	}
	dstImg, err := decodeImage(patched)
	if err != nil {
		v.Err = fmt.Sprintf("decoding patched: %v", err)
		return v
	}
	v.Decoded = true

	dist, err := compareImages(srcImg, dstImg)
	if err != nil {
		v.Err = fmt.Sprintf("butteraugli: %v", err)
		return v
	}
	v.Butteraugli = dist
	return v
}

// compareImages rescales b onto the bounds of a, shrinking both to at most
// maxComparePixels first. Butteraugli is very slow on large inputs.
const maxComparePixels = 500000

func compareImages(a, b image.Image) (float64, error) {
	ab := a.Bounds()
	w, h := ab.Dx(), ab.Dy()
	if w == 0 || h == 0 {
		return 0, fmt.Errorf("empty image")
	}
	if pixels := w * h; pixels > maxComparePixels {
		scale := math.Sqrt(float64(maxComparePixels) / float64(pixels))
		w, h = max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
	}

	rect := image.Rect(0, 0, w, h)
	small1 := image.NewRGBA(rect)
	small2 := image.NewRGBA(rect)
	draw.BiLinear.Scale(small1, rect, a, ab, draw.Over, nil)
	draw.BiLinear.Scale(small2, rect, b, b.Bounds(), draw.Over, nil)

	return butteraugli.CompareImages(small1, small2)
}
