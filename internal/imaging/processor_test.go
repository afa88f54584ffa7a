// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strconv"
	"testing"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestIsImage(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{MimeTypeJPEG, true},
		{MimeTypePNG, true},
		{MimeTypeGIF, true},
		{MimeTypeWebP, true},
		{"application/pdf", false},
		{"application/octet-stream", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			if got := IsImage(tt.mimeType); got != tt.want {
				t.Errorf("IsImage(%q) = %v, want %v", tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg magic bytes", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"png magic bytes", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
		{"gif magic bytes", []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61}, "gif"},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.data); got != tt.want {
				t.Errorf("detectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectMimeType(t *testing.T) {
	data := encodePNG(t, createTestImage(4, 4))
	if got := DetectMimeType(data); got != MimeTypePNG {
		t.Errorf("DetectMimeType() = %q, want %q", got, MimeTypePNG)
	}
}

func TestApplyOrientation(t *testing.T) {
	for orientation := 0; orientation <= 9; orientation++ {
		t.Run("orientation_"+strconv.Itoa(orientation), func(t *testing.T) {
			img := createTestImage(10, 6)
			result := applyOrientation(img, orientation)
			if result == nil {
				t.Fatal("applyOrientation returned nil")
			}
			b := result.Bounds()
			rotated := orientation >= 5 && orientation <= 8
			if rotated && (b.Dx() != 6 || b.Dy() != 10) {
				t.Errorf("orientation %d: got %dx%d, want 6x10", orientation, b.Dx(), b.Dy())
			}
			if !rotated && (b.Dx() != 10 || b.Dy() != 6) {
				t.Errorf("orientation %d: got %dx%d, want 10x6", orientation, b.Dx(), b.Dy())
			}
		})
	}
}

func TestPrepare_Downscales(t *testing.T) {
	p := &Processor{MaxDimension: 50, Quality: 80}

	out, err := p.Prepare(bytes.NewReader(encodePNG(t, createTestImage(200, 100))))
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if out.MimeType != MimeTypeJPEG {
		t.Errorf("MimeType = %q, want %q", out.MimeType, MimeTypeJPEG)
	}
	if out.Width != 50 || out.Height != 25 {
		t.Errorf("size = %dx%d, want 50x25", out.Width, out.Height)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	if decoded.Bounds().Dx() != 50 {
		t.Errorf("decoded width = %d, want 50", decoded.Bounds().Dx())
	}
}

func TestPrepare_KeepsSmallImages(t *testing.T) {
	out, err := NewProcessor().Prepare(bytes.NewReader(encodePNG(t, createTestImage(40, 30))))
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if out.Width != 40 || out.Height != 30 {
		t.Errorf("size = %dx%d, want 40x30", out.Width, out.Height)
	}
}

func TestPrepare_RejectsNonImages(t *testing.T) {
	_, err := NewProcessor().Prepare(bytes.NewReader([]byte("plain text, not a photo")))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Prepare() error = %v, want ErrUnsupportedFormat", err)
	}
}
