package capture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"strings"
	"testing"
)

// flatImage compresses extremely well; PNG stays tiny at any size.
func flatImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 200, A: 255})
		}
	}
	return img
}

// noisyImage defeats lossless compression, forcing the JPEG ladder.
func noisyImage(w, h int) image.Image {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func TestEncodeImageLosslessWhenItFits(t *testing.T) {
	encoded, err := EncodeImage(flatImage(200, 200), 1024*1024)
	if err != nil {
		t.Fatal(err)
	}
	if encoded.Mime != "image/png" {
		t.Errorf("small flat image should stay lossless, got %s", encoded.Mime)
	}
	if len(encoded.Data) > 1024*1024 {
		t.Errorf("encoded size %d exceeds budget", len(encoded.Data))
	}
	if _, err := png.Decode(bytes.NewReader(encoded.Data)); err != nil {
		t.Errorf("png output does not decode: %v", err)
	}
}

func TestEncodeImageFallsBackToJPEG(t *testing.T) {
	budget := 600 * 1024
	encoded, err := EncodeImage(noisyImage(800, 600), budget)
	if err != nil {
		t.Fatal(err)
	}
	if encoded.Mime != "image/jpeg" {
		t.Errorf("noisy image over budget should go lossy, got %s", encoded.Mime)
	}
	if len(encoded.Data) > budget {
		t.Errorf("encoded size %d exceeds budget %d", len(encoded.Data), budget)
	}
}

func TestEncodeImageSmallerThanLadder(t *testing.T) {
	// 300px is below every ladder dimension; the quality ladder must
	// still run at native size rather than failing outright.
	budget := 220 * 1024
	encoded, err := EncodeImage(noisyImage(300, 300), budget)
	if err != nil {
		t.Fatal(err)
	}
	if len(encoded.Data) > budget {
		t.Errorf("encoded size %d exceeds budget %d", len(encoded.Data), budget)
	}
}

func TestEncodeImageReportsLosslessSize(t *testing.T) {
	_, err := EncodeImage(noisyImage(400, 400), 16)
	if err == nil {
		t.Fatal("expected failure for an impossible budget")
	}
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
	if !strings.Contains(err.Error(), "lossless encoding was") {
		t.Errorf("error should carry the attempted lossless size: %v", err)
	}
}

func TestEncodePreviewSmallerBudget(t *testing.T) {
	img := noisyImage(800, 600)
	full, err := EncodeImage(img, 2*1024*1024)
	if err != nil {
		t.Fatal(err)
	}
	preview, err := EncodeImage(img, 300*1024)
	if err != nil {
		t.Fatal(err)
	}
	if len(preview.Data) > 300*1024 {
		t.Errorf("preview size %d exceeds its budget", len(preview.Data))
	}
	if preview.Mime != "image/jpeg" {
		t.Errorf("preview of an over-budget image should be lossy, got %s", preview.Mime)
	}
	if len(preview.Data) >= len(full.Data) {
		t.Errorf("preview (%d bytes) should be smaller than the full encoding (%d bytes)",
			len(preview.Data), len(full.Data))
	}
}

func TestDecodeImage(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, flatImage(10, 10)); err != nil {
		t.Fatal(err)
	}
	img, err := DecodeImage(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 10 {
		t.Errorf("decoded width = %d", img.Bounds().Dx())
	}

	if _, err := DecodeImage([]byte("not an image")); err == nil {
		t.Error("expected error for garbage input")
	}
}
