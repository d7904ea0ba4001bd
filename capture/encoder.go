package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
)

// ErrTooLarge means no combination in the encoding ladder fit the byte
// budget; the message carries the attempted lossless size.
var ErrTooLarge = errors.New("image too large")

type Encoded struct {
	Data []byte
	Mime string
}

// The ladders: shrink dimensions first, then trade quality. The first
// combination under budget wins.
var (
	dimensionLadder = []int{1600, 1280, 1024, 800, 640, 480}
	qualityLadder   = []int{85, 70, 55, 40}
)

// EncodeImage searches for the smallest acceptable encoding under the
// hard byte budget. Lossless PNG is tried first; a preview is just a
// second invocation with a smaller budget.
func EncodeImage(img image.Image, byteBudget int) (*Encoded, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}
	losslessSize := buf.Len()
	if losslessSize <= byteBudget {
		return &Encoded{Data: buf.Bytes(), Mime: "image/png"}, nil
	}

	bounds := img.Bounds()
	longest := bounds.Dx()
	if bounds.Dy() > longest {
		longest = bounds.Dy()
	}

	// Native size is a rung too: an image smaller than every ladder
	// entry still deserves the quality ladder before giving up.
	dims := make([]int, 0, len(dimensionLadder)+1)
	for _, dim := range dimensionLadder {
		if dim <= longest {
			dims = append(dims, dim)
		}
	}
	if len(dims) == 0 || dims[0] < longest {
		dims = append([]int{longest}, dims...)
	}

	for _, dim := range dims {
		resized := imaging.Fit(img, dim, dim, imaging.Lanczos)
		for _, quality := range qualityLadder {
			var jbuf bytes.Buffer
			if err := imaging.Encode(&jbuf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
				return nil, fmt.Errorf("jpeg encode failed: %w", err)
			}
			if jbuf.Len() <= byteBudget {
				return &Encoded{Data: jbuf.Bytes(), Mime: "image/jpeg"}, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: lossless encoding was %d bytes, budget %d",
		ErrTooLarge, losslessSize, byteBudget)
}

// DecodeImage turns the raw clipboard bitmap into an image.Image.
func DecodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode clipboard image: %w", err)
	}
	return img, nil
}
