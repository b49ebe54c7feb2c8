// Package imagediff compares two rasters pixel by pixel. Images are
// aligned onto a shared white canvas anchored at the top-left, so a
// taller page (content drift between deployments) still compares over
// the overlapping region instead of failing on dimensions.
package imagediff

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Metrics describes the pixel-level outcome of one comparison.
type Metrics struct {
	Width              int
	Height             int
	MismatchedPixels   int
	MismatchPercentage float64 // rounded to 4 decimal places
}

// Result carries the metrics plus the derived images. Highlight is nil
// unless requested via Options.
type Result struct {
	Metrics
	DiffImage      *image.NRGBA
	HighlightImage *image.NRGBA
	Regions        []image.Rectangle
	mask           *Mask
}

// Options controls optional outputs.
type Options struct {
	// Highlight draws a bounding rectangle around every connected
	// mismatch region on a copy of the compare image.
	Highlight bool
}

// Decode parses captured screenshot bytes into an image.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imagediff: decode: %w", err)
	}
	return img, nil
}

var white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// PadToSameSize places both images on canvases sized to the
// element-wise maximum of their dimensions, anchored at the origin and
// filled white.
func PadToSameSize(a, b image.Image) (*image.NRGBA, *image.NRGBA) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() == bb.Dx() && ab.Dy() == bb.Dy() {
		return imaging.Clone(a), imaging.Clone(b)
	}
	w := max(ab.Dx(), bb.Dx())
	h := max(ab.Dy(), bb.Dy())
	pa := imaging.Paste(imaging.New(w, h, white), a, image.Pt(0, 0))
	pb := imaging.Paste(imaging.New(w, h, white), b, image.Pt(0, 0))
	return pa, pb
}

// Compare diffs base against cmp. The absolute per-channel difference
// is symmetric, so swapping the arguments yields identical metrics.
func Compare(base, cmp image.Image, opts Options) (*Result, error) {
	a, b := PadToSameSize(base, cmp)
	w, h := a.Bounds().Dx(), a.Bounds().Dy()

	diff := image.NewNRGBA(image.Rect(0, 0, w, h))
	mask := NewMask(w, h)
	mismatched := 0

	for y := 0; y < h; y++ {
		ao := a.PixOffset(0, y)
		bo := b.PixOffset(0, y)
		do := diff.PixOffset(0, y)
		for x := 0; x < w; x++ {
			dr := absDiff(a.Pix[ao], b.Pix[bo])
			dg := absDiff(a.Pix[ao+1], b.Pix[bo+1])
			db := absDiff(a.Pix[ao+2], b.Pix[bo+2])
			diff.Pix[do] = dr
			diff.Pix[do+1] = dg
			diff.Pix[do+2] = db
			diff.Pix[do+3] = 255
			if dr != 0 || dg != 0 || db != 0 {
				mask.Set(x, y)
				mismatched++
			}
			ao += 4
			bo += 4
			do += 4
		}
	}

	total := w * h
	pct := 0.0
	if total > 0 {
		pct = float64(mismatched) / float64(total) * 100
	}

	res := &Result{
		Metrics: Metrics{
			Width:              w,
			Height:             h,
			MismatchedPixels:   mismatched,
			MismatchPercentage: math.Round(pct*10000) / 10000,
		},
		DiffImage: diff,
		mask:      mask,
	}

	if opts.Highlight {
		res.Regions = Components(mask)
		res.HighlightImage = DrawHighlights(b, res.Regions)
	}
	return res, nil
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
