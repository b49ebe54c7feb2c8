package imagediff

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

// Mask is a per-pixel mismatch bitmap.
type Mask struct {
	W, H int
	bits []bool
}

// NewMask allocates a w×h mask with no pixels set.
func NewMask(w, h int) *Mask {
	return &Mask{W: w, H: h, bits: make([]bool, w*h)}
}

// Set marks (x, y) mismatched.
func (m *Mask) Set(x, y int) { m.bits[y*m.W+x] = true }

// At reports whether (x, y) is mismatched.
func (m *Mask) At(x, y int) bool { return m.bits[y*m.W+x] }

// Components groups mismatched pixels into 8-connected regions and
// returns one bounding rectangle per region. Flood fill over a visited
// mask touches each mismatched pixel exactly once, so the whole pass
// is linear in the pixel count.
func Components(m *Mask) []image.Rectangle {
	if m == nil || m.W == 0 || m.H == 0 {
		return nil
	}
	visited := make([]bool, m.W*m.H)
	var regions []image.Rectangle

	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			idx := y*m.W + x
			if !m.bits[idx] || visited[idx] {
				continue
			}
			regions = append(regions, floodFill(m, visited, x, y))
		}
	}
	return regions
}

type point struct{ x, y int }

func floodFill(m *Mask, visited []bool, startX, startY int) image.Rectangle {
	minX, maxX := startX, startX
	minY, maxY := startY, startY

	queue := []point{{startX, startY}}
	visited[startY*m.W+startX] = true

	// head index instead of re-slicing keeps the queue O(region).
	for head := 0; head < len(queue); head++ {
		p := queue[head]
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := p.x+dx, p.y+dy
				if nx < 0 || ny < 0 || nx >= m.W || ny >= m.H {
					continue
				}
				idx := ny*m.W + nx
				if visited[idx] || !m.bits[idx] {
					continue
				}
				visited[idx] = true
				queue = append(queue, point{nx, ny})
				if nx < minX {
					minX = nx
				}
				if nx > maxX {
					maxX = nx
				}
				if ny < minY {
					minY = ny
				}
				if ny > maxY {
					maxY = ny
				}
			}
		}
	}
	// Rectangle is exclusive at Max; the region spans [min, max]
	// inclusive in pixel terms.
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

const highlightStroke = 2

// DrawHighlights strokes a red rectangle around each region on a copy
// of img.
func DrawHighlights(img image.Image, regions []image.Rectangle) *image.NRGBA {
	dc := gg.NewContextForImage(imaging.Clone(img))
	dc.SetRGB255(255, 0, 0)
	dc.SetLineWidth(highlightStroke)
	for _, r := range regions {
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Stroke()
	}
	return imaging.Clone(dc.Image())
}
