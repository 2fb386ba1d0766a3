package geom

import (
	"image"
	"image/draw"
	"math"
	"math/rand/v2"

	"golang.org/x/image/vector"

	"github.com/matzehuels/mangalayout/pkg/errors"
)

// erodeDivisor sizes the structuring element relative to the polygon: a
// polygon of height h is eroded vertically by h/erodeDivisor pixels.
const erodeDivisor = 5

// Region is the set of pixels a sample point may be drawn from.
type Region struct {
	origin image.Point
	width  int
	pixels []int32
}

// NewRegion rasterizes p, clipped to a pageW×pageH page, and erodes the mask
// first with a (height/5 × 1) and then a (1 × width/5) rectangle, where width
// and height are those of p's bounds. Pixels outside the page count as empty.
func NewRegion(p Polygon, pageW, pageH int) (*Region, error) {
	if len(p) < 3 {
		return nil, errors.New(errors.ErrCodeGeometry, "region needs at least 3 vertices, got %d", len(p))
	}
	b := p.Bounds()
	x0 := clamp(int(math.Floor(b.Min.X)), 0, pageW)
	y0 := clamp(int(math.Floor(b.Min.Y)), 0, pageH)
	x1 := clamp(int(math.Ceil(b.Max.X)), 0, pageW)
	y1 := clamp(int(math.Ceil(b.Max.Y)), 0, pageH)
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 {
		return &Region{origin: image.Pt(x0, y0)}, nil
	}

	mask := rasterize(p, x0, y0, w, h)

	kh := max(int(b.Height())/erodeDivisor, 1)
	kw := max(int(b.Width())/erodeDivisor, 1)
	mask = erodeColumns(mask, w, h, kh)
	mask = erodeRows(mask, w, h, kw)

	r := &Region{origin: image.Pt(x0, y0), width: w}
	for i, on := range mask {
		if on {
			r.pixels = append(r.pixels, int32(i))
		}
	}
	return r, nil
}

// Len returns the number of drawable pixels.
func (r *Region) Len() int {
	return len(r.pixels)
}

// Sample returns a uniformly chosen drawable pixel in page coordinates.
func (r *Region) Sample(rng *rand.Rand) (x, y int, err error) {
	if len(r.pixels) == 0 {
		return 0, 0, errors.New(errors.ErrCodeSamplingExhausted, "drawable region is empty")
	}
	i := int(r.pixels[rng.IntN(len(r.pixels))])
	return r.origin.X + i%r.width, r.origin.Y + i/r.width, nil
}

// Contains reports whether the page pixel (x, y) is drawable.
func (r *Region) Contains(x, y int) bool {
	lx, ly := x-r.origin.X, y-r.origin.Y
	if lx < 0 || ly < 0 || lx >= r.width || r.width == 0 {
		return false
	}
	want := int32(ly*r.width + lx)
	lo, hi := 0, len(r.pixels)
	for lo < hi {
		mid := (lo + hi) / 2
		if r.pixels[mid] < want {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(r.pixels) && r.pixels[lo] == want
}

// rasterize fills p into a w×h boolean mask whose top-left is page pixel
// (x0, y0). A pixel is set when at least half of it is covered.
func rasterize(p Polygon, x0, y0, w, h int) []bool {
	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src
	z.MoveTo(float32(p[0].X)-float32(x0), float32(p[0].Y)-float32(y0))
	for _, c := range p[1:] {
		z.LineTo(float32(c.X)-float32(x0), float32(c.Y)-float32(y0))
	}
	z.ClosePath()

	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})

	mask := make([]bool, w*h)
	for i, a := range dst.Pix {
		mask[i] = a >= 0x80
	}
	return mask
}

// erodeColumns applies a centred k×1 vertical erosion.
func erodeColumns(mask []bool, w, h, k int) []bool {
	out := make([]bool, len(mask))
	col := make([]bool, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = mask[y*w+x]
		}
		for y, on := range erode1D(col, k) {
			out[y*w+x] = on
		}
	}
	return out
}

// erodeRows applies a centred 1×k horizontal erosion.
func erodeRows(mask []bool, w, h, k int) []bool {
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		copy(out[y*w:(y+1)*w], erode1D(mask[y*w:(y+1)*w], k))
	}
	return out
}

// erode1D keeps position i only if every position in [i-k/2, i-k/2+k) is set.
// Positions outside the line are unset.
func erode1D(line []bool, k int) []bool {
	n := len(line)
	prefix := make([]int, n+1)
	for i, on := range line {
		prefix[i+1] = prefix[i]
		if on {
			prefix[i+1]++
		}
	}
	out := make([]bool, n)
	for i := range out {
		lo := i - k/2
		hi := lo + k
		if lo < 0 || hi > n {
			continue
		}
		out[i] = prefix[hi]-prefix[lo] == k
	}
	return out
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
