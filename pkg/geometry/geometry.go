// Package geometry provides the 2-D math used by the composer pipeline:
// aspect-ratio-preserving resize computation, minimal-change ratio
// correction, and rectangle clamping for crop-region mapping.
//
// All types are plain float64 value types. Pixel rounding happens at the
// edges of the package (AdaptiveSize returns int dimensions); everything
// else stays in floating point so repeated transforms don't accumulate
// integer truncation.
package geometry

import "math"

// Rect is a width/height pair without a position.
type Rect struct {
	Width  float64
	Height float64
}

// Ratio returns width divided by height. Returns 0 for a zero-height rect.
func (r Rect) Ratio() float64 {
	if r.Height == 0 {
		return 0
	}
	return r.Width / r.Height
}

// MinResize returns the rectangle closest to r (by absolute dimension
// change) whose width/height ratio equals ratio. Exactly one dimension is
// adjusted: the candidate width change (height fixed) and height change
// (width fixed) are computed, and whichever has the smaller magnitude is
// applied. A rectangle already at the requested ratio is returned
// unchanged, so the operation is idempotent.
func MinResize(r Rect, ratio float64) Rect {
	if ratio <= 0 || r.Height == 0 {
		return r
	}

	dw := r.Height*ratio - r.Width // width change with height fixed
	dh := r.Width/ratio - r.Height // height change with width fixed

	if math.Abs(dw) < math.Abs(dh) {
		return Rect{Width: r.Width + dw, Height: r.Height}
	}
	return Rect{Width: r.Width, Height: r.Height + dh}
}

// Region is a positioned rectangle in some coordinate space.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Empty reports whether the region has no area.
func (g Region) Empty() bool {
	return g.Width <= 0 || g.Height <= 0
}

// Scale returns the region with position and size multiplied by f.
func (g Region) Scale(f float64) Region {
	return Region{X: g.X * f, Y: g.Y * f, Width: g.Width * f, Height: g.Height * f}
}

// Translate returns the region shifted by (dx, dy).
func (g Region) Translate(dx, dy float64) Region {
	return Region{X: g.X + dx, Y: g.Y + dy, Width: g.Width, Height: g.Height}
}

// Intersect returns the overlap of g and bounds. The result is empty when
// the regions do not overlap.
func (g Region) Intersect(bounds Region) Region {
	x0 := math.Max(g.X, bounds.X)
	y0 := math.Max(g.Y, bounds.Y)
	x1 := math.Min(g.X+g.Width, bounds.X+bounds.Width)
	y1 := math.Min(g.Y+g.Height, bounds.Y+bounds.Height)
	if x1 <= x0 || y1 <= y0 {
		return Region{X: x0, Y: y0}
	}
	return Region{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Clamp constrains g to lie fully within bounds. The region is first moved
// inside the bounds, then trimmed if it is larger than them. Unlike
// Intersect it never extends past the source edges and keeps as much of
// the original area as possible.
func (g Region) Clamp(bounds Region) Region {
	out := g
	if out.Width > bounds.Width {
		out.Width = bounds.Width
	}
	if out.Height > bounds.Height {
		out.Height = bounds.Height
	}
	if out.X < bounds.X {
		out.X = bounds.X
	}
	if out.Y < bounds.Y {
		out.Y = bounds.Y
	}
	if out.X+out.Width > bounds.X+bounds.Width {
		out.X = bounds.X + bounds.Width - out.Width
	}
	if out.Y+out.Height > bounds.Y+bounds.Height {
		out.Y = bounds.Y + bounds.Height - out.Height
	}
	return out
}

// AdaptiveSize computes the output dimensions for an adaptive resize of a
// srcW×srcH image into the requested box.
//
// When both target dimensions are non-zero the image is resized to exactly
// that box; the aspect ratio is intentionally not preserved (callers
// pre-correct the ratio with MinResize when it matters) and the returned
// factor is 1.0. When exactly one target dimension is zero the scale
// factor is derived from the non-zero dimension and applied uniformly to
// both axes; the realized factor is returned so callers can propagate it
// into dependent geometry such as zoom-crop mapping. When both targets are
// zero the source dimensions are returned unchanged.
func AdaptiveSize(srcW, srcH, targetW, targetH int) (w, h int, factor float64) {
	switch {
	case targetW == 0 && targetH == 0:
		return srcW, srcH, 1.0
	case targetW != 0 && targetH != 0:
		return targetW, targetH, 1.0
	case targetH == 0:
		factor = float64(targetW) / float64(srcW)
	default:
		factor = float64(targetH) / float64(srcH)
	}
	w = int(math.Round(float64(srcW) * factor))
	h = int(math.Round(float64(srcH) * factor))
	return w, h, factor
}
