package render

import (
	"context"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/prodkit/composer/pkg/composition"
	"github.com/prodkit/composer/pkg/errors"
	"github.com/prodkit/composer/pkg/geometry"
)

// ZoomSuffix is appended (before the extension) to zoom crop outputs.
const ZoomSuffix = ".zoom.webp"

// ExtractZoom derives the zoom crop for an already-rendered composition
// and writes it beside res.OutputPath. It is a no-op when the template
// declares no zoom selection. The primary asset region is cut at full
// source resolution; the background backdrop is cut at template
// resolution and upscaled so the two align pixel-for-pixel.
func (p *Pipeline) ExtractZoom(ctx context.Context, c *composition.Composition, res *Result, opts *Options) (string, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return "", err
	}

	zoomLayer, err := c.Template().ZoomSelectionLayer()
	if err != nil {
		return "", err
	}
	if zoomLayer == nil {
		return "", nil
	}

	dest := strings.TrimSuffix(res.OutputPath, filepath.Ext(res.OutputPath)) + ZoomSuffix
	if !opts.OverrideImages {
		if _, err := os.Stat(dest); err == nil {
			p.logger.Debug("zoom destination exists, skipping", "path", dest)
			return dest, nil
		}
	}

	primaryItem, err := c.PrimaryItem()
	if err != nil {
		return "", err
	}
	if primaryItem == nil {
		return "", errors.New(errors.ErrCodeZoomExtraction, "composition has no primary item")
	}
	primaryLayer, err := c.Template().PrimaryLayer()
	if err != nil || primaryLayer == nil {
		return "", errors.New(errors.ErrCodeZoomExtraction, "template has no primary layer")
	}

	src, err := imaging.Open(primaryItem.AssetPath)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeZoomExtraction, err, "opening primary asset %s", primaryItem.AssetPath)
	}

	// The primary asset is placed on the canvas at the layer's size, so
	// canvas coordinates map to source coordinates by this factor.
	scale := primaryLayer.Size().Width / float64(src.Bounds().Dx())
	if scale <= 0 {
		return "", errors.New(errors.ErrCodeZoomExtraction, "primary layer has no placement scale")
	}

	sel := geometry.Region{
		X:      zoomLayer.Pos().X,
		Y:      zoomLayer.Pos().Y,
		Width:  zoomLayer.Size().Width,
		Height: zoomLayer.Size().Height,
	}
	if opts.ForceZoomAR {
		trimmed := geometry.MinResize(
			geometry.Rect{Width: sel.Width, Height: sel.Height},
			float64(opts.ZoomARX)/float64(opts.ZoomARY))
		sel.Width, sel.Height = trimmed.Width, trimmed.Height
	}

	// Map the selection into the full-resolution primary asset's space
	// and never extend past its edges.
	srcBounds := geometry.Region{
		Width:  float64(src.Bounds().Dx()),
		Height: float64(src.Bounds().Dy()),
	}
	fg := sel.
		Translate(-primaryLayer.Pos().X, -primaryLayer.Pos().Y).
		Scale(1 / scale).
		Clamp(srcBounds)
	if fg.Empty() {
		return "", errors.New(errors.ErrCodeZoomExtraction, "zoom selection does not intersect the primary asset")
	}
	foreground := imaging.Crop(src, regionRect(fg))

	bg, err := imaging.Open(c.Template().Background())
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeZoomExtraction, err, "opening background %s", c.Template().Background())
	}

	// Background coordinates equal template coordinates: crop unscaled,
	// then upscale so backdrop pixels match foreground pixels.
	bgBounds := geometry.Region{
		Width:  float64(bg.Bounds().Dx()),
		Height: float64(bg.Bounds().Dy()),
	}
	bd := sel.Clamp(bgBounds)
	if bd.Empty() {
		return "", errors.New(errors.ErrCodeZoomExtraction, "zoom selection does not intersect the background")
	}
	backdrop := imaging.Crop(bg, regionRect(bd))
	backdrop = imaging.Resize(backdrop,
		int(math.Round(bd.Width/scale)),
		int(math.Round(bd.Height/scale)),
		imaging.Lanczos)

	// Paste the foreground at its canvas offset within the selection,
	// converted to backdrop pixels.
	offX := (fg.X*scale + primaryLayer.Pos().X - bd.X) / scale
	offY := (fg.Y*scale + primaryLayer.Pos().Y - bd.Y) / scale
	combined := imaging.Overlay(backdrop, foreground,
		image.Pt(int(math.Round(offX)), int(math.Round(offY))), 1.0)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, _ := p.finish(combined, opts)
	if err := encodeToFile(dest, out, "webp"); err != nil {
		return "", errors.Wrap(errors.ErrCodeZoomExtraction, err, "writing zoom crop")
	}
	return dest, nil
}

// regionRect converts a float region to integer pixel bounds.
func regionRect(r geometry.Region) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.X+r.Width)),
		int(math.Round(r.Y+r.Height)))
}
