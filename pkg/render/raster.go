package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"

	"github.com/prodkit/composer/pkg/errors"
)

// Rasterizer turns template markup into a raster image at the given
// resolution.
type Rasterizer interface {
	Rasterize(ctx context.Context, svg []byte, dpi int) (image.Image, error)
}

// RSVG rasterizes via the rsvg-convert binary.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
type RSVG struct{}

// Rasterize shells out to rsvg-convert and decodes its PNG output.
func (RSVG) Rasterize(ctx context.Context, svg []byte, dpi int) (image.Image, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, errors.New(errors.ErrCodeRasterize,
			"rasterization requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin")
	}

	args := []string{"-f", "png"}
	if dpi > 0 {
		args = append(args, "-d", fmt.Sprintf("%d", dpi), "-p", fmt.Sprintf("%d", dpi))
	}
	cmd := exec.CommandContext(ctx, "rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRasterize, err, "rsvg-convert: %s", errBuf.String())
	}

	img, err := png.Decode(&out)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRasterize, err, "decoding rsvg-convert output")
	}
	return img, nil
}
