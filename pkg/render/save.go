package render

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prodkit/composer/pkg/composition"
	"github.com/prodkit/composer/pkg/errors"
)

// Save renders one composition and lays out the catalog directory: the
// rendered image, its markup and zoom crop under LINE-PRODUCTS, plus
// idempotent copies of the presentation, background and source assets
// for downstream cataloguing. It returns the rendered image path.
func (p *Pipeline) Save(ctx context.Context, c *composition.Composition, opts *Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if info, err := os.Stat(opts.OutputDir); err != nil || !info.IsDir() {
		return nil, errors.New(errors.ErrCodeOutputDirInvalid, "output directory %q is not an existing directory", opts.OutputDir)
	}

	res, err := p.Render(ctx, c, opts)
	if err != nil {
		return nil, err
	}

	if _, err := p.ExtractZoom(ctx, c, res, opts); err != nil {
		// A failed zoom crop is omitted, the primary render stands.
		p.logger.Error("zoom extraction failed", "output", res.OutputPath, "error", err)
	}

	if err := p.copyAssets(c, opts); err != nil {
		return nil, err
	}
	return res, nil
}

// copyAssets copies the composition's source assets into the catalog
// layout. Every copy skips existing destinations.
func (p *Pipeline) copyAssets(c *composition.Composition, opts *Options) error {
	if opts.IncludePresentationItems {
		if it, err := c.PresentationItem(); err == nil && it != nil {
			dir := filepath.Join(opts.OutputDir, DirPresentation, stem(it.AssetPath))
			if err := copyIfAbsent(it.AssetPath, filepath.Join(dir, filepath.Base(it.AssetPath))); err != nil {
				return err
			}
		}
	}

	if bg := c.Template().Background(); bg != "" {
		dest := filepath.Join(opts.OutputDir, DirBackground, filepath.Base(bg))
		if err := copyIfAbsent(bg, dest); err != nil {
			return err
		}
	}

	if it, err := c.PrimaryItem(); err == nil && it != nil {
		dir := filepath.Join(opts.OutputDir, DirClipping, stem(it.AssetPath))
		if err := copyIfAbsent(it.AssetPath, filepath.Join(dir, filepath.Base(it.AssetPath))); err != nil {
			return err
		}
	}

	if opts.IncludeSecondaryItems {
		for _, it := range c.SecondaryItems() {
			dest := filepath.Join(opts.OutputDir, DirClipping, filepath.Base(it.AssetPath))
			if err := copyIfAbsent(it.AssetPath, dest); err != nil {
				return err
			}
		}
	}
	return nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// copyIfAbsent copies src to dest unless dest already exists, creating
// parent directories as needed.
func copyIfAbsent(src, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "creating %s", filepath.Dir(dest))
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "opening %s", src)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "creating %s", dest)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "copying %s", src)
	}
	return nil
}
