package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/prodkit/composer/pkg/cache"
	"github.com/prodkit/composer/pkg/composition"
	"github.com/prodkit/composer/pkg/errors"
	"github.com/prodkit/composer/pkg/geometry"
)

// Directory names of the catalog layout written by Save.
const (
	DirLineProducts = "LINE-PRODUCTS"
	DirPresentation = "PRESENTATION"
	DirBackground   = "BACKGROUND"
	DirClipping     = "CLIPPING"
)

// Result contains the outputs of rendering one composition.
type Result struct {
	// OutputPath is the rendered image file.
	OutputPath string

	// MarkupPath is the intermediate markup kept beside the output.
	MarkupPath string

	// ScaleFactor is the factor applied by the resize step, 1.0 unless
	// a single-dimension resize branch executed.
	ScaleFactor float64

	// Skipped reports that the destination already existed and the
	// existing file was left untouched.
	Skipped bool
}

// Pipeline renders compositions. It owns the per-asset encoding cache,
// so one Pipeline instance can be shared across a whole batch run.
type Pipeline struct {
	raster Rasterizer
	assets cache.Cache
	logger *log.Logger
}

// NewPipeline creates a pipeline with the given rasterizer and asset
// cache. A nil rasterizer uses rsvg-convert; a nil cache disables
// encoding memoization; a nil logger discards output.
func NewPipeline(r Rasterizer, assets cache.Cache, logger *log.Logger) *Pipeline {
	if r == nil {
		r = RSVG{}
	}
	if assets == nil {
		assets = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Pipeline{raster: r, assets: assets, logger: logger}
}

// encodeAsset returns the base64 data URI for an asset file, memoized
// across renders in the same process.
func (p *Pipeline) encodeAsset(ctx context.Context, path string) (string, error) {
	key := "asset:" + path
	if data, ok, err := p.assets.Get(ctx, key); err == nil && ok {
		return string(data), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "reading asset %s", path)
	}

	uri := "data:" + assetMIME(path) + ";base64," + base64.StdEncoding.EncodeToString(raw)
	if err := p.assets.Set(ctx, key, []byte(uri), cache.TTLAssetEncoding); err != nil {
		p.logger.Debug("caching asset encoding failed", "path", path, "error", err)
	}
	return uri, nil
}

func assetMIME(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// InjectItems renders the template markup with every bound asset
// embedded as a data URI on its layer's image placeholder.
func (p *Pipeline) InjectItems(ctx context.Context, c *composition.Composition) ([]byte, error) {
	doc, err := c.Template().RenderToBytes()
	if err != nil {
		return nil, err
	}

	for _, it := range c.Items() {
		if it.Layer.Type().IsSelection() {
			continue
		}
		uri, err := p.encodeAsset(ctx, it.AssetPath)
		if err != nil {
			return nil, err
		}
		doc, err = injectHref(doc, it.Layer.ImageID(), uri)
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

var hrefAttrRe = regexp.MustCompile(`\s+(?:xlink:)?href="[^"]*"`)

// injectHref rewrites the href of the image element carrying imageID.
func injectHref(doc []byte, imageID, uri string) ([]byte, error) {
	re := regexp.MustCompile(`<image\b[^>]*\bid="` + regexp.QuoteMeta(imageID) + `"[^>]*/>`)
	loc := re.FindIndex(doc)
	if loc == nil {
		return nil, errors.New(errors.ErrCodeLayerSlotMismatch,
			"no image placeholder with id %q in template markup", imageID)
	}

	elem := hrefAttrRe.ReplaceAll(doc[loc[0]:loc[1]], nil)
	elem = append(elem[:len(elem)-2], []byte(fmt.Sprintf(`xlink:href="%s" />`, uri))...)

	out := make([]byte, 0, len(doc)+len(elem))
	out = append(out, doc[:loc[0]]...)
	out = append(out, elem...)
	out = append(out, doc[loc[1]:]...)
	return out, nil
}

// Render renders one composition: inject, rasterize, resize, sharpen,
// encode. The intermediate markup is always persisted; the raster
// stages are skipped entirely when the destination exists and
// OverrideImages is off.
func (p *Pipeline) Render(ctx context.Context, c *composition.Composition, opts *Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	name, warnings := composition.OutputName(c, opts.NamePatterns())
	for _, w := range warnings {
		p.logger.Warn(w)
	}

	dir := filepath.Join(opts.OutputDir, DirLineProducts, composition.PrimaryCode(c, opts.NamePatterns()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "creating output directory %s", dir)
	}

	dest := filepath.Join(dir, name)
	markupPath := strings.TrimSuffix(dest, filepath.Ext(dest)) + ".svg"

	doc, err := p.InjectItems(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(markupPath, doc, 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "writing markup %s", markupPath)
	}

	if !opts.OverrideImages {
		if _, err := os.Stat(dest); err == nil {
			p.logger.Debug("destination exists, skipping", "path", dest)
			return &Result{OutputPath: dest, MarkupPath: markupPath, ScaleFactor: 1.0, Skipped: true}, nil
		}
	}

	img, err := p.raster.Rasterize(ctx, doc, opts.Resolution)
	if err != nil {
		return nil, err
	}

	img, factor := p.finish(img, opts)
	if err := encodeToFile(dest, img, opts.Extension); err != nil {
		return nil, err
	}

	return &Result{OutputPath: dest, MarkupPath: markupPath, ScaleFactor: factor}, nil
}

// finish applies the adaptive resize and the optional fixed sharpen
// pipeline. It returns the realized scale factor.
func (p *Pipeline) finish(img image.Image, opts *Options) (image.Image, float64) {
	b := img.Bounds()
	w, h, factor := geometry.AdaptiveSize(b.Dx(), b.Dy(), opts.AdaptiveResizeWidth, opts.AdaptiveResizeHeight)
	if w != b.Dx() || h != b.Dy() {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}
	if opts.Unsharp {
		// Fixed visual-quality filter: unsharp mask then adaptive
		// sharpen, approximated by two sharpen passes.
		img = imaging.Sharpen(img, 1.0)
		img = imaging.Sharpen(img, 2.5)
	}
	return img, factor
}
