package template

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prodkit/composer/pkg/errors"
)

// DefaultCanvasSize is used when SetBackground is called without an
// explicit size.
var DefaultCanvasSize = Size{Width: 1500, Height: 1500}

const closingRootTag = "</svg>"

// Template is the compositing target: an ordered list of layers over an
// optional background canvas. Insertion order is z-order.
//
// Rendered markup is memoized and invalidated on any mutation (adding,
// removing or updating a layer, or changing the background).
type Template struct {
	layers   []*Layer
	counters map[LayerType]int

	background string
	canvas     Size

	outputDir string

	// base holds the raw document bytes when the template was loaded
	// from a file; nil for interactively built templates.
	base []byte

	// rendered memoizes RenderToBytes output.
	rendered []byte
}

// New creates an empty template. The output directory defaults to the
// current working directory.
func New() *Template {
	cwd, _ := os.Getwd()
	return &Template{
		counters:  make(map[LayerType]int),
		canvas:    DefaultCanvasSize,
		outputDir: cwd,
	}
}

// SetOutputDir points the template at an existing directory for rendered
// output. Returns OUTPUT_DIR_INVALID when the path is not a directory.
func (t *Template) SetOutputDir(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return errors.New(errors.ErrCodeOutputDirInvalid, "output dir must be an existing directory: %s", path)
	}
	t.outputDir = path
	return nil
}

// OutputDir returns the configured output directory.
func (t *Template) OutputDir() string { return t.outputDir }

// Background returns the background asset path, or "" when unset.
func (t *Template) Background() string { return t.background }

// CanvasSize returns the canvas dimensions established by the background.
func (t *Template) CanvasSize() Size { return t.canvas }

// SetBackground establishes the canvas from a raster image file. If size
// is nil the default canvas size is used. Any previously loaded document
// is discarded as the base; existing layers are re-spliced over the new
// background.
func (t *Template) SetBackground(path string, size *Size) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return errors.New(errors.ErrCodeInvalidPath, "background must be an existing file: %s", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	t.background = abs
	if size != nil {
		t.canvas = *size
	} else {
		t.canvas = DefaultCanvasSize
	}

	// Layers parsed out of a loaded document were embedded in t.base;
	// with a fresh base they must be injected again.
	t.base = nil
	for _, l := range t.layers {
		l.embedded = false
	}

	t.invalidate()
	return nil
}

// RemoveBackground clears the canvas. Removal is forbidden while any
// content layer exists, since content layers are positioned relative to
// the background; selection layers do not block removal.
func (t *Template) RemoveBackground() error {
	for _, l := range t.layers {
		if !l.typ.IsSelection() {
			return errors.New(errors.ErrCodeBackgroundInUse,
				"cannot remove background while %d content layer(s) exist", t.contentLayerCount())
		}
	}
	t.background = ""
	t.invalidate()
	return nil
}

// AddLayer creates a new layer slot. Content layers require a background
// (or a loaded base document) to exist first; selection layers do not.
// Singular types (everything except SECONDARY) may appear at most once.
func (t *Template) AddLayer(pos Position, size Size, typ LayerType) (*Layer, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "layer size must be positive, got %gx%g", size.Width, size.Height)
	}

	if !typ.IsSelection() && t.background == "" && t.base == nil {
		return nil, errors.New(errors.ErrCodeNoBackground, "a background must be set before adding a %s layer", typ)
	}

	if typ.Singular() {
		for _, l := range t.layers {
			if l.typ == typ {
				return nil, errors.New(errors.ErrCodeMultipleLayers, "template already has a %s layer", typ)
			}
		}
	}

	layer := t.newLayer(pos, size, typ)
	t.layers = append(t.layers, layer)
	t.invalidate()
	return layer, nil
}

// newLayer constructs a layer with the next per-type ordinal. Ordinals
// are owned by the template, not shared process-wide, so ids never
// collide across templates or tests.
func (t *Template) newLayer(pos Position, size Size, typ LayerType) *Layer {
	ordinal := t.counters[typ]
	t.counters[typ] = ordinal + 1
	return &Layer{typ: typ, ordinal: ordinal, pos: pos, size: size}
}

// RemoveLayer detaches a layer from the template. Its ordinal is not
// reused. Returns false if the layer does not belong to this template.
func (t *Template) RemoveLayer(layer *Layer) bool {
	for i, l := range t.layers {
		if l == layer {
			t.layers = append(t.layers[:i], t.layers[i+1:]...)
			t.invalidate()
			return true
		}
	}
	return false
}

// UpdateLayer applies a partial geometry update; nil fields are left
// unchanged.
func (t *Template) UpdateLayer(layer *Layer, pos *Position, size *Size) {
	if pos != nil {
		layer.pos = *pos
	}
	if size != nil {
		layer.size = *size
	}
	t.invalidate()
}

// Layers returns the layers in insertion (z) order. The slice must not be
// modified.
func (t *Template) Layers() []*Layer { return t.layers }

// PrimaryLayer returns the single PRIMARY layer, nil when none exists,
// and an error when the structural invariant is violated.
func (t *Template) PrimaryLayer() (*Layer, error) { return t.singularLayer(Primary) }

// PresentationLayer returns the single PRESENTATION layer, nil when none
// exists.
func (t *Template) PresentationLayer() (*Layer, error) { return t.singularLayer(Presentation) }

// ZoomSelectionLayer returns the zoom selection region, nil when none
// exists.
func (t *Template) ZoomSelectionLayer() (*Layer, error) { return t.singularLayer(ZoomSelection) }

// CropSelectionLayer returns the crop selection region, nil when none
// exists.
func (t *Template) CropSelectionLayer() (*Layer, error) { return t.singularLayer(CropSelection) }

// SecondaryLayers returns all SECONDARY layers in insertion order.
func (t *Template) SecondaryLayers() []*Layer {
	var out []*Layer
	for _, l := range t.layers {
		if l.typ == Secondary {
			out = append(out, l)
		}
	}
	return out
}

func (t *Template) singularLayer(typ LayerType) (*Layer, error) {
	var found *Layer
	for _, l := range t.layers {
		if l.typ != typ {
			continue
		}
		if found != nil {
			return nil, errors.New(errors.ErrCodeMultipleLayers, "template has more than one %s layer", typ)
		}
		found = l
	}
	return found, nil
}

func (t *Template) contentLayerCount() int {
	n := 0
	for _, l := range t.layers {
		if !l.typ.IsSelection() {
			n++
		}
	}
	return n
}

// invalidate drops the memoized markup after any mutation.
func (t *Template) invalidate() {
	t.rendered = nil
}

// RenderToBytes returns the canonical markup: the base document with
// every non-embedded layer's slot snippet spliced immediately before the
// closing root tag, in insertion order. The result is memoized until the
// template mutates.
func (t *Template) RenderToBytes() ([]byte, error) {
	if t.rendered != nil {
		return t.rendered, nil
	}

	base := t.base
	if base == nil {
		if t.background == "" {
			return nil, errors.New(errors.ErrCodeNoBackground, "a background must be set before rendering")
		}
		base = t.baseSVG()
	}

	doc := base
	for _, l := range t.layers {
		if l.embedded {
			continue
		}
		doc = injectBeforeClose(doc, l.markup())
	}

	t.rendered = doc
	return doc, nil
}

// Render writes the template markup to "template.svg" in the output
// directory and returns the file path.
func (t *Template) Render() (string, error) {
	doc, err := t.RenderToBytes()
	if err != nil {
		return "", err
	}
	path := filepath.Join(t.outputDir, "template.svg")
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// baseSVG builds the root document: a canvas-sized SVG holding the
// background image referenced by path.
func (t *Template) baseSVG() []byte {
	w := fnum(t.canvas.Width)
	h := fnum(t.canvas.Height)
	return fmt.Appendf(nil,
		"<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\""+
			" width=\"%s\" height=\"%s\" viewBox=\"0 0 %s %s\">\n"+
			"<image x=\"0\" y=\"0\" id=\"background\" preserveAspectRatio=\"none\""+
			" width=\"%s\" height=\"%s\" xlink:href=\"%s\" />\n"+
			closingRootTag+"\n",
		w, h, w, h, w, h, t.background)
}

// injectBeforeClose splices snippet immediately before the closing root
// tag. The splice is textual, matching the serialization convention: the
// document always carries exactly one closing root tag at its tail.
func injectBeforeClose(doc []byte, snippet string) []byte {
	idx := bytes.LastIndex(doc, []byte(closingRootTag))
	if idx < 0 {
		return append(doc, []byte(snippet+closingRootTag)...)
	}
	out := make([]byte, 0, len(doc)+len(snippet))
	out = append(out, doc[:idx]...)
	out = append(out, snippet...)
	out = append(out, doc[idx:]...)
	return out
}
