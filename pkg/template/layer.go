// Package template implements the compositing target for catalog image
// generation: a background canvas plus named, typed slots ("layers") that
// assets are injected into at render time.
//
// A Template serializes to a small SVG subset. Content layers become a
// group element with id "layer-<TYPE>-<n>" containing a single image
// element with id "image-<TYPE>-<n>"; the image reference is rewritten to
// a base64 data URI by the render pipeline. Selection layers (zoom/crop
// regions) use a distinct element name so generic SVG renderers ignore
// them. Layer markup is spliced into the document immediately before the
// closing root tag, so insertion order fixes z-order: later-added layers
// paint on top.
package template

import (
	"fmt"
	"strconv"
)

// LayerType identifies the role of a layer slot and which asset pool
// binds to it.
type LayerType int

// The closed set of layer types.
const (
	Primary LayerType = iota
	Presentation
	Secondary
	ZoomSelection
	CropSelection
)

var layerTypeNames = map[LayerType]string{
	Primary:       "PRIMARY",
	Presentation:  "PRESENTATION",
	Secondary:     "SECONDARY",
	ZoomSelection: "ZOOM_SELECTION",
	CropSelection: "CROP_SELECTION",
}

// String returns the canonical name used in layer ids and serialized
// markup.
func (t LayerType) String() string {
	if name, ok := layerTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("LayerType(%d)", int(t))
}

// ParseLayerType maps a canonical name back to a LayerType. The second
// return is false for unknown names, which callers treat as
// forward-compatible markup to ignore.
func ParseLayerType(name string) (LayerType, bool) {
	for t, n := range layerTypeNames {
		if n == name {
			return t, true
		}
	}
	return 0, false
}

// IsSelection reports whether the type is a zoom or crop selection region
// rather than a content slot.
func (t LayerType) IsSelection() bool {
	return t == ZoomSelection || t == CropSelection
}

// Singular reports whether a template may hold at most one layer of this
// type. Only SECONDARY layers may repeat.
func (t LayerType) Singular() bool {
	return t != Secondary
}

// Position is a 2-D placement plus stacking order. Immutable value type.
type Position struct {
	X float64
	Y float64
	Z float64
}

// Size is a width/height pair. Immutable value type; always positive when
// attached to a realized layer.
type Size struct {
	Width  float64
	Height float64
}

// Layer is one named slot in a template. Layers are created only through
// Template.AddLayer, which assigns a per-type ordinal that is never
// reused within the template's lifetime, keeping layer and image ids
// unique even after removals.
type Layer struct {
	typ     LayerType
	ordinal int
	pos     Position
	size    Size

	// embedded marks layers reconstructed from a loaded document whose
	// markup is already present in the base bytes and must not be
	// spliced in again.
	embedded bool
}

// Type returns the layer's role.
func (l *Layer) Type() LayerType { return l.typ }

// Ordinal returns the per-type sequence number assigned at construction.
func (l *Layer) Ordinal() int { return l.ordinal }

// Pos returns the layer's placement.
func (l *Layer) Pos() Position { return l.pos }

// Size returns the layer's dimensions.
func (l *Layer) Size() Size { return l.size }

// ID returns the globally unique slot identifier "layer-<TYPE>-<ordinal>".
func (l *Layer) ID() string {
	return fmt.Sprintf("layer-%s-%d", l.typ, l.ordinal)
}

// ImageID returns the identifier of the embedded image placeholder,
// "image-<TYPE>-<ordinal>". The render pipeline rewrites the href of the
// element with this id.
func (l *Layer) ImageID() string {
	return fmt.Sprintf("image-%s-%d", l.typ, l.ordinal)
}

// markup returns the layer's serialized slot snippet.
func (l *Layer) markup() string {
	if l.typ.IsSelection() {
		return fmt.Sprintf(
			"<selection_layer type=\"%s\" sel-x=\"%s\" sel-y=\"%s\" sel-width=\"%s\" sel-height=\"%s\" />\n",
			l.typ, fnum(l.pos.X), fnum(l.pos.Y), fnum(l.size.Width), fnum(l.size.Height))
	}
	return fmt.Sprintf(
		"<g id=\"%s\">\n"+
			"  <image y=\"%s\" x=\"%s\" id=\"%s\" preserveAspectRatio=\"none\" height=\"%s\" width=\"%s\" />\n"+
			"</g>\n",
		l.ID(), fnum(l.pos.Y), fnum(l.pos.X), l.ImageID(), fnum(l.size.Height), fnum(l.size.Width))
}

// fnum formats a float attribute without exponent notation or trailing
// zeros.
func fnum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
