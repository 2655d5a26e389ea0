package template

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/prodkit/composer/pkg/errors"
)

// Load reconstructs a template from an existing markup document. The
// document is scanned for slot identifiers: group elements with an id of
// the form "layer-<TYPE>-<n>" supply a content layer whose geometry is
// read from the inner "image-…" element, and selection_layer elements
// supply selection regions. Unknown TYPE tokens are ignored, keeping the
// format forward-compatible.
//
// The loaded document itself becomes the template's base markup, so
// RenderToBytes reproduces it byte-for-byte until the template mutates.
// File ordinals are preserved on the reconstructed layers and the
// per-type counters resume past them, so ids stay unique when more
// layers are added.
func Load(r io.Reader) (*Template, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTemplateParse, err, "read template")
	}

	t := New()
	t.base = data

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	// A content layer's geometry lives on its inner image element, so a
	// recognized layer id is held until that element arrives.
	pendingOrdinal := -1
	var pendingType LayerType

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeTemplateParse, err, "parse template markup")
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if se.Name.Local == "selection_layer" {
			t.loadSelection(se)
			continue
		}

		id := attrValue(se, "id")
		switch {
		case strings.HasPrefix(id, "layer-"):
			typ, ordinal, ok := parseSlotID(id)
			if ok && !typ.IsSelection() {
				pendingType, pendingOrdinal = typ, ordinal
			} else {
				pendingOrdinal = -1
			}
		case strings.HasPrefix(id, "image-") && pendingOrdinal >= 0:
			pos := Position{X: floatAttr(se, "x"), Y: floatAttr(se, "y")}
			size := Size{Width: floatAttr(se, "width"), Height: floatAttr(se, "height")}
			t.addLoadedLayer(pos, size, pendingType, pendingOrdinal)
			pendingOrdinal = -1
		}
	}

	return t, nil
}

// LoadFromFile is a convenience wrapper around Load for a file path.
func LoadFromFile(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open template %s", path)
	}
	defer f.Close()
	return Load(f)
}

// loadSelection reconstructs a selection region from its element.
// Selections carry their own attribute naming rather than the layer/image
// id convention.
func (t *Template) loadSelection(se xml.StartElement) {
	typ, ok := ParseLayerType(attrValue(se, "type"))
	if !ok || !typ.IsSelection() {
		return
	}
	pos := Position{X: floatAttr(se, "sel-x"), Y: floatAttr(se, "sel-y")}
	size := Size{Width: floatAttr(se, "sel-width"), Height: floatAttr(se, "sel-height")}
	t.addLoadedLayer(pos, size, typ, t.counters[typ])
}

// addLoadedLayer attaches a layer reconstructed from markup. The document
// is authoritative, so template-level validation is bypassed; the layer
// is marked embedded so its markup is not spliced in a second time.
func (t *Template) addLoadedLayer(pos Position, size Size, typ LayerType, ordinal int) {
	if next := ordinal + 1; next > t.counters[typ] {
		t.counters[typ] = next
	}
	t.layers = append(t.layers, &Layer{
		typ:      typ,
		ordinal:  ordinal,
		pos:      pos,
		size:     size,
		embedded: true,
	})
	t.invalidate()
}

// parseSlotID splits "layer-<TYPE>-<n>" into its type and ordinal.
func parseSlotID(id string) (LayerType, int, bool) {
	rest := strings.TrimPrefix(id, "layer-")
	cut := strings.LastIndex(rest, "-")
	if cut <= 0 {
		return 0, 0, false
	}
	typ, ok := ParseLayerType(rest[:cut])
	if !ok {
		return 0, 0, false
	}
	ordinal, err := strconv.Atoi(rest[cut+1:])
	if err != nil || ordinal < 0 {
		return 0, 0, false
	}
	return typ, ordinal, true
}

func attrValue(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func floatAttr(se xml.StartElement, name string) float64 {
	v, err := strconv.ParseFloat(attrValue(se, name), 64)
	if err != nil {
		return 0
	}
	return v
}
