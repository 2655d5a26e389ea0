package template

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prodkit/composer/pkg/errors"
)

// writeTestPNG creates a small PNG file usable as a background asset.
func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

func newTemplateWithBackground(t *testing.T) *Template {
	t.Helper()
	tpl := New()
	bg := writeTestPNG(t, t.TempDir(), "bg.png")
	if err := tpl.SetBackground(bg, nil); err != nil {
		t.Fatalf("SetBackground: %v", err)
	}
	return tpl
}

func TestAddLayerRequiresBackground(t *testing.T) {
	tpl := New()

	_, err := tpl.AddLayer(Position{}, Size{Width: 10, Height: 10}, Primary)
	if !errors.Is(err, errors.ErrCodeNoBackground) {
		t.Errorf("AddLayer without background = %v, want NO_BACKGROUND", err)
	}

	// Selection layers do not require a background.
	if _, err := tpl.AddLayer(Position{}, Size{Width: 10, Height: 10}, ZoomSelection); err != nil {
		t.Errorf("AddLayer(ZoomSelection) without background: %v", err)
	}
}

func TestOrdinalsUniquePerTypeAndNeverReused(t *testing.T) {
	tpl := newTemplateWithBackground(t)

	p, _ := tpl.AddLayer(Position{}, Size{Width: 1, Height: 1}, Primary)
	s0, _ := tpl.AddLayer(Position{}, Size{Width: 1, Height: 1}, Secondary)
	s1, _ := tpl.AddLayer(Position{}, Size{Width: 1, Height: 1}, Secondary)

	// Ordinal counters are scoped per type.
	if p.Ordinal() != 0 || s0.Ordinal() != 0 || s1.Ordinal() != 1 {
		t.Errorf("ordinals = primary:%d secondary:%d,%d", p.Ordinal(), s0.Ordinal(), s1.Ordinal())
	}
	if p.ID() != "layer-PRIMARY-0" || s1.ImageID() != "image-SECONDARY-1" {
		t.Errorf("ids = %q, %q", p.ID(), s1.ImageID())
	}

	// Removal must not free the ordinal.
	if !tpl.RemoveLayer(s1) {
		t.Fatal("RemoveLayer returned false")
	}
	s2, _ := tpl.AddLayer(Position{}, Size{Width: 1, Height: 1}, Secondary)
	if s2.Ordinal() != 2 {
		t.Errorf("ordinal after removal = %d, want 2 (never reused)", s2.Ordinal())
	}

	seen := map[string]bool{}
	for _, l := range []*Layer{p, s0, s2} {
		if seen[l.ID()] {
			t.Errorf("duplicate layer id %q", l.ID())
		}
		seen[l.ID()] = true
	}
}

func TestSingularLayerInvariant(t *testing.T) {
	tpl := newTemplateWithBackground(t)

	if _, err := tpl.AddLayer(Position{}, Size{Width: 1, Height: 1}, Primary); err != nil {
		t.Fatalf("first primary: %v", err)
	}
	_, err := tpl.AddLayer(Position{}, Size{Width: 1, Height: 1}, Primary)
	if !errors.Is(err, errors.ErrCodeMultipleLayers) {
		t.Errorf("second primary = %v, want MULTIPLE_LAYERS_OF_TYPE", err)
	}

	// Secondary layers may repeat.
	for i := 0; i < 3; i++ {
		if _, err := tpl.AddLayer(Position{}, Size{Width: 1, Height: 1}, Secondary); err != nil {
			t.Fatalf("secondary %d: %v", i, err)
		}
	}
	if got := len(tpl.SecondaryLayers()); got != 3 {
		t.Errorf("SecondaryLayers() = %d, want 3", got)
	}
}

func TestAccessorsReturnAbsenceNotError(t *testing.T) {
	tpl := newTemplateWithBackground(t)

	l, err := tpl.PrimaryLayer()
	if err != nil || l != nil {
		t.Errorf("PrimaryLayer on empty template = (%v, %v), want (nil, nil)", l, err)
	}
	if layers := tpl.SecondaryLayers(); len(layers) != 0 {
		t.Errorf("SecondaryLayers on empty template = %d layers", len(layers))
	}
}

func TestRemoveBackgroundForbiddenWhileLayersExist(t *testing.T) {
	tpl := newTemplateWithBackground(t)
	layer, _ := tpl.AddLayer(Position{}, Size{Width: 1, Height: 1}, Primary)

	if err := tpl.RemoveBackground(); !errors.Is(err, errors.ErrCodeBackgroundInUse) {
		t.Errorf("RemoveBackground with content layer = %v, want BACKGROUND_IN_USE", err)
	}

	tpl.RemoveLayer(layer)
	if _, err := tpl.AddLayer(Position{}, Size{Width: 1, Height: 1}, CropSelection); err != nil {
		t.Fatalf("add selection: %v", err)
	}
	// Selection layers do not block removal.
	if err := tpl.RemoveBackground(); err != nil {
		t.Errorf("RemoveBackground with only selection layers: %v", err)
	}
}

func TestRenderToBytesMemoizedUntilMutation(t *testing.T) {
	tpl := newTemplateWithBackground(t)
	layer, _ := tpl.AddLayer(Position{X: 5, Y: 6}, Size{Width: 10, Height: 20}, Primary)

	first, err := tpl.RenderToBytes()
	if err != nil {
		t.Fatalf("RenderToBytes: %v", err)
	}
	second, _ := tpl.RenderToBytes()
	if &first[0] != &second[0] {
		t.Error("unmutated template should return the memoized bytes")
	}

	pos := Position{X: 50, Y: 60}
	tpl.UpdateLayer(layer, &pos, nil)
	third, _ := tpl.RenderToBytes()
	if bytes.Equal(first, third) {
		t.Error("markup should change after UpdateLayer")
	}
	if !strings.Contains(string(third), `x="50"`) {
		t.Errorf("updated markup missing new position: %s", third)
	}
}

func TestRenderToBytesInjectionOrder(t *testing.T) {
	tpl := newTemplateWithBackground(t)
	tpl.AddLayer(Position{}, Size{Width: 1, Height: 1}, Presentation)
	tpl.AddLayer(Position{}, Size{Width: 1, Height: 1}, Primary)

	doc, err := tpl.RenderToBytes()
	if err != nil {
		t.Fatalf("RenderToBytes: %v", err)
	}

	s := string(doc)
	pres := strings.Index(s, "layer-PRESENTATION-0")
	prim := strings.Index(s, "layer-PRIMARY-0")
	closing := strings.LastIndex(s, "</svg>")
	if pres < 0 || prim < 0 {
		t.Fatalf("missing layer ids in markup: %s", s)
	}
	// Insertion order is z-order: presentation added first paints below.
	if !(pres < prim && prim < closing) {
		t.Errorf("injection order wrong: presentation=%d primary=%d closing=%d", pres, prim, closing)
	}
}

func TestRenderWithoutBackgroundFails(t *testing.T) {
	tpl := New()
	if _, err := tpl.RenderToBytes(); !errors.Is(err, errors.ErrCodeNoBackground) {
		t.Errorf("RenderToBytes = %v, want NO_BACKGROUND", err)
	}
}

func TestRoundTrip(t *testing.T) {
	tpl := newTemplateWithBackground(t)
	tpl.AddLayer(Position{X: 10.5, Y: 20.25}, Size{Width: 300, Height: 200}, Primary)
	tpl.AddLayer(Position{X: 0, Y: 0}, Size{Width: 120, Height: 80}, Presentation)
	tpl.AddLayer(Position{X: 640, Y: 480}, Size{Width: 64, Height: 48}, Secondary)
	tpl.AddLayer(Position{X: 700, Y: 100}, Size{Width: 96, Height: 96}, Secondary)

	doc, err := tpl.RenderToBytes()
	if err != nil {
		t.Fatalf("RenderToBytes: %v", err)
	}

	loaded, err := Load(bytes.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := tpl.Layers()
	got := loaded.Layers()
	if len(got) != len(want) {
		t.Fatalf("loaded %d layers, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Type() != want[i].Type() {
			t.Errorf("layer %d type = %v, want %v", i, got[i].Type(), want[i].Type())
		}
		if math.Abs(got[i].Pos().X-want[i].Pos().X) > 1e-6 ||
			math.Abs(got[i].Pos().Y-want[i].Pos().Y) > 1e-6 {
			t.Errorf("layer %d pos = %v, want %v", i, got[i].Pos(), want[i].Pos())
		}
		if math.Abs(got[i].Size().Width-want[i].Size().Width) > 1e-6 ||
			math.Abs(got[i].Size().Height-want[i].Size().Height) > 1e-6 {
			t.Errorf("layer %d size = %v, want %v", i, got[i].Size(), want[i].Size())
		}
		if got[i].ImageID() != want[i].ImageID() {
			t.Errorf("layer %d image id = %q, want %q", i, got[i].ImageID(), want[i].ImageID())
		}
	}
}

func TestLoadIgnoresUnknownTypes(t *testing.T) {
	doc := `<svg xmlns="http://www.w3.org/2000/svg">
<g id="layer-PRIMARY-0">
  <image x="1" y="2" id="image-PRIMARY-0" width="10" height="20" />
</g>
<g id="layer-HOLOGRAM-0">
  <image x="9" y="9" id="image-HOLOGRAM-0" width="9" height="9" />
</g>
</svg>`

	tpl, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tpl.Layers()) != 1 {
		t.Fatalf("loaded %d layers, want 1 (unknown type ignored)", len(tpl.Layers()))
	}
	if tpl.Layers()[0].Type() != Primary {
		t.Errorf("layer type = %v, want PRIMARY", tpl.Layers()[0].Type())
	}
}

func TestLoadResumesOrdinalsPastFileIDs(t *testing.T) {
	doc := `<svg xmlns="http://www.w3.org/2000/svg">
<g id="layer-SECONDARY-4">
  <image x="0" y="0" id="image-SECONDARY-4" width="10" height="10" />
</g>
</svg>`

	tpl, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	added, err := tpl.AddLayer(Position{}, Size{Width: 1, Height: 1}, Secondary)
	if err != nil {
		t.Fatalf("AddLayer: %v", err)
	}
	if added.Ordinal() != 5 {
		t.Errorf("ordinal after load = %d, want 5 (resume past file ids)", added.Ordinal())
	}
}

func TestLoadReproducesDocumentBytes(t *testing.T) {
	doc := `<svg xmlns="http://www.w3.org/2000/svg">
<g id="layer-PRIMARY-0">
  <image x="1" y="2" id="image-PRIMARY-0" width="10" height="20" />
</g>
</svg>`

	tpl, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	out, err := tpl.RenderToBytes()
	if err != nil {
		t.Fatalf("RenderToBytes: %v", err)
	}
	if string(out) != doc {
		t.Errorf("loaded template should render its source bytes unchanged")
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	tpl := newTemplateWithBackground(t)
	tpl.AddLayer(Position{X: 100, Y: 150}, Size{Width: 400, Height: 200}, ZoomSelection)

	doc, err := tpl.RenderToBytes()
	if err != nil {
		t.Fatalf("RenderToBytes: %v", err)
	}
	if !strings.Contains(string(doc), "<selection_layer") {
		t.Fatalf("selection layer should use its own element: %s", doc)
	}
	// Selections must not use the layer-/image- id convention.
	if strings.Contains(string(doc), "layer-ZOOM_SELECTION") {
		t.Errorf("selection should not carry a layer- id: %s", doc)
	}

	loaded, err := Load(bytes.NewReader(doc))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	zoom, err := loaded.ZoomSelectionLayer()
	if err != nil || zoom == nil {
		t.Fatalf("ZoomSelectionLayer = (%v, %v)", zoom, err)
	}
	if zoom.Pos().X != 100 || zoom.Size().Width != 400 {
		t.Errorf("zoom geometry = %v %v", zoom.Pos(), zoom.Size())
	}
}

func TestSetOutputDirValidation(t *testing.T) {
	tpl := New()

	if err := tpl.SetOutputDir(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, errors.ErrCodeOutputDirInvalid) {
		t.Errorf("SetOutputDir(missing) = %v, want OUTPUT_DIR_INVALID", err)
	}

	dir := t.TempDir()
	if err := tpl.SetOutputDir(dir); err != nil {
		t.Errorf("SetOutputDir(existing) = %v", err)
	}
	if tpl.OutputDir() != dir {
		t.Errorf("OutputDir() = %q, want %q", tpl.OutputDir(), dir)
	}
}
