package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prodkit/composer/pkg/cache"
	"github.com/prodkit/composer/pkg/geometry"
	"github.com/prodkit/composer/pkg/template"
)

func TestExtractZoomWithoutSelectionIsNoop(t *testing.T) {
	f := newFixture(t)
	p := NewPipeline(&fakeRasterizer{w: 100, h: 100}, nil, nil)

	res := &Result{OutputPath: filepath.Join(f.outputDir, "x.png")}
	path, err := p.ExtractZoom(context.Background(), f.composition(t), res, f.options())
	if err != nil {
		t.Fatalf("ExtractZoom: %v", err)
	}
	if path != "" {
		t.Errorf("ExtractZoom = %q, want no output without a zoom selection", path)
	}
}

func TestExtractZoomWritesCrop(t *testing.T) {
	f := newFixture(t)
	// Selection inside the primary's placement (100,100)-(300,200).
	if _, err := f.tpl.AddLayer(template.Position{X: 150, Y: 125}, template.Size{Width: 100, Height: 50}, template.ZoomSelection); err != nil {
		t.Fatalf("add zoom selection: %v", err)
	}

	p := NewPipeline(&fakeRasterizer{w: 100, h: 100}, cache.NewMemoryCache(), nil)
	opts := f.options()

	res, err := p.Render(context.Background(), f.composition(t), opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	path, err := p.ExtractZoom(context.Background(), f.composition(t), res, opts)
	if err != nil {
		t.Fatalf("ExtractZoom: %v", err)
	}
	want := strings.TrimSuffix(res.OutputPath, ".png") + ZoomSuffix
	if path != want {
		t.Errorf("zoom path = %q, want %q", path, want)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("zoom output missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("zoom output is empty")
	}
}

func TestExtractZoomForcedAspectRatio(t *testing.T) {
	// MinResize trims one dimension to reach the configured ratio.
	sel := geometry.Rect{Width: 100, Height: 50}
	got := geometry.MinResize(sel, 18.0/9.0)
	if got != sel {
		t.Fatalf("rect already at 2:1 changed: %+v", got)
	}

	adjusted := geometry.MinResize(geometry.Rect{Width: 120, Height: 50}, 18.0/9.0)
	if adjusted.Width != 120 || adjusted.Height != 60 {
		t.Errorf("MinResize = %+v, want 120x60", adjusted)
	}
}
