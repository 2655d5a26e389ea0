package cli

import (
	"strings"
	"testing"

	"github.com/prodkit/composer/pkg/render"
)

func TestBatchModelCountsItems(t *testing.T) {
	m := NewBatchModel(3)

	next, _ := m.Update(itemMsg(render.ItemResult{Index: 1, Total: 3, Path: "a.webp"}))
	next, _ = next.Update(itemMsg(render.ItemResult{Index: 2, Total: 3, Reason: "invalid composition"}))
	model := next.(BatchModel)

	if model.Completed != 2 {
		t.Errorf("completed = %d, want 2", model.Completed)
	}
	if model.Failed != 1 {
		t.Errorf("failed = %d, want 1", model.Failed)
	}
	if model.LastPath != "a.webp" {
		t.Errorf("last path = %q", model.LastPath)
	}
}

func TestBatchModelDone(t *testing.T) {
	m := NewBatchModel(1)
	next, cmd := m.Update(batchDoneMsg{})
	if cmd == nil {
		t.Fatal("done message should quit the program")
	}
	if !next.(BatchModel).Done {
		t.Error("model should be done")
	}
	if view := next.View(); view != "" {
		t.Errorf("done view = %q, want empty", view)
	}
}

func TestBatchModelView(t *testing.T) {
	m := NewBatchModel(4)
	next, _ := m.Update(itemMsg(render.ItemResult{Index: 1, Total: 4, Path: "out/x.webp"}))

	view := next.View()
	if !strings.Contains(view, "1/4") {
		t.Errorf("view missing progress count: %q", view)
	}
	if !strings.Contains(view, "out/x.webp") {
		t.Errorf("view missing last output path: %q", view)
	}
}
