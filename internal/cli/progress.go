package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/prodkit/composer/pkg/render"
)

// itemMsg reports one finished composition to the progress view.
type itemMsg render.ItemResult

// batchDoneMsg ends the progress view.
type batchDoneMsg struct{}

// BatchModel is the bubbletea model showing batch render progress,
// one tick per composition.
type BatchModel struct {
	Total     int
	Completed int
	Failed    int
	LastPath  string
	Width     int
	Done      bool
}

// NewBatchModel creates a progress model for a batch of total
// compositions.
func NewBatchModel(total int) BatchModel {
	return BatchModel{Total: total, Width: 40}
}

func (m BatchModel) Init() tea.Cmd {
	return nil
}

func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case itemMsg:
		m.Completed++
		if msg.Err != nil || msg.Reason != "" {
			m.Failed++
		} else {
			m.LastPath = msg.Path
		}
	case batchDoneMsg:
		m.Done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Done = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Width = msg.Width - 20
		if m.Width < 10 {
			m.Width = 10
		}
	}
	return m, nil
}

func (m BatchModel) View() string {
	if m.Done {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Rendering compositions"))
	b.WriteString("\n\n")

	filled := 0
	if m.Total > 0 {
		filled = m.Completed * m.Width / m.Total
	}
	bar := styleBarDone.Render(strings.Repeat("█", filled)) +
		styleBarRest.Render(strings.Repeat("░", m.Width-filled))
	b.WriteString(fmt.Sprintf("%s %d/%d", bar, m.Completed, m.Total))

	if m.Failed > 0 {
		b.WriteString(StyleWarning.Render(fmt.Sprintf("  %d skipped", m.Failed)))
	}
	b.WriteString("\n")
	if m.LastPath != "" {
		b.WriteString(StyleDim.Render(m.LastPath))
		b.WriteString("\n")
	}
	return b.String()
}
