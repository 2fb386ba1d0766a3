package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/pipeline"
)

const (
	barWidth   = 32
	recentRows = 6
)

var (
	barDoneStyle = lipgloss.NewStyle().Foreground(colorCyan)
	barTodoStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// pageMsg reports one finished page.
type pageMsg struct {
	index int
	name  string
	err   error
}

// doneMsg reports the end of the batch.
type doneMsg struct {
	stats pipeline.Stats
	err   error
}

// BatchModel is the bubbletea model showing progress of a generation batch.
type BatchModel struct {
	Total     int
	Generated int
	Failed    int
	Recent    []string
	Stats     *pipeline.Stats
	Err       error
	Aborted   bool

	start  time.Time
	cancel func()
}

// NewBatchModel creates a progress model for total pages. cancel is called
// when the user quits before the batch finishes.
func NewBatchModel(total int, cancel func()) BatchModel {
	return BatchModel{Total: total, start: time.Now(), cancel: cancel}
}

func (m BatchModel) Init() tea.Cmd {
	return nil
}

func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.Stats == nil {
				m.Aborted = true
				if m.cancel != nil {
					m.cancel()
				}
			}
			return m, tea.Quit
		}
	case pageMsg:
		line := fmt.Sprintf("#%d %s", msg.index, msg.name)
		if msg.err != nil {
			m.Failed++
			line = fmt.Sprintf("#%d %s", msg.index, errors.UserMessage(msg.err))
		} else {
			m.Generated++
		}
		m.Recent = append(m.Recent, line)
		if len(m.Recent) > recentRows {
			m.Recent = m.Recent[len(m.Recent)-recentRows:]
		}
	case doneMsg:
		m.Stats = &msg.stats
		m.Err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m BatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Generating pages"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n\n")

	finished := m.Generated + m.Failed
	filled := 0
	if m.Total > 0 {
		filled = finished * barWidth / m.Total
	}
	b.WriteString(barDoneStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(barTodoStyle.Render(strings.Repeat("░", barWidth-filled)))
	fmt.Fprintf(&b, " %s/%d", StyleNumber.Render(fmt.Sprint(finished)), m.Total)
	if m.Failed > 0 {
		b.WriteString(" " + StyleError.Render(fmt.Sprintf("%d failed", m.Failed)))
	}
	b.WriteString(" " + StyleDim.Render(time.Since(m.start).Round(time.Second).String()))
	b.WriteString("\n\n")

	for _, line := range m.Recent {
		b.WriteString("  " + StyleDim.Render(line) + "\n")
	}
	return b.String()
}
