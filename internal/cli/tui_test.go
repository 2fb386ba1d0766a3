package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/mangalayout/pkg/errors"
	"github.com/matzehuels/mangalayout/pkg/pipeline"
)

func TestBatchModelProgress(t *testing.T) {
	m := NewBatchModel(3, nil)

	var model tea.Model = m
	model, _ = model.Update(pageMsg{index: 0, name: "alpha"})
	model, _ = model.Update(pageMsg{index: 1, err: errors.New(errors.ErrCodeResourceNotFound, "artwork missing")})
	model, _ = model.Update(pageMsg{index: 2, name: "gamma"})

	bm := model.(BatchModel)
	if bm.Generated != 2 || bm.Failed != 1 {
		t.Fatalf("generated %d, failed %d", bm.Generated, bm.Failed)
	}
	view := bm.View()
	for _, want := range []string{"3/3", "1 failed", "alpha", "artwork missing"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	model, cmd := model.Update(doneMsg{stats: pipeline.Stats{Generated: 2, Failed: 1}})
	if cmd == nil {
		t.Error("doneMsg should quit")
	}
	if model.(BatchModel).Stats == nil {
		t.Error("doneMsg should record the stats")
	}
}

func TestBatchModelRecentWindow(t *testing.T) {
	var model tea.Model = NewBatchModel(20, nil)
	for i := range 20 {
		model, _ = model.Update(pageMsg{index: i, name: "page"})
	}
	if n := len(model.(BatchModel).Recent); n != recentRows {
		t.Errorf("recent rows = %d, want %d", n, recentRows)
	}
}

func TestBatchModelQuitCancels(t *testing.T) {
	cancelled := false
	var model tea.Model = NewBatchModel(5, func() { cancelled = true })

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("ctrl+c should quit")
	}
	if !cancelled || !model.(BatchModel).Aborted {
		t.Error("quitting before the batch ends should cancel it")
	}
}
