package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cproof/internal/core/app"
	"cproof/internal/core/pipeline"
)

var (
	uiTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	uiStageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))

	uiDocStyle = lipgloss.NewStyle().Margin(1, 2)
)

type progressMsg pipeline.ProgressEvent

type resultMsg pipeline.Result

type runModel struct {
	bar     progress.Model
	stage   string
	ordinal int
	done    bool
	result  pipeline.Result
}

func newRunModel() runModel {
	return runModel{
		bar:   progress.New(progress.WithDefaultGradient()),
		stage: "starting",
	}
}

func (m runModel) Init() tea.Cmd {
	return nil
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, _ := uiDocStyle.GetFrameSize()
		m.bar.Width = msg.Width - h - 4
	case progressMsg:
		m.stage = msg.Stage.String()
		m.ordinal = msg.Ordinal
		return m, m.bar.SetPercent(msg.Percent / 100)
	case resultMsg:
		m.done = true
		m.result = pipeline.Result(msg)
		return m, tea.Quit
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m runModel) View() string {
	if m.done {
		return ""
	}
	header := uiTitleStyle.Render("cproof")
	stage := uiStageStyle.Render(fmt.Sprintf("stage %d/6: %s", m.ordinal, m.stage))
	return uiDocStyle.Render(header + "\n" + stage + "\n\n" + m.bar.View() + "\n")
}

// runWithProgress drives one verification behind an interactive
// progress display. Quitting the display cancels the run.
func runWithProgress(ctx context.Context, a *app.App, entryPath string) (pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newRunModel(), tea.WithContext(ctx))

	a.SetProgressHandler(func(e pipeline.ProgressEvent) {
		p.Send(progressMsg(e))
	})
	defer a.SetProgressHandler(nil)

	results := make(chan pipeline.Result, 1)
	go func() {
		res := a.Verify(ctx, entryPath)
		results <- res
		p.Send(resultMsg(res))
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		cancel()
		return <-results, err
	}
	cancel()
	return <-results, nil
}
