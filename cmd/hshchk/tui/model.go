package tui

import (
	"context"
	"fmt"
	"strings"

	bar "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/hshchk/pkg/hshchk/engine"
	"github.com/jamesainslie/hshchk/pkg/hshchk/output"
	"github.com/jamesainslie/hshchk/pkg/hshchk/progress"
)

// maxShownEntries is how many recent anomalies the view lists.
const maxShownEntries = 8

// Options configures the view.
type Options struct {
	Root        string
	ProcessType engine.ProcessType
	Algorithm   string

	// Pipeline is the event source; the worker closes it.
	Pipeline *progress.Pipeline

	// Cancel stops the run. It is called on ctrl+c, q or esc.
	Cancel context.CancelFunc
}

type stream int

const (
	streamProgress stream = iota
	streamWarnings
	streamErrors
)

type progressMsg engine.FileProgress

type entryMsg engine.FileProcessEntry

type closedMsg stream

type completeMsg struct {
	result engine.Result
	ok     bool
}

// Model is the Bubble Tea model for a run.
type Model struct {
	opts Options

	spinner spinner.Model
	fileBar bar.Model
	runBar  bar.Model

	current   engine.FileProgress
	started   int64
	doneBytes uint64
	entries   []engine.FileProcessEntry
	errors    int
	warnings  int
	open      map[stream]bool

	canceling bool
	done      bool
	result    engine.Result
	width     int
}

// NewModel creates the model.
func NewModel(opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		opts:    opts,
		spinner: s,
		fileBar: bar.New(bar.WithDefaultGradient(), bar.WithWidth(40)),
		runBar:  bar.New(bar.WithSolidFill(string(primaryColor)), bar.WithWidth(40)),
		open: map[stream]bool{
			streamProgress: true,
			streamWarnings: true,
			streamErrors:   true,
		},
		width: output.DefaultWidth,
	}
}

// Init starts the spinner and the stream listeners.
func (m Model) Init() tea.Cmd {
	p := m.opts.Pipeline
	return tea.Batch(
		m.spinner.Tick,
		listen(p.Progress(), streamProgress, func(fp engine.FileProgress) tea.Msg { return progressMsg(fp) }),
		listen(p.Warnings(), streamWarnings, func(e engine.FileProcessEntry) tea.Msg { return entryMsg(e) }),
		listen(p.Errors(), streamErrors, func(e engine.FileProcessEntry) tea.Msg { return entryMsg(e) }),
	)
}

// listen waits for one value on ch.
func listen[T any](ch <-chan T, s stream, wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return closedMsg(s)
		}
		return wrap(v)
	}
}

func (m Model) waitComplete() tea.Cmd {
	return func() tea.Msg {
		r, ok := <-m.opts.Pipeline.Complete()
		return completeMsg{result: r, ok: ok}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := msg.Width - 4
		if w > 60 {
			w = 60
		}
		if w < 10 {
			w = 10
		}
		m.fileBar.Width = w
		m.runBar.Width = w
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.canceling && m.opts.Cancel != nil {
				m.canceling = true
				m.opts.Cancel()
			}
		}
		return m, nil

	case progressMsg:
		fp := engine.FileProgress(msg)
		switch {
		case fp.Anomaly:
		case fp.BytesProcessed == 0:
			if m.current.Path != "" {
				m.doneBytes += m.current.Size
			}
			m.started++
			m.current = fp
		default:
			m.current.BytesProcessed = fp.BytesProcessed
		}
		return m, listen(m.opts.Pipeline.Progress(), streamProgress, func(fp engine.FileProgress) tea.Msg { return progressMsg(fp) })

	case entryMsg:
		e := engine.FileProcessEntry(msg)
		m.entries = append(m.entries, e)
		s := streamErrors
		if e.State.IsWarning() {
			m.warnings++
			s = streamWarnings
		} else {
			m.errors++
		}
		ch := m.opts.Pipeline.Errors()
		if s == streamWarnings {
			ch = m.opts.Pipeline.Warnings()
		}
		return m, listen(ch, s, func(e engine.FileProcessEntry) tea.Msg { return entryMsg(e) })

	case closedMsg:
		delete(m.open, stream(msg))
		if len(m.open) == 0 {
			return m, m.waitComplete()
		}
		return m, nil

	case completeMsg:
		m.done = true
		if msg.ok {
			m.result = msg.result
		} else {
			m.result = engine.Error
		}
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("hshchk"))
	b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  %s · %s · %s", m.opts.ProcessType, m.opts.Algorithm, m.opts.Root)))
	b.WriteString("\n\n")

	if m.done {
		b.WriteString(m.renderResult())
	} else {
		status := "Processing"
		if m.canceling {
			status = "Canceling"
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n", m.spinner.View(), status,
			output.TruncateLeft(m.current.Path, m.width-len(status)-6)))
		b.WriteString(m.fileBar.ViewAs(fraction(m.current.BytesProcessed, m.current.Size)))
		b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  %s / %s",
			humanize.IBytes(m.current.BytesProcessed), humanize.IBytes(m.current.Size))))
		b.WriteString("\n")

		files, bytes := m.opts.Pipeline.Census()
		if files > 0 {
			b.WriteString(m.runBar.ViewAs(fraction(m.doneBytes, uint64(bytes))))
			b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  %s / %s files",
				humanize.Comma(m.started), humanize.Comma(files))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s  %s  %s\n",
		mutedTextStyle.Render(fmt.Sprintf("files %s", humanize.Comma(m.started))),
		errorTextStyle.Render(fmt.Sprintf("errors %d", m.errors)),
		warningTextStyle.Render(fmt.Sprintf("warnings %d", m.warnings))))

	shown := m.entries
	if len(shown) > maxShownEntries {
		shown = shown[len(shown)-maxShownEntries:]
	}
	for _, e := range shown {
		style := errorTextStyle
		if e.State.IsWarning() {
			style = warningTextStyle
		}
		line := fmt.Sprintf("  %s => %s", output.TruncateLeft(e.Path, m.width-len(e.Describe())-8), e.Describe())
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	if !m.done {
		b.WriteString(mutedTextStyle.Render("\nq/esc/ctrl+c: cancel"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderResult() string {
	line := fmt.Sprintf("%s result: %s", m.opts.ProcessType, m.result)
	switch m.result {
	case engine.Success:
		return successTextStyle.Render(line) + "\n"
	case engine.Canceled, engine.NoFilesProcessed:
		return warningTextStyle.Render(line) + "\n"
	default:
		return errorTextStyle.Render(line) + "\n"
	}
}

// Result returns the run result once the model has finished.
func (m Model) Result() (engine.Result, bool) {
	return m.result, m.done
}

// Entries returns the anomalies received so far.
func (m Model) Entries() []engine.FileProcessEntry {
	return m.entries
}

func fraction(n, total uint64) float64 {
	if total == 0 {
		return 1
	}
	f := float64(n) / float64(total)
	if f > 1 {
		return 1
	}
	return f
}

// Run shows the view until the pipeline completes and returns the
// anomalies it received.
func Run(opts Options) ([]engine.FileProcessEntry, error) {
	final, err := tea.NewProgram(NewModel(opts)).Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(Model)
	if !ok {
		return nil, fmt.Errorf("unexpected model type %T", final)
	}
	return m.entries, nil
}
