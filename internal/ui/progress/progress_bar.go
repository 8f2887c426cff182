package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/shelf/internal/ui/styles"
)

// progressUpdate is sent to update the progress bar
type progressUpdate struct {
	current int
	message string
}

// ProgressBar wraps a Bubbletea progress bar for a batch of known size.
type ProgressBar struct {
	out       io.Writer
	program   *tea.Program
	updateCh  chan progressUpdate
	done      chan struct{}
	mu        sync.Mutex
	isRunning bool
	total     int
	current   int
	message   string
}

// progressBarModel is the internal Bubbletea model
type progressBarModel struct {
	progress progress.Model
	total    int
	current  int
	message  string
	updateCh chan progressUpdate
}

func (m progressBarModel) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m progressBarModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.updateCh
		if !ok {
			return tea.Quit()
		}
		return update
	}
}

func (m progressBarModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressUpdate:
		m.current = msg.current
		m.message = msg.message
		return m, m.waitForUpdate()
	default:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}
}

func (m progressBarModel) View() tea.View {
	return tea.NewView(renderLine(m.progress, m.current, m.total, m.message))
}

// renderLine formats: [████████░░░░░░░░]  12/40 Portal 2
func renderLine(bar progress.Model, current, total int, message string) string {
	percent := 0.0
	if total > 0 {
		percent = float64(current) / float64(total)
	}
	width := len(fmt.Sprint(total))
	return fmt.Sprintf("%s %*d/%d %s", bar.ViewAs(percent), width, current, total, message)
}

// NewProgressBar creates a progress bar for total items, drawn on stderr.
func NewProgressBar(total int, message string) *ProgressBar {
	return &ProgressBar{
		out:      os.Stderr,
		updateCh: make(chan progressUpdate, 10),
		done:     make(chan struct{}),
		total:    total,
		message:  message,
	}
}

// Start begins the progress bar display.
func (p *ProgressBar) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return
	}

	bar := progress.New(
		progress.WithWidth(30),
		progress.WithoutPercentage(),
		progress.WithColors(styles.Primary, styles.Accent),
	)

	p.program = newProgram(progressBarModel{
		progress: bar,
		total:    p.total,
		current:  p.current,
		message:  p.message,
		updateCh: p.updateCh,
	}, p.out)
	p.isRunning = true

	go func() {
		_, _ = p.program.Run()
		close(p.done)
	}()
}

// SetProgress updates the current count and message.
func (p *ProgressBar) SetProgress(current int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	p.message = message
	if !p.isRunning {
		return
	}

	// Drops updates if the channel is full; close happens under the same mutex
	select {
	case p.updateCh <- progressUpdate{current: current, message: message}:
	default:
	}
}

// Stop stops the progress bar and clears the line.
func (p *ProgressBar) Stop() {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return
	}
	p.isRunning = false
	close(p.updateCh)
	p.mu.Unlock()

	if p.program != nil {
		p.program.Quit()
	}

	select {
	case <-p.done:
	case <-time.After(500 * time.Millisecond):
	}
	clearLine(p.out)
}

// Total returns the total count for the progress bar.
func (p *ProgressBar) Total() int {
	return p.total
}

// Current returns the last reported count.
func (p *ProgressBar) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}
