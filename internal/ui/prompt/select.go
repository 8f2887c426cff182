package prompt

import (
	"os"

	"charm.land/bubbles/v2/list"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/raphi011/shelf/internal/ui/styles"
)

// Option is one selectable entry.
type Option struct {
	Label  string // shown and filtered on
	Detail string // muted second line, e.g. a package full name
}

// SelectResult holds the result of a selection prompt.
type SelectResult struct {
	Option    Option
	Index     int
	Cancelled bool
}

type listItem struct {
	opt   Option
	index int
}

func (i listItem) Title() string       { return i.opt.Label }
func (i listItem) Description() string { return i.opt.Detail }
func (i listItem) FilterValue() string { return i.opt.Label + " " + i.opt.Detail }

type selectModel struct {
	list      list.Model
	done      bool
	cancelled bool
	selected  int
}

func (m selectModel) Init() tea.Cmd {
	return nil
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		// While typing a filter, q and enter belong to the filter input
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(listItem); ok {
				m.selected = item.index
			}
			m.done = true
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m selectModel) View() tea.View {
	if m.done {
		return tea.NewView("")
	}
	return tea.NewView(m.list.View())
}

func newSelectModel(title string, options []Option) selectModel {
	items := make([]list.Item, len(options))
	showDetail := false
	for i, opt := range options {
		items[i] = listItem{opt: opt, index: i}
		showDetail = showDetail || opt.Detail != ""
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = showDetail
	delegate.SetSpacing(0)
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Foreground(styles.Accent).
		Bold(true)

	rows := len(options)
	if showDetail {
		rows *= 2
	}
	l := list.New(items, delegate, 80, min(rows+6, 20))
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetShowHelp(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()

	return selectModel{list: l, selected: -1}
}

// Select shows a filterable list on stderr and returns the chosen option.
// An empty option list is reported as cancelled.
func Select(title string, options []Option) (SelectResult, error) {
	if len(options) == 0 {
		return SelectResult{Cancelled: true}, nil
	}

	p := tea.NewProgram(newSelectModel(title, options), tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return SelectResult{}, err
	}
	m := finalModel.(selectModel)

	if m.cancelled || m.selected < 0 || m.selected >= len(options) {
		return SelectResult{Cancelled: true}, nil
	}
	return SelectResult{Option: options[m.selected], Index: m.selected}, nil
}
