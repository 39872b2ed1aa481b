package tui

import (
	"context"
	"fmt"
	"strings"

	"bucketList/internal/handlers/dto"
	"bucketList/internal/logger"
	"bucketList/internal/models/bucket"
	"bucketList/internal/service"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

type Store interface {
	Load(context.Context) error
	Snapshot() service.Snapshot
	Add(context.Context, string, ...bucket.ItemOption) (bucket.Item, error)
	ToggleComplete(context.Context, string) (bucket.Item, bool, error)
	DeleteItem(context.Context, string) (bool, error)
}

type tab int

const (
	tabActive tab = iota
	tabCompleted
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeConfirmDelete
)

const (
	fieldTitle = iota
	fieldDescription
)

type loadedMsg struct{ err error }

type mutatedMsg struct {
	status string
	err    error
}

type Model struct {
	ctx   context.Context
	store Store
	keys  keyMap
	help  help.Model

	spinner  spinner.Model
	snapshot service.Snapshot

	tab    tab
	cursor int
	mode   mode

	inputs []textinput.Model
	focus  int

	pendingID    string
	pendingTitle string

	status string
	err    string
}

func New(ctx context.Context, store Store) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	title := textinput.New()
	title.Prompt = "Title: "
	title.Placeholder = "Visit Tokyo"
	title.CharLimit = 200

	description := textinput.New()
	description.Prompt = "Description: "
	description.Placeholder = "optional"
	description.CharLimit = 500

	return Model{
		ctx:      ctx,
		store:    store,
		keys:     defaultKeys(),
		help:     help.New(),
		spinner:  sp,
		snapshot: service.Snapshot{IsLoading: true},
		inputs:   []textinput.Model{title, description},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.store.Load(m.ctx)}
	}
}

func (m Model) visible() []bucket.Item {
	if m.tab == tabCompleted {
		return m.snapshot.Completed()
	}
	return m.snapshot.Active()
}

func (m Model) selected() (bucket.Item, bool) {
	items := m.visible()
	if m.cursor < 0 || m.cursor >= len(items) {
		return bucket.Item{}, false
	}
	return items[m.cursor], true
}

func (m *Model) refresh() {
	m.snapshot = m.store.Snapshot()
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			logger.Error("TUI: Загрузка прервана", msg.err)
			m.err = msg.err.Error()
			return m, tea.Quit
		}
		m.refresh()
		return m, nil

	case mutatedMsg:
		m.refresh()
		m.status, m.err = msg.status, ""
		if msg.err != nil {
			if service.IsPersistError(msg.err) {
				m.status = msg.status + " (not saved yet, will retry)"
			} else {
				m.status = ""
				m.err = msg.err.Error()
			}
		}
		return m, nil

	case spinner.TickMsg:
		if !m.snapshot.IsLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) && (m.mode != modeAdd || msg.String() == "ctrl+c") {
			return m, tea.Quit
		}
		if m.snapshot.IsLoading {
			return m, nil
		}
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Tab):
		if m.tab == tabActive {
			m.tab = tabCompleted
		} else {
			m.tab = tabActive
		}
		m.cursor = 0
		m.status, m.err = "", ""
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.err = ""
		m.focus = fieldTitle
		for i := range m.inputs {
			m.inputs[i].SetValue("")
			m.inputs[i].Blur()
		}
		return m, m.inputs[fieldTitle].Focus()
	case key.Matches(msg, m.keys.Toggle):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.toggle(item)
	case key.Matches(msg, m.keys.Delete):
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.pendingID, m.pendingTitle = item.ID, item.Title
	}
	return m, nil
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		m.mode = modeList
		m.err = ""
		return m, nil
	case key.Matches(msg, m.keys.Next):
		m.inputs[m.focus].Blur()
		m.focus = (m.focus + 1) % len(m.inputs)
		return m, m.inputs[m.focus].Focus()
	case key.Matches(msg, m.keys.Submit):
		title := strings.TrimSpace(m.inputs[fieldTitle].Value())
		if title == "" {
			m.err = "Title cannot be empty"
			return m, nil
		}
		description := m.inputs[fieldDescription].Value()
		m.mode = modeList
		m.err = ""
		m.tab = tabActive
		return m, m.add(title, description)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		id, title := m.pendingID, m.pendingTitle
		m.mode = modeList
		m.pendingID, m.pendingTitle = "", ""
		return m, m.delete(id, title)
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeList
		m.pendingID, m.pendingTitle = "", ""
	}
	return m, nil
}

func (m Model) add(title, description string) tea.Cmd {
	return func() tea.Msg {
		item, err := m.store.Add(m.ctx, title, bucket.WithDescription(description))
		logger.Debug("TUI: Добавление", zap.String("id", item.ID), zap.Error(err))
		return mutatedMsg{status: fmt.Sprintf("Added %q", title), err: err}
	}
}

func (m Model) toggle(item bucket.Item) tea.Cmd {
	return func() tea.Msg {
		toggled, _, err := m.store.ToggleComplete(m.ctx, item.ID)
		status := fmt.Sprintf("Reopened %q", item.Title)
		if toggled.Completed {
			status = fmt.Sprintf("Completed %q", item.Title)
		}
		return mutatedMsg{status: status, err: err}
	}
}

func (m Model) delete(id, title string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.store.DeleteItem(m.ctx, id)
		return mutatedMsg{status: fmt.Sprintf("Deleted %q", title), err: err}
	}
}

func (m Model) View() string {
	if m.snapshot.IsLoading {
		if m.err != "" {
			return errorStyle.Render(m.err) + "\n"
		}
		return panelStyle.Render(m.spinner.View() + " Loading...")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("My Bucket List"))
	b.WriteString("\n")
	b.WriteString(m.tabsView())
	b.WriteString("\n\n")
	b.WriteString(m.listView())
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render(m.subtitle()))

	switch m.mode {
	case modeAdd:
		form := "Add new item"
		if m.err != "" {
			form += "  " + errorStyle.Render(m.err)
		}
		for _, in := range m.inputs {
			form += "\n" + in.View()
		}
		b.WriteString("\n" + panelStyle.Render(form))
	case modeConfirmDelete:
		b.WriteString("\n" + panelStyle.Render(
			"Delete Item\nAre you sure you want to delete "+fmt.Sprintf("%q", m.pendingTitle)+"? "+
				warnStyle.Render("y")+"/"+mutedStyle.Render("n")))
	default:
		if m.err != "" {
			b.WriteString("\n" + errorStyle.Render(m.err))
		} else if m.status != "" {
			b.WriteString("\n" + successStyle.Render(m.status))
		}
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return panelStyle.Render(b.String())
}

func (m Model) tabsView() string {
	active := fmt.Sprintf("To Do (%d)", len(m.snapshot.Active()))
	completed := fmt.Sprintf("Completed (%d)", len(m.snapshot.Completed()))
	if m.tab == tabActive {
		return activeTabStyle.Render(active) + "   " + tabStyle.Render(completed)
	}
	return tabStyle.Render(active) + "   " + activeTabStyle.Render(completed)
}

func (m Model) subtitle() string {
	n := len(m.visible())
	noun := "items"
	if n == 1 {
		noun = "item"
	}
	if m.tab == tabCompleted {
		return fmt.Sprintf("%d %s completed", n, noun)
	}
	return fmt.Sprintf("%d %s to do", n, noun)
}

func (m Model) listView() string {
	items := m.visible()
	if len(items) == 0 {
		if m.tab == tabCompleted {
			return mutedStyle.Render("No completed items yet!\nToggle an item to see it here")
		}
		return mutedStyle.Render("No bucket list items yet!\nPress a to add your first item")
	}

	var b strings.Builder
	for i, item := range items {
		prefix := "  "
		if i == m.cursor {
			prefix = selectedStyle.Render("> ")
		}

		box, title := mutedStyle.Render(boxUnchecked), item.Title
		if item.Completed {
			box, title = successStyle.Render(boxChecked), doneStyle.Render(item.Title)
		}
		fmt.Fprintf(&b, "%s%s %s\n", prefix, box, title)

		if item.Description != "" {
			fmt.Fprintf(&b, "    %s\n", mutedStyle.Render(item.Description))
		}
		if item.Completed && item.CompletedAt != nil {
			fmt.Fprintf(&b, "    %s\n", mutedStyle.Render("Completed on "+item.CompletedAt.Local().Format(dto.CompletedOnLayout)))
		}
	}
	return b.String()
}

// Run запускает клиент в терминале и возвращается после выхода пользователя
func Run(ctx context.Context, store Store) error {
	p := tea.NewProgram(New(ctx, store), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.snapshot.IsLoading && fm.err != "" {
		return fmt.Errorf("загрузка списка: %s", fm.err)
	}
	return nil
}
