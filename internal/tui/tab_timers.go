package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/floattimer/internal/lifecycle"
	"github.com/1broseidon/floattimer/internal/platform"
	"github.com/1broseidon/floattimer/internal/registry"
)

const statusTimeout = 3 * time.Second

// windowItem implements list.Item for one timer window.
type windowItem struct {
	entry registry.Entry
	live  bool
}

func (i windowItem) Title() string {
	title := i.entry.ID
	if i.entry.ID == lifecycle.MainWindowID {
		title += " (main)"
	}
	if !i.live {
		title += " [closed]"
	}
	return title
}

func (i windowItem) Description() string {
	geom := fmt.Sprintf("%dx%d", i.entry.Width, i.entry.Height)
	if p, ok := i.entry.Position(); ok {
		geom += fmt.Sprintf(" at %d,%d", p.X, p.Y)
	}
	return fmt.Sprintf("%s  %s %ds  theme:%s", geom, i.entry.Mode, i.entry.LastTime, i.entry.ThemeID)
}

func (i windowItem) FilterValue() string { return i.entry.ID }

// buildWindowItems merges registry entries with the live id list. Live
// windows without an entry yet still get a row.
func buildWindowItems(entries []registry.Entry, live []string) []list.Item {
	liveSet := make(map[string]bool, len(live))
	for _, id := range live {
		liveSet[id] = true
	}

	seen := make(map[string]bool, len(entries))
	items := make([]windowItem, 0, len(entries)+len(live))
	for _, e := range entries {
		seen[e.ID] = true
		items = append(items, windowItem{entry: e, live: liveSet[e.ID]})
	}
	for _, id := range live {
		if !seen[id] {
			items = append(items, windowItem{entry: registry.Entry{WindowRecord: platform.WindowRecord{ID: id}}, live: true})
		}
	}

	sort.SliceStable(items, func(a, b int) bool {
		if items[a].live != items[b].live {
			return items[a].live
		}
		return items[a].entry.ID < items[b].entry.ID
	})

	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

// WindowsTab lists timer windows and drives window actions.
type WindowsTab struct {
	list   list.Model
	client Daemon

	statusText string
	statusErr  bool

	// Prefs form
	editing  bool
	form     *huh.Form
	editID   string
	fTheme   string
	fTitle   string
	fMode    string
	fLastSec string

	width  int
	height int
	ready  bool
}

// NewWindowsTab creates the windows sub-model.
func NewWindowsTab(client Daemon) WindowsTab {
	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Timer windows"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return WindowsTab{list: l, client: client}
}

// Update implements tea.Model.
func (w WindowsTab) Update(msg tea.Msg) (WindowsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		w.height = msg.Height
		w.list.SetSize(w.width, w.listHeight())
		w.ready = true
		return w, nil

	case windowsLoadedMsg:
		if msg.err != nil {
			w.list.SetItems(nil)
			return w.setStatus(msg.err.Error(), true)
		}
		cmd := w.list.SetItems(buildWindowItems(msg.entries, msg.live))
		return w, cmd

	case actionDoneMsg:
		if msg.err != nil {
			return w.setStatus("error: "+msg.err.Error(), true)
		}
		return w.setStatus(msg.text, false)

	case clearStatusMsg:
		w.statusText = ""
		w.statusErr = false
		return w, nil
	}

	if w.editing {
		return w.updateEditing(msg)
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "n":
			return w, w.createWindow()
		case "d", "x":
			if item, ok := w.selected(); ok {
				return w, w.closeWindow(item.entry.ID)
			}
			return w, nil
		case "e", "enter":
			if item, ok := w.selected(); ok {
				w.startEditing(item.entry)
				return w, w.form.Init()
			}
			return w, nil
		}
	}

	var cmd tea.Cmd
	w.list, cmd = w.list.Update(msg)
	return w, cmd
}

func (w WindowsTab) setStatus(text string, isErr bool) (WindowsTab, tea.Cmd) {
	w.statusText = text
	w.statusErr = isErr
	return w, tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (w WindowsTab) listHeight() int {
	h := w.height - 2
	if h < 1 {
		h = 1
	}
	return h
}

func (w WindowsTab) selected() (windowItem, bool) {
	item, ok := w.list.SelectedItem().(windowItem)
	return item, ok
}

func (w WindowsTab) createWindow() tea.Cmd {
	client := w.client
	return func() tea.Msg {
		id, err := client.CreateWindow(nil)
		return actionDoneMsg{text: "created " + id, err: err}
	}
}

func (w WindowsTab) closeWindow(id string) tea.Cmd {
	client := w.client
	return func() tea.Msg {
		err := client.CloseWindow(id)
		return actionDoneMsg{text: "closed " + id, err: err}
	}
}

func (w *WindowsTab) startEditing(e registry.Entry) {
	w.editID = e.ID
	w.fTheme = e.ThemeID
	w.fTitle = e.Title
	w.fMode = e.Mode
	if w.fMode == "" {
		w.fMode = registry.ModeCountdown
	}
	w.fLastSec = strconv.Itoa(e.LastTime)

	width := w.width - 4
	if width < 40 {
		width = 40
	}

	w.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("theme").
				Title("Theme").
				Description("Theme id passed to the timer face").
				Value(&w.fTheme),
			huh.NewInput().
				Key("title").
				Title("Title").
				Value(&w.fTitle),
			huh.NewSelect[string]().
				Key("mode").
				Title("Mode").
				Options(huh.NewOptions(registry.ModeCountdown, registry.ModeCountup)...).
				Value(&w.fMode),
			huh.NewInput().
				Key("last_time").
				Title("Last time (seconds)").
				Validate(validateNonNegative).
				Value(&w.fLastSec),
		),
	).WithWidth(width).WithShowHelp(true).WithShowErrors(true)

	w.editing = true
}

func (w WindowsTab) updateEditing(msg tea.Msg) (WindowsTab, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		w.editing = false
		w.form = nil
		return w, nil
	}

	form, cmd := w.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		w.form = f
	}

	if w.form.State == huh.StateCompleted {
		update := w.prefsUpdate()
		id := w.editID
		client := w.client
		w.editing = false
		w.form = nil
		return w, func() tea.Msg {
			_, err := client.SetWindowPrefs(id, update)
			return actionDoneMsg{text: "updated " + id, err: err}
		}
	}
	return w, cmd
}

// prefsUpdate converts the form fields into a full preference update.
func (w WindowsTab) prefsUpdate() registry.PrefsUpdate {
	theme := strings.TrimSpace(w.fTheme)
	title := w.fTitle
	mode := w.fMode
	update := registry.PrefsUpdate{Title: &title, Mode: &mode}
	if theme != "" {
		update.ThemeID = &theme
	}
	if v, err := strconv.Atoi(strings.TrimSpace(w.fLastSec)); err == nil && v >= 0 {
		update.LastTime = &v
	}
	return update
}

// View implements tea.Model.
func (w WindowsTab) View() string {
	if !w.ready || w.width == 0 || w.height == 0 {
		return ""
	}
	if w.editing && w.form != nil {
		header := lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Render("Editing "+w.editID) +
			dimStyle.Render("  (esc to cancel)")
		return lipgloss.NewStyle().
			Width(w.width).
			Height(w.height).
			Padding(1, 2).
			Render(header + "\n\n" + w.form.View())
	}

	body := w.list.View()
	if len(w.list.Items()) == 0 {
		body = lipgloss.NewStyle().
			Width(w.width).
			Height(w.listHeight()).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No timer windows")
	}

	return lipgloss.JoinVertical(lipgloss.Left, body, w.renderStatus())
}

func (w WindowsTab) renderStatus() string {
	left := ""
	if w.statusText != "" {
		if w.statusErr {
			left = errStyle.Render(w.statusText)
		} else {
			left = okStyle.Render(w.statusText)
		}
	}
	right := dimStyle.Render("n:new  d:close  e/enter:prefs")

	gap := w.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().
		Width(w.width).
		Padding(0, 1).
		Render(left + strings.Repeat(" ", gap) + right)
}

func validateNonNegative(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a whole number")
	}
	if v < 0 {
		return fmt.Errorf("must be >= 0")
	}
	return nil
}
