package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/floattimer/internal/config"
)

// SettingsTab shows and edits the daemon configuration.
type SettingsTab struct {
	cfg     *config.Config
	loadErr error

	width  int
	height int

	editing bool
	form    *huh.Form

	// Form-bound values (strings for huh, converted on submit)
	fTitle        string
	fURL          string
	fRatio        string
	fTolerance    string
	fDefaultSize  string
	fMinSize      string
	fSpawnOffset  string
	fHotkey       string
	fRestore      bool
	fSyncInterval string
	fLogLevel     string
	fTheme        string
	fMode         string
	fLastTime     string
}

// NewSettingsTab creates a SettingsTab for the loaded config.
func NewSettingsTab(cfg *config.Config, loadErr error) SettingsTab {
	return SettingsTab{cfg: cfg, loadErr: loadErr}
}

// Update implements tea.Model.
func (s SettingsTab) Update(msg tea.Msg) (SettingsTab, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		s.width = ws.Width
		s.height = ws.Height
		return s, nil
	}
	if s.editing {
		return s.updateEditing(msg)
	}
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "e" && s.cfg != nil {
		s.startEditing()
		return s, s.form.Init()
	}
	return s, nil
}

func (s SettingsTab) updateEditing(msg tea.Msg) (SettingsTab, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		s.editing = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.applyForm()
		s.editing = false
		s.form = nil
		return s, nil
	}
	return s, cmd
}

func (s *SettingsTab) startEditing() {
	cfg := s.cfg

	s.fTitle = cfg.Title
	s.fURL = cfg.URL
	s.fRatio = strconv.FormatFloat(cfg.AspectRatio, 'g', -1, 64)
	s.fTolerance = strconv.FormatFloat(cfg.AspectTolerance, 'g', -1, 64)
	s.fDefaultSize = formatSize(cfg.DefaultSize)
	s.fMinSize = formatSize(cfg.MinSize)
	s.fSpawnOffset = fmt.Sprintf("%d,%d", cfg.SpawnOffset.X, cfg.SpawnOffset.Y)
	s.fHotkey = cfg.NewWindowHotkey
	s.fRestore = cfg.RestoreOnStart
	s.fSyncInterval = strconv.Itoa(cfg.SyncIntervalSeconds)
	s.fLogLevel = cfg.LogLevel
	s.fTheme = cfg.Defaults.ThemeID
	s.fMode = cfg.Defaults.Mode
	s.fLastTime = strconv.Itoa(cfg.Defaults.LastTime)

	w := s.width - 4
	if w < 40 {
		w = 40
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("title").
				Title("Window Title").
				Value(&s.fTitle),
			huh.NewInput().
				Key("url").
				Title("Front-end URL").
				Description("windowId=<id> is appended per window").
				Value(&s.fURL),
			huh.NewInput().
				Key("aspect_ratio").
				Title("Aspect Ratio").
				Description("Width divided by height").
				Validate(validatePositiveFloat).
				Value(&s.fRatio),
			huh.NewInput().
				Key("aspect_tolerance").
				Title("Aspect Tolerance").
				Validate(validatePositiveFloat).
				Value(&s.fTolerance),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("default_size").
				Title("Default Size").
				Description("WIDTHxHEIGHT").
				Validate(validateSize).
				Value(&s.fDefaultSize),
			huh.NewInput().
				Key("min_size").
				Title("Minimum Size").
				Description("WIDTHxHEIGHT").
				Validate(validateSize).
				Value(&s.fMinSize),
			huh.NewInput().
				Key("spawn_offset").
				Title("Spawn Offset").
				Description("X,Y from the anchor window").
				Validate(validateOffset).
				Value(&s.fSpawnOffset),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("new_window_hotkey").
				Title("New Window Hotkey").
				Description("Empty disables the hotkey (restart required)").
				Value(&s.fHotkey),
			huh.NewConfirm().
				Key("restore_on_start").
				Title("Restore windows on start").
				Value(&s.fRestore),
			huh.NewInput().
				Key("sync_interval_seconds").
				Title("Registry sync interval (seconds)").
				Validate(validatePositiveInt).
				Value(&s.fSyncInterval),
			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(huh.NewOptions("debug", "info", "warning", "error")...).
				Value(&s.fLogLevel),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("theme_id").
				Title("Default Theme").
				Value(&s.fTheme),
			huh.NewSelect[string]().
				Key("mode").
				Title("Default Mode").
				Options(huh.NewOptions("countdown", "countup")...).
				Value(&s.fMode),
			huh.NewInput().
				Key("last_time").
				Title("Default Last Time (seconds)").
				Validate(validateNonNegative).
				Value(&s.fLastTime),
		),
	).WithWidth(w).WithShowHelp(true).WithShowErrors(true)

	s.editing = true
}

// applyForm copies parsed form values into the config. Unparseable values
// leave the current setting alone.
func (s *SettingsTab) applyForm() {
	cfg := s.cfg
	if cfg == nil {
		return
	}

	if v := strings.TrimSpace(s.fTitle); v != "" {
		cfg.Title = v
	}
	if v := strings.TrimSpace(s.fURL); v != "" {
		cfg.URL = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s.fRatio), 64); err == nil && v > 0 {
		cfg.AspectRatio = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s.fTolerance), 64); err == nil && v > 0 {
		cfg.AspectTolerance = v
	}
	if v, err := parseSize(s.fDefaultSize); err == nil {
		cfg.DefaultSize = v
	}
	if v, err := parseSize(s.fMinSize); err == nil {
		cfg.MinSize = v
	}
	if v, err := parseOffset(s.fSpawnOffset); err == nil {
		cfg.SpawnOffset = v
	}
	cfg.NewWindowHotkey = strings.TrimSpace(s.fHotkey)
	cfg.RestoreOnStart = s.fRestore
	if v, err := strconv.Atoi(strings.TrimSpace(s.fSyncInterval)); err == nil && v > 0 {
		cfg.SyncIntervalSeconds = v
	}
	if s.fLogLevel != "" {
		cfg.LogLevel = s.fLogLevel
	}
	if v := strings.TrimSpace(s.fTheme); v != "" {
		cfg.Defaults.ThemeID = v
	}
	if s.fMode != "" {
		cfg.Defaults.Mode = s.fMode
	}
	if v, err := strconv.Atoi(strings.TrimSpace(s.fLastTime)); err == nil && v >= 0 {
		cfg.Defaults.LastTime = v
	}
}

// View implements tea.Model.
func (s SettingsTab) View() string {
	if s.editing && s.form != nil {
		header := lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Render("Editing Settings") +
			dimStyle.Render("  (esc to cancel)")
		return lipgloss.NewStyle().
			Width(s.width).
			Height(s.height).
			Padding(1, 2).
			Render(header + "\n\n" + s.form.View())
	}

	if s.cfg == nil {
		msg := "No config loaded"
		if s.loadErr != nil {
			msg += "\n" + s.loadErr.Error()
		}
		return lipgloss.NewStyle().
			Width(s.width).
			Height(s.height).
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render(msg)
	}

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Width(22).
		Align(lipgloss.Right).
		PaddingRight(2)
	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true)

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	cfg := s.cfg
	lines := []string{
		"",
		row("Title", cfg.Title),
		row("URL", cfg.URL),
		row("Aspect Ratio", fmt.Sprintf("%g ± %g", cfg.AspectRatio, cfg.AspectTolerance)),
		row("Default Size", formatSize(cfg.DefaultSize)),
		row("Minimum Size", formatSize(cfg.MinSize)),
		row("Spawn Offset", fmt.Sprintf("%d,%d", cfg.SpawnOffset.X, cfg.SpawnOffset.Y)),
		"",
		row("New Window Hotkey", displayOrDefault(cfg.NewWindowHotkey, "(disabled)")),
		row("Restore On Start", strconv.FormatBool(cfg.RestoreOnStart)),
		row("Sync Interval", fmt.Sprintf("%ds", cfg.SyncIntervalSeconds)),
		row("Log Level", cfg.LogLevel),
		"",
		row("Default Theme", cfg.Defaults.ThemeID),
		row("Default Mode", cfg.Defaults.Mode),
		row("Default Last Time", fmt.Sprintf("%ds", cfg.Defaults.LastTime)),
	}
	for _, w := range cfg.Warnings() {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("  warning: "+w))
	}
	lines = append(lines, "", dimStyle.Render("  Press 'e' to edit settings, ctrl-s to save"))

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func formatSize(sz config.Size) string {
	return fmt.Sprintf("%dx%d", sz.Width, sz.Height)
}

// parseSize reads "WIDTHxHEIGHT" with both parts positive.
func parseSize(s string) (config.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return config.Size{}, fmt.Errorf("expected WIDTHxHEIGHT")
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil || width <= 0 {
		return config.Size{}, fmt.Errorf("invalid width %q", w)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || height <= 0 {
		return config.Size{}, fmt.Errorf("invalid height %q", h)
	}
	return config.Size{Width: width, Height: height}, nil
}

// parseOffset reads "X,Y"; negative values are allowed.
func parseOffset(s string) (config.Offset, error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return config.Offset{}, fmt.Errorf("expected X,Y")
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return config.Offset{}, fmt.Errorf("invalid x %q", xs)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return config.Offset{}, fmt.Errorf("invalid y %q", ys)
	}
	return config.Offset{X: x, Y: y}, nil
}

func validateSize(s string) error {
	_, err := parseSize(s)
	return err
}

func validateOffset(s string) error {
	_, err := parseOffset(s)
	return err
}

func validatePositiveInt(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v <= 0 {
		return fmt.Errorf("must be a whole number > 0")
	}
	return nil
}

func validatePositiveFloat(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v <= 0 {
		return fmt.Errorf("must be a number > 0")
	}
	return nil
}

func displayOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
