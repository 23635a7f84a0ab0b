package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/floattimer/internal/config"
)

type savePhase int

const (
	saveHidden  savePhase = iota
	savePreview           // showing diff, awaiting confirm
	saveResult            // showing outcome message
)

type diffKind int

const (
	diffContext diffKind = iota
	diffRemoved
	diffAdded
)

type diffLine struct {
	kind diffKind
	text string
}

// SaveOverlay previews pending config changes and writes them on confirm.
type SaveOverlay struct {
	phase        savePhase
	diffLines    []diffLine
	err          error
	reloaded     bool
	scrollOffset int
}

// Active reports whether the overlay is visible.
func (s SaveOverlay) Active() bool {
	return s.phase != saveHidden
}

// Show computes the diff and opens the preview.
func (s *SaveOverlay) Show(original, current *config.Config) {
	s.err = nil
	s.reloaded = false
	s.scrollOffset = 0

	lines := computeDiffLines(original, current)
	if len(lines) == 0 {
		s.phase = saveResult
		s.err = fmt.Errorf("no changes to save")
		return
	}
	s.diffLines = lines
	s.phase = savePreview
}

// SaveSucceeded reports whether the last save completed without error.
func (s SaveOverlay) SaveSucceeded() bool {
	return s.phase == saveResult && s.err == nil
}

// Update handles input while the overlay is active. A successful save asks
// a connected daemon to reload.
func (s SaveOverlay) Update(msg tea.KeyMsg, cfg *config.Config, client Daemon, connected bool) SaveOverlay {
	switch s.phase {
	case savePreview:
		switch msg.String() {
		case "esc":
			s.phase = saveHidden
		case "enter", "y":
			s.err = cfg.Save()
			if s.err == nil && connected && client != nil {
				s.reloaded = client.Reload() == nil
			}
			s.phase = saveResult
		case "up", "k":
			if s.scrollOffset > 0 {
				s.scrollOffset--
			}
		case "down", "j":
			s.scrollOffset++
		}
	case saveResult:
		s.phase = saveHidden
	}
	return s
}

// View renders the overlay centred in the content area.
func (s SaveOverlay) View(width, height int) string {
	switch s.phase {
	case savePreview:
		return s.viewPreview(width, height)
	case saveResult:
		return s.viewResult(width, height)
	}
	return ""
}

func overlayBox(areaW, areaH, maxW int, content string) string {
	boxW := areaW - 8
	if boxW > maxW {
		boxW = maxW
	}
	if boxW < 30 {
		boxW = 30
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(boxW).
		Render(content)
	return lipgloss.Place(areaW, areaH, lipgloss.Center, lipgloss.Center, box)
}

func (s SaveOverlay) viewPreview(areaW, areaH int) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("Save config: pending changes")
	ctxStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	// title, blank lines, footer, border and padding
	diffH := areaH - 10
	if diffH < 3 {
		diffH = 3
	}
	off := s.scrollOffset
	if maxScroll := len(s.diffLines) - diffH; off > maxScroll {
		off = max(maxScroll, 0)
	}
	end := min(off+diffH, len(s.diffLines))

	lines := make([]string, 0, end-off)
	for _, dl := range s.diffLines[off:end] {
		switch dl.kind {
		case diffAdded:
			lines = append(lines, okStyle.Render("+ "+dl.text))
		case diffRemoved:
			lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("- "+dl.text))
		default:
			lines = append(lines, ctxStyle.Render("  "+dl.text))
		}
	}

	footer := dimStyle.Render("enter: save  esc: cancel  j/k: scroll")
	return overlayBox(areaW, areaH, 80, title+"\n\n"+strings.Join(lines, "\n")+"\n\n"+footer)
}

func (s SaveOverlay) viewResult(areaW, areaH int) string {
	var msg string
	if s.err != nil {
		msg = errStyle.Render("Error: " + s.err.Error())
	} else {
		msg = okStyle.Bold(true).Render("Config saved")
		if s.reloaded {
			msg += "\n" + okStyle.Render("Daemon reloaded")
		}
	}
	footer := dimStyle.Render("press any key to dismiss")
	return overlayBox(areaW, areaH, 60, msg+"\n\n"+footer)
}

func computeDiffLines(original, current *config.Config) []diffLine {
	if original == nil || current == nil {
		return nil
	}
	origBytes, err := yaml.Marshal(original)
	if err != nil {
		return nil
	}
	currBytes, err := yaml.Marshal(current)
	if err != nil {
		return nil
	}

	a := strings.Split(strings.TrimSpace(string(origBytes)), "\n")
	b := strings.Split(strings.TrimSpace(string(currBytes)), "\n")
	return withContext(lcsDiff(a, b), 2)
}

// lcsDiff is a line diff over the longest common subsequence. The config
// renders to a few dozen lines, so the quadratic table is fine.
func lcsDiff(a, b []string) []diffLine {
	m, n := len(a), len(b)
	tbl := make([][]int, m+1)
	for i := range tbl {
		tbl[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			switch {
			case a[i] == b[j]:
				tbl[i][j] = tbl[i+1][j+1] + 1
			case tbl[i+1][j] >= tbl[i][j+1]:
				tbl[i][j] = tbl[i+1][j]
			default:
				tbl[i][j] = tbl[i][j+1]
			}
		}
	}

	var out []diffLine
	i, j := 0, 0
	for i < m && j < n {
		switch {
		case a[i] == b[j]:
			out = append(out, diffLine{kind: diffContext, text: a[i]})
			i++
			j++
		case tbl[i+1][j] >= tbl[i][j+1]:
			out = append(out, diffLine{kind: diffRemoved, text: a[i]})
			i++
		default:
			out = append(out, diffLine{kind: diffAdded, text: b[j]})
			j++
		}
	}
	for ; i < m; i++ {
		out = append(out, diffLine{kind: diffRemoved, text: a[i]})
	}
	for ; j < n; j++ {
		out = append(out, diffLine{kind: diffAdded, text: b[j]})
	}
	return out
}

// withContext keeps changed lines plus ctx lines around each change and
// marks skipped runs with "...". It returns nil when nothing changed.
func withContext(lines []diffLine, ctx int) []diffLine {
	keep := make([]bool, len(lines))
	changed := false
	for i, l := range lines {
		if l.kind == diffContext {
			continue
		}
		changed = true
		for j := max(i-ctx, 0); j <= min(i+ctx, len(lines)-1); j++ {
			keep[j] = true
		}
	}
	if !changed {
		return nil
	}

	var out []diffLine
	prevKept := true
	for i, l := range lines {
		if !keep[i] {
			prevKept = false
			continue
		}
		if !prevKept {
			out = append(out, diffLine{kind: diffContext, text: "..."})
		}
		out = append(out, l)
		prevKept = true
	}
	return out
}

// cloneConfig deep-copies a Config through YAML.
func cloneConfig(cfg *config.Config) *config.Config {
	if cfg == nil {
		return nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil
	}
	var clone config.Config
	if err := yaml.Unmarshal(data, &clone); err != nil {
		return nil
	}
	return &clone
}
