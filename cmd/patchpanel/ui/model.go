package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"patchpanel/internal/command"
	"patchpanel/internal/logging"
	"patchpanel/internal/session"
)

// clipboardWriteAll is a package-level variable to allow mocking in tests.
var clipboardWriteAll = clipboard.WriteAll

const refreshInterval = 200 * time.Millisecond

type inputMode int

const (
	modeBrowse inputMode = iota
	modeFilter
	modeFilename
)

type tickMsg time.Time

type opDoneMsg struct {
	op  string
	err error
}

// Model is the panel's bubbletea model.
type Model struct {
	ctx  context.Context
	sess *session.Session

	state  session.State
	cursor int
	mode   inputMode
	flash  string

	filter   textinput.Model
	filename textinput.Model
	logs     viewport.Model
	bar      progress.Model

	width  int
	height int
	styles Styles
}

// New creates the panel. ctx bounds sync, verify and build work started
// from the panel.
func New(ctx context.Context, sess *session.Session) Model {
	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "search patches"
	filter.CharLimit = 64

	filename := textinput.New()
	filename.Prompt = "apk> "
	filename.Placeholder = "YouTube.apk"
	filename.CharLimit = 128

	bar := progress.New(progress.WithDefaultGradient())

	m := Model{
		ctx:      ctx,
		sess:     sess,
		filter:   filter,
		filename: filename,
		logs:     viewport.New(80, 6),
		bar:      bar,
		styles:   DefaultStyles(),
		width:    100,
		height:   32,
	}
	m.refresh()
	return m
}

// Init starts the initial sync and the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.run("sync", m.sess.Sync), tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// run executes a session operation off the update loop.
func (m Model) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m *Model) refresh() {
	m.state = m.sess.Snapshot()
	if n := len(m.state.VisiblePatches()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	lines := make([]string, 0, len(m.state.Logs))
	for _, e := range m.state.Logs {
		lines = append(lines, m.styles.LogLine(e))
	}
	atBottom := m.logs.AtBottom()
	m.logs.SetContent(strings.Join(lines, "\n"))
	if atBottom {
		m.logs.GotoBottom()
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.logs.Width = max(msg.Width-4, 10)
		m.logs.Height = max(msg.Height/5, 3)
		m.bar.Width = max(msg.Width-12, 10)
		m.refresh()
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case opDoneMsg:
		if msg.err != nil {
			logging.Get(logging.CategoryUI).Debug("operation finished with error",
				zap.String("op", msg.op), zap.Error(msg.err))
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeFilter:
			return m.updateFilter(msg)
		case modeFilename:
			return m.updateFilename(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.state.VisiblePatches()
	m.flash = ""

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case " ", "enter":
		if m.cursor < len(visible) {
			if _, err := m.sess.TogglePatch(visible[m.cursor].ID); err != nil {
				m.flash = m.styles.Error.Render(err.Error())
			}
		}
	case "tab", "right":
		m.cycleApp(1)
	case "shift+tab", "left":
		m.cycleApp(-1)
	case "/":
		m.mode = modeFilter
		m.filter.SetValue(m.state.Query)
		return m, m.filter.Focus()
	case "f":
		m.mode = modeFilename
		if m.state.Filename != command.NoFile {
			m.filename.SetValue(m.state.Filename)
		}
		return m, m.filename.Focus()
	case "c":
		m.copy("build command", m.sess.Command())
	case "l":
		m.copy("launch command", m.sess.LaunchCommand())
	case "i":
		m.copy("setup command", m.sess.SetupCommand())
	case "s":
		m.refresh()
		return m, m.run("sync", m.sess.Sync)
	case "v":
		return m, m.run("verify", m.sess.Verify)
	case "b":
		return m, m.run("build", m.sess.Build)
	case "x":
		m.sess.ClearLogs()
	}
	m.refresh()
	return m, nil
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		if msg.Type == tea.KeyEsc {
			m.filter.SetValue("")
			m.sess.SetQuery("")
		}
		m.filter.Blur()
		m.mode = modeBrowse
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.sess.SetQuery(m.filter.Value())
	m.cursor = 0
	m.refresh()
	return m, cmd
}

func (m Model) updateFilename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.sess.SetFilename(strings.TrimSpace(m.filename.Value()))
		fallthrough
	case tea.KeyEsc:
		m.filename.Blur()
		m.mode = modeBrowse
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.filename, cmd = m.filename.Update(msg)
	return m, cmd
}

func (m *Model) cycleApp(delta int) {
	apps := m.state.Apps
	if len(apps) == 0 {
		return
	}
	cur := 0
	for i, a := range apps {
		if a.ID == m.state.SelectedApp().ID {
			cur = i
			break
		}
	}
	next := (cur + delta + len(apps)) % len(apps)
	if err := m.sess.SelectApp(apps[next].ID); err == nil {
		m.cursor = 0
	}
}

func (m *Model) copy(what, text string) {
	if err := clipboardWriteAll(text); err != nil {
		m.flash = m.styles.Error.Render("Failed to copy " + what)
		return
	}
	m.flash = m.styles.Success.Render("Copied " + what + " to clipboard")
}

// View renders the panel.
func (m Model) View() string {
	st := m.state
	app := st.SelectedApp()
	var b strings.Builder

	ready := m.styles.Warning.Render("SYNCING")
	switch {
	case st.Ready:
		ready = m.styles.Success.Render("READY")
	case !st.Syncing:
		ready = m.styles.Error.Render("OFFLINE")
	}
	b.WriteString(m.styles.Header.Render("PATCHPANEL") + " " + ready + "\n\n")

	tabs := make([]string, 0, len(st.Apps))
	for _, a := range st.Apps {
		label := strings.TrimSpace(a.Icon + " " + a.Name)
		if a.ID == app.ID {
			tabs = append(tabs, m.styles.AppTabOn.Render(label))
		} else {
			tabs = append(tabs, m.styles.AppTab.Render(label))
		}
	}
	b.WriteString(lipgloss.NewStyle().Width(m.width).Render(strings.Join(tabs, " ")) + "\n")
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("%s  recommended %s", app.PackageName, orAny(app.RecommendedVersion))) + "\n")
	b.WriteString(m.styles.RenderDivider(m.width-2) + "\n")

	switch m.mode {
	case modeFilter:
		b.WriteString(m.filter.View() + "\n")
	case modeFilename:
		b.WriteString(m.filename.View() + "\n")
	default:
		if st.Query != "" {
			b.WriteString(m.styles.Muted.Render("filter: "+st.Query) + "\n")
		}
	}

	b.WriteString(m.renderPatches())
	b.WriteString(m.styles.RenderDivider(m.width-2) + "\n")

	b.WriteString(m.styles.Title.Render("Command") + "\n")
	b.WriteString(m.styles.CodeBlock.Width(max(m.width-4, 20)).Render(command.Synthesize(app, st.Patches, st.Filename)) + "\n")

	if st.Build.Running() || st.Build.Progress() > 0 {
		b.WriteString(m.bar.ViewAs(float64(st.Build.Progress())/100) + "\n")
	}
	b.WriteString(m.styles.Pane.Render(m.logs.View()) + "\n")

	if m.flash != "" {
		b.WriteString(m.flash + "\n")
	}
	b.WriteString(m.styles.Footer.Render(
		"↑/↓ move • space toggle • ←/→ app • / filter • f file • c copy • l launch • i setup • s sync • v verify • b build • x clear • q quit"))
	return b.String()
}

func (m Model) renderPatches() string {
	visible := m.state.VisiblePatches()
	if len(visible) == 0 {
		return m.styles.Muted.Render("  no compatible patches") + "\n"
	}

	// Keep the cursor in a window that fits the screen.
	rows := max(m.height-22, 5)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(visible))

	var b strings.Builder
	for i := start; i < end; i++ {
		p := visible[i]
		pointer := "  "
		if i == m.cursor {
			pointer = m.styles.Cursor.Render("> ")
		}
		box := "[ ]"
		if p.Enabled {
			box = m.styles.Success.Render("[x]")
		}
		line := fmt.Sprintf("%s%s %s %s", pointer, box, m.styles.Bold.Render(p.Name), m.styles.StatusBadge(p.EffectiveStatus()))
		if p.Description != "" {
			line += " " + m.styles.Muted.Render(p.Description)
		}
		b.WriteString(line + "\n")
	}
	if len(visible) > rows {
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  %d/%d", m.cursor+1, len(visible))) + "\n")
	}
	return b.String()
}

func orAny(v string) string {
	if v == "" {
		return "Any"
	}
	return v
}

// Run starts the panel on the terminal and blocks until it exits.
func Run(ctx context.Context, sess *session.Session) error {
	_, err := tea.NewProgram(New(ctx, sess), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

var _ tea.Model = Model{}
