// Package tui provides the interactive Bubble Tea dashboard for cdash.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/cdash/internal/config"
	"github.com/theirongolddev/cdash/internal/model"
	"github.com/theirongolddev/cdash/internal/pipeline"
	"github.com/theirongolddev/cdash/internal/source"
	"github.com/theirongolddev/cdash/internal/tui/components"
	"github.com/theirongolddev/cdash/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Source tells the app where its rows come from.
type Source struct {
	Label string
	Load  func(ctx context.Context) (*pipeline.LoadResult, error)

	// WatchPath, when set, reloads the dashboard whenever the file changes.
	WatchPath string
}

// DataLoadedMsg is sent when a load finishes, successfully or not.
type DataLoadedMsg struct {
	Result   *pipeline.LoadResult
	Err      error
	LoadTime time.Duration
}

type fileChangedMsg struct{}

// Tab indexes, matching components.Tabs.
const (
	tabOverview = iota
	tabDeliverables
	tabTasks
	tabBreakdown
	tabSettings
)

// App is the root Bubble Tea model.
type App struct {
	ctx context.Context
	src Source
	cfg config.Config
	top int

	// Data
	rows     []model.Row
	result   *pipeline.LoadResult
	loaded   bool
	loadErr  error
	loadTime time.Duration
	reload   bool
	changes  chan struct{}

	// Pre-computed for the current criteria
	opts     pipeline.FilterOptions
	criteria pipeline.Criteria
	dash     model.Dashboard

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	scroll    int

	searching   bool
	searchInput textinput.Model

	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals SetupValues
	needSetup bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	scrollOverhead   = 10 // approximate header + status bar height
	minContentHeight = 5

	watchDebounce = 300 * time.Millisecond
)

// NewApp creates a new TUI app model.
func NewApp(ctx context.Context, cfg config.Config, src Source, criteria pipeline.Criteria) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	top := cfg.General.TopSchools
	if top <= 0 {
		top = pipeline.DefaultTopSchools
	}

	return App{
		ctx:         ctx,
		src:         src,
		cfg:         cfg,
		top:         top,
		criteria:    criteria,
		needSetup:   !config.Exists(),
		setupVals:   SetupValuesFrom(cfg),
		searchInput: newSearchInput(),
		settings:    newSettingsState(cfg),
		spinner:     sp,
		changes:     make(chan struct{}, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		loadCmd(a.ctx, a.src.Load),
		a.spinner.Tick,
	}
	if a.src.WatchPath != "" {
		cmds = append(cmds, watchCmd(a.ctx, a.src.WatchPath, a.changes), waitForChange(a.changes))
	}
	return tea.Batch(cmds...)
}

// recompute rebuilds the dashboard from the loaded rows and the current
// criteria. Nothing is carried over from the previous dashboard.
func (a *App) recompute() {
	a.opts = pipeline.Options(a.rows)
	a.dash = pipeline.Build(pipeline.Filter(a.rows, a.criteria), a.top)
	a.scroll = 0
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.scrollBy(-1)
		case tea.MouseButtonWheelDown:
			a.scrollBy(1)
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
					a.scroll = 0
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.loaded = true
		a.reload = false
		a.loadTime = msg.LoadTime
		a.loadErr = msg.Err
		if msg.Err == nil && msg.Result != nil {
			a.result = msg.Result
			a.rows = msg.Result.Rows
			a.recompute()
		}

		if a.needSetup && a.setupForm == nil {
			a.setupForm = NewSetupForm(&a.setupVals, config.BucketPath(a.cfg))
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case fileChangedMsg:
		cmds := []tea.Cmd{waitForChange(a.changes)}
		if !a.reload {
			a.reload = true
			cmds = append(cmds, loadCmd(a.ctx, a.src.Load))
		}
		return a, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Cursor blinks and the like go to whichever input is focused.
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.searching {
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		if key == "q" {
			return a, tea.Quit
		}
		return a, nil
	}

	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.searching {
		return a.updateSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if a.activeTab == tabSettings {
		if m, cmd, ok := a.updateSettingsKey(key); ok {
			return m, cmd
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.reload {
			a.reload = true
			return a, loadCmd(a.ctx, a.src.Load)
		}
		return a, nil
	case "/":
		a.searching = true
		a.searchInput.SetValue(a.criteria.Query)
		a.searchInput.CursorEnd()
		return a, a.searchInput.Focus()
	case "esc":
		if a.criteria.Query != "" {
			a.criteria.Query = ""
			a.recompute()
		}
		return a, nil
	case "1":
		a.criteria.Category = cycle(a.opts.Categories, a.criteria.Category)
		a.recompute()
		return a, nil
	case "2":
		a.criteria.School = cycle(a.opts.Schools, a.criteria.School)
		a.recompute()
		return a, nil
	case "3":
		a.criteria.Status = cycle(a.opts.Statuses, a.criteria.Status)
		a.recompute()
		return a, nil
	case "0":
		a.criteria = pipeline.Criteria{}
		a.recompute()
		return a, nil
	case "j", "down":
		a.scrollBy(1)
		return a, nil
	case "k", "up":
		a.scrollBy(-1)
		return a, nil
	case "ctrl+d":
		a.scrollBy(a.halfPage())
		return a, nil
	case "ctrl+u":
		a.scrollBy(-a.halfPage())
		return a, nil
	case "g":
		a.scroll = 0
		return a, nil
	case "G":
		a.scroll = a.maxScroll()
		return a, nil
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		a.scroll = 0
		return a, nil
	case "right":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		a.scroll = 0
		return a, nil
	}

	if r := []rune(key); len(r) == 1 {
		if idx := components.TabIdxByKey(r[0]); idx >= 0 {
			a.activeTab = idx
			a.scroll = 0
		}
	}
	return a, nil
}

func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.criteria.Query = strings.TrimSpace(a.searchInput.Value())
		a.searching = false
		a.searchInput.Blur()
		a.recompute()
		return a, nil
	case "esc":
		a.searching = false
		a.searchInput.Blur()
		return a, nil
	}

	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	return a, cmd
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.cfg = a.setupVals.Apply(a.cfg)
		theme.SetActive(a.cfg.Appearance.Theme)
		a.settings = newSettingsState(a.cfg)
		a.settings.saveErr = config.Save(a.cfg)
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

// cycle returns the option after current, wrapping back to "" (no filter)
// after the last one.
func cycle(options []string, current string) string {
	if len(options) == 0 {
		return ""
	}
	if current == "" {
		return options[0]
	}
	for i, o := range options {
		if o == current {
			if i+1 < len(options) {
				return options[i+1]
			}
			return ""
		}
	}
	return ""
}

func (a *App) scrollBy(n int) {
	a.scroll = max(0, min(a.scroll+n, a.maxScroll()))
}

// maxScroll is the number of list rows the active tab can scroll past.
func (a App) maxScroll() int {
	switch a.activeTab {
	case tabDeliverables:
		return max(len(a.dash.Deliverables)-1, 0)
	case tabTasks:
		return max(len(a.dash.Tasks)-1, 0)
	case tabBreakdown:
		return max(len(a.dash.Categories)-1, 0)
	}
	return 0
}

func (a App) halfPage() int {
	return max((a.height-scrollOverhead)/2, 1)
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  cdash needs at least %d columns.\n",
		a.width, minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ cdash"))
	b.WriteString(subtitleStyle.Render(" · Painel de obras"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Carregando " + a.src.Label + "..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.School).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o e t b x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Scroll lists"},
			{"^d ^u", "Half-page scroll"},
		}},
		{"Filters", [][2]string{
			{"1", "Cycle category"},
			{"2", "Cycle school"},
			{"3", "Cycle status"},
			{"/", "Search key, summary, category, school"},
			{"Esc", "Clear search"},
			{"0", "Clear all filters"},
		}},
		{"Actions", [][2]string{
			{"r", "Reload source"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	filterRowStyle := lipgloss.NewStyle().Background(t.Surface).Width(w)
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		filterRowStyle.Render(a.filterLine())

	label := a.src.Label
	if a.result != nil {
		label = a.result.Label
	}
	statusBar := components.RenderStatusBar(w, label, a.src.WatchPath != "", a.reload)

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.loadErr != nil && a.result == nil:
		content = a.renderLoadError(cw)
	case a.activeTab == tabOverview:
		content = a.renderOverviewTab(cw)
	case a.activeTab == tabDeliverables:
		content = a.renderDeliverablesTab(cw, contentH)
	case a.activeTab == tabTasks:
		content = a.renderTasksTab(cw, contentH)
	case a.activeTab == tabBreakdown:
		content = a.renderBreakdownTab(cw)
	case a.activeTab == tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// filterLine renders the active criteria, or the search input while typing.
func (a App) filterLine() string {
	t := theme.Active
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	if a.searching {
		return dim.Render(" Busca: ") + a.searchInput.View()
	}

	parts := []string{}
	add := func(name, value string) {
		if value != "" {
			parts = append(parts, dim.Render(name+" ")+accent.Render(value))
		}
	}
	add("categoria", a.criteria.Category)
	add("escola", a.criteria.School)
	add("status", a.criteria.Status)
	add("busca", a.criteria.Query)

	if len(parts) == 0 {
		return dim.Render(" Todos os registros")
	}
	return dim.Render(" ") + strings.Join(parts, dim.Render(" │ "))
}

func (a App) renderLoadError(cw int) string {
	t := theme.Active
	warn := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	body := warn.Render(a.loadErr.Error()) + "\n\n" + muted.Render("Press r to retry, q to quit.")
	return components.ContentCard("Could not load data", body, cw)
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "chave, resumo, categoria ou escola"
	ti.CharLimit = 100
	ti.Width = 40
	return ti
}

// loadCmd runs the source loader off the UI goroutine.
func loadCmd(ctx context.Context, load func(context.Context) (*pipeline.LoadResult, error)) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		res, err := load(ctx)
		return DataLoadedMsg{Result: res, Err: err, LoadTime: time.Since(start)}
	}
}

// watchCmd starts a file watcher that signals ch on every debounced change.
func watchCmd(ctx context.Context, path string, ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		go func() {
			_ = source.Watch(ctx, path, watchDebounce, func() {
				select {
				case ch <- struct{}{}:
				default:
				}
			})
		}()
		return nil
	}
}

func waitForChange(ch chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return fileChangedMsg{}
	}
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++ // separator
		}
	}
	return -1
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
