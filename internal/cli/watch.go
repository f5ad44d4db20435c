package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipeview/pkg/dag"
	"github.com/matzehuels/pipeview/pkg/graph"
	"github.com/matzehuels/pipeview/pkg/layout"
	"github.com/matzehuels/pipeview/pkg/pipeline"
)

// watchCommand creates the watch command, which animates a layout run.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		cf configFlags
		rf runFlags
	)

	cmd := &cobra.Command{
		Use:   "watch [graph.json]",
		Short: "Watch a layout relax in the terminal",
		Long: `Watch a layout relax in the terminal.

Each batch of iterations is drawn on a scaled canvas as it is published.
Select a node to highlight every job it depends on. Positions are saved when
the run finishes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cf.load(cmd)
			if err != nil {
				return err
			}
			return c.runWatch(cmd.Context(), args[0], rf, rf.options(cfg))
		},
	}

	cf.register(cmd)
	rf.register(cmd)

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, input string, rf runFlags, opts pipeline.Options) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, true, rf.store)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if opts.Name == "" {
		opts.Name = layoutName(input)
	}
	opts.Logger = c.Logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	stored, err := runner.LoadPositions(ctx, opts)
	if err != nil {
		return err
	}
	seed, err := pipeline.NewSeed(g, opts.Config, stored)
	if err != nil {
		return err
	}
	for label, rerr := range seed.Rejected {
		c.Logger.Warn("ignoring stored position", "node", label, "error", rerr)
	}

	m := newWatchModel(g, seed, opts)
	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	wm := final.(watchModel)
	if wm.err != nil {
		return wm.err
	}
	if !wm.ctrl.Done() {
		printInfo("Stopped after %d batches, positions not saved", wm.ctrl.Batches())
		return nil
	}

	l := pipeline.BuildLayout(g, seed.Simulation, wm.ctrl.Batches(), opts)
	if !opts.NoSave {
		if err := runner.SavePositions(ctx, opts.Name, l); err != nil {
			return fmt.Errorf("save positions: %w", err)
		}
	}
	printSuccess("Layout complete after %d batches", wm.ctrl.Batches())
	printStats(len(l.Positions), len(l.Edges), false)
	return nil
}

// =============================================================================
// Key bindings
// =============================================================================

type watchKeys struct {
	Pause key.Binding
	Step  key.Binding
	Next  key.Binding
	Prev  key.Binding
	Clear key.Binding
	Quit  key.Binding
}

var defaultWatchKeys = watchKeys{
	Pause: key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "pause")),
	Step:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "step")),
	Next:  key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next node")),
	Prev:  key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev node")),
	Clear: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k watchKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Step, k.Next, k.Quit}
}

func (k watchKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Pause, k.Step}, {k.Next, k.Prev, k.Clear}, {k.Quit}}
}

// =============================================================================
// Model
// =============================================================================

// batchMsg asks the model to advance the controller by one batch. Messages
// from a tick chain older than the model's current one are dropped.
type batchMsg struct{ gen int }

type watchModel struct {
	g       *dag.DAG
	ctrl    *layout.Controller
	display *layout.MapDisplay
	labels  []string
	total   int
	tick    time.Duration

	bar  progress.Model
	help help.Model
	keys watchKeys

	paused   bool
	gen      int
	selected int // index into labels, -1 for none
	width    int
	height   int
	err      error
}

func newWatchModel(g *dag.DAG, seed *pipeline.Seed, opts pipeline.Options) watchModel {
	sim := seed.Simulation
	labels := make([]string, 0, sim.Len())
	for _, n := range sim.Nodes() {
		labels = append(labels, n.Label)
	}
	slices.Sort(labels)

	display := layout.NewMapDisplay(labels...)
	for _, n := range sim.Nodes() {
		// Move only rejects unregistered labels.
		_ = display.Move(n.Label, int(n.X), int(n.Y))
	}

	cfg := opts.Config
	return watchModel{
		g:        g,
		ctrl:     layout.NewController(sim, cfg.Params(), cfg.Iterates, cfg.ShowInterval, display),
		display:  display,
		labels:   labels,
		total:    cfg.Iterates/max(cfg.ShowInterval, 1) + 1,
		tick:     max(cfg.Tick(), time.Millisecond),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:     help.New(),
		keys:     defaultWatchKeys,
		selected: -1,
	}
}

func (m watchModel) tickCmd() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.tick, func(time.Time) tea.Msg { return batchMsg{gen: gen} })
}

func (m watchModel) Init() tea.Cmd {
	return m.tickCmd()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.bar.Width = min(max(msg.Width-20, 10), 60)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
			m.gen++
			if !m.paused && !m.ctrl.Done() {
				return m, m.tickCmd()
			}
		case key.Matches(msg, m.keys.Step):
			if m.paused {
				cmd := m.advance()
				return m, cmd
			}
		case key.Matches(msg, m.keys.Next):
			if len(m.labels) > 0 {
				m.selected = (m.selected + 1) % len(m.labels)
			}
		case key.Matches(msg, m.keys.Prev):
			if len(m.labels) > 0 {
				m.selected = (max(m.selected, 0) - 1 + len(m.labels)) % len(m.labels)
			}
		case key.Matches(msg, m.keys.Clear):
			m.selected = -1
		}
		return m, nil

	case batchMsg:
		if msg.gen != m.gen || m.paused || m.ctrl.Done() {
			return m, nil
		}
		if cmd := m.advance(); cmd != nil || m.ctrl.Done() {
			return m, cmd
		}
		return m, m.tickCmd()
	}
	return m, nil
}

// advance runs one batch. It quits the program when the batch fails.
func (m *watchModel) advance() tea.Cmd {
	if _, err := m.ctrl.Advance(); err != nil {
		m.err = err
		return tea.Quit
	}
	return nil
}

// highlighted returns the selected label and the set of its ancestors.
func (m watchModel) highlighted() (string, map[string]bool) {
	if m.selected < 0 || m.selected >= len(m.labels) {
		return "", nil
	}
	sel := m.labels[m.selected]
	anc := make(map[string]bool)
	for _, id := range m.g.Ancestors(sel) {
		anc[id] = true
	}
	return sel, anc
}

func (m watchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(appName + " watch"))
	b.WriteString("\n\n")

	percent := float64(m.ctrl.Batches()) / float64(max(m.total, 1))
	b.WriteString(m.bar.ViewAs(min(percent, 1)))
	state := "running"
	switch {
	case m.ctrl.Done():
		state = "done"
	case m.paused:
		state = "paused"
	}
	b.WriteString(StyleDim.Render(fmt.Sprintf("  batch %d/%d · %s", m.ctrl.Batches(), m.total, state)))
	b.WriteString("\n\n")

	cols, rows := 72, 16
	if m.width > 0 {
		cols = min(max(m.width-4, 20), 160)
	}
	if m.height > 0 {
		rows = min(max(m.height-10, 5), 60)
	}
	sel, anc := m.highlighted()
	w, h := m.ctrl.Simulation().Bounds()
	canvas := renderCanvas(m.display.Positions(), w, h, cols, rows, sel, anc)
	b.WriteString(lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Render(canvas))
	b.WriteString("\n")

	if sel != "" {
		p, _ := m.display.Position(sel)
		line := fmt.Sprintf("%s at (%d, %d)", StyleHighlight.Render(sel), p.X, p.Y)
		if names := m.g.Ancestors(sel); len(names) > 0 {
			line += StyleDim.Render(" depends on ") + StyleWarning.Render(strings.Join(names, ", "))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

// renderCanvas draws each node as the first rune of its label on a cols×rows
// grid scaled from a w×h canvas. sel is drawn highlighted and the nodes in
// anc are drawn as warnings. Labels are drawn in sorted order, so the last
// label wins a shared cell.
func renderCanvas(pos map[string]layout.Point, w, h float64, cols, rows int, sel string, anc map[string]bool) string {
	type cell struct {
		r     rune
		style *lipgloss.Style
	}
	if cols <= 0 || rows <= 0 {
		return ""
	}
	grid := make([][]cell, rows)
	for i := range grid {
		grid[i] = make([]cell, cols)
	}

	labels := make([]string, 0, len(pos))
	for l := range pos {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	node := StyleValue
	for _, l := range labels {
		if l == "" {
			continue
		}
		p := pos[l]
		c := scale(float64(p.X), w, cols)
		r := scale(float64(p.Y), h, rows)
		style := &node
		switch {
		case l == sel:
			style = &StyleHighlight
		case anc[l]:
			style = &StyleWarning
		}
		grid[r][c] = cell{r: []rune(l)[0], style: style}
	}

	var b strings.Builder
	for i, row := range grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, c := range row {
			if c.style == nil {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
	}
	return b.String()
}

// scale maps v in [0, extent] onto a cell index in [0, n).
func scale(v, extent float64, n int) int {
	if extent <= 0 {
		return 0
	}
	i := int(v / extent * float64(n))
	return min(max(i, 0), n-1)
}
