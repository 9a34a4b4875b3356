package tui

import (
	"sync"
	"time"

	"copypath/internal/clipboard"
	"copypath/internal/config"
	"copypath/internal/copier"
	"copypath/internal/focus"
	"copypath/internal/logging"
	"copypath/internal/model"
	"copypath/internal/plugin"
	"copypath/internal/tree"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

// AppModel holds the TUI state.
type AppModel struct {
	// Data
	Tree     *tree.Tree
	Roots    *copier.Roots
	Registry *plugin.Registry
	Active   *focus.ActiveTracker
	Loading  bool
	Err      error

	// UI State
	SelectedIdx   int // Keyboard cursor; the focused row
	HoverIdx      int // Row under the mouse pointer, -1 if none
	PointerInTree bool
	MouseSeen     bool // False until the terminal reports a mouse event
	ScrollOff     int
	WindowSize    tea.WindowSizeMsg
	ShowHelp      bool
	ShowHidden    bool
	Watch         bool
	Copying       bool
	LastCopied    string

	// Rename State
	Renaming     bool
	RenameInput  textinput.Model
	RenameTarget string

	// Filter State
	InputMode     bool
	InputBuffer   textinput.Model
	SearchMatches []int // Row indices whose name matches the filter
	SearchCursor  int

	// Context Menu State
	MenuOpen   bool
	MenuItems  []plugin.MenuItem
	MenuTarget model.TreeNode
	MenuIdx    int

	// Command Palette State
	PaletteOpen    bool
	PaletteInput   textinput.Model
	PaletteMatches []plugin.Command
	PaletteIdx     int

	// Toast
	Toast         string
	ToastFailed   bool
	ToastDuration time.Duration
	toastID       int

	notes      *noteQueue
	copyMu     *sync.Mutex // One copy at a time, in trigger order
	watcher    *tree.Watcher
	loadedRoot string
	logger     zerolog.Logger
}

// noteQueue collects notifier messages produced while a copy runs in a
// tea.Cmd; Update drains them when the copy finishes.
type noteQueue struct {
	mu    sync.Mutex
	notes []string
}

func (q *noteQueue) Notify(message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notes = append(q.notes, message)
}

func (q *noteQueue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.notes
	q.notes = nil
	return out
}

// InitialModel wires the copy machinery to sink and returns the initial state.
func InitialModel(cfg *config.Config, sink clipboard.Sink) AppModel {
	notes := &noteQueue{}
	roots := copier.NewRoots(cfg.Roots)
	active := &focus.ActiveTracker{}

	logger := logging.GetLogger("tui")

	c := copier.New(roots, sink, notes)
	registry := plugin.NewRegistry(notes.Notify, func(root string) {
		logger.Info().Str("root", root).Msg("root switched")
	})
	if err := registry.Load(plugin.NewCopyPath(focus.NewDispatcher(c, active), roots)); err != nil {
		logger.Error().Err(err).Msg("plugin failed to load")
	}

	ti := textinput.New()
	ti.Placeholder = "File name..."
	ti.CharLimit = 50
	ti.Width = 20

	ri := textinput.New()
	ri.CharLimit = 255
	ri.Width = 40

	pi := textinput.New()
	pi.Placeholder = "Type a command..."
	pi.CharLimit = 80
	pi.Width = 40

	toast := cfg.ToastDuration()
	if toast <= 0 {
		toast = config.DefaultToastSeconds * time.Second
	}

	return AppModel{
		Roots:         roots,
		Registry:      registry,
		Active:        active,
		Loading:       true,
		HoverIdx:      -1,
		ShowHidden:    cfg.ShowHidden,
		Watch:         cfg.Watch,
		InputBuffer:   ti,
		RenameInput:   ri,
		PaletteInput:  pi,
		ToastDuration: toast,
		notes:         notes,
		copyMu:        &sync.Mutex{},
		logger:        logger,
	}
}

// Close releases the file watcher.
func (m *AppModel) Close() {
	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
	}
	if m.Registry != nil {
		m.Registry.Unload()
	}
}

// hostState is the model as seen by a trigger. Text entry (rename or the
// filter input) counts as renaming, and overlays take the pointer away
// from the tree.
type hostState struct {
	overTree  bool
	renaming  bool
	selection string
	nodes     func() []model.TreeNode
}

func (s hostState) PointerOverTree() bool { return s.overTree }
func (s hostState) Renaming() bool { return s.renaming }
func (s hostState) Selection() string { return s.selection }
func (s hostState) Nodes() []model.TreeNode { return s.nodes() }

func (m *AppModel) hostState() focus.HostState {
	overTree := m.PointerInTree || !m.MouseSeen
	if m.MenuOpen || m.PaletteOpen || m.ShowHelp || m.Tree == nil {
		overTree = false
	}

	selection := ""
	switch {
	case m.Renaming:
		selection = m.RenameInput.Value()
	case m.InputMode:
		selection = m.InputBuffer.Value()
	}

	rows := m.rows()
	cursor, hover := m.SelectedIdx, m.HoverIdx
	if !m.PointerInTree {
		hover = -1
	}
	return hostState{
		overTree:  overTree,
		renaming:  m.Renaming || m.InputMode,
		selection: selection,
		nodes:     func() []model.TreeNode { return tree.Snapshot(rows, cursor, hover) },
	}
}

func (m *AppModel) rows() []*tree.Node {
	if m.Tree == nil {
		return nil
	}
	return m.Tree.Rows()
}

func (m *AppModel) selectedNode() *tree.Node {
	if m.Tree == nil {
		return nil
	}
	return m.Tree.Row(m.SelectedIdx)
}

func toTreeNode(n *tree.Node) model.TreeNode {
	return model.TreeNode{Kind: n.Kind, Path: n.Path}
}
