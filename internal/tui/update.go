package tui

import (
	"context"
	"sort"
	"strings"
	"time"

	"copypath/internal/model"
	"copypath/internal/plugin"
	"copypath/internal/tree"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"
)

// MsgTreeReady indicates that the root directory has been loaded.
type MsgTreeReady struct {
	Root string
	Tree *tree.Tree
	Err  error
}

// MsgCopyDone carries the outcome of a copy and what the user was told.
type MsgCopyDone struct {
	Result model.CopyResult
	Notes  []string
}

// MsgToastExpired clears the toast it belongs to.
type MsgToastExpired struct{ ID int }

// MsgWatchStarted hands over a running watcher.
type MsgWatchStarted struct{ Watcher *tree.Watcher }

// MsgTreeChanged indicates the filesystem changed under the tree.
type MsgTreeChanged struct{}

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		m.ensureCursorVisible()
		return m, nil

	case MsgTreeReady:
		m.Loading = false
		m.loadedRoot = msg.Root
		m.Err = msg.Err
		m.Tree = msg.Tree
		m.SelectedIdx = 0
		m.ScrollOff = 0
		m.HoverIdx = -1
		m.Active.Clear()
		if msg.Err != nil {
			return m, nil
		}
		if m.watcher != nil {
			if err := m.watcher.Sync(m.Tree.ExpandedDirs()); err != nil {
				m.logger.Warn().Err(err).Msg("watch failed")
			}
			return m, nil
		}
		if m.Watch {
			return m, startWatcherCmd(m.logger, m.Tree.ExpandedDirs())
		}
		return m, nil

	case MsgWatchStarted:
		m.watcher = msg.Watcher
		return m, m.listenCmd()

	case MsgTreeChanged:
		if m.Tree != nil {
			selected := ""
			if n := m.selectedNode(); n != nil {
				selected = n.Path
			}
			if err := m.Tree.Refresh(); err != nil {
				m.Err = err
			}
			m.restoreCursor(selected)
			m.syncWatcher()
		}
		return m, m.listenCmd()

	case MsgCopyDone:
		m.Copying = false
		if msg.Result.OK() && msg.Result.Path != "" {
			m.LastCopied = msg.Result.Path
		}
		cmd = m.showToast(msg.Notes, !msg.Result.OK() && !msg.Result.Skipped())
		// A command may have switched the root
		if root := m.Roots.Current(); root != m.loadedRoot && !m.Loading {
			m.Loading = true
			return m, tea.Batch(cmd, loadTreeCmd(root, m.ShowHidden))
		}
		return m, cmd

	case MsgToastExpired:
		if msg.ID == m.toastID {
			m.Toast = ""
			m.ToastFailed = false
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, cmd
}

func (m AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	// ctrl+y reaches the copy shortcut even while typing
	if key == "ctrl+y" {
		return m, m.runCommandForKey("y")
	}

	if m.ShowHelp {
		switch key {
		case "?", "esc", "q":
			m.ShowHelp = false
		}
		return m, nil
	}

	if m.PaletteOpen {
		return m.handlePaletteKey(msg)
	}

	if m.MenuOpen {
		return m.handleMenuKey(key)
	}

	if m.Renaming {
		switch msg.Type {
		case tea.KeyEnter:
			m.commitRename()
			return m, nil
		case tea.KeyEsc:
			m.Renaming = false
			m.RenameInput.Blur()
			return m, nil
		}
		m.RenameInput, cmd = m.RenameInput.Update(msg)
		return m, cmd
	}

	if m.InputMode {
		switch msg.Type {
		case tea.KeyEnter:
			// Keep the matches, leave the input
			m.InputMode = false
			m.InputBuffer.Blur()
			m.performSearch()
			return m, nil
		case tea.KeyEsc:
			m.InputMode = false
			m.InputBuffer.Blur()
			m.InputBuffer.SetValue("")
			m.performSearch()
			return m, nil
		}
		m.InputBuffer, cmd = m.InputBuffer.Update(msg)
		m.performSearch()
		return m, cmd
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "?":
		m.ShowHelp = true
	case "esc":
		if len(m.SearchMatches) > 0 {
			m.SearchMatches = nil
			m.InputBuffer.SetValue("")
		}
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "pgup":
		m.moveCursor(-m.visibleRows())
	case "pgdown":
		m.moveCursor(m.visibleRows())
	case "home", "g":
		m.moveCursor(-m.SelectedIdx)
	case "end", "G":
		if m.Tree != nil {
			m.moveCursor(m.Tree.Len())
		}
	case "right", "l":
		if n := m.selectedNode(); n != nil && n.Kind == model.KindFolder {
			m.expand(n)
		}
	case "left", "h":
		if n := m.selectedNode(); n != nil {
			if n.Kind == model.KindFolder && n.Expanded && !n.IsRoot() {
				m.collapse(n)
			} else if n.Parent != nil {
				m.SelectedIdx = m.Tree.IndexOf(n.Parent.Path)
				m.ensureCursorVisible()
			}
		}
	case "enter":
		return m, m.open(m.selectedNode())
	case "r":
		if n := m.selectedNode(); n != nil && !n.IsRoot() {
			m.Renaming = true
			m.RenameTarget = n.Path
			m.RenameInput.SetValue(n.Name)
			m.RenameInput.CursorEnd()
			m.RenameInput.Focus()
			return m, textinput.Blink
		}
	case "/":
		m.InputMode = true
		m.InputBuffer.Focus()
		m.InputBuffer.SetValue("")
		return m, textinput.Blink
	case "n":
		m.jumpToMatch(1)
	case "N":
		m.jumpToMatch(-1)
	case "m", "shift+f10":
		if n := m.selectedNode(); n != nil {
			m.openMenu(toTreeNode(n))
		}
	case "Y":
		return m, m.runCommand(plugin.CmdCopyCurrent)
	case "tab":
		if _, ok := m.Registry.Command(plugin.CmdSwitchRoot); ok {
			return m, m.runCommand(plugin.CmdSwitchRoot)
		}
	case "ctrl+p", ":":
		m.openPalette()
		return m, textinput.Blink
	case ".":
		m.ShowHidden = !m.ShowHidden
		if m.Tree != nil {
			m.Tree.ShowHidden = m.ShowHidden
			selected := ""
			if n := m.selectedNode(); n != nil {
				selected = n.Path
			}
			if err := m.Tree.Refresh(); err != nil {
				m.Err = err
			}
			m.restoreCursor(selected)
		}
	default:
		if _, ok := m.Registry.CommandForKey(key); ok {
			return m, m.runCommandForKey(key)
		}
	}

	return m, cmd
}

func (m AppModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	m.MouseSeen = true
	idx, inTree := m.rowAt(msg.X, msg.Y)
	m.PointerInTree = inTree
	m.HoverIdx = idx

	if m.PaletteOpen || m.ShowHelp {
		return m, nil
	}

	if m.MenuOpen {
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		if i, ok := m.menuItemAt(msg.X, msg.Y); ok {
			if msg.Button == tea.MouseButtonLeft {
				m.MenuIdx = i
				return m, m.clickMenu()
			}
			return m, nil
		}
		m.MenuOpen = false
		return m, nil
	}

	if msg.Action != tea.MouseActionPress {
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.scroll(-3)
	case tea.MouseButtonWheelDown:
		m.scroll(3)
	case tea.MouseButtonLeft:
		if idx >= 0 && !m.Renaming {
			if idx == m.SelectedIdx {
				return m, m.open(m.selectedNode())
			}
			m.SelectedIdx = idx
		}
	case tea.MouseButtonRight:
		if idx >= 0 && !m.Renaming {
			m.openMenu(toTreeNode(m.Tree.Row(idx)))
		}
	}
	return m, nil
}

func (m AppModel) handleMenuKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q", "m":
		m.MenuOpen = false
	case "up", "k":
		if m.MenuIdx > 0 {
			m.MenuIdx--
		}
	case "down", "j":
		if m.MenuIdx < len(m.MenuItems)-1 {
			m.MenuIdx++
		}
	case "enter":
		return m, m.clickMenu()
	}
	return m, nil
}

func (m AppModel) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.Type {
	case tea.KeyEsc:
		m.closePalette()
		return m, nil
	case tea.KeyUp:
		if m.PaletteIdx > 0 {
			m.PaletteIdx--
		}
		return m, nil
	case tea.KeyDown:
		if m.PaletteIdx < len(m.PaletteMatches)-1 {
			m.PaletteIdx++
		}
		return m, nil
	case tea.KeyEnter:
		if m.PaletteIdx >= len(m.PaletteMatches) {
			return m, nil
		}
		id := m.PaletteMatches[m.PaletteIdx].ID
		m.closePalette()
		return m, m.runCommand(id)
	}
	m.PaletteInput, cmd = m.PaletteInput.Update(msg)
	m.filterPalette()
	return m, cmd
}

func (m *AppModel) openMenu(target model.TreeNode) {
	items := m.Registry.MenuFor(target)
	if len(items) == 0 {
		return
	}
	m.MenuOpen = true
	m.MenuItems = items
	m.MenuTarget = target
	m.MenuIdx = 0
}

func (m *AppModel) clickMenu() tea.Cmd {
	m.MenuOpen = false
	if m.MenuIdx < 0 || m.MenuIdx >= len(m.MenuItems) {
		return nil
	}
	item := m.MenuItems[m.MenuIdx]
	target := m.MenuTarget
	return m.copyCmd(func(ctx context.Context) model.CopyResult {
		return item.OnClick(ctx, target)
	})
}

func (m *AppModel) openPalette() {
	m.PaletteOpen = true
	m.PaletteInput.SetValue("")
	m.PaletteInput.Focus()
	m.filterPalette()
}

func (m *AppModel) closePalette() {
	m.PaletteOpen = false
	m.PaletteInput.Blur()
}

// filterPalette ranks commands by fuzzy match on their names.
func (m *AppModel) filterPalette() {
	commands := m.Registry.Commands()
	query := strings.TrimSpace(m.PaletteInput.Value())
	m.PaletteIdx = 0
	if query == "" {
		m.PaletteMatches = commands
		return
	}

	names := make([]string, len(commands))
	for i, c := range commands {
		names[i] = c.Name
	}
	ranks := fuzzy.RankFindFold(query, names)
	sort.Sort(ranks)

	m.PaletteMatches = m.PaletteMatches[:0:0]
	for _, r := range ranks {
		m.PaletteMatches = append(m.PaletteMatches, commands[r.OriginalIndex])
	}
}

// runCommandForKey runs the command bound to key against the current state.
func (m *AppModel) runCommandForKey(key string) tea.Cmd {
	c, ok := m.Registry.CommandForKey(key)
	if !ok {
		return nil
	}
	return m.runCommand(c.ID)
}

func (m *AppModel) runCommand(id string) tea.Cmd {
	c, ok := m.Registry.Command(id)
	if !ok {
		return nil
	}
	state := m.hostState()
	return m.copyCmd(func(ctx context.Context) model.CopyResult {
		return c.Callback(ctx, state)
	})
}

// copyCmd runs fn off the UI loop; the clipboard write may block. Copies
// never overlap and each one drains only its own notes.
func (m *AppModel) copyCmd(fn func(ctx context.Context) model.CopyResult) tea.Cmd {
	m.Copying = true
	notes, mu := m.notes, m.copyMu
	return func() tea.Msg {
		mu.Lock()
		defer mu.Unlock()
		res := fn(context.Background())
		return MsgCopyDone{Result: res, Notes: notes.Drain()}
	}
}

func (m *AppModel) showToast(notes []string, failed bool) tea.Cmd {
	if len(notes) == 0 {
		return nil
	}
	m.toastID++
	m.Toast = notes[len(notes)-1]
	m.ToastFailed = failed
	id := m.toastID
	return tea.Tick(m.ToastDuration, func(time.Time) tea.Msg {
		return MsgToastExpired{ID: id}
	})
}

// open expands/collapses a folder or makes a file the active file.
func (m *AppModel) open(n *tree.Node) tea.Cmd {
	if n == nil {
		return nil
	}
	if n.Kind == model.KindFolder {
		if n.Expanded {
			m.collapse(n)
		} else {
			m.expand(n)
		}
		return nil
	}
	m.Active.Set(toTreeNode(n))
	return m.showToast([]string{"Opened " + n.Path}, false)
}

func (m *AppModel) expand(n *tree.Node) {
	if err := m.Tree.Expand(n); err != nil {
		m.Toast = "Cannot open " + n.Path + ": " + err.Error()
		m.ToastFailed = true
		return
	}
	m.syncWatcher()
}

func (m *AppModel) collapse(n *tree.Node) {
	_ = m.Tree.Collapse(n)
	m.SelectedIdx = m.Tree.IndexOf(n.Path)
	m.ensureCursorVisible()
	m.syncWatcher()
}

func (m *AppModel) commitRename() {
	m.Renaming = false
	m.RenameInput.Blur()

	if m.Tree == nil {
		return
	}
	idx := m.Tree.IndexOf(m.RenameTarget)
	n := m.Tree.Row(idx)
	if n == nil {
		return
	}
	newName := m.RenameInput.Value()
	if err := m.Tree.Rename(n, newName); err != nil {
		m.Toast = "Rename failed: " + err.Error()
		m.ToastFailed = true
		return
	}

	parent := ""
	if n.Parent != nil {
		parent = n.Parent.Path
	}
	newPath := strings.TrimPrefix(parent+"/"+strings.TrimSpace(newName), "/")
	if active, ok := m.Active.ActiveFile(); ok && active.Path == m.RenameTarget {
		m.Active.Set(model.TreeNode{Kind: active.Kind, Path: newPath})
	}
	m.restoreCursor(newPath)
}

func (m *AppModel) performSearch() {
	m.SearchMatches = nil
	m.SearchCursor = 0
	term := strings.ToLower(m.InputBuffer.Value())
	if term == "" || m.Tree == nil {
		return
	}
	for i, n := range m.Tree.Rows() {
		if strings.Contains(strings.ToLower(n.Name), term) {
			m.SearchMatches = append(m.SearchMatches, i)
		}
	}
	if len(m.SearchMatches) > 0 {
		m.SelectedIdx = m.SearchMatches[0]
		m.ensureCursorVisible()
	}
}

func (m *AppModel) jumpToMatch(delta int) {
	if len(m.SearchMatches) == 0 {
		return
	}
	m.SearchCursor = (m.SearchCursor + delta + len(m.SearchMatches)) % len(m.SearchMatches)
	m.SelectedIdx = m.SearchMatches[m.SearchCursor]
	m.ensureCursorVisible()
}

func (m *AppModel) moveCursor(delta int) {
	if m.Tree == nil {
		return
	}
	m.SelectedIdx += delta
	if m.SelectedIdx >= m.Tree.Len() {
		m.SelectedIdx = m.Tree.Len() - 1
	}
	if m.SelectedIdx < 0 {
		m.SelectedIdx = 0
	}
	m.ensureCursorVisible()
}

func (m *AppModel) scroll(delta int) {
	if m.Tree == nil {
		return
	}
	m.ScrollOff += delta
	maxOff := m.Tree.Len() - m.visibleRows()
	if m.ScrollOff > maxOff {
		m.ScrollOff = maxOff
	}
	if m.ScrollOff < 0 {
		m.ScrollOff = 0
	}
}

func (m *AppModel) ensureCursorVisible() {
	visible := m.visibleRows()
	if m.SelectedIdx < m.ScrollOff {
		m.ScrollOff = m.SelectedIdx
	}
	if m.SelectedIdx >= m.ScrollOff+visible {
		m.ScrollOff = m.SelectedIdx - visible + 1
	}
	if m.ScrollOff < 0 {
		m.ScrollOff = 0
	}
}

// restoreCursor puts the cursor back on path after the rows changed.
func (m *AppModel) restoreCursor(path string) {
	if m.Tree == nil {
		return
	}
	if idx := m.Tree.IndexOf(path); idx >= 0 {
		m.SelectedIdx = idx
	} else if m.SelectedIdx >= m.Tree.Len() {
		m.SelectedIdx = m.Tree.Len() - 1
	}
	if m.SelectedIdx < 0 {
		m.SelectedIdx = 0
	}
	m.HoverIdx = -1
	m.ensureCursorVisible()
}

func (m *AppModel) syncWatcher() {
	if m.watcher == nil || m.Tree == nil {
		return
	}
	if err := m.watcher.Sync(m.Tree.ExpandedDirs()); err != nil {
		m.logger.Warn().Err(err).Msg("watch failed")
	}
}

func (m *AppModel) listenCmd() tea.Cmd {
	w := m.watcher
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-w.Events(); !ok {
			return nil
		}
		return MsgTreeChanged{}
	}
}

// loadTreeCmd loads the root in the background.
func loadTreeCmd(root string, showHidden bool) tea.Cmd {
	return func() tea.Msg {
		t := tree.New(root, showHidden)
		if err := t.Load(); err != nil {
			return MsgTreeReady{Root: root, Err: err}
		}
		return MsgTreeReady{Root: root, Tree: t}
	}
}

func startWatcherCmd(logger zerolog.Logger, dirs []string) tea.Cmd {
	return func() tea.Msg {
		w, err := tree.NewWatcher(dirs...)
		if err != nil {
			logger.Warn().Err(err).Msg("file watcher unavailable")
			return nil
		}
		return MsgWatchStarted{Watcher: w}
	}
}
