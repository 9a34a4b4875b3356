package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"copypath/internal/model"
	"copypath/internal/tree"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	hoverStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Underline(true)
	matchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true) // Sky Blue/Cyan
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	pathHighlightStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("81")).
				Bold(true)

	borderColor = lipgloss.Color("63")
)

// Screen rows above the tree panel: title bar and root line.
const headerLines = 2

// layout is the geometry shared by View and mouse hit-testing.
type layout struct {
	treeX, treeY int // Screen position of the first visible row
	treeW        int // Interior width of the tree panel
	rows         int // Visible rows
	detailW      int
}

func (m AppModel) layout() layout {
	width := m.WindowSize.Width
	height := m.WindowSize.Height

	// Borders of both panels plus a gap
	netWidth := width - 5
	if netWidth < 30 {
		netWidth = 30
	}
	treeW := netWidth * 3 / 5

	// Header above, two footer lines below
	boxH := height - headerLines - 2
	if boxH < 4 {
		boxH = 4
	}

	return layout{
		treeX:   1,
		treeY:   headerLines + 1,
		treeW:   treeW,
		rows:    boxH - 2,
		detailW: netWidth - treeW,
	}
}

func (m *AppModel) visibleRows() int {
	return m.layout().rows
}

// rowAt maps a screen cell to a tree row. inTree is true anywhere inside
// the tree panel, including below the last row where idx is -1.
func (m AppModel) rowAt(x, y int) (idx int, inTree bool) {
	if m.Tree == nil {
		return -1, false
	}
	l := m.layout()
	if x < l.treeX || x >= l.treeX+l.treeW || y < l.treeY || y >= l.treeY+l.rows {
		return -1, false
	}
	idx = m.ScrollOff + (y - l.treeY)
	if idx >= m.Tree.Len() {
		return -1, true
	}
	return idx, true
}

// menuItemAt maps a screen cell to an item of the open context menu.
func (m AppModel) menuItemAt(x, y int) (int, bool) {
	box := m.renderMenu()
	w, h := lipgloss.Size(box)
	left := (m.WindowSize.Width - w) / 2
	top := (m.WindowSize.Height - h) / 2
	if x < left || x >= left+w {
		return 0, false
	}
	// Border, title and a blank line sit above the first item
	i := y - top - 3
	if i < 0 || i >= len(m.MenuItems) {
		return 0, false
	}
	return i, true
}

func (m AppModel) View() string {
	if m.Loading {
		return "\n  Loading directory... please wait.\n"
	}

	if m.ShowHelp {
		return m.placeCenter(m.renderHelpDialog())
	}
	if m.MenuOpen {
		return m.placeCenter(m.renderMenu())
	}
	if m.PaletteOpen {
		return m.placeCenter(m.renderPalette())
	}

	l := m.layout()
	var b strings.Builder

	b.WriteString(titleStyle.Render("copypath " + model.Version))
	b.WriteString("\n")
	b.WriteString(m.renderRootLine())
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("  Error: %v", m.Err)))
		b.WriteString("\n\n")
		b.WriteString(m.renderFooter())
		return b.String()
	}

	leftPanel := lipgloss.NewStyle().
		Width(l.treeW).
		Height(l.rows).
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Render(m.renderTree(l))

	rightPanel := lipgloss.NewStyle().
		Width(l.detailW).
		Height(l.rows).
		Padding(0, 1).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.renderDetails(l.detailW - 2))

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, " ", rightPanel))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m AppModel) renderRootLine() string {
	root := m.Roots.Current()
	line := labelStyle.Render("Root: ") + pathHighlightStyle.Render(root)
	if all := m.Roots.All(); len(all) > 1 {
		line += dimStyle.Render(fmt.Sprintf("  (%d roots, tab to switch)", len(all)))
	}
	if _, ok := m.Roots.RootPath(); !ok {
		line += errorStyle.Render("  not a local directory")
	}
	return line
}

func (m AppModel) renderTree(l layout) string {
	rows := m.Tree.Rows()
	matches := make(map[int]bool, len(m.SearchMatches))
	for _, i := range m.SearchMatches {
		matches[i] = true
	}

	end := m.ScrollOff + l.rows
	if end > len(rows) {
		end = len(rows)
	}

	clip := lipgloss.NewStyle().MaxWidth(l.treeW)
	lines := make([]string, 0, l.rows)
	for i := m.ScrollOff; i < end; i++ {
		n := rows[i]
		hovered := m.PointerInTree && i == m.HoverIdx

		text := m.rowText(n, hovered)
		if m.Renaming && n.Path == m.RenameTarget {
			text = strings.Repeat("  ", n.Depth) + "  " + m.RenameInput.View()
		}

		var style lipgloss.Style
		switch {
		case i == m.SelectedIdx:
			style = selectedStyle
		case hovered:
			style = hoverStyle
		case matches[i]:
			style = matchStyle
		case n.Err != nil:
			style = errorStyle
		default:
			style = normalStyle
		}
		lines = append(lines, clip.Render(style.Render(text)))
	}
	if len(rows) == 1 && !rows[0].Expanded {
		lines = append(lines, dimStyle.Render("  (empty)"))
	}
	return strings.Join(lines, "\n")
}

func (m AppModel) rowText(n *tree.Node, hovered bool) string {
	var icon string
	switch {
	case n.IsRoot():
		icon = model.IconRoot
	case n.Kind == model.KindFolder && n.Expanded:
		icon = model.IconFolderOpen
	case n.Kind == model.KindFolder:
		icon = model.IconFolderClosed
	default:
		icon = model.IconFile
	}

	name := n.Name
	if n.Kind == model.KindFolder && !n.IsRoot() {
		name += "/"
	}
	text := strings.Repeat("  ", n.Depth) + icon + " " + name
	if m.LastCopied != "" && m.Tree.Abs(n) == m.LastCopied {
		text += " " + model.IconCopied
	}
	if active, ok := m.Active.ActiveFile(); ok && active.Path == n.Path {
		text += " (open)"
	}
	if hovered {
		text += " " + model.IconHover
	}
	return text
}

func (m AppModel) renderDetails(width int) string {
	var b strings.Builder
	n := m.selectedNode()
	if n == nil {
		return dimStyle.Render("Nothing selected")
	}

	field := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(value))
		b.WriteString("\n\n")
	}

	field("Path", m.Tree.Abs(n))
	field("Kind", n.Kind.String())
	if n.Kind == model.KindFile {
		field("Size", humanize.IBytes(uint64(n.Size)))
	} else if n.Expanded {
		field("Entries", humanize.Comma(int64(len(n.Children))))
	}
	if !n.ModTime.IsZero() {
		field("Modified", humanize.Time(n.ModTime))
	}
	if n.Err != nil {
		field("Error", errorStyle.Render(n.Err.Error()))
	}
	if active, ok := m.Active.ActiveFile(); ok {
		field("Open file", active.Path)
	}
	if m.LastCopied != "" {
		field("Last copied", m.LastCopied)
	}
	return b.String()
}

func (m AppModel) renderFooter() string {
	var status string
	switch {
	case m.Renaming:
		status = labelStyle.Render("Renaming ") + dimStyle.Render("enter save · esc cancel · ctrl+y copy text")
	case m.InputMode:
		status = labelStyle.Render("/") + m.InputBuffer.View() + dimStyle.Render(fmt.Sprintf("  %d matches", len(m.SearchMatches)))
	case m.Toast != "" && m.ToastFailed:
		status = errorStyle.Render(model.IconFailed + " " + m.Toast)
	case m.Toast != "":
		status = successStyle.Render(model.IconCopied + " " + m.Toast)
	case m.Copying:
		status = dimStyle.Render("Copying...")
	}

	hints := dimStyle.Render("y copy focused · Y copy open file · m menu · ctrl+p commands · r rename · / filter · ? help · q quit")
	return status + "\n" + hints
}

func (m AppModel) renderMenu() string {
	var lines []string
	lines = append(lines, labelStyle.Render(menuTitle(m.MenuTarget)))
	lines = append(lines, "")
	for i, item := range m.MenuItems {
		text := item.Icon + " " + item.Title
		if i == m.MenuIdx {
			lines = append(lines, selectedStyle.Render(text))
		} else {
			lines = append(lines, normalStyle.Render(text))
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func menuTitle(node model.TreeNode) string {
	if node.Path == "" {
		return "/"
	}
	return node.Path
}

func (m AppModel) renderPalette() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Commands"))
	b.WriteString("\n")
	b.WriteString(m.PaletteInput.View())
	b.WriteString("\n\n")
	if len(m.PaletteMatches) == 0 {
		b.WriteString(dimStyle.Render("No matching commands"))
	}
	for i, c := range m.PaletteMatches {
		text := c.Name
		if c.Key != "" {
			text += dimStyle.Render("  " + c.Key)
		}
		if i == m.PaletteIdx {
			b.WriteString(selectedStyle.Render("> " + text))
		} else {
			b.WriteString("  " + text)
		}
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Width(50).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Render(strings.TrimRight(b.String(), "\n"))
}

const helpText = `copypath keys

  up/k down/j     move the cursor (focus)
  right/l         expand folder
  left/h          collapse folder or go to parent
  enter           open folder or file
  y, ctrl+y       copy path of the focused item
                  (hovered row wins while the mouse is over the tree;
                  copies the typed text while renaming or filtering)
  Y               copy path of the open file
  m, right click  context menu for the row
  ctrl+p, :       command palette
  tab             switch root
  r               rename
  /               filter, n/N next/previous match
  .               toggle hidden files
  ?               this help
  q               quit`

func (m AppModel) renderHelpDialog() string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Render(helpText)
}

func (m AppModel) placeCenter(dialog string) string {
	return lipgloss.Place(m.WindowSize.Width, m.WindowSize.Height,
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, loadTreeCmd(m.Roots.Current(), m.ShowHidden))
}
