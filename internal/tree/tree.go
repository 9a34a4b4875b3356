// Package tree loads a root directory into an expandable tree and turns
// the visible rows into focus/hover snapshots.
package tree

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"copypath/internal/model"
)

// Node is one entry of the browsed directory.
type Node struct {
	Name     string
	Path     string // Slash separated, relative to the root; "" for the root
	Kind     model.Kind
	Size     int64
	ModTime  time.Time
	Depth    int
	Expanded bool
	Children []*Node
	Parent   *Node
	Err      error // Set when a folder could not be listed

	loaded bool
}

// IsRoot reports whether n is the root row.
func (n *Node) IsRoot() bool { return n.Parent == nil }

// Tree is the browsed directory. Folders are listed lazily on expansion.
type Tree struct {
	Root       *Node
	Dir        string
	ShowHidden bool

	rows []*Node
}

// New creates a Tree for dir. Call Load before use.
func New(dir string, showHidden bool) *Tree {
	return &Tree{
		Dir:        dir,
		ShowHidden: showHidden,
		Root: &Node{
			Name:     filepath.Base(dir),
			Kind:     model.KindFolder,
			Expanded: true,
		},
	}
}

// Load lists the root directory.
func (t *Tree) Load() error {
	info, err := os.Stat(t.Dir)
	if err != nil {
		return fmt.Errorf("cannot open root %s: %w", t.Dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %s is not a directory", t.Dir)
	}
	t.Root.ModTime = info.ModTime()
	t.Root.loaded = false
	if err := t.load(t.Root); err != nil {
		return err
	}
	t.flatten()
	return nil
}

// Refresh re-reads every loaded folder, keeping expanded folders expanded.
func (t *Tree) Refresh() error {
	expanded := make(map[string]bool)
	t.Walk(func(n *Node) {
		if n.Expanded {
			expanded[n.Path] = true
		}
	})

	if err := t.Load(); err != nil {
		return err
	}

	var restore func(n *Node)
	restore = func(n *Node) {
		for _, c := range n.Children {
			if c.Kind == model.KindFolder && expanded[c.Path] {
				if err := t.load(c); err == nil {
					c.Expanded = true
				}
				restore(c)
			}
		}
	}
	restore(t.Root)
	t.flatten()
	return nil
}

func (t *Tree) load(n *Node) error {
	if n.loaded {
		return nil
	}
	entries, err := os.ReadDir(t.abs(n))
	if err != nil {
		n.Err = err
		return err
	}
	n.Err = nil

	children := make([]*Node, 0, len(entries))
	for _, e := range entries {
		if !t.ShowHidden && strings.HasPrefix(e.Name(), ".") {
			continue
		}
		child := &Node{
			Name:   e.Name(),
			Path:   path.Join(n.Path, e.Name()),
			Kind:   model.KindFile,
			Depth:  n.Depth + 1,
			Parent: n,
		}
		if e.IsDir() {
			child.Kind = model.KindFolder
		}
		if info, err := e.Info(); err == nil {
			child.Size = info.Size()
			child.ModTime = info.ModTime()
		}
		children = append(children, child)
	}

	// Folders first, then case-insensitive name order
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i], children[j]
		if a.Kind != b.Kind {
			return a.Kind == model.KindFolder
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})

	n.Children = children
	n.loaded = true
	return nil
}

func (t *Tree) abs(n *Node) string {
	return filepath.Join(t.Dir, filepath.FromSlash(n.Path))
}

// Abs returns the absolute filesystem path of n.
func (t *Tree) Abs(n *Node) string { return t.abs(n) }

// Toggle expands or collapses a folder.
func (t *Tree) Toggle(n *Node) error {
	if n == nil || n.Kind != model.KindFolder {
		return nil
	}
	if n.Expanded {
		return t.Collapse(n)
	}
	return t.Expand(n)
}

// Expand lists a folder if needed and shows its children.
func (t *Tree) Expand(n *Node) error {
	if n == nil || n.Kind != model.KindFolder {
		return nil
	}
	if err := t.load(n); err != nil {
		return err
	}
	n.Expanded = true
	t.flatten()
	return nil
}

// Collapse hides a folder's children. The root stays expanded.
func (t *Tree) Collapse(n *Node) error {
	if n == nil || n.Kind != model.KindFolder || n.IsRoot() {
		return nil
	}
	n.Expanded = false
	t.flatten()
	return nil
}

// Rename renames n on disk within its folder and reloads the parent.
func (t *Tree) Rename(n *Node, newName string) error {
	if n == nil || n.IsRoot() {
		return fmt.Errorf("cannot rename the root")
	}
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == "." || newName == ".." || strings.ContainsAny(newName, `/\`) {
		return fmt.Errorf("invalid name %q", newName)
	}
	if newName == n.Name {
		return nil
	}

	parent := n.Parent
	dst := filepath.Join(t.abs(parent), newName)
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%s already exists", newName)
	}
	if err := os.Rename(t.abs(n), dst); err != nil {
		return err
	}

	parent.loaded = false
	if err := t.load(parent); err != nil {
		return err
	}
	t.flatten()
	return nil
}

// Rows returns the visible rows in display order, root first.
func (t *Tree) Rows() []*Node { return t.rows }

// Len returns the number of visible rows.
func (t *Tree) Len() int { return len(t.rows) }

// Row returns the visible row at i, or nil.
func (t *Tree) Row(i int) *Node {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return t.rows[i]
}

// IndexOf returns the row index of the node with the given path, or -1.
func (t *Tree) IndexOf(p string) int {
	for i, n := range t.rows {
		if n.Path == p {
			return i
		}
	}
	return -1
}

// Walk visits every loaded node depth first, root included.
func (t *Tree) Walk(fn func(*Node)) {
	var walk func(n *Node)
	walk = func(n *Node) {
		fn(n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
}

// ExpandedDirs returns the absolute paths of expanded folders, root first.
func (t *Tree) ExpandedDirs() []string {
	var dirs []string
	t.Walk(func(n *Node) {
		if n.Kind == model.KindFolder && n.Expanded && n.loaded {
			dirs = append(dirs, t.abs(n))
		}
	})
	return dirs
}

func (t *Tree) flatten() {
	rows := []*Node{t.Root}
	var add func(n *Node)
	add = func(n *Node) {
		if !n.Expanded {
			return
		}
		for _, c := range n.Children {
			rows = append(rows, c)
			add(c)
		}
	}
	add(t.Root)
	t.rows = rows
}

// Snapshot describes rows as the focus resolver sees them. The cursor row
// is focused. A file cursor also focuses the folders it sits in, except the
// root, so hovering one of them can pick the folder. A folder cursor focuses
// only itself. Hover marks the row under the pointer. Pass -1 for no cursor
// or no hover.
func Snapshot(rows []*Node, cursor, hover int) []model.TreeNode {
	focused := make(map[*Node]bool)
	if cursor >= 0 && cursor < len(rows) {
		cur := rows[cursor]
		focused[cur] = true
		if cur.Kind == model.KindFile {
			for n := cur.Parent; n != nil && !n.IsRoot(); n = n.Parent {
				focused[n] = true
			}
		}
	}

	out := make([]model.TreeNode, len(rows))
	for i, n := range rows {
		out[i] = model.TreeNode{
			Kind:      n.Kind,
			Path:      n.Path,
			IsFocused: focused[n],
			IsHovered: i == hover,
		}
	}
	return out
}
