package focus

import (
	"context"
	"errors"
	"testing"

	"copypath/internal/clipboard"
	"copypath/internal/copier"
	"copypath/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRoot string

func (r fixedRoot) RootPath() (string, bool) { return string(r), r != "" }

// countingState records how often the tree was queried.
type countingState struct {
	Snapshot
	nodeCalls int
}

func (s *countingState) Nodes() []model.TreeNode {
	s.nodeCalls++
	return s.Snapshot.Nodes()
}

type activeFile struct {
	node model.TreeNode
	ok   bool
}

func (a activeFile) ActiveFile() (model.TreeNode, bool) { return a.node, a.ok }

type recordedNotes []string

func (n *recordedNotes) Notify(msg string) { *n = append(*n, msg) }

func newDispatcher(active ActiveFileProvider) (*Dispatcher, *clipboard.Recorder, *recordedNotes) {
	rec := &clipboard.Recorder{}
	notes := &recordedNotes{}
	c := copier.New(fixedRoot("/vault"), rec, notes)
	return NewDispatcher(c, active), rec, notes
}

func TestShortcutResolvesFocusedItem(t *testing.T) {
	d, rec, _ := newDispatcher(nil)
	state := &countingState{Snapshot: Snapshot{
		Pointer: true,
		TreeNodes: []model.TreeNode{
			folder("notes", true, false),
			file("notes/a.md", true, true),
		},
	}}

	res := d.Shortcut(context.Background(), state)

	require.True(t, res.OK())
	assert.Equal(t, "/vault/notes/a.md", res.Path)
	assert.Equal(t, []string{"/vault/notes/a.md"}, rec.Writes())
	assert.Equal(t, 1, state.nodeCalls)
}

func TestShortcutGateClosed(t *testing.T) {
	tests := []struct {
		name      string
		snapshot  Snapshot
		wantText  string
		wantSkip  bool
		wantWrite []string
	}{
		{
			name:      "pointer outside tree with selection copies the selection",
			snapshot:  Snapshot{Pointer: false, Selected: "some text"},
			wantText:  "some text",
			wantWrite: []string{"some text"},
		},
		{
			name:     "pointer outside tree without selection is a no-op",
			snapshot: Snapshot{Pointer: false},
			wantSkip: true,
		},
		{
			name:      "renaming copies the name being edited",
			snapshot:  Snapshot{Pointer: true, Rename: true, Selected: "new-name.md"},
			wantText:  "new-name.md",
			wantWrite: []string{"new-name.md"},
		},
		{
			name:     "renaming without text is a no-op",
			snapshot: Snapshot{Pointer: true, Rename: true},
			wantSkip: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, rec, _ := newDispatcher(activeFile{node: file("open.md", false, false), ok: true})
			tt.snapshot.TreeNodes = []model.TreeNode{file("a.md", true, true)}
			state := &countingState{Snapshot: tt.snapshot}

			res := d.Shortcut(context.Background(), state)

			assert.Equal(t, 0, state.nodeCalls, "tree must not be queried while gated")
			assert.Equal(t, tt.wantSkip, res.Skipped())
			assert.Equal(t, tt.wantText, res.Text)
			assert.Empty(t, res.Path)
			assert.Equal(t, tt.wantWrite, rec.Writes())
		})
	}
}

func TestShortcutFallsBackToActiveFile(t *testing.T) {
	d, rec, _ := newDispatcher(activeFile{node: file("daily/today.md", false, false), ok: true})
	state := Snapshot{Pointer: true, TreeNodes: []model.TreeNode{file("a.md", false, true)}}

	res := d.Shortcut(context.Background(), state)

	require.True(t, res.OK())
	assert.Equal(t, "/vault/daily/today.md", res.Path)
	assert.Equal(t, res.Path, rec.Last())
}

func TestShortcutNoTarget(t *testing.T) {
	d, rec, notes := newDispatcher(activeFile{})

	res := d.Shortcut(context.Background(), Snapshot{Pointer: true})

	assert.Equal(t, model.ReasonNoTarget, res.Reason)
	assert.True(t, errors.Is(res.Err, copier.NewError(copier.ErrNoTarget, "")))
	assert.Empty(t, rec.Writes())
	assert.Equal(t, []string{MsgNothingFocused}, []string(*notes))
}

// panickingState fails while listing the tree.
type panickingState struct{ Snapshot }

func (panickingState) Nodes() []model.TreeNode { panic("tree gone") }

func TestShortcutHostPanicsListingNodes(t *testing.T) {
	t.Run("falls back to active file", func(t *testing.T) {
		d, rec, _ := newDispatcher(activeFile{node: file("daily/today.md", false, false), ok: true})

		var res model.CopyResult
		require.NotPanics(t, func() {
			res = d.Shortcut(context.Background(), panickingState{Snapshot{Pointer: true}})
		})
		assert.Equal(t, "/vault/daily/today.md", res.Path)
		assert.Equal(t, []string{res.Path}, rec.Writes())
	})

	t.Run("no active file", func(t *testing.T) {
		d, rec, notes := newDispatcher(nil)

		var res model.CopyResult
		require.NotPanics(t, func() {
			res = d.Shortcut(context.Background(), panickingState{Snapshot{Pointer: true}})
		})
		assert.Equal(t, model.ReasonNoTarget, res.Reason)
		assert.Empty(t, rec.Writes())
		assert.Equal(t, []string{MsgNothingFocused}, []string(*notes))
	})
}

func TestExplicitSkipsResolution(t *testing.T) {
	d, rec, _ := newDispatcher(nil)

	// The clicked node need not be focused or hovered.
	res := d.Explicit(context.Background(), folder("archive/2023", false, false))

	require.True(t, res.OK())
	assert.Equal(t, "/vault/archive/2023", res.Path)
	assert.Equal(t, res.Path, rec.Last())
}

func TestActiveFileCommand(t *testing.T) {
	t.Run("with active file", func(t *testing.T) {
		d, _, _ := newDispatcher(activeFile{node: file("a.md", false, false), ok: true})
		res := d.ActiveFile(context.Background())
		assert.Equal(t, "/vault/a.md", res.Path)
	})

	t.Run("without active file", func(t *testing.T) {
		d, rec, notes := newDispatcher(nil)
		res := d.ActiveFile(context.Background())
		assert.Equal(t, model.ReasonNoTarget, res.Reason)
		assert.Empty(t, rec.Writes())
		assert.Equal(t, []string{copier.MsgNoActiveFile}, []string(*notes))
	})
}

func TestRootCommand(t *testing.T) {
	d, rec, _ := newDispatcher(nil)
	res := d.Root(context.Background())
	assert.Equal(t, "/vault", res.Path)
	assert.Equal(t, "/vault", rec.Last())
}

func TestActiveTracker(t *testing.T) {
	var a ActiveTracker
	_, ok := a.ActiveFile()
	assert.False(t, ok)

	a.Set(file("a.md", false, false))
	node, ok := a.ActiveFile()
	assert.True(t, ok)
	assert.Equal(t, "a.md", node.Path)

	a.Clear()
	_, ok = a.ActiveFile()
	assert.False(t, ok)
}
