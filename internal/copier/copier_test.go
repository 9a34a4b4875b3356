package copier

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"copypath/internal/clipboard"
	"copypath/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRoot returns a fixed answer without touching the filesystem.
type stubRoot struct {
	path string
	ok   bool
}

func (s stubRoot) RootPath() (string, bool) { return s.path, s.ok }

type panicSink struct{}

func (panicSink) WriteText(context.Context, string) error { panic("boom") }

type notes []string

func (n *notes) Notify(msg string) { *n = append(*n, msg) }

func TestCopyAbsolutePath(t *testing.T) {
	tests := []struct {
		name string
		root string
		rel  string
		want string
	}{
		{"simple", "/vault", "notes/a.md", "/vault/notes/a.md"},
		{"trailing separator on root", "/vault/", "notes/a.md", "/vault/notes/a.md"},
		{"leading separator on item", "/vault", "/notes/a.md", "/vault/notes/a.md"},
		{"filesystem root", "/", "a.md", "/a.md"},
		{"folder", "/vault", "notes", "/vault/notes"},
		{"empty item is the root", "/vault/", "", "/vault"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &clipboard.Recorder{}
			var n notes
			c := New(stubRoot{path: tt.root, ok: true}, rec, &n)

			res := c.CopyAbsolutePath(context.Background(), model.TreeNode{Kind: model.KindFile, Path: tt.rel})

			require.True(t, res.OK(), "unexpected failure: %v", res.Err)
			assert.Equal(t, filepath.FromSlash(tt.want), res.Path)
			assert.Equal(t, []string{res.Path}, rec.Writes())
			assert.Equal(t, []string{"Copied absolute path: " + res.Path}, []string(n))
		})
	}
}

func TestCopyAbsolutePathUnsupportedRoot(t *testing.T) {
	rec := &clipboard.Recorder{}
	var n notes
	c := New(stubRoot{ok: false}, rec, &n)

	res := c.CopyAbsolutePath(context.Background(), model.TreeNode{Path: "notes/a.md"})

	assert.False(t, res.OK())
	assert.Equal(t, model.ReasonUnsupportedRoot, res.Reason)
	assert.True(t, IsErrorCode(res.Err, ErrUnsupportedRoot))
	assert.Empty(t, rec.Writes(), "no clipboard write may happen without a root")
	assert.Equal(t, []string{MsgUnsupportedRoot}, []string(n))
}

func TestCopyAbsolutePathClipboardError(t *testing.T) {
	denied := errors.New("permission denied")
	rec := &clipboard.Recorder{Err: denied}
	var n notes
	c := New(stubRoot{path: "/vault", ok: true}, rec, &n)

	res := c.CopyAbsolutePath(context.Background(), model.TreeNode{Path: "a.md"})

	assert.False(t, res.OK())
	assert.Equal(t, model.ReasonClipboardError, res.Reason)
	assert.ErrorIs(t, res.Err, denied)
	assert.ErrorIs(t, res.Err, NewError(ErrClipboard, ""))
	assert.Empty(t, res.Path)
	assert.Equal(t, []string{MsgCopyFailed}, []string(n))
}

func TestCopyAbsolutePathSinkPanics(t *testing.T) {
	c := New(stubRoot{path: "/vault", ok: true}, panicSink{}, nil)

	var res model.CopyResult
	assert.NotPanics(t, func() {
		res = c.CopyAbsolutePath(context.Background(), model.TreeNode{Path: "a.md"})
	})
	assert.Equal(t, model.ReasonClipboardError, res.Reason)
	assert.ErrorContains(t, res.Err, "panicked")
}

func TestCopyAbsolutePathNoSink(t *testing.T) {
	c := New(stubRoot{path: "/vault", ok: true}, nil, nil)
	res := c.CopyAbsolutePath(context.Background(), model.TreeNode{Path: "a.md"})
	assert.Equal(t, model.ReasonClipboardError, res.Reason)
}

func TestCopyAbsolutePathIsNotCached(t *testing.T) {
	rec := &clipboard.Recorder{}
	c := New(stubRoot{path: "/vault", ok: true}, rec, nil)
	item := model.TreeNode{Kind: model.KindFile, Path: "notes/a.md"}

	first := c.CopyAbsolutePath(context.Background(), item)
	second := c.CopyAbsolutePath(context.Background(), item)

	assert.Equal(t, first.Path, second.Path)
	assert.Len(t, rec.Writes(), 2)
}

func TestCopyPathLogsOperation(t *testing.T) {
	var buf bytes.Buffer
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	c := New(stubRoot{path: "/vault", ok: true}, &clipboard.Recorder{}, nil)
	res := c.CopyAbsolutePath(context.Background(), model.TreeNode{Path: "a.md"})
	require.True(t, res.OK())

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, `"operation":"copy path"`))
	assert.Contains(t, out, `"component":"copier"`)
	assert.Contains(t, out, "Operation completed")
}

func TestCopyRootPath(t *testing.T) {
	rec := &clipboard.Recorder{}
	c := New(stubRoot{path: "/vault/", ok: true}, rec, nil)

	res := c.CopyRootPath(context.Background())

	require.True(t, res.OK())
	assert.Equal(t, filepath.FromSlash("/vault"), res.Path)
	assert.Equal(t, res.Path, rec.Last())
}

func TestCopyRootPathUnsupported(t *testing.T) {
	rec := &clipboard.Recorder{}
	c := New(LocalRoot("sftp://server/vault"), rec, nil)

	res := c.CopyRootPath(context.Background())

	assert.Equal(t, model.ReasonUnsupportedRoot, res.Reason)
	assert.Empty(t, rec.Writes())
}

func TestCopyText(t *testing.T) {
	rec := &clipboard.Recorder{}
	var n notes
	c := New(stubRoot{}, rec, &n)

	res := c.CopyText(context.Background(), "draft name")

	require.True(t, res.OK())
	assert.Equal(t, "draft name", res.Text)
	assert.Empty(t, res.Path)
	assert.Equal(t, "draft name", rec.Last())
	assert.Equal(t, []string{MsgCopiedText}, []string(n))
}

func TestRootProviderIsQueriedEachTime(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	roots := NewRoots([]string{first, second})
	rec := &clipboard.Recorder{}
	c := New(roots, rec, nil)

	a := c.CopyRootPath(context.Background())
	roots.Next()
	b := c.CopyRootPath(context.Background())

	assert.Equal(t, first, a.Path)
	assert.Equal(t, second, b.Path)
}

func TestLocalRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	tests := []struct {
		name string
		root LocalRoot
		ok   bool
	}{
		{"directory", LocalRoot(dir), true},
		{"empty", LocalRoot(""), false},
		{"url", LocalRoot("s3://bucket/vault"), false},
		{"missing", LocalRoot(filepath.Join(dir, "missing")), false},
		{"file", LocalRoot(file), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, ok := tt.root.RootPath()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, string(tt.root), path)
			} else {
				assert.Empty(t, path)
			}
		})
	}
}

func TestRoots(t *testing.T) {
	roots := NewRoots([]string{"/a", "sftp://b", "/c"})

	assert.Equal(t, "/a", roots.Current())
	assert.Equal(t, "sftp://b", roots.Next())
	_, ok := roots.RootPath()
	assert.False(t, ok)
	assert.Equal(t, "/c", roots.Next())
	assert.Equal(t, "/a", roots.Next())

	assert.True(t, roots.Select("/c"))
	assert.Equal(t, "/c", roots.Current())
	assert.False(t, roots.Select("/nope"))
	assert.Equal(t, []string{"/a", "sftp://b", "/c"}, roots.All())

	empty := NewRoots(nil)
	assert.Equal(t, "", empty.Current())
	assert.Equal(t, "", empty.Next())
}

func TestErrorCodes(t *testing.T) {
	err := WrapError(errors.New("inner"), ErrClipboard, "write")
	assert.Equal(t, "[CLIPBOARD] write: inner", err.Error())
	assert.Equal(t, ErrClipboard, CodeOf(err))
	assert.Equal(t, ErrUnknown, CodeOf(errors.New("plain")))
	assert.Nil(t, WrapError(nil, ErrClipboard, "x"))
	assert.Equal(t, "[NO_TARGET] nothing", NewError(ErrNoTarget, "nothing").Error())
	assert.Equal(t, model.ReasonNoTarget, ErrNoTarget.Reason())
	assert.Equal(t, model.ReasonNone, ErrUnknown.Reason())
}
