package clipboard

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSink struct {
	err   error
	calls int
}

func (f *failingSink) WriteText(context.Context, string) error {
	f.calls++
	return f.err
}

func TestOSC52WritesSequence(t *testing.T) {
	var buf bytes.Buffer
	sink := OSC52{Out: &buf}

	require.NoError(t, sink.WriteText(context.Background(), "/vault/a.md"))

	encoded := base64.StdEncoding.EncodeToString([]byte("/vault/a.md"))
	assert.Contains(t, buf.String(), "\x1b]52;c;"+encoded)
}

func TestOSC52Tmux(t *testing.T) {
	var buf bytes.Buffer
	sink := OSC52{Out: &buf, Tmux: true}

	require.NoError(t, sink.WriteText(context.Background(), "x"))
	assert.Contains(t, buf.String(), "\x1bPtmux;")
}

func TestOSC52WithoutTerminal(t *testing.T) {
	err := OSC52{}.WriteText(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTerminalSerialisesWrites(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "tty"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	term := NewTerminal(f)
	sink := OSC52{Out: term}
	frame := strings.Repeat("row\n", 256)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, sink.WriteText(context.Background(), fmt.Sprintf("/vault/%02d.md", i)))
		}(i)
		go func() {
			defer wg.Done()
			_, err := term.WriteString(frame)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	out, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		encoded := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("/vault/%02d.md", i)))
		assert.Contains(t, string(out), "\x1b]52;c;"+encoded+"\a")
	}
	assert.Equal(t, 20, strings.Count(string(out), frame))

	// A regular file is not a terminal.
	s, err := New("auto", term)
	require.NoError(t, err)
	assert.IsType(t, System{}, s)
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	t.Run("first success wins", func(t *testing.T) {
		first := &Recorder{}
		second := &Recorder{}
		require.NoError(t, Chain{first, second}.WriteText(ctx, "a"))
		assert.Equal(t, []string{"a"}, first.Writes())
		assert.Empty(t, second.Writes())
	})

	t.Run("falls through failures", func(t *testing.T) {
		broken := &failingSink{err: errors.New("no xclip")}
		rec := &Recorder{}
		require.NoError(t, Chain{broken, rec}.WriteText(ctx, "a"))
		assert.Equal(t, 1, broken.calls)
		assert.Equal(t, "a", rec.Last())
	})

	t.Run("joins errors when all fail", func(t *testing.T) {
		errA := errors.New("a")
		errB := errors.New("b")
		err := Chain{&failingSink{err: errA}, &failingSink{err: errB}}.WriteText(ctx, "x")
		assert.ErrorIs(t, err, errA)
		assert.ErrorIs(t, err, errB)
	})

	t.Run("empty chain", func(t *testing.T) {
		assert.ErrorIs(t, Chain{}.WriteText(ctx, "x"), ErrUnavailable)
	})

	t.Run("stops when context is done", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		second := &failingSink{}
		err := Chain{&failingSink{err: context.Canceled}, second}.WriteText(cctx, "x")
		assert.Error(t, err)
		assert.Equal(t, 0, second.calls)
	})
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	assert.Equal(t, "", rec.Last())

	require.NoError(t, rec.WriteText(context.Background(), "one"))
	require.NoError(t, rec.WriteText(context.Background(), "two"))
	assert.Equal(t, []string{"one", "two"}, rec.Writes())
	assert.Equal(t, "two", rec.Last())

	rec.Err = errors.New("denied")
	assert.Error(t, rec.WriteText(context.Background(), "three"))
	assert.Len(t, rec.Writes(), 2)
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer

	sink, err := New("system", &buf)
	require.NoError(t, err)
	assert.IsType(t, System{}, sink)

	sink, err = New("osc52", &buf)
	require.NoError(t, err)
	assert.IsType(t, OSC52{}, sink)

	// a bytes.Buffer is not a terminal, so auto falls back to the system clipboard
	sink, err = New("auto", &buf)
	require.NoError(t, err)
	assert.IsType(t, System{}, sink)

	_, err = New("carrier-pigeon", &buf)
	assert.Error(t, err)
}
