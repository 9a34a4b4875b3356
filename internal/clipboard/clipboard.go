// Package clipboard provides the sinks copypath writes text to.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/mattn/go-isatty"
)

// ErrUnavailable is returned when no clipboard mechanism can be used.
var ErrUnavailable = errors.New("clipboard unavailable")

// Sink accepts text for the system clipboard.
type Sink interface {
	WriteText(ctx context.Context, text string) error
}

// System writes through the platform clipboard utilities (pbcopy, xclip,
// wl-copy, the Windows API).
type System struct{}

func (System) WriteText(ctx context.Context, text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// WriteAll shells out on most platforms; don't let it outlive ctx.
	done := make(chan error, 1)
	go func() {
		done <- clipboard.WriteAll(text)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OSC52 asks the terminal emulator to set the clipboard. It works over SSH
// and inside tmux/screen, but there is no way to know whether the terminal
// honoured the request.
type OSC52 struct {
	Out    io.Writer
	Tmux   bool
	Screen bool
}

func (o OSC52) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if o.Out == nil {
		return ErrUnavailable
	}
	seq := osc52.New(text)
	if o.Tmux {
		seq = seq.Tmux()
	} else if o.Screen {
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(o.Out)
	return err
}

// Terminal is a terminal file whose writes are serialised. Share one between
// the UI renderer and an OSC52 sink so a sequence written from a background
// copy never lands in the middle of a frame.
type Terminal struct {
	*os.File
	mu sync.Mutex
}

// NewTerminal wraps f, usually os.Stdout.
func NewTerminal(f *os.File) *Terminal {
	return &Terminal{File: f}
}

func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.File.Write(p)
}

func (t *Terminal) WriteString(s string) (int, error) {
	return t.Write([]byte(s))
}

// Chain tries each sink in order and stops at the first success.
type Chain []Sink

func (c Chain) WriteText(ctx context.Context, text string) error {
	if len(c) == 0 {
		return ErrUnavailable
	}
	var errs []error
	for _, s := range c {
		err := s.WriteText(ctx, text)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every write in memory. It fails every write when Err is set.
type Recorder struct {
	mu     sync.Mutex
	writes []string
	Err    error
}

func (r *Recorder) WriteText(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.writes = append(r.writes, text)
	return nil
}

// Writes returns a copy of the recorded writes.
func (r *Recorder) Writes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.writes...)
}

// Last returns the most recent write, or "" if there is none.
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.writes) == 0 {
		return ""
	}
	return r.writes[len(r.writes)-1]
}

// New builds the sink for a configured backend. out is the terminal used
// for OSC 52 sequences.
func New(backend string, out io.Writer) (Sink, error) {
	osc := OSC52{
		Out:    out,
		Tmux:   os.Getenv("TMUX") != "",
		Screen: os.Getenv("STY") != "",
	}

	switch backend {
	case "system":
		return System{}, nil
	case "osc52":
		return osc, nil
	case "auto", "":
		if !isTerminal(out) {
			return System{}, nil
		}
		// Over SSH the local clipboard utilities write to the remote host.
		if os.Getenv("SSH_TTY") != "" || os.Getenv("SSH_CONNECTION") != "" {
			return Chain{osc, System{}}, nil
		}
		return Chain{System{}, osc}, nil
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q", backend)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
