// Package copier turns a tree node and a root directory into an absolute
// path and writes it to the clipboard.
package copier

import (
	"context"
	"fmt"
	"path/filepath"

	"copypath/internal/logging"
	"copypath/internal/model"

	"github.com/rs/zerolog"
)

// ClipboardSink receives the text to place on the clipboard.
type ClipboardSink interface {
	WriteText(ctx context.Context, text string) error
}

// Notifier shows a short message to the user. Fire and forget.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

// Messages shown to the user.
const (
	MsgCopied          = "Copied absolute path: %s"
	MsgCopiedText      = "Copied selection to clipboard"
	MsgCopyFailed      = "Failed to copy absolute path to clipboard"
	MsgUnsupportedRoot = "Root is not a local folder; cannot build an absolute path"
	MsgNoActiveFile    = "No active file to copy path from"
)

// Copier computes absolute paths and writes them to a clipboard sink.
// It keeps no state between calls.
type Copier struct {
	roots    RootProvider
	sink     ClipboardSink
	notifier Notifier
	logger   zerolog.Logger
}

// New creates a Copier. notifier may be nil.
func New(roots RootProvider, sink ClipboardSink, notifier Notifier) *Copier {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Copier{
		roots:    roots,
		sink:     sink,
		notifier: notifier,
		logger:   logging.GetLogger("copier"),
	}
}

// Notifier returns the notifier results are reported to.
func (c *Copier) Notifier() Notifier { return c.notifier }

// CopyAbsolutePath copies root joined with item.Path.
func (c *Copier) CopyAbsolutePath(ctx context.Context, item model.TreeNode) model.CopyResult {
	return c.copyPath(ctx, item.Path)
}

// CopyRootPath copies the root directory itself.
func (c *Copier) CopyRootPath(ctx context.Context) model.CopyResult {
	return c.copyPath(ctx, "")
}

func (c *Copier) copyPath(ctx context.Context, rel string) model.CopyResult {
	defer logging.LogOperationStart(c.logger, "copy path")()

	root, ok := c.roots.RootPath()
	if !ok {
		c.logger.Info().Msg("root is not a local directory, nothing copied")
		c.notifier.Notify(MsgUnsupportedRoot)
		return Fail(NewError(ErrUnsupportedRoot, "root is not a local directory"))
	}

	absolutePath := JoinPath(root, rel)
	if err := c.write(ctx, absolutePath); err != nil {
		c.logger.Error().Err(err).Msg("Failed to copy absolute path")
		c.notifier.Notify(MsgCopyFailed)
		return Fail(WrapError(err, ErrClipboard, "clipboard write failed"))
	}

	c.logger.Debug().Str("path", absolutePath).Msg("Copied absolute path")
	c.notifier.Notify(fmt.Sprintf(MsgCopied, absolutePath))
	return model.Succeeded(absolutePath)
}

// CopyText writes an arbitrary text selection. No root is involved.
func (c *Copier) CopyText(ctx context.Context, text string) model.CopyResult {
	if err := c.write(ctx, text); err != nil {
		c.logger.Error().Err(err).Msg("Failed to copy selection")
		c.notifier.Notify("Failed to copy selection to clipboard")
		return Fail(WrapError(err, ErrClipboard, "clipboard write failed"))
	}
	c.notifier.Notify(MsgCopiedText)
	return model.CopyResult{State: model.StateSucceeded, Text: text}
}

// write calls the sink and turns a panic into an error so a misbehaving
// sink never takes the host down.
func (c *Copier) write(ctx context.Context, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("clipboard sink panicked: %v", r)
		}
	}()
	if c.sink == nil {
		return fmt.Errorf("no clipboard sink configured")
	}
	return c.sink.WriteText(ctx, text)
}

// JoinPath joins a slash-separated relative path onto root using the
// platform separator. An empty rel yields the (cleaned) root.
func JoinPath(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
