package focus

import (
	"context"
	"sync"

	"copypath/internal/copier"
	"copypath/internal/logging"
	"copypath/internal/model"

	"github.com/rs/zerolog"
)

// MsgNothingFocused is shown when the shortcut finds no target.
const MsgNothingFocused = "Nothing focused to copy path from"

// HostState is the host UI as seen at the moment a trigger fires.
// Nodes is only called once the gate has passed.
type HostState interface {
	PointerOverTree() bool
	Renaming() bool
	Selection() string
	Nodes() []model.TreeNode
}

// ActiveFileProvider supplies the "currently open" file, if any.
type ActiveFileProvider interface {
	ActiveFile() (model.TreeNode, bool)
}

// PathCopier is the part of copier.Copier the dispatcher drives.
type PathCopier interface {
	CopyAbsolutePath(ctx context.Context, item model.TreeNode) model.CopyResult
	CopyRootPath(ctx context.Context) model.CopyResult
	CopyText(ctx context.Context, text string) model.CopyResult
	Notifier() copier.Notifier
}

// Dispatcher routes triggers: explicit targets go straight to the copier,
// ambiguous ones through the gate and the resolver first.
type Dispatcher struct {
	copier PathCopier
	active ActiveFileProvider
	logger zerolog.Logger
}

// NewDispatcher creates a Dispatcher. active may be nil.
func NewDispatcher(c PathCopier, active ActiveFileProvider) *Dispatcher {
	return &Dispatcher{
		copier: c,
		active: active,
		logger: logging.GetLogger("focus"),
	}
}

// Explicit copies a target supplied by the trigger itself (a menu click).
func (d *Dispatcher) Explicit(ctx context.Context, node model.TreeNode) model.CopyResult {
	return d.copier.CopyAbsolutePath(ctx, node)
}

// Root copies the root directory.
func (d *Dispatcher) Root(ctx context.Context) model.CopyResult {
	return d.copier.CopyRootPath(ctx)
}

// ActiveFile copies the currently open file.
func (d *Dispatcher) ActiveFile(ctx context.Context) model.CopyResult {
	if node, ok := d.activeFile(); ok {
		return d.copier.CopyAbsolutePath(ctx, node)
	}
	d.copier.Notifier().Notify(copier.MsgNoActiveFile)
	return copier.Fail(copier.NewError(copier.ErrNoTarget, "no active file"))
}

// Shortcut handles the keyboard command, which carries no target.
//
// When the gate is closed no resolution happens: an active text selection
// is copied instead, and with no selection the result is skipped (neither
// succeeded nor failed).
func (d *Dispatcher) Shortcut(ctx context.Context, state HostState) model.CopyResult {
	gate := Gate{PointerOverTree: state.PointerOverTree(), Renaming: state.Renaming()}
	if !gate.Allows() {
		if sel := state.Selection(); sel != "" {
			return d.copier.CopyText(ctx, sel)
		}
		d.logger.Debug().
			Bool("pointerOverTree", gate.PointerOverTree).
			Bool("renaming", gate.Renaming).
			Msg("shortcut ignored outside the tree")
		return model.CopyResult{}
	}

	if node, ok := ResolveFocusedItem(d.nodes(state)); ok {
		return d.copier.CopyAbsolutePath(ctx, node)
	}
	if node, ok := d.activeFile(); ok {
		d.logger.Debug().Str("path", node.Path).Msg("nothing focused, using active file")
		return d.copier.CopyAbsolutePath(ctx, node)
	}

	d.copier.Notifier().Notify(MsgNothingFocused)
	return copier.Fail(copier.NewError(copier.ErrNoTarget, "no focused item and no active file"))
}

// nodes reads the tree from the host. A host that panics while listing is
// treated as having nothing focused.
func (d *Dispatcher) nodes(state HostState) (nodes []model.TreeNode) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Msg("host failed to list tree nodes")
			nodes = nil
		}
	}()
	return state.Nodes()
}

func (d *Dispatcher) activeFile() (model.TreeNode, bool) {
	if d.active == nil {
		return model.TreeNode{}, false
	}
	return d.active.ActiveFile()
}

// Snapshot is a HostState captured up front, as the HTTP host receives it.
type Snapshot struct {
	Pointer   bool             `json:"pointerOverTree"`
	Rename    bool             `json:"renaming"`
	Selected  string           `json:"selection,omitempty"`
	TreeNodes []model.TreeNode `json:"nodes"`
}

func (s Snapshot) PointerOverTree() bool { return s.Pointer }
func (s Snapshot) Renaming() bool { return s.Rename }
func (s Snapshot) Selection() string { return s.Selected }
func (s Snapshot) Nodes() []model.TreeNode { return s.TreeNodes }

// ActiveTracker remembers the file the user last opened. It is safe to
// share between the UI and copies running in the background.
type ActiveTracker struct {
	mu   sync.RWMutex
	node model.TreeNode
	ok   bool
}

// Set records node as the active file.
func (a *ActiveTracker) Set(node model.TreeNode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.node, a.ok = node, true
}

// Clear forgets the active file.
func (a *ActiveTracker) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.node, a.ok = model.TreeNode{}, false
}

func (a *ActiveTracker) ActiveFile() (model.TreeNode, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.node, a.ok
}
