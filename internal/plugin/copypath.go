package plugin

import (
	"context"
	"fmt"

	"copypath/internal/copier"
	"copypath/internal/focus"
	"copypath/internal/model"
)

// Command IDs registered by CopyPath.
const (
	CmdCopyFocused = "copy-absolute-path-focused"
	CmdCopyCurrent = "copy-absolute-path-current"
	CmdCopyRoot    = "copy-root-path"
	CmdSwitchRoot  = "switch-root"

	MenuCopyPath = "copy-absolute-path"
	MenuCopyRoot = "copy-root-path"
)

// CopyPath wires the copy-absolute-path triggers into a host.
type CopyPath struct {
	dispatcher *focus.Dispatcher
	roots      *copier.Roots
	host       Host
}

// NewCopyPath creates the plugin. roots may be nil when there is a single
// fixed root; the switch-root command is not registered then.
func NewCopyPath(d *focus.Dispatcher, roots *copier.Roots) *CopyPath {
	return &CopyPath{dispatcher: d, roots: roots}
}

func (p *CopyPath) ID() string { return "copy-absolute-path" }

func (p *CopyPath) OnLoad(host Host) error {
	if p.dispatcher == nil {
		return fmt.Errorf("copy-absolute-path: no dispatcher")
	}
	p.host = host

	host.AddMenuItem(MenuItem{
		ID:      MenuCopyPath,
		Title:   "Copy absolute path",
		Icon:    "⧉",
		Applies: func(n model.TreeNode) bool { return n.Path != "" },
		OnClick: p.dispatcher.Explicit,
	})
	host.AddMenuItem(MenuItem{
		ID:      MenuCopyRoot,
		Title:   "Copy root path",
		Icon:    model.IconRoot,
		Applies: func(n model.TreeNode) bool { return n.Path == "" },
		OnClick: func(ctx context.Context, _ model.TreeNode) model.CopyResult {
			return p.dispatcher.Root(ctx)
		},
	})

	host.AddCommand(Command{
		ID:   CmdCopyFocused,
		Name: "Copy absolute path of focused item",
		Key:  "y",
		Callback: func(ctx context.Context, state focus.HostState) model.CopyResult {
			return p.dispatcher.Shortcut(ctx, state)
		},
	})
	host.AddCommand(Command{
		ID:   CmdCopyCurrent,
		Name: "Copy absolute path of current file",
		Callback: func(ctx context.Context, _ focus.HostState) model.CopyResult {
			return p.dispatcher.ActiveFile(ctx)
		},
	})
	host.AddCommand(Command{
		ID:   CmdCopyRoot,
		Name: "Copy root path",
		Callback: func(ctx context.Context, _ focus.HostState) model.CopyResult {
			return p.dispatcher.Root(ctx)
		},
	})

	if p.roots != nil && len(p.roots.All()) > 1 {
		host.AddCommand(Command{
			ID:   CmdSwitchRoot,
			Name: "Switch root",
			Callback: func(context.Context, focus.HostState) model.CopyResult {
				root := p.roots.Next()
				p.host.Notify("Switched root to " + root)
				p.host.RootChanged(root)
				return model.CopyResult{}
			},
		})
	}
	return nil
}

func (p *CopyPath) OnUnload() {
	p.host = nil
}
