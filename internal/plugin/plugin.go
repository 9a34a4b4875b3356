// Package plugin defines how features hook into a host UI: a plugin
// registers commands and context-menu items when it is loaded.
package plugin

import (
	"context"

	"copypath/internal/focus"
	"copypath/internal/model"
)

// Command is a palette/keyboard command. Key is an optional key binding.
type Command struct {
	ID       string
	Name     string
	Key      string
	Callback func(ctx context.Context, state focus.HostState) model.CopyResult
}

// MenuItem is a context-menu entry shown for nodes it applies to. Clicking
// it passes the clicked node along, so no focus resolution is needed.
type MenuItem struct {
	ID      string
	Title   string
	Icon    string
	Applies func(node model.TreeNode) bool
	OnClick func(ctx context.Context, node model.TreeNode) model.CopyResult
}

// Host is what a plugin can register with.
type Host interface {
	AddCommand(cmd Command)
	AddMenuItem(item MenuItem)
	Notify(message string)
	RootChanged(root string)
}

// Plugin has lifecycle hooks called by the host.
type Plugin interface {
	ID() string
	OnLoad(host Host) error
	OnUnload()
}
