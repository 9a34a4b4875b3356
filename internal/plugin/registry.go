package plugin

import (
	"context"
	"fmt"

	"copypath/internal/focus"
	"copypath/internal/model"
)

// Registry is an in-process Host. The TUI and the web server each own one.
type Registry struct {
	commands []Command
	menu     []MenuItem
	plugins  []Plugin

	notify       func(string)
	onRootChange func(string)
}

// NewRegistry creates a Registry. notify and onRootChange may be nil.
func NewRegistry(notify func(string), onRootChange func(string)) *Registry {
	return &Registry{notify: notify, onRootChange: onRootChange}
}

func (r *Registry) AddCommand(cmd Command) { r.commands = append(r.commands, cmd) }

func (r *Registry) AddMenuItem(item MenuItem) { r.menu = append(r.menu, item) }

func (r *Registry) Notify(message string) {
	if r.notify != nil {
		r.notify(message)
	}
}

func (r *Registry) RootChanged(root string) {
	if r.onRootChange != nil {
		r.onRootChange(root)
	}
}

// Load calls OnLoad and keeps the plugin for Unload.
func (r *Registry) Load(p Plugin) error {
	if err := p.OnLoad(r); err != nil {
		return fmt.Errorf("loading plugin %s: %w", p.ID(), err)
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// Unload unloads plugins in reverse order and drops their registrations.
func (r *Registry) Unload() {
	for i := len(r.plugins) - 1; i >= 0; i-- {
		r.plugins[i].OnUnload()
	}
	r.plugins = nil
	r.commands = nil
	r.menu = nil
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []Command { return r.commands }

// Command looks a command up by ID.
func (r *Registry) Command(id string) (Command, bool) {
	for _, c := range r.commands {
		if c.ID == id {
			return c, true
		}
	}
	return Command{}, false
}

// CommandForKey looks a command up by its key binding.
func (r *Registry) CommandForKey(key string) (Command, bool) {
	for _, c := range r.commands {
		if c.Key != "" && c.Key == key {
			return c, true
		}
	}
	return Command{}, false
}

// Run executes a command by ID.
func (r *Registry) Run(ctx context.Context, id string, state focus.HostState) (model.CopyResult, error) {
	cmd, ok := r.Command(id)
	if !ok {
		return model.CopyResult{}, fmt.Errorf("unknown command %q", id)
	}
	return cmd.Callback(ctx, state), nil
}

// MenuFor returns the menu items that apply to node.
func (r *Registry) MenuFor(node model.TreeNode) []MenuItem {
	var items []MenuItem
	for _, m := range r.menu {
		if m.Applies == nil || m.Applies(node) {
			items = append(items, m)
		}
	}
	return items
}
