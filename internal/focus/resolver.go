// Package focus decides which tree node a trigger without an explicit
// target refers to, and routes every trigger to the copier.
package focus

import "copypath/internal/model"

// tiers lists the resolution rules in priority order. A file beats a
// folder (a file nested in a focused folder is the more specific target)
// and hover beats plain focus within the same kind.
var tiers = []func(model.TreeNode) bool{
	func(n model.TreeNode) bool { return n.IsFile() && n.IsFocused && n.IsHovered },
	func(n model.TreeNode) bool { return n.IsFolder() && n.IsFocused && n.IsHovered },
	func(n model.TreeNode) bool { return n.IsFile() && n.IsFocused },
	func(n model.TreeNode) bool { return n.IsFolder() && n.IsFocused },
}

// ResolveFocusedItem picks the node the user means. Within a tier the first
// node in display order wins. ok is false when nothing is focused; the
// caller applies its own fallback then.
func ResolveFocusedItem(nodes []model.TreeNode) (node model.TreeNode, ok bool) {
	for _, match := range tiers {
		for _, n := range nodes {
			if match(n) {
				return n, true
			}
		}
	}
	return model.TreeNode{}, false
}

// Gate holds the preconditions for running resolution at all.
type Gate struct {
	PointerOverTree bool
	Renaming        bool
}

// Allows reports whether resolution may run. Outside the tree, or while a
// name is being edited, the shortcut belongs to normal text copying.
func (g Gate) Allows() bool {
	return g.PointerOverTree && !g.Renaming
}
