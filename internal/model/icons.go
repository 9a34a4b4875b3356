package model

// Centralized icons for the tree view
// Using simple single-width characters for consistent terminal rendering
const (
	IconFolderOpen   = "▾" // Expanded folder
	IconFolderClosed = "▸" // Collapsed folder
	IconFile         = " " // Space (files get no marker to reduce noise)
	IconHover        = "◆" // Row under the mouse pointer
	IconRoot         = "⌂" // Root directory row
	IconCopied       = "✓" // Successful copy toast
	IconFailed       = "✗" // Failed copy toast
)
