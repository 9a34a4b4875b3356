package model

// Version is the application version, overridden at build time.
var Version = "0.3.0"

// Kind tells files and folders apart. It is decided once, when the
// snapshot is taken.
type Kind int

const (
	KindFile Kind = iota
	KindFolder
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	default:
		return "unknown"
	}
}

// MarshalText lets Kind travel as "file" / "folder" in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts "file", "folder" and the "dir"/"directory" aliases.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "file":
		*k = KindFile
	case "folder", "dir", "directory":
		*k = KindFolder
	default:
		return &UnknownKindError{Value: string(b)}
	}
	return nil
}

// UnknownKindError is returned when a snapshot carries an unrecognised kind.
type UnknownKindError struct {
	Value string
}

func (e *UnknownKindError) Error() string {
	return "unknown node kind: " + e.Value
}

// TreeNode is one displayed entry of the file browser at the moment a
// trigger fires. It is a read-only snapshot owned by the host UI.
type TreeNode struct {
	Kind      Kind   `json:"kind"`
	Path      string `json:"path"` // Slash separated, relative to the root ("" is the root itself)
	IsFocused bool   `json:"isFocused"`
	IsHovered bool   `json:"isHovered"`
}

// IsFile reports whether the node is a file.
func (n TreeNode) IsFile() bool { return n.Kind == KindFile }

// IsFolder reports whether the node is a folder.
func (n TreeNode) IsFolder() bool { return n.Kind == KindFolder }
