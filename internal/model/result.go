package model

// Reason classifies why a copy did not complete.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonNoTarget        Reason = "no-target"
	ReasonUnsupportedRoot Reason = "unsupported-root"
	ReasonClipboardError  Reason = "clipboard-error"
)

// CopyState is the terminal state of a single copy operation.
type CopyState int

const (
	StatePending CopyState = iota
	StateSucceeded
	StateFailed
)

func (s CopyState) String() string {
	switch s {
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "pending"
	}
}

// CopyResult is the outcome of one user-triggered copy.
// Text is set when a plain text selection was copied instead of a path.
type CopyResult struct {
	State  CopyState `json:"-"`
	Path   string    `json:"path,omitempty"`
	Text   string    `json:"text,omitempty"`
	Reason Reason    `json:"reason,omitempty"`
	Err    error     `json:"-"`
}

// Succeeded builds a successful result for path.
func Succeeded(path string) CopyResult {
	return CopyResult{State: StateSucceeded, Path: path}
}

// Failed builds a failed result.
func Failed(reason Reason, err error) CopyResult {
	return CopyResult{State: StateFailed, Reason: reason, Err: err}
}

// OK reports whether the copy succeeded.
func (r CopyResult) OK() bool { return r.State == StateSucceeded }

// Skipped reports a no-op: nothing was resolved and nothing was copied.
func (r CopyResult) Skipped() bool { return r.State == StatePending }
