package copier

import (
	"os"
	"sync"

	"copypath/internal/model"
)

// RootProvider supplies the root directory for a single operation.
// ok is false when the root is not a concrete local directory.
type RootProvider interface {
	RootPath() (path string, ok bool)
}

// LocalRoot is a fixed root path, checked against the filesystem on every call.
type LocalRoot string

func (r LocalRoot) RootPath() (string, bool) {
	return localDir(string(r))
}

func localDir(path string) (string, bool) {
	if path == "" || model.HasScheme(path) {
		return "", false
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return path, true
}

// Roots holds the configured roots and which one is active. Switching the
// active root affects the very next operation since nothing is cached.
type Roots struct {
	mu     sync.RWMutex
	paths  []string
	active int
}

// NewRoots returns a Roots with the first path active.
func NewRoots(paths []string) *Roots {
	return &Roots{paths: append([]string(nil), paths...)}
}

func (r *Roots) RootPath() (string, bool) {
	return localDir(r.Current())
}

// Current returns the active root as configured, supported or not.
func (r *Roots) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.paths) == 0 {
		return ""
	}
	return r.paths[r.active]
}

// Next makes the following root active, wrapping around, and returns it.
func (r *Roots) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.paths) == 0 {
		return ""
	}
	r.active = (r.active + 1) % len(r.paths)
	return r.paths[r.active]
}

// Select makes path the active root if it is configured.
func (r *Roots) Select(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.paths {
		if p == path {
			r.active = i
			return true
		}
	}
	return false
}

// All returns the configured roots in order.
func (r *Roots) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.paths...)
}
