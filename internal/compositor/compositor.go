// Package compositor abstracts the host's retained-mode visual tree.
//
// A Compositor allocates visuals; each webview session gets its own child
// visual, sized to the widget's on-screen rectangle. The process-wide
// compositor resource is wrapped in a reference-counted Shared handle
// instead of living in a package-level variable, so ownership is explicit
// and tests can run hosts side by side.
package compositor

import (
	"errors"
	"sync"
)

var (
	// ErrCompositorClosed is returned when allocating from a closed compositor
	ErrCompositorClosed = errors.New("compositor is closed")
	// ErrTargetUnavailable is returned when a window target cannot be created
	ErrTargetUnavailable = errors.New("composition target unavailable")
)

// Visual is one node in the compositor tree. It can be resized and hidden
// independently of its siblings.
type Visual interface {
	SetSize(width, height float64) error
	Size() (width, height float64)
	SetVisible(visible bool)

	// FillParent makes the visual track its parent's size instead of an
	// explicit one.
	FillParent()
}

// ContainerVisual is a visual that can hold children.
type ContainerVisual interface {
	Visual

	// InsertAtTop places child above every existing child.
	InsertAtTop(child Visual) error
}

// WindowTarget roots a visual tree inside a real on-screen window. Only
// used for the debug window; production sessions render off-screen.
type WindowTarget interface {
	SetRoot(root ContainerVisual) error
	Destroy() error
}

// Compositor allocates visuals and window targets. Implementations are
// bound to the platform threading rules of the underlying composition API.
type Compositor interface {
	CreateContainerVisual() (ContainerVisual, error)

	// CreateSpriteVisual allocates a leaf visual the engine can render
	// into.
	CreateSpriteVisual() (Visual, error)

	CreateWindowTarget(hwnd uintptr) (WindowTarget, error)
	Close() error
}

// Shared is a reference-counted handle to the per-process compositor
// resource. The host acquires one reference per live session; the wrapped
// compositor closes when the last reference is released.
type Shared struct {
	mu   sync.Mutex
	c    Compositor
	refs int
}

// NewShared wraps c with an initial reference count of zero. The first
// Acquire makes the handle live.
func NewShared(c Compositor) *Shared {
	return &Shared{c: c}
}

// Acquire takes a reference and returns the compositor, or nil if the
// handle was already fully released.
func (s *Shared) Acquire() Compositor {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.c == nil {
		return nil
	}
	s.refs++
	return s.c
}

// Release drops one reference. The compositor is closed when the count
// reaches zero; the returned error is that close's result.
func (s *Shared) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.c == nil || s.refs == 0 {
		return nil
	}
	s.refs--
	if s.refs > 0 {
		return nil
	}

	c := s.c
	s.c = nil
	return c.Close()
}

// Refs returns the current reference count.
func (s *Shared) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

// Closed reports whether the wrapped compositor has been released.
func (s *Shared) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c == nil
}
