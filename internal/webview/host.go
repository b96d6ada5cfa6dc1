package webview

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lislabs/flutter-webview-windows/internal/compositor"
	"github.com/lislabs/flutter-webview-windows/internal/engine"
	"github.com/lislabs/flutter-webview-windows/internal/logger"
)

var (
	// ErrHostClosed is returned when creating sessions on a closed host
	ErrHostClosed = errors.New("webview host is closed")
	// ErrUnknownSession is returned for session ids the host never issued
	// or already disposed
	ErrUnknownSession = errors.New("unknown webview session")
)

// HostOptions wires a Host to its platform backends. NewEnvironment and
// NewCompositor are called lazily, on first session creation; the debug
// window hooks are optional and only used when a session is created with
// the debug window enabled.
type HostOptions struct {
	// Hwnd is the application window owning every engine controller.
	Hwnd uintptr

	NewEnvironment func() (engine.Environment, error)
	NewCompositor  func() (compositor.Compositor, error)

	CreateDebugWindow func() (uintptr, error)
	DestroyWindow     func(uintptr) error
}

// Host creates and routes webview sessions. Each session gets its own
// child visual from a single shared compositor resource; the resource is
// reference-counted and released when the last session is disposed.
type Host struct {
	opts HostOptions

	mu       sync.RWMutex
	env      engine.Environment
	shared   *compositor.Shared
	sessions map[int64]*Webview
	nextID   int64
	closed   bool
}

// NewHost creates an empty host. No engine or compositor resource is
// allocated until the first CreateWebview call.
func NewHost(opts HostOptions) *Host {
	return &Host{
		opts:     opts,
		sessions: make(map[int64]*Webview),
	}
}

// CreateWebview creates a session and returns the opaque id used to route
// subsequent calls to it. On failure no partial session is left alive.
func (h *Host) CreateWebview(offscreenOnly bool) (int64, *Webview, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0, nil, ErrHostClosed
	}

	if err := h.ensureBackendsLocked(); err != nil {
		return 0, nil, err
	}

	comp := h.shared.Acquire()
	if comp == nil {
		return 0, nil, compositor.ErrCompositorClosed
	}

	hwnd := h.opts.Hwnd
	ownsWindow := false
	if !offscreenOnly && h.opts.CreateDebugWindow != nil {
		debugHwnd, err := h.opts.CreateDebugWindow()
		if err != nil {
			h.shared.Release()
			return 0, nil, fmt.Errorf("failed to create debug window: %w", err)
		}
		hwnd = debugHwnd
		ownsWindow = true
	}

	fail := func(err error) (int64, *Webview, error) {
		if ownsWindow && h.opts.DestroyWindow != nil {
			if derr := h.opts.DestroyWindow(hwnd); derr != nil {
				logger.Errorf("destroying debug window failed: %v", derr)
			}
		}
		h.shared.Release()
		return 0, nil, err
	}

	composition, err := h.env.CreateCompositionController(hwnd)
	if err != nil {
		return fail(fmt.Errorf("failed to create composition controller: %w", err))
	}

	wv, err := New(composition, comp, Options{
		Hwnd:          hwnd,
		OwnsWindow:    ownsWindow,
		OffscreenOnly: offscreenOnly,
		DestroyWindow: h.opts.DestroyWindow,
	})
	if err != nil {
		return fail(err)
	}

	h.nextID++
	id := h.nextID
	h.sessions[id] = wv

	logger.Debugf("webview session %d created", id)
	return id, wv, nil
}

// Get returns the session for id, or false if the id is unknown or already
// disposed.
func (h *Host) Get(id int64) (*Webview, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	wv, ok := h.sessions[id]
	return wv, ok
}

// Dispose tears down one session and releases its compositor reference.
func (h *Host) Dispose(id int64) error {
	h.mu.Lock()
	wv, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	shared := h.shared
	h.mu.Unlock()

	if !ok {
		return ErrUnknownSession
	}

	err := wv.Close()
	if shared != nil {
		if rerr := shared.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}

	logger.Debugf("webview session %d disposed", id)
	return err
}

// Sessions returns the ids of all live sessions.
func (h *Host) Sessions() []int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]int64, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Close disposes every session and shuts down the engine runtime.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true

	sessions := h.sessions
	h.sessions = make(map[int64]*Webview)
	shared := h.shared
	env := h.env
	h.mu.Unlock()

	var err error
	for id, wv := range sessions {
		if cerr := wv.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if shared != nil {
			if rerr := shared.Release(); rerr != nil && err == nil {
				err = rerr
			}
		}
		logger.Debugf("webview session %d disposed", id)
	}

	if env != nil {
		if eerr := env.Close(); eerr != nil && err == nil {
			err = eerr
		}
	}
	return err
}

func (h *Host) ensureBackendsLocked() error {
	if h.env == nil {
		env, err := h.opts.NewEnvironment()
		if err != nil {
			return fmt.Errorf("failed to acquire engine runtime: %w", err)
		}
		h.env = env
	}

	// The compositor resource dies with its last session; a later session
	// gets a fresh one.
	if h.shared == nil || h.shared.Closed() {
		comp, err := h.opts.NewCompositor()
		if err != nil {
			return fmt.Errorf("failed to create compositor: %w", err)
		}
		h.shared = compositor.NewShared(comp)
	}

	return nil
}
