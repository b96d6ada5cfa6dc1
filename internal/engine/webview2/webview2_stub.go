//go:build !windows

package webview2

import (
	"fmt"

	"github.com/lislabs/flutter-webview-windows/internal/compositor"
	"github.com/lislabs/flutter-webview-windows/internal/engine"
)

// Options configures runtime acquisition.
type Options struct {
	BrowserArguments string
	UserDataDir      string
	LibraryDir       string
}

// NewEnvironment reports the runtime as unavailable; the native backend
// only exists on windows.
func NewEnvironment(Options) (engine.Environment, error) {
	return nil, engine.ErrRuntimeUnavailable
}

// NewCompositor reports the composition API as unavailable.
func NewCompositor() (compositor.Compositor, error) {
	return nil, compositor.ErrTargetUnavailable
}

// CreateDebugWindow is unsupported off windows.
func CreateDebugWindow() (uintptr, error) {
	return 0, fmt.Errorf("debug windows are not supported on this platform")
}

// DestroyWindow is unsupported off windows.
func DestroyWindow(uintptr) error {
	return fmt.Errorf("debug windows are not supported on this platform")
}
