// Package engine defines the ports to the embedded browser engine.
//
// The interfaces mirror the engine's composition-hosting surface: an
// Environment produces composition controllers, a controller owns the
// document it renders, and input is injected through raw mouse events
// carried with the full virtual-key state. Concrete backends live in
// subpackages (webview2 on windows); tests use in-package fakes.
package engine

import (
	"errors"

	"github.com/lislabs/flutter-webview-windows/internal/compositor"
)

var (
	// ErrRuntimeUnavailable is returned when no usable browser runtime is
	// installed on the machine.
	ErrRuntimeUnavailable = errors.New("browser engine runtime unavailable")
	// ErrControllerClosed is returned when operating on a released controller
	ErrControllerClosed = errors.New("engine controller is closed")
)

// MouseEventKind identifies an injected mouse event. Values are the
// platform window-message ordinals the engine consumes natively; they are
// part of the injection contract and must not be renumbered.
type MouseEventKind uint32

const (
	MouseEventMove             MouseEventKind = 0x0200
	MouseEventLeftButtonDown   MouseEventKind = 0x0201
	MouseEventLeftButtonUp     MouseEventKind = 0x0202
	MouseEventRightButtonDown  MouseEventKind = 0x0204
	MouseEventRightButtonUp    MouseEventKind = 0x0205
	MouseEventMiddleButtonDown MouseEventKind = 0x0207
	MouseEventMiddleButtonUp   MouseEventKind = 0x0208
	MouseEventWheel            MouseEventKind = 0x020A
	MouseEventXButtonDown      MouseEventKind = 0x020B
	MouseEventXButtonUp        MouseEventKind = 0x020C
	MouseEventHorizontalWheel  MouseEventKind = 0x020E
)

// VirtualKeys is the bitmask of buttons/modifiers reported alongside every
// injected mouse event.
type VirtualKeys uint32

const (
	VirtualKeyNone         VirtualKeys = 0
	VirtualKeyLeftButton   VirtualKeys = 1 << 0
	VirtualKeyRightButton  VirtualKeys = 1 << 1
	VirtualKeyShift        VirtualKeys = 1 << 2
	VirtualKeyControl      VirtualKeys = 1 << 3
	VirtualKeyMiddleButton VirtualKeys = 1 << 4
	VirtualKeyXButton1     VirtualKeys = 1 << 5
	VirtualKeyXButton2     VirtualKeys = 1 << 6
)

// WheelDelta is the platform-standard quantum for one wheel notch.
const WheelDelta = 120

// Point is a cursor position in the surface's raw pixel space.
type Point struct {
	X float64
	Y float64
}

// Environment is the process-wide engine runtime. Acquiring one fails with
// ErrRuntimeUnavailable if no browser runtime is installed.
type Environment interface {
	// CreateCompositionController binds a new browsing session to the
	// given owner window and returns its composition controller.
	CreateCompositionController(hwnd uintptr) (CompositionController, error)

	// Close releases the runtime. Outstanding controllers stay valid
	// until individually closed.
	Close() error
}

// CompositionController is the visual-hosting half of a session: it accepts
// injected input, reports cursor-shape changes, and renders into a visual
// supplied by the host's compositor.
type CompositionController interface {
	// SendMouseInput injects one mouse event at the given position.
	// mouseData carries the wheel delta for wheel kinds and is zero
	// otherwise.
	SendMouseInput(kind MouseEventKind, keys VirtualKeys, mouseData int32, pt Point) error

	// SetRootVisualTarget attaches the engine's rendered output to the
	// given compositor visual.
	SetRootVisualTarget(v compositor.Visual) error

	// Cursor returns the name of the cursor shape the engine currently
	// wants shown (e.g. "pointer", "text").
	Cursor() (string, error)

	// OnCursorChanged registers a cursor-shape listener. The returned
	// cancel func unregisters it.
	OnCursorChanged(fn func()) (func(), error)

	// Controller returns the document-hosting half of this session.
	Controller() Controller
}

// Controller owns the navigable document and its layout within the owner
// window.
type Controller interface {
	// SetBounds sets the navigable region in raw pixels, origin top-left.
	SetBounds(width, height uint32) error

	SetVisible(visible bool) error

	// SetBoundsModeRawPixels switches bounds interpretation from DIPs to
	// raw pixels; the host widget handles all DPI scaling itself.
	SetBoundsModeRawPixels() error

	// SetRasterizationScale pins the engine's raster scale, decoupling it
	// from per-monitor DPI.
	SetRasterizationScale(scale float64) error

	// SetMonitorScaleDetection toggles the engine's own monitor-DPI
	// tracking.
	SetMonitorScaleDetection(enabled bool) error

	// OnFocusChanged registers a focus listener; gained reports whether
	// focus was gained or lost.
	OnFocusChanged(fn func(gained bool)) (func(), error)

	Document() Document

	// Close releases the controller and its document. Must be called
	// before the owner window is destroyed.
	Close() error
}

// Document is the navigable page hosted by a controller.
type Document interface {
	Navigate(url string) error
	NavigateToString(html string) error
	Reload() error

	// Source returns the current document URL.
	Source() (string, error)
	Title() (string, error)

	// CallDevToolsProtocolMethod invokes a debugging-protocol method with
	// a JSON parameter object.
	CallDevToolsProtocolMethod(method, paramsJSON string) error

	// Settings returns the document settings; ok is false when the engine
	// build does not expose them.
	Settings() (Settings, bool)

	OnContentLoading(fn func()) (func(), error)
	OnNavigationCompleted(fn func()) (func(), error)
	OnSourceChanged(fn func()) (func(), error)
	OnTitleChanged(fn func()) (func(), error)
}

// Settings is the mutable per-document configuration surface.
type Settings interface {
	SetStatusBarEnabled(enabled bool) error
	SetDefaultContextMenusEnabled(enabled bool) error

	// SetUserAgent overrides the request user agent. Only available on
	// engine builds exposing extended settings; HasUserAgent reports that.
	SetUserAgent(value string) error
	HasUserAgent() bool
}
