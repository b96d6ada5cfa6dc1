// Package webview implements the native-side bridge between the embedded
// browser engine and the hosting widget: it attaches the engine's visual
// output to the host compositor, forwards pointer input with consistent
// virtual-key bookkeeping, and re-dispatches engine events to subscribers.
package webview

import (
	"fmt"
	"sync"

	"github.com/lislabs/flutter-webview-windows/internal/compositor"
	"github.com/lislabs/flutter-webview-windows/internal/engine"
	"github.com/lislabs/flutter-webview-windows/internal/logger"
)

// scrollMultiplier converts widget scroll deltas into multiples of the
// engine's wheel-step unit (120).
const scrollMultiplier = 6

// initialSurfaceWidth/Height size the root visual before the first resize
// request lands. The values are arbitrary; every session is resized by the
// widget as soon as it lays out.
const (
	initialSurfaceWidth  = 1280
	initialSurfaceHeight = 720
)

// Webview is one embedded browsing session: an engine composition
// controller, its document, and the compositor visual the engine renders
// into.
//
// All commands are fire-and-forget from the caller's perspective; side
// effects surface later as events. Engine events arrive on the engine's
// dispatch thread, never necessarily the caller's.
type Webview struct {
	composition engine.CompositionController
	controller  engine.Controller
	document    engine.Document

	surface compositor.ContainerVisual
	target  compositor.WindowTarget

	hwnd          uintptr
	ownsWindow    bool
	destroyWindow func(uintptr) error

	events events

	mu            sync.Mutex
	closed        bool
	lastCursorPos engine.Point
	lastWidth     uint32
	lastHeight    uint32
	virtualKeys   virtualKeyState

	unregister []func()
}

// Options controls session construction.
type Options struct {
	// Hwnd is the owner window for the engine controller.
	Hwnd uintptr

	// OwnsWindow marks Hwnd as created for this session; it is destroyed
	// on Close via DestroyWindow.
	OwnsWindow bool

	// OffscreenOnly suppresses attaching the visual tree to Hwnd as an
	// on-screen debug window.
	OffscreenOnly bool

	// DestroyWindow tears down an owned window. Required when OwnsWindow
	// is set.
	DestroyWindow func(uintptr) error
}

// New wires a composition controller into the given compositor and
// registers every engine event handler before returning. On any failure the
// controller is closed and no partial session is left alive.
func New(composition engine.CompositionController, comp compositor.Compositor, opts Options) (*Webview, error) {
	controller := composition.Controller()

	w := &Webview{
		composition:   composition,
		controller:    controller,
		document:      controller.Document(),
		hwnd:          opts.Hwnd,
		ownsWindow:    opts.OwnsWindow,
		destroyWindow: opts.DestroyWindow,
	}

	// The widget handles all DPI scaling itself; pinning the engine to raw
	// pixels at scale 1.0 avoids double-scaling.
	if err := controller.SetBoundsModeRawPixels(); err != nil {
		logger.Debugf("bounds mode not applied: %v", err)
	}
	if err := controller.SetMonitorScaleDetection(false); err != nil {
		logger.Debugf("monitor scale detection not disabled: %v", err)
	}
	if err := controller.SetRasterizationScale(1.0); err != nil {
		logger.Debugf("rasterization scale not applied: %v", err)
	}

	if settings, ok := w.document.Settings(); ok {
		if err := settings.SetStatusBarEnabled(false); err != nil {
			logger.Debugf("status bar not disabled: %v", err)
		}
		if err := settings.SetDefaultContextMenusEnabled(false); err != nil {
			logger.Debugf("context menus not disabled: %v", err)
		}
	}

	if err := w.registerEventHandlers(); err != nil {
		w.teardown()
		return nil, err
	}

	if err := w.buildVisualTree(comp, opts.OffscreenOnly); err != nil {
		w.teardown()
		return nil, err
	}

	if err := controller.SetVisible(true); err != nil {
		logger.Debugf("controller visibility not applied: %v", err)
	}

	return w, nil
}

func (w *Webview) buildVisualTree(comp compositor.Compositor, offscreenOnly bool) error {
	root, err := comp.CreateContainerVisual()
	if err != nil {
		return fmt.Errorf("failed to create surface visual: %w", err)
	}

	// Initial size; the widget resizes the surface before first paint.
	if err := root.SetSize(initialSurfaceWidth, initialSurfaceHeight); err != nil {
		return fmt.Errorf("failed to size surface visual: %w", err)
	}
	root.SetVisible(true)
	w.surface = root
	w.lastWidth = initialSurfaceWidth
	w.lastHeight = initialSurfaceHeight

	// On-screen window for debugging purposes.
	if !offscreenOnly {
		target, err := comp.CreateWindowTarget(w.hwnd)
		if err != nil {
			return fmt.Errorf("failed to create window target: %w", err)
		}
		if err := target.SetRoot(root); err != nil {
			target.Destroy()
			return fmt.Errorf("failed to root debug window target: %w", err)
		}
		w.target = target
	}

	child, err := comp.CreateSpriteVisual()
	if err != nil {
		return fmt.Errorf("failed to create engine visual: %w", err)
	}
	child.FillParent()

	if err := root.InsertAtTop(child); err != nil {
		return fmt.Errorf("failed to attach engine visual: %w", err)
	}
	if err := w.composition.SetRootVisualTarget(child); err != nil {
		return fmt.Errorf("failed to set engine visual target: %w", err)
	}

	return nil
}

func (w *Webview) registerEventHandlers() error {
	register := func(cancel func(), err error) error {
		if err != nil {
			return fmt.Errorf("failed to register engine event handler: %w", err)
		}
		w.unregister = append(w.unregister, cancel)
		return nil
	}

	if err := register(w.document.OnContentLoading(func() {
		w.events.loadingState.emit(LoadingStateLoading)
	})); err != nil {
		return err
	}

	if err := register(w.document.OnNavigationCompleted(func() {
		w.events.loadingState.emit(LoadingStateNavigationCompleted)
	})); err != nil {
		return err
	}

	if err := register(w.document.OnSourceChanged(func() {
		url, err := w.document.Source()
		if err != nil {
			return
		}
		w.events.url.emit(url)
	})); err != nil {
		return err
	}

	if err := register(w.document.OnTitleChanged(func() {
		title, err := w.document.Title()
		if err != nil {
			return
		}
		w.events.title.emit(title)
	})); err != nil {
		return err
	}

	if err := register(w.composition.OnCursorChanged(func() {
		cursor, err := w.composition.Cursor()
		if err != nil {
			return
		}
		w.events.cursor.emit(cursor)
	})); err != nil {
		return err
	}

	return register(w.controller.OnFocusChanged(func(gained bool) {
		w.events.focus.emit(gained)
	}))
}

// Surface returns the visual node hosting the session's rendered output.
func (w *Webview) Surface() compositor.ContainerVisual {
	return w.surface
}

// OnLoadingStateChanged subscribes to navigation lifecycle events. The
// engine reports Loading and NavigationCompleted; None is only ever the
// subscriber-side default. Returns an unsubscribe func.
func (w *Webview) OnLoadingStateChanged(fn func(LoadingState)) func() {
	return w.events.loadingState.subscribe(fn)
}

// OnURLChanged subscribes to navigation source changes.
func (w *Webview) OnURLChanged(fn func(url string)) func() {
	return w.events.url.subscribe(fn)
}

// OnTitleChanged subscribes to document title changes.
func (w *Webview) OnTitleChanged(fn func(title string)) func() {
	return w.events.title.subscribe(fn)
}

// OnCursorChanged subscribes to cursor shape changes; the payload is the
// platform cursor name.
func (w *Webview) OnCursorChanged(fn func(cursor string)) func() {
	return w.events.cursor.subscribe(fn)
}

// OnFocusChanged subscribes to focus gained/lost events.
func (w *Webview) OnFocusChanged(fn func(focused bool)) func() {
	return w.events.focus.subscribe(fn)
}

// OnSurfaceSizeChanged subscribes to committed surface resizes.
func (w *Webview) OnSurfaceSizeChanged(fn func(SurfaceSize)) func() {
	return w.events.surfaceSize.subscribe(fn)
}

// LoadUrl starts navigating to url. Fire and forget; progress surfaces as
// loading-state and url events.
func (w *Webview) LoadUrl(url string) {
	if w.isClosed() {
		return
	}
	if err := w.document.Navigate(url); err != nil {
		logger.Errorf("navigation to %q failed: %v", url, err)
	}
}

// LoadStringContent renders the given HTML string.
func (w *Webview) LoadStringContent(html string) {
	if w.isClosed() {
		return
	}
	if err := w.document.NavigateToString(html); err != nil {
		logger.Errorf("string content navigation failed: %v", err)
	}
}

// Reload reloads the current document.
func (w *Webview) Reload() {
	if w.isClosed() {
		return
	}
	if err := w.document.Reload(); err != nil {
		logger.Errorf("reload failed: %v", err)
	}
}

// SetUserAgent overrides the session's user agent. Returns false on engine
// builds without the extended-settings capability; no error is raised.
func (w *Webview) SetUserAgent(value string) bool {
	if w.isClosed() {
		return false
	}
	settings, ok := w.document.Settings()
	if !ok || !settings.HasUserAgent() {
		return false
	}
	return settings.SetUserAgent(value) == nil
}

// ClearCookies drops every cookie via the engine's debugging protocol and
// reports whether the call succeeded.
func (w *Webview) ClearCookies() bool {
	if w.isClosed() {
		return false
	}
	return w.document.CallDevToolsProtocolMethod("Network.clearBrowserCookies", "{}") == nil
}

// SetSurfaceSize resizes the visual node and the engine's navigable bounds
// and notifies surface-size subscribers. Resizing to the current size is a
// no-op. A failed bounds update is reported to the log but does not roll
// back the already-resized visual.
func (w *Webview) SetSurfaceSize(width, height uint32) {
	w.mu.Lock()

	if w.closed || w.surface == nil {
		w.mu.Unlock()
		return
	}
	if width == w.lastWidth && height == w.lastHeight {
		w.mu.Unlock()
		return
	}

	if err := w.surface.SetSize(float64(width), float64(height)); err != nil {
		logger.Errorf("resizing surface visual failed: %v", err)
		w.mu.Unlock()
		return
	}
	w.lastWidth = width
	w.lastHeight = height

	if err := w.controller.SetBounds(width, height); err != nil {
		logger.Errorf("setting webview bounds failed: %v", err)
	}
	w.mu.Unlock()

	w.events.surfaceSize.emit(SurfaceSize{Width: width, Height: height})
}

// SetCursorPos records the pointer position and forwards a move event.
// Button and scroll events reuse the recorded position, so callers must
// keep it current.
func (w *Webview) SetCursorPos(x, y float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.lastCursorPos = engine.Point{X: x, Y: y}

	w.sendMouseInput(engine.MouseEventMove, w.virtualKeys.state(), 0)
}

// SetPointerButtonState updates the virtual-key state for the given button
// and forwards the matching down/up event at the last recorded position.
// PointerButtonNone is not forwarded.
func (w *Webview) SetPointerButtonState(button PointerButton, isDown bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	var kind engine.MouseEventKind
	switch button {
	case PointerButtonPrimary:
		w.virtualKeys.setLeftDown(isDown)
		if isDown {
			kind = engine.MouseEventLeftButtonDown
		} else {
			kind = engine.MouseEventLeftButtonUp
		}
	case PointerButtonSecondary:
		w.virtualKeys.setRightDown(isDown)
		if isDown {
			kind = engine.MouseEventRightButtonDown
		} else {
			kind = engine.MouseEventRightButtonUp
		}
	case PointerButtonTertiary:
		w.virtualKeys.setMiddleDown(isDown)
		if isDown {
			kind = engine.MouseEventMiddleButtonDown
		} else {
			kind = engine.MouseEventMiddleButtonUp
		}
	default:
		return
	}

	w.sendMouseInput(kind, w.virtualKeys.state(), 0)
}

// SetScrollDelta forwards horizontal and vertical wheel events
// independently; a zero component emits nothing.
func (w *Webview) SetScrollDelta(deltaX, deltaY float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if deltaX != 0 {
		w.sendScroll(deltaX, true)
	}
	if deltaY != 0 {
		w.sendScroll(deltaY, false)
	}
}

// sendScroll injects one wheel event at the last recorded position.
//
// Workaround: the composition controller only handles wheel events while a
// mouse button is reported down, so every wheel send is bracketed by a
// synthetic extra-button down/up. The extra button is never part of the
// tracked virtual-key state, so the bracket cannot corrupt it. Remove this
// bracket here once the engine no longer needs it.
func (w *Webview) sendScroll(delta float64, horizontal bool) {
	offset := int32(int16(delta * scrollMultiplier))

	w.sendMouseInput(engine.MouseEventXButtonDown, engine.VirtualKeyNone, 0)

	if horizontal {
		w.sendMouseInput(engine.MouseEventHorizontalWheel, w.virtualKeys.state(), offset)
	} else {
		w.sendMouseInput(engine.MouseEventWheel, w.virtualKeys.state(), offset)
	}

	w.sendMouseInput(engine.MouseEventXButtonUp, engine.VirtualKeyNone, 0)
}

func (w *Webview) sendMouseInput(kind engine.MouseEventKind, keys engine.VirtualKeys, mouseData int32) {
	if err := w.composition.SendMouseInput(kind, keys, mouseData, w.lastCursorPos); err != nil {
		logger.Debugf("mouse input injection failed: %v", err)
	}
}

func (w *Webview) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Close unregisters every engine callback and releases the controller
// before any owned window is destroyed, so no callback can observe a
// dangling compositor attachment. Safe to call more than once.
func (w *Webview) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	return w.teardown()
}

func (w *Webview) teardown() error {
	for _, cancel := range w.unregister {
		cancel()
	}
	w.unregister = nil

	err := w.controller.Close()

	if w.target != nil {
		if terr := w.target.Destroy(); terr != nil && err == nil {
			err = terr
		}
		w.target = nil
	}

	if w.ownsWindow && w.destroyWindow != nil {
		if derr := w.destroyWindow(w.hwnd); derr != nil && err == nil {
			err = derr
		}
	}

	return err
}
