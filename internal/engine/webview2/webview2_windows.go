//go:build windows

package webview2

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"

	"github.com/lislabs/flutter-webview-windows/internal/compositor"
	"github.com/lislabs/flutter-webview-windows/internal/engine"
)

// Event codes delivered by the shim's controller callback.
const (
	eventContentLoading      = 1
	eventNavigationCompleted = 2
	eventSourceChanged       = 3
	eventTitleChanged        = 4
	eventCursorChanged       = 5
	eventGotFocus            = 6
	eventLostFocus           = 7
)

// Options configures runtime acquisition.
type Options struct {
	// BrowserArguments is passed to the engine runtime verbatim.
	BrowserArguments string

	// UserDataDir overrides the engine profile directory.
	UserDataDir string

	// LibraryDir is where wv2_bridge.dll lives; empty uses the standard
	// search path.
	LibraryDir string
}

var (
	user32            = windows.NewLazySystemDLL("user32.dll")
	procDestroyWindow = user32.NewProc("DestroyWindow")
)

// controllers routes shim callbacks back to their Go controller.
var controllers struct {
	sync.RWMutex
	byID map[int64]*compController
}

// eventTrampoline is the single shim-to-Go callback. It runs on the
// engine's event-dispatch thread.
var eventTrampoline = purego.NewCallback(func(controller int64, event int32) uintptr {
	controllers.RLock()
	c := controllers.byID[controller]
	controllers.RUnlock()
	if c != nil {
		c.dispatch(event)
	}
	return 0
})

// NewEnvironment acquires the engine runtime. Fails with
// engine.ErrRuntimeUnavailable when the shim or the browser runtime is not
// installed.
func NewEnvironment(opts Options) (engine.Environment, error) {
	if err := initBridge(opts.LibraryDir); err != nil {
		return nil, fmt.Errorf("%w: %v", engine.ErrRuntimeUnavailable, err)
	}
	if rc := wv2Init(opts.BrowserArguments, opts.UserDataDir); rc != 0 {
		return nil, fmt.Errorf("%w: wv2_init failed with code %d", engine.ErrRuntimeUnavailable, rc)
	}
	return &environment{}, nil
}

// NewCompositor allocates the process-wide composition resource.
func NewCompositor() (compositor.Compositor, error) {
	if err := initBridge(""); err != nil {
		return nil, fmt.Errorf("%w: %v", compositor.ErrTargetUnavailable, err)
	}
	id := wv2CompositorCreate()
	if id <= 0 {
		return nil, compositor.ErrTargetUnavailable
	}
	return &nativeCompositor{id: id}, nil
}

// CreateDebugWindow creates a hidden-by-default top-level window a session
// can render into for debugging.
func CreateDebugWindow() (uintptr, error) {
	if err := initBridge(""); err != nil {
		return 0, err
	}
	hwnd := wv2CreateDebugWindow(1280, 720)
	if hwnd == 0 {
		return 0, fmt.Errorf("debug window creation failed")
	}
	return hwnd, nil
}

// DestroyWindow destroys a window created by CreateDebugWindow.
func DestroyWindow(hwnd uintptr) error {
	ret, _, err := procDestroyWindow.Call(hwnd)
	if ret == 0 {
		return fmt.Errorf("DestroyWindow failed: %w", err)
	}
	return nil
}

type environment struct {
	mu     sync.Mutex
	closed bool
}

func (e *environment) CreateCompositionController(hwnd uintptr) (engine.CompositionController, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, engine.ErrControllerClosed
	}

	id := wv2CreateController(hwnd)
	if id <= 0 {
		return nil, fmt.Errorf("composition controller creation failed (code %d)", id)
	}

	c := &compController{id: id}
	c.controller = &controller{parent: c}

	controllers.Lock()
	if controllers.byID == nil {
		controllers.byID = make(map[int64]*compController)
	}
	controllers.byID[id] = c
	controllers.Unlock()

	if rc := wv2SetEventCallback(id, eventTrampoline); rc != 0 {
		c.controller.Close()
		return nil, fmt.Errorf("event callback registration failed (code %d)", rc)
	}

	return c, nil
}

func (e *environment) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	wv2Shutdown()
	return nil
}

// compController implements engine.CompositionController over one shim
// controller handle. It also carries the listener lists fed by the event
// trampoline.
type compController struct {
	id         int64
	controller *controller

	listeners struct {
		sync.Mutex
		next                int
		contentLoading      map[int]func()
		navigationCompleted map[int]func()
		sourceChanged       map[int]func()
		titleChanged        map[int]func()
		cursorChanged       map[int]func()
		focusChanged        map[int]func(bool)
	}
}

func (c *compController) dispatch(event int32) {
	switch event {
	case eventContentLoading:
		for _, fn := range c.snapshotFuncs(&c.listeners.contentLoading) {
			fn()
		}
	case eventNavigationCompleted:
		for _, fn := range c.snapshotFuncs(&c.listeners.navigationCompleted) {
			fn()
		}
	case eventSourceChanged:
		for _, fn := range c.snapshotFuncs(&c.listeners.sourceChanged) {
			fn()
		}
	case eventTitleChanged:
		for _, fn := range c.snapshotFuncs(&c.listeners.titleChanged) {
			fn()
		}
	case eventCursorChanged:
		for _, fn := range c.snapshotFuncs(&c.listeners.cursorChanged) {
			fn()
		}
	case eventGotFocus, eventLostFocus:
		gained := event == eventGotFocus
		c.listeners.Lock()
		fns := make([]func(bool), 0, len(c.listeners.focusChanged))
		for _, fn := range c.listeners.focusChanged {
			fns = append(fns, fn)
		}
		c.listeners.Unlock()
		for _, fn := range fns {
			fn(gained)
		}
	}
	// Unknown event codes from newer shim builds are dropped.
}

func (c *compController) snapshotFuncs(m *map[int]func()) []func() {
	c.listeners.Lock()
	defer c.listeners.Unlock()
	fns := make([]func(), 0, len(*m))
	for _, fn := range *m {
		fns = append(fns, fn)
	}
	return fns
}

func (c *compController) addListener(m *map[int]func(), fn func()) func() {
	c.listeners.Lock()
	defer c.listeners.Unlock()
	if *m == nil {
		*m = make(map[int]func())
	}
	id := c.listeners.next
	c.listeners.next++
	(*m)[id] = fn
	return func() {
		c.listeners.Lock()
		defer c.listeners.Unlock()
		delete(*m, id)
	}
}

func (c *compController) SendMouseInput(kind engine.MouseEventKind, keys engine.VirtualKeys, mouseData int32, pt engine.Point) error {
	if rc := wv2SendMouseInput(c.id, uint32(kind), uint32(keys), mouseData, pt.X, pt.Y); rc != 0 {
		return fmt.Errorf("mouse input rejected (code %d)", rc)
	}
	return nil
}

func (c *compController) SetRootVisualTarget(v compositor.Visual) error {
	nv, ok := v.(*nativeVisual)
	if !ok {
		return fmt.Errorf("visual is not a native visual")
	}
	if rc := wv2SetRootVisual(c.id, nv.id); rc != 0 {
		return fmt.Errorf("root visual target rejected (code %d)", rc)
	}
	return nil
}

func (c *compController) Cursor() (string, error) {
	return shimString(func(buf uintptr, n int32) int32 {
		return wv2GetCursor(c.id, buf, n)
	})
}

func (c *compController) OnCursorChanged(fn func()) (func(), error) {
	return c.addListener(&c.listeners.cursorChanged, fn), nil
}

func (c *compController) Controller() engine.Controller {
	return c.controller
}

// controller implements engine.Controller.
type controller struct {
	parent *compController
	mu     sync.Mutex
	closed bool
}

func (c *controller) SetBounds(width, height uint32) error {
	if rc := wv2SetBounds(c.parent.id, width, height); rc != 0 {
		return fmt.Errorf("bounds update rejected (code %d)", rc)
	}
	return nil
}

func (c *controller) SetVisible(visible bool) error {
	if rc := wv2SetVisible(c.parent.id, boolToInt32(visible)); rc != 0 {
		return fmt.Errorf("visibility update rejected (code %d)", rc)
	}
	return nil
}

func (c *controller) SetBoundsModeRawPixels() error {
	if rc := wv2SetBoundsModeRaw(c.parent.id); rc != 0 {
		return fmt.Errorf("bounds mode rejected (code %d)", rc)
	}
	return nil
}

func (c *controller) SetRasterizationScale(scale float64) error {
	if rc := wv2SetRasterizationScale(c.parent.id, scale); rc != 0 {
		return fmt.Errorf("rasterization scale rejected (code %d)", rc)
	}
	return nil
}

func (c *controller) SetMonitorScaleDetection(enabled bool) error {
	if rc := wv2SetMonitorScaleTracking(c.parent.id, boolToInt32(enabled)); rc != 0 {
		return fmt.Errorf("monitor scale tracking rejected (code %d)", rc)
	}
	return nil
}

func (c *controller) OnFocusChanged(fn func(bool)) (func(), error) {
	l := &c.parent.listeners
	l.Lock()
	defer l.Unlock()
	if l.focusChanged == nil {
		l.focusChanged = make(map[int]func(bool))
	}
	id := l.next
	l.next++
	l.focusChanged[id] = fn
	return func() {
		l.Lock()
		defer l.Unlock()
		delete(l.focusChanged, id)
	}, nil
}

func (c *controller) Document() engine.Document {
	return &document{parent: c.parent}
}

func (c *controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	wv2ClearEventCallback(c.parent.id)

	controllers.Lock()
	delete(controllers.byID, c.parent.id)
	controllers.Unlock()

	wv2ControllerClose(c.parent.id)
	return nil
}

// document implements engine.Document.
type document struct {
	parent *compController
}

func (d *document) Navigate(url string) error {
	if rc := wv2Navigate(d.parent.id, url); rc != 0 {
		return fmt.Errorf("navigation rejected (code %d)", rc)
	}
	return nil
}

func (d *document) NavigateToString(html string) error {
	if rc := wv2NavigateToString(d.parent.id, html); rc != 0 {
		return fmt.Errorf("string navigation rejected (code %d)", rc)
	}
	return nil
}

func (d *document) Reload() error {
	if rc := wv2Reload(d.parent.id); rc != 0 {
		return fmt.Errorf("reload rejected (code %d)", rc)
	}
	return nil
}

func (d *document) Source() (string, error) {
	return shimString(func(buf uintptr, n int32) int32 {
		return wv2GetSource(d.parent.id, buf, n)
	})
}

func (d *document) Title() (string, error) {
	return shimString(func(buf uintptr, n int32) int32 {
		return wv2GetTitle(d.parent.id, buf, n)
	})
}

func (d *document) CallDevToolsProtocolMethod(method, paramsJSON string) error {
	if rc := wv2CallDevTools(d.parent.id, method, paramsJSON); rc != 0 {
		return fmt.Errorf("devtools call %s rejected (code %d)", method, rc)
	}
	return nil
}

func (d *document) Settings() (engine.Settings, bool) {
	if wv2HasSettings(d.parent.id) == 0 {
		return nil, false
	}
	return &settings{parent: d.parent}, true
}

func (d *document) OnContentLoading(fn func()) (func(), error) {
	return d.parent.addListener(&d.parent.listeners.contentLoading, fn), nil
}

func (d *document) OnNavigationCompleted(fn func()) (func(), error) {
	return d.parent.addListener(&d.parent.listeners.navigationCompleted, fn), nil
}

func (d *document) OnSourceChanged(fn func()) (func(), error) {
	return d.parent.addListener(&d.parent.listeners.sourceChanged, fn), nil
}

func (d *document) OnTitleChanged(fn func()) (func(), error) {
	return d.parent.addListener(&d.parent.listeners.titleChanged, fn), nil
}

// settings implements engine.Settings.
type settings struct {
	parent *compController
}

func (s *settings) SetStatusBarEnabled(enabled bool) error {
	if rc := wv2SetStatusBar(s.parent.id, boolToInt32(enabled)); rc != 0 {
		return fmt.Errorf("status bar setting rejected (code %d)", rc)
	}
	return nil
}

func (s *settings) SetDefaultContextMenusEnabled(enabled bool) error {
	if rc := wv2SetContextMenus(s.parent.id, boolToInt32(enabled)); rc != 0 {
		return fmt.Errorf("context menu setting rejected (code %d)", rc)
	}
	return nil
}

func (s *settings) HasUserAgent() bool {
	return wv2HasUserAgent(s.parent.id) != 0
}

func (s *settings) SetUserAgent(value string) error {
	if rc := wv2SetUserAgent(s.parent.id, value); rc != 0 {
		return fmt.Errorf("user agent rejected (code %d)", rc)
	}
	return nil
}

// nativeCompositor implements compositor.Compositor.
type nativeCompositor struct {
	id     int64
	mu     sync.Mutex
	closed bool
}

func (n *nativeCompositor) CreateContainerVisual() (compositor.ContainerVisual, error) {
	id := wv2CreateContainerVisual(n.id)
	if id <= 0 {
		return nil, compositor.ErrCompositorClosed
	}
	return &nativeVisual{id: id}, nil
}

func (n *nativeCompositor) CreateSpriteVisual() (compositor.Visual, error) {
	id := wv2CreateSpriteVisual(n.id)
	if id <= 0 {
		return nil, compositor.ErrCompositorClosed
	}
	return &nativeVisual{id: id}, nil
}

func (n *nativeCompositor) CreateWindowTarget(hwnd uintptr) (compositor.WindowTarget, error) {
	id := wv2CreateWindowTarget(n.id, hwnd)
	if id <= 0 {
		return nil, compositor.ErrTargetUnavailable
	}
	return &nativeTarget{id: id}, nil
}

func (n *nativeCompositor) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	wv2CompositorClose(n.id)
	return nil
}

// nativeVisual implements compositor.Visual / ContainerVisual. Size is
// cached Go-side; the shim has no getter.
type nativeVisual struct {
	id     int64
	mu     sync.Mutex
	width  float64
	height float64
}

func (v *nativeVisual) SetSize(width, height float64) error {
	if rc := wv2VisualSetSize(v.id, width, height); rc != 0 {
		return fmt.Errorf("visual resize rejected (code %d)", rc)
	}
	v.mu.Lock()
	v.width, v.height = width, height
	v.mu.Unlock()
	return nil
}

func (v *nativeVisual) Size() (float64, float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.width, v.height
}

func (v *nativeVisual) SetVisible(visible bool) {
	wv2VisualSetVisible(v.id, boolToInt32(visible))
}

func (v *nativeVisual) FillParent() {
	wv2VisualFillParent(v.id)
}

func (v *nativeVisual) InsertAtTop(child compositor.Visual) error {
	nc, ok := child.(*nativeVisual)
	if !ok {
		return fmt.Errorf("child is not a native visual")
	}
	if rc := wv2VisualInsertAtTop(v.id, nc.id); rc != 0 {
		return fmt.Errorf("visual insertion rejected (code %d)", rc)
	}
	return nil
}

// nativeTarget implements compositor.WindowTarget.
type nativeTarget struct {
	id int64
}

func (t *nativeTarget) SetRoot(root compositor.ContainerVisual) error {
	nv, ok := root.(*nativeVisual)
	if !ok {
		return fmt.Errorf("root is not a native visual")
	}
	if rc := wv2TargetSetRoot(t.id, nv.id); rc != 0 {
		return fmt.Errorf("target root rejected (code %d)", rc)
	}
	return nil
}

func (t *nativeTarget) Destroy() error {
	wv2TargetDestroy(t.id)
	return nil
}

// shimString reads a string result through the caller-supplied-buffer
// convention: negative return means failure, otherwise the byte count.
func shimString(call func(buf uintptr, bufSize int32) int32) (string, error) {
	buf := make([]byte, 4096)
	n := call(uintptr(unsafe.Pointer(&buf[0])), int32(len(buf)))
	if n < 0 {
		return "", fmt.Errorf("string query failed (code %d)", n)
	}
	if int(n) > len(buf) {
		buf = make([]byte, n)
		n = call(uintptr(unsafe.Pointer(&buf[0])), int32(len(buf)))
		if n < 0 {
			return "", fmt.Errorf("string query failed (code %d)", n)
		}
	}
	return string(buf[:n]), nil
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
