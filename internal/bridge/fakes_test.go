package bridge

import (
	"sync"

	"github.com/lislabs/flutter-webview-windows/internal/compositor"
	"github.com/lislabs/flutter-webview-windows/internal/engine"
	"github.com/lislabs/flutter-webview-windows/internal/webview"
)

// The fakes here are the minimum engine/compositor surface needed to stand
// up a real webview.Webview behind the bridge.

type stubEnv struct {
	sessions []*stubComposition
}

func (e *stubEnv) CreateCompositionController(hwnd uintptr) (engine.CompositionController, error) {
	s := &stubComposition{}
	s.ctrl = &stubController{parent: s}
	e.sessions = append(e.sessions, s)
	return s, nil
}

func (e *stubEnv) Close() error { return nil }

type mouseCall struct {
	kind engine.MouseEventKind
	keys engine.VirtualKeys
	data int32
	pt   engine.Point
}

type stubComposition struct {
	ctrl   *stubController
	mouse  []mouseCall
	cursor string

	onCursor func()
}

func (s *stubComposition) SendMouseInput(kind engine.MouseEventKind, keys engine.VirtualKeys, mouseData int32, pt engine.Point) error {
	s.mouse = append(s.mouse, mouseCall{kind, keys, mouseData, pt})
	return nil
}

func (s *stubComposition) SetRootVisualTarget(compositor.Visual) error { return nil }

func (s *stubComposition) Cursor() (string, error) {
	return s.cursor, nil
}

func (s *stubComposition) OnCursorChanged(fn func()) (func(), error) {
	s.onCursor = fn
	return func() { s.onCursor = nil }, nil
}

func (s *stubComposition) Controller() engine.Controller { return s.ctrl }

func (s *stubComposition) fireCursorChanged(name string) {
	s.cursor = name
	if s.onCursor != nil {
		s.onCursor()
	}
}

type stubController struct {
	parent  *stubComposition
	doc     stubDocument
	bounds  [][2]uint32
	closed  bool
	onFocus func(bool)
}

func (c *stubController) SetBounds(w, h uint32) error {
	c.bounds = append(c.bounds, [2]uint32{w, h})
	return nil
}

func (c *stubController) SetVisible(bool) error { return nil }

func (c *stubController) SetBoundsModeRawPixels() error { return nil }

func (c *stubController) SetRasterizationScale(float64) error { return nil }

func (c *stubController) SetMonitorScaleDetection(bool) error { return nil }

func (c *stubController) OnFocusChanged(fn func(bool)) (func(), error) {
	c.onFocus = fn
	return func() { c.onFocus = nil }, nil
}

func (c *stubController) Document() engine.Document { return &c.doc }

func (c *stubController) Close() error {
	c.closed = true
	return nil
}

type stubDocument struct {
	navigations []string
	stringLoads []string
	reloads     int
	source      string
	title       string
	devtools    []string
	userAgent   string
	noSettings  bool

	onContentLoading func()
	onNavCompleted   func()
	onSourceChanged  func()
	onTitleChanged   func()
}

func (d *stubDocument) Navigate(url string) error {
	d.navigations = append(d.navigations, url)
	return nil
}

func (d *stubDocument) NavigateToString(html string) error {
	d.stringLoads = append(d.stringLoads, html)
	return nil
}

func (d *stubDocument) Reload() error {
	d.reloads++
	return nil
}

func (d *stubDocument) Source() (string, error) { return d.source, nil }

func (d *stubDocument) Title() (string, error) { return d.title, nil }

func (d *stubDocument) CallDevToolsProtocolMethod(method, params string) error {
	d.devtools = append(d.devtools, method)
	return nil
}

func (d *stubDocument) Settings() (engine.Settings, bool) {
	if d.noSettings {
		return nil, false
	}
	return (*stubSettings)(d), true
}

func (d *stubDocument) OnContentLoading(fn func()) (func(), error) {
	d.onContentLoading = fn
	return func() { d.onContentLoading = nil }, nil
}

func (d *stubDocument) OnNavigationCompleted(fn func()) (func(), error) {
	d.onNavCompleted = fn
	return func() { d.onNavCompleted = nil }, nil
}

func (d *stubDocument) OnSourceChanged(fn func()) (func(), error) {
	d.onSourceChanged = fn
	return func() { d.onSourceChanged = nil }, nil
}

func (d *stubDocument) OnTitleChanged(fn func()) (func(), error) {
	d.onTitleChanged = fn
	return func() { d.onTitleChanged = nil }, nil
}

func (d *stubDocument) fireNavigation(url, title string) {
	if d.onContentLoading != nil {
		d.onContentLoading()
	}
	d.source = url
	if d.onSourceChanged != nil {
		d.onSourceChanged()
	}
	if d.onNavCompleted != nil {
		d.onNavCompleted()
	}
	d.title = title
	if d.onTitleChanged != nil {
		d.onTitleChanged()
	}
}

type stubSettings stubDocument

func (s *stubSettings) SetStatusBarEnabled(bool) error { return nil }

func (s *stubSettings) SetDefaultContextMenusEnabled(bool) error { return nil }

func (s *stubSettings) HasUserAgent() bool { return true }

func (s *stubSettings) SetUserAgent(value string) error {
	s.userAgent = value
	return nil
}

type stubVisual struct {
	w, h     float64
	children []compositor.Visual
}

func (v *stubVisual) SetSize(w, h float64) error {
	v.w, v.h = w, h
	return nil
}

func (v *stubVisual) Size() (float64, float64) { return v.w, v.h }

func (v *stubVisual) SetVisible(bool) {}

func (v *stubVisual) FillParent() {}

func (v *stubVisual) InsertAtTop(child compositor.Visual) error {
	v.children = append(v.children, child)
	return nil
}

type stubTarget struct {
	root compositor.ContainerVisual
}

func (t *stubTarget) SetRoot(root compositor.ContainerVisual) error {
	t.root = root
	return nil
}

func (t *stubTarget) Destroy() error { return nil }

type stubCompositor struct{}

func (stubCompositor) CreateContainerVisual() (compositor.ContainerVisual, error) {
	return &stubVisual{}, nil
}

func (stubCompositor) CreateSpriteVisual() (compositor.Visual, error) {
	return &stubVisual{}, nil
}

func (stubCompositor) CreateWindowTarget(uintptr) (compositor.WindowTarget, error) {
	return &stubTarget{}, nil
}

func (stubCompositor) Close() error { return nil }

// recordingSink captures pushed boundary events.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Send(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// newStubHost builds a host backed entirely by the stubs above.
func newStubHost() (*webview.Host, *stubEnv) {
	env := &stubEnv{}
	host := webview.NewHost(webview.HostOptions{
		NewEnvironment: func() (engine.Environment, error) { return env, nil },
		NewCompositor:  func() (compositor.Compositor, error) { return stubCompositor{}, nil },
	})
	return host, env
}
