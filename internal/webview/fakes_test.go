package webview

import (
	"errors"
	"sync"

	"github.com/lislabs/flutter-webview-windows/internal/compositor"
	"github.com/lislabs/flutter-webview-windows/internal/engine"
)

// mouseRecord is one injected mouse event captured by the fake engine.
type mouseRecord struct {
	kind      engine.MouseEventKind
	keys      engine.VirtualKeys
	mouseData int32
	pt        engine.Point
}

type fakeComposition struct {
	mu          sync.Mutex
	mouseInputs []mouseRecord
	rootVisual  compositor.Visual
	cursorName  string
	cursorSubs  []func()
	sendErr     error
	ctrl        *fakeController
}

func newFakeComposition() *fakeComposition {
	fc := &fakeComposition{cursorName: "default"}
	fc.ctrl = &fakeController{
		doc: &fakeDocument{
			settings: &fakeSettings{hasUserAgent: true},
		},
	}
	return fc
}

func (f *fakeComposition) SendMouseInput(kind engine.MouseEventKind, keys engine.VirtualKeys, mouseData int32, pt engine.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mouseInputs = append(f.mouseInputs, mouseRecord{kind: kind, keys: keys, mouseData: mouseData, pt: pt})
	return nil
}

func (f *fakeComposition) SetRootVisualTarget(v compositor.Visual) error {
	f.rootVisual = v
	return nil
}

func (f *fakeComposition) Cursor() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursorName, nil
}

func (f *fakeComposition) OnCursorChanged(fn func()) (func(), error) {
	f.cursorSubs = append(f.cursorSubs, fn)
	return func() { f.cursorSubs = nil }, nil
}

func (f *fakeComposition) Controller() engine.Controller {
	return f.ctrl
}

func (f *fakeComposition) recorded() []mouseRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]mouseRecord, len(f.mouseInputs))
	copy(out, f.mouseInputs)
	return out
}

func (f *fakeComposition) fireCursorChanged(name string) {
	f.mu.Lock()
	f.cursorName = name
	subs := append([]func(){}, f.cursorSubs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

type boundsRecord struct {
	width  uint32
	height uint32
}

type fakeController struct {
	doc *fakeDocument

	bounds          []boundsRecord
	boundsErr       error
	visible         bool
	rawPixels       bool
	rasterScale     float64
	monitorScaling  bool
	focusSubs       []func(bool)
	closed          bool
	closeOrderNotes *[]string
}

func (f *fakeController) SetBounds(width, height uint32) error {
	if f.boundsErr != nil {
		return f.boundsErr
	}
	f.bounds = append(f.bounds, boundsRecord{width, height})
	return nil
}

func (f *fakeController) SetVisible(visible bool) error {
	f.visible = visible
	return nil
}

func (f *fakeController) SetBoundsModeRawPixels() error {
	f.rawPixels = true
	return nil
}

func (f *fakeController) SetRasterizationScale(scale float64) error {
	f.rasterScale = scale
	return nil
}

func (f *fakeController) SetMonitorScaleDetection(enabled bool) error {
	f.monitorScaling = enabled
	return nil
}

func (f *fakeController) OnFocusChanged(fn func(bool)) (func(), error) {
	f.focusSubs = append(f.focusSubs, fn)
	return func() { f.focusSubs = nil }, nil
}

func (f *fakeController) Document() engine.Document {
	return f.doc
}

func (f *fakeController) Close() error {
	f.closed = true
	if f.closeOrderNotes != nil {
		*f.closeOrderNotes = append(*f.closeOrderNotes, "controller")
	}
	return nil
}

func (f *fakeController) fireFocus(gained bool) {
	for _, fn := range append([]func(bool){}, f.focusSubs...) {
		fn(gained)
	}
}

type fakeDocument struct {
	navigations   []string
	stringLoads   []string
	reloads       int
	source        string
	title         string
	devtoolsCalls [][2]string
	devtoolsErr   error
	settings      *fakeSettings
	registerErr   error

	contentLoadingSubs []func()
	navCompletedSubs   []func()
	sourceChangedSubs  []func()
	titleChangedSubs   []func()
}

func (f *fakeDocument) Navigate(url string) error {
	f.navigations = append(f.navigations, url)
	return nil
}

func (f *fakeDocument) NavigateToString(html string) error {
	f.stringLoads = append(f.stringLoads, html)
	return nil
}

func (f *fakeDocument) Reload() error {
	f.reloads++
	return nil
}

func (f *fakeDocument) Source() (string, error) {
	return f.source, nil
}

func (f *fakeDocument) Title() (string, error) {
	return f.title, nil
}

func (f *fakeDocument) CallDevToolsProtocolMethod(method, paramsJSON string) error {
	f.devtoolsCalls = append(f.devtoolsCalls, [2]string{method, paramsJSON})
	return f.devtoolsErr
}

func (f *fakeDocument) Settings() (engine.Settings, bool) {
	if f.settings == nil {
		return nil, false
	}
	return f.settings, true
}

func (f *fakeDocument) OnContentLoading(fn func()) (func(), error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.contentLoadingSubs = append(f.contentLoadingSubs, fn)
	return func() { f.contentLoadingSubs = nil }, nil
}

func (f *fakeDocument) OnNavigationCompleted(fn func()) (func(), error) {
	f.navCompletedSubs = append(f.navCompletedSubs, fn)
	return func() { f.navCompletedSubs = nil }, nil
}

func (f *fakeDocument) OnSourceChanged(fn func()) (func(), error) {
	f.sourceChangedSubs = append(f.sourceChangedSubs, fn)
	return func() { f.sourceChangedSubs = nil }, nil
}

func (f *fakeDocument) OnTitleChanged(fn func()) (func(), error) {
	f.titleChangedSubs = append(f.titleChangedSubs, fn)
	return func() { f.titleChangedSubs = nil }, nil
}

func (f *fakeDocument) fireContentLoading() {
	for _, fn := range append([]func(){}, f.contentLoadingSubs...) {
		fn()
	}
}

func (f *fakeDocument) fireNavigationCompleted() {
	for _, fn := range append([]func(){}, f.navCompletedSubs...) {
		fn()
	}
}

func (f *fakeDocument) fireSourceChanged(url string) {
	f.source = url
	for _, fn := range append([]func(){}, f.sourceChangedSubs...) {
		fn()
	}
}

func (f *fakeDocument) fireTitleChanged(title string) {
	f.title = title
	for _, fn := range append([]func(){}, f.titleChangedSubs...) {
		fn()
	}
}

type fakeSettings struct {
	statusBar    bool
	contextMenus bool
	hasUserAgent bool
	userAgent    string
	userAgentErr error
}

func (f *fakeSettings) SetStatusBarEnabled(enabled bool) error {
	f.statusBar = enabled
	return nil
}

func (f *fakeSettings) SetDefaultContextMenusEnabled(enabled bool) error {
	f.contextMenus = enabled
	return nil
}

func (f *fakeSettings) HasUserAgent() bool {
	return f.hasUserAgent
}

func (f *fakeSettings) SetUserAgent(value string) error {
	if f.userAgentErr != nil {
		return f.userAgentErr
	}
	f.userAgent = value
	return nil
}

type fakeVisual struct {
	width      float64
	height     float64
	resizes    int
	visible    bool
	fillParent bool
	children   []compositor.Visual
	sizeErr    error
}

func (f *fakeVisual) SetSize(width, height float64) error {
	if f.sizeErr != nil {
		return f.sizeErr
	}
	f.width, f.height = width, height
	f.resizes++
	return nil
}

func (f *fakeVisual) Size() (float64, float64) {
	return f.width, f.height
}

func (f *fakeVisual) SetVisible(visible bool) {
	f.visible = visible
}

func (f *fakeVisual) FillParent() {
	f.fillParent = true
}

func (f *fakeVisual) InsertAtTop(child compositor.Visual) error {
	f.children = append(f.children, child)
	return nil
}

type fakeTarget struct {
	root      compositor.ContainerVisual
	destroyed bool
}

func (f *fakeTarget) SetRoot(root compositor.ContainerVisual) error {
	f.root = root
	return nil
}

func (f *fakeTarget) Destroy() error {
	f.destroyed = true
	return nil
}

type fakeCompositor struct {
	containers []*fakeVisual
	sprites    []*fakeVisual
	targets    []*fakeTarget
	closed     bool
	windowErr  error
}

func (f *fakeCompositor) CreateContainerVisual() (compositor.ContainerVisual, error) {
	if f.closed {
		return nil, compositor.ErrCompositorClosed
	}
	v := &fakeVisual{}
	f.containers = append(f.containers, v)
	return v, nil
}

func (f *fakeCompositor) CreateSpriteVisual() (compositor.Visual, error) {
	if f.closed {
		return nil, compositor.ErrCompositorClosed
	}
	v := &fakeVisual{}
	f.sprites = append(f.sprites, v)
	return v, nil
}

func (f *fakeCompositor) CreateWindowTarget(hwnd uintptr) (compositor.WindowTarget, error) {
	if f.windowErr != nil {
		return nil, f.windowErr
	}
	t := &fakeTarget{}
	f.targets = append(f.targets, t)
	return t, nil
}

func (f *fakeCompositor) Close() error {
	f.closed = true
	return nil
}

type fakeEnvironment struct {
	controllers []*fakeComposition
	createErr   error
	closed      bool
}

func (f *fakeEnvironment) CreateCompositionController(hwnd uintptr) (engine.CompositionController, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	fc := newFakeComposition()
	f.controllers = append(f.controllers, fc)
	return fc, nil
}

func (f *fakeEnvironment) Close() error {
	f.closed = true
	return nil
}

var errBoom = errors.New("boom")
