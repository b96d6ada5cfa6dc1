//go:build windows

package webview2

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

// Shim functions resolved from wv2_bridge.dll. Handles are opaque int64
// ids minted by the shim; zero or negative values signal failure where a
// handle is returned, non-zero return codes signal failure elsewhere.
var (
	wv2Init             func(browserArgs, userDataDir string) int32
	wv2Shutdown         func()
	wv2CreateController func(hwnd uintptr) int64
	wv2ControllerClose  func(controller int64)

	wv2SetBounds               func(controller int64, width, height uint32) int32
	wv2SetVisible              func(controller int64, visible int32) int32
	wv2SetBoundsModeRaw        func(controller int64) int32
	wv2SetRasterizationScale   func(controller int64, scale float64) int32
	wv2SetMonitorScaleTracking func(controller int64, enabled int32) int32

	wv2SendMouseInput     func(controller int64, kind, keys uint32, mouseData int32, x, y float64) int32
	wv2SetRootVisual      func(controller int64, visual int64) int32
	wv2GetCursor          func(controller int64, buf uintptr, bufSize int32) int32
	wv2SetEventCallback   func(controller int64, callback uintptr) int32
	wv2ClearEventCallback func(controller int64)

	wv2Navigate         func(controller int64, url string) int32
	wv2NavigateToString func(controller int64, html string) int32
	wv2Reload           func(controller int64) int32
	wv2GetSource        func(controller int64, buf uintptr, bufSize int32) int32
	wv2GetTitle         func(controller int64, buf uintptr, bufSize int32) int32
	wv2CallDevTools     func(controller int64, method, paramsJSON string) int32

	wv2HasSettings     func(controller int64) int32
	wv2SetStatusBar    func(controller int64, enabled int32) int32
	wv2SetContextMenus func(controller int64, enabled int32) int32
	wv2HasUserAgent    func(controller int64) int32
	wv2SetUserAgent    func(controller int64, value string) int32

	wv2CompositorCreate      func() int64
	wv2CompositorClose       func(comp int64)
	wv2CreateContainerVisual func(comp int64) int64
	wv2CreateSpriteVisual    func(comp int64) int64
	wv2VisualSetSize         func(visual int64, width, height float64) int32
	wv2VisualSetVisible      func(visual int64, visible int32)
	wv2VisualFillParent      func(visual int64)
	wv2VisualInsertAtTop     func(parent, child int64) int32
	wv2CreateWindowTarget    func(comp int64, hwnd uintptr) int64
	wv2TargetSetRoot         func(target, root int64) int32
	wv2TargetDestroy         func(target int64)

	wv2CreateDebugWindow func(width, height int32) uintptr
)

var (
	bridgeOnce sync.Once
	bridgeErr  error
)

// initBridge loads the shim library once. An empty baseDir resolves the
// library through the standard DLL search path.
func initBridge(baseDir string) error {
	bridgeOnce.Do(func() {
		bridgeErr = doInitBridge(baseDir)
	})
	return bridgeErr
}

func doInitBridge(baseDir string) error {
	name := "wv2_bridge.dll"
	path := name
	if baseDir != "" {
		abs, err := filepath.Abs(filepath.Join(baseDir, name))
		if err == nil {
			path = abs
		}
	}

	lib, err := windows.LoadLibrary(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return resolveAllSymbols(uintptr(lib))
}

func resolveAllSymbols(handle uintptr) error {
	for _, reg := range []struct {
		fptr interface{}
		name string
	}{
		{&wv2Init, "wv2_init"},
		{&wv2Shutdown, "wv2_shutdown"},
		{&wv2CreateController, "wv2_create_controller"},
		{&wv2ControllerClose, "wv2_controller_close"},
		{&wv2SetBounds, "wv2_set_bounds"},
		{&wv2SetVisible, "wv2_set_visible"},
		{&wv2SetBoundsModeRaw, "wv2_set_bounds_mode_raw"},
		{&wv2SetRasterizationScale, "wv2_set_rasterization_scale"},
		{&wv2SetMonitorScaleTracking, "wv2_set_monitor_scale_tracking"},
		{&wv2SendMouseInput, "wv2_send_mouse_input"},
		{&wv2SetRootVisual, "wv2_set_root_visual"},
		{&wv2GetCursor, "wv2_get_cursor"},
		{&wv2SetEventCallback, "wv2_set_event_callback"},
		{&wv2ClearEventCallback, "wv2_clear_event_callback"},
		{&wv2Navigate, "wv2_navigate"},
		{&wv2NavigateToString, "wv2_navigate_to_string"},
		{&wv2Reload, "wv2_reload"},
		{&wv2GetSource, "wv2_get_source"},
		{&wv2GetTitle, "wv2_get_title"},
		{&wv2CallDevTools, "wv2_call_devtools"},
		{&wv2HasSettings, "wv2_has_settings"},
		{&wv2SetStatusBar, "wv2_set_status_bar"},
		{&wv2SetContextMenus, "wv2_set_context_menus"},
		{&wv2HasUserAgent, "wv2_has_user_agent"},
		{&wv2SetUserAgent, "wv2_set_user_agent"},
		{&wv2CompositorCreate, "wv2_compositor_create"},
		{&wv2CompositorClose, "wv2_compositor_close"},
		{&wv2CreateContainerVisual, "wv2_create_container_visual"},
		{&wv2CreateSpriteVisual, "wv2_create_sprite_visual"},
		{&wv2VisualSetSize, "wv2_visual_set_size"},
		{&wv2VisualSetVisible, "wv2_visual_set_visible"},
		{&wv2VisualFillParent, "wv2_visual_fill_parent"},
		{&wv2VisualInsertAtTop, "wv2_visual_insert_at_top"},
		{&wv2CreateWindowTarget, "wv2_create_window_target"},
		{&wv2TargetSetRoot, "wv2_target_set_root"},
		{&wv2TargetDestroy, "wv2_target_destroy"},
		{&wv2CreateDebugWindow, "wv2_create_debug_window"},
	} {
		if err := registerSymbol(reg.fptr, handle, reg.name); err != nil {
			return fmt.Errorf("%s: %w (rebuild wv2_bridge.dll)", reg.name, err)
		}
	}
	return nil
}

func registerSymbol(fptr interface{}, handle uintptr, name string) error {
	sym, err := windows.GetProcAddress(windows.Handle(handle), name)
	if err != nil {
		return err
	}
	if sym == 0 {
		return fmt.Errorf("symbol %q not found", name)
	}
	purego.RegisterFunc(fptr, sym)
	return nil
}
