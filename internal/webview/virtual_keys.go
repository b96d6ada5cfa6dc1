package webview

import "github.com/lislabs/flutter-webview-windows/internal/engine"

// virtualKeyState tracks which mouse buttons are currently held so every
// injected event carries a consistent virtual-key bitmask, not just the
// button it is about.
type virtualKeyState struct {
	leftDown   bool
	rightDown  bool
	middleDown bool
}

func (v *virtualKeyState) setLeftDown(down bool)   { v.leftDown = down }
func (v *virtualKeyState) setRightDown(down bool)  { v.rightDown = down }
func (v *virtualKeyState) setMiddleDown(down bool) { v.middleDown = down }

// state folds the held buttons into the engine's bitmask.
func (v *virtualKeyState) state() engine.VirtualKeys {
	keys := engine.VirtualKeyNone
	if v.leftDown {
		keys |= engine.VirtualKeyLeftButton
	}
	if v.rightDown {
		keys |= engine.VirtualKeyRightButton
	}
	if v.middleDown {
		keys |= engine.VirtualKeyMiddleButton
	}
	return keys
}
