// Package webview2 is the native backend binding the engine and compositor
// ports to the platform's browser runtime and composition API.
//
// The binding goes through a small C shim library (wv2_bridge.dll) exposing
// a flat, handle-based API over the COM surface; Go talks to it with
// purego-registered functions and receives engine events through a single
// callback trampoline. On non-windows platforms every constructor reports
// engine.ErrRuntimeUnavailable.
package webview2
