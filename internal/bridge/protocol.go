// Package bridge is the transport-facing seam of the webview host: it maps
// boundary method calls onto webview sessions and pushes engine events back
// out as type-tagged envelopes.
package bridge

import "encoding/json"

// Boundary method names. These are the wire contract with the widget side.
const (
	MethodInitialize        = "initialize"
	MethodDispose           = "dispose"
	MethodLoadUrl           = "loadUrl"
	MethodLoadStringContent = "loadStringContent"
	MethodReload            = "reload"
	MethodSetUserAgent      = "setUserAgent"
	MethodClearCookies      = "clearCookies"
	MethodSetSize           = "setSize"
	MethodSetCursorPos      = "setCursorPos"
	MethodSetPointerButton  = "setPointerButton"
	MethodSetScrollDelta    = "setScrollDelta"
)

// Boundary event type discriminators.
const (
	EventURLChanged          = "urlChanged"
	EventLoadingStateChanged = "loadingStateChanged"
	EventTitleChanged        = "titleChanged"
	EventCursorChanged       = "cursorChanged"
)

// Error codes reported to the transport.
const (
	ErrorCodeInvalidArgs    = "invalidArguments"
	ErrorCodeNotImplemented = "notImplemented"
	ErrorCodeUnknownSession = "unknownSession"
	ErrorCodeInitFailed     = "initializationFailed"
)

// Event is one engine-originated notification, tagged with the session it
// belongs to. Value is the event-type-specific payload; loadingStateChanged
// carries the raw LoadingState ordinal.
type Event struct {
	SessionID int64       `json:"sessionId"`
	Type      string      `json:"type"`
	Value     interface{} `json:"value"`
}

// EventSink receives boundary events. Implementations must tolerate being
// called from the engine's dispatch thread.
type EventSink interface {
	Send(Event)
}

// Error is a transport-visible failure with a stable code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

func errInvalidArgs(msg string) *Error {
	return &Error{Code: ErrorCodeInvalidArgs, Message: msg}
}

// pointArgs decodes the two-element float array used by setCursorPos,
// setScrollDelta and setSize.
func pointArgs(args json.RawMessage) (float64, float64, bool) {
	var pair []float64
	if err := json.Unmarshal(args, &pair); err != nil || len(pair) != 2 {
		return 0, 0, false
	}
	return pair[0], pair[1], true
}

// stringArg decodes a bare JSON string argument.
func stringArg(args json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(args, &s); err != nil {
		return "", false
	}
	return s, true
}

// pointerButtonArgs decodes the setPointerButton argument object.
type pointerButtonArgs struct {
	Button *int  `json:"button"`
	IsDown *bool `json:"isDown"`
}
