package bridge

import (
	"encoding/json"

	"github.com/lislabs/flutter-webview-windows/internal/webview"
)

// Bridge connects one webview session to the transport: it executes
// per-session methods and forwards engine events into the sink.
type Bridge struct {
	sessionID   int64
	webview     *webview.Webview
	sink        EventSink
	unsubscribe []func()
}

// NewBridge subscribes to the session's events and starts pushing them into
// sink. Call Close to detach.
func NewBridge(sessionID int64, wv *webview.Webview, sink EventSink) *Bridge {
	b := &Bridge{
		sessionID: sessionID,
		webview:   wv,
		sink:      sink,
	}
	b.registerEventHandlers()
	return b
}

// SessionID returns the opaque id routing calls to this bridge.
func (b *Bridge) SessionID() int64 {
	return b.sessionID
}

func (b *Bridge) registerEventHandlers() {
	b.unsubscribe = append(b.unsubscribe,
		b.webview.OnURLChanged(func(url string) {
			b.sink.Send(Event{SessionID: b.sessionID, Type: EventURLChanged, Value: url})
		}),
		b.webview.OnLoadingStateChanged(func(state webview.LoadingState) {
			b.sink.Send(Event{SessionID: b.sessionID, Type: EventLoadingStateChanged, Value: int(state)})
		}),
		b.webview.OnTitleChanged(func(title string) {
			b.sink.Send(Event{SessionID: b.sessionID, Type: EventTitleChanged, Value: title})
		}),
		b.webview.OnCursorChanged(func(cursor string) {
			b.sink.Send(Event{SessionID: b.sessionID, Type: EventCursorChanged, Value: cursor})
		}),
	)
}

// HandleMethod dispatches one boundary method against this session. The
// returned value is the method result; *Error carries a stable error code
// for the transport.
func (b *Bridge) HandleMethod(method string, args json.RawMessage) (interface{}, error) {
	switch method {
	case MethodLoadUrl:
		url, ok := stringArg(args)
		if !ok {
			return nil, errInvalidArgs("loadUrl expects a url string")
		}
		b.webview.LoadUrl(url)
		return nil, nil

	case MethodLoadStringContent:
		html, ok := stringArg(args)
		if !ok {
			return nil, errInvalidArgs("loadStringContent expects an html string")
		}
		b.webview.LoadStringContent(html)
		return nil, nil

	case MethodReload:
		b.webview.Reload()
		return nil, nil

	case MethodSetUserAgent:
		value, ok := stringArg(args)
		if !ok {
			return nil, errInvalidArgs("setUserAgent expects a string")
		}
		return b.webview.SetUserAgent(value), nil

	case MethodClearCookies:
		return b.webview.ClearCookies(), nil

	case MethodSetSize:
		width, height, ok := pointArgs(args)
		if !ok {
			return nil, errInvalidArgs("setSize expects [width, height]")
		}
		b.webview.SetSurfaceSize(uint32(width), uint32(height))
		return nil, nil

	case MethodSetCursorPos:
		x, y, ok := pointArgs(args)
		if !ok {
			return nil, errInvalidArgs("setCursorPos expects [x, y]")
		}
		b.webview.SetCursorPos(x, y)
		return nil, nil

	case MethodSetPointerButton:
		var pb pointerButtonArgs
		if err := json.Unmarshal(args, &pb); err != nil || pb.Button == nil || pb.IsDown == nil {
			return nil, errInvalidArgs("setPointerButton expects {button, isDown}")
		}
		b.webview.SetPointerButtonState(webview.PointerButton(*pb.Button), *pb.IsDown)
		return nil, nil

	case MethodSetScrollDelta:
		dx, dy, ok := pointArgs(args)
		if !ok {
			return nil, errInvalidArgs("setScrollDelta expects [dx, dy]")
		}
		b.webview.SetScrollDelta(dx, dy)
		return nil, nil

	default:
		return nil, &Error{Code: ErrorCodeNotImplemented, Message: method}
	}
}

// Close detaches the bridge from the session's events. The session itself
// is owned by the host and disposed separately.
func (b *Bridge) Close() {
	for _, cancel := range b.unsubscribe {
		cancel()
	}
	b.unsubscribe = nil
}
