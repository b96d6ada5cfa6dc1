package bridge

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/lislabs/flutter-webview-windows/internal/engine"
	"github.com/lislabs/flutter-webview-windows/internal/logger"
	"github.com/lislabs/flutter-webview-windows/internal/webview"
)

// InitializeResult is the payload returned by a successful initialize call.
type InitializeResult struct {
	SessionID int64 `json:"sessionId"`
}

// PluginOptions configures the transport root.
type PluginOptions struct {
	// OffscreenOnly suppresses the debug window for every session.
	OffscreenOnly bool

	// UserAgent, when non-empty, is applied to every new session on a
	// best-effort basis.
	UserAgent string
}

// Plugin is the transport root: it owns the session host and routes every
// boundary call either to session creation or to the bridge registered for
// the target session id.
type Plugin struct {
	host *webview.Host
	opts PluginOptions

	mu        sync.RWMutex
	instances map[int64]*Bridge
}

// NewPlugin creates the transport root on top of host.
func NewPlugin(host *webview.Host, opts PluginOptions) *Plugin {
	return &Plugin{
		host:      host,
		opts:      opts,
		instances: make(map[int64]*Bridge),
	}
}

// HandleMethod dispatches one boundary call. sessionID is ignored for
// initialize. Methods against unknown or disposed sessions fail with a
// stable error code instead of crashing.
func (p *Plugin) HandleMethod(method string, sessionID int64, args json.RawMessage, sink EventSink) (interface{}, error) {
	switch method {
	case MethodInitialize:
		return p.initialize(sink)
	case MethodDispose:
		return nil, p.dispose(sessionID)
	}

	p.mu.RLock()
	b, ok := p.instances[sessionID]
	p.mu.RUnlock()
	if !ok {
		return nil, &Error{Code: ErrorCodeUnknownSession}
	}

	return b.HandleMethod(method, args)
}

func (p *Plugin) initialize(sink EventSink) (interface{}, error) {
	id, wv, err := p.host.CreateWebview(p.opts.OffscreenOnly)
	if err != nil {
		if errors.Is(err, engine.ErrRuntimeUnavailable) {
			return nil, &Error{Code: ErrorCodeInitFailed, Message: "no usable browser runtime installed"}
		}
		return nil, &Error{Code: ErrorCodeInitFailed, Message: err.Error()}
	}

	if p.opts.UserAgent != "" && !wv.SetUserAgent(p.opts.UserAgent) {
		logger.Debug("user agent override unsupported by engine build")
	}

	b := NewBridge(id, wv, sink)
	p.mu.Lock()
	p.instances[id] = b
	p.mu.Unlock()

	return InitializeResult{SessionID: id}, nil
}

func (p *Plugin) dispose(sessionID int64) error {
	p.mu.Lock()
	b, ok := p.instances[sessionID]
	if ok {
		delete(p.instances, sessionID)
	}
	p.mu.Unlock()

	if !ok {
		return &Error{Code: ErrorCodeUnknownSession}
	}

	b.Close()
	if err := p.host.Dispose(sessionID); err != nil {
		logger.Errorf("disposing session %d failed: %v", sessionID, err)
	}
	return nil
}

// DisposeAll tears down every session, e.g. when a transport connection
// drops.
func (p *Plugin) DisposeAll() {
	p.mu.Lock()
	instances := p.instances
	p.instances = make(map[int64]*Bridge)
	p.mu.Unlock()

	for id, b := range instances {
		b.Close()
		if err := p.host.Dispose(id); err != nil {
			logger.Errorf("disposing session %d failed: %v", id, err)
		}
	}
}
