package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/lislabs/flutter-webview-windows/internal/bridge"
	"github.com/lislabs/flutter-webview-windows/internal/logger"
)

// MethodHandler executes one boundary method call. The sink is valid for
// the lifetime of the connection that carried the call.
type MethodHandler interface {
	HandleMethod(method string, sessionID int64, args json.RawMessage, sink bridge.EventSink) (interface{}, error)
}

// HandlerFactory builds a per-connection handler. Sessions created through
// a connection are torn down with it, so each connection gets its own
// handler instance.
type HandlerFactory func() (handler MethodHandler, onClose func())

// SocketServer accepts bridge connections over a unix socket.
type SocketServer struct {
	mu         sync.Mutex
	listener   net.Listener
	socketPath string
	factory    HandlerFactory
	maxClients int
	active     int
	wg         sync.WaitGroup
	cancel     context.CancelFunc
	running    bool
}

// NewSocketServer creates a server bound to socketPath.
func NewSocketServer(socketPath string, factory HandlerFactory) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		factory:    factory,
	}
}

// SetMaxClients limits concurrent connections; 0 means no limit. Takes
// effect for connections accepted after the call.
func (s *SocketServer) SetMaxClients(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxClients = n
}

// tryAcquireSlot reserves a connection slot, or reports the server full.
func (s *SocketServer) tryAcquireSlot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxClients > 0 && s.active >= s.maxClients {
		return false
	}
	s.active++
	return true
}

func (s *SocketServer) releaseSlot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active--
}

// Start begins accepting connections.
func (s *SocketServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	if err := os.RemoveAll(s.socketPath); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return err
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}

	// Socket is private to the current user.
	if err := os.Chmod(s.socketPath, 0o600); err != nil {
		listener.Close()
		return err
	}

	s.listener = listener
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.acceptConnections(ctx)

	logger.Infof("bridge socket server started at %s", s.socketPath)
	return nil
}

// Stop shuts the server down and waits for in-flight connections.
func (s *SocketServer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	s.running = false
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()

	os.RemoveAll(s.socketPath)
	logger.Info("bridge socket server stopped")
}

func (s *SocketServer) acceptConnections(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				logger.Errorf("failed to accept connection: %v", err)
				continue
			}
		}

		if !s.tryAcquireSlot() {
			logger.Warnf("rejecting connection: client limit reached")
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(ctx, conn)
	}
}

// connSink serializes event pushes onto one connection.
type connSink struct {
	mu   sync.Mutex
	conn net.Conn
}

func (c *connSink) Send(event bridge.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := writeFrame(c.conn, &Frame{Event: &event}); err != nil {
		logger.Debugf("failed to push event: %v", err)
	}
}

func (c *connSink) sendResponse(resp *Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return writeFrame(c.conn, &Frame{Response: resp})
}

func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer s.releaseSlot()
	defer conn.Close()

	connID := uuid.NewString()
	log := logger.With("conn", connID)
	log.Debug("bridge connection established")

	handler, onClose := s.factory()
	if onClose != nil {
		defer onClose()
	}

	sink := &connSink{conn: conn}

	// Close the connection when the server stops so the read loop exits.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		frame, err := readFrame(conn)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Debugf("connection closed: %v", err)
			}
			return
		}

		// Only requests are expected from the widget side; anything else
		// is dropped.
		if frame.Request == nil {
			continue
		}
		req := frame.Request

		result, err := handler.HandleMethod(req.Method, req.SessionID, req.Args, sink)
		resp := &Response{ID: req.ID}
		if err != nil {
			resp.Error = toWireError(err)
		} else {
			resp.OK = true
			resp.Result = result
		}

		if err := s.sendResponse(sink, resp); err != nil {
			log.Errorf("failed to send response: %v", err)
			return
		}
	}
}

func (s *SocketServer) sendResponse(sink *connSink, resp *Response) error {
	return sink.sendResponse(resp)
}

func toWireError(err error) *WireError {
	var bridgeErr *bridge.Error
	if errors.As(err, &bridgeErr) {
		return &WireError{Code: bridgeErr.Code, Message: bridgeErr.Message}
	}
	return &WireError{Code: "internal", Message: err.Error()}
}
