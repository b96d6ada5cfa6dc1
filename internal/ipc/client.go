package ipc

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/lislabs/flutter-webview-windows/internal/bridge"
)

// ErrClientClosed is returned when calling on a closed client
var ErrClientClosed = errors.New("ipc client is closed")

// defaultCallTimeout bounds how long Call waits for a response.
const defaultCallTimeout = 10 * time.Second

// Client is a minimal bridge-socket client, used by tools and integration
// tests. Responses are matched to requests by id; events are delivered to
// the OnEvent callback.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	nextID  uint64
	pending map[uint64]chan *Response
	onEvent func(bridge.Event)
	closed  bool
}

// Dial connects to the bridge socket. onEvent may be nil.
func Dial(socketPath string, onEvent func(bridge.Event)) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to bridge socket: %w", err)
	}

	c := &Client{
		conn:    conn,
		pending: make(map[uint64]chan *Response),
		onEvent: onEvent,
	}
	go c.readLoop()
	return c, nil
}

// Call sends one request and waits for its response.
func (c *Client) Call(method string, sessionID int64, args interface{}) (*Response, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	c.nextID++
	id := c.nextID
	ch := make(chan *Response, 1)
	c.pending[id] = ch

	req, err := newRequest(id, method, sessionID, args)
	if err == nil {
		err = writeFrame(c.conn, &Frame{Request: req})
	}
	if err != nil {
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	select {
	case resp := <-ch:
		if resp == nil {
			return nil, ErrClientClosed
		}
		return resp, nil
	case <-time.After(defaultCallTimeout):
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("call %s timed out", method)
	}
}

// Close tears the connection down; pending calls fail.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.mu.Unlock()

	return conn.Close()
}

func (c *Client) readLoop() {
	for {
		frame, err := readFrame(c.conn)
		if err != nil {
			c.failPending()
			return
		}

		switch {
		case frame.Response != nil:
			c.mu.Lock()
			ch, ok := c.pending[frame.Response.ID]
			if ok {
				delete(c.pending, frame.Response.ID)
			}
			c.mu.Unlock()
			if ok {
				ch <- frame.Response
			}
		case frame.Event != nil:
			if c.onEvent != nil {
				c.onEvent(*frame.Event)
			}
		}
		// Frames with neither set are dropped.
	}
}

func (c *Client) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}
