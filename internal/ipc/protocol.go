// Package ipc carries bridge traffic over a local unix socket using
// length-prefixed JSON frames.
package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lislabs/flutter-webview-windows/internal/bridge"
)

// maxFrameSize bounds a single frame; loadStringContent payloads are the
// largest legitimate messages.
const maxFrameSize = 16 << 20

// Request is one boundary method call.
type Request struct {
	ID        uint64          `json:"id"`
	Method    string          `json:"method"`
	SessionID int64           `json:"sessionId,omitempty"`
	Args      json.RawMessage `json:"args,omitempty"`
}

// Response answers exactly one request.
type Response struct {
	ID     uint64      `json:"id"`
	OK     bool        `json:"ok"`
	Result interface{} `json:"result,omitempty"`
	Error  *WireError  `json:"error,omitempty"`
}

// WireError mirrors bridge.Error on the wire.
type WireError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Frame is the union of everything that travels on the socket. A frame
// carries exactly one of Request, Response or Event; the others are nil.
// Frames with none set are dropped silently by both sides.
type Frame struct {
	Request  *Request      `json:"request,omitempty"`
	Response *Response     `json:"response,omitempty"`
	Event    *bridge.Event `json:"event,omitempty"`
}

// newRequest builds a request with marshalled args. A nil args leaves the
// field empty.
func newRequest(id uint64, method string, sessionID int64, args interface{}) (*Request, error) {
	req := &Request{ID: id, Method: method, SessionID: sessionID}
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal args: %w", err)
		}
		req.Args = data
	}
	return req, nil
}

// readFrame reads one length-prefixed JSON frame.
func readFrame(r io.Reader) (*Frame, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("failed to read frame length: %w", err)
	}
	if length > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read frame data: %w", err)
	}

	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("failed to unmarshal frame: %w", err)
	}
	return &frame, nil
}

// writeFrame writes one length-prefixed JSON frame.
func writeFrame(w io.Writer, frame *Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	length := uint32(len(data))
	if err := binary.Write(w, binary.BigEndian, length); err != nil {
		return fmt.Errorf("failed to write frame length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write frame data: %w", err)
	}
	return nil
}
