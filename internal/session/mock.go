package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
)

// ErrMockDialRefused is returned by MockDialer when no connection is queued.
var ErrMockDialRefused = errors.New("mock dial refused")

// MockDialer hands out queued MockConns; with an empty queue it refuses.
type MockDialer struct {
	mu    sync.Mutex
	conns []*MockConn
	dials []string
}

// NewMockDialer creates a dialer that serves conns in order.
func NewMockDialer(conns ...*MockConn) *MockDialer {
	return &MockDialer{conns: conns}
}

// Queue appends a connection for a later dial.
func (d *MockDialer) Queue(c *MockConn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conns = append(d.conns, c)
}

// Dial implements Dialer.
func (d *MockDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, url)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(d.conns) == 0 {
		return nil, ErrMockDialRefused
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

// Dials returns every url dialed so far.
func (d *MockDialer) Dials() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.dials...)
}

// MockConn is an in-memory Conn. Frames pushed with Push are read in order;
// writes are recorded as raw JSON.
type MockConn struct {
	frames chan []byte
	closed chan struct{}
	once   sync.Once

	mu     sync.Mutex
	writes [][]byte
	wrote  chan struct{}
}

// NewMockConn creates an open connection.
func NewMockConn() *MockConn {
	return &MockConn{
		frames: make(chan []byte, 64),
		closed: make(chan struct{}),
		wrote:  make(chan struct{}, 64),
	}
}

// Push queues an inbound frame.
func (c *MockConn) Push(frame []byte) {
	c.frames <- frame
}

// PushJSON queues v encoded as JSON.
func (c *MockConn) PushJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	c.Push(data)
}

// Drop simulates the peer closing the socket.
func (c *MockConn) Drop() {
	c.once.Do(func() { close(c.closed) })
}

// Writes returns the frames written so far.
func (c *MockConn) Writes() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.writes...)
}

// Wrote signals once per recorded write.
func (c *MockConn) Wrote() <-chan struct{} {
	return c.wrote
}

// Read implements Conn.
func (c *MockConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case frame := <-c.frames:
		return frame, nil
	case <-c.closed:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Write implements Conn.
func (c *MockConn) Write(_ context.Context, v any) error {
	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.writes = append(c.writes, data)
	c.mu.Unlock()
	select {
	case c.wrote <- struct{}{}:
	default:
	}
	return nil
}

// Close implements Conn.
func (c *MockConn) Close(string) error {
	c.Drop()
	return nil
}
