// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"
)

// ErrConnDropped is returned by [MockConn.Read] once the connection has been dropped.
var ErrConnDropped = errors.New("connection dropped")

// MockConn is an in-memory message connection. It satisfies session.Conn.
type MockConn struct {
	inbound chan []byte
	done    chan struct{}
	once    sync.Once

	mu      sync.Mutex
	written [][]byte
	pingErr error
	writes  chan []byte
	closed  bool
}

func NewMockConn() *MockConn {
	return &MockConn{
		inbound: make(chan []byte, 64),
		done:    make(chan struct{}),
		writes:  make(chan []byte, 64),
	}
}

// Push queues an inbound frame for Read.
func (c *MockConn) Push(data []byte) {
	c.inbound <- data
}

// Drop simulates the remote end going away.
func (c *MockConn) Drop() {
	c.once.Do(func() { close(c.done) })
}

func (c *MockConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case <-c.done:
		return nil, ErrConnDropped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *MockConn) Write(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnDropped
	}
	c.written = append(c.written, data)
	select {
	case c.writes <- data:
	default:
	}
	return nil
}

func (c *MockConn) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pingErr
}

func (c *MockConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.Drop()
	return nil
}

// SetPingError makes subsequent pings fail.
func (c *MockConn) SetPingError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pingErr = err
}

// Written returns a copy of every frame written so far.
func (c *MockConn) Written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.written))
	copy(out, c.written)
	return out
}

// Writes streams written frames as they arrive.
func (c *MockConn) Writes() <-chan []byte {
	return c.writes
}

// Closed reports whether Close was called.
func (c *MockConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// MockDialer hands out queued connections or errors in order.
// Once the queue is exhausted every Dial fails with [ErrNoConn].
type MockDialer struct {
	mu     sync.Mutex
	queue  []dialResult
	dials  int
	dialed chan *MockConn
}

// ErrNoConn is returned by [MockDialer] when nothing is queued.
var ErrNoConn = errors.New("no connection queued")

type dialResult struct {
	conn *MockConn
	err  error
}

func NewMockDialer() *MockDialer {
	return &MockDialer{dialed: make(chan *MockConn, 16)}
}

// Queue adds a connection that the next Dial will return.
func (d *MockDialer) Queue(c *MockConn) *MockDialer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, dialResult{conn: c})
	return d
}

// Fail adds a dial failure.
func (d *MockDialer) Fail(err error) *MockDialer {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queue = append(d.queue, dialResult{err: err})
	return d
}

// Next returns the next queued result.
func (d *MockDialer) Next(ctx context.Context) (*MockConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.dials++
	if len(d.queue) == 0 {
		d.mu.Unlock()
		return nil, ErrNoConn
	}
	next := d.queue[0]
	d.queue = d.queue[1:]
	d.mu.Unlock()

	if next.err != nil {
		return nil, next.err
	}
	select {
	case d.dialed <- next.conn:
	default:
	}
	return next.conn, nil
}

// Dials counts Dial attempts, failed or not.
func (d *MockDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// Dialed streams every successfully handed out connection.
func (d *MockDialer) Dialed() <-chan *MockConn {
	return d.dialed
}

// Eventually polls cond until it holds or the timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

// Receive waits for one value from ch or fails the test.
func Receive[T any](t *testing.T, ch <-chan T, timeout time.Duration) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		var zero T
		t.Fatalf("nothing received within %v", timeout)
		return zero
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
