package bolt

import (
	"bytes"
	"net"
	"time"
)

// fakeConn is a scripted net.Conn: reads are served from a fixed byte
// string (typically several chunked server messages concatenated back to
// back), writes are merely recorded for inspection.
type fakeConn struct {
	in     *bytes.Reader
	out    bytes.Buffer
	closed bool
}

func newFakeConn(script []byte) *fakeConn {
	return &fakeConn{in: bytes.NewReader(script)}
}

func (c *fakeConn) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *fakeConn) Write(p []byte) (int, error) { return c.out.Write(p) }
func (c *fakeConn) Close() error                { c.closed = true; return nil }
func (c *fakeConn) LocalAddr() net.Addr         { return fakeAddr{} }
func (c *fakeConn) RemoteAddr() net.Addr        { return fakeAddr{} }
func (c *fakeConn) SetDeadline(time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

type fakeAddr struct{}

func (fakeAddr) Network() string { return "fake" }
func (fakeAddr) String() string  { return "fake" }
