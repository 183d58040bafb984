package session

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/oryx-bolt/go-bolt/bolt"
	"github.com/oryx-bolt/go-bolt/packstream"
	"github.com/stretchr/testify/require"
)

// fakeNetConn is a minimal net.Conn backed by a scripted server byte stream
// and a buffer capturing everything the client writes, for wire-level
// assertions (e.g. bookmark chaining, below).
type fakeNetConn struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newFakeNetConn(script []byte) *fakeNetConn { return &fakeNetConn{in: bytes.NewReader(script)} }

func (c *fakeNetConn) Read(p []byte) (int, error)       { return c.in.Read(p) }
func (c *fakeNetConn) Write(p []byte) (int, error)      { return c.out.Write(p) }
func (c *fakeNetConn) Close() error                     { return nil }
func (c *fakeNetConn) LocalAddr() net.Addr              { return fakeAddr{} }
func (c *fakeNetConn) RemoteAddr() net.Addr             { return fakeAddr{} }
func (c *fakeNetConn) SetDeadline(time.Time) error      { return nil }
func (c *fakeNetConn) SetReadDeadline(time.Time) error  { return nil }
func (c *fakeNetConn) SetWriteDeadline(time.Time) error { return nil }

type fakeAddr struct{}

func (fakeAddr) Network() string { return "fake" }
func (fakeAddr) String() string  { return "fake" }

func wireMessage(t *testing.T, payload []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bolt.NewChunkWriter(&buf, bolt.NewChunkConfig())
	require.NoError(t, w.WriteMessage(payload))
	return buf.Bytes()
}

func wireSuccess(t *testing.T, m *packstream.Map) []byte {
	t.Helper()
	payload, err := packstream.EncodeStructure(bolt.TagSuccess, packstream.MapValue(m))
	require.NoError(t, err)
	return wireMessage(t, payload)
}

func wireRecord(t *testing.T, values ...packstream.Value) []byte {
	t.Helper()
	payload, err := packstream.EncodeStructure(bolt.TagRecord, packstream.ListValue(values...))
	require.NoError(t, err)
	return wireMessage(t, payload)
}

func wireFailure(t *testing.T, code, message string) []byte {
	t.Helper()
	m := packstream.NewMap()
	m.Set("code", packstream.TextValue(code))
	m.Set("message", packstream.TextValue(message))
	payload, err := packstream.EncodeStructure(bolt.TagFailure, packstream.MapValue(m))
	require.NoError(t, err)
	return wireMessage(t, payload)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// newReadyConn drives a fresh *bolt.Conn through HELLO so it starts in
// StateReady, with the rest of script queued up behind it as further
// scripted server replies.
func newReadyConn(t *testing.T, script []byte) (*bolt.Conn, *fakeNetConn) {
	t.Helper()
	full := concat(wireSuccess(t, packstream.NewMap()), script)
	nc := newFakeNetConn(full)
	c := bolt.NewConn(nc, bolt.NewChunkConfig())
	require.NoError(t, c.Hello("go-bolt-test/1.0", "basic", "neo4j", "secret"))
	return c, nc
}

// fakePool is a trivial FIFO connPool backed by a preloaded slice of
// connections, enough for sequential (non-concurrent) session tests.
type fakePool struct {
	conns []*bolt.Conn
}

func (p *fakePool) Acquire(ctx context.Context) (*bolt.Conn, error) {
	c := p.conns[0]
	p.conns = p.conns[1:]
	return c, nil
}

func (p *fakePool) Release(c *bolt.Conn) {
	p.conns = append(p.conns, c)
}

func successWithFields(t *testing.T, fields ...string) []byte {
	t.Helper()
	fs := make([]packstream.Value, len(fields))
	for i, f := range fields {
		fs[i] = packstream.TextValue(f)
	}
	m := packstream.NewMap()
	m.Set("fields", packstream.ListValue(fs...))
	return wireSuccess(t, m)
}

func successWithBookmark(t *testing.T, bookmark string) []byte {
	t.Helper()
	m := packstream.NewMap()
	m.Set("bookmark", packstream.TextValue(bookmark))
	return wireSuccess(t, m)
}

// TestAutoCommitRunsAndDrainsRecords covers @spec section 8 scenario 1:
// a single auto-commit query returning a handful of rows.
func TestAutoCommitRunsAndDrainsRecords(t *testing.T) {
	script := concat(
		successWithFields(t, "n.name"),
		wireRecord(t, packstream.TextValue("Alice")),
		wireRecord(t, packstream.TextValue("Bob")),
		successWithBookmark(t, "bm:1"),
	)
	c, _ := newReadyConn(t, script)
	cl := newClientWithPool(&fakePool{conns: []*bolt.Conn{c}})

	res, err := cl.AutoCommit(context.Background(), NewQuery("MATCH (n) RETURN n.name"), nil)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	name, ok := res.Rows[0].Get("n.name")
	require.True(t, ok, "row 0 missing n.name")
	s, _ := name.Text()
	require.Equal(t, "Alice", s)
	require.Equal(t, Bookmark("bm:1"), res.Bookmark)
}

// TestBookmarkChaining covers @spec section 8 scenario 2: the bookmark
// from one auto-commit query's commit is threaded into the next query's
// CommitPrepare, and must appear on the wire in its RUN's extra map.
func TestBookmarkChaining(t *testing.T) {
	script := concat(
		successWithFields(t, "n"),
		successWithBookmark(t, "bm:first"),
		successWithFields(t, "n"),
		successWithBookmark(t, "bm:second"),
	)
	c, nc := newReadyConn(t, script)
	cl := newClientWithPool(&fakePool{conns: []*bolt.Conn{c}})

	first, err := cl.AutoCommit(context.Background(), NewQuery("CREATE (n) RETURN n"), nil)
	require.NoError(t, err)
	require.Equal(t, Bookmark("bm:first"), first.Bookmark)

	prepare := bolt.NewCommitPrepare().AddBookmark(string(first.Bookmark))
	_, err = cl.AutoCommit(context.Background(), NewQuery("MATCH (n) RETURN n"), prepare)
	require.NoError(t, err)

	// Walk every chunked message the client actually wrote and find the
	// second RUN (the first has an empty extra map; the second must carry
	// bm:first in its bookmarks list).
	r := bolt.NewChunkReader(bytes.NewReader(nc.out.Bytes()))
	var runExtras []*packstream.Map
	for {
		payload, err := r.ReadMessage()
		if err != nil {
			break
		}
		fields, _, err := packstream.DecodeStructure(payload, bolt.TagRun)
		if err != nil || len(fields) != 3 {
			continue
		}
		m, ok := fields[2].Map()
		if !ok {
			continue
		}
		runExtras = append(runExtras, m)
	}
	require.Len(t, runExtras, 2)

	bv, ok := runExtras[1].Get("bookmarks")
	require.True(t, ok, "second RUN's extra has no bookmarks field")
	list, _ := bv.List()
	require.Len(t, list, 1)
	s, _ := list[0].Text()
	require.Equal(t, "bm:first", s)
}

// TestTransactionCommitDrainsEachRun covers @spec section 8 scenario 3: an
// explicit transaction running two statements before committing.
func TestTransactionCommitDrainsEachRun(t *testing.T) {
	script := concat(
		wireSuccess(t, packstream.NewMap()), // BEGIN
		successWithFields(t, "x"),
		wireRecord(t, packstream.IntValue(1)),
		wireSuccess(t, packstream.NewMap()), // PULL terminal (no bookmark mid-tx)
		successWithFields(t, "y"),
		wireRecord(t, packstream.IntValue(2)),
		wireSuccess(t, packstream.NewMap()),
		successWithBookmark(t, "bm:tx"),
	)
	c, _ := newReadyConn(t, script)
	cl := newClientWithPool(&fakePool{conns: []*bolt.Conn{c}})

	tx, err := cl.Begin(context.Background(), nil)
	require.NoError(t, err)

	r1, err := tx.Run(NewQuery("RETURN 1 AS x"))
	require.NoError(t, err)
	require.Len(t, r1.Rows, 1)

	r2, err := tx.Run(NewQuery("RETURN 2 AS y"))
	require.NoError(t, err)
	require.Len(t, r2.Rows, 1)

	bookmark, err := tx.Commit()
	require.NoError(t, err)
	require.Equal(t, Bookmark("bm:tx"), bookmark)

	// Close after Commit must be a no-op, not a second ROLLBACK.
	require.NoError(t, tx.Close())
}

// TestTransactionCloseRollsBackUncommitted covers the move-only-handle
// semantics from @spec section 9: an abandoned Transaction rolls back via
// Close, and the connection is released back to the pool either way.
func TestTransactionCloseRollsBackUncommitted(t *testing.T) {
	script := concat(
		wireSuccess(t, packstream.NewMap()), // BEGIN
		wireSuccess(t, packstream.NewMap()), // ROLLBACK
	)
	c, _ := newReadyConn(t, script)
	p := &fakePool{conns: []*bolt.Conn{c}}
	cl := newClientWithPool(p)

	tx, err := cl.Begin(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, tx.Close())
	require.Len(t, p.conns, 1, "connection was not released back to the pool")
	require.Equal(t, bolt.StateReady, c.State())
}

// TestAutoCommitRejectsFieldRecordMismatch covers the Record result row
// cardinality invariant from @spec section 3.
func TestAutoCommitRejectsFieldRecordMismatch(t *testing.T) {
	script := concat(
		successWithFields(t, "a", "b"),
		wireRecord(t, packstream.IntValue(1)), // only one value for two fields
		wireSuccess(t, packstream.NewMap()),
	)
	c, _ := newReadyConn(t, script)
	cl := newClientWithPool(&fakePool{conns: []*bolt.Conn{c}})

	_, err := cl.AutoCommit(context.Background(), NewQuery("RETURN 1 AS a, 2 AS b"), nil)
	require.Equal(t, ErrFieldsRecordMismatch, err)
}

// TestAutoCommitFailurePropagates covers @spec section 8 scenario 4: a
// syntax error surfaces as a FailureError and the connection ends up
// Failed, so pool.Manager.Release would destroy it rather than reuse it.
func TestAutoCommitFailurePropagates(t *testing.T) {
	script := wireFailure(t, "Neo.ClientError.Statement.SyntaxError", "bad syntax")
	c, _ := newReadyConn(t, script)
	cl := newClientWithPool(&fakePool{conns: []*bolt.Conn{c}})

	_, err := cl.AutoCommit(context.Background(), NewQuery("not cypher"), nil)
	require.Error(t, err)
	_, ok := err.(*bolt.FailureError)
	require.True(t, ok, "err = %T, want *bolt.FailureError", err)
	require.Equal(t, bolt.StateFailed, c.State())
}
