package bolt

import (
	"fmt"
	"net"

	"github.com/oryx-bolt/go-bolt/boltlog"
	"github.com/oryx-bolt/go-bolt/packstream"
)

// Conn is a single Bolt connection and its state machine, please read @spec
// section 4.4. A Conn is not safe for concurrent use: it is meant to be
// owned exclusively by one caller (directly, or through a pool.Manager) for
// the lifetime of a request/response exchange.
type Conn struct {
	nc      net.Conn
	cw      *ChunkWriter
	cr      *ChunkReader
	config  ChunkConfig
	version Version
	state   State
	cid     int
}

// Dial opens a TCP connection to addr and wraps it as a Conn in
// StateConnected. It does not perform the handshake or HELLO; call
// Handshake then Hello.
func Dial(network, addr string, config ChunkConfig) (c *Conn, err error) {
	nc, err := net.Dial(network, addr)
	if err != nil {
		return nil, fmt.Errorf("bolt: dial %v failed, %v", addr, err)
	}
	return NewConn(nc, config), nil
}

// NewConn wraps an already-established net.Conn.
func NewConn(nc net.Conn, config ChunkConfig) *Conn {
	if config.ChunkCapacity == 0 {
		config = NewChunkConfig()
	}
	return &Conn{
		nc:     nc,
		cw:     NewChunkWriter(nc, config),
		cr:     NewChunkReader(nc),
		config: config,
		state:  StateConnected,
		cid:    boltlog.NextCid(),
	}
}

// Cid implements boltlog.Context.
func (c *Conn) Cid() int { return c.cid }

// State returns the connection's current state.
func (c *Conn) State() State { return c.state }

// Version returns the negotiated version, valid only after Handshake.
func (c *Conn) Version() Version { return c.version }

// Handshake performs version negotiation over the raw socket (handshake
// bytes are never chunked), please read @spec section 4.3. On
// ErrVersionsNotSupported the connection is closed.
func (c *Conn) Handshake(proposal [4]Version) (err error) {
	v, err := bHandshake(c.nc, proposal)
	if err != nil {
		c.state = StateClosed
		c.nc.Close()
		return err
	}
	c.version = v
	boltlog.T(c, "bolt: handshake negotiated version", v.Major, v.Minor)
	return nil
}

// bHandshake is a package-private indirection point so tests can swap in a
// fake reader/writer pair without touching the exported Handshake helper.
var bHandshake = Handshake

// Hello sends the HELLO request and, on SUCCESS, moves the connection to
// StateReady. On FAILURE it returns an *AuthenticationError and moves the
// connection to StateClosed, please read @spec section 4.4.
func (c *Conn) Hello(userAgent, scheme, principal, credentials string) error {
	extra := helloExtra(userAgent, scheme, principal, credentials)
	if err := c.send(TagHello, packstream.MapValue(extra)); err != nil {
		return err
	}
	resp, err := c.recv()
	if err != nil {
		c.state = StateClosed
		return err
	}
	switch resp.Kind {
	case RespSuccess:
		c.state = StateReady
		return nil
	case RespFailure:
		c.state = StateClosed
		return authenticationError(resp.Metadata)
	default:
		c.state = StateClosed
		return ErrUnexpectedResponse
	}
}

// Goodbye sends the GOODBYE request (which gets no response) and closes the
// underlying socket, please read @spec section 4.4.
func (c *Conn) Goodbye() error {
	err := c.send(TagGoodbye)
	c.state = StateClosed
	if cerr := c.nc.Close(); err == nil {
		err = cerr
	}
	return err
}

// Reset sends RESET, which always returns the connection to StateReady on
// SUCCESS regardless of its prior state, please read @spec section 4.4.
func (c *Conn) Reset() error {
	if err := c.send(TagReset); err != nil {
		return err
	}
	resp, err := c.recv()
	if err != nil {
		c.state = StateClosed
		return err
	}
	if resp.Kind != RespSuccess {
		c.state = StateClosed
		return ErrUnexpectedResponse
	}
	c.state = StateReady
	return nil
}

// RunOutcome is the result of a successful RUN.
type RunOutcome struct {
	Fields []string
	Qid    int64
}

// Run sends RUN for an auto-commit statement (inTransaction false) or for a
// statement inside an already-open transaction (inTransaction true), please
// read @spec section 4.6. The extra map is only populated from prepare when
// not inTransaction; a RUN inside a transaction carries an empty extra.
func (c *Conn) Run(statement string, params *packstream.Map, prepare *CommitPrepare, inTransaction bool) (RunOutcome, error) {
	if params == nil {
		params = packstream.NewMap()
	}
	var extra *packstream.Map
	if inTransaction {
		extra = packstream.NewMap()
	} else {
		extra = prepare.toMap()
	}

	if err := c.send(TagRun, packstream.TextValue(statement), packstream.MapValue(params), packstream.MapValue(extra)); err != nil {
		return RunOutcome{}, err
	}
	resp, err := c.recv()
	if err != nil {
		c.state = StateFailed
		return RunOutcome{}, err
	}
	switch resp.Kind {
	case RespSuccess:
		if inTransaction {
			c.state = StateInTransactionStreaming
		} else {
			c.state = StateStreaming
		}
		return RunOutcome{Fields: successFields(resp.Metadata), Qid: successQid(resp.Metadata)}, nil
	case RespFailure:
		c.state = StateFailed
		return RunOutcome{}, failureError(resp.Metadata)
	default:
		c.state = StateFailed
		return RunOutcome{}, ErrUnexpectedResponse
	}
}

// Begin sends BEGIN, moving the connection to StateInTransaction on
// SUCCESS, please read @spec section 4.7.
func (c *Conn) Begin(prepare *CommitPrepare) error {
	if err := c.send(TagBegin, packstream.MapValue(prepare.toMap())); err != nil {
		return err
	}
	resp, err := c.recv()
	if err != nil {
		c.state = StateFailed
		return err
	}
	switch resp.Kind {
	case RespSuccess:
		c.state = StateInTransaction
		return nil
	case RespFailure:
		c.state = StateFailed
		return failureError(resp.Metadata)
	default:
		c.state = StateFailed
		return ErrUnexpectedResponse
	}
}

// Commit sends COMMIT and returns the bookmark carried by its SUCCESS,
// please read @spec section 4.7. ErrNoBookmarkInCommit is returned if the
// server's SUCCESS omits the bookmark field.
func (c *Conn) Commit() (string, error) {
	if err := c.send(TagCommit); err != nil {
		return "", err
	}
	resp, err := c.recv()
	if err != nil {
		c.state = StateFailed
		return "", err
	}
	switch resp.Kind {
	case RespSuccess:
		c.state = StateReady
		bookmark, ok := bookmarkFrom(resp.Metadata)
		if !ok {
			return "", ErrNoBookmarkInCommit
		}
		return bookmark, nil
	case RespFailure:
		c.state = StateFailed
		return "", failureError(resp.Metadata)
	default:
		c.state = StateFailed
		return "", ErrUnexpectedResponse
	}
}

// Rollback sends ROLLBACK, returning the connection to StateReady on
// SUCCESS.
func (c *Conn) Rollback() error {
	if err := c.send(TagRollback); err != nil {
		return err
	}
	resp, err := c.recv()
	if err != nil {
		c.state = StateFailed
		return err
	}
	switch resp.Kind {
	case RespSuccess:
		c.state = StateReady
		return nil
	case RespFailure:
		c.state = StateFailed
		return failureError(resp.Metadata)
	default:
		c.state = StateFailed
		return ErrUnexpectedResponse
	}
}

// PullOutcome is the result of a PULL or DISCARD exchange.
type PullOutcome struct {
	// HasMore is true when the result stream is not yet exhausted (the
	// caller must PULL/DISCARD again to keep draining it).
	HasMore bool
	// Ignored is true when the very first response was IGNORED: the
	// connection was already Failed and this request never ran.
	Ignored bool
	// Records accumulates each RECORD's field list; always empty for
	// Discard.
	Records [][]packstream.Value
	// Metadata is the terminal SUCCESS metadata (bookmark, t_last, etc.)
	// once HasMore is false.
	Metadata *packstream.Map
}

// Pull sends PULL for n records (n == -1 means "all") against qid (-1 means
// "the last opened stream") and accumulates every RECORD, please read @spec
// section 4.6.
func (c *Conn) Pull(n, qid int64) (PullOutcome, error) {
	return c.pull(TagPull, n, qid, true)
}

// Discard behaves like Pull but drops every RECORD instead of accumulating
// it, please read @spec section 4.6.
func (c *Conn) Discard(n, qid int64) (PullOutcome, error) {
	return c.pull(TagDiscard, n, qid, false)
}

func (c *Conn) pull(tag byte, n, qid int64, accumulate bool) (PullOutcome, error) {
	if err := c.send(tag, packstream.MapValue(pullExtra(n, qid))); err != nil {
		return PullOutcome{}, err
	}

	var records [][]packstream.Value
	first := true
	for {
		resp, err := c.recv()
		if err != nil {
			c.state = StateFailed
			return PullOutcome{}, err
		}
		switch resp.Kind {
		case RespRecord:
			if accumulate {
				records = append(records, resp.Data)
			}
			first = false
		case RespSuccess:
			if successHasMore(resp.Metadata) {
				// Streaming (or InTransactionStreaming) is unchanged: more
				// RECORDs are still to come for this query.
				return PullOutcome{HasMore: true, Records: records}, nil
			}
			c.endStream()
			return PullOutcome{Records: records, Metadata: resp.Metadata}, nil
		case RespIgnored:
			if !first {
				c.state = StateFailed
				return PullOutcome{}, ErrUnexpectedResponse
			}
			// The connection was already Failed; state is left untouched
			// until an explicit Reset, please read @spec section 4.4.
			return PullOutcome{Ignored: true}, nil
		case RespFailure:
			c.state = StateFailed
			return PullOutcome{}, failureError(resp.Metadata)
		default:
			c.state = StateFailed
			return PullOutcome{}, ErrUnexpectedResponse
		}
	}
}

func (c *Conn) endStream() {
	switch c.state {
	case StateStreaming:
		c.state = StateReady
	case StateInTransactionStreaming:
		c.state = StateInTransaction
	}
}

func (c *Conn) send(tag byte, fields ...packstream.Value) error {
	payload, err := packstream.EncodeStructure(tag, fields...)
	if err != nil {
		return fmt.Errorf("bolt: encode request 0x%02x failed, %v", tag, err)
	}
	if err := c.cw.WriteMessage(payload); err != nil {
		return fmt.Errorf("bolt: write message failed, %v", err)
	}
	return nil
}

func (c *Conn) recv() (Response, error) {
	payload, err := c.cr.ReadMessage()
	if err != nil {
		return Response{}, fmt.Errorf("bolt: read message failed, %v", err)
	}
	resp, err := decodeResponse(payload)
	if err != nil {
		return Response{}, fmt.Errorf("bolt: decode response failed, %v", err)
	}
	if resp.Kind == RespFailure {
		boltlog.W(c, "bolt: server failure", resp.Metadata)
	}
	return resp, nil
}

// Close closes the underlying socket without sending GOODBYE. Prefer
// Goodbye for a clean shutdown; Close is for abandoning a broken
// connection.
func (c *Conn) Close() error {
	c.state = StateClosed
	return c.nc.Close()
}
