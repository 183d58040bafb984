// Package session is the application-facing layer on top of bolt and pool:
// auto-commit queries, explicit transactions, and the record rows they
// produce, please read @spec section 4.6/4.7/4.8.
package session

import (
	"context"

	"github.com/oryx-bolt/go-bolt/bolt"
	"github.com/oryx-bolt/go-bolt/metrics"
	"github.com/oryx-bolt/go-bolt/pool"
)

// connPool is the subset of *pool.Manager a Client needs; it exists so
// tests can substitute a scripted stand-in without dialing real sockets.
type connPool interface {
	Acquire(ctx context.Context) (*bolt.Conn, error)
	Release(c *bolt.Conn)
}

// Client runs queries against a pool of authenticated connections.
type Client struct {
	pool connPool
}

// NewClient builds a Client backed by a freshly constructed pool.Manager.
// Connections are dialed lazily, on first Acquire.
func NewClient(config pool.Config) *Client {
	return &Client{pool: pool.NewManager(config)}
}

func newClientWithPool(p connPool) *Client {
	return &Client{pool: p}
}

// Close releases every idle pooled connection. In-flight AutoCommit calls
// and open Transactions are unaffected.
func (cl *Client) Close() {
	if m, ok := cl.pool.(*pool.Manager); ok {
		m.Close()
	}
}

// Stats reports the underlying pool's in-use/idle split, satisfying
// metrics.PoolStatter so callers can feed it to metrics.SamplePool.
func (cl *Client) Stats() (inUse, idle int) {
	if m, ok := cl.pool.(*pool.Manager); ok {
		return m.Stats()
	}
	return 0, 0
}

// AutoCommit runs statement to completion on a single connection borrowed
// from the pool, implicitly committing it, please read @spec section 4.6
// "Auto-commit". If prepare is nil an empty CommitPrepare is used.
func (cl *Client) AutoCommit(ctx context.Context, q *Query, prepare *bolt.CommitPrepare) (*Result, error) {
	c, err := cl.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cl.pool.Release(c)

	if prepare == nil {
		prepare = bolt.NewCommitPrepare()
	}
	outcome, err := c.Run(q.Statement, q.Parameters, prepare, false)
	if err != nil {
		metrics.ObserveQuery(false)
		return nil, err
	}

	pulled, err := drainPull(c, outcome.Qid)
	if err != nil {
		metrics.ObserveQuery(false)
		return nil, err
	}
	metrics.ObserveRecords(len(pulled.Records))

	rows, err := buildRows(outcome.Fields, pulled.Records)
	if err != nil {
		metrics.ObserveQuery(false)
		return nil, err
	}
	metrics.ObserveQuery(true)
	return &Result{Rows: rows, Bookmark: bookmarkFromMetadata(pulled.Metadata)}, nil
}

// drainPull issues PULL(all) against qid repeatedly until HasMore is false,
// please read @spec section 4.6's streaming/more-available loop.
func drainPull(c *bolt.Conn, qid int64) (bolt.PullOutcome, error) {
	out, err := c.Pull(-1, qid)
	if err != nil {
		return bolt.PullOutcome{}, err
	}
	for out.HasMore {
		more, err := c.Pull(-1, qid)
		if err != nil {
			return bolt.PullOutcome{}, err
		}
		out.Records = append(out.Records, more.Records...)
		out.HasMore = more.HasMore
		out.Metadata = more.Metadata
	}
	return out, nil
}
