package session

import (
	"context"

	"github.com/oryx-bolt/go-bolt/bolt"
	"github.com/oryx-bolt/go-bolt/metrics"
)

// Transaction is an explicit transaction holding exclusive ownership of one
// pooled connection, please read @spec section 9 "Transaction ownership":
// it is a move-only handle, and whichever of Commit/Rollback/Close runs
// first is the one that releases the underlying connection back to the
// pool (which destroys it if it didn't come back to StateReady).
type Transaction struct {
	cl   *Client
	conn *bolt.Conn
	done bool
}

// Begin acquires a connection and opens a transaction on it. If prepare is
// nil an empty CommitPrepare is used.
func (cl *Client) Begin(ctx context.Context, prepare *bolt.CommitPrepare) (*Transaction, error) {
	c, err := cl.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if prepare == nil {
		prepare = bolt.NewCommitPrepare()
	}
	if err := c.Begin(prepare); err != nil {
		cl.pool.Release(c)
		return nil, err
	}
	return &Transaction{cl: cl, conn: c}, nil
}

// Run executes a statement inside the transaction and drains its result.
func (tx *Transaction) Run(q *Query) (*Result, error) {
	outcome, err := tx.conn.Run(q.Statement, q.Parameters, nil, true)
	if err != nil {
		return nil, err
	}
	pulled, err := drainPull(tx.conn, outcome.Qid)
	if err != nil {
		return nil, err
	}
	metrics.ObserveRecords(len(pulled.Records))
	rows, err := buildRows(outcome.Fields, pulled.Records)
	if err != nil {
		return nil, err
	}
	return &Result{Rows: rows}, nil
}

// Commit commits the transaction and releases the connection, returning the
// bookmark produced by the commit.
func (tx *Transaction) Commit() (Bookmark, error) {
	bookmark, err := tx.conn.Commit()
	tx.finish()
	return Bookmark(bookmark), err
}

// Rollback rolls the transaction back and releases the connection.
func (tx *Transaction) Rollback() error {
	err := tx.conn.Rollback()
	tx.finish()
	return err
}

// Close rolls the transaction back if it was never explicitly committed or
// rolled back. Safe to call after Commit or Rollback; it is then a no-op.
func (tx *Transaction) Close() error {
	if tx.done {
		return nil
	}
	return tx.Rollback()
}

func (tx *Transaction) finish() {
	if tx.done {
		return
	}
	tx.done = true
	tx.cl.pool.Release(tx.conn)
}
