package session

import "github.com/oryx-bolt/go-bolt/packstream"

// Bookmark is an opaque causal-ordering token returned by a COMMIT, please
// read @spec section 4.7. Chain it into a following Query's CommitPrepare
// via bolt.CommitPrepare.AddBookmark to make that query wait for this one.
type Bookmark string

// Result is the outcome of a completed query: its rows plus, for an
// auto-commit query, the bookmark its implicit commit produced.
type Result struct {
	Rows     []*RecordRow
	Bookmark Bookmark
}

// Query pairs a Cypher statement with its parameters.
type Query struct {
	Statement  string
	Parameters *packstream.Map
}

// NewQuery returns a parameterless Query for statement.
func NewQuery(statement string) *Query {
	return &Query{Statement: statement, Parameters: packstream.NewMap()}
}

// With binds a parameter, returning the Query for chaining.
func (q *Query) With(name string, v packstream.Value) *Query {
	q.Parameters.Set(name, v)
	return q
}
