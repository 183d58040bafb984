package bolt

import "github.com/oryx-bolt/go-bolt/packstream"

// Request and response message tags, please read @spec section 4.1's "message tags" table.
const (
	TagHello   byte = 0x01
	TagGoodbye byte = 0x02
	TagReset   byte = 0x0F
	TagRun     byte = 0x10
	TagBegin   byte = 0x11
	TagCommit  byte = 0x12
	TagRollback byte = 0x13
	TagDiscard byte = 0x2F
	TagPull    byte = 0x3F

	TagSuccess byte = 0x70
	TagRecord  byte = 0x71
	TagIgnored byte = 0x7E
	TagFailure byte = 0x7F
)

// CommitMode is the "mode" field of a RUN/BEGIN extra map.
type CommitMode string

const (
	ModeRead  CommitMode = "r"
	ModeWrite CommitMode = "w"
)

// CommitPrepare carries the extra metadata for RUN/BEGIN requests, please
// read @spec section 3. Only fields that have been explicitly set are
// written onto the wire; the rest are simply absent from the extra map
// rather than sent as null.
type CommitPrepare struct {
	Bookmarks  []string
	TxTimeout  *int64
	TxMetadata *packstream.Map
	Mode       CommitMode
	Db         string
}

// NewCommitPrepare returns an empty CommitPrepare.
func NewCommitPrepare() *CommitPrepare {
	return &CommitPrepare{}
}

func (c *CommitPrepare) AddBookmark(bookmark string) *CommitPrepare {
	c.Bookmarks = append(c.Bookmarks, bookmark)
	return c
}

func (c *CommitPrepare) SetTimeout(seconds int64) *CommitPrepare {
	c.TxTimeout = &seconds
	return c
}

// Metadata returns the tx_metadata map, creating it on first use.
func (c *CommitPrepare) Metadata() *packstream.Map {
	if c.TxMetadata == nil {
		c.TxMetadata = packstream.NewMap()
	}
	return c.TxMetadata
}

func (c *CommitPrepare) SetMode(mode CommitMode) *CommitPrepare {
	c.Mode = mode
	return c
}

func (c *CommitPrepare) SetDb(db string) *CommitPrepare {
	c.Db = db
	return c
}

func (c *CommitPrepare) toMap() *packstream.Map {
	m := packstream.NewMap()
	if c == nil {
		return m
	}
	if len(c.Bookmarks) > 0 {
		vs := make([]packstream.Value, len(c.Bookmarks))
		for i, b := range c.Bookmarks {
			vs[i] = packstream.TextValue(b)
		}
		m.Set("bookmarks", packstream.ListValue(vs...))
	}
	if c.TxTimeout != nil {
		m.Set("tx_timeout", packstream.IntValue(*c.TxTimeout))
	}
	if c.TxMetadata != nil && c.TxMetadata.Len() > 0 {
		m.Set("tx_metadata", packstream.MapValue(c.TxMetadata))
	}
	if c.Mode != "" {
		m.Set("mode", packstream.TextValue(string(c.Mode)))
	}
	if c.Db != "" {
		m.Set("db", packstream.TextValue(c.Db))
	}
	return m
}

func helloExtra(userAgent, scheme, principal, credentials string) *packstream.Map {
	m := packstream.NewMap()
	m.Set("user_agent", packstream.TextValue(userAgent))
	m.Set("scheme", packstream.TextValue(scheme))
	m.Set("principal", packstream.TextValue(principal))
	m.Set("credentials", packstream.TextValue(credentials))
	return m
}

func pullExtra(n, qid int64) *packstream.Map {
	m := packstream.NewMap()
	m.Set("n", packstream.IntValue(n))
	m.Set("qid", packstream.IntValue(qid))
	return m
}

func stringListValues(ss []string) []packstream.Value {
	vs := make([]packstream.Value, len(ss))
	for i, s := range ss {
		vs[i] = packstream.TextValue(s)
	}
	return vs
}
