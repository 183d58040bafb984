package boltlog

import (
	"encoding/binary"

	"github.com/rs/xid"
)

// NextCid generates a connection id for log correlation. It is never used
// on the wire; it only distinguishes interleaved connection logs from each
// other, the same role oryx's original goroutine cid played.
func NextCid() int {
	id := xid.New()
	b := id.Bytes()
	return int(binary.BigEndian.Uint32(b[8:12]) & 0x7fffffff)
}
