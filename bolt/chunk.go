package bolt

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Default and max chunk sizes, please read @spec section 4.2.
const (
	DefaultChunkCapacity = 1400
	MaxChunkCapacity     = 65535
)

// ChunkConfig controls how ChunkWriter splits a logical Message into wire
// chunks.
type ChunkConfig struct {
	ChunkCapacity uint16
}

// NewChunkConfig returns the default chunking configuration.
func NewChunkConfig() ChunkConfig {
	return ChunkConfig{ChunkCapacity: DefaultChunkCapacity}
}

func (c ChunkConfig) capacity() int {
	if c.ChunkCapacity == 0 {
		return DefaultChunkCapacity
	}
	return int(c.ChunkCapacity)
}

// A Message is the logical byte payload framed by ChunkWriter/ChunkReader,
// please read @spec section 3.
type Message []byte

// ChunkWriter frames a Message as one or more u16-length-prefixed chunks
// terminated by a zero-length chunk, please read @spec section 4.2.
type ChunkWriter struct {
	w      *bufio.Writer
	config ChunkConfig
}

// NewChunkWriter wraps w, buffering at roughly one chunk's worth of bytes.
func NewChunkWriter(w io.Writer, config ChunkConfig) *ChunkWriter {
	return &ChunkWriter{
		w:      bufio.NewWriterSize(w, config.capacity()+2),
		config: config,
	}
}

// WriteMessage splits payload into chunks no larger than the configured
// capacity and appends the zero-length terminator chunk.
func (v *ChunkWriter) WriteMessage(payload []byte) (err error) {
	cap := v.config.capacity()
	for len(payload) > 0 {
		size := len(payload)
		if size > cap {
			size = cap
		}
		if err = v.writeChunk(payload[:size]); err != nil {
			return
		}
		payload = payload[size:]
	}
	return v.writeTerminator()
}

func (v *ChunkWriter) writeChunk(p []byte) (err error) {
	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(p)))
	if _, err = v.w.Write(hdr[:]); err != nil {
		return
	}
	if _, err = v.w.Write(p); err != nil {
		return
	}
	return v.w.Flush()
}

func (v *ChunkWriter) writeTerminator() (err error) {
	if _, err = v.w.Write([]byte{0, 0}); err != nil {
		return
	}
	return v.w.Flush()
}

// ChunkReader reassembles a Message from the chunk stream written by the
// peer's ChunkWriter.
type ChunkReader struct {
	r *bufio.Reader
}

// NewChunkReader wraps r.
func NewChunkReader(r io.Reader) *ChunkReader {
	return &ChunkReader{r: bufio.NewReader(r)}
}

// ReadMessage reads chunks until the zero-length terminator and returns the
// reassembled payload. A terminator with no preceding chunk is a protocol
// error, please read @spec section 4.2.
func (v *ChunkReader) ReadMessage() (payload []byte, err error) {
	var any bool
	for {
		var hdr [2]byte
		if _, err = io.ReadFull(v.r, hdr[:]); err != nil {
			return nil, err
		}
		size := binary.BigEndian.Uint16(hdr[:])
		if size == 0 {
			if !any {
				return nil, ErrEmptyMessage
			}
			return payload, nil
		}
		chunk := make([]byte, size)
		if _, err = io.ReadFull(v.r, chunk); err != nil {
			return nil, err
		}
		payload = append(payload, chunk...)
		any = true
	}
}
