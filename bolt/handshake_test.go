package bolt

import (
	"bytes"
	"io"
	"testing"
)

type rwBuf struct {
	io.Reader
	io.Writer
}

func TestHandshakeNegotiatesVersion(t *testing.T) {
	var written bytes.Buffer
	reply := bytes.NewReader([]byte{0, 0, 1, 4})
	rw := rwBuf{Reader: reply, Writer: &written}

	proposal := [4]Version{NewVersion(4, 1), NewVersion(4, 0), {}, {}}
	v, err := Handshake(rw, proposal)
	if err != nil {
		t.Fatalf("Handshake: %v", err)
	}
	if v != NewVersion(4, 1) {
		t.Errorf("negotiated %+v, want (4,1)", v)
	}

	want := append(append([]byte{}, Preamble[:]...),
		[]byte{0, 0, 1, 4}...,
	)
	want = append(want, []byte{0, 0, 0, 4}...)
	want = append(want, []byte{0, 0, 0, 0}...)
	want = append(want, []byte{0, 0, 0, 0}...)
	if !bytes.Equal(written.Bytes(), want) {
		t.Errorf("wrote % X, want % X", written.Bytes(), want)
	}
}

// TestHandshakeRejection is spec.md section 8 scenario 5: proposing only
// (0,0) and getting the all-zero reply back raises ErrVersionsNotSupported.
func TestHandshakeRejection(t *testing.T) {
	reply := bytes.NewReader([]byte{0, 0, 0, 0})
	rw := rwBuf{Reader: reply, Writer: &bytes.Buffer{}}

	proposal := [4]Version{{}, {}, {}, {}}
	if _, err := Handshake(rw, proposal); err != ErrVersionsNotSupported {
		t.Errorf("got %v, want ErrVersionsNotSupported", err)
	}
}

func TestConnHandshakeClosesOnRejection(t *testing.T) {
	nc := newFakeConn([]byte{0, 0, 0, 0})
	c := NewConn(nc, NewChunkConfig())

	err := c.Handshake([4]Version{{}, {}, {}, {}})
	if err != ErrVersionsNotSupported {
		t.Fatalf("got %v, want ErrVersionsNotSupported", err)
	}
	if c.State() != StateClosed {
		t.Errorf("state = %v, want Closed", c.State())
	}
	if !nc.closed {
		t.Errorf("expected underlying connection to be closed")
	}
}
