package bolt

import "io"

// Preamble is the 4-byte gentleman's agreement that opens every Bolt
// connection, please read @spec section 4.3.
var Preamble = [4]byte{0x60, 0x60, 0xB0, 0x17}

// DefaultProposal is the four-version proposal this client sends, highest
// preference first, unused slots zeroed.
var DefaultProposal = [4]Version{
	{Major: 4, Minor: 1},
	{Major: 4, Minor: 0},
	{},
	{},
}

// Handshake writes the preamble and proposal to rw and reads back the
// server's single negotiated version. It returns ErrVersionsNotSupported if
// the server replies with the all-zero version, please read @spec section
// 4.3.
func Handshake(rw io.ReadWriter, proposal [4]Version) (v Version, err error) {
	buf := make([]byte, 0, 4+4*4)
	buf = append(buf, Preamble[:]...)
	for _, p := range proposal {
		b := p.Encode()
		buf = append(buf, b[:]...)
	}
	if _, err = rw.Write(buf); err != nil {
		return Version{}, err
	}

	var reply [4]byte
	if _, err = io.ReadFull(rw, reply[:]); err != nil {
		return Version{}, err
	}

	v = DecodeVersion(reply)
	if v.IsEmpty() {
		return Version{}, ErrVersionsNotSupported
	}
	return v, nil
}
