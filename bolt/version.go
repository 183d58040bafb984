package bolt

// Version is a negotiated Bolt protocol version, please read @spec section
// 4.3. Only the major/minor pair is used by this client; the range bytes
// some servers propose are not.
type Version struct {
	Major byte
	Minor byte
}

// NewVersion builds a Version from its major/minor pair.
func NewVersion(major, minor byte) Version {
	return Version{Major: major, Minor: minor}
}

// IsEmpty reports whether v is the all-zero version the server sends back
// to mean "none of the proposals are supported".
func (v Version) IsEmpty() bool {
	return v.Major == 0 && v.Minor == 0
}

// Encode lays v out as the 4-byte wire form: [0, 0, minor, major].
func (v Version) Encode() [4]byte {
	return [4]byte{0, 0, v.Minor, v.Major}
}

// DecodeVersion reads the 4-byte wire form back into a Version.
func DecodeVersion(b [4]byte) Version {
	return Version{Major: b[3], Minor: b[2]}
}
