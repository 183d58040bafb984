package bolt

import "github.com/oryx-bolt/go-bolt/packstream"

// ResponseKind discriminates the four message tags a server ever sends,
// please read @spec section 4.1.
type ResponseKind int

const (
	RespSuccess ResponseKind = iota
	RespRecord
	RespIgnored
	RespFailure
)

func (k ResponseKind) String() string {
	switch k {
	case RespSuccess:
		return "SUCCESS"
	case RespRecord:
		return "RECORD"
	case RespIgnored:
		return "IGNORED"
	case RespFailure:
		return "FAILURE"
	default:
		return "UNKNOWN"
	}
}

// Response is a decoded server message.
type Response struct {
	Kind     ResponseKind
	Metadata *packstream.Map // SUCCESS, FAILURE
	Data     []packstream.Value // RECORD
}

func decodeResponse(p []byte) (Response, error) {
	v, n, err := packstream.Decode(p)
	if err != nil {
		return Response{}, err
	}
	if n != len(p) {
		return Response{}, ErrUnexpectedResponse
	}
	s, ok := v.Structure()
	if !ok {
		return Response{}, ErrUnexpectedResponse
	}
	switch s.Tag {
	case TagSuccess:
		m, ok := singleMapField(s.Fields)
		if !ok {
			return Response{}, ErrUnexpectedResponse
		}
		return Response{Kind: RespSuccess, Metadata: m}, nil
	case TagRecord:
		if len(s.Fields) != 1 {
			return Response{}, ErrUnexpectedResponse
		}
		data, ok := s.Fields[0].List()
		if !ok {
			return Response{}, ErrUnexpectedResponse
		}
		return Response{Kind: RespRecord, Data: data}, nil
	case TagIgnored:
		return Response{Kind: RespIgnored}, nil
	case TagFailure:
		m, ok := singleMapField(s.Fields)
		if !ok {
			return Response{}, ErrUnexpectedResponse
		}
		return Response{Kind: RespFailure, Metadata: m}, nil
	default:
		return Response{}, ErrUnexpectedResponse
	}
}

func singleMapField(fields []packstream.Value) (*packstream.Map, bool) {
	if len(fields) != 1 {
		return nil, false
	}
	return fields[0].Map()
}

func successFields(m *packstream.Map) []string {
	v, ok := m.Get("fields")
	if !ok {
		return nil
	}
	list, ok := v.List()
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.Text(); ok {
			out = append(out, s)
		}
	}
	return out
}

// successQid extracts "qid" from a RUN SUCCESS, defaulting to -1 ("last
// opened stream") when the server omits it for a single-query transaction.
func successQid(m *packstream.Map) int64 {
	v, ok := m.Get("qid")
	if !ok {
		return -1
	}
	i, _ := v.Int()
	return i
}

func successHasMore(m *packstream.Map) bool {
	v, ok := m.Get("has_more")
	if !ok {
		return false
	}
	b, _ := v.Bool()
	return b
}

func bookmarkFrom(m *packstream.Map) (string, bool) {
	v, ok := m.Get("bookmark")
	if !ok {
		return "", false
	}
	return v.Text()
}

func failureError(m *packstream.Map) error {
	code, _ := m.Get("code")
	msg, _ := m.Get("message")
	c, _ := code.Text()
	s, _ := msg.Text()
	return &FailureError{Code: c, Message: s}
}

func authenticationError(m *packstream.Map) error {
	code, _ := m.Get("code")
	msg, _ := m.Get("message")
	c, _ := code.Text()
	s, _ := msg.Text()
	return &AuthenticationError{Code: c, Message: s}
}
