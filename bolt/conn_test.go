package bolt

import (
	"bytes"
	"testing"

	"github.com/oryx-bolt/go-bolt/packstream"
)

func wireMessage(t *testing.T, tag byte, fields ...packstream.Value) []byte {
	t.Helper()
	payload, err := packstream.EncodeStructure(tag, fields...)
	if err != nil {
		t.Fatalf("EncodeStructure(0x%02x): %v", tag, err)
	}
	var buf bytes.Buffer
	w := NewChunkWriter(&buf, NewChunkConfig())
	if err := w.WriteMessage(payload); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	return buf.Bytes()
}

func connOverScript(script ...[]byte) *Conn {
	var all []byte
	for _, s := range script {
		all = append(all, s...)
	}
	nc := newFakeConn(all)
	c := NewConn(nc, NewChunkConfig())
	c.version = NewVersion(4, 1)
	return c
}

func TestHelloSuccessReachesReady(t *testing.T) {
	success := wireMessage(t, TagSuccess, packstream.MapValue(packstream.NewMap()))
	c := connOverScript(success)

	if err := c.Hello("bolt-client/1.0", "basic", "neo4j", "secret"); err != nil {
		t.Fatalf("Hello: %v", err)
	}
	if c.State() != StateReady {
		t.Errorf("state = %v, want Ready", c.State())
	}
}

func TestHelloFailureClosesConnection(t *testing.T) {
	m := packstream.NewMap()
	m.Set("code", packstream.TextValue("Neo.ClientError.Security.Unauthorized"))
	m.Set("message", packstream.TextValue("bad credentials"))
	failure := wireMessage(t, TagFailure, packstream.MapValue(m))
	c := connOverScript(failure)

	err := c.Hello("bolt-client/1.0", "basic", "neo4j", "wrong")
	if _, ok := err.(*AuthenticationError); !ok {
		t.Fatalf("got %v (%T), want *AuthenticationError", err, err)
	}
	if c.State() != StateClosed {
		t.Errorf("state = %v, want Closed", c.State())
	}
}

// TestAutoCommitEcho is spec.md section 8 scenario 1, at the Conn level:
// RUN then PULL(all, last) over a fresh connection already in Ready.
func TestAutoCommitEcho(t *testing.T) {
	runSuccess := packstream.NewMap()
	runSuccess.Set("fields", packstream.ListValue(
		packstream.TextValue("x"), packstream.TextValue("y"), packstream.TextValue("b")))
	record := wireMessage(t, TagRecord, packstream.ListValue(
		packstream.IntValue(1), packstream.TextValue("Hello"), packstream.BoolValue(true)))
	pullSuccess := packstream.NewMap()
	pullSuccess.Set("has_more", packstream.BoolValue(false))
	pullSuccess.Set("bookmark", packstream.TextValue("bolt:bm:1"))

	c := connOverScript(
		wireMessage(t, TagSuccess, packstream.MapValue(runSuccess)),
		record,
		wireMessage(t, TagSuccess, packstream.MapValue(pullSuccess)),
	)
	c.state = StateReady

	outcome, err := c.Run("RETURN $x as x, $y as y, $b as b", packstream.NewMap(), NewCommitPrepare(), false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcome.Fields) != 3 || outcome.Fields[0] != "x" {
		t.Errorf("fields = %v", outcome.Fields)
	}
	if c.State() != StateStreaming {
		t.Fatalf("state = %v, want Streaming", c.State())
	}

	pull, err := c.Pull(-1, -1)
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if pull.HasMore {
		t.Errorf("expected the stream to be finished")
	}
	if len(pull.Records) != 1 {
		t.Fatalf("records = %v", pull.Records)
	}
	if v, _ := pull.Records[0][0].Int(); v != 1 {
		t.Errorf("records[0][0] = %v, want 1", pull.Records[0][0])
	}
	if bm, ok := bookmarkFrom(pull.Metadata); !ok || bm != "bolt:bm:1" {
		t.Errorf("bookmark = %v, %v", bm, ok)
	}
	if c.State() != StateReady {
		t.Errorf("state = %v, want Ready after exhausted stream", c.State())
	}
}

// TestFailureThenIgnoredThenReset is spec.md section 8 scenario 4.
func TestFailureThenIgnoredThenReset(t *testing.T) {
	failureMeta := packstream.NewMap()
	failureMeta.Set("code", packstream.TextValue("Neo.ClientError.Statement.SyntaxError"))
	failureMeta.Set("message", packstream.TextValue("bad syntax"))

	c := connOverScript(
		wireMessage(t, TagFailure, packstream.MapValue(failureMeta)),
		wireMessage(t, TagIgnored),
		wireMessage(t, TagSuccess, packstream.MapValue(packstream.NewMap())),
	)
	c.state = StateReady

	_, err := c.Run("This will cause a syntax error", packstream.NewMap(), NewCommitPrepare(), false)
	fe, ok := err.(*FailureError)
	if !ok {
		t.Fatalf("got %v (%T), want *FailureError", err, err)
	}
	if fe.Code != "Neo.ClientError.Statement.SyntaxError" {
		t.Errorf("code = %v", fe.Code)
	}
	if c.State() != StateFailed {
		t.Fatalf("state = %v, want Failed", c.State())
	}

	pull, err := c.Pull(-1, -1)
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if !pull.Ignored {
		t.Errorf("expected Ignored result")
	}
	if c.State() != StateFailed {
		t.Errorf("state = %v, want to remain Failed after IGNORED", c.State())
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if c.State() != StateReady {
		t.Errorf("state = %v, want Ready after Reset", c.State())
	}
}

// TestTransactionalArithmetic is spec.md section 8 scenario 3.
func TestTransactionalArithmetic(t *testing.T) {
	beginSuccess := wireMessage(t, TagSuccess, packstream.MapValue(packstream.NewMap()))

	run1Meta := packstream.NewMap()
	run1Meta.Set("fields", packstream.ListValue(packstream.TextValue("x")))
	run1Success := wireMessage(t, TagSuccess, packstream.MapValue(run1Meta))
	record1 := wireMessage(t, TagRecord, packstream.ListValue(packstream.IntValue(45)))
	pull1Meta := packstream.NewMap()
	pull1Meta.Set("has_more", packstream.BoolValue(false))
	pull1Success := wireMessage(t, TagSuccess, packstream.MapValue(pull1Meta))

	run2Meta := packstream.NewMap()
	run2Meta.Set("fields", packstream.ListValue(packstream.TextValue("y")))
	run2Success := wireMessage(t, TagSuccess, packstream.MapValue(run2Meta))
	record2 := wireMessage(t, TagRecord, packstream.ListValue(packstream.BoolValue(true)))
	pull2Success := wireMessage(t, TagSuccess, packstream.MapValue(pull1Meta))

	commitMeta := packstream.NewMap()
	commitMeta.Set("bookmark", packstream.TextValue("bolt:bm:2"))
	commitSuccess := wireMessage(t, TagSuccess, packstream.MapValue(commitMeta))

	c := connOverScript(
		beginSuccess,
		run1Success, record1, pull1Success,
		run2Success, record2, pull2Success,
		commitSuccess,
	)
	c.state = StateReady

	if err := c.Begin(NewCommitPrepare()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if c.State() != StateInTransaction {
		t.Fatalf("state = %v, want InTransaction", c.State())
	}

	params1 := packstream.NewMap()
	params1.Set("x", packstream.IntValue(3))
	if _, err := c.Run("RETURN $x + 42 as x", params1, nil, true); err != nil {
		t.Fatalf("Run 1: %v", err)
	}
	if c.State() != StateInTransactionStreaming {
		t.Fatalf("state = %v, want InTransactionStreaming", c.State())
	}
	pull1, err := c.Pull(-1, -1)
	if err != nil {
		t.Fatalf("Pull 1: %v", err)
	}
	if v, _ := pull1.Records[0][0].Int(); v != 45 {
		t.Errorf("x = %v, want 45", pull1.Records[0][0])
	}
	if c.State() != StateInTransaction {
		t.Fatalf("state = %v, want InTransaction after drain", c.State())
	}

	params2 := packstream.NewMap()
	params2.Set("y", packstream.BoolValue(true))
	if _, err := c.Run("RETURN $y as y", params2, nil, true); err != nil {
		t.Fatalf("Run 2: %v", err)
	}
	pull2, err := c.Pull(-1, -1)
	if err != nil {
		t.Fatalf("Pull 2: %v", err)
	}
	if b, _ := pull2.Records[0][0].Bool(); !b {
		t.Errorf("y = %v, want true", pull2.Records[0][0])
	}

	bookmark, err := c.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if bookmark != "bolt:bm:2" {
		t.Errorf("bookmark = %v", bookmark)
	}
	if c.State() != StateReady {
		t.Errorf("state = %v, want Ready after Commit", c.State())
	}
}

func TestCommitWithoutBookmarkFails(t *testing.T) {
	c := connOverScript(wireMessage(t, TagSuccess, packstream.MapValue(packstream.NewMap())))
	c.state = StateInTransaction

	if _, err := c.Commit(); err != ErrNoBookmarkInCommit {
		t.Errorf("got %v, want ErrNoBookmarkInCommit", err)
	}
}
