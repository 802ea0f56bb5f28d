package imapclient

import (
	"context"
	"testing"
	"time"

	imapengine "github.com/mailrule/imapengine"
)

func scriptLogin(t *testing.T, srv *fakeServer) {
	t.Helper()
	srv.send("* OK ready")
	tag := srv.expectTag("CAPABILITY")
	srv.send("* CAPABILITY IMAP4REV1")
	srv.send(tag + " OK done")
	tag = srv.expectTag("LOGIN")
	srv.send(tag + " OK done")
	tag = srv.expectTag("CAPABILITY")
	srv.send("* CAPABILITY IMAP4REV1")
	srv.send(tag + " OK done")
}

// TestRecoverAllReconnectsAfterBye checks the recovery contract in
// engine.go's classify: a BYE under RecoverAll reconnects silently and
// reports status None, which every verb surfaces as a (non-nil) error
// telling the caller to retry — it does not transparently replay the
// original command. A second call after that must succeed normally
// against the freshly reconnected session.
func TestRecoverAllReconnectsAfterBye(t *testing.T) {
	opts := defaultTestOptions()
	opts.recover = imapengine.RecoverAll
	e, nextConn := newTestEngineMulti(t, opts)

	done := make(chan struct{})
	go func() {
		defer close(done)
		first := newFakeServer(t, nextConn())
		scriptLogin(t, first)
		first.expectTag("NOOP")
		first.send("* BYE shutting down")

		second := newFakeServer(t, nextConn())
		scriptLogin(t, second)
		tag := second.expectTag("NOOP")
		second.send(tag + " OK done")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sess, _, err := e.Login(ctx, "mail.example.com", "143", imapengine.TLSProtoAuto, "alice", "hunter2", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := sess.Noop(ctx); err == nil {
		t.Fatalf("expected the first Noop to report an error asking the caller to retry")
	}
	if !sess.live() {
		t.Fatalf("session should be live again after recovery")
	}
	if err := sess.Noop(ctx); err != nil {
		t.Fatalf("retried Noop against the reconnected session should succeed, got: %v", err)
	}
	<-done
}

func TestRecoverNoneDestroysSessionAfterBye(t *testing.T) {
	opts := defaultTestOptions()
	opts.recover = imapengine.RecoverNone
	e, nextConn := newTestEngineMulti(t, opts)

	done := make(chan struct{})
	go func() {
		defer close(done)
		first := newFakeServer(t, nextConn())
		scriptLogin(t, first)
		first.expectTag("NOOP")
		first.send("* BYE shutting down")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sess, _, err := e.Login(ctx, "mail.example.com", "143", imapengine.TLSProtoAuto, "alice", "hunter2", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := sess.Noop(ctx); err == nil {
		t.Fatalf("expected Noop to surface the BYE as an error under RecoverNone")
	}
	if e.Find("mail.example.com", "143", "alice") != nil {
		t.Fatalf("session should have been forgotten from the table")
	}
	<-done
}

// TestRecoverErrorsReconnectsOnTransportFailure checks the other half of
// the policy: a plain connection drop (not a BYE) under RecoverErrors
// reconnects, same as RecoverAll would, because isBye is false.
func TestRecoverErrorsReconnectsOnTransportFailure(t *testing.T) {
	opts := defaultTestOptions()
	opts.recover = imapengine.RecoverErrors
	e, nextConn := newTestEngineMulti(t, opts)

	done := make(chan struct{})
	go func() {
		defer close(done)
		first := newFakeServer(t, nextConn())
		scriptLogin(t, first)
		first.expectTag("NOOP")
		first.conn.Close()

		second := newFakeServer(t, nextConn())
		scriptLogin(t, second)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sess, _, err := e.Login(ctx, "mail.example.com", "143", imapengine.TLSProtoAuto, "alice", "hunter2", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := sess.Noop(ctx); err == nil {
		t.Fatalf("expected the first Noop to report an error asking the caller to retry")
	}
	if !sess.live() {
		t.Fatalf("session should be live again after reconnecting past the dropped connection")
	}
	<-done
}

// TestRecoverNoneDestroysSessionOnTransportFailure checks that a plain
// drop under RecoverNone surfaces as a fatal error and forgets the
// session, same as a BYE would.
func TestRecoverNoneDestroysSessionOnTransportFailure(t *testing.T) {
	opts := defaultTestOptions()
	opts.recover = imapengine.RecoverNone
	e, nextConn := newTestEngineMulti(t, opts)

	done := make(chan struct{})
	go func() {
		defer close(done)
		first := newFakeServer(t, nextConn())
		scriptLogin(t, first)
		first.expectTag("NOOP")
		first.conn.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sess, _, err := e.Login(ctx, "mail.example.com", "143", imapengine.TLSProtoAuto, "alice", "hunter2", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := sess.Noop(ctx); err == nil {
		t.Fatalf("expected Noop to surface the dropped connection as an error under RecoverNone")
	}
	if e.Find("mail.example.com", "143", "alice") != nil {
		t.Fatalf("session should have been forgotten from the table")
	}
	<-done
}
