package imapclient

import (
	"context"
	"testing"
	"time"

	imapengine "github.com/mailrule/imapengine"
)

func loggedInTestSession(t *testing.T, opts *testOptions, script func(srv *fakeServer)) (*Engine, *Session) {
	t.Helper()
	e, serverConn := newTestEngine(t, opts)

	loginDone := make(chan *fakeServer, 1)
	go func() {
		srv := newFakeServer(t, serverConn())
		srv.send("* OK ready")
		tag := srv.expectTag("CAPABILITY")
		srv.send("* CAPABILITY IMAP4REV1 IDLE")
		srv.send(tag + " OK done")
		tag = srv.expectTag("LOGIN")
		srv.send(tag + " OK done")
		tag = srv.expectTag("CAPABILITY")
		srv.send("* CAPABILITY IMAP4REV1 IDLE")
		srv.send(tag + " OK done")
		tag = srv.expectTag("SELECT")
		srv.send("* 3 EXISTS")
		srv.send(tag + " OK [READ-WRITE] done")
		loginDone <- srv
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sess, _, err := e.Login(ctx, "mail.example.com", "143", imapengine.TLSProtoAuto, "alice", "hunter2", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := sess.Select(ctx, "INBOX"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	srv := <-loginDone

	done := make(chan struct{})
	go func() {
		defer close(done)
		script(srv)
	}()
	t.Cleanup(func() { <-done })

	return e, sess
}

func TestCopyTryCreateRetriesOnce(t *testing.T) {
	opts := defaultTestOptions()
	_, sess := loggedInTestSession(t, opts, func(srv *fakeServer) {
		tag := srv.expectTag("UID COPY 1:3 \"Archive\"")
		srv.send(tag + " NO [TRYCREATE] mailbox does not exist")

		tag = srv.expectTag("CREATE \"Archive\"")
		srv.send(tag + " OK done")

		tag = srv.expectTag("UID COPY 1:3 \"Archive\"")
		srv.send(tag + " OK done")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	uids := imapengine.UIDSet{{Start: 1, Stop: 3}}
	if _, err := sess.Copy(ctx, uids, "Archive"); err != nil {
		t.Fatalf("Copy: %v", err)
	}
}
