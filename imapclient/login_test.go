package imapclient

import (
	"context"
	"testing"
	"time"

	imapengine "github.com/mailrule/imapengine"
)

func TestLoginPlain(t *testing.T) {
	opts := defaultTestOptions()
	e, serverConn := newTestEngine(t, opts)

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv := newFakeServer(t, serverConn())
		srv.send("* OK example.com ready")

		tag := srv.expectTag("CAPABILITY")
		srv.send("* CAPABILITY IMAP4REV1 AUTH=CRAM-MD5")
		srv.send(tag + " OK CAPABILITY completed")

		tag = srv.expectTag("LOGIN")
		srv.send(tag + " OK LOGIN completed")

		tag = srv.expectTag("CAPABILITY")
		srv.send("* CAPABILITY IMAP4REV1")
		srv.send(tag + " OK CAPABILITY completed")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sess, status, err := e.Login(ctx, "mail.example.com", "143", imapengine.TLSProtoAuto, "alice", "hunter2", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if status != imapengine.StatusOk {
		t.Fatalf("Login status = %v, want StatusOk", status)
	}
	if sess.Protocol() != imapengine.ProtocolIMAP4rev1 {
		t.Fatalf("Protocol = %v, want IMAP4rev1", sess.Protocol())
	}
	<-done
}

func TestLoginIdempotentOnLiveSession(t *testing.T) {
	opts := defaultTestOptions()
	e, serverConn := newTestEngine(t, opts)

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv := newFakeServer(t, serverConn())
		srv.send("* OK ready")
		tag := srv.expectTag("CAPABILITY")
		srv.send("* CAPABILITY IMAP4REV1")
		srv.send(tag + " OK done")
		tag = srv.expectTag("LOGIN")
		srv.send(tag + " OK done")
		tag = srv.expectTag("CAPABILITY")
		srv.send("* CAPABILITY IMAP4REV1")
		srv.send(tag + " OK done")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	first, status, err := e.Login(ctx, "mail.example.com", "143", imapengine.TLSProtoAuto, "alice", "hunter2", "")
	if err != nil {
		t.Fatalf("first Login: %v", err)
	}
	if status != imapengine.StatusOk {
		t.Fatalf("first status = %v", status)
	}
	<-done

	// Second Login for the same key must short-circuit without dialing
	// again; newTestEngine's dial hook fails the test if invoked twice.
	second, status, err := e.Login(ctx, "mail.example.com", "143", imapengine.TLSProtoAuto, "alice", "hunter2", "")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if status != imapengine.StatusPreauth {
		t.Fatalf("second status = %v, want StatusPreauth", status)
	}
	if second != first {
		t.Fatalf("second Login returned a different session than the first")
	}
}

func TestLoginRejectsMissingDialect(t *testing.T) {
	opts := defaultTestOptions()
	e, serverConn := newTestEngine(t, opts)

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv := newFakeServer(t, serverConn())
		srv.send("* OK ready")
		tag := srv.expectTag("CAPABILITY")
		srv.send("* CAPABILITY STARTTLS")
		srv.send(tag + " OK done")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, status, err := e.Login(ctx, "mail.example.com", "143", imapengine.TLSProtoAuto, "alice", "hunter2", "")
	if err == nil {
		t.Fatalf("expected an error when neither IMAP4 nor IMAP4rev1 is advertised")
	}
	if status != imapengine.StatusError {
		t.Fatalf("status = %v, want StatusError", status)
	}
	<-done
}
