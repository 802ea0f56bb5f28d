package imapclient

import (
	"context"
	"testing"
	"time"
)

func TestIdleWakesOnExists(t *testing.T) {
	opts := defaultTestOptions()
	opts.keepalive = time.Second
	_, sess := loggedInTestSession(t, opts, func(srv *fakeServer) {
		tag := srv.expectTag("IDLE")
		srv.send("+ idling")
		srv.send("* 4 EXISTS")
		tag2 := srv.recv()
		if tag2 != "DONE" {
			t.Fatalf("expected DONE after push, got %q", tag2)
		}
		srv.send(tag + " OK done")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	event, err := sess.Idle(ctx)
	if err != nil {
		t.Fatalf("Idle: %v", err)
	}
	if event != "EXISTS" {
		t.Fatalf("event = %q, want EXISTS", event)
	}
}

func TestIdleKeepaliveRestartsThenWakes(t *testing.T) {
	opts := defaultTestOptions()
	opts.keepalive = 30 * time.Millisecond
	_, sess := loggedInTestSession(t, opts, func(srv *fakeServer) {
		// First round: no push before the keepalive window; client
		// should send DONE on its own and restart IDLE.
		tag := srv.expectTag("IDLE")
		srv.send("+ idling")
		tag2 := srv.recv()
		if tag2 != "DONE" {
			t.Fatalf("expected DONE after keepalive timeout, got %q", tag2)
		}
		srv.send(tag + " OK done")

		// Second round: a genuine push arrives.
		tag = srv.expectTag("IDLE")
		srv.send("+ idling")
		srv.send("* 1 RECENT")
		tag2 = srv.recv()
		if tag2 != "DONE" {
			t.Fatalf("expected DONE after push, got %q", tag2)
		}
		srv.send(tag + " OK done")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	event, err := sess.Idle(ctx)
	if err != nil {
		t.Fatalf("Idle: %v", err)
	}
	if event != "RECENT" {
		t.Fatalf("event = %q, want RECENT", event)
	}
}

func TestIdleWakeOnAny(t *testing.T) {
	opts := defaultTestOptions()
	opts.keepalive = time.Second
	opts.wakeOnAny = true
	_, sess := loggedInTestSession(t, opts, func(srv *fakeServer) {
		tag := srv.expectTag("IDLE")
		srv.send("+ idling")
		srv.send("* 7 FETCH (FLAGS (\\Seen))")
		tag2 := srv.recv()
		if tag2 != "DONE" {
			t.Fatalf("expected DONE after push, got %q", tag2)
		}
		srv.send(tag + " OK done")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	event, err := sess.Idle(ctx)
	if err != nil {
		t.Fatalf("Idle: %v", err)
	}
	if event != "FETCH" {
		t.Fatalf("event = %q, want FETCH", event)
	}
}
