package imapclient

import (
	"context"
	"fmt"
	"strings"

	imapengine "github.com/mailrule/imapengine"
)

// Idle runs the IDLE long-poll loop (spec §4.F/§4.H): send IDLE, await
// the server's "+ idling" continuation, then repeatedly wait up to the
// keepalive interval for an untagged push. A keepalive timeout sends
// DONE, awaits the tagged OK, and restarts IDLE transparently — the
// caller only sees a return when the server actually pushed something,
// the connection failed, or ctx was canceled (the engine's stand-in for
// the source's interrupt-only-while-idling signal model).
func (s *Session) Idle(ctx context.Context) (string, error) {
	if err := requireSelected(s); err != nil {
		return "", err
	}
	if !s.caps.Has(imapengine.CapIdle) {
		return "", fmt.Errorf("imapclient: server does not advertise IDLE")
	}

	for {
		event, err := s.idleRound(ctx)
		if err != nil {
			return "", err
		}
		if event != "" {
			s.engine.metrics.idleWakes.Inc()
			return event, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
}

// idleRound runs one IDLE/DONE cycle. It returns ("", nil) on a
// keepalive timeout (caller should loop), a non-empty event on server
// push, or an error on failure.
func (s *Session) idleRound(ctx context.Context) (string, error) {
	if !s.live() {
		return "", fmt.Errorf("imapclient: session not connected")
	}

	tag := s.nextTagHex()
	s.setDeadline(0)
	if err := s.w.writeCommand(tag, "IDLE", ""); err != nil {
		_, _, cerr := s.transportFailure(ctx, err)
		return "", cerr
	}

	cont, err := s.w.readLine()
	if err != nil {
		_, _, cerr := s.transportFailure(ctx, err)
		return "", cerr
	}
	if _, ok := parseContinuation(cont.raw); !ok {
		return "", fmt.Errorf("imapclient: IDLE: expected continuation, got %q", cont.raw)
	}

	s.setDeadline(s.engine.options.Keepalive())
	line, err := s.w.readLine()
	if isTimeout(err) {
		return "", s.idleDone(ctx, tag)
	}
	if err != nil {
		_, _, cerr := s.transportFailure(ctx, err)
		return "", cerr
	}

	if bye, text := matchBye(line.raw); bye {
		s.close()
		_, cerr := s.classify(ctx, &byeError{text: text}, true)
		return "", cerr
	}

	event, woken := classifyIdleEvent(line.raw, s.engine.options.WakeOnAny())
	if err := s.idleDoneRaw(ctx, tag); err != nil {
		return "", err
	}
	if !woken {
		return "", nil
	}
	return event, nil
}

// idleDone sends DONE after a keepalive timeout and restarts the loop
// (returns nil so the caller round-trips again).
func (s *Session) idleDone(ctx context.Context, tag string) error {
	return s.idleDoneRaw(ctx, tag)
}

func (s *Session) idleDoneRaw(ctx context.Context, tag string) error {
	s.setDeadline(s.engine.options.Timeout())
	if err := s.w.writeContinuation("DONE"); err != nil {
		_, _, cerr := s.transportFailure(ctx, err)
		return cerr
	}
	status, respErr, err := s.awaitTag(ctx, tag, nil)
	if err != nil {
		return err
	}
	if status != imapengine.StatusOk {
		return fmt.Errorf("imapclient: IDLE DONE: %w", respErr)
	}
	return nil
}

// classifyIdleEvent reports whether an untagged line during IDLE counts
// as a wake event: its second token is EXISTS/RECENT, or wakeOnAny is
// set and it's any untagged data at all.
func classifyIdleEvent(line string, wakeOnAny bool) (event string, woken bool) {
	rest := strings.TrimPrefix(line, "* ")
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return "", false
	}
	word := strings.ToUpper(fields[1])
	if word == "EXISTS" || word == "RECENT" || wakeOnAny {
		return word, true
	}
	return "", false
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	t, ok := err.(timeout)
	return ok && t.Timeout()
}
