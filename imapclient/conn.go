package imapclient

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/idna"

	imapengine "github.com/mailrule/imapengine"
)

// dial resolves the session's server/port, normalizes the hostname
// through IDNA so non-ASCII server names survive DNS and TLS SNI, and
// connects — optionally wrapping the connection in TLS immediately if
// the session was configured with an explicit TLSProto. The actual
// socket connect goes through Engine.dial so tests can substitute a
// net.Pipe for a real net.Dialer, mirroring how the teacher separates
// New(conn, options) from its Dial* helpers.
func (s *Session) dial(ctx context.Context) error {
	host, err := idna.Lookup.ToASCII(s.server)
	if err != nil {
		host = s.server
	}

	conn, err := s.engine.dial(ctx, s.dialTimeout(), "tcp", net.JoinHostPort(host, s.port))
	if err != nil {
		return fmt.Errorf("imapclient: dial %s:%s: %w", s.server, s.port, err)
	}

	if s.tlsProto != imapengine.TLSProtoAuto || s.engine.options.ImplicitTLS() {
		tlsConn, err := s.handshakeTLS(ctx, conn, host)
		if err != nil {
			conn.Close()
			return err
		}
		conn = tlsConn
	}

	s.attach(conn)
	return nil
}

// attach binds conn as the session's transport and constructs its wire
// reader/writer. Split out from dial so tests can hand a Session an
// already-established net.Conn (e.g. one half of a net.Pipe) without
// going through Engine.dial at all.
func (s *Session) attach(conn net.Conn) {
	s.conn = conn
	s.w = newWire(conn, s.engine.logger)
}

func (s *Session) dialTimeout() time.Duration {
	t := s.engine.options.Timeout()
	if t <= 0 {
		return 30 * time.Second
	}
	return t
}

// setDeadline applies the configured per-read timeout to the
// underlying connection ahead of a blocking read, per spec §4.B. A
// zero Timeout option means no deadline.
func (s *Session) setDeadline(d time.Duration) {
	if s.conn == nil {
		return
	}
	if d <= 0 {
		s.conn.SetDeadline(time.Time{})
		return
	}
	s.conn.SetDeadline(time.Now().Add(d))
}
