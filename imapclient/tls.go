package imapclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"

	imapengine "github.com/mailrule/imapengine"
)

// drainedConn replays any bytes left buffered in a bufio.Reader ahead
// of switching a net.Conn to TLS, so a server that raced its response
// with our STARTTLS isn't silently truncated.
type drainedConn struct {
	net.Conn
	r io.Reader
}

func (c drainedConn) Read(p []byte) (int, error) { return c.r.Read(p) }

// handshakeTLS drives a TLS handshake over conn for the given SNI host
// and runs the certificate gate (spec §4.C) unless the engine's
// Options disable it.
func (s *Session) handshakeTLS(ctx context.Context, conn net.Conn, host string) (*tls.Conn, error) {
	cfg := &tls.Config{
		ServerName: host,
		MinVersion: tlsMinVersion(s.tlsProto),
	}
	if s.engine.certStore != nil && s.engine.options.Certificates() {
		cfg.InsecureSkipVerify = true
		cfg.VerifyConnection = func(cs tls.ConnectionState) error {
			return s.engine.certStore.verify(cs)
		}
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, fmt.Errorf("imapclient: TLS handshake with %s: %w", host, err)
	}
	return tlsConn, nil
}

func tlsMinVersion(p imapengine.TLSProto) uint16 {
	switch p {
	case imapengine.TLSProtoTLS1_3:
		return tls.VersionTLS13
	case imapengine.TLSProtoTLS1_2:
		return tls.VersionTLS12
	default:
		// SSL3/TLS1.0/TLS1.1 are accepted as configuration values (spec's
		// historical enum) but are not honored: TLSProtoAuto and anything
		// below 1.2 all get a TLS 1.2 minimum.
		return tls.VersionTLS12
	}
}

// startTLS issues the STARTTLS command, then — once the server
// acknowledges without sending another byte on the plaintext channel —
// upgrades the connection in place and re-fetches CAPABILITY, since a
// pre-TLS CAPABILITY reply cannot be trusted (spec §9).
func (s *Session) startTLS(ctx context.Context) error {
	status, respErr, err := s.simple(ctx, "STARTTLS")
	if err != nil {
		return err
	}
	if status != imapengine.StatusOk {
		return respErr
	}

	host := s.server
	plain := s.conn
	var buffered bytes.Buffer
	if n := s.w.br.Buffered(); n > 0 {
		_, _ = io.CopyN(&buffered, s.w.br, int64(n))
	}
	if buffered.Len() > 0 {
		plain = drainedConn{Conn: s.conn, r: io.MultiReader(&buffered, s.conn)}
	}

	tlsConn, err := s.handshakeTLS(ctx, plain, host)
	if err != nil {
		return err
	}
	s.wrapTLS(tlsConn)

	return s.refreshCapabilities(ctx)
}
