package imapclient

import (
	"crypto/tls"
	"net"

	imapengine "github.com/mailrule/imapengine"
	"github.com/mailrule/imapengine/imaputf7"
)

// tagLow and tagHigh bound the per-session tag counter (spec'd range:
// four uppercase hex digits, wrapping back to tagLow after tagHigh).
const (
	tagLow  uint16 = 0x1000
	tagHigh uint16 = 0xFFFF
)

// sessionKey identifies a Session in the Engine's session table.
type sessionKey struct {
	server, port, username string
}

// Session is one authenticated connection to a mail server: its
// endpoint, transport, negotiated capabilities, namespace and selected
// mailbox. A Session is single-threaded cooperative — the caller never
// issues a second verb before the first returns.
type Session struct {
	engine *Engine
	key    sessionKey

	server, port string
	tlsProto     imapengine.TLSProto
	username     string
	password     string
	oauth2       string

	conn net.Conn
	w    *wire

	protocol imapengine.Protocol
	caps     imapengine.CapSet
	ns       imaputf7.Namespace

	// selected holds the currently SELECTed mailbox in internal
	// (user-facing) form, or "" if none. It survives a recovery
	// reconnect so the dispatcher can re-SELECT it transparently.
	selected string
	readOnly bool

	nextTag uint16
}

func newSessionKey(server, port, username string) sessionKey {
	return sessionKey{server: server, port: port, username: username}
}

// live reports whether the session currently holds an open socket.
// Spec invariant 5: no command is dispatched with socket == None.
func (s *Session) live() bool {
	return s.conn != nil
}

// nextTagHex advances the tag counter and renders it as four uppercase
// hex digits, wrapping from tagHigh back to tagLow (spec invariant 2).
func (s *Session) nextTagHex() string {
	if s.nextTag < tagLow || s.nextTag > tagHigh {
		s.nextTag = tagLow
	}
	tag := s.nextTag
	if s.nextTag == tagHigh {
		s.nextTag = tagLow
	} else {
		s.nextTag++
	}
	return formatTag(tag)
}

func formatTag(tag uint16) string {
	const hex = "0123456789ABCDEF"
	b := [4]byte{
		hex[(tag>>12)&0xF],
		hex[(tag>>8)&0xF],
		hex[(tag>>4)&0xF],
		hex[tag&0xF],
	}
	return string(b[:])
}

// close releases the socket and TLS state without touching the session
// table; the Engine decides whether to also remove the entry.
func (s *Session) close() {
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn = nil
	s.w = nil
	s.protocol = imapengine.ProtocolNone
	s.caps = 0
}

// wrapTLS swaps the session's wire onto a newly handshaked TLS
// connection with a fresh reader. Any bytes the plaintext reader had
// buffered past the STARTTLS completion were already replayed into the
// handshake by startTLS (via drainedConn) before this is called.
func (s *Session) wrapTLS(tlsConn *tls.Conn) {
	s.conn = tlsConn
	s.w = newWire(tlsConn, s.engine.logger)
}
