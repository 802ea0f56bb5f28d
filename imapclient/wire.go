package imapclient

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/mailrule/imapengine/internal/respbuf"
)

// wire is the command formatter and response scanner (spec components E
// and F) bound to one connection. It is deliberately line-oriented
// rather than regex-driven over the whole buffer: IMAP responses are
// CRLF-terminated except for literal payloads, whose length is known in
// advance from the `{N}` the preceding line announces.
type wire struct {
	conn   net.Conn
	br     *bufio.Reader
	bw     *bufio.Writer
	logger *slog.Logger

	// lit accumulates literal payloads across reads so a long-lived
	// session doesn't reallocate on every FETCH literal; it is reset
	// (not released) between reads.
	lit *respbuf.Buffer
}

func newWire(conn net.Conn, logger *slog.Logger) *wire {
	return &wire{
		conn:   conn,
		br:     bufio.NewReaderSize(conn, 8192),
		bw:     bufio.NewWriterSize(conn, 1024),
		logger: logger,
		lit:    respbuf.New(4096),
	}
}

// writeCommand renders "<tag> <line>\r\n" and flushes it. redacted is
// logged in place of line when logging at debug level (the LOGIN
// formatter passes a password-redacted copy).
func (w *wire) writeCommand(tag, line, redacted string) error {
	if redacted == "" {
		redacted = line
	}
	w.logger.Debug("imap >>", "tag", tag, "line", redacted)
	if _, err := fmt.Fprintf(w.bw, "%s %s\r\n", tag, line); err != nil {
		return err
	}
	return w.bw.Flush()
}

// writeContinuation sends a line of continuation data (SASL response,
// literal payload) with no tag.
func (w *wire) writeContinuation(data string) error {
	w.logger.Debug("imap >>", "continuation", data)
	if _, err := fmt.Fprintf(w.bw, "%s\r\n", data); err != nil {
		return err
	}
	return w.bw.Flush()
}

// respLine is one logical server response line: tagOrStar, the verb/
// data word(s) following it, and an optional literal payload announced
// by a trailing "{N}" on the line, with any trailing text after the
// literal folded into suffix.
type respLine struct {
	raw     string
	literal []byte
	suffix  string
}

var literalAnnounce = regexp.MustCompile(`\{(\d+)\+?\}\s*$`)

// readLine reads one response line, transparently following a literal
// announcement: if the line ends in "{N}" it reads exactly N octets
// after the CRLF as the literal payload, then reads the remainder of
// that logical line (per RFC 3501 grammar this is normally just a bare
// CRLF, but some responses place a closing ")" or more data after the
// literal).
func (w *wire) readLine() (respLine, error) {
	line, err := w.br.ReadString('\n')
	if err != nil {
		return respLine{}, err
	}
	text := strings.TrimRight(line, "\r\n")

	m := literalAnnounce.FindStringSubmatchIndex(text)
	if m == nil {
		return respLine{raw: text}, nil
	}
	n, err := strconv.Atoi(text[m[2]:m[3]])
	if err != nil {
		return respLine{}, fmt.Errorf("imapclient: malformed literal announcement %q", text)
	}
	prefix := text[:m[0]]

	w.lit.Reset()
	w.lit.Grow(n)
	if _, err := io.CopyN(literalSink{w.lit}, w.br, int64(n)); err != nil {
		return respLine{}, err
	}

	rest, err := w.br.ReadString('\n')
	if err != nil {
		return respLine{}, err
	}

	return respLine{
		raw:     prefix,
		literal: w.lit.Bytes(),
		suffix:  strings.TrimRight(rest, "\r\n"),
	}, nil
}

// literalSink adapts respbuf.Buffer.Append to io.Writer so io.CopyN can
// stream a literal's bytes straight into the reusable scratch buffer.
type literalSink struct{ buf *respbuf.Buffer }

func (s literalSink) Write(p []byte) (int, error) {
	s.buf.Append(p)
	return len(p), nil
}
