package imapclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	imapengine "github.com/mailrule/imapengine"
)

// login drives a session from Disconnected through the greeting,
// optional STARTTLS upgrade, authentication, and namespace discovery
// (spec §4.H's numbered login flow). It is also the reconnect path used
// by recovery, which is why it lives on Session rather than Engine.
func (s *Session) login(ctx context.Context) (imapengine.Status, error) {
	s.engine.metrics.dials.Inc()
	if err := s.dial(ctx); err != nil {
		return imapengine.StatusError, err
	}

	greeting, err := s.readGreeting(ctx)
	if err != nil {
		s.close()
		return imapengine.StatusError, err
	}
	if err := s.refreshCapabilities(ctx); err != nil {
		s.close()
		return imapengine.StatusError, err
	}

	if greeting != imapengine.StatusPreauth {
		if s.caps.Has(imapengine.CapStartTLS) && s.engine.options.StartTLS() && !s.isTLS() {
			if err := s.startTLS(ctx); err != nil {
				s.close()
				return imapengine.StatusError, err
			}
		}

		if err := s.authenticate(ctx); err != nil {
			s.close()
			return imapengine.StatusError, err
		}

		if err := s.refreshCapabilities(ctx); err != nil {
			s.close()
			return imapengine.StatusError, err
		}
	}

	if s.caps.Has(imapengine.CapNamespace) && s.engine.options.NamespaceEnabled() {
		if err := s.fetchNamespace(ctx); err != nil {
			s.close()
			return imapengine.StatusError, err
		}
	}

	s.engine.metrics.logins.Inc()
	return imapengine.StatusOk, nil
}

// isTLS reports whether the session's transport is already TLS, e.g.
// because dial wrapped it immediately for an explicit tls_proto or
// ImplicitTLS. STARTTLS is only meaningful over a still-plaintext
// connection.
func (s *Session) isTLS() bool {
	_, ok := s.conn.(*tls.Conn)
	return ok
}

// readGreeting reads the server's opening untagged response line and
// returns StatusPreauth if it was "* PREAUTH", StatusError with an error
// if it was "* BYE", and StatusOk otherwise.
func (s *Session) readGreeting(ctx context.Context) (imapengine.Status, error) {
	s.setDeadline(s.engine.options.Timeout())
	line, err := s.w.readLine()
	if err != nil {
		return imapengine.StatusError, fmt.Errorf("imapclient: reading greeting: %w", err)
	}
	rest := strings.TrimPrefix(line.raw, "* ")
	switch {
	case strings.HasPrefix(strings.ToUpper(rest), "PREAUTH"):
		return imapengine.StatusPreauth, nil
	case strings.HasPrefix(strings.ToUpper(rest), "BYE"):
		return imapengine.StatusError, fmt.Errorf("imapclient: server greeted with BYE: %s", rest)
	default:
		return imapengine.StatusOk, nil
	}
}
