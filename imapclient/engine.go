// Package imapclient is the request dispatcher: it owns the session
// table, drives login/recovery, and exposes the verb surface a scripting
// layer calls into. It depends on imap for wire-level types and on
// imaputf7 for the namespace/UTF-7 mailbox name codec.
package imapclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	imapengine "github.com/mailrule/imapengine"
)

// Engine is the process-wide dispatcher: a session table keyed by
// (server, port, username), a shared certificate store, and the
// Options sink the scripting layer configures through. Each TLS
// handshake builds its own tls.Config.
// The session table is the one piece of Engine state the scripting
// layer can touch from outside a single verb call, so it is the one
// thing guarded by a mutex; everything else is single-threaded
// cooperative per spec's concurrency model.
type Engine struct {
	mu       sync.Mutex
	sessions map[sessionKey]*Session

	options Options
	logger  *slog.Logger
	metrics *Metrics

	certStore *CertStore

	// dial opens the raw transport for a new session. It defaults to a
	// plain net.Dialer and exists as a field, rather than a call to
	// net.Dial inline, so tests can substitute one half of a net.Pipe
	// for a real socket.
	dial func(ctx context.Context, timeout time.Duration, network, addr string) (net.Conn, error)
}

// NewEngine constructs an Engine. logger and metrics may be nil; a nil
// logger discards, a nil metrics is a no-op sink.
func NewEngine(options Options, certStore *CertStore, logger *slog.Logger, metrics *Metrics) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Engine{
		sessions:  make(map[sessionKey]*Session),
		options:   options,
		logger:    logger,
		metrics:   metrics,
		certStore: certStore,
		dial:      dialNet,
	}
}

func dialNet(ctx context.Context, timeout time.Duration, network, addr string) (net.Conn, error) {
	d := &net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, network, addr)
}

func (e *Engine) find(key sessionKey) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[key]
}

func (e *Engine) store(key sessionKey, s *Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions[key] = s
}

func (e *Engine) forget(key sessionKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.sessions, key)
}

// Login looks up or creates the session for (server, port, username). If
// a live session already exists it returns StatusPreauth without
// touching the network — login is idempotent against an already-live
// session (spec §8 round-trip property).
func (e *Engine) Login(ctx context.Context, server, port string, tlsProto imapengine.TLSProto, username, password, oauth2 string) (*Session, imapengine.Status, error) {
	key := newSessionKey(server, port, username)
	if s := e.find(key); s != nil && s.live() {
		return s, imapengine.StatusPreauth, nil
	}

	s := &Session{
		engine:   e,
		key:      key,
		server:   server,
		port:     port,
		tlsProto: tlsProto,
		username: username,
		password: password,
		oauth2:   oauth2,
		nextTag:  tagLow,
	}
	status, err := s.login(ctx)
	if err != nil {
		return nil, status, err
	}
	e.store(key, s)
	return s, status, nil
}

// Find returns the live session for (server, port, username), or nil.
func (e *Engine) Find(server, port, username string) *Session {
	s := e.find(newSessionKey(server, port, username))
	if s == nil || !s.live() {
		return nil
	}
	return s
}

// Logout sends LOGOUT (best-effort) and removes the session from the
// table regardless of the server's response.
func (s *Session) Logout(ctx context.Context) error {
	defer func() {
		s.close()
		s.engine.forget(s.key)
	}()
	if !s.live() {
		return nil
	}
	_, _, err := s.simple(ctx, "LOGOUT")
	return err
}

// classify turns a transport failure or BYE into a recovery attempt or
// a surfaced error, per the session's configured RecoverPolicy.
func (s *Session) classify(ctx context.Context, cause error, isBye bool) (imapengine.Status, error) {
	policy := s.engine.options.RecoverPolicy()
	recoverable := policy == imapengine.RecoverAll || (policy == imapengine.RecoverErrors && !isBye)
	if isBye && policy != imapengine.RecoverAll {
		recoverable = false
	}

	s.close()
	if !recoverable {
		s.engine.forget(s.key)
		return imapengine.StatusError, cause
	}

	s.engine.metrics.recoveries.Inc()
	wasSelected := s.selected
	if _, err := s.login(ctx); err != nil {
		s.engine.forget(s.key)
		return imapengine.StatusError, fmt.Errorf("recovery reconnect failed: %w (original: %v)", err, cause)
	}
	if wasSelected != "" {
		if _, err := s.Select(ctx, wasSelected); err != nil {
			s.engine.forget(s.key)
			return imapengine.StatusError, fmt.Errorf("recovery re-select failed: %w (original: %v)", err, cause)
		}
	}
	return imapengine.StatusNone, nil
}
