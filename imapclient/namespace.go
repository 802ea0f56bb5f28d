package imapclient

import (
	"context"
	"fmt"
	"strings"

	imapengine "github.com/mailrule/imapengine"
	"github.com/mailrule/imapengine/imaputf7"
)

// fetchNamespace sends NAMESPACE and stores the first personal
// namespace descriptor's prefix/delimiter as the session's namespace
// (spec §4.G): every mailbox name argument is wrapped through it on the
// way out, and every mailbox name in a response is reversed through it
// on the way back.
func (s *Session) fetchNamespace(ctx context.Context) error {
	var ns imaputf7.Namespace
	found := false

	status, respErr, err := s.runCommand(ctx, "NAMESPACE", "", func(line respLine) error {
		rest := strings.TrimPrefix(line.raw, "* ")
		if !strings.HasPrefix(strings.ToUpper(rest), "NAMESPACE") {
			return nil
		}
		rest = strings.TrimSpace(rest[len("NAMESPACE"):])
		prefix, delim, ok := parseFirstNamespaceDescr(rest)
		if ok {
			ns = imaputf7.Namespace{Prefix: prefix, Delim: delim}
			found = true
		}
		return nil
	})
	if err != nil {
		return err
	}
	if status != imapengine.StatusOk {
		return fmt.Errorf("imapclient: NAMESPACE: %w", respErr)
	}
	if found {
		s.ns = ns
	}
	return nil
}

// parseFirstNamespaceDescr extracts the prefix and delimiter of the
// first namespace descriptor in the personal-namespaces list of a
// NAMESPACE response, e.g. '(("INBOX." ".")) NIL NIL' -> ("INBOX.", '.').
// A NIL personal-namespace list (no personal namespace) returns ok=false.
func parseFirstNamespaceDescr(rest string) (prefix string, delim rune, ok bool) {
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(strings.ToUpper(rest), "NIL") {
		return "", 0, false
	}
	// rest begins "((" <quoted prefix> SP <quoted delim-or-NIL> ")...) ..."
	i := strings.IndexByte(rest, '"')
	if i < 0 {
		return "", 0, false
	}
	rest = rest[i+1:]
	j := strings.IndexByte(rest, '"')
	if j < 0 {
		return "", 0, false
	}
	prefix = rest[:j]
	rest = rest[j+1:]

	k := strings.IndexByte(rest, '"')
	if k < 0 {
		return prefix, 0, true
	}
	rest = rest[k+1:]
	l := strings.IndexByte(rest, '"')
	if l < 0 || l == 0 {
		return prefix, 0, true
	}
	return prefix, rune(rest[0]), true
}
