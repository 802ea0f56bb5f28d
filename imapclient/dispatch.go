package imapclient

import (
	"context"
	"errors"
	"strings"

	imapengine "github.com/mailrule/imapengine"
)

// untaggedFunc processes one untagged response line. Returning an error
// aborts the command with that error.
type untaggedFunc func(line respLine) error

// byeError is returned internally from the read loop when the server
// sends an unsolicited BYE; runCommand turns it into a classified
// recovery attempt.
type byeError struct{ text string }

func (e *byeError) Error() string { return "imap: BYE " + e.text }

// simple runs a command that produces no interesting untagged data: it
// writes "<tag> verb args" and reads until the tagged completion.
func (s *Session) simple(ctx context.Context, line string) (imapengine.Status, *imapengine.Error, error) {
	return s.runCommand(ctx, line, "", nil)
}

// runCommand is the shared send-then-read loop every verb builds on
// (spec component H's per-verb shape: look up session, format, send,
// parse, return status). onUntagged may be nil.
func (s *Session) runCommand(ctx context.Context, line, redacted string, onUntagged untaggedFunc) (imapengine.Status, *imapengine.Error, error) {
	if !s.live() {
		return imapengine.StatusError, nil, errors.New("imapclient: session not connected")
	}

	tag := s.nextTagHex()
	s.setDeadline(s.engine.options.Timeout())
	if err := s.w.writeCommand(tag, line, redacted); err != nil {
		return s.transportFailure(ctx, err)
	}

	return s.awaitTag(ctx, tag, onUntagged)
}

func (s *Session) fromClassify(status imapengine.Status, err error) (imapengine.Status, *imapengine.Error, error) {
	if err == nil {
		return status, nil, nil
	}
	return status, nil, err
}

func (s *Session) transportFailure(ctx context.Context, cause error) (imapengine.Status, *imapengine.Error, error) {
	s.close()
	return s.fromClassify(s.classify(ctx, cause, false))
}

func isUntagged(line string) bool {
	return strings.HasPrefix(line, "* ")
}

// matchesTag compares the first four characters of line against tag,
// case-insensitively, per spec's "prefix-equal on 4 characters" rule.
func matchesTag(line, tag string) bool {
	if len(line) < len(tag)+1 {
		return false
	}
	if line[len(tag)] != ' ' {
		return false
	}
	return strings.EqualFold(line[:len(tag)], tag)
}

func matchBye(line string) (bool, string) {
	rest := strings.TrimPrefix(line, "* ")
	if !strings.HasPrefix(strings.ToUpper(rest), "BYE") {
		return false, ""
	}
	return true, strings.TrimSpace(rest[len("BYE"):])
}

// parseCompletion splits a tagged completion's status word, optional
// bracketed response code, and trailing text.
func parseCompletion(line string) (imapengine.Status, imapengine.ResponseCode, string) {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 {
		return imapengine.StatusBad, "", line
	}
	word := strings.ToUpper(fields[1])
	rest := ""
	if len(fields) == 3 {
		rest = fields[2]
	}

	var status imapengine.Status
	switch word {
	case "OK":
		status = imapengine.StatusOk
	case "NO":
		status = imapengine.StatusNo
	case "BAD":
		status = imapengine.StatusBad
	case "PREAUTH":
		status = imapengine.StatusPreauth
	default:
		status = imapengine.StatusBad
	}

	code, text := splitResponseCode(rest)
	return status, code, text
}

// splitResponseCode extracts a leading "[CODE ...]" bracket, if present.
func splitResponseCode(text string) (imapengine.ResponseCode, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "[") {
		return "", text
	}
	end := strings.IndexByte(text, ']')
	if end < 0 {
		return "", text
	}
	inner := text[1:end]
	name := inner
	if sp := strings.IndexByte(inner, ' '); sp >= 0 {
		name = inner[:sp]
	}
	return imapengine.ResponseCode(strings.ToUpper(name)), strings.TrimSpace(text[end+1:])
}

// quoteMailbox renders a mailbox name as an IMAP quoted string. Per
// spec §4.E this is the engine's only quoting strategy: embedded `"` is
// not escaped, matching the original implementation's known limitation.
func quoteMailbox(name string) string {
	return `"` + name + `"`
}

func quoteString(s string) string {
	return `"` + s + `"`
}

var errNotSelected = errors.New("imapclient: no mailbox selected")

func requireSelected(s *Session) error {
	if s.selected == "" {
		return errNotSelected
	}
	return nil
}

