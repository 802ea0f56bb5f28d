package imapclient

import (
	"context"
	"fmt"
	"strings"

	imapengine "github.com/mailrule/imapengine"
	"github.com/mailrule/imapengine/imaputf7"
)

// List issues LIST "" "*" and splits the results into the two output
// streams spec §4.F and §6 name: mailboxes (every selectable entry,
// i.e. everything without \Noselect) and folders (every entry without
// \Noinferiors, narrowed to \HasChildren-only when the server
// advertises CHILDREN).
func (s *Session) List(ctx context.Context) (mailboxes, folders []imapengine.ListData, err error) {
	return s.listOrLsub(ctx, "LIST")
}

// Lsub issues LSUB over the subscribed mailboxes, with the same
// mailboxes/folders split as List.
func (s *Session) Lsub(ctx context.Context) (mailboxes, folders []imapengine.ListData, err error) {
	return s.listOrLsub(ctx, "LSUB")
}

func (s *Session) listOrLsub(ctx context.Context, verb string) ([]imapengine.ListData, []imapengine.ListData, error) {
	var entries []imapengine.ListData

	status, respErr, runErr := s.runCommand(ctx, verb+` "" "*"`, "", func(line respLine) error {
		rest := strings.TrimPrefix(line.raw, "* ")
		upper := strings.ToUpper(rest)
		if !strings.HasPrefix(upper, "LIST") && !strings.HasPrefix(upper, "LSUB") {
			return nil
		}
		text := rest[4:]
		if line.literal != nil {
			// readLine splits a literal mailbox name off into
			// line.literal; rejoin it as a quoted name.
			text += `"` + string(line.literal) + `"` + line.suffix
		}
		entry, ok := parseListEntry(text, s.ns)
		if ok {
			entries = append(entries, entry)
		}
		return nil
	})
	if runErr != nil {
		return nil, nil, runErr
	}
	if status != imapengine.StatusOk {
		return nil, nil, fmt.Errorf("imapclient: %s: %w", verb, respErr)
	}

	childrenCap := s.caps.Has(imapengine.CapChildren)
	var mailboxes, folders []imapengine.ListData
	for _, e := range entries {
		if !e.HasAttr(imapengine.MailboxAttrNoSelect) {
			mailboxes = append(mailboxes, e)
		}
		if e.HasAttr(imapengine.MailboxAttrNoInferiors) {
			continue
		}
		if childrenCap {
			if e.HasAttr(imapengine.MailboxAttrHasChildren) && !e.HasAttr(imapengine.MailboxAttrHasNoChild) {
				folders = append(folders, e)
			}
			continue
		}
		folders = append(folders, e)
	}
	return mailboxes, folders, nil
}

// parseListEntry parses "(attrs) "delim" name" (name possibly a
// literal, already rejoined into rest as a quoted string by
// listOrLsub) into a ListData, reversing the mailbox name through the
// namespace codec.
func parseListEntry(rest string, ns imaputf7.Namespace) (imapengine.ListData, bool) {
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "(") {
		return imapengine.ListData{}, false
	}
	closeIdx := strings.IndexByte(rest, ')')
	if closeIdx < 0 {
		return imapengine.ListData{}, false
	}
	var attrs []imapengine.MailboxAttr
	for _, a := range strings.Fields(rest[1:closeIdx]) {
		attrs = append(attrs, imapengine.MailboxAttr(a))
	}
	rest = strings.TrimSpace(rest[closeIdx+1:])

	delim, rest := takeQuotedOrNil(rest)
	name, _ := takeQuotedOrNil(rest)
	name = strings.Trim(name, `"`)

	var delimRune rune
	if d := strings.Trim(delim, `"`); d != "" {
		delimRune = rune(d[0])
	}

	reversed, err := imaputf7.Reverse(name, ns)
	if err != nil {
		reversed = name
	}
	return imapengine.ListData{Attrs: attrs, Delim: delimRune, Mailbox: reversed}, true
}

// takeQuotedOrNil consumes the next whitespace-delimited token
// (a quoted string or NIL) from s and returns it plus the remainder.
func takeQuotedOrNil(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if s[0] != '"' {
		i := strings.IndexByte(s, ' ')
		if i < 0 {
			return s, ""
		}
		return s[:i], s[i+1:]
	}
	end := strings.IndexByte(s[1:], '"')
	if end < 0 {
		return s, ""
	}
	end += 1
	return s[:end+1], strings.TrimSpace(s[end+1:])
}
