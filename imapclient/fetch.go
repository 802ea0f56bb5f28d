package imapclient

import (
	"context"
	"fmt"
	"mime"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/charset"

	imapengine "github.com/mailrule/imapengine"
)

// headerWordDecoder decodes RFC 2047 encoded-words in header text fetched
// by FetchHeader/FetchFields. charset.Reader extends mime's built-in
// decoder with the wider encoding table go-message carries (ISO-2022-JP,
// GBK, KOI8-R, ...), the same customization point the underlying library
// documents for its own WordDecoder.
var headerWordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}

// DecodeHeaderWord decodes RFC 2047 encoded-words in a header field value
// (e.g. "=?UTF-8?Q?caf=C3=A9?="). Text with no encoded words, or an
// encoding headerWordDecoder can't resolve, is returned unchanged.
func DecodeHeaderWord(s string) string {
	decoded, err := headerWordDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}

// FetchFast fetches FLAGS, INTERNALDATE and RFC822.SIZE for uids in one
// round trip.
func (s *Session) FetchFast(ctx context.Context, uids imapengine.UIDSet) (map[imapengine.UID]imapengine.FetchFast, error) {
	result := make(map[imapengine.UID]imapengine.FetchFast)
	err := s.uidFetch(ctx, uids, "FAST", func(uid imapengine.UID, fields map[string]string, _ []byte) {
		rec := imapengine.FetchFast{}
		if fs, ok := fields["FLAGS"]; ok {
			rec.Flags = parseFlagList(fs)
		}
		if d, ok := fields["INTERNALDATE"]; ok {
			rec.Date = parseIMAPDateTime(d)
		}
		if sz, ok := fields["RFC822.SIZE"]; ok {
			n, _ := strconv.ParseInt(sz, 10, 64)
			rec.Size = n
		}
		result[uid] = rec
	})
	return result, err
}

// FetchFlags fetches just FLAGS for uids.
func (s *Session) FetchFlags(ctx context.Context, uids imapengine.UIDSet) (map[imapengine.UID][]imapengine.Flag, error) {
	result := make(map[imapengine.UID][]imapengine.Flag)
	err := s.uidFetch(ctx, uids, "FLAGS", func(uid imapengine.UID, fields map[string]string, _ []byte) {
		result[uid] = parseFlagList(fields["FLAGS"])
	})
	return result, err
}

// FetchDate fetches INTERNALDATE for uids.
func (s *Session) FetchDate(ctx context.Context, uids imapengine.UIDSet) (map[imapengine.UID]time.Time, error) {
	result := make(map[imapengine.UID]time.Time)
	err := s.uidFetch(ctx, uids, "INTERNALDATE", func(uid imapengine.UID, fields map[string]string, _ []byte) {
		result[uid] = parseIMAPDateTime(fields["INTERNALDATE"])
	})
	return result, err
}

// FetchSize fetches RFC822.SIZE for uids.
func (s *Session) FetchSize(ctx context.Context, uids imapengine.UIDSet) (map[imapengine.UID]int64, error) {
	result := make(map[imapengine.UID]int64)
	err := s.uidFetch(ctx, uids, "RFC822.SIZE", func(uid imapengine.UID, fields map[string]string, _ []byte) {
		n, _ := strconv.ParseInt(fields["RFC822.SIZE"], 10, 64)
		result[uid] = n
	})
	return result, err
}

// FetchStructure fetches BODYSTRUCTURE as an opaque wire-form string —
// this engine hands the caller's rule script the raw structure text
// rather than a parsed MIME tree.
func (s *Session) FetchStructure(ctx context.Context, uids imapengine.UIDSet) (map[imapengine.UID]string, error) {
	result := make(map[imapengine.UID]string)
	err := s.uidFetch(ctx, uids, "BODYSTRUCTURE", func(uid imapengine.UID, fields map[string]string, _ []byte) {
		result[uid] = fields["BODYSTRUCTURE"]
	})
	return result, err
}

// FetchHeader fetches BODY.PEEK[HEADER] for uids.
func (s *Session) FetchHeader(ctx context.Context, uids imapengine.UIDSet) (map[imapengine.UID][]byte, error) {
	return s.fetchBodySection(ctx, uids, "HEADER")
}

// FetchText fetches BODY.PEEK[TEXT] for uids.
func (s *Session) FetchText(ctx context.Context, uids imapengine.UIDSet) (map[imapengine.UID][]byte, error) {
	return s.fetchBodySection(ctx, uids, "TEXT")
}

// FetchFields fetches BODY.PEEK[HEADER.FIELDS (...)] for the named
// header fields.
func (s *Session) FetchFields(ctx context.Context, uids imapengine.UIDSet, fields []string) (map[imapengine.UID][]byte, error) {
	section := fmt.Sprintf("HEADER.FIELDS (%s)", strings.Join(fields, " "))
	return s.fetchBodySection(ctx, uids, section)
}

// FetchPart fetches BODY.PEEK[<part>] for the given MIME part path.
func (s *Session) FetchPart(ctx context.Context, uids imapengine.UIDSet, part imapengine.BodyPart) (map[imapengine.UID][]byte, error) {
	return s.fetchBodySection(ctx, uids, part.String())
}

func (s *Session) fetchBodySection(ctx context.Context, uids imapengine.UIDSet, section string) (map[imapengine.UID][]byte, error) {
	result := make(map[imapengine.UID][]byte)
	item := fmt.Sprintf("BODY.PEEK[%s]", section)
	err := s.uidFetch(ctx, uids, item, func(uid imapengine.UID, _ map[string]string, body []byte) {
		cp := make([]byte, len(body))
		copy(cp, body)
		result[uid] = cp
	})
	return result, err
}

// uidFetch issues UID FETCH <uids> (UID <item>) and dispatches each
// per-message response to onMessage, which receives the message's UID,
// its non-literal FETCH fields as a flat map, and any literal body
// payload found on the line (the borrowed view spec §4.F and §9
// describe — callers that need to retain it must copy before the next
// call, which fetchBodySection above already does on the caller's
// behalf since this engine hands the result back as a map, not a
// streaming iterator).
func (s *Session) uidFetch(ctx context.Context, uids imapengine.UIDSet, item string, onMessage func(imapengine.UID, map[string]string, []byte)) error {
	if err := requireSelected(s); err != nil {
		return err
	}
	line := fmt.Sprintf("UID FETCH %s (UID %s)", uids.String(), item)

	status, respErr, err := s.runCommand(ctx, line, "", func(l respLine) error {
		rest := strings.TrimPrefix(l.raw, "* ")
		fields := strings.Fields(rest)
		if len(fields) < 2 || !strings.EqualFold(fields[1], "FETCH") {
			return nil
		}
		i := strings.IndexByte(rest, '(')
		if i < 0 {
			return nil
		}
		uid, kv := parseFetchFields(rest[i+1:], l.literal, l.suffix)
		onMessage(uid, kv, l.literal)
		return nil
	})
	if err != nil {
		return err
	}
	if status != imapengine.StatusOk {
		return fmt.Errorf("imapclient: UID FETCH: %w", respErr)
	}
	return nil
}

// parseFetchFields parses the "(UID n FLAGS (...) ...)" body of a FETCH
// response into a flat key/value map; a key whose value was a literal
// (BODY[...] sections) is left out of the map, since the actual bytes
// travel separately in the respLine.
func parseFetchFields(s string, literal []byte, suffix string) (imapengine.UID, map[string]string) {
	full := s
	if literal != nil {
		full = s + suffix
	}
	full = strings.TrimSuffix(strings.TrimSpace(full), ")")

	fields := make(map[string]string)
	var uid imapengine.UID

	toks := tokenizeParenList(full)
	for i := 0; i+1 < len(toks); i += 2 {
		key := strings.ToUpper(toks[i])
		val := toks[i+1]
		if key == "UID" {
			n, _ := strconv.ParseUint(val, 10, 32)
			uid = imapengine.UID(n)
			continue
		}
		fields[key] = val
	}
	return uid, fields
}

// tokenizeParenList splits a FETCH field list into alternating
// key/value tokens, treating "(...)" and quoted strings as single
// tokens.
func tokenizeParenList(s string) []string {
	var toks []string
	i := 0
	for i < len(s) {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			break
		}
		switch s[i] {
		case '(':
			depth := 1
			j := i + 1
			for j < len(s) && depth > 0 {
				switch s[j] {
				case '(':
					depth++
				case ')':
					depth--
				}
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		case '"':
			j := i + 1
			for j < len(s) && s[j] != '"' {
				j++
			}
			toks = append(toks, s[i:j+1])
			i = j + 1
		default:
			j := i
			for j < len(s) && s[j] != ' ' {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks
}

// parseIMAPDateTime parses an INTERNALDATE-style quoted date-time, e.g.
// `"17-Jul-1996 02:44:25 -0700"`.
func parseIMAPDateTime(s string) time.Time {
	s = strings.Trim(s, `"`)
	t, err := time.Parse("2-Jan-2006 15:04:05 -0700", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
