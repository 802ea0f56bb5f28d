package imapclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	imapengine "github.com/mailrule/imapengine"
)

// Search issues UID SEARCH against the selected mailbox and returns the
// matching UIDs. An empty result is returned as an empty (non-nil is
// not guaranteed) slice, not an error (spec §8 boundary behavior).
func (s *Session) Search(ctx context.Context, criteria imapengine.SearchCriteria) ([]imapengine.UID, error) {
	if err := requireSelected(s); err != nil {
		return nil, err
	}

	line := "UID SEARCH "
	if criteria.Charset != "" {
		line += "CHARSET " + criteria.Charset + " "
	}
	line += encodeSearchCriteria(criteria)
	var uids []imapengine.UID

	status, respErr, err := s.runCommand(ctx, line, "", func(l respLine) error {
		rest := strings.TrimPrefix(l.raw, "* ")
		if !strings.HasPrefix(strings.ToUpper(rest), "SEARCH") {
			return nil
		}
		for _, tok := range strings.Fields(rest[len("SEARCH"):]) {
			n, err := strconv.ParseUint(tok, 10, 32)
			if err != nil {
				continue
			}
			uids = append(uids, imapengine.UID(n))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if status != imapengine.StatusOk {
		return nil, fmt.Errorf("imapclient: SEARCH: %w", respErr)
	}
	return uids, nil
}

func encodeSearchCriteria(c imapengine.SearchCriteria) string {
	var parts []string

	if !c.Since.IsZero() {
		parts = append(parts, "SINCE "+imapDate(c.Since))
	}
	if !c.Before.IsZero() {
		parts = append(parts, "BEFORE "+imapDate(c.Before))
	}
	if !c.SentSince.IsZero() {
		parts = append(parts, "SENTSINCE "+imapDate(c.SentSince))
	}
	if !c.SentBefore.IsZero() {
		parts = append(parts, "SENTBEFORE "+imapDate(c.SentBefore))
	}
	for _, h := range c.Header {
		parts = append(parts, fmt.Sprintf("HEADER %s %s", h.Key, quoteString(h.Value)))
	}
	for _, b := range c.Body {
		parts = append(parts, "BODY "+quoteString(b))
	}
	for _, t := range c.Text {
		parts = append(parts, "TEXT "+quoteString(t))
	}
	for _, f := range c.Flag {
		parts = append(parts, strings.ToUpper(string(f)[1:])) // "\Seen" -> "SEEN"
	}
	for _, f := range c.NotFlag {
		parts = append(parts, "UN"+strings.ToUpper(string(f)[1:]))
	}
	if c.Larger > 0 {
		parts = append(parts, fmt.Sprintf("LARGER %d", c.Larger))
	}
	if c.Smaller > 0 {
		parts = append(parts, fmt.Sprintf("SMALLER %d", c.Smaller))
	}
	for _, not := range c.Not {
		parts = append(parts, "NOT ("+encodeSearchCriteria(not)+")")
	}
	for _, or := range c.Or {
		parts = append(parts, fmt.Sprintf("OR (%s) (%s)", encodeSearchCriteria(or[0]), encodeSearchCriteria(or[1])))
	}

	if len(parts) == 0 {
		return "ALL"
	}
	return strings.Join(parts, " ")
}

func imapDate(t time.Time) string {
	return t.Format("2-Jan-2006")
}
