package imapclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	imapengine "github.com/mailrule/imapengine"
	"github.com/mailrule/imapengine/imaputf7"
)

// Status issues STATUS for mailbox, requesting exactly the counters
// opts asks for.
func (s *Session) Status(ctx context.Context, mailbox string, opts imapengine.StatusOptions) (*imapengine.StatusData, error) {
	var items []string
	if opts.NumMessages {
		items = append(items, "MESSAGES")
	}
	if opts.NumRecent {
		items = append(items, "RECENT")
	}
	if opts.NumUnseen {
		items = append(items, "UNSEEN")
	}
	if opts.UIDNext {
		items = append(items, "UIDNEXT")
	}
	if opts.UIDValidity {
		items = append(items, "UIDVALIDITY")
	}

	wire := imaputf7.Apply(mailbox, s.ns)
	data := &imapengine.StatusData{Mailbox: mailbox}

	status, respErr, err := s.runCommand(ctx, fmt.Sprintf("STATUS %s (%s)", quoteMailbox(wire), strings.Join(items, " ")), "", func(line respLine) error {
		rest := strings.TrimPrefix(line.raw, "* ")
		if !strings.HasPrefix(strings.ToUpper(rest), "STATUS") {
			return nil
		}
		i := strings.IndexByte(rest, '(')
		j := strings.LastIndexByte(rest, ')')
		if i < 0 || j < 0 || j < i {
			return nil
		}
		fields := strings.Fields(rest[i+1 : j])
		for k := 0; k+1 < len(fields); k += 2 {
			n, _ := strconv.ParseUint(fields[k+1], 10, 32)
			switch strings.ToUpper(fields[k]) {
			case "MESSAGES":
				v := uint32(n)
				data.NumMessages = &v
			case "RECENT":
				v := uint32(n)
				data.NumRecent = &v
			case "UNSEEN":
				v := uint32(n)
				data.NumUnseen = &v
			case "UIDNEXT":
				data.UIDNext = imapengine.UID(n)
			case "UIDVALIDITY":
				data.UIDValidity = uint32(n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if status != imapengine.StatusOk {
		return nil, fmt.Errorf("imapclient: STATUS %s: %w", mailbox, respErr)
	}
	return data, nil
}
