package imapclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	imapengine "github.com/mailrule/imapengine"
	"github.com/mailrule/imapengine/imaputf7"
)

// Select issues SELECT (or EXAMINE via SelectReadOnly), applying the
// namespace codec to mailbox on the way out.
func (s *Session) Select(ctx context.Context, mailbox string) (*imapengine.SelectData, error) {
	return s.selectOrExamine(ctx, mailbox, "SELECT")
}

// SelectReadOnly issues EXAMINE, which never sets \Deleted-style side
// effects and always yields a read-only mailbox.
func (s *Session) SelectReadOnly(ctx context.Context, mailbox string) (*imapengine.SelectData, error) {
	return s.selectOrExamine(ctx, mailbox, "EXAMINE")
}

func (s *Session) selectOrExamine(ctx context.Context, mailbox, verb string) (*imapengine.SelectData, error) {
	wire := imaputf7.Apply(mailbox, s.ns)
	var data imapengine.SelectData

	status, respErr, err := s.runCommand(ctx, verb+" "+quoteMailbox(wire), "", func(line respLine) error {
		rest := strings.TrimPrefix(line.raw, "* ")
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return nil
		}
		if n, numErr := strconv.Atoi(fields[0]); numErr == nil && len(fields) >= 2 {
			switch strings.ToUpper(fields[1]) {
			case "EXISTS":
				data.NumMessages = uint32(n)
			case "RECENT":
				data.NumRecent = uint32(n)
			}
			return nil
		}
		switch strings.ToUpper(fields[0]) {
		case "FLAGS":
			data.Flags = parseFlagList(rest[len("FLAGS"):])
		case "OK":
			code, _ := splitResponseCode(strings.TrimSpace(rest[len("OK"):]))
			handleSelectCode(&data, code, rest)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if status != imapengine.StatusOk {
		return nil, fmt.Errorf("imapclient: %s %s: %w", verb, mailbox, respErr)
	}
	if respErr.Code == imapengine.ResponseCodeReadOnly {
		data.ReadOnly = true
	}

	s.selected = mailbox
	s.readOnly = data.ReadOnly || verb == "EXAMINE"
	return &data, nil
}

func handleSelectCode(data *imapengine.SelectData, code imapengine.ResponseCode, rest string) {
	switch code {
	case imapengine.ResponseCodePermFlags:
		if i := strings.Index(rest, "PERMANENTFLAGS"); i >= 0 {
			data.PermanentFlags = parseFlagList(rest[i+len("PERMANENTFLAGS"):])
		}
	case imapengine.ResponseCodeUIDNext:
		data.UIDNext = parseUIDCode(rest, "UIDNEXT")
	case imapengine.ResponseCodeUIDValidity:
		if v := parseUIDCode(rest, "UIDVALIDITY"); v != 0 {
			data.UIDValidity = uint32(v)
		}
	case imapengine.ResponseCodeReadOnly:
		data.ReadOnly = true
	}
}

func parseUIDCode(rest, name string) imapengine.UID {
	i := strings.Index(strings.ToUpper(rest), name)
	if i < 0 {
		return 0
	}
	rest = strings.TrimSpace(rest[i+len(name):])
	end := strings.IndexAny(rest, " ]")
	if end >= 0 {
		rest = rest[:end]
	}
	n, _ := strconv.ParseUint(rest, 10, 32)
	return imapengine.UID(n)
}

func parseFlagList(s string) []imapengine.Flag {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	if s == "" {
		return nil
	}
	var flags []imapengine.Flag
	for _, f := range strings.Fields(s) {
		flags = append(flags, imapengine.Flag(f))
	}
	return flags
}

// Close issues CLOSE, which silently expunges \Deleted messages and
// deselects the mailbox.
func (s *Session) Close(ctx context.Context) error {
	status, respErr, err := s.simple(ctx, "CLOSE")
	if err != nil {
		return err
	}
	if status != imapengine.StatusOk {
		return fmt.Errorf("imapclient: CLOSE: %w", respErr)
	}
	s.selected = ""
	s.readOnly = false
	return nil
}

// Expunge issues EXPUNGE on the selected mailbox.
func (s *Session) Expunge(ctx context.Context) error {
	if err := requireSelected(s); err != nil {
		return err
	}
	status, respErr, err := s.simple(ctx, "EXPUNGE")
	if err != nil {
		return err
	}
	if status != imapengine.StatusOk {
		return fmt.Errorf("imapclient: EXPUNGE: %w", respErr)
	}
	return nil
}

// Noop issues NOOP; idempotent, leaves server-visible state unchanged.
func (s *Session) Noop(ctx context.Context) error {
	status, respErr, err := s.simple(ctx, "NOOP")
	if err != nil {
		return err
	}
	if status != imapengine.StatusOk {
		return fmt.Errorf("imapclient: NOOP: %w", respErr)
	}
	return nil
}
