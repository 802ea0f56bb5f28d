package imapclient

import (
	"context"
	"fmt"
	"strings"

	imapengine "github.com/mailrule/imapengine"
)

// refreshCapabilities sends CAPABILITY and replaces the session's
// capability set and protocol dialect from the reply. Called after
// connect, after STARTTLS, and after authentication, since capabilities
// must never be trusted across those transitions (spec §3 invariant).
func (s *Session) refreshCapabilities(ctx context.Context) error {
	var caps imapengine.CapSet
	var protocol imapengine.Protocol

	status, respErr, err := s.runCommand(ctx, "CAPABILITY", "", func(line respLine) error {
		rest := strings.TrimPrefix(line.raw, "* ")
		if !strings.HasPrefix(strings.ToUpper(rest), "CAPABILITY") {
			return nil
		}
		rest = strings.TrimSpace(rest[len("CAPABILITY"):])
		for _, tok := range strings.Fields(rest) {
			switch strings.ToUpper(tok) {
			case "IMAP4":
				protocol = imapengine.ProtocolIMAP4
			case "IMAP4REV1":
				protocol = imapengine.ProtocolIMAP4rev1
			case "NAMESPACE":
				caps.Set(imapengine.CapNamespace)
			case "AUTH=CRAM-MD5":
				caps.Set(imapengine.CapCramMD5)
			case "STARTTLS":
				caps.Set(imapengine.CapStartTLS)
			case "CHILDREN":
				caps.Set(imapengine.CapChildren)
			case "IDLE":
				caps.Set(imapengine.CapIdle)
			case "AUTH=XOAUTH2":
				caps.Set(imapengine.CapXOAuth2)
			case "LOGINDISABLED":
				caps.Set(imapengine.CapLoginDisabled)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if status != imapengine.StatusOk {
		return fmt.Errorf("imapclient: CAPABILITY: %w", respErr)
	}
	if protocol == imapengine.ProtocolNone {
		return fmt.Errorf("imapclient: server did not advertise IMAP4 or IMAP4rev1")
	}

	s.protocol = protocol
	s.caps = caps
	return nil
}

// Capabilities returns the session's last-negotiated capability set.
func (s *Session) Capabilities() imapengine.CapSet { return s.caps }

// Protocol returns the dialect the server greeted with.
func (s *Session) Protocol() imapengine.Protocol { return s.protocol }
