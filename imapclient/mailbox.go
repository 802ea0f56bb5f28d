package imapclient

import (
	"context"
	"fmt"

	imapengine "github.com/mailrule/imapengine"
	"github.com/mailrule/imapengine/imaputf7"
)

func (s *Session) mailboxVerb(ctx context.Context, verb, mailbox string) error {
	wire := imaputf7.Apply(mailbox, s.ns)
	status, respErr, err := s.simple(ctx, verb+" "+quoteMailbox(wire))
	if err != nil {
		return err
	}
	if status != imapengine.StatusOk {
		return fmt.Errorf("imapclient: %s %s: %w", verb, mailbox, respErr)
	}
	return nil
}

// Create issues CREATE mailbox.
func (s *Session) Create(ctx context.Context, mailbox string) error { return s.mailboxVerb(ctx, "CREATE", mailbox) }

// Delete issues DELETE mailbox.
func (s *Session) Delete(ctx context.Context, mailbox string) error { return s.mailboxVerb(ctx, "DELETE", mailbox) }

// Subscribe issues SUBSCRIBE mailbox.
func (s *Session) Subscribe(ctx context.Context, mailbox string) error {
	return s.mailboxVerb(ctx, "SUBSCRIBE", mailbox)
}

// Unsubscribe issues UNSUBSCRIBE mailbox.
func (s *Session) Unsubscribe(ctx context.Context, mailbox string) error {
	return s.mailboxVerb(ctx, "UNSUBSCRIBE", mailbox)
}

// Rename issues RENAME old new.
func (s *Session) Rename(ctx context.Context, oldName, newName string) error {
	oldWire := imaputf7.Apply(oldName, s.ns)
	newWire := imaputf7.Apply(newName, s.ns)
	status, respErr, err := s.simple(ctx, fmt.Sprintf("RENAME %s %s", quoteMailbox(oldWire), quoteMailbox(newWire)))
	if err != nil {
		return err
	}
	if status != imapengine.StatusOk {
		return fmt.Errorf("imapclient: RENAME %s %s: %w", oldName, newName, respErr)
	}
	return nil
}
