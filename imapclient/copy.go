package imapclient

import (
	"context"
	"fmt"

	imapengine "github.com/mailrule/imapengine"
	"github.com/mailrule/imapengine/imaputf7"
)

// Copy issues UID COPY uids mailbox, retrying once via the TRYCREATE
// loop (spec §4.H) if the server reports the target doesn't exist, or
// if the CreateOnNo option treats any NO the same way.
func (s *Session) Copy(ctx context.Context, uids imapengine.UIDSet, mailbox string) (*imapengine.CopyData, error) {
	if err := requireSelected(s); err != nil {
		return nil, err
	}
	wire := imaputf7.Apply(mailbox, s.ns)
	line := fmt.Sprintf("UID COPY %s %s", uids.String(), quoteMailbox(wire))

	status, respErr, err := s.runCommand(ctx, line, "", nil)
	if err != nil {
		return nil, err
	}

	if status == imapengine.StatusTryCreate {
		if err := s.tryCreateAndRetry(ctx, mailbox); err != nil {
			return nil, err
		}
		status, respErr, err = s.runCommand(ctx, line, "", nil)
		if err != nil {
			return nil, err
		}
	}

	if status != imapengine.StatusOk {
		return nil, fmt.Errorf("imapclient: COPY to %s: %w", mailbox, respErr)
	}
	return &imapengine.CopyData{SourceUIDs: uids}, nil
}

// tryCreateAndRetry implements the CREATE-then-optional-SUBSCRIBE half
// of the TRYCREATE loop shared by COPY and APPEND.
func (s *Session) tryCreateAndRetry(ctx context.Context, mailbox string) error {
	s.engine.metrics.tryCreates.Inc()
	if err := s.Create(ctx, mailbox); err != nil {
		return fmt.Errorf("imapclient: TRYCREATE: %w", err)
	}
	if s.engine.options.SubscribeOnCreate() {
		if err := s.Subscribe(ctx, mailbox); err != nil {
			return fmt.Errorf("imapclient: TRYCREATE subscribe: %w", err)
		}
	}
	return nil
}
