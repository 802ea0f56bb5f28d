package imapclient

import (
	"context"
	"fmt"
	"strings"

	imapengine "github.com/mailrule/imapengine"
)

// Store issues STORE for uids. If the flags add \Deleted and the
// EXPUNGE option is on, a successful STORE is immediately followed by
// exactly one EXPUNGE (spec §8 invariant 7).
func (s *Session) Store(ctx context.Context, uids imapengine.UIDSet, flags imapengine.StoreFlags) error {
	if err := requireSelected(s); err != nil {
		return err
	}

	var item strings.Builder
	switch flags.Op {
	case imapengine.StoreFlagsAdd:
		item.WriteString("+FLAGS")
	case imapengine.StoreFlagsDel:
		item.WriteString("-FLAGS")
	default:
		item.WriteString("FLAGS")
	}
	if flags.Silent {
		item.WriteString(".SILENT")
	}

	names := make([]string, len(flags.Flags))
	for i, f := range flags.Flags {
		names[i] = string(f)
	}
	line := fmt.Sprintf("UID STORE %s %s (%s)", uids.String(), item.String(), strings.Join(names, " "))

	status, respErr, err := s.runCommand(ctx, line, "", nil)
	if err != nil {
		return err
	}
	if status != imapengine.StatusOk {
		return fmt.Errorf("imapclient: STORE: %w", respErr)
	}

	if flags.Op != imapengine.StoreFlagsDel && containsDeleted(flags.Flags) && s.engine.options.ExpungeOnDelete() {
		return s.Expunge(ctx)
	}
	return nil
}

func containsDeleted(flags []imapengine.Flag) bool {
	for _, f := range flags {
		if f == imapengine.FlagDeleted {
			return true
		}
	}
	return false
}
