package imapclient

import (
	"context"
	"fmt"
	"strings"

	imapengine "github.com/mailrule/imapengine"
	"github.com/mailrule/imapengine/imaputf7"
)

// Append issues APPEND mailbox (flags) [date] {N} message, retrying
// once via the TRYCREATE loop on a missing mailbox.
func (s *Session) Append(ctx context.Context, mailbox string, message []byte, opts imapengine.AppendOptions) (*imapengine.AppendData, error) {
	status, respErr, err := s.appendOnce(ctx, mailbox, message, opts)
	if err != nil {
		return nil, err
	}

	if status == imapengine.StatusTryCreate {
		if err := s.tryCreateAndRetry(ctx, mailbox); err != nil {
			return nil, err
		}
		status, respErr, err = s.appendOnce(ctx, mailbox, message, opts)
		if err != nil {
			return nil, err
		}
	}

	if status != imapengine.StatusOk {
		return nil, fmt.Errorf("imapclient: APPEND to %s: %w", mailbox, respErr)
	}
	return &imapengine.AppendData{}, nil
}

func (s *Session) appendOnce(ctx context.Context, mailbox string, message []byte, opts imapengine.AppendOptions) (imapengine.Status, *imapengine.Error, error) {
	wire := imaputf7.Apply(mailbox, s.ns)

	var b strings.Builder
	fmt.Fprintf(&b, "APPEND %s", quoteMailbox(wire))
	if len(opts.Flags) > 0 {
		names := make([]string, len(opts.Flags))
		for i, f := range opts.Flags {
			names[i] = string(f)
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(names, " "))
	}
	if !opts.Time.IsZero() {
		fmt.Fprintf(&b, " %s", quoteString(opts.Time.Format("2-Jan-2006 15:04:05 -0700")))
	}
	fmt.Fprintf(&b, " {%d}", len(message))

	if !s.live() {
		return imapengine.StatusError, nil, fmt.Errorf("imapclient: session not connected")
	}
	tag := s.nextTagHex()
	s.setDeadline(s.engine.options.Timeout())
	if err := s.w.writeCommand(tag, b.String(), ""); err != nil {
		return s.transportFailure(ctx, err)
	}

	// Await the "+ " continuation inviting the literal, then stream the
	// message bytes followed by CRLF, then fall into the normal
	// tagged-completion read loop.
	line, err := s.w.readLine()
	if err != nil {
		return s.transportFailure(ctx, err)
	}
	if _, ok := parseContinuation(line.raw); !ok {
		if bye, text := matchBye(line.raw); bye {
			s.close()
			return s.fromClassify(s.classify(ctx, &byeError{text: text}, true))
		}
		return imapengine.StatusBad, nil, fmt.Errorf("imapclient: APPEND: expected continuation, got %q", line.raw)
	}

	if _, err := s.w.bw.Write(message); err != nil {
		return s.transportFailure(ctx, err)
	}
	if _, err := s.w.bw.WriteString("\r\n"); err != nil {
		return s.transportFailure(ctx, err)
	}
	if err := s.w.bw.Flush(); err != nil {
		return s.transportFailure(ctx, err)
	}

	return s.awaitTag(ctx, tag, nil)
}

// awaitTag reads lines until the tagged completion for tag, dispatching
// untagged data to onUntagged exactly like runCommand's read loop — the
// half of runCommand that doesn't also send the initial command, needed
// by verbs like APPEND that interleave a literal between send and read.
func (s *Session) awaitTag(ctx context.Context, tag string, onUntagged untaggedFunc) (imapengine.Status, *imapengine.Error, error) {
	for {
		resp, err := s.w.readLine()
		if err != nil {
			return s.transportFailure(ctx, err)
		}
		if isUntagged(resp.raw) {
			if bye, text := matchBye(resp.raw); bye {
				s.close()
				return s.fromClassify(s.classify(ctx, &byeError{text: text}, true))
			}
			if onUntagged != nil {
				if err := onUntagged(resp); err != nil {
					return imapengine.StatusError, nil, err
				}
			}
			continue
		}
		if matchesTag(resp.raw, tag) {
			status, code, text := parseCompletion(resp.raw)
			if status == imapengine.StatusNo && (code == imapengine.ResponseCodeTryCreate || s.engine.options.CreateOnNo()) {
				status = imapengine.StatusTryCreate
			}
			return status, &imapengine.Error{Status: status, Code: code, Text: text}, nil
		}
	}
}
