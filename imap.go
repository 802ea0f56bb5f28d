// Package imap holds the wire-level types shared by the request
// dispatcher in imapclient: connection/session states, mailbox and
// message flags, the capability bitset, and search/fetch/store argument
// and result shapes. It has no network code of its own; imapclient is the
// engine that drives a session through these types.
package imap

import "fmt"

// ConnState describes where a Session sits in the engine's state machine:
// Disconnected -> Greeted -> Authenticated -> Selected.
type ConnState int

const (
	ConnStateDisconnected ConnState = iota
	ConnStateGreeted
	ConnStateAuthenticated
	ConnStateSelected
)

func (s ConnState) String() string {
	switch s {
	case ConnStateDisconnected:
		return "disconnected"
	case ConnStateGreeted:
		return "greeted"
	case ConnStateAuthenticated:
		return "authenticated"
	case ConnStateSelected:
		return "selected"
	default:
		return fmt.Sprintf("ConnState(%d)", int(s))
	}
}

// Protocol identifies the dialect a server greeted us with.
type Protocol int

const (
	ProtocolNone Protocol = iota
	ProtocolIMAP4
	ProtocolIMAP4rev1
)

func (p Protocol) String() string {
	switch p {
	case ProtocolIMAP4:
		return "IMAP4"
	case ProtocolIMAP4rev1:
		return "IMAP4rev1"
	default:
		return "none"
	}
}

// Cap is one bit of the server capability set the engine acts on. This is
// a small, closed set rather than a generic capability-string registry
// because the dispatcher only branches on these specific capabilities.
type Cap uint16

const (
	CapNamespace Cap = 1 << iota
	CapCramMD5
	CapStartTLS
	CapChildren
	CapIdle
	CapXOAuth2
	CapLoginDisabled
)

// CapSet is a bitset of Cap values.
type CapSet uint16

func (s CapSet) Has(c Cap) bool { return s&CapSet(c) != 0 }

func (s *CapSet) Set(c Cap)   { *s |= CapSet(c) }
func (s *CapSet) Clear(c Cap) { *s &^= CapSet(c) }

// TLSProto selects the minimum TLS version to accept, or Auto to let
// crypto/tls negotiate. SSL3 and TLS1.0/1.1 are accepted for
// configuration compatibility with the option's historical enum; they
// are not rejected, but are raised to the same TLS 1.2 minimum Auto
// uses, so no session negotiates below TLS 1.2.
type TLSProto int

const (
	TLSProtoAuto TLSProto = iota
	TLSProtoSSL3
	TLSProtoTLS1
	TLSProtoTLS1_1
	TLSProtoTLS1_2
	TLSProtoTLS1_3
)

func (p TLSProto) String() string {
	switch p {
	case TLSProtoSSL3:
		return "ssl3"
	case TLSProtoTLS1:
		return "tls1"
	case TLSProtoTLS1_1:
		return "tls1.1"
	case TLSProtoTLS1_2:
		return "tls1.2"
	case TLSProtoTLS1_3:
		return "tls1.3"
	default:
		return "auto"
	}
}

// RecoverPolicy governs whether the dispatcher attempts a silent
// reconnect-and-relogin after a transport failure or a BYE response.
type RecoverPolicy int

const (
	RecoverNone RecoverPolicy = iota
	RecoverErrors
	RecoverAll
)

// ParseRecoverPolicy maps the "recover" option string to a RecoverPolicy,
// defaulting to RecoverNone for anything unrecognized.
func ParseRecoverPolicy(s string) RecoverPolicy {
	switch s {
	case "errors":
		return RecoverErrors
	case "all":
		return RecoverAll
	default:
		return RecoverNone
	}
}

// MailboxAttr is an attribute reported on a LIST/LSUB entry (RFC 3501
// §7.2.2).
type MailboxAttr string

const (
	MailboxAttrNoInferiors MailboxAttr = "\\Noinferiors"
	MailboxAttrNoSelect    MailboxAttr = "\\Noselect"
	MailboxAttrMarked      MailboxAttr = "\\Marked"
	MailboxAttrUnmarked    MailboxAttr = "\\Unmarked"
	MailboxAttrHasChildren MailboxAttr = "\\HasChildren"
	MailboxAttrHasNoChild  MailboxAttr = "\\HasNoChildren"
)

// Flag is a message flag (RFC 3501 §2.3.2).
type Flag string

const (
	FlagSeen     Flag = "\\Seen"
	FlagAnswered Flag = "\\Answered"
	FlagFlagged  Flag = "\\Flagged"
	FlagDeleted  Flag = "\\Deleted"
	FlagDraft    Flag = "\\Draft"
	FlagRecent   Flag = "\\Recent"
)
