package imap

import "time"

// AppendOptions is the argument to an APPEND command.
type AppendOptions struct {
	Flags []Flag
	Time  time.Time
}

// AppendData holds the UIDPLUS fields an APPEND response code can carry.
// imapclient's Session.Append does not parse APPENDUID and returns it
// with both fields zero.
type AppendData struct {
	UID         UID
	UIDValidity uint32
}
