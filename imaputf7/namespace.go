package imaputf7

import "strings"

// Namespace describes a server's wrapping of personal mailboxes: an
// optional prefix ("INBOX/") and the hierarchy delimiter the server uses
// in place of the internal "/" separator.
type Namespace struct {
	Prefix string // empty means no prefix
	Delim  rune   // zero value means no delimiter translation
}

// noop reports whether this namespace performs no structural rewriting
// (grounded on original_source/namespace.c: a nil prefix with delimiter
// '\0' or '/' is a no-op for both directions).
func (ns Namespace) noop() bool {
	return ns.Prefix == "" && (ns.Delim == 0 || ns.Delim == '/')
}

// Apply converts an internal (user-facing) mailbox name to the form sent
// on the wire: INBOX passes through unchanged, other names are UTF-7
// encoded, prefixed with the namespace prefix, and have '/' rewritten to
// the namespace delimiter.
func Apply(name string, ns Namespace) string {
	if strings.EqualFold(name, "INBOX") {
		return name
	}
	encoded := Encode(name)
	if ns.noop() {
		return encoded
	}
	full := ns.Prefix + encoded
	if ns.Delim != 0 {
		full = strings.ReplaceAll(full, "/", string(ns.Delim))
	}
	return full
}

// Reverse converts a mailbox name as received from the server back to
// internal form: translate the delimiter back to '/' first (Apply
// rewrites '/' to the delimiter across the whole wire name, prefix
// included), strip the namespace prefix, compared in the same
// delimiter-to-'/' form so that both "#mail/" and "INBOX." prefixes
// match, then UTF-7 decode.
func Reverse(name string, ns Namespace) (string, error) {
	if strings.EqualFold(name, "INBOX") {
		return name, nil
	}
	stripped := name
	if !ns.noop() {
		prefix := ns.Prefix
		if ns.Delim != 0 {
			stripped = strings.ReplaceAll(stripped, string(ns.Delim), "/")
			prefix = strings.ReplaceAll(prefix, string(ns.Delim), "/")
		}
		if prefix != "" && strings.HasPrefix(strings.ToLower(stripped), strings.ToLower(prefix)) {
			stripped = stripped[len(prefix):]
		}
	}
	return Decode(stripped)
}
