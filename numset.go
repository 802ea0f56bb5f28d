package imap

import (
	"strconv"
	"strings"
)

// UID is a message's unique identifier within a mailbox, stable across
// sessions as long as UIDVALIDITY does not change.
type UID uint32

// UIDRange is an inclusive range of UIDs. Stop of 0 means "*", the highest
// UID in the mailbox.
type UIDRange struct {
	Start, Stop UID
}

// UIDSet is an IMAP UID set, the wire form used by SEARCH, FETCH, STORE,
// COPY and APPEND responses.
type UIDSet []UIDRange

// UIDSetNum builds a UIDSet containing exactly the given UIDs.
func UIDSetNum(uids ...UID) UIDSet {
	s := make(UIDSet, 0, len(uids))
	for _, u := range uids {
		s = append(s, UIDRange{Start: u, Stop: u})
	}
	return s
}

// ParseUIDSet parses a SEARCH response's space-separated UID list, or a
// comma-separated range set such as "1:4,8,12:*".
func ParseUIDSet(s string) (UIDSet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' })
	var set UIDSet
	for _, f := range fields {
		if f == "" {
			continue
		}
		if idx := strings.IndexByte(f, ':'); idx >= 0 {
			start, err := parseUIDToken(f[:idx])
			if err != nil {
				return nil, err
			}
			stop, err := parseUIDToken(f[idx+1:])
			if err != nil {
				return nil, err
			}
			set = append(set, UIDRange{Start: start, Stop: stop})
			continue
		}
		u, err := parseUIDToken(f)
		if err != nil {
			return nil, err
		}
		set = append(set, UIDRange{Start: u, Stop: u})
	}
	return set, nil
}

func parseUIDToken(tok string) (UID, error) {
	if tok == "*" {
		return 0, nil
	}
	n, err := strconv.ParseUint(tok, 10, 32)
	if err != nil {
		return 0, err
	}
	return UID(n), nil
}

// String renders the set in IMAP wire form.
func (s UIDSet) String() string {
	parts := make([]string, 0, len(s))
	for _, r := range s {
		if r.Start == r.Stop {
			parts = append(parts, uidToken(r.Start))
			continue
		}
		parts = append(parts, uidToken(r.Start)+":"+uidToken(r.Stop))
	}
	return strings.Join(parts, ",")
}

func uidToken(u UID) string {
	if u == 0 {
		return "*"
	}
	return strconv.FormatUint(uint64(u), 10)
}

// Nums expands the set into an explicit slice of UIDs. It returns
// ok=false if the set contains a "*" range, which cannot be expanded
// without knowing the mailbox's current highest UID.
func (s UIDSet) Nums() ([]UID, bool) {
	var out []UID
	for _, r := range s {
		if r.Start == 0 || r.Stop == 0 {
			return nil, false
		}
		for u := r.Start; u <= r.Stop; u++ {
			out = append(out, u)
		}
	}
	return out, true
}

// Contains reports whether uid falls within any range in the set.
func (s UIDSet) Contains(uid UID) bool {
	for _, r := range s {
		lo, hi := r.Start, r.Stop
		if lo > hi && hi != 0 {
			lo, hi = hi, lo
		}
		if uid >= lo && (hi == 0 || uid <= hi) {
			return true
		}
	}
	return false
}
