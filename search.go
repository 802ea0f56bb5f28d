package imap

import "time"

// SearchCriteria is the argument to a SEARCH command. When multiple
// fields are set the result is the intersection (logical AND); Not and Or
// combine sub-criteria explicitly.
//
// Matches what a mailbox-filtering rule needs to express rather than
// every SEARCH key RFC 3501 defines.
type SearchCriteria struct {
	// Date-only comparisons; time of day and zone are ignored.
	Since      time.Time
	Before     time.Time
	SentSince  time.Time
	SentBefore time.Time

	Header []SearchHeaderField
	Body   []string
	Text   []string

	Flag    []Flag
	NotFlag []Flag

	Larger  int64
	Smaller int64

	Not []SearchCriteria
	Or  [][2]SearchCriteria

	// Charset names the character set the criteria strings are encoded
	// in, sent as SEARCH CHARSET. Empty means US-ASCII.
	Charset string
}

// SearchHeaderField matches a header field by name, optionally requiring
// a substring of its value.
type SearchHeaderField struct {
	Key, Value string
}

// SearchData is the UID list assembled from a SEARCH command's untagged
// response.
type SearchData struct {
	UIDs []UID
}
