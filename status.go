package imap

// StatusOptions selects which counters a STATUS command should request.
type StatusOptions struct {
	NumMessages bool
	NumRecent   bool
	NumUnseen   bool
	UIDNext     bool
	UIDValidity bool
}

// StatusData is the data gathered from a STATUS command's untagged
// response. Mailbox is always populated; the counter fields are nil
// unless the corresponding StatusOptions field was set.
type StatusData struct {
	Mailbox string

	NumMessages *uint32
	NumRecent   *uint32
	NumUnseen   *uint32
	UIDNext     UID
	UIDValidity uint32
}
