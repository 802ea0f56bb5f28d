package imap

// SelectData is the data gathered from a SELECT (or EXAMINE) command's
// untagged responses: FLAGS, EXISTS, RECENT, the OK-coded PERMANENTFLAGS
// / UIDNEXT / UIDVALIDITY, and whether the tagged completion carried the
// READ-ONLY response code.
type SelectData struct {
	Flags          []Flag
	PermanentFlags []Flag
	NumMessages    uint32
	NumRecent      uint32
	UIDNext        UID
	UIDValidity    uint32
	ReadOnly       bool
}
