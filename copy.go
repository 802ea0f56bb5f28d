package imap

// CopyData holds the UIDPLUS fields a COPY response code can carry.
// imapclient's Session.Copy does not parse COPYUID: it fills only
// SourceUIDs, with the UIDs it was asked to copy.
type CopyData struct {
	UIDValidity uint32
	SourceUIDs  UIDSet
	DestUIDs    UIDSet
}
