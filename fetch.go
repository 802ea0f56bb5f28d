package imap

import (
	"strconv"
	"time"
)

// FetchFast is the result of a "fast" FETCH: flags, internal date and
// RFC822 size in one round trip, the combination the original fetchfast
// verb requests in a single FETCH FAST.
type FetchFast struct {
	Flags []Flag
	Date  time.Time
	Size  int64
}

// BodyPart identifies a MIME body part by its dotted IMAP part number,
// e.g. []int{1, 2} for "1.2". A nil or empty Part means the whole
// message body.
type BodyPart struct {
	Part []int
}

// String renders the part number in IMAP section-path form ("1.2").
func (p BodyPart) String() string {
	if len(p.Part) == 0 {
		return ""
	}
	s := ""
	for i, n := range p.Part {
		if i > 0 {
			s += "."
		}
		s += strconv.Itoa(n)
	}
	return s
}

// FetchBody pairs a UID with the bytes of a fetched body section. The
// imapclient verbs FetchHeader, FetchText, FetchFields and FetchPart do
// not return this type: they return a map[UID][]byte holding copies of
// the literal bytes, which stay valid after later engine calls.
type FetchBody struct {
	UID  UID
	Data []byte
}
