package imapclient

import (
	"testing"

	imapengine "github.com/mailrule/imapengine"
)

func TestNextTagHexWraps(t *testing.T) {
	s := &Session{nextTag: tagHigh}
	if got := s.nextTagHex(); got != "FFFF" {
		t.Fatalf("tag at tagHigh = %q, want FFFF", got)
	}
	if got := s.nextTagHex(); got != "1000" {
		t.Fatalf("tag after wraparound = %q, want 1000", got)
	}
	if got := s.nextTagHex(); got != "1001" {
		t.Fatalf("tag after second wraparound step = %q, want 1001", got)
	}
}

func TestNextTagHexDefaultsOutOfRange(t *testing.T) {
	s := &Session{nextTag: 0}
	if got := s.nextTagHex(); got != "1000" {
		t.Fatalf("tag starting at 0 = %q, want 1000 (below tagLow resets)", got)
	}
}

func TestParseCompletion(t *testing.T) {
	cases := []struct {
		line       string
		wantStatus imapengine.Status
		wantCode   imapengine.ResponseCode
		wantText   string
	}{
		{"A001 OK LOGIN completed", imapengine.StatusOk, "", "LOGIN completed"},
		{"A001 NO [TRYCREATE] mailbox missing", imapengine.StatusNo, imapengine.ResponseCodeTryCreate, "mailbox missing"},
		{"A001 BAD unrecognized command", imapengine.StatusBad, "", "unrecognized command"},
		{"* PREAUTH already authenticated", imapengine.StatusPreauth, "", "already authenticated"},
	}
	for _, c := range cases {
		status, code, text := parseCompletion(c.line)
		if status != c.wantStatus || code != c.wantCode || text != c.wantText {
			t.Errorf("parseCompletion(%q) = (%v, %v, %q), want (%v, %v, %q)",
				c.line, status, code, text, c.wantStatus, c.wantCode, c.wantText)
		}
	}
}

func TestMatchesTag(t *testing.T) {
	if !matchesTag("A001 OK done", "A001") {
		t.Fatalf("expected A001 to match")
	}
	if matchesTag("A0011 OK done", "A001") {
		t.Fatalf("A0011 should not match tag A001 (needs a space boundary)")
	}
	if !matchesTag("a001 ok done", "A001") {
		t.Fatalf("tag comparison should be case-insensitive")
	}
	if matchesTag("* OK done", "A001") {
		t.Fatalf("untagged line should not match a tag")
	}
}

func TestMatchBye(t *testing.T) {
	ok, text := matchBye("* BYE server shutting down")
	if !ok || text != "server shutting down" {
		t.Fatalf("matchBye = (%v, %q)", ok, text)
	}
	if ok, _ := matchBye("* OK still here"); ok {
		t.Fatalf("matchBye should not fire on non-BYE lines")
	}
}

func TestParseFlagList(t *testing.T) {
	flags := parseFlagList(`(\Seen \Answered)`)
	if len(flags) != 2 || flags[0] != "\\Seen" || flags[1] != "\\Answered" {
		t.Fatalf("parseFlagList = %v", flags)
	}
	if flags := parseFlagList("()"); flags != nil {
		t.Fatalf("parseFlagList of empty parens = %v, want nil", flags)
	}
}

func TestParseUIDCode(t *testing.T) {
	if got := parseUIDCode("[UIDNEXT 4392]", "UIDNEXT"); got != 4392 {
		t.Fatalf("parseUIDCode = %v, want 4392", got)
	}
	if got := parseUIDCode("[UIDVALIDITY 3857529045] UIDs valid", "UIDVALIDITY"); got != 3857529045 {
		t.Fatalf("parseUIDCode = %v, want 3857529045", got)
	}
	if got := parseUIDCode("[READ-WRITE]", "UIDNEXT"); got != 0 {
		t.Fatalf("parseUIDCode with no matching name = %v, want 0", got)
	}
}

func TestClassifyIdleEvent(t *testing.T) {
	event, woken := classifyIdleEvent("* 4 EXISTS", false)
	if !woken || event != "EXISTS" {
		t.Fatalf("classifyIdleEvent EXISTS = (%q, %v)", event, woken)
	}
	event, woken = classifyIdleEvent("* 2 RECENT", false)
	if !woken || event != "RECENT" {
		t.Fatalf("classifyIdleEvent RECENT = (%q, %v)", event, woken)
	}
	if _, woken := classifyIdleEvent("* OK still here", false); woken {
		t.Fatalf("a plain OK should not be a wake event without wakeOnAny")
	}
	event, woken = classifyIdleEvent("* 7 FETCH (FLAGS (\\Seen))", true)
	if !woken || event != "FETCH" {
		t.Fatalf("classifyIdleEvent with wakeOnAny = (%q, %v)", event, woken)
	}
}

func TestTokenizeParenList(t *testing.T) {
	toks := tokenizeParenList(`UID 42 FLAGS (\Seen) BODY[TEXT] "a b"`)
	want := []string{"UID", "42", "FLAGS", `(\Seen)`, `BODY[TEXT]`, `"a b"`}
	if len(toks) != len(want) {
		t.Fatalf("tokenizeParenList = %v, want %v", toks, want)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, toks[i], want[i])
		}
	}
}

func TestParseIMAPDateTime(t *testing.T) {
	tm := parseIMAPDateTime(`"17-Jul-1996 02:44:25 -0700"`)
	if tm.IsZero() {
		t.Fatalf("parseIMAPDateTime failed to parse a well-formed date")
	}
	if tm.Year() != 1996 || tm.Month().String() != "July" || tm.Day() != 17 {
		t.Fatalf("parseIMAPDateTime = %v, wrong date parts", tm)
	}
	if !parseIMAPDateTime(`"not a date"`).IsZero() {
		t.Fatalf("parseIMAPDateTime should return zero time on malformed input")
	}
}

func TestQuoteMailboxDoesNotEscapeEmbeddedQuotes(t *testing.T) {
	// Deliberate limitation carried over from the original implementation:
	// an embedded `"` is not escaped. Documented in dispatch.go.
	got := quoteMailbox(`weird"name`)
	want := `"weird"name"`
	if got != want {
		t.Fatalf("quoteMailbox(%q) = %q, want %q", `weird"name`, got, want)
	}
}

func TestEncodeSearchCriteriaFlags(t *testing.T) {
	c := imapengine.SearchCriteria{
		Flag:    []imapengine.Flag{imapengine.Flag("\\Seen")},
		NotFlag: []imapengine.Flag{imapengine.Flag("\\Deleted")},
	}
	got := encodeSearchCriteria(c)
	if got == "" {
		t.Fatalf("encodeSearchCriteria produced empty output for non-empty criteria")
	}
}
