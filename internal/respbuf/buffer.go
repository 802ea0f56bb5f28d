// Package respbuf implements the growable accumulation buffer the response
// parser reads server output into. A command can produce an unbounded
// number of untagged responses before its tagged completion, and a FETCH
// literal can be megabytes long, so the parser needs a buffer it controls
// directly rather than relying solely on bufio's read-ahead window.
package respbuf

// Buffer is a single-owner, append-only byte accumulator with doubling
// growth. Its owner resets it before each use (imapclient's wire
// resets it once per literal) and it never shrinks.
type Buffer struct {
	data []byte
}

// New returns a Buffer pre-sized to hold at least initialCap bytes.
func New(initialCap int) *Buffer {
	if initialCap < 64 {
		initialCap = 64
	}
	return &Buffer{data: make([]byte, 0, initialCap)}
}

// Reset empties the buffer without releasing its backing array.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
}

// Grow ensures the buffer can append n more bytes without reallocating on
// every call, doubling capacity until n fits.
func (b *Buffer) Grow(n int) {
	if cap(b.data)-len(b.data) >= n {
		return
	}
	need := len(b.data) + n
	newCap := cap(b.data)
	if newCap == 0 {
		newCap = 64
	}
	for newCap < need {
		newCap *= 2
	}
	grown := make([]byte, len(b.data), newCap)
	copy(grown, b.data)
	b.data = grown
}

// Append adds p to the end of the buffer, growing as needed.
func (b *Buffer) Append(p []byte) {
	b.Grow(len(p))
	b.data = append(b.data, p...)
}

// Bytes returns the buffer's current contents. The slice is only valid
// until the next Reset or Append/Grow call that forces reallocation.
func (b *Buffer) Bytes() []byte { return b.data }

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int { return len(b.data) }
