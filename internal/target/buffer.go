package target

// CommandBuffer is a reusable growable byte buffer for assembling
// synthesized target command streams. Reset() lets a caller reuse its
// backing array across operations instead of allocating a fresh slice
// for every read_xdata/write_xdata call, per the design note recommending
// a scratch buffer over per-call allocation.
type CommandBuffer struct {
	buf []byte
}

// Reset empties the buffer while keeping its backing array.
func (b *CommandBuffer) Reset() {
	b.buf = b.buf[:0]
}

// Add appends data to the buffer.
func (b *CommandBuffer) Add(data ...byte) {
	b.buf = append(b.buf, data...)
}

// Bytes returns the buffer's current contents.
func (b *CommandBuffer) Bytes() []byte {
	return b.buf
}

// Len returns the number of bytes currently held.
func (b *CommandBuffer) Len() int {
	return len(b.buf)
}
