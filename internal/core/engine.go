package core

// Engine is the incremental hashing state machine shared by the BLAKE2
// variants: the block buffer and its cursor, the running byte counter,
// and the finalization flag. A block is compressed only once a further
// byte arrives for it, so the last block of the message always stays
// buffered for Final — that is what lets the final block be counted by
// its true length rather than padded length.
type Engine[W Word] struct {
	cfg *Config[W]

	h      [8]W
	t0, t1 W
	f0     W

	buf []byte
	off int
}

// NewEngine builds an engine for cfg and derives its chain value from
// the marshaled parameter block.
func NewEngine[W Word](cfg *Config[W], param []byte) *Engine[W] {
	e := &Engine[W]{
		cfg: cfg,
		buf: make([]byte, cfg.BlockBytes()),
	}
	e.Init(param)
	return e
}

// Init re-derives the chain value from a marshaled parameter block and
// clears the counter, the finalization flag, and the buffer. Any
// buffered input is discarded.
func (e *Engine[W]) Init(param []byte) {
	e.cfg.InitChain(&e.h, param)
	e.t0, e.t1, e.f0 = 0, 0, 0
	for i := range e.buf {
		e.buf[i] = 0
	}
	e.off = 0
}

// PrimeKey loads the key into the buffer as a full zero-padded block,
// so it is compressed as the first block once message bytes arrive.
func (e *Engine[W]) PrimeKey(key []byte) {
	for i := range e.buf {
		e.buf[i] = 0
	}
	copy(e.buf, key)
	e.off = len(e.buf)
}

// bump advances the byte counter by n, carrying into the high word
// when the low word wraps.
func (e *Engine[W]) bump(n int) {
	e.t0 += W(n)
	if e.t0 < W(n) {
		e.t1++
	}
}

// WriteByte absorbs a single byte, compressing the pending block first
// if the buffer is full.
func (e *Engine[W]) WriteByte(b byte) {
	if e.off == len(e.buf) {
		e.bump(len(e.buf))
		e.cfg.Compress(&e.h, e.buf, e.t0, e.t1, 0)
		e.off = 0
	}
	e.buf[e.off] = b
	e.off++
}

// Write absorbs p. Interior full blocks are compressed straight out of
// p without passing through the buffer; only a leading top-up and the
// trailing partial (or exactly final) block touch the buffer. The
// result is byte-identical to an equivalent sequence of WriteByte
// calls.
func (e *Engine[W]) Write(p []byte) {
	if len(p) == 0 {
		return
	}

	block := len(e.buf)
	if e.off > 0 {
		free := block - e.off
		if len(p) <= free {
			copy(e.buf[e.off:], p)
			e.off += len(p)
			return
		}
		copy(e.buf[e.off:], p[:free])
		e.bump(block)
		e.cfg.Compress(&e.h, e.buf, e.t0, e.t1, 0)
		e.off = 0
		p = p[free:]
	}

	// Strictly greater: a remainder of exactly one block stays
	// buffered so Final sees it as the last block.
	for len(p) > block {
		e.bump(block)
		e.cfg.Compress(&e.h, p[:block], e.t0, e.t1, 0)
		p = p[block:]
	}

	copy(e.buf, p)
	e.off = len(p)
}

// Final counts the buffered bytes into the counter, compresses the
// zero-padded buffer as the last block, and writes len(out) digest
// bytes by concatenating the chain words little-endian (the last word
// truncated if len(out) is not word-aligned). The chain value, the
// counter, and the buffer are wiped afterwards; the engine is unusable
// until Init runs again.
func (e *Engine[W]) Final(out []byte) {
	for i := e.off; i < len(e.buf); i++ {
		e.buf[i] = 0
	}
	e.bump(e.off)
	e.f0 = ^W(0)
	e.cfg.Compress(&e.h, e.buf, e.t0, e.t1, e.f0)

	wb := e.cfg.WordBytes
	var word [8]byte
	for i := 0; i < 8 && i*wb < len(out); i++ {
		e.cfg.PutUint(word[:], e.h[i])
		copy(out[i*wb:], word[:wb])
	}
	for i := range word {
		word[i] = 0
	}

	for i := range e.h {
		e.h[i] = 0
	}
	for i := range e.buf {
		e.buf[i] = 0
	}
	e.t0, e.t1, e.f0 = 0, 0, 0
	e.off = 0
}

// WipeBuffer zeroes the block buffer in place, leaving the cursor and
// counters untouched.
func (e *Engine[W]) WipeBuffer() {
	for i := range e.buf {
		e.buf[i] = 0
	}
}

// Clone returns a deep copy sharing no mutable state with e.
func (e *Engine[W]) Clone() *Engine[W] {
	c := *e
	c.buf = make([]byte, len(e.buf))
	copy(c.buf, e.buf)
	return &c
}
