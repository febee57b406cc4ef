// Package core holds the machinery shared by the BLAKE2 variants: the
// word-width abstraction, the compression function, and the incremental
// buffering engine. The variant packages own parameter handling and the
// public API; everything here is parameterized over the word type so
// that mixing widths is a compile error rather than a runtime check.
package core

// Word is one machine word of the hash state. BLAKE2s computes over
// 32-bit words and BLAKE2b over 64-bit words.
type Word interface {
	~uint32 | ~uint64
}

// Sigma is the message-word permutation schedule from the BLAKE2
// definition. Round r of a variant with more than ten rounds reuses
// row r mod 10.
var Sigma = [10][16]uint8{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	{14, 10, 4, 8, 9, 15, 13, 6, 1, 12, 0, 2, 11, 7, 5, 3},
	{11, 8, 12, 0, 5, 2, 15, 13, 10, 14, 3, 6, 7, 1, 9, 4},
	{7, 9, 3, 1, 13, 12, 11, 14, 2, 6, 5, 10, 4, 0, 15, 8},
	{9, 0, 5, 7, 2, 4, 10, 15, 14, 1, 11, 12, 6, 8, 3, 13},
	{2, 12, 6, 10, 0, 11, 8, 3, 4, 13, 7, 5, 15, 14, 1, 9},
	{12, 5, 1, 15, 14, 13, 4, 10, 0, 7, 6, 3, 9, 2, 8, 11},
	{13, 11, 7, 14, 12, 1, 3, 9, 5, 0, 15, 4, 8, 6, 2, 10},
	{6, 15, 14, 9, 11, 3, 0, 8, 12, 2, 13, 7, 1, 4, 10, 5},
	{10, 2, 8, 4, 7, 6, 1, 5, 15, 11, 9, 14, 3, 12, 13, 0},
}

// Config fixes the constants that distinguish one BLAKE2 variant from
// another: the initialization vector, the round count, the four G
// rotation distances, and the byte width of a word. A Config value is
// built once per variant package and passed into the shared routines,
// so the hot loop carries no virtual dispatch.
type Config[W Word] struct {
	IV             [8]W
	Rounds         int
	R1, R2, R3, R4 uint
	WordBytes      int
}

// BlockBytes returns the size of one message block: sixteen words.
func (c *Config[W]) BlockBytes() int { return 16 * c.WordBytes }

func (c *Config[W]) wordBits() uint { return uint(c.WordBytes) * 8 }

// Uint decodes a little-endian word from the front of b.
func (c *Config[W]) Uint(b []byte) W {
	var w W
	for i := c.WordBytes - 1; i >= 0; i-- {
		w = w<<8 | W(b[i])
	}
	return w
}

// PutUint encodes w into the front of b, little-endian.
func (c *Config[W]) PutUint(b []byte, w W) {
	for i := 0; i < c.WordBytes; i++ {
		b[i] = byte(w)
		w >>= 8
	}
}

func rotr[W Word](x W, n, width uint) W {
	return x>>n | x<<(width-n)
}

// g is the BLAKE2 mixing function. x and y are the two message words
// selected by the permutation schedule for this call. Addition wraps
// modulo the word width.
func (c *Config[W]) g(a, b, cv, d, x, y W) (W, W, W, W) {
	w := c.wordBits()
	a = a + b + x
	d = rotr(d^a, c.R1, w)
	cv = cv + d
	b = rotr(b^cv, c.R2, w)
	a = a + b + y
	d = rotr(d^a, c.R3, w)
	cv = cv + d
	b = rotr(b^cv, c.R4, w)
	return a, b, cv, d
}

// InitChain derives the initial chain value from a marshaled parameter
// block: h[i] = IV[i] xor little-endian word i of param.
func (c *Config[W]) InitChain(h *[8]W, param []byte) {
	for i := range h {
		h[i] = c.IV[i] ^ c.Uint(param[i*c.WordBytes:])
	}
}

// Compress folds one full message block into the chain value h. t0 and
// t1 are the low and high halves of the byte counter; f0 is the
// finalization flag word, all-ones on the last block and zero
// otherwise. The sixteen working words are rebuilt from scratch on
// every call and wiped before returning, so Compress is a pure
// function of its arguments.
func (c *Config[W]) Compress(h *[8]W, block []byte, t0, t1, f0 W) {
	var m [16]W
	for i := range m {
		m[i] = c.Uint(block[i*c.WordBytes:])
	}

	var v [16]W
	copy(v[:8], h[:])
	copy(v[8:12], c.IV[:4])
	v[12] = c.IV[4] ^ t0
	v[13] = c.IV[5] ^ t1
	v[14] = c.IV[6] ^ f0
	v[15] = c.IV[7]

	for r := 0; r < c.Rounds; r++ {
		s := &Sigma[r%len(Sigma)]

		// Columns.
		v[0], v[4], v[8], v[12] = c.g(v[0], v[4], v[8], v[12], m[s[0]], m[s[1]])
		v[1], v[5], v[9], v[13] = c.g(v[1], v[5], v[9], v[13], m[s[2]], m[s[3]])
		v[2], v[6], v[10], v[14] = c.g(v[2], v[6], v[10], v[14], m[s[4]], m[s[5]])
		v[3], v[7], v[11], v[15] = c.g(v[3], v[7], v[11], v[15], m[s[6]], m[s[7]])

		// Diagonals.
		v[0], v[5], v[10], v[15] = c.g(v[0], v[5], v[10], v[15], m[s[8]], m[s[9]])
		v[1], v[6], v[11], v[12] = c.g(v[1], v[6], v[11], v[12], m[s[10]], m[s[11]])
		v[2], v[7], v[8], v[13] = c.g(v[2], v[7], v[8], v[13], m[s[12]], m[s[13]])
		v[3], v[4], v[9], v[14] = c.g(v[3], v[4], v[9], v[14], m[s[14]], m[s[15]])
	}

	for i := range h {
		h[i] ^= v[i] ^ v[i+8]
	}

	// Wipe the working and message words before returning.
	for i := range v {
		v[i] = 0
		m[i] = 0
	}
}
