package core

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"
)

// cfg32 mirrors the BLAKE2s constants so engine behavior can be
// exercised without importing the variant packages.
var cfg32 = Config[uint32]{
	IV: [8]uint32{
		0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
		0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
	},
	Rounds:    10,
	R1:        16,
	R2:        12,
	R3:        8,
	R4:        7,
	WordBytes: 4,
}

var cfg64 = Config[uint64]{
	IV: [8]uint64{
		0x6a09e667f3bcc908, 0xbb67ae8584caa73b,
		0x3c6ef372fe94f82b, 0xa54ff53a5f1d36f1,
		0x510e527fade682d1, 0x9b05688c2b3e6c1f,
		0x1f83d9abfb41bd6b, 0x5be0cd19137e2179,
	},
	Rounds:    12,
	R1:        32,
	R2:        24,
	R3:        16,
	R4:        63,
	WordBytes: 8,
}

func TestSigmaRowsArePermutations(t *testing.T) {
	for r, row := range Sigma {
		var seen [16]bool
		for _, idx := range row {
			if idx > 15 || seen[idx] {
				t.Fatalf("row %d is not a permutation of 0..15: %v", r, row)
			}
			seen[idx] = true
		}
	}
}

func TestWordCodec(t *testing.T) {
	buf := make([]byte, 8)
	for _, v := range []uint32{0, 1, 0xdeadbeef, 0xffffffff} {
		cfg32.PutUint(buf, v)
		if got := binary.LittleEndian.Uint32(buf); got != v {
			t.Errorf("PutUint32(%#x) encoded %#x", v, got)
		}
		if got := cfg32.Uint(buf); got != v {
			t.Errorf("Uint32 round-trip of %#x gave %#x", v, got)
		}
	}
	for _, v := range []uint64{0, 1, 0xdeadbeefcafebabe, ^uint64(0)} {
		cfg64.PutUint(buf, v)
		if got := binary.LittleEndian.Uint64(buf); got != v {
			t.Errorf("PutUint64(%#x) encoded %#x", v, got)
		}
		if got := cfg64.Uint(buf); got != v {
			t.Errorf("Uint64 round-trip of %#x gave %#x", v, got)
		}
	}
}

// The low counter word must carry into the high word exactly when
// 64-bit arithmetic says the 32-bit word wrapped. The engine starts
// from a synthetic counter just below the wrap boundary.
func TestCounterCarry(t *testing.T) {
	e := NewEngine(&cfg32, make([]byte, 32))

	const start = uint32(0xffffff00)
	e.t0 = start
	wide := uint64(start)

	for i := 0; i < 16; i++ {
		e.bump(64)
		wide += 64
		if e.t0 != uint32(wide) {
			t.Fatalf("step %d: low counter %#x, want %#x", i, e.t0, uint32(wide))
		}
		if uint64(e.t1) != wide>>32 {
			t.Fatalf("step %d: high counter %#x, want %#x", i, e.t1, wide>>32)
		}
	}
}

// A partial final block must carry too when it crosses the boundary.
func TestCounterCarryOnPartialBump(t *testing.T) {
	e := NewEngine(&cfg32, make([]byte, 32))
	e.t0 = ^uint32(0) - 10

	e.bump(32)
	if e.t0 != 21 || e.t1 != 1 {
		t.Fatalf("counter after wrapping partial bump: t0=%d t1=%d, want t0=21 t1=1", e.t0, e.t1)
	}

	e.bump(0)
	if e.t0 != 21 || e.t1 != 1 {
		t.Fatalf("zero-length bump changed counter: t0=%d t1=%d", e.t0, e.t1)
	}
}

func TestWriteMatchesWriteByte(t *testing.T) {
	param := make([]byte, 32)
	param[0] = 32 // digest size
	param[2] = 1  // fanout
	param[3] = 1  // depth

	input := make([]byte, 1537)
	rng := rand.New(rand.NewSource(6))
	rng.Read(input)

	bulk := NewEngine(&cfg32, param)
	bulk.Write(input)

	bytewise := NewEngine(&cfg32, param)
	for _, b := range input {
		bytewise.WriteByte(b)
	}

	a := make([]byte, 32)
	b := make([]byte, 32)
	bulk.Final(a)
	bytewise.Final(b)
	if !bytes.Equal(a, b) {
		t.Errorf("bulk and bytewise digests differ:\n  bulk %x\n  byte %x", a, b)
	}
}

func TestZeroLengthWriteIsNoOp(t *testing.T) {
	param := make([]byte, 32)
	param[0] = 32

	a := NewEngine(&cfg32, param)
	a.Write(nil)
	a.Write([]byte{})
	a.Write([]byte("data"))
	a.Write(nil)

	b := NewEngine(&cfg32, param)
	b.Write([]byte("data"))

	out1 := make([]byte, 32)
	out2 := make([]byte, 32)
	a.Final(out1)
	b.Final(out2)
	if !bytes.Equal(out1, out2) {
		t.Error("empty writes changed the digest")
	}
}

func TestFinalWipesState(t *testing.T) {
	param := make([]byte, 32)
	param[0] = 32

	e := NewEngine(&cfg32, param)
	e.Write([]byte("sensitive"))
	e.Final(make([]byte, 32))

	for i, w := range e.h {
		if w != 0 {
			t.Errorf("chain word %d not wiped: %#x", i, w)
		}
	}
	for i, b := range e.buf {
		if b != 0 {
			t.Errorf("buffer byte %d not wiped: %#x", i, b)
		}
	}
	if e.t0 != 0 || e.t1 != 0 || e.f0 != 0 || e.off != 0 {
		t.Error("counter or flag not wiped after Final")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	param := make([]byte, 32)
	param[0] = 32

	a := NewEngine(&cfg32, param)
	a.Write([]byte("prefix"))
	b := a.Clone()

	a.Write([]byte("-left"))
	b.Write([]byte("-right"))

	outA := make([]byte, 32)
	outB := make([]byte, 32)
	a.Final(outA)
	b.Final(outB)
	if bytes.Equal(outA, outB) {
		t.Error("cloned engines produced identical digests for different inputs")
	}
}

// Compress must not depend on anything but its arguments: the same
// chain value, block, counter, and flag always give the same result.
func TestCompressIsPure(t *testing.T) {
	block := make([]byte, cfg32.BlockBytes())
	rng := rand.New(rand.NewSource(7))
	rng.Read(block)

	var h1, h2 [8]uint32
	copy(h1[:], cfg32.IV[:])
	copy(h2[:], cfg32.IV[:])

	cfg32.Compress(&h1, block, 64, 0, 0)
	cfg32.Compress(&h2, block, 64, 0, 0)
	if h1 != h2 {
		t.Error("Compress gave different results for identical inputs")
	}

	// The finalization flag must change the result.
	var h3 [8]uint32
	copy(h3[:], cfg32.IV[:])
	cfg32.Compress(&h3, block, 64, 0, ^uint32(0))
	if h1 == h3 {
		t.Error("finalization flag had no effect on compression")
	}
}
