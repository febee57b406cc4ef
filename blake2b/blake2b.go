// Package blake2b implements the BLAKE2b secure hashing algorithm with
// support for keying ("prefix-MAC"), salting, and personalization.
// BLAKE2b is optimized for 64-bit platforms and produces digests of
// any size between 1 and 64 bytes.
package blake2b

import (
	"encoding/binary"
	"errors"
	"hash"

	"github.com/digestkit/blake2/internal/core"
)

// The constant values will be different for other BLAKE2 variants.
// These are appropriate for BLAKE2b.
const (
	// The maximum length of the key field.
	KeyLength = 64
	// The maximum number of bytes to produce.
	MaxOutput = 64
	// Size of the salt, in bytes.
	SaltLength = 16
	// Size of the personalization string, in bytes.
	SeparatorLength = 16
	// Size of a block buffer in bytes.
	BlockSize = 128
)

// config carries the BLAKE2b constants into the shared compression
// core: twelve rounds over 64-bit words with the 32/24/16/63 rotation
// schedule.
var config = core.Config[uint64]{
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

// These are the user-visible parameters of a BLAKE2b hash instance.
// The parameter block is XOR'd with the IV at the beginning of the
// hash. Only sequential mode is supported, so the tree fields are
// hardcoded to their non-tree defaults.
type parameterBlock struct {
	digestSize      byte   // 0
	keyLength       byte   // 1
	fanout          byte   // 2
	depth           byte   // 3
	leafLength      uint32 // 4-7
	nodeOffset      uint64 // 8-15
	nodeDepth       byte   // 16
	innerLength     byte   // 17
	salt            []byte // 32-47, bytes 18-31 reserved
	personalization []byte // 48-63
}

// marshal packs the parameter block into its 64-byte wire layout.
func (p *parameterBlock) marshal() []byte {
	buf := make([]byte, 64)
	buf[0] = p.digestSize
	buf[1] = p.keyLength
	buf[2] = p.fanout
	buf[3] = p.depth
	binary.LittleEndian.PutUint32(buf[4:], p.leafLength)
	binary.LittleEndian.PutUint64(buf[8:], p.nodeOffset)
	buf[16] = p.nodeDepth
	buf[17] = p.innerLength
	// 14 reserved bytes implicitly zero
	copy(buf[32:], p.salt)
	copy(buf[48:], p.personalization)
	return buf
}

// Digest is the incremental state of a BLAKE2b computation. It retains
// its construction parameters so the instance can be reset and reused;
// ClearKey and ClearSalt destroy that retained material in place.
//
// A Digest is not safe for concurrent use. To hash several suffixes of
// a common prefix in parallel, absorb the prefix once and fork
// independent copies with Clone.
type Digest struct {
	engine *core.Engine[uint64]
	size   int

	key             []byte
	salt            []byte
	personalization []byte
}

var _ hash.Hash = (*Digest)(nil)

// NewDigest constructs a BLAKE2b hash with the provided configuration.
// A nil or empty key selects plain hashing; a key of up to 64 bytes
// turns the digest into a prefix-MAC over key || message. Salt and
// personalization must be exactly 16 bytes when present.
func NewDigest(key, salt, personalization []byte, digestSize int) (*Digest, error) {
	if digestSize < 1 || digestSize > MaxOutput {
		return nil, errors.New("blake2b: digest size must be between 1 and 64 bytes")
	}
	if len(key) > KeyLength {
		return nil, errors.New("blake2b: key too large")
	}
	if salt != nil && len(salt) != SaltLength {
		return nil, errors.New("blake2b: salt must be exactly 16 bytes")
	}
	if personalization != nil && len(personalization) != SeparatorLength {
		return nil, errors.New("blake2b: personalization string must be exactly 16 bytes")
	}

	d := &Digest{size: digestSize}
	if len(key) > 0 {
		d.key = make([]byte, len(key))
		copy(d.key, key)
	}
	if salt != nil {
		d.salt = make([]byte, SaltLength)
		copy(d.salt, salt)
	}
	if personalization != nil {
		d.personalization = make([]byte, SeparatorLength)
		copy(d.personalization, personalization)
	}

	d.engine = core.NewEngine(&config, d.params().marshal())
	if len(d.key) > 0 {
		d.engine.PrimeKey(d.key)
	}
	return d, nil
}

// NewSize constructs an unkeyed hash producing digestBits bits of
// output. digestBits must be a multiple of 8 between 8 and 512.
func NewSize(digestBits int) (*Digest, error) {
	if digestBits%8 != 0 {
		return nil, errors.New("blake2b: digest size in bits must be a multiple of 8")
	}
	return NewDigest(nil, nil, nil, digestBits/8)
}

// New512 constructs an unkeyed BLAKE2b-512 hash.
func New512() *Digest {
	d, _ := NewDigest(nil, nil, nil, MaxOutput)
	return d
}

func (d *Digest) params() *parameterBlock {
	return &parameterBlock{
		digestSize:      byte(d.size),
		keyLength:       byte(len(d.key)),
		fanout:          1, // sequential mode
		depth:           1, // sequential mode
		salt:            d.salt,
		personalization: d.personalization,
	}
}

// reinit re-derives the chain value from the retained parameters and
// re-primes the key block if a key is set.
func (d *Digest) reinit() {
	d.engine.Init(d.params().marshal())
	if len(d.key) > 0 {
		d.engine.PrimeKey(d.key)
	}
}

// Write adds more data to the running hash. It never returns an error.
func (d *Digest) Write(p []byte) (int, error) {
	d.engine.Write(p)
	return len(p), nil
}

// WriteByte adds a single byte to the running hash.
func (d *Digest) WriteByte(b byte) error {
	d.engine.WriteByte(b)
	return nil
}

// Final writes the digest into out and returns the number of bytes
// written. The chain value and block buffer are wiped and then
// re-derived from the retained parameters, so the instance is
// immediately ready for the next message; a keyed digest comes back
// primed with its key.
func (d *Digest) Final(out []byte) (int, error) {
	if len(out) < d.size {
		return 0, errors.New("blake2b: output buffer too small for digest")
	}
	d.engine.Final(out[:d.size])
	d.reinit()
	return d.size, nil
}

// Sum appends the current hash to b and returns the resulting slice.
// It does not change the underlying hash state.
func (d *Digest) Sum(b []byte) []byte {
	out := make([]byte, d.size)
	d.engine.Clone().Final(out)
	return append(b, out...)
}

// Reset discards any buffered input and returns the digest to its
// freshly constructed state.
func (d *Digest) Reset() { d.reinit() }

// ClearKey overwrites the retained key bytes and the block buffer in
// place. The current chain value is untouched, so output already
// derived from the key stays valid; later resets silently prime with
// the now-zeroed key bytes. Intended to be called once the digest is
// no longer needed with the key.
func (d *Digest) ClearKey() {
	if d.key == nil {
		return
	}
	for i := range d.key {
		d.key[i] = 0
	}
	d.engine.WipeBuffer()
}

// ClearSalt overwrites the retained salt bytes in place. Later resets
// derive the chain value as if no salt had been supplied.
func (d *Digest) ClearSalt() {
	for i := range d.salt {
		d.salt[i] = 0
	}
}

// Clone returns an independent deep copy of the digest, sharing no
// mutable state with d.
func (d *Digest) Clone() *Digest {
	return &Digest{
		engine:          d.engine.Clone(),
		size:            d.size,
		key:             append([]byte(nil), d.key...),
		salt:            append([]byte(nil), d.salt...),
		personalization: append([]byte(nil), d.personalization...),
	}
}

// AlgorithmName identifies the hash.
func (d *Digest) AlgorithmName() string { return "BLAKE2b" }

// Size returns the digest output size in bytes.
func (d *Digest) Size() int { return d.size }

// BlockSize returns the hash's underlying block size. The Write method
// must be able to accept any amount of data, but it may operate more
// efficiently if all writes are a multiple of the block size.
func (d *Digest) BlockSize() int { return BlockSize }

// Sum512 computes the 64-byte BLAKE2b-512 digest of data in one shot.
func Sum512(data []byte) [64]byte {
	var sum [64]byte
	d := New512()
	d.Write(data)
	d.Final(sum[:])
	return sum
}

// Sum256 computes the 32-byte BLAKE2b-256 digest of data in one shot.
func Sum256(data []byte) [32]byte {
	var sum [32]byte
	d, _ := NewDigest(nil, nil, nil, 32)
	d.Write(data)
	d.Final(sum[:])
	return sum
}
