// Package blake2s implements the BLAKE2s secure hashing algorithm with
// support for keying ("prefix-MAC"), salting, and personalization.
// BLAKE2s is optimized for 8- to 32-bit platforms and produces digests
// of any size between 1 and 32 bytes.
package blake2s

import (
	"encoding/binary"
	"errors"
	"hash"

	"github.com/digestkit/blake2/internal/core"
)

// The constant values will be different for other BLAKE2 variants.
// These are appropriate for BLAKE2s.
const (
	// The maximum length of the key field.
	KeyLength = 32
	// The maximum number of bytes to produce.
	MaxOutput = 32
	// Size of the salt, in bytes.
	SaltLength = 8
	// Size of the personalization string, in bytes.
	SeparatorLength = 8
	// Size of a block buffer in bytes.
	BlockSize = 64
)

// config carries the BLAKE2s constants into the shared compression
// core: ten rounds over 32-bit words with the 16/12/8/7 rotation
// schedule.
var config = core.Config[uint32]{
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

// These are the user-visible parameters of a BLAKE2s hash instance.
// The parameter block is XOR'd with the IV at the beginning of the
// hash. Only sequential mode is supported, so the tree fields are
// hardcoded to their non-tree defaults.
type parameterBlock struct {
	digestSize      byte   // 0
	keyLength       byte   // 1
	fanout          byte   // 2
	depth           byte   // 3
	leafLength      uint32 // 4-7
	nodeOffset      uint32 // 8-11
	xofLength       uint16 // 12-13
	nodeDepth       byte   // 14
	innerLength     byte   // 15
	salt            []byte // 16-23
	personalization []byte // 24-31
}

// marshal packs the parameter block into its 32-byte wire layout.
func (p *parameterBlock) marshal() []byte {
	buf := make([]byte, 32)
	buf[0] = p.digestSize
	buf[1] = p.keyLength
	buf[2] = p.fanout
	buf[3] = p.depth
	binary.LittleEndian.PutUint32(buf[4:], p.leafLength)
	binary.LittleEndian.PutUint32(buf[8:], p.nodeOffset)
	binary.LittleEndian.PutUint16(buf[12:], p.xofLength)
	buf[14] = p.nodeDepth
	buf[15] = p.innerLength
	copy(buf[16:], p.salt)
	copy(buf[24:], p.personalization)
	return buf
}

// Digest is the incremental state of a BLAKE2s computation. It retains
// its construction parameters so the instance can be reset and reused;
// ClearKey and ClearSalt destroy that retained material in place.
//
// A Digest is not safe for concurrent use. To hash several suffixes of
// a common prefix in parallel, absorb the prefix once and fork
// independent copies with Clone.
type Digest struct {
	engine *core.Engine[uint32]
	size   int

	key             []byte
	salt            []byte
	personalization []byte
}

var _ hash.Hash = (*Digest)(nil)

// NewDigest constructs a BLAKE2s hash with the provided configuration.
// A nil or empty key selects plain hashing; a key of up to 32 bytes
// turns the digest into a prefix-MAC over key || message. Salt and
// personalization must be exactly 8 bytes when present.
func NewDigest(key, salt, personalization []byte, digestSize int) (*Digest, error) {
	if digestSize < 1 || digestSize > MaxOutput {
		return nil, errors.New("blake2s: digest size must be between 1 and 32 bytes")
	}
	if len(key) > KeyLength {
		return nil, errors.New("blake2s: key too large")
	}
	if salt != nil && len(salt) != SaltLength {
		return nil, errors.New("blake2s: salt must be exactly 8 bytes")
	}
	if personalization != nil && len(personalization) != SeparatorLength {
		return nil, errors.New("blake2s: personalization string must be exactly 8 bytes")
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
// output. digestBits must be a multiple of 8 between 8 and 256.
func NewSize(digestBits int) (*Digest, error) {
	if digestBits%8 != 0 {
		return nil, errors.New("blake2s: digest size in bits must be a multiple of 8")
	}
	return NewDigest(nil, nil, nil, digestBits/8)
}

// New256 constructs an unkeyed BLAKE2s-256 hash.
func New256() *Digest {
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
		return 0, errors.New("blake2s: output buffer too small for digest")
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
func (d *Digest) AlgorithmName() string { return "BLAKE2s" }

// Size returns the digest output size in bytes.
func (d *Digest) Size() int { return d.size }

// BlockSize returns the hash's underlying block size. The Write method
// must be able to accept any amount of data, but it may operate more
// efficiently if all writes are a multiple of the block size.
func (d *Digest) BlockSize() int { return BlockSize }

// Sum256 computes the 32-byte BLAKE2s-256 digest of data in one shot.
func Sum256(data []byte) [32]byte {
	var sum [32]byte
	d := New256()
	d.Write(data)
	d.Final(sum[:])
	return sum
}
