// Package blake2 implements the BLAKE2s and BLAKE2b secure hashing algorithms
// with support for keying, salting, and personalization. BLAKE2s is optimized
// for 8- to 32-bit platforms and produces digests of any size between 1 and 32
// bytes. BLAKE2b is optimized for 64-bit platforms and produces digests of any
// size between 1 and 64 bytes.
//
// The two variants differ only in their word width and round constants; both
// are driven through a single shared compression core. See the blake2s and
// blake2b subpackages for the public API.
package blake2
