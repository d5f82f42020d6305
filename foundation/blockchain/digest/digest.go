// Package digest implements the 160 bit message digest used for all block
// hashing on the chain. The algorithm is written out by hand rather than
// pulled from a crypto library so every step of the hash can be read and
// stepped through. It produces the same output as any SHA-1 implementation,
// which lets external scripts double check block hashes.
package digest

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math/bits"
)

// Size is the number of bytes in a digest.
const Size = 20

// BlockSize is the number of bytes consumed by one compression round.
const BlockSize = 64

// ZeroHex represents a digest of zeros in its hex form. It's used as the
// previous hash of the genesis block.
const ZeroHex = "0000000000000000000000000000000000000000"

// Sum computes the digest of the specified data.
func Sum(data []byte) [Size]byte {

	// The five working words start at fixed constants defined by the
	// algorithm.
	h := [5]uint32{0x67452301, 0xEFCDAB89, 0x98BADCFE, 0x10325476, 0xC3D2E1F0}

	// Pad the message: a single 1 bit, zeros up to 56 bytes mod 64, then the
	// original length in bits as a big endian 64 bit value.
	bitLen := uint64(len(data)) * 8
	msg := make([]byte, 0, len(data)+BlockSize+8)
	msg = append(msg, data...)
	msg = append(msg, 0x80)
	for len(msg)%BlockSize != 56 {
		msg = append(msg, 0x00)
	}
	msg = binary.BigEndian.AppendUint64(msg, bitLen)

	// Process the padded message in 64 byte chunks.
	var w [80]uint32
	for chunk := 0; chunk < len(msg); chunk += BlockSize {

		// Expand the 16 words of the chunk into an 80 word schedule.
		for i := 0; i < 16; i++ {
			w[i] = binary.BigEndian.Uint32(msg[chunk+i*4:])
		}
		for i := 16; i < 80; i++ {
			w[i] = bits.RotateLeft32(w[i-3]^w[i-8]^w[i-14]^w[i-16], 1)
		}

		a, b, c, d, e := h[0], h[1], h[2], h[3], h[4]

		// Four rounds of twenty steps, each round with its own mixing
		// function and constant.
		for i := 0; i < 80; i++ {
			var f, k uint32
			switch {
			case i < 20:
				f = (b & c) | (^b & d)
				k = 0x5A827999
			case i < 40:
				f = b ^ c ^ d
				k = 0x6ED9EBA1
			case i < 60:
				f = (b & c) | (b & d) | (c & d)
				k = 0x8F1BBCDC
			default:
				f = b ^ c ^ d
				k = 0xCA62C1D6
			}

			t := bits.RotateLeft32(a, 5) + f + e + k + w[i]
			e = d
			d = c
			c = bits.RotateLeft32(b, 30)
			b = a
			a = t
		}

		h[0] += a
		h[1] += b
		h[2] += c
		h[3] += d
		h[4] += e
	}

	var out [Size]byte
	for i, v := range h {
		binary.BigEndian.PutUint32(out[i*4:], v)
	}

	return out
}

// SumHex computes the digest of the specified data and returns it as a
// lowercase 40 character hex string.
func SumHex(data []byte) string {
	sum := Sum(data)
	return hex.EncodeToString(sum[:])
}

// Hash returns a unique hex string for the value. The value is marshaled to
// JSON first so the digest is stable for any value with a deterministic
// JSON form.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHex
	}

	return SumHex(data)
}
