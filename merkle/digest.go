// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/bitmark-inc/claimtrie/fault"
)

// DigestLength - number of bytes in the digest
const DigestLength = chainhash.HashSize

// Digest - type for a double SHA-256 digest
// stored as little endian byte array
// represented as big endian hex value for print
// represented as little endian hex text for JSON encoding
// to convert to bytes just use d[:]
type Digest [DigestLength]byte

// fixed digests used by the trie hashing rules
// each is a little endian integer: a single low byte
var (
	One       = Digest{0x01} // hash of an empty node
	LeafHash  = Digest{0x02} // node without children
	EmptyHash = Digest{0x03} // node without claims
)

// NewDigest - create a double SHA-256 digest from a byte slice
func NewDigest(record []byte) Digest {
	return Digest(chainhash.DoubleHashH(record))
}

// Pair - digest of two concatenated digests
func Pair(left Digest, right Digest) Digest {
	buffer := make([]byte, 0, 2*DigestLength)
	buffer = append(buffer, left[:]...)
	buffer = append(buffer, right[:]...)
	return NewDigest(buffer)
}

// IsZero - true if all bytes are zero
func (digest Digest) IsZero() bool {
	return Digest{} == digest
}

// internal function to return a reversed byte order copy of a digest
func reversed(d Digest) []byte {
	result := make([]byte, DigestLength)
	for i := 0; i < DigestLength; i += 1 {
		result[i] = d[DigestLength-1-i]
	}
	return result
}

// String - convert a binary digest to hex string for use by the fmt package (for %s)
//
// the stored version is in little endian, but the output string is big endian
func (digest Digest) String() string {
	return hex.EncodeToString(reversed(digest))
}

// GoString - convert a binary digest to big endian hex string for use by the fmt package (for %#v)
func (digest Digest) GoString() string {
	return "<SHA256d:" + hex.EncodeToString(reversed(digest)) + ">"
}

// Scan - convert a big endian hex representation to a digest for use by the format package scan routines
func (digest *Digest) Scan(state fmt.ScanState, verb rune) error {
	token, err := state.Token(true, func(c rune) bool {
		if c >= '0' && c <= '9' {
			return true
		}
		if c >= 'A' && c <= 'F' {
			return true
		}
		if c >= 'a' && c <= 'f' {
			return true
		}
		return false
	})
	if nil != err {
		return err
	}
	d, err := DigestFromString(string(token))
	if nil != err {
		return err
	}
	*digest = d
	return nil
}

// DigestFromString - convert a big endian hex string to a digest
func DigestFromString(s string) (Digest, error) {
	digest := Digest{}
	if len(s) != hex.EncodedLen(DigestLength) {
		return digest, fault.InvalidDigest
	}
	buffer, err := hex.DecodeString(s)
	if nil != err {
		return digest, err
	}
	for i, v := range buffer {
		digest[DigestLength-1-i] = v
	}
	return digest, nil
}

// MarshalText - convert digest to little endian hex text
func (digest Digest) MarshalText() ([]byte, error) {
	size := hex.EncodedLen(len(digest))
	buffer := make([]byte, size)
	hex.Encode(buffer, digest[:])
	return buffer, nil
}

// UnmarshalText - convert little endian hex text into a digest
func (digest *Digest) UnmarshalText(s []byte) error {
	if DigestLength != hex.DecodedLen(len(s)) {
		return fault.InvalidDigest
	}
	buffer := make([]byte, hex.DecodedLen(len(s)))
	_, err := hex.Decode(buffer, s)
	if nil != err {
		return err
	}
	copy(digest[:], buffer)
	return nil
}

// DigestFromBytes - convert and validate little endian binary byte slice to a digest
func DigestFromBytes(digest *Digest, buffer []byte) error {
	if DigestLength != len(buffer) {
		return fault.InvalidDigest
	}
	copy(digest[:], buffer)
	return nil
}
