// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/btcsuite/btcd/wire"
	"golang.org/x/crypto/ripemd160"

	"github.com/bitmark-inc/claimtrie/fault"
)

// ClaimIDLength - number of bytes in a claim identifier
const ClaimIDLength = 20

// ClaimID - the stable identifier of a claim across updates
type ClaimID [ClaimIDLength]byte

// NewClaimID - identifier of a claim first made by an outpoint
//
// RIPEMD160(SHA256(txid ++ big endian index))
func NewClaimID(outPoint wire.OutPoint) ClaimID {
	buffer := make([]byte, 0, len(outPoint.Hash)+4)
	buffer = append(buffer, outPoint.Hash[:]...)
	buffer = binary.BigEndian.AppendUint32(buffer, outPoint.Index)

	s := sha256.Sum256(buffer)
	r := ripemd160.New()
	r.Write(s[:])

	id := ClaimID{}
	copy(id[:], r.Sum(nil))
	return id
}

// ClaimIDFromString - decode the hex form of a claim id
func ClaimIDFromString(s string) (ClaimID, error) {
	id := ClaimID{}
	if hex.EncodedLen(ClaimIDLength) != len(s) {
		return id, fault.InvalidClaimID
	}
	_, err := hex.Decode(id[:], []byte(s))
	if nil != err {
		return id, fault.InvalidClaimID
	}
	return id, nil
}

// String - hex in stored byte order so text order matches byte order
func (id ClaimID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalText - hex text for JSON
func (id ClaimID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText - hex text from JSON
func (id *ClaimID) UnmarshalText(s []byte) error {
	decoded, err := ClaimIDFromString(string(s))
	if nil != err {
		return err
	}
	*id = decoded
	return nil
}

// Claim - an assertion of ownership of a name
type Claim struct {
	OutPoint         wire.OutPoint
	ClaimID          ClaimID
	Name             string
	NodeName         string
	Amount           int64
	OriginalHeight   int32
	UpdateHeight     int32
	ValidHeight      int32
	ActivationHeight int32
	ExpirationHeight int32
}

// Support - stake added to a claim
type Support struct {
	OutPoint         wire.OutPoint
	SupportedClaimID ClaimID
	Name             string
	NodeName         string
	Amount           int64
	UpdateHeight     int32
	ValidHeight      int32
	ActivationHeight int32
	ExpirationHeight int32
}

// RemovedClaim - everything needed to put a removed claim back exactly
type RemovedClaim struct {
	Claim
}

// RemovedSupport - everything needed to put a removed support back exactly
type RemovedSupport struct {
	Support
}

// ClaimValue - a claim as seen at the current height
type ClaimValue struct {
	Claim
	EffectiveAmount    int64
	LastTakeoverHeight int32
}

// ClaimAndSupports - one claim of a name with the supports that count towards it
type ClaimAndSupports struct {
	Claim           Claim
	EffectiveAmount int64
	Supports        []Support
}

// ClaimsForName - complete view of one name
type ClaimsForName struct {
	Name               string
	NodeName           string
	LastTakeoverHeight int32
	Claims             []ClaimAndSupports
	UnmatchedSupports  []Support
}

// activeAt - in force at block h
func (c *Claim) activeAt(h int32) bool {
	return c.ActivationHeight <= h && h < c.ExpirationHeight
}

// activeAt - in force at block h
func (s *Support) activeAt(h int32) bool {
	return s.ActivationHeight <= h && h < s.ExpirationHeight
}

// compareOutPoints - byte order of txid then index
func compareOutPoints(a wire.OutPoint, b wire.OutPoint) int {
	if c := bytes.Compare(a.Hash[:], b.Hash[:]); 0 != c {
		return c
	}
	switch {
	case a.Index < b.Index:
		return -1
	case a.Index > b.Index:
		return 1
	}
	return 0
}
