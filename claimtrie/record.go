// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/bitmark-inc/claimtrie/util"
	"github.com/bitmark-inc/logger"
)

// kinds in the activation and expiration indexes
const (
	kindClaim   = 'c'
	kindSupport = 's'
)

const outPointKeyLength = chainhash.HashSize + 4

// txid ++ big endian index
func outPointKey(outPoint wire.OutPoint) []byte {
	key := make([]byte, 0, outPointKeyLength)
	key = append(key, outPoint.Hash[:]...)
	return binary.BigEndian.AppendUint32(key, outPoint.Index)
}

func outPointFromKey(key []byte) wire.OutPoint {
	if outPointKeyLength != len(key) {
		logger.Panicf("outpoint key has length: %d", len(key))
	}
	outPoint := wire.OutPoint{}
	copy(outPoint.Hash[:], key[:chainhash.HashSize])
	outPoint.Index = binary.BigEndian.Uint32(key[chainhash.HashSize:])
	return outPoint
}

// length prefixed so that no name key is a prefix of another
func nodeKey(name string) []byte {
	return util.PackBytes([]byte(name))
}

// split a key that starts with a nodeKey
func splitNodeKey(key []byte) (string, []byte) {
	name, n := util.UnpackBytes(key)
	if 0 == n {
		logger.Panicf("truncated node key: %x", key)
	}
	return string(name), key[n:]
}

func heightKey(height int32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, uint32(height))
	return key
}

func heightFromKey(key []byte) int32 {
	return int32(binary.BigEndian.Uint32(key[:4]))
}

// height ++ kind ++ outpoint
func indexKey(height int32, kind byte, outPoint wire.OutPoint) []byte {
	key := heightKey(height)
	key = append(key, kind)
	return append(key, outPointKey(outPoint)...)
}

// nodeKey ++ outpoint
func byNodeKey(nodeName string, outPoint wire.OutPoint) []byte {
	return append(nodeKey(nodeName), outPointKey(outPoint)...)
}

// claim id ++ outpoint
func byIDKey(claimID ClaimID, outPoint wire.OutPoint) []byte {
	key := make([]byte, 0, ClaimIDLength+outPointKeyLength)
	key = append(key, claimID[:]...)
	return append(key, outPointKey(outPoint)...)
}

// nodeKey ++ height
func takeoverKey(name string, height int32) []byte {
	return append(nodeKey(name), heightKey(height)...)
}

func appendHeights(buffer []byte, heights ...int32) []byte {
	for _, h := range heights {
		buffer = append(buffer, util.ToVarint64(uint64(uint32(h)))...)
	}
	return buffer
}

// packed record reader, panics on a truncated record
type unpacker struct {
	buffer []byte
	what   string
}

func (u *unpacker) bytes(n int) []byte {
	if len(u.buffer) < n {
		logger.Panicf("truncated %s record", u.what)
	}
	b := u.buffer[:n]
	u.buffer = u.buffer[n:]
	return b
}

func (u *unpacker) varint() uint64 {
	value, n := util.FromVarint64(u.buffer)
	if 0 == n {
		logger.Panicf("truncated %s record", u.what)
	}
	u.buffer = u.buffer[n:]
	return value
}

func (u *unpacker) height() int32 {
	return int32(uint32(u.varint()))
}

func (u *unpacker) name() string {
	b, n := util.UnpackBytes(u.buffer)
	if 0 == n {
		logger.Panicf("truncated %s record", u.what)
	}
	u.buffer = u.buffer[n:]
	return string(b)
}

// the outpoint is the key and is not part of the record
func (c *Claim) pack() []byte {
	buffer := make([]byte, 0, 64+len(c.Name)+len(c.NodeName))
	buffer = append(buffer, c.ClaimID[:]...)
	buffer = append(buffer, util.PackBytes([]byte(c.Name))...)
	buffer = append(buffer, util.PackBytes([]byte(c.NodeName))...)
	buffer = append(buffer, util.ToVarint64(uint64(c.Amount))...)
	return appendHeights(buffer, c.OriginalHeight, c.UpdateHeight, c.ValidHeight, c.ActivationHeight, c.ExpirationHeight)
}

func unpackClaim(outPoint wire.OutPoint, record []byte) Claim {
	u := unpacker{buffer: record, what: "claim"}
	c := Claim{OutPoint: outPoint}
	copy(c.ClaimID[:], u.bytes(ClaimIDLength))
	c.Name = u.name()
	c.NodeName = u.name()
	c.Amount = int64(u.varint())
	c.OriginalHeight = u.height()
	c.UpdateHeight = u.height()
	c.ValidHeight = u.height()
	c.ActivationHeight = u.height()
	c.ExpirationHeight = u.height()
	return c
}

func (s *Support) pack() []byte {
	buffer := make([]byte, 0, 64+len(s.Name)+len(s.NodeName))
	buffer = append(buffer, s.SupportedClaimID[:]...)
	buffer = append(buffer, util.PackBytes([]byte(s.Name))...)
	buffer = append(buffer, util.PackBytes([]byte(s.NodeName))...)
	buffer = append(buffer, util.ToVarint64(uint64(s.Amount))...)
	return appendHeights(buffer, s.UpdateHeight, s.ValidHeight, s.ActivationHeight, s.ExpirationHeight)
}

func unpackSupport(outPoint wire.OutPoint, record []byte) Support {
	u := unpacker{buffer: record, what: "support"}
	s := Support{OutPoint: outPoint}
	copy(s.SupportedClaimID[:], u.bytes(ClaimIDLength))
	s.Name = u.name()
	s.NodeName = u.name()
	s.Amount = int64(u.varint())
	s.UpdateHeight = u.height()
	s.ValidHeight = u.height()
	s.ActivationHeight = u.height()
	s.ExpirationHeight = u.height()
	return s
}
