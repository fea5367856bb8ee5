// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"

	"github.com/bitmark-inc/logger"
)

// PoolHandle - a key prefix within the database
type PoolHandle struct {
	name   string
	prefix byte
	limit  []byte
}

// Element - a binary data item
type Element struct {
	Key   []byte
	Value []byte
}

// Reader - read access to pools, either committed data or a transaction
type Reader interface {
	Get(*PoolHandle, []byte) []byte
	Has(*PoolHandle, []byte) bool
	Iterate(*PoolHandle, []byte, func(key []byte, value []byte) bool)
	Last(*PoolHandle, []byte) (Element, bool)
}

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks github.com/bitmark-inc/claimtrie/storage Store,Transaction

// Transaction - buffered writes committed as a single unit
//
// reads see the transaction's own writes; a failed write is kept
// and returned from Commit
type Transaction interface {
	Reader
	Put(*PoolHandle, []byte, []byte)
	Delete(*PoolHandle, []byte)
	Err() error
	Commit() error
	Abort()
}

// Store - the database as seen by the claim trie
type Store interface {
	Reader
	Begin() (Transaction, error)
	Close() error
}

// String - name of the pool for logging
func (p *PoolHandle) String() string {
	return p.name
}

// prepend the prefix onto the key
func (p *PoolHandle) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, 1, len(key)+1)
	prefixedKey[0] = p.prefix
	return append(prefixedKey, key...)
}

// GetN - read a record and decode first 8 bytes as big endian uint64
//
// second parameter is false if record was not found
// panics if not 8 (or more) bytes in the record
func GetN(r Reader, p *PoolHandle, key []byte) (uint64, bool) {
	buffer := r.Get(p, key)
	if nil == buffer {
		return 0, false
	}
	if len(buffer) < 8 {
		logger.Panicf("pool.GetN truncated record for: %s: %x: %x", p, key, buffer)
	}
	n := binary.BigEndian.Uint64(buffer[:8])
	return n, true
}

// PutN - store a big endian uint64 record
func PutN(t Transaction, p *PoolHandle, key []byte, value uint64) {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, value)
	t.Put(p, key, buffer)
}

// Keys - collect the keys under a prefix
//
// use before modifying a pool that is being scanned
func Keys(r Reader, p *PoolHandle, prefix []byte) [][]byte {
	keys := make([][]byte, 0)
	r.Iterate(p, prefix, func(key []byte, value []byte) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}
