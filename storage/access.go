// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	ldb_iterator "github.com/syndtr/goleveldb/leveldb/iterator"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/logger"
)

// the common read methods of leveldb.DB and leveldb.Transaction
type leveldbReader interface {
	Get([]byte, *ldb_opt.ReadOptions) ([]byte, error)
	Has([]byte, *ldb_opt.ReadOptions) (bool, error)
	NewIterator(*ldb_util.Range, *ldb_opt.ReadOptions) ldb_iterator.Iterator
}

type access struct {
	reader leveldbReader
}

// Get - read a value for a given key, nil if not found
func (a *access) Get(p *PoolHandle, key []byte) []byte {
	value, err := a.reader.Get(p.prefixKey(key), nil)
	if leveldb.ErrNotFound == err {
		return nil
	}
	logger.PanicIfError("pool.Get", err)
	return value
}

// Has - check if a key exists
func (a *access) Has(p *PoolHandle, key []byte) bool {
	value, err := a.reader.Has(p.prefixKey(key), nil)
	logger.PanicIfError("pool.Has", err)
	return value
}

// Iterate - call f for each element whose key starts with prefix
//
// the key passed to f excludes the pool prefix byte; both slices are
// copies and may be retained; iteration stops when f returns false
func (a *access) Iterate(p *PoolHandle, prefix []byte, f func(key []byte, value []byte) bool) {
	iter := a.reader.NewIterator(p.keyRange(prefix), nil)

	for iter.Next() {
		key, value := copyElement(iter)
		if !f(key, value) {
			break
		}
	}
	iter.Release()
	err := iter.Error()
	logger.PanicIfError("pool.Iterate", err)
}

// Last - get the last element whose key starts with prefix
func (a *access) Last(p *PoolHandle, prefix []byte) (Element, bool) {
	iter := a.reader.NewIterator(p.keyRange(prefix), nil)

	found := false
	result := Element{}
	if iter.Last() {
		result.Key, result.Value = copyElement(iter)
		found = true
	}
	iter.Release()
	err := iter.Error()
	logger.PanicIfError("pool.Last", err)
	return result, found
}

// range of keys in a pool with a given prefix
func (p *PoolHandle) keyRange(prefix []byte) *ldb_util.Range {
	if 0 == len(prefix) {
		return &ldb_util.Range{
			Start: []byte{p.prefix}, // Start of key range, included in the range
			Limit: p.limit,          // Limit of key range, excluded from the range
		}
	}
	return ldb_util.BytesPrefix(p.prefixKey(prefix))
}

// contents of the iterator slices must not be modified, and are
// only valid until the next call to Next
func copyElement(iter ldb_iterator.Iterator) ([]byte, []byte) {
	key := iter.Key()
	value := iter.Value()

	dataKey := make([]byte, len(key)-1) // strip the prefix
	copy(dataKey, key[1:])              // ...

	dataValue := make([]byte, len(value))
	copy(dataValue, value)

	return dataKey, dataValue
}
