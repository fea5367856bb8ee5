// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/claimtrie/fault"
)

type transaction struct {
	owner *Database
	tr    *leveldb.Transaction
	err   error
	done  bool
	*access
}

// Put - store a key/value bytes pair
func (t *transaction) Put(p *PoolHandle, key []byte, value []byte) {
	if nil != t.err {
		return
	}
	if t.done {
		t.err = fault.TransactionNotOpen
		return
	}
	if nil == value {
		value = []byte{}
	}
	t.err = t.tr.Put(p.prefixKey(key), value, nil)
}

// Delete - remove a key
func (t *transaction) Delete(p *PoolHandle, key []byte) {
	if nil != t.err {
		return
	}
	if t.done {
		t.err = fault.TransactionNotOpen
		return
	}
	t.err = t.tr.Delete(p.prefixKey(key), nil)
}

// Err - the first write error, if any
func (t *transaction) Err() error {
	return t.err
}

// Commit - write all changes, or discard them if any write failed
func (t *transaction) Commit() error {
	if t.done {
		return fault.TransactionNotOpen
	}
	t.done = true
	defer t.owner.release()

	if nil != t.err {
		t.tr.Discard()
		return t.err
	}
	err := t.tr.Commit()
	if nil != err {
		t.tr.Discard()
		t.err = err
	}
	return err
}

// Abort - discard all changes
func (t *transaction) Abort() {
	if t.done {
		return
	}
	t.done = true
	t.tr.Discard()
	t.owner.release()
}
