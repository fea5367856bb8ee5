// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie_test

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/claimtrie/claimtrie"
	"github.com/bitmark-inc/claimtrie/fault"
	"github.com/bitmark-inc/claimtrie/storage"
	"github.com/bitmark-inc/claimtrie/storage/mocks"
)

// a store that reads from a backing database but whose transactions are mocked
func mockedStore(ctrl *gomock.Controller, db *storage.Database) *mocks.MockStore {
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Get(gomock.Any(), gomock.Any()).DoAndReturn(db.Get).AnyTimes()
	store.EXPECT().Has(gomock.Any(), gomock.Any()).DoAndReturn(db.Has).AnyTimes()
	store.EXPECT().Iterate(gomock.Any(), gomock.Any(), gomock.Any()).Do(db.Iterate).AnyTimes()
	store.EXPECT().Last(gomock.Any(), gomock.Any()).DoAndReturn(db.Last).AnyTimes()
	return store
}

// forward all reads and writes to a backing transaction
func delegatedTransaction(ctrl *gomock.Controller, backing storage.Transaction) *mocks.MockTransaction {
	trx := mocks.NewMockTransaction(ctrl)
	trx.EXPECT().Get(gomock.Any(), gomock.Any()).DoAndReturn(backing.Get).AnyTimes()
	trx.EXPECT().Has(gomock.Any(), gomock.Any()).DoAndReturn(backing.Has).AnyTimes()
	trx.EXPECT().Iterate(gomock.Any(), gomock.Any(), gomock.Any()).Do(backing.Iterate).AnyTimes()
	trx.EXPECT().Last(gomock.Any(), gomock.Any()).DoAndReturn(backing.Last).AnyTimes()
	trx.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Do(backing.Put).AnyTimes()
	trx.EXPECT().Delete(gomock.Any(), gomock.Any()).Do(backing.Delete).AnyTimes()
	return trx
}

// initialise an empty trie in a fresh database
func initialisedDatabase(t *testing.T) *storage.Database {
	db := openMemory(t)
	t.Cleanup(func() {
		db.Close()
	})
	c, err := claimtrie.New(testConfiguration(), db)
	require.NoError(t, err, "initialise")
	require.NoError(t, c.Close(), "close")
	return db
}

func TestCommitFailureHalts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := initialisedDatabase(t)
	store := mockedStore(ctrl, db)

	backing, err := db.Begin()
	require.NoError(t, err, "begin")
	defer backing.Abort()

	trx := delegatedTransaction(ctrl, backing)
	trx.EXPECT().Err().Return(nil).AnyTimes()
	trx.EXPECT().Commit().Return(errors.New("disk full")).Times(1)
	store.EXPECT().Begin().Return(trx, nil).Times(1)

	c, err := claimtrie.New(testConfiguration(), store)
	require.NoError(t, err, "new")
	assert.Equal(t, int32(startHeight), c.NextHeight(), "stored height")

	require.NoError(t, c.AddClaim("test", outPoint(1), claimID(1), 10, startHeight), "add")
	require.NoError(t, c.IncrementBlock(), "increment")

	assert.Equal(t, fault.CommitFailed, c.Flush(), "flush")
	assert.Equal(t, fault.CommitFailed, c.Halted(), "halted")

	// every later mutation reports the original failure
	assert.Equal(t, fault.CommitFailed, c.AddClaim("other", outPoint(2), claimID(2), 10, startHeight+1), "add after halt")
	assert.Equal(t, fault.CommitFailed, c.IncrementBlock(), "increment after halt")
	assert.Equal(t, fault.CommitFailed, c.Flush(), "flush after halt")
	_, err = c.GetMerkleHash()
	assert.Equal(t, fault.CommitFailed, err, "hash after halt")
}

func TestBeginFailureHalts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := initialisedDatabase(t)
	store := mockedStore(ctrl, db)

	failure := errors.New("no transaction")
	store.EXPECT().Begin().Return(nil, failure).Times(1)

	c, err := claimtrie.New(testConfiguration(), store)
	require.NoError(t, err, "new")

	assert.Equal(t, failure, c.AddClaim("test", outPoint(1), claimID(1), 10, startHeight), "add")
	assert.Equal(t, failure, c.Halted(), "halted")
	assert.Equal(t, failure, c.IncrementBlock(), "no retry")
}

func TestWriteFailureHalts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	db := initialisedDatabase(t)
	store := mockedStore(ctrl, db)

	backing, err := db.Begin()
	require.NoError(t, err, "begin")
	defer backing.Abort()

	failure := errors.New("write failed")
	trx := delegatedTransaction(ctrl, backing)
	trx.EXPECT().Err().Return(failure).AnyTimes()
	trx.EXPECT().Abort().Times(1)
	store.EXPECT().Begin().Return(trx, nil).Times(1)

	c, err := claimtrie.New(testConfiguration(), store)
	require.NoError(t, err, "new")

	require.NoError(t, c.AddClaim("test", outPoint(1), claimID(1), 10, startHeight), "add")
	assert.Equal(t, failure, c.IncrementBlock(), "increment")
	assert.Equal(t, failure, c.Halted(), "halted")
	assert.Equal(t, failure, c.Flush(), "flush")
}

func TestNewRejectsMissingStore(t *testing.T) {
	_, err := claimtrie.New(testConfiguration(), nil)
	assert.Equal(t, fault.DatabaseIsNotSet, err, "nil store")

	configuration := testConfiguration()
	configuration.ProportionalDelayFactor = 0
	_, err = claimtrie.New(configuration, openMemory(t))
	assert.Equal(t, fault.InvalidDelayFactor, err, "invalid configuration")
}
