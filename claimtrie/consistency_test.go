// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/claimtrie/claimtrie"
	"github.com/bitmark-inc/claimtrie/fault"
	"github.com/bitmark-inc/claimtrie/storage"
)

func TestConsistencyDetectsCorruption(t *testing.T) {
	db := openMemory(t)
	defer db.Close()
	c, err := claimtrie.New(testConfiguration(), db)
	require.NoError(t, err, "new cache")
	defer c.Close()

	require.NoError(t, c.AddClaim("test", outPoint(1), claimID(1), 10, startHeight))
	require.NoError(t, c.AddClaim("toast", outPoint(2), claimID(2), 10, startHeight))
	increment(t, c, 1)
	require.NoError(t, c.CheckConsistency(), "consistent")

	// overwrite the hash of a node below the branch "t"
	trx, err := db.Begin()
	require.NoError(t, err, "begin")
	value := append([]byte{0x01, 't'}, bytes.Repeat([]byte{0xee}, 32)...)
	trx.Put(storage.Pool.Nodes, []byte("test"), value)
	require.NoError(t, trx.Commit(), "commit")

	assert.Equal(t, fault.InconsistentTrie, c.CheckConsistency(), "corrupt hash")
	assert.Equal(t, fault.InconsistentTrie, c.Halted(), "halted")
	assert.True(t, fault.IsErrConsensus(c.Halted()), "class")
	assert.Equal(t, fault.InconsistentTrie, c.AddClaim("other", outPoint(3), claimID(3), 1, startHeight+1), "no more changes")
}
