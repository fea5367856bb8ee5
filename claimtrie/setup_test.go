// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie_test

import (
	"os"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/claimtrie/claimtrie"
	"github.com/bitmark-inc/claimtrie/merkle"
	"github.com/bitmark-inc/claimtrie/storage"
	"github.com/bitmark-inc/logger"
)

const (
	testingDirName = "testing"
	startHeight    = 100
	farAway        = 100000
)

func TestMain(m *testing.M) {
	removeFiles()
	_ = os.Mkdir(testingDirName, 0o700)

	logging := logger.Configuration{
		Directory: testingDirName,
		File:      "testing.log",
		Size:      1048576,
		Count:     10,
		Console:   false,
		Levels: map[string]string{
			logger.DefaultTag: "info",
		},
	}

	// start logging
	if err := logger.Initialise(logging); nil != err {
		panic("logger setup failed: " + err.Error())
	}

	rc := m.Run()
	logger.Finalise()
	removeFiles()
	os.Exit(rc)
}

func removeFiles() {
	os.RemoveAll(testingDirName)
}

// every fork out of reach unless a test moves it
func testConfiguration() claimtrie.Configuration {
	configuration := claimtrie.DefaultConfiguration("")
	configuration.Height = startHeight
	configuration.NormalizedNameForkHeight = farAway
	configuration.AllClaimsInMerkleForkHeight = farAway
	configuration.ClaimInfoInMerkleForkHeight = farAway
	configuration.ExtendedClaimExpirationForkHeight = farAway
	return configuration
}

func openMemory(t *testing.T) *storage.Database {
	db, err := storage.OpenMemory()
	require.NoError(t, err, "open memory")
	return db
}

func newCache(t *testing.T, configuration claimtrie.Configuration) *claimtrie.Cache {
	t.Helper()
	db := openMemory(t)
	c, err := claimtrie.New(configuration, db)
	require.NoError(t, err, "new cache")
	t.Cleanup(func() {
		c.Close()
		db.Close()
	})
	return c
}

// distinct outpoints for distinct n
func outPoint(n uint32) wire.OutPoint {
	hash := chainhash.Hash{}
	hash[0] = byte(n)
	hash[1] = byte(n >> 8)
	hash[31] = 0x5a
	return wire.OutPoint{
		Hash:  hash,
		Index: n,
	}
}

func claimID(n uint32) claimtrie.ClaimID {
	return claimtrie.NewClaimID(outPoint(n))
}

// complete and commit n blocks
func increment(t *testing.T, c *claimtrie.Cache, n int) {
	t.Helper()
	for i := 0; i < n; i += 1 {
		require.NoError(t, c.IncrementBlock(), "increment block")
		require.NoError(t, c.Flush(), "flush")
	}
}

func merkleHash(t *testing.T, c *claimtrie.Cache) merkle.Digest {
	t.Helper()
	root, err := c.GetMerkleHash()
	require.NoError(t, err, "merkle hash")
	return root
}
