// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"github.com/bitmark-inc/claimtrie/fault"
	"github.com/bitmark-inc/claimtrie/merkle"
	"github.com/bitmark-inc/claimtrie/storage"
	"github.com/bitmark-inc/logger"
)

// fixed keys in the State pool
var (
	nextHeightKey = []byte("next-height")
	rootHashKey   = []byte("root-hash")
	hashRuleKey   = []byte("hash-rule")
)

// Cache - claim trie over a durable store
//
// all methods must be called from one goroutine, except Statistics
type Cache struct {
	log           *logger.L
	configuration Configuration
	forks         *forks
	store         storage.Store
	ownsStore     bool
	nextHeight    int32
	working       *workingBlock
	halted        error
	statistics    Statistics
}

// workingBlock - uncommitted changes of the block under construction
//
// dirty names are takeover candidates for the next IncrementBlock,
// unhashed names need their trie node checked before the next hash
type workingBlock struct {
	trx               storage.Transaction
	dirty             map[string]struct{}
	unhashed          map[string]struct{}
	removalWorkaround map[string]struct{}
}

// Open - open the store in the configured data directory and create a cache on it
func Open(configuration Configuration) (*Cache, error) {
	if err := configuration.Validate(); nil != err {
		return nil, err
	}
	if "" == configuration.DataDirectory {
		return nil, fault.MissingParameters
	}

	db, err := storage.Open(configuration.DataDirectory, configuration.CacheBytes, storage.ReadWrite)
	if nil != err {
		return nil, err
	}

	c, err := New(configuration, db)
	if nil != err {
		db.Close()
		return nil, err
	}
	c.ownsStore = true
	return c, nil
}

// New - create a cache on an already open store
//
// an empty store is initialised to an empty trie at the configured height
func New(configuration Configuration, store storage.Store) (*Cache, error) {
	if err := configuration.Validate(); nil != err {
		return nil, err
	}
	if nil == store {
		return nil, fault.DatabaseIsNotSet
	}

	c := &Cache{
		log:           logger.New("claimtrie"),
		configuration: configuration,
		forks:         newForks(configuration),
		store:         store,
	}

	n, found := storage.GetN(store, storage.Pool.State, nextHeightKey)
	if found {
		c.nextHeight = int32(n)
		if c.nextHeight != configuration.Height {
			c.log.Infof("stored height: %d  configured height: %d", c.nextHeight, configuration.Height)
		}
	} else {
		c.nextHeight = configuration.Height
		c.log.Infof("initialise empty trie at height: %d", c.nextHeight)
		if err := c.ensureTransacting(); nil != err {
			return nil, err
		}
		c.markDirty("")
		if err := c.Flush(); nil != err {
			return nil, err
		}
	}
	c.statistics.Height.Store(uint64(c.nextHeight))

	c.log.Infof("next height: %d  root: %s", c.nextHeight, c.storedRoot())
	return c, nil
}

// Close - discard uncommitted changes and release a store opened by Open
func (c *Cache) Close() error {
	c.Abort()
	c.log.Info("closed")
	c.log.Flush()
	if c.ownsStore {
		return c.store.Close()
	}
	return nil
}

// NextHeight - the height of the block under construction
func (c *Cache) NextHeight() int32 {
	return c.nextHeight
}

// Configuration - the settings the cache was created with
func (c *Cache) Configuration() Configuration {
	return c.configuration
}

// ExpirationTime - lifetime of an entry added to the block under construction
func (c *Cache) ExpirationTime() int32 {
	return c.forks.expiration.duration(c.nextHeight)
}

// ActiveRules - names of the rule overlays in effect at a height
func (c *Cache) ActiveRules(height int32) []string {
	return c.forks.active(height)
}

// Halted - the error that stopped the cache, nil while it is usable
func (c *Cache) Halted() error {
	return c.halted
}

// open the block transaction on first use
func (c *Cache) ensureTransacting() error {
	if nil != c.halted {
		return c.halted
	}
	if nil != c.working {
		return nil
	}
	trx, err := c.store.Begin()
	if nil != err {
		return c.halt(err)
	}
	c.working = &workingBlock{
		trx:               trx,
		dirty:             make(map[string]struct{}),
		unhashed:          make(map[string]struct{}),
		removalWorkaround: make(map[string]struct{}),
	}
	return nil
}

// the transaction if one is open, otherwise committed data
func (c *Cache) reader() storage.Reader {
	if nil != c.working {
		return c.working.trx
	}
	return c.store
}

// the open transaction; only valid after ensureTransacting
func (c *Cache) trx() storage.Transaction {
	return c.working.trx
}

func (c *Cache) markDirty(nodeName string) {
	c.working.dirty[nodeName] = struct{}{}
	c.working.unhashed[nodeName] = struct{}{}
}

// stop all further mutation after a store or consensus failure
func (c *Cache) halt(err error) error {
	if nil == c.halted {
		c.log.Criticalf("halted: %s", err)
		c.halted = err
	}
	if nil != c.working {
		c.working.trx.Abort()
		c.working = nil
	}
	return err
}

// Abort - discard the block under construction
func (c *Cache) Abort() {
	if nil == c.working {
		return
	}
	c.working.trx.Abort()
	c.working = nil

	n, found := storage.GetN(c.store, storage.Pool.State, nextHeightKey)
	if found {
		c.nextHeight = int32(n)
	}
	c.statistics.Aborts.Increment()
	c.log.Debugf("aborted, next height: %d", c.nextHeight)
}

// Flush - commit the block under construction
func (c *Cache) Flush() error {
	if nil != c.halted {
		return c.halted
	}
	if nil == c.working {
		return nil
	}

	root, err := c.merkleHash()
	if nil != err {
		return c.halt(err)
	}

	trx := c.trx()
	storage.PutN(trx, storage.Pool.State, nextHeightKey, uint64(c.nextHeight))
	trx.Put(storage.Pool.State, rootHashKey, root[:])

	err = trx.Commit()
	c.working = nil
	if nil != err {
		c.log.Criticalf("commit error: %s", err)
		return c.halt(fault.CommitFailed)
	}

	c.statistics.Flushes.Increment()
	c.statistics.Height.Store(uint64(c.nextHeight))
	c.log.Infof("flushed next height: %d  root: %s", c.nextHeight, root)
	return nil
}

// root as of the last flush
func (c *Cache) storedRoot() merkle.Digest {
	root := merkle.Digest{}
	buffer := c.store.Get(storage.Pool.State, rootHashKey)
	if nil != buffer {
		merkle.DigestFromBytes(&root, buffer)
	}
	return root
}
