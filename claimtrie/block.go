// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"sort"

	"github.com/bitmark-inc/claimtrie/fault"
	"github.com/bitmark-inc/claimtrie/storage"
)

// IncrementBlock - complete the block under construction: apply any
// fork that starts here, decide takeovers and move to the next height
func (c *Cache) IncrementBlock() error {
	if err := c.ensureTransacting(); nil != err {
		return err
	}
	h := c.nextHeight

	if h == c.forks.normalization.height {
		c.normalizeNames(true)
	}

	// entries starting or ending here change their node
	for _, pool := range []*storage.PoolHandle{storage.Pool.Activations, storage.Pool.Expirations} {
		claims, supports := c.indexedEntries(pool, h)
		for _, claim := range claims {
			c.markDirty(claim.NodeName)
		}
		for _, support := range supports {
			c.markDirty(support.NodeName)
		}
	}

	for _, nodeName := range c.dirtyNames() {
		if "" == nodeName {
			continue
		}
		c.resolveTakeover(nodeName, h)
	}
	c.working.dirty = make(map[string]struct{})

	// entries added from the fork block onwards live longer
	if h+1 == c.forks.expiration.height {
		c.extendExpirations(true)
	}

	c.nextHeight = h + 1
	c.statistics.Increments.Increment()

	if err := c.trx().Err(); nil != err {
		return c.halt(err)
	}
	c.log.Debugf("increment block: %d", h)
	return nil
}

// DecrementBlock - return to the block before the last one completed
//
// the caller then removes the entries that block added, restores the
// entries it removed and calls FinalizeDecrement
func (c *Cache) DecrementBlock() error {
	if c.nextHeight <= 0 {
		return fault.NothingToDecrement
	}
	if err := c.ensureTransacting(); nil != err {
		return err
	}
	h := c.nextHeight - 1
	c.nextHeight = h

	if h+1 == c.forks.expiration.height {
		c.extendExpirations(false)
	}

	// entries that expired at h are in force again
	claims, supports := c.indexedEntries(storage.Pool.Expirations, h)
	for _, claim := range claims {
		c.markDirty(claim.NodeName)
	}
	for _, support := range supports {
		c.markDirty(support.NodeName)
	}

	// entries brought forward by a takeover at h wait again
	claims, supports = c.indexedEntries(storage.Pool.Activations, h)
	for _, claim := range claims {
		if claim.ActivationHeight < claim.ValidHeight {
			updated := claim
			updated.ActivationHeight = claim.ValidHeight
			c.updateClaim(claim, updated)
			c.markDirty(claim.NodeName)
		}
	}
	for _, support := range supports {
		if support.ActivationHeight < support.ValidHeight {
			updated := support
			updated.ActivationHeight = support.ValidHeight
			c.updateSupport(support, updated)
			c.markDirty(support.NodeName)
		}
	}

	if h == c.forks.normalization.height {
		c.normalizeNames(false)
	}

	c.statistics.Decrements.Increment()

	if err := c.trx().Err(); nil != err {
		return c.halt(err)
	}
	c.log.Debugf("decrement block: %d", h)
	return nil
}

// FinalizeDecrement - drop the takeovers of the undone block
func (c *Cache) FinalizeDecrement() error {
	if err := c.ensureTransacting(); nil != err {
		return err
	}
	h := c.nextHeight

	claims, supports := c.indexedEntries(storage.Pool.Activations, h)
	for _, claim := range claims {
		if claim.ExpirationHeight > h {
			c.markDirty(claim.NodeName)
		}
	}
	for _, support := range supports {
		if support.ExpirationHeight > h {
			c.markDirty(support.NodeName)
		}
	}

	for _, name := range c.deleteTakeoversFrom(h) {
		c.markDirty(name)
	}
	c.working.dirty = make(map[string]struct{})

	if err := c.trx().Err(); nil != err {
		return c.halt(err)
	}
	c.log.Debugf("finalize decrement: %d", h)
	return nil
}

// dirty names sorted so that every run visits them in one order
func (c *Cache) dirtyNames() []string {
	names := make([]string, 0, len(c.working.dirty))
	for name := range c.working.dirty {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lengthen (or on undo shorten) every unexpired entry
//
// runs as the block before the fork completes so the extension
// covers everything still in force at the fork
func (c *Cache) extendExpirations(forward bool) {
	f := c.forks.expiration
	difference := f.difference()
	if 0 == difference {
		return
	}

	// when extending everything not expired by the fork block is
	// affected; when undoing only the extended entries can reach
	// that far
	from := f.height
	if !forward {
		from = f.height + difference
	}

	outPoints := make([][]byte, 0)
	c.reader().Iterate(storage.Pool.Expirations, nil, func(key []byte, value []byte) bool {
		if heightFromKey(key) >= from {
			outPoints = append(outPoints, key)
		}
		return true
	})

	for _, key := range outPoints {
		outPoint := outPointFromKey(key[5:])
		switch key[4] {
		case kindClaim:
			claim, found := c.getClaim(outPoint)
			if !found {
				continue
			}
			updated := claim
			if forward {
				updated.ExpirationHeight += difference
			} else {
				updated.ExpirationHeight -= difference
			}
			c.updateClaim(claim, updated)
		case kindSupport:
			support, found := c.getSupport(outPoint)
			if !found {
				continue
			}
			updated := support
			if forward {
				updated.ExpirationHeight += difference
			} else {
				updated.ExpirationHeight -= difference
			}
			c.updateSupport(support, updated)
		}
	}
	c.log.Infof("expiration fork at: %d  forward: %t  entries: %d", f.height, forward, len(outPoints))
}

// re-key every unexpired entry under its normalized name, or back
// to its raw name on undo
func (c *Cache) normalizeNames(forward bool) {
	f := c.forks.normalization
	keys := make([][]byte, 0)
	c.reader().Iterate(storage.Pool.Expirations, nil, func(key []byte, value []byte) bool {
		if heightFromKey(key) > f.height {
			keys = append(keys, key)
		}
		return true
	})

	moved := 0
	for _, key := range keys {
		outPoint := outPointFromKey(key[5:])
		switch key[4] {
		case kindClaim:
			claim, found := c.getClaim(outPoint)
			if !found {
				continue
			}
			nodeName := claim.Name
			if forward {
				nodeName = f.normalizer.Normalize(claim.Name)
			}
			if nodeName == claim.NodeName {
				continue
			}
			updated := claim
			updated.NodeName = nodeName
			c.updateClaim(claim, updated)
			c.markDirty(claim.NodeName)
			c.markDirty(nodeName)
			moved += 1
		case kindSupport:
			support, found := c.getSupport(outPoint)
			if !found {
				continue
			}
			nodeName := support.Name
			if forward {
				nodeName = f.normalizer.Normalize(support.Name)
			}
			if nodeName == support.NodeName {
				continue
			}
			updated := support
			updated.NodeName = nodeName
			c.updateSupport(support, updated)
			c.markDirty(support.NodeName)
			c.markDirty(nodeName)
			moved += 1
		}
	}
	c.log.Infof("normalization fork at: %d  forward: %t  moved: %d", f.height, forward, moved)
}
