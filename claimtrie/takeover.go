// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"bytes"
	"sort"

	"github.com/bitmark-inc/claimtrie/storage"
)

// takeover - a change of controlling claim, hasClaim is false when
// the name lost its last claim
type takeover struct {
	height   int32
	claimID  ClaimID
	hasClaim bool
}

// ranking order: effective amount descending then activation height
// then claim id then outpoint
func claimLess(a *ClaimAndSupports, b *ClaimAndSupports) bool {
	if a.EffectiveAmount != b.EffectiveAmount {
		return a.EffectiveAmount > b.EffectiveAmount
	}
	if a.Claim.ActivationHeight != b.Claim.ActivationHeight {
		return a.Claim.ActivationHeight < b.Claim.ActivationHeight
	}
	if c := bytes.Compare(a.Claim.ClaimID[:], b.Claim.ClaimID[:]); 0 != c {
		return c < 0
	}
	return compareOutPoints(a.Claim.OutPoint, b.Claim.OutPoint) < 0
}

// every claim of a node with its supports, ranked at block h
//
// only claims in force at h have an effective amount and only
// supports in force at h add to it
func (c *Cache) rankedClaims(nodeName string, h int32) ([]ClaimAndSupports, []Support) {
	claims := c.claimsForNode(nodeName)
	supports := c.supportsForNode(nodeName)

	result := make([]ClaimAndSupports, len(claims))
	index := make(map[ClaimID][]int)
	for i, claim := range claims {
		result[i] = ClaimAndSupports{
			Claim:    claim,
			Supports: make([]Support, 0),
		}
		if claim.activeAt(h) {
			result[i].EffectiveAmount = claim.Amount
		}
		index[claim.ClaimID] = append(index[claim.ClaimID], i)
	}

	unmatched := make([]Support, 0)
	for _, support := range supports {
		positions, ok := index[support.SupportedClaimID]
		if !ok {
			unmatched = append(unmatched, support)
			continue
		}
		for _, i := range positions {
			result[i].Supports = append(result[i].Supports, support)
			if support.activeAt(h) && result[i].Claim.activeAt(h) {
				result[i].EffectiveAmount += support.Amount
			}
		}
	}

	sort.SliceStable(result, func(i int, j int) bool {
		return claimLess(&result[i], &result[j])
	})
	return result, unmatched
}

// claims in force at block h in ranking order
func (c *Cache) activeClaims(nodeName string, h int32) []ClaimAndSupports {
	ranked, _ := c.rankedClaims(nodeName, h)
	active := make([]ClaimAndSupports, 0, len(ranked))
	for _, r := range ranked {
		if r.Claim.activeAt(h) {
			active = append(active, r)
		}
	}
	return active
}

// the highest ranked claim in force at block h
func (c *Cache) bestClaim(nodeName string, h int32) (ClaimAndSupports, bool) {
	active := c.activeClaims(nodeName, h)
	if 0 == len(active) {
		return ClaimAndSupports{}, false
	}
	return active[0], true
}

// most recent takeover record of a node
func (c *Cache) lastTakeover(nodeName string) (takeover, bool) {
	prefix := nodeKey(nodeName)
	e, found := c.reader().Last(storage.Pool.Takeovers, prefix)
	if !found {
		return takeover{}, false
	}
	t := takeover{
		height: heightFromKey(e.Key[len(prefix):]),
	}
	if ClaimIDLength == len(e.Value) {
		copy(t.claimID[:], e.Value)
		t.hasClaim = true
	}
	return t, true
}

// record a takeover, nil claimID means no controlling claim
func (c *Cache) putTakeover(nodeName string, height int32, claimID *ClaimID) {
	value := []byte{}
	if nil != claimID {
		value = claimID[:]
	}
	trx := c.trx()
	trx.Put(storage.Pool.Takeovers, takeoverKey(nodeName, height), value)
	trx.Put(storage.Pool.TakeoverHeights, append(heightKey(height), nodeName...), nil)
}

// remove every takeover at or above a height, return the affected names
func (c *Cache) deleteTakeoversFrom(height int32) []string {
	names := make([]string, 0)
	last, found := c.reader().Last(storage.Pool.TakeoverHeights, nil)
	if !found {
		return names
	}

	keys := make([][]byte, 0)
	for h := height; h <= heightFromKey(last.Key); h += 1 {
		keys = append(keys, storage.Keys(c.reader(), storage.Pool.TakeoverHeights, heightKey(h))...)
	}

	trx := c.trx()
	for _, key := range keys {
		name := string(key[4:])
		trx.Delete(storage.Pool.Takeovers, takeoverKey(name, heightFromKey(key)))
		trx.Delete(storage.Pool.TakeoverHeights, key)
		names = append(names, name)
	}
	return names
}

// DelayForName - activation delay a new claim or support would get
// in the block under construction
func (c *Cache) DelayForName(name string, claimID ClaimID) int32 {
	return c.delayForName(c.adjustName(name), claimID, false)
}

// delay in blocks, proportional to the time since the last takeover
//
// consume clears a pending removal workaround entry
func (c *Cache) delayForName(nodeName string, claimID ClaimID, consume bool) int32 {
	t, found := c.lastTakeover(nodeName)
	if found && t.hasClaim && t.claimID == claimID {
		return 0
	}

	if nil != c.working && c.forks.workaround.activeAt(c.nextHeight) {
		if _, ok := c.working.removalWorkaround[nodeName]; ok {
			if consume {
				delete(c.working.removalWorkaround, nodeName)
			}
			return 0
		}
	}

	if !found || t.height <= 0 {
		return 0
	}
	delay := (c.nextHeight - t.height) / c.configuration.ProportionalDelayFactor
	if delay > c.configuration.MaxTakeoverDelay {
		delay = c.configuration.MaxTakeoverDelay
	}
	return delay
}

// decide the controlling claim of a dirty node at block h
func (c *Cache) resolveTakeover(nodeName string, h int32) {
	candidate, hasCandidate := c.bestClaim(nodeName, h)
	existing, found := c.lastTakeover(nodeName)
	haveController := found && existing.hasClaim

	if hasCandidate && haveController && candidate.Claim.ClaimID == existing.claimID {
		return
	}

	// a takeover brings every waiting entry of the name into force
	if c.activateAll(nodeName, h) {
		c.working.unhashed[nodeName] = struct{}{}
		candidate, hasCandidate = c.bestClaim(nodeName, h)
	}

	switch {
	case hasCandidate:
		c.putTakeover(nodeName, h, &candidate.Claim.ClaimID)
		c.log.Infof("takeover: %q at: %d by: %s", nodeName, h, candidate.Claim.ClaimID)
	case haveController:
		c.putTakeover(nodeName, h, nil)
		c.log.Infof("takeover: %q at: %d no controlling claim", nodeName, h)
	default:
		return
	}
	// the node may have been hashed earlier in this block
	c.working.unhashed[nodeName] = struct{}{}
	c.statistics.Takeovers.Increment()
}

// set the activation of all waiting claims and supports of a node to h
func (c *Cache) activateAll(nodeName string, h int32) bool {
	changed := false
	for _, claim := range c.claimsForNode(nodeName) {
		if claim.ActivationHeight > h && claim.ExpirationHeight > h {
			updated := claim
			updated.ActivationHeight = h
			c.updateClaim(claim, updated)
			changed = true
		}
	}
	for _, support := range c.supportsForNode(nodeName) {
		if support.ActivationHeight > h && support.ExpirationHeight > h {
			updated := support
			updated.ActivationHeight = h
			c.updateSupport(support, updated)
			changed = true
		}
	}
	return changed
}
