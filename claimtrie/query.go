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

// all queries answer for the last completed block, nextHeight-1,
// including changes made since to the block under construction

// GetInfoForName - the claim that controls a name
func (c *Cache) GetInfoForName(name string) (ClaimValue, bool) {
	nodeName := c.adjustName(name)
	best, found := c.bestClaim(nodeName, c.nextHeight-1)
	if !found {
		return ClaimValue{}, false
	}
	return ClaimValue{
		Claim:              best.Claim,
		EffectiveAmount:    best.EffectiveAmount,
		LastTakeoverHeight: c.takeoverHeight(nodeName),
	}, true
}

// GetClaimsForName - every claim and support of a name, waiting ones
// included, in ranking order
func (c *Cache) GetClaimsForName(name string) ClaimsForName {
	nodeName := c.adjustName(name)
	claims, unmatched := c.rankedClaims(nodeName, c.nextHeight-1)
	return ClaimsForName{
		Name:               name,
		NodeName:           nodeName,
		LastTakeoverHeight: c.takeoverHeight(nodeName),
		Claims:             claims,
		UnmatchedSupports:  unmatched,
	}
}

// GetLastTakeoverForName - controlling claim id and the height it took control
func (c *Cache) GetLastTakeoverForName(name string) (ClaimID, int32, bool) {
	t, found := c.lastTakeover(c.adjustName(name))
	if !found || !t.hasClaim {
		return ClaimID{}, 0, false
	}
	return t.claimID, t.height, true
}

// FindNameForClaim - the first active claim whose id starts with prefix
func (c *Cache) FindNameForClaim(prefix []byte) (ClaimValue, bool) {
	if len(prefix) > ClaimIDLength {
		return ClaimValue{}, false
	}
	h := c.nextHeight - 1

	keys := storage.Keys(c.reader(), storage.Pool.ClaimsByID, prefix)
	for _, key := range keys {
		claim, found := c.getClaim(outPointFromKey(key[ClaimIDLength:]))
		if !found || !claim.activeAt(h) {
			continue
		}
		value := ClaimValue{
			Claim:              claim,
			LastTakeoverHeight: c.takeoverHeight(claim.NodeName),
		}
		ranked, _ := c.rankedClaims(claim.NodeName, h)
		for _, r := range ranked {
			if r.Claim.OutPoint == claim.OutPoint {
				value.EffectiveAmount = r.EffectiveAmount
			}
		}
		return value, true
	}
	return ClaimValue{}, false
}

// distinct sorted claim ids of the entries in an index at height h
// that were added before h
func (c *Cache) claimIDsAt(pool *storage.PoolHandle, kind byte, h int32) []ClaimID {
	seen := make(map[ClaimID]struct{})
	for _, outPoint := range c.indexed(pool, h, kind) {
		switch kind {
		case kindClaim:
			claim, found := c.getClaim(outPoint)
			if found && claim.UpdateHeight < h {
				seen[claim.ClaimID] = struct{}{}
			}
		case kindSupport:
			support, found := c.getSupport(outPoint)
			if found && support.UpdateHeight < h {
				seen[support.SupportedClaimID] = struct{}{}
			}
		}
	}

	ids := make([]ClaimID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i int, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}

// GetActivatedClaims - claims added earlier that activate at height
func (c *Cache) GetActivatedClaims(height int32) []ClaimID {
	return c.claimIDsAt(storage.Pool.Activations, kindClaim, height)
}

// GetClaimsWithActivatedSupports - claims with a support added earlier
// that activates at height
func (c *Cache) GetClaimsWithActivatedSupports(height int32) []ClaimID {
	return c.claimIDsAt(storage.Pool.Activations, kindSupport, height)
}

// GetExpiredClaims - claims that expire at height
func (c *Cache) GetExpiredClaims(height int32) []ClaimID {
	return c.claimIDsAt(storage.Pool.Expirations, kindClaim, height)
}

// GetClaimsWithExpiredSupports - claims with a support that expires at height
func (c *Cache) GetClaimsWithExpiredSupports(height int32) []ClaimID {
	return c.claimIDsAt(storage.Pool.Expirations, kindSupport, height)
}

// GetNamesInTrie - report each name with a claim in force until f
// returns false
//
// names are visited in index order while the index is walked, so f
// must not modify the trie
func (c *Cache) GetNamesInTrie(f func(name string) bool) {
	h := c.nextHeight - 1
	first := true
	last := ""
	c.reader().Iterate(storage.Pool.ClaimsByNode, nil, func(key []byte, value []byte) bool {
		name, _ := splitNodeKey(key)
		if !first && name == last {
			return true
		}
		first = false
		last = name
		if !c.hasActiveClaim(name, h) {
			return true
		}
		return f(name)
	})
}

// GetTotalNamesInTrie - number of names with a claim in force
func (c *Cache) GetTotalNamesInTrie() int {
	n := 0
	c.GetNamesInTrie(func(name string) bool {
		n += 1
		return true
	})
	return n
}

// GetTotalClaimsInTrie - number of claims in force
func (c *Cache) GetTotalClaimsInTrie() int {
	h := c.nextHeight - 1
	n := 0
	c.reader().Iterate(storage.Pool.Claims, nil, func(key []byte, value []byte) bool {
		claim := unpackClaim(outPointFromKey(key), value)
		if claim.activeAt(h) {
			n += 1
		}
		return true
	})
	return n
}

// GetTotalValueOfClaimsInTrie - sum of effective amounts of the claims
// in force, or of only the controlling claims
func (c *Cache) GetTotalValueOfClaimsInTrie(controllingOnly bool) int64 {
	h := c.nextHeight - 1
	total := int64(0)
	c.GetNamesInTrie(func(name string) bool {
		active := c.activeClaims(name, h)
		if controllingOnly {
			active = active[:1]
		}
		for _, claim := range active {
			total += claim.EffectiveAmount
		}
		return true
	})
	return total
}
