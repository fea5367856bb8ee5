// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/bitmark-inc/claimtrie/storage"
)

// reading and writing claim and support records with their indexes

func (c *Cache) getClaim(outPoint wire.OutPoint) (Claim, bool) {
	record := c.reader().Get(storage.Pool.Claims, outPointKey(outPoint))
	if nil == record {
		return Claim{}, false
	}
	return unpackClaim(outPoint, record), true
}

func (c *Cache) putClaim(claim Claim) {
	trx := c.trx()
	trx.Put(storage.Pool.Claims, outPointKey(claim.OutPoint), claim.pack())
	trx.Put(storage.Pool.ClaimsByNode, byNodeKey(claim.NodeName, claim.OutPoint), nil)
	trx.Put(storage.Pool.ClaimsByID, byIDKey(claim.ClaimID, claim.OutPoint), nil)
	trx.Put(storage.Pool.Activations, indexKey(claim.ActivationHeight, kindClaim, claim.OutPoint), nil)
	trx.Put(storage.Pool.Expirations, indexKey(claim.ExpirationHeight, kindClaim, claim.OutPoint), nil)
}

func (c *Cache) deleteClaim(claim Claim) {
	trx := c.trx()
	trx.Delete(storage.Pool.Claims, outPointKey(claim.OutPoint))
	trx.Delete(storage.Pool.ClaimsByNode, byNodeKey(claim.NodeName, claim.OutPoint))
	trx.Delete(storage.Pool.ClaimsByID, byIDKey(claim.ClaimID, claim.OutPoint))
	trx.Delete(storage.Pool.Activations, indexKey(claim.ActivationHeight, kindClaim, claim.OutPoint))
	trx.Delete(storage.Pool.Expirations, indexKey(claim.ExpirationHeight, kindClaim, claim.OutPoint))
}

// replace a record, moving any index entries whose keys changed
func (c *Cache) updateClaim(old Claim, claim Claim) {
	c.deleteClaim(old)
	c.putClaim(claim)
}

func (c *Cache) getSupport(outPoint wire.OutPoint) (Support, bool) {
	record := c.reader().Get(storage.Pool.Supports, outPointKey(outPoint))
	if nil == record {
		return Support{}, false
	}
	return unpackSupport(outPoint, record), true
}

func (c *Cache) putSupport(support Support) {
	trx := c.trx()
	trx.Put(storage.Pool.Supports, outPointKey(support.OutPoint), support.pack())
	trx.Put(storage.Pool.SupportsByNode, byNodeKey(support.NodeName, support.OutPoint), nil)
	trx.Put(storage.Pool.Activations, indexKey(support.ActivationHeight, kindSupport, support.OutPoint), nil)
	trx.Put(storage.Pool.Expirations, indexKey(support.ExpirationHeight, kindSupport, support.OutPoint), nil)
}

func (c *Cache) deleteSupport(support Support) {
	trx := c.trx()
	trx.Delete(storage.Pool.Supports, outPointKey(support.OutPoint))
	trx.Delete(storage.Pool.SupportsByNode, byNodeKey(support.NodeName, support.OutPoint))
	trx.Delete(storage.Pool.Activations, indexKey(support.ActivationHeight, kindSupport, support.OutPoint))
	trx.Delete(storage.Pool.Expirations, indexKey(support.ExpirationHeight, kindSupport, support.OutPoint))
}

func (c *Cache) updateSupport(old Support, support Support) {
	c.deleteSupport(old)
	c.putSupport(support)
}

// true if either a claim or a support uses the outpoint
func (c *Cache) outPointInUse(outPoint wire.OutPoint) bool {
	key := outPointKey(outPoint)
	r := c.reader()
	return r.Has(storage.Pool.Claims, key) || r.Has(storage.Pool.Supports, key)
}

// every claim of a node in outpoint order
func (c *Cache) claimsForNode(nodeName string) []Claim {
	claims := make([]Claim, 0)
	r := c.reader()
	prefix := nodeKey(nodeName)
	r.Iterate(storage.Pool.ClaimsByNode, prefix, func(key []byte, value []byte) bool {
		outPoint := outPointFromKey(key[len(prefix):])
		if claim, found := c.getClaim(outPoint); found {
			claims = append(claims, claim)
		}
		return true
	})
	return claims
}

// every support of a node in outpoint order
func (c *Cache) supportsForNode(nodeName string) []Support {
	supports := make([]Support, 0)
	r := c.reader()
	prefix := nodeKey(nodeName)
	r.Iterate(storage.Pool.SupportsByNode, prefix, func(key []byte, value []byte) bool {
		outPoint := outPointFromKey(key[len(prefix):])
		if support, found := c.getSupport(outPoint); found {
			supports = append(supports, support)
		}
		return true
	})
	return supports
}

// true if the node has a claim in force at block h
func (c *Cache) hasActiveClaim(nodeName string, h int32) bool {
	found := false
	r := c.reader()
	prefix := nodeKey(nodeName)
	r.Iterate(storage.Pool.ClaimsByNode, prefix, func(key []byte, value []byte) bool {
		claim, ok := c.getClaim(outPointFromKey(key[len(prefix):]))
		if ok && claim.activeAt(h) {
			found = true
			return false
		}
		return true
	})
	return found
}

// outpoints of one kind in the activation or expiration index at a height
func (c *Cache) indexed(pool *storage.PoolHandle, height int32, kind byte) []wire.OutPoint {
	outPoints := make([]wire.OutPoint, 0)
	prefix := append(heightKey(height), kind)
	c.reader().Iterate(pool, prefix, func(key []byte, value []byte) bool {
		outPoints = append(outPoints, outPointFromKey(key[len(prefix):]))
		return true
	})
	return outPoints
}

// claims and supports in the activation or expiration index at a height
func (c *Cache) indexedEntries(pool *storage.PoolHandle, height int32) ([]Claim, []Support) {
	claims := make([]Claim, 0)
	for _, outPoint := range c.indexed(pool, height, kindClaim) {
		if claim, found := c.getClaim(outPoint); found {
			claims = append(claims, claim)
		}
	}
	supports := make([]Support, 0)
	for _, outPoint := range c.indexed(pool, height, kindSupport) {
		if support, found := c.getSupport(outPoint); found {
			supports = append(supports, support)
		}
	}
	return claims, supports
}
