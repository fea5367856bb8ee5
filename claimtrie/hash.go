// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"encoding/binary"
	"strconv"

	"github.com/btcsuite/btcd/wire"

	"github.com/bitmark-inc/claimtrie/merkle"
	"github.com/bitmark-inc/claimtrie/storage"
)

// 8 bytes with the height big endian in the last 4
func heightBytes(height int32) []byte {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint32(buffer[4:], uint32(height))
	return buffer
}

func appendDigest(buffer []byte, data []byte) []byte {
	d := merkle.NewDigest(data)
	return append(buffer, d[:]...)
}

// ValueHash - commitment to the controlling claim of a node
func ValueHash(outPoint wire.OutPoint, takeoverHeight int32) merkle.Digest {
	buffer := make([]byte, 0, 3*merkle.DigestLength)
	buffer = appendDigest(buffer, outPoint.Hash[:])
	buffer = appendDigest(buffer, []byte(strconv.FormatUint(uint64(outPoint.Index), 10)))
	buffer = appendDigest(buffer, heightBytes(takeoverHeight))
	return merkle.NewDigest(buffer)
}

// ClaimInfoHash - commitment to one active claim including its
// identity, weight and activation
func ClaimInfoHash(outPoint wire.OutPoint, takeoverHeight int32, claimID ClaimID, effectiveAmount int64, activationHeight int32) merkle.Digest {
	amount := make([]byte, 8)
	binary.BigEndian.PutUint64(amount, uint64(effectiveAmount))

	buffer := make([]byte, 0, 6*merkle.DigestLength)
	buffer = appendDigest(buffer, outPoint.Hash[:])
	buffer = appendDigest(buffer, []byte(strconv.FormatUint(uint64(outPoint.Index), 10)))
	buffer = appendDigest(buffer, heightBytes(takeoverHeight))
	buffer = appendDigest(buffer, claimID[:])
	buffer = appendDigest(buffer, amount)
	buffer = appendDigest(buffer, heightBytes(activationHeight))
	return merkle.NewDigest(buffer)
}

// fold the characters of key after position to into a child hash,
// giving the digest its parent at depth to sees
func completeHash(digest merkle.Digest, key string, to int) merkle.Digest {
	buffer := make([]byte, 1+merkle.DigestLength)
	for i := len(key) - 1; i > to; i -= 1 {
		buffer[0] = key[i]
		copy(buffer[1:], digest[:])
		digest = merkle.NewDigest(buffer)
	}
	return digest
}

// height of the last takeover, zero when the name has no controller
func (c *Cache) takeoverHeight(nodeName string) int32 {
	t, found := c.lastTakeover(nodeName)
	if !found || !t.hasClaim {
		return 0
	}
	return t.height
}

// leaf digests of the active claims of a node in ranking order
func claimLeaves(rule HashRule, claims []ClaimAndSupports, takeoverHeight int32) []merkle.Digest {
	leaves := make([]merkle.Digest, len(claims))
	for i, claim := range claims {
		if HashClaimInfo == rule {
			leaves[i] = ClaimInfoHash(claim.Claim.OutPoint, takeoverHeight, claim.Claim.ClaimID, claim.EffectiveAmount, claim.Claim.ActivationHeight)
		} else {
			leaves[i] = ValueHash(claim.Claim.OutPoint, takeoverHeight)
		}
	}
	return leaves
}

// the two halves hashed into a node under the merkle rules
func childrenSide(childHashes []merkle.Digest) merkle.Digest {
	if 0 == len(childHashes) {
		return merkle.LeafHash
	}
	return merkle.Root(childHashes)
}

func claimsSide(leaves []merkle.Digest, takeoverHeight int32) merkle.Digest {
	if 0 == len(leaves) || 0 == takeoverHeight {
		return merkle.EmptyHash
	}
	return merkle.Root(leaves)
}

// base rule: child characters with their completed hashes then the
// value of the controlling claim
func baseNodeHash(name string, childNames []string, childHashes []merkle.Digest, value *merkle.Digest) merkle.Digest {
	position := len(name)
	buffer := make([]byte, 0, len(childNames)*(1+merkle.DigestLength)+merkle.DigestLength)
	for i, childName := range childNames {
		digest := completeHash(childHashes[i], childName, position)
		buffer = append(buffer, childName[position])
		buffer = append(buffer, digest[:]...)
	}
	if nil != value {
		buffer = append(buffer, value[:]...)
	}
	if 0 == len(buffer) {
		return merkle.One
	}
	return merkle.NewDigest(buffer)
}

// node hash from the stored hashes of its children and its claims at block h
func (c *Cache) computeNodeHash(rule HashRule, name string, h int32) merkle.Digest {
	return c.hashNode(rule, name, c.children(name), c.childHashes(name), h)
}

func (c *Cache) hashNode(rule HashRule, name string, childNames []string, childHashes []merkle.Digest, h int32) merkle.Digest {
	takeoverHeight := c.takeoverHeight(name)

	if HashBase == rule {
		var value *merkle.Digest
		if takeoverHeight > 0 {
			if best, found := c.bestClaim(name, h); found {
				v := ValueHash(best.Claim.OutPoint, takeoverHeight)
				value = &v
			}
		}
		return baseNodeHash(name, childNames, childHashes, value)
	}

	leaves := []merkle.Digest{}
	if takeoverHeight > 0 {
		leaves = claimLeaves(rule, c.activeClaims(name, h), takeoverHeight)
	}
	return merkle.Pair(childrenSide(childHashes), claimsSide(leaves, takeoverHeight))
}

// bring nodes and hashes up to date and return the root
func (c *Cache) merkleHash() (merkle.Digest, error) {
	if nil == c.working {
		return c.storedRoot(), nil
	}
	h := c.nextHeight - 1
	rule := c.forks.hashRule(h)
	trx := c.trx()

	c.ensureRoot()
	touched := c.updateStructure(h)

	stored := trx.Get(storage.Pool.State, hashRuleKey)
	if 1 != len(stored) || HashRule(stored[0]) != rule {
		c.log.Infof("hash rule: %s at: %d  rehash all nodes", rule, h)
		touched = c.allNodes()
		trx.Put(storage.Pool.State, hashRuleKey, []byte{byte(rule)})
	}
	c.rehash(rule, h, touched)
	c.working.unhashed = make(map[string]struct{})

	if err := trx.Err(); nil != err {
		return merkle.Digest{}, err
	}
	root, _ := c.getNode("")
	return root.hash, nil
}

// GetMerkleHash - root of the trie as of the last completed block
// including changes made since
func (c *Cache) GetMerkleHash() (merkle.Digest, error) {
	if nil != c.halted {
		return merkle.Digest{}, c.halted
	}
	root, err := c.merkleHash()
	if nil != err {
		return merkle.Digest{}, c.halt(err)
	}
	return root, nil
}
