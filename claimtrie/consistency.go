// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"github.com/bitmark-inc/claimtrie/fault"
	"github.com/bitmark-inc/claimtrie/merkle"
)

// CheckConsistency - recompute every node hash from the claims and
// compare with the stored hashes and root
//
// a mismatch halts the cache
func (c *Cache) CheckConsistency() error {
	if nil != c.halted {
		return c.halted
	}
	root, err := c.merkleHash()
	if nil != err {
		return c.halt(err)
	}

	h := c.nextHeight - 1
	rule := c.forks.hashRule(h)

	computed, ok := c.verifyNode(rule, "", h)
	if !ok || computed != root {
		c.log.Criticalf("consistency: computed root: %s  stored root: %s", computed, root)
		return c.halt(fault.InconsistentTrie)
	}
	if nil == c.working && root != c.storedRoot() {
		return c.halt(fault.InconsistentTrie)
	}

	missing := ""
	c.GetNamesInTrie(func(name string) bool {
		if _, found := c.getNode(name); !found {
			missing = name
			return false
		}
		return true
	})
	if "" != missing {
		c.log.Criticalf("consistency: name: %q has claims but no node", missing)
		return c.halt(fault.InconsistentTrie)
	}
	c.log.Infof("consistency: root: %s at: %d", root, h)
	return nil
}

// recompute a subtree, checking the links and stored hash of every node
func (c *Cache) verifyNode(rule HashRule, name string, h int32) (merkle.Digest, bool) {
	node, found := c.getNode(name)
	if !found {
		return merkle.Digest{}, false
	}

	childNames := c.children(name)
	if "" != name && len(childNames) < 2 && !c.hasActiveClaim(name, h) {
		c.log.Criticalf("consistency: node: %q has no claims and %d children", name, len(childNames))
		return merkle.Digest{}, false
	}

	childHashes := make([]merkle.Digest, len(childNames))
	for i, childName := range childNames {
		child, found := c.getNode(childName)
		if !found || child.parent != name || len(childName) <= len(name) {
			c.log.Criticalf("consistency: node: %q has bad child: %q", name, childName)
			return merkle.Digest{}, false
		}
		digest, ok := c.verifyNode(rule, childName, h)
		if !ok {
			return merkle.Digest{}, false
		}
		childHashes[i] = digest
	}

	digest := c.hashNode(rule, name, childNames, childHashes, h)
	if digest != node.hash {
		c.log.Criticalf("consistency: node: %q computed: %s  stored: %s", name, digest, node.hash)
		return digest, false
	}
	return digest, true
}

// ValidateDb - confirm the trie is at the height and root the chain expects
func (c *Cache) ValidateDb(height int32, root merkle.Digest) error {
	if nil != c.halted {
		return c.halted
	}
	if c.nextHeight-1 != height {
		c.log.Errorf("validate: trie height: %d  chain height: %d", c.nextHeight-1, height)
		return fault.HeightMismatch
	}
	stored, err := c.GetMerkleHash()
	if nil != err {
		return err
	}
	if stored != root {
		c.log.Errorf("validate: trie root: %s  chain root: %s", stored, root)
		return fault.RootHashMismatch
	}
	return nil
}
