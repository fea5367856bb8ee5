// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"sort"
	"strings"

	"github.com/bitmark-inc/claimtrie/merkle"
	"github.com/bitmark-inc/claimtrie/storage"
	"github.com/bitmark-inc/logger"
)

// the trie is a radix tree over node names: a node exists for every
// name with a claim in force plus the branch points between them,
// the root "" always exists

type trieNode struct {
	parent string
	hash   merkle.Digest
}

func (c *Cache) getNode(name string) (trieNode, bool) {
	buffer := c.reader().Get(storage.Pool.Nodes, []byte(name))
	if nil == buffer {
		return trieNode{}, false
	}
	parent, rest := splitNodeKey(buffer)
	if merkle.DigestLength != len(rest) {
		logger.Panicf("trie node: %q has hash length: %d", name, len(rest))
	}
	node := trieNode{
		parent: parent,
	}
	copy(node.hash[:], rest)
	return node, true
}

func (c *Cache) putNode(name string, node trieNode) {
	value := append(nodeKey(node.parent), node.hash[:]...)
	c.trx().Put(storage.Pool.Nodes, []byte(name), value)
}

func (c *Cache) deleteNode(name string) {
	c.trx().Delete(storage.Pool.Nodes, []byte(name))
}

// change the parent of a node keeping its hash
func (c *Cache) setParent(name string, parent string) {
	node, found := c.getNode(name)
	if !found {
		logger.Panicf("trie node: %q missing", name)
	}
	node.parent = parent
	c.putNode(name, node)
}

func (c *Cache) link(parent string, child string) {
	c.trx().Put(storage.Pool.Children, append(nodeKey(parent), child...), nil)
}

func (c *Cache) unlink(parent string, child string) {
	c.trx().Delete(storage.Pool.Children, append(nodeKey(parent), child...))
}

// child names of a node in byte order
func (c *Cache) children(name string) []string {
	names := make([]string, 0)
	prefix := nodeKey(name)
	c.reader().Iterate(storage.Pool.Children, prefix, func(key []byte, value []byte) bool {
		names = append(names, string(key[len(prefix):]))
		return true
	})
	return names
}

// the only child of parent that continues with the byte next
func (c *Cache) childStartingWith(parent string, next byte) (string, bool) {
	prefix := append(nodeKey(parent), parent...)
	prefix = append(prefix, next)
	child := ""
	found := false
	c.reader().Iterate(storage.Pool.Children, prefix, func(key []byte, value []byte) bool {
		_, rest := splitNodeKey(key)
		child = string(rest)
		found = true
		return false
	})
	return child, found
}

// stored hashes of the children of a node in child order
func (c *Cache) childHashes(name string) []merkle.Digest {
	childNames := c.children(name)
	hashes := make([]merkle.Digest, len(childNames))
	for i, childName := range childNames {
		child, _ := c.getNode(childName)
		hashes[i] = child.hash
	}
	return hashes
}

func (c *Cache) ensureRoot() {
	if _, found := c.getNode(""); !found {
		c.putNode("", trieNode{parent: "", hash: merkle.One})
	}
}

func commonPrefixLength(a string, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n += 1
	}
	return n
}

// add a node for name below the deepest node whose name is a
// prefix of it, splitting an edge when needed
//
// returns the nodes whose hash changed
func (c *Cache) insertNode(name string) []string {
	parent := ""
	for {
		child, found := c.childStartingWith(parent, name[len(parent)])
		switch {
		case !found:
			c.putNode(name, trieNode{parent: parent})
			c.link(parent, name)
			return []string{name}

		case child == name:
			return []string{name}

		case strings.HasPrefix(name, child):
			parent = child
			continue

		case strings.HasPrefix(child, name):
			c.unlink(parent, child)
			c.putNode(name, trieNode{parent: parent})
			c.link(parent, name)
			c.link(name, child)
			c.setParent(child, name)
			return []string{name}
		}

		// diverge below parent: a new branch node takes both
		branch := name[:commonPrefixLength(name, child)]
		c.unlink(parent, child)
		c.putNode(branch, trieNode{parent: parent})
		c.link(parent, branch)
		c.link(branch, child)
		c.setParent(child, branch)
		c.putNode(name, trieNode{parent: branch})
		c.link(branch, name)
		return []string{name, branch}
	}
}

// bring the node structure into line with the names marked since the
// last hash, h is the block the trie represents
//
// returns the surviving nodes that need a new hash, their ancestors
// are not included
func (c *Cache) updateStructure(h int32) map[string]struct{} {
	touched := make(map[string]struct{})

	round := make([]string, 0, len(c.working.unhashed))
	for name := range c.working.unhashed {
		if "" != name {
			round = append(round, name)
		}
	}

	for 0 != len(round) {
		// deepest first so a parent sees the final state of its children
		sort.Slice(round, func(i int, j int) bool {
			if len(round[i]) != len(round[j]) {
				return len(round[i]) > len(round[j])
			}
			return round[i] < round[j]
		})

		next := make(map[string]struct{})
		for _, name := range round {
			node, exists := c.getNode(name)
			active := c.hasActiveClaim(name, h)

			switch {
			case active && !exists:
				for _, n := range c.insertNode(name) {
					touched[n] = struct{}{}
				}

			case !exists:

			case active:
				touched[name] = struct{}{}

			default:
				children := c.children(name)
				if len(children) > 1 {
					touched[name] = struct{}{}
					continue
				}
				c.unlink(node.parent, name)
				for _, child := range children {
					c.unlink(name, child)
					c.link(node.parent, child)
					c.setParent(child, node.parent)
				}
				c.deleteNode(name)
				delete(touched, name)
				touched[node.parent] = struct{}{}

				// a parent without claims may now be a needless branch
				if "" != node.parent {
					next[node.parent] = struct{}{}
				}
			}
		}

		round = round[:0]
		for name := range next {
			round = append(round, name)
		}
	}
	return touched
}

// every node name in the trie
func (c *Cache) allNodes() map[string]struct{} {
	names := make(map[string]struct{})
	c.reader().Iterate(storage.Pool.Nodes, nil, func(key []byte, value []byte) bool {
		names[string(key)] = struct{}{}
		return true
	})
	return names
}

// recompute the hashes of the given nodes and all their ancestors,
// deepest first
func (c *Cache) rehash(rule HashRule, h int32, names map[string]struct{}) {
	pending := make(map[string]struct{}, len(names))
	for name := range names {
		for {
			if _, done := pending[name]; done {
				break
			}
			node, found := c.getNode(name)
			if !found {
				break
			}
			pending[name] = struct{}{}
			if "" == name {
				break
			}
			name = node.parent
		}
	}

	ordered := make([]string, 0, len(pending))
	for name := range pending {
		ordered = append(ordered, name)
	}
	sort.Slice(ordered, func(i int, j int) bool {
		if len(ordered[i]) != len(ordered[j]) {
			return len(ordered[i]) > len(ordered[j])
		}
		return ordered[i] < ordered[j]
	})

	for _, name := range ordered {
		node, _ := c.getNode(name)
		node.hash = c.computeNodeHash(rule, name, h)
		c.putNode(name, node)
	}
	c.log.Debugf("rehashed: %d nodes  rule: %s", len(ordered), rule)
}
