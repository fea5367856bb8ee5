// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"sort"

	"github.com/btcsuite/btcd/wire"

	"github.com/bitmark-inc/claimtrie/fault"
	"github.com/bitmark-inc/claimtrie/merkle"
)

// ProofChild - a sibling branch under the base rule
type ProofChild struct {
	Character byte          `json:"character"`
	Hash      merkle.Digest `json:"hash"`
}

// ProofNode - one character depth of the path under the base rule
//
// the value of the proven node itself is not stored, it is derived
// from the proof's outpoint and takeover height
type ProofNode struct {
	Children  []ProofChild  `json:"children"`
	HasValue  bool          `json:"hasValue"`
	ValueHash merkle.Digest `json:"valueHash"`
}

// Proof - path from the root to the value of one claim
//
// Nodes is filled for the base rule, Pairs (leaf to root) for the
// merkle rules
type Proof struct {
	Rule               HashRule      `json:"rule"`
	NodeName           string        `json:"nodeName"`
	OutPoint           wire.OutPoint `json:"outPoint"`
	ClaimID            ClaimID       `json:"claimId"`
	LastTakeoverHeight int32         `json:"lastTakeoverHeight"`
	EffectiveAmount    int64         `json:"effectiveAmount"`
	ActivationHeight   int32         `json:"activationHeight"`
	Nodes              []ProofNode   `json:"nodes,omitempty"`
	Pairs              []merkle.Step `json:"pairs,omitempty"`
}

// GetProofForName - proof that a claim is part of the current root
//
// a zero claimID selects the controlling claim; under the base rule
// only the controlling claim can be proven
func (c *Cache) GetProofForName(name string, claimID ClaimID) (*Proof, error) {
	if _, err := c.GetMerkleHash(); nil != err {
		return nil, err
	}
	h := c.nextHeight - 1
	nodeName := c.adjustName(name)

	if _, found := c.getNode(nodeName); !found || "" == nodeName {
		return nil, fault.NameNotFound
	}
	takeoverHeight := c.takeoverHeight(nodeName)
	if 0 == takeoverHeight {
		return nil, fault.NoControllingClaim
	}

	claims := c.activeClaims(nodeName, h)
	if 0 == len(claims) {
		return nil, fault.NoControllingClaim
	}
	index := 0
	if (ClaimID{}) != claimID {
		index = -1
		for i, claim := range claims {
			if claim.Claim.ClaimID == claimID {
				index = i
				break
			}
		}
	}
	rule := c.forks.hashRule(h)
	if index < 0 || (HashBase == rule && 0 != index) {
		return nil, fault.ClaimNotFound
	}

	claim := claims[index]
	proof := &Proof{
		Rule:               rule,
		NodeName:           nodeName,
		OutPoint:           claim.Claim.OutPoint,
		ClaimID:            claim.Claim.ClaimID,
		LastTakeoverHeight: takeoverHeight,
		EffectiveAmount:    claim.EffectiveAmount,
		ActivationHeight:   claim.Claim.ActivationHeight,
	}

	path := c.pathTo(nodeName)
	if HashBase == rule {
		proof.Nodes = c.baseProofNodes(nodeName, path, h)
	} else {
		proof.Pairs = c.merkleProofPairs(rule, path, claims, index, takeoverHeight, h)
	}
	return proof, nil
}

// node names from the root down to name
func (c *Cache) pathTo(name string) []string {
	path := []string{name}
	for "" != name {
		node, _ := c.getNode(name)
		name = node.parent
		path = append(path, name)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (c *Cache) baseProofNodes(nodeName string, path []string, h int32) []ProofNode {
	nodes := make([]ProofNode, len(nodeName)+1)
	for i, name := range path {
		next := ""
		if i+1 < len(path) {
			next = path[i+1]
		}
		position := len(name)

		node := ProofNode{
			Children: make([]ProofChild, 0),
		}
		for _, childName := range c.children(name) {
			if childName == next {
				continue
			}
			child, _ := c.getNode(childName)
			node.Children = append(node.Children, ProofChild{
				Character: childName[position],
				Hash:      completeHash(child.hash, childName, position),
			})
		}

		if name != nodeName {
			if t := c.takeoverHeight(name); t > 0 {
				if best, found := c.bestClaim(name, h); found {
					node.HasValue = true
					node.ValueHash = ValueHash(best.Claim.OutPoint, t)
				}
			}
		}
		nodes[position] = node
	}

	// depths between nodes have no siblings
	for i := range nodes {
		if nil == nodes[i].Children {
			nodes[i].Children = make([]ProofChild, 0)
		}
	}
	return nodes
}

func (c *Cache) merkleProofPairs(rule HashRule, path []string, claims []ClaimAndSupports, index int, takeoverHeight int32, h int32) []merkle.Step {
	nodeName := path[len(path)-1]

	pairs := merkle.Path(claimLeaves(rule, claims, takeoverHeight), index)
	pairs = append(pairs, merkle.Step{
		Left:   true,
		Digest: childrenSide(c.childHashes(nodeName)),
	})

	for i := len(path) - 2; i >= 0; i -= 1 {
		name := path[i]
		childNames := c.children(name)
		position := sort.SearchStrings(childNames, path[i+1])
		pairs = append(pairs, merkle.Path(c.childHashes(name), position)...)

		t := c.takeoverHeight(name)
		leaves := []merkle.Digest{}
		if t > 0 {
			leaves = claimLeaves(rule, c.activeClaims(name, h), t)
		}
		pairs = append(pairs, merkle.Step{
			Left:   false,
			Digest: claimsSide(leaves, t),
		})
	}
	return pairs
}

// leaf - digest of the proven claim
func (p *Proof) leaf() merkle.Digest {
	if HashClaimInfo == p.Rule {
		return ClaimInfoHash(p.OutPoint, p.LastTakeoverHeight, p.ClaimID, p.EffectiveAmount, p.ActivationHeight)
	}
	return ValueHash(p.OutPoint, p.LastTakeoverHeight)
}

// Root - the trie root the proof leads to
func (p *Proof) Root() (merkle.Digest, error) {
	switch p.Rule {
	case HashBase:
		if len(p.Nodes) != len(p.NodeName)+1 {
			return merkle.Digest{}, fault.InvalidProof
		}
		value := p.leaf()
		digest := merkle.Digest{}
		for depth := len(p.Nodes) - 1; depth >= 0; depth -= 1 {
			node := p.Nodes[depth]
			children := make([]ProofChild, len(node.Children), len(node.Children)+1)
			copy(children, node.Children)
			if depth < len(p.NodeName) {
				children = append(children, ProofChild{
					Character: p.NodeName[depth],
					Hash:      digest,
				})
			}
			sort.SliceStable(children, func(i int, j int) bool {
				return children[i].Character < children[j].Character
			})

			buffer := make([]byte, 0, (len(children)+1)*(1+merkle.DigestLength))
			for _, child := range children {
				buffer = append(buffer, child.Character)
				buffer = append(buffer, child.Hash[:]...)
			}
			switch {
			case depth == len(p.NodeName):
				buffer = append(buffer, value[:]...)
			case node.HasValue:
				buffer = append(buffer, node.ValueHash[:]...)
			}

			if 0 == len(buffer) {
				digest = merkle.One
			} else {
				digest = merkle.NewDigest(buffer)
			}
		}
		return digest, nil

	case HashAllClaims, HashClaimInfo:
		return merkle.PathRoot(p.leaf(), p.Pairs), nil

	default:
		return merkle.Digest{}, fault.UnsupportedHashRule
	}
}

// Verify - true if the proof leads to root
func (p *Proof) Verify(root merkle.Digest) bool {
	computed, err := p.Root()
	if nil != err {
		return false
	}
	return computed == root
}
