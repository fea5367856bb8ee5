// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

// Step - one level of an inclusion path
//
// Left is true when the sibling digest is hashed on the left
type Step struct {
	Left   bool   `json:"left"`
	Digest Digest `json:"digest"`
}

// FullMerkleTree - compute the complete merkle tree from a set of leaf digests
//
// structure is:
//   1. N * leaf digests
//   2. level 1..m digests
//   3. merkle root digest
//
// an odd digest at the end of a level is paired with itself
func FullMerkleTree(leaves []Digest) []Digest {

	// compute length of leaves + all tree levels including root
	leafCount := len(leaves)

	totalLength := 1 // all leaves + space for the final root
	for n := leafCount; n > 1; n = (n + 1) / 2 {
		totalLength += n
	}

	// add initial leaves
	tree := make([]Digest, totalLength)
	copy(tree[:], leaves)

	n := leafCount
	j := 0
	for workLength := leafCount; workLength > 1; workLength = (workLength + 1) / 2 {
		for i := 0; i < workLength; i += 2 {
			k := j + 1
			if i+1 == workLength {
				k = j // compensate for odd number
			}
			tree[n] = Pair(tree[j], tree[k])
			n += 1
			j = k + 1
		}
	}
	return tree
}

// Root - merkle root of a list of digests
//
// a single digest is its own root, no digests gives the zero digest
func Root(leaves []Digest) Digest {
	if 0 == len(leaves) {
		return Digest{}
	}
	tree := FullMerkleTree(leaves)
	return tree[len(tree)-1]
}

// Path - sibling digests from the leaf at index up to the root
//
// returns nil if index is out of range
func Path(leaves []Digest, index int) []Step {
	if index < 0 || index >= len(leaves) {
		return nil
	}

	tree := FullMerkleTree(leaves)
	path := make([]Step, 0)

	start := 0
	for width := len(leaves); width > 1; width = (width + 1) / 2 {
		sibling := index ^ 1
		if sibling >= width {
			sibling = index
		}
		path = append(path, Step{
			Left:   1 == index&1,
			Digest: tree[start+sibling],
		})
		start += width
		index /= 2
	}
	return path
}

// PathRoot - apply an inclusion path to a leaf to obtain the root
func PathRoot(leaf Digest, path []Step) Digest {
	digest := leaf
	for _, step := range path {
		if step.Left {
			digest = Pair(step.Digest, digest)
		} else {
			digest = Pair(digest, step.Digest)
		}
	}
	return digest
}
