// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie_test

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/bitmark-inc/claimtrie/claimtrie"
	"github.com/bitmark-inc/claimtrie/merkle"
	"github.com/bitmark-inc/claimtrie/storage"
)

// names chosen to share prefixes and to collide under normalization
var propertyNames = []string{"a", "ab", "abc", "abd", "Ab", "AB", "b", "tes", "test", "testing"}

// forks close to the start so that a short run crosses all of them
func propertyConfiguration() claimtrie.Configuration {
	configuration := testConfiguration()
	configuration.ProportionalDelayFactor = 1
	configuration.NormalizedNameForkHeight = startHeight + 3
	configuration.AllClaimsInMerkleForkHeight = startHeight + 2
	configuration.ClaimInfoInMerkleForkHeight = startHeight + 5
	configuration.MinRemovalWorkaroundHeight = startHeight
	configuration.MaxRemovalWorkaroundHeight = startHeight + 4
	return configuration
}

type liveEntry struct {
	name     string
	outPoint wire.OutPoint
	claimID  claimtrie.ClaimID
	support  bool
}

// what one block did, enough to undo it
type blockChanges struct {
	added           []liveEntry
	removedClaims   []claimtrie.RemovedClaim
	removedSupports []claimtrie.RemovedSupport
	root            merkle.Digest // before the block
	state           trieState     // before the block
}

type entryState struct {
	active     bool
	queued     bool
	activation int32
}

type takeoverState struct {
	found   bool
	claimID claimtrie.ClaimID
	height  int32
}

// what an undo must bring back beyond the root
type trieState struct {
	entries   map[wire.OutPoint]entryState
	takeovers map[string]takeoverState
}

func stateOf(c *claimtrie.Cache, live []liveEntry) trieState {
	state := trieState{
		entries:   make(map[wire.OutPoint]entryState),
		takeovers: make(map[string]takeoverState),
	}
	for _, e := range live {
		s := entryState{}
		if e.support {
			s.active = c.HaveSupport(e.name, e.outPoint)
			s.activation, s.queued = c.HaveSupportInQueue(e.name, e.outPoint)
		} else {
			s.active = c.HaveClaim(e.name, e.outPoint)
			s.activation, s.queued = c.HaveClaimInQueue(e.name, e.outPoint)
		}
		state.entries[e.outPoint] = s
	}
	for _, name := range propertyNames {
		s := takeoverState{}
		s.claimID, s.height, s.found = c.GetLastTakeoverForName(name)
		state.takeovers[name] = s
	}
	return state
}

type propertyCache struct {
	db *storage.Database
	c  *claimtrie.Cache
}

func openPropertyCache(t require.TestingT) propertyCache {
	db, err := storage.OpenMemory()
	require.NoError(t, err, "open memory")
	c, err := claimtrie.New(propertyConfiguration(), db)
	require.NoError(t, err, "new cache")
	return propertyCache{db: db, c: c}
}

func (p propertyCache) close() {
	p.c.Close()
	p.db.Close()
}

func rootOf(t require.TestingT, c *claimtrie.Cache) merkle.Digest {
	root, err := c.GetMerkleHash()
	require.NoError(t, err, "merkle hash")
	return root
}

// apply random blocks to two caches, one of which hashes after every
// operation, then undo every block and expect each earlier root back
func TestApplyAndUndoBlocks(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		first := openPropertyCache(rt)
		defer first.close()
		second := openPropertyCache(rt)
		defer second.close()
		caches := []*claimtrie.Cache{first.c, second.c}

		live := make([]liveEntry, 0)
		blocks := make([]blockChanges, 0)
		n := uint32(0)

		blockCount := rapid.IntRange(1, 8).Draw(rt, "blocks")
		for b := 0; b < blockCount; b += 1 {
			changes := blockChanges{
				root:  rootOf(rt, first.c),
				state: stateOf(first.c, live),
			}
			h := first.c.NextHeight()

			opCount := rapid.IntRange(0, 5).Draw(rt, "operations")
			for i := 0; i < opCount; i += 1 {
				switch rapid.IntRange(0, 3).Draw(rt, "kind") {
				case 0:
					n += 1
					e := liveEntry{
						name:     rapid.SampledFrom(propertyNames).Draw(rt, "name"),
						outPoint: outPoint(n),
						claimID:  claimID(n),
					}
					amount := rapid.Int64Range(1, 50).Draw(rt, "amount")
					for _, c := range caches {
						require.NoError(rt, c.AddClaim(e.name, e.outPoint, e.claimID, amount, h), "add claim")
					}
					changes.added = append(changes.added, e)

				case 1:
					n += 1
					e := liveEntry{
						name:     rapid.SampledFrom(propertyNames).Draw(rt, "name"),
						outPoint: outPoint(n),
						claimID:  claimID(n + 10000), // unmatched unless replaced below
						support:  true,
					}
					for _, l := range live {
						if !l.support && rapid.Bool().Draw(rt, "target") {
							e.name = l.name
							e.claimID = l.claimID
							break
						}
					}
					amount := rapid.Int64Range(1, 50).Draw(rt, "amount")
					for _, c := range caches {
						require.NoError(rt, c.AddSupport(e.name, e.outPoint, e.claimID, amount, h), "add support")
					}
					changes.added = append(changes.added, e)

				case 2, 3:
					if 0 == len(live) {
						continue
					}
					j := rapid.IntRange(0, len(live)-1).Draw(rt, "remove")
					e := live[j]
					live = append(live[:j], live[j+1:]...)
					for k, c := range caches {
						if e.support {
							removed, err := c.RemoveSupport(e.outPoint)
							require.NoError(rt, err, "remove support")
							if 0 == k {
								changes.removedSupports = append(changes.removedSupports, removed)
							}
						} else {
							removed, err := c.RemoveClaim(e.claimID, e.outPoint)
							require.NoError(rt, err, "remove claim")
							if 0 == k {
								changes.removedClaims = append(changes.removedClaims, removed)
							}
						}
					}
				}

				// hashing part way through a block must not change its outcome
				rootOf(rt, second.c)
			}

			for _, c := range caches {
				require.NoError(rt, c.IncrementBlock(), "increment")
				require.NoError(rt, c.Flush(), "flush")
			}
			assert.Equal(rt, rootOf(rt, first.c), rootOf(rt, second.c), "same root at: %d", h)

			live = append(live, changes.added...)
			blocks = append(blocks, changes)
		}

		for _, c := range caches {
			require.NoError(rt, c.CheckConsistency(), "consistency")
		}

		for b := len(blocks) - 1; b >= 0; b -= 1 {
			changes := blocks[b]
			// entries of this block are no longer live once it is undone
			undone := make(map[wire.OutPoint]struct{})
			for _, e := range changes.added {
				undone[e.outPoint] = struct{}{}
			}
			kept := make([]liveEntry, 0, len(live))
			for _, e := range live {
				if _, ok := undone[e.outPoint]; !ok {
					kept = append(kept, e)
				}
			}
			live = kept
			for _, removed := range changes.removedClaims {
				live = append(live, liveEntry{
					name:     removed.Claim.Name,
					outPoint: removed.Claim.OutPoint,
					claimID:  removed.Claim.ClaimID,
				})
			}
			for _, removed := range changes.removedSupports {
				live = append(live, liveEntry{
					name:     removed.Support.Name,
					outPoint: removed.Support.OutPoint,
					claimID:  removed.Support.SupportedClaimID,
					support:  true,
				})
			}
			for _, c := range caches {
				require.NoError(rt, c.DecrementBlock(), "decrement")
				for _, e := range changes.added {
					var err error
					if e.support {
						_, err = c.RemoveSupport(e.outPoint)
					} else {
						_, err = c.RemoveClaim(e.claimID, e.outPoint)
					}
					require.NoError(rt, err, "remove added: %s", e.name)
				}
				for _, removed := range changes.removedClaims {
					require.NoError(rt, c.RestoreClaim(removed), "restore claim")
				}
				for _, removed := range changes.removedSupports {
					require.NoError(rt, c.RestoreSupport(removed), "restore support")
				}
				require.NoError(rt, c.FinalizeDecrement(), "finalize")
				require.NoError(rt, c.Flush(), "flush")
				assert.Equal(rt, changes.root, rootOf(rt, c), "root restored at: %d", c.NextHeight())
				assert.Equal(rt, changes.state, stateOf(c, live), "queues and takeovers restored at: %d", c.NextHeight())
			}
		}

		for _, c := range caches {
			assert.Equal(rt, int32(startHeight), c.NextHeight(), "back at the start")
			assert.Equal(rt, 0, c.GetTotalNamesInTrie(), "empty")
			require.NoError(rt, c.CheckConsistency(), "consistency after undo")
		}
	})
}
