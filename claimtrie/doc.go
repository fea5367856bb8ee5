// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package claimtrie - the name claim trie of a blockchain
//
// claims compete for names; the claim with the largest effective
// amount (its own amount plus its active supports) controls the name.
// New claims and supports on a contested name wait for a delay that
// grows with the time since the name last changed hands.
//
// the cache holds the block under construction in one storage
// transaction:
//
//   c.AddClaim(...), c.AddSupport(...), c.RemoveClaim(...) ...
//   c.IncrementBlock()     // decide takeovers, move to the next block
//   c.Flush()              // commit
//
// a block is undone in reverse:
//
//   c.DecrementBlock()
//   c.RemoveClaim(...) / c.RestoreClaim(removed) ...
//   c.FinalizeDecrement()
//
// the merkle root of the trie commits to every controlling claim (or
// every active claim after the all claims fork) and is checked by
// other nodes; GetProofForName produces a path from a claim to it.
package claimtrie
