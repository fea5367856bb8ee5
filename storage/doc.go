// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - persistent pools for the claim trie
//
// a single leveldb database holds every pool; each pool is a one
// byte key prefix and integers in keys are big endian so that
// iteration follows height order
//
//   C - claims:            outpoint                     -> packed claim
//   S - supports:          outpoint                     -> packed support
//   c - claims by node:    nodeKey ++ outpoint          -> nil
//   s - supports by node:  nodeKey ++ outpoint          -> nil
//   I - claims by id:      claim id ++ outpoint         -> nil
//   A - activations:       height ++ kind ++ outpoint   -> nil
//   E - expirations:       height ++ kind ++ outpoint   -> nil
//   T - takeovers:         nodeKey ++ height            -> claim id | nil
//   t - takeover heights:  height ++ name               -> nil
//   N - trie nodes:        name                         -> nodeKey(parent) ++ hash
//   K - trie children:     nodeKey(parent) ++ name      -> nil
//   H - state:             fixed key                    -> value
//
// nodeKey is the Varint64 length of a name followed by the name
//
// all writes for one block go through a single leveldb transaction
// which is either committed or discarded as a whole
package storage
