// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// claimtrie-cli - query and verify a claim trie database
//
// the data directory, chain and logging are read from a Lua
// configuration file (see configuration.GetConfiguration)
package main
