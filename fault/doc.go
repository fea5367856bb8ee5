// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - claim trie error values
//
// Each error is a single typed string constant so callers compare
// with == and never match on message text.  The type gives the class:
//
//   ExistsError     an outpoint is already in use
//   NotFoundError   no such name, claim, support or controller
//   InvalidError    bad arguments, configuration or stored data
//   ProcessError    the cache was set up or used incorrectly
//   ConsensusError  the trie no longer agrees with the chain
//
// IsFatal reports the Process and Consensus classes, after which
// block processing must stop.
package fault
