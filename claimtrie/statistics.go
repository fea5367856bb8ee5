// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"github.com/bitmark-inc/claimtrie/counter"
)

// Statistics - running totals since the cache was created
type Statistics struct {
	Height          counter.Counter // next height as of the last flush
	ClaimsAdded     counter.Counter
	ClaimsRemoved   counter.Counter
	SupportsAdded   counter.Counter
	SupportsRemoved counter.Counter
	Takeovers       counter.Counter
	Increments      counter.Counter
	Decrements      counter.Counter
	Flushes         counter.Counter
	Aborts          counter.Counter
}

// Statistics - counters that may be read from any goroutine
func (c *Cache) Statistics() *Statistics {
	return &c.statistics
}
