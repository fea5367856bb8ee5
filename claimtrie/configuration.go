// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"github.com/bitmark-inc/claimtrie/chain"
	"github.com/bitmark-inc/claimtrie/fault"
)

// default values for a standalone trie
const (
	DefaultProportionalDelayFactor = 32
	DefaultMaxTakeoverDelay        = 4032
	DefaultCacheBytes              = 32 * 1024 * 1024
)

// Configuration - construction parameters of a cache
//
// Height is the block under construction when the store is empty;
// a store that already holds a trie keeps its own height
type Configuration struct {
	DataDirectory                     string
	CacheBytes                        int
	Height                            int32
	NormalizedNameForkHeight          int32
	MinRemovalWorkaroundHeight        int32
	MaxRemovalWorkaroundHeight        int32
	OriginalClaimExpirationTime       int32
	ExtendedClaimExpirationTime       int32
	ExtendedClaimExpirationForkHeight int32
	AllClaimsInMerkleForkHeight       int32
	ClaimInfoInMerkleForkHeight       int32
	ProportionalDelayFactor           int32
	MaxTakeoverDelay                  int32
}

// DefaultConfiguration - every fork active from height one, no removal workaround
func DefaultConfiguration(dataDirectory string) Configuration {
	return Configuration{
		DataDirectory:                     dataDirectory,
		CacheBytes:                        DefaultCacheBytes,
		Height:                            0,
		NormalizedNameForkHeight:          1,
		MinRemovalWorkaroundHeight:        1,
		MaxRemovalWorkaroundHeight:        -1,
		OriginalClaimExpirationTime:       262974,
		ExtendedClaimExpirationTime:       2102400,
		ExtendedClaimExpirationForkHeight: 1,
		AllClaimsInMerkleForkHeight:       1,
		ClaimInfoInMerkleForkHeight:       1,
		ProportionalDelayFactor:           DefaultProportionalDelayFactor,
		MaxTakeoverDelay:                  DefaultMaxTakeoverDelay,
	}
}

// ChainConfiguration - configuration from the parameters of a named chain
func ChainConfiguration(name string, dataDirectory string) (Configuration, error) {
	p, ok := chain.Get(name)
	if !ok {
		return Configuration{}, fault.InvalidChain
	}
	return Configuration{
		DataDirectory:                     dataDirectory,
		CacheBytes:                        DefaultCacheBytes,
		Height:                            0,
		NormalizedNameForkHeight:          p.NormalizedNameForkHeight,
		MinRemovalWorkaroundHeight:        p.MinRemovalWorkaroundHeight,
		MaxRemovalWorkaroundHeight:        p.MaxRemovalWorkaroundHeight,
		OriginalClaimExpirationTime:       p.OriginalClaimExpirationTime,
		ExtendedClaimExpirationTime:       p.ExtendedClaimExpirationTime,
		ExtendedClaimExpirationForkHeight: p.ExtendedClaimExpirationForkHeight,
		AllClaimsInMerkleForkHeight:       p.AllClaimsInMerkleForkHeight,
		ClaimInfoInMerkleForkHeight:       p.ClaimInfoInMerkleForkHeight,
		ProportionalDelayFactor:           p.ProportionalDelayFactor,
		MaxTakeoverDelay:                  p.MaxTakeoverDelay,
	}, nil
}

// Validate - reject contradictory settings
func (c Configuration) Validate() error {
	switch {
	case c.Height < 0:
		return fault.InvalidHeight
	case c.CacheBytes < 0:
		return fault.InvalidConfiguration
	case c.ProportionalDelayFactor <= 0:
		return fault.InvalidDelayFactor
	case c.MaxTakeoverDelay < 0:
		return fault.InvalidConfiguration
	case c.OriginalClaimExpirationTime <= 0:
		return fault.InvalidExpiration
	case c.ExtendedClaimExpirationTime < c.OriginalClaimExpirationTime:
		return fault.InvalidExpiration
	case c.ExtendedClaimExpirationForkHeight < 0,
		c.NormalizedNameForkHeight < 0,
		c.AllClaimsInMerkleForkHeight < 0,
		c.ClaimInfoInMerkleForkHeight < 0:
		return fault.InvalidHeight
	case c.ClaimInfoInMerkleForkHeight < c.AllClaimsInMerkleForkHeight:
		return fault.InvalidForkOrder
	case c.MinRemovalWorkaroundHeight >= 0 && c.MaxRemovalWorkaroundHeight >= 0 &&
		c.MaxRemovalWorkaroundHeight < c.MinRemovalWorkaroundHeight:
		return fault.InvalidRemovalWorkaround
	}
	return nil
}
