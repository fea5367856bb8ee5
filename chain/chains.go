// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

// names of all chains
const (
	Main    = "main"
	Test    = "test"
	Regtest = "regtest"
)

// Parameters - consensus heights and durations of one chain
type Parameters struct {
	Name                              string
	OriginalClaimExpirationTime       int32
	ExtendedClaimExpirationTime       int32
	ExtendedClaimExpirationForkHeight int32
	NormalizedNameForkHeight          int32
	MinRemovalWorkaroundHeight        int32
	MaxRemovalWorkaroundHeight        int32
	AllClaimsInMerkleForkHeight       int32
	ClaimInfoInMerkleForkHeight       int32
	ProportionalDelayFactor           int32
	MaxTakeoverDelay                  int32
}

// common to all chains
const (
	proportionalDelayFactor = 32
	maxTakeoverDelay        = 4032
)

var chains = map[string]Parameters{
	Main: {
		Name:                              Main,
		OriginalClaimExpirationTime:       262974,
		ExtendedClaimExpirationTime:       2102400,
		ExtendedClaimExpirationForkHeight: 400155,
		NormalizedNameForkHeight:          539940,
		MinRemovalWorkaroundHeight:        297706,
		MaxRemovalWorkaroundHeight:        658300,
		AllClaimsInMerkleForkHeight:       658310,
		ClaimInfoInMerkleForkHeight:       900000,
		ProportionalDelayFactor:           proportionalDelayFactor,
		MaxTakeoverDelay:                  maxTakeoverDelay,
	},
	Test: {
		Name:                              Test,
		OriginalClaimExpirationTime:       262974,
		ExtendedClaimExpirationTime:       2102400,
		ExtendedClaimExpirationForkHeight: 1,
		NormalizedNameForkHeight:          1,
		MinRemovalWorkaroundHeight:        99,
		MaxRemovalWorkaroundHeight:        100,
		AllClaimsInMerkleForkHeight:       110,
		ClaimInfoInMerkleForkHeight:       1500000,
		ProportionalDelayFactor:           proportionalDelayFactor,
		MaxTakeoverDelay:                  maxTakeoverDelay,
	},
	Regtest: {
		Name:                              Regtest,
		OriginalClaimExpirationTime:       500,
		ExtendedClaimExpirationTime:       600,
		ExtendedClaimExpirationForkHeight: 800,
		NormalizedNameForkHeight:          250,
		MinRemovalWorkaroundHeight:        -1,
		MaxRemovalWorkaroundHeight:        -1,
		AllClaimsInMerkleForkHeight:       350,
		ClaimInfoInMerkleForkHeight:       1350,
		ProportionalDelayFactor:           proportionalDelayFactor,
		MaxTakeoverDelay:                  maxTakeoverDelay,
	},
}

// Valid - validate a chain name
func Valid(name string) bool {
	switch name {
	case Main, Test, Regtest:
		return true
	default:
		return false
	}
}

// Get - parameters of a named chain
//
// second value is false for an unknown chain
func Get(name string) (Parameters, bool) {
	p, ok := chains[name]
	return p, ok
}
