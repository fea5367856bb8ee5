// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"sort"

	"github.com/bitmark-inc/claimtrie/normalization"
)

// HashRule - how node hashes are computed
type HashRule byte

// hash rules in activation order
const (
	HashBase      HashRule = iota // per character trie, controlling claim only
	HashAllClaims                 // merkle roots of children and all active claims
	HashClaimInfo                 // as all claims with claim details in each leaf
)

// String - name of the rule for logging
func (r HashRule) String() string {
	switch r {
	case HashBase:
		return "base"
	case HashAllClaims:
		return "all claims"
	case HashClaimInfo:
		return "claim info"
	default:
		return "unknown"
	}
}

// names of the overlays reported by ActiveRules
const (
	RuleExtendedExpiration = "extended expiration"
	RuleNormalizedNames    = "normalized names"
	RuleAllClaimsInMerkle  = "all claims in merkle"
	RuleClaimInfoInMerkle  = "claim info in merkle"
	RuleRemovalWorkaround  = "removal workaround"
)

// overlay - a rule change that takes effect at a block height
type overlay interface {
	Name() string
	activeAt(height int32) bool
}

type expirationFork struct {
	height   int32
	original int32
	extended int32
}

func (f *expirationFork) Name() string { return RuleExtendedExpiration }

func (f *expirationFork) activeAt(height int32) bool {
	return height >= f.height
}

// lifetime of an entry added to the block under construction
func (f *expirationFork) duration(nextHeight int32) int32 {
	if f.activeAt(nextHeight) {
		return f.extended
	}
	return f.original
}

func (f *expirationFork) difference() int32 {
	return f.extended - f.original
}

type normalizationFork struct {
	height     int32
	normalizer *normalization.Normalizer
}

func (f *normalizationFork) Name() string { return RuleNormalizedNames }

// the trie committed at the fork block is the first with normalized names
func (f *normalizationFork) activeAt(height int32) bool {
	return height >= f.height
}

// node name for a name used while building block nextHeight
//
// the fork block itself re-keys existing entries when it is
// incremented, so only later blocks normalize as names arrive
func (f *normalizationFork) adjust(name string, nextHeight int32) string {
	if nextHeight > f.height {
		return f.normalizer.Normalize(name)
	}
	return name
}

type hashFork struct {
	name   string
	height int32
	rule   HashRule
	next   *hashFork
}

func (f *hashFork) Name() string { return f.name }

func (f *hashFork) activeAt(height int32) bool {
	return height >= f.height && (nil == f.next || !f.next.activeAt(height))
}

type removalWorkaround struct {
	min int32
	max int32
}

func (w *removalWorkaround) Name() string { return RuleRemovalWorkaround }

// half open window, disabled by a negative bound
func (w *removalWorkaround) activeAt(height int32) bool {
	return w.min >= 0 && w.max >= 0 && height >= w.min && height < w.max
}

// the overlays of one cache
type forks struct {
	expiration    expirationFork
	normalization normalizationFork
	allClaims     hashFork
	claimInfo     hashFork
	workaround    removalWorkaround
	overlays      []overlay
}

func newForks(configuration Configuration) *forks {
	f := &forks{
		expiration: expirationFork{
			height:   configuration.ExtendedClaimExpirationForkHeight,
			original: configuration.OriginalClaimExpirationTime,
			extended: configuration.ExtendedClaimExpirationTime,
		},
		normalization: normalizationFork{
			height:     configuration.NormalizedNameForkHeight,
			normalizer: normalization.New(),
		},
		claimInfo: hashFork{
			name:   RuleClaimInfoInMerkle,
			height: configuration.ClaimInfoInMerkleForkHeight,
			rule:   HashClaimInfo,
		},
		workaround: removalWorkaround{
			min: configuration.MinRemovalWorkaroundHeight,
			max: configuration.MaxRemovalWorkaroundHeight,
		},
	}
	f.allClaims = hashFork{
		name:   RuleAllClaimsInMerkle,
		height: configuration.AllClaimsInMerkleForkHeight,
		rule:   HashAllClaims,
		next:   &f.claimInfo,
	}

	f.overlays = []overlay{&f.expiration, &f.normalization, &f.allClaims, &f.claimInfo, &f.workaround}
	return f
}

// hash rule for the trie committed at block height
func (f *forks) hashRule(height int32) HashRule {
	switch {
	case f.claimInfo.activeAt(height):
		return HashClaimInfo
	case f.allClaims.activeAt(height):
		return HashAllClaims
	default:
		return HashBase
	}
}

// names of overlays in effect at a height, sorted
func (f *forks) active(height int32) []string {
	names := make([]string, 0, len(f.overlays))
	for _, o := range f.overlays {
		if o.activeAt(height) {
			names = append(names, o.Name())
		}
	}
	sort.Strings(names)
	return names
}
