// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/claimtrie/claimtrie"
)

func TestNormalizationBelowFork(t *testing.T) {
	configuration := testConfiguration()
	configuration.NormalizedNameForkHeight = startHeight + 5
	c := newCache(t, configuration)

	require.NoError(t, c.AddClaim("Hello", outPoint(1), claimID(1), 10, startHeight))
	require.NoError(t, c.AddClaim("hello", outPoint(2), claimID(2), 20, startHeight))
	increment(t, c, 1)

	assert.Equal(t, 2, c.GetTotalNamesInTrie(), "separate names")
	upper := c.GetClaimsForName("Hello")
	assert.Equal(t, "Hello", upper.NodeName, "raw node name")
	assert.Equal(t, 1, len(upper.Claims), "one claim each")
	info, found := c.GetInfoForName("Hello")
	require.True(t, found, "info")
	assert.Equal(t, claimID(1), info.ClaimID, "own controller")
	before := merkleHash(t, c)

	// the fork block merges the two names
	increment(t, c, 5)
	assert.Equal(t, int32(startHeight+6), c.NextHeight(), "past the fork")
	assert.Equal(t, 1, c.GetTotalNamesInTrie(), "merged")
	merged := c.GetClaimsForName("HELLO")
	assert.Equal(t, "hello", merged.NodeName, "normalized node name")
	assert.Equal(t, 2, len(merged.Claims), "both claims")
	info, found = c.GetInfoForName("Hello")
	require.True(t, found, "info")
	assert.Equal(t, claimID(2), info.ClaimID, "larger claim controls")
	assert.Equal(t, "Hello", merged.Claims[1].Claim.Name, "raw name kept")
	assert.NoError(t, c.CheckConsistency(), "consistency")

	// undo the fork block and the names split again
	require.NoError(t, c.DecrementBlock(), "decrement")
	require.NoError(t, c.FinalizeDecrement(), "finalize")
	require.NoError(t, c.Flush(), "flush")
	for i := 0; i < 4; i += 1 {
		require.NoError(t, c.DecrementBlock(), "decrement")
		require.NoError(t, c.FinalizeDecrement(), "finalize")
		require.NoError(t, c.Flush(), "flush")
	}
	assert.Equal(t, 2, c.GetTotalNamesInTrie(), "split")
	assert.Equal(t, "Hello", c.GetClaimsForName("Hello").NodeName, "raw again")
	assert.Equal(t, before, merkleHash(t, c), "root restored")
}

func TestNormalizationAboveFork(t *testing.T) {
	configuration := testConfiguration()
	configuration.NormalizedNameForkHeight = startHeight - 10
	c := newCache(t, configuration)

	require.NoError(t, c.AddClaim("Hello", outPoint(1), claimID(1), 10, startHeight))
	require.NoError(t, c.AddClaim("hello", outPoint(2), claimID(2), 20, startHeight))
	increment(t, c, 1)

	assert.Equal(t, 1, c.GetTotalNamesInTrie(), "one entry")
	assert.Equal(t, 2, len(c.GetClaimsForName("hELLO").Claims), "both claims")
	assert.True(t, c.HaveClaim("HELLO", outPoint(1)), "any case finds it")

	// composed and decomposed forms meet too
	require.NoError(t, c.AddClaim("caf\u00e9", outPoint(3), claimID(3), 10, startHeight+1))
	require.NoError(t, c.AddClaim("CAFE\u0301", outPoint(4), claimID(4), 10, startHeight+1))
	increment(t, c, 1)
	assert.Equal(t, 2, c.GetTotalNamesInTrie(), "two names")
	assert.Equal(t, 2, len(c.GetClaimsForName("Caf\u00e9").Claims), "merged accents")
}

func TestInvalidUTF8KeptVerbatim(t *testing.T) {
	configuration := testConfiguration()
	configuration.NormalizedNameForkHeight = 0
	c := newCache(t, configuration)

	name := "AB\xff"
	require.NoError(t, c.AddClaim(name, outPoint(1), claimID(1), 10, startHeight))
	increment(t, c, 1)
	assert.Equal(t, name, c.GetClaimsForName(name).NodeName, "unchanged")
	assert.True(t, c.HaveClaim(name, outPoint(1)), "found")
}

func TestExpiration(t *testing.T) {
	configuration := testConfiguration()
	configuration.OriginalClaimExpirationTime = 20
	configuration.ExtendedClaimExpirationTime = 40
	c := newCache(t, configuration)

	assert.Equal(t, int32(20), c.ExpirationTime(), "original")
	require.NoError(t, c.AddClaim("name", outPoint(1), claimID(1), 10, startHeight))
	increment(t, c, 20)
	assert.True(t, c.HaveClaim("name", outPoint(1)), "last block")

	increment(t, c, 1)
	assert.False(t, c.HaveClaim("name", outPoint(1)), "expired")
	assert.Equal(t, []claimtrie.ClaimID{claimID(1)}, c.GetExpiredClaims(startHeight+20), "expired at")
	_, found := c.GetInfoForName("name")
	assert.False(t, found, "no controller")
	assert.Equal(t, 0, c.GetTotalNamesInTrie(), "pruned")

	_, err := c.RemoveClaim(claimID(1), outPoint(1))
	assert.Error(t, err, "expired claims cannot be removed")
}

func TestExpirationFork(t *testing.T) {
	configuration := testConfiguration()
	configuration.OriginalClaimExpirationTime = 20
	configuration.ExtendedClaimExpirationTime = 40
	configuration.ExtendedClaimExpirationForkHeight = startHeight + 10
	c := newCache(t, configuration)

	require.NoError(t, c.AddClaim("name", outPoint(1), claimID(1), 10, startHeight))
	require.NoError(t, c.AddSupport("name", outPoint(2), claimID(1), 10, startHeight))
	increment(t, c, 10)
	assert.Equal(t, int32(40), c.ExpirationTime(), "extended")

	require.NoError(t, c.AddClaim("other", outPoint(3), claimID(3), 10, c.NextHeight()))
	increment(t, c, 15)

	// would have expired at startHeight+20
	assert.True(t, c.HaveClaim("name", outPoint(1)), "extended claim")
	assert.True(t, c.HaveSupport("name", outPoint(2)), "extended support")
	assert.Equal(t, 0, len(c.GetExpiredClaims(startHeight+20)), "nothing expired")

	increment(t, c, 16)
	assert.False(t, c.HaveClaim("name", outPoint(1)), "expired at the extended height")
	assert.True(t, c.HaveClaim("other", outPoint(3)), "added after the fork")

	// undo back below the fork shortens again
	for c.NextHeight() > startHeight+9 {
		require.NoError(t, c.DecrementBlock(), "decrement")
		if c.NextHeight() == startHeight+10 {
			_, err := c.RemoveClaim(claimID(3), outPoint(3))
			require.NoError(t, err, "remove added")
		}
		require.NoError(t, c.FinalizeDecrement(), "finalize")
	}
	require.NoError(t, c.Flush(), "flush")
	assert.Equal(t, int32(20), c.ExpirationTime(), "original again")
	assert.Equal(t, []claimtrie.ClaimID{claimID(1)}, c.GetExpiredClaims(startHeight+20), "original expiry")
	assert.Equal(t, []claimtrie.ClaimID{claimID(1)}, c.GetClaimsWithExpiredSupports(startHeight+20), "support expiry")
}

func TestActiveRules(t *testing.T) {
	configuration := testConfiguration()
	configuration.NormalizedNameForkHeight = 10
	configuration.AllClaimsInMerkleForkHeight = 20
	configuration.ClaimInfoInMerkleForkHeight = 30
	configuration.ExtendedClaimExpirationForkHeight = 40
	configuration.MinRemovalWorkaroundHeight = 5
	configuration.MaxRemovalWorkaroundHeight = 15
	c := newCache(t, configuration)

	assert.Equal(t, []string{}, c.ActiveRules(0), "none")
	assert.Equal(t, []string{claimtrie.RuleRemovalWorkaround}, c.ActiveRules(5), "workaround")
	assert.Equal(t, []string{claimtrie.RuleNormalizedNames, claimtrie.RuleRemovalWorkaround}, c.ActiveRules(14), "both")
	assert.Equal(t, []string{claimtrie.RuleNormalizedNames}, c.ActiveRules(15), "workaround ends")
	assert.Equal(t, []string{claimtrie.RuleAllClaimsInMerkle, claimtrie.RuleNormalizedNames}, c.ActiveRules(25), "all claims")
	assert.Equal(t, []string{claimtrie.RuleClaimInfoInMerkle, claimtrie.RuleNormalizedNames}, c.ActiveRules(35), "claim info replaces all claims")
	assert.Equal(t, []string{claimtrie.RuleClaimInfoInMerkle, claimtrie.RuleExtendedExpiration, claimtrie.RuleNormalizedNames}, c.ActiveRules(40), "everything")
}

func TestRemovalWorkaround(t *testing.T) {
	configuration := testConfiguration()
	configuration.ProportionalDelayFactor = 1
	configuration.MinRemovalWorkaroundHeight = startHeight
	configuration.MaxRemovalWorkaroundHeight = startHeight + 100
	c := newCache(t, configuration)

	require.NoError(t, c.AddClaim("ab", outPoint(1), claimID(1), 10, startHeight))
	require.NoError(t, c.AddClaim("abc", outPoint(2), claimID(2), 10, startHeight))
	require.NoError(t, c.AddClaim("abd", outPoint(3), claimID(3), 10, startHeight))
	increment(t, c, 10)

	// without a removal the delay is proportional
	assert.Equal(t, int32(10), c.DelayForName("ab", claimID(4)), "normal delay")

	// removing the last claim of a node with children allows an
	// immediate replacement in the same block
	_, err := c.RemoveClaim(claimID(1), outPoint(1))
	require.NoError(t, err, "remove")
	assert.Equal(t, int32(0), c.DelayForName("ab", claimID(4)), "workaround")
	require.NoError(t, c.AddClaim("ab", outPoint(4), claimID(4), 10, c.NextHeight()))
	assert.Equal(t, int32(10), c.DelayForName("ab", claimID(5)), "used once")
	increment(t, c, 1)

	id, _, found := c.GetLastTakeoverForName("ab")
	require.True(t, found, "takeover")
	assert.Equal(t, claimID(4), id, "replacement controls")
}
