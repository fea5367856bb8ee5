// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/claimtrie/claimtrie"
	"github.com/bitmark-inc/claimtrie/merkle"
)

func TestTakeoverTieBreak(t *testing.T) {
	c := newCache(t, testConfiguration())

	// A has the lower claim id
	a, b := uint32(1), uint32(2)
	idA, idB := claimID(a), claimID(b)
	if bytes.Compare(idA[:], idB[:]) > 0 {
		a, b = b, a
	}

	require.NoError(t, c.AddClaim("tie", outPoint(b), claimID(b), 10, startHeight))
	require.NoError(t, c.AddClaim("tie", outPoint(a), claimID(a), 10, startHeight))
	increment(t, c, 1)

	info, found := c.GetInfoForName("tie")
	require.True(t, found, "info")
	assert.Equal(t, claimID(a), info.ClaimID, "lower claim id wins")

	claims := c.GetClaimsForName("tie")
	require.Equal(t, 2, len(claims.Claims), "claims")
	assert.Equal(t, claimID(a), claims.Claims[0].Claim.ClaimID, "ranked first")
	assert.Equal(t, claimID(b), claims.Claims[1].Claim.ClaimID, "ranked second")
}

func TestTakeoverByAmount(t *testing.T) {
	c := newCache(t, testConfiguration())

	require.NoError(t, c.AddClaim("name", outPoint(1), claimID(1), 10, startHeight))
	increment(t, c, 1)

	// a larger claim right after the takeover has no delay
	require.NoError(t, c.AddClaim("name", outPoint(2), claimID(2), 20, startHeight+1))
	increment(t, c, 1)

	id, height, found := c.GetLastTakeoverForName("name")
	require.True(t, found, "takeover")
	assert.Equal(t, claimID(2), id, "larger claim")
	assert.Equal(t, int32(startHeight+1), height, "height")

	// support moves control back
	require.NoError(t, c.AddSupport("name", outPoint(3), claimID(1), 15, startHeight+2))
	increment(t, c, 1)

	id, height, found = c.GetLastTakeoverForName("name")
	require.True(t, found, "takeover")
	assert.Equal(t, claimID(1), id, "supported claim")
	assert.Equal(t, int32(startHeight+2), height, "height")
}

func TestDelayMonotonic(t *testing.T) {
	configuration := testConfiguration()
	c := newCache(t, configuration)
	factor := configuration.ProportionalDelayFactor

	require.NoError(t, c.AddClaim("name", outPoint(1), claimID(1), 10, startHeight))
	increment(t, c, 1)
	takeoverHeight := int32(startHeight)

	assert.Equal(t, int32(0), c.DelayForName("name", claimID(1)), "controller updates have no delay")
	assert.Equal(t, int32(0), c.DelayForName("unclaimed", claimID(2)), "no takeover no delay")

	previous := int32(-1)
	for c.NextHeight() < startHeight+200 {
		h := c.NextHeight()
		delay := c.DelayForName("name", claimID(2))
		assert.Equal(t, (h-takeoverHeight)/factor, delay, "delay at: %d", h)
		assert.GreaterOrEqual(t, h+delay, previous, "valid height does not decrease at: %d", h)
		previous = h + delay
		increment(t, c, 7)
	}

	h := c.NextHeight()
	require.NoError(t, c.AddClaim("name", outPoint(2), claimID(2), 100, h))
	expected := h + (h-takeoverHeight)/factor
	activation, queued := c.HaveClaimInQueue("name", outPoint(2))
	require.True(t, queued, "queued")
	assert.Equal(t, expected, activation, "activation")

	increment(t, c, int(expected-h)+1)
	_, queued = c.HaveClaimInQueue("name", outPoint(2))
	assert.False(t, queued, "no longer queued")
	assert.True(t, c.HaveClaim("name", outPoint(2)), "active")

	id, height, found := c.GetLastTakeoverForName("name")
	require.True(t, found, "takeover")
	assert.Equal(t, claimID(2), id, "new controller")
	assert.Equal(t, expected, height, "takeover when active")

	assert.Equal(t, []claimtrie.ClaimID{claimID(2)}, c.GetActivatedClaims(expected), "activated")
}

func TestDelayCap(t *testing.T) {
	configuration := testConfiguration()
	configuration.ProportionalDelayFactor = 1
	configuration.MaxTakeoverDelay = 5
	c := newCache(t, configuration)

	require.NoError(t, c.AddClaim("name", outPoint(1), claimID(1), 10, startHeight))
	increment(t, c, 3)
	assert.Equal(t, int32(3), c.DelayForName("name", claimID(2)), "below cap")

	increment(t, c, 10)
	assert.Equal(t, int32(5), c.DelayForName("name", claimID(2)), "capped")
}

func TestTakeoverActivatesWaitingEntries(t *testing.T) {
	configuration := testConfiguration()
	configuration.ProportionalDelayFactor = 1
	c := newCache(t, configuration)

	require.NoError(t, c.AddClaim("name", outPoint(1), claimID(1), 10, startHeight))
	increment(t, c, 10)

	// delay 10: waits until 120
	h := c.NextHeight()
	require.NoError(t, c.AddClaim("name", outPoint(2), claimID(2), 50, h))
	require.NoError(t, c.AddSupport("name", outPoint(3), claimID(2), 5, h))
	activation, queued := c.HaveClaimInQueue("name", outPoint(2))
	require.True(t, queued, "queued")
	assert.Equal(t, h+10, activation, "delayed")
	increment(t, c, 1)

	// the controller leaves so a takeover happens now
	removed, err := c.RemoveClaim(claimID(1), outPoint(1))
	require.NoError(t, err, "remove")
	takeover := c.NextHeight()
	increment(t, c, 1)

	assert.True(t, c.HaveClaim("name", outPoint(2)), "brought forward")
	assert.True(t, c.HaveSupport("name", outPoint(3)), "support brought forward")
	id, height, found := c.GetLastTakeoverForName("name")
	require.True(t, found, "takeover")
	assert.Equal(t, claimID(2), id, "waiting claim took over")
	assert.Equal(t, takeover, height, "height")

	info, found := c.GetInfoForName("name")
	require.True(t, found, "info")
	assert.Equal(t, int64(55), info.EffectiveAmount, "with support")
	assert.Equal(t, takeover, info.ActivationHeight, "activation")
	assert.Equal(t, h+10, info.ValidHeight, "valid height kept")

	// undo restores the wait
	require.NoError(t, c.DecrementBlock(), "decrement")
	require.NoError(t, c.RestoreClaim(removed), "restore")
	require.NoError(t, c.FinalizeDecrement(), "finalize")
	require.NoError(t, c.Flush(), "flush")

	activation, queued = c.HaveClaimInQueue("name", outPoint(2))
	assert.True(t, queued, "queued again")
	assert.Equal(t, h+10, activation, "original activation")
	id, _, found = c.GetLastTakeoverForName("name")
	require.True(t, found, "takeover")
	assert.Equal(t, claimID(1), id, "original controller")
}

func TestNullTakeover(t *testing.T) {
	configuration := testConfiguration()
	configuration.ProportionalDelayFactor = 1
	c := newCache(t, configuration)

	require.NoError(t, c.AddClaim("name", outPoint(1), claimID(1), 10, startHeight))
	increment(t, c, 5)
	_, err := c.RemoveClaim(claimID(1), outPoint(1))
	require.NoError(t, err, "remove")
	increment(t, c, 5)

	_, _, found := c.GetLastTakeoverForName("name")
	assert.False(t, found, "no controller")

	// the empty takeover still sets the delay baseline
	expected := c.NextHeight() - (startHeight + 5)
	assert.Equal(t, expected, c.DelayForName("name", claimID(2)), "delay")
}

// hashing part way through a block must not change the root the
// block commits, even when its takeover brings waiting claims forward
func TestHashDuringTakeoverBlock(t *testing.T) {
	configuration := testConfiguration()
	configuration.ProportionalDelayFactor = 1

	roots := make([]merkle.Digest, 0, 2)
	for _, hashEarly := range []bool{false, true} {
		c := newCache(t, configuration)

		require.NoError(t, c.AddClaim("a", outPoint(1), claimID(1), 10, startHeight))
		increment(t, c, 4)

		h := c.NextHeight()
		require.NoError(t, c.AddClaim("a", outPoint(2), claimID(2), 20, h))
		activation, queued := c.HaveClaimInQueue("a", outPoint(2))
		require.True(t, queued, "queued")
		assert.Equal(t, h+4, activation, "delayed")
		increment(t, c, 1)

		_, err := c.RemoveClaim(claimID(1), outPoint(1))
		require.NoError(t, err, "remove")
		if hashEarly {
			merkleHash(t, c)
		}
		takeover := c.NextHeight()
		increment(t, c, 1)

		id, height, found := c.GetLastTakeoverForName("a")
		require.True(t, found, "takeover: %t", hashEarly)
		assert.Equal(t, claimID(2), id, "waiting claim took over: %t", hashEarly)
		assert.Equal(t, takeover, height, "takeover height: %t", hashEarly)

		roots = append(roots, merkleHash(t, c))
		assert.NoError(t, c.CheckConsistency(), "consistency: %t", hashEarly)
	}
	assert.Equal(t, roots[0], roots[1], "same root either way")
}
