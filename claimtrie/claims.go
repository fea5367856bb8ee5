// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/bitmark-inc/claimtrie/fault"
	"github.com/bitmark-inc/claimtrie/storage"
)

// Unset - let the cache compute a valid or original height
const Unset = int32(-1)

// MaxNameLength - longest name that can be claimed
const MaxNameLength = 255

// node name for a name used in the block under construction
func (c *Cache) adjustName(name string) string {
	return c.forks.normalization.adjust(name, c.nextHeight)
}

func checkEntry(name string, amount int64, height int32) error {
	switch {
	case 0 == len(name), len(name) > MaxNameLength:
		return fault.InvalidName
	case amount < 0:
		return fault.InvalidAmount
	case height < 0:
		return fault.InvalidHeight
	}
	return nil
}

// AddClaim - add a claim whose activation is delayed according to the
// name's last takeover
func (c *Cache) AddClaim(name string, outPoint wire.OutPoint, claimID ClaimID, amount int64, height int32) error {
	return c.AddClaimWithHeights(name, outPoint, claimID, amount, height, Unset, Unset)
}

// AddClaimWithHeights - add a claim with an explicit valid height
// and original height, Unset selects the computed value
func (c *Cache) AddClaimWithHeights(name string, outPoint wire.OutPoint, claimID ClaimID, amount int64, height int32, validHeight int32, originalHeight int32) error {
	if err := checkEntry(name, amount, height); nil != err {
		return err
	}
	if err := c.ensureTransacting(); nil != err {
		return err
	}

	if c.outPointInUse(outPoint) {
		c.log.Warnf("add claim: %q duplicate outpoint: %s", name, outPoint)
		return fault.OutPointExists
	}

	nodeName := c.adjustName(name)
	if 0 == len(nodeName) {
		return fault.ZeroLengthNameAfterNormal
	}
	if validHeight < 0 {
		validHeight = height + c.delayForName(nodeName, claimID, true)
	}
	if originalHeight < 0 {
		originalHeight = height
	}

	claim := Claim{
		OutPoint:         outPoint,
		ClaimID:          claimID,
		Name:             name,
		NodeName:         nodeName,
		Amount:           amount,
		OriginalHeight:   originalHeight,
		UpdateHeight:     height,
		ValidHeight:      validHeight,
		ActivationHeight: validHeight,
		ExpirationHeight: height + c.forks.expiration.duration(c.nextHeight),
	}
	c.putClaim(claim)
	if claim.ActivationHeight < c.nextHeight {
		c.markDirty(nodeName)
	}

	c.statistics.ClaimsAdded.Increment()
	c.log.Debugf("add claim: %q id: %s outpoint: %s amount: %d valid: %d", nodeName, claimID, outPoint, amount, validHeight)
	return nil
}

// RemoveClaim - remove an unexpired claim, e.g. when its output is spent
//
// the result holds the complete record for RestoreClaim
func (c *Cache) RemoveClaim(claimID ClaimID, outPoint wire.OutPoint) (RemovedClaim, error) {
	if err := c.ensureTransacting(); nil != err {
		return RemovedClaim{}, err
	}

	claim, found := c.getClaim(outPoint)
	if !found || claim.ExpirationHeight < c.nextHeight {
		return RemovedClaim{}, fault.ClaimNotFound
	}
	if claim.ClaimID != claimID {
		return RemovedClaim{}, fault.WrongClaimIDForOutPoint
	}

	c.deleteClaim(claim)
	c.markDirty(claim.NodeName)

	// a node left with only children gives the next claim on it no delay
	if c.forks.workaround.activeAt(c.nextHeight) && !c.hasActiveClaim(claim.NodeName, c.nextHeight-1) {
		childPrefix := nodeKey(claim.NodeName)
		hasChildren := false
		c.reader().Iterate(storage.Pool.Children, childPrefix, func(key []byte, value []byte) bool {
			hasChildren = true
			return false
		})
		if hasChildren {
			c.working.removalWorkaround[claim.NodeName] = struct{}{}
		}
	}

	c.statistics.ClaimsRemoved.Increment()
	c.log.Debugf("remove claim: %q id: %s outpoint: %s", claim.NodeName, claimID, outPoint)
	return RemovedClaim{Claim: claim}, nil
}

// RestoreClaim - put back a claim exactly as it was before RemoveClaim
func (c *Cache) RestoreClaim(removed RemovedClaim) error {
	claim := removed.Claim
	if err := checkEntry(claim.Name, claim.Amount, claim.UpdateHeight); nil != err {
		return err
	}
	if err := c.ensureTransacting(); nil != err {
		return err
	}
	if c.outPointInUse(claim.OutPoint) {
		return fault.OutPointExists
	}

	c.putClaim(claim)
	if claim.ActivationHeight < c.nextHeight {
		c.markDirty(claim.NodeName)
	}
	c.log.Debugf("restore claim: %q id: %s outpoint: %s", claim.NodeName, claim.ClaimID, claim.OutPoint)
	return nil
}

// HaveClaim - true if the claim is in force at the last completed block
func (c *Cache) HaveClaim(name string, outPoint wire.OutPoint) bool {
	claim, found := c.getClaim(outPoint)
	if !found || claim.NodeName != c.adjustName(name) {
		return false
	}
	return claim.ActivationHeight < c.nextHeight && claim.ExpirationHeight >= c.nextHeight
}

// HaveClaimInQueue - true if the claim is waiting to activate, also
// returns its activation height
func (c *Cache) HaveClaimInQueue(name string, outPoint wire.OutPoint) (int32, bool) {
	claim, found := c.getClaim(outPoint)
	if !found || claim.NodeName != c.adjustName(name) {
		return 0, false
	}
	if claim.ActivationHeight >= c.nextHeight && claim.ExpirationHeight >= claim.ActivationHeight {
		return claim.ActivationHeight, true
	}
	return 0, false
}
