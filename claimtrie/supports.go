// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package claimtrie

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/bitmark-inc/claimtrie/fault"
)

// AddSupport - add a support whose activation is delayed according to
// the name's last takeover
//
// the supported claim need not exist
func (c *Cache) AddSupport(name string, outPoint wire.OutPoint, supportedClaimID ClaimID, amount int64, height int32) error {
	return c.AddSupportWithHeight(name, outPoint, supportedClaimID, amount, height, Unset)
}

// AddSupportWithHeight - add a support with an explicit valid height
func (c *Cache) AddSupportWithHeight(name string, outPoint wire.OutPoint, supportedClaimID ClaimID, amount int64, height int32, validHeight int32) error {
	if err := checkEntry(name, amount, height); nil != err {
		return err
	}
	if err := c.ensureTransacting(); nil != err {
		return err
	}

	if c.outPointInUse(outPoint) {
		c.log.Warnf("add support: %q duplicate outpoint: %s", name, outPoint)
		return fault.OutPointExists
	}

	nodeName := c.adjustName(name)
	if 0 == len(nodeName) {
		return fault.ZeroLengthNameAfterNormal
	}
	if validHeight < 0 {
		validHeight = height + c.delayForName(nodeName, supportedClaimID, true)
	}

	support := Support{
		OutPoint:         outPoint,
		SupportedClaimID: supportedClaimID,
		Name:             name,
		NodeName:         nodeName,
		Amount:           amount,
		UpdateHeight:     height,
		ValidHeight:      validHeight,
		ActivationHeight: validHeight,
		ExpirationHeight: height + c.forks.expiration.duration(c.nextHeight),
	}
	c.putSupport(support)
	if support.ActivationHeight < c.nextHeight {
		c.markDirty(nodeName)
	}

	c.statistics.SupportsAdded.Increment()
	c.log.Debugf("add support: %q for: %s outpoint: %s amount: %d valid: %d", nodeName, supportedClaimID, outPoint, amount, validHeight)
	return nil
}

// RemoveSupport - remove an unexpired support
func (c *Cache) RemoveSupport(outPoint wire.OutPoint) (RemovedSupport, error) {
	if err := c.ensureTransacting(); nil != err {
		return RemovedSupport{}, err
	}

	support, found := c.getSupport(outPoint)
	if !found || support.ExpirationHeight < c.nextHeight {
		return RemovedSupport{}, fault.SupportNotFound
	}

	c.deleteSupport(support)
	c.markDirty(support.NodeName)

	c.statistics.SupportsRemoved.Increment()
	c.log.Debugf("remove support: %q outpoint: %s", support.NodeName, outPoint)
	return RemovedSupport{Support: support}, nil
}

// RestoreSupport - put back a support exactly as it was before RemoveSupport
func (c *Cache) RestoreSupport(removed RemovedSupport) error {
	support := removed.Support
	if err := checkEntry(support.Name, support.Amount, support.UpdateHeight); nil != err {
		return err
	}
	if err := c.ensureTransacting(); nil != err {
		return err
	}
	if c.outPointInUse(support.OutPoint) {
		return fault.OutPointExists
	}

	c.putSupport(support)
	if support.ActivationHeight < c.nextHeight {
		c.markDirty(support.NodeName)
	}
	c.log.Debugf("restore support: %q outpoint: %s", support.NodeName, support.OutPoint)
	return nil
}

// HaveSupport - true if the support is in force at the last completed block
func (c *Cache) HaveSupport(name string, outPoint wire.OutPoint) bool {
	support, found := c.getSupport(outPoint)
	if !found || support.NodeName != c.adjustName(name) {
		return false
	}
	return support.ActivationHeight < c.nextHeight && support.ExpirationHeight >= c.nextHeight
}

// HaveSupportInQueue - true if the support is waiting to activate,
// also returns its activation height
func (c *Cache) HaveSupportInQueue(name string, outPoint wire.OutPoint) (int32, bool) {
	support, found := c.getSupport(outPoint)
	if !found || support.NodeName != c.adjustName(name) {
		return 0, false
	}
	if support.ActivationHeight >= c.nextHeight && support.ExpirationHeight >= support.ActivationHeight {
		return support.ActivationHeight, true
	}
	return 0, false
}
