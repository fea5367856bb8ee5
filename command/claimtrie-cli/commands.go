// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"

	"github.com/urfave/cli"

	"github.com/bitmark-inc/claimtrie/claimtrie"
	"github.com/bitmark-inc/claimtrie/fault"
	"github.com/bitmark-inc/claimtrie/merkle"
)

// command errors - keep in alphabetic order
const (
	ErrMissingName = fault.InvalidError("name argument is required")
	ErrNoClaim     = fault.NotFoundError("no claim found")
)

func nameArgument(c *cli.Context) (string, error) {
	name := c.Args().Get(0)
	if "" == name {
		return "", ErrMissingName
	}
	return name, nil
}

type rootReply struct {
	Height int32         `json:"height"`
	Root   merkle.Digest `json:"root"`
}

func runRoot(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	root, err := m.trie.GetMerkleHash()
	if nil != err {
		return err
	}
	return printResult(m, rootReply{
		Height: m.trie.NextHeight() - 1,
		Root:   root,
	})
}

func runInfo(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	name, err := nameArgument(c)
	if nil != err {
		return err
	}
	info, found := m.trie.GetInfoForName(name)
	if !found {
		return ErrNoClaim
	}
	return printResult(m, info)
}

func runClaims(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	name, err := nameArgument(c)
	if nil != err {
		return err
	}
	return printResult(m, m.trie.GetClaimsForName(name))
}

type proofReply struct {
	Proof *claimtrie.Proof `json:"proof"`
	Root  merkle.Digest    `json:"root"`
	Valid bool             `json:"valid"`
}

func runProof(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	name, err := nameArgument(c)
	if nil != err {
		return err
	}

	claimID := claimtrie.ClaimID{}
	if s := c.String("claim-id"); "" != s {
		claimID, err = claimtrie.ClaimIDFromString(s)
		if nil != err {
			return err
		}
	}

	proof, err := m.trie.GetProofForName(name, claimID)
	if nil != err {
		return err
	}
	root, err := m.trie.GetMerkleHash()
	if nil != err {
		return err
	}
	return printResult(m, proofReply{
		Proof: proof,
		Root:  root,
		Valid: proof.Verify(root),
	})
}

func runFind(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	prefix, err := hex.DecodeString(c.Args().Get(0))
	if nil != err {
		return err
	}
	if 0 == len(prefix) {
		return fault.InvalidClaimID
	}
	value, found := m.trie.FindNameForClaim(prefix)
	if !found {
		return ErrNoClaim
	}
	return printResult(m, value)
}

func runNames(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	count := c.Int("count")
	names := make([]string, 0, count)
	m.trie.GetNamesInTrie(func(name string) bool {
		names = append(names, name)
		return len(names) < count
	})
	return printResult(m, names)
}

type totalsReply struct {
	Names            int   `json:"names"`
	Claims           int   `json:"claims"`
	Value            int64 `json:"value"`
	ControllingValue int64 `json:"controllingValue"`
}

func runTotals(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	return printResult(m, totalsReply{
		Names:            m.trie.GetTotalNamesInTrie(),
		Claims:           m.trie.GetTotalClaimsInTrie(),
		Value:            m.trie.GetTotalValueOfClaimsInTrie(false),
		ControllingValue: m.trie.GetTotalValueOfClaimsInTrie(true),
	})
}

type rulesReply struct {
	Height         int32    `json:"height"`
	Rules          []string `json:"rules"`
	ExpirationTime int32    `json:"expirationTime"`
}

func runRules(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	height := int32(c.Int("height"))
	if height < 0 {
		height = m.trie.NextHeight() - 1
	}
	return printResult(m, rulesReply{
		Height:         height,
		Rules:          m.trie.ActiveRules(height),
		ExpirationTime: m.trie.ExpirationTime(),
	})
}

func runValidate(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	height := c.Int("height")
	if height < 0 {
		return fault.InvalidHeight
	}
	root, err := merkle.DigestFromString(c.String("root"))
	if nil != err {
		return err
	}
	if err := m.trie.ValidateDb(int32(height), root); nil != err {
		return err
	}
	return printResult(m, rootReply{
		Height: int32(height),
		Root:   root,
	})
}

func runCheck(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	if err := m.trie.CheckConsistency(); nil != err {
		return err
	}
	root, err := m.trie.GetMerkleHash()
	if nil != err {
		return err
	}
	return printResult(m, rootReply{
		Height: m.trie.NextHeight() - 1,
		Root:   root,
	})
}

func runStatistics(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)
	return printResult(m, m.trie.Statistics())
}
