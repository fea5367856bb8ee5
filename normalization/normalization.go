// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package normalization - canonical forms of claim names
//
// names are decomposed (NFD) and then case folded, so that two names
// differing only in letter case or composition share one trie node
package normalization

import (
	"time"
	"unicode/utf8"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	defaultExpiration = 10 * time.Minute
	cleanupInterval   = 20 * time.Minute
)

// Normalizer - memoising name normaliser
type Normalizer struct {
	memo *cache.Cache
}

// New - create a normaliser with an empty memo
func New() *Normalizer {
	return &Normalizer{
		memo: cache.New(defaultExpiration, cleanupInterval),
	}
}

// Normalize - return the canonical form of a name
//
// names which are not valid UTF-8 are returned unchanged
func (n *Normalizer) Normalize(name string) string {
	if obj, found := n.memo.Get(name); found {
		return obj.(string)
	}
	result := Normalize(name)
	n.memo.SetDefault(name, result)
	return result
}

// Flush - discard all memoised names
func (n *Normalizer) Flush() {
	n.memo.Flush()
}

// Normalize - canonical form of a name without memoisation
func Normalize(name string) string {
	if !utf8.ValidString(name) {
		return name
	}

	// transformers carry state so a new chain is needed for every call
	chain := transform.Chain(norm.NFD, cases.Fold())
	result, _, err := transform.String(chain, name)
	if nil != err {
		return name
	}
	return result
}
