// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ConsensusError GenericError
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	ClaimNotFound             = NotFoundError("claim not found")
	CommitFailed              = ConsensusError("commit of block transaction failed")
	DatabaseIsNotSet          = ProcessError("database is not set")
	HeightMismatch            = ConsensusError("stored height does not match")
	IncompatibleDatabase      = InvalidError("incompatible database version")
	InconsistentTrie          = ConsensusError("recomputed merkle hash does not match stored root")
	InvalidAmount             = InvalidError("invalid amount")
	InvalidChain              = InvalidError("invalid chain")
	InvalidClaimID            = InvalidError("invalid claim id")
	InvalidConfiguration      = InvalidError("invalid configuration")
	InvalidDigest             = InvalidError("invalid digest")
	InvalidDelayFactor        = InvalidError("proportional delay factor must be positive")
	InvalidExpiration         = InvalidError("extended expiration is shorter than original expiration")
	InvalidForkOrder          = InvalidError("claim info fork precedes all claims in merkle fork")
	InvalidHeight             = InvalidError("invalid height")
	InvalidName               = InvalidError("invalid name")
	InvalidProof              = InvalidError("invalid proof")
	InvalidRemovalWorkaround  = InvalidError("removal workaround window is inverted")
	MissingParameters         = InvalidError("missing parameters")
	NameNotFound              = NotFoundError("name not found")
	NoControllingClaim        = NotFoundError("no controlling claim for name")
	NothingToDecrement        = InvalidError("no block to decrement")
	OutPointExists            = ExistsError("outpoint already exists")
	RootHashMismatch          = ConsensusError("stored root hash does not match")
	SupportNotFound           = NotFoundError("support not found")
	TransactionAlreadyInUse   = ProcessError("transaction already in use")
	TransactionNotOpen        = ProcessError("transaction is not open")
	UnsupportedHashRule       = InvalidError("unsupported hash rule")
	WrongClaimIDForOutPoint   = NotFoundError("claim id does not match outpoint")
	ZeroLengthNameAfterNormal = InvalidError("name normalises to zero length")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ConsensusError) Error() string { return string(e) }
func (e ExistsError) Error() string    { return string(e) }
func (e InvalidError) Error() string   { return string(e) }
func (e NotFoundError) Error() string  { return string(e) }
func (e ProcessError) Error() string   { return string(e) }

// determine the class of an error
func IsErrConsensus(e error) bool { _, ok := e.(ConsensusError); return ok }
func IsErrExists(e error) bool    { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool   { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool  { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool   { _, ok := e.(ProcessError); return ok }

// IsFatal - true for errors that must stop block processing
func IsFatal(e error) bool {
	return IsErrConsensus(e) || IsErrProcess(e)
}
