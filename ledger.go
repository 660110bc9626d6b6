// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

// NextEpoch is set on the ledger header that closes an epoch.
type NextEpoch struct {
	Epoch      uint64
	Validators []Validator
}

// LedgerHeader is the ledger state resulting from executing a vertex.
type LedgerHeader struct {
	Epoch        uint64
	Round        Round
	StateVersion uint64
	StateHash    Digest
	// Timestamps are in milliseconds since the unix epoch.
	ConsensusParentRoundTimestamp int64
	ProposerTimestamp             int64
	NextEpoch                     *NextEpoch
	NextProtocolVersion           string
}

func (h LedgerHeader) IsEndOfEpoch() bool {
	return h.NextEpoch != nil
}

func (h LedgerHeader) Digest() Digest {
	return mustHashContext(h, ledgerHeaderContext)
}

func (h LedgerHeader) Equal(other LedgerHeader) bool {
	return h.Digest() == other.Digest()
}

// LedgerProof proves a committed ledger header. A proof without signatures
// originates from an initial epoch QC.
type LedgerProof struct {
	Header       LedgerHeader
	VoteDataHash Digest
	Signatures   []Signature
}

func (p LedgerProof) IsGenesis() bool {
	return len(p.Signatures) == 0
}
