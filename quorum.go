// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"errors"
	"fmt"
)

var (
	errMalformedRoundQuorum = errors.New("round quorum must carry exactly one of a QC or a TC")
	errNotGenesis           = errors.New("vertex is not an initial epoch vertex")
)

// BFTHeader identifies a vertex and the ledger state it produced.
type BFTHeader struct {
	Round    Round
	VertexID Digest
	Ledger   LedgerHeader
}

// NewGenesisAncestorHeader returns the header an initial epoch vertex points to as its parent.
func NewGenesisAncestorHeader(ledger LedgerHeader) BFTHeader {
	return BFTHeader{Round: GenesisRound, Ledger: ledger}
}

// VoteData is what a validator votes for: a proposed header, its parent and
// the header committed by the resulting 3-chain, if any.
type VoteData struct {
	Proposed  BFTHeader
	Parent    BFTHeader
	Committed *BFTHeader
}

func (vd VoteData) Hash() Digest {
	return mustHashContext(vd, voteDataContext)
}

// QuorumCertificate proves that a quorum of voting power voted for VoteData.
type QuorumCertificate struct {
	VoteData   VoteData
	Signatures []Signature
}

// NewInitialEpochQC returns the self-certified QC anchoring a new epoch at [genesis].
func NewInitialEpochQC(genesis VertexWithHash, ledger LedgerHeader) (QuorumCertificate, error) {
	if !genesis.Round().IsGenesis() {
		return QuorumCertificate{}, fmt.Errorf("%w: round %d", errNotGenesis, genesis.Round())
	}
	header := BFTHeader{Round: genesis.Round(), VertexID: genesis.Hash(), Ledger: ledger}
	return QuorumCertificate{
		VoteData: VoteData{Proposed: header, Parent: header, Committed: &header},
	}, nil
}

func (qc *QuorumCertificate) Round() Round {
	return qc.VoteData.Proposed.Round
}

func (qc *QuorumCertificate) Epoch() uint64 {
	return qc.VoteData.Proposed.Ledger.Epoch
}

func (qc *QuorumCertificate) ProposedHeader() BFTHeader {
	return qc.VoteData.Proposed
}

func (qc *QuorumCertificate) ParentHeader() BFTHeader {
	return qc.VoteData.Parent
}

// CommittedHeader returns nil if this QC does not commit anything.
func (qc *QuorumCertificate) CommittedHeader() *BFTHeader {
	return qc.VoteData.Committed
}

// CommittedAndProof returns the committed header and the proof of its ledger state.
func (qc *QuorumCertificate) CommittedAndProof() (BFTHeader, LedgerProof, bool) {
	committed := qc.VoteData.Committed
	if committed == nil {
		return BFTHeader{}, LedgerProof{}, false
	}
	proof := LedgerProof{Header: committed.Ledger}
	if len(qc.Signatures) > 0 {
		proof.VoteDataHash = qc.VoteData.Hash()
		proof.Signatures = qc.Signatures
	}
	return *committed, proof, true
}

func (qc *QuorumCertificate) Signers() NodeIDs {
	signers := make(NodeIDs, len(qc.Signatures))
	for i, sig := range qc.Signatures {
		signers[i] = sig.Signer
	}
	return signers
}

// TimeoutCertificate proves that a quorum of voting power timed out a round.
type TimeoutCertificate struct {
	Epoch      uint64
	Round      Round
	Signatures []Signature
}

func (tc *TimeoutCertificate) Signers() NodeIDs {
	signers := make(NodeIDs, len(tc.Signatures))
	for i, sig := range tc.Signatures {
		signers[i] = sig.Signer
	}
	return signers
}

// HighQC is the best certificate state known to a node.
type HighQC struct {
	HighestQC          QuorumCertificate
	HighestCommittedQC QuorumCertificate
	HighestTC          *TimeoutCertificate
}

// HighQCFrom returns a HighQC where [qc] is both the highest and the highest committed QC.
func HighQCFrom(qc QuorumCertificate) HighQC {
	return HighQC{HighestQC: qc, HighestCommittedQC: qc}
}

// NewHighQC keeps [tc] only if it is for a round above the highest QC.
func NewHighQC(highestQC, highestCommittedQC QuorumCertificate, tc *TimeoutCertificate) HighQC {
	highQC := HighQC{HighestQC: highestQC, HighestCommittedQC: highestCommittedQC}
	if tc != nil && tc.Round > highestQC.Round() {
		highQC.HighestTC = tc
	}
	return highQC
}

// HighestRound is the highest round certified either by a QC or by a TC.
func (h *HighQC) HighestRound() Round {
	round := h.HighestQC.Round()
	if h.HighestTC != nil && h.HighestTC.Round > round {
		return h.HighestTC.Round
	}
	return round
}

// RoundQuorum is the outcome of a round: a regular quorum (QC) or a timeout
// quorum (TC). Exactly one of the fields is set.
type RoundQuorum struct {
	QC *QuorumCertificate
	TC *TimeoutCertificate
}

func RegularRoundQuorum(qc QuorumCertificate) RoundQuorum {
	return RoundQuorum{QC: &qc}
}

func TimeoutRoundQuorum(tc TimeoutCertificate) RoundQuorum {
	return RoundQuorum{TC: &tc}
}

func (q RoundQuorum) IsWellFormed() error {
	if (q.QC == nil) == (q.TC == nil) {
		return errMalformedRoundQuorum
	}
	return nil
}

func (q RoundQuorum) IsRegular() bool {
	return q.QC != nil
}

func (q RoundQuorum) Round() Round {
	if q.QC != nil {
		return q.QC.Round()
	}
	if q.TC != nil {
		return q.TC.Round
	}
	return GenesisRound
}

func (q RoundQuorum) String() string {
	switch {
	case q.QC != nil && q.TC == nil:
		return fmt.Sprintf("QC{round=%d, signers=%d}", q.QC.Round(), len(q.QC.Signatures))
	case q.TC != nil && q.QC == nil:
		return fmt.Sprintf("TC{round=%d, signers=%d}", q.TC.Round, len(q.TC.Signatures))
	default:
		return "malformed"
	}
}
