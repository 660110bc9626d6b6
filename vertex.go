// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

// Vertex is a proposed block, chained to its parent by the QC certifying it.
type Vertex struct {
	QCToParent   QuorumCertificate
	Round        Round
	Transactions [][]byte
	Proposer     NodeID
	// Fallback vertices are created locally when no proposal was received.
	IsFallback        bool
	ProposerTimestamp int64
}

// NewInitialEpochVertex returns the genesis vertex of the epoch described by [ledger].
func NewInitialEpochVertex(ledger LedgerHeader) Vertex {
	header := NewGenesisAncestorHeader(ledger)
	parentQC := QuorumCertificate{
		VoteData: VoteData{Proposed: header, Parent: header, Committed: &header},
	}
	return Vertex{
		QCToParent:        parentQC,
		Round:             GenesisRound,
		ProposerTimestamp: ledger.ProposerTimestamp,
	}
}

// NewFallbackVertex returns an empty vertex reusing the parent timestamp, so
// that every validator building it agrees on its content.
func NewFallbackVertex(parentQC QuorumCertificate, round Round, proposer NodeID) Vertex {
	return Vertex{
		QCToParent:        parentQC,
		Round:             round,
		Proposer:          proposer,
		IsFallback:        true,
		ProposerTimestamp: parentQC.ProposedHeader().Ledger.ProposerTimestamp,
	}
}

func (v *Vertex) ParentHeader() BFTHeader {
	return v.QCToParent.ProposedHeader()
}

func (v *Vertex) ParentID() Digest {
	return v.QCToParent.ProposedHeader().VertexID
}

func (v *Vertex) ParentLedgerHeader() LedgerHeader {
	return v.QCToParent.ProposedHeader().Ledger
}

func (v *Vertex) GrandParentHeader() BFTHeader {
	return v.QCToParent.ParentHeader()
}

func (v *Vertex) Epoch() uint64 {
	epoch := v.ParentLedgerHeader().Epoch
	// the parent of a genesis vertex belongs to the previous epoch
	if v.Round.IsGenesis() {
		return epoch + 1
	}
	return epoch
}

func (v *Vertex) HasDirectParent() bool {
	return v.Round == v.ParentHeader().Round.Next()
}

// VertexWithHash is a vertex together with its identity. The hash is computed
// once on construction.
type VertexWithHash struct {
	vertex Vertex
	hash   Digest
}

func NewVertexWithHash(vertex Vertex) VertexWithHash {
	return VertexWithHash{
		vertex: vertex,
		hash:   mustHashContext(vertex, vertexContext),
	}
}

func (v VertexWithHash) Vertex() Vertex {
	return v.vertex
}

func (v VertexWithHash) Hash() Digest {
	return v.hash
}

func (v VertexWithHash) Round() Round {
	return v.vertex.Round
}

func (v VertexWithHash) ParentID() Digest {
	return v.vertex.ParentID()
}

func (v VertexWithHash) Proposer() NodeID {
	return v.vertex.Proposer
}
