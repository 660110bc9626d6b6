// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

// ToBeSignedVote is the content covered by a vote signature.
type ToBeSignedVote struct {
	VoteDataHash Digest
	Timestamp    int64
}

func (v ToBeSignedVote) Hash() Digest {
	return mustHashContext(v, toBeSignedVoteContext)
}

// VoteTimeout is the content covered by a timeout signature.
type VoteTimeout struct {
	Round Round
	Epoch uint64
}

func (v VoteTimeout) Hash() Digest {
	return mustHashContext(v, voteTimeoutContext)
}

// Vote is a validator's vote for a vertex. A vote carrying a timeout
// signature doubles as a timeout vote for its round.
type Vote struct {
	Author   NodeID
	HighQC   HighQC
	VoteData VoteData
	// Timestamp in milliseconds, used for the weighted timestamp of the QC.
	Timestamp        int64
	Signature        []byte
	TimeoutSignature []byte
}

func (v *Vote) Round() Round {
	return v.VoteData.Proposed.Round
}

func (v *Vote) Epoch() uint64 {
	return v.VoteData.Proposed.Ledger.Epoch
}

func (v *Vote) IsTimeout() bool {
	return v.TimeoutSignature != nil
}

// HashOfData is the hash the vote signature is verified against.
func (v *Vote) HashOfData() Digest {
	return ToBeSignedVote{VoteDataHash: v.VoteData.Hash(), Timestamp: v.Timestamp}.Hash()
}

func (v *Vote) VoteTimeout() VoteTimeout {
	return VoteTimeout{Round: v.Round(), Epoch: v.Epoch()}
}

// Proposal carries a vertex proposed by the leader of its round, signed over
// the vertex hash.
type Proposal struct {
	vertex             VertexWithHash
	highestCommittedQC QuorumCertificate
	highestTC          *TimeoutCertificate
	signature          []byte
}

func NewProposal(vertex VertexWithHash, highestCommittedQC QuorumCertificate, highestTC *TimeoutCertificate, signature []byte) *Proposal {
	return &Proposal{
		vertex:             vertex,
		highestCommittedQC: highestCommittedQC,
		highestTC:          highestTC,
		signature:          signature,
	}
}

func (p *Proposal) Vertex() VertexWithHash {
	return p.vertex
}

func (p *Proposal) Author() NodeID {
	return p.vertex.Proposer()
}

func (p *Proposal) Round() Round {
	return p.vertex.Round()
}

func (p *Proposal) Epoch() uint64 {
	v := p.vertex.Vertex()
	return v.Epoch()
}

func (p *Proposal) Signature() []byte {
	return p.signature
}

// HighQC is formed from the QC to the proposed vertex's parent together with
// the highest committed QC and TC known to the proposer.
func (p *Proposal) HighQC() HighQC {
	v := p.vertex.Vertex()
	return NewHighQC(v.QCToParent, p.highestCommittedQC, p.highestTC)
}
