// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import "go.uber.org/zap"

type VoteResultKind uint8

const (
	VoteAccepted VoteResultKind = iota
	VoteRejected
	VoteQuorumReached
)

type VoteRejectedReason uint8

const (
	VoteRejectedInvalidAuthor VoteRejectedReason = iota + 1
	VoteRejectedDuplicate
	VoteRejectedStaleRound
)

func (r VoteRejectedReason) String() string {
	switch r {
	case VoteRejectedInvalidAuthor:
		return "invalid_author"
	case VoteRejectedDuplicate:
		return "duplicate_vote"
	case VoteRejectedStaleRound:
		return "stale_round"
	default:
		return "unknown"
	}
}

// VoteResult is the outcome of inserting a vote. Reason is set for rejected
// votes and Quorum for votes that completed a quorum.
type VoteResult struct {
	Kind   VoteResultKind
	Reason VoteRejectedReason
	Quorum RoundQuorum
}

type pendingVoteData struct {
	round    Round
	voteData VoteData
	state    *ValidationState
}

type pendingTimeout struct {
	timeout VoteTimeout
	state   *ValidationState
}

// PendingVotes aggregates votes into quorum and timeout certificates.
// A validator only ever counts towards one vote: a newer vote replaces the
// previous one.
type PendingVotes struct {
	logger     Logger
	metrics    *Metrics
	dispatcher Dispatcher
	validators *ValidatorSet

	voteState        map[Digest]*pendingVoteData
	timeoutVoteState map[Digest]*pendingTimeout
	previousVotes    map[string]PreviousVote
	// votes for rounds below floor can no longer form a useful quorum
	floor Round
}

func NewPendingVotes(logger Logger, validators *ValidatorSet, dispatcher Dispatcher, metrics *Metrics) *PendingVotes {
	return &PendingVotes{
		logger:           logger,
		metrics:          metrics,
		dispatcher:       dispatcher,
		validators:       validators,
		voteState:        make(map[Digest]*pendingVoteData),
		timeoutVoteState: make(map[Digest]*pendingTimeout),
		previousVotes:    make(map[string]PreviousVote),
	}
}

// InsertVote adds [vote] to the pending votes and reports whether it formed a
// quorum. A regular quorum takes precedence over a timeout quorum formed by
// the same vote.
func (p *PendingVotes) InsertVote(vote *Vote) VoteResult {
	if vote.Round() < p.floor {
		return VoteResult{Kind: VoteRejected, Reason: VoteRejectedStaleRound}
	}
	if !p.validators.Contains(vote.Author) {
		return VoteResult{Kind: VoteRejected, Reason: VoteRejectedInvalidAuthor}
	}

	p.checkForDivergentExecution(vote)

	voteDataHash := vote.VoteData.Hash()
	if !p.replacePreviousVote(vote, voteDataHash) {
		return VoteResult{Kind: VoteRejected, Reason: VoteRejectedDuplicate}
	}

	if qc, ok := p.processVoteForQC(vote, voteDataHash); ok {
		return VoteResult{Kind: VoteQuorumReached, Quorum: RegularRoundQuorum(qc)}
	}
	if tc, ok := p.processVoteForTC(vote); ok {
		return VoteResult{Kind: VoteQuorumReached, Quorum: TimeoutRoundQuorum(tc)}
	}
	return VoteResult{Kind: VoteAccepted}
}

func (p *PendingVotes) processVoteForQC(vote *Vote, voteDataHash Digest) (QuorumCertificate, bool) {
	pending, ok := p.voteState[voteDataHash]
	if !ok {
		pending = &pendingVoteData{
			round:    vote.Round(),
			voteData: vote.VoteData,
			state:    p.validators.NewValidationState(),
		}
		p.voteState[voteDataHash] = pending
	}

	if !pending.state.AddSignature(vote.Author, vote.Timestamp, vote.Signature) || !pending.state.Complete() {
		return QuorumCertificate{}, false
	}
	return QuorumCertificate{
		VoteData:   pending.voteData,
		Signatures: pending.state.Signatures(),
	}, true
}

func (p *PendingVotes) processVoteForTC(vote *Vote) (TimeoutCertificate, bool) {
	if !vote.IsTimeout() {
		return TimeoutCertificate{}, false
	}

	timeout := vote.VoteTimeout()
	timeoutHash := timeout.Hash()
	pending, ok := p.timeoutVoteState[timeoutHash]
	if !ok {
		pending = &pendingTimeout{
			timeout: timeout,
			state:   p.validators.NewValidationState(),
		}
		p.timeoutVoteState[timeoutHash] = pending
	}

	if !pending.state.AddSignature(vote.Author, vote.Timestamp, vote.TimeoutSignature) || !pending.state.Complete() {
		return TimeoutCertificate{}, false
	}
	return TimeoutCertificate{
		Epoch:      timeout.Epoch,
		Round:      timeout.Round,
		Signatures: pending.state.Signatures(),
	}, true
}

// replacePreviousVote records [vote] as the latest vote of its author and
// retracts the author's previous signatures. It returns false if the vote
// must not be counted.
func (p *PendingVotes) replacePreviousVote(vote *Vote, voteDataHash Digest) bool {
	author := vote.Author
	current := PreviousVote{
		Round:     vote.Round(),
		Epoch:     vote.Epoch(),
		Hash:      voteDataHash,
		IsTimeout: vote.IsTimeout(),
		Proposed:  vote.VoteData.Proposed,
	}
	previous, ok := p.previousVotes[string(author)]
	p.previousVotes[string(author)] = current
	if !ok {
		return true
	}

	if previous.Round == current.Round &&
		previous.Epoch == current.Epoch &&
		previous.Hash == current.Hash &&
		previous.IsTimeout == current.IsTimeout {
		return false
	}

	if pending, ok := p.voteState[previous.Hash]; ok {
		pending.state.RemoveSignature(author)
		if pending.state.IsEmpty() {
			delete(p.voteState, previous.Hash)
		}
	}
	if previous.IsTimeout {
		timeoutHash := VoteTimeout{Round: previous.Round, Epoch: previous.Epoch}.Hash()
		if pending, ok := p.timeoutVoteState[timeoutHash]; ok {
			pending.state.RemoveSignature(author)
			if pending.state.IsEmpty() {
				delete(p.timeoutVoteState, timeoutHash)
			}
		}
	}

	if previous.Round != current.Round {
		return true
	}

	// In the same round the only valid replacement is a timeout vote for the
	// data previously voted for.
	sameData := previous.Hash == current.Hash
	if !sameData {
		p.logger.Warn("Double vote detected",
			zap.Stringer("author", author),
			zap.Stringer("round", current.Round),
			zap.Stringer("previousVoteData", previous.Hash),
			zap.Stringer("voteData", current.Hash))
		p.metrics.doubleVotes.Inc()
		p.dispatcher.DoubleVote(DoubleVote{
			Author:   author,
			Previous: previous,
			Vote:     vote,
			VoteHash: voteDataHash,
		})
	}
	return sameData && !previous.IsTimeout && current.IsTimeout
}

// checkForDivergentExecution reports votes that claim a different resulting
// ledger header for a vertex than another validator's vote. It has no effect
// on vote processing.
func (p *PendingVotes) checkForDivergentExecution(vote *Vote) {
	proposed := vote.VoteData.Proposed
	for author, other := range p.previousVotes {
		if other.Proposed.VertexID != proposed.VertexID || other.Proposed.Ledger.Equal(proposed.Ledger) {
			continue
		}

		if other.Proposed.Ledger.NextProtocolVersion != proposed.Ledger.NextProtocolVersion {
			p.logger.Info("Received votes enacting conflicting protocol updates, some validators may run an outdated version",
				zap.Stringer("author", vote.Author),
				zap.String("protocolVersion", proposed.Ledger.NextProtocolVersion),
				zap.Stringer("otherAuthor", NodeID(author)),
				zap.String("otherProtocolVersion", other.Proposed.Ledger.NextProtocolVersion))
		} else {
			p.logger.Warn("Divergent vertex execution detected",
				zap.Stringer("author", vote.Author),
				zap.Stringer("vertex", proposed.VertexID),
				zap.Stringer("ledgerHeader", proposed.Ledger.Digest()),
				zap.Stringer("otherAuthor", NodeID(author)),
				zap.Stringer("otherLedgerHeader", other.Proposed.Ledger.Digest()))
		}
		p.metrics.divergentVertexExecutions.Inc()
	}
}

// PruneBelow drops the pending votes of rounds below [round]. Votes for such
// rounds are rejected from then on.
func (p *PendingVotes) PruneBelow(round Round) {
	if round <= p.floor {
		return
	}
	p.floor = round

	for hash, pending := range p.voteState {
		if pending.round < round {
			delete(p.voteState, hash)
		}
	}
	for hash, pending := range p.timeoutVoteState {
		if pending.timeout.Round < round {
			delete(p.timeoutVoteState, hash)
		}
	}
	for author, previous := range p.previousVotes {
		if previous.Round < round {
			delete(p.previousVotes, author)
		}
	}
}
