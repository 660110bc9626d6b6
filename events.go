// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import "time"

// RoundUpdate is emitted by the pacemaker whenever the current round changes.
type RoundUpdate struct {
	CurrentRound Round
	HighQC       HighQC
	Leader       NodeID
	NextLeader   NodeID
}

// InsertUpdate reports that a vertex was inserted into the vertex store and executed.
type InsertUpdate struct {
	Inserted ExecutedVertex
	Header   BFTHeader
}

func NewInsertUpdate(inserted ExecutedVertex) InsertUpdate {
	return InsertUpdate{Inserted: inserted, Header: inserted.Header()}
}

// RebuildUpdate reports that the vertex store was rebuilt from a synced state.
type RebuildUpdate struct {
	State *VertexStoreState
}

type ScheduledLocalTimeout struct {
	Round   Round
	Timeout time.Duration
}

type LeaderFailureReason uint8

const (
	LeaderFailureProposalTimestampUnacceptable LeaderFailureReason = iota + 1
	LeaderFailureProposalRejected
)

func (r LeaderFailureReason) String() string {
	switch r {
	case LeaderFailureProposalTimestampUnacceptable:
		return "proposal_timestamp_unacceptable"
	case LeaderFailureProposalRejected:
		return "proposal_rejected"
	default:
		return "unknown"
	}
}

// RoundLeaderFailure signals that the leader of a round is known to have failed it.
type RoundLeaderFailure struct {
	Round  Round
	Reason LeaderFailureReason
}

// TimeoutQuorumDelayedResolution fires when the delay given to a regular
// quorum to overtake a timeout quorum has passed.
type TimeoutQuorumDelayedResolution struct {
	Round    Round
	Quorum   RoundQuorum
	LastVote *Vote
}

// RoundQuorumReached is dispatched once per round, when the round is resolved.
type RoundQuorumReached struct {
	Quorum   RoundQuorum
	LastVote *Vote
}

// RoundQuorumResolution is dispatched at most once per round, with the quorum
// the round is resolved by.
type RoundQuorumResolution struct {
	Quorum   RoundQuorum
	LastVote *Vote
}

// NoVote is dispatched when the safety rules refused to vote for a vertex.
type NoVote struct {
	Vertex VertexWithHash
}

type PreviousVote struct {
	Round     Round
	Epoch     uint64
	Hash      Digest
	IsTimeout bool
	Proposed  BFTHeader
}

// DoubleVote is dispatched when a validator votes twice in a round for different data.
type DoubleVote struct {
	Author   NodeID
	Previous PreviousVote
	Vote     *Vote
	VoteHash Digest
}

type EventKind uint8

const (
	EventUnknown EventKind = iota
	EventProposal
	EventVote
	EventRoundUpdate
	EventInsertUpdate
	EventRebuildUpdate
	EventLocalTimeout
	EventLeaderFailure
	EventDelayedResolution
	EventUnsyncedProposal
	EventUnsyncedVote
)

var eventKindNames = map[EventKind]string{
	EventUnknown:           "unknown",
	EventProposal:          "proposal",
	EventVote:              "vote",
	EventRoundUpdate:       "round_update",
	EventInsertUpdate:      "insert_update",
	EventRebuildUpdate:     "rebuild_update",
	EventLocalTimeout:      "local_timeout",
	EventLeaderFailure:     "leader_failure",
	EventDelayedResolution: "delayed_resolution",
	EventUnsyncedProposal:  "unsynced_proposal",
	EventUnsyncedVote:      "unsynced_vote",
}

func (k EventKind) String() string {
	return eventKindNames[k]
}

// Event is the single input type of the pipeline. Exactly one field is set.
// Unsynced proposals and votes are previews of messages that have not been
// synced up yet, emitted so later stages can observe them early.
type Event struct {
	Proposal          *Proposal
	Vote              *Vote
	RoundUpdate       *RoundUpdate
	InsertUpdate      *InsertUpdate
	RebuildUpdate     *RebuildUpdate
	LocalTimeout      *ScheduledLocalTimeout
	LeaderFailure     *RoundLeaderFailure
	DelayedResolution *TimeoutQuorumDelayedResolution
	UnsyncedProposal  *Proposal
	UnsyncedVote      *Vote
}

func (e *Event) Kind() EventKind {
	switch {
	case e.Proposal != nil:
		return EventProposal
	case e.Vote != nil:
		return EventVote
	case e.RoundUpdate != nil:
		return EventRoundUpdate
	case e.InsertUpdate != nil:
		return EventInsertUpdate
	case e.RebuildUpdate != nil:
		return EventRebuildUpdate
	case e.LocalTimeout != nil:
		return EventLocalTimeout
	case e.LeaderFailure != nil:
		return EventLeaderFailure
	case e.DelayedResolution != nil:
		return EventDelayedResolution
	case e.UnsyncedProposal != nil:
		return EventUnsyncedProposal
	case e.UnsyncedVote != nil:
		return EventUnsyncedVote
	default:
		return EventUnknown
	}
}

// Round returns the round the event refers to. Rebuild updates and unknown
// events report the genesis round.
func (e *Event) Round() Round {
	switch e.Kind() {
	case EventProposal:
		return e.Proposal.Round()
	case EventVote:
		return e.Vote.Round()
	case EventRoundUpdate:
		return e.RoundUpdate.CurrentRound
	case EventInsertUpdate:
		return e.InsertUpdate.Header.Round
	case EventLocalTimeout:
		return e.LocalTimeout.Round
	case EventLeaderFailure:
		return e.LeaderFailure.Round
	case EventDelayedResolution:
		return e.DelayedResolution.Round
	case EventUnsyncedProposal:
		return e.UnsyncedProposal.Round()
	case EventUnsyncedVote:
		return e.UnsyncedVote.Round()
	default:
		return GenesisRound
	}
}

// consensusMessage is the common view of proposals and votes.
type consensusMessage struct {
	author NodeID
	round  Round
	highQC HighQC
}

func (e *Event) message() (consensusMessage, bool) {
	switch {
	case e.Proposal != nil:
		return consensusMessage{author: e.Proposal.Author(), round: e.Proposal.Round(), highQC: e.Proposal.HighQC()}, true
	case e.Vote != nil:
		return consensusMessage{author: e.Vote.Author, round: e.Vote.Round(), highQC: e.Vote.HighQC}, true
	default:
		return consensusMessage{}, false
	}
}
