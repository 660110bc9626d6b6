// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"time"

	"go.uber.org/zap"
)

type Logger interface {
	// Log that a fatal error has occurred. The program should likely exit soon
	// after this is called
	Fatal(msg string, fields ...zap.Field)
	// Log that an error has occurred. The program should be able to recover
	// from this error
	Error(msg string, fields ...zap.Field)
	// Log that an event has occurred that may indicate a future error or
	// vulnerability
	Warn(msg string, fields ...zap.Field)
	// Log an event that may be useful for a user to see to measure the progress
	// of the protocol
	Info(msg string, fields ...zap.Field)
	// Log an event that may be useful for understanding the order of the
	// execution of the protocol
	Trace(msg string, fields ...zap.Field)
	// Log an event that may be useful for a programmer to see when debuging the
	// execution of the protocol
	Debug(msg string, fields ...zap.Field)
	// Log extremely detailed events that can be useful for inspecting every
	// aspect of the program
	Verbo(msg string, fields ...zap.Field)
}

// HashVerifier verifies a signature of a validator over a content hash.
type HashVerifier interface {
	Verify(publicKey []byte, hash Digest, signature []byte) bool
}

// SafetyRules decides whether it is safe to vote and which QCs to trust.
type SafetyRules interface {
	// VerifyHighQCAgainstValidatorSet returns whether every certificate carried
	// by [highQC] is signed by enough of the current validators.
	VerifyHighQCAgainstValidatorSet(highQC HighQC) bool

	// LastVote returns the vote this node has cast in [round], if any.
	LastVote(round Round) (*Vote, bool)

	// CreateVote returns a vote for the given executed vertex, or false if it
	// is not safe to vote for it right now. A refusal is not an error.
	CreateVote(vertex VertexWithHash, header BFTHeader, timeOfExecution int64, highQC HighQC) (*Vote, bool)
}

type SyncResult uint8

const (
	// SyncResultSynced means the prerequisite of the HighQC is present locally.
	SyncResultSynced SyncResult = iota
	// SyncResultInvalid means the HighQC cannot be synced to and the event must be dropped.
	SyncResultInvalid
	// SyncResultInProgress means a remote fetch was started. An insert or
	// rebuild update follows once it completes.
	SyncResultInProgress
)

func (s SyncResult) String() string {
	switch s {
	case SyncResultSynced:
		return "synced"
	case SyncResultInvalid:
		return "invalid"
	case SyncResultInProgress:
		return "in_progress"
	default:
		return "unknown"
	}
}

type HighQCSource uint8

const (
	HighQCSourceProposal HighQCSource = iota
	HighQCSourceVote
)

// Syncer reconciles the local vertex store against a remote HighQC.
type Syncer interface {
	SyncToQC(highQC HighQC, author NodeID, source HighQCSource) SyncResult
}

// Pacemaker owns the round advancement policy.
type Pacemaker interface {
	Start()
	ProcessRoundUpdate(update RoundUpdate)
	ProcessInsertUpdate(update InsertUpdate)
	ProcessLocalTimeout(timeout ScheduledLocalTimeout)
	ProcessRoundLeaderFailure(failure RoundLeaderFailure)
}

// VertexStore accepts proposed vertices. Execution happens elsewhere and is
// reported back through an InsertUpdate.
type VertexStore interface {
	InsertVertex(vertex VertexWithHash)
}

// ProposerElection maps a round to the validator expected to propose in it.
type ProposerElection interface {
	Leader(round Round) NodeID
}

// Dispatcher carries the outbound events of the pipeline. All methods are
// fire-and-forget and must not block.
type Dispatcher interface {
	// SendVote sends a vote to the given destination node
	SendVote(destination NodeID, vote *Vote)
	RoundQuorumReached(event RoundQuorumReached)
	RoundQuorumResolution(event RoundQuorumResolution)
	NoVote(event NoVote)
	RoundLeaderFailure(event RoundLeaderFailure)
	DoubleVote(event DoubleVote)
}

// Scheduler dispatches events back into the pipeline after a delay.
// Scheduled events cannot be cancelled.
type Scheduler interface {
	ScheduleLocalTimeout(timeout ScheduledLocalTimeout, delay time.Duration)
	ScheduleDelayedResolution(resolution TimeoutQuorumDelayedResolution, delay time.Duration)
}

type Clock interface {
	Now() time.Time
}

type WriteAheadLog interface {
	Append([]byte) error
	ReadAll() ([][]byte, error)
}
