// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"time"

	"go.uber.org/zap"
)

type bestQuorum struct {
	quorum   RoundQuorum
	lastVote *Vote
}

// roundState is the voting state of a single round. It is replaced on every
// round update and never carried over to the next round.
type roundState struct {
	update                     RoundUpdate
	quorumResolved             bool
	leaderFailed               bool
	best                       *bestQuorum
	delayedResolutionScheduled bool
}

func newRoundState(update RoundUpdate) *roundState {
	return &roundState{update: update}
}

// QuorumAssembler feeds the votes of the current round to the pending votes
// and resolves the round with the first quorum that is allowed to resolve it.
// A timeout quorum may be held back for a while to give a regular quorum a
// chance to form.
type QuorumAssembler struct {
	logger       Logger
	metrics      *Metrics
	dispatcher   Dispatcher
	scheduler    Scheduler
	pendingVotes *PendingVotes
	self         NodeID
	// resolutionDelay is how long a timeout quorum waits before it resolves
	// the round
	resolutionDelay time.Duration
}

func NewQuorumAssembler(
	logger Logger,
	self NodeID,
	pendingVotes *PendingVotes,
	dispatcher Dispatcher,
	scheduler Scheduler,
	resolutionDelay time.Duration,
	metrics *Metrics,
) *QuorumAssembler {
	return &QuorumAssembler{
		logger:          logger,
		metrics:         metrics,
		dispatcher:      dispatcher,
		scheduler:       scheduler,
		pendingVotes:    pendingVotes,
		self:            self,
		resolutionDelay: resolutionDelay,
	}
}

func (a *QuorumAssembler) processVote(state *roundState, vote *Vote) {
	if state.quorumResolved {
		a.logger.Trace("Ignoring a vote for an already resolved round",
			zap.Stringer("author", vote.Author), zap.Stringer("round", vote.Round()))
		a.metrics.ignoredVotes.WithLabelValues(reasonQuorumResolved).Inc()
		return
	}

	// regular votes are only sent to the next leader, timeout votes are broadcast
	if !a.self.Equals(state.update.NextLeader) && !vote.IsTimeout() {
		a.logger.Debug("Ignoring a regular vote while not being the next leader",
			zap.Stringer("author", vote.Author),
			zap.Stringer("round", vote.Round()),
			zap.Stringer("nextLeader", state.update.NextLeader))
		a.metrics.ignoredVotes.WithLabelValues(reasonUnexpectedVote).Inc()
		return
	}

	result := a.pendingVotes.InsertVote(vote)
	a.metrics.processedVotes.Inc()

	switch result.Kind {
	case VoteAccepted:
		a.logger.Trace("Vote accepted",
			zap.Stringer("author", vote.Author), zap.Stringer("round", vote.Round()), zap.Bool("timeout", vote.IsTimeout()))
	case VoteRejected:
		a.logger.Debug("Vote rejected",
			zap.Stringer("author", vote.Author), zap.Stringer("round", vote.Round()), zap.Stringer("reason", result.Reason))
	case VoteQuorumReached:
		a.processQuorum(state, result.Quorum, vote)
	}
}

func (a *QuorumAssembler) processQuorum(state *roundState, quorum RoundQuorum, lastVote *Vote) {
	a.metrics.quorumsReached.WithLabelValues(quorumKind(quorum)).Inc()
	if quorum.IsRegular() || a.resolutionDelay <= 0 {
		state.best = &bestQuorum{quorum: quorum, lastVote: lastVote}
		a.resolve(state, quorum, lastVote)
		return
	}

	// a newer timeout quorum carries more signatures
	state.best = &bestQuorum{quorum: quorum, lastVote: lastVote}
	if state.delayedResolutionScheduled {
		return
	}

	state.delayedResolutionScheduled = true
	a.logger.Debug("Postponing the resolution of a timeout quorum",
		zap.Stringer("round", quorum.Round()), zap.Duration("delay", a.resolutionDelay))
	a.metrics.postponedRoundQuorums.Inc()
	a.scheduler.ScheduleDelayedResolution(TimeoutQuorumDelayedResolution{
		Round:    quorum.Round(),
		Quorum:   quorum,
		LastVote: lastVote,
	}, a.resolutionDelay)
}

func (a *QuorumAssembler) processDelayedResolution(state *roundState, resolution TimeoutQuorumDelayedResolution) {
	if resolution.Round != state.update.CurrentRound {
		a.logger.Debug("Ignoring a delayed quorum resolution for another round",
			zap.Stringer("round", resolution.Round), zap.Stringer("currentRound", state.update.CurrentRound))
		return
	}
	if state.quorumResolved {
		a.logger.Debug("Ignoring a delayed quorum resolution for an already resolved round",
			zap.Stringer("round", resolution.Round))
		return
	}

	quorum, lastVote := resolution.Quorum, resolution.LastVote
	if state.best != nil {
		quorum, lastVote = state.best.quorum, state.best.lastVote
	}
	a.resolve(state, quorum, lastVote)
}

// resolve marks the round resolved and reports its quorum, once per round.
func (a *QuorumAssembler) resolve(state *roundState, quorum RoundQuorum, lastVote *Vote) {
	state.quorumResolved = true
	a.logger.Debug("Round resolved", zap.Stringer("round", quorum.Round()), zap.Stringer("quorum", quorum))
	a.metrics.quorumResolutions.WithLabelValues(quorumKind(quorum)).Inc()
	a.dispatcher.RoundQuorumReached(RoundQuorumReached{Quorum: quorum, LastVote: lastVote})
	a.dispatcher.RoundQuorumResolution(RoundQuorumResolution{Quorum: quorum, LastVote: lastVote})
}
