// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import "go.uber.org/zap"

// Reducer is the last stage of the pipeline. It decides when this node votes
// and hands the resulting signals over to the pacemaker. It only ever sees
// events of the current round.
type Reducer struct {
	logger      Logger
	metrics     *Metrics
	vertexStore VertexStore
	pacemaker   Pacemaker
	safetyRules SafetyRules
	dispatcher  Dispatcher
	assembler   *QuorumAssembler

	round        *roundState
	latestInsert *InsertUpdate
}

func NewReducer(
	logger Logger,
	vertexStore VertexStore,
	pacemaker Pacemaker,
	safetyRules SafetyRules,
	dispatcher Dispatcher,
	assembler *QuorumAssembler,
	metrics *Metrics,
	initial RoundUpdate,
) *Reducer {
	return &Reducer{
		logger:      logger,
		metrics:     metrics,
		vertexStore: vertexStore,
		pacemaker:   pacemaker,
		safetyRules: safetyRules,
		dispatcher:  dispatcher,
		assembler:   assembler,
		round:       newRoundState(initial),
	}
}

func (r *Reducer) Start() {
	r.pacemaker.Start()
}

func (r *Reducer) Process(ev Event, _ func(Event)) {
	switch {
	case ev.Proposal != nil:
		r.processProposal(ev.Proposal)
	case ev.Vote != nil:
		r.assembler.processVote(r.round, ev.Vote)
	case ev.RoundUpdate != nil:
		r.processRoundUpdate(*ev.RoundUpdate)
	case ev.InsertUpdate != nil:
		r.processInsertUpdate(ev.InsertUpdate)
	case ev.RebuildUpdate != nil:
		r.logger.Trace("Vertex store rebuilt", zap.Stringer("root", ev.RebuildUpdate.State.Root().Hash()))
	case ev.LocalTimeout != nil:
		r.round.leaderFailed = true
		r.pacemaker.ProcessLocalTimeout(*ev.LocalTimeout)
	case ev.LeaderFailure != nil:
		r.round.leaderFailed = true
		r.pacemaker.ProcessRoundLeaderFailure(*ev.LeaderFailure)
	case ev.DelayedResolution != nil:
		r.assembler.processDelayedResolution(r.round, *ev.DelayedResolution)
	default:
		r.logger.Verbo("Reducer ignoring event", zap.Stringer("kind", ev.Kind()))
	}
}

func (r *Reducer) currentRound() Round {
	return r.round.update.CurrentRound
}

func (r *Reducer) processProposal(proposal *Proposal) {
	r.logger.Trace("Inserting proposed vertex",
		zap.Stringer("round", proposal.Round()), zap.Stringer("vertex", proposal.Vertex().Hash()))
	r.vertexStore.InsertVertex(proposal.Vertex())
	r.metrics.processedProposals.Inc()
}

func (r *Reducer) processInsertUpdate(update *InsertUpdate) {
	if update.Header.Round < r.currentRound() {
		r.logger.Trace("Ignoring an insert update for a past round",
			zap.Stringer("round", update.Header.Round), zap.Stringer("currentRound", r.currentRound()))
		return
	}

	r.latestInsert = update
	r.tryVote()
	r.pacemaker.ProcessInsertUpdate(*update)
}

func (r *Reducer) processRoundUpdate(update RoundUpdate) {
	r.logger.Trace("Starting round", zap.Stringer("round", update.CurrentRound), zap.Stringer("leader", update.Leader))
	r.round = newRoundState(update)
	r.assembler.pendingVotes.PruneBelow(update.CurrentRound)
	r.pacemaker.ProcessRoundUpdate(update)
	// the insert update may have arrived before the round update
	r.tryVote()
}

func (r *Reducer) tryVote() {
	insert := r.latestInsert
	if insert == nil || insert.Header.Round != r.currentRound() {
		return
	}
	if _, voted := r.safetyRules.LastVote(r.currentRound()); voted {
		return
	}
	if r.round.leaderFailed {
		r.logger.Debug("Not voting, the leader failed the round", zap.Stringer("round", r.currentRound()))
		return
	}

	executed := insert.Inserted
	vote, ok := r.safetyRules.CreateVote(executed.Vertex(), insert.Header, executed.TimeOfExecution(), r.round.update.HighQC)
	if !ok {
		r.logger.Debug("Safety rules refused to vote",
			zap.Stringer("round", r.currentRound()), zap.Stringer("vertex", executed.Hash()))
		r.metrics.noVotes.Inc()
		r.dispatcher.NoVote(NoVote{Vertex: executed.Vertex()})
		return
	}

	r.logger.Debug("Voting", zap.Stringer("round", r.currentRound()), zap.Stringer("vertex", executed.Hash()))
	r.dispatcher.SendVote(r.round.update.NextLeader, vote)
}
