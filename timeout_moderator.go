// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"time"

	"github.com/google/btree"
	"go.uber.org/zap"
)

// RoundTimeoutModerator delays a local round timeout once per round when a
// decision for the round looks imminent: a QC for the round or a later one
// was seen but not synced up yet, or a proposal for the round or the next
// one was received.
type RoundTimeoutModerator struct {
	logger         Logger
	metrics        *Metrics
	scheduler      Scheduler
	additionalTime time.Duration

	currentRound        Round
	highestKnownQCRound Round
	proposalRounds      *btree.BTreeG[Round]
	canExtend           bool
}

func NewRoundTimeoutModerator(logger Logger, scheduler Scheduler, additionalTime time.Duration, metrics *Metrics, initial RoundUpdate) *RoundTimeoutModerator {
	return &RoundTimeoutModerator{
		logger:              logger,
		metrics:             metrics,
		scheduler:           scheduler,
		additionalTime:      additionalTime,
		currentRound:        initial.CurrentRound,
		highestKnownQCRound: initial.HighQC.HighestRound(),
		proposalRounds:      btree.NewOrderedG[Round](defaultTreeDegree),
		canExtend:           true,
	}
}

func (m *RoundTimeoutModerator) Process(ev Event, next func(Event)) {
	switch {
	case ev.UnsyncedProposal != nil:
		p := ev.UnsyncedProposal
		m.observeHighQC(p.HighQC())
		if p.Round() >= m.currentRound {
			m.proposalRounds.ReplaceOrInsert(p.Round())
		}
	case ev.UnsyncedVote != nil:
		m.observeHighQC(ev.UnsyncedVote.HighQC)
	case ev.RoundUpdate != nil:
		m.processRoundUpdate(ev.RoundUpdate)
		next(ev)
	case ev.LocalTimeout != nil:
		if m.tryExtend(*ev.LocalTimeout) {
			return
		}
		next(ev)
	default:
		next(ev)
	}
}

func (m *RoundTimeoutModerator) observeHighQC(highQC HighQC) {
	if round := highQC.HighestRound(); round > m.highestKnownQCRound {
		m.highestKnownQCRound = round
	}
}

func (m *RoundTimeoutModerator) processRoundUpdate(update *RoundUpdate) {
	m.currentRound = update.CurrentRound
	m.observeHighQC(update.HighQC)
	m.canExtend = true
	for {
		lowest, ok := m.proposalRounds.Min()
		if !ok || lowest >= m.currentRound {
			break
		}
		m.proposalRounds.DeleteMin()
	}
}

// tryExtend returns true if [timeout] was re-scheduled instead of forwarded.
func (m *RoundTimeoutModerator) tryExtend(timeout ScheduledLocalTimeout) bool {
	round := timeout.Round
	if round != m.currentRound {
		return false
	}

	canExtend := m.canExtend
	m.canExtend = false

	decisionLikely := m.highestKnownQCRound >= round ||
		m.proposalRounds.Has(round) ||
		m.proposalRounds.Has(round.Next())
	if !decisionLikely || !canExtend || m.additionalTime <= 0 {
		return false
	}

	m.logger.Debug("Extending the round timeout",
		zap.Stringer("round", round),
		zap.Stringer("highestKnownQCRound", m.highestKnownQCRound),
		zap.Duration("additionalTime", m.additionalTime))
	m.metrics.extendedRoundTimeouts.Inc()
	m.scheduler.ScheduleLocalTimeout(ScheduledLocalTimeout{
		Round:   round,
		Timeout: timeout.Timeout + m.additionalTime,
	}, m.additionalTime)
	return true
}
