// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"time"

	"go.uber.org/zap"
)

const (
	// Bounds of an acceptable proposal timestamp around the local time at
	// which the proposal starts being processed. The delay bound is larger
	// to account for network latency.
	MaxProposalTimestampDelay = 3000 * time.Millisecond
	MaxProposalTimestampRush  = 2000 * time.Millisecond

	logProposalTimestampDelay = 2000 * time.Millisecond
	logProposalTimestampRush  = 1200 * time.Millisecond
)

// TimestampVerifier rejects proposals of the current round whose proposer
// timestamp is too far from the local clock or does not move forward from
// the parent's. A rejection is reported as a failure of the round leader.
type TimestampVerifier struct {
	logger     Logger
	metrics    *Metrics
	clock      Clock
	dispatcher Dispatcher
}

func NewTimestampVerifier(logger Logger, clock Clock, dispatcher Dispatcher, metrics *Metrics) *TimestampVerifier {
	return &TimestampVerifier{
		logger:     logger,
		metrics:    metrics,
		clock:      clock,
		dispatcher: dispatcher,
	}
}

func (t *TimestampVerifier) Process(ev Event, next func(Event)) {
	proposal := ev.Proposal
	if proposal == nil {
		next(ev)
		return
	}

	now := t.clock.Now().UnixMilli()
	vertex := proposal.Vertex().Vertex()
	timestamp := vertex.ProposerTimestamp
	parentTimestamp := vertex.ParentLedgerHeader().ProposerTimestamp

	reason := ""
	switch {
	case timestamp < now-MaxProposalTimestampDelay.Milliseconds():
		reason = reasonTooFarPast
	case timestamp > now+MaxProposalTimestampRush.Milliseconds():
		reason = reasonTooFarFuture
	case timestamp <= parentTimestamp:
		reason = reasonNotMonotonic
		t.logger.Info("Rejecting a proposal with a timestamp that does not exceed its parent's",
			zap.Stringer("author", proposal.Author()),
			zap.Stringer("round", proposal.Round()),
			zap.Int64("timestamp", timestamp),
			zap.Int64("parentTimestamp", parentTimestamp))
	}

	if timestamp < now-logProposalTimestampDelay.Milliseconds() || timestamp > now+logProposalTimestampRush.Milliseconds() {
		fields := []zap.Field{
			zap.Stringer("author", proposal.Author()),
			zap.Stringer("round", proposal.Round()),
			zap.Int64("timestamp", timestamp),
			zap.Int64("now", now),
		}
		if reason == "" {
			t.logger.Info("Received a proposal with a timestamp close to being rejected", fields...)
		} else {
			t.logger.Warn("Rejecting a proposal with a timestamp out of the acceptable bounds", fields...)
		}
	}

	if reason != "" {
		t.metrics.rejected(EventProposal, reason)
		t.dispatcher.RoundLeaderFailure(RoundLeaderFailure{
			Round:  proposal.Round(),
			Reason: LeaderFailureProposalTimestampUnacceptable,
		})
		return
	}
	next(ev)
}
