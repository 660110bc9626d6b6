// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import "go.uber.org/zap"

// StatefulVerifier re-checks proposals and votes after they were synced up
// and only forwards those of the current round.
type StatefulVerifier struct {
	verifier     *eventVerifier
	metrics      *Metrics
	currentRound Round
}

func NewStatefulVerifier(logger Logger, validators *ValidatorSet, verifier HashVerifier, safetyRules SafetyRules, election ProposerElection, metrics *Metrics, initial RoundUpdate) *StatefulVerifier {
	return &StatefulVerifier{
		verifier: &eventVerifier{
			logger:      logger,
			validators:  validators,
			verifier:    verifier,
			safetyRules: safetyRules,
			election:    election,
		},
		metrics:      metrics,
		currentRound: initial.CurrentRound,
	}
}

func (s *StatefulVerifier) Process(ev Event, next func(Event)) {
	if ev.RoundUpdate != nil {
		s.currentRound = ev.RoundUpdate.CurrentRound
		next(ev)
		return
	}

	msg, ok := ev.message()
	if !ok {
		next(ev)
		return
	}

	kind := ev.Kind()
	if msg.round != s.currentRound {
		s.verifier.logger.Debug("Ignoring an event that is not for the current round",
			zap.Stringer("kind", kind),
			zap.Stringer("author", msg.author),
			zap.Stringer("round", msg.round),
			zap.Stringer("currentRound", s.currentRound))
		s.metrics.rejected(kind, reasonNotCurrentRound)
		return
	}
	if reason := s.verifier.verify(ev); reason != "" {
		s.metrics.rejected(kind, reason)
		return
	}
	next(ev)
}
