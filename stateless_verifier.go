// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import "go.uber.org/zap"

// eventVerifier holds the signature and authorship checks shared by the
// stateless and stateful verifiers.
type eventVerifier struct {
	logger      Logger
	validators  *ValidatorSet
	verifier    HashVerifier
	safetyRules SafetyRules
	// optional
	election ProposerElection
}

// verify returns the reason [ev] must be dropped, or "" if it is valid.
// Events other than proposals and votes are always valid.
func (v *eventVerifier) verify(ev Event) string {
	switch {
	case ev.Proposal != nil:
		return v.verifyProposal(ev.Proposal)
	case ev.Vote != nil:
		return v.verifyVote(ev.Vote)
	default:
		return ""
	}
}

func (v *eventVerifier) verifyProposal(proposal *Proposal) string {
	author := proposal.Author()
	validator, ok := v.validators.Validator(author)
	if !ok {
		v.logger.Debug("Ignoring a proposal from a node that is not a validator",
			zap.Stringer("author", author), zap.Stringer("round", proposal.Round()))
		return reasonInvalidAuthor
	}

	if v.election != nil {
		if leader := v.election.Leader(proposal.Round()); !leader.Equals(author) {
			v.logger.Debug("Ignoring a proposal from a node that is not the round leader",
				zap.Stringer("author", author), zap.Stringer("leader", leader), zap.Stringer("round", proposal.Round()))
			return reasonUnexpectedProposer
		}
	}

	if !v.verifier.Verify(validator.PublicKey, proposal.Vertex().Hash(), proposal.Signature()) {
		v.logger.Debug("Ignoring a proposal with an invalid signature",
			zap.Stringer("author", author), zap.Stringer("round", proposal.Round()))
		return reasonInvalidSignature
	}

	if !v.safetyRules.VerifyHighQCAgainstValidatorSet(proposal.HighQC()) {
		v.logger.Debug("Ignoring a proposal with an invalid high QC",
			zap.Stringer("author", author), zap.Stringer("round", proposal.Round()))
		return reasonInvalidHighQC
	}

	return ""
}

func (v *eventVerifier) verifyVote(vote *Vote) string {
	validator, ok := v.validators.Validator(vote.Author)
	if !ok {
		v.logger.Debug("Ignoring a vote from a node that is not a validator",
			zap.Stringer("author", vote.Author), zap.Stringer("round", vote.Round()))
		return reasonInvalidAuthor
	}

	if !v.verifier.Verify(validator.PublicKey, vote.HashOfData(), vote.Signature) {
		v.logger.Debug("Ignoring a vote with an invalid signature",
			zap.Stringer("author", vote.Author), zap.Stringer("round", vote.Round()))
		return reasonInvalidSignature
	}

	if vote.IsTimeout() && !v.verifier.Verify(validator.PublicKey, vote.VoteTimeout().Hash(), vote.TimeoutSignature) {
		v.logger.Debug("Ignoring a vote with an invalid timeout signature",
			zap.Stringer("author", vote.Author), zap.Stringer("round", vote.Round()))
		return reasonInvalidTimeoutSignature
	}

	if !v.safetyRules.VerifyHighQCAgainstValidatorSet(vote.HighQC) {
		v.logger.Debug("Ignoring a vote with an invalid high QC",
			zap.Stringer("author", vote.Author), zap.Stringer("round", vote.Round()))
		return reasonInvalidHighQC
	}

	return ""
}

// StatelessVerifier drops proposals and votes that fail checks which only
// depend on the message and the validator set of the epoch.
type StatelessVerifier struct {
	verifier *eventVerifier
	metrics  *Metrics
}

func NewStatelessVerifier(logger Logger, validators *ValidatorSet, verifier HashVerifier, safetyRules SafetyRules, election ProposerElection, metrics *Metrics) *StatelessVerifier {
	return &StatelessVerifier{
		verifier: &eventVerifier{
			logger:      logger,
			validators:  validators,
			verifier:    verifier,
			safetyRules: safetyRules,
			election:    election,
		},
		metrics: metrics,
	}
}

func (s *StatelessVerifier) Process(ev Event, next func(Event)) {
	kind := ev.Kind()
	if kind == EventProposal || kind == EventVote {
		if reason := s.verifier.verify(ev); reason != "" {
			s.metrics.rejected(kind, reason)
			return
		}
		s.metrics.verified(kind)
	}
	next(ev)
}
