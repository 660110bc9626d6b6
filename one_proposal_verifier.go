// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

type seenProposal struct {
	author   NodeID
	vertexID Digest
}

// OneProposalPerRoundVerifier forwards at most one proposal per round.
type OneProposalPerRoundVerifier struct {
	logger  Logger
	metrics *Metrics
	seen    *lru.Cache[Round, seenProposal]
}

func NewOneProposalPerRoundVerifier(logger Logger, metrics *Metrics, maxRounds int) (*OneProposalPerRoundVerifier, error) {
	seen, err := lru.New[Round, seenProposal](maxRounds)
	if err != nil {
		return nil, fmt.Errorf("failed creating proposal cache: %w", err)
	}
	return &OneProposalPerRoundVerifier{
		logger:  logger,
		metrics: metrics,
		seen:    seen,
	}, nil
}

func (o *OneProposalPerRoundVerifier) Process(ev Event, next func(Event)) {
	proposal := ev.Proposal
	if proposal == nil {
		next(ev)
		return
	}

	round := proposal.Round()
	vertexID := proposal.Vertex().Hash()
	if previous, ok := o.seen.Get(round); ok {
		if previous.vertexID != vertexID {
			o.logger.Warn("Received a second, different proposal for a round",
				zap.Stringer("round", round),
				zap.Stringer("author", proposal.Author()),
				zap.Stringer("previousAuthor", previous.author),
				zap.Stringer("vertex", vertexID),
				zap.Stringer("previousVertex", previous.vertexID))
		} else {
			o.logger.Debug("Ignoring a duplicate proposal", zap.Stringer("round", round), zap.Stringer("vertex", vertexID))
		}
		o.metrics.rejected(EventProposal, reasonDuplicateProposal)
		return
	}

	o.seen.Add(round, seenProposal{author: proposal.Author(), vertexID: vertexID})
	next(ev)
}
