// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrMissingCollaborator = errors.New("missing collaborator")

// PipelineConfig holds everything needed to assemble the round processing
// pipeline of a single epoch.
type PipelineConfig struct {
	Self         NodeID
	Validators   *ValidatorSet
	HashVerifier HashVerifier
	SafetyRules  SafetyRules
	Syncer       Syncer
	Pacemaker    Pacemaker
	VertexStore  VertexStore
	Dispatcher   Dispatcher
	Scheduler    Scheduler
	Clock        Clock
	Logger       Logger
	Config       Config

	// Election enables the proposer-is-leader check when set.
	Election ProposerElection
	// Metrics defaults to collectors registered with a private registry.
	Metrics *Metrics

	// InitialRoundUpdate is the round the epoch starts in.
	InitialRoundUpdate RoundUpdate
}

func (c *PipelineConfig) validate() error {
	var errs error
	missing := func(name string, isNil bool) {
		if isNil {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s", ErrMissingCollaborator, name))
		}
	}
	missing("validators", c.Validators == nil)
	missing("hash verifier", c.HashVerifier == nil)
	missing("safety rules", c.SafetyRules == nil)
	missing("syncer", c.Syncer == nil)
	missing("pacemaker", c.Pacemaker == nil)
	missing("vertex store", c.VertexStore == nil)
	missing("dispatcher", c.Dispatcher == nil)
	missing("scheduler", c.Scheduler == nil)
	missing("clock", c.Clock == nil)
	missing("logger", c.Logger == nil)
	if errs != nil {
		return errs
	}
	return c.Config.Validate()
}

// NewEventProcessor assembles the pipeline of a validator. Nodes outside of
// the validator set get a processor that ignores every event.
func NewEventProcessor(cfg PipelineConfig) (EventProcessor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if !cfg.Validators.Contains(cfg.Self) {
		cfg.Logger.Info("Not a validator of the epoch, ignoring consensus events", zap.Stringer("self", cfg.Self))
		return noopProcessor{}, nil
	}

	metrics := cfg.Metrics
	if metrics == nil {
		var err error
		metrics, err = NewMetrics(prometheus.NewRegistry())
		if err != nil {
			return nil, err
		}
	}

	oneProposalPerRound, err := NewOneProposalPerRoundVerifier(cfg.Logger, metrics, cfg.Config.MaxProposalsTracked)
	if err != nil {
		return nil, err
	}

	initial := cfg.InitialRoundUpdate
	pendingVotes := NewPendingVotes(cfg.Logger, cfg.Validators, cfg.Dispatcher, metrics)
	assembler := NewQuorumAssembler(
		cfg.Logger,
		cfg.Self,
		pendingVotes,
		cfg.Dispatcher,
		cfg.Scheduler,
		cfg.Config.TimeoutQuorumResolutionDelay,
		metrics,
	)

	return NewPipeline(cfg.Logger,
		NewStatelessVerifier(cfg.Logger, cfg.Validators, cfg.HashVerifier, cfg.SafetyRules, cfg.Election, metrics),
		oneProposalPerRound,
		NewSyncUpPreprocessor(cfg.Logger, cfg.Syncer, cfg.Clock, metrics, initial),
		NewStatefulVerifier(cfg.Logger, cfg.Validators, cfg.HashVerifier, cfg.SafetyRules, cfg.Election, metrics, initial),
		NewRoundTimeoutModerator(cfg.Logger, cfg.Scheduler, cfg.Config.AdditionalRoundTimeIfProposalReceived, metrics, initial),
		NewTimestampVerifier(cfg.Logger, cfg.Clock, cfg.Dispatcher, metrics),
		NewReducer(cfg.Logger, cfg.VertexStore, cfg.Pacemaker, cfg.SafetyRules, cfg.Dispatcher, assembler, metrics, initial),
	), nil
}
