// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	TimeoutQuorumResolutionDelayKey          = "timeout_quorum_resolution_delay"
	AdditionalRoundTimeIfProposalReceivedKey = "additional_round_time_if_proposal_received"
	MaxProposalsTrackedKey                   = "max_proposals_tracked"

	DefaultTimeoutQuorumResolutionDelay          = 0 * time.Second
	DefaultAdditionalRoundTimeIfProposalReceived = 30 * time.Second
	DefaultMaxProposalsTracked                   = 1024
)

var (
	errNegativeDuration = errors.New("duration must not be negative")
	errInvalidCacheSize = errors.New("cache size must be positive")
)

// Config holds the tunables of the round processing pipeline.
type Config struct {
	// TimeoutQuorumResolutionDelay is how long a timeout quorum waits for a
	// regular quorum to form before the round is resolved with it.
	// Zero resolves timeout quorums immediately.
	TimeoutQuorumResolutionDelay time.Duration `mapstructure:"timeout_quorum_resolution_delay"`
	// AdditionalRoundTimeIfProposalReceived extends a round's timeout once when
	// a decision for the round looks imminent. Zero disables extensions.
	AdditionalRoundTimeIfProposalReceived time.Duration `mapstructure:"additional_round_time_if_proposal_received"`
	// MaxProposalsTracked bounds how many rounds the one proposal per round
	// check remembers.
	MaxProposalsTracked int `mapstructure:"max_proposals_tracked"`
}

func DefaultConfig() Config {
	return Config{
		TimeoutQuorumResolutionDelay:          DefaultTimeoutQuorumResolutionDelay,
		AdditionalRoundTimeIfProposalReceived: DefaultAdditionalRoundTimeIfProposalReceived,
		MaxProposalsTracked:                   DefaultMaxProposalsTracked,
	}
}

func (c Config) Validate() error {
	if c.TimeoutQuorumResolutionDelay < 0 {
		return fmt.Errorf("%s: %w", TimeoutQuorumResolutionDelayKey, errNegativeDuration)
	}
	if c.AdditionalRoundTimeIfProposalReceived < 0 {
		return fmt.Errorf("%s: %w", AdditionalRoundTimeIfProposalReceivedKey, errNegativeDuration)
	}
	if c.MaxProposalsTracked <= 0 {
		return fmt.Errorf("%s: %w", MaxProposalsTrackedKey, errInvalidCacheSize)
	}
	return nil
}

// SetConfigDefaults registers the default values of Config with [v].
func SetConfigDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault(TimeoutQuorumResolutionDelayKey, def.TimeoutQuorumResolutionDelay)
	v.SetDefault(AdditionalRoundTimeIfProposalReceivedKey, def.AdditionalRoundTimeIfProposalReceived)
	v.SetDefault(MaxProposalsTrackedKey, def.MaxProposalsTracked)
}

// LoadConfig reads Config from [v], falling back to the defaults for unset keys.
func LoadConfig(v *viper.Viper) (Config, error) {
	SetConfigDefaults(v)

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("failed decoding config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
