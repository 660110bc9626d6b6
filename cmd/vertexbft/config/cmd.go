// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/luxfi/vertexbft"
)

const (
	ConfigFileKey = "config-file"
	EnvPrefix     = "vertexbft"
)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Prints the pipeline configuration resolved from flags, environment and config file",
		RunE:  configFunc,
	}
	AddFlags(c.Flags())
	return c
}

func AddFlags(flags *pflag.FlagSet) {
	def := bft.DefaultConfig()
	flags.String(ConfigFileKey, "", "Path to a configuration file")
	flags.Duration(bft.TimeoutQuorumResolutionDelayKey, def.TimeoutQuorumResolutionDelay, "How long a timeout quorum waits for a regular quorum before resolving the round")
	flags.Duration(bft.AdditionalRoundTimeIfProposalReceivedKey, def.AdditionalRoundTimeIfProposalReceived, "How much a round timeout is extended when a decision looks imminent")
	flags.Int(bft.MaxProposalsTrackedKey, def.MaxProposalsTracked, "How many rounds the one proposal per round check remembers")
}

// Load resolves the pipeline configuration. Flags take precedence over
// VERTEXBFT_ prefixed environment variables, which take precedence over the
// config file.
func Load(flags *pflag.FlagSet) (bft.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return bft.Config{}, err
	}

	if path := v.GetString(ConfigFileKey); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return bft.Config{}, fmt.Errorf("failed reading config file %q: %w", path, err)
		}
	}
	return bft.LoadConfig(v)
}

func configFunc(c *cobra.Command, _ []string) error {
	cfg, err := Load(c.Flags())
	if err != nil {
		return err
	}

	out := c.OutOrStdout()
	fmt.Fprintf(out, "%s: %s\n", bft.TimeoutQuorumResolutionDelayKey, cfg.TimeoutQuorumResolutionDelay)
	fmt.Fprintf(out, "%s: %s\n", bft.AdditionalRoundTimeIfProposalReceivedKey, cfg.AdditionalRoundTimeIfProposalReceived)
	fmt.Fprintf(out, "%s: %d\n", bft.MaxProposalsTrackedKey, cfg.MaxProposalsTracked)
	return nil
}
