// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luxfi/vertexbft/cmd/vertexbft/config"
	"github.com/luxfi/vertexbft/cmd/vertexbft/inspect"
)

func main() {
	cmd := &cobra.Command{
		Use:          "vertexbft",
		Short:        "Tools for the vertexbft consensus core",
		SilenceUsage: true,
	}
	cmd.AddCommand(
		config.Command(),
		inspect.Command(),
	)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "command failed %v\n", err)
		os.Exit(1)
	}
}
