// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package inspect

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luxfi/vertexbft"
	"github.com/luxfi/vertexbft/wal"
)

const (
	WALKey     = "wal"
	VerboseKey = "verbose"
)

var errMissingWAL = errors.New("missing --" + WALKey)

func Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "inspect",
		Short: "Prints the latest vertex store snapshot of a write ahead log",
		RunE:  inspectFunc,
	}
	AddFlags(c.Flags())
	return c
}

func AddFlags(flags *pflag.FlagSet) {
	flags.String(WALKey, "", "Path of the snapshot write ahead log (required)")
	flags.Bool(VerboseKey, false, "Lists every vertex of the snapshot")
}

func inspectFunc(c *cobra.Command, _ []string) (err error) {
	flags := c.Flags()
	path, err := flags.GetString(WALKey)
	if err != nil {
		return err
	}
	if path == "" {
		return errMissingWAL
	}
	verbose, err := flags.GetBool(VerboseKey)
	if err != nil {
		return err
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() {
		// syncing stderr fails on some platforms
		_ = log.Sync()
	}()

	w, err := wal.New(path)
	if err != nil {
		return fmt.Errorf("failed opening %q: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, w.Close())
	}()

	state, err := bft.NewSnapshotStore(bft.NewZapLogger(log), w).LoadLatest()
	if err != nil {
		return err
	}
	Print(c, state, verbose)
	return nil
}

// Print writes a summary of [state] to the command output.
func Print(c *cobra.Command, state *bft.VertexStoreState, verbose bool) {
	out := c.OutOrStdout()
	root := state.Root()
	highQC := state.HighQC()
	fmt.Fprintf(out, "root:             %s (round %s)\n", root.Hash(), root.Round())
	fmt.Fprintf(out, "epoch:            %d\n", state.RootProof().Header.Epoch)
	fmt.Fprintf(out, "highest QC:       round %s\n", highQC.HighestQC.Round())
	fmt.Fprintf(out, "highest commit:   round %s\n", highQC.HighestCommittedQC.Round())
	if highQC.HighestTC != nil {
		fmt.Fprintf(out, "highest TC:       round %s\n", highQC.HighestTC.Round)
	}
	fmt.Fprintf(out, "vertices:         %d\n", len(state.Vertices()))
	if !verbose {
		return
	}
	for _, v := range state.Vertices() {
		fmt.Fprintf(out, "  %s round %s parent %s\n", v.Hash(), v.Round(), v.ParentID())
	}
}
