// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import "strconv"

// Round identifies a single attempt to agree on the next vertex.
type Round uint64

const GenesisRound Round = 0

func (r Round) Next() Round {
	return r + 1
}

// Previous returns the preceding round, or the genesis round for the genesis round.
func (r Round) Previous() Round {
	if r == GenesisRound {
		return GenesisRound
	}
	return r - 1
}

func (r Round) IsGenesis() bool {
	return r == GenesisRound
}

func (r Round) String() string {
	return strconv.FormatUint(uint64(r), 10)
}
