// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundQuorum(t *testing.T) {
	require := require.New(t)

	chain := newTestChain(t, 4)
	qc := chain.qc(chain.vertex(3, testTimestamp))
	tc := TimeoutCertificate{Epoch: 1, Round: 4}

	regular := RegularRoundQuorum(qc)
	require.NoError(regular.IsWellFormed())
	require.True(regular.IsRegular())
	require.Equal(Round(3), regular.Round())
	require.Equal("QC{round=3, signers=0}", regular.String())

	timeout := TimeoutRoundQuorum(tc)
	require.NoError(timeout.IsWellFormed())
	require.False(timeout.IsRegular())
	require.Equal(Round(4), timeout.Round())

	require.ErrorIs(RoundQuorum{}.IsWellFormed(), errMalformedRoundQuorum)
	require.ErrorIs(RoundQuorum{QC: &qc, TC: &tc}.IsWellFormed(), errMalformedRoundQuorum)
	require.Equal("malformed", RoundQuorum{}.String())
}

func TestHighQC(t *testing.T) {
	require := require.New(t)

	chain := newTestChain(t, 4)
	qc := chain.qc(chain.vertex(3, testTimestamp))

	// a TC not above the highest QC is dropped
	stale := NewHighQC(qc, chain.genesisQC, &TimeoutCertificate{Round: 3})
	require.Nil(stale.HighestTC)
	require.Equal(Round(3), stale.HighestRound())

	highQC := NewHighQC(qc, chain.genesisQC, &TimeoutCertificate{Round: 5})
	require.NotNil(highQC.HighestTC)
	require.Equal(Round(5), highQC.HighestRound())
}

func TestInitialEpochQC(t *testing.T) {
	require := require.New(t)

	chain := newTestChain(t, 4)
	qc := chain.genesisQC
	require.Equal(chain.genesis.Hash(), qc.ProposedHeader().VertexID)
	require.Equal(qc.ProposedHeader(), qc.ParentHeader())
	require.Equal(qc.ProposedHeader(), *qc.CommittedHeader())

	committed, proof, ok := qc.CommittedAndProof()
	require.True(ok)
	require.Equal(chain.genesis.Hash(), committed.VertexID)
	require.True(proof.IsGenesis())

	_, err := NewInitialEpochQC(chain.vertex(1, testTimestamp), chain.genesisLedger)
	require.ErrorIs(err, errNotGenesis)
}
