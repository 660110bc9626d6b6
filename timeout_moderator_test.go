// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const (
	testAdditionalTime = 2 * time.Second
	testRoundTimeout   = 5 * time.Second
)

type moderatorTest struct {
	chain     *testChain
	scheduler *testScheduler
	metrics   *Metrics
	m         *RoundTimeoutModerator
	out       forwarded
}

func newModeratorTest(t *testing.T, round Round, additionalTime time.Duration) *moderatorTest {
	chain := newTestChain(t, 4)
	mt := &moderatorTest{
		chain:     chain,
		scheduler: &testScheduler{},
		metrics:   newTestMetrics(t),
	}
	mt.m = NewRoundTimeoutModerator(newTestLogger(t), mt.scheduler, additionalTime, mt.metrics, chain.roundUpdate(round))
	return mt
}

func (mt *moderatorTest) timeout(round Round) {
	mt.m.Process(Event{LocalTimeout: &ScheduledLocalTimeout{Round: round, Timeout: testRoundTimeout}}, mt.out.next)
}

func (mt *moderatorTest) highQCAt(round Round) HighQC {
	return NewHighQC(mt.chain.qc(mt.chain.vertex(round, testTimestamp)), mt.chain.genesisQC, nil)
}

func TestModeratorForwardsTimeoutWithoutProgress(t *testing.T) {
	mt := newModeratorTest(t, 3, testAdditionalTime)
	mt.timeout(3)

	require.Equal(t, []EventKind{EventLocalTimeout}, mt.out.kinds())
	require.Empty(t, mt.scheduler.timeouts)
}

func TestModeratorExtendsOnProposal(t *testing.T) {
	for _, tst := range []struct {
		name          string
		proposalRound Round
		extended      bool
	}{
		{name: "proposal for the round", proposalRound: 3, extended: true},
		{name: "proposal for the next round", proposalRound: 4, extended: true},
		{name: "proposal two rounds ahead", proposalRound: 5},
	} {
		t.Run(tst.name, func(t *testing.T) {
			require := require.New(t)

			mt := newModeratorTest(t, 3, testAdditionalTime)
			mt.m.Process(Event{UnsyncedProposal: mt.chain.proposal(tst.proposalRound, testTimestamp)}, mt.out.next)
			require.Empty(mt.out.events)

			mt.timeout(3)
			if !tst.extended {
				require.Equal([]EventKind{EventLocalTimeout}, mt.out.kinds())
				require.Empty(mt.scheduler.timeouts)
				return
			}

			require.Empty(mt.out.events)
			require.Equal([]scheduledTimeout{{
				timeout: ScheduledLocalTimeout{Round: 3, Timeout: testRoundTimeout + testAdditionalTime},
				delay:   testAdditionalTime,
			}}, mt.scheduler.timeouts)
			require.Equal(1.0, testutil.ToFloat64(mt.metrics.extendedRoundTimeouts))
		})
	}
}

func TestModeratorExtendsOnceOnQC(t *testing.T) {
	require := require.New(t)

	mt := newModeratorTest(t, 3, testAdditionalTime)
	vote := mt.chain.vote(mt.chain.nodes[1], mt.chain.vertex(4, testTimestamp))
	vote.HighQC = mt.highQCAt(3)
	mt.m.Process(Event{UnsyncedVote: vote}, mt.out.next)

	mt.timeout(3)
	require.Empty(mt.out.events)
	require.Len(mt.scheduler.timeouts, 1)

	// the extended timeout fires
	mt.timeout(3)
	require.Equal([]EventKind{EventLocalTimeout}, mt.out.kinds())
	require.Len(mt.scheduler.timeouts, 1)
}

func TestModeratorIgnoresOtherRounds(t *testing.T) {
	require := require.New(t)

	mt := newModeratorTest(t, 3, testAdditionalTime)
	mt.m.Process(Event{UnsyncedProposal: mt.chain.proposal(3, testTimestamp)}, mt.out.next)

	mt.timeout(2)
	require.Equal([]EventKind{EventLocalTimeout}, mt.out.kinds())

	// a timeout of another round does not use up the extension
	mt.out.reset()
	mt.timeout(3)
	require.Empty(mt.out.events)
	require.Len(mt.scheduler.timeouts, 1)
}

func TestModeratorDisabled(t *testing.T) {
	mt := newModeratorTest(t, 3, 0)
	mt.m.Process(Event{UnsyncedProposal: mt.chain.proposal(3, testTimestamp)}, mt.out.next)
	mt.timeout(3)

	require.Equal(t, []EventKind{EventLocalTimeout}, mt.out.kinds())
	require.Empty(t, mt.scheduler.timeouts)
}

func TestModeratorRoundUpdate(t *testing.T) {
	require := require.New(t)

	mt := newModeratorTest(t, 3, testAdditionalTime)
	mt.m.Process(Event{UnsyncedProposal: mt.chain.proposal(3, testTimestamp)}, mt.out.next)
	mt.m.Process(Event{UnsyncedProposal: mt.chain.proposal(4, testTimestamp)}, mt.out.next)
	mt.m.Process(Event{UnsyncedProposal: mt.chain.proposal(6, testTimestamp)}, mt.out.next)
	mt.timeout(3)
	require.Len(mt.scheduler.timeouts, 1)

	update := mt.chain.roundUpdate(5)
	mt.m.Process(Event{RoundUpdate: &update}, mt.out.next)
	require.Equal([]EventKind{EventRoundUpdate}, mt.out.kinds())

	lowest, ok := mt.m.proposalRounds.Min()
	require.True(ok)
	require.Equal(Round(6), lowest)
	require.Equal(1, mt.m.proposalRounds.Len())

	// the proposal for round 6 allows a new extension in round 5
	mt.out.reset()
	mt.timeout(5)
	require.Empty(mt.out.events)
	require.Len(mt.scheduler.timeouts, 2)
}

func TestModeratorForwardsOtherEvents(t *testing.T) {
	mt := newModeratorTest(t, 3, testAdditionalTime)
	proposal := mt.chain.proposal(3, testTimestamp)
	mt.m.Process(Event{Proposal: proposal}, mt.out.next)
	mt.m.Process(Event{LeaderFailure: &RoundLeaderFailure{Round: 3}}, mt.out.next)

	require.Equal(t, []EventKind{EventProposal, EventLeaderFailure}, mt.out.kinds())
}
