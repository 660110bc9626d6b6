// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingStage struct {
	name   string
	log    *[]string
	fanOut int
}

func (s *recordingStage) Start() {
	*s.log = append(*s.log, "start "+s.name)
}

func (s *recordingStage) Process(ev Event, next func(Event)) {
	*s.log = append(*s.log, s.name+" "+ev.Kind().String())
	for i := 0; i < s.fanOut; i++ {
		next(ev)
	}
}

func TestPipeline(t *testing.T) {
	require := require.New(t)

	var log []string
	first := &recordingStage{name: "first", log: &log, fanOut: 2}
	second := &recordingStage{name: "second", log: &log, fanOut: 1}
	dropping := &recordingStage{name: "third", log: &log}
	p := NewPipeline(newTestLogger(t), first, second, dropping)

	p.Start()
	require.Equal([]string{"start third", "start second", "start first"}, log)

	log = nil
	p.Handle(Event{LocalTimeout: &ScheduledLocalTimeout{Round: 1}})
	require.Equal([]string{
		"first local_timeout",
		"second local_timeout",
		"third local_timeout",
		"second local_timeout",
		"third local_timeout",
	}, log)

	log = nil
	p.Handle(Event{})
	require.Empty(log)
}

func TestEventKindAndRound(t *testing.T) {
	chain := newTestChain(t, 4)
	proposal := chain.proposal(3, testTimestamp)
	vote := chain.vote(chain.nodes[0], chain.vertex(4, testTimestamp))
	update := chain.roundUpdate(5)
	insert := NewInsertUpdate(chain.executed(chain.vertex(6, testTimestamp)))

	for _, tst := range []struct {
		ev    Event
		kind  EventKind
		round Round
	}{
		{ev: Event{Proposal: proposal}, kind: EventProposal, round: 3},
		{ev: Event{Vote: vote}, kind: EventVote, round: 4},
		{ev: Event{RoundUpdate: &update}, kind: EventRoundUpdate, round: 5},
		{ev: Event{InsertUpdate: &insert}, kind: EventInsertUpdate, round: 6},
		{ev: Event{LocalTimeout: &ScheduledLocalTimeout{Round: 7}}, kind: EventLocalTimeout, round: 7},
		{ev: Event{LeaderFailure: &RoundLeaderFailure{Round: 8}}, kind: EventLeaderFailure, round: 8},
		{ev: Event{DelayedResolution: &TimeoutQuorumDelayedResolution{Round: 9}}, kind: EventDelayedResolution, round: 9},
		{ev: Event{UnsyncedProposal: proposal}, kind: EventUnsyncedProposal, round: 3},
		{ev: Event{UnsyncedVote: vote}, kind: EventUnsyncedVote, round: 4},
		{ev: Event{}, kind: EventUnknown, round: GenesisRound},
	} {
		t.Run(tst.kind.String(), func(t *testing.T) {
			require.Equal(t, tst.kind, tst.ev.Kind())
			require.Equal(t, tst.round, tst.ev.Round())
		})
	}
}
