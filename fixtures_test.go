// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"bytes"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/vertexbft/testutil"
)

var genesisTime = time.UnixMilli(1_700_000_000_000)

func testSign(publicKey []byte, hash Digest) []byte {
	sig := make([]byte, 0, len(publicKey)+len(hash))
	sig = append(sig, publicKey...)
	return append(sig, hash[:]...)
}

type testVerifier struct{}

func (testVerifier) Verify(publicKey []byte, hash Digest, signature []byte) bool {
	return bytes.Equal(testSign(publicKey, hash), signature)
}

type testSafetyRules struct {
	invalidHighQC bool
	refuseVotes   bool
	lastVotes     map[Round]*Vote
	self          NodeID
}

func newTestSafetyRules(self NodeID) *testSafetyRules {
	return &testSafetyRules{self: self, lastVotes: make(map[Round]*Vote)}
}

func (s *testSafetyRules) VerifyHighQCAgainstValidatorSet(HighQC) bool {
	return !s.invalidHighQC
}

func (s *testSafetyRules) LastVote(round Round) (*Vote, bool) {
	vote, ok := s.lastVotes[round]
	return vote, ok
}

func (s *testSafetyRules) CreateVote(vertex VertexWithHash, header BFTHeader, timeOfExecution int64, highQC HighQC) (*Vote, bool) {
	if s.refuseVotes {
		return nil, false
	}
	v := vertex.Vertex()
	vote := &Vote{
		Author:    s.self,
		HighQC:    highQC,
		VoteData:  VoteData{Proposed: header, Parent: v.ParentHeader()},
		Timestamp: timeOfExecution,
	}
	vote.Signature = testSign(s.self, vote.HashOfData())
	s.lastVotes[vertex.Round()] = vote
	return vote, true
}

type syncCall struct {
	author NodeID
	source HighQCSource
	round  Round
}

type testSyncer struct {
	results map[Round]SyncResult
	calls   []syncCall
}

func newTestSyncer() *testSyncer {
	return &testSyncer{results: make(map[Round]SyncResult)}
}

// SyncToQC returns the result configured for the round of the highest QC,
// SyncResultSynced by default.
func (s *testSyncer) SyncToQC(highQC HighQC, author NodeID, source HighQCSource) SyncResult {
	round := highQC.HighestQC.Round()
	s.calls = append(s.calls, syncCall{author: author, source: source, round: round})
	if result, ok := s.results[round]; ok {
		return result
	}
	return SyncResultSynced
}

type mockPacemaker struct {
	mock.Mock
}

func newMockPacemaker() *mockPacemaker {
	p := &mockPacemaker{}
	p.On("Start").Return().Maybe()
	p.On("ProcessRoundUpdate", mock.Anything).Return().Maybe()
	p.On("ProcessInsertUpdate", mock.Anything).Return().Maybe()
	p.On("ProcessLocalTimeout", mock.Anything).Return().Maybe()
	p.On("ProcessRoundLeaderFailure", mock.Anything).Return().Maybe()
	return p
}

func (p *mockPacemaker) Start() {
	p.Called()
}

func (p *mockPacemaker) ProcessRoundUpdate(update RoundUpdate) {
	p.Called(update)
}

func (p *mockPacemaker) ProcessInsertUpdate(update InsertUpdate) {
	p.Called(update)
}

func (p *mockPacemaker) ProcessLocalTimeout(timeout ScheduledLocalTimeout) {
	p.Called(timeout)
}

func (p *mockPacemaker) ProcessRoundLeaderFailure(failure RoundLeaderFailure) {
	p.Called(failure)
}

type testVertexStore struct {
	inserted []VertexWithHash
}

func (s *testVertexStore) InsertVertex(vertex VertexWithHash) {
	s.inserted = append(s.inserted, vertex)
}

type sentVote struct {
	to   NodeID
	vote *Vote
}

type testDispatcher struct {
	votes          []sentVote
	reached        []RoundQuorumReached
	resolutions    []RoundQuorumResolution
	noVotes        []NoVote
	leaderFailures []RoundLeaderFailure
	doubleVotes    []DoubleVote
}

func (d *testDispatcher) SendVote(destination NodeID, vote *Vote) {
	d.votes = append(d.votes, sentVote{to: destination, vote: vote})
}

func (d *testDispatcher) RoundQuorumReached(event RoundQuorumReached) {
	d.reached = append(d.reached, event)
}

func (d *testDispatcher) RoundQuorumResolution(event RoundQuorumResolution) {
	d.resolutions = append(d.resolutions, event)
}

func (d *testDispatcher) NoVote(event NoVote) {
	d.noVotes = append(d.noVotes, event)
}

func (d *testDispatcher) RoundLeaderFailure(event RoundLeaderFailure) {
	d.leaderFailures = append(d.leaderFailures, event)
}

func (d *testDispatcher) DoubleVote(event DoubleVote) {
	d.doubleVotes = append(d.doubleVotes, event)
}

type scheduledTimeout struct {
	timeout ScheduledLocalTimeout
	delay   time.Duration
}

type scheduledResolution struct {
	resolution TimeoutQuorumDelayedResolution
	delay      time.Duration
}

type testScheduler struct {
	timeouts    []scheduledTimeout
	resolutions []scheduledResolution
}

func (s *testScheduler) ScheduleLocalTimeout(timeout ScheduledLocalTimeout, delay time.Duration) {
	s.timeouts = append(s.timeouts, scheduledTimeout{timeout: timeout, delay: delay})
}

func (s *testScheduler) ScheduleDelayedResolution(resolution TimeoutQuorumDelayedResolution, delay time.Duration) {
	s.resolutions = append(s.resolutions, scheduledResolution{resolution: resolution, delay: delay})
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestMetrics(t *testing.T) *Metrics {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

// testChain is an epoch of [n] equally weighted validators whose ids double
// as their public keys.
type testChain struct {
	nodes         NodeIDs
	validators    *ValidatorSet
	genesisLedger LedgerHeader
	genesis       VertexWithHash
	genesisQC     QuorumCertificate
	genesisHighQC HighQC
}

func newTestChain(t *testing.T, n int) *testChain {
	validators := make([]Validator, n)
	nodes := make(NodeIDs, n)
	for i := range validators {
		id := NodeID{byte(i + 1)}
		nodes[i] = id
		validators[i] = Validator{ID: id, PublicKey: id, Power: 1}
	}
	vs, err := NewValidatorSet(validators)
	require.NoError(t, err)

	ledger := LedgerHeader{
		Epoch:             1,
		ProposerTimestamp: genesisTime.UnixMilli(),
	}
	genesis := NewVertexWithHash(NewInitialEpochVertex(ledger))
	qc, err := NewInitialEpochQC(genesis, ledger)
	require.NoError(t, err)

	return &testChain{
		nodes:         nodes,
		validators:    vs,
		genesisLedger: ledger,
		genesis:       genesis,
		genesisQC:     qc,
		genesisHighQC: HighQCFrom(qc),
	}
}

func (c *testChain) leader(round Round) NodeID {
	return LeaderForRound(c.nodes, round)
}

func (c *testChain) roundUpdate(round Round) RoundUpdate {
	return RoundUpdate{
		CurrentRound: round,
		HighQC:       c.genesisHighQC,
		Leader:       c.leader(round),
		NextLeader:   c.leader(round.Next()),
	}
}

// vertex returns a vertex for [round] built on top of genesis.
func (c *testChain) vertex(round Round, timestamp int64) VertexWithHash {
	return NewVertexWithHash(Vertex{
		QCToParent:        c.genesisQC,
		Round:             round,
		Transactions:      [][]byte{{byte(round)}},
		Proposer:          c.leader(round),
		ProposerTimestamp: timestamp,
	})
}

func (c *testChain) proposal(round Round, timestamp int64) *Proposal {
	return c.proposalFrom(c.leader(round), c.vertex(round, timestamp))
}

func (c *testChain) proposalFrom(author NodeID, vertex VertexWithHash) *Proposal {
	v := vertex.Vertex()
	v.Proposer = author
	vertex = NewVertexWithHash(v)
	return NewProposal(vertex, c.genesisQC, nil, testSign(author, vertex.Hash()))
}

func (c *testChain) header(vertex VertexWithHash) BFTHeader {
	return BFTHeader{
		Round:    vertex.Round(),
		VertexID: vertex.Hash(),
		Ledger: LedgerHeader{
			Epoch:             c.genesisLedger.Epoch,
			Round:             vertex.Round(),
			StateVersion:      uint64(vertex.Round()),
			ProposerTimestamp: vertex.Vertex().ProposerTimestamp,
		},
	}
}

func (c *testChain) executed(vertex VertexWithHash) ExecutedVertex {
	header := c.header(vertex)
	return NewExecutedVertex(vertex, header.Ledger, nil, vertex.Vertex().ProposerTimestamp)
}

// vote returns a signed vote of [author] for [vertex].
func (c *testChain) vote(author NodeID, vertex VertexWithHash) *Vote {
	vote := &Vote{
		Author: author,
		HighQC: c.genesisHighQC,
		VoteData: VoteData{
			Proposed: c.header(vertex),
			Parent:   c.genesisQC.ProposedHeader(),
		},
		Timestamp: vertex.Vertex().ProposerTimestamp,
	}
	vote.Signature = testSign(author, vote.HashOfData())
	return vote
}

// timeoutVote returns [vote] signed again as a timeout vote.
func timeoutVote(vote *Vote) *Vote {
	v := *vote
	v.TimeoutSignature = testSign(v.Author, v.VoteTimeout().Hash())
	return &v
}

type forwarded struct {
	events []Event
}

func (f *forwarded) next(ev Event) {
	f.events = append(f.events, ev)
}

func (f *forwarded) kinds() []EventKind {
	kinds := make([]EventKind, len(f.events))
	for i, ev := range f.events {
		kinds[i] = ev.Kind()
	}
	return kinds
}

func (f *forwarded) reset() {
	f.events = nil
}

func newTestLogger(t *testing.T) *testutil.TestLogger {
	l := testutil.MakeLogger(t, 1)
	l.Silence()
	return l
}

// qc returns a QC certifying [vertex], signed by nobody.
func (c *testChain) qc(vertex VertexWithHash) QuorumCertificate {
	return QuorumCertificate{
		VoteData: VoteData{
			Proposed: c.header(vertex),
			Parent:   c.genesisQC.ProposedHeader(),
		},
	}
}

// proposalOn returns a proposal for [round] extending the vertex certified by [parentQC].
func (c *testChain) proposalOn(parentQC QuorumCertificate, round Round, timestamp int64) *Proposal {
	author := c.leader(round)
	vertex := NewVertexWithHash(Vertex{
		QCToParent:        parentQC,
		Round:             round,
		Proposer:          author,
		ProposerTimestamp: timestamp,
	})
	return NewProposal(vertex, c.genesisQC, nil, testSign(author, vertex.Hash()))
}
