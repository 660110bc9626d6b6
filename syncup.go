// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"time"

	"github.com/ef-ds/deque"
	"github.com/google/btree"
	"go.uber.org/zap"
)

const defaultTreeDegree = 2

type queuedEvent struct {
	ev       Event
	queuedAt time.Time
}

// roundQueue holds the events of a future round in arrival order.
type roundQueue struct {
	round  Round
	events deque.Deque
}

func roundQueueLess(a, b *roundQueue) bool {
	return a.round < b.round
}

// SyncUpPreprocessor makes sure every proposal and vote it forwards is for
// the current round and that the vertex its HighQC anchors to is present in
// the local vertex store. Events for future rounds are cached until their
// round starts, and events waiting for a sync are parked until the vertex
// they wait for is inserted.
type SyncUpPreprocessor struct {
	logger  Logger
	metrics *Metrics
	syncer  Syncer
	clock   Clock

	currentRound Round
	roundQueues  *btree.BTreeG[*roundQueue]
	cachedEvents int
	syncing      []queuedEvent
}

func NewSyncUpPreprocessor(logger Logger, syncer Syncer, clock Clock, metrics *Metrics, initial RoundUpdate) *SyncUpPreprocessor {
	return &SyncUpPreprocessor{
		logger:       logger,
		metrics:      metrics,
		syncer:       syncer,
		clock:        clock,
		currentRound: initial.CurrentRound,
		roundQueues:  btree.NewG(defaultTreeDegree, roundQueueLess),
	}
}

// CurrentRound returns the round of the latest accepted round update.
func (s *SyncUpPreprocessor) CurrentRound() Round {
	return s.currentRound
}

func (s *SyncUpPreprocessor) Process(ev Event, next func(Event)) {
	switch {
	case ev.Proposal != nil:
		if ev.Proposal.Round() >= s.currentRound {
			next(Event{UnsyncedProposal: ev.Proposal})
		}
		s.syncUpAndProcess(ev, next)
	case ev.Vote != nil:
		if ev.Vote.Round() >= s.currentRound {
			next(Event{UnsyncedVote: ev.Vote})
		}
		s.syncUpAndProcess(ev, next)
	case ev.RoundUpdate != nil:
		s.processRoundUpdate(ev, next)
	case ev.InsertUpdate != nil:
		s.logger.Verbo("Vertex inserted", zap.Stringer("vertex", ev.InsertUpdate.Inserted.Hash()))
		s.replaySyncedTo(ev.InsertUpdate.Inserted.Hash(), next)
		next(ev)
	case ev.RebuildUpdate != nil:
		for _, v := range ev.RebuildUpdate.State.Vertices() {
			s.replaySyncedTo(v.Hash(), next)
		}
		next(ev)
	default:
		next(ev)
	}
}

func (s *SyncUpPreprocessor) processRoundUpdate(ev Event, next func(Event)) {
	update := ev.RoundUpdate
	if update.CurrentRound <= s.currentRound {
		s.logger.Debug("Ignoring a round update that does not advance the round",
			zap.Stringer("round", update.CurrentRound), zap.Stringer("currentRound", s.currentRound))
		return
	}

	s.logger.Trace("Processing round update",
		zap.Stringer("round", update.CurrentRound), zap.Stringer("previousRound", s.currentRound))
	s.currentRound = update.CurrentRound
	next(ev)

	if q, ok := s.roundQueues.Get(&roundQueue{round: s.currentRound}); ok {
		for q.events.Len() > 0 {
			v, _ := q.events.PopFront()
			s.cachedEvents--
			s.resync(v.(queuedEvent), next)
		}
	}
	for {
		q, ok := s.roundQueues.Min()
		if !ok || q.round > s.currentRound {
			break
		}
		s.roundQueues.DeleteMin()
		s.cachedEvents -= q.events.Len()
	}
	s.metrics.cachedEvents.Set(float64(s.cachedEvents))

	current := s.currentRound
	s.replaySyncing(func(qe queuedEvent) (replay bool, keep bool) {
		round := qe.ev.Round()
		return round == current, round > current
	}, next)
}

// replaySyncedTo replays the parked events whose highest QC certifies [vertexID].
func (s *SyncUpPreprocessor) replaySyncedTo(vertexID Digest, next func(Event)) {
	s.replaySyncing(func(qe queuedEvent) (replay bool, keep bool) {
		msg, _ := qe.ev.message()
		if msg.highQC.HighestQC.ProposedHeader().VertexID == vertexID {
			return true, false
		}
		return false, true
	}, next)
}

// replaySyncing splits the syncing set with [filter]: events to replay are
// synced up again, events neither replayed nor kept are dropped.
func (s *SyncUpPreprocessor) replaySyncing(filter func(queuedEvent) (replay bool, keep bool), next func(Event)) {
	pending := s.syncing
	s.syncing = make([]queuedEvent, 0, len(pending))

	var replays []queuedEvent
	for _, qe := range pending {
		replay, keep := filter(qe)
		switch {
		case replay:
			replays = append(replays, qe)
		case keep:
			s.syncing = append(s.syncing, qe)
		default:
			s.logger.Debug("Dropping a stale event waiting for sync",
				zap.Stringer("kind", qe.ev.Kind()), zap.Stringer("round", qe.ev.Round()))
		}
	}

	for _, qe := range replays {
		s.resync(qe, next)
	}
	s.metrics.syncingEvents.Set(float64(len(s.syncing)))
}

func (s *SyncUpPreprocessor) syncUpAndProcess(ev Event, next func(Event)) {
	msg, _ := ev.message()
	if msg.round < s.currentRound {
		s.logger.Debug("Ignoring an event for a past round",
			zap.Stringer("kind", ev.Kind()), zap.Stringer("round", msg.round), zap.Stringer("currentRound", s.currentRound))
		s.metrics.rejected(ev.Kind(), reasonStaleRound)
		return
	}

	if !s.syncUp(ev, next) {
		s.logger.Debug("Queuing an event until the vertex store is synced",
			zap.Stringer("kind", ev.Kind()), zap.Stringer("round", msg.round))
		s.syncing = append(s.syncing, queuedEvent{ev: ev, queuedAt: s.clock.Now()})
		s.metrics.syncingEvents.Set(float64(len(s.syncing)))
	}
}

// resync runs a queued event through the sync gate again, parking it if the
// sync is still in progress.
func (s *SyncUpPreprocessor) resync(qe queuedEvent, next func(Event)) {
	s.metrics.observeQueueWait(s.clock.Now().Sub(qe.queuedAt))
	if !s.syncUp(qe.ev, next) {
		s.syncing = append(s.syncing, qe)
	}
}

// syncUp returns false if a sync is in progress and the event must wait.
func (s *SyncUpPreprocessor) syncUp(ev Event, next func(Event)) bool {
	msg, _ := ev.message()
	source := HighQCSourceProposal
	if ev.Vote != nil {
		source = HighQCSourceVote
	}

	result := s.syncer.SyncToQC(msg.highQC, msg.author, source)
	switch result {
	case SyncResultSynced:
		committed := msg.highQC.HighestCommittedQC.CommittedHeader()
		if committed == nil {
			s.logger.Fatal("Synced to a high QC whose highest committed QC does not commit",
				zap.Stringer("author", msg.author), zap.Stringer("round", msg.round))
			return true
		}
		// end of epoch events are handled by the epoch manager
		if committed.Ledger.IsEndOfEpoch() {
			s.logger.Debug("Ignoring an event after the end of the epoch",
				zap.Stringer("kind", ev.Kind()), zap.Stringer("round", msg.round))
			s.metrics.rejected(ev.Kind(), reasonEndOfEpoch)
			return true
		}
		s.processOnCurrentRoundOrCache(ev, next)
		return true
	case SyncResultInvalid:
		s.logger.Debug("Ignoring an event with a high QC that cannot be synced to",
			zap.Stringer("kind", ev.Kind()), zap.Stringer("author", msg.author), zap.Stringer("round", msg.round))
		s.metrics.rejected(ev.Kind(), reasonSyncInvalid)
		return true
	case SyncResultInProgress:
		return false
	default:
		s.logger.Fatal("Unknown sync result", zap.Stringer("result", result))
		return true
	}
}

func (s *SyncUpPreprocessor) processOnCurrentRoundOrCache(ev Event, next func(Event)) {
	round := ev.Round()
	switch {
	case round == s.currentRound:
		next(ev)
	case round > s.currentRound:
		s.logger.Trace("Caching an event for a future round",
			zap.Stringer("kind", ev.Kind()), zap.Stringer("round", round), zap.Stringer("currentRound", s.currentRound))
		q, ok := s.roundQueues.Get(&roundQueue{round: round})
		if !ok {
			q = &roundQueue{round: round}
			s.roundQueues.ReplaceOrInsert(q)
		}
		q.events.PushBack(queuedEvent{ev: ev, queuedAt: s.clock.Now()})
		s.cachedEvents++
		s.metrics.cachedEvents.Set(float64(s.cachedEvents))
	default:
		s.logger.Debug("Ignoring an event for a past round",
			zap.Stringer("kind", ev.Kind()), zap.Stringer("round", round), zap.Stringer("currentRound", s.currentRound))
		s.metrics.rejected(ev.Kind(), reasonStaleRound)
	}
}
