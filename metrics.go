// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "vertexbft"
	metricsSubsystem = "bft"

	labelType   = "type"
	labelReason = "reason"
	labelKind   = "kind"
)

// Rejection reasons of the verification stages.
const (
	reasonInvalidAuthor           = "invalid_author"
	reasonUnexpectedProposer      = "unexpected_proposer"
	reasonInvalidSignature        = "invalid_signature"
	reasonInvalidTimeoutSignature = "invalid_timeout_signature"
	reasonInvalidHighQC           = "invalid_high_qc"
	reasonStaleRound              = "stale_round"
	reasonNotCurrentRound         = "not_current_round"
	reasonDuplicateProposal       = "duplicate_proposal"
	reasonSyncInvalid             = "sync_invalid"
	reasonEndOfEpoch              = "end_of_epoch"
	reasonUnexpectedVote          = "unexpected_vote"
	reasonQuorumResolved          = "quorum_resolved"
	reasonTooFarPast              = "too_far_past"
	reasonTooFarFuture            = "too_far_future"
	reasonNotMonotonic            = "not_monotonic"
)

// Metrics holds the prometheus collectors of a single pipeline.
type Metrics struct {
	verifiedEvents            *prometheus.CounterVec
	rejectedEvents            *prometheus.CounterVec
	ignoredVotes              *prometheus.CounterVec
	processedVotes            prometheus.Counter
	processedProposals        prometheus.Counter
	quorumsReached            *prometheus.CounterVec
	quorumResolutions         *prometheus.CounterVec
	postponedRoundQuorums     prometheus.Counter
	extendedRoundTimeouts     prometheus.Counter
	noVotes                   prometheus.Counter
	doubleVotes               prometheus.Counter
	divergentVertexExecutions prometheus.Counter
	cachedEvents              prometheus.Gauge
	syncingEvents             prometheus.Gauge
	consensusEventsQueueWait  prometheus.Histogram
}

// NewMetrics creates the pipeline collectors and registers them with [registerer].
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		verifiedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "verified_events_total",
			Help:      "the number of proposals and votes that passed signature verification",
		}, []string{labelType}),
		rejectedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "rejected_events_total",
			Help:      "the number of proposals and votes dropped by the pipeline",
		}, []string{labelType, labelReason}),
		ignoredVotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "ignored_votes_total",
			Help:      "the number of verified votes not fed to vote aggregation",
		}, []string{labelReason}),
		processedVotes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "processed_votes_total",
			Help:      "the number of votes fed to vote aggregation",
		}),
		processedProposals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "processed_proposals_total",
			Help:      "the number of proposals whose vertex was inserted into the vertex store",
		}),
		quorumsReached: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "quorums_reached_total",
			Help:      "the number of quorums formed, by kind",
		}, []string{labelKind}),
		quorumResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "quorum_resolutions_total",
			Help:      "the number of rounds resolved, by kind of quorum",
		}, []string{labelKind}),
		postponedRoundQuorums: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "postponed_round_quorums_total",
			Help:      "the number of timeout quorums whose resolution was delayed",
		}),
		extendedRoundTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "extended_round_timeouts_total",
			Help:      "the number of local round timeouts that were extended",
		}),
		noVotes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "no_votes_total",
			Help:      "the number of executed vertices the safety rules refused to vote for",
		}),
		doubleVotes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "double_votes_total",
			Help:      "the number of double votes detected",
		}),
		divergentVertexExecutions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "divergent_vertex_executions_total",
			Help:      "the number of votes claiming a different ledger header for the same vertex",
		}),
		cachedEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "cached_future_round_events",
			Help:      "the number of events cached for a future round",
		}),
		syncingEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "syncing_events",
			Help:      "the number of events waiting for the vertex store to sync",
		}),
		consensusEventsQueueWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "consensus_events_queue_wait_seconds",
			Help:      "time consensus events spent queued before being processed",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}

	err := registerAll(registerer,
		m.verifiedEvents,
		m.rejectedEvents,
		m.ignoredVotes,
		m.processedVotes,
		m.processedProposals,
		m.quorumsReached,
		m.quorumResolutions,
		m.postponedRoundQuorums,
		m.extendedRoundTimeouts,
		m.noVotes,
		m.doubleVotes,
		m.divergentVertexExecutions,
		m.cachedEvents,
		m.syncingEvents,
		m.consensusEventsQueueWait,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func registerAll(registerer prometheus.Registerer, collectors ...prometheus.Collector) error {
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func quorumKind(q RoundQuorum) string {
	if q.IsRegular() {
		return "regular"
	}
	return "timeout"
}

func (m *Metrics) verified(kind EventKind) {
	m.verifiedEvents.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) rejected(kind EventKind, reason string) {
	m.rejectedEvents.WithLabelValues(kind.String(), reason).Inc()
}

func (m *Metrics) observeQueueWait(d time.Duration) {
	m.consensusEventsQueueWait.Observe(d.Seconds())
}
