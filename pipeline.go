// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import "go.uber.org/zap"

// Stage is one step of the event processing pipeline. A stage forwards an
// event to the following stage by calling next, zero or more times.
type Stage interface {
	Process(ev Event, next func(Event))
}

type starter interface {
	Start()
}

// EventProcessor is the entry point of a validator's round processing.
// It is not safe for concurrent use; the host serializes all events.
type EventProcessor interface {
	Start()
	Handle(ev Event)
}

// Pipeline runs events through an ordered list of stages.
type Pipeline struct {
	logger Logger
	stages []Stage
	next   []func(Event)
}

func NewPipeline(logger Logger, stages ...Stage) *Pipeline {
	p := &Pipeline{
		logger: logger,
		stages: stages,
		next:   make([]func(Event), len(stages)),
	}
	for i := range stages {
		i := i
		p.next[i] = func(ev Event) {
			p.processAt(i+1, ev)
		}
	}
	return p
}

// Start starts every stage that needs starting, last stage first.
func (p *Pipeline) Start() {
	for i := len(p.stages) - 1; i >= 0; i-- {
		if s, ok := p.stages[i].(starter); ok {
			s.Start()
		}
	}
}

func (p *Pipeline) Handle(ev Event) {
	if ev.Kind() == EventUnknown {
		p.logger.Warn("Dropping an empty event")
		return
	}
	p.processAt(0, ev)
}

func (p *Pipeline) processAt(i int, ev Event) {
	if i >= len(p.stages) {
		p.logger.Verbo("Event reached the end of the pipeline", zap.Stringer("kind", ev.Kind()))
		return
	}
	p.stages[i].Process(ev, p.next[i])
}

type noopProcessor struct{}

func (noopProcessor) Start() {}

func (noopProcessor) Handle(Event) {}
