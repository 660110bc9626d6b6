// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"container/heap"
	"sync"
	"time"

	"go.uber.org/zap"
)

type scheduledTask struct {
	event    Event
	deadline time.Time
	seq      uint64

	index int // for heap to work more efficiently
}

// TimeoutScheduler delivers scheduled events once the time advanced by Tick
// passes their deadline. It is also the Clock of the pipeline, so the
// pipeline and its timeouts always agree on the time.
type TimeoutScheduler struct {
	lock sync.Mutex

	ticks   chan time.Time
	close   chan struct{}
	done    chan struct{}
	heap    taskHeap
	now     time.Time
	nextSeq uint64

	// deliver hands fired events back to the event loop
	deliver func(Event)

	log Logger
}

// NewTimeoutScheduler returns a TimeoutScheduler and starts a goroutine that
// listens for ticks and delivers due events.
func NewTimeoutScheduler(log Logger, startTime time.Time, deliver func(Event)) *TimeoutScheduler {
	t := &TimeoutScheduler{
		now:     startTime,
		ticks:   make(chan time.Time, 1),
		close:   make(chan struct{}),
		done:    make(chan struct{}),
		deliver: deliver,
		log:     log,
	}

	go t.run()

	return t
}

func (t *TimeoutScheduler) Now() time.Time {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.now
}

func (t *TimeoutScheduler) ScheduleLocalTimeout(timeout ScheduledLocalTimeout, delay time.Duration) {
	t.schedule(Event{LocalTimeout: &timeout}, delay)
}

func (t *TimeoutScheduler) ScheduleDelayedResolution(resolution TimeoutQuorumDelayedResolution, delay time.Duration) {
	t.schedule(Event{DelayedResolution: &resolution}, delay)
}

func (t *TimeoutScheduler) schedule(ev Event, delay time.Duration) {
	t.lock.Lock()
	defer t.lock.Unlock()

	task := &scheduledTask{
		event:    ev,
		deadline: t.now.Add(delay),
		seq:      t.nextSeq,
	}
	t.nextSeq++
	t.log.Debug("Scheduling event",
		zap.Stringer("kind", ev.Kind()), zap.Stringer("round", ev.Round()), zap.Time("deadline", task.deadline))
	heap.Push(&t.heap, task)
}

// Pending returns the number of scheduled events that have not fired yet.
func (t *TimeoutScheduler) Pending() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.heap.Len()
}

func (t *TimeoutScheduler) run() {
	defer close(t.done)
	for t.shouldRun() {
		select {
		case now := <-t.ticks:
			t.lock.Lock()
			if now.After(t.now) {
				t.now = now
			}
			t.lock.Unlock()

			t.maybeDeliver()
		case <-t.close:
			return
		}
	}
}

func (t *TimeoutScheduler) maybeDeliver() {
	// go through the heap delivering due events
	for {
		t.lock.Lock()
		if t.heap.Len() == 0 {
			t.lock.Unlock()
			break
		}

		next := t.heap[0]
		if next.deadline.After(t.now) {
			t.lock.Unlock()
			break
		}

		heap.Pop(&t.heap)
		t.lock.Unlock()
		t.log.Debug("Delivering scheduled event",
			zap.Stringer("kind", next.event.Kind()), zap.Stringer("round", next.event.Round()))
		t.deliver(next.event)
	}
}

func (t *TimeoutScheduler) shouldRun() bool {
	select {
	case <-t.close:
		return false
	default:
		return true
	}
}

// Tick advances the time of the scheduler. Time never moves backwards.
// A tick the scheduler has not picked up yet is replaced by the latest one.
func (t *TimeoutScheduler) Tick(now time.Time) {
	for {
		select {
		case t.ticks <- now:
			return
		default:
		}

		select {
		case pending := <-t.ticks:
			if pending.After(now) {
				now = pending
			}
			t.log.Verbo("Replacing a pending tick in timeout scheduler", zap.Time("now", now))
		default:
		}
	}
}

func (t *TimeoutScheduler) Close() {
	select {
	case <-t.close:
	default:
		close(t.close)
	}
	<-t.done
}

// ----------------------------------------------------------------------
type taskHeap []*scheduledTask

func (h *taskHeap) Len() int { return len(*h) }

// Less orders tasks by deadline, then by scheduling order
func (h *taskHeap) Less(i, j int) bool {
	a, b := (*h)[i], (*h)[j]
	if a.deadline.Equal(b.deadline) {
		return a.seq < b.seq
	}
	return a.deadline.Before(b.deadline)
}

// Swap swaps the values at index [i] and [j]
func (h *taskHeap) Swap(i, j int) {
	(*h)[i], (*h)[j] = (*h)[j], (*h)[i]
	(*h)[i].index = i
	(*h)[j].index = j
}

func (h *taskHeap) Push(x any) {
	task := x.(*scheduledTask)
	task.index = h.Len()
	*h = append(*h, task)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := h.Len()
	task := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	task.index = -1
	return task
}
