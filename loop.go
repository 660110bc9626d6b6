// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"sync"

	"github.com/ef-ds/deque"
	"go.uber.org/zap"
)

// EventLoop hosts an EventProcessor on a single goroutine. Events submitted
// from any goroutine are processed one at a time in submission order.
type EventLoop struct {
	logger    Logger
	processor EventProcessor

	lock   sync.Mutex
	queue  deque.Deque
	closed bool

	signal chan struct{}
	close  chan struct{}
	done   chan struct{}
}

// NewEventLoop starts [processor] and returns a loop feeding it.
func NewEventLoop(logger Logger, processor EventProcessor) *EventLoop {
	l := &EventLoop{
		logger:    logger,
		processor: processor,
		signal:    make(chan struct{}, 1),
		close:     make(chan struct{}),
		done:      make(chan struct{}),
	}

	go l.run()

	return l
}

// Submit enqueues [ev] for processing. Events submitted after Close are dropped.
func (l *EventLoop) Submit(ev Event) {
	l.lock.Lock()
	if l.closed {
		l.lock.Unlock()
		l.logger.Debug("Dropping event submitted to a closed event loop", zap.Stringer("kind", ev.Kind()))
		return
	}
	l.queue.PushBack(ev)
	l.lock.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
}

func (l *EventLoop) run() {
	defer close(l.done)

	l.processor.Start()

	var taskID uint64
	for l.shouldRun() {
		select {
		case <-l.signal:
			for ev, ok := l.pop(); ok && l.shouldRun(); ev, ok = l.pop() {
				l.logger.Verbo("Processing event", zap.Uint64("taskID", taskID), zap.Stringer("kind", ev.Kind()))
				l.processor.Handle(ev)
				taskID++
			}
		case <-l.close:
			return
		}
	}
}

func (l *EventLoop) pop() (Event, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()

	v, ok := l.queue.PopFront()
	if !ok {
		return Event{}, false
	}
	return v.(Event), true
}

func (l *EventLoop) shouldRun() bool {
	select {
	case <-l.close:
		return false
	default:
		return true
	}
}

// Close stops the loop and waits for the event being processed, if any.
// Events still queued are dropped.
func (l *EventLoop) Close() {
	l.lock.Lock()
	if l.closed {
		l.lock.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.lock.Unlock()

	close(l.close)
	<-l.done
}
