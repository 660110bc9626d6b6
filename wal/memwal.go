// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wal

import (
	"bytes"
	"sync"
)

// InMemWAL is a WriteAheadLog kept in memory. It stores the same frames as
// the file backed log and recovers from a corrupted tail the same way.
type InMemWAL struct {
	lock   sync.Mutex
	frames []byte
}

func NewMemWAL() *InMemWAL {
	return &InMemWAL{}
}

func (w *InMemWAL) Append(payload []byte) error {
	w.lock.Lock()
	defer w.lock.Unlock()

	var frame bytes.Buffer
	if err := encodeFrame(&frame, payload); err != nil {
		return err
	}
	w.frames = append(w.frames, frame.Bytes()...)
	return nil
}

// ReadAll returns every payload in the log, dropping the frames from the
// first corrupted one onwards.
func (w *InMemWAL) ReadAll() ([][]byte, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var (
		payloads [][]byte
		offset   int
	)
	for offset < len(w.frames) {
		remaining := w.frames[offset:]
		payload, n, err := decodeFrame(bytes.NewReader(remaining), uint64(len(remaining)))
		if err != nil {
			w.frames = w.frames[:offset]
			break
		}
		offset += n
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

func (w *InMemWAL) Truncate() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	w.frames = nil
	return nil
}

// Size returns the number of bytes held by the log.
func (w *InMemWAL) Size() int {
	w.lock.Lock()
	defer w.lock.Unlock()

	return len(w.frames)
}
