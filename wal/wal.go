// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wal

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

const (
	WalFlags       = os.O_APPEND | os.O_CREATE | os.O_RDWR
	WalPermissions = 0666
)

// WriteAheadLog is a file backed, append only log of check-summed payloads.
type WriteAheadLog struct {
	file *os.File
}

// New opens a write ahead log file, creating one if necessary.
// Call Close() on the WriteAheadLog to ensure the file is closed after use.
func New(fileName string) (*WriteAheadLog, error) {
	file, err := os.OpenFile(fileName, WalFlags, WalPermissions)
	if err != nil {
		return nil, err
	}

	return &WriteAheadLog{
		file: file,
	}, nil
}

// Append appends a payload to the write ahead log.
// Must flush the OS cache on every append to ensure consistency
func (w *WriteAheadLog) Append(payload []byte) error {
	// write will append
	if err := encodeFrame(w.file, payload); err != nil {
		return err
	}

	// ensure file gets written to persistent storage
	return w.file.Sync()
}

// ReadAll returns every payload in the log. A corrupted tail, left behind by
// a crash during an append, is truncated away.
func (w *WriteAheadLog) ReadAll() ([][]byte, error) {
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking to start %w", err)
	}

	fileInfo, err := w.file.Stat()
	if err != nil {
		return nil, fmt.Errorf("error getting file info %w", err)
	}

	var (
		payloads [][]byte
		offset   int64
		reader   = bufio.NewReader(w.file)
	)
	for offset < fileInfo.Size() {
		remaining := fileInfo.Size() - offset
		payload, n, err := decodeFrame(reader, uint64(remaining))
		// a crash while appending leaves a partial frame behind
		if err != nil {
			return payloads, w.truncateAt(offset)
		}

		offset += int64(n)
		payloads = append(payloads, payload)
	}

	return payloads, nil
}

// Truncate truncates the write ahead log
func (w *WriteAheadLog) Truncate() error {
	return w.truncateAt(0)
}

func (w *WriteAheadLog) truncateAt(offset int64) error {
	// truncate call is atomic. Ref https://cgi.cse.unsw.edu.au/~cs3231/18s1/os161/man/syscall/ftruncate.html
	if err := w.file.Truncate(offset); err != nil {
		return err
	}

	return w.file.Sync()
}

func (w *WriteAheadLog) Close() error {
	return w.file.Close()
}
