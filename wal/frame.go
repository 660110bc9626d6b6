// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// A frame is laid out as | size (4) | checksum (4) | payload (size) |.
// The checksum covers the size and the payload.
const (
	frameSizeLen     = 4
	frameChecksumLen = 4
	frameHeaderLen   = frameSizeLen + frameChecksumLen
)

var (
	ErrChecksumMismatch = errors.New("frame checksum mismatch")
	errFrameTooLarge    = errors.New("frame too large")

	castagnoli = crc32.MakeTable(crc32.Castagnoli)
)

func frameChecksum(size, payload []byte) uint32 {
	return crc32.Update(crc32.Checksum(size, castagnoli), castagnoli, payload)
}

// encodeFrame writes [payload] as a single frame to [w].
func encodeFrame(w io.Writer, payload []byte) error {
	frame := make([]byte, frameHeaderLen+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	binary.BigEndian.PutUint32(frame[frameSizeLen:], frameChecksum(frame[:frameSizeLen], payload))
	copy(frame[frameHeaderLen:], payload)

	_, err := w.Write(frame)
	return err
}

// decodeFrame reads a frame of at most [maxSize] bytes, header included,
// and returns its payload together with the number of bytes consumed.
func decodeFrame(r io.Reader, maxSize uint64) ([]byte, int, error) {
	var header [frameHeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, 0, err
	}

	size := binary.BigEndian.Uint32(header[:frameSizeLen])
	if uint64(size)+frameHeaderLen > maxSize {
		return nil, 0, fmt.Errorf("%w: %d bytes", errFrameTooLarge, size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, 0, err
	}

	if binary.BigEndian.Uint32(header[frameSizeLen:]) != frameChecksum(header[:frameSizeLen], payload) {
		return nil, 0, ErrChecksumMismatch
	}
	return payload, frameHeaderLen + len(payload), nil
}
