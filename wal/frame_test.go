// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wal

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeFrame(t *testing.T) {
	var buff bytes.Buffer
	require.NoError(t, encodeFrame(&buff, []byte{3, 4, 5}))
	require.Equal(t,
		[]byte{
			0, 0, 0, 3, // size
			0x48, 0x49, 0x56, 0xe7, // crc32c of size and payload
			3, 4, 5, // payload
		},
		buff.Bytes(),
	)
}

func TestDecodeFrame(t *testing.T) {
	var buff bytes.Buffer
	require.NoError(t, encodeFrame(&buff, []byte{3, 4, 5}))
	frame := buff.Bytes()

	for _, tst := range []struct {
		name    string
		frame   func() []byte
		maxSize uint64
		err     error
	}{
		{
			name:    "valid",
			frame:   func() []byte { return frame },
			maxSize: math.MaxUint64,
		},
		{
			name: "corrupted payload",
			frame: func() []byte {
				corrupted := bytes.Clone(frame)
				corrupted[len(corrupted)-1]++
				return corrupted
			},
			maxSize: math.MaxUint64,
			err:     ErrChecksumMismatch,
		},
		{
			name: "corrupted checksum",
			frame: func() []byte {
				corrupted := bytes.Clone(frame)
				corrupted[frameSizeLen]++
				return corrupted
			},
			maxSize: math.MaxUint64,
			err:     ErrChecksumMismatch,
		},
		{
			name:    "larger than allowed",
			frame:   func() []byte { return frame },
			maxSize: uint64(len(frame) - 1),
			err:     errFrameTooLarge,
		},
		{
			name:    "truncated",
			frame:   func() []byte { return frame[:len(frame)-1] },
			maxSize: math.MaxUint64,
			err:     io.ErrUnexpectedEOF,
		},
	} {
		t.Run(tst.name, func(t *testing.T) {
			payload, n, err := decodeFrame(bytes.NewReader(tst.frame()), tst.maxSize)
			if tst.err != nil {
				require.ErrorIs(t, err, tst.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, []byte{3, 4, 5}, payload)
			require.Equal(t, len(frame), n)
		})
	}
}

func FuzzFrame(f *testing.F) {
	f.Add([]byte{}, 0)
	f.Add([]byte{1, 2, 3}, 5)
	f.Fuzz(func(t *testing.T, payload []byte, flip int) {
		var buff bytes.Buffer
		require.NoError(t, encodeFrame(&buff, payload))

		decoded, n, err := decodeFrame(bytes.NewReader(buff.Bytes()), math.MaxUint64)
		require.NoError(t, err)
		require.True(t, bytes.Equal(payload, decoded))
		require.Equal(t, buff.Len(), n)

		// flipping a bit after the size must be detected
		frame := buff.Bytes()
		i := frameSizeLen + (flip&math.MaxInt32)%(len(frame)-frameSizeLen)
		frame[i] ^= 1
		_, _, err = decodeFrame(bytes.NewReader(frame), math.MaxUint64)
		require.ErrorIs(t, err, ErrChecksumMismatch)
	})
}

func BenchmarkDecodeFrame(b *testing.B) {
	var buff bytes.Buffer
	require.NoError(b, encodeFrame(&buff, make([]byte, 1024)))
	frame := buff.Bytes()

	for i := 0; i < b.N; i++ {
		_, _, _ = decodeFrame(bytes.NewReader(frame), math.MaxUint64)
	}
}
