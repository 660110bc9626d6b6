// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestWAL(t *testing.T) (*WriteAheadLog, string) {
	fileName := filepath.Join(t.TempDir(), "vertexbft.wal")
	w, err := New(fileName)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, w.Close())
	})
	return w, fileName
}

func TestAppendAndReadAll(t *testing.T) {
	r1 := []byte{3, 4, 5}
	r2 := []byte{1, 2, 3}

	for _, tst := range []struct {
		name string
		ops  func(t *testing.T, w *WriteAheadLog)
		want [][]byte
	}{
		{
			name: "empty",
			ops:  func(*testing.T, *WriteAheadLog) {},
		},
		{
			name: "single",
			ops: func(t *testing.T, w *WriteAheadLog) {
				require.NoError(t, w.Append(r1))
			},
			want: [][]byte{r1},
		},
		{
			name: "multiple",
			ops: func(t *testing.T, w *WriteAheadLog) {
				require.NoError(t, w.Append(r1))
				require.NoError(t, w.Append(r2))
			},
			want: [][]byte{r1, r2},
		},
		{
			name: "append after read",
			ops: func(t *testing.T, w *WriteAheadLog) {
				require.NoError(t, w.Append(r1))
				payloads, err := w.ReadAll()
				require.NoError(t, err)
				require.Equal(t, [][]byte{r1}, payloads)
				require.NoError(t, w.Append(r2))
			},
			want: [][]byte{r1, r2},
		},
		{
			name: "truncate",
			ops: func(t *testing.T, w *WriteAheadLog) {
				require.NoError(t, w.Append(r1))
				require.NoError(t, w.Truncate())
			},
		},
		{
			name: "append after truncate",
			ops: func(t *testing.T, w *WriteAheadLog) {
				require.NoError(t, w.Append(r1))
				require.NoError(t, w.Truncate())
				require.NoError(t, w.Append(r2))
			},
			want: [][]byte{r2},
		},
	} {
		t.Run(tst.name, func(t *testing.T) {
			w, _ := newTestWAL(t)
			tst.ops(t, w)

			payloads, err := w.ReadAll()
			require.NoError(t, err)
			require.Equal(t, tst.want, payloads)
		})
	}
}

func TestCorruptedTailIsTruncated(t *testing.T) {
	records := [][]byte{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}, {3, 3, 3}}
	frameLen := int64(frameHeaderLen + len(records[0]))
	lastFrame := frameLen * int64(len(records)-1)

	for _, tst := range []struct {
		name    string
		corrupt func(t *testing.T, file *os.File)
	}{
		{
			name: "oversized length",
			corrupt: func(t *testing.T, file *os.File) {
				_, err := file.WriteAt([]byte{0, 1, 2}, lastFrame)
				require.NoError(t, err)
			},
		},
		{
			name: "flipped payload",
			corrupt: func(t *testing.T, file *os.File) {
				_, err := file.WriteAt([]byte{9}, lastFrame+frameHeaderLen)
				require.NoError(t, err)
			},
		},
		{
			name: "partial frame",
			corrupt: func(t *testing.T, file *os.File) {
				require.NoError(t, file.Truncate(lastFrame+frameHeaderLen+1))
			},
		},
	} {
		t.Run(tst.name, func(t *testing.T) {
			require := require.New(t)

			w, fileName := newTestWAL(t)
			for _, r := range records {
				require.NoError(w.Append(r))
			}

			file, err := os.OpenFile(fileName, os.O_RDWR, WalPermissions)
			require.NoError(err)
			tst.corrupt(t, file)
			require.NoError(file.Close())

			payloads, err := w.ReadAll()
			require.NoError(err)
			require.Equal(records[:len(records)-1], payloads)

			// the corrupted frame is gone for good
			info, err := os.Stat(fileName)
			require.NoError(err)
			require.Equal(lastFrame, info.Size())

			require.NoError(w.Append(records[len(records)-1]))
			payloads, err = w.ReadAll()
			require.NoError(err)
			require.Equal(records, payloads)
		})
	}
}

func TestReopen(t *testing.T) {
	require := require.New(t)

	fileName := filepath.Join(t.TempDir(), "vertexbft.wal")
	w, err := New(fileName)
	require.NoError(err)
	require.NoError(w.Append([]byte{1}))
	require.NoError(w.Close())

	w, err = New(fileName)
	require.NoError(err)
	defer func() {
		require.NoError(w.Close())
	}()
	require.NoError(w.Append([]byte{2}))

	payloads, err := w.ReadAll()
	require.NoError(err)
	require.Equal([][]byte{{1}, {2}}, payloads)
}
