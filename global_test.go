// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNodeIDs(t *testing.T) {
	nodeIDs := NodeIDs{
		{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		{0x02},
		{0x03},
	}

	for i := range nodeIDs {
		remaining := nodeIDs.Remove(nodeIDs[i])
		require.Len(t, remaining, len(nodeIDs)-1)
		require.False(t, remaining.Contains(nodeIDs[i]))
		for j := range nodeIDs {
			if i == j {
				continue
			}
			require.True(t, remaining.Contains(nodeIDs[j]))
		}
	}
}

func TestDigestString(t *testing.T) {
	var d Digest
	require.True(t, d.IsZero())
	d[0] = 0xab
	require.False(t, d.IsZero())
	require.Equal(t, "ab00000000000000", d.String())
}
