// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"bytes"
	"encoding/hex"
)

const digestLen = 32

type NodeID []byte

func (node NodeID) Equals(otherNode NodeID) bool {
	return bytes.Equal(node, otherNode)
}

func (node NodeID) String() string {
	return hex.EncodeToString(node)
}

type NodeIDs []NodeID

// Remove returns a copy of [nodes] without [id].
func (nodes NodeIDs) Remove(id NodeID) NodeIDs {
	result := make(NodeIDs, 0, len(nodes))
	for _, node := range nodes {
		if !node.Equals(id) {
			result = append(result, node)
		}
	}
	return result
}

func (nodes NodeIDs) Contains(id NodeID) bool {
	for _, node := range nodes {
		if node.Equals(id) {
			return true
		}
	}
	return false
}

// Digest is the content hash identifying vertices, vote data and ledger headers.
type Digest [digestLen]byte

func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:8])
}
