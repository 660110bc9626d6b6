// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/multierr"
)

var (
	ErrInvariantViolation = errors.New("vertex store state invariant violated")
	errNotEndOfEpoch      = errors.New("expected an end of epoch proof")
)

// VertexStoreState is an immutable, invariant-checked snapshot of the vertices
// between the last committed vertex (the root) and the frontier.
type VertexStoreState struct {
	root       VertexWithHash
	rootProof  LedgerProof
	highQC     HighQC
	vertices   []VertexWithHash
	idToVertex map[Digest]VertexWithHash
}

// NewVertexStoreState validates that [vertices] form a tree below [root] and
// that every vertex referenced by [highQC] is present. Any violation is
// returned wrapped in ErrInvariantViolation.
func NewVertexStoreState(highQC HighQC, root VertexWithHash, vertices []VertexWithHash) (*VertexStoreState, error) {
	committed, proof, ok := highQC.HighestCommittedQC.CommittedAndProof()
	if !ok {
		return nil, fmt.Errorf("%w: highest committed QC for round %d does not commit", ErrInvariantViolation, highQC.HighestCommittedQC.Round())
	}

	var errs error
	if committed.VertexID != root.Hash() {
		errs = multierr.Append(errs, fmt.Errorf("%w: committed header %s does not match root %s",
			ErrInvariantViolation, committed.VertexID, root.Hash()))
	}

	seen := make(map[Digest]VertexWithHash, len(vertices)+1)
	seen[root.Hash()] = root
	for _, v := range vertices {
		if _, exists := seen[v.ParentID()]; !exists {
			errs = multierr.Append(errs, fmt.Errorf("%w: vertex %s at round %d is missing its parent %s",
				ErrInvariantViolation, v.Hash(), v.Round(), v.ParentID()))
		}
		seen[v.Hash()] = v
	}

	required := []struct {
		name string
		id   Digest
	}{
		{"highest committed QC proposed", highQC.HighestCommittedQC.ProposedHeader().VertexID},
		{"highest committed QC parent", highQC.HighestCommittedQC.ParentHeader().VertexID},
		{"highest QC proposed", highQC.HighestQC.ProposedHeader().VertexID},
		{"highest QC parent", highQC.HighestQC.ParentHeader().VertexID},
	}
	for _, r := range required {
		if _, exists := seen[r.id]; !exists {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s vertex %s is missing", ErrInvariantViolation, r.name, r.id))
		}
	}

	if errs != nil {
		return nil, errs
	}

	return &VertexStoreState{
		root:       root,
		rootProof:  proof,
		highQC:     highQC,
		vertices:   slices.Clone(vertices),
		idToVertex: seen,
	}, nil
}

// NewVertexStoreStateForNextEpoch returns the state a new epoch starts from,
// given the proof of the ledger header that closed the previous one.
func NewVertexStoreStateForNextEpoch(epochProof LedgerProof) (*VertexStoreState, error) {
	nextEpoch := epochProof.Header.NextEpoch
	if nextEpoch == nil {
		return nil, errNotEndOfEpoch
	}

	genesis := NewVertexWithHash(NewInitialEpochVertex(epochProof.Header))
	nextLedgerHeader := LedgerHeader{
		Epoch:                         nextEpoch.Epoch,
		Round:                         GenesisRound,
		StateVersion:                  epochProof.Header.StateVersion,
		StateHash:                     epochProof.Header.StateHash,
		ConsensusParentRoundTimestamp: epochProof.Header.ConsensusParentRoundTimestamp,
		ProposerTimestamp:             epochProof.Header.ProposerTimestamp,
		NextProtocolVersion:           epochProof.Header.NextProtocolVersion,
	}
	qc, err := NewInitialEpochQC(genesis, nextLedgerHeader)
	if err != nil {
		return nil, err
	}
	return NewVertexStoreState(HighQCFrom(qc), genesis, nil)
}

// Prune returns the state rooted at the vertex committed by the highest QC,
// keeping only the vertices the highest QC references. If the highest QC does
// not commit past the current root, the receiver is returned.
func (s *VertexStoreState) Prune() *VertexStoreState {
	committed, proof, ok := s.highQC.HighestQC.CommittedAndProof()
	if !ok || committed.Round <= s.root.Round() {
		return s
	}

	newRoot, exists := s.idToVertex[committed.VertexID]
	if !exists {
		return s
	}
	highestQC := s.highQC.HighestQC
	idToVertex := map[Digest]VertexWithHash{newRoot.Hash(): newRoot}
	var vertices []VertexWithHash
	for _, id := range []Digest{highestQC.ParentHeader().VertexID, highestQC.ProposedHeader().VertexID} {
		if _, exists := idToVertex[id]; exists {
			continue
		}
		v := s.idToVertex[id]
		vertices = append(vertices, v)
		idToVertex[id] = v
	}

	newHighQC := HighQCFrom(highestQC)
	newHighQC.HighestTC = s.highQC.HighestTC

	return &VertexStoreState{
		root:       newRoot,
		rootProof:  proof,
		highQC:     newHighQC,
		vertices:   vertices,
		idToVertex: idToVertex,
	}
}

func (s *VertexStoreState) Root() VertexWithHash {
	return s.root
}

func (s *VertexStoreState) RootProof() LedgerProof {
	return s.rootProof
}

func (s *VertexStoreState) HighQC() HighQC {
	return s.highQC
}

// Vertices returns the non-root vertices, parents before children.
func (s *VertexStoreState) Vertices() []VertexWithHash {
	return slices.Clone(s.vertices)
}

func (s *VertexStoreState) Vertex(id Digest) (VertexWithHash, bool) {
	v, exists := s.idToVertex[id]
	return v, exists
}

func (s *VertexStoreState) Contains(id Digest) bool {
	_, exists := s.idToVertex[id]
	return exists
}

type serializedVertexStoreState struct {
	HighQC   HighQC
	Root     Vertex
	Vertices []Vertex
}

// Bytes returns the persisted form of the state. Hashes are not persisted.
func (s *VertexStoreState) Bytes() ([]byte, error) {
	serialized := serializedVertexStoreState{
		HighQC:   s.highQC,
		Root:     s.root.Vertex(),
		Vertices: make([]Vertex, len(s.vertices)),
	}
	for i, v := range s.vertices {
		serialized.Vertices[i] = v.Vertex()
	}
	return encMode.Marshal(serialized)
}

// VertexStoreStateFromBytes decodes a persisted state, re-deriving every hash
// and re-checking every invariant.
func VertexStoreStateFromBytes(buff []byte) (*VertexStoreState, error) {
	var serialized serializedVertexStoreState
	if err := decMode.Unmarshal(buff, &serialized); err != nil {
		return nil, fmt.Errorf("failed decoding vertex store state: %w", err)
	}

	vertices := make([]VertexWithHash, len(serialized.Vertices))
	for i, v := range serialized.Vertices {
		vertices[i] = NewVertexWithHash(v)
	}
	return NewVertexStoreState(serialized.HighQC, NewVertexWithHash(serialized.Root), vertices)
}
