// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
)

var (
	ErrEmptyValidatorSet  = errors.New("validator set is empty")
	ErrDuplicateValidator = errors.New("duplicate validator")
	ErrZeroPower          = errors.New("validator has zero voting power")
)

type Validator struct {
	ID        NodeID
	PublicKey []byte
	Power     uint64
}

// Signature is a timestamped signature of a single validator.
type Signature struct {
	Signer    NodeID
	Value     []byte
	Timestamp int64
}

// ValidatorSet is the fixed, weighted set of validators of an epoch.
type ValidatorSet struct {
	validators []Validator
	index      map[string]int
	totalPower uint64
}

func NewValidatorSet(validators []Validator) (*ValidatorSet, error) {
	if len(validators) == 0 {
		return nil, ErrEmptyValidatorSet
	}

	vs := &ValidatorSet{
		validators: make([]Validator, 0, len(validators)),
		index:      make(map[string]int, len(validators)),
	}
	for _, v := range validators {
		if _, exists := vs.index[string(v.ID)]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateValidator, v.ID)
		}
		if v.Power == 0 {
			return nil, fmt.Errorf("%w: %s", ErrZeroPower, v.ID)
		}
		vs.index[string(v.ID)] = len(vs.validators)
		vs.validators = append(vs.validators, v)
		vs.totalPower += v.Power
	}

	return vs, nil
}

func (vs *ValidatorSet) Contains(id NodeID) bool {
	_, exists := vs.index[string(id)]
	return exists
}

func (vs *ValidatorSet) Validator(id NodeID) (Validator, bool) {
	i, exists := vs.index[string(id)]
	if !exists {
		return Validator{}, false
	}
	return vs.validators[i], true
}

// Nodes returns the validator IDs in the order the set was created with.
func (vs *ValidatorSet) Nodes() NodeIDs {
	nodes := make(NodeIDs, len(vs.validators))
	for i, v := range vs.validators {
		nodes[i] = v.ID
	}
	return nodes
}

func (vs *ValidatorSet) Validators() []Validator {
	return slices.Clone(vs.validators)
}

func (vs *ValidatorSet) TotalPower() uint64 {
	return vs.totalPower
}

// QuorumThreshold is the voting power required to certify a round.
func (vs *ValidatorSet) QuorumThreshold() uint64 {
	return Quorum(vs.totalPower)
}

func (vs *ValidatorSet) NewValidationState() *ValidationState {
	return &ValidationState{
		validators: vs,
		signatures: make(map[string]Signature),
	}
}

// Quorum returns the weight needed out of [n] so that any two quorums intersect
// in at least one honest unit of weight.
func Quorum(n uint64) uint64 {
	f := (n - 1) / 3
	// Obtained from the equation:
	// Quorum * 2 = N + F + 1
	return (n+f)/2 + 1
}

// LeaderForRound returns the round robin leader of [round] among [nodes].
func LeaderForRound(nodes NodeIDs, round Round) NodeID {
	n := len(nodes)
	return nodes[uint64(round)%uint64(n)]
}

// RoundRobinElection rotates leadership over a validator set in creation order.
type RoundRobinElection struct {
	nodes NodeIDs
}

func NewRoundRobinElection(vs *ValidatorSet) *RoundRobinElection {
	return &RoundRobinElection{nodes: vs.Nodes()}
}

func (e *RoundRobinElection) Leader(round Round) NodeID {
	return LeaderForRound(e.nodes, round)
}

// ValidationState accumulates the signatures of distinct validators over a
// single message until their combined power reaches the quorum threshold.
type ValidationState struct {
	validators *ValidatorSet
	signatures map[string]Signature
	power      uint64
}

// AddSignature returns true if the signature of [author] was not present before.
func (s *ValidationState) AddSignature(author NodeID, timestamp int64, signature []byte) bool {
	validator, ok := s.validators.Validator(author)
	if !ok {
		return false
	}
	if _, exists := s.signatures[string(author)]; exists {
		return false
	}
	s.signatures[string(author)] = Signature{Signer: author, Value: signature, Timestamp: timestamp}
	s.power += validator.Power
	return true
}

func (s *ValidationState) RemoveSignature(author NodeID) {
	if _, exists := s.signatures[string(author)]; !exists {
		return
	}
	validator, _ := s.validators.Validator(author)
	delete(s.signatures, string(author))
	s.power -= validator.Power
}

func (s *ValidationState) Complete() bool {
	return s.power >= s.validators.QuorumThreshold()
}

func (s *ValidationState) IsEmpty() bool {
	return len(s.signatures) == 0
}

func (s *ValidationState) Power() uint64 {
	return s.power
}

// Signatures returns the collected signatures sorted by signer.
func (s *ValidationState) Signatures() []Signature {
	signatures := make([]Signature, 0, len(s.signatures))
	for _, sig := range s.signatures {
		signatures = append(signatures, sig)
	}
	// sort the signatures by Signer to ensure consistent ordering
	slices.SortFunc(signatures, compareSignatures)
	return signatures
}

// compareSignatures compares two signatures by their Signer field returning -1, 0, 1 if i is less than, equal to, or greater than j.
func compareSignatures(i, j Signature) int {
	return bytes.Compare(i.Signer, j.Signer)
}
