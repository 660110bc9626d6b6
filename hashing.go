// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

import (
	"encoding/asn1"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

const (
	vertexContext         = "Vertex"
	voteDataContext       = "VoteData"
	toBeSignedVoteContext = "ToBeSignedVote"
	voteTimeoutContext    = "VoteTimeout"
	ledgerHeaderContext   = "LedgerHeader"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed creating canonical CBOR encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed creating CBOR decoder: %v", err))
	}
}

type SignedMessage struct {
	Payload []byte
	Context string
}

// hashContext hashes the canonical encoding of [v] under a domain separation context.
func hashContext(v any, context string) (Digest, error) {
	payload, err := encMode.Marshal(v)
	if err != nil {
		return Digest{}, fmt.Errorf("failed encoding %s: %w", context, err)
	}
	sm := SignedMessage{Payload: payload, Context: context}
	toBeHashed, err := asn1.Marshal(sm)
	if err != nil {
		return Digest{}, err
	}
	return blake2b.Sum256(toBeHashed), nil
}

// mustHashContext is used for model values, which always encode.
func mustHashContext(v any, context string) Digest {
	digest, err := hashContext(v, context)
	if err != nil {
		panic(err)
	}
	return digest
}
