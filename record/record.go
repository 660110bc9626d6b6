// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package record

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// A record is laid out as | version (1) | type (2) | payload |.
// Records are stored inside write ahead log frames, which carry the length
// and the checksum.
const (
	versionLen = 1
	typeLen    = 2
	headerLen  = versionLen + typeLen

	MaxPayloadSize = 100_000_000 // ~ 100MB
)

var (
	ErrShortRecord   = errors.New("record shorter than its header")
	ErrPayloadTooBig = errors.New("record payload too big")
)

// Record is a typed and versioned payload.
type Record struct {
	Version uint8
	Type    uint16
	Payload []byte
}

func New(recType uint16, payload []byte) Record {
	return Record{
		Version: CurrentVersion,
		Type:    recType,
		Payload: payload,
	}
}

func (r Record) Bytes() []byte {
	buff := make([]byte, headerLen+len(r.Payload))
	buff[0] = r.Version
	binary.BigEndian.PutUint16(buff[versionLen:], r.Type)
	copy(buff[headerLen:], r.Payload)
	return buff
}

// Parse decodes a record spanning all of [buff]. The payload is copied.
func Parse(buff []byte) (Record, error) {
	if len(buff) < headerLen {
		return Record{}, fmt.Errorf("%w: %d bytes", ErrShortRecord, len(buff))
	}
	payloadLen := len(buff) - headerLen
	if payloadLen > MaxPayloadSize {
		return Record{}, fmt.Errorf("%w: %d bytes", ErrPayloadTooBig, payloadLen)
	}

	payload := make([]byte, payloadLen)
	copy(payload, buff[headerLen:])
	return Record{
		Version: buff[0],
		Type:    binary.BigEndian.Uint16(buff[versionLen:]),
		Payload: payload,
	}, nil
}
