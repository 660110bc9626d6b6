// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package record

const (
	UndefinedRecordType uint16 = iota
	VertexStoreStateRecordType
)

// CurrentVersion is the version new records are written with.
const CurrentVersion uint8 = 1

func TypeName(recType uint16) string {
	switch recType {
	case VertexStoreStateRecordType:
		return "vertex_store_state"
	default:
		return "undefined"
	}
}
