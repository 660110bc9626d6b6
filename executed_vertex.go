// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bft

type TxnErrorKind uint8

const (
	TxnRejected TxnErrorKind = iota + 1
	TxnExecutionFailed
	TxnFeeLoanNotRepaid
)

func (k TxnErrorKind) String() string {
	switch k {
	case TxnRejected:
		return "rejected"
	case TxnExecutionFailed:
		return "execution_failed"
	case TxnFeeLoanNotRepaid:
		return "fee_loan_not_repaid"
	default:
		return "unknown"
	}
}

type ExecutedTxn struct {
	Payload      []byte
	StateVersion uint64
}

type TxnFailure struct {
	Payload []byte
	Kind    TxnErrorKind
	Message string
}

// TxnResult is the outcome of executing one transaction of a vertex. Exactly
// one of the fields is set.
type TxnResult struct {
	Executed *ExecutedTxn
	Failed   *TxnFailure
}

func ExecutedResult(txn ExecutedTxn) TxnResult {
	return TxnResult{Executed: &txn}
}

func FailedResult(failure TxnFailure) TxnResult {
	return TxnResult{Failed: &failure}
}

// ExecutedVertex is a vertex after tentative execution. Results keep the
// order of the vertex transactions.
type ExecutedVertex struct {
	vertex          VertexWithHash
	ledgerHeader    LedgerHeader
	results         []TxnResult
	timeOfExecution int64
}

func NewExecutedVertex(vertex VertexWithHash, ledgerHeader LedgerHeader, results []TxnResult, timeOfExecution int64) ExecutedVertex {
	return ExecutedVertex{
		vertex:          vertex,
		ledgerHeader:    ledgerHeader,
		results:         results,
		timeOfExecution: timeOfExecution,
	}
}

func (e ExecutedVertex) Vertex() VertexWithHash {
	return e.vertex
}

func (e ExecutedVertex) Hash() Digest {
	return e.vertex.Hash()
}

func (e ExecutedVertex) Round() Round {
	return e.vertex.Round()
}

func (e ExecutedVertex) ParentID() Digest {
	return e.vertex.ParentID()
}

func (e ExecutedVertex) LedgerHeader() LedgerHeader {
	return e.ledgerHeader
}

func (e ExecutedVertex) TimeOfExecution() int64 {
	return e.timeOfExecution
}

func (e ExecutedVertex) Results() []TxnResult {
	return e.results
}

// Header is the BFT header a vote for this vertex would propose.
func (e ExecutedVertex) Header() BFTHeader {
	return BFTHeader{Round: e.Round(), VertexID: e.Hash(), Ledger: e.ledgerHeader}
}

func (e ExecutedVertex) SuccessfulTransactions() []ExecutedTxn {
	var executed []ExecutedTxn
	for _, r := range e.results {
		if r.Executed != nil {
			executed = append(executed, *r.Executed)
		}
	}
	return executed
}

func (e ExecutedVertex) FailedTransactions() []TxnFailure {
	var failed []TxnFailure
	for _, r := range e.results {
		if r.Failed != nil {
			failed = append(failed, *r.Failed)
		}
	}
	return failed
}
