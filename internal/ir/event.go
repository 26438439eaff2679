package ir

// Event kinds emitted by the object and slot layers.
const (
	EventCreated       = "created"
	EventTransferred   = "transferred"
	EventFrozen        = "frozen"
	EventDeleted       = "deleted"
	EventUnpacked      = "unpacked"
	EventSlotAttached  = "slot_attached"
	EventSlotRemoved   = "slot_removed"
	EventEscrowCreated = "escrow_created"
	EventEscrowSwapped = "escrow_swapped"
	EventEscrowReturn  = "escrow_returned"
)

// Transaction status values recorded in the journal.
const (
	StatusCommitted = "committed"
	StatusAborted   = "aborted"
)

// Event is a fire-and-forget notification emitted by a transaction.
// Events of aborted transactions are discarded with the rest of the
// transaction's effects.
type Event struct {
	ID     string   `json:"id"`     // Content-addressed hash
	Digest string   `json:"digest"` // Emitting transaction
	Seq    int64    `json:"seq"`    // Logical clock
	Kind   string   `json:"kind"`
	Object ID       `json:"object"`
	Fields IRObject `json:"fields"`
}

// TxRecord is the journal entry for one executed transaction.
type TxRecord struct {
	Digest    string  `json:"digest"`
	Sender    Address `json:"sender"`
	Status    string  `json:"status"`               // "committed" or "aborted"
	AbortCode string  `json:"abort_code,omitempty"` // Error code for aborted transactions
	Message   string  `json:"message,omitempty"`
	Seq       int64   `json:"seq"`
	Issued    int64   `json:"issued"` // Registry count once the transaction finished
}
