package models

// Event is an immutable notification produced by a committed transaction.
// Events carry snapshots of the records as committed, not live references,
// so listeners can never observe later mutations.
type Event interface {
	EventName() string
}

// Event names as delivered to listeners.
const (
	EventDocumentProcessed = "DocumentProcessedEvent"
	EventSomeTransaction   = "SomeTransactionEvent"
)

// DocumentProcessedEvent announces a review decision on a document.
type DocumentProcessedEvent struct {
	Document Document `json:"document"`
}

func (DocumentProcessedEvent) EventName() string { return EventDocumentProcessed }

// SomeTransactionEvent announces an asset ownership transfer.
type SomeTransactionEvent struct {
	Asset SomeAsset `json:"asset"`
}

func (SomeTransactionEvent) EventName() string { return EventSomeTransaction }
