package chain

import (
	"context"
	"encoding/json"
)

// Subscription is a live push feed of protocol events. Err yields at most
// one error, after which the subscription is dead and the consumer should
// fall back to polling.
type Subscription interface {
	Events() <-chan RawEvent
	Err() <-chan error
	Close()
}

// GasBreakdown is the gas accounting of an executed transaction.
type GasBreakdown struct {
	ComputationCost Uint64 `json:"computationCost"`
	StorageCost     Uint64 `json:"storageCost"`
	StorageRebate   Uint64 `json:"storageRebate"`
}

// Total is the net gas charged.
func (g GasBreakdown) Total() uint64 {
	total := uint64(g.ComputationCost) + uint64(g.StorageCost)
	rebate := uint64(g.StorageRebate)
	if rebate > total {
		return 0
	}
	return total - rebate
}

// CreatedObject describes one object created by a transaction.
type CreatedObject struct {
	ObjectID   string `json:"objectId"`
	ObjectType string `json:"objectType"`
	Owner      string `json:"owner"`
}

// ExecuteResult is the outcome of a submitted transaction.
type ExecuteResult struct {
	Success        bool
	Status         string
	Digest         string
	Gas            GasBreakdown
	CreatedObjects []CreatedObject
}

// Client is the chain-client capability the router daemon consumes. The
// concrete implementation speaks JSON-RPC over HTTP plus a websocket for
// push subscriptions; tests substitute in-memory fakes.
type Client interface {
	// QueryEvents returns up to limit events emitted by the protocol
	// package after cursor, oldest first, plus the cursor to resume from.
	// A nil cursor starts from the beginning of retained history.
	QueryEvents(ctx context.Context, packageID string, cursor *EventCursor, limit int) ([]RawEvent, *EventCursor, error)

	// SubscribeEvents opens a push subscription filtered by the protocol
	// package. Implementations that cannot push return ErrPushUnsupported.
	SubscribeEvents(ctx context.Context, packageID string) (Subscription, error)

	// GetObject fetches an object's current content as raw JSON.
	GetObject(ctx context.Context, objectID string) (json.RawMessage, error)

	// ExecuteTransaction submits a signed transaction and waits for effects.
	ExecuteTransaction(ctx context.Context, txBytes []byte, signature []byte) (*ExecuteResult, error)
}
