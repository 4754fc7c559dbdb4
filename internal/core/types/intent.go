package types

import "fmt"

// IntentStatus is the lifecycle state of an intent. Pending is the only
// non-terminal state.
type IntentStatus uint8

const (
	IntentPending IntentStatus = iota
	IntentExecuted
	IntentCancelled
	IntentExpired
)

func (s IntentStatus) String() string {
	switch s {
	case IntentPending:
		return "pending"
	case IntentExecuted:
		return "executed"
	case IntentCancelled:
		return "cancelled"
	case IntentExpired:
		return "expired"
	default:
		return fmt.Sprintf("intent_status(%d)", uint8(s))
	}
}

func (s IntentStatus) Terminal() bool {
	return s != IntentPending
}

// Intent is a taker's bounded-price demand for ReceiveAsset paid in PayAsset.
type Intent struct {
	IntentID     string
	Creator      string
	ReceiveAsset string
	PayAsset     string

	ReceiveAmount uint64
	MaxPayAmount  uint64

	// Price bounds, scaled by pricing.Scale.
	MinPrice uint64
	MaxPrice uint64

	ExpiryMs uint64
	Status   IntentStatus
}

// Opaque reports whether the intent's real parameters are hidden behind the
// confidentiality collaborator. The on-chain sentinel is all-zero amount and
// price bounds.
func (i *Intent) Opaque() bool {
	return i.ReceiveAmount == 0 && i.MinPrice == 0 && i.MaxPrice == 0
}

// Pending reports whether the intent is still executable at nowMs.
func (i *Intent) Pending(nowMs uint64) bool {
	return i.Status == IntentPending && i.ExpiryMs > nowMs
}

// Pair returns the directed pair the intent trades.
func (i *Intent) Pair() Pair {
	return Pair{Receive: i.ReceiveAsset, Pay: i.PayAsset}
}

// IntentParams are the effective routing parameters of an intent: either its
// plain fields or the decrypted values of an opaque intent.
type IntentParams struct {
	ReceiveAmount uint64
	MinPrice      uint64
	MaxPrice      uint64
}
