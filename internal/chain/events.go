// Package chain defines the boundary to the blockchain client: the event
// schema emitted by the protocol package, a resumable event query cursor,
// the programmable transaction builder the composer writes into, and the
// submission interface. Nothing above this package speaks RPC directly.
package chain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/halcyonex/routerd/internal/core/types"
)

// Event type suffixes. The full tag is "<package>::events::<name>"; matching
// is on the suffix so package upgrades keep parsing.
const (
	EventOfferCreated       = "OfferCreated"
	EventOfferCreatedV2     = "OfferCreatedV2"
	EventOfferFilled        = "OfferFilled"
	EventOfferWithdrawn     = "OfferWithdrawn"
	EventOfferExpired       = "OfferExpired"
	EventIntentSubmitted    = "IntentSubmitted"
	EventIntentSubmittedV2  = "IntentSubmittedV2"
	EventIntentExecuted     = "IntentExecuted"
	EventIntentCancelled    = "IntentCancelled"
	EventIntentExpired      = "IntentExpired"
	EventEncryptedIntent    = "EncryptedIntentSubmitted"
)

// ErrUnknownEvent marks event types outside the documented schema. The
// cache logs and skips these.
var ErrUnknownEvent = errors.New("chain: unknown event type")

// ErrMalformedEvent marks events whose payload does not parse.
var ErrMalformedEvent = errors.New("chain: malformed event")

// EventCursor is a resumable position in the chain's ordered event stream.
type EventCursor struct {
	TxDigest string `json:"txDigest"`
	EventSeq uint64 `json:"eventSeq,string"`
}

// RawEvent is one event as delivered by the chain client, payload unparsed.
type RawEvent struct {
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"parsedJson"`
	Cursor      EventCursor     `json:"id"`
	TimestampMs Uint64          `json:"timestampMs"`
}

// Uint64 unmarshals a u64 that the RPC encodes as either a JSON number or a
// decimal string.
type Uint64 uint64

func (u *Uint64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*u = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a u64", ErrMalformedEvent, s)
	}
	*u = Uint64(v)
	return nil
}

// OfferCreatedEvent covers both OfferCreated and OfferCreatedV2. V2 added
// fill_policy and min_fill_amount; for V1 both default to zero values
// (Partial policy is the documented default).
type OfferCreatedEvent struct {
	OfferID       string  `json:"offer_id"`
	Maker         string  `json:"maker"`
	OfferAsset    string  `json:"offer_asset"`
	WantAsset     string  `json:"want_asset"`
	InitialAmount Uint64  `json:"initial_amount"`
	MinPrice      Uint64  `json:"min_price"`
	MaxPrice      Uint64  `json:"max_price"`
	FillPolicy    *Uint64 `json:"fill_policy"`
	MinFillAmount Uint64  `json:"min_fill_amount"`
	ExpiryMs      Uint64  `json:"expiry_ms"`
}

// Policy returns the fill policy, defaulting to Partial when the field is
// absent (V1 events).
func (e *OfferCreatedEvent) Policy() types.FillPolicy {
	if e.FillPolicy == nil {
		return types.FillPolicyPartial
	}
	return types.FillPolicy(*e.FillPolicy)
}

type OfferFilledEvent struct {
	OfferID         string `json:"offer_id"`
	Taker           string `json:"taker"`
	FillAmount      Uint64 `json:"fill_amount"`
	PaymentAmount   Uint64 `json:"payment_amount"`
	RemainingAmount Uint64 `json:"remaining_amount"`
	TimestampMs     Uint64 `json:"timestamp_ms"`
}

type OfferWithdrawnEvent struct {
	OfferID string `json:"offer_id"`
	Maker   string `json:"maker"`
}

type OfferExpiredEvent struct {
	OfferID string `json:"offer_id"`
}

// IntentSubmittedEvent covers IntentSubmitted, IntentSubmittedV2 and
// EncryptedIntentSubmitted. Encrypted submissions carry the all-zero
// sentinel in receive_amount/min_price/max_price.
type IntentSubmittedEvent struct {
	IntentID      string `json:"intent_id"`
	Creator       string `json:"creator"`
	ReceiveAsset  string `json:"receive_asset"`
	PayAsset      string `json:"pay_asset"`
	ReceiveAmount Uint64 `json:"receive_amount"`
	MaxPayAmount  Uint64 `json:"max_pay_amount"`
	MinPrice      Uint64 `json:"min_price"`
	MaxPrice      Uint64 `json:"max_price"`
	ExpiryMs      Uint64 `json:"expiry_ms"`
}

type IntentExecutedEvent struct {
	IntentID   string `json:"intent_id"`
	Executor   string `json:"executor"`
	FillAmount Uint64 `json:"fill_amount"`
	PayAmount  Uint64 `json:"pay_amount"`
}

type IntentCancelledEvent struct {
	IntentID string `json:"intent_id"`
}

type IntentExpiredEvent struct {
	IntentID string `json:"intent_id"`
}

// EventName extracts the trailing name from a full type tag.
func EventName(typeTag string) string {
	if i := strings.LastIndex(typeTag, "::"); i >= 0 {
		return typeTag[i+2:]
	}
	return typeTag
}

// ParseEvent decodes a raw event into its typed payload. Unknown event
// types return ErrUnknownEvent; undecodable payloads ErrMalformedEvent.
func ParseEvent(ev RawEvent) (any, error) {
	decode := func(dst any) (any, error) {
		if err := json.Unmarshal(ev.Payload, dst); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, ev.Type, err)
		}
		return dst, nil
	}
	switch EventName(ev.Type) {
	case EventOfferCreated, EventOfferCreatedV2:
		return decode(&OfferCreatedEvent{})
	case EventOfferFilled:
		return decode(&OfferFilledEvent{})
	case EventOfferWithdrawn:
		return decode(&OfferWithdrawnEvent{})
	case EventOfferExpired:
		return decode(&OfferExpiredEvent{})
	case EventIntentSubmitted, EventIntentSubmittedV2, EventEncryptedIntent:
		return decode(&IntentSubmittedEvent{})
	case EventIntentExecuted:
		return decode(&IntentExecutedEvent{})
	case EventIntentCancelled:
		return decode(&IntentCancelledEvent{})
	case EventIntentExpired:
		return decode(&IntentExpiredEvent{})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Type)
	}
}
