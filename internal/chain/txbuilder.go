package chain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrPushUnsupported is returned by clients that cannot open push
// subscriptions; the caller falls back to polling.
var ErrPushUnsupported = errors.New("chain: push subscriptions unsupported")

// WellKnownClockObject is the shared clock object passed to every
// time-sensitive protocol call.
const WellKnownClockObject = "0x6"

// ArgKind discriminates transaction builder arguments.
type ArgKind uint8

const (
	// ArgInput references an input value (object or pure) by index.
	ArgInput ArgKind = iota
	// ArgResult references the result of an earlier command by index.
	ArgResult
	// ArgNestedResult references one element of a multi-result command.
	ArgNestedResult
	// ArgGasCoin references the transaction's gas coin.
	ArgGasCoin
)

// Arg is a handle to a value inside the transaction being built: an input,
// a prior command's output, or the gas coin. Args are only meaningful
// within the builder that produced them.
type Arg struct {
	Kind   ArgKind `json:"kind"`
	Index  int     `json:"index"`
	Nested int     `json:"nested,omitempty"`
}

// GasCoinArg is the builder-independent handle to the gas coin.
func GasCoinArg() Arg { return Arg{Kind: ArgGasCoin} }

type txInput struct {
	Kind  string `json:"kind"` // "object" | "pure"
	Value any    `json:"value"`
	Type  string `json:"type,omitempty"`
}

type txCommand struct {
	Kind      string   `json:"kind"`
	Target    string   `json:"target,omitempty"`
	TypeArgs  []string `json:"typeArgs,omitempty"`
	Args      []Arg    `json:"args,omitempty"`
	Coin      *Arg     `json:"coin,omitempty"`
	Amounts   []Arg    `json:"amounts,omitempty"`
	Dest      *Arg     `json:"dest,omitempty"`
	Sources   []Arg    `json:"sources,omitempty"`
	Objects   []Arg    `json:"objects,omitempty"`
	Recipient *Arg     `json:"recipient,omitempty"`
}

// TxBuilder accumulates a programmable transaction: a list of inputs and an
// ordered list of commands whose outputs later commands may reference.
// It never signs or submits.
type TxBuilder struct {
	sender    string
	gasBudget uint64
	inputs    []txInput
	commands  []txCommand
}

// NewTxBuilder creates a builder for the given sender address.
func NewTxBuilder(sender string) *TxBuilder {
	return &TxBuilder{sender: sender}
}

// SetGasBudget attaches the gas ceiling for the whole transaction.
func (b *TxBuilder) SetGasBudget(budget uint64) {
	b.gasBudget = budget
}

// Object adds a shared or owned object reference input.
func (b *TxBuilder) Object(objectID string) Arg {
	b.inputs = append(b.inputs, txInput{Kind: "object", Value: objectID})
	return Arg{Kind: ArgInput, Index: len(b.inputs) - 1}
}

// PureU64 adds a u64 literal input.
func (b *TxBuilder) PureU64(v uint64) Arg {
	b.inputs = append(b.inputs, txInput{Kind: "pure", Value: fmt.Sprintf("%d", v), Type: "u64"})
	return Arg{Kind: ArgInput, Index: len(b.inputs) - 1}
}

// PureAddress adds an address literal input.
func (b *TxBuilder) PureAddress(addr string) Arg {
	b.inputs = append(b.inputs, txInput{Kind: "pure", Value: addr, Type: "address"})
	return Arg{Kind: ArgInput, Index: len(b.inputs) - 1}
}

// PureBytes adds a byte-vector literal input.
func (b *TxBuilder) PureBytes(v []byte) Arg {
	b.inputs = append(b.inputs, txInput{Kind: "pure", Value: v, Type: "vector<u8>"})
	return Arg{Kind: ArgInput, Index: len(b.inputs) - 1}
}

// PureBool adds a bool literal input.
func (b *TxBuilder) PureBool(v bool) Arg {
	b.inputs = append(b.inputs, txInput{Kind: "pure", Value: v, Type: "bool"})
	return Arg{Kind: ArgInput, Index: len(b.inputs) - 1}
}

// MoveCall emits a call command and returns the handle to its result.
func (b *TxBuilder) MoveCall(target string, typeArgs []string, args ...Arg) Arg {
	b.commands = append(b.commands, txCommand{
		Kind:     "moveCall",
		Target:   target,
		TypeArgs: typeArgs,
		Args:     args,
	})
	return Arg{Kind: ArgResult, Index: len(b.commands) - 1}
}

// SplitCoins splits the given amounts off a coin and returns one handle per
// amount, in order.
func (b *TxBuilder) SplitCoins(coin Arg, amounts ...Arg) []Arg {
	b.commands = append(b.commands, txCommand{
		Kind:    "splitCoins",
		Coin:    &coin,
		Amounts: amounts,
	})
	cmd := len(b.commands) - 1
	out := make([]Arg, len(amounts))
	for i := range amounts {
		out[i] = Arg{Kind: ArgNestedResult, Index: cmd, Nested: i}
	}
	return out
}

// MergeCoins merges sources into dest. Dest remains the valid handle.
func (b *TxBuilder) MergeCoins(dest Arg, sources ...Arg) {
	b.commands = append(b.commands, txCommand{
		Kind:    "mergeCoins",
		Dest:    &dest,
		Sources: sources,
	})
}

// TransferObjects transfers the objects to the recipient address input.
func (b *TxBuilder) TransferObjects(recipient Arg, objects ...Arg) {
	b.commands = append(b.commands, txCommand{
		Kind:      "transferObjects",
		Recipient: &recipient,
		Objects:   objects,
	})
}

// CommandCount returns the number of commands emitted so far.
func (b *TxBuilder) CommandCount() int {
	return len(b.commands)
}

// Build serializes the transaction into the canonical byte form the signer
// signs and the client submits.
func (b *TxBuilder) Build() ([]byte, error) {
	if len(b.commands) == 0 {
		return nil, errors.New("chain: empty transaction")
	}
	if b.gasBudget == 0 {
		return nil, errors.New("chain: gas budget not set")
	}
	return json.Marshal(struct {
		Sender    string      `json:"sender"`
		GasBudget uint64      `json:"gasBudget,string"`
		Inputs    []txInput   `json:"inputs"`
		Commands  []txCommand `json:"commands"`
	}{b.sender, b.gasBudget, b.inputs, b.commands})
}
