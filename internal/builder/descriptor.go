package builder

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EntryPoint is a fully qualified Move function: package::module::function
type EntryPoint struct {
	Package  string
	Module   string
	Function string
}

func (e EntryPoint) String() string {
	return fmt.Sprintf("%s::%s::%s", e.Package, e.Module, e.Function)
}

type inputKind int

const (
	inputPure inputKind = iota
	inputObject
)

// input is one entry of the transaction's input table
type input struct {
	kind     inputKind
	objectId string
	pure     []byte
}

type argumentKind int

const (
	argGasCoin argumentKind = iota
	argInput
	argNestedResult
)

// argument references an input, the gas coin or a command result
type argument struct {
	kind    argumentKind
	index   uint16
	result  uint16
	pureArg bool
}

type splitCoins struct {
	coin    argument
	amounts []argument
}

type moveCall struct {
	target    EntryPoint
	arguments []argument
}

// Argument is a (role, value) pair of the entry point call, in call order
type Argument struct {
	Role  string
	Value string
}

// Descriptor is an immutable ledger call: an optional coin split followed by
// one Move call. It serialises to the wallet-standard transaction JSON.
type Descriptor struct {
	sender  string
	inputs  []input
	split   *splitCoins
	call    moveCall
	roles   []Argument
	payment uint64
}

// Target returns the entry point the descriptor calls
func (d *Descriptor) Target() EntryPoint {
	return d.call.target
}

// Arguments returns the entry point arguments in call order
func (d *Descriptor) Arguments() []Argument {
	out := make([]Argument, len(d.roles))
	copy(out, d.roles)
	return out
}

// Payment returns the base units carved from the gas coin (0 when no split)
func (d *Descriptor) Payment() uint64 {
	return d.payment
}

// Sender returns the sender address, empty until WithSender is used
func (d *Descriptor) Sender() string {
	return d.sender
}

// WithSender returns a copy of the descriptor bound to the given sender
func (d *Descriptor) WithSender(address string) *Descriptor {
	cp := *d
	cp.sender = address
	return &cp
}

// MarshalJSON encodes the descriptor as a version 2 serialized transaction
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	inputs := make([]any, 0, len(d.inputs))
	for _, in := range d.inputs {
		switch in.kind {
		case inputPure:
			inputs = append(inputs, map[string]any{
				"$kind": "Pure",
				"Pure":  map[string]any{"bytes": base64.StdEncoding.EncodeToString(in.pure)},
			})
		case inputObject:
			inputs = append(inputs, map[string]any{
				"$kind":            "UnresolvedObject",
				"UnresolvedObject": map[string]any{"objectId": in.objectId},
			})
		}
	}

	commands := make([]any, 0, 2)
	if d.split != nil {
		amounts := make([]any, len(d.split.amounts))
		for i, a := range d.split.amounts {
			amounts[i] = a.toJSON()
		}
		commands = append(commands, map[string]any{
			"$kind": "SplitCoins",
			"SplitCoins": map[string]any{
				"coin":    d.split.coin.toJSON(),
				"amounts": amounts,
			},
		})
	}

	args := make([]any, len(d.call.arguments))
	for i, a := range d.call.arguments {
		args[i] = a.toJSON()
	}
	commands = append(commands, map[string]any{
		"$kind": "MoveCall",
		"MoveCall": map[string]any{
			"package":       d.call.target.Package,
			"module":        d.call.target.Module,
			"function":      d.call.target.Function,
			"typeArguments": []string{},
			"arguments":     args,
		},
	})

	var sender any
	if d.sender != "" {
		sender = d.sender
	}

	return json.Marshal(map[string]any{
		"version":    2,
		"sender":     sender,
		"expiration": nil,
		"gasData": map[string]any{
			"budget":  nil,
			"price":   nil,
			"owner":   nil,
			"payment": nil,
		},
		"inputs":   inputs,
		"commands": commands,
	})
}

func (a argument) toJSON() map[string]any {
	switch a.kind {
	case argGasCoin:
		return map[string]any{"$kind": "GasCoin", "GasCoin": true}
	case argNestedResult:
		return map[string]any{"$kind": "NestedResult", "NestedResult": []uint16{a.index, a.result}}
	default:
		kind := "object"
		if a.pureArg {
			kind = "pure"
		}
		return map[string]any{"$kind": "Input", "Input": a.index, "type": kind}
	}
}
