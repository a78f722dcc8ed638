// Package ir defines the captured instruction representation shared by
// the capture streamer and the output renderers.
package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// OperandKind tags which variant of an Operand is active.
type OperandKind int

const (
	KindRegister OperandKind = iota
	KindInteger
	KindLabel
)

// String returns the wire name of the kind, as used in the JSON "type" field.
func (k OperandKind) String() string {
	switch k {
	case KindRegister:
		return "register"
	case KindInteger:
		return "integer"
	case KindLabel:
		return "label"
	}
	return fmt.Sprintf("OperandKind(%d)", int(k))
}

// Operand is one decoded instruction argument: a register display name, a
// signed immediate, or a symbolic label reference. Exactly one variant is
// active; values are immutable once constructed.
type Operand struct {
	kind OperandKind
	name string // register or label display name
	imm  int64  // immediate value
}

// Register returns a register operand carrying its display name.
func Register(name string) Operand {
	return Operand{kind: KindRegister, name: name}
}

// Integer returns an immediate operand.
func Integer(v int64) Operand {
	return Operand{kind: KindInteger, imm: v}
}

// LabelRef returns a symbolic reference operand (branch target, data symbol).
func LabelRef(name string) Operand {
	return Operand{kind: KindLabel, name: name}
}

func (o Operand) Kind() OperandKind { return o.kind }

// Name returns the register or label name; empty for integer operands.
func (o Operand) Name() string { return o.name }

// Int returns the immediate value; zero for register and label operands.
func (o Operand) Int() int64 { return o.imm }

// String formats the operand for text listings.
func (o Operand) String() string {
	if o.kind == KindInteger {
		return strconv.FormatInt(o.imm, 10)
	}
	return o.name
}

// operandJSON is the tagged wire form shared by Marshal and Unmarshal.
type operandJSON struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON renders the {type, value} form.
func (o Operand) MarshalJSON() ([]byte, error) {
	var value any
	switch o.kind {
	case KindInteger:
		value = o.imm
	default:
		value = o.name
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(operandJSON{Type: o.kind.String(), Value: raw})
}

// UnmarshalJSON restores an operand from its tagged form. Unknown type tags
// are an error: every kind the wire can carry must be handled here.
func (o *Operand) UnmarshalJSON(data []byte) error {
	var wire operandJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Type {
	case "register":
		var name string
		if err := json.Unmarshal(wire.Value, &name); err != nil {
			return err
		}
		*o = Register(name)
	case "label":
		var name string
		if err := json.Unmarshal(wire.Value, &name); err != nil {
			return err
		}
		*o = LabelRef(name)
	case "integer":
		var v int64
		if err := json.Unmarshal(wire.Value, &v); err != nil {
			return err
		}
		*o = Integer(v)
	default:
		return fmt.Errorf("unknown operand type %q", wire.Type)
	}
	return nil
}
