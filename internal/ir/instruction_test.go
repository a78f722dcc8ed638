package ir

import (
	"encoding/json"
	"testing"
)

func TestInstructionJSON(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *Instruction
		wantJSON string
	}{
		{
			name: "labels and operands with location",
			build: func() *Instruction {
				inst := NewInstruction("add", []string{"entry"}, []Operand{
					Register("x0"), Register("x1"), Integer(4),
				})
				inst.SetLocation(5, 3)
				return inst
			},
			wantJSON: `{"opcode":"add","labels":["entry"],"operands":[{"type":"register","value":"x0"},{"type":"register","value":"x1"},{"type":"integer","value":4}],"line":4,"column":3}`,
		},
		{
			name: "no labels no operands no location",
			build: func() *Instruction {
				return NewInstruction("ret", nil, nil)
			},
			wantJSON: `{"opcode":"ret","labels":[],"operands":[],"line":0,"column":0}`,
		},
		{
			name: "reported line one is serialized as zero",
			build: func() *Instruction {
				inst := NewInstruction("nop", nil, nil)
				inst.SetLocation(1, 1)
				return inst
			},
			wantJSON: `{"opcode":"nop","labels":[],"operands":[],"line":0,"column":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.build())
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(data) != tt.wantJSON {
				t.Errorf("Marshal mismatch\nwant: %s\ngot:  %s", tt.wantJSON, data)
			}
		})
	}
}

func TestInstructionCopiesInputs(t *testing.T) {
	labels := []string{"loop"}
	operands := []Operand{Register("x0")}
	inst := NewInstruction("b", labels, operands)

	labels[0] = "mutated"
	operands[0] = Integer(99)

	if inst.Labels()[0] != "loop" {
		t.Errorf("Labels were not copied: got %q", inst.Labels()[0])
	}
	if inst.Operands()[0] != Register("x0") {
		t.Errorf("Operands were not copied: got %#v", inst.Operands()[0])
	}
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		name string
		inst *Instruction
		want string
	}{
		{"no operands", NewInstruction("ret", nil, nil), "ret"},
		{
			"mixed operands",
			NewInstruction("add", nil, []Operand{Register("x0"), Register("x1"), Integer(4)}),
			"add x0, x1, 4",
		},
		{
			"label operand",
			NewInstruction("b", nil, []Operand{LabelRef("loop")}),
			"b loop",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.inst.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
