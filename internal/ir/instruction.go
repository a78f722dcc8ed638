package ir

import (
	"encoding/json"
	"strings"
)

// Location is a 1-based source position as reported by the decoder.
// The zero value means "never reported".
type Location struct {
	Line   uint32
	Column uint32
}

// Instruction is one captured instruction: its mnemonic, the labels that
// textually preceded it, its operands in decoder order, and where it came
// from in the source. Records are created fully formed and never change
// after they join a stream.
type Instruction struct {
	opcode   string
	labels   []string
	operands []Operand
	loc      Location
}

// NewInstruction builds an instruction record. Both slices are copied, so
// callers can keep reusing their buffers. The opcode is trusted to be
// non-empty; the decoder guarantees it.
func NewInstruction(opcode string, labels []string, operands []Operand) *Instruction {
	return &Instruction{
		opcode:   opcode,
		labels:   append([]string(nil), labels...),
		operands: append([]Operand(nil), operands...),
	}
}

// SetLocation stamps the source position. The decoder reports the position
// out of band from the operand list, so this is a separate call; it must
// happen before the instruction is considered complete.
func (i *Instruction) SetLocation(line, column uint32) {
	i.loc = Location{Line: line, Column: column}
}

func (i *Instruction) Opcode() string      { return i.opcode }
func (i *Instruction) Labels() []string    { return i.labels }
func (i *Instruction) Operands() []Operand { return i.operands }
func (i *Instruction) Location() Location  { return i.loc }

// String formats the instruction for text listings: "opcode op, op, ...".
func (i *Instruction) String() string {
	if len(i.operands) == 0 {
		return i.opcode
	}
	parts := make([]string, len(i.operands))
	for n, op := range i.operands {
		parts[n] = op.String()
	}
	return i.opcode + " " + strings.Join(parts, ", ")
}

type instructionJSON struct {
	Opcode   string    `json:"opcode"`
	Labels   []string  `json:"labels"`
	Operands []Operand `json:"operands"`
	Line     uint32    `json:"line"`
	Column   uint32    `json:"column"`
}

// MarshalJSON renders the record. Attached labels serialize as bare name
// strings; only label *operands* use the tagged {type, value} form. The
// reported line is one ahead of the logical source line (the decoder's
// lexer has already advanced when the instruction event fires), so the
// serialized line is line-1; an unset location stays 0.
func (i *Instruction) MarshalJSON() ([]byte, error) {
	labels := i.labels
	if labels == nil {
		labels = []string{}
	}
	operands := i.operands
	if operands == nil {
		operands = []Operand{}
	}
	line := i.loc.Line
	if line > 0 {
		line--
	}
	return json.Marshal(instructionJSON{
		Opcode:   i.opcode,
		Labels:   labels,
		Operands: operands,
		Line:     line,
		Column:   i.loc.Column,
	})
}
