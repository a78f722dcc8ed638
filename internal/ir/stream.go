package ir

import "encoding/json"

// InstructionStream is the append-only record of every captured instruction
// for one input, in source order. The stream owns its instructions: once
// pushed they are never mutated or removed.
type InstructionStream struct {
	instructions []*Instruction
}

// NewStream returns an empty stream.
func NewStream() *InstructionStream {
	return &InstructionStream{}
}

// Push appends an instruction. Insertion order is source order.
func (s *InstructionStream) Push(inst *Instruction) {
	s.instructions = append(s.instructions, inst)
}

func (s *InstructionStream) Len() int { return len(s.instructions) }

// At returns the i-th instruction in push order.
func (s *InstructionStream) At(i int) *Instruction { return s.instructions[i] }

// Instructions returns the backing slice in push order. Callers must treat
// it as read-only.
func (s *InstructionStream) Instructions() []*Instruction { return s.instructions }

// MarshalJSON renders {"instructions": [...]} in stream order.
func (s *InstructionStream) MarshalJSON() ([]byte, error) {
	instructions := s.instructions
	if instructions == nil {
		instructions = []*Instruction{}
	}
	return json.Marshal(struct {
		Instructions []*Instruction `json:"instructions"`
	}{instructions})
}
