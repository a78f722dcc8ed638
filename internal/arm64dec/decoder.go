// Package arm64dec drives a capture streamer from raw little-endian ARM64
// machine code, using golang.org/x/arch as the external decoder. Branch
// targets become loc_<va> labels, the same naming disassemblers use for
// unnamed locations.
package arm64dec

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"

	"asmcap/internal/capture"
	"asmcap/internal/ir"
)

// Decoder walks a code buffer instruction by instruction.
type Decoder struct {
	base uint64 // virtual address of the first byte
}

// New returns a decoder whose loc_ labels are named relative to base.
func New(base uint64) *Decoder {
	return &Decoder{base: base}
}

type regSet struct{}

// Registers returns the decoder's register naming service, suitable for
// capture.WithRegisterNamer.
func Registers() regSet { return regSet{} }

func (regSet) RegisterName(id int) string {
	return strings.ToLower(arm64asm.Reg(id).String())
}

// Run decodes code and emits one instruction event per word, preceded by a
// label event wherever a PC-relative branch lands. Machine code has no
// source lines, so locations stay unset. The return value counts words
// that failed to decode; those are skipped, not fatal.
func (d *Decoder) Run(code []byte, sink capture.Streamer) int {
	targets := d.branchTargets(code)

	skipped := 0
	for off := 0; off+4 <= len(code); off += 4 {
		va := d.base + uint64(off)
		inst, err := arm64asm.Decode(code[off : off+4])
		if err != nil {
			skipped++
			continue
		}
		if targets[va] {
			sink.EmitLabel(locName(va), ir.Location{})
		}
		sink.EmitInstruction(strings.ToLower(inst.Op.String()), d.rawOperands(va, inst), ir.Location{})
	}
	return skipped
}

// branchTargets is the first pass: collect every PC-relative destination so
// the second pass can emit its label before the instruction it names.
func (d *Decoder) branchTargets(code []byte) map[uint64]bool {
	targets := make(map[uint64]bool)
	for off := 0; off+4 <= len(code); off += 4 {
		inst, err := arm64asm.Decode(code[off : off+4])
		if err != nil {
			continue
		}
		for _, arg := range inst.Args {
			if rel, ok := arg.(arm64asm.PCRel); ok {
				targets[d.base+uint64(off)+uint64(int64(rel))] = true
			}
		}
	}
	return targets
}

// rawOperands maps decoded arguments onto the event contract's raw form,
// preserving argument order. Shapes the capture does not track (memory
// references, shifted or extended registers, vector arrangements) are
// forwarded as untracked operands and dropped downstream.
func (d *Decoder) rawOperands(va uint64, inst arm64asm.Inst) []capture.RawOperand {
	var raw []capture.RawOperand
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		switch a := arg.(type) {
		case arm64asm.Reg:
			raw = append(raw, capture.Reg(int(a)))
		case arm64asm.RegSP:
			raw = append(raw, capture.Reg(int(arm64asm.Reg(a))))
		case arm64asm.Imm:
			raw = append(raw, capture.Imm(int64(a.Imm)))
		case arm64asm.Imm64:
			raw = append(raw, capture.Imm(int64(a.Imm)))
		case arm64asm.ImmShift:
			// The shifted-immediate fields are unexported; an unshifted one
			// prints as a bare "#imm", which is the only form we track.
			if v, err := strconv.ParseInt(strings.TrimPrefix(a.String(), "#"), 0, 64); err == nil {
				raw = append(raw, capture.Imm(v))
			} else {
				raw = append(raw, capture.RawOperand{Kind: capture.OperandUntracked})
			}
		case arm64asm.PCRel:
			raw = append(raw, capture.Sym(locName(va+uint64(int64(a)))))
		default:
			raw = append(raw, capture.RawOperand{Kind: capture.OperandUntracked})
		}
	}
	return raw
}

func locName(va uint64) string {
	return fmt.Sprintf("loc_%x", va)
}

// Word assembles a little-endian code buffer from 32-bit words. Test and
// example helper.
func Word(words ...uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[4*i:], w)
	}
	return buf
}
