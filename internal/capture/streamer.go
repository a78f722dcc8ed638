// Package capture accumulates decoder events into an instruction stream.
//
// An external parser or disassembler pushes one event per decoded
// construct, in source order; the capture buffers labels until the
// instruction that follows them, classifies raw operands into the IR's
// tagged form, and renders the finished stream as a JSON tree. It never
// initiates parsing itself.
package capture

import (
	"encoding/json"
	"fmt"
	"io"

	"asmcap/internal/ir"
)

// OperandKind classifies a raw operand as reported by the decoder. The
// capture tracks registers, immediates and symbol references; decoders may
// report kinds beyond these.
type OperandKind int

const (
	OperandRegister OperandKind = iota
	OperandImmediate
	OperandSymbol
	// OperandUntracked covers anything the capture does not model, such as
	// memory references. Untracked operands are dropped during
	// classification.
	OperandUntracked
)

// RawOperand is one operand exactly as the decoder reported it, before
// classification.
type RawOperand struct {
	Kind OperandKind
	Reg  int    // register id, when Kind is OperandRegister
	Imm  int64  // immediate value, when Kind is OperandImmediate
	Sym  string // symbol name, when Kind is OperandSymbol
}

// Reg, Imm and Sym are shorthand constructors used by the frontends.
func Reg(id int) RawOperand      { return RawOperand{Kind: OperandRegister, Reg: id} }
func Imm(v int64) RawOperand     { return RawOperand{Kind: OperandImmediate, Imm: v} }
func Sym(name string) RawOperand { return RawOperand{Kind: OperandSymbol, Sym: name} }

// Streamer is the event contract an external decoder drives. Events arrive
// in source order on a single goroutine, and no handler fails from the
// decoder's point of view.
type Streamer interface {
	EmitLabel(name string, loc ir.Location)
	EmitInstruction(opcode string, operands []RawOperand, loc ir.Location)
	EmitSymbolAttribute(symbol, attribute string) bool
	EmitCommonSymbol(symbol string, size uint64, align int)
	EmitZerofill(section, symbol string, size uint64, align int)
}

// RegisterNamer maps a decoder register id to its display name. The
// environment supplies it; the capture treats it as opaque.
type RegisterNamer interface {
	RegisterName(id int) string
}

// Option configures a Capture.
type Option func(*Capture)

// WithRegisterNamer installs the register naming service.
func WithRegisterNamer(n RegisterNamer) Option {
	return func(c *Capture) { c.namer = n }
}

// WithSymbolFilter installs a display filter applied to label names and
// symbol operands, e.g. a C++ demangler. A filter returning "" keeps the
// original name.
func WithSymbolFilter(f func(string) string) Option {
	return func(c *Capture) { c.filter = f }
}

// WithEcho mirrors events to w as they arrive. Observability side channel
// only; the rendered tree is the contract.
func WithEcho(w io.Writer) Option {
	return func(c *Capture) { c.echo = w }
}

// Capture implements Streamer by recording events into an
// ir.InstructionStream. The pending label buffer is its only transient
// state: label names collect there until the next instruction event claims
// them.
type Capture struct {
	stream  *ir.InstructionStream
	pending []string
	namer   RegisterNamer
	filter  func(string) string
	echo    io.Writer
	dropped int
}

// New returns a capture with an empty stream.
func New(opts ...Option) *Capture {
	c := &Capture{stream: ir.NewStream()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EmitLabel buffers a label for the next instruction. No instruction is
// finalized here.
func (c *Capture) EmitLabel(name string, _ ir.Location) {
	name = c.displayName(name)
	c.pending = append(c.pending, name)
	if c.echo != nil {
		fmt.Fprintf(c.echo, ";; label: %s\n", name)
	}
}

// EmitInstruction classifies the raw operands in decoder order, attaches
// every label buffered since the last instruction, stamps the location and
// pushes exactly one record onto the stream. The pending buffer is empty
// afterwards.
func (c *Capture) EmitInstruction(opcode string, raw []RawOperand, loc ir.Location) {
	operands := make([]ir.Operand, 0, len(raw))
	for _, op := range raw {
		switch op.Kind {
		case OperandImmediate:
			operands = append(operands, ir.Integer(op.Imm))
		case OperandRegister:
			operands = append(operands, ir.Register(c.registerName(op.Reg)))
		case OperandSymbol:
			operands = append(operands, ir.LabelRef(c.displayName(op.Sym)))
		default:
			// Kinds we do not track are dropped, not surfaced as errors;
			// the decoder may report more than this capture models.
			c.dropped++
		}
	}

	inst := ir.NewInstruction(opcode, c.pending, operands)
	inst.SetLocation(loc.Line, loc.Column)
	c.stream.Push(inst)
	c.pending = c.pending[:0]

	if c.echo != nil {
		fmt.Fprintln(c.echo, inst.String())
	}
}

// EmitSymbolAttribute acknowledges a symbol attribute directive. Always
// reports success; the IR is untouched.
func (c *Capture) EmitSymbolAttribute(symbol, attribute string) bool { return true }

// EmitCommonSymbol accepts a common-symbol directive and does nothing.
func (c *Capture) EmitCommonSymbol(symbol string, size uint64, align int) {}

// EmitZerofill accepts a zero-fill directive and does nothing.
func (c *Capture) EmitZerofill(section, symbol string, size uint64, align int) {}

// PendingLabels reports how many labels are waiting for the next
// instruction event.
func (c *Capture) PendingLabels() int { return len(c.pending) }

// Dropped reports how many operands were discarded because their kind is
// untracked. Hosts that care about the data loss log this at the boundary.
func (c *Capture) Dropped() int { return c.dropped }

// Stream exposes the captured stream for listings. Read-only.
func (c *Capture) Stream() *ir.InstructionStream { return c.stream }

// Render marshals the whole stream. Rendering reads but never mutates, so
// repeated calls without intervening events yield identical bytes.
func (c *Capture) Render() ([]byte, error) {
	return json.Marshal(c.stream)
}

func (c *Capture) registerName(id int) string {
	if c.namer == nil {
		return fmt.Sprintf("r%d", id)
	}
	return c.namer.RegisterName(id)
}

func (c *Capture) displayName(name string) string {
	if c.filter == nil {
		return name
	}
	if filtered := c.filter(name); filtered != "" {
		return filtered
	}
	return name
}
