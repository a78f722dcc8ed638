package asmtext

import (
	"fmt"
	"strings"
	"testing"

	"asmcap/internal/capture"
	"asmcap/internal/ir"
)

func TestScanProgram(t *testing.T) {
	source := `// aarch64 countdown
.globl main
main:
	mov x0, #3
loop:
	subs x0, x0, #1
	b.ne loop
	ldr x2, [sp, #16]
	ret
`
	capt := capture.New(capture.WithRegisterNamer(Registers()))
	if err := NewScanner(capt).Scan(strings.NewReader(source)); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	stream := capt.Stream()
	want := []struct {
		opcode   string
		labels   []string
		operands []ir.Operand
		physLine uint32
	}{
		{"mov", []string{"main"}, []ir.Operand{ir.Register("x0"), ir.Integer(3)}, 4},
		{"subs", []string{"loop"}, []ir.Operand{ir.Register("x0"), ir.Register("x0"), ir.Integer(1)}, 6},
		{"b.ne", nil, []ir.Operand{ir.LabelRef("loop")}, 7},
		{"ldr", nil, []ir.Operand{ir.Register("x2")}, 8},
		{"ret", nil, nil, 9},
	}

	if stream.Len() != len(want) {
		t.Fatalf("Got %d instructions, want %d", stream.Len(), len(want))
	}
	for i, w := range want {
		inst := stream.At(i)
		if inst.Opcode() != w.opcode {
			t.Errorf("inst %d: opcode %q, want %q", i, inst.Opcode(), w.opcode)
		}
		if got := inst.Labels(); len(got) != len(w.labels) {
			t.Errorf("inst %d: labels %v, want %v", i, got, w.labels)
		} else {
			for n, l := range w.labels {
				if got[n] != l {
					t.Errorf("inst %d: label %d = %q, want %q", i, n, got[n], l)
				}
			}
		}
		if got := inst.Operands(); len(got) != len(w.operands) {
			t.Errorf("inst %d: operands %v, want %v", i, got, w.operands)
		} else {
			for n, op := range w.operands {
				if got[n] != op {
					t.Errorf("inst %d: operand %d = %v, want %v", i, n, got[n], op)
				}
			}
		}
		// Reported locations run one ahead of the physical line.
		if loc := inst.Location(); loc.Line != w.physLine+1 {
			t.Errorf("inst %d: reported line %d, want %d", i, loc.Line, w.physLine+1)
		}
	}

	// The memory reference in the ldr is the only dropped operand.
	if got := capt.Dropped(); got != 1 {
		t.Errorf("Dropped() = %d, want 1", got)
	}
}

func TestLabelWithInstructionOnSameLine(t *testing.T) {
	capt := capture.New(capture.WithRegisterNamer(Registers()))
	sc := NewScanner(capt)
	sc.FeedLine("loop: add x0, x0, #1")

	if capt.Stream().Len() != 1 {
		t.Fatalf("Got %d instructions, want 1", capt.Stream().Len())
	}
	inst := capt.Stream().At(0)
	if len(inst.Labels()) != 1 || inst.Labels()[0] != "loop" {
		t.Errorf("Labels = %v, want [loop]", inst.Labels())
	}
	if inst.Opcode() != "add" {
		t.Errorf("Opcode = %q, want add", inst.Opcode())
	}
}

func TestClassifyOperand(t *testing.T) {
	tests := []struct {
		tok  string
		want capture.RawOperand
	}{
		{"#4", capture.Imm(4)},
		{"4", capture.Imm(4)},
		{"#0x10", capture.Imm(16)},
		{"#-3", capture.Imm(-3)},
		{"x0", capture.Reg(0)},
		{"XZR", capture.Reg(64)},
		{"sp", capture.Reg(62)},
		{"printf", capture.Sym("printf")},
		{"[sp, #16]", capture.RawOperand{Kind: capture.OperandUntracked}},
		{"[x0], #8", capture.RawOperand{Kind: capture.OperandUntracked}},
		{"{x0, x1}", capture.RawOperand{Kind: capture.OperandUntracked}},
		{"#:lo12:counter", capture.RawOperand{Kind: capture.OperandUntracked}},
	}

	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			if got := classifyOperand(tt.tok); got != tt.want {
				t.Errorf("classifyOperand(%q) = %#v, want %#v", tt.tok, got, tt.want)
			}
		})
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"x0, x1, #4", []string{"x0", "x1", "#4"}},
		{"x2, [sp, #16]", []string{"x2", "[sp, #16]"}},
		{"{x0, x1}, [sp]", []string{"{x0, x1}", "[sp]"}},
		{"", nil},
	}

	for _, tt := range tests {
		got := splitArgs(tt.text)
		if len(got) != len(tt.want) {
			t.Errorf("splitArgs(%q) = %v, want %v", tt.text, got, tt.want)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("splitArgs(%q)[%d] = %q, want %q", tt.text, i, got[i], tt.want[i])
			}
		}
	}
}

func TestStripComment(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"; full line comment", ""},
		{"# preprocessor-style comment", ""},
		{"mov x0, #1 // trailing", "mov x0, #1 "},
		{"mov x0, #1 @ arm style", "mov x0, #1 "},
		{"mov x0, #1", "mov x0, #1"},
	}

	for _, tt := range tests {
		if got := stripComment(tt.text); got != tt.want {
			t.Errorf("stripComment(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

// directiveRecorder captures pass-through events for inspection.
type directiveRecorder struct {
	capture.Capture
	events []string
}

func (r *directiveRecorder) EmitSymbolAttribute(symbol, attribute string) bool {
	r.events = append(r.events, fmt.Sprintf("attr %s %s", symbol, attribute))
	return true
}

func (r *directiveRecorder) EmitCommonSymbol(symbol string, size uint64, align int) {
	r.events = append(r.events, fmt.Sprintf("comm %s %d %d", symbol, size, align))
}

func (r *directiveRecorder) EmitZerofill(section, symbol string, size uint64, align int) {
	r.events = append(r.events, fmt.Sprintf("zero %q %q %d %d", section, symbol, size, align))
}

func TestScanDirectives(t *testing.T) {
	source := `.globl main, helper
.weak fallback
.comm buf, 64, 8
.zero 16
.zerofill __DATA,__bss,scratch,128,4
.align 2
`
	rec := &directiveRecorder{}
	if err := NewScanner(rec).Scan(strings.NewReader(source)); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{
		"attr main globl",
		"attr helper globl",
		"attr fallback weak",
		"comm buf 64 8",
		`zero "" "" 16 0`,
		`zero "__DATA,__bss" "scratch" 128 4`,
	}
	if len(rec.events) != len(want) {
		t.Fatalf("Got events %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, rec.events[i], want[i])
		}
	}
}

func TestRegisterNames(t *testing.T) {
	namer := Registers()
	tests := []struct {
		id   int
		want string
	}{
		{0, "x0"},
		{30, "x30"},
		{31, "w0"},
		{62, "sp"},
		{200, "reg200"},
	}
	for _, tt := range tests {
		if got := namer.RegisterName(tt.id); got != tt.want {
			t.Errorf("RegisterName(%d) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
