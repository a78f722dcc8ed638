package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
)

// StreamDocument mirrors the rendered instruction tree for schema
// generation and downstream consumers.
type StreamDocument struct {
	Instructions []InstructionDocument `json:"instructions" jsonschema:"title=Instructions,description=Captured instructions in source order"`
}

// InstructionDocument is one captured instruction as it appears on the wire.
type InstructionDocument struct {
	Opcode   string            `json:"opcode" jsonschema:"title=Opcode,description=Mnemonic name of the instruction"`
	Labels   []string          `json:"labels" jsonschema:"title=Labels,description=Label names attached immediately before this instruction"`
	Operands []OperandDocument `json:"operands" jsonschema:"title=Operands,description=Decoded operands in decoder order"`
	Line     uint32            `json:"line" jsonschema:"title=Line,description=Logical source line (decoder line minus one)"`
	Column   uint32            `json:"column" jsonschema:"title=Column,description=Source column as reported"`
}

// OperandDocument is the tagged operand form.
type OperandDocument struct {
	Type  string `json:"type" jsonschema:"enum=register,enum=integer,enum=label"`
	Value any    `json:"value" jsonschema:"description=Register or label name as string; immediate as signed integer"`
}

var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Generate JSON schema for the captured stream",
	Long:   "Generate the JSON schema of the rendered instruction tree",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		reflector := new(jsonschema.Reflector)
		bts, err := json.MarshalIndent(reflector.Reflect(&StreamDocument{}), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		fmt.Println(string(bts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
