package ir

import (
	"encoding/json"
	"testing"
)

func TestOperandRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		operand  Operand
		wantJSON string
	}{
		{
			name:     "register",
			operand:  Register("x0"),
			wantJSON: `{"type":"register","value":"x0"}`,
		},
		{
			name:     "positive immediate",
			operand:  Integer(4),
			wantJSON: `{"type":"integer","value":4}`,
		},
		{
			name:     "negative immediate",
			operand:  Integer(-9),
			wantJSON: `{"type":"integer","value":-9}`,
		},
		{
			name:     "label reference",
			operand:  LabelRef("loop"),
			wantJSON: `{"type":"label","value":"loop"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.operand)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(data) != tt.wantJSON {
				t.Errorf("Marshal mismatch\nwant: %s\ngot:  %s", tt.wantJSON, data)
			}

			var back Operand
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if back != tt.operand {
				t.Errorf("Round trip mismatch: want %#v, got %#v", tt.operand, back)
			}
		})
	}
}

func TestOperandUnknownType(t *testing.T) {
	var op Operand
	err := json.Unmarshal([]byte(`{"type":"memory","value":"[sp]"}`), &op)
	if err == nil {
		t.Error("Expected error for unknown operand type, got none")
	}
}

func TestOperandString(t *testing.T) {
	tests := []struct {
		operand Operand
		want    string
	}{
		{Register("w5"), "w5"},
		{Integer(-42), "-42"},
		{LabelRef("done"), "done"},
	}

	for _, tt := range tests {
		if got := tt.operand.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestOperandAccessors(t *testing.T) {
	if k := Register("x1").Kind(); k != KindRegister {
		t.Errorf("Kind() = %v, want KindRegister", k)
	}
	if v := Integer(7).Int(); v != 7 {
		t.Errorf("Int() = %d, want 7", v)
	}
	if n := LabelRef("start").Name(); n != "start" {
		t.Errorf("Name() = %q, want %q", n, "start")
	}
}
