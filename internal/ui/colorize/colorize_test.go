package colorize

import (
	"strings"
	"testing"
)

func TestColorizeListingDisabled(t *testing.T) {
	t.Setenv("ASMCAP_NO_COLOR", "1")

	input := "main:\n  mov x0, 1\n"
	got, err := ColorizeListing(input)
	if err != nil {
		t.Fatalf("ColorizeListing failed: %v", err)
	}
	if got != input {
		t.Errorf("Disabled colorizer changed the input\nwant: %q\ngot:  %q", input, got)
	}
}

func TestColorizeListingLineKeepsContent(t *testing.T) {
	line := "  add x0, x0, 4"
	got := ColorizeListingLine(line)
	if strings.HasSuffix(got, "\n") {
		t.Errorf("ColorizeListingLine left a trailing newline: %q", got)
	}
}
