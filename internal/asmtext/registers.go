package asmtext

import (
	"fmt"
	"strings"
)

// The AArch64 general register set known to the text frontend. Register
// ids are indexes into this table; the table doubles as the capture's
// register naming service.
var registerNames = func() []string {
	names := make([]string, 0, 68)
	for i := 0; i <= 30; i++ {
		names = append(names, fmt.Sprintf("x%d", i))
	}
	for i := 0; i <= 30; i++ {
		names = append(names, fmt.Sprintf("w%d", i))
	}
	return append(names, "sp", "wsp", "xzr", "wzr", "lr", "fp")
}()

var registerIDs = func() map[string]int {
	ids := make(map[string]int, len(registerNames))
	for id, name := range registerNames {
		ids[name] = id
	}
	return ids
}()

type regSet struct{}

// Registers returns the frontend's register naming service, suitable for
// capture.WithRegisterNamer.
func Registers() regSet { return regSet{} }

func (regSet) RegisterName(id int) string {
	if id < 0 || id >= len(registerNames) {
		return fmt.Sprintf("reg%d", id)
	}
	return registerNames[id]
}

// registerID resolves a register name to its id, case-insensitively.
func registerID(name string) (int, bool) {
	id, ok := registerIDs[strings.ToLower(name)]
	return id, ok
}
