//go:build !noextracolors

package console

import (
	"errors"
	"testing"
)

func TestPropCommands(t *testing.T) {
	con, gen, _ := newTestConsole(t, false)
	props := gen.Props()

	if err := con.Exec("prop 7 3"); err != nil {
		t.Fatalf("prop failed: %v", err)
	}
	if props.Get(7) != 3 {
		t.Errorf("Expected mask 3, got %d", props.Get(7))
	}

	if err := con.Exec("props 470 600 1"); err != nil {
		t.Fatalf("props failed: %v", err)
	}
	if props.Get(469) != 0 || props.Get(470) != 1 || props.Get(479) != 1 {
		t.Errorf("Unexpected masks %d %d %d", props.Get(469), props.Get(470), props.Get(479))
	}

	var argErr *ArgError
	if err := con.Exec("prop 480 1"); !errors.As(err, &argErr) {
		t.Errorf("Expected ArgError for line 480, got %v", err)
	}
}
