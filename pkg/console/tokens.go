package console

import (
	"strconv"

	"github.com/google/shlex"
)

type tokens struct {
	tokens []string
	curr   int
}

// tokenise splits a line with shell quoting rules so text arguments can
// contain spaces.
func tokenise(input string) (*tokens, error) {
	words, err := shlex.Split(input)
	if err != nil {
		return nil, err
	}
	return &tokens{tokens: words}, nil
}

func (tk tokens) remaining() int {
	return len(tk.tokens) - tk.curr
}

func (tk *tokens) get() (string, bool) {
	if tk.curr >= len(tk.tokens) {
		return "", false
	}
	tk.curr++
	return tk.tokens[tk.curr-1], true
}

func (tk tokens) peek() (string, bool) {
	if tk.curr >= len(tk.tokens) {
		return "", false
	}
	return tk.tokens[tk.curr], true
}

// int reads a number. Hex is accepted with a 0x prefix.
func (tk *tokens) int() (int, error) {
	s, ok := tk.get()
	if !ok {
		return 0, ErrMissingArgument
	}
	v, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		return 0, &ArgError{Arg: s}
	}
	return int(v), nil
}

// ints reads n numbers.
func (tk *tokens) ints(n int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		v, err := tk.int()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// optInt reads a number if one is left, otherwise returns def.
func (tk *tokens) optInt(def int) (int, error) {
	if tk.remaining() == 0 {
		return def, nil
	}
	return tk.int()
}
