package mailbox

import (
	"strings"
	"time"

	"github.com/google/cel-go/cel"
)

// messageFilter wraps a compiled CEL program evaluated against each drained
// message before it is emitted. When disabled, Match always returns true.
//
// Variables: sender, recipient, body (string), created and now (int, unix
// seconds).
type messageFilter struct {
	prog    cel.Program
	enabled bool
}

func newMessageFilter(expr string) (messageFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return messageFilter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("sender", cel.StringType),
		cel.Variable("recipient", cel.StringType),
		cel.Variable("body", cel.StringType),
		cel.Variable("created", cel.IntType),
		cel.Variable("now", cel.IntType),
	)
	if err != nil {
		return messageFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return messageFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return messageFilter{}, iss2.Err()
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return messageFilter{}, errNonBoolFilter
	}
	prog, err := env.Program(checked)
	if err != nil {
		return messageFilter{}, err
	}
	return messageFilter{prog: prog, enabled: true}, nil
}

// Match reports whether m passes the filter. Evaluation errors count as a
// non-match.
func (f messageFilter) Match(m Message) bool {
	if !f.enabled {
		return true
	}
	out, _, err := f.prog.Eval(map[string]any{
		"sender":    m.Sender,
		"recipient": m.Recipient,
		"body":      m.Body,
		"created":   m.Created.Unix(),
		"now":       time.Now().Unix(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

// ValidateFilter compiles expr and returns the compile error, if any.
func ValidateFilter(expr string) error {
	_, err := newMessageFilter(expr)
	return err
}
