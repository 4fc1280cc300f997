package dialect

import (
	"fmt"
	"strings"

	"github.com/sqlkit/sqlkit/expr"
)

// compileArgs compiles a function's argument list, sharing the caller's
// Compiler so parameters stay positioned correctly.
func compileArgs(c *Compiler, args []expr.Operand) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		s, err := compileOperand(c, a)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// callFunction renders a plain "NAME(args...)" call, the shape shared by
// every dialect for the bulk of the function registry.
func callFunction(c *Compiler, name string, args []expr.Operand) (string, error) {
	parts, err := compileArgs(c, args)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(parts, ", ")), nil
}

// commonFunctionNames maps the AST's normalized (uppercase) function names
// to the name a dialect renders, for the subset where only the casing or
// spelling varies. Dialects consult this before falling back to passing
// the name through unchanged, and override individually for cases with a
// structurally different call shape (CONCAT, SUBSTRING, POSITION).
var commonFunctionNames = map[string]string{
	"LOWER":    "LOWER",
	"UPPER":    "UPPER",
	"COALESCE": "COALESCE",
	"LENGTH":   "LENGTH",
	"COUNT":    "COUNT",
	"SUM":      "SUM",
	"AVG":      "AVG",
	"MIN":      "MIN",
	"MAX":      "MAX",
	"ROW_NUMBER": "ROW_NUMBER",
	"RANK":       "RANK",
	"DENSE_RANK": "DENSE_RANK",
}
