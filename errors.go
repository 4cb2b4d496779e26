package params

import (
	"errors"
	"fmt"
	"strings"
)

// InvalidSchemaError reports a descriptor that fails the naming or shape
// conventions required to be recognized as a schema.
type InvalidSchemaError struct {
	Schema string
	Reason string
}

func (e *InvalidSchemaError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("params: invalid schema %s: %s", describeName(e.Schema), e.Reason)
}

// SchemaConflictError reports an incompatible override across merged
// schemas or a circular/unresolved derivation dependency.
type SchemaConflictError struct {
	Param  string
	Origin string
	Reason string
}

func (e *SchemaConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("params: schema conflict")
	if e.Param != "" {
		fmt.Fprintf(&b, " on %q", e.Param)
	}
	if e.Origin != "" {
		fmt.Fprintf(&b, " from %q", e.Origin)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// MissingParameterError reports a required parameter that was supplied
// neither a default nor a construction value.
type MissingParameterError struct {
	Param  string
	Target string
}

func (e *MissingParameterError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("params: required parameter %q not supplied for %s", e.Param, describeName(e.Target))
}

// DerivationError captures hook evaluation metadata alongside the
// originating error.
type DerivationError struct {
	Engine string
	Expr   string
	Param  string
	Target string
	Err    error
}

func (e *DerivationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("params: %s derivation %s param=%s target=%s: %v",
		e.Engine, describeExpression(e.Expr), e.Param, e.Target, e.Err)
}

func (e *DerivationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeName(name string) string {
	if name == "" {
		return "<unnamed>"
	}
	return name
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<hook>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var derivErr *DerivationError
	if errors.As(err, &derivErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "params:") {
		return err
	}
	return fmt.Errorf("params: %s evaluator: %w", engine, err)
}

func wrapDerivationError(engine, expr, param, target string, err error) error {
	if err == nil {
		return nil
	}

	var derivErr *DerivationError
	if errors.As(err, &derivErr) {
		if derivErr.Engine == "" {
			derivErr.Engine = engine
		}
		if derivErr.Expr == "" {
			derivErr.Expr = expr
		}
		if derivErr.Param == "" {
			derivErr.Param = param
		}
		if derivErr.Target == "" {
			derivErr.Target = target
		}
		return derivErr
	}

	return &DerivationError{
		Engine: engine,
		Expr:   expr,
		Param:  param,
		Target: target,
		Err:    err,
	}
}
