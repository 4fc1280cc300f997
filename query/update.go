package query

import (
	"github.com/sqlkit/sqlkit/dialect"
	"github.com/sqlkit/sqlkit/expr"
	"github.com/sqlkit/sqlkit/schema"
)

// UpdateBuilder is an immutable UPDATE builder (spec §4.D). Running an
// UPDATE with no WHERE clause is a builder error (MissingPredicate) unless
// AllowUnconstrained is called explicitly.
type UpdateBuilder struct {
	table         *schema.Table
	ast           *expr.UpdateQuery
	unconstrained bool
	err           error
}

// Update starts a new UPDATE of table.
func Update(table *schema.Table) *UpdateBuilder {
	return &UpdateBuilder{
		table: table,
		ast:   &expr.UpdateQuery{Table: table.QualifiedName(), Set: map[string]expr.Operand{}},
	}
}

func (b *UpdateBuilder) clone() *UpdateBuilder {
	nb := *b
	astCopy := *b.ast
	astCopy.SetOrder = append([]string{}, b.ast.SetOrder...)
	astCopy.Returning = append([]string{}, b.ast.Returning...)
	astCopy.Set = make(map[string]expr.Operand, len(b.ast.Set))
	for k, v := range b.ast.Set {
		astCopy.Set[k] = v
	}
	nb.ast = &astCopy
	return &nb
}

func (b *UpdateBuilder) Err() error { return b.err }

// Set stages one column assignment. value must be a plain scalar, an
// expr.Operand (e.g. an Arithmetic expression to reference another column),
// or an expr.Literal; anything else is InvalidUpdateValue.
func (b *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	nb := b.clone()
	if _, ok := nb.table.Column(column); !ok {
		nb.err = errUnknownColumn(column)
		return nb
	}
	operand, ok := toUpdateOperand(value)
	if !ok {
		nb.err = errInvalidUpdateValue(column)
		return nb
	}
	if _, exists := nb.ast.Set[column]; !exists {
		nb.ast.SetOrder = append(nb.ast.SetOrder, column)
	}
	nb.ast.Set[column] = operand
	return nb
}

func toUpdateOperand(value any) (op expr.Operand, ok bool) {
	if o, isOperand := value.(expr.Operand); isOperand {
		return o, true
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return expr.ValueToOperand(value), true
}

// Where conjoins pred to any existing predicate via AND.
func (b *UpdateBuilder) Where(pred expr.Expression) *UpdateBuilder {
	nb := b.clone()
	nb.ast.Where = conjoin(nb.ast.Where, pred)
	return nb
}

// AllowUnconstrained opts out of the MissingPredicate guard, for
// intentional table-wide updates.
func (b *UpdateBuilder) AllowUnconstrained() *UpdateBuilder {
	nb := b.clone()
	nb.unconstrained = true
	return nb
}

// Returning requests the given columns back after update.
func (b *UpdateBuilder) Returning(columns ...string) *UpdateBuilder {
	nb := b.clone()
	nb.ast.Returning = append([]string{}, columns...)
	return nb
}

// Compile renders this builder's statement for d.
func (b *UpdateBuilder) Compile(d dialect.Dialect) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if len(b.ast.Set) == 0 {
		return "", nil, errMissingProjection("update has no Set assignments")
	}
	if b.ast.Where == nil && !b.unconstrained {
		return "", nil, errMissingPredicate(b.table.Name)
	}
	sql, params, err := dialect.CompileUpdate(d, b.ast)
	if err != nil {
		return "", nil, err
	}
	return sql + ";", params, nil
}
