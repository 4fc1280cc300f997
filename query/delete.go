package query

import (
	"github.com/sqlkit/sqlkit/dialect"
	"github.com/sqlkit/sqlkit/expr"
	"github.com/sqlkit/sqlkit/schema"
)

// DeleteBuilder is an immutable DELETE builder (spec §4.D). Like
// UpdateBuilder, an unconstrained DELETE is rejected unless explicitly
// allowed.
type DeleteBuilder struct {
	table         *schema.Table
	ast           *expr.DeleteQuery
	unconstrained bool
	err           error
}

// Delete starts a new DELETE from table.
func Delete(table *schema.Table) *DeleteBuilder {
	return &DeleteBuilder{
		table: table,
		ast:   &expr.DeleteQuery{From: table.QualifiedName()},
	}
}

func (b *DeleteBuilder) clone() *DeleteBuilder {
	nb := *b
	astCopy := *b.ast
	astCopy.Returning = append([]string{}, b.ast.Returning...)
	nb.ast = &astCopy
	return &nb
}

func (b *DeleteBuilder) Err() error { return b.err }

func (b *DeleteBuilder) Where(pred expr.Expression) *DeleteBuilder {
	nb := b.clone()
	nb.ast.Where = conjoin(nb.ast.Where, pred)
	return nb
}

func (b *DeleteBuilder) AllowUnconstrained() *DeleteBuilder {
	nb := b.clone()
	nb.unconstrained = true
	return nb
}

func (b *DeleteBuilder) Returning(columns ...string) *DeleteBuilder {
	nb := b.clone()
	nb.ast.Returning = append([]string{}, columns...)
	return nb
}

// Compile renders this builder's statement for d.
func (b *DeleteBuilder) Compile(d dialect.Dialect) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if b.ast.Where == nil && !b.unconstrained {
		return "", nil, errMissingPredicate(b.table.Name)
	}
	sql, params, err := dialect.CompileDelete(d, b.ast)
	if err != nil {
		return "", nil, err
	}
	return sql + ";", params, nil
}
