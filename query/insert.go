package query

import (
	"github.com/sqlkit/sqlkit/dialect"
	"github.com/sqlkit/sqlkit/expr"
	"github.com/sqlkit/sqlkit/schema"
)

// InsertBuilder is an immutable INSERT builder (spec §4.D).
type InsertBuilder struct {
	table *schema.Table
	ast   *expr.InsertQuery
	err   error
}

// Insert starts a new INSERT into table.
func Insert(table *schema.Table) *InsertBuilder {
	return &InsertBuilder{
		table: table,
		ast:   &expr.InsertQuery{Into: table.QualifiedName()},
	}
}

func (b *InsertBuilder) clone() *InsertBuilder {
	nb := *b
	astCopy := *b.ast
	astCopy.Columns = append([]string{}, b.ast.Columns...)
	astCopy.Rows = append([][]expr.Operand{}, b.ast.Rows...)
	astCopy.Returning = append([]string{}, b.ast.Returning...)
	nb.ast = &astCopy
	return &nb
}

func (b *InsertBuilder) Err() error { return b.err }

// Values appends one row of column -> value pairs. The first call fixes the
// statement's column list: the row's keys that are declared columns, in
// table declaration order (other keys of that row are dropped). Later rows
// must contain every listed column (a missing one is an UnknownColumn
// error); their keys outside the list are ignored.
func (b *InsertBuilder) Values(row map[string]any) *InsertBuilder {
	nb := b.clone()

	if len(nb.ast.Columns) == 0 {
		for _, col := range nb.table.Columns.Names() {
			if _, ok := row[col]; ok {
				nb.ast.Columns = append(nb.ast.Columns, col)
			}
		}
	}
	if len(nb.ast.Columns) == 0 {
		nb.err = errMissingProjection("insert has no columns")
		return nb
	}

	values := make([]expr.Operand, len(nb.ast.Columns))
	for i, col := range nb.ast.Columns {
		v, ok := row[col]
		if !ok {
			nb.err = errUnknownColumn(col)
			return nb
		}
		if _, ok := nb.table.Column(col); !ok {
			nb.err = errUnknownColumn(col)
			return nb
		}
		values[i] = expr.ValueToOperand(v)
	}
	nb.ast.Rows = append(nb.ast.Rows, values)
	return nb
}

// FromSelect turns this into an INSERT ... SELECT statement, replacing any
// Values rows previously staged.
func (b *InsertBuilder) FromSelect(columns []string, sub *SelectBuilder) *InsertBuilder {
	nb := b.clone()
	nb.ast.Columns = append([]string{}, columns...)
	nb.ast.Rows = nil
	nb.ast.Select = sub.ast
	return nb
}

// Returning requests the given columns back after insert (spec §4.D);
// unsupported on dialects lacking RETURNING/OUTPUT.
func (b *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	nb := b.clone()
	nb.ast.Returning = append([]string{}, columns...)
	return nb
}

// OnConflict declares upsert behavior keyed on the given unique columns.
func (b *InsertBuilder) OnConflict(columns []string) *conflictBuilder {
	return &conflictBuilder{ib: b, columns: columns}
}

// conflictBuilder completes an OnConflict declaration with DoNothing or
// DoUpdate.
type conflictBuilder struct {
	ib      *InsertBuilder
	columns []string
}

func (c *conflictBuilder) DoNothing() *InsertBuilder {
	nb := c.ib.clone()
	nb.ast.OnConflict = &expr.OnConflict{Columns: c.columns, Action: expr.ConflictDoNothing}
	return nb
}

func (c *conflictBuilder) DoUpdate(updates map[string]any) *InsertBuilder {
	nb := c.ib.clone()
	rendered := make(map[string]expr.Operand, len(updates))
	for col, v := range updates {
		rendered[col] = expr.ValueToOperand(v)
	}
	nb.ast.OnConflict = &expr.OnConflict{Columns: c.columns, Action: expr.ConflictDoUpdate, Updates: rendered}
	return nb
}

// Compile renders this builder's statement for d.
func (b *InsertBuilder) Compile(d dialect.Dialect) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if len(b.ast.Rows) == 0 && b.ast.Select == nil {
		return "", nil, errMissingProjection("insert has no rows and no source select")
	}
	sql, params, err := dialect.CompileInsert(d, b.ast)
	if err != nil {
		return "", nil, err
	}
	return sql + ";", params, nil
}
