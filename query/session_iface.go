package query

import (
	"github.com/sqlkit/sqlkit/dialect"
	"github.com/sqlkit/sqlkit/hydrate"
)

// Session is the minimal surface a builder needs to run a SELECT against a
// live connection and reshape its rows. Package session's *Session type
// satisfies this implicitly; query never imports session, since session
// imports query to accept builders — this structural interface is what
// breaks that cycle.
type Session interface {
	Dialect() dialect.Dialect
	RunSelect(sql string, params []any) ([]hydrate.Row, error)
}

// Execer is the minimal surface a mutation builder needs to run itself and
// read back any RETURNING/OUTPUT rows plus the affected row count.
type Execer interface {
	Dialect() dialect.Dialect
	RunExec(sql string, params []any) ([]hydrate.Row, int64, error)
}

// Execute compiles and runs this query, reshaping the flat rows per the
// builder's accumulated Include plan.
func (b *SelectBuilder) Execute(s Session) ([]hydrate.Row, error) {
	sql, params, err := b.Compile(s.Dialect())
	if err != nil {
		return nil, err
	}
	rows, err := s.RunSelect(sql, params)
	if err != nil {
		return nil, err
	}
	return hydrate.Reshape(rows, b.plan)
}

// Execute compiles and runs this insert, returning any RETURNING/OUTPUT
// rows and the number of rows affected.
func (b *InsertBuilder) Execute(s Execer) ([]hydrate.Row, int64, error) {
	sql, params, err := b.Compile(s.Dialect())
	if err != nil {
		return nil, 0, err
	}
	return s.RunExec(sql, params)
}

// Execute compiles and runs this update.
func (b *UpdateBuilder) Execute(s Execer) ([]hydrate.Row, int64, error) {
	sql, params, err := b.Compile(s.Dialect())
	if err != nil {
		return nil, 0, err
	}
	return s.RunExec(sql, params)
}

// Execute compiles and runs this delete.
func (b *DeleteBuilder) Execute(s Execer) ([]hydrate.Row, int64, error) {
	sql, params, err := b.Compile(s.Dialect())
	if err != nil {
		return nil, 0, err
	}
	return s.RunExec(sql, params)
}
