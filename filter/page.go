package filter

import (
	"fmt"

	"github.com/sqlkit/sqlkit/expr"
	"github.com/sqlkit/sqlkit/query"
)

// OffsetPage is classic offset/limit pagination (SPEC_FULL.md §4.I).
type OffsetPage struct {
	Offset int
	Limit  int
}

// Apply sets b's LIMIT/OFFSET from p.
func (p OffsetPage) Apply(b *query.SelectBuilder) *query.SelectBuilder {
	nb := b
	if p.Limit > 0 {
		nb = nb.Limit(p.Limit)
	}
	if p.Offset > 0 {
		nb = nb.Offset(p.Offset)
	}
	return nb
}

// Page is keyset ("cursor") pagination (SPEC_FULL.md §4.I, present in
// original_source but dropped by the spec's distilled prose): Cursor, when
// set, is the string form of the last-seen value of the ordering column
// from the previous page; Size bounds how many rows come back. Encoding a
// richer opaque token (e.g. base64 of a composite key) is left to the
// caller — Page only ever compares a single column.
type Page struct {
	Cursor *string
	Size   int
}

// Apply restricts b to rows strictly after p.Cursor (per direction) on
// col, ordered by col, and limited to p.Size. col must be a column the
// query can order on unambiguously (typically the primary key).
func (p Page) Apply(b *query.SelectBuilder, col expr.Column, direction expr.Direction) (*query.SelectBuilder, error) {
	if p.Size < 0 {
		return nil, fmt.Errorf("filter: page size must not be negative, got %d", p.Size)
	}
	nb := b
	if p.Cursor != nil {
		cmp := expr.Gt
		if direction == expr.Desc {
			cmp = expr.Lt
		}
		nb = nb.Where(cmp(col, *p.Cursor))
	}
	nb = nb.OrderBy(col, direction)
	if p.Size > 0 {
		nb = nb.Limit(p.Size)
	}
	return nb, nil
}
