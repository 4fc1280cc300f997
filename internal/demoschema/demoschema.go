// Package demoschema is the small, fixed schema cmd/show-sql and
// cmd/gen-entities run against: two tables connected by one has-many/
// belongs-to pair, just enough surface to exercise the query/filter/
// dialect pipeline end to end without requiring a caller-supplied schema
// file (schema is declared in Go, spec §4.A — there is no DDL to parse).
package demoschema

import "github.com/sqlkit/sqlkit/schema"

// New returns a freshly bootstrapped registry declaring "users" and
// "posts", and the two *schema.Table values for convenience.
func New() (reg *schema.Registry, users, posts *schema.Table, err error) {
	reg = schema.NewRegistry()

	users, err = reg.DefineTable("users", []schema.Column{
		schema.IntColumn("id").PrimaryKey().AutoIncrement(),
		schema.VarcharColumn("name", 200).NotNull(),
		schema.VarcharColumn("email", 320).NotNull().Unique(),
	}, schema.WithRelations(map[string]schema.Relation{
		"posts": schema.NewHasMany(schema.LazyRef("posts", func() *schema.Table { return posts }), "user_id"),
	}))
	if err != nil {
		return nil, nil, nil, err
	}

	posts, err = reg.DefineTable("posts", []schema.Column{
		schema.IntColumn("id").PrimaryKey().AutoIncrement(),
		schema.IntColumn("user_id").NotNull(),
		schema.VarcharColumn("title", 200).NotNull(),
		schema.TextColumn("body"),
		schema.BooleanColumn("published").Default(false),
	}, schema.WithRelations(map[string]schema.Relation{
		"author": schema.NewBelongsTo(schema.Ref(users), "user_id"),
	}))
	if err != nil {
		return nil, nil, nil, err
	}

	if err := reg.Bootstrap(); err != nil {
		return nil, nil, nil, err
	}
	return reg, users, posts, nil
}
