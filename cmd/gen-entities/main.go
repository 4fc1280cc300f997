// Command gen-entities is a peripheral, non-core CLI (spec §6). Real
// database introspection and decorator-file emission are both explicit
// spec Non-goals (treated as external collaborators); what's left for a
// thin, in-core tool is printing the already-declared demoschema registry
// back out as the schema.DefineTable source that produces it — useful as a
// template when wiring a new table, not a live-DB codegen pipeline.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sqlkit/sqlkit/internal/demoschema"
	"github.com/sqlkit/sqlkit/schema"
)

var version = "dev"

var onlyTable string

var rootCmd = &cobra.Command{
	Use:          "gen-entities",
	Short:        "Print Go schema.DefineTable source for the demo registry",
	Version:      version,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, _, _, err := demoschema.New()
		if err != nil {
			return err
		}
		tables := reg.Tables()
		if onlyTable != "" {
			tables = filterTables(tables, onlyTable)
			if len(tables) == 0 {
				return fmt.Errorf("no such table %q", onlyTable)
			}
		}
		for _, t := range tables {
			fmt.Println(renderTable(t))
		}
		return nil
	},
}

func init() {
	fs := pflag.NewFlagSet("gen-entities", pflag.ExitOnError)
	fs.StringVar(&onlyTable, "table", "", "emit only this table (default: all)")
	rootCmd.Flags().AddFlagSet(fs)
}

func filterTables(tables []*schema.Table, name string) []*schema.Table {
	for _, t := range tables {
		if t.Name == name {
			return []*schema.Table{t}
		}
	}
	return nil
}

// renderTable prints one DefineTable call reconstructing t, in declaration
// order, the same shape demoschema.New itself is written in.
func renderTable(t *schema.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "reg.DefineTable(%q, []schema.Column{\n", t.Name)
	for _, c := range t.Columns.All() {
		fmt.Fprintf(&b, "\t%s,\n", renderColumn(c))
	}
	b.WriteString("}")
	if len(t.Relations) > 0 {
		b.WriteString(", schema.WithRelations(map[string]schema.Relation{\n")
		names := make([]string, 0, len(t.Relations))
		for name := range t.Relations {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "\t%q: %s,\n", name, renderRelation(t.Relations[name]))
		}
		b.WriteString("})")
	}
	b.WriteString(")")
	return b.String()
}

func renderColumn(c schema.Column) string {
	base := columnFactory(c)
	var mods []string
	if c.IsPrimary {
		mods = append(mods, "PrimaryKey()")
	}
	if c.IsNotNull && !c.IsPrimary {
		mods = append(mods, "NotNull()")
	}
	if c.IsUnique {
		mods = append(mods, "Unique()")
	}
	if c.IsAutoIncrement {
		mods = append(mods, "AutoIncrement()")
	}
	if c.HasDefault {
		mods = append(mods, fmt.Sprintf("Default(%#v)", c.DefaultValue))
	}
	for _, m := range mods {
		base += "." + m
	}
	return base
}

func columnFactory(c schema.Column) string {
	switch c.Type {
	case schema.Varchar:
		return fmt.Sprintf("schema.VarcharColumn(%q, %d)", c.Name, c.Length)
	case schema.Char:
		return fmt.Sprintf("schema.CharColumn(%q, %d)", c.Name, c.Length)
	case schema.Int:
		return fmt.Sprintf("schema.IntColumn(%q)", c.Name)
	case schema.BigInt:
		return fmt.Sprintf("schema.BigIntColumn(%q)", c.Name)
	case schema.Text:
		return fmt.Sprintf("schema.TextColumn(%q)", c.Name)
	case schema.Boolean:
		return fmt.Sprintf("schema.BooleanColumn(%q)", c.Name)
	case schema.JSON:
		return fmt.Sprintf("schema.JSONColumn(%q)", c.Name)
	case schema.DateTime:
		return fmt.Sprintf("schema.DateTimeColumn(%q)", c.Name)
	case schema.Timestamp:
		return fmt.Sprintf("schema.TimestampColumn(%q)", c.Name)
	case schema.Date:
		return fmt.Sprintf("schema.DateColumn(%q)", c.Name)
	case schema.Blob:
		return fmt.Sprintf("schema.BlobColumn(%q)", c.Name)
	case schema.UUID:
		return fmt.Sprintf("schema.UUIDColumn(%q)", c.Name)
	case schema.Float:
		return fmt.Sprintf("schema.FloatColumn(%q)", c.Name)
	case schema.Double:
		return fmt.Sprintf("schema.DoubleColumn(%q)", c.Name)
	case schema.Decimal:
		return fmt.Sprintf("schema.DecimalColumn(%q, %d, %d)", c.Name, c.Precision, c.Scale)
	default:
		return fmt.Sprintf("schema.IntColumn(%q)", c.Name)
	}
}

func renderRelation(r schema.Relation) string {
	target := r.Target.Name()
	switch r.Kind {
	case schema.HasOne:
		return fmt.Sprintf("schema.NewHasOne(schema.Ref(%sTable), %q)", target, r.ForeignKey)
	case schema.HasMany:
		return fmt.Sprintf("schema.NewHasMany(schema.Ref(%sTable), %q)", target, r.ForeignKey)
	case schema.BelongsTo:
		return fmt.Sprintf("schema.NewBelongsTo(schema.Ref(%sTable), %q)", target, r.ForeignKey)
	case schema.BelongsToMany:
		return fmt.Sprintf("schema.NewBelongsToMany(schema.Ref(%sTable), schema.Ref(%sTable), %q, %q)",
			target, r.PivotTable.Name(), r.PivotForeignKeyToRoot, r.PivotForeignKeyToTarget)
	default:
		return "/* unsupported relation kind */"
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
