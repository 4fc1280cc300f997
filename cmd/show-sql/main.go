// Command show-sql is a peripheral, non-core CLI (spec §6): it compiles a
// query.SelectBuilder against demoschema to SQL for one of the four
// supported dialects, prints the statement and its bound parameters, and
// can optionally run it against a live --dsn.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/sqlkit/sqlkit/dialect"
	"github.com/sqlkit/sqlkit/executor"
	"github.com/sqlkit/sqlkit/expr"
	"github.com/sqlkit/sqlkit/internal/demoschema"
	"github.com/sqlkit/sqlkit/query"
	"github.com/sqlkit/sqlkit/schema"
)

var version = "dev"

type options struct {
	Dialect string `short:"d" long:"dialect" description:"Target SQL dialect" value-name:"postgres|mysql|sqlite|sqlserver" default:"postgres"`
	Table   string `short:"t" long:"table" description:"Demo table to query" value-name:"users|posts" default:"users"`
	Where   string `long:"where" description:"Equality filter as col=value[,col=value...]"`
	Limit   int    `long:"limit" description:"LIMIT row count"`
	Offset  int    `long:"offset" description:"OFFSET row count"`
	Execute bool   `long:"execute" description:"Run the compiled statement against --dsn and print the rows"`
	DSN     string `long:"dsn" description:"Data source name, required with --execute" value-name:"dsn"`
	Help    bool   `long:"help" description:"Show this help"`
	Version bool   `long:"version" description:"Show this version"`
}

func parseOptions(args []string) *options {
	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options]"
	if _, err := parser.ParseArgs(args); err != nil {
		log.Fatal(err)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	return &opts
}

// parseWhere turns "col=value,col2=value2" into one AND-conjoined equality
// expression, validating every column against table.
func parseWhere(table *schema.Table, raw string) (expr.Expression, error) {
	if raw == "" {
		return nil, nil
	}
	var preds []expr.Expression
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid --where term %q, want col=value", pair)
		}
		col, val := strings.TrimSpace(kv[0]), kv[1]
		if _, ok := table.Column(col); !ok {
			return nil, fmt.Errorf("unknown column %q on table %q", col, table.Name)
		}
		preds = append(preds, expr.Eq(expr.Col(table.Name, col), inferScalar(val)))
	}
	return expr.And(preds...), nil
}

// inferScalar promotes a flag-supplied string to an int64 when it parses
// cleanly as one, else leaves it as a string; expr.ValueToOperand accepts
// both.
func inferScalar(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

func main() {
	opts := parseOptions(os.Args[1:])

	_, users, posts, err := demoschema.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var table *schema.Table
	switch opts.Table {
	case "users":
		table = users
	case "posts":
		table = posts
	default:
		fmt.Fprintf(os.Stderr, "unsupported table %q (want users or posts)\n", opts.Table)
		os.Exit(2)
	}

	var dialectKind dialect.Kind
	switch opts.Dialect {
	case "postgres":
		dialectKind = dialect.Postgres
	case "mysql":
		dialectKind = dialect.MySQL
	case "sqlite":
		dialectKind = dialect.SQLite
	case "sqlserver":
		dialectKind = dialect.SQLServer
	default:
		fmt.Fprintf(os.Stderr, "unsupported dialect %q\n", opts.Dialect)
		os.Exit(2)
	}
	d := dialect.ForKind(dialectKind)

	b := query.Select(table)
	where, err := parseWhere(table, opts.Where)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if where != nil {
		b = b.Where(where)
	}
	if opts.Limit > 0 {
		b = b.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		b = b.Offset(opts.Offset)
	}

	sql, params, err := b.Compile(d)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(sql)
	if len(params) > 0 {
		fmt.Println("params:", params)
	}

	if !opts.Execute {
		return
	}
	if opts.DSN == "" {
		fmt.Fprintln(os.Stderr, "--execute requires --dsn")
		os.Exit(1)
	}

	exec, err := executor.NewSQLExecutor(dialectKind, opts.DSN, zap.NewNop())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer exec.Dispose(context.Background())

	payload, err := exec.ExecuteSQL(context.Background(), sql, params)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	printPayload(payload)
}

func printPayload(payload executor.ExecutionPayload) {
	fmt.Println(strings.Join(payload.Columns, "\t"))
	for _, row := range payload.Values {
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = fmt.Sprint(v)
		}
		fmt.Println(strings.Join(parts, "\t"))
	}
}
