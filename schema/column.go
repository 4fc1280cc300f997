package schema

// ColumnType is the closed set of SQL type tags a column can carry. Length,
// precision and scale are stored on Column itself rather than on the type
// tag so that e.g. Varchar(255) and Varchar(32) share one tag.
type ColumnType int

const (
	Int ColumnType = iota
	BigInt
	Varchar
	Char
	Text
	Decimal
	Float
	Double
	Boolean
	JSON
	DateTime
	Timestamp
	Date
	Blob
	UUID
)

func (t ColumnType) String() string {
	switch t {
	case Int:
		return "int"
	case BigInt:
		return "bigint"
	case Varchar:
		return "varchar"
	case Char:
		return "char"
	case Text:
		return "text"
	case Decimal:
		return "decimal"
	case Float:
		return "float"
	case Double:
		return "double"
	case Boolean:
		return "boolean"
	case JSON:
		return "json"
	case DateTime:
		return "datetime"
	case Timestamp:
		return "timestamp"
	case Date:
		return "date"
	case Blob:
		return "blob"
	case UUID:
		return "uuid"
	default:
		return "unknown"
	}
}

// ReferentialAction is the closed set of ON UPDATE / ON DELETE behaviors.
type ReferentialAction int

const (
	Restrict ReferentialAction = iota
	Cascade
	SetNull
	SetDefault
	NoAction
)

func (a ReferentialAction) String() string {
	switch a {
	case Restrict:
		return "RESTRICT"
	case Cascade:
		return "CASCADE"
	case SetNull:
		return "SET NULL"
	case SetDefault:
		return "SET DEFAULT"
	case NoAction:
		return "NO ACTION"
	default:
		return "NO ACTION"
	}
}

// Reference describes the target of a foreign key and the actions taken
// on update/delete of the referenced row.
type Reference struct {
	TargetTable  string
	TargetColumn string
	OnUpdate     ReferentialAction
	OnDelete     ReferentialAction
}

// RefOption configures a Reference built by Column.References.
type RefOption func(*Reference)

func OnUpdate(action ReferentialAction) RefOption {
	return func(r *Reference) { r.OnUpdate = action }
}

func OnDelete(action ReferentialAction) RefOption {
	return func(r *Reference) { r.OnDelete = action }
}

// Column is a value object describing one table column. Columns are built
// via the type factories (IntColumn, VarcharColumn, ...) and decorated with chainable
// modifiers (PrimaryKey, NotNull, Unique, ...); every modifier returns a
// new Column rather than mutating the receiver.
type Column struct {
	Name            string
	Table           string
	Type            ColumnType
	Length          int
	Precision       int
	Scale           int
	TSType          string
	IsPrimary       bool
	IsNotNull       bool
	IsUnique        bool
	IsAutoIncrement bool
	HasDefault      bool
	DefaultValue    any
	Ref             *Reference
}

func (c Column) PrimaryKey() Column {
	c.IsPrimary = true
	c.IsNotNull = true
	return c
}

func (c Column) NotNull() Column {
	c.IsNotNull = true
	return c
}

func (c Column) Unique() Column {
	c.IsUnique = true
	return c
}

func (c Column) AutoIncrement() Column {
	c.IsAutoIncrement = true
	return c
}

func (c Column) Default(value any) Column {
	c.HasDefault = true
	c.DefaultValue = value
	return c
}

func (c Column) References(table, column string, opts ...RefOption) Column {
	ref := &Reference{TargetTable: table, TargetColumn: column, OnUpdate: NoAction, OnDelete: NoAction}
	for _, opt := range opts {
		opt(ref)
	}
	c.Ref = ref
	return c
}

// withTable stamps the owning table name, matching the invariant that
// Column.Table always equals the table that declared it.
func (c Column) withTable(table string) Column {
	c.Table = table
	return c
}

func newColumn(name string, t ColumnType) Column {
	return Column{Name: name, Type: t}
}

func IntColumn(name string) Column       { return newColumn(name, Int) }
func BigIntColumn(name string) Column    { return newColumn(name, BigInt) }
func BooleanColumn(name string) Column   { return newColumn(name, Boolean) }
func JSONColumn(name string) Column      { return newColumn(name, JSON) }
func DateTimeColumn(name string) Column  { return newColumn(name, DateTime) }
func TimestampColumn(name string) Column { return newColumn(name, Timestamp) }
func DateColumn(name string) Column      { return newColumn(name, Date) }
func BlobColumn(name string) Column      { return newColumn(name, Blob) }
func UUIDColumn(name string) Column      { return newColumn(name, UUID) }
func TextColumn(name string) Column      { return newColumn(name, Text) }
func FloatColumn(name string) Column     { return newColumn(name, Float) }
func DoubleColumn(name string) Column    { return newColumn(name, Double) }

func VarcharColumn(name string, length int) Column {
	c := newColumn(name, Varchar)
	c.Length = length
	return c
}

func CharColumn(name string, length int) Column {
	c := newColumn(name, Char)
	c.Length = length
	return c
}

func DecimalColumn(name string, precision, scale int) Column {
	c := newColumn(name, Decimal)
	c.Precision = precision
	c.Scale = scale
	return c
}
