// Package schema describes the dimensional model exported by the pipeline:
// per-table contracts (ordered fields, natural keys, references to dimension
// keys and defaults for optional columns) plus the conversions that turn
// driver values into the canonical values written to CSV.
package schema

import "strings"

// Field kinds understood by Parse and Format.
const (
	KindInt       = "int"
	KindText      = "text"
	KindBool      = "bool"
	KindDate      = "date"
	KindTimestamp = "timestamp"
	KindMoney     = "money"
	KindDecimal   = "decimal"
)

// Field is a single exported column.
type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"` // "int" | "text" | "bool" | "date" | "timestamp" | "money" | "decimal"
	Required bool     `json:"required,omitempty"`
	Enum     []string `json:"enum,omitempty"`
	Layout   string   `json:"layout,omitempty"` // date layout for text inputs
	Truthy   []string `json:"truthy,omitempty"` // bool parsing
	Falsy    []string `json:"falsy,omitempty"`
}

// Kind returns the normalized kind of the field type.
func (f Field) Kind() string { return NormalizeKind(f.Type) }

// Reference ties a column of one table to the key column of a dimension
// table processed earlier in the same run.
type Reference struct {
	Column string `json:"column"`
	Table  string `json:"table"`
	Key    string `json:"key"`
}

// Contract is the full rule set for one table.
type Contract struct {
	Name       string            `json:"name"`
	Fields     []Field           `json:"fields"`
	KeyColumns []string          `json:"key_columns,omitempty"`
	References []Reference       `json:"references,omitempty"`
	Defaults   map[string]string `json:"defaults,omitempty"`
}

// Columns returns the field names in export order.
func (c Contract) Columns() []string {
	out := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = f.Name
	}
	return out
}

// Index returns the position of the named field or -1. Matching is
// case-insensitive, as database drivers do not agree on identifier case.
func (c Contract) Index(name string) int {
	for i, f := range c.Fields {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

// Field returns the named field.
func (c Contract) Field(name string) (Field, bool) {
	if i := c.Index(name); i >= 0 {
		return c.Fields[i], true
	}
	return Field{}, false
}

// Required lists the names of required fields in export order.
func (c Contract) Required() []string {
	var out []string
	for _, f := range c.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// NormalizeKind maps database and config type names onto the small set of
// kinds used by the validator.
func NormalizeKind(t string) string {
	s := strings.ToLower(strings.TrimSpace(t))
	switch s {
	case "bigint", "int8", "integer", "int4", "int2", "int", "smallint":
		return KindInt
	case "boolean", "bool", "bit":
		return KindBool
	case "date":
		return KindDate
	case "timestamp", "timestamptz", "datetime", "datetime2":
		return KindTimestamp
	case "money", "currency":
		return KindMoney
	case "decimal", "numeric", "real", "float", "double":
		return KindDecimal
	case "text", "string", "varchar", "char", "":
		return KindText
	default:
		return s
	}
}

// KnownKind reports whether t normalizes to a supported kind.
func KnownKind(t string) bool {
	switch NormalizeKind(t) {
	case KindInt, KindText, KindBool, KindDate, KindTimestamp, KindMoney, KindDecimal:
		return true
	}
	return false
}
