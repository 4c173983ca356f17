package dataset

import (
	"strconv"
	"strings"
)

// Value is a single cell. It holds nil (missing), string, int64, float64 or bool.
type Value = any

// Record is one row keyed by trimmed column name. Unknown columns pass through as loaded.
type Record map[string]Value

// Dataset is the in-memory table produced by one load cycle.
type Dataset struct {
	Columns []string
	Records []Record
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Column returns every value of the named column in record order.
// A record without the column contributes nil.
func (d *Dataset) Column(name string) []Value {
	if d == nil {
		return nil
	}
	out := make([]Value, len(d.Records))
	for i, rec := range d.Records {
		out[i] = rec[name]
	}
	return out
}

// HasColumn reports whether the header (or default fill) produced the column.
func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Result is the outcome of a load. Dataset is never nil; Err carries the
// diagnostic when the backing file could not be turned into a table.
type Result struct {
	Dataset *Dataset
	Err     error
}

// Failed reports whether the load fell back to an empty dataset because of an error.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Empty reports whether there are no records, either because the file has
// none or because the load failed.
func (r Result) Empty() bool {
	return r.Dataset.Len() == 0
}

func failed(err error) Result {
	return Result{Dataset: &Dataset{}, Err: err}
}

// Stringify renders a value the way it is compared and grouped by text.
func Stringify(v Value) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		return ""
	}
}

// Float coerces a value to a number. Strings are parsed after trimming;
// ok is false for nil and non-numeric text.
func Float(v Value) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case float64:
		return t, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || !finite(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
