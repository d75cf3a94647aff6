package results

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Table is a flattened, rectangular view of a set of records.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Flatten turns records into a table. Columns appear in first-seen order
// across all records; cells for absent columns are empty.
//
// A record's attributes become a "[Type]" column holding the record id, or
// "parent [Type]" for nested records. Nested objects flatten to dotted keys
// and array elements are keyed by their index under the enclosing key.
func Flatten(records []Object) *Table {
	t := &Table{}
	index := map[string]int{}

	flat := make([]map[string]string, len(records))
	for i, rec := range records {
		row := map[string]string{}
		flattenInto(rec, "", row, func(key string) {
			if _, ok := index[key]; !ok {
				index[key] = len(t.Columns)
				t.Columns = append(t.Columns, key)
			}
		})
		flat[i] = row
	}

	for _, row := range flat {
		cells := make([]string, len(t.Columns))
		for j, col := range t.Columns {
			cells[j] = row[col]
		}

		t.Rows = append(t.Rows, cells)
	}

	return t
}

func flattenInto(obj Object, parent string, out map[string]string, seen func(string)) {
	set := func(key, value string) {
		seen(key)
		out[key] = value
	}

	for _, p := range obj {
		switch v := p.Value.(type) {
		case Object:
			if p.Key == "attributes" {
				typ, url := attributeString(v, "type"), attributeString(v, "url")
				if typ == "" || url == "" {
					continue
				}

				set(joinAttr(parent, typ), url[strings.LastIndex(url, "/")+1:])

				continue
			}

			flattenInto(v, join(parent, p.Key), out, seen)
		case []any:
			for i, elem := range v {
				key := p.Key
				if parent != "" {
					key = parent + "." + strconv.Itoa(i)
				}

				if o, ok := elem.(Object); ok {
					flattenInto(o, key, out, seen)
				} else {
					set(key, Cell(elem))
				}
			}
		default:
			set(join(parent, p.Key), Cell(v))
		}
	}
}

func attributeString(o Object, key string) string {
	v, _ := o.Get(key)
	s, _ := v.(string)

	return s
}

func join(parent, key string) string {
	if parent == "" {
		return key
	}

	return parent + "." + key
}

func joinAttr(parent, typ string) string {
	if parent == "" {
		return "[" + typ + "]"
	}

	return parent + " [" + typ + "]"
}

// Cell renders a scalar value. Null renders empty.
func Cell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case Object, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

// Records converts the table back into one map per row keyed by column.
func (t *Table) Records() []Object {
	out := make([]Object, 0, len(t.Rows))
	for _, row := range t.Rows {
		obj := make(Object, len(t.Columns))
		for j, col := range t.Columns {
			obj[j] = Pair{Key: col, Value: row[j]}
		}

		out = append(out, obj)
	}

	return out
}

// Filter keeps the rows where any cell contains text, case-insensitively.
// A blank filter keeps every row.
func (t *Table) Filter(text string) *Table {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return t
	}

	out := &Table{Columns: t.Columns}

	for _, row := range t.Rows {
		for _, cell := range row {
			if strings.Contains(strings.ToLower(cell), needle) {
				out.Rows = append(out.Rows, row)

				break
			}
		}
	}

	return out
}

// Summary describes how many rows a filter kept.
func Summary(shown, total int) string {
	if shown > 0 {
		return fmt.Sprintf("Showing %d out of %d records", shown, total)
	}

	return fmt.Sprintf("Showing %d records", total)
}
