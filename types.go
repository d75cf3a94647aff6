package soql

import (
	"strconv"
	"strings"
)

// IconKeys lists every icon the UI is expected to provide, in display order.
var IconKeys = []string{
	"object", "string", "boolean", "picklist", "reference", "url", "currency",
	"number", "address", "date", "time", "phone", "email", "formula", "summary",
}

// iconAliases folds field types that share an icon.
var iconAliases = map[string]string{
	FieldTypeDateTime:      FieldTypeDate,
	FieldTypeMultiPicklist: FieldTypePicklist,
	FieldTypeTextArea:      FieldTypeString,
	FieldTypeCombobox:      FieldTypePicklist,
	FieldTypeInt:           "number",
	FieldTypeLong:          "number",
	FieldTypeDouble:        "number",
	FieldTypePercent:       "number",
}

// IconKey returns the icon for a field type, or "" when none applies.
func IconKey(fieldType string) string {
	t := strings.ToLower(fieldType)
	if alias, ok := iconAliases[t]; ok {
		return alias
	}

	for _, k := range IconKeys {
		if k == t {
			return k
		}
	}

	return ""
}

// IconMap returns the field type to icon mapping sent to UIs on start.
// Keys cover every field type that has an icon.
func IconMap() map[string]string {
	m := make(map[string]string, len(IconKeys)+len(iconAliases))
	for _, k := range IconKeys {
		m[k] = k
	}

	for t, k := range iconAliases {
		m[t] = k
	}

	return m
}

// IsNumeric reports whether values of the type compare numerically.
func IsNumeric(fieldType string) bool {
	switch strings.ToLower(fieldType) {
	case FieldTypeInt, FieldTypeLong, FieldTypeDouble, FieldTypePercent, FieldTypeCurrency:
		return true
	default:
		return false
	}
}

// IsTemporal reports whether the type accepts date literals.
func IsTemporal(fieldType string) bool {
	switch strings.ToLower(fieldType) {
	case FieldTypeDate, FieldTypeDateTime:
		return true
	default:
		return false
	}
}

// IsPicklist reports whether the type carries a picklist value set.
func IsPicklist(fieldType string) bool {
	switch strings.ToLower(fieldType) {
	case FieldTypePicklist, FieldTypeMultiPicklist:
		return true
	default:
		return false
	}
}

// TypeSummary renders a field's type the way the describe view shows it:
// "string (80)", "double, calculated", "reference (Account, Contact)".
func TypeSummary(f *FieldDescriptor) string {
	var b strings.Builder

	b.WriteString(f.Type)

	switch {
	case len(f.ReferenceTo) > 0:
		b.WriteString(" (" + strings.Join(f.ReferenceTo, ", ") + ")")
	case f.Length > 0:
		b.WriteString(" (" + strconv.Itoa(f.Length) + ")")
	}

	if f.Calculated {
		b.WriteString(", calculated")
	}

	return b.String()
}

// FieldDetails returns picklist labels or the formula for the describe view.
func FieldDetails(f *FieldDescriptor) string {
	switch {
	case len(f.PicklistValues) > 0:
		labels := make([]string, 0, len(f.PicklistValues))
		for _, pv := range f.PicklistValues {
			labels = append(labels, pv.Label)
		}

		return strings.Join(labels, ", ")
	case f.CalculatedFormula != "":
		return f.CalculatedFormula
	default:
		return ""
	}
}
