package complete

import (
	"strings"
	"time"

	"github.com/rlch/soql"
)

var (
	equalityOperators   = []string{"=", "!="}
	stringOperators     = []string{"=", "!=", "LIKE", "IN", "NOT IN"}
	comparableOperators = []string{"=", "!=", ">", "<", ">=", "<=", "IN", "NOT IN"}
	setOperators        = []string{"INCLUDES", "EXCLUDES"}
)

// operatorsByType maps a field type to its operator vocabulary.
var operatorsByType = map[string][]string{
	soql.FieldTypeString:        stringOperators,
	soql.FieldTypeTextArea:      stringOperators,
	soql.FieldTypeEmail:         stringOperators,
	soql.FieldTypePhone:         stringOperators,
	soql.FieldTypeURL:           stringOperators,
	soql.FieldTypeCombobox:      stringOperators,
	soql.FieldTypeEncrypted:     stringOperators,
	soql.FieldTypeBoolean:       equalityOperators,
	soql.FieldTypeInt:           comparableOperators,
	soql.FieldTypeLong:          comparableOperators,
	soql.FieldTypeDouble:        comparableOperators,
	soql.FieldTypePercent:       comparableOperators,
	soql.FieldTypeCurrency:      comparableOperators,
	soql.FieldTypeDate:          comparableOperators,
	soql.FieldTypeDateTime:      comparableOperators,
	soql.FieldTypeTime:          comparableOperators,
	soql.FieldTypeReference:     equalityOperators,
	soql.FieldTypeMultiPicklist: setOperators,
	soql.FieldTypePicklist:      equalityOperators,
	soql.FieldTypeID:            equalityOperators,
}

// Operators returns the operator vocabulary for a field type.
func Operators(fieldType string) ([]string, bool) {
	ops, ok := operatorsByType[strings.ToLower(fieldType)]

	return ops, ok
}

// relativeDateLiterals follow the current-instant literal in DateLiterals.
var relativeDateLiterals = []string{
	"YESTERDAY", "TODAY", "TOMORROW",
	"LAST_WEEK", "THIS_WEEK", "NEXT_WEEK",
	"LAST_MONTH", "THIS_MONTH", "NEXT_MONTH",
	"LAST_90_DAYS", "NEXT_90_DAYS",
	"THIS_QUARTER", "LAST_QUARTER", "NEXT_QUARTER",
	"THIS_YEAR", "LAST_YEAR", "NEXT_YEAR",
	"LAST_FISCAL_QUARTER", "LAST_FISCAL_YEAR",
	"NEXT_FISCAL_QUARTER", "NEXT_FISCAL_YEAR",
	"THIS_FISCAL_QUARTER", "THIS_FISCAL_YEAR",
	"LAST_N_DAYS:n", "LAST_N_FISCAL_QUARTERS:n", "LAST_N_FISCAL_YEARS:n",
	"LAST_N_MONTHS:n", "LAST_N_QUARTERS:n", "LAST_N_WEEKS:n", "LAST_N_YEARS:n",
	"N_DAYS_AGO:n", "N_FISCAL_QUARTERS_AGO:n", "N_FISCAL_YEARS_AGO:n",
	"N_MONTHS_AGO:n", "N_QUARTERS_AGO:n", "N_WEEKS_AGO:n", "N_YEARS_AGO:n",
	"NEXT_N_DAYS:n", "NEXT_N_FISCAL_QUARTERS:n", "NEXT_N_FISCAL_YEARS:n",
	"NEXT_N_MONTHS:n", "NEXT_N_QUARTERS:n", "NEXT_N_WEEKS:n", "NEXT_N_YEARS:n",
}

// isoMillis matches the instant format the API echoes back.
const isoMillis = "2006-01-02T15:04:05.000Z"

// DateLiterals returns the date literal vocabulary. The first entry is now as
// a quoted UTC instant.
func DateLiterals(now time.Time) []string {
	out := make([]string, 0, len(relativeDateLiterals)+1)
	out = append(out, "'"+now.UTC().Format(isoMillis)+"'")

	return append(out, relativeDateLiterals...)
}
