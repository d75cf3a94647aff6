package soql

import "errors"

// Sentinel errors.
var (
	// ErrConfigNotFound is returned when no .soql.yaml is found.
	ErrConfigNotFound = errors.New("soql: no .soql.yaml found")

	// ErrUnknownObject is returned when an object is not in the catalog.
	ErrUnknownObject = errors.New("soql: unknown object")

	// ErrCLINotInstalled is returned when the sf executable cannot be run.
	ErrCLINotInstalled = errors.New("soql: Salesforce CLI is not installed")

	// ErrNoDefaultOrg is returned when no default target org is configured.
	ErrNoDefaultOrg = errors.New("soql: no default org configured")

	// ErrDuplicateLabel is returned when saving a query under an existing label.
	ErrDuplicateLabel = errors.New("soql: a query with this label already exists")

	// ErrEmptyQuery is returned when an empty query is run or saved.
	ErrEmptyQuery = errors.New("soql: query is empty")

	// ErrEmptyLabel is returned when a query is saved without a label.
	ErrEmptyLabel = errors.New("soql: label is empty")

	// ErrQueryUnsupported is returned by providers that cannot run queries.
	ErrQueryUnsupported = errors.New("soql: provider cannot run queries")
)
