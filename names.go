package soql

// Field type names as reported by describe.
const (
	FieldTypeID            = "id"
	FieldTypeString        = "string"
	FieldTypeTextArea      = "textarea"
	FieldTypeBoolean       = "boolean"
	FieldTypeInt           = "int"
	FieldTypeLong          = "long"
	FieldTypeDouble        = "double"
	FieldTypePercent       = "percent"
	FieldTypeCurrency      = "currency"
	FieldTypeDate          = "date"
	FieldTypeDateTime      = "datetime"
	FieldTypeTime          = "time"
	FieldTypeReference     = "reference"
	FieldTypePicklist      = "picklist"
	FieldTypeMultiPicklist = "multipicklist"
	FieldTypeEmail         = "email"
	FieldTypePhone         = "phone"
	FieldTypeURL           = "url"
	FieldTypeAddress       = "address"
	FieldTypeLocation      = "location"
	FieldTypeCombobox      = "combobox"
	FieldTypeBase64        = "base64"
	FieldTypeAnyType       = "anytype"
	FieldTypeEncrypted     = "encryptedstring"
)

// Page names understood by the host.
const (
	PageQuery        = "soql-panel"
	PageMetaExplorer = "meta-explorer"
)

// Icon keys for suggestion rows. Field rows use their field type.
const (
	IconObject       = "object"
	IconRelationship = "reference"
)

// DefaultAPIVersion is the REST API version used when none is configured.
const DefaultAPIVersion = 60.0
