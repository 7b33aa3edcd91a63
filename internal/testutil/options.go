package testutil

// record is one descriptor element as written to disk.
type record map[string]any

// RecordOption customizes a descriptor record.
type RecordOption func(record)

// Description sets the "description" field.
func Description(desc string) RecordOption {
	return func(r record) { r["description"] = desc }
}

// Activate sets the "activate" field verbatim, e.g. "true" or "TRUE".
func Activate(value any) RecordOption {
	return func(r record) { r["activate"] = value }
}

// Clear sets the "clear" field verbatim.
func Clear(value any) RecordOption {
	return func(r record) { r["clear"] = value }
}

// Field sets an arbitrary field, for malformed or extended records.
func Field(key string, value any) RecordOption {
	return func(r record) { r[key] = value }
}

// Without removes a field, for records missing a required key.
func Without(key string) RecordOption {
	return func(r record) { delete(r, key) }
}
