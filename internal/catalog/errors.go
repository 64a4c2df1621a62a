package catalog

import "fmt"

// SchemaError reports a missing or mistyped required field in the raw portal
// payload. Path points at the offending entry, e.g. "$.1.redes.10".
type SchemaError struct {
	Path  string
	Field string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violation at %s: missing or invalid field %q", e.Path, e.Field)
}

// NotFoundError reports that no catalog state matched the requested name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no state named %q in catalog", e.Name)
}
