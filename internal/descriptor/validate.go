package descriptor

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/zjrosen/mlagent/internal/registry/domain"
)

//go:embed schema/*.schema.json
var schemaFS embed.FS

var (
	compiledSchemas map[Kind]*jsonschema.Schema
	compileOnce     sync.Once
	compileErr      error
)

// ValidationError describes a record rejected by Map.
// Index is the record's position in its descriptor, or -1 when unknown.
type ValidationError struct {
	Kind   Kind
	Index  int
	Field  string
	Reason string

	cause error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s record %d: %s", e.Kind, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid %s record %d: field %q %s", e.Kind, e.Index, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

// getSchema compiles the embedded per-kind schemas once and returns kind's.
func getSchema(kind Kind) (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		schemas := make(map[Kind]*jsonschema.Schema, len(Kinds()))
		for _, k := range Kinds() {
			name := string(k) + ".schema.json"
			data, err := schemaFS.ReadFile("schema/" + name)
			if err != nil {
				compileErr = fmt.Errorf("reading schema %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("unmarshaling schema %s: %w", name, err)
				return
			}
			if err := c.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("adding schema resource %s: %w", name, err)
				return
			}
			s, err := c.Compile(name)
			if err != nil {
				compileErr = fmt.Errorf("compiling schema %s: %w", name, err)
				return
			}
			schemas[k] = s
		}
		compiledSchemas = schemas
	})
	if compileErr != nil {
		return nil, compileErr
	}
	s, ok := compiledSchemas[kind]
	if !ok {
		return nil, fmt.Errorf("unknown artifact kind %q", kind)
	}
	return s, nil
}

// Map validates rec against kind's schema and converts it to an Entry.
// Model and resource entries carry info. Optional string fields of any other
// type read as empty; "activate" and "clear" are set only by the string
// "true" in any letter case.
func Map(kind Kind, rec Record, info domain.AppInfo) (Entry, error) {
	schema, err := getSchema(kind)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(rec); err != nil {
		return nil, newValidationError(kind, rec, err)
	}

	obj := rec.(map[string]any)
	switch kind {
	case KindModel:
		return ModelEntry{
			Name:          obj["name"].(string),
			Path:          obj["model"].(string),
			Description:   optString(obj, "description"),
			AppInfo:       info,
			Active:        isTrue(obj["activate"]),
			ClearPrevious: isTrue(obj["clear"]),
		}, nil
	case KindPipeline:
		return PipelineEntry{
			Name:        obj["name"].(string),
			Description: obj["description"].(string),
		}, nil
	default:
		return ResourceEntry{
			Name:          obj["name"].(string),
			Path:          obj["path"].(string),
			Description:   optString(obj, "description"),
			AppInfo:       info,
			ClearPrevious: isTrue(obj["clear"]),
		}, nil
	}
}

// newValidationError names the first offending required field. The schema
// error is kept as the cause for callers that want every violation.
func newValidationError(kind Kind, rec Record, err error) *ValidationError {
	ve := &ValidationError{Kind: kind, Index: -1, cause: err}

	obj, ok := rec.(map[string]any)
	if !ok {
		ve.Reason = fmt.Sprintf("record is %s, not an object", jsonType(rec))
		return ve
	}

	for _, field := range requiredFields(kind) {
		v, present := obj[field]
		if !present {
			ve.Field, ve.Reason = field, "is missing"
			return ve
		}
		s, isString := v.(string)
		if !isString {
			ve.Field, ve.Reason = field, "must be a string, got "+jsonType(v)
			return ve
		}
		if s == "" && field == "name" {
			ve.Field, ve.Reason = field, "must not be empty"
			return ve
		}
	}

	var schemaErr *jsonschema.ValidationError
	if errors.As(err, &schemaErr) {
		ve.Reason = schemaErr.Error()
	} else {
		ve.Reason = err.Error()
	}
	return ve
}

func optString(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func isTrue(v any) bool {
	s, ok := v.(string)
	return ok && strings.EqualFold(s, "true")
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case string:
		return "a string"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return "a number"
	}
}
