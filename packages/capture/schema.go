package capture

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/stopwatch/packages/query"
	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaMismatch is returned when a body does not satisfy its schema
var ErrSchemaMismatch = errors.New("schema validation failed")

// ValidateSchema checks the response body against the JSON Schema file at
// schemaPath.
func ValidateSchema(resp *query.Response, schemaPath string) error {
	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}
	return ValidateSchemaBytes(resp.Body, schemaData)
}

// ValidateSchemaBytes validates document against schema, both JSON.
func ValidateSchemaBytes(document, schema []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(problems, "; "))
}
