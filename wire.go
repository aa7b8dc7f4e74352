package sieve

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// PageRequestSchema is the JSON Schema for a serialized PageRequest.
// Conditions may be sent as their numeric code or their symbolic name.
const PageRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "pageNumber": {"type": "integer", "minimum": 0},
    "pageSize": {"type": "integer", "minimum": 0},
    "sortColumn": {"type": ["string", "null"]},
    "sortDescending": {"type": "boolean"},
    "filters": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["column", "condition"],
        "properties": {
          "column": {"type": "string", "minLength": 1},
          "value": {"type": ["string", "null"]},
          "condition": {
            "oneOf": [
              {"type": "integer", "minimum": 1, "maximum": 8},
              {"type": "string", "minLength": 1}
            ]
          }
        }
      }
    }
  }
}`

var (
	pageRequestSchema     *gojsonschema.Schema
	pageRequestSchemaErr  error
	pageRequestSchemaOnce sync.Once
)

func compiledPageRequestSchema() (*gojsonschema.Schema, error) {
	pageRequestSchemaOnce.Do(func() {
		loader := gojsonschema.NewStringLoader(PageRequestSchema)
		pageRequestSchema, pageRequestSchemaErr = gojsonschema.NewSchema(loader)
	})
	return pageRequestSchema, pageRequestSchemaErr
}

// ParsePageRequest validates data against PageRequestSchema, decodes it and
// applies page defaults.
func ParsePageRequest(data []byte) (PageRequest, error) {
	schema, err := compiledPageRequestSchema()
	if err != nil {
		return PageRequest{}, fmt.Errorf("compiling page request schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return PageRequest{}, fmt.Errorf("%w: %v", ErrInvalidPageRequest, err)
	}
	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return PageRequest{}, fmt.Errorf("%w: %s", ErrInvalidPageRequest, strings.Join(errs, "; "))
	}

	var req PageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return PageRequest{}, fmt.Errorf("%w: %w", ErrInvalidPageRequest, err)
	}
	return req.Normalize()
}
