package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	nonBlank     = `{"type": "string", "pattern": "\\S"}`
	optionalText = `{"type": ["string", "null"]}`
	// keyValue admits spreadsheet exports that store register numbers and class numbers as integers.
	keyValue = `{"type": ["string", "integer"], "pattern": "\\S"}`
)

var profileSchemaSources = map[string]string{
	"student": `{
		"type": "object",
		"required": ["register_number", "name", "class"],
		"properties": {
			"register_number": ` + keyValue + `,
			"name": ` + nonBlank + `,
			"class": ` + keyValue + `,
			"section": ` + optionalText + `,
			"mother_name": ` + optionalText + `,
			"mother_phone": ` + optionalText + `,
			"father_name": ` + optionalText + `,
			"father_phone": ` + optionalText + `,
			"address": ` + optionalText + `,
			"dob": ` + optionalText + `,
			"blood_group": ` + optionalText + `
		}
	}`,
	"teacher": `{
		"type": "object",
		"required": ["register_id", "name"],
		"properties": {
			"register_id": ` + keyValue + `,
			"name": ` + nonBlank + `,
			"main_subject": ` + optionalText + `,
			"class_advisor": ` + optionalText + `,
			"username": ` + optionalText + `
		}
	}`,
	"admin": `{
		"type": "object",
		"required": ["register_id", "name"],
		"properties": {
			"register_id": ` + keyValue + `,
			"name": ` + nonBlank + `,
			"main_subject": ` + optionalText + `,
			"class_advisor": ` + optionalText + `,
			"role": ` + optionalText + `,
			"username": ` + optionalText + `
		}
	}`,
}

func compileProfileSchemas() (map[string]*jsonschema.Schema, error) {
	schemas := make(map[string]*jsonschema.Schema, len(profileSchemaSources))
	for kind, source := range profileSchemaSources {
		schema, err := jsonschema.CompileString(kind+"_profile.json", source)
		if err != nil {
			return nil, fmt.Errorf("compile %s profile schema: %w", kind, err)
		}
		schemas[kind] = schema
	}
	return schemas, nil
}

func decodeJSONValue(raw json.RawMessage) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var doc interface{}
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// schemaViolation reports the most specific failure of a schema validation.
func schemaViolation(err error) string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return "entry does not match the profile format"
	}
	for len(validationErr.Causes) > 0 {
		validationErr = validationErr.Causes[0]
	}
	location := strings.TrimPrefix(validationErr.InstanceLocation, "/")
	if location == "" {
		return validationErr.Message
	}
	return location + ": " + validationErr.Message
}
