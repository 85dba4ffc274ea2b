package report

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/panbanda/scry/report.schema.json"

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse report schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add report schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// Schema returns the JSON Schema serialized reports conform to.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

// Validate checks serialized report JSON against the report schema.
func Validate(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse report: %w", err)
	}
	return sch.Validate(inst)
}

// ValidateReport serializes r and validates the result.
func ValidateReport(r *AnalysisReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return Validate(data)
}
