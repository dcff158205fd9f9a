// Package worldschema validates world documents against an embedded JSON
// Schema before they are parsed.
package worldschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/gridbot/internal/game/world"
)

//go:embed world.schema.json
var schemaJSON []byte

const schemaURL = "world.schema.json"

// ErrInvalid wraps every schema violation.
var ErrInvalid = errors.New("world document does not match schema")

// Validator checks world documents against the embedded schema. It is safe
// for concurrent use.
type Validator struct {
	schema *jsonschema.Schema
}

// New compiles the embedded schema.
//
// Postcondition: Returns a ready Validator or the compile error.
func New() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("adding world schema: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compiling world schema: %w", err)
	}
	return &Validator{schema: s}, nil
}

// MustNew is New for package initialisation; it panics on a broken schema.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Schema returns the raw embedded schema.
func Schema() []byte {
	return append([]byte(nil), schemaJSON...)
}

// Validate checks a document decoded into generic JSON values.
func (v *Validator) Validate(doc any) error {
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// ValidateBytes decodes data in the given format and validates it. YAML is
// normalised to JSON values first.
func (v *Validator) ValidateBytes(data []byte, format world.Format) error {
	var raw []byte
	switch format {
	case world.FormatJSON:
		raw = data
	case world.FormatYAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing world YAML: %w", err)
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("normalising world YAML: %w", err)
		}
		raw = b
	default:
		return fmt.Errorf("unsupported world document format %q", format)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("parsing world JSON: %w", err)
	}
	return v.Validate(doc)
}

// ValidateFile validates the document at path, choosing the format by
// extension. It satisfies world.Validator.
func (v *Validator) ValidateFile(path string) error {
	format, err := world.FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading world file %s: %w", path, err)
	}
	if err := v.ValidateBytes(data, format); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

var _ world.Validator = (*Validator)(nil)
