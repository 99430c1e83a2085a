// Package validator checks inbound post payloads before they reach storage.
//
// A payload is valid only if it is a JSON object with exactly the expected
// keys, in the expected order, and every value is a string. Key order is
// part of the contract: a complete but reordered object is rejected.
package validator

import (
	"bytes"
	"embed"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jenkass/reddit-parser/internal/model"
)

// Schema ids of the embedded payload schemas.
const (
	SchemaInsert = "post-input"
	SchemaUpdate = "post-update"
)

// ErrInvalidPayload wraps every validation failure.
var ErrInvalidPayload = errors.New("invalid payload")

//go:embed schemas/*.json
var schemaFS embed.FS

// Validator validates post payloads against the ordered field lists and
// the embedded JSON schemas.
type Validator struct {
	schemas map[string]*gojsonschema.Schema
	fields  map[string][]string
}

// New compiles the embedded schemas.
func New() (*Validator, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("cannot read schemas: %w", err)
	}

	v := &Validator{
		schemas: make(map[string]*gojsonschema.Schema),
		fields: map[string][]string{
			SchemaInsert: model.RecordFields,
			SchemaUpdate: model.RecordFields[1:],
		},
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("cannot read schema %s: %w", e.Name(), err)
		}

		var head struct {
			ID string `json:"$id"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, fmt.Errorf("parse error in schema %s: %w", e.Name(), err)
		}
		if head.ID == "" {
			return nil, fmt.Errorf("schema %s does not contain $id", e.Name())
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("cannot compile schema %s: %w", head.ID, err)
		}
		v.schemas[head.ID] = schema
	}

	for id := range v.fields {
		if _, ok := v.schemas[id]; !ok {
			return nil, fmt.Errorf("there is no schema %s", id)
		}
	}

	return v, nil
}

// Insert validates a full post input, unique id included.
func (v *Validator) Insert(body []byte) (model.Record, error) {
	return v.validate(body, SchemaInsert)
}

// Update validates a replacement payload. It carries every field except
// the unique id, which comes from the request path, so the returned
// record has an empty ID.
func (v *Validator) Update(body []byte) (model.Record, error) {
	return v.validate(body, SchemaUpdate)
}

func (v *Validator) validate(body []byte, schemaID string) (model.Record, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return model.Record{}, fmt.Errorf("%w: empty body", ErrInvalidPayload)
	}

	if err := checkKeyOrder(body, v.fields[schemaID]); err != nil {
		return model.Record{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	result, err := v.schemas[schemaID].Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return model.Record{}, fmt.Errorf("%w: cannot validate with schema %s: %w", ErrInvalidPayload, schemaID, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return model.Record{}, fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(msgs, "; "))
	}

	var rec model.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return model.Record{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	return rec, nil
}

// checkKeyOrder walks the top-level object token by token and requires its
// keys to be exactly fields, in order, with string values.
func checkKeyOrder(body []byte, fields []string) error {
	dec := stdjson.NewDecoder(bytes.NewReader(body))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("malformed json: %w", err)
	}
	if d, ok := tok.(stdjson.Delim); !ok || d != '{' {
		return errors.New("payload is not an object")
	}

	i := 0
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("malformed json: %w", err)
		}
		key, _ := tok.(string)
		if i >= len(fields) {
			return fmt.Errorf("unexpected field %q: want %d fields", key, len(fields))
		}
		if key != fields[i] {
			return fmt.Errorf("invalid key %q at position %d: want %q", key, i, fields[i])
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("malformed json: %w", err)
		}
		if _, ok := value.(string); !ok {
			return fmt.Errorf("invalid type value for %q", key)
		}
		i++
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("malformed json: %w", err)
	}
	if i != len(fields) {
		return fmt.Errorf("the amount of data in the post is invalid: got %d fields, want %d", i, len(fields))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after object")
	}

	return nil
}
