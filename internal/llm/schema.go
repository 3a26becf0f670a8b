package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var compiled sync.Map // *Schema -> *jsonschema.Schema

func (s *Schema) compile() (*jsonschema.Schema, error) {
	if c, ok := compiled.Load(s); ok {
		return c.(*jsonschema.Schema), nil
	}

	raw, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %q: %w", s.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", s.Name, err)
	}

	url := "mem://schemas/" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %q: %w", s.Name, err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", s.Name, err)
	}
	compiled.Store(s, sch)
	return sch, nil
}

// validate checks raw JSON output against the schema.
func (s *Schema) validate(raw json.RawMessage) error {
	sch, err := s.compile()
	if err != nil {
		return err
	}
	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("output is not JSON: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("output does not match %q: %w", s.Name, err)
	}
	return nil
}

// JSON returns the schema definition as JSON.
func (s *Schema) JSON() json.RawMessage {
	raw, err := json.Marshal(s.Definition)
	if err != nil {
		return nil
	}
	return raw
}
