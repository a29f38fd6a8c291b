package recovery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "recovery.json"

func compileSchema(f Fields) (*jsonschema.Schema, error) {
	doc := map[string]any{
		"type":     "object",
		"required": []string{f.Primary, f.Body},
		"properties": map[string]any{
			f.Primary:   map[string]any{"type": "string"},
			f.Body:      map[string]any{"type": "string"},
			f.Confident: map[string]any{},
		},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("recovery: failed to encode schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("recovery: failed to add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("recovery: failed to compile schema: %w", err)
	}
	return schema, nil
}

var bodyNewlines = strings.NewReplacer(`\r\n`, "\n", `\n`, "\n", "\r\n", "\n")

func (p *Parser) parseStrict(candidate string) (*Result, error) {
	dec := json.NewDecoder(strings.NewReader(candidate))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode candidate: %w", err)
	}
	if err := dec.Decode(new(any)); err != io.EOF {
		return nil, errors.New("decode candidate: trailing data after object")
	}
	if err := p.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate candidate: %w", err)
	}

	obj := doc.(map[string]any)
	return &Result{
		PrimaryText: obj[p.fields.Primary].(string),
		BodyText:    bodyNewlines.Replace(obj[p.fields.Body].(string)),
		Confident:   confidentValue(obj[p.fields.Confident]),
		Path:        PathStrict,
	}, nil
}

// confidentValue defaults to true; only false or "false" clear it.
func confidentValue(v any) bool {
	switch c := v.(type) {
	case bool:
		return c
	case string:
		return !strings.EqualFold(strings.TrimSpace(c), "false")
	default:
		return true
	}
}
