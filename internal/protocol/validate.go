package protocol

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaFiles maps inbound message types to their schema file. The
// argument-free control messages share one schema.
var schemaFiles = map[string]string{
	TypeInitialize: "initialize.schema.json",
	TypeStart:      "start.schema.json",
	TypeSetSpeed:   "set_speed.schema.json",
	TypePause:      "control.schema.json",
	TypeStop:       "control.schema.json",
	TypeGetState:   "control.schema.json",
	TypeGetStats:   "control.schema.json",
}

// Validator checks inbound messages against the published JSON schemas
// before they reach the engine. Malformed input is a protocol error on
// the host side, never a crash in the core.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// LoadValidator compiles the inbound schemas from dir.
func LoadValidator(dir string) (*Validator, error) {
	v := &Validator{schemas: map[string]*jsonschema.Schema{}}
	compiled := map[string]*jsonschema.Schema{}
	for msgType, file := range schemaFiles {
		s, ok := compiled[file]
		if !ok {
			var err error
			s, err = jsonschema.Compile(filepath.Join(dir, file))
			if err != nil {
				return nil, fmt.Errorf("schema %s: %w", file, err)
			}
			compiled[file] = s
		}
		v.schemas[msgType] = s
	}
	return v, nil
}

// Validate checks raw against the schema for msgType. Unknown types are
// rejected up front.
func (v *Validator) Validate(msgType string, raw []byte) error {
	s, ok := v.schemas[msgType]
	if !ok {
		return fmt.Errorf("unknown message type %q", msgType)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("not valid JSON: %w", err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("message %s: %w", msgType, err)
	}
	return nil
}
