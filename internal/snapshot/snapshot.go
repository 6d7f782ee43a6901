// Package snapshot serializes conversation sessions for the session stores and
// rejects snapshots that do not match the session schema.
package snapshot

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"declbot/internal/domain"
)

// SchemaVersion is written into every snapshot.
const SchemaVersion = 1

// ErrCorrupt marks a stored snapshot that cannot be turned back into a session.
var ErrCorrupt = errors.New("corrupt session snapshot")

//go:embed session.schema.json
var schemaJSON []byte

var schema = mustCompile()

func mustCompile() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("session.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("snapshot: add schema: %v", err))
	}
	return compiler.MustCompile("session.schema.json")
}

type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Session       *domain.Session `json:"session"`
}

// Encode serializes s.
func Encode(s *domain.Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("snapshot.Encode: nil session")
	}
	c := s.Clone()
	if c.Positions == nil {
		c.Positions = []domain.LineItem{}
	}
	data, err := json.Marshal(envelope{SchemaVersion: SchemaVersion, Session: c})
	if err != nil {
		return nil, fmt.Errorf("snapshot.Encode: %w", err)
	}
	return data, nil
}

// Decode validates data against the session schema and restores the session.
func Decode(data []byte) (*domain.Session, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := schema.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if _, err := domain.ParseStep(env.Session.Step.String()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return env.Session, nil
}
