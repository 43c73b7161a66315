// Package schema discriminates inbound telemetry payloads against the two
// accepted shapes: device error reports and audio classification events.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed error.schema.json
var errorSchemaSrc []byte

//go:embed event.schema.json
var eventSchemaSrc []byte

// Kind is the outcome of payload classification.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindError
	KindEvent
)

func (k Kind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindEvent:
		return "event"
	default:
		return "unrecognized"
	}
}

// UnrecognizedError aggregates the diagnostics of both failed schema
// attempts for the 400 response body.
type UnrecognizedError struct {
	ErrorAttempt string
	EventAttempt string
}

func (e *UnrecognizedError) Error() string {
	return "payload matches neither the error nor the event schema"
}

// Details returns the per-schema validation output.
func (e *UnrecognizedError) Details() string {
	return fmt.Sprintf("error schema: %s; event schema: %s", e.ErrorAttempt, e.EventAttempt)
}

// Classifier holds the two compiled schemas. Compiled once at startup and
// read-only afterwards, so a single instance is shared across requests.
type Classifier struct {
	errorSchema *jsonschema.Schema
	eventSchema *jsonschema.Schema
}

func NewClassifier() (*Classifier, error) {
	compiler := jsonschema.NewCompiler()

	errDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(errorSchemaSrc))
	if err != nil {
		return nil, fmt.Errorf("decode error schema: %w", err)
	}
	if err := compiler.AddResource("error.schema.json", errDoc); err != nil {
		return nil, fmt.Errorf("register error schema: %w", err)
	}

	eventDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(eventSchemaSrc))
	if err != nil {
		return nil, fmt.Errorf("decode event schema: %w", err)
	}
	if err := compiler.AddResource("event.schema.json", eventDoc); err != nil {
		return nil, fmt.Errorf("register event schema: %w", err)
	}

	errorSchema, err := compiler.Compile("error.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile error schema: %w", err)
	}
	eventSchema, err := compiler.Compile("event.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile event schema: %w", err)
	}

	return &Classifier{errorSchema: errorSchema, eventSchema: eventSchema}, nil
}

// DecodeBody parses a raw request body into the instance form the
// classifier validates. Numbers stay json.Number so integer fields are
// not silently rounded.
func DecodeBody(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return doc, nil
}

// Classify runs the ordered schema attempts: error shape first, event
// shape only if the error attempt fails. A payload satisfying both is
// therefore always an error report. The returned error is non-nil only
// for KindUnrecognized and is always an *UnrecognizedError.
func (c *Classifier) Classify(doc map[string]any) (Kind, error) {
	errAttempt := c.errorSchema.Validate(doc)
	if errAttempt == nil {
		return KindError, nil
	}

	eventAttempt := c.eventSchema.Validate(doc)
	if eventAttempt == nil {
		return KindEvent, nil
	}

	return KindUnrecognized, &UnrecognizedError{
		ErrorAttempt: errAttempt.Error(),
		EventAttempt: eventAttempt.Error(),
	}
}
