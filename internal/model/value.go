package model

import (
	"encoding/json"
	"fmt"
)

// HintValue is the tagged union a hint's payload can hold: a bare string, or
// one of four typed variants discriminated on the wire by a "type" field.
// Grounded on the original's `HintValue = Union[str, CommandValue,
// PathValue, TemplateValue, JsonValue]`.
type HintValue interface {
	// Type returns the wire discriminator ("string", "command", "path",
	// "template", or "json").
	Type() string
	// Text returns the textual projection of the value the safety guard
	// scans for secrets (the original's SafetyGuard._extract_text).
	Text() string
}

// StringValue is a bare string hint value, encoded on the wire as a JSON
// string rather than an object with a type discriminator.
type StringValue string

func (v StringValue) Type() string { return "string" }
func (v StringValue) Text() string { return string(v) }

// CommandValue is a shell command hint value.
type CommandValue struct {
	Cmd   string    `json:"cmd"`
	Shell ShellType `json:"shell,omitempty"`
}

func (v CommandValue) Type() string { return "command" }
func (v CommandValue) Text() string { return v.Cmd }

func (v CommandValue) MarshalJSON() ([]byte, error) {
	type alias CommandValue
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: v.Type(), alias: alias(v)})
}

// PathValue is a filesystem path hint value.
type PathValue struct {
	Abs string `json:"abs"`
	OS  []OS   `json:"os,omitempty"`
}

func (v PathValue) Type() string { return "path" }
func (v PathValue) Text() string { return v.Abs }

func (v PathValue) MarshalJSON() ([]byte, error) {
	type alias PathValue
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: v.Type(), alias: alias(v)})
}

// TemplateValue is a renderable template hint value.
type TemplateValue struct {
	Format   TemplateFormat    `json:"format"`
	Body     string            `json:"body"`
	Defaults map[string]string `json:"defaults,omitempty"`
}

func (v TemplateValue) Type() string { return "template" }
func (v TemplateValue) Text() string { return v.Body }

func (v TemplateValue) MarshalJSON() ([]byte, error) {
	type alias TemplateValue
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: v.Type(), alias: alias(v)})
}

// JSONValue wraps an arbitrary JSON document hint value.
type JSONValue struct {
	Data any `json:"data"`
}

func (v JSONValue) Type() string { return "json" }
func (v JSONValue) Text() string {
	b, err := json.Marshal(v.Data)
	if err != nil {
		return fmt.Sprintf("%v", v.Data)
	}
	return string(b)
}

func (v JSONValue) MarshalJSON() ([]byte, error) {
	type alias JSONValue
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{Type: v.Type(), alias: alias(v)})
}

// DecodeHintValue decodes the polymorphic wire shape of a hint value: a bare
// JSON string becomes a StringValue, an object is dispatched on its "type"
// field to one of the typed variants.
func DecodeHintValue(raw json.RawMessage) (HintValue, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return StringValue(s), nil
	}

	var disc struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &disc); err != nil {
		return nil, fmt.Errorf("decode hint value: %w", err)
	}

	switch disc.Type {
	case "command":
		var v CommandValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode command value: %w", err)
		}
		return v, nil
	case "path":
		var v PathValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode path value: %w", err)
		}
		return v, nil
	case "template":
		var v TemplateValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode template value: %w", err)
		}
		return v, nil
	case "json":
		var v JSONValue
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode json value: %w", err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("unknown hint value type %q", disc.Type)
}

// MarshalHintValue renders a HintValue back to its wire shape.
func MarshalHintValue(v HintValue) (json.RawMessage, error) {
	switch t := v.(type) {
	case StringValue:
		return json.Marshal(string(t))
	default:
		return json.Marshal(t)
	}
}
