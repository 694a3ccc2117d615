// Package toolchannel implements the shared dispatch table both the HTTP
// JSON-RPC surface and an embedding MCP host call into, so argument parsing,
// guard checks, and store access are written exactly once. Grounded on the
// handler bodies of _examples/original_source/src/nudge/server.py
// (_handle_set_hint, _handle_get_hint, _handle_query, ...).
package toolchannel

import (
	"encoding/json"

	"github.com/ipeerbhai/nudge/internal/model"
)

// MetaParams is the wire shape of a set_hint call's "meta" object. The
// validate tags are enforced by validateParams before a param struct ever
// reaches the store, per spec.md §3's bounds on priority/confidence.
type MetaParams struct {
	Reason      string            `json:"reason,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Priority    *int              `json:"priority,omitempty" validate:"omitempty,min=1,max=10"`
	Confidence  *float64          `json:"confidence,omitempty" validate:"omitempty,min=0,max=1"`
	TTL         string            `json:"ttl,omitempty"`
	Sensitivity model.Sensitivity `json:"sensitivity,omitempty" validate:"omitempty,oneof=secret normal"`
	Scope       *model.Scope      `json:"scope,omitempty"`
	Source      model.HintSource  `json:"source,omitempty" validate:"omitempty,oneof=user agent tool-output file-import"`
	AddedBy     string            `json:"added_by,omitempty"`
}

// toModel converts MetaParams to a model.HintMeta value, treating a nil
// receiver as the zero value. Used where a concrete HintMeta is needed
// regardless of whether meta was provided (e.g. guard checks against
// sensitivity/scope).
func (m *MetaParams) toModel() model.HintMeta {
	if m == nil {
		return model.HintMeta{}
	}
	return model.HintMeta{
		Reason:      m.Reason,
		Tags:        m.Tags,
		Priority:    m.Priority,
		Confidence:  m.Confidence,
		TTL:         m.TTL,
		Sensitivity: m.Sensitivity,
		Scope:       m.Scope,
		Source:      m.Source,
		AddedBy:     m.AddedBy,
	}
}

// toModelPtr converts MetaParams to a *model.HintMeta, preserving a nil
// receiver as nil rather than collapsing it into a zero value. Store.SetHint
// relies on this distinction: nil means "caller omitted meta entirely" (an
// update must leave the existing meta untouched), as opposed to an explicit
// empty meta object (which does overwrite).
func (m *MetaParams) toModelPtr() *model.HintMeta {
	if m == nil {
		return nil
	}
	meta := m.toModel()
	return &meta
}

// ContextParams is the wire shape of the "context" object passed to
// get_hint and query.
type ContextParams struct {
	Cwd       string             `json:"cwd,omitempty"`
	Repo      string             `json:"repo,omitempty"`
	Branch    string             `json:"branch,omitempty"`
	OS        model.OS           `json:"os,omitempty"`
	Env       map[string]*string `json:"env,omitempty"`
	FilesOpen []string           `json:"files_open,omitempty"`
}

func (c *ContextParams) toModel() model.Context {
	if c == nil {
		return model.Context{}
	}
	return model.Context{
		Cwd:       c.Cwd,
		Repo:      c.Repo,
		Branch:    c.Branch,
		OS:        c.OS,
		Env:       c.Env,
		FilesOpen: c.FilesOpen,
	}
}

// SetHintParams is the wire shape of a set_hint call.
type SetHintParams struct {
	Component      string          `json:"component" validate:"required"`
	Key            string          `json:"key" validate:"required"`
	Value          json.RawMessage `json:"value" validate:"required"`
	Meta           *MetaParams     `json:"meta,omitempty"`
	IfMatchVersion *int            `json:"if_match_version,omitempty"`
	AllowSecret    bool            `json:"allow_secret,omitempty"`
}

// GetHintParams is the wire shape of a get_hint call.
type GetHintParams struct {
	Component string         `json:"component" validate:"required"`
	Key       string         `json:"key" validate:"required"`
	Context   *ContextParams `json:"context,omitempty"`
}

// QueryParams is the wire shape of a query call.
type QueryParams struct {
	Component string         `json:"component,omitempty"`
	Keys      []string       `json:"keys,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Regex     string         `json:"regex,omitempty"`
	Context   *ContextParams `json:"context,omitempty"`
	Limit     int            `json:"limit,omitempty"`
}

// DeleteHintParams is the wire shape of a delete_hint call.
type DeleteHintParams struct {
	Component string `json:"component" validate:"required"`
	Key       string `json:"key" validate:"required"`
}

// BumpParams is the wire shape of a bump call.
type BumpParams struct {
	Component string `json:"component" validate:"required"`
	Key       string `json:"key" validate:"required"`
	Delta     int    `json:"delta,omitempty"`
}

// ExportParams is the wire shape of an export call.
type ExportParams struct {
	Format string `json:"format,omitempty"`
}

// ImportParams is the wire shape of an import call.
type ImportParams struct {
	Payload json.RawMessage `json:"payload" validate:"required"`
	Mode    string          `json:"mode,omitempty" validate:"omitempty,oneof=merge replace"`
}
