package toolchannel

import (
	"encoding/json"
	"log/slog"
	"regexp"

	"github.com/ipeerbhai/nudge/internal/guard"
	"github.com/ipeerbhai/nudge/internal/model"
	"github.com/ipeerbhai/nudge/internal/nudgeerr"
	"github.com/ipeerbhai/nudge/internal/scorer"
	"github.com/ipeerbhai/nudge/internal/store"
)

const defaultQueryLimit = 10

// Channel is the shared dispatch table for set_hint, get_hint, query,
// delete_hint, list_components, bump, export, and import: both the HTTP
// JSON-RPC surface and an in-process MCP tool host call through it so
// argument parsing and validation happen exactly once.
type Channel struct {
	Store  *store.Store
	Guard  *guard.Guard
	Scorer *scorer.Scorer
	Logger *slog.Logger
}

// New builds a Channel over the given store, guard, and scorer.
func New(s *store.Store, g *guard.Guard, sc *scorer.Scorer, logger *slog.Logger) *Channel {
	return &Channel{Store: s, Guard: g, Scorer: sc, Logger: logger}
}

// Dispatch routes an unprefixed method name ("set_hint", "get_hint", ...) to
// its handler, decoding rawParams into the method's param struct. Callers
// (rpcserver, an MCP host) are responsible for stripping their own method
// prefix ("nudge_" or "nudge.") before calling Dispatch.
func (c *Channel) Dispatch(method string, rawParams json.RawMessage) (any, error) {
	switch method {
	case "set_hint":
		var p SetHintParams
		if err := unmarshalParams(rawParams, &p); err != nil {
			return nil, err
		}
		if err := validateParams(p); err != nil {
			return nil, err
		}
		return c.SetHint(p)
	case "get_hint":
		var p GetHintParams
		if err := unmarshalParams(rawParams, &p); err != nil {
			return nil, err
		}
		if err := validateParams(p); err != nil {
			return nil, err
		}
		return c.GetHint(p)
	case "query":
		var p QueryParams
		if err := unmarshalParams(rawParams, &p); err != nil {
			return nil, err
		}
		return c.Query(p)
	case "delete_hint":
		var p DeleteHintParams
		if err := unmarshalParams(rawParams, &p); err != nil {
			return nil, err
		}
		if err := validateParams(p); err != nil {
			return nil, err
		}
		return c.DeleteHint(p)
	case "list_components":
		return c.ListComponents()
	case "bump":
		var p BumpParams
		if err := unmarshalParams(rawParams, &p); err != nil {
			return nil, err
		}
		if err := validateParams(p); err != nil {
			return nil, err
		}
		return c.Bump(p)
	case "export":
		var p ExportParams
		if err := unmarshalParams(rawParams, &p); err != nil {
			return nil, err
		}
		return c.Export(p)
	case "import":
		var p ImportParams
		if err := unmarshalParams(rawParams, &p); err != nil {
			return nil, err
		}
		if err := validateParams(p); err != nil {
			return nil, err
		}
		return c.Import(p)
	}
	return nil, nudgeerr.InvalidErr("unknown method: " + method)
}

func unmarshalParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return nudgeerr.Newf(nudgeerr.Invalid, "invalid params: %v", err)
	}
	return nil
}

// SetHintResult is the response shape of set_hint.
type SetHintResult struct {
	Hint model.Hint `json:"hint"`
}

// guardFailure classifies a ValidateHintValue failure into the right error
// code: a path or cwd_glob problem is a scope-shape error (SCOPE_INVALID),
// while everything else (secret detection) is SECRET_REJECTED.
func (c *Channel) guardFailure(value model.HintValue, scope *model.Scope, reason string) error {
	if _, isPath := value.(model.PathValue); isPath {
		if ok, _ := guard.ValidatePath(value.Text()); !ok {
			return nudgeerr.ScopeInvalidErr(reason)
		}
	}
	if scope != nil {
		for _, pattern := range scope.CwdGlob {
			if ok, _ := guard.ValidateGlobPattern(pattern); !ok {
				return nudgeerr.ScopeInvalidErr(reason)
			}
		}
	}
	return nudgeerr.SecretRejectedErr(reason)
}

// SetHint validates and stores a hint. The guard runs before the store is
// touched, matching the original's validate-then-set ordering.
func (c *Channel) SetHint(p SetHintParams) (*SetHintResult, error) {
	value, err := model.DecodeHintValue(p.Value)
	if err != nil {
		return nil, nudgeerr.Newf(nudgeerr.Invalid, "invalid value: %v", err)
	}
	guardMeta := p.Meta.toModel()

	if ok, reason := guard.ValidateHintValue(c.Guard, value, guardMeta.Sensitivity, p.AllowSecret, guardMeta.Scope); !ok {
		return nil, c.guardFailure(value, guardMeta.Scope, reason)
	}

	hint, err := c.Store.SetHint(p.Component, p.Key, value, p.Meta.toModelPtr(), p.IfMatchVersion)
	if err != nil {
		return nil, err
	}
	return &SetHintResult{Hint: hint}, nil
}

// GetHintResult is the response shape of get_hint.
type GetHintResult struct {
	Hint         model.Hint              `json:"hint"`
	MatchExplain model.MatchExplanation `json:"match_explain"`
}

// GetHint retrieves a hint and explains whether it matches ctx. A hint that
// exists but does not match the context is still returned, with
// match_explain.matched = false, mirroring the original's behavior of never
// hiding a hint purely for context mismatch on a direct-addressed get.
func (c *Channel) GetHint(p GetHintParams) (*GetHintResult, error) {
	hint, err := c.Store.GetHint(p.Component, p.Key)
	if err != nil {
		return nil, err
	}

	ctx := p.Context.toModel()
	matches := c.Scorer.Rank([]scorer.HintRef{{Component: p.Component, Key: p.Key, Hint: hint}}, ctx)
	if len(matches) > 0 {
		return &GetHintResult{Hint: matches[0].Hint, MatchExplain: matches[0].MatchExplain}, nil
	}
	return &GetHintResult{Hint: hint, MatchExplain: model.MatchExplanation{Matched: false, Score: 0, Reasons: nil}}, nil
}

// QueryHintResult is a single row of a query response.
type QueryHintResult struct {
	Component    string                  `json:"component"`
	Key          string                  `json:"key"`
	Hint         model.Hint              `json:"hint"`
	Score        float64                 `json:"score"`
	MatchExplain model.MatchExplanation `json:"match_explain"`
}

// QueryResult is the response shape of query.
type QueryResult struct {
	Hints []QueryHintResult `json:"hints"`
}

// Query filters hints by component, keys, tags, and a regex on the value's
// textual projection, ranks the survivors, and truncates to limit.
func (c *Channel) Query(p QueryParams) (*QueryResult, error) {
	refs := c.Store.AllHints(p.Component)

	if len(p.Keys) > 0 {
		keySet := make(map[string]struct{}, len(p.Keys))
		for _, k := range p.Keys {
			keySet[k] = struct{}{}
		}
		refs = filterRefs(refs, func(r scorer.HintRef) bool {
			_, ok := keySet[r.Key]
			return ok
		})
	}

	if len(p.Tags) > 0 {
		refs = filterRefs(refs, func(r scorer.HintRef) bool {
			for _, tag := range p.Tags {
				for _, hintTag := range r.Hint.Meta.Tags {
					if tag == hintTag {
						return true
					}
				}
			}
			return false
		})
	}

	if p.Regex != "" {
		pattern, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, nudgeerr.Newf(nudgeerr.Invalid, "invalid regex: %v", err)
		}
		refs = filterRefs(refs, func(r scorer.HintRef) bool {
			return pattern.MatchString(r.Hint.Value.Text())
		})
	}

	limit := p.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	ctx := p.Context.toModel()
	matches := c.Scorer.Rank(refs, ctx)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]QueryHintResult, 0, len(matches))
	for _, m := range matches {
		out = append(out, QueryHintResult{
			Component:    m.Component,
			Key:          m.Key,
			Hint:         m.Hint,
			Score:        m.Score,
			MatchExplain: m.MatchExplain,
		})
	}
	return &QueryResult{Hints: out}, nil
}

func filterRefs(refs []scorer.HintRef, keep func(scorer.HintRef) bool) []scorer.HintRef {
	out := refs[:0:0]
	for _, r := range refs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// DeleteHintResult is the response shape of delete_hint.
type DeleteHintResult struct {
	Deleted  bool        `json:"deleted"`
	Previous *model.Hint `json:"previous,omitempty"`
}

// DeleteHint removes a hint, returning NOT_FOUND if it did not exist.
func (c *Channel) DeleteHint(p DeleteHintParams) (*DeleteHintResult, error) {
	hint, ok := c.Store.DeleteHint(p.Component, p.Key)
	if !ok {
		return nil, nudgeerr.NotFoundErr(p.Component, p.Key)
	}
	return &DeleteHintResult{Deleted: true, Previous: &hint}, nil
}

// ListComponentsResult is the response shape of list_components.
type ListComponentsResult struct {
	Components []model.ComponentInfo `json:"components"`
}

// ListComponents lists every component and its hint count.
func (c *Channel) ListComponents() (*ListComponentsResult, error) {
	return &ListComponentsResult{Components: c.Store.ListComponents()}, nil
}

// BumpResult is the response shape of bump.
type BumpResult struct {
	Hint model.Hint `json:"hint"`
}

// Bump increments a hint's use_count by delta (default 1).
func (c *Channel) Bump(p BumpParams) (*BumpResult, error) {
	delta := p.Delta
	if delta <= 0 {
		delta = 1
	}
	hint, err := c.Store.Bump(p.Component, p.Key, delta)
	if err != nil {
		return nil, err
	}
	return &BumpResult{Hint: hint}, nil
}

// ExportResult is the response shape of export.
type ExportResult struct {
	Payload store.Snapshot `json:"payload"`
}

// Export renders the whole store as a snapshot. Only the "json" format is
// supported.
func (c *Channel) Export(p ExportParams) (*ExportResult, error) {
	format := p.Format
	if format == "" {
		format = "json"
	}
	if format != "json" {
		return nil, nudgeerr.Newf(nudgeerr.Invalid, "unsupported format: %s", format)
	}
	return &ExportResult{Payload: c.Store.Export()}, nil
}

// ImportResult is the response shape of import.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Import loads hints from a snapshot payload, merge or replace.
func (c *Channel) Import(p ImportParams) (*ImportResult, error) {
	mode := store.ImportMode(p.Mode)
	if mode == "" {
		mode = store.ImportMerge
	}

	var snap store.Snapshot
	if err := json.Unmarshal(p.Payload, &snap); err != nil {
		return nil, nudgeerr.Newf(nudgeerr.Invalid, "invalid payload: %v", err)
	}

	imported, skipped, err := c.Store.Import(snap, mode)
	if err != nil {
		return nil, err
	}
	return &ImportResult{Imported: imported, Skipped: skipped}, nil
}
