package model

import "encoding/json"

type hintWire struct {
	Value      json.RawMessage `json:"value"`
	Meta       HintMeta        `json:"meta"`
	Version    int             `json:"version"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
	LastUsedAt string          `json:"last_used_at,omitempty"`
	UseCount   int             `json:"use_count"`
}

// MarshalJSON renders the hint with its polymorphic value in wire shape.
func (h Hint) MarshalJSON() ([]byte, error) {
	raw, err := MarshalHintValue(h.Value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(hintWire{
		Value:      raw,
		Meta:       h.Meta,
		Version:    h.Version,
		CreatedAt:  h.CreatedAt,
		UpdatedAt:  h.UpdatedAt,
		LastUsedAt: h.LastUsedAt,
		UseCount:   h.UseCount,
	})
}

// UnmarshalJSON reconstructs the hint including its polymorphic value. This
// is also used by the store's snapshot import path, which -- unlike the
// original Python implementation's `_dict_to_hint` -- fully reconstructs
// meta and scope rather than discarding them (see SPEC_FULL.md Open
// Questions).
func (h *Hint) UnmarshalJSON(data []byte) error {
	var w hintWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	value, err := DecodeHintValue(w.Value)
	if err != nil {
		return err
	}
	h.Value = value
	h.Meta = w.Meta
	h.Version = w.Version
	h.CreatedAt = w.CreatedAt
	h.UpdatedAt = w.UpdatedAt
	h.LastUsedAt = w.LastUsedAt
	h.UseCount = w.UseCount
	return nil
}
