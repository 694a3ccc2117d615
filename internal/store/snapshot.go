package store

import (
	"encoding/json"

	"github.com/ipeerbhai/nudge/internal/model"
	"github.com/ipeerbhai/nudge/internal/nudgeerr"
)

// ComponentSnapshot is the exported shape of one component's hints. Hints
// are kept as raw JSON rather than decoded model.Hint values so that Import
// can attempt each record independently: a malformed record must be
// skipped, never fail the whole payload (spec.md §4.1).
type ComponentSnapshot struct {
	Hints map[string]json.RawMessage `json:"hints"`
}

// Snapshot is the full wire shape of export/import, mirroring the original
// NudgeStore.export_store dict shape.
type Snapshot struct {
	SchemaVersion string                       `json:"schema_version"`
	SessionID     string                       `json:"session_id"`
	CreatedAt     string                       `json:"created_at"`
	Components    map[string]ComponentSnapshot `json:"components"`
}

// Export renders the full store as a Snapshot. Hint.MarshalJSON/UnmarshalJSON
// fully round-trip meta and scope, so a subsequent Import reconstructs every
// field -- unlike the original's `_dict_to_hint`, which discarded meta on
// import (see SPEC_FULL.md §4.1).
func (s *Store) Export() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	components := make(map[string]ComponentSnapshot, len(s.components))
	for name, comp := range s.components {
		hints := make(map[string]json.RawMessage, len(comp.hints))
		for key, hint := range comp.hints {
			// Export always succeeds: every in-memory hint was itself
			// decoded (or constructed) successfully, so re-marshaling it
			// cannot fail.
			raw, _ := json.Marshal(hint.Clone())
			hints[key] = raw
		}
		components[name] = ComponentSnapshot{Hints: hints}
	}

	return Snapshot{
		SchemaVersion: schemaVersion,
		SessionID:     s.sessionID,
		CreatedAt:     s.createdAt,
		Components:    components,
	}
}

// ImportMode selects how Import reconciles incoming hints against existing
// ones.
type ImportMode string

const (
	ImportMerge   ImportMode = "merge"
	ImportReplace ImportMode = "replace"
)

// Import loads hints from a Snapshot. In "merge" mode, a (component, key)
// that already exists is skipped rather than overwritten; in "replace" mode
// every existing component is cleared first. Returns (imported, skipped)
// counts. Quota limits still apply during import.
func (s *Store) Import(snap Snapshot, mode ImportMode) (imported, skipped int, err error) {
	if snap.SchemaVersion != schemaVersion {
		return 0, 0, nudgeerr.Newf(nudgeerr.Invalid, "unsupported schema version: %q", snap.SchemaVersion)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mode == ImportReplace {
		s.components = make(map[string]*componentHints)
		s.compOrder = nil
		s.totalHints = 0
	}

	for compName, compSnap := range snap.Components {
		comp, existed := s.components[compName]
		createdComp := false
		if !existed {
			if len(s.components) >= s.limits.MaxComponents {
				skipped += len(compSnap.Hints)
				continue
			}
			comp = &componentHints{hints: make(map[string]model.Hint)}
			s.components[compName] = comp
			s.compOrder = append(s.compOrder, compName)
			createdComp = true
		}

		for key, raw := range compSnap.Hints {
			if mode == ImportMerge {
				if _, exists := comp.hints[key]; exists {
					skipped++
					continue
				}
			}

			// A record with an unrecognized or malformed value (or any
			// other decode failure) is skipped, never a failure for the
			// whole import.
			var hint model.Hint
			if err := json.Unmarshal(raw, &hint); err != nil {
				skipped++
				continue
			}

			if _, exists := comp.hints[key]; !exists {
				if s.totalHints >= s.limits.MaxTotalHints || len(comp.hints) >= s.limits.MaxHintsPerComponent {
					skipped++
					continue
				}
				comp.order = append(comp.order, key)
				s.totalHints++
			}
			comp.hints[key] = hint.Clone()
			imported++
		}

		// A newly created component whose every hint was skipped (quota
		// exceeded on the very first key) must not linger empty: no store
		// operation otherwise leaves a component with zero hints.
		if createdComp && len(comp.hints) == 0 {
			delete(s.components, compName)
			s.compOrder = removeFirst(s.compOrder, compName)
		}
	}

	s.recordGauges()
	return imported, skipped, nil
}
