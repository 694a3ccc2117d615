// Package store implements the in-memory hint store: CRUD, optimistic
// concurrency, quota enforcement, TTL eviction, and snapshot export/import.
// Grounded on _examples/original_source/src/nudge/core/store.py for
// semantics and on
// _examples/ipiton-alert-history-service/go-app/internal/storage/memory/memory_storage.go
// for the Go shape (RWMutex-guarded map, deep-copy on read/write, capacity
// enforcement).
package store

import (
	"log/slog"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ipeerbhai/nudge/internal/model"
	"github.com/ipeerbhai/nudge/internal/nudgeerr"
	"github.com/ipeerbhai/nudge/internal/scorer"
	metricspkg "github.com/ipeerbhai/nudge/pkg/metrics"
)

const schemaVersion = "1.0"

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// Limits bounds the store's size, enforced atomically at set-time.
type Limits struct {
	MaxComponents         int
	MaxHintsPerComponent  int
	MaxTotalHints         int
}

// DefaultLimits mirrors the original Store.__init__ defaults.
func DefaultLimits() Limits {
	return Limits{MaxComponents: 500, MaxHintsPerComponent: 200, MaxTotalHints: 5000}
}

type componentHints struct {
	hints map[string]model.Hint
	order []string // insertion order of keys, for stable ranking/listing
}

// Store is a single in-memory, session-scoped hint cache. All mutating and
// reading operations take the same mutex: the spec's concurrency model is
// one exclusive lock serializing every store access (§5/§13).
type Store struct {
	mu sync.Mutex

	limits Limits

	sessionID string
	createdAt string

	components map[string]*componentHints
	compOrder  []string // insertion order of component names

	totalHints int

	logger  *slog.Logger
	metrics *metricspkg.Registry
}

// New creates an empty store with a freshly generated session ID.
func New(limits Limits, logger *slog.Logger, metrics *metricspkg.Registry) *Store {
	return &Store{
		limits:     limits,
		sessionID:  uuid.New().String(),
		createdAt:  nowISO(),
		components: make(map[string]*componentHints),
		logger:     logger,
		metrics:    metrics,
	}
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// SessionID returns the store's session identifier.
func (s *Store) SessionID() string {
	return s.sessionID
}

// SetHint creates or updates a hint. If ifMatchVersion is non-nil, the
// update fails with CONFLICT unless it equals the existing hint's version.
// Quota checks apply only when creating a new component or new hint, never
// on update of an existing one, matching the original Store.set_hint.
//
// meta is nil when the caller omitted it entirely. On update, a nil meta
// leaves the existing hint's meta untouched -- value is always replaced,
// meta only when provided, matching the original's `if meta: existing.meta
// = meta`. On create, a nil meta becomes the zero-value HintMeta{}.
func (s *Store) SetHint(component, key string, value model.HintValue, meta *model.HintMeta, ifMatchVersion *int) (model.Hint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comp, exists := s.components[component]
	if !exists {
		if len(s.components) >= s.limits.MaxComponents {
			return model.Hint{}, nudgeerr.QuotaErr("maximum components", s.limits.MaxComponents)
		}
		comp = &componentHints{hints: make(map[string]model.Hint)}
		s.components[component] = comp
		s.compOrder = append(s.compOrder, component)
	}

	if existing, ok := comp.hints[key]; ok {
		if ifMatchVersion != nil && existing.Version != *ifMatchVersion {
			return model.Hint{}, nudgeerr.ConflictErr(*ifMatchVersion, existing.Version)
		}
		existing.Value = value
		if meta != nil {
			existing.Meta = *meta
		}
		existing.Version++
		existing.UpdatedAt = nowISO()
		comp.hints[key] = existing
		s.recordSetOp("updated")
		return existing.Clone(), nil
	}

	if s.totalHints >= s.limits.MaxTotalHints || len(comp.hints) >= s.limits.MaxHintsPerComponent {
		// A component created by this call must not be left behind empty.
		if !exists {
			delete(s.components, component)
			s.compOrder = removeFirst(s.compOrder, component)
		}
		if s.totalHints >= s.limits.MaxTotalHints {
			return model.Hint{}, nudgeerr.QuotaErr("maximum total hints", s.limits.MaxTotalHints)
		}
		return model.Hint{}, nudgeerr.QuotaErr("maximum hints per component", s.limits.MaxHintsPerComponent)
	}

	newMeta := model.HintMeta{}
	if meta != nil {
		newMeta = *meta
	}
	now := nowISO()
	hint := model.Hint{
		Value:     value,
		Meta:      newMeta,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	comp.hints[key] = hint
	comp.order = append(comp.order, key)
	s.totalHints++
	s.recordSetOp("created")
	s.recordGauges()
	return hint.Clone(), nil
}

func (s *Store) recordSetOp(outcome string) {
	if s.metrics != nil {
		s.metrics.SetOpsTotal.WithLabelValues(outcome).Inc()
	}
}

// recordGauges refreshes the per-component and component-count gauges.
// Callers must hold s.mu.
func (s *Store) recordGauges() {
	if s.metrics == nil {
		return
	}
	for name, comp := range s.components {
		s.metrics.HintsTotal.WithLabelValues(name).Set(float64(len(comp.hints)))
	}
	s.metrics.ComponentTotal.Set(float64(len(s.components)))
}

// GetHint retrieves a hint by (component, key). Returns NOT_FOUND if absent
// or if its TTL has elapsed -- expiry is evaluated at read time, and an
// expired hint is evicted on the spot rather than left for the next
// evict_expired sweep.
func (s *Store) GetHint(component, key string) (model.Hint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comp, ok := s.components[component]
	if !ok {
		return model.Hint{}, nudgeerr.NotFoundErr(component, key)
	}
	hint, ok := comp.hints[key]
	if !ok {
		return model.Hint{}, nudgeerr.NotFoundErr(component, key)
	}
	if s.isExpired(hint) {
		delete(comp.hints, key)
		comp.order = removeFirst(comp.order, key)
		s.totalHints--
		if len(comp.hints) == 0 {
			delete(s.components, component)
			s.compOrder = removeFirst(s.compOrder, component)
		}
		s.recordGauges()
		return model.Hint{}, nudgeerr.NotFoundErr(component, key)
	}
	return hint.Clone(), nil
}

// DeleteHint removes a hint, returning the hint that was deleted (if any)
// and whether a deletion occurred. Deleting a component's last hint removes
// the component entirely, matching the original's cleanup behavior.
func (s *Store) DeleteHint(component, key string) (model.Hint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comp, ok := s.components[component]
	if !ok {
		return model.Hint{}, false
	}
	hint, ok := comp.hints[key]
	if !ok {
		return model.Hint{}, false
	}

	delete(comp.hints, key)
	comp.order = removeFirst(comp.order, key)
	s.totalHints--

	if len(comp.hints) == 0 {
		delete(s.components, component)
		s.compOrder = removeFirst(s.compOrder, component)
	}
	s.recordGauges()
	return hint, true
}

func removeFirst(slice []string, target string) []string {
	for i, v := range slice {
		if v == target {
			return append(slice[:i], slice[i+1:]...)
		}
	}
	return slice
}

// Bump increments a hint's use_count and refreshes last_used_at. Returns
// NOT_FOUND if the hint does not exist.
func (s *Store) Bump(component, key string, delta int) (model.Hint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comp, ok := s.components[component]
	if !ok {
		return model.Hint{}, nudgeerr.NotFoundErr(component, key)
	}
	hint, ok := comp.hints[key]
	if !ok {
		return model.Hint{}, nudgeerr.NotFoundErr(component, key)
	}
	hint.UseCount += delta
	hint.LastUsedAt = nowISO()
	comp.hints[key] = hint
	return hint.Clone(), nil
}

// ListComponents returns every component and its hint count, in insertion
// order.
func (s *Store) ListComponents() []model.ComponentInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ComponentInfo, 0, len(s.compOrder))
	for _, name := range s.compOrder {
		comp := s.components[name]
		out = append(out, model.ComponentInfo{Name: name, HintCount: len(comp.hints)})
	}
	return out
}

// AllHints returns every hint as scorer.HintRef, optionally filtered to a
// single component, in stable insertion order.
func (s *Store) AllHints(component string) []scorer.HintRef {
	s.mu.Lock()
	defer s.mu.Unlock()

	var refs []scorer.HintRef
	names := s.compOrder
	if component != "" {
		if _, ok := s.components[component]; !ok {
			return nil
		}
		names = []string{component}
	}

	for _, name := range names {
		comp := s.components[name]
		for _, key := range comp.order {
			refs = append(refs, scorer.HintRef{Component: name, Key: key, Hint: comp.hints[key].Clone()})
		}
	}
	return refs
}

// isExpired reports whether a hint's TTL has elapsed. A TTL of "session" or
// an unparseable non-session duration never expires -- the latter is a
// documented laxity inherited from the original implementation, logged here
// rather than silently ignored (see SPEC_FULL.md Open Questions).
func (s *Store) isExpired(hint model.Hint) bool {
	ttl := hint.Meta.TTL
	if ttl == "" || ttl == "session" {
		return false
	}
	d, ok := parseISODuration(ttl)
	if !ok {
		s.logger.Warn("hint has malformed TTL, treating as non-expiring", "ttl", ttl)
		return false
	}
	created, err := time.Parse(time.RFC3339, hint.CreatedAt)
	if err != nil {
		return false
	}
	return time.Since(created) > d
}

func parseISODuration(s string) (time.Duration, bool) {
	m := isoDurationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	var hours, minutes, seconds int
	if m[1] != "" {
		hours, _ = strconv.Atoi(m[1])
	}
	if m[2] != "" {
		minutes, _ = strconv.Atoi(m[2])
	}
	if m[3] != "" {
		seconds, _ = strconv.Atoi(m[3])
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second, true
}

// EvictExpired removes every hint whose TTL has elapsed, returning the
// count evicted. Intended to be called periodically by the server loop.
func (s *Store) EvictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for name, comp := range s.components {
		keys := append([]string(nil), comp.order...)
		for _, key := range keys {
			if s.isExpired(comp.hints[key]) {
				delete(comp.hints, key)
				comp.order = removeFirst(comp.order, key)
				s.totalHints--
				evicted++
			}
		}
		if len(comp.hints) == 0 {
			delete(s.components, name)
			s.compOrder = removeFirst(s.compOrder, name)
		}
	}
	if evicted > 0 && s.metrics != nil {
		s.metrics.EvictionsTotal.Add(float64(evicted))
		s.recordGauges()
	}
	return evicted
}
