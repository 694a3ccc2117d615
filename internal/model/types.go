// Package model defines the data types shared across the hint store: the
// polymorphic hint value union, scope predicates, metadata, and the runtime
// context a caller matches hints against.
//
// Grounded on _examples/original_source/src/nudge/core/models.py.
package model

// OS identifies an operating system a hint or context is scoped to.
type OS string

const (
	OSLinux   OS = "linux"
	OSDarwin  OS = "darwin"
	OSWindows OS = "windows"
)

// ShellType identifies the shell a CommandValue targets.
type ShellType string

const (
	ShellBash       ShellType = "bash"
	ShellSh         ShellType = "sh"
	ShellPowerShell ShellType = "powershell"
	ShellCmd        ShellType = "cmd"
)

// TemplateFormat identifies the templating language a TemplateValue body uses.
type TemplateFormat string

const (
	TemplateMustache    TemplateFormat = "mustache"
	TemplateHandlebars  TemplateFormat = "handlebars"
	TemplateJinja       TemplateFormat = "jinja"
	TemplateInterpolate TemplateFormat = "interpolate"
)

// Sensitivity marks whether a hint's value is expected to contain a secret.
type Sensitivity string

const (
	SensitivitySecret Sensitivity = "secret"
	SensitivityNormal Sensitivity = "normal"
)

// HintSource records who or what produced a hint.
type HintSource string

const (
	SourceUser       HintSource = "user"
	SourceAgent      HintSource = "agent"
	SourceToolOutput HintSource = "tool-output"
	SourceFileImport HintSource = "file-import"
)

// Scope narrows when a hint is eligible for matching. Every set field must
// hold for the hint to be eligible; an absent field is skipped. env_required
// and env_match additionally require context.Env to be present at all.
type Scope struct {
	CwdGlob     []string            `json:"cwd_glob,omitempty"`
	Repo        StringOrList        `json:"repo,omitempty"`
	Branch      []string            `json:"branch,omitempty"`
	OS          []OS                `json:"os,omitempty"`
	EnvRequired []string            `json:"env_required,omitempty"`
	EnvMatch    map[string]StringOrList `json:"env_match,omitempty"`
}

// IsZero reports whether the scope has no conditions at all.
func (s *Scope) IsZero() bool {
	if s == nil {
		return true
	}
	return len(s.CwdGlob) == 0 && len(s.Repo) == 0 && len(s.Branch) == 0 &&
		len(s.OS) == 0 && len(s.EnvRequired) == 0 && len(s.EnvMatch) == 0
}

// HintMeta carries the non-value bookkeeping fields of a hint: why it
// exists, how it ranks, its lifetime, and the scope it is eligible under.
type HintMeta struct {
	Reason      string      `json:"reason,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
	Priority    *int        `json:"priority,omitempty"`   // 1-10
	Confidence  *float64    `json:"confidence,omitempty"` // 0.0-1.0
	TTL         string      `json:"ttl,omitempty"`        // "session" or ISO-8601 duration
	Sensitivity Sensitivity `json:"sensitivity,omitempty"`
	Scope       *Scope      `json:"scope,omitempty"`
	Source      HintSource  `json:"source,omitempty"`
	AddedBy     string      `json:"added_by,omitempty"`
}

// Hint is a single (component, key)-addressed cache entry: its value, its
// metadata, and the version/usage bookkeeping the store maintains.
type Hint struct {
	Value      HintValue `json:"value"`
	Meta       HintMeta  `json:"meta"`
	Version    int       `json:"version"`
	CreatedAt  string    `json:"created_at"`
	UpdatedAt  string    `json:"updated_at"`
	LastUsedAt string    `json:"last_used_at,omitempty"`
	UseCount   int       `json:"use_count"`
}

// Clone returns a deep-enough copy of the hint: the value types are
// immutable by convention, so only the mutable slice/map fields in Meta need
// duplicating to prevent callers from aliasing store-owned memory. Grounded
// on the deep-copy-on-read/write pattern in
// _examples/ipiton-alert-history-service/go-app/internal/storage/memory/memory_storage.go.
func (h Hint) Clone() Hint {
	clone := h
	clone.Meta = h.Meta.clone()
	return clone
}

func (m HintMeta) clone() HintMeta {
	c := m
	if m.Tags != nil {
		c.Tags = append([]string(nil), m.Tags...)
	}
	if m.Priority != nil {
		p := *m.Priority
		c.Priority = &p
	}
	if m.Confidence != nil {
		cf := *m.Confidence
		c.Confidence = &cf
	}
	if m.Scope != nil {
		s := m.Scope.clone()
		c.Scope = &s
	}
	return c
}

func (s Scope) clone() Scope {
	c := s
	if s.CwdGlob != nil {
		c.CwdGlob = append([]string(nil), s.CwdGlob...)
	}
	if s.Repo != nil {
		c.Repo = append(StringOrList(nil), s.Repo...)
	}
	if s.Branch != nil {
		c.Branch = append([]string(nil), s.Branch...)
	}
	if s.OS != nil {
		c.OS = append([]OS(nil), s.OS...)
	}
	if s.EnvRequired != nil {
		c.EnvRequired = append([]string(nil), s.EnvRequired...)
	}
	if s.EnvMatch != nil {
		c.EnvMatch = make(map[string]StringOrList, len(s.EnvMatch))
		for k, v := range s.EnvMatch {
			c.EnvMatch[k] = append(StringOrList(nil), v...)
		}
	}
	return c
}

// Context is the runtime snapshot a caller matches hints against.
type Context struct {
	Cwd       string             `json:"cwd,omitempty"`
	Repo      string             `json:"repo,omitempty"`
	Branch    string             `json:"branch,omitempty"`
	OS        OS                 `json:"os,omitempty"`
	Env       map[string]*string `json:"env,omitempty"`
	FilesOpen []string           `json:"files_open,omitempty"`
}

// MatchExplanation carries the human-readable reasons a hint scored the way
// it did, alongside the score itself.
type MatchExplanation struct {
	Matched bool     `json:"matched"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// HintMatch pairs a ranked hint with its explanation. Component/Key are
// included so a caller can re-address the hint (e.g. to bump it).
type HintMatch struct {
	Component    string           `json:"component"`
	Key          string           `json:"key"`
	Hint         Hint             `json:"hint"`
	Score        float64          `json:"score"`
	MatchExplain MatchExplanation `json:"match_explain"`
}

// ComponentInfo summarizes a component for list_components.
type ComponentInfo struct {
	Name      string `json:"name"`
	HintCount int    `json:"hint_count"`
}
