package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHintValue_BareString(t *testing.T) {
	v, err := DecodeHintValue(json.RawMessage(`"docker compose build"`))
	require.NoError(t, err)
	assert.Equal(t, StringValue("docker compose build"), v)
	assert.Equal(t, "string", v.Type())
}

func TestDecodeHintValue_Command(t *testing.T) {
	v, err := DecodeHintValue(json.RawMessage(`{"type":"command","cmd":"make","shell":"bash"}`))
	require.NoError(t, err)
	cmd, ok := v.(CommandValue)
	require.True(t, ok)
	assert.Equal(t, "make", cmd.Cmd)
	assert.Equal(t, ShellBash, cmd.Shell)
	assert.Equal(t, "make", v.Text())
}

func TestDecodeHintValue_Path(t *testing.T) {
	v, err := DecodeHintValue(json.RawMessage(`{"type":"path","abs":"/usr/local/bin"}`))
	require.NoError(t, err)
	p, ok := v.(PathValue)
	require.True(t, ok)
	assert.Equal(t, "/usr/local/bin", p.Abs)
}

func TestDecodeHintValue_Template(t *testing.T) {
	v, err := DecodeHintValue(json.RawMessage(`{"type":"template","format":"mustache","body":"hello {{name}}"}`))
	require.NoError(t, err)
	tv, ok := v.(TemplateValue)
	require.True(t, ok)
	assert.Equal(t, TemplateMustache, tv.Format)
	assert.Equal(t, "hello {{name}}", v.Text())
}

func TestDecodeHintValue_JSON(t *testing.T) {
	v, err := DecodeHintValue(json.RawMessage(`{"type":"json","data":{"a":1}}`))
	require.NoError(t, err)
	jv, ok := v.(JSONValue)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, jv.Text())
}

func TestDecodeHintValue_UnknownType(t *testing.T) {
	_, err := DecodeHintValue(json.RawMessage(`{"type":"bogus"}`))
	assert.Error(t, err)
}

func TestMarshalHintValue_RoundTrip(t *testing.T) {
	values := []HintValue{
		StringValue("hello"),
		CommandValue{Cmd: "ls", Shell: ShellSh},
		PathValue{Abs: "/tmp"},
		TemplateValue{Format: TemplateJinja, Body: "{{x}}"},
		JSONValue{Data: map[string]any{"k": "v"}},
	}
	for _, v := range values {
		raw, err := MarshalHintValue(v)
		require.NoError(t, err)
		decoded, err := DecodeHintValue(raw)
		require.NoError(t, err)
		assert.Equal(t, v.Type(), decoded.Type())
	}
}

func TestHint_JSONRoundTrip_PreservesMetaAndScope(t *testing.T) {
	priority := 8
	confidence := 0.9
	h := Hint{
		Value: CommandValue{Cmd: "go test ./...", Shell: ShellBash},
		Meta: HintMeta{
			Reason:     "ci command",
			Tags:       []string{"ci", "test"},
			Priority:   &priority,
			Confidence: &confidence,
			TTL:        "session",
			Scope: &Scope{
				CwdGlob: []string{"**/repo"},
				Repo:    StringOrList{"repo-a", "repo-b"},
				EnvMatch: map[string]StringOrList{
					"CI": {"true"},
				},
			},
		},
		Version:   3,
		CreatedAt: "2026-01-01T00:00:00Z",
		UpdatedAt: "2026-01-02T00:00:00Z",
		UseCount:  5,
	}

	data, err := json.Marshal(h)
	require.NoError(t, err)

	var decoded Hint
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, h.Version, decoded.Version)
	assert.Equal(t, h.Meta.Reason, decoded.Meta.Reason)
	assert.Equal(t, h.Meta.Tags, decoded.Meta.Tags)
	require.NotNil(t, decoded.Meta.Priority)
	assert.Equal(t, priority, *decoded.Meta.Priority)
	require.NotNil(t, decoded.Meta.Scope)
	assert.Equal(t, h.Meta.Scope.CwdGlob, decoded.Meta.Scope.CwdGlob)
	assert.Equal(t, h.Meta.Scope.Repo, decoded.Meta.Scope.Repo)
	assert.Equal(t, h.Meta.Scope.EnvMatch, decoded.Meta.Scope.EnvMatch)
	assert.Equal(t, "go test ./...", decoded.Value.Text())
}

func TestHint_Clone_DoesNotAliasMeta(t *testing.T) {
	priority := 5
	h := Hint{
		Meta: HintMeta{
			Tags:     []string{"a"},
			Priority: &priority,
			Scope:    &Scope{Branch: []string{"main"}},
		},
	}
	clone := h.Clone()
	clone.Meta.Tags[0] = "mutated"
	*clone.Meta.Priority = 99
	clone.Meta.Scope.Branch[0] = "dev"

	assert.Equal(t, "a", h.Meta.Tags[0])
	assert.Equal(t, 5, *h.Meta.Priority)
	assert.Equal(t, "main", h.Meta.Scope.Branch[0])
}
