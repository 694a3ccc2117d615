package store

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ipeerbhai/nudge/internal/model"
	"github.com/ipeerbhai/nudge/internal/nudgeerr"
)

func newTestStore(limits Limits) *Store {
	return New(limits, slog.Default(), nil)
}

func TestSetHint_FirstSet_VersionOneZeroUseCount(t *testing.T) {
	s := newTestStore(DefaultLimits())
	_, err := s.SetHint("build", "cmd", model.StringValue("docker compose build router"), &model.HintMeta{}, nil)
	require.NoError(t, err)

	hint, err := s.GetHint("build", "cmd")
	require.NoError(t, err)
	assert.Equal(t, 1, hint.Version)
	assert.Equal(t, 0, hint.UseCount)
}

func TestSetHint_RepeatedSet_VersionIncrementsCreatedAtStable(t *testing.T) {
	s := newTestStore(DefaultLimits())
	_, err := s.SetHint("c", "k", model.StringValue("v1"), &model.HintMeta{}, nil)
	require.NoError(t, err)
	first, _ := s.GetHint("c", "k")

	_, err = s.SetHint("c", "k", model.StringValue("v2"), &model.HintMeta{}, nil)
	require.NoError(t, err)
	_, err = s.SetHint("c", "k", model.StringValue("v3"), &model.HintMeta{}, nil)
	require.NoError(t, err)

	hint, err := s.GetHint("c", "k")
	require.NoError(t, err)
	assert.Equal(t, 3, hint.Version)
	assert.Equal(t, first.CreatedAt, hint.CreatedAt)
}

func TestBump_AccumulatesWithoutChangingVersion(t *testing.T) {
	s := newTestStore(DefaultLimits())
	_, err := s.SetHint("c", "k", model.StringValue("v"), &model.HintMeta{}, nil)
	require.NoError(t, err)
	before, _ := s.GetHint("c", "k")

	_, err = s.Bump("c", "k", 2)
	require.NoError(t, err)
	_, err = s.Bump("c", "k", 3)
	require.NoError(t, err)

	after, err := s.GetHint("c", "k")
	require.NoError(t, err)
	assert.Equal(t, 5, after.UseCount)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestDeleteHint_RemovesEmptyComponent(t *testing.T) {
	s := newTestStore(DefaultLimits())
	_, err := s.SetHint("c", "k", model.StringValue("v"), &model.HintMeta{}, nil)
	require.NoError(t, err)

	_, ok := s.DeleteHint("c", "k")
	require.True(t, ok)

	_, err = s.GetHint("c", "k")
	assert.Error(t, err)
	assert.Empty(t, s.ListComponents())
}

func TestSetHint_VersionConflict(t *testing.T) {
	s := newTestStore(DefaultLimits())
	_, err := s.SetHint("c", "k", model.StringValue("v1"), &model.HintMeta{}, nil)
	require.NoError(t, err)

	bad := 5
	_, err = s.SetHint("c", "k", model.StringValue("v2"), &model.HintMeta{}, &bad)
	require.Error(t, err)

	nerr, ok := nudgeerr.As(err)
	require.True(t, ok)
	assert.Equal(t, nudgeerr.Conflict, nerr.Code)
	assert.Equal(t, 5, nerr.Data["expected_version"])
	assert.Equal(t, 1, nerr.Data["current_version"])

	hint, err := s.GetHint("c", "k")
	require.NoError(t, err)
	assert.Equal(t, model.StringValue("v1"), hint.Value)
	assert.Equal(t, 1, hint.Version)
}

func TestSetHint_UpdateWithNilMeta_PreservesPriorMeta(t *testing.T) {
	s := newTestStore(DefaultLimits())
	priority := 9
	_, err := s.SetHint("c", "k", model.StringValue("v1"), &model.HintMeta{Priority: &priority, Tags: []string{"x"}}, nil)
	require.NoError(t, err)

	_, err = s.SetHint("c", "k", model.StringValue("v2"), nil, nil)
	require.NoError(t, err)

	hint, err := s.GetHint("c", "k")
	require.NoError(t, err)
	assert.Equal(t, model.StringValue("v2"), hint.Value, "value is always replaced")
	require.NotNil(t, hint.Meta.Priority)
	assert.Equal(t, 9, *hint.Meta.Priority, "omitted meta on update must not wipe priority")
	assert.Equal(t, []string{"x"}, hint.Meta.Tags, "omitted meta on update must not wipe tags")
	assert.Equal(t, 2, hint.Version)
}

func TestSetHint_UpdateWithEmptyMeta_OverwritesPriorMeta(t *testing.T) {
	s := newTestStore(DefaultLimits())
	priority := 9
	_, err := s.SetHint("c", "k", model.StringValue("v1"), &model.HintMeta{Priority: &priority}, nil)
	require.NoError(t, err)

	_, err = s.SetHint("c", "k", model.StringValue("v2"), &model.HintMeta{}, nil)
	require.NoError(t, err)

	hint, err := s.GetHint("c", "k")
	require.NoError(t, err)
	assert.Nil(t, hint.Meta.Priority, "an explicitly provided (even empty) meta replaces the prior one")
}

func TestSetHint_QuotaPerComponent(t *testing.T) {
	s := newTestStore(Limits{MaxComponents: 10, MaxHintsPerComponent: 2, MaxTotalHints: 100})

	_, err := s.SetHint("c", "k1", model.StringValue("v"), &model.HintMeta{}, nil)
	require.NoError(t, err)
	_, err = s.SetHint("c", "k2", model.StringValue("v"), &model.HintMeta{}, nil)
	require.NoError(t, err)

	_, err = s.SetHint("c", "k3", model.StringValue("v"), &model.HintMeta{}, nil)
	require.Error(t, err)
	nerr, ok := nudgeerr.As(err)
	require.True(t, ok)
	assert.Equal(t, nudgeerr.Quota, nerr.Code)
	assert.Equal(t, 2, nerr.Data["limit"])
}

func TestSetHint_QuotaDoesNotApplyOnUpdate(t *testing.T) {
	s := newTestStore(Limits{MaxComponents: 10, MaxHintsPerComponent: 1, MaxTotalHints: 100})

	_, err := s.SetHint("c", "k1", model.StringValue("v1"), &model.HintMeta{}, nil)
	require.NoError(t, err)
	_, err = s.SetHint("c", "k1", model.StringValue("v2"), &model.HintMeta{}, nil)
	assert.NoError(t, err)
}

func TestEvictExpired_RemovesPastTTL(t *testing.T) {
	s := newTestStore(DefaultLimits())
	_, err := s.SetHint("c", "k", model.StringValue("v"), &model.HintMeta{TTL: "PT1S"}, nil)
	require.NoError(t, err)

	comp := s.components["c"]
	hint := comp.hints["k"]
	hint.CreatedAt = time.Now().Add(-2 * time.Second).UTC().Format(time.RFC3339)
	comp.hints["k"] = hint

	evicted := s.EvictExpired()
	assert.Equal(t, 1, evicted)

	_, err = s.GetHint("c", "k")
	assert.Error(t, err)
}

func TestGetHint_ExpiresAtReadTime(t *testing.T) {
	s := newTestStore(DefaultLimits())
	_, err := s.SetHint("c", "k", model.StringValue("v"), &model.HintMeta{TTL: "PT1S"}, nil)
	require.NoError(t, err)

	comp := s.components["c"]
	hint := comp.hints["k"]
	hint.CreatedAt = time.Now().Add(-2 * time.Second).UTC().Format(time.RFC3339)
	comp.hints["k"] = hint

	_, err = s.GetHint("c", "k")
	assert.Error(t, err)

	_, stillThere := s.components["c"]
	assert.False(t, stillThere, "expired hint's now-empty component should be removed")
}

func TestEvictExpired_HandlesMultipleExpiredKeysInOneComponent(t *testing.T) {
	s := newTestStore(DefaultLimits())
	for _, key := range []string{"a", "b", "c", "d"} {
		_, err := s.SetHint("c", key, model.StringValue("v"), &model.HintMeta{TTL: "PT1S"}, nil)
		require.NoError(t, err)
	}

	comp := s.components["c"]
	past := time.Now().Add(-2 * time.Second).UTC().Format(time.RFC3339)
	for _, key := range []string{"a", "c"} {
		hint := comp.hints[key]
		hint.CreatedAt = past
		comp.hints[key] = hint
	}

	evicted := s.EvictExpired()
	assert.Equal(t, 2, evicted)

	_, err := s.GetHint("c", "a")
	assert.Error(t, err)
	_, err = s.GetHint("c", "c")
	assert.Error(t, err)

	b, err := s.GetHint("c", "b")
	require.NoError(t, err, "non-expired key b must survive eviction of earlier keys in the same component")
	assert.Equal(t, model.StringValue("v"), b.Value)

	d, err := s.GetHint("c", "d")
	require.NoError(t, err, "non-expired key d must survive eviction of earlier keys in the same component")
	assert.Equal(t, model.StringValue("v"), d.Value)
}

func TestSetHint_SessionTTLNeverExpires(t *testing.T) {
	s := newTestStore(DefaultLimits())
	_, err := s.SetHint("c", "k", model.StringValue("v"), &model.HintMeta{TTL: "session"}, nil)
	require.NoError(t, err)

	comp := s.components["c"]
	hint := comp.hints["k"]
	hint.CreatedAt = time.Now().Add(-999 * time.Hour).UTC().Format(time.RFC3339)
	comp.hints["k"] = hint

	assert.Equal(t, 0, s.EvictExpired())
}

func TestListComponents_InsertionOrder(t *testing.T) {
	s := newTestStore(DefaultLimits())
	_, _ = s.SetHint("zeta", "k", model.StringValue("v"), &model.HintMeta{}, nil)
	_, _ = s.SetHint("alpha", "k", model.StringValue("v"), &model.HintMeta{}, nil)

	comps := s.ListComponents()
	require.Len(t, comps, 2)
	assert.Equal(t, "zeta", comps[0].Name)
	assert.Equal(t, "alpha", comps[1].Name)
}
