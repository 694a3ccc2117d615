package nudgeerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictErr_CarriesVersions(t *testing.T) {
	err := ConflictErr(5, 1)
	assert.Equal(t, Conflict, err.Code)
	assert.Equal(t, 5, err.Data["expected_version"])
	assert.Equal(t, 1, err.Data["current_version"])
}

func TestQuotaErr_CarriesLimit(t *testing.T) {
	err := QuotaErr("maximum hints per component", 200)
	assert.Equal(t, Quota, err.Code)
	assert.Equal(t, 200, err.Data["limit"])
}

func TestAs_RoundTrip(t *testing.T) {
	var err error = NotFoundErr("build", "cmd")
	nerr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, NotFound, nerr.Code)
}

func TestCode_String(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", NotFound.String())
	assert.Equal(t, "CONFLICT", Conflict.String())
	assert.Equal(t, "QUOTA", Quota.String())
	assert.Equal(t, "PROXY_ERROR", ProxyError.String())
}

func TestError_NumericCodes(t *testing.T) {
	assert.EqualValues(t, 40401, NotFound)
	assert.EqualValues(t, 40001, Invalid)
	assert.EqualValues(t, 40901, Conflict)
	assert.EqualValues(t, 40002, SecretRejected)
	assert.EqualValues(t, 40003, ScopeInvalid)
	assert.EqualValues(t, 42901, Quota)
}
