package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileGlob_LeadingDoubleStarWildcardSegment(t *testing.T) {
	re, err := compileGlob("**/http-proxy*")
	require.NoError(t, err)
	assert.True(t, re.MatchString("/work/http-proxy"))
	assert.True(t, re.MatchString("/work/nested/http-proxy-service"))
	assert.False(t, re.MatchString("/work/other"))
}

func TestCompileGlob_LeadingDoubleStar(t *testing.T) {
	re, err := compileGlob("**/repo")
	require.NoError(t, err)
	assert.True(t, re.MatchString("repo"))
	assert.True(t, re.MatchString("a/b/repo"))
}

func TestCompileGlob_TrailingDoubleStar(t *testing.T) {
	re, err := compileGlob("a/**")
	require.NoError(t, err)
	assert.True(t, re.MatchString("a"))
	assert.True(t, re.MatchString("a/b/c"))
	assert.False(t, re.MatchString("b"))
}

func TestCompileGlob_BareDoubleStar(t *testing.T) {
	re, err := compileGlob("**")
	require.NoError(t, err)
	assert.True(t, re.MatchString("anything/at/all"))
}

func TestCompileGlob_BraceExpansion(t *testing.T) {
	re, err := compileGlob("src/{a,b}/main.go")
	require.NoError(t, err)
	assert.True(t, re.MatchString("src/a/main.go"))
	assert.True(t, re.MatchString("src/b/main.go"))
	assert.False(t, re.MatchString("src/c/main.go"))
}

func TestCompileGlob_SingleStarDoesNotCrossSlash(t *testing.T) {
	re, err := compileGlob("a/*/c")
	require.NoError(t, err)
	assert.True(t, re.MatchString("a/b/c"))
	assert.False(t, re.MatchString("a/b/d/c"))
}
