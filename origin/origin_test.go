package origin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMap(t *testing.T) {
	m, skipped := ParseMap("a=b,c=d")
	require.Len(t, m, 2)
	assert.Equal(t, Rule{Local: "a", Real: "b"}, m[0])
	assert.Equal(t, Rule{Local: "c", Real: "d"}, m[1])
	assert.Empty(t, skipped)
}

func TestParseMap_MalformedSegmentsDropped(t *testing.T) {
	m, skipped := ParseMap("a=b,bad,c=d")
	require.Len(t, m, 2)
	assert.Equal(t, "a", m[0].Local)
	assert.Equal(t, "c", m[1].Local)
	assert.Equal(t, []string{"bad"}, skipped)
}

func TestParseMap_EmptyRealSideDropped(t *testing.T) {
	m, skipped := ParseMap("a=,b=c")
	require.Len(t, m, 1)
	assert.Equal(t, Rule{Local: "b", Real: "c"}, m[0])
	assert.Equal(t, []string{"a="}, skipped)
}

func TestParseMap_ExpandsEnvironment(t *testing.T) {
	t.Setenv("EULERBOX_TEST_TMP", "/scratch")
	t.Setenv("EULERBOX_TEST_REMOTE", "/cluster/data")

	m, _ := ParseMap("$EULERBOX_TEST_TMP=$EULERBOX_TEST_REMOTE")
	require.Len(t, m, 1)
	assert.Equal(t, "/scratch", m[0].Local)
	assert.Equal(t, "/cluster/data", m[0].Real)
}

func TestParseMap_EmptyInput(t *testing.T) {
	m, skipped := ParseMap("")
	assert.Empty(t, m)
	assert.Empty(t, skipped)
}

func TestResolve_ExplicitWins(t *testing.T) {
	m := Map{{Local: "/tmp", Real: "/real"}}
	got := Resolve("/tmp/rgb.zip", "/override/rgb.zip", m)
	assert.Equal(t, "/override/rgb.zip", got)
}

func TestResolve_PrefixRewrite(t *testing.T) {
	m := Map{{Local: "/tmp/ds", Real: "/cluster/datasets"}}
	got := Resolve("/tmp/ds/run1/rgb.zip", "", m)
	assert.Equal(t, "/cluster/datasets/run1/rgb.zip", got)
}

func TestResolve_FirstMatchWins(t *testing.T) {
	m := Map{
		{Local: "/tmp", Real: "/first"},
		{Local: "/tmp/ds", Real: "/second"},
	}
	got := Resolve("/tmp/ds/rgb.zip", "", m)
	assert.Equal(t, "/first/ds/rgb.zip", got)
}

func TestResolve_FallbackToWorking(t *testing.T) {
	assert.Equal(t, "/data/rgb.zip", Resolve("/data/rgb.zip", "", nil))

	m := Map{{Local: "/elsewhere", Real: "/real"}}
	assert.Equal(t, "/data/rgb.zip", Resolve("/data/rgb.zip", "", m))
}

func TestNew(t *testing.T) {
	m := Map{{Local: "/tmp", Real: "/real"}}

	tp := New("/tmp/a.zip", "", m)
	assert.Equal(t, "/tmp/a.zip", tp.Working)
	assert.Equal(t, "/real/a.zip", tp.Origin)
	assert.Equal(t, "/tmp/a.zip", tp.String())

	tp = New("/data/a.zip", "", nil)
	assert.Equal(t, tp.Working, tp.Origin)
}
