package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/euler-vision/eulerbox/origin"
)

func noopFunc(ctx context.Context, inv *Invocation) error { return nil }

func TestRegistry_RegisterGetList(t *testing.T) {
	r := New()

	require.NoError(t, r.Register(Tool{
		Name:        "sample-dataset",
		Description: "Subsample datasets.",
		Params:      []Param{TrackedPathList("dataset_paths")},
		Func:        noopFunc,
	}))
	require.NoError(t, r.Register(Tool{
		Name: "split-ds",
		Func: noopFunc,
	}))

	got, err := r.Get("sample-dataset")
	require.NoError(t, err)
	assert.Equal(t, "sample-dataset", got.Name)
	assert.Equal(t, "Subsample datasets.", got.Description)

	names := make([]string, 0, r.Len())
	for _, tool := range r.List() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"sample-dataset", "split-ds"}, names)
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := New()
	_, err := r.Get("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestRegistry_DuplicateNameFails(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Tool{Name: "foggify", Func: noopFunc}))

	err := r.Register(Tool{Name: "foggify", Func: noopFunc})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateTool)

	// The original registration is untouched.
	assert.Equal(t, 1, r.Len())
}

func TestRegister_ValidatesParams(t *testing.T) {
	tests := []struct {
		name  string
		param Param
	}{
		{
			name: "required with default",
			param: Param{
				Name: "rate", Shape: ShapeScalar, Type: TypeInt,
				Required: true, Default: 3,
			},
		},
		{
			name:  "tracked path with scalar default",
			param: Param{Name: "cfg", Shape: ShapeTrackedPath, Default: "/etc/cfg"},
		},
		{
			name:  "unknown shape",
			param: Param{Name: "x", Shape: Shape("tuple")},
		},
		{
			name:  "empty name",
			param: Param{Shape: ShapeScalar, Type: TypeString, Required: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			err := r.Register(Tool{Name: "t", Params: []Param{tt.param}, Func: noopFunc})
			assert.Error(t, err)
		})
	}
}

func TestRegister_DuplicateParamFails(t *testing.T) {
	r := New()
	err := r.Register(Tool{
		Name:   "t",
		Params: []Param{String("path"), Int("path").WithDefault(1)},
		Func:   noopFunc,
	})
	assert.Error(t, err)
}

func TestParam_Constructors(t *testing.T) {
	p := Int("sample_rate").WithDefault(3).WithHelp("Every Nth file.").WithPlaceholder("sample_cfg:1")
	assert.Equal(t, ShapeScalar, p.Shape)
	assert.Equal(t, TypeInt, p.Type)
	assert.False(t, p.Required)
	assert.Equal(t, 3, p.Default)
	assert.True(t, p.HasDefault())
	assert.Equal(t, "sample-rate", p.CLIName())
	assert.Equal(t, "sample_cfg:1", p.Placeholder)

	assert.Equal(t, ShapeTrackedPathList, TrackedPathList("dataset_paths").Shape)
	assert.Equal(t, ShapeList, IntList("ratios").Shape)
	assert.True(t, StringList("suffixes").Required)
}

func TestParam_NullDefaultDistinctFromNoDefault(t *testing.T) {
	required := String("seed_file")
	nullable := String("seed_file").WithNullDefault()

	assert.True(t, required.Required)
	assert.False(t, required.NullDefault)

	assert.False(t, nullable.Required)
	assert.True(t, nullable.NullDefault)
	assert.Nil(t, nullable.Default)
	assert.True(t, nullable.HasDefault())
}

func TestParam_UnknownTypeDefaultsToString(t *testing.T) {
	p := NewParam("blob", ShapeScalar, ValueType("complex128"))
	assert.Equal(t, TypeString, p.Type)
}

func TestInvocation_TypedAccess(t *testing.T) {
	inv := NewInvocation("run-1", origin.Map{{Local: "/tmp", Real: "/real"}})
	inv.Set("sample_rate", 5)
	inv.Set("output_suffix", "_8k")
	inv.Set("ratios", []int{80, 10, 10})
	inv.Set("fog_config", origin.TrackedPath{Working: "/tmp/fog.json", Origin: "/real/fog.json"})
	inv.Set("dataset_paths", []origin.TrackedPath{{Working: "a.zip", Origin: "a.zip"}})
	inv.Set("seed_file", nil)

	n, ok := inv.GetInt("sample_rate")
	require.True(t, ok)
	assert.Equal(t, 5, n)

	s, ok := inv.GetString("output_suffix")
	require.True(t, ok)
	assert.Equal(t, "_8k", s)

	assert.Equal(t, []int{80, 10, 10}, inv.GetInts("ratios"))

	tp, ok := inv.GetTracked("fog_config")
	require.True(t, ok)
	assert.Equal(t, "/real/fog.json", tp.Origin)

	require.Len(t, inv.GetTrackedList("dataset_paths"), 1)

	// Literal null default: present but reads as absent.
	_, ok = inv.GetString("seed_file")
	assert.False(t, ok)

	// Never set at all.
	_, ok = inv.GetInt("missing")
	assert.False(t, ok)
}
