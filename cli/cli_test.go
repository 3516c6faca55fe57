package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/euler-vision/eulerbox/cli"
	"github.com/euler-vision/eulerbox/origin"
	"github.com/euler-vision/eulerbox/registry"
	"github.com/euler-vision/eulerbox/schema"
	"github.com/euler-vision/eulerbox/tools"
)

// capture is filled by the test tool on dispatch.
type capture struct {
	called bool
	inv    *registry.Invocation
}

func testTool(c *capture) registry.Tool {
	return registry.Tool{
		Name:        "fixture",
		Description: "Capture invocation values for assertions.",
		Params: []registry.Param{
			registry.TrackedPathList("dataset_paths").WithPlaceholder("dataset_path"),
			registry.Int("sample_rate").WithDefault(3),
			registry.String("note").WithNullDefault(),
			registry.TrackedPath("config").WithNullDefault(),
			registry.IntList("ratios").WithDefault([]int{80, 10, 10}),
		},
		Func: func(_ context.Context, inv *registry.Invocation) error {
			c.called = true
			c.inv = inv
			return nil
		},
	}
}

func newRoot(t *testing.T, reg *registry.Registry) *cobra.Command {
	t.Helper()
	level := zap.NewAtomicLevel()
	logger := zaptest.NewLogger(t)
	root := &cobra.Command{Use: "eulerbox", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(cli.NewRunCmd(reg, logger, level, nil))
	root.AddCommand(cli.NewSchemaCmd(reg))
	root.AddCommand(cli.NewListCmd(reg))
	return root
}

func execute(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunDispatchesTypedValues(t *testing.T) {
	c := &capture{}
	reg := registry.New()
	require.NoError(t, reg.Register(testTool(c)))
	root := newRoot(t, reg)

	_, err := execute(t, root, "run", "fixture",
		"--dataset-paths", "/data/a.zip",
		"--dataset-paths", "/data/b.zip",
		"--sample-rate", "5",
	)
	require.NoError(t, err)
	require.True(t, c.called)

	paths := c.inv.GetTrackedList("dataset_paths")
	require.Len(t, paths, 2)
	assert.Equal(t, "/data/a.zip", paths[0].Working)
	assert.Equal(t, "/data/a.zip", paths[0].Origin)

	rate, ok := c.inv.GetInt("sample_rate")
	require.True(t, ok)
	assert.Equal(t, 5, rate)

	ratios := c.inv.GetInts("ratios")
	assert.Equal(t, []int{80, 10, 10}, ratios)
}

func TestRunNullDefaultsReachToolAsNil(t *testing.T) {
	c := &capture{}
	reg := registry.New()
	require.NoError(t, reg.Register(testTool(c)))
	root := newRoot(t, reg)

	_, err := execute(t, root, "run", "fixture", "--dataset-paths", "/data/a.zip")
	require.NoError(t, err)

	_, ok := c.inv.Value("note")
	assert.False(t, ok, "unset null-default scalar should be nil")
	_, ok = c.inv.GetTracked("config")
	assert.False(t, ok, "unset null-default tracked path should be nil")
}

func TestRunOriginResolution(t *testing.T) {
	c := &capture{}
	reg := registry.New()
	require.NoError(t, reg.Register(testTool(c)))
	root := newRoot(t, reg)

	_, err := execute(t, root, "run", "fixture",
		"--dataset-paths", "/scratch/rgb.zip",
		"--dataset-paths", "/scratch/depth.zip",
		"--dataset-paths", "/other/sky.zip",
		"--dataset-paths-origin", "/archive/rgb.zip",
		"--origin-map", "/scratch=/tape,broken",
	)
	require.NoError(t, err)

	paths := c.inv.GetTrackedList("dataset_paths")
	require.Len(t, paths, 3)
	// Explicit origin wins over the map.
	assert.Equal(t, "/archive/rgb.zip", paths[0].Origin)
	// Second path has no positional origin: map prefix rewrite applies.
	assert.Equal(t, "/tape/depth.zip", paths[1].Origin)
	// No rule matches: origin falls back to the working path.
	assert.Equal(t, "/other/sky.zip", paths[2].Origin)
}

func TestRunUnknownTool(t *testing.T) {
	reg := registry.New()
	root := newRoot(t, reg)

	_, err := execute(t, root, "run", "nope")
	require.Error(t, err)
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Contains(t, exitErr.Message, "unknown tool")
}

func TestRunRequiredFlagEnforced(t *testing.T) {
	c := &capture{}
	reg := registry.New()
	require.NoError(t, reg.Register(testTool(c)))
	root := newRoot(t, reg)

	_, err := execute(t, root, "run", "fixture")
	require.Error(t, err)
	assert.False(t, c.called)
}

func TestRunRejectsBadLogLevel(t *testing.T) {
	c := &capture{}
	reg := registry.New()
	require.NoError(t, reg.Register(testTool(c)))
	root := newRoot(t, reg)

	_, err := execute(t, root, "run", "fixture",
		"--dataset-paths", "/data/a.zip", "--log-level", "LOUD")
	require.Error(t, err)
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
}

func TestSchemaCommand(t *testing.T) {
	c := &capture{}
	reg := registry.New()
	require.NoError(t, reg.Register(testTool(c)))
	root := newRoot(t, reg)

	out, err := execute(t, root, "schema", "fixture", "--format", "template", "--placeholder-style", "shell")
	require.NoError(t, err)

	var doc schema.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "fixture", doc.Tool)
	assert.Contains(t, doc.Template, "--dataset-paths '${dataset_path}'")
	assert.Equal(t, "--origin-map", doc.GlobalOptions.OriginMap.CLIName)
}

func TestSchemaAll(t *testing.T) {
	reg := registry.New()
	svc := tools.Services{}
	require.NoError(t, tools.RegisterAll(reg, svc, zaptest.NewLogger(t)))
	root := newRoot(t, reg)

	out, err := execute(t, root, "schema", "--all")
	require.NoError(t, err)

	var docs []schema.Document
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 3)
	assert.Equal(t, "sample-dataset", docs[0].Tool)
}

func TestSchemaRequiresToolOrAll(t *testing.T) {
	reg := registry.New()
	root := newRoot(t, reg)

	_, err := execute(t, root, "schema")
	require.Error(t, err)
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
}

func TestListCommand(t *testing.T) {
	c := &capture{}
	reg := registry.New()
	require.NoError(t, reg.Register(testTool(c)))
	root := newRoot(t, reg)

	out, err := execute(t, root, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "fixture")
	assert.Contains(t, out, "Capture invocation values")
}

// Every flag the schema documents must exist on the generated command,
// and vice versa (beyond the two global options).
func TestSchemaMatchesGeneratedFlags(t *testing.T) {
	reg := registry.New()
	require.NoError(t, tools.RegisterAll(reg, tools.Services{}, zaptest.NewLogger(t)))

	level := zap.NewAtomicLevel()
	runCmd := cli.NewRunCmd(reg, zaptest.NewLogger(t), level, nil)

	for _, tool := range reg.List() {
		tool := tool
		t.Run(tool.Name, func(t *testing.T) {
			var sub *cobra.Command
			for _, c := range runCmd.Commands() {
				if c.Name() == tool.Name {
					sub = c
				}
			}
			require.NotNil(t, sub, "generated command missing")

			generated := map[string]bool{}
			sub.Flags().VisitAll(func(f *pflag.Flag) {
				if f.Name == "help" {
					return
				}
				generated[f.Name] = true
			})

			expected := map[string]bool{"origin-map": true, "log-level": true}
			doc := schema.Build(tool, schema.Options{Format: schema.FormatJSON, PlaceholderStyle: schema.StylePlain})
			for _, p := range doc.Params {
				name := strings.TrimPrefix(p.CLIName, "--")
				expected[name] = true
				if p.OriginPlaceholder != "" {
					expected[name+"-origin"] = true
				}
			}
			assert.Equal(t, expected, generated)
		})
	}
}

func TestOriginMapSkippedSegmentsAreNotFatal(t *testing.T) {
	m, skipped := origin.ParseMap("/a=/b,garbage,=nope")
	assert.Len(t, m, 1)
	assert.NotEmpty(t, skipped)
}
