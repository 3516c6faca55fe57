package cli

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	eulerotel "github.com/euler-vision/eulerbox/otel"
	"github.com/euler-vision/eulerbox/origin"
	"github.com/euler-vision/eulerbox/registry"
)

// originFlagSuffix is appended to a tracked-path flag name to form the
// companion flag carrying the explicit origin.
const originFlagSuffix = "-origin"

// Observer receives one observation per tool dispatch. Satisfied by
// *otel.ToolObserver; nil disables observation.
type Observer interface {
	ObserveInvoke(eulerotel.InvokeObservation)
}

// NewRunCmd creates the "run" command with one generated subcommand per
// registered tool. The logger's level must be the shared atomic level so
// that --log-level takes effect before dispatch.
func NewRunCmd(reg *registry.Registry, logger *zap.Logger, level zap.AtomicLevel, observer Observer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a registered tool",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return exitError(exitValidation, "unknown tool %q", args[0])
		},
	}
	for _, t := range reg.List() {
		cmd.AddCommand(newToolCmd(t, logger, level, observer))
	}
	return cmd
}

// newToolCmd generates the cobra command for one tool: one flag per
// parameter in declaration order, a paired -origin flag per tracked
// shape, plus --origin-map and --log-level.
func newToolCmd(t registry.Tool, logger *zap.Logger, level zap.AtomicLevel, observer Observer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   t.Name,
		Short: t.Description,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return dispatch(cmd, t, logger, level, observer)
		},
	}

	for _, p := range t.Params {
		registerParamFlags(cmd, p)
	}
	cmd.Flags().String("origin-map", "",
		"Comma-separated prefix rewrite rules for path origins: <local_prefix>=<real_prefix>[,...]")
	cmd.Flags().String("log-level", "INFO", "Log level: DEBUG, INFO, WARNING, or ERROR")

	return cmd
}

func registerParamFlags(cmd *cobra.Command, p registry.Param) {
	flags := cmd.Flags()
	name := p.CLIName()

	switch p.Shape {
	case registry.ShapeScalar:
		switch p.Type {
		case registry.TypeInt:
			flags.Int(name, defaultAs[int](p), p.Help)
		case registry.TypeFloat:
			flags.Float64(name, defaultAs[float64](p), p.Help)
		case registry.TypeBool:
			flags.Bool(name, defaultAs[bool](p), p.Help)
		default:
			flags.String(name, defaultAs[string](p), p.Help)
		}
	case registry.ShapeList:
		switch p.Type {
		case registry.TypeInt:
			flags.IntSlice(name, defaultAs[[]int](p), p.Help)
		case registry.TypeFloat:
			flags.Float64Slice(name, defaultAs[[]float64](p), p.Help)
		default:
			flags.StringArray(name, defaultAs[[]string](p), p.Help)
		}
	case registry.ShapeTrackedPath:
		flags.String(name, "", p.Help)
		flags.String(name+originFlagSuffix, "", "Real origin path for --"+name+".")
	case registry.ShapeTrackedPathList:
		flags.StringArray(name, nil, p.Help)
		flags.StringArray(name+originFlagSuffix, nil,
			"Real origin paths for --"+name+", matched by position.")
	}

	if p.Required {
		// The flag exists for every known shape, so this cannot fail.
		_ = cmd.MarkFlagRequired(name)
	}
}

// defaultAs returns the declared default coerced to the flag's value
// type, or the zero value for required and null-default parameters.
func defaultAs[T any](p registry.Param) T {
	var zero T
	if p.Default == nil {
		return zero
	}
	if v, ok := p.Default.(T); ok {
		return v
	}
	return zero
}

// dispatch is the invocation pipeline: configure the logger, parse the
// origin map, resolve every parameter, and call the tool.
func dispatch(cmd *cobra.Command, t registry.Tool, logger *zap.Logger, level zap.AtomicLevel, observer Observer) error {
	flags := cmd.Flags()

	levelValue, _ := flags.GetString("log-level")
	lvl, err := parseLogLevel(levelValue)
	if err != nil {
		return exitError(exitValidation, "%s", err)
	}
	level.SetLevel(lvl)
	defer func() { _ = logger.Sync() }()

	rawMap, _ := flags.GetString("origin-map")
	originMap, skipped := origin.ParseMap(rawMap)
	for _, segment := range skipped {
		logger.Warn("ignoring malformed origin-map segment", zap.String("segment", segment))
	}

	runID := uuid.NewString()
	inv := registry.NewInvocation(runID, originMap)
	for _, p := range t.Params {
		setParam(inv, flags, p, originMap, logger)
	}

	logger.Info("running tool",
		zap.String("tool", t.Name),
		zap.String("run_id", runID))

	start := time.Now()
	runErr := t.Func(cmd.Context(), inv)
	duration := time.Since(start)

	if observer != nil {
		obs := eulerotel.InvokeObservation{
			ToolName: t.Name,
			RunID:    runID,
			Duration: duration,
			Success:  runErr == nil,
		}
		if runErr != nil {
			obs.ErrorMessage = runErr.Error()
		}
		observer.ObserveInvoke(obs)
	}

	if runErr != nil {
		logger.Error("tool failed",
			zap.String("tool", t.Name),
			zap.String("run_id", runID),
			zap.Error(runErr))
		return exitError(exitRuntime, "%s: %v", t.Name, runErr)
	}
	logger.Info("tool finished",
		zap.String("tool", t.Name),
		zap.String("run_id", runID),
		zap.Duration("duration", duration))
	return nil
}

// setParam pulls one parameter off the parsed flag set into the
// invocation. A null-default parameter whose flag was not provided is
// recorded as a literal nil.
func setParam(inv *registry.Invocation, flags *pflag.FlagSet, p registry.Param, m origin.Map, logger *zap.Logger) {
	name := p.CLIName()

	if p.NullDefault && !flags.Changed(name) {
		inv.Set(p.Name, nil)
		return
	}

	switch p.Shape {
	case registry.ShapeScalar:
		switch p.Type {
		case registry.TypeInt:
			v, _ := flags.GetInt(name)
			inv.Set(p.Name, v)
		case registry.TypeFloat:
			v, _ := flags.GetFloat64(name)
			inv.Set(p.Name, v)
		case registry.TypeBool:
			v, _ := flags.GetBool(name)
			inv.Set(p.Name, v)
		default:
			v, _ := flags.GetString(name)
			inv.Set(p.Name, v)
		}
	case registry.ShapeList:
		switch p.Type {
		case registry.TypeInt:
			v, _ := flags.GetIntSlice(name)
			inv.Set(p.Name, v)
		case registry.TypeFloat:
			v, _ := flags.GetFloat64Slice(name)
			inv.Set(p.Name, v)
		default:
			v, _ := flags.GetStringArray(name)
			inv.Set(p.Name, v)
		}
	case registry.ShapeTrackedPath:
		working, _ := flags.GetString(name)
		explicit, _ := flags.GetString(name + originFlagSuffix)
		inv.Set(p.Name, origin.New(working, explicit, m))
	case registry.ShapeTrackedPathList:
		workings, _ := flags.GetStringArray(name)
		explicits, _ := flags.GetStringArray(name + originFlagSuffix)
		if len(explicits) > len(workings) {
			logger.Warn("more origin values than paths, extras ignored",
				zap.String("flag", "--"+name+originFlagSuffix),
				zap.Int("paths", len(workings)),
				zap.Int("origins", len(explicits)))
		}
		paths := make([]origin.TrackedPath, len(workings))
		for i, w := range workings {
			explicit := ""
			if i < len(explicits) {
				explicit = explicits[i]
			}
			paths[i] = origin.New(w, explicit, m)
		}
		inv.Set(p.Name, paths)
	}
}
