package tools

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/euler-vision/eulerbox/fog"
	"github.com/euler-vision/eulerbox/registry"
)

// requiredModalities are the inputs the fog engine cannot run without,
// in sorted order for error messages.
var requiredModalities = []string{fog.ModalityDepth, fog.ModalityRGB, fog.ModalitySkyMask}

// parseKVList parses ["rgb=/data/rgb", "depth=/data/depth"] into a map.
func parseKVList(items []string, flagName string) (map[string]string, error) {
	result := make(map[string]string, len(items))
	for _, item := range items {
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("invalid %s value: %q, expected name=path format", flagName, item)
		}
		result[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return result, nil
}

func foggifyTool(svc Services, log *zap.Logger) (registry.Tool, error) {
	fogSchema, err := fog.ConfigSchema()
	if err != nil {
		return registry.Tool{}, err
	}
	return registry.Tool{
		Name:        "foggify",
		Description: "Generate foggy dataset versions using physics-based fog simulation.",
		SubSchemas:  map[string]any{"fog_config": fogSchema},
		Params: []registry.Param{
			registry.TrackedPath("fog_config").
				WithHelp("Path to the fog simulation config JSON.").
				WithPlaceholder("config.path"),
			registry.TrackedPath("output_path").
				WithHelp("Output directory for generated foggy images.").
				WithPlaceholder("output.path"),
			registry.StringList("modality").
				WithHelp("Modality mapping as name=path (e.g. rgb=/data/rgb). Required: rgb, depth, sky_mask.").
				WithPlaceholder("modality.path[]"),
			registry.StringList("hierarchical_modality").
				WithDefault([]string{}).
				WithHelp("Hierarchical modality mapping as name=path (e.g. intrinsics=/data/calib).").
				WithPlaceholder("hierarchical_modality.path[]"),
			registry.String("dataset_name").
				WithDefault("dataset").
				WithHelp("Human-readable dataset name for logging.").
				WithPlaceholder("dataset.name"),
		},
		Func: func(ctx context.Context, inv *registry.Invocation) error {
			configPath, _ := inv.GetTracked("fog_config")
			outputPath, _ := inv.GetTracked("output_path")
			datasetName, _ := inv.GetString("dataset_name")

			modalities, err := parseKVList(inv.GetStrings("modality"), "--modality")
			if err != nil {
				return err
			}
			hierarchical, err := parseKVList(inv.GetStrings("hierarchical_modality"), "--hierarchical-modality")
			if err != nil {
				return err
			}

			var missing []string
			for _, name := range requiredModalities {
				if _, ok := modalities[name]; !ok {
					missing = append(missing, name)
				}
			}
			if len(missing) > 0 {
				return fmt.Errorf("missing required modalities: %s (--modality must include: %s)",
					strings.Join(missing, ", "), strings.Join(requiredModalities, ", "))
			}

			log.Info("fog config",
				zap.String("path", configPath.Working),
				zap.String("origin", configPath.Origin))
			log.Info("output",
				zap.String("path", outputPath.Working),
				zap.String("origin", outputPath.Origin))

			cfg, err := fog.LoadConfig(configPath.Working)
			if err != nil {
				return err
			}

			res, err := svc.Fog.Generate(ctx, fog.Dataset{
				Name:         datasetName,
				Modalities:   modalities,
				Hierarchical: hierarchical,
			}, cfg, outputPath.Working)
			if err != nil {
				return err
			}
			log.Info("fog generation complete",
				zap.String("dataset", datasetName),
				zap.Int("generated", res.Processed),
				zap.Int("skipped", len(res.Skipped)))
			return nil
		},
	}, nil
}
