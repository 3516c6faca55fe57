package tools

import (
	"context"

	"go.uber.org/zap"

	"github.com/euler-vision/eulerbox/registry"
)

func splitDSTool(svc Services, log *zap.Logger) (registry.Tool, error) {
	return registry.Tool{
		Name:        "split-ds",
		Description: "Split datasets into train/val/test by common IDs.",
		Params: []registry.Param{
			registry.TrackedPathList("source_paths").
				WithHelp("Paths to dataset directories or archives to split.").
				WithPlaceholder("source_path"),
			registry.StringList("suffixes").
				WithDefault([]string{"train.zip", "val.zip", "test.zip"}).
				WithHelp("Output suffixes for each split."),
			registry.IntList("ratios").
				WithDefault([]int{80, 10, 10}).
				WithHelp("Split ratios (must sum to 100)."),
		},
		Func: func(ctx context.Context, inv *registry.Invocation) error {
			sources := inv.GetTrackedList("source_paths")
			suffixes := inv.GetStrings("suffixes")
			ratios := inv.GetInts("ratios")

			workings := make([]string, len(sources))
			origins := make([]string, len(sources))
			for i, sp := range sources {
				workings[i] = sp.Working
				origins[i] = sp.Origin
			}
			log.Info("splitting datasets",
				zap.Int("sources", len(workings)),
				zap.Ints("ratios", ratios),
				zap.Strings("origins", origins))

			result, err := svc.Splitter.Split(ctx, workings, suffixes, ratios)
			if err != nil {
				return err
			}

			log.Info("common ids", zap.Int("count", len(result.CommonIDs)))
			for _, src := range result.PerSource {
				log.Info("source split",
					zap.String("source", src.Source),
					zap.Int("total", src.TotalIDs),
					zap.Int("excluded", src.ExcludedIDs))
				for _, s := range src.Splits {
					log.Info("split written",
						zap.String("suffix", s.Suffix),
						zap.Int("ids", s.NumIDs),
						zap.Int("copied", s.Copied),
						zap.String("output", s.Output))
				}
			}
			return nil
		},
	}, nil
}
