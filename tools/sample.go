package tools

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/euler-vision/eulerbox/dataset"
	"github.com/euler-vision/eulerbox/registry"
)

// sampleOutputPath derives "scene_8k.zip" from "scene.zip" and "_8k".
func sampleOutputPath(zipPath, suffix string) (string, error) {
	if !strings.HasSuffix(zipPath, ".zip") {
		return "", fmt.Errorf("expected a .zip path, got: %s", zipPath)
	}
	return strings.TrimSuffix(zipPath, ".zip") + suffix + ".zip", nil
}

func sampleDatasetTool(svc Services, log *zap.Logger) (registry.Tool, error) {
	return registry.Tool{
		Name:        "sample-dataset",
		Description: "Subsample the first dataset and index-match the rest.",
		Params: []registry.Param{
			registry.TrackedPathList("dataset_paths").
				WithHelp("Dataset archives. The first is subsampled; the rest are index-matched against it.").
				WithPlaceholder("dataset_path"),
			registry.Int("sample_rate").
				WithDefault(3).
				WithHelp("Take every Nth file from the primary (first) dataset.").
				WithPlaceholder("sample_cfg:1"),
			registry.String("output_suffix").
				WithDefault("_8k").
				WithHelp("Suffix appended to output archive names.").
				WithPlaceholder("sample_cfg:2"),
		},
		Func: func(ctx context.Context, inv *registry.Invocation) error {
			paths := inv.GetTrackedList("dataset_paths")
			rate, _ := inv.GetInt("sample_rate")
			suffix, _ := inv.GetString("output_suffix")

			if len(paths) == 0 {
				return fmt.Errorf("at least one --dataset-path is required")
			}

			primary := paths[0]
			log.Info("indexing primary dataset",
				zap.String("path", primary.Working),
				zap.String("origin", primary.Origin))
			primaryIdx, err := svc.Indexer.IndexArchive(ctx, primary.Working, dataset.IndexOptions{Sample: rate})
			if err != nil {
				return fmt.Errorf("indexing %s: %w", primary.Working, err)
			}
			log.Info("primary index built", zap.Int("files", len(primaryIdx.Files)))

			primaryOut, err := sampleOutputPath(primary.Working, suffix)
			if err != nil {
				return err
			}
			log.Info("copying primary subset", zap.String("output", primaryOut))
			if _, err := svc.Indexer.CopySubset(ctx, primary.Working, primaryOut, primaryIdx); err != nil {
				return fmt.Errorf("copying %s: %w", primary.Working, err)
			}

			for i, tp := range paths[1:] {
				n := i + 2
				log.Info("indexing dataset",
					zap.Int("n", n),
					zap.String("path", tp.Working),
					zap.String("origin", tp.Origin))
				idx, err := svc.Indexer.IndexArchive(ctx, tp.Working, dataset.IndexOptions{Match: primaryIdx})
				if err != nil {
					return fmt.Errorf("indexing %s: %w", tp.Working, err)
				}
				log.Info("dataset index built", zap.Int("n", n), zap.Int("files", len(idx.Files)))

				out, err := sampleOutputPath(tp.Working, suffix)
				if err != nil {
					return err
				}
				log.Info("copying dataset subset", zap.Int("n", n), zap.String("output", out))
				if _, err := svc.Indexer.CopySubset(ctx, tp.Working, out, idx); err != nil {
					return fmt.Errorf("copying %s: %w", tp.Working, err)
				}
			}

			log.Info("sampling done", zap.Int("datasets", len(paths)))
			return nil
		},
	}, nil
}
