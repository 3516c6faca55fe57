package dataset

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// indexFileName is the per-archive index description embedded in every
// output archive.
const indexFileName = "output.json"

// Local implements Indexer and Splitter against the local filesystem.
type Local struct{}

// NewLocal returns a filesystem-backed dataset service.
func NewLocal() *Local {
	return &Local{}
}

// IndexArchive builds an index over a zip archive or directory.
func (l *Local) IndexArchive(ctx context.Context, path string, opts IndexOptions) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	names, err := listFiles(path)
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", path, err)
	}
	sort.Strings(names)

	entries := make([]FileEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, FileEntry{Name: name, ID: fileID(name)})
	}

	if opts.Sample > 1 {
		sampled := make([]FileEntry, 0, len(entries)/opts.Sample+1)
		for i := 0; i < len(entries); i += opts.Sample {
			sampled = append(sampled, entries[i])
		}
		entries = sampled
	}

	if opts.Match != nil {
		byID := make(map[string]FileEntry, len(entries))
		for _, e := range entries {
			byID[e.ID] = e
		}
		matched := make([]FileEntry, 0, len(opts.Match.Files))
		for _, ref := range opts.Match.Files {
			if e, ok := byID[ref.ID]; ok {
				matched = append(matched, e)
			}
		}
		entries = matched
	}

	return &Index{Source: path, Files: entries}, nil
}

// CopySubset writes the indexed files of src into a fresh zip at dst.
func (l *Local) CopySubset(ctx context.Context, src, dst string, idx *Index) (CopyResult, error) {
	var result CopyResult

	out, err := os.Create(dst) // #nosec G304 -- path from user CLI flag
	if err != nil {
		return result, fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	defer zw.Close()

	wanted := make(map[string]struct{}, len(idx.Files))
	for _, f := range idx.Files {
		wanted[f.Name] = struct{}{}
	}

	copyEntry := func(name string, open func() (io.ReadCloser, error)) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := wanted[name]; !ok {
			result.Skipped++
			return nil
		}
		rc, err := open()
		if err != nil {
			return fmt.Errorf("opening %s: %w", name, err)
		}
		defer rc.Close()
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, rc); err != nil {
			return fmt.Errorf("copying %s: %w", name, err)
		}
		result.Copied++
		return nil
	}

	if err := walkSource(src, copyEntry); err != nil {
		return result, err
	}

	// Embed the index so downstream tooling can see what was selected.
	meta, err := zw.Create(indexFileName)
	if err != nil {
		return result, err
	}
	if err := json.NewEncoder(meta).Encode(idx); err != nil {
		return result, fmt.Errorf("writing %s: %w", indexFileName, err)
	}

	if err := zw.Close(); err != nil {
		return result, err
	}
	return result, out.Close()
}

// Split partitions every source by the common ID set and copies each
// partition into its own archive.
func (l *Local) Split(ctx context.Context, sources []string, suffixes []string, ratios []int) (*SplitResult, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("at least one source path is required")
	}
	if len(suffixes) != len(ratios) {
		return nil, fmt.Errorf("got %d suffixes for %d ratios", len(suffixes), len(ratios))
	}
	sum := 0
	for _, r := range ratios {
		if r < 0 {
			return nil, fmt.Errorf("ratio %d is negative", r)
		}
		sum += r
	}
	if sum != 100 {
		return nil, fmt.Errorf("ratios must sum to 100, got %d", sum)
	}

	indexes := make([]*Index, len(sources))
	for i, src := range sources {
		idx, err := l.IndexArchive(ctx, src, IndexOptions{})
		if err != nil {
			return nil, err
		}
		indexes[i] = idx
	}

	common := commonIDs(indexes)
	partitions := partitionIDs(common, ratios)

	result := &SplitResult{CommonIDs: common}
	for i, src := range sources {
		stats := SourceSplit{
			Source:      src,
			TotalIDs:    len(indexes[i].Files),
			ExcludedIDs: len(indexes[i].Files) - len(common),
		}
		for j, suffix := range suffixes {
			part := &Index{Source: src}
			member := make(map[string]struct{}, len(partitions[j]))
			for _, id := range partitions[j] {
				member[id] = struct{}{}
			}
			for _, f := range indexes[i].Files {
				if _, ok := member[f.ID]; ok {
					part.Files = append(part.Files, f)
				}
			}
			dst := splitOutputPath(src, suffix)
			copied, err := l.CopySubset(ctx, src, dst, part)
			if err != nil {
				return nil, fmt.Errorf("splitting %s: %w", src, err)
			}
			stats.Splits = append(stats.Splits, SplitStat{
				Suffix: suffix,
				NumIDs: len(part.Files),
				Copied: copied.Copied,
				Output: dst,
			})
		}
		result.PerSource = append(result.PerSource, stats)
	}

	return result, nil
}

// commonIDs intersects all indexes, keeping the first index's order.
func commonIDs(indexes []*Index) []string {
	if len(indexes) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, idx := range indexes[1:] {
		seen := make(map[string]struct{}, len(idx.Files))
		for _, f := range idx.Files {
			if _, dup := seen[f.ID]; dup {
				continue
			}
			seen[f.ID] = struct{}{}
			counts[f.ID]++
		}
	}
	var common []string
	for _, f := range indexes[0].Files {
		if counts[f.ID] == len(indexes)-1 {
			common = append(common, f.ID)
		}
	}
	return common
}

// partitionIDs slices ids into len(ratios) contiguous partitions whose
// sizes follow the cumulative percentages. The final partition absorbs
// rounding remainders.
func partitionIDs(ids []string, ratios []int) [][]string {
	parts := make([][]string, len(ratios))
	start, acc := 0, 0
	for i, r := range ratios {
		acc += r
		end := len(ids) * acc / 100
		if i == len(ratios)-1 {
			end = len(ids)
		}
		parts[i] = ids[start:end]
		start = end
	}
	return parts
}

// splitOutputPath derives "rgb_train.zip" from source "rgb.zip" and
// suffix "train.zip".
func splitOutputPath(src, suffix string) string {
	base := strings.TrimSuffix(src, ".zip")
	return base + "_" + suffix
}

func fileID(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// listFiles enumerates file entry names in a zip archive or directory,
// skipping embedded index descriptions.
func listFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		var names []string
		err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || d.Name() == indexFileName {
				return nil
			}
			rel, err := filepath.Rel(path, p)
			if err != nil {
				return err
			}
			names = append(names, filepath.ToSlash(rel))
			return nil
		})
		return names, err
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || filepath.Base(f.Name) == indexFileName {
			continue
		}
		names = append(names, f.Name)
	}
	return names, nil
}

// walkSource visits every file entry of a zip archive or directory.
func walkSource(src string, visit func(name string, open func() (io.ReadCloser, error)) error) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || d.Name() == indexFileName {
				return nil
			}
			rel, err := filepath.Rel(src, p)
			if err != nil {
				return err
			}
			return visit(filepath.ToSlash(rel), func() (io.ReadCloser, error) {
				return os.Open(p) // #nosec G304 -- path under the source tree
			})
		})
	}

	zr, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || filepath.Base(f.Name) == indexFileName {
			continue
		}
		if err := visit(f.Name, f.Open); err != nil {
			return err
		}
	}
	return nil
}
