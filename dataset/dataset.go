// Package dataset provides the dataset-processing services the CLI
// tools delegate to: archive indexing with deterministic subsampling,
// subset copying, and multi-source splitting by common IDs. Sources may
// be zip archives or plain directories; outputs are zip archives.
package dataset

import "context"

// Indexer indexes dataset archives and copies indexed subsets.
type Indexer interface {
	// IndexArchive lists the files of a dataset, optionally subsampled
	// (every Nth file) or matched against a previously built index.
	IndexArchive(ctx context.Context, path string, opts IndexOptions) (*Index, error)

	// CopySubset copies the files named by idx from src into a new zip
	// archive at dst, embedding the index description as output.json.
	CopySubset(ctx context.Context, src, dst string, idx *Index) (CopyResult, error)
}

// Splitter partitions datasets into named splits by the IDs common to
// all sources.
type Splitter interface {
	Split(ctx context.Context, sources []string, suffixes []string, ratios []int) (*SplitResult, error)
}

// IndexOptions modifies how an index is built.
type IndexOptions struct {
	// Sample keeps every Nth file (by sorted order) when > 1.
	Sample int
	// Match restricts the index to IDs present in another index,
	// preserving that index's order. Applied after Sample.
	Match *Index
}

// Index describes the selected files of one dataset.
type Index struct {
	Source string      `json:"source"`
	Files  []FileEntry `json:"files"`
}

// FileEntry is one indexed file. ID is the base name without extension
// and is what index-matching across modalities keys on.
type FileEntry struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// IDs returns the entry IDs in index order.
func (idx *Index) IDs() []string {
	ids := make([]string, len(idx.Files))
	for i, f := range idx.Files {
		ids[i] = f.ID
	}
	return ids
}

// CopyResult reports the outcome of a subset copy.
type CopyResult struct {
	Copied  int `json:"copied"`
	Skipped int `json:"skipped"`
}

// SplitResult aggregates split statistics across all sources.
type SplitResult struct {
	// CommonIDs is the set of IDs present in every source, in the
	// order of the first source.
	CommonIDs []string      `json:"common_ids"`
	PerSource []SourceSplit `json:"per_source"`
}

// SourceSplit holds one source's split statistics.
type SourceSplit struct {
	Source      string      `json:"source"`
	TotalIDs    int         `json:"total_ids"`
	ExcludedIDs int         `json:"excluded_ids"`
	Splits      []SplitStat `json:"splits"`
}

// SplitStat describes one produced split of one source.
type SplitStat struct {
	Suffix string `json:"suffix"`
	NumIDs int    `json:"num_ids"`
	Copied int    `json:"copied"`
	Output string `json:"output"`
}
