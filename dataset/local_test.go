package dataset

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeZip creates a zip archive with the given entry names holding
// tiny placeholder content.
func writeZip(t *testing.T, path string, names ...string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte("data:" + name))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestIndexArchive_ZipSorted(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "rgb.zip")
	writeZip(t, src, "0002.png", "0001.png", "0003.png")

	idx, err := NewLocal().IndexArchive(context.Background(), src, IndexOptions{})
	require.NoError(t, err)

	assert.Equal(t, src, idx.Source)
	assert.Equal(t, []string{"0001", "0002", "0003"}, idx.IDs())
}

func TestIndexArchive_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.png"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.png"), []byte("b"), 0o600))

	idx, err := NewLocal().IndexArchive(context.Background(), dir, IndexOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, idx.IDs())
}

func TestIndexArchive_Sampling(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "rgb.zip")
	writeZip(t, src, "0001.png", "0002.png", "0003.png", "0004.png", "0005.png", "0006.png", "0007.png")

	idx, err := NewLocal().IndexArchive(context.Background(), src, IndexOptions{Sample: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"0001", "0004", "0007"}, idx.IDs())
}

func TestIndexArchive_MatchPreservesReferenceOrder(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	rgb := filepath.Join(dir, "rgb.zip")
	depth := filepath.Join(dir, "depth.zip")
	writeZip(t, rgb, "0001.png", "0003.png", "0005.png")
	writeZip(t, depth, "0001.exr", "0002.exr", "0003.exr", "0004.exr")

	l := NewLocal()
	ref, err := l.IndexArchive(ctx, rgb, IndexOptions{})
	require.NoError(t, err)

	idx, err := l.IndexArchive(ctx, depth, IndexOptions{Match: ref})
	require.NoError(t, err)
	// 0005 has no depth counterpart; 0002/0004 are not in the reference.
	assert.Equal(t, []string{"0001", "0003"}, idx.IDs())
}

func TestCopySubset(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "rgb.zip")
	dst := filepath.Join(dir, "rgb_8k.zip")
	writeZip(t, src, "0001.png", "0002.png", "0003.png")

	l := NewLocal()
	idx, err := l.IndexArchive(ctx, src, IndexOptions{Sample: 2})
	require.NoError(t, err)

	result, err := l.CopySubset(ctx, src, dst, idx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Copied)
	assert.Equal(t, 1, result.Skipped)

	names := zipNames(t, dst)
	assert.ElementsMatch(t, []string{"0001.png", "0003.png", "output.json"}, names)
}

func TestCopySubset_OutputIndexNotReindexed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "rgb.zip")
	dst := filepath.Join(dir, "out.zip")
	writeZip(t, src, "0001.png")

	l := NewLocal()
	idx, err := l.IndexArchive(ctx, src, IndexOptions{})
	require.NoError(t, err)
	_, err = l.CopySubset(ctx, src, dst, idx)
	require.NoError(t, err)

	// Indexing the output skips the embedded output.json.
	reindexed, err := l.IndexArchive(ctx, dst, IndexOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"0001"}, reindexed.IDs())
}

func TestSplit(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	var rgbEntries, depthEntries []string
	for i := 0; i < 10; i++ {
		name := string(rune('a'+i)) + ".png"
		rgbEntries = append(rgbEntries, name)
		if i < 8 { // depth is missing the last two IDs
			depthEntries = append(depthEntries, string(rune('a'+i))+".exr")
		}
	}
	rgb := filepath.Join(dir, "rgb.zip")
	depth := filepath.Join(dir, "depth.zip")
	writeZip(t, rgb, rgbEntries...)
	writeZip(t, depth, depthEntries...)

	result, err := NewLocal().Split(ctx,
		[]string{rgb, depth},
		[]string{"train.zip", "val.zip", "test.zip"},
		[]int{50, 25, 25},
	)
	require.NoError(t, err)

	assert.Len(t, result.CommonIDs, 8)
	require.Len(t, result.PerSource, 2)

	rgbStats := result.PerSource[0]
	assert.Equal(t, 10, rgbStats.TotalIDs)
	assert.Equal(t, 2, rgbStats.ExcludedIDs)
	require.Len(t, rgbStats.Splits, 3)
	assert.Equal(t, 4, rgbStats.Splits[0].NumIDs)
	assert.Equal(t, 2, rgbStats.Splits[1].NumIDs)
	assert.Equal(t, 2, rgbStats.Splits[2].NumIDs)
	assert.Equal(t, filepath.Join(dir, "rgb_train.zip"), rgbStats.Splits[0].Output)
	assert.FileExists(t, rgbStats.Splits[0].Output)

	depthStats := result.PerSource[1]
	assert.Equal(t, 8, depthStats.TotalIDs)
	assert.Equal(t, 0, depthStats.ExcludedIDs)
	assert.Equal(t, 4, depthStats.Splits[0].Copied)
}

func TestSplit_ValidatesArguments(t *testing.T) {
	ctx := context.Background()
	l := NewLocal()

	_, err := l.Split(ctx, nil, []string{"a"}, []int{100})
	assert.Error(t, err)

	_, err = l.Split(ctx, []string{"x.zip"}, []string{"a", "b"}, []int{100})
	assert.ErrorContains(t, err, "suffixes")

	_, err = l.Split(ctx, []string{"x.zip"}, []string{"a", "b"}, []int{60, 60})
	assert.ErrorContains(t, err, "sum to 100")
}
