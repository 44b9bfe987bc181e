package export

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/shopgen/domain"
)

func parquetRows(t *testing.T, path string) int64 {
	t.Helper()
	r, err := file.OpenParquetFile(path, false)
	require.NoError(t, err)
	defer r.Close()
	return r.NumRows()
}

func TestParquetWriterSingleFiles(t *testing.T) {
	dir := t.TempDir()
	files, err := NewParquetWriter(dir, DefaultParquetOptions()).Write(context.Background(), fixture())
	require.NoError(t, err)
	require.Len(t, files, 4)

	want := map[string]int64{
		domain.EntityCustomers:   2,
		domain.EntityOrders:      2,
		domain.EntityOrderItems:  3,
		domain.EntityClickstream: 1,
	}
	for _, f := range files {
		assert.Equal(t, FormatParquet, f.Format)
		assert.Equal(t, filepath.Join(dir, f.Entity+".parquet"), f.Path)
		assert.Equal(t, want[f.Entity], parquetRows(t, f.Path))
		assert.EqualValues(t, want[f.Entity], f.Rows)
	}
}

func TestParquetWriterPartitionsByDay(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultParquetOptions()
	opts.Partitioned = true
	opts.Compression = "zstd"

	files, err := NewParquetWriter(dir, opts).Write(context.Background(), fixture())
	require.NoError(t, err)

	var orderPaths []string
	for _, f := range files {
		if f.Entity == domain.EntityOrders {
			orderPaths = append(orderPaths, f.Path)
			assert.Equal(t, 1, f.Rows)
		}
	}
	assert.Equal(t, []string{
		filepath.Join(dir, "orders", "year=2024", "month=05", "day=02", "orders.parquet"),
		filepath.Join(dir, "orders", "year=2024", "month=05", "day=03", "orders.parquet"),
	}, orderPaths)

	eventDir := PartitionDir(dir, domain.EntityClickstream, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	assert.FileExists(t, filepath.Join(eventDir, "clickstream_events.parquet"))
	assert.FileExists(t, filepath.Join(dir, "customers.parquet"))
}

func TestParquetWriterEmptyDataset(t *testing.T) {
	dir := t.TempDir()
	files, err := NewParquetWriter(dir, DefaultParquetOptions()).Write(context.Background(), &domain.Dataset{})
	require.NoError(t, err)
	require.Len(t, files, 4)
	for _, f := range files {
		assert.Zero(t, parquetRows(t, f.Path))
	}
}

func TestParquetIsDeterministic(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	fa, err := NewParquetWriter(a, DefaultParquetOptions()).Write(context.Background(), fixture())
	require.NoError(t, err)
	fb, err := NewParquetWriter(b, DefaultParquetOptions()).Write(context.Background(), fixture())
	require.NoError(t, err)

	for i := range fa {
		assert.Equal(t, fa[i].Checksum, fb[i].Checksum, fa[i].Entity)
	}
}

func TestPartitionDir(t *testing.T) {
	got := PartitionDir("lake", "orders", time.Date(2025, 1, 9, 23, 0, 0, 0, time.UTC))
	assert.Equal(t, filepath.Join("lake", "orders", "year=2025", "month=01", "day=09"), got)
}

func TestToDecimal128(t *testing.T) {
	n := toDecimal128(decimal.RequireFromString("123.45"))
	assert.Equal(t, uint64(12345), n.LowBits())
	assert.Equal(t, int64(0), n.HighBits())

	n = toDecimal128(decimal.RequireFromString("0.01"))
	assert.Equal(t, uint64(1), n.LowBits())
}

func TestGroupByDayKeepsFirstSeenOrder(t *testing.T) {
	ts := []time.Time{
		time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC),
	}
	days, groups := groupByDay(ts, func(t time.Time) time.Time { return t })
	require.Len(t, days, 2)
	assert.Equal(t, 2, days[0].Day())
	assert.Len(t, groups[days[0]], 2)
	assert.Len(t, groups[days[1]], 1)
}
