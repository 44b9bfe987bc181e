package main

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/shopgen/domain"
	"github.com/fastygo/shopgen/internal/config"
	"github.com/fastygo/shopgen/internal/generator"
	"github.com/fastygo/shopgen/internal/infrastructure/export"
	"github.com/fastygo/shopgen/internal/quality"
)

var checkReference = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

// writeLargeCatalog writes CSVs for a catalog bigger than the default one.
func writeLargeCatalog(t *testing.T) string {
	t.Helper()
	gen := config.DefaultGenerator()
	gen.Customers, gen.Orders, gen.Events = 50, 300, 500
	gen.Products = 500
	gen.ReferenceDate = checkReference
	ds, err := generator.New(gen, generator.NewSource(gen.Seed), nil, nil).Run(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	_, err = export.NewCSVWriter(dir).Write(context.Background(), ds)
	require.NoError(t, err)
	return dir
}

func runCheck(t *testing.T, products int, args ...string) (string, error) {
	t.Helper()
	cfg := &config.Config{Generator: config.DefaultGenerator()}
	cfg.Generator.Products = products

	cmd := newCheckCommand(&app{cfg: cfg})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCheckLargeCatalogWithoutCatalogSize(t *testing.T) {
	t.Setenv("DATAGEN_PRODUCTS", "")
	dir := writeLargeCatalog(t)

	out, err := runCheck(t, 200, "--dir", dir)
	require.NoError(t, err)
	assert.NotContains(t, out, quality.CheckProductRefs)
	assert.NotContains(t, out, "FAIL")
}

func TestCheckLargeCatalogWithProductsFlag(t *testing.T) {
	t.Setenv("DATAGEN_PRODUCTS", "")
	dir := writeLargeCatalog(t)

	out, err := runCheck(t, 200, "--dir", dir, "--products", "500")
	require.NoError(t, err)
	assert.Contains(t, out, quality.CheckProductRefs)

	out, err = runCheck(t, 200, "--dir", dir, "--products", "200")
	require.ErrorIs(t, err, domain.ErrQualityCheckFailed)
	assert.Contains(t, out, "FAIL  "+quality.CheckProductRefs)
}

func TestCheckCatalogFromEnvironment(t *testing.T) {
	dir := writeLargeCatalog(t)

	t.Setenv("DATAGEN_PRODUCTS", "500")
	_, err := runCheck(t, 500, "--dir", dir)
	require.NoError(t, err)

	t.Setenv("DATAGEN_PRODUCTS", "200")
	_, err = runCheck(t, 200, "--dir", dir)
	require.ErrorIs(t, err, domain.ErrQualityCheckFailed)
}

func TestCheckReferenceDate(t *testing.T) {
	t.Setenv("DATAGEN_PRODUCTS", "")
	dir := writeLargeCatalog(t)

	_, err := runCheck(t, 200, "--dir", dir, "--reference-date", "2025-10-15")
	require.NoError(t, err)

	out, err := runCheck(t, 200, "--dir", dir, "--reference-date", "2024-01-01")
	require.ErrorIs(t, err, domain.ErrQualityCheckFailed)
	assert.Contains(t, out, "FAIL  "+quality.CheckOrderWindow)

	_, err = runCheck(t, 200, "--dir", dir, "--reference-date", "15/10/2025")
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestCheckOptions(t *testing.T) {
	gen := config.DefaultGenerator()

	opts, err := checkOptions(gen, "", 0)
	require.NoError(t, err)
	assert.Zero(t, opts.Products)
	assert.True(t, opts.OrderStart.IsZero())
	assert.True(t, opts.OrderEnd.IsZero())
	assert.Equal(t, gen.FrequentShare, opts.FrequentShare)

	opts, err = checkOptions(gen, "2025-10-15", 500)
	require.NoError(t, err)
	assert.Equal(t, 500, opts.Products)
	assert.Equal(t, checkReference.AddDate(0, 0, -gen.LookbackDays), opts.OrderStart)
	assert.Equal(t, checkReference.AddDate(0, 0, -1), opts.OrderEnd)

	_, err = checkOptions(gen, "", -1)
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}
