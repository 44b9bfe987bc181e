package generate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/shopgen/domain"
	"github.com/fastygo/shopgen/internal/config"
	"github.com/fastygo/shopgen/internal/generator"
	"github.com/fastygo/shopgen/internal/infrastructure/export"
	"github.com/fastygo/shopgen/internal/infrastructure/manifest"
	"github.com/fastygo/shopgen/internal/quality"
	"github.com/fastygo/shopgen/pkg/logger"
	"github.com/fastygo/shopgen/usecase"
)

// ParquetSubdir holds the lake export beside the CSV files.
const ParquetSubdir = "parquet"

// Options tune a single invocation.
type Options struct {
	// Verify fails the run when a previous run with the same configuration wrote different bytes.
	Verify bool
}

// Result summarizes a generate run.
type Result struct {
	RunID      string
	Counts     map[string]int
	Files      []export.File
	Report     quality.Report
	Mismatches []manifest.Mismatch
}

type UseCase struct {
	generator config.GeneratorConfig
	output    config.OutputConfig
	runs      usecase.RunStore
	progress  generator.Progress
	logger    *zap.Logger
}

// New wires the generate use case. runs may be nil to skip the manifest.
func New(gen config.GeneratorConfig, out config.OutputConfig, runs usecase.RunStore, progress generator.Progress, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		generator: gen,
		output:    out,
		runs:      runs,
		progress:  progress,
		logger:    logger,
	}
}

// Run generates the dataset, checks it, writes every requested format and records the run.
// Nothing is written when generation or the quality checks fail.
func (uc *UseCase) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := uc.output.Validate(); err != nil {
		return nil, err
	}
	log := logger.WithRunID(ctx, uc.logger)

	src := generator.NewSource(uc.generator.Seed)
	ds, err := generator.New(uc.generator, src, log, uc.progress).Run(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:  logger.RunID(ctx),
		Counts: ds.Counts(),
		Report: quality.Check(ds, quality.OptionsFor(uc.generator)),
	}
	for _, r := range res.Report.Results {
		log.Debug("quality check", zap.String("check", r.Name), zap.Bool("passed", r.Passed), zap.String("detail", r.Detail))
	}
	if failed := res.Report.Failed(); len(failed) > 0 {
		names := make([]string, len(failed))
		for i, f := range failed {
			names[i] = f.Name
		}
		return res, fmt.Errorf("%w: %s", domain.ErrQualityCheckFailed, strings.Join(names, ", "))
	}

	for _, w := range uc.writers() {
		files, err := w.Write(ctx, ds)
		res.Files = append(res.Files, files...)
		if err != nil {
			return res, err
		}
	}
	for _, f := range res.Files {
		log.Info("wrote file",
			zap.String("entity", f.Entity),
			zap.String("format", f.Format),
			zap.String("path", f.Path),
			zap.Int("rows", f.Rows))
	}

	if uc.runs == nil {
		return res, nil
	}
	return res, uc.record(res, opts, log)
}

func (uc *UseCase) writers() []export.Writer {
	var out []export.Writer
	if uc.output.HasFormat(config.FormatCSV) {
		out = append(out, export.NewCSVWriter(uc.output.Dir))
	}
	if uc.output.HasFormat(config.FormatParquet) {
		opts := export.DefaultParquetOptions()
		opts.Partitioned = uc.output.Partitioned
		out = append(out, export.NewParquetWriter(filepath.Join(uc.output.Dir, ParquetSubdir), opts))
	}
	return out
}

// record compares the written files against the last run with the same fingerprint, then
// stores this run.
func (uc *UseCase) record(res *Result, opts Options, log *zap.Logger) error {
	canonical := Canonical(uc.generator, uc.output)
	run := &manifest.Run{
		ID:          res.RunID,
		Seed:        uc.generator.Seed,
		Config:      canonical,
		Fingerprint: manifest.Fingerprint(canonical),
		Files:       res.Files,
	}

	previous, err := uc.runs.Latest(run.Fingerprint)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	res.Mismatches = manifest.Compare(previous, run)
	for _, m := range res.Mismatches {
		log.Warn("output differs from previous run with the same configuration",
			zap.String("path", m.Path),
			zap.String("previous_run", previous.ID),
			zap.Uint64("previous_checksum", m.Previous),
			zap.Uint64("checksum", m.Current))
	}

	if err := uc.runs.Record(run); err != nil {
		return fmt.Errorf("record manifest: %w", err)
	}
	res.RunID = run.ID

	if opts.Verify && len(res.Mismatches) > 0 {
		return fmt.Errorf("%w: %d files", domain.ErrManifestMismatch, len(res.Mismatches))
	}
	return nil
}

// Canonical is the configuration string a run is fingerprinted by.
func Canonical(gen config.GeneratorConfig, out config.OutputConfig) string {
	return fmt.Sprintf("%s;dir=%s;formats=%s;partitioned=%t",
		gen.Fingerprint(), out.Dir, strings.Join(out.Formats, ","), out.Partitioned)
}
