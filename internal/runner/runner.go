// Package runner drives the end-to-end extraction: it walks the chart
// store, runs OCR extraction per image, and keeps the CSV tables
// current after every image so an interrupted run loses nothing.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seung-gu/factset-report-analyzer/internal/extract"
	"github.com/seung-gu/factset-report-analyzer/internal/storage"
	"github.com/seung-gu/factset-report-analyzer/internal/timeseries"
)

// Object names in the data store.
const (
	EPSTableName        = "eps_estimates.csv"
	ConfidenceTableName = "confidence.csv"
)

// Summary reports what a run did.
type Summary struct {
	Total     int // charts found
	Skipped   int // dates already in the table
	Processed int // charts that produced records
	Empty     int // charts with no usable pairs
	Failed    int // charts that errored
	Rows      int // rows in the merged table afterwards
}

// Runner orchestrates per-chart extraction and table persistence.
type Runner struct {
	processor *extract.Processor
	charts    *storage.DirStore
	data      storage.Store
	progress  ProgressCallback
	logger    *slog.Logger
}

// New wires a Runner. A nil progress callback disables reporting.
func New(processor *extract.Processor, charts *storage.DirStore, data storage.Store, progress ProgressCallback, logger *slog.Logger) *Runner {
	if progress == nil {
		progress = NoOpProgressCallback{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{processor: processor, charts: charts, data: data, progress: progress, logger: logger}
}

// Run processes every chart not yet represented in the EPS table. Both
// tables are rewritten after each successfully processed chart. A chart
// that fails OCR or extraction is logged and skipped; only storage
// failures abort the run.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	table, err := r.loadTable(ctx)
	if err != nil {
		return Summary{}, err
	}
	confidence, err := r.loadConfidence(ctx)
	if err != nil {
		return Summary{}, err
	}

	charts, err := r.charts.List(ctx, ".png")
	if err != nil {
		return Summary{}, fmt.Errorf("list charts: %w", err)
	}

	summary := Summary{Total: len(charts)}
	pending := make([]string, 0, len(charts))
	for _, name := range charts {
		if table.HasDate(extract.ReportDateFromFilename(name)) {
			summary.Skipped++
			continue
		}
		pending = append(pending, name)
	}

	r.progress.OnStart(len(pending))
	for i, name := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		records, err := r.processor.ProcessImage(ctx, r.charts.Path(name))
		if err != nil {
			summary.Failed++
			r.progress.OnError(i+1, err)
			r.logger.Warn("chart extraction failed", "chart", name, "error", err)
			continue
		}
		if len(records) == 0 {
			summary.Empty++
			r.progress.OnProgress(i+1, len(pending))
			continue
		}

		date := records[0].ReportDate
		table = timeseries.Merge(table, timeseries.FromRecords(records))
		score := timeseries.ComputeConfidence(records, table, date)
		confidence = timeseries.MergeConfidence(confidence, []timeseries.ConfidenceRow{{Date: date, Confidence: score}})

		if err := r.persist(ctx, table, confidence); err != nil {
			return summary, err
		}
		summary.Processed++
		r.progress.OnProgress(i+1, len(pending))
	}
	r.progress.OnComplete()

	summary.Rows = len(table.Rows)
	r.logger.Info("run finished",
		"charts", summary.Total,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"empty", summary.Empty,
		"failed", summary.Failed,
		"rows", summary.Rows)
	return summary, nil
}

// loadTable reads the EPS table, treating a missing object as empty.
func (r *Runner) loadTable(ctx context.Context) (timeseries.Table, error) {
	data, err := r.data.Read(ctx, EPSTableName)
	if errors.Is(err, storage.ErrNotExist) {
		return timeseries.Table{}, nil
	}
	if err != nil {
		return timeseries.Table{}, fmt.Errorf("load %s: %w", EPSTableName, err)
	}
	table, err := timeseries.Decode(bytes.NewReader(data))
	if err != nil {
		return timeseries.Table{}, fmt.Errorf("decode %s: %w", EPSTableName, err)
	}
	return table, nil
}

func (r *Runner) loadConfidence(ctx context.Context) ([]timeseries.ConfidenceRow, error) {
	data, err := r.data.Read(ctx, ConfidenceTableName)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ConfidenceTableName, err)
	}
	rows, err := timeseries.DecodeConfidence(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", ConfidenceTableName, err)
	}
	return rows, nil
}

func (r *Runner) persist(ctx context.Context, table timeseries.Table, confidence []timeseries.ConfidenceRow) error {
	var buf bytes.Buffer
	if err := table.Encode(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", EPSTableName, err)
	}
	if err := r.data.Write(ctx, EPSTableName, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", EPSTableName, err)
	}

	buf.Reset()
	if err := timeseries.EncodeConfidence(confidence, &buf); err != nil {
		return fmt.Errorf("encode %s: %w", ConfidenceTableName, err)
	}
	if err := r.data.Write(ctx, ConfidenceTableName, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", ConfidenceTableName, err)
	}
	return nil
}
