// Package downloader fetches Earnings Insight report PDFs by probing
// the publisher's predictable per-date URLs.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/seung-gu/factset-report-analyzer/internal/storage"
)

// Reports before this date use a different layout and are not probed.
var defaultMinDate = time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)

// Config controls the probing behavior.
type Config struct {
	BaseURL           string    `mapstructure:"base_url" yaml:"base_url"`
	RequestsPerSecond float64   `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	MinDate           time.Time `mapstructure:"min_date" yaml:"min_date"`
}

// DefaultConfig returns the published report location with a polite
// request rate.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://insight.factset.com/hubfs/Resources%20Section/Research%20Desk/Earnings%20Insight",
		RequestsPerSecond: 2,
		MinDate:           defaultMinDate,
	}
}

// Downloader probes report URLs backwards in time and stores hits.
type Downloader struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	store   *storage.DirStore
	logger  *slog.Logger
}

// New builds a Downloader writing PDFs into the given store.
func New(cfg Config, store *storage.DirStore, client *http.Client, logger *slog.Logger) *Downloader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MinDate.IsZero() {
		cfg.MinDate = defaultMinDate
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &Downloader{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		store:   store,
		logger:  logger,
	}
}

// filenames returns the candidate report names for a date. The publisher
// switched between two-digit and four-digit years over the archive, so
// both are probed.
func filenames(date time.Time) []string {
	return []string{
		fmt.Sprintf("EarningsInsight_%s.pdf", date.Format("010206")),
		fmt.Sprintf("EarningsInsight_%s.pdf", date.Format("01022006")),
	}
}

// Sync walks day by day from `until` back to the configured minimum
// date, downloading any report not already in the store. It returns the
// names of newly stored PDFs, most recent first.
func (d *Downloader) Sync(ctx context.Context, until time.Time) ([]string, error) {
	existing, err := d.store.List(ctx, ".pdf")
	if err != nil {
		return nil, fmt.Errorf("list existing reports: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	var fetched []string
	for date := until; !date.Before(d.cfg.MinDate); date = date.AddDate(0, 0, -1) {
		if err := ctx.Err(); err != nil {
			return fetched, err
		}
		name, err := d.fetchDate(ctx, date, have)
		if err != nil {
			return fetched, err
		}
		if name != "" {
			fetched = append(fetched, name)
		}
	}
	d.logger.Info("report sync finished", "new", len(fetched), "existing", len(existing))
	return fetched, nil
}

// fetchDate probes both filename forms for one date. A stored or
// missing report returns ""; transient HTTP failures are logged and
// skipped so one bad day does not abort the sweep.
func (d *Downloader) fetchDate(ctx context.Context, date time.Time, have map[string]bool) (string, error) {
	for _, name := range filenames(date) {
		if have[name] {
			return "", nil
		}
	}
	for _, name := range filenames(date) {
		data, err := d.fetch(ctx, name)
		if errors.Is(err, storage.ErrNotExist) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			d.logger.Warn("report fetch failed", "name", name, "error", err)
			continue
		}
		if err := d.store.Write(ctx, name, data); err != nil {
			return "", fmt.Errorf("store %s: %w", name, err)
		}
		d.logger.Info("downloaded report", "name", name, "bytes", len(data))
		return name, nil
	}
	return "", nil
}

func (d *Downloader) fetch(ctx context.Context, name string) ([]byte, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u := d.cfg.BaseURL + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", name, storage.ErrNotExist)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s: unexpected status %s", name, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
