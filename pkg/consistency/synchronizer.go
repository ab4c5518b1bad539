package consistency

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sonsunin65/portfolio-lugsana/pkg/blob"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBlobConcurrency bounds concurrent blob removals.
	DefaultBlobConcurrency = 8
	// DefaultUpdateConcurrency bounds concurrent position updates with Parallel.
	DefaultUpdateConcurrency = 4
)

// Synchronizer coordinates multi-step changes across a table and a blob store.
//
// It holds no data between calls: every routine re-reads what it needs from the table
// and takes the full desired state as input.
type Synchronizer struct {
	table             store.Table
	blobs             blob.Store
	logger            zerolog.Logger
	blobConcurrency   int
	updateConcurrency int
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithBlobConcurrency sets how many blob removals may run at once.
func WithBlobConcurrency(n int) Option {
	return func(s *Synchronizer) {
		if n > 0 {
			s.blobConcurrency = n
		}
	}
}

// WithUpdateConcurrency sets how many position updates the Parallel strategy runs at
// once.
func WithUpdateConcurrency(n int) Option {
	return func(s *Synchronizer) {
		if n > 0 {
			s.updateConcurrency = n
		}
	}
}

// NewSynchronizer creates a Synchronizer.
func NewSynchronizer(table store.Table, blobs blob.Store, logger zerolog.Logger, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		table:             table,
		blobs:             blobs,
		logger:            logger.With().Str("component", "consistency").Logger(),
		blobConcurrency:   DefaultBlobConcurrency,
		updateConcurrency: DefaultUpdateConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BlobReport is the result of removing a batch of blobs.
type BlobReport struct {
	// Removed lists the URLs passed to the blob store successfully.
	Removed []string `json:"removed,omitempty"`
	// Skipped lists URLs that do not point into blob storage.
	Skipped []string `json:"skipped,omitempty"`
	// Failed lists removals the blob store rejected.
	Failed []*BlobDeleteError `json:"-"`
}

// RemoveBlobs removes every URL from the blob store, one Remove call per URL, running
// up to the configured number of removals at once. Failures are collected, never
// returned: the batch always runs to completion.
func (s *Synchronizer) RemoveBlobs(ctx context.Context, urls []string) BlobReport {
	type target struct {
		url, bucket, path string
	}
	var report BlobReport
	var targets []target
	for _, u := range urls {
		bucket, path, err := blob.ParsePublicURL(u)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", u).Msg("skipping blob reference")
			report.Skipped = append(report.Skipped, u)
			continue
		}
		targets = append(targets, target{url: u, bucket: bucket, path: path})
	}
	if len(targets) == 0 {
		return report
	}

	errs := make([]error, len(targets))
	var g errgroup.Group
	g.SetLimit(s.blobConcurrency)
	for i, t := range targets {
		g.Go(func() error {
			errs[i] = s.blobs.Remove(ctx, t.bucket, []string{t.path})
			return nil
		})
	}
	_ = g.Wait()

	for i, t := range targets {
		if errs[i] != nil {
			s.logger.Warn().Err(errs[i]).Str("url", t.url).Msg("failed to delete blob")
			report.Failed = append(report.Failed, &BlobDeleteError{URL: t.url, Bucket: t.bucket, Path: t.path, Err: errs[i]})
			continue
		}
		report.Removed = append(report.Removed, t.url)
	}
	return report
}

// malformedCollector gathers malformed references reported during extraction.
type malformedCollector struct {
	errs []*MalformedReferenceError
}

func (c *malformedCollector) report(collection string, logger zerolog.Logger) func(*MalformedReferenceError) {
	return func(e *MalformedReferenceError) {
		e.Collection = collection
		logger.Warn().Err(e).Str("collection", collection).Str("id", e.RecordID).Str("field", e.Field).Msg("skipping malformed blob reference")
		c.errs = append(c.errs, e)
	}
}
