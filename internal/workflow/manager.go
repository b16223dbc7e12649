package workflow

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"podbook/internal/book"
	"podbook/internal/config"
	"podbook/internal/covers"
	"podbook/internal/epub"
	"podbook/internal/feed"
	"podbook/internal/fetch"
	"podbook/internal/services/whisper"
)

// FeedSource parses a feed URL into podcast metadata and episodes.
type FeedSource interface {
	Parse(ctx context.Context, feedURL string) (feed.Podcast, []feed.Episode, error)
}

// Fetcher downloads one media resource to a local path.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, dest string) (int64, error)
}

// Transcriber converts one local audio file to plain text.
type Transcriber interface {
	Transcribe(ctx context.Context, source, outputDir string) (string, error)
}

// CoverFetcher stores podcast cover art at a local path.
type CoverFetcher interface {
	Ensure(ctx context.Context, coverURL, destPath string) error
}

// DocumentWriter packages an assembled document at outputPath.
type DocumentWriter interface {
	Write(doc *book.Document, outputPath string) error
}

// Manager drives the full pipeline for one podcast feed: parse, select,
// fetch, transcribe, assemble. Episodes are processed strictly in
// chronological order; at most the next episode's fetch overlaps the
// current transcription.
type Manager struct {
	cfg         *config.Config
	logger      *slog.Logger
	source      FeedSource
	fetcher     Fetcher
	transcriber Transcriber
	covers      CoverFetcher
	writer      DocumentWriter
}

// ManagerOption overrides a Manager collaborator, used in tests.
type ManagerOption func(*Manager)

// WithFeedSource replaces the feed parser.
func WithFeedSource(source FeedSource) ManagerOption {
	return func(m *Manager) { m.source = source }
}

// WithFetcher replaces the media fetcher.
func WithFetcher(fetcher Fetcher) ManagerOption {
	return func(m *Manager) { m.fetcher = fetcher }
}

// WithTranscriber replaces the transcription service.
func WithTranscriber(transcriber Transcriber) ManagerOption {
	return func(m *Manager) { m.transcriber = transcriber }
}

// WithCoverFetcher replaces the cover downloader.
func WithCoverFetcher(covers CoverFetcher) ManagerOption {
	return func(m *Manager) { m.covers = covers }
}

// WithDocumentWriter replaces the EPUB writer.
func WithDocumentWriter(writer DocumentWriter) ManagerOption {
	return func(m *Manager) { m.writer = writer }
}

// NewManager constructs a workflow manager with production collaborators
// built from the configuration.
func NewManager(cfg *config.Config, logger *slog.Logger, opts ...ManagerOption) *Manager {
	httpClient := &http.Client{Timeout: time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second}

	m := &Manager{
		cfg:    cfg,
		logger: logger,
		source: feed.NewSource(httpClient, cfg.Fetch.UserAgent),
		fetcher: fetch.NewClient(fetch.Config{
			MaxAttempts: cfg.Fetch.MaxAttempts,
			RetryBase:   time.Duration(cfg.Fetch.RetryBaseSeconds) * time.Second,
			RetryMax:    time.Duration(cfg.Fetch.RetryMaxSeconds) * time.Second,
			Timeout:     time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
			UserAgent:   cfg.Fetch.UserAgent,
		}),
		transcriber: whisper.NewService(whisper.Config{
			Model:       cfg.Whisper.Model,
			CUDAEnabled: cfg.Whisper.CUDAEnabled,
			Language:    cfg.Whisper.Language,
		}),
		covers: covers.NewFetcher(httpClient, cfg.Fetch.UserAgent),
		writer: epub.NewWriter(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}
