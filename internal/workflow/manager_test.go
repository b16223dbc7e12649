package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"podbook/internal/book"
	"podbook/internal/feed"
	"podbook/internal/logging"
	"podbook/internal/queue"
	"podbook/internal/services"
	"podbook/internal/testsupport"
	"podbook/internal/workflow"
)

type fakeSource struct {
	podcast  feed.Podcast
	episodes []feed.Episode
	err      error
}

func (s *fakeSource) Parse(ctx context.Context, feedURL string) (feed.Podcast, []feed.Episode, error) {
	if s.err != nil {
		return feed.Podcast{}, nil, s.err
	}
	return s.podcast, s.episodes, nil
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL, dest string) (int64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	f.mu.Unlock()
	if err := f.fail[rawURL]; err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	data := []byte("audio:" + rawURL)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

func (f *fakeFetcher) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeTranscriber struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error // keyed by the audio URL baked into the file
}

func (t *fakeTranscriber) Transcribe(ctx context.Context, source, outputDir string) (string, error) {
	t.mu.Lock()
	t.calls = append(t.calls, source)
	t.mu.Unlock()

	data, err := os.ReadFile(source)
	if err != nil {
		return "", err
	}
	audioURL := strings.TrimPrefix(string(data), "audio:")
	if err := t.fail[audioURL]; err != nil {
		return "", err
	}
	return "transcript of " + audioURL, nil
}

type fakeCovers struct {
	data []byte
	err  error
}

func (c *fakeCovers) Ensure(ctx context.Context, coverURL, destPath string) error {
	if c.err != nil {
		return c.err
	}
	return os.WriteFile(destPath, c.data, 0o644)
}

type fakeWriter struct {
	docs  []*book.Document
	paths []string
}

func (w *fakeWriter) Write(doc *book.Document, outputPath string) error {
	w.docs = append(w.docs, doc)
	w.paths = append(w.paths, outputPath)
	return os.WriteFile(outputPath, []byte("epub"), 0o644)
}

type managerFixture struct {
	manager     *workflow.Manager
	source      *fakeSource
	fetcher     *fakeFetcher
	transcriber *fakeTranscriber
	covers      *fakeCovers
	writer      *fakeWriter
	libraryDir  string
}

func episodeURL(i int) string {
	return fmt.Sprintf("https://cdn.example.com/ep%d.mp3", i)
}

func threeEpisodes() []feed.Episode {
	// Newest first, as feeds usually arrive.
	return []feed.Episode{
		{Title: "Episode Three", Published: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), AudioURL: episodeURL(3), GUID: "g3"},
		{Title: "Episode Two", Published: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), AudioURL: episodeURL(2), GUID: "g2"},
		{Title: "Episode One", Published: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), AudioURL: episodeURL(1), GUID: "g1"},
	}
}

func newFixture(t *testing.T, episodes []feed.Episode) *managerFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	f := &managerFixture{
		source: &fakeSource{
			podcast:  feed.Podcast{Title: "Night Shift Radio", Author: "Dana Holt", CoverURL: "https://cdn.example.com/cover.png"},
			episodes: episodes,
		},
		fetcher:     &fakeFetcher{fail: map[string]error{}},
		transcriber: &fakeTranscriber{fail: map[string]error{}},
		covers:      &fakeCovers{data: []byte("jpeg-bytes")},
		writer:      &fakeWriter{},
		libraryDir:  cfg.Paths.LibraryDir,
	}
	f.manager = workflow.NewManager(cfg, logging.NewNop(),
		workflow.WithFeedSource(f.source),
		workflow.WithFetcher(f.fetcher),
		workflow.WithTranscriber(f.transcriber),
		workflow.WithCoverFetcher(f.covers),
		workflow.WithDocumentWriter(f.writer),
	)
	return f
}

func (f *managerFixture) podcastDir() string {
	return filepath.Join(f.libraryDir, "Night_Shift_Radio")
}

func (f *managerFixture) openStore(t *testing.T) *queue.Store {
	t.Helper()
	store, err := queue.Open(filepath.Join(f.podcastDir(), "podbook.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func chapterTitles(doc *book.Document) []string {
	titles := make([]string, len(doc.Chapters))
	for i, ch := range doc.Chapters {
		titles[i] = ch.Title
	}
	return titles
}

func TestRunProcessesAllEpisodes(t *testing.T) {
	f := newFixture(t, threeEpisodes())

	summary, err := f.manager.Run(context.Background(), "https://example.com/feed.xml", 0, -1)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Selected != 3 || summary.Chaptered != 3 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if len(f.writer.docs) != 1 {
		t.Fatalf("expected one document write, got %d", len(f.writer.docs))
	}
	doc := f.writer.docs[0]
	titles := chapterTitles(doc)
	want := []string{"Episode One", "Episode Two", "Episode Three"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("chapter order: expected %v, got %v", want, titles)
		}
	}
	if doc.Chapters[0].Index != 1 || doc.Chapters[2].Index != 3 {
		t.Fatalf("chapter numbering wrong: %+v", doc.Chapters)
	}
	if string(doc.Cover) != "jpeg-bytes" {
		t.Fatal("cover bytes not threaded into document")
	}

	wantPath := filepath.Join(f.podcastDir(), "Night_Shift_Radio.epub")
	if summary.OutputPath != wantPath {
		t.Fatalf("output path: expected %s, got %s", wantPath, summary.OutputPath)
	}

	// Audio is transient: all files removed after transcription.
	entries, err := os.ReadDir(filepath.Join(f.podcastDir(), "audio"))
	if err != nil {
		t.Fatalf("read audio dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty audio dir, found %d entries", len(entries))
	}
}

func TestRunContinuesPastFetchFailure(t *testing.T) {
	f := newFixture(t, threeEpisodes())
	f.fetcher.fail[episodeURL(2)] = errors.New("status 404")

	summary, err := f.manager.Run(context.Background(), "https://example.com/feed.xml", 0, -1)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Chaptered != 2 || summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	titles := chapterTitles(f.writer.docs[0])
	if len(titles) != 2 || titles[0] != "Episode One" || titles[1] != "Episode Three" {
		t.Fatalf("failed episode must leave no placeholder, got %v", titles)
	}

	store := f.openStore(t)
	item, err := store.GetByKey(context.Background(), feed.Episode{GUID: "g2"}.Key())
	if err != nil || item == nil {
		t.Fatalf("missing state for failed episode: %v", err)
	}
	if item.Status != queue.StatusFailed || item.ErrorMessage == "" {
		t.Fatalf("expected recorded failure, got %+v", item)
	}
}

func TestRunSelectsRange(t *testing.T) {
	f := newFixture(t, threeEpisodes())

	summary, err := f.manager.Run(context.Background(), "https://example.com/feed.xml", 1, 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Selected != 1 || summary.Chaptered != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	titles := chapterTitles(f.writer.docs[0])
	if len(titles) != 1 || titles[0] != "Episode Two" {
		t.Fatalf("range [1,2) over sorted list must pick the second-oldest, got %v", titles)
	}
	if got := f.fetcher.fetchCount(); got != 1 {
		t.Fatalf("episodes outside the range must not be fetched, got %d fetches", got)
	}
}

func TestRunSkipsEpisodesWithoutAudio(t *testing.T) {
	episodes := threeEpisodes()
	episodes[1].AudioURL = "" // Episode Two
	f := newFixture(t, episodes)

	summary, err := f.manager.Run(context.Background(), "https://example.com/feed.xml", 0, -1)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Skipped != 1 || summary.Chaptered != 2 || summary.Failed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRunResumesWithoutRework(t *testing.T) {
	f := newFixture(t, threeEpisodes())
	if _, err := f.manager.Run(context.Background(), "https://example.com/feed.xml", 0, -1); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	firstFetches := f.fetcher.fetchCount()

	// A second run must rebuild the book from persisted transcripts.
	for i := 1; i <= 3; i++ {
		f.transcriber.fail[episodeURL(i)] = errors.New("transcriber must not be called")
	}
	summary, err := f.manager.Run(context.Background(), "https://example.com/feed.xml", 0, -1)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if summary.Reused != 3 || summary.Failed != 0 || summary.Chaptered != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if got := f.fetcher.fetchCount(); got != firstFetches {
		t.Fatalf("resumed run must not re-download audio: %d -> %d fetches", firstFetches, got)
	}
}

func TestRunRetainsAudioOnTranscriptionFailure(t *testing.T) {
	f := newFixture(t, threeEpisodes())
	f.transcriber.fail[episodeURL(2)] = errors.New("model crashed")

	summary, err := f.manager.Run(context.Background(), "https://example.com/feed.xml", 0, -1)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failed != 1 || summary.Chaptered != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	key := feed.Episode{GUID: "g2"}.Key()
	audioPath := filepath.Join(f.podcastDir(), "audio", key+".mp3")
	if _, err := os.Stat(audioPath); err != nil {
		t.Fatalf("audio for failed transcription must stay on disk: %v", err)
	}

	// The retained file lets the next run go straight to transcription.
	f.transcriber.fail = map[string]error{}
	if _, err := f.manager.Run(context.Background(), "https://example.com/feed.xml", 0, -1); err != nil {
		t.Fatalf("retry run failed: %v", err)
	}
	found := false
	for _, call := range f.fetcher.calls {
		if call == episodeURL(2) && found {
			t.Fatal("retry must reuse the retained audio file")
		}
		if call == episodeURL(2) {
			found = true
		}
	}
}

func TestRunFeedFailureIsFatal(t *testing.T) {
	f := newFixture(t, nil)
	f.source.err = services.Wrap(services.ErrFeedUnreachable, "feed", "parse", "boom", errors.New("dns failure"))

	if _, err := f.manager.Run(context.Background(), "https://example.com/feed.xml", 0, -1); err == nil {
		t.Fatal("expected fatal error")
	} else if !services.Fatal(err) {
		t.Fatalf("feed failure must classify as fatal, got %v", err)
	}
	if len(f.writer.docs) != 0 {
		t.Fatal("no document may be written after a feed failure")
	}
}

func TestRunProducesDegenerateBook(t *testing.T) {
	f := newFixture(t, threeEpisodes())
	for i := 1; i <= 3; i++ {
		f.fetcher.fail[episodeURL(i)] = errors.New("status 500")
	}

	summary, err := f.manager.Run(context.Background(), "https://example.com/feed.xml", 0, -1)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Chaptered != 0 || summary.Failed != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(f.writer.docs) != 1 {
		t.Fatal("a document must be written even with zero chapters")
	}
	if len(f.writer.docs[0].Chapters) != 0 {
		t.Fatal("degenerate document must have no chapters")
	}
}

func TestRunSurvivesCoverFailure(t *testing.T) {
	f := newFixture(t, threeEpisodes())
	f.covers.err = errors.New("status 503")

	summary, err := f.manager.Run(context.Background(), "https://example.com/feed.xml", 0, -1)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Chaptered != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(f.writer.docs[0].Cover) != 0 {
		t.Fatal("document must carry no cover after a cover failure")
	}
}
